// SPDX-License-Identifier: MPL-2.0

// Package pipeline sequences a verification run: download, resolve the
// repository, clone, locate the package root, rebuild, unpack, compare.
//
// Stages run strictly in order. The first failing stage aborts the run with a
// *StageError and the scratch root is cleaned up on every exit path.
package pipeline
