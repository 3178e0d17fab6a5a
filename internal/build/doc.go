// SPDX-License-Identifier: MPL-2.0

// Package build rebuilds a package from its source checkout with the
// ecosystem's own tools.
//
// Install and pack command lines run through the embedded mvdan/sh
// interpreter, so quoting behaves the same on every OS while the npm and yarn
// binaries themselves are resolved from PATH.
package build
