// SPDX-License-Identifier: MPL-2.0

// Package staging owns the per-run scratch area of a verification.
//
// Every run gets its own root created with os.MkdirTemp, holding the
// download/, clone/ and unpack/ working directories. Stages reset their
// directory before use and the whole root is removed by Close unless the
// caller asked to keep it for inspection.
package staging
