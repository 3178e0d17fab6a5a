// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Besides the Must* file helpers it builds fixture trees (WriteTree) and
// npm-style tarballs (TarGz, WriteTarGz) for the staging, registry and
// pipeline tests.
package testutil
