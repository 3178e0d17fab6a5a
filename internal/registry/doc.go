// SPDX-License-Identifier: MPL-2.0

// Package registry downloads published packages from an npm registry.
//
// It fetches the package document (packument), resolves the requested
// version, dist-tag or range to one published version, downloads its tarball,
// checks it against the registry-provided integrity hash and unpacks it. The
// integrity check only guards the transfer; it says nothing about whether the
// tarball matches its source repository.
package registry
