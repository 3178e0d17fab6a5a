// SPDX-License-Identifier: MPL-2.0

// Package benchmark provides benchmarks for PGO profile generation.
// They cover the hot paths of a verification run:
//   - package reference and version range parsing
//   - package-root discovery in large checkouts
//   - tarball extraction
//   - tree comparison
//
// To generate a PGO profile, run:
//
//	go test -run '^$' -bench . -cpuprofile default.pgo ./internal/benchmark
package benchmark
