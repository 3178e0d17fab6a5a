// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors and a catalog of markdown help
// pages, one per failure a verification run can hit.
package issue
