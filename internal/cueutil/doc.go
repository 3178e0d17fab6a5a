// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates CUE documents against an embedded schema
// definition and decodes them into Go values.
package cueutil
