// SPDX-License-Identifier: MPL-2.0

// Package gitclone checks out the source repository of a package at the tag
// matching its published version.
//
// npm projects tag releases either as "v1.2.3" or as "1.2.3"; the Resolver
// tries both in that order against a fresh destination and reports every
// failed attempt when neither exists.
package gitclone
