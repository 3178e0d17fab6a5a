// SPDX-License-Identifier: MPL-2.0

// Package treediff compares two directory trees and reports every path that
// differs as a structured, line-based diff record.
//
// A path differs either in its stat shape (present on one side only, or a
// file on one side and a directory on the other) or in its content. Stat
// differences are reported as a diff of the JSON rendering of both stat
// shapes; content differences as a diff of the file text. Content records
// always precede stat records in a Result.
package treediff
