// SPDX-License-Identifier: MPL-2.0

package treediff

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const noNewlineMarker = `\ No newline at end of file`

// lineHunks diffs a against b line by line and groups the changes into hunks
// with n lines of context. Identical inputs yield no hunks.
func lineHunks(a, b string, n int) []Hunk {
	if a == b {
		return nil
	}
	oldLines, newLines := splitLines(a), splitLines(b)
	groups := difflib.NewMatcher(oldLines, newLines).GetGroupedOpCodes(n)

	hunks := make([]Hunk, 0, len(groups))
	for _, group := range groups {
		if !hasChange(group) {
			continue
		}
		first, last := group[0], group[len(group)-1]
		h := Hunk{
			OldStart: rangeStart(first.I1, last.I2),
			OldLines: last.I2 - first.I1,
			NewStart: rangeStart(first.J1, last.J2),
			NewLines: last.J2 - first.J1,
		}
		for _, op := range group {
			switch op.Tag {
			case 'e':
				h.Lines = appendLines(h.Lines, ' ', oldLines[op.I1:op.I2])
			case 'd':
				h.Lines = appendLines(h.Lines, '-', oldLines[op.I1:op.I2])
			case 'i':
				h.Lines = appendLines(h.Lines, '+', newLines[op.J1:op.J2])
			case 'r':
				h.Lines = appendLines(h.Lines, '-', oldLines[op.I1:op.I2])
				h.Lines = appendLines(h.Lines, '+', newLines[op.J1:op.J2])
			}
		}
		hunks = append(hunks, h)
	}
	return hunks
}

// rangeStart is 1-based, except that an empty range points at the line
// before it, as unified diffs do.
func rangeStart(lo, hi int) int {
	if hi == lo {
		return lo
	}
	return lo + 1
}

// splitLines keeps the terminating newline on every line so that a missing
// final newline is a difference of its own.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func appendLines(dst []string, prefix byte, lines []string) []string {
	for _, line := range lines {
		text, terminated := strings.CutSuffix(line, "\n")
		dst = append(dst, string(prefix)+text)
		if !terminated {
			dst = append(dst, noNewlineMarker)
		}
	}
	return dst
}

func hasChange(group []difflib.OpCode) bool {
	for _, op := range group {
		if op.Tag != 'e' {
			return true
		}
	}
	return false
}
