// SPDX-License-Identifier: MPL-2.0

package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/npmverified/npm-verified/internal/treediff"
)

var (
	colorSame    = lipgloss.Color("#10B981")
	colorDiffers = lipgloss.Color("#EF4444")
	colorPath    = lipgloss.Color("#D946EF")
	colorMuted   = lipgloss.Color("#6B7280")
)

// Styles used by the text report.
type Styles struct {
	Same    lipgloss.Style
	Differs lipgloss.Style
	Removed lipgloss.Style
	Added   lipgloss.Style
	Path    lipgloss.Style
	Range   lipgloss.Style
}

// DefaultStyles returns the report palette, or unstyled text when color is
// false. Tabs inside diff lines are kept as-is.
func DefaultStyles(color bool) Styles {
	base := lipgloss.NewStyle().TabWidth(lipgloss.NoTabConversion)
	if !color {
		return Styles{Same: base, Differs: base, Removed: base, Added: base, Path: base, Range: base}
	}
	return Styles{
		Same:    base.Bold(true).Foreground(colorSame),
		Differs: base.Bold(true).Foreground(colorDiffers),
		Removed: base.Foreground(colorDiffers),
		Added:   base.Foreground(colorSame),
		Path:    base.Foreground(colorPath),
		Range:   base.Foreground(colorMuted),
	}
}

// Text renders the human report: the verdict, then for differences a
// legend and every hunk under a "./path[ (stats)] @ a-b → c-d" header.
func Text(doc Document, s Styles) string {
	if doc.Same {
		return fmt.Sprintf("Published package is %s as the package prepared from source code.\n", s.Same.Render("the same"))
	}

	parts := []string{
		fmt.Sprintf("Published package is %s from the package prepared from source code.", s.Differs.Render("different")),
		s.Removed.Render("- prepared") + " " + s.Added.Render("+ published"),
	}
	for _, rec := range doc.Diffs {
		for _, h := range rec.Hunks {
			parts = append(parts, "\n"+hunkHeader(rec, h, s))
			for _, line := range h.Lines {
				parts = append(parts, styleLine(line, s))
			}
		}
	}
	return strings.Join(parts, "\n") + "\n"
}

func hunkHeader(rec treediff.Record, h treediff.Hunk, s Styles) string {
	path := "./" + rec.Path
	if rec.Kind == treediff.KindStat {
		path += " (stats)"
	}
	span := fmt.Sprintf(" @ %d-%d → %d-%d", h.OldStart, h.OldStart+h.OldLines, h.NewStart, h.NewStart+h.NewLines)
	return s.Path.Render(path) + s.Range.Render(span)
}

func styleLine(line string, s Styles) string {
	switch {
	case strings.HasPrefix(line, "-"):
		return s.Removed.Render(line)
	case strings.HasPrefix(line, "+"):
		return s.Added.Render(line)
	default:
		return line
	}
}
