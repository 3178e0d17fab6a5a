// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Color palette shared by progress, help text and error output.
const (
	// ColorPrimary is purple, used for the command title.
	ColorPrimary = lipgloss.Color("#7C3AED")

	// ColorMuted is gray, used for subtitles and secondary text.
	ColorMuted = lipgloss.Color("#6B7280")

	// ColorError is red, used for errors and failures.
	ColorError = lipgloss.Color("#EF4444")

	// ColorHighlight is blue, used for package references and URLs.
	ColorHighlight = lipgloss.Color("#3B82F6")

	// ColorVerbose is light gray, used for the build transcript hint.
	ColorVerbose = lipgloss.Color("#9CA3AF")
)

var (
	// TitleStyle is for the command title in help output.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// SubtitleStyle is for secondary headers and descriptions.
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// ErrorStyle is for error messages and failure indicators.
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	// HighlightStyle is for package references and repository URLs in progress lines.
	HighlightStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorHighlight)

	// VerboseStyle is for verbose output and supplementary information.
	VerboseStyle = lipgloss.NewStyle().
			Foreground(ColorVerbose)
)
