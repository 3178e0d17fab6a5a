// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// progress prints one line per pipeline stage. It implements
// pipeline.Observer.
type progress struct {
	w         io.Writer
	highlight lipgloss.Style
}

func newProgress(w io.Writer, color bool) *progress {
	highlight := lipgloss.NewStyle()
	if color {
		highlight = HighlightStyle
	}
	return &progress{w: w, highlight: highlight}
}

func (p *progress) Downloading(ref string) {
	p.printf("Downloading %s...", p.highlight.Render(ref))
}

func (p *progress) Cloning(url, repoType, version string) {
	p.printf("Cloning %s (%s repository) at version %s...",
		p.highlight.Render(url), repoType, p.highlight.Render(version))
}

func (p *progress) FoundPackageRoot(name, relRoot string) {
	p.printf("Found %s package.json at %s...", p.highlight.Render(name), p.highlight.Render(displayRoot(relRoot)))
}

func (p *progress) Preparing(relRoot string) {
	p.printf("Preparing the package from the cloned repository at %s...", p.highlight.Render(displayRoot(relRoot)))
}

func (p *progress) Comparing() {
	p.printf("Comparing the prepared package with the published package...")
}

func (p *progress) printf(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

func displayRoot(relRoot string) string {
	if relRoot == "" || relRoot == "." {
		return "repository root"
	}
	return relRoot
}
