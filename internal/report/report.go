// SPDX-License-Identifier: MPL-2.0

// Package report renders the result of a verification run as styled text,
// canonical JSON (RFC 8785) or YAML.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/gowebpki/jcs"
	"gopkg.in/yaml.v3"

	"github.com/npmverified/npm-verified/internal/config"
	"github.com/npmverified/npm-verified/internal/pipeline"
	"github.com/npmverified/npm-verified/internal/treediff"
)

type (
	// Document is the machine-readable report.
	Document struct {
		Package     string            `json:"package" yaml:"package"`
		Version     string            `json:"version" yaml:"version"`
		Repository  string            `json:"repository" yaml:"repository"`
		Tag         string            `json:"tag" yaml:"tag"`
		PackageRoot string            `json:"packageRoot" yaml:"packageRoot"`
		Same        bool              `json:"same" yaml:"same"`
		Diffs       []treediff.Record `json:"diffs" yaml:"diffs"`
	}

	// Renderer writes reports in one format. It implements pipeline.Reporter.
	Renderer struct {
		w      io.Writer
		format config.Format
		styles Styles
	}
)

// NewDocument flattens an outcome into a Document.
func NewDocument(o *pipeline.Outcome) Document {
	diffs := o.Result.Diffs
	if diffs == nil {
		diffs = []treediff.Record{}
	}
	return Document{
		Package:     o.Identifier.Name(),
		Version:     o.Version,
		Repository:  o.Repository.URL,
		Tag:         o.Tag,
		PackageRoot: o.PackageRoot,
		Same:        o.Result.Same,
		Diffs:       diffs,
	}
}

// New creates a Renderer writing to w.
func New(w io.Writer, format config.Format, color bool) (*Renderer, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	return &Renderer{w: w, format: format, styles: DefaultStyles(color)}, nil
}

// Report renders o.
func (r *Renderer) Report(o *pipeline.Outcome) error {
	return r.Render(NewDocument(o))
}

// Render writes doc in the renderer's format.
func (r *Renderer) Render(doc Document) error {
	var (
		out []byte
		err error
	)
	switch r.format {
	case config.FormatJSON:
		out, err = JSON(doc)
	case config.FormatYAML:
		out, err = YAML(doc)
	default:
		out = []byte(Text(doc, r.styles))
	}
	if err != nil {
		return err
	}
	if _, err := r.w.Write(out); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// JSON returns the RFC 8785 canonical encoding of doc followed by a newline.
func JSON(doc Document) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding report: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalizing report: %w", err)
	}
	return append(canonical, '\n'), nil
}

// YAML returns doc as a YAML document.
func YAML(doc Document) ([]byte, error) {
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding report: %w", err)
	}
	return out, nil
}
