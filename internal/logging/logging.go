// SPDX-License-Identifier: MPL-2.0

// Package logging builds the namespaced charmbracelet loggers used across the
// verification pipeline.
package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Namespaces used as logger prefixes. They double as the names accepted by
// NPM_VERIFIED_DEBUG.
const (
	CLI      = "npm-verified:cli"
	Clone    = "npm-verified:clone"
	Locate   = "npm-verified:locate"
	Pack     = "npm-verified:pack"
	Compare  = "npm-verified:compare"
	Download = "npm-verified:download"

	// DebugEnv enables debug tracing when set to "1", "true" or "*".
	DebugEnv = "NPM_VERIFIED_DEBUG"
)

// Options select the verbosity of the root logger.
type Options struct {
	Verbose bool
	Debug   bool
}

// New creates the root logger writing to w. The level is warn by default,
// info when verbose and debug when Debug is set or DebugEnv is truthy.
func New(w io.Writer, opts Options) *log.Logger {
	level := log.WarnLevel
	if opts.Verbose {
		level = log.InfoLevel
	}
	if opts.Debug || debugFromEnv() {
		level = log.DebugLevel
	}

	return log.NewWithOptions(w, log.Options{
		Prefix:          CLI,
		Level:           level,
		ReportTimestamp: level == log.DebugLevel,
	})
}

// Named returns a child of parent with the given namespace prefix. A nil
// parent yields a discarding logger so collaborators never nil-check.
func Named(parent *log.Logger, namespace string) *log.Logger {
	if parent == nil {
		return Discard()
	}
	return parent.WithPrefix(namespace)
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

func debugFromEnv() bool {
	switch os.Getenv(DebugEnv) {
	case "1", "true", "*":
		return true
	default:
		return false
	}
}
