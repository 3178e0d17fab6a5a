// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

// ParseAndDecode compiles schema, unifies data with the schema definition at
// definition (for example "#Config"), validates the result and decodes it
// into T. T may be a struct or map[string]any.
func ParseAndDecode[T any](schema, data []byte, definition string, opts ...Option) (*T, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	if err := CheckFileSize(data, options.maxFileSize, options.filename); err != nil {
		return nil, err
	}

	ctx := cuecontext.New()
	schemaValue := ctx.CompileBytes(schema)
	if schemaValue.Err() != nil {
		return nil, fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
	}
	root := schemaValue.LookupPath(cue.ParsePath(definition))
	if root.Err() != nil {
		return nil, fmt.Errorf("internal error: schema definition %s not found: %w", definition, root.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(options.filename))
	if userValue.Err() != nil {
		return nil, FormatError(userValue.Err(), options.filename)
	}

	unified := root.Unify(userValue)
	if err := unified.Validate(cue.Concrete(options.concrete)); err != nil {
		return nil, FormatError(err, options.filename)
	}

	var out T
	if err := unified.Decode(&out); err != nil {
		return nil, FormatError(err, options.filename)
	}
	return &out, nil
}

// CheckFileSize rejects documents larger than maxSize.
func CheckFileSize(data []byte, maxSize int64, filename string) error {
	if int64(len(data)) > maxSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", filename, len(data), maxSize)
	}
	return nil
}

// FormatError flattens CUE errors into "<file>: <path>: <message>" lines,
// with list indices rendered as "[n]".
func FormatError(err error, filename string) error {
	if err == nil {
		return nil
	}
	list := cueerrors.Errors(err)
	if len(list) == 0 {
		return fmt.Errorf("%s: %w", filename, err)
	}

	lines := make([]string, 0, len(list))
	for _, e := range list {
		path := formatPath(cueerrors.Path(e))
		msg := e.Error()
		if path != "" {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, path), ":"))
			msg = path + ": " + msg
		}
		lines = append(lines, msg)
	}

	if len(lines) == 1 {
		return fmt.Errorf("%s: %s", filename, lines[0])
	}
	return fmt.Errorf("%s: validation failed:\n  %s", filename, strings.Join(lines, "\n  "))
}

func formatPath(path []string) string {
	var b strings.Builder
	for i, part := range path {
		switch {
		case i > 0 && isIndex(part):
			b.WriteString("[" + part + "]")
		case i > 0:
			b.WriteString("." + part)
		default:
			b.WriteString(part)
		}
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
