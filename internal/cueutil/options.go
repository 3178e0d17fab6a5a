// SPDX-License-Identifier: MPL-2.0

package cueutil

// DefaultMaxFileSize bounds the size of a parsed CUE document (1 MiB).
const DefaultMaxFileSize int64 = 1 << 20

type (
	parseOptions struct {
		maxFileSize int64
		concrete    bool
		filename    string
	}

	// Option configures parsing behavior.
	Option func(*parseOptions)
)

func defaultOptions() parseOptions {
	return parseOptions{
		maxFileSize: DefaultMaxFileSize,
		concrete:    true,
		filename:    "<input>",
	}
}

// WithMaxFileSize sets the maximum accepted document size.
func WithMaxFileSize(size int64) Option {
	return func(o *parseOptions) {
		o.maxFileSize = size
	}
}

// WithConcrete controls whether every value must be concrete after
// unification. Config files leave optional fields unset, so they pass false.
func WithConcrete(concrete bool) Option {
	return func(o *parseOptions) {
		o.concrete = concrete
	}
}

// WithFilename sets the filename shown in error messages.
func WithFilename(name string) Option {
	return func(o *parseOptions) {
		if name != "" {
			o.filename = name
		}
	}
}
