// SPDX-License-Identifier: MPL-2.0

package cueutil

// DefaultMaxFileSize bounds CUE input read from disk.
const DefaultMaxFileSize int64 = 1 << 20

type (
	// Option configures Decode.
	Option func(*options)

	options struct {
		filename    string
		maxFileSize int64
		concrete    bool
	}
)

func defaultOptions() options {
	return options{
		filename:    "<input>",
		maxFileSize: DefaultMaxFileSize,
		concrete:    true,
	}
}

// WithFilename sets the file name used in CUE positions and error messages.
func WithFilename(name string) Option {
	return func(o *options) {
		if name != "" {
			o.filename = name
		}
	}
}

// WithMaxFileSize overrides DefaultMaxFileSize. Non-positive values are ignored.
func WithMaxFileSize(size int64) Option {
	return func(o *options) {
		if size > 0 {
			o.maxFileSize = size
		}
	}
}

// WithConcrete controls whether validation requires every field to be concrete.
// Configuration files leave most fields optional and pass false.
func WithConcrete(concrete bool) Option {
	return func(o *options) { o.concrete = concrete }
}
