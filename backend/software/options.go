package software

import "log/slog"

// DefaultMaxTextureSize is the texture limit reported when none is set.
const DefaultMaxTextureSize = 4096

type options struct {
	maxWidth   int
	maxHeight  int
	powerOfTwo bool
	workers    int
	logger     *slog.Logger
}

// Option configures a software Backend.
type Option func(*options)

func defaultOptions() options {
	return options{
		maxWidth:  DefaultMaxTextureSize,
		maxHeight: DefaultMaxTextureSize,
	}
}

// WithMaxTextureSize sets the texture limit reported by Caps. Small
// limits force tiling.
func WithMaxTextureSize(width, height int) Option {
	return func(o *options) {
		if width > 0 {
			o.maxWidth = width
		}
		if height > 0 {
			o.maxHeight = height
		}
	}
}

// WithPowerOfTwo makes Caps require power-of-two textures.
func WithPowerOfTwo(enabled bool) Option {
	return func(o *options) {
		o.powerOfTwo = enabled
	}
}

// WithWorkers shades large quads on n goroutines. Values below 2 keep
// drawing on the calling goroutine.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithLogger sets the backend logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
