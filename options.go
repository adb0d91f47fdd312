package sprite

import (
	"time"

	"github.com/gogpu/sprite/backend"
	"github.com/gogpu/sprite/internal/pool"
)

// Default configuration values.
const (
	DefaultNativeWidth  = 320
	DefaultNativeHeight = 200

	// DefaultFramePeriod paces fade transitions: 40 sub-frames a second.
	DefaultFramePeriod = time.Second / 40
)

// StageFunc resolves a stage entry appended with AppendStage. It is
// called with the index of the batch holding the entry and returns the
// drawable to draw in its place, or false to draw nothing.
type StageFunc func(batch int) (Drawable, bool)

// Option configures a Compositor during creation.
//
// Example:
//
//	c, err := sprite.New(
//	    sprite.WithNativeSize(640, 400),
//	    sprite.WithSmoothScaling(true),
//	)
type Option func(*options)

type options struct {
	backend     backend.Backend
	nativeW     int
	nativeH     int
	smooth      bool
	tintMethod  TintMethod
	framePeriod time.Duration
	stage       StageFunc
	drawScreen  func()
	maxPoolAge  int
}

func defaultOptions() options {
	return options{
		nativeW:     DefaultNativeWidth,
		nativeH:     DefaultNativeHeight,
		tintMethod:  TintColorize,
		framePeriod: DefaultFramePeriod,
		maxPoolAge:  pool.DefaultMaxAge,
	}
}

// WithBackend draws through b instead of the best registered backend.
// b must not be initialized yet; the compositor calls Init and owns it
// from then on.
func WithBackend(b backend.Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithNativeSize sets the size of the surface the game draws on.
func WithNativeSize(width, height int) Option {
	return func(o *options) {
		if width > 0 && height > 0 {
			o.nativeW, o.nativeH = width, height
		}
	}
}

// WithSmoothScaling enables linear filtering for stretched drawables
// that allow resampling.
func WithSmoothScaling(enabled bool) Option {
	return func(o *options) {
		o.smooth = enabled
	}
}

// WithTintMethod selects how tinted drawables are recoloured.
func WithTintMethod(m TintMethod) Option {
	return func(o *options) {
		o.tintMethod = m
	}
}

// WithFramePeriod sets how much time a fade sub-frame lasts.
func WithFramePeriod(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.framePeriod = d
		}
	}
}

// WithStageScreen installs the resolver for stage entries.
func WithStageScreen(fn StageFunc) Option {
	return func(o *options) {
		o.stage = fn
	}
}

// WithDrawScreen installs the callback FadeIn and BoxIn invoke so the
// host can fill the draw lists before the scene appears.
func WithDrawScreen(fn func()) Option {
	return func(o *options) {
		o.drawScreen = fn
	}
}

// WithMaxPoolAge sets how many frames a released drawable stays pooled
// before its textures are destroyed.
func WithMaxPoolAge(frames int) Option {
	return func(o *options) {
		if frames > 0 {
			o.maxPoolAge = frames
		}
	}
}
