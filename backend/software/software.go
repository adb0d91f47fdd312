package software

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/gogpu/sprite/backend"
	"github.com/gogpu/sprite/internal/parallel"
)

func init() {
	backend.Register(backend.BackendSoftware, func() backend.Backend {
		return New()
	})
}

// nopHandler silently discards all log records.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

type deviceState uint8

const (
	deviceOK deviceState = iota
	deviceLost
	deviceResettable
)

type texture struct {
	img    *image.NRGBA
	locked bool
}

// Backend is the CPU implementation of backend.Backend.
type Backend struct {
	opts        options
	log         *slog.Logger
	initialized bool
	cfg         backend.Config

	textures map[backend.Texture]*texture
	nextTex  backend.Texture
	targets  map[backend.RenderTarget]*image.NRGBA
	nextRT   backend.RenderTarget

	// frame state
	inFrame bool
	target  *image.NRGBA
	clip    image.Rectangle
	clipOn  bool
	scratch *image.NRGBA
	mask    *image.Alpha
	workers *parallel.WorkerPool

	finished *image.NRGBA
	front    *image.NRGBA

	device   deviceState
	resetErr error
	frames   uint64
}

var (
	_ backend.Backend      = (*Backend)(nil)
	_ backend.LoggerSetter = (*Backend)(nil)
	_ backend.PixelReader  = (*Backend)(nil)
)

// New creates a software backend.
func New(opts ...Option) *Backend {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	b := &Backend{opts: o, log: o.logger}
	if b.log == nil {
		b.log = slog.New(nopHandler{})
	}
	return b
}

// Name returns the backend identifier.
func (b *Backend) Name() string { return backend.BackendSoftware }

// SetLogger sets the logger used for diagnostics. nil disables logging.
func (b *Backend) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	b.log = l
}

// Init initializes the backend.
func (b *Backend) Init(cfg backend.Config) error {
	if cfg.Width < 0 || cfg.Height < 0 {
		return fmt.Errorf("software: invalid surface size %dx%d", cfg.Width, cfg.Height)
	}
	b.cfg = cfg
	b.textures = make(map[backend.Texture]*texture)
	b.targets = make(map[backend.RenderTarget]*image.NRGBA)
	b.initialized = true
	b.device = deviceOK
	if b.opts.workers > 1 && b.workers == nil {
		b.workers = parallel.NewWorkerPool(b.opts.workers)
	}
	b.log.Info("software: backend initialized",
		"width", cfg.Width, "height", cfg.Height,
		"maxTexture", fmt.Sprintf("%dx%d", b.opts.maxWidth, b.opts.maxHeight))
	return nil
}

// Close releases all resources.
func (b *Backend) Close() {
	b.textures = nil
	b.targets = nil
	b.target, b.finished, b.front = nil, nil, nil
	b.scratch, b.mask = nil, nil
	b.inFrame = false
	b.initialized = false
	if b.workers != nil {
		b.workers.Close()
		b.workers = nil
	}
}

// Caps reports the configured texture limits.
func (b *Backend) Caps() backend.Caps {
	return backend.Caps{
		MaxTextureWidth:  b.opts.maxWidth,
		MaxTextureHeight: b.opts.maxHeight,
		PowerOfTwo:       b.opts.powerOfTwo,
	}
}

// CreateTexture allocates a transparent texture.
func (b *Backend) CreateTexture(width, height int) (backend.Texture, error) {
	if !b.initialized {
		return 0, backend.ErrNotInitialized
	}
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("software: invalid texture size %dx%d", width, height)
	}
	if width > b.opts.maxWidth || height > b.opts.maxHeight {
		return 0, fmt.Errorf("%w: %dx%d", backend.ErrTextureTooLarge, width, height)
	}
	b.nextTex++
	b.textures[b.nextTex] = &texture{img: image.NewNRGBA(image.Rect(0, 0, width, height))}
	return b.nextTex, nil
}

// DestroyTexture frees a texture. Unknown handles are ignored.
func (b *Backend) DestroyTexture(t backend.Texture) {
	delete(b.textures, t)
}

// TextureCount returns the number of live textures.
func (b *Backend) TextureCount() int { return len(b.textures) }

// LockTexture exposes the texture pixels for writing.
func (b *Backend) LockTexture(t backend.Texture) (*backend.LockedRect, error) {
	tex, ok := b.textures[t]
	if !ok {
		return nil, backend.ErrInvalidTexture
	}
	if tex.locked {
		return nil, backend.ErrTextureLocked
	}
	tex.locked = true
	return &backend.LockedRect{
		Pix:    tex.img.Pix,
		Stride: tex.img.Stride,
		Width:  tex.img.Rect.Dx(),
		Height: tex.img.Rect.Dy(),
	}, nil
}

// UnlockTexture ends a LockTexture.
func (b *Backend) UnlockTexture(t backend.Texture) error {
	tex, ok := b.textures[t]
	if !ok {
		return backend.ErrInvalidTexture
	}
	tex.locked = false
	return nil
}

// CreateRenderTarget allocates an off-screen target.
func (b *Backend) CreateRenderTarget(width, height int) (backend.RenderTarget, error) {
	if !b.initialized {
		return 0, backend.ErrNotInitialized
	}
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("software: invalid render target size %dx%d", width, height)
	}
	b.nextRT++
	b.targets[b.nextRT] = image.NewNRGBA(image.Rect(0, 0, width, height))
	return b.nextRT, nil
}

// DestroyRenderTarget frees a render target.
func (b *Backend) DestroyRenderTarget(rt backend.RenderTarget) {
	delete(b.targets, rt)
}

// BeginFrame starts a frame on rt, cleared to transparent black.
func (b *Backend) BeginFrame(rt backend.RenderTarget) error {
	if !b.initialized {
		return backend.ErrNotInitialized
	}
	if b.device != deviceOK {
		return backend.ErrDeviceLost
	}
	img, ok := b.targets[rt]
	if !ok {
		return fmt.Errorf("software: unknown render target %d", rt)
	}
	clear(img.Pix)
	b.target = img
	b.clipOn = false
	b.inFrame = true
	b.ensureScratch(img.Rect)
	return nil
}

func (b *Backend) ensureScratch(r image.Rectangle) {
	if b.scratch == nil || b.scratch.Rect != r {
		b.scratch = image.NewNRGBA(r)
		b.mask = image.NewAlpha(r)
	}
}

// SetClip restricts drawing to r.
func (b *Backend) SetClip(r image.Rectangle, enabled bool) {
	b.clip = r
	b.clipOn = enabled
}

// EndFrame finishes the frame.
func (b *Backend) EndFrame() error {
	if !b.inFrame {
		return backend.ErrNotInFrame
	}
	b.inFrame = false
	b.finished = b.target
	b.target = nil
	b.frames++
	return nil
}

// Present copies the last finished frame to the front buffer.
func (b *Backend) Present() error {
	if !b.initialized {
		return backend.ErrNotInitialized
	}
	if b.finished == nil {
		return nil
	}
	if b.front == nil || b.front.Rect != b.finished.Rect {
		b.front = image.NewNRGBA(b.finished.Rect)
	}
	copy(b.front.Pix, b.finished.Pix)
	b.log.Debug("software: present", "frame", b.frames)
	return nil
}

// ReadPixels returns a copy of the front buffer.
func (b *Backend) ReadPixels() (*image.NRGBA, error) {
	if b.front == nil {
		return nil, fmt.Errorf("software: nothing presented yet")
	}
	out := image.NewNRGBA(b.front.Rect)
	copy(out.Pix, b.front.Pix)
	return out, nil
}

// Frames returns the number of frames finished since Init.
func (b *Backend) Frames() uint64 { return b.frames }

// SimulateDeviceLoss makes TestDevice report a lost device. When
// resettable is true TestDevice reports that Reset may be called;
// otherwise the loss persists until SimulateDeviceLoss is called again.
func (b *Backend) SimulateDeviceLoss(resettable bool) {
	if resettable {
		b.device = deviceResettable
	} else {
		b.device = deviceLost
	}
}

// FailReset makes the next Reset return err.
func (b *Backend) FailReset(err error) {
	b.resetErr = err
}

// TestDevice reports the simulated device state.
func (b *Backend) TestDevice() error {
	switch b.device {
	case deviceLost:
		return backend.ErrDeviceLost
	case deviceResettable:
		return backend.ErrDeviceNotReset
	}
	return nil
}

// Reset restores a lost device. Render targets are discarded.
func (b *Backend) Reset() error {
	if err := b.resetErr; err != nil {
		b.resetErr = nil
		return err
	}
	if b.device == deviceOK {
		return nil
	}
	b.device = deviceOK
	b.targets = make(map[backend.RenderTarget]*image.NRGBA)
	b.target, b.finished = nil, nil
	b.inFrame = false
	b.log.Info("software: device reset")
	return nil
}
