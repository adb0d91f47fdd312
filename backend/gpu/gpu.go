package gpu

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/sprite/backend"
)

func init() {
	backend.Register(backend.BackendGPU, func() backend.Backend {
		return New()
	})
}

type texture struct {
	width, height int
	pix           []byte
	locked        bool

	tex  hal.Texture
	view hal.TextureView
}

type target struct {
	width, height int
	tex           hal.Texture
	view          hal.TextureView
}

// drawCall is a Submit recorded for encoding at EndFrame.
type drawCall struct {
	cmd     backend.DrawCommand
	scissor image.Rectangle
}

// Backend is the wgpu HAL implementation of backend.Backend.
type Backend struct {
	opts options
	log  *slog.Logger

	device     hal.Device
	queue      hal.Queue
	instance   hal.Instance
	ownsDevice bool
	pipe       *spritePipeline

	initialized bool
	cfg         backend.Config

	textures map[backend.Texture]*texture
	nextTex  backend.Texture
	targets  map[backend.RenderTarget]*target
	nextRT   backend.RenderTarget

	// frame state
	inFrame bool
	current *target
	clip    image.Rectangle
	clipOn  bool
	draws   []drawCall

	finished *target
	front    *target

	lost   bool
	frames uint64
}

var (
	_ backend.Backend      = (*Backend)(nil)
	_ backend.LoggerSetter = (*Backend)(nil)
	_ backend.PixelReader  = (*Backend)(nil)
)

// New creates a GPU backend. It has no device until Init.
func New(opts ...Option) *Backend {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	b := &Backend{opts: o, log: o.logger}
	if b.log == nil {
		b.log = slogger()
	}
	return b
}

// Name returns the backend identifier.
func (b *Backend) Name() string { return backend.BackendGPU }

// SetLogger sets the logger used for diagnostics. nil disables logging.
func (b *Backend) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	b.log = l
}

// Init acquires the device and builds the sprite pipeline.
func (b *Backend) Init(cfg backend.Config) error {
	if cfg.Width < 0 || cfg.Height < 0 {
		return fmt.Errorf("gpu: invalid surface size %dx%d", cfg.Width, cfg.Height)
	}
	if err := b.acquireDevice(); err != nil {
		return err
	}
	b.pipe = newSpritePipeline(b.device, b.opts.spirv)
	if err := b.pipe.ensure(); err != nil {
		b.releaseDevice()
		return fmt.Errorf("gpu: %w", err)
	}
	b.cfg = cfg
	b.textures = make(map[backend.Texture]*texture)
	b.targets = make(map[backend.RenderTarget]*target)
	b.initialized = true
	b.lost = false
	caps := b.Caps()
	b.log.Info("gpu: backend initialized",
		"width", cfg.Width, "height", cfg.Height,
		"maxTexture", fmt.Sprintf("%dx%d", caps.MaxTextureWidth, caps.MaxTextureHeight),
		"spirv", b.opts.spirv)
	return nil
}

func (b *Backend) acquireDevice() error {
	switch {
	case b.opts.provider != nil:
		type halProvider interface {
			HalDevice() any
			HalQueue() any
		}
		hp, ok := b.opts.provider.(halProvider)
		if !ok {
			return fmt.Errorf("gpu: provider does not expose HAL types: %w", backend.ErrBackendNotAvailable)
		}
		device, ok := hp.HalDevice().(hal.Device)
		if !ok || device == nil {
			return fmt.Errorf("gpu: provider HalDevice is not hal.Device: %w", backend.ErrBackendNotAvailable)
		}
		queue, ok := hp.HalQueue().(hal.Queue)
		if !ok || queue == nil {
			return fmt.Errorf("gpu: provider HalQueue is not hal.Queue: %w", backend.ErrBackendNotAvailable)
		}
		b.device, b.queue = device, queue
		b.log.Debug("gpu: using shared device", "adapter", b.opts.provider.AdapterInfo().Name)
	case b.opts.device != nil:
		if b.opts.queue == nil {
			return fmt.Errorf("gpu: device given without queue: %w", backend.ErrBackendNotAvailable)
		}
		b.device, b.queue = b.opts.device, b.opts.queue
	case b.opts.api != nil:
		return b.openDevice()
	default:
		return fmt.Errorf("gpu: no device configured: %w", backend.ErrBackendNotAvailable)
	}
	return nil
}

// openDevice opens the first adapter of the configured API.
func (b *Backend) openDevice() error {
	instance, err := b.opts.api.CreateInstance(nil)
	if err != nil {
		return fmt.Errorf("gpu: create instance: %w", errors.Join(err, backend.ErrBackendNotAvailable))
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return fmt.Errorf("gpu: no adapters: %w", backend.ErrBackendNotAvailable)
	}
	open, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return fmt.Errorf("gpu: open adapter %q: %w", adapters[0].Info.Name, errors.Join(err, backend.ErrBackendNotAvailable))
	}
	b.instance = instance
	b.device, b.queue = open.Device, open.Queue
	b.ownsDevice = true
	b.log.Debug("gpu: opened adapter", "name", adapters[0].Info.Name)
	return nil
}

func (b *Backend) releaseDevice() {
	if b.pipe != nil {
		b.pipe.destroy()
		b.pipe = nil
	}
	if b.ownsDevice && b.device != nil {
		b.device.Destroy()
	}
	if b.instance != nil {
		b.instance.Destroy()
		b.instance = nil
	}
	b.device, b.queue = nil, nil
	b.ownsDevice = false
}

// Close releases all GPU resources and, when the backend opened it, the
// device.
func (b *Backend) Close() {
	if !b.initialized {
		return
	}
	if b.device != nil {
		_ = b.device.WaitIdle()
	}
	for _, t := range b.textures {
		b.destroyTextureObjects(t)
	}
	for _, rt := range b.targets {
		b.destroyTargetObjects(rt)
	}
	b.textures, b.targets = nil, nil
	b.current, b.finished, b.front = nil, nil, nil
	b.draws = nil
	b.inFrame = false
	b.releaseDevice()
	b.initialized = false
}

// Caps reports texture limits: WithMaxTextureSize, else the WebGPU
// default 2D limit.
func (b *Backend) Caps() backend.Caps {
	limit := int(gputypes.DefaultLimits().MaxTextureDimension2D)
	caps := backend.Caps{MaxTextureWidth: limit, MaxTextureHeight: limit}
	if b.opts.maxWidth > 0 {
		caps.MaxTextureWidth = b.opts.maxWidth
	}
	if b.opts.maxHeight > 0 {
		caps.MaxTextureHeight = b.opts.maxHeight
	}
	return caps
}

// CreateTexture allocates a transparent texture.
func (b *Backend) CreateTexture(width, height int) (backend.Texture, error) {
	if !b.initialized {
		return 0, backend.ErrNotInitialized
	}
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("gpu: invalid texture size %dx%d", width, height)
	}
	caps := b.Caps()
	if width > caps.MaxTextureWidth || height > caps.MaxTextureHeight {
		return 0, fmt.Errorf("%w: %dx%d", backend.ErrTextureTooLarge, width, height)
	}
	t := &texture{width: width, height: height, pix: make([]byte, width*height*4)}
	if err := b.createTextureObjects(t); err != nil {
		return 0, err
	}
	b.nextTex++
	b.textures[b.nextTex] = t
	return b.nextTex, nil
}

func (b *Backend) createTextureObjects(t *texture) error {
	tex, err := b.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "sprite_texture",
		Size:          hal.Extent3D{Width: uint32(t.width), Height: uint32(t.height), DepthOrArrayLayers: 1}, //nolint:gosec // bounded by Caps
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return b.deviceError("create texture", err)
	}
	view, err := b.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "sprite_texture_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		b.device.DestroyTexture(tex)
		return b.deviceError("create texture view", err)
	}
	t.tex, t.view = tex, view
	return b.upload(t)
}

func (b *Backend) destroyTextureObjects(t *texture) {
	if t.view != nil {
		b.device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		b.device.DestroyTexture(t.tex)
		t.tex = nil
	}
}

// upload copies the CPU shadow of t to the GPU.
func (b *Backend) upload(t *texture) error {
	w, h := uint32(t.width), uint32(t.height) //nolint:gosec // bounded by Caps
	err := b.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: t.tex, MipLevel: 0, Aspect: gputypes.TextureAspectAll},
		t.pix,
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: w * 4, RowsPerImage: h},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
	if err != nil {
		return b.deviceError("upload texture", err)
	}
	return nil
}

// DestroyTexture frees a texture. Unknown handles are ignored.
func (b *Backend) DestroyTexture(h backend.Texture) {
	t, ok := b.textures[h]
	if !ok {
		return
	}
	b.destroyTextureObjects(t)
	delete(b.textures, h)
}

// TextureCount returns the number of live textures.
func (b *Backend) TextureCount() int { return len(b.textures) }

// LockTexture exposes the CPU shadow of the texture for writing.
func (b *Backend) LockTexture(h backend.Texture) (*backend.LockedRect, error) {
	t, ok := b.textures[h]
	if !ok {
		return nil, backend.ErrInvalidTexture
	}
	if t.locked {
		return nil, backend.ErrTextureLocked
	}
	t.locked = true
	return &backend.LockedRect{Pix: t.pix, Stride: t.width * 4, Width: t.width, Height: t.height}, nil
}

// UnlockTexture uploads the written pixels.
func (b *Backend) UnlockTexture(h backend.Texture) error {
	t, ok := b.textures[h]
	if !ok {
		return backend.ErrInvalidTexture
	}
	if !t.locked {
		return nil
	}
	t.locked = false
	return b.upload(t)
}

// CreateRenderTarget allocates an off-screen RGBA8 target.
func (b *Backend) CreateRenderTarget(width, height int) (backend.RenderTarget, error) {
	if !b.initialized {
		return 0, backend.ErrNotInitialized
	}
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("gpu: invalid render target size %dx%d", width, height)
	}
	tex, err := b.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "sprite_render_target",
		Size:          hal.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1}, //nolint:gosec // positive
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        renderFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return 0, b.deviceError("create render target", err)
	}
	view, err := b.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "sprite_render_target_view",
		Format:        renderFormat,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		b.device.DestroyTexture(tex)
		return 0, b.deviceError("create render target view", err)
	}
	b.nextRT++
	b.targets[b.nextRT] = &target{width: width, height: height, tex: tex, view: view}
	return b.nextRT, nil
}

func (b *Backend) destroyTargetObjects(rt *target) {
	if rt.view != nil {
		b.device.DestroyTextureView(rt.view)
		rt.view = nil
	}
	if rt.tex != nil {
		b.device.DestroyTexture(rt.tex)
		rt.tex = nil
	}
}

// DestroyRenderTarget frees a render target.
func (b *Backend) DestroyRenderTarget(h backend.RenderTarget) {
	rt, ok := b.targets[h]
	if !ok {
		return
	}
	if b.front == rt {
		b.front = nil
	}
	if b.finished == rt {
		b.finished = nil
	}
	b.destroyTargetObjects(rt)
	delete(b.targets, h)
}

// deviceError wraps a HAL failure, latching device loss.
func (b *Backend) deviceError(op string, err error) error {
	if errors.Is(err, hal.ErrDeviceLost) {
		if !b.lost {
			b.log.Warn("gpu: device lost", "op", op, "err", err)
		}
		b.lost = true
		return fmt.Errorf("gpu: %s: %w", op, errors.Join(backend.ErrDeviceLost, err))
	}
	return fmt.Errorf("gpu: %s: %w", op, err)
}

// Frames returns the number of frames submitted since Init.
func (b *Backend) Frames() uint64 { return b.frames }

// TestDevice reports ErrDeviceNotReset after a HAL call failed with
// device loss. HAL devices can be rebuilt at once, so the backend never
// reports the intermediate ErrDeviceLost state.
func (b *Backend) TestDevice() error {
	if b.lost {
		return backend.ErrDeviceNotReset
	}
	return nil
}

// Reset rebuilds the pipeline, and the device when the backend opened
// it. Textures are recreated from their CPU shadows; render targets are
// discarded.
func (b *Backend) Reset() error {
	if !b.initialized {
		return backend.ErrNotInitialized
	}
	if !b.lost {
		return nil
	}
	for _, t := range b.textures {
		b.destroyTextureObjects(t)
	}
	for _, rt := range b.targets {
		b.destroyTargetObjects(rt)
	}
	b.targets = make(map[backend.RenderTarget]*target)
	b.current, b.finished, b.front = nil, nil, nil
	b.draws = b.draws[:0]
	b.inFrame = false

	b.pipe.destroy()
	if b.ownsDevice {
		b.releaseDevice()
		if err := b.openDevice(); err != nil {
			return fmt.Errorf("gpu: reopen device: %w", err)
		}
	}
	b.pipe = newSpritePipeline(b.device, b.opts.spirv)
	if err := b.pipe.ensure(); err != nil {
		return fmt.Errorf("gpu: rebuild pipeline: %w", err)
	}
	b.lost = false
	for _, t := range b.textures {
		t.locked = false
		if err := b.createTextureObjects(t); err != nil {
			return fmt.Errorf("gpu: restore texture: %w", err)
		}
	}
	b.log.Info("gpu: device reset", "textures", len(b.textures))
	return nil
}
