package recording

import (
	"fmt"
	"image"

	"github.com/gogpu/sprite/backend"
)

func init() {
	backend.Register(backend.BackendRecording, func() backend.Backend {
		return New()
	})
}

type textureData struct {
	width, height int
	pix           []byte
	locked        bool
}

// Backend records frames. It implements backend.Backend.
type Backend struct {
	caps        backend.Caps
	initialized bool

	textures map[backend.Texture]*textureData
	nextTex  backend.Texture
	targets  map[backend.RenderTarget]image.Point
	nextRT   backend.RenderTarget

	cur       *Frame
	frames    []Frame
	presented int

	created, destroyed int
}

var _ backend.Backend = (*Backend)(nil)

// Option configures a recording Backend.
type Option func(*Backend)

// WithCaps sets the texture limits the backend reports.
func WithCaps(c backend.Caps) Option {
	return func(b *Backend) { b.caps = c }
}

// New creates a recording backend. Without options it reports 4096x4096
// textures with no power-of-two requirement.
func New(opts ...Option) *Backend {
	b := &Backend{caps: backend.Caps{MaxTextureWidth: 4096, MaxTextureHeight: 4096}}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the backend identifier.
func (b *Backend) Name() string { return backend.BackendRecording }

// Init initializes the backend.
func (b *Backend) Init(backend.Config) error {
	b.textures = make(map[backend.Texture]*textureData)
	b.targets = make(map[backend.RenderTarget]image.Point)
	b.initialized = true
	return nil
}

// Close releases all recorded state.
func (b *Backend) Close() {
	b.textures = nil
	b.targets = nil
	b.cur = nil
	b.initialized = false
}

// Caps reports the configured limits.
func (b *Backend) Caps() backend.Caps { return b.caps }

// CreateTexture allocates a texture.
func (b *Backend) CreateTexture(width, height int) (backend.Texture, error) {
	if !b.initialized {
		return 0, backend.ErrNotInitialized
	}
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("recording: invalid texture size %dx%d", width, height)
	}
	if width > b.caps.MaxTextureWidth || height > b.caps.MaxTextureHeight {
		return 0, fmt.Errorf("%w: %dx%d", backend.ErrTextureTooLarge, width, height)
	}
	b.nextTex++
	b.textures[b.nextTex] = &textureData{width: width, height: height, pix: make([]byte, width*height*4)}
	b.created++
	return b.nextTex, nil
}

// DestroyTexture frees a texture.
func (b *Backend) DestroyTexture(t backend.Texture) {
	if _, ok := b.textures[t]; ok {
		delete(b.textures, t)
		b.destroyed++
	}
}

// LockTexture exposes the texture's stored pixels.
func (b *Backend) LockTexture(t backend.Texture) (*backend.LockedRect, error) {
	tex, ok := b.textures[t]
	if !ok {
		return nil, backend.ErrInvalidTexture
	}
	if tex.locked {
		return nil, backend.ErrTextureLocked
	}
	tex.locked = true
	return &backend.LockedRect{Pix: tex.pix, Stride: tex.width * 4, Width: tex.width, Height: tex.height}, nil
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

// CreateRenderTarget allocates a render target.
func (b *Backend) CreateRenderTarget(width, height int) (backend.RenderTarget, error) {
	if !b.initialized {
		return 0, backend.ErrNotInitialized
	}
	b.nextRT++
	b.targets[b.nextRT] = image.Pt(width, height)
	return b.nextRT, nil
}

// DestroyRenderTarget frees a render target.
func (b *Backend) DestroyRenderTarget(rt backend.RenderTarget) {
	delete(b.targets, rt)
}

// BeginFrame starts recording a frame.
func (b *Backend) BeginFrame(rt backend.RenderTarget) error {
	if !b.initialized {
		return backend.ErrNotInitialized
	}
	size, ok := b.targets[rt]
	if !ok {
		return fmt.Errorf("recording: unknown render target %d", rt)
	}
	b.cur = &Frame{Target: rt, Width: size.X, Height: size.Y}
	return nil
}

// SetClip records a clip change.
func (b *Backend) SetClip(r image.Rectangle, enabled bool) {
	if b.cur == nil {
		return
	}
	if enabled {
		b.cur.Ops = append(b.cur.Ops, Op{Type: OpSetClip, Clip: r})
	} else {
		b.cur.Ops = append(b.cur.Ops, Op{Type: OpClearClip})
	}
}

// Submit records a draw command.
func (b *Backend) Submit(cmd *backend.DrawCommand) error {
	if b.cur == nil {
		return backend.ErrNotInFrame
	}
	tex, ok := b.textures[cmd.Texture]
	if !ok {
		return backend.ErrInvalidTexture
	}
	if tex.locked {
		return backend.ErrTextureLocked
	}
	b.cur.Ops = append(b.cur.Ops, Op{Type: OpSubmit, Draw: *cmd})
	return nil
}

// EndFrame stores the recorded frame.
func (b *Backend) EndFrame() error {
	if b.cur == nil {
		return backend.ErrNotInFrame
	}
	b.frames = append(b.frames, *b.cur)
	b.cur = nil
	return nil
}

// Present counts presentations.
func (b *Backend) Present() error {
	b.presented++
	return nil
}

// TestDevice always reports a healthy device.
func (b *Backend) TestDevice() error { return nil }

// Reset is a no-op.
func (b *Backend) Reset() error { return nil }

// Frames returns every recorded frame.
func (b *Backend) Frames() []Frame { return b.frames }

// LastFrame returns the most recent frame.
func (b *Backend) LastFrame() (Frame, bool) {
	if len(b.frames) == 0 {
		return Frame{}, false
	}
	return b.frames[len(b.frames)-1], true
}

// ClearFrames forgets recorded frames.
func (b *Backend) ClearFrames() { b.frames = nil }

// Presented returns how many times Present was called.
func (b *Backend) Presented() int { return b.presented }

// TextureCount returns the number of live textures.
func (b *Backend) TextureCount() int { return len(b.textures) }

// TextureStats returns how many textures were created and destroyed.
func (b *Backend) TextureStats() (created, destroyed int) { return b.created, b.destroyed }

// TexturePixels returns a copy of a texture's stored pixels.
func (b *Backend) TexturePixels(t backend.Texture) ([]byte, bool) {
	tex, ok := b.textures[t]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), tex.pix...), true
}

// Playback replays f into dst, drawing into rt. Textures the frame uses
// are uploaded to dst first, with their current contents, and destroyed
// afterwards.
func (b *Backend) Playback(f Frame, dst backend.Backend, rt backend.RenderTarget) error {
	mapped := make(map[backend.Texture]backend.Texture)
	defer func() {
		for _, t := range mapped {
			dst.DestroyTexture(t)
		}
	}()
	for _, op := range f.Ops {
		if op.Type != OpSubmit {
			continue
		}
		if _, done := mapped[op.Draw.Texture]; done {
			continue
		}
		t, err := b.upload(op.Draw.Texture, dst)
		if err != nil {
			return err
		}
		mapped[op.Draw.Texture] = t
	}

	if err := dst.BeginFrame(rt); err != nil {
		return err
	}
	for _, op := range f.Ops {
		switch op.Type {
		case OpSetClip:
			dst.SetClip(op.Clip, true)
		case OpClearClip:
			dst.SetClip(image.Rectangle{}, false)
		case OpSubmit:
			cmd := op.Draw
			cmd.Texture = mapped[cmd.Texture]
			if err := dst.Submit(&cmd); err != nil {
				return fmt.Errorf("recording: playback: %w", err)
			}
		}
	}
	if err := dst.EndFrame(); err != nil {
		return err
	}
	return dst.Present()
}

func (b *Backend) upload(src backend.Texture, dst backend.Backend) (backend.Texture, error) {
	tex, ok := b.textures[src]
	if !ok {
		return 0, fmt.Errorf("recording: playback: %w", backend.ErrInvalidTexture)
	}
	t, err := dst.CreateTexture(tex.width, tex.height)
	if err != nil {
		return 0, err
	}
	lr, err := dst.LockTexture(t)
	if err != nil {
		dst.DestroyTexture(t)
		return 0, err
	}
	for y := range tex.height {
		copy(lr.Pix[y*lr.Stride:y*lr.Stride+tex.width*4], tex.pix[y*tex.width*4:])
	}
	if err := dst.UnlockTexture(t); err != nil {
		dst.DestroyTexture(t)
		return 0, err
	}
	return t, nil
}
