package sprite

import (
	"fmt"
	"image"

	"github.com/gogpu/sprite/backend"
	"github.com/gogpu/sprite/geom"
	"github.com/gogpu/sprite/internal/batch"
	"github.com/gogpu/sprite/internal/pool"
)

// BatchDesc describes a batch: the viewport it is clipped to, in native
// pixels, and how its content is placed. An empty viewport disables
// clipping.
type BatchDesc struct {
	Viewport  image.Rectangle
	Transform geom.SpriteTransform
}

// PoolStats reports drawable recycling.
type PoolStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	// Pooled drawables wait for reuse; Live ones are in use.
	Pooled int
	Live   int
}

// String returns a human-readable string of the stats.
func (s PoolStats) String() string {
	return fmt.Sprintf("PoolStats[%d live, %d pooled, %d hits, %d misses, %d evictions]",
		s.Live, s.Pooled, s.Hits, s.Misses, s.Evictions)
}

// Compositor turns per-frame draw lists into backend draw calls.
//
// The game appends entries with Append and AppendStage, then calls
// RenderFrame once per frame; the lists are cleared afterwards and kept
// as a backup for transitions. Drawables are created through the
// compositor and recycled through its pool.
//
// A Compositor is not safe for concurrent use.
type Compositor struct {
	opts options
	be   backend.Backend
	caps backend.Caps
	rt   backend.RenderTarget

	drawables *pool.Arena[drawable]
	pool      *pool.Pool
	stack     *batch.Stack

	offsetX, offsetY int
	tintMethod       TintMethod
	screenTint       [3]uint8
	tintSprite       Drawable
	lastFlip         FlipMode

	frames uint64
	closed bool
}

// New creates a compositor. Without WithBackend the best registered
// backend that initializes is used.
func New(opts ...Option) (*Compositor, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	cfg := backend.Config{Width: o.nativeW, Height: o.nativeH}
	be := o.backend
	if be != nil {
		propagateLogger(be, Logger())
		if err := be.Init(cfg); err != nil {
			return nil, fmt.Errorf("sprite: init %s backend: %w", be.Name(), err)
		}
	} else {
		var err error
		be, err = backend.InitDefault(cfg)
		if err != nil {
			return nil, fmt.Errorf("sprite: no usable backend: %w", err)
		}
		propagateLogger(be, Logger())
	}

	c := &Compositor{
		opts:       o,
		be:         be,
		caps:       be.Caps(),
		drawables:  pool.NewArena[drawable](),
		pool:       pool.New(o.maxPoolAge),
		stack:      batch.NewStack(o.nativeW, o.nativeH),
		tintMethod: o.tintMethod,
	}
	rt, err := be.CreateRenderTarget(o.nativeW, o.nativeH)
	if err != nil {
		be.Close()
		return nil, fmt.Errorf("sprite: create render target: %w", err)
	}
	c.rt = rt

	Logger().Info("sprite: compositor ready",
		"backend", be.Name(),
		"native", fmt.Sprintf("%dx%d", o.nativeW, o.nativeH),
		"maxTexture", fmt.Sprintf("%dx%d", c.caps.MaxTextureWidth, c.caps.MaxTextureHeight),
		"pow2", c.caps.PowerOfTwo)
	return c, nil
}

// Backend returns the backend the compositor draws through.
func (c *Compositor) Backend() backend.Backend { return c.be }

// Frames returns the number of RenderFrame calls that completed.
func (c *Compositor) Frames() uint64 { return c.frames }

// NativeSize returns the size of the surface the game draws on.
func (c *Compositor) NativeSize() (width, height int) { return c.stack.NativeSize() }

// SetNativeSize changes the native surface size. The render target and
// every batch matrix are rebuilt.
func (c *Compositor) SetNativeSize(width, height int) error {
	if c.closed {
		return ErrNotInitialized
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("sprite: invalid native size %dx%d", width, height)
	}
	rt, err := c.be.CreateRenderTarget(width, height)
	if err != nil {
		return fmt.Errorf("sprite: create render target: %w", err)
	}
	c.be.DestroyRenderTarget(c.rt)
	c.rt = rt
	c.opts.nativeW, c.opts.nativeH = width, height
	c.stack.SetNativeSize(width, height)
	if !c.tintSprite.IsZero() {
		if err := c.SetStretch(c.tintSprite, width, height, false); err != nil {
			return err
		}
	}
	return nil
}

// recreateTarget replaces a render target discarded by a device reset.
func (c *Compositor) recreateTarget() error {
	rt, err := c.be.CreateRenderTarget(c.opts.nativeW, c.opts.nativeH)
	if err != nil {
		return err
	}
	c.rt = rt
	return nil
}

// SetRenderOffset shifts every listed sprite by (x, y) native pixels.
func (c *Compositor) SetRenderOffset(x, y int) {
	c.offsetX, c.offsetY = x, y
}

// RenderOffset returns the global render offset.
func (c *Compositor) RenderOffset() (x, y int) { return c.offsetX, c.offsetY }

// SetTintMethod selects how tinted drawables are recoloured.
func (c *Compositor) SetTintMethod(m TintMethod) { c.tintMethod = m }

// TintMethod returns the active tint method.
func (c *Compositor) TintMethod() TintMethod { return c.tintMethod }

// SetScreenTint lays a half-transparent colour over every frame. Black
// removes the tint.
func (c *Compositor) SetScreenTint(r, g, b uint8) error {
	if c.closed {
		return ErrNotInitialized
	}
	c.screenTint = [3]uint8{r, g, b}
	if c.screenTint == [3]uint8{} {
		return nil
	}
	bm := solidBitmap(r, g, b)
	if !c.tintSprite.IsZero() {
		return c.UpdateDrawable(c.tintSprite, bm, false)
	}
	d, err := c.CreateDrawable(bm, false, true)
	if err != nil {
		return err
	}
	w, h := c.NativeSize()
	if err := c.SetStretch(d, w, h, false); err != nil {
		_ = c.DestroyDrawable(d)
		return err
	}
	if err := c.SetTransparency(d, screenTintTransparency); err != nil {
		_ = c.DestroyDrawable(d)
		return err
	}
	c.tintSprite = d
	return nil
}

// screenTintTransparency is the transparency of the screen tint overlay.
const screenTintTransparency = 128

// solidBitmap returns the 16×16 colour block used for fades, box wipes
// and the screen tint.
func solidBitmap(r, g, b uint8) *Bitmap {
	bm, _ := NewBitmap(16, 16, 32)
	for y := 0; y < bm.Height; y++ {
		for x := 0; x < bm.Width; x++ {
			bm.SetRGBA(x, y, r, g, b, 255)
		}
	}
	return bm
}

// InitBatch (re)initializes batch index with desc and empties its list.
func (c *Compositor) InitBatch(index int, desc BatchDesc) {
	c.stack.Init(index, batch.Desc(desc))
}

// BeginBatch starts a new batch after the active one; subsequent
// entries go there. It returns the batch index.
func (c *Compositor) BeginBatch(desc BatchDesc) int {
	return c.stack.Begin(batch.Desc(desc))
}

// DefaultBatchDesc returns the description of the full-surface batch.
func (c *Compositor) DefaultBatchDesc() BatchDesc {
	return BatchDesc(c.stack.DefaultDesc())
}

// Append lists d at (x, y) in the active batch. The entry does not keep
// d alive: destroying d skips it.
func (c *Compositor) Append(x, y int, d Drawable) error {
	if _, err := c.lookup(d); err != nil {
		return err
	}
	c.stack.Append(x, y, d.h)
	return nil
}

// AppendStage lists the stage screen at (x, y) in the active batch. The
// stage callback decides at render time what is drawn there.
func (c *Compositor) AppendStage(x, y int) {
	c.stack.AppendStage(x, y)
}

// ClearDrawLists empties every batch and makes batch 0 active.
func (c *Compositor) ClearDrawLists() {
	c.stack.ClearAll()
}

// ActiveBatch returns the index of the batch receiving new entries.
func (c *Compositor) ActiveBatch() int { return c.stack.Active() }

// Listed returns the number of entries in the batches in use.
func (c *Compositor) Listed() int {
	n := 0
	for _, b := range c.stack.Batches() {
		n += len(b.Entries)
	}
	return n
}

// PoolStats returns drawable recycling statistics.
func (c *Compositor) PoolStats() PoolStats {
	s := c.pool.Stats()
	return PoolStats{
		Hits:      s.Hits,
		Misses:    s.Misses,
		Evictions: s.Evictions,
		Pooled:    s.Pooled,
		Live:      c.drawables.Len() - s.Pooled,
	}
}

// Screenshot returns the last presented frame.
func (c *Compositor) Screenshot() (*image.NRGBA, error) {
	if c.closed {
		return nil, ErrNotInitialized
	}
	pr, ok := c.be.(backend.PixelReader)
	if !ok {
		return nil, fmt.Errorf("%w: %s cannot read pixels", ErrNotSupported, c.be.Name())
	}
	return pr.ReadPixels()
}

// Close destroys every drawable, pooled or live, and closes the backend.
func (c *Compositor) Close() {
	if c.closed {
		return
	}
	c.evict(c.pool.Drain())
	var live []pool.Handle
	for h := range c.drawables.All() {
		live = append(live, h)
	}
	for _, h := range live {
		c.discard(h)
	}
	c.stack.ClearAll()
	c.stack.DiscardBackup()
	c.be.DestroyRenderTarget(c.rt)
	c.be.Close()
	c.closed = true
	Logger().Info("sprite: compositor closed", "frames", c.frames)
}
