package sprite

import (
	"fmt"

	"github.com/gogpu/sprite/backend"
	"github.com/gogpu/sprite/internal/pool"
	"github.com/gogpu/sprite/internal/tile"
)

// Drawable is a handle to a GPU-backed sprite owned by a Compositor.
// The zero value is never valid. A handle stays valid until the drawable
// is destroyed; destroyed handles are rejected with ErrInvalidDrawable.
type Drawable struct {
	h pool.Handle
}

// IsZero reports whether d is the zero handle.
func (d Drawable) IsZero() bool { return d.h.IsZero() }

// String returns a string representation of the handle.
func (d Drawable) String() string { return "Drawable" + d.h.String() }

// TintMethod selects how tinted drawables are recoloured.
type TintMethod uint8

const (
	// TintColorize mixes texels toward the tint colour scaled by their
	// brightest channel.
	TintColorize TintMethod = iota
	// TintReColourise keeps the texel's value and takes hue and
	// saturation from the tint, darkened by the light level.
	TintReColourise
)

// String returns the method name.
func (m TintMethod) String() string {
	if m == TintReColourise {
		return "recolourise"
	}
	return "colorize"
}

// SpriteState is the per-use rendering state of a drawable. It is reset
// whenever the drawable is reused from the pool.
type SpriteState struct {
	// Transparency is 0 (opaque) to 255 (invisible).
	Transparency int
	Flipped      bool
	// Stretched is set while StretchWidth and StretchHeight apply.
	Stretched                   bool
	StretchWidth, StretchHeight int
	// Resample allows linear filtering when stretched.
	Resample bool
	// TintR, TintG and TintB apply when TintSaturation is non-zero.
	TintR, TintG, TintB uint8
	TintSaturation      int
	// Light is the light level: 0 and 256 leave the sprite unchanged.
	Light int
}

// drawTile is one texture of a drawable with its precomputed quad.
type drawTile struct {
	tile.Tile
	tex   backend.Texture
	verts [4]backend.Vertex
}

type drawable struct {
	width, height int
	depth         int
	opaque        bool
	hasAlpha      bool
	layout        tile.Layout
	tiles         []drawTile
	state         SpriteState
	pooled        bool
}

func (d *drawable) key() pool.Key {
	return pool.Key{Width: d.width, Height: d.height, Depth: d.depth, Opaque: d.opaque}
}

// drawSize returns the size the drawable is drawn at.
func (d *drawable) drawSize() (w, h int) {
	if d.state.Stretched {
		return d.state.StretchWidth, d.state.StretchHeight
	}
	return d.width, d.height
}

// lookup resolves a live, unpooled drawable.
func (c *Compositor) lookup(d Drawable) (*drawable, error) {
	dr, ok := c.drawables.Get(d.h)
	if !ok || dr.pooled {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDrawable, d)
	}
	return dr, nil
}

// CreateDrawable returns a drawable holding a copy of bm. A released
// drawable with the same size, depth and opacity is reused when one is
// pooled; otherwise textures are allocated for every tile.
func (c *Compositor) CreateDrawable(bm *Bitmap, hasAlpha, opaque bool) (Drawable, error) {
	if c.closed {
		return Drawable{}, ErrNotInitialized
	}
	if !supportedDepth(bm.Depth) {
		return Drawable{}, fmt.Errorf("%w: %d", ErrUnsupportedDepth, bm.Depth)
	}
	if bm.Width <= 0 || bm.Height <= 0 {
		return Drawable{}, fmt.Errorf("%w: %dx%d", ErrMismatchedSize, bm.Width, bm.Height)
	}

	key := pool.Key{Width: bm.Width, Height: bm.Height, Depth: bm.Depth, Opaque: opaque}
	if h, ok := c.pool.Acquire(key); ok {
		dr, _ := c.drawables.Get(h)
		dr.pooled = false
		dr.state = SpriteState{}
		d := Drawable{h: h}
		Logger().Debug("sprite: drawable reused", "drawable", d, "key", key)
		if err := c.UpdateDrawable(d, bm, hasAlpha); err != nil {
			c.discard(h)
			return Drawable{}, err
		}
		return d, nil
	}

	dr, err := c.allocate(bm.Width, bm.Height, bm.Depth, opaque)
	if err != nil {
		return Drawable{}, err
	}
	d := Drawable{h: c.drawables.Insert(*dr)}
	Logger().Debug("sprite: drawable created", "drawable", d, "key", key, "tiles", len(dr.tiles))
	if err := c.UpdateDrawable(d, bm, hasAlpha); err != nil {
		c.discard(d.h)
		return Drawable{}, err
	}
	return d, nil
}

// allocate lays out tiles for a new drawable and creates their textures.
func (c *Compositor) allocate(width, height, depth int, opaque bool) (*drawable, error) {
	layout := tile.Compute(width, height, tile.Limits{
		MaxWidth:   c.caps.MaxTextureWidth,
		MaxHeight:  c.caps.MaxTextureHeight,
		PowerOfTwo: c.caps.PowerOfTwo,
	})
	dr := &drawable{
		width:  width,
		height: height,
		depth:  depth,
		opaque: opaque,
		layout: layout,
		tiles:  make([]drawTile, 0, len(layout.Tiles)),
	}
	for _, t := range layout.Tiles {
		tex, err := c.be.CreateTexture(t.AllocWidth, t.AllocHeight)
		if err != nil {
			c.destroyTextures(dr)
			return nil, fmt.Errorf("sprite: create %s: %w", t, err)
		}
		dr.tiles = append(dr.tiles, drawTile{Tile: t, tex: tex, verts: backend.Quad(t.UV())})
	}
	return dr, nil
}

func (c *Compositor) destroyTextures(dr *drawable) {
	for _, t := range dr.tiles {
		c.be.DestroyTexture(t.tex)
	}
	dr.tiles = nil
}

// UpdateDrawable uploads bm into d. The bitmap must match the size and
// colour depth d was created with.
func (c *Compositor) UpdateDrawable(d Drawable, bm *Bitmap, hasAlpha bool) error {
	dr, err := c.lookup(d)
	if err != nil {
		return err
	}
	if bm.Width != dr.width || bm.Height != dr.height {
		return fmt.Errorf("%w: %dx%d, drawable is %dx%d", ErrMismatchedSize, bm.Width, bm.Height, dr.width, dr.height)
	}
	if bm.Depth != dr.depth {
		return fmt.Errorf("%w: %d, drawable is %d", ErrMismatchedDepth, bm.Depth, dr.depth)
	}
	dr.hasAlpha = hasAlpha
	mode := texelMode{
		useAlpha: hasAlpha && bm.Depth == 32,
		opaque:   dr.opaque,
		edges:    c.opts.smooth,
	}
	for i := range dr.tiles {
		t := &dr.tiles[i]
		lr, err := c.be.LockTexture(t.tex)
		if err != nil {
			return fmt.Errorf("sprite: lock %s: %w", t.Tile, err)
		}
		writeTile(lr, bm, t.Tile, mode)
		if err := c.be.UnlockTexture(t.tex); err != nil {
			return fmt.Errorf("sprite: unlock %s: %w", t.Tile, err)
		}
	}
	return nil
}

// DestroyDrawable releases d. Entries still referring to it, including
// those in a backed-up frame, are skipped from now on. The textures are
// kept in the pool for reuse and destroyed once the drawable has gone
// unused for the configured number of frames.
func (c *Compositor) DestroyDrawable(d Drawable) error {
	dr, err := c.lookup(d)
	if err != nil {
		return err
	}
	if n := c.stack.Tombstone(d.h); n > 0 {
		Logger().Debug("sprite: destroyed drawable still listed", "drawable", d, "entries", n)
	}
	dr.pooled = true
	c.pool.Release(d.h, dr.key())
	return nil
}

// discard destroys a drawable and its textures for good.
func (c *Compositor) discard(h pool.Handle) {
	if dr, ok := c.drawables.Remove(h); ok {
		c.destroyTextures(&dr)
	}
}

// evict destroys pooled drawables for good.
func (c *Compositor) evict(handles []pool.Handle) {
	for _, h := range handles {
		c.discard(h)
	}
	if len(handles) > 0 {
		Logger().Debug("sprite: drawables evicted", "count", len(handles))
	}
}

// Size returns the logical size of d.
func (c *Compositor) Size(d Drawable) (width, height int, err error) {
	dr, err := c.lookup(d)
	if err != nil {
		return 0, 0, err
	}
	return dr.width, dr.height, nil
}

// Tiles returns the number of textures backing d.
func (c *Compositor) Tiles(d Drawable) (int, error) {
	dr, err := c.lookup(d)
	if err != nil {
		return 0, err
	}
	return len(dr.tiles), nil
}

// State returns the rendering state of d.
func (c *Compositor) State(d Drawable) (SpriteState, error) {
	dr, err := c.lookup(d)
	if err != nil {
		return SpriteState{}, err
	}
	return dr.state, nil
}

// SetTransparency sets how much of d shows: 0 is opaque, 255 invisible.
func (c *Compositor) SetTransparency(d Drawable, transparency int) error {
	dr, err := c.lookup(d)
	if err != nil {
		return err
	}
	dr.state.Transparency = clampLevel(transparency)
	return nil
}

// SetFlipped mirrors d horizontally.
func (c *Compositor) SetFlipped(d Drawable, flipped bool) error {
	dr, err := c.lookup(d)
	if err != nil {
		return err
	}
	dr.state.Flipped = flipped
	return nil
}

// SetStretch draws d at width × height. useResampler allows linear
// filtering when smooth scaling is enabled.
func (c *Compositor) SetStretch(d Drawable, width, height int, useResampler bool) error {
	dr, err := c.lookup(d)
	if err != nil {
		return err
	}
	dr.state.Stretched = true
	dr.state.StretchWidth = width
	dr.state.StretchHeight = height
	dr.state.Resample = useResampler
	return nil
}

// ClearStretch draws d at its logical size again.
func (c *Compositor) ClearStretch(d Drawable) error {
	dr, err := c.lookup(d)
	if err != nil {
		return err
	}
	dr.state.Stretched = false
	dr.state.StretchWidth, dr.state.StretchHeight = 0, 0
	dr.state.Resample = false
	return nil
}

// SetTint recolours d toward (r, g, b). saturation 0 disables the tint;
// 256 applies it fully.
func (c *Compositor) SetTint(d Drawable, r, g, b uint8, saturation int) error {
	dr, err := c.lookup(d)
	if err != nil {
		return err
	}
	dr.state.TintR, dr.state.TintG, dr.state.TintB = r, g, b
	dr.state.TintSaturation = saturation
	return nil
}

// SetLight sets the light level of d. Levels 1-255 darken, levels above
// 256 brighten, 0 and 256 leave it unchanged.
func (c *Compositor) SetLight(d Drawable, level int) error {
	dr, err := c.lookup(d)
	if err != nil {
		return err
	}
	dr.state.Light = level
	return nil
}

func clampLevel(v int) int {
	return min(max(v, 0), 255)
}
