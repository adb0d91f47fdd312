package sprite

import (
	"errors"
	"image"
	"testing"

	"github.com/gogpu/sprite/backend"
	"github.com/gogpu/sprite/backend/recording"
	"github.com/gogpu/sprite/geom"
)

// newRecorded returns a compositor drawing into a recording backend.
func newRecorded(t *testing.T, caps backend.Caps, opts ...Option) (*Compositor, *recording.Backend) {
	t.Helper()
	if caps == (backend.Caps{}) {
		caps = backend.Caps{MaxTextureWidth: 4096, MaxTextureHeight: 4096}
	}
	rec := recording.New(recording.WithCaps(caps))
	c, err := New(append([]Option{WithBackend(rec)}, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(c.Close)
	return c, rec
}

// solid returns a w×h 32-bit bitmap of one opaque colour.
func solid(t *testing.T, w, h int, r, g, b uint8) *Bitmap {
	t.Helper()
	bm := mustBitmap(t, w, h, 32)
	for y := range h {
		for x := range w {
			bm.SetRGBA(x, y, r, g, b, 255)
		}
	}
	return bm
}

func mustCreate(t *testing.T, c *Compositor, bm *Bitmap, opaque bool) Drawable {
	t.Helper()
	d, err := c.CreateDrawable(bm, false, opaque)
	if err != nil {
		t.Fatalf("CreateDrawable() error = %v", err)
	}
	return d
}

// textureOf returns the texture of tile i of d, pooled or not.
func textureOf(t *testing.T, c *Compositor, d Drawable, i int) backend.Texture {
	t.Helper()
	dr, ok := c.drawables.Get(d.h)
	if !ok {
		t.Fatalf("%s does not resolve", d)
	}
	return dr.tiles[i].tex
}

func TestNewDefaults(t *testing.T) {
	c, rec := newRecorded(t, backend.Caps{})
	if w, h := c.NativeSize(); w != DefaultNativeWidth || h != DefaultNativeHeight {
		t.Errorf("NativeSize() = %dx%d, want %dx%d", w, h, DefaultNativeWidth, DefaultNativeHeight)
	}
	if c.Backend() != rec {
		t.Error("Backend() is not the injected backend")
	}
	if c.TintMethod() != TintColorize {
		t.Errorf("TintMethod() = %v, want colorize", c.TintMethod())
	}
	if c.ActiveBatch() != 0 {
		t.Errorf("ActiveBatch() = %d, want 0", c.ActiveBatch())
	}
}

func TestCreateDrawableTiles(t *testing.T) {
	c, rec := newRecorded(t, backend.Caps{MaxTextureWidth: 64, MaxTextureHeight: 64})
	d := mustCreate(t, c, solid(t, 150, 70, 1, 2, 3), false)

	n, err := c.Tiles(d)
	if err != nil {
		t.Fatal(err)
	}
	if n != 6 {
		t.Errorf("Tiles() = %d, want 6 (3 across, 2 down)", n)
	}
	if rec.TextureCount() != 6 {
		t.Errorf("TextureCount() = %d, want 6", rec.TextureCount())
	}
	w, h, err := c.Size(d)
	if err != nil || w != 150 || h != 70 {
		t.Errorf("Size() = %d, %d, %v; want 150, 70", w, h, err)
	}

	// Tile (2,1) holds bitmap columns 100-149, rows 35-69.
	pix, ok := rec.TexturePixels(textureOf(t, c, d, 5))
	if !ok {
		t.Fatal("texture of last tile missing")
	}
	if got := pix[:4]; got[0] != 1 || got[1] != 2 || got[2] != 3 || got[3] != 255 {
		t.Errorf("last tile texel = %v, want [1 2 3 255]", got)
	}
}

func TestCreateDrawablePowerOfTwo(t *testing.T) {
	c, rec := newRecorded(t, backend.Caps{MaxTextureWidth: 64, MaxTextureHeight: 64, PowerOfTwo: true})
	d := mustCreate(t, c, solid(t, 20, 10, 9, 9, 9), false)

	rec.ClearFrames()
	if err := c.Append(0, 0, d); err != nil {
		t.Fatal(err)
	}
	if err := c.RenderFrame(FlipNone); err != nil {
		t.Fatal(err)
	}
	f, _ := rec.LastFrame()
	draws := f.DrawsOf(textureOf(t, c, d, 0))
	if len(draws) != 1 {
		t.Fatalf("draws = %d, want 1", len(draws))
	}
	// 20x10 in a 32x16 texture.
	if v := draws[0].Vertices[3]; v.U != 20.0/32 || v.V != 10.0/16 {
		t.Errorf("bottom-right UV = (%v, %v), want (0.625, 0.625)", v.U, v.V)
	}
}

func TestCreateDrawableErrors(t *testing.T) {
	c, _ := newRecorded(t, backend.Caps{})
	if _, err := c.CreateDrawable(&Bitmap{Width: 4, Height: 4, Depth: 12}, false, false); !errors.Is(err, ErrUnsupportedDepth) {
		t.Errorf("12-bit error = %v, want ErrUnsupportedDepth", err)
	}
	if _, err := c.CreateDrawable(&Bitmap{Width: 0, Height: 4, Depth: 32}, false, false); err == nil {
		t.Error("empty bitmap accepted")
	}

	small, _ := newRecorded(t, backend.Caps{MaxTextureWidth: 8, MaxTextureHeight: 8})
	if _, err := small.CreateDrawable(solid(t, 8, 8, 0, 0, 0), false, false); err != nil {
		t.Errorf("8x8 under 8x8 limit: %v", err)
	}
}

func TestUpdateDrawableErrors(t *testing.T) {
	c, _ := newRecorded(t, backend.Caps{})
	d := mustCreate(t, c, solid(t, 4, 4, 0, 0, 0), false)

	tests := []struct {
		name string
		bm   *Bitmap
		want error
	}{
		{"size", solid(t, 5, 4, 0, 0, 0), ErrMismatchedSize},
		{"depth", mustBitmap(t, 4, 4, 16), ErrMismatchedDepth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.UpdateDrawable(d, tt.bm, false); !errors.Is(err, tt.want) {
				t.Errorf("UpdateDrawable() error = %v, want %v", err, tt.want)
			}
		})
	}
	if err := c.UpdateDrawable(Drawable{}, solid(t, 4, 4, 0, 0, 0), false); !errors.Is(err, ErrInvalidDrawable) {
		t.Errorf("zero handle error = %v, want ErrInvalidDrawable", err)
	}
}

func TestUpdateDrawableUploads(t *testing.T) {
	c, rec := newRecorded(t, backend.Caps{})
	d := mustCreate(t, c, solid(t, 2, 2, 10, 20, 30), false)
	if err := c.UpdateDrawable(d, solid(t, 2, 2, 40, 50, 60), false); err != nil {
		t.Fatal(err)
	}
	pix, _ := rec.TexturePixels(textureOf(t, c, d, 0))
	if pix[0] != 40 || pix[1] != 50 || pix[2] != 60 {
		t.Errorf("texel = %v, want [40 50 60 ...]", pix[:4])
	}
}

func TestPoolReuse(t *testing.T) {
	c, rec := newRecorded(t, backend.Caps{})
	d := mustCreate(t, c, solid(t, 100, 100, 0, 0, 0), true)
	if err := c.SetTransparency(d, 100); err != nil {
		t.Fatal(err)
	}
	if err := c.DestroyDrawable(d); err != nil {
		t.Fatal(err)
	}
	if _, err := c.State(d); !errors.Is(err, ErrInvalidDrawable) {
		t.Errorf("pooled drawable State() error = %v, want ErrInvalidDrawable", err)
	}
	if err := c.DestroyDrawable(d); !errors.Is(err, ErrInvalidDrawable) {
		t.Errorf("double destroy error = %v, want ErrInvalidDrawable", err)
	}

	other := mustCreate(t, c, solid(t, 100, 100, 0, 0, 0), false)
	if other == d {
		t.Error("drawable with different opacity was reused")
	}

	again := mustCreate(t, c, solid(t, 100, 100, 0, 0, 0), true)
	if again != d {
		t.Errorf("reused drawable = %s, want %s", again, d)
	}
	st, err := c.State(again)
	if err != nil {
		t.Fatal(err)
	}
	if st != (SpriteState{}) {
		t.Errorf("reused state = %+v, want defaults", st)
	}

	stats := c.PoolStats()
	if stats.Hits != 1 || stats.Misses != 2 || stats.Pooled != 0 || stats.Live != 2 {
		t.Errorf("PoolStats() = %v", stats)
	}
	if created, _ := rec.TextureStats(); created != 2 {
		t.Errorf("textures created = %d, want 2", created)
	}
}

func TestPoolEvictionAfterSeventhFrame(t *testing.T) {
	c, rec := newRecorded(t, backend.Caps{})
	d := mustCreate(t, c, solid(t, 8, 8, 0, 0, 0), false)
	if err := c.DestroyDrawable(d); err != nil {
		t.Fatal(err)
	}

	for frame := 1; frame <= 6; frame++ {
		if err := c.RenderFrame(FlipNone); err != nil {
			t.Fatal(err)
		}
		if rec.TextureCount() != 1 {
			t.Fatalf("frame %d: textures = %d, want 1", frame, rec.TextureCount())
		}
		if got := c.pool.Age(d.h); got != frame {
			t.Errorf("frame %d: age = %d", frame, got)
		}
	}
	if err := c.RenderFrame(FlipNone); err != nil {
		t.Fatal(err)
	}
	if rec.TextureCount() != 0 {
		t.Errorf("after 7th frame: textures = %d, want 0", rec.TextureCount())
	}
	if s := c.PoolStats(); s.Evictions != 1 || s.Pooled != 0 {
		t.Errorf("PoolStats() = %v", s)
	}

	// The handle no longer resolves; a new drawable of the same shape is
	// a fresh allocation.
	if err := c.Append(0, 0, d); !errors.Is(err, ErrInvalidDrawable) {
		t.Errorf("Append(evicted) error = %v, want ErrInvalidDrawable", err)
	}
	fresh := mustCreate(t, c, solid(t, 8, 8, 0, 0, 0), false)
	if fresh == d {
		t.Error("evicted handle was handed out again")
	}
}

func TestDestroyListedDrawableIsSkipped(t *testing.T) {
	c, rec := newRecorded(t, backend.Caps{}, WithNativeSize(32, 32))
	keep := mustCreate(t, c, solid(t, 4, 4, 0, 0, 0), false)
	gone := mustCreate(t, c, solid(t, 4, 4, 9, 9, 9), false)
	for _, d := range []Drawable{keep, gone, keep} {
		if err := c.Append(0, 0, d); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.DestroyDrawable(gone); err != nil {
		t.Fatal(err)
	}
	if c.Listed() != 3 {
		t.Errorf("Listed() = %d, want 3: destroyed entries stay in place", c.Listed())
	}
	if err := c.RenderFrame(FlipNone); err != nil {
		t.Fatal(err)
	}
	f, _ := rec.LastFrame()
	if n := len(f.Draws()); n != 2 {
		t.Errorf("draws = %d, want 2", n)
	}
	if n := len(f.DrawsOf(textureOf(t, c, gone, 0))); n != 0 {
		t.Errorf("destroyed drawable drawn %d times", n)
	}
}

func TestDrawableSetters(t *testing.T) {
	c, _ := newRecorded(t, backend.Caps{})
	d := mustCreate(t, c, solid(t, 4, 4, 0, 0, 0), false)

	steps := []struct {
		name string
		fn   func() error
	}{
		{"transparency", func() error { return c.SetTransparency(d, 300) }},
		{"flip", func() error { return c.SetFlipped(d, true) }},
		{"stretch", func() error { return c.SetStretch(d, 8, 6, true) }},
		{"tint", func() error { return c.SetTint(d, 1, 2, 3, 128) }},
		{"light", func() error { return c.SetLight(d, 300) }},
	}
	for _, s := range steps {
		if err := s.fn(); err != nil {
			t.Fatalf("%s: %v", s.name, err)
		}
	}
	want := SpriteState{
		Transparency:   255,
		Flipped:        true,
		Stretched:      true,
		StretchWidth:   8,
		StretchHeight:  6,
		Resample:       true,
		TintR:          1,
		TintG:          2,
		TintB:          3,
		TintSaturation: 128,
		Light:          300,
	}
	if got, _ := c.State(d); got != want {
		t.Errorf("State() = %+v, want %+v", got, want)
	}

	if err := c.ClearStretch(d); err != nil {
		t.Fatal(err)
	}
	if got, _ := c.State(d); got.Stretched || got.StretchWidth != 0 || got.Resample {
		t.Errorf("after ClearStretch: %+v", got)
	}
}

func TestBatches(t *testing.T) {
	c, _ := newRecorded(t, backend.Caps{})
	d := mustCreate(t, c, solid(t, 4, 4, 0, 0, 0), false)

	desc := BatchDesc{Viewport: image.Rect(0, 0, 100, 50), Transform: geom.DefaultSpriteTransform()}
	if i := c.BeginBatch(desc); i != 1 {
		t.Errorf("BeginBatch() = %d, want 1", i)
	}
	_ = c.Append(1, 1, d)
	c.AppendStage(2, 2)
	if c.ActiveBatch() != 1 || c.Listed() != 2 {
		t.Errorf("active %d, listed %d; want 1, 2", c.ActiveBatch(), c.Listed())
	}

	c.ClearDrawLists()
	if c.ActiveBatch() != 0 || c.Listed() != 0 {
		t.Errorf("after clear: active %d, listed %d", c.ActiveBatch(), c.Listed())
	}
	if got := c.DefaultBatchDesc(); got.Viewport != image.Rect(0, 0, DefaultNativeWidth, DefaultNativeHeight) {
		t.Errorf("DefaultBatchDesc().Viewport = %v", got.Viewport)
	}
}

func TestCloseDestroysEverything(t *testing.T) {
	rec := recording.New()
	c, err := New(WithBackend(rec))
	if err != nil {
		t.Fatal(err)
	}
	live := mustCreate(t, c, solid(t, 4, 4, 0, 0, 0), false)
	pooled := mustCreate(t, c, solid(t, 8, 8, 0, 0, 0), false)
	_ = c.Append(0, 0, live)
	if err := c.DestroyDrawable(pooled); err != nil {
		t.Fatal(err)
	}

	c.Close()
	created, destroyed := rec.TextureStats()
	if created != 2 || destroyed != 2 {
		t.Errorf("textures created %d, destroyed %d; want 2, 2", created, destroyed)
	}
	if _, err := c.CreateDrawable(solid(t, 4, 4, 0, 0, 0), false, false); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("CreateDrawable after Close error = %v, want ErrNotInitialized", err)
	}
	if err := c.RenderFrame(FlipNone); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("RenderFrame after Close error = %v, want ErrNotInitialized", err)
	}
	c.Close()
}

func TestScreenshotUnsupported(t *testing.T) {
	c, _ := newRecorded(t, backend.Caps{})
	if _, err := c.Screenshot(); !errors.Is(err, ErrNotSupported) {
		t.Errorf("Screenshot() error = %v, want ErrNotSupported", err)
	}
}

func TestSetNativeSize(t *testing.T) {
	c, rec := newRecorded(t, backend.Caps{})
	if err := c.SetNativeSize(0, 10); err == nil {
		t.Error("SetNativeSize(0, 10) succeeded")
	}
	if err := c.SetNativeSize(64, 48); err != nil {
		t.Fatal(err)
	}
	if err := c.RenderFrame(FlipNone); err != nil {
		t.Fatal(err)
	}
	f, _ := rec.LastFrame()
	if f.Width != 64 || f.Height != 48 {
		t.Errorf("frame size = %dx%d, want 64x48", f.Width, f.Height)
	}
	if got := c.DefaultBatchDesc().Viewport; got != image.Rect(0, 0, 64, 48) {
		t.Errorf("default viewport = %v", got)
	}
}
