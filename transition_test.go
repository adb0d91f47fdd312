package sprite

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/gogpu/sprite/backend"
)

func TestFadeLevels(t *testing.T) {
	tests := []struct {
		speed int
		want  []int
	}{
		{16, []int{1, 33, 65, 97, 129, 161, 193, 225}},
		{0, []int{1, 33, 65, 97, 129, 161, 193, 225}},
		{64, []int{1, 129}},
		{200, []int{1}},
	}
	for _, tt := range tests {
		if got := fadeLevels(tt.speed); !slices.Equal(got, tt.want) {
			t.Errorf("fadeLevels(%d) = %v, want %v", tt.speed, got, tt.want)
		}
	}
}

func TestBoxGrowth(t *testing.T) {
	tests := []struct {
		speed, w, h int
		wantX       int
		wantY       int
	}{
		{16, 320, 200, 16, 10},
		{0, 320, 200, 16, 10},
		{16, 64, 40, 16, 10},
		{16, 64, 2, 16, 1},
		{100, 50, 30, 100, 30},
	}
	for _, tt := range tests {
		xs, ys := boxGrowth(tt.speed, tt.w, tt.h)
		if xs != tt.wantX || ys != tt.wantY {
			t.Errorf("boxGrowth(%d, %d, %d) = (%d, %d), want (%d, %d)",
				tt.speed, tt.w, tt.h, xs, ys, tt.wantX, tt.wantY)
		}
	}
}

func TestFadeOut(t *testing.T) {
	c, rec := newRecorded(t, backend.Caps{}, WithNativeSize(32, 20))
	d := mustCreate(t, c, solid(t, 32, 20, 255, 255, 255), true)
	if err := c.Append(0, 0, d); err != nil {
		t.Fatal(err)
	}
	if err := c.RenderFrame(FlipNone); err != nil {
		t.Fatal(err)
	}
	rec.ClearFrames()

	tr, err := c.FadeOut(16, 0, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !tr.Done() || tr.Progress() != 1 {
		t.Errorf("Done() = %v, Progress() = %v", tr.Done(), tr.Progress())
	}

	frames := rec.Frames()
	if len(frames) != 9 || tr.Frames() != 9 {
		t.Fatalf("frames = %d (transition says %d), want 9", len(frames), tr.Frames())
	}
	tex := textureOf(t, c, d, 0)
	var got []int
	for _, f := range frames[:8] {
		draws := f.DrawsOf(tex)
		if len(draws) != 1 {
			t.Fatalf("sprite draws = %d, want 1", len(draws))
		}
		got = append(got, draws[0].Blend.Transparency())
	}
	if want := []int{1, 33, 65, 97, 129, 161, 193, 225}; !slices.Equal(got, want) {
		t.Errorf("sprite transparency = %v, want %v", got, want)
	}
	last := frames[8]
	if n := len(last.DrawsOf(tex)); n != 0 {
		t.Errorf("sprite drawn %d times in the final frame, want 0", n)
	}
	if n := len(last.Draws()); n != 1 {
		t.Errorf("final frame draws = %d, want only the backdrop", n)
	}

	if c.Listed() != 0 || c.stack.HasBackup() {
		t.Errorf("lists not cleared: listed %d, backup %v", c.Listed(), c.stack.HasBackup())
	}
	if s := c.PoolStats(); s.Pooled != 1 {
		t.Errorf("Pooled = %d, want the backdrop", s.Pooled)
	}
}

func TestFadeIn(t *testing.T) {
	var c *Compositor
	var d Drawable
	c, rec := newRecorded(t, backend.Caps{}, WithNativeSize(32, 20), WithDrawScreen(func() {
		_ = c.Append(0, 0, d)
	}))
	d = mustCreate(t, c, solid(t, 8, 8, 255, 255, 255), false)

	tr, err := c.FadeIn(16, 0, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.Run(); err != nil {
		t.Fatal(err)
	}

	tex := textureOf(t, c, d, 0)
	var got []int
	for _, f := range rec.Frames() {
		for _, dc := range f.DrawsOf(tex) {
			got = append(got, dc.Blend.Transparency())
		}
	}
	if want := []int{254, 222, 190, 158, 126, 94, 62, 30, 0}; !slices.Equal(got, want) {
		t.Errorf("sprite transparency = %v, want %v", got, want)
	}
	if c.Listed() != 0 {
		t.Errorf("Listed() = %d, want 0", c.Listed())
	}
	if !c.stack.HasBackup() {
		t.Error("faded-in scene was not kept as the last frame")
	}
}

func TestBoxOut(t *testing.T) {
	c, rec := newRecorded(t, backend.Caps{}, WithNativeSize(64, 40))
	if err := c.RenderFrame(FlipNone); err != nil {
		t.Fatal(err)
	}
	rec.ClearFrames()

	tr, err := c.BoxOut(16, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.Run(); err != nil {
		t.Fatal(err)
	}
	frames := rec.Frames()
	if len(frames) != 3 {
		t.Fatalf("frames = %d, want 3", len(frames))
	}
	for i, f := range frames {
		draws := f.Draws()
		if len(draws) != 1 {
			t.Fatalf("frame %d: draws = %d, want the box", i, len(draws))
		}
		boxW, boxH := float32(16*(i+2)), float32(10*(i+2))
		if sx, sy := scale(draws[0].Transform); sx != boxW || sy != boxH {
			t.Errorf("frame %d: box = %vx%v, want %vx%v", i, sx, sy, boxW, boxH)
		}
		if x, y := translation(draws[0].Transform); x != -boxW/2 || y != boxH/2 {
			t.Errorf("frame %d: box at (%v, %v), want centred", i, x, y)
		}
	}
	if c.stack.HasBackup() {
		t.Error("backup kept after box out")
	}
}

func TestBoxIn(t *testing.T) {
	c, rec := newRecorded(t, backend.Caps{}, WithNativeSize(64, 40))
	tr, err := c.BoxIn(16, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.Run(); err != nil {
		t.Fatal(err)
	}
	frames := rec.Frames()
	if len(frames) != 3 {
		t.Fatalf("frames = %d, want 3", len(frames))
	}
	for i, f := range frames {
		if n := len(f.Draws()); n != 4 {
			t.Errorf("frame %d: draws = %d, want 4 strips", i, n)
		}
	}
	// The last frame pushes the left strip fully off the surface.
	left := frames[2].Draws()[0]
	if x, _ := translation(left.Transform); x != -32-64 {
		t.Errorf("left strip at x = %v, want -96", x)
	}
}

func TestBoxOutWiderThanSurface(t *testing.T) {
	c, rec := newRecorded(t, backend.Caps{}, WithNativeSize(64, 40))
	tr, err := c.BoxOut(64, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.Run(); err != nil {
		t.Fatal(err)
	}
	if n := len(rec.Frames()); n != 0 {
		t.Errorf("frames = %d, want none", n)
	}
}

func TestTransitionsReleaseDrawables(t *testing.T) {
	tests := []struct {
		name  string
		start func(c *Compositor) (*Transition, error)
	}{
		{"fade out", func(c *Compositor) (*Transition, error) { return c.FadeOut(64, 0, 0, 0) }},
		{"fade in", func(c *Compositor) (*Transition, error) { return c.FadeIn(64, 0, 0, 0) }},
		{"box out", func(c *Compositor) (*Transition, error) { return c.BoxOut(16, 0) }},
		{"box in", func(c *Compositor) (*Transition, error) { return c.BoxIn(16, 0) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newRecorded(t, backend.Caps{}, WithNativeSize(64, 40))
			tr, err := tt.start(c)
			if err != nil {
				t.Fatal(err)
			}
			if err := tr.Run(); err != nil {
				t.Fatal(err)
			}
			if s := c.PoolStats(); s.Live != 0 || s.Pooled != 1 {
				t.Errorf("PoolStats = %+v, want one pooled and none live", s)
			}
		})
	}
}

func TestTransitionAdvance(t *testing.T) {
	c, _ := newRecorded(t, backend.Caps{}, WithFramePeriod(10*time.Millisecond))
	tr, err := c.FadeOut(16, 0, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if done, err := tr.Advance(5 * time.Millisecond); done || err != nil {
		t.Fatalf("Advance(5ms) = %v, %v", done, err)
	}
	if tr.Frames() != 0 {
		t.Errorf("Frames() = %d before a full period, want 0", tr.Frames())
	}
	if done, _ := tr.Advance(5 * time.Millisecond); done {
		t.Fatal("done after one sub-frame")
	}
	if tr.Frames() != 1 {
		t.Errorf("Frames() = %d after a full period, want 1", tr.Frames())
	}
	if p := tr.Progress(); p <= 0 || p >= 1 {
		t.Errorf("Progress() = %v, want between 0 and 1", p)
	}

	done, err := tr.Advance(time.Second)
	if !done || err != nil {
		t.Fatalf("Advance(1s) = %v, %v, want done", done, err)
	}
	if tr.Frames() != 9 {
		t.Errorf("Frames() = %d, want 9", tr.Frames())
	}
	if done, _ := tr.Advance(time.Second); !done || tr.Frames() != 9 {
		t.Error("finished transition advanced again")
	}
}

func TestTransitionClosed(t *testing.T) {
	c, _ := newRecorded(t, backend.Caps{})
	c.Close()
	if _, err := c.FadeOut(16, 0, 0, 0); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("FadeOut() error = %v, want ErrNotInitialized", err)
	}
	if _, err := c.BoxIn(16, 0); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("BoxIn() error = %v, want ErrNotInitialized", err)
	}
}
