package sprite

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/sprite/backend"
)

// defaultTransitionSpeed replaces non-positive fade and box speeds.
const defaultTransitionSpeed = 16

// Transition is a multi-frame screen effect. The game loop drives it by
// calling Advance with the time elapsed since the previous call; a
// sub-frame is composited every period until the effect completes. The
// drawables it created are destroyed and the draw lists cleared when it
// completes or fails.
type Transition struct {
	name   string
	period time.Duration
	acc    time.Duration

	step    func() (done bool, err error)
	cleanup func()

	progress float64
	frames   int
	done     bool
}

// Advance moves the transition forward by dt and reports whether it has
// completed. It returns done=true with the error of a failed sub-frame.
func (t *Transition) Advance(dt time.Duration) (bool, error) {
	if t.done {
		return true, nil
	}
	t.acc += dt
	for t.acc >= t.period {
		t.acc -= t.period
		done, err := t.step()
		t.frames++
		if err != nil {
			t.finish()
			return true, fmt.Errorf("sprite: %s: %w", t.name, err)
		}
		if done {
			t.finish()
			return true, nil
		}
	}
	return false, nil
}

// Run advances the transition one period at a time until it completes.
// It never sleeps; it is meant for offline rendering and tests.
func (t *Transition) Run() error {
	for {
		done, err := t.Advance(t.period)
		if done {
			return err
		}
	}
}

// Done reports whether the transition has completed.
func (t *Transition) Done() bool { return t.done }

// Progress returns how far the transition has got, from 0 to 1.
func (t *Transition) Progress() float64 { return t.progress }

// Frames returns the number of sub-frames composited so far.
func (t *Transition) Frames() int { return t.frames }

// Period returns how much time each sub-frame lasts.
func (t *Transition) Period() time.Duration { return t.period }

// Name returns the kind of transition.
func (t *Transition) Name() string { return t.name }

func (t *Transition) finish() {
	t.done = true
	t.progress = 1
	if t.cleanup != nil {
		t.cleanup()
	}
}

// subFrame composites one transition frame. Device loss skips the frame
// like RenderFrame does.
func (c *Compositor) subFrame(p frameParams) error {
	skip, err := c.checkDevice()
	if err != nil || skip {
		return err
	}
	err = c.compose(p)
	if errors.Is(err, backend.ErrDeviceLost) {
		Logger().Warn("sprite: device lost during transition")
		return nil
	}
	return err
}

// fadeLevels returns the fade steps for a speed: 1, 1+2s, ... below 255.
func fadeLevels(speed int) []int {
	if speed <= 0 {
		speed = defaultTransitionSpeed
	}
	speed *= 2
	var levels []int
	for a := 1; a < 255; a += speed {
		levels = append(levels, a)
	}
	return levels
}

// backdrop creates the full-surface colour block a fade draws over.
func (c *Compositor) backdrop(r, g, b uint8) (Drawable, error) {
	d, err := c.CreateDrawable(solidBitmap(r, g, b), false, true)
	if err != nil {
		return Drawable{}, err
	}
	w, h := c.NativeSize()
	if err := c.SetStretch(d, w, h, false); err != nil {
		_ = c.DestroyDrawable(d)
		return Drawable{}, err
	}
	return d, nil
}

// FadeOut re-composites the last rendered frame over a backdrop of colour
// (r, g, b) with increasing transparency until only the backdrop shows.
// Sub-frames last the compositor's frame period.
func (c *Compositor) FadeOut(speed int, r, g, b uint8) (*Transition, error) {
	if c.closed {
		return nil, ErrNotInitialized
	}
	bd, err := c.backdrop(r, g, b)
	if err != nil {
		return nil, err
	}
	levels := append(fadeLevels(speed), 255)
	under := []overlay{{h: bd.h}}
	flip := c.lastFlip
	i := 0

	Logger().Debug("sprite: fade out", "speed", speed, "steps", len(levels))
	t := &Transition{name: "fade out", period: c.opts.framePeriod}
	t.step = func() (bool, error) {
		a := levels[i]
		c.stack.Restore()
		if err := c.subFrame(frameParams{flip: flip, fade: a, under: under}); err != nil {
			return true, err
		}
		i++
		t.progress = float64(a) / 255
		return i == len(levels), nil
	}
	t.cleanup = func() {
		_ = c.DestroyDrawable(bd)
		c.stack.ClearAll()
		c.stack.DiscardBackup()
	}
	return t, nil
}

// FadeIn calls the draw-screen callback to fill the draw lists, then
// composites them over a backdrop of colour (r, g, b) with decreasing
// transparency, ending on the fully visible scene.
func (c *Compositor) FadeIn(speed int, r, g, b uint8) (*Transition, error) {
	if c.closed {
		return nil, ErrNotInitialized
	}
	bd, err := c.backdrop(r, g, b)
	if err != nil {
		return nil, err
	}
	if c.opts.drawScreen != nil {
		c.opts.drawScreen()
	}
	c.stack.Backup()
	levels := fadeLevels(speed)
	fades := make([]int, 0, len(levels)+1)
	for _, a := range levels {
		fades = append(fades, 255-a)
	}
	fades = append(fades, 0)
	under := []overlay{{h: bd.h}}
	flip := c.lastFlip
	i := 0

	Logger().Debug("sprite: fade in", "speed", speed, "steps", len(fades))
	t := &Transition{name: "fade in", period: c.opts.framePeriod}
	t.step = func() (bool, error) {
		fade := fades[i]
		c.stack.Restore()
		if err := c.subFrame(frameParams{flip: flip, fade: fade, under: under}); err != nil {
			return true, err
		}
		i++
		t.progress = float64(255-fade) / 255
		return i == len(fades), nil
	}
	t.cleanup = func() {
		_ = c.DestroyDrawable(bd)
		c.stack.ClearAll()
	}
	return t, nil
}

// boxGrowth returns the per-frame growth of a box wipe: speed
// horizontally, and vertically whatever keeps the box's aspect close to
// the surface's.
func boxGrowth(speed, w, h int) (xs, ys int) {
	if speed <= 0 {
		speed = defaultTransitionSpeed
	}
	steps := w / speed
	if steps <= 0 {
		return speed, h
	}
	return speed, max(h/steps, 1)
}

// BoxOut grows a black box from the centre of the last rendered frame
// until it covers the surface. The box starts one step in, so the first
// sub-frame shows it at twice the step size. Sub-frames last delay, or the frame period
// when delay is not positive.
func (c *Compositor) BoxOut(speed int, delay time.Duration) (*Transition, error) {
	return c.box(speed, delay, false)
}

// BoxIn calls the draw-screen callback to fill the draw lists, then
// reveals them from the centre outward by pushing four black strips off
// the surface.
func (c *Compositor) BoxIn(speed int, delay time.Duration) (*Transition, error) {
	return c.box(speed, delay, true)
}

func (c *Compositor) box(speed int, delay time.Duration, in bool) (*Transition, error) {
	if c.closed {
		return nil, ErrNotInitialized
	}
	w, h := c.NativeSize()
	blk, err := c.CreateDrawable(solidBitmap(0, 0, 0), false, true)
	if err != nil {
		return nil, err
	}
	if in {
		if err := c.SetStretch(blk, w, h, false); err != nil {
			_ = c.DestroyDrawable(blk)
			return nil, err
		}
		if c.opts.drawScreen != nil {
			c.opts.drawScreen()
		}
		c.stack.Backup()
	}
	if delay <= 0 {
		delay = c.opts.framePeriod
	}
	xs, ys := boxGrowth(speed, w, h)
	hc, vc := w/2, h/2
	flip := c.lastFlip
	boxW, boxH := xs, ys

	name := "box out"
	if in {
		name = "box in"
	}
	Logger().Debug("sprite: "+name, "speed", xs, "yspeed", ys, "delay", delay)
	t := &Transition{name: name, period: delay}
	t.step = func() (bool, error) {
		if boxW >= w {
			return true, nil
		}
		boxW += xs
		boxH += ys
		var over []overlay
		if in {
			over = []overlay{
				{h: blk.h, x: hc - boxW/2 - w, y: 0},
				{h: blk.h, x: 0, y: vc - boxH/2 - h},
				{h: blk.h, x: hc + boxW/2, y: 0},
				{h: blk.h, x: 0, y: vc + boxH/2},
			}
		} else {
			if err := c.SetStretch(blk, boxW, boxH, false); err != nil {
				return true, err
			}
			over = []overlay{{h: blk.h, x: hc - boxW/2, y: vc - boxH/2}}
		}
		c.stack.Restore()
		if err := c.subFrame(frameParams{flip: flip, over: over}); err != nil {
			return true, err
		}
		t.progress = min(float64(boxW)/float64(w), 1)
		return boxW >= w, nil
	}
	t.cleanup = func() {
		_ = c.DestroyDrawable(blk)
		c.stack.ClearAll()
		if !in {
			c.stack.DiscardBackup()
		}
	}
	return t, nil
}
