package sprite

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/sprite/backend"
	"github.com/gogpu/sprite/geom"
	"github.com/gogpu/sprite/internal/batch"
	"github.com/gogpu/sprite/internal/blend"
	"github.com/gogpu/sprite/internal/pool"
)

// FlipMode mirrors the whole frame.
type FlipMode uint8

const (
	FlipNone FlipMode = iota
	FlipHorizontal
	FlipVertical
	FlipBoth
)

// String returns the flip mode name.
func (f FlipMode) String() string {
	switch f {
	case FlipNone:
		return "none"
	case FlipHorizontal:
		return "horizontal"
	case FlipVertical:
		return "vertical"
	case FlipBoth:
		return "both"
	default:
		return fmt.Sprintf("FlipMode(%d)", f)
	}
}

func (f FlipMode) horizontal() bool { return f == FlipHorizontal || f == FlipBoth }
func (f FlipMode) vertical() bool   { return f == FlipVertical || f == FlipBoth }

// clip mirrors a clip rectangle on a w × h surface.
func (f FlipMode) clip(r image.Rectangle, w, h int) image.Rectangle {
	if f.horizontal() {
		r.Min.X, r.Max.X = w-r.Max.X, w-r.Min.X
	}
	if f.vertical() {
		r.Min.Y, r.Max.Y = h-r.Max.Y, h-r.Min.Y
	}
	return r
}

// overlay is a drawable drawn outside the batches: full-surface matrix,
// no clip, no render offset.
type overlay struct {
	h    pool.Handle
	x, y int
}

// frameParams is what varies between a plain frame and a transition
// sub-frame.
type frameParams struct {
	flip FlipMode
	// fade is a transparency applied on top of every batch sprite's own.
	fade  int
	under []overlay
	over  []overlay
}

// RenderFrame composites the draw lists, presents the result, then clears
// the lists, keeping a backup for transitions, and ages the pool.
//
// While the device is lost the frame is skipped without error. When the
// device can be reset it is, and the render target and batch matrices are
// rebuilt before drawing; a failed reset returns ErrResetFailed.
func (c *Compositor) RenderFrame(flip FlipMode) error {
	if c.closed {
		return ErrNotInitialized
	}
	c.lastFlip = flip

	skip, err := c.checkDevice()
	if err == nil && !skip {
		err = c.compose(frameParams{flip: flip})
		if errors.Is(err, backend.ErrDeviceLost) {
			Logger().Warn("sprite: device lost during frame", "frame", c.frames)
			skip, err = true, nil
		}
	}

	c.stack.Backup()
	c.stack.ClearAll()
	if !skip {
		c.evict(c.pool.Sweep())
	}
	if err != nil {
		return err
	}
	c.frames++
	return nil
}

// checkDevice reports whether the next frame must be skipped, resetting
// the device when possible.
func (c *Compositor) checkDevice() (skip bool, err error) {
	derr := c.be.TestDevice()
	switch {
	case derr == nil:
		return false, nil
	case errors.Is(derr, backend.ErrDeviceNotReset):
		if err := c.be.Reset(); err != nil {
			return true, fmt.Errorf("%w: %w", ErrResetFailed, err)
		}
		if err := c.recreateTarget(); err != nil {
			return true, fmt.Errorf("%w: render target: %w", ErrResetFailed, err)
		}
		c.stack.RecomputeMatrices()
		Logger().Info("sprite: device reset", "backend", c.be.Name())
		return false, nil
	case errors.Is(derr, backend.ErrDeviceLost):
		Logger().Warn("sprite: device lost, skipping frame", "frame", c.frames)
		return true, nil
	}
	return true, derr
}

// compose draws one frame into the render target and presents it.
func (c *Compositor) compose(p frameParams) error {
	if err := c.be.BeginFrame(c.rt); err != nil {
		return err
	}
	err := c.drawFrame(p)
	if endErr := c.be.EndFrame(); err == nil {
		err = endErr
	}
	if err != nil {
		return err
	}
	return c.be.Present()
}

func (c *Compositor) drawFrame(p frameParams) error {
	w, h := c.NativeSize()
	for _, o := range p.under {
		if err := c.drawOverlay(o, p.flip); err != nil {
			return err
		}
	}

	batches := c.stack.Batches()
	for i := range batches {
		b := &batches[i]
		clip, on := b.Clip()
		if on {
			clip = p.flip.clip(clip, w, h)
		}
		c.be.SetClip(clip, on)
		for _, e := range b.Entries {
			hd, ok := c.resolve(i, e)
			if !ok {
				continue
			}
			dr, ok := c.drawables.Get(hd)
			if !ok || dr.pooled {
				Logger().Warn("sprite: stale drawable in draw list", "drawable", Drawable{h: hd}, "batch", i)
				continue
			}
			if err := c.drawSprite(b.Matrix, e.X+c.offsetX, e.Y+c.offsetY, dr, p.flip, p.fade); err != nil {
				return err
			}
		}
	}
	c.be.SetClip(image.Rectangle{}, false)

	if c.screenTint != [3]uint8{} && !c.tintSprite.IsZero() {
		if dr, ok := c.drawables.Get(c.tintSprite.h); ok && !dr.pooled {
			if err := c.drawSprite(c.stack.ActiveBatch().Matrix, 0, 0, dr, p.flip, 0); err != nil {
				return err
			}
		}
	}

	for _, o := range p.over {
		if err := c.drawOverlay(o, p.flip); err != nil {
			return err
		}
	}
	return nil
}

// resolve returns the drawable an entry draws, calling the stage
// callback for stage entries.
func (c *Compositor) resolve(batchIndex int, e batch.Entry) (pool.Handle, bool) {
	switch e.Kind {
	case batch.KindSprite:
		return e.Drawable, true
	case batch.KindStage:
		if c.opts.stage == nil {
			return pool.Handle{}, false
		}
		d, ok := c.opts.stage(batchIndex)
		if !ok || d.IsZero() {
			return pool.Handle{}, false
		}
		return d.h, true
	}
	return pool.Handle{}, false
}

func (c *Compositor) drawOverlay(o overlay, flip FlipMode) error {
	dr, ok := c.drawables.Get(o.h)
	if !ok || dr.pooled {
		return nil
	}
	return c.drawSprite(geom.Identity(), o.x, o.y, dr, flip, 0)
}

// drawSprite submits one draw per tile of dr placed at (x, y) native
// pixels, top-left origin, under the batch matrix m.
func (c *Compositor) drawSprite(m geom.Matrix, x, y int, dr *drawable, flip FlipMode, fade int) error {
	drawW, drawH := dr.drawSize()
	if drawW <= 0 || drawH <= 0 {
		return nil
	}
	t := effectiveTransparency(dr.state.Transparency, fade)
	if t >= 255 {
		return nil
	}

	nativeW, nativeH := c.NativeSize()
	w, h := float32(nativeW), float32(nativeH)
	xProp := float32(drawW) / float32(dr.width)
	yProp := float32(drawH) / float32(dr.height)
	flipLR := dr.state.Flipped != flip.horizontal()
	flipTB := flip.vertical()

	cmd := backend.DrawCommand{
		Filter: c.filterFor(dr),
		Opaque: dr.opaque,
		Blend:  c.blendFor(&dr.state, t),
	}
	for i := range dr.tiles {
		tl := &dr.tiles[i]
		tileW := float32(tl.Width) * xProp
		tileH := float32(tl.Height) * yProp
		thisX := float32(tl.X) * xProp
		thisY := float32(tl.Y) * yProp
		if dr.state.Flipped {
			thisX = float32(drawW) - thisX - tileW
		}
		thisX += float32(x)
		thisY += float32(y)
		if flip.horizontal() {
			thisX = w - thisX - tileW
		}
		if flip.vertical() {
			thisY = h - thisY - tileH
		}

		thisX -= w / 2
		thisY = h/2 - thisY
		xScale, yScale := tileW, tileH
		if flipLR {
			xScale = -xScale
			thisX += tileW
		}
		if flipTB {
			yScale = -yScale
			thisY -= tileH
		}

		cmd.Texture = tl.tex
		cmd.Vertices = tl.verts
		cmd.Transform = geom.Transform2D(thisX, thisY, xScale, yScale, 0).Multiply(m)
		if err := c.be.Submit(&cmd); err != nil {
			return fmt.Errorf("sprite: submit %s: %w", tl.Tile, err)
		}
	}
	return nil
}

// effectiveTransparency combines a sprite's transparency with a global
// fade: the sprite shows (255-own)/255 of itself, scaled again by the
// fade.
func effectiveTransparency(own, fade int) int {
	if fade <= 0 {
		return own
	}
	return 255 - (255-own)*(255-fade)/255
}

// filterFor selects linear sampling only for resampled stretches.
func (c *Compositor) filterFor(dr *drawable) backend.Filter {
	s := &dr.state
	if c.opts.smooth && s.Resample && s.Stretched &&
		(s.StretchWidth != dr.width || s.StretchHeight != dr.height) {
		return backend.FilterLinear
	}
	return backend.FilterNearest
}

// blendFor maps a sprite's state to backend blend parameters.
func (c *Compositor) blendFor(s *SpriteState, transparency int) backend.BlendParams {
	p := backend.DefaultBlend()
	if transparency > 0 {
		p.Alpha = float32(255-transparency) / 255
	}

	if s.TintSaturation != 0 {
		p.Saturation = float32(s.TintSaturation) / 256
		if s.Light != 0 {
			p.Light = float32(s.Light) / 256
		}
		if c.tintMethod == TintReColourise {
			hue, sat, val := blend.HSV(s.TintR, s.TintG, s.TintB)
			p.Mode = backend.BlendTintHSV
			p.Tint = [3]float32{float32(hue / 360), float32(sat), float32(val)}
		} else {
			p.Mode = backend.BlendTint
			p.Tint = [3]float32{float32(s.TintR) / 256, float32(s.TintG) / 256, float32(s.TintB) / 256}
		}
		return p
	}

	mode, factor := blend.LinearLight(s.Light)
	f := float32(factor) / 255
	switch mode {
	case blend.LightDarken:
		p.Color = [3]float32{f, f, f}
	case blend.LightBrighten:
		p.Mode = backend.BlendAdditive
		p.Color = [3]float32{f, f, f}
	}
	return p
}
