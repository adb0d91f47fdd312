package geom

import "image"

// SpriteTransform describes how a batch of sprites is placed on the native
// surface: an offset, a per-axis scale and a rotation in radians.
type SpriteTransform struct {
	X, Y           float32
	ScaleX, ScaleY float32
	Rotation       float32
}

// DefaultSpriteTransform returns the identity placement (no offset, scale 1).
func DefaultSpriteTransform() SpriteTransform {
	return SpriteTransform{ScaleX: 1, ScaleY: 1}
}

// BatchMatrix composes the batch transform for a viewport on a native
// surface of the given size.
//
// Scaled content stays centred on the native surface: the translation is
// corrected by (native - scale*native)/2 on each axis. Y is negated because
// sprites are placed in a Y-up space centred on the surface.
func BatchMatrix(viewport image.Rectangle, tr SpriteTransform, nativeW, nativeH int) Matrix {
	w := float32(nativeW)
	h := float32(nativeH)
	offX := (w - tr.ScaleX*w) / 2
	offY := (h - tr.ScaleY*h) / 2
	return Transform2D(
		tr.X+float32(viewport.Min.X)-offX,
		-(tr.Y + float32(viewport.Min.Y) - offY),
		tr.ScaleX, tr.ScaleY, tr.Rotation)
}
