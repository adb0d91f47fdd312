package backend

import (
	"fmt"

	"github.com/gogpu/sprite/geom"
)

// Vertex is one corner of a sprite quad in unit space.
type Vertex struct {
	X, Y float32
	U, V float32
}

// Quad returns the triangle-strip quad for a texture region whose
// bottom-right texel edge is at (u, v). The quad spans (0,0) to (1,-1):
// the command's transform scales it to pixels.
func Quad(u, v float32) [4]Vertex {
	return [4]Vertex{
		{X: 0, Y: 0, U: 0, V: 0},
		{X: 1, Y: 0, U: u, V: 0},
		{X: 0, Y: -1, U: 0, V: v},
		{X: 1, Y: -1, U: u, V: v},
	}
}

// Filter selects texture sampling.
type Filter uint8

const (
	FilterNearest Filter = iota
	FilterLinear
)

// String returns the filter name.
func (f Filter) String() string {
	if f == FilterLinear {
		return "linear"
	}
	return "nearest"
}

// BlendMode selects how texels are coloured before compositing.
type BlendMode uint8

const (
	// BlendModulate multiplies texel RGB by Color.
	BlendModulate BlendMode = iota
	// BlendAdditive adds Color to texel RGB.
	BlendAdditive
	// BlendTint mixes texels toward Tint (linear RGB) scaled by texel
	// brightness.
	BlendTint
	// BlendTintHSV recolours texels with Tint's hue and saturation,
	// keeping texel value (Tint holds h/360, s, v).
	BlendTintHSV
)

// String returns the mode name.
func (m BlendMode) String() string {
	switch m {
	case BlendModulate:
		return "modulate"
	case BlendAdditive:
		return "additive"
	case BlendTint:
		return "tint"
	case BlendTintHSV:
		return "tint-hsv"
	default:
		return fmt.Sprintf("BlendMode(%d)", m)
	}
}

// BlendParams is the per-draw colour state. Components are in [0, 1].
type BlendParams struct {
	Mode BlendMode
	// Color is the modulate factor or the additive amount.
	Color [3]float32
	// Alpha scales the texel alpha. 1 keeps texel alpha as is.
	Alpha float32
	// Tint, Saturation and Light drive the tint modes.
	Tint       [3]float32
	Saturation float32
	Light      float32
}

// DefaultBlend returns the blend state that draws texels unchanged.
func DefaultBlend() BlendParams {
	return BlendParams{Mode: BlendModulate, Color: [3]float32{1, 1, 1}, Alpha: 1, Light: 1}
}

// Transparency converts Alpha back to the 0 (opaque) .. 255 (invisible)
// scale it was derived from.
func (p BlendParams) Transparency() int {
	return 255 - int(p.Alpha*255+0.5)
}

// DrawCommand is one textured quad.
type DrawCommand struct {
	Texture  Texture
	Vertices [4]Vertex
	// Transform maps quad space to the target's centred Y-up space.
	Transform geom.Matrix
	Filter    Filter
	// Opaque ignores texel alpha.
	Opaque bool
	Blend  BlendParams
}
