package software

import (
	"github.com/gogpu/sprite/backend"
	"github.com/gogpu/sprite/internal/blend"
)

// shader applies a command's blend parameters to one texel and composites
// it onto the target.
type shader struct {
	mode     backend.BlendMode
	opaque   bool
	coverage int

	color [3]uint8

	tint        [3]uint8
	hue, sat    float64
	amount      float32
	light       float32
	passthrough bool
}

func newShader(cmd *backend.DrawCommand) shader {
	p := cmd.Blend
	s := shader{
		mode:     p.Mode,
		opaque:   cmd.Opaque,
		coverage: blend.CoverageFull,
		amount:   p.Saturation,
		light:    p.Light,
	}
	if p.Alpha < 1 {
		s.coverage = int(p.Alpha*255 + 0.5)
	}
	for i := range 3 {
		s.color[i] = unit8(p.Color[i])
	}
	switch p.Mode {
	case backend.BlendTint:
		// Tint colours are uploaded as rgb/256.
		for i := range 3 {
			s.tint[i] = unit8(p.Tint[i] * 256 / 255)
		}
	case backend.BlendTintHSV:
		s.hue = float64(p.Tint[0]) * 360
		s.sat = float64(p.Tint[1])
	}
	s.passthrough = p.Mode == backend.BlendModulate && s.color == [3]uint8{255, 255, 255}
	return s
}

func (s *shader) composite(texel, dst uint32) uint32 {
	if s.opaque {
		texel |= 0xFF000000
	}
	switch s.mode {
	case backend.BlendModulate:
		if !s.passthrough {
			texel = blend.Modulate(texel, s.color[0], s.color[1], s.color[2])
		}
	case backend.BlendAdditive:
		texel = blend.AddRGB(texel, s.color[0], s.color[1], s.color[2])
	case backend.BlendTint:
		texel = blend.TintLinear(texel, s.tint[0], s.tint[1], s.tint[2], s.amount, s.light)
	case backend.BlendTintHSV:
		texel = blend.TintHSV(texel, s.hue, s.sat, float64(s.amount), float64(s.light))
	}

	switch {
	case s.opaque:
		cov := s.coverage
		if cov == blend.CoverageFull {
			cov = 255
		}
		return blend.BlendOpaqueSrc(texel, dst, cov)
	case blend.Alpha(dst) == 0xFF:
		return blend.BlendOpaqueDst(texel, dst, s.coverage)
	}
	return blend.Blend(texel, dst, s.coverage)
}

// unit8 converts [0, 1] to a byte.
func unit8(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}
