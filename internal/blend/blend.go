// Package blend implements the pixel compositing core used for
// semi-transparent and tinted sprites.
//
// Pixels are packed 32-bit ARGB (0xAARRGGBB), 8 bits per channel, not
// premultiplied. Every function here is pure.
package blend

// CoverageFull is the coverage value that selects the source's own alpha
// without modulation. Values 0..255 scale the source alpha by
// (coverage+1)/256.
const CoverageFull = 256

// Pack assembles an ARGB pixel.
func Pack(a, r, g, b uint8) uint32 {
	return uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// Unpack splits an ARGB pixel into its channels.
func Unpack(c uint32) (a, r, g, b uint8) {
	return uint8(c >> 24), uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// Alpha returns the alpha channel of c.
func Alpha(c uint32) uint32 { return c >> 24 }

// EffectiveAlpha combines a source alpha with a coverage factor.
func EffectiveAlpha(srcAlpha uint32, coverage int) uint32 {
	if coverage >= CoverageFull {
		return srcAlpha
	}
	if coverage < 0 {
		coverage = 0
	}
	return srcAlpha * uint32(coverage+1) / 256 //nolint:gosec // coverage is clamped to [0, 255]
}

// reciprocal[i] = 65536 / i, reciprocal[0] = 0. Indexed by the combined
// alpha (1..256) so the un-premultiply step is a multiply and a shift.
var reciprocal = func() (t [257]uint32) {
	for i := 1; i < len(t); i++ {
		t[i] = 65536 / uint32(i) //nolint:gosec // i in [1, 256]
	}
	return t
}()

// Blend composites src over dst using src's alpha scaled by coverage.
//
// An effective alpha of 0 leaves dst untouched and 255 returns src
// unchanged. Everything else goes through the "over" operator with the
// destination alpha taken into account.
func Blend(src, dst uint32, coverage int) uint32 {
	a := EffectiveAlpha(Alpha(src), coverage)
	switch a {
	case 0:
		return dst
	case 255:
		return src
	}
	return over(src, dst, a)
}

// BlendOpaqueSrc composites a source whose alpha channel is ignored (an
// opaque drawable) over dst. Only the coverage controls translucency.
func BlendOpaqueSrc(src, dst uint32, coverage int) uint32 {
	switch {
	case coverage <= 0:
		return dst
	case coverage >= 255:
		return src | 0xFF000000
	}
	return over(src|0xFF000000, dst, uint32(coverage)) //nolint:gosec // coverage in (0, 255)
}

// BlendOpaqueDst composites src onto a destination known to be fully
// opaque. The destination alpha never enters the maths and the result is
// always opaque.
func BlendOpaqueDst(src, dst uint32, coverage int) uint32 {
	a := EffectiveAlpha(Alpha(src), coverage)
	if a == 0 {
		return dst | 0xFF000000
	}
	a++
	ia := int32(a) //nolint:gosec // a in [2, 256]
	mix := func(s, d uint32) uint32 {
		return clampChannel(((int32(s)-int32(d))*ia)>>8 + int32(d)) //nolint:gosec // channel values
	}
	r := mix((src>>16)&0xFF, (dst>>16)&0xFF)
	g := mix((src>>8)&0xFF, (dst>>8)&0xFF)
	b := mix(src&0xFF, dst&0xFF)
	return 0xFF000000 | r<<16 | g<<8 | b
}

// over is the fixed-point "over" operator.
//
//	outA   = sa + da*(1-sa)
//	outRGB = (src*sa + dst*da*(1-sa)) / outA
//
// Alphas are carried on a 1..256 scale. The division by outA uses the
// reciprocal table.
func over(src, dst, srcAlpha uint32) uint32 {
	sa := int32(srcAlpha) + 1 //nolint:gosec // srcAlpha in [1, 254]
	da := int32(dst >> 24)    //nolint:gosec // byte
	if da != 0 {
		da++
	}

	outA := 256 - ((256-sa)*(256-da))>>8
	recip := int32(reciprocal[outA]) //nolint:gosec // table values fit int32

	channel := func(shift uint) uint32 {
		s := int32((src >> shift) & 0xFF) //nolint:gosec // byte
		d := int32((dst >> shift) & 0xFF) //nolint:gosec // byte
		d = (d * da) >> 8
		pre := ((s-d)*sa)>>8 + d
		return clampChannel((pre * recip) >> 8)
	}

	r := channel(16)
	g := channel(8)
	b := channel(0)
	return uint32(outA-1)<<24 | r<<16 | g<<8 | b //nolint:gosec // outA in [1, 256]
}
