package blend

import colorful "github.com/lucasb-eyer/go-colorful"

// Modulate multiplies the colour channels of c by the given factors
// (255 = unchanged). Alpha is preserved.
func Modulate(c uint32, r, g, b uint8) uint32 {
	cr := mulDiv255((c>>16)&0xFF, uint32(r))
	cg := mulDiv255((c>>8)&0xFF, uint32(g))
	cb := mulDiv255(c&0xFF, uint32(b))
	return c&0xFF000000 | cr<<16 | cg<<8 | cb
}

// AddRGB adds the given amounts to the colour channels of c, saturating at
// 255. Alpha is preserved.
func AddRGB(c uint32, r, g, b uint8) uint32 {
	cr := addClamp((c>>16)&0xFF, uint32(r))
	cg := addClamp((c>>8)&0xFF, uint32(g))
	cb := addClamp(c&0xFF, uint32(b))
	return c&0xFF000000 | cr<<16 | cg<<8 | cb
}

// TintLinear recolours c toward tint scaled by the pixel's brightness.
//
// Brightness is the largest colour channel, reduced by (1 - light) and
// clamped at zero. amount in [0, 1] mixes between the original pixel and
// the tinted one. Alpha is preserved.
func TintLinear(c uint32, tintR, tintG, tintB uint8, amount, light float32) uint32 {
	r, g, b := (c>>16)&0xFF, (c>>8)&0xFF, c&0xFF
	lum := float32(max(r, g, b)) / 255
	lum -= 1 - light
	if lum < 0 {
		lum = 0
	}
	tr := uint32(float32(tintR)*lum + 0.5)
	tg := uint32(float32(tintG)*lum + 0.5)
	tb := uint32(float32(tintB)*lum + 0.5)
	return c&0xFF000000 | lerp8(r, tr, amount)<<16 | lerp8(g, tg, amount)<<8 | lerp8(b, tb, amount)
}

// TintHSV recolours c with the hue and saturation of a tint while keeping
// the pixel's own value (brightness), reduced by (1 - light). amount in
// [0, 1] mixes between the original pixel and the recoloured one. Hue is
// in degrees. Alpha is preserved.
func TintHSV(c uint32, hue, sat, amount, light float64) uint32 {
	r, g, b := (c>>16)&0xFF, (c>>8)&0xFF, c&0xFF
	_, _, v := toColorful(r, g, b).Hsv()
	v -= 1 - light
	if v < 0 {
		v = 0
	}
	nr, ng, nb := colorful.Hsv(hue, sat, v).Clamped().RGB255()
	t := float32(amount)
	return c&0xFF000000 |
		lerp8(r, uint32(nr), t)<<16 |
		lerp8(g, uint32(ng), t)<<8 |
		lerp8(b, uint32(nb), t)
}

// ColorHSV takes the hue and saturation of tint and the value of c. The
// result keeps c's alpha.
func ColorHSV(tint, c uint32) uint32 {
	return colorLight(tint, c, 0, false)
}

// ColorHSVLight is ColorHSV with the value reduced by 1 - n/250, the
// software renderer's lit-sprite rule.
func ColorHSVLight(tint, c uint32, n int) uint32 {
	return colorLight(tint, c, n, true)
}

func colorLight(tint, c uint32, n int, lit bool) uint32 {
	h, s, _ := toColorful((tint>>16)&0xFF, (tint>>8)&0xFF, tint&0xFF).Hsv()
	_, _, v := toColorful((c>>16)&0xFF, (c>>8)&0xFF, c&0xFF).Hsv()
	if lit {
		v -= 1 - float64(n)/250
		if v < 0 {
			v = 0
		}
	}
	r, g, b := colorful.Hsv(h, s, v).Clamped().RGB255()
	return c&0xFF000000 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// HSV converts an 8-bit colour to hue (degrees), saturation and value.
func HSV(r, g, b uint8) (h, s, v float64) {
	return toColorful(uint32(r), uint32(g), uint32(b)).Hsv()
}

func toColorful(r, g, b uint32) colorful.Color {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}
