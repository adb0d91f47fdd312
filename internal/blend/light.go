package blend

// LightMode selects how a light level modifies a sprite in the linear
// (non-HSV) path.
type LightMode uint8

const (
	// LightNone leaves the sprite untouched.
	LightNone LightMode = iota
	// LightDarken multiplies the sprite's colour by the factor.
	LightDarken
	// LightBrighten adds the factor to the sprite's colour.
	LightBrighten
)

// String returns the mode name.
func (m LightMode) String() string {
	switch m {
	case LightDarken:
		return "darken"
	case LightBrighten:
		return "brighten"
	default:
		return "none"
	}
}

// LinearLight maps a light level to a mode and a per-channel factor.
//
// Levels 1..255 darken with factor level*192/256 + 64, which matches a
// translucent blend with an (8,8,8) sprite. Levels above 256 brighten by
// (level-256)/2. Zero and exactly 256 mean no change.
func LinearLight(level int) (LightMode, uint8) {
	switch {
	case level > 0 && level < 256:
		return LightDarken, uint8(level*192/256 + 64) //nolint:gosec // result in [64, 255]
	case level > 256:
		f := (level - 256) / 2
		if f > 255 {
			f = 255
		}
		return LightBrighten, uint8(f) //nolint:gosec // clamped
	}
	return LightNone, 255
}

// ApplyLight applies a linear light mode to a pixel.
func ApplyLight(c uint32, mode LightMode, factor uint8) uint32 {
	switch mode {
	case LightDarken:
		return Modulate(c, factor, factor, factor)
	case LightBrighten:
		return AddRGB(c, factor, factor, factor)
	}
	return c
}
