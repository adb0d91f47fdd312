package blend

// div255 divides x by 255 exactly without using division.
//
// Formula: ((x + 1) + ((x + 1) >> 8)) >> 8
//
// This is Alvy Ray Smith's formula; it is exact for every product of two
// bytes, which is the only range the channel helpers feed it.
func div255(x uint32) uint32 {
	t := x + 1
	return (t + (t >> 8)) >> 8
}

// mulDiv255 multiplies two bytes and divides by 255 exactly.
func mulDiv255(a, b uint32) uint32 {
	return div255(a * b)
}

// addClamp adds two channel values and clamps to 255.
func addClamp(a, b uint32) uint32 {
	if sum := a + b; sum < 255 {
		return sum
	}
	return 255
}

// clampChannel clamps a signed intermediate to the byte range [0, 255].
func clampChannel(x int32) uint32 {
	switch {
	case x < 0:
		return 0
	case x > 255:
		return 255
	}
	return uint32(x)
}

// lerp8 mixes two channel values: a + (b-a)*t for t in [0, 1].
func lerp8(a, b uint32, t float32) uint32 {
	v := float32(a) + (float32(b)-float32(a))*t
	return clampChannel(int32(v + 0.5))
}
