package software

import (
	"image"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/gogpu/sprite/backend"
	"github.com/gogpu/sprite/internal/blend"
)

// bandRows is the smallest band of rows shaded on its own worker.
const bandRows = 32

// Submit draws one textured quad into the current frame.
func (b *Backend) Submit(cmd *backend.DrawCommand) error {
	if !b.inFrame {
		return backend.ErrNotInFrame
	}
	tex, ok := b.textures[cmd.Texture]
	if !ok {
		return backend.ErrInvalidTexture
	}
	if tex.locked {
		return backend.ErrTextureLocked
	}

	src := tex.img
	tw, th := float64(src.Rect.Dx()), float64(src.Rect.Dy())
	regionW := float64(cmd.Vertices[3].U) * tw
	regionH := float64(cmd.Vertices[3].V) * th
	if regionW <= 0 || regionH <= 0 {
		return nil
	}
	sr := image.Rect(0, 0, int(math.Ceil(regionW)), int(math.Ceil(regionH)))

	s2d := b.sourceToDevice(cmd, regionW, regionH)
	dr := transformedBounds(s2d, sr).Intersect(b.target.Rect)
	if b.clipOn {
		dr = dr.Intersect(b.clip)
	}
	if dr.Empty() {
		return nil
	}

	// Resample into the scratch buffer; the mask records which pixels
	// the quad covers.
	clearRect(b.scratch, dr)
	clearAlpha(b.mask, dr)
	var interp xdraw.Interpolator = xdraw.NearestNeighbor
	if cmd.Filter == backend.FilterLinear {
		interp = xdraw.ApproxBiLinear
	}
	interp.Transform(subImage(b.scratch, dr), s2d, src, sr, xdraw.Src, nil)
	xdraw.NearestNeighbor.Transform(subAlpha(b.mask, dr), s2d, image.Opaque, sr, xdraw.Src, nil)

	shade := newShader(cmd)
	rows := func(lo, hi int) {
		for y := lo; y < hi; y++ {
			mrow := b.mask.Pix[b.mask.PixOffset(dr.Min.X, y):]
			srow := b.scratch.Pix[b.scratch.PixOffset(dr.Min.X, y):]
			drow := b.target.Pix[b.target.PixOffset(dr.Min.X, y):]
			for i := range dr.Dx() {
				if mrow[i] == 0 {
					continue
				}
				s := srow[i*4 : i*4+4 : i*4+4]
				d := drow[i*4 : i*4+4 : i*4+4]
				texel := blend.Pack(s[3], s[0], s[1], s[2])
				dst := blend.Pack(d[3], d[0], d[1], d[2])
				out := shade.composite(texel, dst)
				d[3], d[0], d[1], d[2] = blend.Unpack(out)
			}
		}
	}
	if b.workers != nil {
		b.workers.Bands(dr.Min.Y, dr.Max.Y, bandRows, rows)
	} else {
		rows(dr.Min.Y, dr.Max.Y)
	}
	return nil
}

// sourceToDevice maps texel coordinates to target pixels.
//
// Quad corner (qx, qy) samples texel (qx*regionW, -qy*regionH) and lands
// at (qx, qy)·M in the centred Y-up space; target pixels put the origin
// top-left with Y down.
func (b *Backend) sourceToDevice(cmd *backend.DrawCommand, regionW, regionH float64) f64.Aff3 {
	m := cmd.Transform
	w := float64(b.target.Rect.Dx())
	h := float64(b.target.Rect.Dy())
	return f64.Aff3{
		float64(m[0][0]) / regionW, -float64(m[1][0]) / regionH, float64(m[3][0]) + w/2,
		-float64(m[0][1]) / regionW, float64(m[1][1]) / regionH, h/2 - float64(m[3][1]),
	}
}

// transformedBounds returns the pixel bounds of sr mapped through m.
func transformedBounds(m f64.Aff3, sr image.Rectangle) image.Rectangle {
	corners := [4][2]float64{
		{float64(sr.Min.X), float64(sr.Min.Y)},
		{float64(sr.Max.X), float64(sr.Min.Y)},
		{float64(sr.Min.X), float64(sr.Max.Y)},
		{float64(sr.Max.X), float64(sr.Max.Y)},
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range corners {
		x := m[0]*c[0] + m[1]*c[1] + m[2]
		y := m[3]*c[0] + m[4]*c[1] + m[5]
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	const limit = 1 << 24
	clamp := func(v float64) int {
		return int(math.Max(-limit, math.Min(limit, v)))
	}
	return image.Rect(clamp(math.Floor(minX)), clamp(math.Floor(minY)), clamp(math.Ceil(maxX)), clamp(math.Ceil(maxY)))
}

func subImage(img *image.NRGBA, r image.Rectangle) *image.NRGBA {
	return img.SubImage(r).(*image.NRGBA)
}

func subAlpha(img *image.Alpha, r image.Rectangle) *image.Alpha {
	return img.SubImage(r).(*image.Alpha)
}

func clearRect(img *image.NRGBA, r image.Rectangle) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := img.PixOffset(r.Min.X, y)
		clear(img.Pix[i : i+r.Dx()*4])
	}
}

func clearAlpha(img *image.Alpha, r image.Rectangle) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := img.PixOffset(r.Min.X, y)
		clear(img.Pix[i : i+r.Dx()])
	}
}
