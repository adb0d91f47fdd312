package sprite

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/gogpu/sprite/backend"
	"github.com/gogpu/sprite/internal/tile"
)

// Mask colours mark transparent pixels in bitmaps without an alpha
// channel.
const (
	MaskIndex8  = 0
	MaskColor16 = 0xF81F
	MaskColor24 = 0xFF00FF
)

// Bitmap is a CPU-side source image in one of the supported colour depths.
//
// Pixel layout per depth, little-endian:
//
//	8   palette index (Palette, or grey levels when Palette is nil)
//	16  RGB565
//	24  0xRRGGBB in three bytes
//	32  0xAARRGGBB in four bytes
type Bitmap struct {
	Width, Height int
	Depth         int
	Stride        int
	Pix           []byte
	Palette       color.Palette
}

// NewBitmap allocates a zeroed bitmap.
func NewBitmap(width, height, depth int) (*Bitmap, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("sprite: invalid bitmap size %dx%d", width, height)
	}
	if !supportedDepth(depth) {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedDepth, depth)
	}
	stride := width * bytesPerPixel(depth)
	return &Bitmap{
		Width:  width,
		Height: height,
		Depth:  depth,
		Stride: stride,
		Pix:    make([]byte, stride*height),
	}, nil
}

// BitmapFromImage converts img to a 32-bit bitmap that keeps its alpha.
func BitmapFromImage(img image.Image) *Bitmap {
	r := img.Bounds()
	nrgba := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Copy(nrgba, image.Point{}, img, r, draw.Src, nil)

	bm := &Bitmap{
		Width:  r.Dx(),
		Height: r.Dy(),
		Depth:  32,
		Stride: r.Dx() * 4,
		Pix:    make([]byte, r.Dx()*r.Dy()*4),
	}
	for y := 0; y < bm.Height; y++ {
		for x := 0; x < bm.Width; x++ {
			s := nrgba.Pix[y*nrgba.Stride+x*4:]
			bm.SetRGBA(x, y, s[0], s[1], s[2], s[3])
		}
	}
	return bm
}

// Bounds returns the bitmap rectangle.
func (b *Bitmap) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.Width, b.Height)
}

// Fill sets every pixel to the raw value v.
func (b *Bitmap) Fill(v uint32) {
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			b.Set(x, y, v)
		}
	}
}

// Set stores the raw pixel value v at (x, y).
func (b *Bitmap) Set(x, y int, v uint32) {
	off := y*b.Stride + x*bytesPerPixel(b.Depth)
	switch b.Depth {
	case 8:
		b.Pix[off] = uint8(v) //nolint:gosec // index
	case 16:
		binary.LittleEndian.PutUint16(b.Pix[off:], uint16(v)) //nolint:gosec // RGB565
	case 24:
		b.Pix[off] = uint8(v)
		b.Pix[off+1] = uint8(v >> 8)
		b.Pix[off+2] = uint8(v >> 16)
	case 32:
		binary.LittleEndian.PutUint32(b.Pix[off:], v)
	}
}

// Get returns the raw pixel value at (x, y).
func (b *Bitmap) Get(x, y int) uint32 {
	off := y*b.Stride + x*bytesPerPixel(b.Depth)
	switch b.Depth {
	case 8:
		return uint32(b.Pix[off])
	case 16:
		return uint32(binary.LittleEndian.Uint16(b.Pix[off:]))
	case 24:
		return uint32(b.Pix[off]) | uint32(b.Pix[off+1])<<8 | uint32(b.Pix[off+2])<<16
	case 32:
		return binary.LittleEndian.Uint32(b.Pix[off:])
	}
	return 0
}

// SetRGBA stores a colour, encoded for the bitmap's depth. An 8-bit
// bitmap stores r as the palette index and ignores g, bl and a; an index
// past the palette reads back as grey.
func (b *Bitmap) SetRGBA(x, y int, r, g, bl, a uint8) {
	switch b.Depth {
	case 16:
		b.Set(x, y, uint32(r>>3)<<11|uint32(g>>2)<<5|uint32(bl>>3))
	case 24:
		b.Set(x, y, uint32(r)<<16|uint32(g)<<8|uint32(bl))
	case 32:
		b.Set(x, y, uint32(a)<<24|uint32(r)<<16|uint32(g)<<8|uint32(bl))
	case 8:
		b.Set(x, y, uint32(r))
	}
}

// rgba decodes the pixel at (x, y) and reports whether it is the mask
// colour.
func (b *Bitmap) rgba(x, y int) (r, g, bl, a uint8, mask bool) {
	v := b.Get(x, y)
	switch b.Depth {
	case 8:
		mask = v == MaskIndex8
		if int(v) < len(b.Palette) {
			c := color.NRGBAModel.Convert(b.Palette[v]).(color.NRGBA)
			return c.R, c.G, c.B, 255, mask
		}
		return uint8(v), uint8(v), uint8(v), 255, mask //nolint:gosec // index
	case 16:
		r5, g6, b5 := (v>>11)&0x1F, (v>>5)&0x3F, v&0x1F
		return uint8(r5<<3 | r5>>2), uint8(g6<<2 | g6>>4), uint8(b5<<3 | b5>>2), 255, v == MaskColor16 //nolint:gosec // 8-bit
	case 24:
		return uint8(v >> 16), uint8(v >> 8), uint8(v), 255, v == MaskColor24
	default:
		return uint8(v >> 16), uint8(v >> 8), uint8(v), uint8(v >> 24), v&0xFFFFFF == MaskColor24
	}
}

func supportedDepth(depth int) bool {
	switch depth {
	case 8, 16, 24, 32:
		return true
	}
	return false
}

func bytesPerPixel(depth int) int {
	return (depth + 7) / 8
}

// texelMode controls how source pixels become texels.
type texelMode struct {
	// useAlpha takes alpha from the source. Otherwise the mask colour is
	// transparent and everything else opaque.
	useAlpha bool
	opaque   bool
	// edges gives transparent texels the colour of an opaque neighbour.
	edges bool
}

// writeTile converts the bitmap region covered by t into lr.
func writeTile(lr *backend.LockedRect, bm *Bitmap, t tile.Tile, mode texelMode) {
	for y := 0; y < t.Height; y++ {
		row := lr.Pix[y*lr.Stride:]
		for x := 0; x < t.Width; x++ {
			sx, sy := t.X+x, t.Y+y
			r, g, b, a, mask := bm.rgba(sx, sy)
			switch {
			case mode.opaque:
				a = 255
			case !mode.useAlpha && mask:
				a = 0
				if mode.edges {
					r, g, b = edgeColor(bm, sx, sy)
				}
			case !mode.useAlpha:
				a = 255
			}
			px := row[x*4 : x*4+4]
			px[0], px[1], px[2], px[3] = r, g, b, a
		}
	}
}

// edgeColor returns the colour of the first unmasked 4-neighbour of
// (x, y), or black.
func edgeColor(bm *Bitmap, x, y int) (r, g, b uint8) {
	for _, d := range [4]image.Point{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
		nx, ny := x+d.X, y+d.Y
		if nx < 0 || ny < 0 || nx >= bm.Width || ny >= bm.Height {
			continue
		}
		nr, ng, nb, _, mask := bm.rgba(nx, ny)
		if !mask {
			return nr, ng, nb
		}
	}
	return 0, 0, 0
}
