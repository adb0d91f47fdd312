package sprite

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/sprite/backend"
	"github.com/gogpu/sprite/internal/tile"
)

// convert runs writeTile over the whole bitmap and returns the texels.
func convert(t *testing.T, bm *Bitmap, mode texelMode) *backend.LockedRect {
	t.Helper()
	lr := &backend.LockedRect{
		Pix:    make([]byte, bm.Width*bm.Height*4),
		Stride: bm.Width * 4,
		Width:  bm.Width,
		Height: bm.Height,
	}
	whole := tile.Tile{Width: bm.Width, Height: bm.Height, AllocWidth: bm.Width, AllocHeight: bm.Height}
	writeTile(lr, bm, whole, mode)
	return lr
}

func texel(lr *backend.LockedRect, x, y int) color.NRGBA {
	p := lr.Pix[y*lr.Stride+x*4:]
	return color.NRGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
}

func mustBitmap(t *testing.T, w, h, depth int) *Bitmap {
	t.Helper()
	bm, err := NewBitmap(w, h, depth)
	if err != nil {
		t.Fatalf("NewBitmap(%d, %d, %d) error = %v", w, h, depth, err)
	}
	return bm
}

func TestNewBitmap(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		depth         int
		wantStride    int
		wantErr       error
	}{
		{"8-bit", 5, 2, 8, 5, nil},
		{"16-bit", 5, 2, 16, 10, nil},
		{"24-bit", 5, 2, 24, 15, nil},
		{"32-bit", 5, 2, 32, 20, nil},
		{"15-bit", 5, 2, 15, 0, ErrUnsupportedDepth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bm, err := NewBitmap(tt.width, tt.height, tt.depth)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if bm.Stride != tt.wantStride {
				t.Errorf("Stride = %d, want %d", bm.Stride, tt.wantStride)
			}
			if len(bm.Pix) != tt.wantStride*tt.height {
				t.Errorf("len(Pix) = %d, want %d", len(bm.Pix), tt.wantStride*tt.height)
			}
		})
	}

	if _, err := NewBitmap(0, 4, 32); err == nil {
		t.Error("NewBitmap(0, 4) succeeded")
	}
}

func TestBitmapSetGet(t *testing.T) {
	for _, depth := range []int{8, 16, 24, 32} {
		bm := mustBitmap(t, 3, 3, depth)
		want := uint32(0x5A)
		switch depth {
		case 16:
			want = 0xBEEF
		case 24:
			want = 0x123456
		case 32:
			want = 0x80123456
		}
		bm.Set(2, 1, want)
		if got := bm.Get(2, 1); got != want {
			t.Errorf("depth %d: Get = %#x, want %#x", depth, got, want)
		}
		if got := bm.Get(1, 1); got != 0 {
			t.Errorf("depth %d: neighbour = %#x, want 0", depth, got)
		}
	}
}

func TestWriteTileDepths(t *testing.T) {
	tests := []struct {
		name  string
		depth int
		value uint32
		mode  texelMode
		want  color.NRGBA
	}{
		{"16 white", 16, 0xFFFF, texelMode{}, color.NRGBA{255, 255, 255, 255}},
		{"16 red", 16, 0xF800, texelMode{}, color.NRGBA{255, 0, 0, 255}},
		{"16 mask", 16, MaskColor16, texelMode{}, color.NRGBA{255, 0, 255, 0}},
		{"24 colour", 24, 0x102030, texelMode{}, color.NRGBA{0x10, 0x20, 0x30, 255}},
		{"24 mask", 24, MaskColor24, texelMode{}, color.NRGBA{255, 0, 255, 0}},
		{"32 alpha", 32, 0x80112233, texelMode{useAlpha: true}, color.NRGBA{0x11, 0x22, 0x33, 0x80}},
		{"32 alpha ignored", 32, 0x80112233, texelMode{}, color.NRGBA{0x11, 0x22, 0x33, 255}},
		{"32 mask", 32, 0x00FF00FF, texelMode{}, color.NRGBA{255, 0, 255, 0}},
		{"opaque mask", 24, MaskColor24, texelMode{opaque: true}, color.NRGBA{255, 0, 255, 255}},
		{"opaque alpha", 32, 0x10FFFFFF, texelMode{useAlpha: true, opaque: true}, color.NRGBA{255, 255, 255, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bm := mustBitmap(t, 1, 1, tt.depth)
			bm.Set(0, 0, tt.value)
			if got := texel(convert(t, bm, tt.mode), 0, 0); got != tt.want {
				t.Errorf("texel = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWriteTilePalette(t *testing.T) {
	bm := mustBitmap(t, 3, 1, 8)
	bm.Palette = color.Palette{color.Black, color.NRGBA{R: 200, G: 10, B: 20, A: 255}}
	bm.Set(0, 0, 0)
	bm.Set(1, 0, 1)
	bm.Set(2, 0, 7) // past the palette: grey

	lr := convert(t, bm, texelMode{})
	if got := texel(lr, 0, 0); got.A != 0 {
		t.Errorf("index 0 = %v, want transparent", got)
	}
	if got, want := texel(lr, 1, 0), (color.NRGBA{200, 10, 20, 255}); got != want {
		t.Errorf("index 1 = %v, want %v", got, want)
	}
	if got, want := texel(lr, 2, 0), (color.NRGBA{7, 7, 7, 255}); got != want {
		t.Errorf("index 7 = %v, want %v", got, want)
	}
}

func TestSetRGBAIndexed(t *testing.T) {
	bm := mustBitmap(t, 2, 1, 8)
	bm.SetRGBA(0, 0, 90, 200, 10, 0)
	if got := bm.Get(0, 0); got != 90 {
		t.Fatalf("Get = %d, want index 90", got)
	}
	if got, want := texel(convert(t, bm, texelMode{}), 0, 0), (color.NRGBA{90, 90, 90, 255}); got != want {
		t.Errorf("texel = %v, want grey %v", got, want)
	}

	bm.Palette = color.Palette{color.Black, color.NRGBA{R: 1, G: 2, B: 3, A: 255}}
	bm.SetRGBA(1, 0, 1, 0, 0, 255)
	if got, want := texel(convert(t, bm, texelMode{}), 1, 0), (color.NRGBA{1, 2, 3, 255}); got != want {
		t.Errorf("palette texel = %v, want %v", got, want)
	}
}

func TestWriteTileEdgeColouring(t *testing.T) {
	bm := mustBitmap(t, 3, 1, 24)
	bm.Set(0, 0, MaskColor24)
	bm.Set(1, 0, 0x0A141E)
	bm.Set(2, 0, MaskColor24)

	plain := convert(t, bm, texelMode{})
	if got := texel(plain, 0, 0); got != (color.NRGBA{255, 0, 255, 0}) {
		t.Errorf("without edges = %v, want transparent magenta", got)
	}

	edged := convert(t, bm, texelMode{edges: true})
	for _, x := range []int{0, 2} {
		if got, want := texel(edged, x, 0), (color.NRGBA{0x0A, 0x14, 0x1E, 0}); got != want {
			t.Errorf("edge texel %d = %v, want %v", x, got, want)
		}
	}
}

func TestWriteTileOffset(t *testing.T) {
	bm := mustBitmap(t, 4, 4, 32)
	bm.Set(3, 2, 0xFF010203)

	lr := &backend.LockedRect{Pix: make([]byte, 4*4*4), Stride: 16, Width: 4, Height: 4}
	tl := tile.Tile{X: 2, Y: 2, Width: 2, Height: 2, AllocWidth: 4, AllocHeight: 4}
	writeTile(lr, bm, tl, texelMode{useAlpha: true})

	if got, want := texel(lr, 1, 0), (color.NRGBA{1, 2, 3, 255}); got != want {
		t.Errorf("texel (1,0) = %v, want %v", got, want)
	}
	if got := texel(lr, 3, 3); got != (color.NRGBA{}) {
		t.Errorf("padding texel = %v, want untouched", got)
	}
}

func TestBitmapFromImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(10, 10, 12, 11))
	img.SetNRGBA(11, 10, color.NRGBA{R: 1, G: 2, B: 3, A: 255})

	bm := BitmapFromImage(img)
	if bm.Width != 2 || bm.Height != 1 || bm.Depth != 32 {
		t.Fatalf("bitmap = %dx%dx%d, want 2x1x32", bm.Width, bm.Height, bm.Depth)
	}
	if got := bm.Get(1, 0); got != 0xFF010203 {
		t.Errorf("Get(1,0) = %#x, want 0xFF010203", got)
	}
	if got := bm.Get(0, 0); got != 0 {
		t.Errorf("Get(0,0) = %#x, want transparent", got)
	}
	if got := bm.Bounds(); got != image.Rect(0, 0, 2, 1) {
		t.Errorf("Bounds = %v", got)
	}
}
