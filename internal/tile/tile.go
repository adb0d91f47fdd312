package tile

import (
	"fmt"
	"image"
	"math/bits"
)

// Tile is one hardware texture's worth of a bitmap.
type Tile struct {
	// X and Y are the tile's offset within the bitmap.
	X, Y int
	// Width and Height are the usable extent.
	Width, Height int
	// AllocWidth and AllocHeight are the texture's allocated extent,
	// never smaller than Width and Height.
	AllocWidth, AllocHeight int
}

// Rect returns the bitmap region covered by the tile.
func (t Tile) Rect() image.Rectangle {
	return image.Rect(t.X, t.Y, t.X+t.Width, t.Y+t.Height)
}

// Padded reports whether the texture is larger than the region it holds.
func (t Tile) Padded() bool {
	return t.AllocWidth != t.Width || t.AllocHeight != t.Height
}

// UV returns the texture coordinates of the tile's bottom-right texel
// edge. The top-left is always (0, 0).
func (t Tile) UV() (u, v float32) {
	return float32(t.Width) / float32(t.AllocWidth), float32(t.Height) / float32(t.AllocHeight)
}

// String returns a string representation of the tile.
func (t Tile) String() string {
	return fmt.Sprintf("Tile(%d,%d %dx%d alloc %dx%d)", t.X, t.Y, t.Width, t.Height, t.AllocWidth, t.AllocHeight)
}

// Limits describes the texture constraints of a backend.
type Limits struct {
	MaxWidth   int
	MaxHeight  int
	PowerOfTwo bool
}

// Layout is the computed tile grid for one bitmap.
type Layout struct {
	Width, Height int
	Across, Down  int
	// Tiles is in row-major order: index = y*Across + x.
	Tiles []Tile
}

// Compute lays out a width × height bitmap under lim.
//
// Width and height must be positive. Non-positive limits are treated as
// unlimited.
func Compute(width, height int, lim Limits) Layout {
	across := tilesFor(width, lim.MaxWidth)
	down := tilesFor(height, lim.MaxHeight)

	tileW, extraW := width/across, width%across
	tileH, extraH := height/down, height%down

	l := Layout{
		Width:  width,
		Height: height,
		Across: across,
		Down:   down,
		Tiles:  make([]Tile, 0, across*down),
	}
	for y := range down {
		for x := range across {
			t := Tile{
				X:      x * tileW,
				Y:      y * tileH,
				Width:  tileW,
				Height: tileH,
			}
			if x == across-1 {
				t.Width += extraW
			}
			if y == down-1 {
				t.Height += extraH
			}
			t.AllocWidth, t.AllocHeight = t.Width, t.Height
			if lim.PowerOfTwo {
				t.AllocWidth = CeilPow2(t.Width)
				t.AllocHeight = CeilPow2(t.Height)
			}
			l.Tiles = append(l.Tiles, t)
		}
	}
	return l
}

// At returns the tile in column x, row y.
func (l Layout) At(x, y int) Tile {
	return l.Tiles[y*l.Across+x]
}

// Single reports whether one unpadded texture holds the whole bitmap.
func (l Layout) Single() bool {
	return len(l.Tiles) == 1 && !l.Tiles[0].Padded()
}

// Bounds returns the bitmap rectangle the layout covers.
func (l Layout) Bounds() image.Rectangle {
	return image.Rect(0, 0, l.Width, l.Height)
}

func tilesFor(size, limit int) int {
	if limit <= 0 || size <= limit {
		return 1
	}
	return (size + limit - 1) / limit
}

// CeilPow2 rounds n up to a power of two, with a minimum of 2.
func CeilPow2(n int) int {
	if n <= 2 {
		return 2
	}
	return 1 << bits.Len(uint(n-1)) //nolint:gosec // n > 2
}
