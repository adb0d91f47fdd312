// Package tile splits a bitmap into a grid of hardware-sized textures.
//
// A backend has a maximum texture size and may require power-of-two
// dimensions. Compute divides a bitmap into tilesAcross × tilesDown
// tiles; every column but the last gets bitmapWidth/tilesAcross pixels and
// the last column absorbs the remainder (rows likewise). Each tile records
// both its logical extent and the allocated extent of the texture behind
// it, plus the UV quad that samples only the logical part.
package tile
