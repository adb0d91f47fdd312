// Package software implements the sprite backend on the CPU.
//
// Textures and render targets are *image.NRGBA. Each draw command is
// resampled into a scratch buffer with golang.org/x/image/draw (nearest
// neighbour or approximate bilinear, from the command's filter) and then
// composited pixel by pixel with the fixed-point blend core, so
// translucency, light and tint match what the GPU shaders produce.
//
// The backend registers itself as "software":
//
//	import _ "github.com/gogpu/sprite/backend/software"
//
// It can also simulate device loss for testing the compositor's recovery
// path (see SimulateDeviceLoss).
package software
