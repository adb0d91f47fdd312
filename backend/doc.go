// Package backend defines the graphics contract the sprite compositor
// draws through, and a registry of implementations.
//
// # Backend Registration
//
// Backends register themselves from init() functions and are selected at
// runtime. Import the ones you want:
//
//	import (
//		_ "github.com/gogpu/sprite/backend/gpu"
//		_ "github.com/gogpu/sprite/backend/software"
//	)
//
// # Backend Selection
//
// Use Default() to get the best available backend, or Get() to request
// a specific backend by name:
//
//	b := backend.Get(backend.BackendSoftware)
//	if err := b.Init(backend.Config{Width: 320, Height: 200}); err != nil {
//		log.Fatal(err)
//	}
//	defer b.Close()
//
// InitDefault tries each registered backend in priority order and
// returns the first that initializes.
//
// # Frames
//
// Textures are created once, filled through LockTexture/UnlockTexture
// and drawn many times. Each frame is
//
//	BeginFrame(rt) → { SetClip → Submit... } → EndFrame → Present
//
// A DrawCommand is one textured quad: four vertices in unit space, a
// transform into the render target's centred Y-up space, a sampling
// filter and blend parameters.
//
// # Available Backends
//
//   - "gpu": gogpu/wgpu HAL device (backend/gpu)
//   - "software": CPU compositing with golang.org/x/image/draw (backend/software)
//   - "recording": records commands without drawing (backend/recording)
package backend
