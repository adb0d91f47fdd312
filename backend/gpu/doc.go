// Package gpu implements backend.Backend on top of the wgpu HAL.
//
// The backend draws each sprite as a textured triangle strip through a
// single render pipeline (shaders/sprite.wgsl). Frames are recorded
// into an off-screen RGBA8 render target and submitted on EndFrame;
// the backend is headless, so Present only marks the finished frame as
// the one ReadPixels returns.
//
// A device must be supplied: either shared from a host application
// through WithDeviceProvider or WithHALDevice, or opened from a HAL API
// with WithAPI. The registered factory has neither, so Init reports
// backend.ErrBackendNotAvailable and backend.InitDefault falls through
// to the software renderer.
//
//	b := gpu.New(gpu.WithDeviceProvider(app))
//	if err := b.Init(backend.Config{Width: 640, Height: 400}); err != nil {
//		return err
//	}
//
// Texture pixels are shadowed on the CPU. LockTexture hands out the
// shadow; UnlockTexture uploads it with Queue.WriteTexture. The shadow
// also rebuilds textures after Reset.
package gpu
