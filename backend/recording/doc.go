// Package recording provides a backend that records draw commands
// instead of rasterizing them.
//
// Every frame between BeginFrame and EndFrame is captured as a Frame: an
// ordered list of typed operations (clip changes and draw submissions).
// Texture contents written through LockTexture are kept, so a recorded
// frame can be played back into any other backend:
//
//	rec := recording.New()
//	// ... drive a compositor with rec ...
//	f, _ := rec.LastFrame()
//	sw := software.New()
//	_ = sw.Init(backend.Config{Width: 320, Height: 200})
//	rt, _ := sw.CreateRenderTarget(320, 200)
//	_ = rec.Playback(f, sw, rt)
//
// The backend registers itself as "recording" but is never chosen by
// backend.Default.
package recording
