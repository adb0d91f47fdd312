// Package sprite is the sprite compositor of a 2D game renderer.
//
// # Overview
//
// A Compositor turns per-frame lists of positioned bitmaps into textured
// quad draws on a pluggable backend. Bitmaps larger than the backend's
// maximum texture size are split into tiles, released drawables are
// recycled through a pool, and the last rendered frame is kept so screen
// transitions can re-render it under a changing fade.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/sprite"
//	    _ "github.com/gogpu/sprite/backend/software"
//	)
//
//	c, err := sprite.New(sprite.WithNativeSize(320, 200))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
//	bm, _ := sprite.NewBitmap(32, 32, 32)
//	d, _ := c.CreateDrawable(bm, true, false)
//
//	for running {
//	    c.Append(100, 80, d)
//	    if err := c.RenderFrame(sprite.FlipNone); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
// # Batches
//
// Entries go into the active batch. Batch 0 covers the native surface;
// InitBatch and BeginBatch add batches with their own viewport (used as the
// clip rectangle) and placement transform. Batches are drawn in index
// order, entries in append order.
//
// # Coordinate System
//
// Entry positions are native pixels with the origin top-left and Y down.
// Backends receive quads in a Y-up space centred on the render target.
//
// # Drawable Lifetime
//
// DestroyDrawable returns a drawable to the pool rather than freeing it.
// Entries still listing it are skipped. A later CreateDrawable with the
// same size, colour depth and opacity gets the same drawable back; one
// that stays unused for the pool's maximum age (6 frames by default) has
// its textures destroyed on the next RenderFrame.
//
// # Transitions
//
// FadeOut, FadeIn, BoxOut and BoxIn return a Transition that the game
// loop advances with the elapsed time. Nothing in this package sleeps.
//
// # Backends
//
// Backends register themselves when their package is imported:
//
//	_ "github.com/gogpu/sprite/backend/gpu"       // gogpu/wgpu HAL
//	_ "github.com/gogpu/sprite/backend/software"  // CPU rasterizer
//	_ "github.com/gogpu/sprite/backend/recording" // command capture
//
// # Logging
//
// The package logs through log/slog and is silent by default. See SetLogger.
package sprite
