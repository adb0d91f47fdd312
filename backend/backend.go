package backend

import (
	"errors"
	"image"
	"log/slog"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotInitialized is returned when operations are called before Init.
	ErrNotInitialized = errors.New("backend: not initialized")

	// ErrDeviceLost is returned by TestDevice while the device is unusable
	// and cannot be reset yet.
	ErrDeviceLost = errors.New("backend: device lost")

	// ErrDeviceNotReset is returned by TestDevice when the device was lost
	// and can now be restored with Reset.
	ErrDeviceNotReset = errors.New("backend: device lost, reset required")

	// ErrInvalidTexture is returned for unknown or destroyed textures.
	ErrInvalidTexture = errors.New("backend: invalid texture")

	// ErrTextureLocked is returned when locking a texture that is already
	// locked, or drawing with one.
	ErrTextureLocked = errors.New("backend: texture is locked")

	// ErrTextureTooLarge is returned when a texture exceeds Caps.
	ErrTextureTooLarge = errors.New("backend: texture exceeds maximum size")

	// ErrNotInFrame is returned when drawing outside BeginFrame/EndFrame.
	ErrNotInFrame = errors.New("backend: no frame in progress")
)

// Texture is an opaque texture handle issued by a backend. The zero value
// is never a valid texture.
type Texture uint32

// RenderTarget is an opaque render target handle issued by a backend.
type RenderTarget uint32

// Caps describes the texture constraints of a backend.
type Caps struct {
	MaxTextureWidth  int
	MaxTextureHeight int
	// PowerOfTwo requires texture dimensions to be powers of two.
	PowerOfTwo bool
}

// Config configures Init.
type Config struct {
	// Width and Height are the presented surface size.
	Width, Height int
}

// LockedRect is CPU-writable texture memory: RGBA8, not premultiplied,
// rows Stride bytes apart.
type LockedRect struct {
	Pix    []byte
	Stride int
	Width  int
	Height int
}

// Backend is the graphics contract the compositor draws through.
//
// A frame is BeginFrame, any number of SetClip and Submit calls, EndFrame,
// then Present. Draw commands address the render target in a Y-up space
// whose origin is the target's centre.
//
// Backends are not safe for concurrent use.
type Backend interface {
	// Name returns the backend identifier (e.g., "software", "gpu").
	Name() string

	// Init initializes the backend.
	// This should be called before any other operation.
	Init(cfg Config) error

	// Close releases all backend resources.
	// The backend should not be used after Close is called.
	Close()

	// Caps reports texture constraints. Valid after Init.
	Caps() Caps

	CreateTexture(width, height int) (Texture, error)
	DestroyTexture(t Texture)

	// LockTexture maps a texture for CPU upload. The returned memory is
	// valid until UnlockTexture.
	LockTexture(t Texture) (*LockedRect, error)
	UnlockTexture(t Texture) error

	CreateRenderTarget(width, height int) (RenderTarget, error)
	DestroyRenderTarget(rt RenderTarget)

	// BeginFrame starts drawing into rt, cleared to transparent black.
	BeginFrame(rt RenderTarget) error

	// SetClip restricts subsequent draws to r in target pixels (Y down,
	// origin top-left). enabled=false removes the restriction.
	SetClip(r image.Rectangle, enabled bool)

	// Submit draws one textured quad.
	Submit(cmd *DrawCommand) error

	EndFrame() error

	// Present shows the last finished frame.
	Present() error

	// TestDevice reports nil when the device is usable, ErrDeviceLost
	// while it is not, and ErrDeviceNotReset once Reset may be called.
	TestDevice() error

	// Reset restores a lost device. Render targets must be recreated
	// afterwards; textures survive.
	Reset() error
}

// LoggerSetter is implemented by backends that log.
type LoggerSetter interface {
	SetLogger(l *slog.Logger)
}

// PixelReader is implemented by backends that can read back the last
// presented frame.
type PixelReader interface {
	ReadPixels() (*image.NRGBA, error)
}
