package sprite

import "errors"

var (
	// ErrMismatchedSize is returned by UpdateDrawable when the bitmap
	// size differs from the drawable's.
	ErrMismatchedSize = errors.New("sprite: mismatched bitmap size")

	// ErrMismatchedDepth is returned by UpdateDrawable when the bitmap
	// colour depth differs from the drawable's.
	ErrMismatchedDepth = errors.New("sprite: mismatched colour depths")

	// ErrUnsupportedDepth is returned for colour depths other than 8,
	// 16, 24 and 32 bits.
	ErrUnsupportedDepth = errors.New("sprite: colour depth not supported")

	// ErrInvalidDrawable is returned for zero, pooled or evicted
	// drawable handles.
	ErrInvalidDrawable = errors.New("sprite: invalid drawable")

	// ErrNotInitialized is returned after Close.
	ErrNotInitialized = errors.New("sprite: compositor not initialized")

	// ErrResetFailed is returned when a lost device could not be reset.
	ErrResetFailed = errors.New("sprite: device reset failed")

	// ErrNotSupported is returned when the backend lacks a capability.
	ErrNotSupported = errors.New("sprite: not supported by backend")
)
