package gpu

import (
	"log/slog"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"
)

type options struct {
	provider gpucontext.DeviceProvider
	device   hal.Device
	queue    hal.Queue
	api      hal.Backend
	spirv    bool

	maxWidth  int
	maxHeight int
	logger    *slog.Logger
}

// Option configures a GPU Backend.
type Option func(*options)

// WithDeviceProvider shares the device of a host application. The
// provider must also expose HalDevice() and HalQueue() returning
// hal.Device and hal.Queue.
func WithDeviceProvider(p gpucontext.DeviceProvider) Option {
	return func(o *options) {
		o.provider = p
	}
}

// WithHALDevice uses an already opened device. The backend does not
// destroy it.
func WithHALDevice(device hal.Device, queue hal.Queue) Option {
	return func(o *options) {
		o.device = device
		o.queue = queue
	}
}

// WithAPI opens the first adapter of api during Init. The backend owns
// the device and reopens it on Reset.
func WithAPI(api hal.Backend) Option {
	return func(o *options) {
		o.api = api
	}
}

// WithSPIRV compiles the sprite shader to SPIR-V with naga instead of
// handing WGSL to the device.
func WithSPIRV(enabled bool) Option {
	return func(o *options) {
		o.spirv = enabled
	}
}

// WithMaxTextureSize overrides the texture limit reported by Caps.
func WithMaxTextureSize(width, height int) Option {
	return func(o *options) {
		if width > 0 {
			o.maxWidth = width
		}
		if height > 0 {
			o.maxHeight = height
		}
	}
}

// WithLogger sets the backend logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
