package backend

import (
	"errors"
	"sort"
	"sync"
)

// Backend name constants.
const (
	// BackendGPU is the name of the gogpu/wgpu HAL backend.
	BackendGPU = "gpu"
	// BackendSoftware is the name of the CPU backend.
	BackendSoftware = "software"
	// BackendRecording is the name of the command-recording backend.
	BackendRecording = "recording"
)

// Factory creates a new backend instance.
type Factory func() Backend

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Priority order for backend selection (first available wins).
	// GPU > Software; Recording presents nothing and is never preferred.
	backendPriority = []string{BackendGPU, BackendSoftware}
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it will be replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns the registered backend names, sorted.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Get returns a backend instance by name.
// Returns nil if the backend is not registered.
func Get(name string) Backend {
	registryMu.RLock()
	defer registryMu.RUnlock()

	factory, ok := backends[name]
	if !ok {
		return nil
	}
	return factory()
}

// candidates returns factories in selection order: the priority list,
// then everything else by name.
func candidates() []Factory {
	registryMu.RLock()
	defer registryMu.RUnlock()

	var out []Factory
	seen := make(map[string]bool, len(backendPriority))
	for _, name := range backendPriority {
		if factory, ok := backends[name]; ok {
			out = append(out, factory)
			seen[name] = true
		}
	}
	rest := make([]string, 0, len(backends))
	for name := range backends {
		if !seen[name] && name != BackendRecording {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		out = append(out, backends[name])
	}
	return out
}

// Default returns the best available backend based on priority.
// Returns nil if no backends are registered.
func Default() Backend {
	for _, factory := range candidates() {
		if b := factory(); b != nil {
			return b
		}
	}
	return nil
}

// MustDefault returns the default backend or panics.
func MustDefault() Backend {
	b := Default()
	if b == nil {
		panic("backend: no backend available")
	}
	return b
}

// InitDefault initializes the first backend, in priority order, whose
// Init succeeds.
func InitDefault(cfg Config) (Backend, error) {
	var errs []error
	for _, factory := range candidates() {
		b := factory()
		if b == nil {
			continue
		}
		if err := b.Init(cfg); err != nil {
			errs = append(errs, err)
			continue
		}
		return b, nil
	}
	if len(errs) == 0 {
		return nil, ErrBackendNotAvailable
	}
	return nil, errors.Join(append([]error{ErrBackendNotAvailable}, errs...)...)
}
