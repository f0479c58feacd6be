// Package backend wraps the acquisition steps of a hal backend: instance,
// surface, adapter, device and swapchain.
//
// Adapter and device requests run asynchronously and are returned as a
// Future that the caller awaits with a context. Every acquired object has a
// matching release path so that a failed initialization can unwind.
package backend

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Backend acquisition errors.
var (
	// ErrNoBackend is returned when no hal backend is registered.
	ErrNoBackend = errors.New("backend: no hal backend registered")

	// ErrNoAdapter is returned when the instance exposes no usable adapter.
	ErrNoAdapter = errors.New("backend: no suitable adapter")

	// ErrIncompatibleSurface is returned when no adapter can present to the surface.
	ErrIncompatibleSurface = errors.New("backend: surface not supported by adapter")

	// ErrAcquire is returned when the next swapchain texture cannot be acquired.
	// The frame is aborted; later frames may succeed.
	ErrAcquire = errors.New("backend: swapchain acquisition failed")

	// ErrZeroSize is returned for a swapchain with a zero dimension.
	ErrZeroSize = errors.New("backend: swapchain size must be non-zero")
)

// preferredOrder is the probing order used when no backend is configured.
var preferredOrder = []gputypes.Backend{
	gputypes.BackendVulkan,
	gputypes.BackendMetal,
	gputypes.BackendDX12,
	gputypes.BackendGL,
	gputypes.BackendEmpty,
}

// Select returns b when it is non-nil, otherwise the first registered backend
// in the order Vulkan, Metal, DX12, GL, Empty.
func Select(b hal.Backend) (hal.Backend, error) {
	if b != nil {
		return b, nil
	}
	for _, variant := range preferredOrder {
		if found, ok := hal.GetBackend(variant); ok {
			slogger().Debug("backend: selected registered backend", "variant", variant)
			return found, nil
		}
	}
	return nil, fmt.Errorf("%w (available: %v)", ErrNoBackend, hal.AvailableBackends())
}

// CreateInstance creates a hal instance for b with the given flags.
func CreateInstance(b hal.Backend, flags gputypes.InstanceFlags) (hal.Instance, error) {
	inst, err := b.CreateInstance(&hal.InstanceDescriptor{
		Backends: gputypes.BackendsAll,
		Flags:    flags,
	})
	if err != nil {
		return nil, fmt.Errorf("backend: create %s instance: %w", b.Variant(), err)
	}
	if inst == nil {
		return nil, fmt.Errorf("backend: create %s instance: nil instance", b.Variant())
	}
	return inst, nil
}

// CreateSurface creates a presentation surface for the native display and
// window handles.
func CreateSurface(inst hal.Instance, display, window uintptr) (hal.Surface, error) {
	surface, err := inst.CreateSurface(display, window)
	if err != nil {
		return nil, fmt.Errorf("backend: create surface: %w", err)
	}
	if surface == nil {
		return nil, errors.New("backend: create surface: nil surface")
	}
	return surface, nil
}
