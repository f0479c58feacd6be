package backend

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Adapter is an adapter chosen for a surface together with its metadata.
type Adapter struct {
	hal.Adapter

	Info     gputypes.AdapterInfo
	Features gputypes.Features
	Limits   gputypes.Limits

	// Surface holds the capabilities of the surface the adapter was chosen for.
	Surface *hal.SurfaceCapabilities
}

// RequestAdapter asynchronously picks an adapter that can present to surface.
// Adapters are ranked by pref; among equals the enumeration order wins.
// A nil log uses the package logger.
func RequestAdapter(inst hal.Instance, surface hal.Surface, pref gputypes.PowerPreference, log *slog.Logger) *Future[Adapter] {
	if log == nil {
		log = slogger()
	}
	return Go(func() (Adapter, error) {
		return pickAdapter(inst, surface, pref, log)
	})
}

// RequestDevice asynchronously opens a logical device and queue on a.
// No optional features are requested.
func RequestDevice(a Adapter) *Future[hal.OpenDevice] {
	return Go(func() (hal.OpenDevice, error) {
		limits := a.Limits
		if limits == (gputypes.Limits{}) {
			limits = gputypes.DefaultLimits()
		}
		od, err := a.Open(0, limits)
		if err != nil {
			return hal.OpenDevice{}, fmt.Errorf("backend: open device on %q: %w", a.Info.Name, err)
		}
		if od.Device == nil || od.Queue == nil {
			return hal.OpenDevice{}, fmt.Errorf("backend: open device on %q: missing device or queue", a.Info.Name)
		}
		return od, nil
	})
}

// ReleaseDevice waits for the device to go idle and destroys it.
// A nil log uses the package logger.
func ReleaseDevice(od hal.OpenDevice, log *slog.Logger) {
	if od.Device == nil {
		return
	}
	if log == nil {
		log = slogger()
	}
	if err := od.Device.WaitIdle(); err != nil {
		log.Warn("backend: wait idle before device release", "err", err)
	}
	od.Device.Destroy()
}

func pickAdapter(inst hal.Instance, surface hal.Surface, pref gputypes.PowerPreference, log *slog.Logger) (Adapter, error) {
	exposed := inst.EnumerateAdapters(surface)
	if len(exposed) == 0 {
		return Adapter{}, ErrNoAdapter
	}

	best := -1
	var chosen Adapter
	for _, ea := range exposed {
		if ea.Adapter == nil {
			continue
		}
		caps := ea.Adapter.SurfaceCapabilities(surface)
		if caps == nil || len(caps.Formats) == 0 {
			log.Debug("backend: adapter cannot present to surface", "adapter", ea.Info.Name)
			continue
		}
		rank := deviceRank(ea.Info.DeviceType, pref)
		if rank <= best {
			continue
		}
		best = rank
		chosen = Adapter{
			Adapter:  ea.Adapter,
			Info:     ea.Info,
			Features: ea.Features,
			Limits:   ea.Capabilities.Limits,
			Surface:  caps,
		}
	}
	if best < 0 {
		return Adapter{}, fmt.Errorf("%w: %d adapters enumerated", ErrIncompatibleSurface, len(exposed))
	}

	log.Info("backend: adapter selected",
		"name", chosen.Info.Name,
		"type", chosen.Info.DeviceType,
		"backend", chosen.Info.Backend,
		"preference", pref)
	return chosen, nil
}

// deviceRank scores a device type for a power preference. Higher is better.
func deviceRank(t gputypes.DeviceType, pref gputypes.PowerPreference) int {
	switch pref {
	case gputypes.PowerPreferenceHighPerformance:
		switch t {
		case gputypes.DeviceTypeDiscreteGPU:
			return 4
		case gputypes.DeviceTypeIntegratedGPU:
			return 3
		case gputypes.DeviceTypeVirtualGPU:
			return 2
		case gputypes.DeviceTypeCPU:
			return 1
		}
	case gputypes.PowerPreferenceLowPower:
		switch t {
		case gputypes.DeviceTypeIntegratedGPU:
			return 4
		case gputypes.DeviceTypeDiscreteGPU:
			return 3
		case gputypes.DeviceTypeVirtualGPU:
			return 2
		case gputypes.DeviceTypeCPU:
			return 1
		}
	}
	return 0
}
