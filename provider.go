package octogfx

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Context implements gpucontext.DeviceProvider so that other gogpu
// components can share its device.
var _ gpucontext.DeviceProvider = (*Context)(nil)

// Device returns the hal.Device, or nil before Init.
func (c *Context) Device() gpucontext.Device {
	if c.ready() != nil {
		return nil
	}
	return c.device.Device
}

// Queue returns the hal.Queue, or nil before Init.
func (c *Context) Queue() gpucontext.Queue {
	if c.ready() != nil {
		return nil
	}
	return c.device.Queue
}

// Adapter returns the hal.Adapter, or nil before Init.
func (c *Context) Adapter() gpucontext.Adapter {
	if c.ready() != nil {
		return nil
	}
	return c.adapter.Adapter
}

// SurfaceFormat returns the negotiated swapchain format, or
// TextureFormatUndefined before Init.
func (c *Context) SurfaceFormat() gputypes.TextureFormat {
	if c.ready() != nil {
		return gputypes.TextureFormatUndefined
	}
	return c.swapchain.Format()
}

// AdapterInfo returns the adapter name and class.
func (c *Context) AdapterInfo() gpucontext.AdapterInfo {
	if c.ready() != nil {
		return gpucontext.AdapterInfo{Type: gpucontext.AdapterTypeUnknown}
	}
	return gpucontext.AdapterInfo{
		Name: c.adapter.Info.Name,
		Type: adapterType(c.adapter.Info.DeviceType),
	}
}

func adapterType(t gputypes.DeviceType) gpucontext.AdapterType {
	switch t {
	case gputypes.DeviceTypeDiscreteGPU:
		return gpucontext.AdapterTypeDiscrete
	case gputypes.DeviceTypeIntegratedGPU:
		return gpucontext.AdapterTypeIntegrated
	case gputypes.DeviceTypeCPU:
		return gpucontext.AdapterTypeSoftware
	default:
		return gpucontext.AdapterTypeUnknown
	}
}
