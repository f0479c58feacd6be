package octogfx

import (
	"math"

	"github.com/gogpu/gpucontext"
)

// PlatformData carries the native handles a surface is created from.
// Their meaning is backend specific: for example an X11 Display* and Window,
// or zero and an HWND on Windows. Headless backends ignore them.
type PlatformData struct {
	DisplayHandle uintptr
	WindowHandle  uintptr
}

// Resolution is a swapchain size in pixels.
type Resolution struct {
	Width  uint32
	Height uint32
}

// IsZero reports whether either dimension is zero.
func (r Resolution) IsZero() bool {
	return r.Width == 0 || r.Height == 0
}

// InitInfo describes the window a Context renders to.
type InitInfo struct {
	Platform   PlatformData
	Resolution Resolution

	// Window supplies the resolution when Resolution is zero. Its logical
	// size is scaled by ScaleFactor to physical pixels.
	Window gpucontext.WindowProvider
}

// resolution returns the effective swapchain size.
func (i InitInfo) resolution() Resolution {
	if !i.Resolution.IsZero() || i.Window == nil {
		return i.Resolution
	}
	w, h := i.Window.Size()
	if w <= 0 || h <= 0 {
		return Resolution{}
	}
	sf := i.Window.ScaleFactor()
	if sf <= 0 {
		sf = 1
	}
	return Resolution{
		Width:  uint32(math.Round(float64(w) * sf)),
		Height: uint32(math.Round(float64(h) * sf)),
	}
}

// Memory is a caller-owned byte buffer, typically shader source text.
// A Context never retains it past the call it was passed to.
type Memory []byte

// RenderPipelineDesc describes a render pipeline.
//
// Only the shader varies; primitive, blend, and target state are fixed:
// triangle list, counter-clockwise front faces, no culling, no depth, and
// alpha blending into the swapchain format.
type RenderPipelineDesc struct {
	Shader ShaderHandle

	// Label is an optional debug label.
	Label string
}
