package backend

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// SwapChain is a configured presentation surface.
//
// It negotiates the surface format once at creation: the first format the
// adapter advertises, FIFO presentation, and the first advertised alpha mode.
type SwapChain struct {
	surface hal.Surface
	device  hal.Device
	log     *slog.Logger

	config     hal.SurfaceConfiguration
	configured bool
}

// Frame is one acquired swapchain texture with its render target view.
type Frame struct {
	Texture    hal.SurfaceTexture
	View       hal.TextureView
	Suboptimal bool
}

// NewSwapChain configures surface for device at width x height using the
// capabilities reported by the adapter.
func NewSwapChain(surface hal.Surface, device hal.Device, caps *hal.SurfaceCapabilities, width, height uint32, log *slog.Logger) (*SwapChain, error) {
	if caps == nil || len(caps.Formats) == 0 {
		return nil, ErrIncompatibleSurface
	}
	if log == nil {
		log = slogger()
	}

	alpha := gputypes.CompositeAlphaModeOpaque
	if len(caps.AlphaModes) > 0 {
		alpha = caps.AlphaModes[0]
	}
	present := gputypes.PresentModeFifo
	if len(caps.PresentModes) > 0 && !slices.Contains(caps.PresentModes, present) {
		log.Warn("backend: surface does not list FIFO presentation, using it anyway",
			"modes", caps.PresentModes)
	}

	sc := &SwapChain{
		surface: surface,
		device:  device,
		log:     log,
		config: hal.SurfaceConfiguration{
			Format:      caps.Formats[0],
			Usage:       gputypes.TextureUsageRenderAttachment,
			PresentMode: present,
			AlphaMode:   alpha,
		},
	}
	if err := sc.Resize(width, height); err != nil {
		return nil, err
	}
	return sc, nil
}

// Format returns the negotiated surface texture format.
func (sc *SwapChain) Format() gputypes.TextureFormat {
	return sc.config.Format
}

// Size returns the configured width and height.
func (sc *SwapChain) Size() (width, height uint32) {
	return sc.config.Width, sc.config.Height
}

// Configuration returns a copy of the active surface configuration.
func (sc *SwapChain) Configuration() hal.SurfaceConfiguration {
	return sc.config
}

// Resize reconfigures the surface for a new size.
func (sc *SwapChain) Resize(width, height uint32) error {
	if width == 0 || height == 0 {
		return fmt.Errorf("%w: %dx%d", ErrZeroSize, width, height)
	}
	cfg := sc.config
	cfg.Width, cfg.Height = width, height
	if err := sc.surface.Configure(sc.device, &cfg); err != nil {
		return fmt.Errorf("backend: configure surface %dx%d: %w", width, height, err)
	}
	sc.config = cfg
	sc.configured = true
	sc.log.Info("backend: swapchain configured",
		"width", width,
		"height", height,
		"format", cfg.Format,
		"present", cfg.PresentMode,
		"alpha", cfg.AlphaMode)
	return nil
}

// Acquire returns the next surface texture and a view of it.
// Every failure wraps ErrAcquire. An outdated surface is reconfigured so that
// a later Acquire can succeed.
func (sc *SwapChain) Acquire() (*Frame, error) {
	if !sc.configured {
		return nil, fmt.Errorf("%w: surface not configured", ErrAcquire)
	}

	acquired, err := sc.surface.AcquireTexture(nil)
	if err != nil {
		if errors.Is(err, hal.ErrSurfaceOutdated) || errors.Is(err, hal.ErrSurfaceLost) {
			sc.log.Warn("backend: surface needs reconfiguration", "err", err)
			if rerr := sc.Resize(sc.config.Width, sc.config.Height); rerr != nil {
				sc.log.Warn("backend: reconfigure after acquire failure", "err", rerr)
			}
		}
		return nil, fmt.Errorf("%w: %w", ErrAcquire, err)
	}
	if acquired == nil || acquired.Texture == nil {
		return nil, fmt.Errorf("%w: no texture returned", ErrAcquire)
	}
	if acquired.Suboptimal {
		sc.log.Warn("backend: suboptimal swapchain texture")
	}

	view, err := sc.device.CreateTextureView(acquired.Texture, &hal.TextureViewDescriptor{
		Label:           "octogfx_swapchain_view",
		Format:          sc.config.Format,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		sc.surface.DiscardTexture(acquired.Texture)
		return nil, fmt.Errorf("%w: create texture view: %w", ErrAcquire, err)
	}

	return &Frame{
		Texture:    acquired.Texture,
		View:       view,
		Suboptimal: acquired.Suboptimal,
	}, nil
}

// ReleaseView destroys the frame's texture view. It is safe to call twice.
func (sc *SwapChain) ReleaseView(f *Frame) {
	if f == nil || f.View == nil {
		return
	}
	sc.device.DestroyTextureView(f.View)
	f.View = nil
}

// Present releases any remaining view and presents the frame's texture on queue.
func (sc *SwapChain) Present(queue hal.Queue, f *Frame) error {
	sc.ReleaseView(f)
	if err := queue.Present(sc.surface, f.Texture, nil); err != nil {
		return fmt.Errorf("backend: present: %w", err)
	}
	return nil
}

// Discard returns an acquired but unpresented frame to the surface.
func (sc *SwapChain) Discard(f *Frame) {
	if f == nil {
		return
	}
	sc.ReleaseView(f)
	if f.Texture != nil {
		sc.surface.DiscardTexture(f.Texture)
		f.Texture = nil
	}
}

// Release unconfigures the surface. The surface itself stays alive.
func (sc *SwapChain) Release() {
	if !sc.configured {
		return
	}
	sc.surface.Unconfigure(sc.device)
	sc.configured = false
}
