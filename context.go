package octogfx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/octogfx/internal/backend"
	"github.com/gogpu/octogfx/internal/frame"
	"github.com/gogpu/octogfx/internal/handle"
	"github.com/gogpu/wgpu/hal"
)

// lifecycle is the readiness of a Context.
type lifecycle int

const (
	lifecycleNew lifecycle = iota
	lifecycleReady
	lifecycleShutdown
)

// epochs issues handle generations. It is shared by all contexts so that a
// handle from one Context is reported as stale by another.
var epochs atomic.Uint32

// nextEpoch returns a non-zero generation. Generations repeat only after
// 2^32-1 initializations in one process.
func nextEpoch() uint32 {
	for {
		if g := epochs.Add(1); g != 0 {
			return g
		}
	}
}

// Context owns a GPU device, its swapchain, and the shader and pipeline
// tables. It records at most one render pass per frame.
//
// A Context is not safe for concurrent use. Several contexts may coexist.
type Context struct {
	opts options
	log  *slog.Logger

	state lifecycle

	backend   hal.Backend
	instance  hal.Instance
	surface   hal.Surface
	adapter   backend.Adapter
	device    hal.OpenDevice
	swapchain *backend.SwapChain
	frame     *frame.Controller

	shaders   *handle.Pool[shaderSlot]
	pipelines *handle.Pool[pipelineSlot]
}

// New returns an uninitialized Context. Call Init before any other method.
func New(opts ...Option) *Context {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Context{opts: o}
}

// logger returns the Context logger, falling back to the package logger.
func (c *Context) logger() *slog.Logger {
	if c.opts.logger != nil {
		return c.opts.logger
	}
	return Logger()
}

// ready reports whether the Context can serve resource and frame calls.
func (c *Context) ready() error {
	switch c.state {
	case lifecycleReady:
		return nil
	case lifecycleShutdown:
		return ErrShutdown
	default:
		return ErrNotInitialized
	}
}

// Init acquires the backend objects in order: instance, surface, adapter,
// device and queue, then swapchain. Adapter and device requests are
// asynchronous and awaited with ctx, so cancelling ctx aborts Init.
//
// On failure the returned error wraps ErrInitFailed and the cause, every
// object acquired so far is released, and Init may be called again. After a
// cancellation the release happens in the background once the pending
// adapter or device request has finished.
// A Context that was shut down may be initialized again; handles from the
// earlier session become stale.
func (c *Context) Init(ctx context.Context, info InitInfo) (err error) {
	if c.state == lifecycleReady {
		return ErrAlreadyInitialized
	}
	log := c.logger()
	c.log = log

	var (
		undo    []func()
		pending func(cleanup func())
	)
	defer func() {
		if err == nil {
			return
		}
		unwind := func() {
			for i := len(undo) - 1; i >= 0; i-- {
				undo[i]()
			}
		}
		if pending != nil {
			// The request still uses the objects acquired so far.
			pending(unwind)
		} else {
			unwind()
		}
		err = fmt.Errorf("%w: %w", ErrInitFailed, err)
		log.Warn("octogfx: init failed", "err", err)
	}()

	res := info.resolution()
	if res.IsZero() {
		return fmt.Errorf("resolution %dx%d: %w", res.Width, res.Height, backend.ErrZeroSize)
	}

	b, err := backend.Select(c.opts.backend)
	if err != nil {
		return err
	}

	inst, err := backend.CreateInstance(b, c.opts.flags)
	if err != nil {
		return err
	}
	undo = append(undo, inst.Destroy)

	surface, err := backend.CreateSurface(inst, info.Platform.DisplayHandle, info.Platform.WindowHandle)
	if err != nil {
		return err
	}
	undo = append(undo, surface.Destroy)

	adapter, detach, err := await(ctx, backend.RequestAdapter(inst, surface, c.opts.power, log), func(a backend.Adapter) { a.Destroy() })
	if err != nil {
		pending = detach
		return fmt.Errorf("request adapter: %w", err)
	}
	undo = append(undo, adapter.Destroy)

	releaseDevice := func(od hal.OpenDevice) { backend.ReleaseDevice(od, log) }
	device, detach, err := await(ctx, backend.RequestDevice(adapter), releaseDevice)
	if err != nil {
		pending = detach
		return fmt.Errorf("request device: %w", err)
	}
	undo = append(undo, func() { releaseDevice(device) })

	sc, err := backend.NewSwapChain(surface, device.Device, adapter.Surface, res.Width, res.Height, log)
	if err != nil {
		return err
	}
	undo = append(undo, sc.Release)

	fc := frame.New(frame.Config{
		Device:    device.Device,
		Queue:     device.Queue,
		Swapchain: sc,
		Label:     c.opts.label,
		Logger:    log,
	})
	if err := fc.Open(); err != nil {
		return err
	}

	epoch := nextEpoch()
	c.backend = b
	c.instance = inst
	c.surface = surface
	c.adapter = adapter
	c.device = device
	c.swapchain = sc
	c.frame = fc
	c.shaders = handle.NewPool[shaderSlot](c.opts.maxShaders, epoch)
	c.pipelines = handle.NewPool[pipelineSlot](c.opts.maxPipelines, epoch)
	c.state = lifecycleReady

	log.Info("octogfx: initialized",
		"backend", b.Variant(),
		"adapter", adapter.Info.Name,
		"format", sc.Format(),
		"width", res.Width,
		"height", res.Height,
		"epoch", epoch)
	if feats := c.Features(); len(feats) > 0 {
		log.Debug("octogfx: adapter features", "features", feats)
	}
	return nil
}

// await waits for f with ctx. When ctx ends first the request is still
// running, and await returns a non-nil detach: calling it hands the late
// result to release and runs cleanup once the request has finished.
func await[T any](ctx context.Context, f *backend.Future[T], release func(T)) (T, func(cleanup func()), error) {
	v, err := f.Await(ctx)
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return v, func(cleanup func()) { f.Abandon(release, cleanup) }, err
	}
	return v, nil, err
}

// Shutdown releases every resource and backend object in reverse order of
// acquisition. It returns ErrNotInitialized before Init and ErrShutdown when
// called twice.
func (c *Context) Shutdown() error {
	if err := c.ready(); err != nil {
		return err
	}
	dev := c.device.Device

	c.frame.Close()
	c.pipelines.Each(func(_ handle.Handle, p pipelineSlot) {
		p.destroy(dev)
	})
	c.shaders.Each(func(_ handle.Handle, s shaderSlot) {
		s.destroy(dev)
	})
	c.pipelines.Reset(0)
	c.shaders.Reset(0)

	c.swapchain.Release()
	backend.ReleaseDevice(c.device, c.log)
	c.surface.Destroy()
	c.adapter.Destroy()
	c.instance.Destroy()

	c.frame = nil
	c.swapchain = nil
	c.device = hal.OpenDevice{}
	c.surface = nil
	c.adapter = backend.Adapter{}
	c.instance = nil
	c.backend = nil
	c.state = lifecycleShutdown

	c.log.Info("octogfx: shut down")
	return nil
}

// BeginDefaultPass acquires the next swapchain texture and opens a render
// pass clearing it to (0.9, 0.1, 0.2, 1.0).
//
// If the swapchain cannot provide a texture the error wraps
// backend.ErrAcquire (see IsAcquireError), no pass is opened, and the rest of
// the frame should be skipped.
func (c *Context) BeginDefaultPass() error {
	if err := c.ready(); err != nil {
		return err
	}
	return c.frame.BeginDefaultPass()
}

// ApplyPipeline binds the pipeline for subsequent draws in the open pass.
func (c *Context) ApplyPipeline(p RenderPipelineHandle) error {
	if err := c.ready(); err != nil {
		return err
	}
	slot, err := c.pipelines.Get(p.h)
	if err != nil {
		return handleError("octogfx: apply pipeline", err)
	}
	return c.frame.ApplyPipeline(slot.pipeline)
}

// Draw records a draw of three vertices with the bound pipeline.
func (c *Context) Draw() error {
	if err := c.ready(); err != nil {
		return err
	}
	return c.frame.Draw()
}

// EndPass closes the open render pass.
func (c *Context) EndPass() error {
	if err := c.ready(); err != nil {
		return err
	}
	return c.frame.EndPass()
}

// CommitFrame submits the recorded frame and presents it.
func (c *Context) CommitFrame() error {
	if err := c.ready(); err != nil {
		return err
	}
	return c.frame.CommitFrame()
}

// IsAcquireError reports whether err means the current frame was skipped
// because no swapchain texture was available.
func IsAcquireError(err error) bool {
	return errors.Is(err, backend.ErrAcquire)
}

// Resize reconfigures the swapchain. It must be called between frames.
func (c *Context) Resize(width, height uint32) error {
	if err := c.ready(); err != nil {
		return err
	}
	if s := c.frame.State(); s != frame.StateIdle {
		return fmt.Errorf("%w: %s", ErrFrameInProgress, s)
	}
	return c.swapchain.Resize(width, height)
}

// Resolution returns the swapchain size, or zero before Init.
func (c *Context) Resolution() Resolution {
	if c.ready() != nil {
		return Resolution{}
	}
	w, h := c.swapchain.Size()
	return Resolution{Width: w, Height: h}
}

// Frames returns the number of frames presented since Init.
func (c *Context) Frames() uint64 {
	if c.ready() != nil {
		return 0
	}
	return c.frame.Frames()
}

// Features lists the optional features the adapter supports, in bit order.
// Bits gputypes has no name for are included; they print as "Unknown".
func (c *Context) Features() []gputypes.Feature {
	if c.ready() != nil {
		return nil
	}
	var out []gputypes.Feature
	for bit := 0; bit < 64; bit++ {
		if f := gputypes.Feature(1) << bit; c.adapter.Features.Contains(f) {
			out = append(out, f)
		}
	}
	return out
}

// Backend returns the variant of the backend in use.
func (c *Context) Backend() gputypes.Backend {
	if c.ready() != nil {
		return gputypes.BackendEmpty
	}
	return c.backend.Variant()
}

// AdapterDetails returns the full description of the adapter in use.
func (c *Context) AdapterDetails() gputypes.AdapterInfo {
	return c.adapter.Info
}
