// Package frame records one render pass per frame into a hal command encoder
// and hands the result to the swapchain.
//
// A Controller enforces the per-frame ordering
//
//	BeginDefaultPass -> ApplyPipeline* -> Draw* -> EndPass -> CommitFrame
//
// and reports every out-of-order call as an error instead of recording it.
// After CommitFrame a fresh encoder is opened so the next frame can begin.
package frame

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/octogfx/internal/backend"
	"github.com/gogpu/wgpu/hal"
)

// Frame ordering errors.
var (
	// ErrNoPass is returned when a pass command is issued outside a pass.
	ErrNoPass = errors.New("frame: no render pass is open")

	// ErrPassOpen is returned when a pass is begun while another is open.
	ErrPassOpen = errors.New("frame: render pass already open")

	// ErrFrameRecorded is returned when a second pass is begun before the
	// current frame is committed.
	ErrFrameRecorded = errors.New("frame: pass already recorded for this frame")

	// ErrNoPipeline is returned by Draw when no pipeline is bound.
	ErrNoPipeline = errors.New("frame: no pipeline bound")

	// ErrNilPipeline is returned when ApplyPipeline is called with nil.
	ErrNilPipeline = errors.New("frame: pipeline is nil")

	// ErrPassNotEnded is returned when a frame is committed with an open pass.
	ErrPassNotEnded = errors.New("frame: render pass not ended")

	// ErrNoFrame is returned when a frame is committed before any pass.
	ErrNoFrame = errors.New("frame: no frame recorded")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("frame: controller closed")

	// ErrSubmit is returned when the recorded frame could not be submitted or
	// presented. The frame is dropped and the controller returns to Idle.
	ErrSubmit = errors.New("frame: submit failed")
)

// DefaultClearColor is the clear color of the default pass.
var DefaultClearColor = gputypes.Color{R: 0.9, G: 0.1, B: 0.2, A: 1.0}

// State is the position of a Controller in the frame ordering.
type State int

const (
	// StateIdle means no pass has been begun in the current frame.
	StateIdle State = iota

	// StatePassOpen means a pass is recording without a pipeline.
	StatePassOpen

	// StatePipelineBound means a pass is recording with a pipeline bound.
	StatePipelineBound

	// StatePassEnded means the pass was ended and the frame awaits commit.
	StatePassEnded
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StatePassOpen:
		return "PassOpen"
	case StatePipelineBound:
		return "PipelineBound"
	case StatePassEnded:
		return "PassEnded"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Swapchain is the presentation side used by a Controller.
// *backend.SwapChain implements it.
type Swapchain interface {
	Acquire() (*backend.Frame, error)
	ReleaseView(f *backend.Frame)
	Present(queue hal.Queue, f *backend.Frame) error
	Discard(f *backend.Frame)
}

// Config holds the collaborators of a Controller.
type Config struct {
	Device    hal.Device
	Queue     hal.Queue
	Swapchain Swapchain

	// Label prefixes the debug labels of encoders and passes.
	Label string

	Logger *slog.Logger
}

// inflight is a submitted command buffer and the encoder that recorded it.
type inflight struct {
	encoder hal.CommandEncoder
	buffer  hal.CommandBuffer
	index   uint64
}

// Controller owns the command encoder and the acquired frame.
//
// Controller is not safe for concurrent use.
type Controller struct {
	device hal.Device
	queue  hal.Queue
	sc     Swapchain
	label  string
	log    *slog.Logger

	state   State
	encoder hal.CommandEncoder
	pass    hal.RenderPassEncoder
	frame   *backend.Frame

	pending []inflight
	frames  uint64
	closed  bool
}

// New returns a controller in StateIdle. Call Open before the first frame.
func New(cfg Config) *Controller {
	log := cfg.Logger
	if log == nil {
		log = backend.Logger()
	}
	label := cfg.Label
	if label == "" {
		label = "octogfx"
	}
	return &Controller{
		device: cfg.Device,
		queue:  cfg.Queue,
		sc:     cfg.Swapchain,
		label:  label,
		log:    log,
	}
}

// State returns the current ordering state.
func (c *Controller) State() State { return c.state }

// Frames returns the number of presented frames.
func (c *Controller) Frames() uint64 { return c.frames }

// Pending returns the number of submitted command buffers not yet freed.
func (c *Controller) Pending() int { return len(c.pending) }

// Open creates and begins the command encoder for the next frame.
// It is a no-op when an encoder is already open.
func (c *Controller) Open() error {
	if c.closed {
		return ErrClosed
	}
	if c.encoder != nil {
		return nil
	}
	enc, err := c.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: c.label + "_encoder",
	})
	if err != nil {
		return fmt.Errorf("frame: create command encoder: %w", err)
	}
	if err := enc.BeginEncoding(c.label + "_frame"); err != nil {
		enc.Destroy()
		return fmt.Errorf("frame: begin encoding: %w", err)
	}
	c.encoder = enc
	return nil
}

// BeginDefaultPass acquires the next swapchain texture and begins a render
// pass that clears it to DefaultClearColor.
//
// If acquisition fails the error wraps backend.ErrAcquire, nothing is
// recorded and the controller stays Idle.
func (c *Controller) BeginDefaultPass() error {
	if c.closed {
		return ErrClosed
	}
	switch c.state {
	case StatePassOpen, StatePipelineBound:
		return ErrPassOpen
	case StatePassEnded:
		return ErrFrameRecorded
	}
	if err := c.Open(); err != nil {
		return err
	}

	f, err := c.sc.Acquire()
	if err != nil {
		c.log.Debug("frame: acquisition failed, frame aborted", "err", err)
		return err
	}

	c.pass = c.encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: c.label + "_default_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       f.View,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: DefaultClearColor,
		}},
	})
	c.frame = f
	c.state = StatePassOpen
	return nil
}

// ApplyPipeline binds p for subsequent draws in the open pass.
// Binding again replaces the previous pipeline.
func (c *Controller) ApplyPipeline(p hal.RenderPipeline) error {
	if c.state != StatePassOpen && c.state != StatePipelineBound {
		return ErrNoPass
	}
	if p == nil {
		return ErrNilPipeline
	}
	c.pass.SetPipeline(p)
	c.state = StatePipelineBound
	return nil
}

// Draw records a non-indexed draw of three vertices, one instance.
func (c *Controller) Draw() error {
	switch c.state {
	case StatePassOpen:
		return ErrNoPipeline
	case StatePipelineBound:
	default:
		return ErrNoPass
	}
	c.pass.Draw(3, 1, 0, 0)
	return nil
}

// EndPass ends the open render pass.
func (c *Controller) EndPass() error {
	if c.state != StatePassOpen && c.state != StatePipelineBound {
		return ErrNoPass
	}
	c.pass.End()
	c.pass = nil
	c.state = StatePassEnded
	return nil
}

// CommitFrame finishes encoding, submits the command buffer, presents the
// acquired texture and opens a fresh encoder for the next frame.
func (c *Controller) CommitFrame() error {
	switch c.state {
	case StateIdle:
		return ErrNoFrame
	case StatePassOpen, StatePipelineBound:
		return ErrPassNotEnded
	}

	enc, f := c.encoder, c.frame
	c.encoder, c.frame = nil, nil
	c.state = StateIdle

	cmd, err := enc.EndEncoding()
	if err != nil {
		enc.Destroy()
		c.sc.Discard(f)
		return c.reopen(fmt.Errorf("%w: end encoding: %w", ErrSubmit, err))
	}

	index, err := c.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		c.device.FreeCommandBuffer(cmd)
		enc.Destroy()
		c.sc.Discard(f)
		return c.reopen(fmt.Errorf("%w: %w", ErrSubmit, err))
	}
	c.pending = append(c.pending, inflight{encoder: enc, buffer: cmd, index: index})

	c.sc.ReleaseView(f)
	if err := c.sc.Present(c.queue, f); err != nil {
		c.sc.Discard(f)
		return c.reopen(fmt.Errorf("%w: %w", ErrSubmit, err))
	}
	c.frames++
	c.log.Debug("frame: presented", "frame", c.frames, "submission", index)

	c.reclaim(c.queue.PollCompleted())
	return c.reopen(nil)
}

// reopen opens the next encoder and joins any failure with cause.
func (c *Controller) reopen(cause error) error {
	if err := c.Open(); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

// reclaim frees command buffers whose submission index is at most completed.
func (c *Controller) reclaim(completed uint64) {
	kept := c.pending[:0]
	for _, p := range c.pending {
		if p.index > completed {
			kept = append(kept, p)
			continue
		}
		c.device.FreeCommandBuffer(p.buffer)
		p.encoder.Destroy()
	}
	clear(c.pending[len(kept):])
	c.pending = kept
}

// Close abandons any frame in progress, waits for the device to finish and
// frees all command buffers. The controller cannot be used afterwards.
func (c *Controller) Close() {
	if c.closed {
		return
	}
	c.closed = true

	if c.pass != nil {
		c.pass.End()
		c.pass = nil
	}
	if c.frame != nil {
		c.sc.Discard(c.frame)
		c.frame = nil
	}
	if c.encoder != nil {
		c.encoder.DiscardEncoding()
		c.encoder.Destroy()
		c.encoder = nil
	}
	if len(c.pending) > 0 {
		if err := c.device.WaitIdle(); err != nil {
			c.log.Warn("frame: wait idle on close", "err", err)
		}
		c.reclaim(^uint64(0))
	}
	c.state = StateIdle
}
