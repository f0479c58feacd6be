package backend

import (
	"errors"
	"image"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// flakySurface fails the next failures acquisitions with err.
type flakySurface struct {
	noop.Surface
	failures   int
	err        error
	configures int
	discarded  int
}

func (s *flakySurface) Configure(d hal.Device, cfg *hal.SurfaceConfiguration) error {
	s.configures++
	return s.Surface.Configure(d, cfg)
}

func (s *flakySurface) AcquireTexture(f hal.Fence) (*hal.AcquiredSurfaceTexture, error) {
	if s.failures > 0 {
		s.failures--
		return nil, s.err
	}
	return s.Surface.AcquireTexture(f)
}

func (s *flakySurface) DiscardTexture(hal.SurfaceTexture) { s.discarded++ }

// countingQueue records presents.
type countingQueue struct {
	noop.Queue
	presents int
}

func (q *countingQueue) Present(s hal.Surface, t hal.SurfaceTexture, r []image.Rectangle) error {
	q.presents++
	return q.Queue.Present(s, t, r)
}

func noopCaps() *hal.SurfaceCapabilities {
	return (&noop.Adapter{}).SurfaceCapabilities(nil)
}

func TestNewSwapChain(t *testing.T) {
	sc, err := NewSwapChain(&noop.Surface{}, &noop.Device{}, noopCaps(), 640, 480, nil)
	if err != nil {
		t.Fatalf("NewSwapChain: %v", err)
	}
	cfg := sc.Configuration()
	if cfg.Format != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("Format = %v, want first advertised BGRA8Unorm", cfg.Format)
	}
	if cfg.PresentMode != gputypes.PresentModeFifo {
		t.Errorf("PresentMode = %v, want Fifo", cfg.PresentMode)
	}
	if cfg.AlphaMode != gputypes.CompositeAlphaModeOpaque {
		t.Errorf("AlphaMode = %v, want first advertised Opaque", cfg.AlphaMode)
	}
	if cfg.Usage != gputypes.TextureUsageRenderAttachment {
		t.Errorf("Usage = %v, want RenderAttachment", cfg.Usage)
	}
	if w, h := sc.Size(); w != 640 || h != 480 {
		t.Errorf("Size() = %dx%d, want 640x480", w, h)
	}
}

func TestNewSwapChain_Errors(t *testing.T) {
	if _, err := NewSwapChain(&noop.Surface{}, &noop.Device{}, nil, 1, 1, nil); !errors.Is(err, ErrIncompatibleSurface) {
		t.Errorf("nil caps: err = %v, want ErrIncompatibleSurface", err)
	}
	if _, err := NewSwapChain(&noop.Surface{}, &noop.Device{}, noopCaps(), 0, 480, nil); !errors.Is(err, ErrZeroSize) {
		t.Errorf("zero width: err = %v, want ErrZeroSize", err)
	}
}

func TestSwapChain_AcquirePresent(t *testing.T) {
	sc, err := NewSwapChain(&noop.Surface{}, &noop.Device{}, noopCaps(), 64, 64, nil)
	if err != nil {
		t.Fatalf("NewSwapChain: %v", err)
	}
	q := &countingQueue{}

	f, err := sc.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if f.Texture == nil || f.View == nil {
		t.Fatal("Acquire returned frame without texture or view")
	}
	if err := sc.Present(q, f); err != nil {
		t.Fatalf("Present: %v", err)
	}
	if f.View != nil {
		t.Error("Present did not release the view")
	}
	if q.presents != 1 {
		t.Errorf("presents = %d, want 1", q.presents)
	}
}

func TestSwapChain_AcquireFailure(t *testing.T) {
	surface := &flakySurface{failures: 1, err: hal.ErrTimeout}
	sc, err := NewSwapChain(surface, &noop.Device{}, noopCaps(), 64, 64, nil)
	if err != nil {
		t.Fatalf("NewSwapChain: %v", err)
	}

	_, err = sc.Acquire()
	if !errors.Is(err, ErrAcquire) || !errors.Is(err, hal.ErrTimeout) {
		t.Fatalf("Acquire err = %v, want ErrAcquire wrapping hal.ErrTimeout", err)
	}
	if _, err := sc.Acquire(); err != nil {
		t.Fatalf("Acquire after transient failure: %v", err)
	}
}

func TestSwapChain_OutdatedReconfigures(t *testing.T) {
	surface := &flakySurface{failures: 1, err: hal.ErrSurfaceOutdated}
	sc, err := NewSwapChain(surface, &noop.Device{}, noopCaps(), 64, 64, nil)
	if err != nil {
		t.Fatalf("NewSwapChain: %v", err)
	}
	before := surface.configures

	if _, err := sc.Acquire(); !errors.Is(err, ErrAcquire) {
		t.Fatalf("Acquire err = %v, want ErrAcquire", err)
	}
	if surface.configures != before+1 {
		t.Errorf("configures = %d, want %d", surface.configures, before+1)
	}
}

func TestSwapChain_Discard(t *testing.T) {
	surface := &flakySurface{}
	sc, err := NewSwapChain(surface, &noop.Device{}, noopCaps(), 64, 64, nil)
	if err != nil {
		t.Fatalf("NewSwapChain: %v", err)
	}
	f, err := sc.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	sc.Discard(f)
	sc.Discard(f)
	if surface.discarded != 1 {
		t.Errorf("discarded = %d, want 1", surface.discarded)
	}
}

func TestSwapChain_ResizeAndRelease(t *testing.T) {
	sc, err := NewSwapChain(&noop.Surface{}, &noop.Device{}, noopCaps(), 64, 64, nil)
	if err != nil {
		t.Fatalf("NewSwapChain: %v", err)
	}
	if err := sc.Resize(128, 32); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if w, h := sc.Size(); w != 128 || h != 32 {
		t.Errorf("Size() = %dx%d after Resize", w, h)
	}
	if err := sc.Resize(0, 0); !errors.Is(err, ErrZeroSize) {
		t.Errorf("Resize(0,0) err = %v, want ErrZeroSize", err)
	}

	sc.Release()
	if _, err := sc.Acquire(); !errors.Is(err, ErrAcquire) {
		t.Errorf("Acquire after Release err = %v, want ErrAcquire", err)
	}
}
