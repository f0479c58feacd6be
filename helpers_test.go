package octogfx

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

const triangleWGSL = `
struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) color: vec4<f32>,
}

@vertex
fn vs_main(@builtin(vertex_index) idx: u32) -> VertexOutput {
    var out: VertexOutput;
    var pos = array<vec2<f32>, 3>(
        vec2<f32>(0.0, 0.5),
        vec2<f32>(-0.5, -0.5),
        vec2<f32>(0.5, -0.5)
    );
    out.position = vec4<f32>(pos[idx], 0.0, 1.0);
    out.color = vec4<f32>(1.0, 0.0, 0.0, 1.0);
    return out;
}

@fragment
fn fs_main(@location(0) color: vec4<f32>) -> @location(0) vec4<f32> {
    return color;
}
`

var errInjected = errors.New("injected failure")

// unnamedFeature is an adapter feature bit gputypes has no name for.
const unnamedFeature = gputypes.Feature(1) << 63

// tracker counts releases of backend objects.
type tracker struct {
	instances int
	surfaces  int
	adapters  int
	devices   int
	layouts   int
}

// fakeAPI is a noop backend whose objects can be swapped or made to fail.
type fakeAPI struct {
	noop.API

	track   tracker
	surface *fakeSurface
	queue   *countingQueue
	device  *fakeDevice

	openErr    error
	enumerated chan struct{} // closed to release a blocked EnumerateAdapters

	// enumeratedDestroyed is set when EnumerateAdapters returns on an
	// instance that was already destroyed.
	enumeratedDestroyed bool
	// instanceGone, when non-nil, is closed by fakeInstance.Destroy.
	instanceGone chan struct{}
}

func newFakeAPI() *fakeAPI {
	api := &fakeAPI{
		surface: &fakeSurface{},
		queue:   &countingQueue{},
	}
	api.device = &fakeDevice{track: &api.track}
	api.surface.track = &api.track
	return api
}

func (a *fakeAPI) CreateInstance(*hal.InstanceDescriptor) (hal.Instance, error) {
	return &fakeInstance{api: a}, nil
}

type fakeInstance struct {
	noop.Instance
	api *fakeAPI
}

func (i *fakeInstance) CreateSurface(uintptr, uintptr) (hal.Surface, error) {
	return i.api.surface, nil
}

func (i *fakeInstance) EnumerateAdapters(hal.Surface) []hal.ExposedAdapter {
	if i.api.enumerated != nil {
		<-i.api.enumerated
	}
	if i.api.track.instances > 0 {
		i.api.enumeratedDestroyed = true
	}
	return []hal.ExposedAdapter{{
		Adapter: &fakeAdapter{api: i.api},
		Info: gputypes.AdapterInfo{
			Name:       "Fake Discrete",
			DeviceType: gputypes.DeviceTypeDiscreteGPU,
			Backend:    gputypes.BackendEmpty,
		},
		Features: gputypes.Features(gputypes.FeatureTimestampQuery | gputypes.FeatureShaderF16 | unnamedFeature),
	}}
}

func (i *fakeInstance) Destroy() {
	i.api.track.instances++
	if i.api.instanceGone != nil {
		close(i.api.instanceGone)
	}
}

type fakeAdapter struct {
	noop.Adapter
	api *fakeAPI
}

func (a *fakeAdapter) Open(gputypes.Features, gputypes.Limits) (hal.OpenDevice, error) {
	if a.api.openErr != nil {
		return hal.OpenDevice{}, a.api.openErr
	}
	return hal.OpenDevice{Device: a.api.device, Queue: a.api.queue}, nil
}

func (a *fakeAdapter) Destroy() { a.api.track.adapters++ }

// fakeSurface fails the next failAcquire acquisitions.
type fakeSurface struct {
	noop.Surface
	track       *tracker
	failAcquire int
}

func (s *fakeSurface) AcquireTexture(f hal.Fence) (*hal.AcquiredSurfaceTexture, error) {
	if s.failAcquire > 0 {
		s.failAcquire--
		return nil, hal.ErrTimeout
	}
	return s.Surface.AcquireTexture(f)
}

func (s *fakeSurface) Destroy() { s.track.surfaces++ }

// countingQueue counts presents.
type countingQueue struct {
	noop.Queue
	presents int
}

func (q *countingQueue) Present(s hal.Surface, t hal.SurfaceTexture, r []image.Rectangle) error {
	q.presents++
	return q.Queue.Present(s, t, r)
}

// fakeDevice can reject shader and pipeline creation.
type fakeDevice struct {
	noop.Device
	track *tracker

	shaderErr   error
	pipelineErr error
	lastShader  *hal.ShaderModuleDescriptor
	lastPipe    *hal.RenderPipelineDescriptor
}

func (d *fakeDevice) CreateShaderModule(desc *hal.ShaderModuleDescriptor) (hal.ShaderModule, error) {
	if d.shaderErr != nil {
		return nil, d.shaderErr
	}
	d.lastShader = desc
	return d.Device.CreateShaderModule(desc)
}

func (d *fakeDevice) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	if d.pipelineErr != nil {
		return nil, d.pipelineErr
	}
	d.lastPipe = desc
	return d.Device.CreateRenderPipeline(desc)
}

func (d *fakeDevice) DestroyPipelineLayout(hal.PipelineLayout) { d.track.layouts++ }

func (d *fakeDevice) Destroy() { d.track.devices++ }

var testInfo = InitInfo{Resolution: Resolution{Width: 640, Height: 480}}

// newTestContext returns an initialized Context over api.
func newTestContext(t *testing.T, api hal.Backend, opts ...Option) *Context {
	t.Helper()
	c := New(append([]Option{WithBackend(api)}, opts...)...)
	if err := c.Init(context.Background(), testInfo); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return c
}

// mustShader creates a shader or fails the test.
func mustShader(t *testing.T, c *Context, src string) ShaderHandle {
	t.Helper()
	h, err := c.NewShader(Memory(src))
	if err != nil {
		t.Fatalf("NewShader: %v", err)
	}
	return h
}

// mustPipeline creates a pipeline or fails the test.
func mustPipeline(t *testing.T, c *Context, sh ShaderHandle) RenderPipelineHandle {
	t.Helper()
	p, err := c.NewRenderPipeline(RenderPipelineDesc{Shader: sh})
	if err != nil {
		t.Fatalf("NewRenderPipeline: %v", err)
	}
	return p
}

// runFrame records and commits one frame drawing with p.
func runFrame(c *Context, p RenderPipelineHandle) error {
	if err := c.BeginDefaultPass(); err != nil {
		return err
	}
	if err := c.ApplyPipeline(p); err != nil {
		return err
	}
	if err := c.Draw(); err != nil {
		return err
	}
	if err := c.EndPass(); err != nil {
		return err
	}
	return c.CommitFrame()
}
