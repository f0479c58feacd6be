package octogfx

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/octogfx/internal/shader"
	"github.com/gogpu/wgpu/hal"
)

// Entry points every pipeline shader must provide.
const (
	VertexEntryPoint   = "vs_main"
	FragmentEntryPoint = "fs_main"
)

// shaderSlot is one entry of the shader table.
type shaderSlot struct {
	module hal.ShaderModule
	label  string
	source *shader.Module
}

func (s shaderSlot) destroy(dev hal.Device) {
	if s.module != nil {
		dev.DestroyShaderModule(s.module)
	}
}

// pipelineSlot is one entry of the render pipeline table.
type pipelineSlot struct {
	pipeline hal.RenderPipeline
	layout   hal.PipelineLayout
	shader   ShaderHandle
}

func (p pipelineSlot) destroy(dev hal.Device) {
	if p.pipeline != nil {
		dev.DestroyRenderPipeline(p.pipeline)
	}
	if p.layout != nil {
		dev.DestroyPipelineLayout(p.layout)
	}
}

// pipelineBlend is the fixed blend state: straight alpha over the target for
// color, destination alpha preserved.
var pipelineBlend = gputypes.BlendState{
	Color: gputypes.BlendComponent{
		SrcFactor: gputypes.BlendFactorSrcAlpha,
		DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
		Operation: gputypes.BlendOperationAdd,
	},
	Alpha: gputypes.BlendComponent{
		SrcFactor: gputypes.BlendFactorZero,
		DstFactor: gputypes.BlendFactorOne,
		Operation: gputypes.BlendOperationAdd,
	},
}

// NewShader creates a shader module from WGSL source text.
//
// The source must be non-empty UTF-8; a leading byte order mark is ignored.
// Unless validation is disabled, compile errors are reported here rather than
// by the backend. mem is not retained.
func (c *Context) NewShader(mem Memory) (ShaderHandle, error) {
	if err := c.ready(); err != nil {
		return NullShaderHandle, err
	}
	if len(mem) == 0 {
		return NullShaderHandle, ErrEmptyShader
	}
	if c.shaders.Full() {
		return NullShaderHandle, fmt.Errorf("octogfx: new shader: %w: %d shaders", ErrCapacityExceeded, c.shaders.Cap())
	}

	src, err := shader.Prepare(mem, shader.Options{
		Validation: c.opts.validation.level(),
		SPIRV:      c.opts.spirv,
	})
	if err != nil {
		return NullShaderHandle, fmt.Errorf("octogfx: new shader: %w", err)
	}

	label := fmt.Sprintf("%s_shader_%d", c.opts.label, c.shaders.Len())
	module, err := c.device.Device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: src.Source,
	})
	if err != nil {
		return NullShaderHandle, fmt.Errorf("%w: %w", ErrCreateShader, err)
	}

	h, err := c.shaders.Insert(shaderSlot{module: module, label: label, source: src})
	if err != nil {
		c.device.Device.DestroyShaderModule(module)
		return NullShaderHandle, handleError("octogfx: new shader", err)
	}
	c.log.Debug("octogfx: shader created", "handle", h, "entry_points", src.EntryPoints)
	return ShaderHandle{h: h}, nil
}

// NewRenderPipeline creates a render pipeline drawing with desc.Shader into
// the swapchain format.
func (c *Context) NewRenderPipeline(desc RenderPipelineDesc) (RenderPipelineHandle, error) {
	if err := c.ready(); err != nil {
		return NullRenderPipelineHandle, err
	}
	if c.pipelines.Full() {
		return NullRenderPipelineHandle, fmt.Errorf("octogfx: new render pipeline: %w: %d pipelines", ErrCapacityExceeded, c.pipelines.Cap())
	}

	sh, err := c.shaders.Get(desc.Shader.h)
	if err != nil {
		return NullRenderPipelineHandle, handleError("octogfx: new render pipeline", err)
	}
	if !sh.source.HasEntryPoint(VertexEntryPoint, shader.StageVertex) {
		return NullRenderPipelineHandle, fmt.Errorf("%w: %s has no vertex %s", ErrMissingEntryPoint, desc.Shader, VertexEntryPoint)
	}
	if !sh.source.HasEntryPoint(FragmentEntryPoint, shader.StageFragment) {
		return NullRenderPipelineHandle, fmt.Errorf("%w: %s has no fragment %s", ErrMissingEntryPoint, desc.Shader, FragmentEntryPoint)
	}

	label := desc.Label
	if label == "" {
		label = fmt.Sprintf("%s_pipeline_%d", c.opts.label, c.pipelines.Len())
	}

	dev := c.device.Device
	layout, err := dev.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: label + "_layout",
	})
	if err != nil {
		return NullRenderPipelineHandle, fmt.Errorf("%w: layout: %w", ErrCreatePipeline, err)
	}

	blend := pipelineBlend
	pipeline, err := dev.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  label,
		Layout: layout,
		Vertex: hal.VertexState{
			Module:     sh.module,
			EntryPoint: VertexEntryPoint,
		},
		Fragment: &hal.FragmentState{
			Module:     sh.module,
			EntryPoint: FragmentEntryPoint,
			Targets: []gputypes.ColorTargetState{{
				Format:    c.swapchain.Format(),
				Blend:     &blend,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  gputypes.PrimitiveTopologyTriangleList,
			FrontFace: gputypes.FrontFaceCCW,
			CullMode:  gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		dev.DestroyPipelineLayout(layout)
		return NullRenderPipelineHandle, fmt.Errorf("%w: %w", ErrCreatePipeline, err)
	}

	h, err := c.pipelines.Insert(pipelineSlot{pipeline: pipeline, layout: layout, shader: desc.Shader})
	if err != nil {
		pipelineSlot{pipeline: pipeline, layout: layout}.destroy(dev)
		return NullRenderPipelineHandle, handleError("octogfx: new render pipeline", err)
	}
	c.log.Debug("octogfx: render pipeline created", "handle", h, "shader", desc.Shader, "label", label)
	return RenderPipelineHandle{h: h}, nil
}

// DestroyShader is accepted for API symmetry. Shader modules live until
// Shutdown; the handle stays valid.
func (c *Context) DestroyShader(ShaderHandle) {}

// DestroyRenderPipeline is accepted for API symmetry. Pipelines live until
// Shutdown; the handle stays valid.
func (c *Context) DestroyRenderPipeline(RenderPipelineHandle) {}
