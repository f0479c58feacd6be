package octogfx

import "github.com/gogpu/octogfx/internal/handle"

// ShaderHandle identifies a shader module owned by a Context.
//
// The zero value is invalid. Handles are only meaningful to the Context that
// issued them and become stale when that Context is initialized again.
type ShaderHandle struct {
	h handle.Handle
}

// NullShaderHandle is the reserved handle that never names a shader.
var NullShaderHandle = ShaderHandle{h: handle.Null()}

// ID returns the table index of the shader.
func (s ShaderHandle) ID() uint16 { return s.h.Index }

// IsValid reports whether s could name a shader. It does not check that the
// shader still exists; resolution happens in the Context.
func (s ShaderHandle) IsValid() bool { return s.h.IsValid() }

// String returns a debug representation such as "shader(2@1)".
func (s ShaderHandle) String() string { return "shader(" + s.h.String() + ")" }

// RenderPipelineHandle identifies a render pipeline owned by a Context.
//
// The zero value is invalid.
type RenderPipelineHandle struct {
	h handle.Handle
}

// NullRenderPipelineHandle is the reserved handle that never names a pipeline.
var NullRenderPipelineHandle = RenderPipelineHandle{h: handle.Null()}

// ID returns the table index of the pipeline.
func (p RenderPipelineHandle) ID() uint16 { return p.h.Index }

// IsValid reports whether p could name a pipeline.
func (p RenderPipelineHandle) IsValid() bool { return p.h.IsValid() }

// String returns a debug representation such as "pipeline(0@1)".
func (p RenderPipelineHandle) String() string { return "pipeline(" + p.h.String() + ")" }
