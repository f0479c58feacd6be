// Package octogfx is a thin real-time rendering layer over the gogpu hal.
//
// # Overview
//
// A [Context] owns one GPU device, the swapchain of one window surface, and
// two fixed-capacity tables of shader modules and render pipelines addressed
// by generation-counted handles. Each frame records a single render pass into
// the swapchain texture:
//
//	BeginDefaultPass -> ApplyPipeline -> Draw -> EndPass -> CommitFrame
//
// Calls out of that order are rejected with an error and leave the frame
// state unchanged.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/octogfx"
//	    _ "github.com/gogpu/wgpu/hal/allbackends"
//	)
//
//	gfx := octogfx.New()
//	err := gfx.Init(ctx, octogfx.InitInfo{
//	    Platform:   octogfx.PlatformData{DisplayHandle: display, WindowHandle: window},
//	    Resolution: octogfx.Resolution{Width: 800, Height: 600},
//	})
//	defer gfx.Shutdown()
//
//	sh, err := gfx.NewShader(octogfx.Memory(wgsl))
//	pipe, err := gfx.NewRenderPipeline(octogfx.RenderPipelineDesc{Shader: sh})
//
//	for running {
//	    if err := gfx.BeginDefaultPass(); octogfx.IsAcquireError(err) {
//	        continue
//	    }
//	    gfx.ApplyPipeline(pipe)
//	    gfx.Draw()
//	    gfx.EndPass()
//	    gfx.CommitFrame()
//	}
//
// # Shaders
//
// Shader sources are WGSL text. A pipeline shader provides a vertex entry
// point named vs_main and a fragment entry point named fs_main; the vertex
// stage takes no vertex buffers and is drawn with three vertices. Sources are
// parsed with naga when created so that compile errors surface from
// [Context.NewShader]. See [WithShaderValidation] and [WithSPIRV].
//
// # Backends
//
// octogfx uses whichever hal backends are registered. Import
// github.com/gogpu/wgpu/hal/allbackends for the platform defaults, or pass a
// backend with [WithBackend]. The noop backend renders nothing and is useful
// for tests and headless runs.
//
// # Logging
//
// octogfx is silent by default. Use [SetLogger] or [WithLogger] to receive
// structured logs through log/slog.
package octogfx
