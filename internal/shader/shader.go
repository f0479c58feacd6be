// Package shader turns caller-supplied shader bytes into a hal shader source.
//
// The package does not own shader semantics. It decodes the buffer as UTF-8
// WGSL, optionally runs the naga front-end to surface compile errors early and
// to learn the module's entry points, and optionally translates the source to
// SPIR-V for backends that consume bytecode.
package shader

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/spirv"
	"github.com/gogpu/wgpu/hal"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Shader preparation errors.
var (
	// ErrEmpty is returned for a zero-length source buffer.
	ErrEmpty = errors.New("shader: empty source")

	// ErrInvalidUTF8 is returned when the source is not valid UTF-8 text.
	ErrInvalidUTF8 = errors.New("shader: source is not valid UTF-8")

	// ErrCompile is returned when the naga front-end rejects the source.
	ErrCompile = errors.New("shader: compilation failed")
)

// Validation selects how much of the naga pipeline runs before the source
// reaches the backend.
type Validation int

const (
	// ValidationNone hands the decoded text to the backend untouched.
	ValidationNone Validation = iota

	// ValidationFrontEnd parses and lowers the WGSL and records entry points.
	ValidationFrontEnd

	// ValidationFull additionally runs naga IR validation.
	ValidationFull
)

// String returns the validation level name.
func (v Validation) String() string {
	switch v {
	case ValidationNone:
		return "None"
	case ValidationFrontEnd:
		return "FrontEnd"
	case ValidationFull:
		return "Full"
	default:
		return fmt.Sprintf("Validation(%d)", int(v))
	}
}

// Stage is a shader pipeline stage.
type Stage int

const (
	StageVertex Stage = iota
	StageFragment
	StageCompute
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	case StageCompute:
		return "compute"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// EntryPoint names one entry function of a shader module.
type EntryPoint struct {
	Name  string
	Stage Stage
}

// Options controls Prepare.
type Options struct {
	Validation Validation

	// SPIRV translates the WGSL source to SPIR-V words with naga.
	SPIRV bool
}

// Module is a prepared shader ready for hal.Device.CreateShaderModule.
type Module struct {
	Source hal.ShaderSource

	// EntryPoints is nil when the front-end did not run.
	EntryPoints []EntryPoint
}

// Reflected reports whether entry points were discovered for the module.
func (m *Module) Reflected() bool {
	return m.EntryPoints != nil
}

// HasEntryPoint reports whether the module declares name for stage.
// It returns true for modules that were not reflected.
func (m *Module) HasEntryPoint(name string, stage Stage) bool {
	if !m.Reflected() {
		return true
	}
	for _, ep := range m.EntryPoints {
		if ep.Name == name && ep.Stage == stage {
			return true
		}
	}
	return false
}

// Decode validates mem as UTF-8 and returns it as a string with any leading
// byte order mark removed. The returned string does not alias mem.
func Decode(mem []byte) (string, error) {
	if len(mem) == 0 {
		return "", ErrEmpty
	}
	if !utf8.Valid(mem) {
		return "", ErrInvalidUTF8
	}
	out, _, err := transform.Bytes(unicode.UTF8BOM.NewDecoder(), mem)
	if err != nil {
		return "", fmt.Errorf("shader: decode source: %w", err)
	}
	if len(out) == 0 {
		return "", ErrEmpty
	}
	return string(out), nil
}

// Prepare decodes mem and builds the hal shader source according to opts.
func Prepare(mem []byte, opts Options) (*Module, error) {
	src, err := Decode(mem)
	if err != nil {
		return nil, err
	}

	m := &Module{Source: hal.ShaderSource{WGSL: src}}

	if opts.Validation >= ValidationFrontEnd {
		entries, err := frontEnd(src, opts.Validation == ValidationFull)
		if err != nil {
			return nil, err
		}
		m.EntryPoints = entries
	}

	if opts.SPIRV {
		words, err := compileSPIRV(src, opts.Validation == ValidationFull)
		if err != nil {
			return nil, err
		}
		m.Source = hal.ShaderSource{SPIRV: words}
	}

	return m, nil
}

// frontEnd runs the naga front-end and returns the module's entry points.
func frontEnd(src string, validate bool) ([]EntryPoint, error) {
	ast, err := naga.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompile, err)
	}
	module, err := naga.LowerWithSource(ast, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompile, err)
	}
	if validate {
		issues, err := naga.Validate(module)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCompile, err)
		}
		if len(issues) > 0 {
			return nil, fmt.Errorf("%w: %w", ErrCompile, issues[0])
		}
	}

	entries := make([]EntryPoint, 0, len(module.EntryPoints))
	for _, ep := range module.EntryPoints {
		stage, ok := stageOf(ep.Stage)
		if !ok {
			continue
		}
		entries = append(entries, EntryPoint{Name: ep.Name, Stage: stage})
	}
	return entries, nil
}

func stageOf(s ir.ShaderStage) (Stage, bool) {
	switch s {
	case ir.StageVertex:
		return StageVertex, true
	case ir.StageFragment:
		return StageFragment, true
	case ir.StageCompute:
		return StageCompute, true
	default:
		return 0, false
	}
}

// compileSPIRV translates WGSL to little-endian SPIR-V words.
func compileSPIRV(src string, validate bool) ([]uint32, error) {
	bytecode, err := naga.CompileWithOptions(src, naga.CompileOptions{
		SPIRVVersion: spirv.Version1_3,
		Validate:     validate,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompile, err)
	}
	if len(bytecode)%4 != 0 {
		return nil, fmt.Errorf("%w: SPIR-V length %d is not word aligned", ErrCompile, len(bytecode))
	}

	words := make([]uint32, len(bytecode)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(bytecode[i*4:])
	}
	return words, nil
}
