package octogfx

import (
	"log/slog"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/octogfx/internal/handle"
	"github.com/gogpu/octogfx/internal/shader"
	"github.com/gogpu/wgpu/hal"
)

// Default table capacities.
const (
	DefaultMaxShaders   = 512
	DefaultMaxPipelines = 512
)

// MaxTableCapacity is the largest capacity accepted by WithMaxShaders and
// WithMaxPipelines.
const MaxTableCapacity = handle.MaxCapacity

// ShaderValidation selects how shader sources are checked before they reach
// the backend.
type ShaderValidation int

const (
	// ShaderValidationFrontEnd parses the WGSL source and records its entry
	// points. Compile errors are reported by NewShader. This is the default.
	ShaderValidationFrontEnd ShaderValidation = iota

	// ShaderValidationNone passes the source to the backend unchecked.
	ShaderValidationNone

	// ShaderValidationFull also runs IR validation.
	ShaderValidationFull
)

// String returns the validation level name.
func (v ShaderValidation) String() string {
	return v.level().String()
}

func (v ShaderValidation) level() shader.Validation {
	switch v {
	case ShaderValidationNone:
		return shader.ValidationNone
	case ShaderValidationFull:
		return shader.ValidationFull
	default:
		return shader.ValidationFrontEnd
	}
}

// Option configures a Context during creation.
//
// Example:
//
//	ctx := octogfx.New(
//	    octogfx.WithPowerPreference(gputypes.PowerPreferenceHighPerformance),
//	    octogfx.WithMaxPipelines(64),
//	)
type Option func(*options)

// options holds optional configuration for Context creation.
type options struct {
	backend      hal.Backend
	flags        gputypes.InstanceFlags
	power        gputypes.PowerPreference
	maxShaders   int
	maxPipelines int
	spirv        bool
	validation   ShaderValidation
	logger       *slog.Logger
	label        string
}

// defaultOptions returns the default context options.
func defaultOptions() options {
	return options{
		flags:        gputypes.InstanceFlagsNone,
		power:        gputypes.PowerPreferenceNone,
		maxShaders:   DefaultMaxShaders,
		maxPipelines: DefaultMaxPipelines,
		validation:   ShaderValidationFrontEnd,
		label:        "octogfx",
	}
}

// WithBackend selects the hal backend explicitly. Without it, Init uses the
// first registered backend in the order Vulkan, Metal, DX12, GL, Empty.
//
// Example:
//
//	ctx := octogfx.New(octogfx.WithBackend(noop.API{}))
func WithBackend(b hal.Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithInstanceFlags sets the instance flags, for example
// gputypes.InstanceFlagsDebug | gputypes.InstanceFlagsValidation.
func WithInstanceFlags(flags gputypes.InstanceFlags) Option {
	return func(o *options) {
		o.flags = flags
	}
}

// WithPowerPreference ranks adapters when more than one can present.
func WithPowerPreference(p gputypes.PowerPreference) Option {
	return func(o *options) {
		o.power = p
	}
}

// WithMaxShaders sets the shader table capacity.
// Values are clamped to [1, MaxTableCapacity].
func WithMaxShaders(n int) Option {
	return func(o *options) {
		o.maxShaders = n
	}
}

// WithMaxPipelines sets the render pipeline table capacity.
// Values are clamped to [1, MaxTableCapacity].
func WithMaxPipelines(n int) Option {
	return func(o *options) {
		o.maxPipelines = n
	}
}

// WithSPIRV translates shader sources to SPIR-V before handing them to the
// backend.
func WithSPIRV() Option {
	return func(o *options) {
		o.spirv = true
	}
}

// WithShaderValidation sets how shader sources are checked.
func WithShaderValidation(v ShaderValidation) Option {
	return func(o *options) {
		o.validation = v
	}
}

// WithLogger scopes a logger to one Context instead of the package logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithLabel sets the prefix of backend debug labels.
func WithLabel(label string) Option {
	return func(o *options) {
		if label != "" {
			o.label = label
		}
	}
}
