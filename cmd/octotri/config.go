package main

import (
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/octogfx"
	"github.com/gogpu/wgpu/hal/noop"
	"gopkg.in/yaml.v3"
)

// maxConfigSize bounds the config file read.
const maxConfigSize = 1 << 20

// Config holds the octotri settings. Values come from an optional YAML file
// and are overridden by flags that were set explicitly.
type Config struct {
	Backend    string `yaml:"backend"` // auto or noop
	Frames     int    `yaml:"frames"`
	Width      uint32 `yaml:"width"`
	Height     uint32 `yaml:"height"`
	Shader     string `yaml:"shader"` // WGSL file; empty uses the built-in triangle
	Power      string `yaml:"power"`  // default, high-performance or low-power
	Validation string `yaml:"validation"`
	SPIRV      bool   `yaml:"spirv"`
	Label      string `yaml:"label"`
	Verbose    bool   `yaml:"verbose"`

	MaxShaders   int `yaml:"max_shaders"`
	MaxPipelines int `yaml:"max_pipelines"`

	// Native handles of an existing window. Zero for headless backends.
	Display uint64 `yaml:"display"`
	Window  uint64 `yaml:"window"`
}

// defaultConfig returns the settings used when nothing is configured.
func defaultConfig() Config {
	return Config{
		Backend:      "auto",
		Frames:       3,
		Width:        640,
		Height:       480,
		Power:        "default",
		Validation:   "frontend",
		Label:        "octotri",
		MaxShaders:   octogfx.DefaultMaxShaders,
		MaxPipelines: octogfx.DefaultMaxPipelines,
	}
}

// loadConfigFile overlays the YAML file at path onto cfg.
func loadConfigFile(path string, cfg *Config) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() > maxConfigSize {
		return fmt.Errorf("config %s: too large (%d bytes)", path, info.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}

// parseConfig builds the configuration from command line arguments.
// The file named by -config is applied first, then every flag that was set.
func parseConfig(args []string) (Config, error) {
	cfg := defaultConfig()

	fs := flag.NewFlagSet("octotri", flag.ContinueOnError)
	var (
		configPath = fs.String("config", "", "YAML config file")
		backend    = fs.String("backend", cfg.Backend, "backend: auto or noop")
		frames     = fs.Int("frames", cfg.Frames, "number of frames to present")
		width      = fs.Uint("width", uint(cfg.Width), "swapchain width")
		height     = fs.Uint("height", uint(cfg.Height), "swapchain height")
		shaderPath = fs.String("shader", "", "WGSL shader file with vs_main and fs_main")
		power      = fs.String("power", cfg.Power, "adapter preference: default, high-performance, low-power")
		validation = fs.String("validation", cfg.Validation, "shader validation: none, frontend, full")
		spirv      = fs.Bool("spirv", false, "translate shaders to SPIR-V")
		window     = fs.Uint64("window", 0, "native window handle")
		display    = fs.Uint64("display", 0, "native display handle")
		verbose    = fs.Bool("v", false, "debug logging")
	)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if uint64(*width) > math.MaxUint32 || uint64(*height) > math.MaxUint32 {
		return Config{}, fmt.Errorf("size %dx%d exceeds %d", *width, *height, uint64(math.MaxUint32))
	}

	if *configPath != "" {
		if err := loadConfigFile(*configPath, &cfg); err != nil {
			return Config{}, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			cfg.Backend = *backend
		case "frames":
			cfg.Frames = *frames
		case "width":
			cfg.Width = uint32(*width)
		case "height":
			cfg.Height = uint32(*height)
		case "shader":
			cfg.Shader = *shaderPath
		case "power":
			cfg.Power = *power
		case "validation":
			cfg.Validation = *validation
		case "spirv":
			cfg.SPIRV = *spirv
		case "window":
			cfg.Window = *window
		case "display":
			cfg.Display = *display
		case "v":
			cfg.Verbose = *verbose
		}
	})

	if cfg.Frames < 1 {
		return Config{}, fmt.Errorf("frames must be positive, got %d", cfg.Frames)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return Config{}, fmt.Errorf("invalid size %dx%d", cfg.Width, cfg.Height)
	}
	return cfg, nil
}

// options translates the configuration into octogfx options.
func (c Config) options() ([]octogfx.Option, error) {
	var opts []octogfx.Option

	switch strings.ToLower(c.Backend) {
	case "", "auto":
	case "noop", "empty":
		opts = append(opts, octogfx.WithBackend(noop.API{}))
	default:
		return nil, fmt.Errorf("unknown backend %q", c.Backend)
	}

	switch strings.ToLower(c.Power) {
	case "", "default":
	case "high-performance":
		opts = append(opts, octogfx.WithPowerPreference(gputypes.PowerPreferenceHighPerformance))
	case "low-power":
		opts = append(opts, octogfx.WithPowerPreference(gputypes.PowerPreferenceLowPower))
	default:
		return nil, fmt.Errorf("unknown power preference %q", c.Power)
	}

	switch strings.ToLower(c.Validation) {
	case "", "frontend":
		opts = append(opts, octogfx.WithShaderValidation(octogfx.ShaderValidationFrontEnd))
	case "none":
		opts = append(opts, octogfx.WithShaderValidation(octogfx.ShaderValidationNone))
	case "full":
		opts = append(opts, octogfx.WithShaderValidation(octogfx.ShaderValidationFull))
	default:
		return nil, fmt.Errorf("unknown shader validation %q", c.Validation)
	}

	if c.SPIRV {
		opts = append(opts, octogfx.WithSPIRV())
	}
	if c.MaxShaders > 0 {
		opts = append(opts, octogfx.WithMaxShaders(c.MaxShaders))
	}
	if c.MaxPipelines > 0 {
		opts = append(opts, octogfx.WithMaxPipelines(c.MaxPipelines))
	}
	return append(opts, octogfx.WithLabel(c.Label)), nil
}

// shaderSource returns the configured WGSL source or the built-in one.
func (c Config) shaderSource() ([]byte, error) {
	if c.Shader == "" {
		return []byte(defaultShader), nil
	}
	src, err := os.ReadFile(c.Shader)
	if err != nil {
		return nil, err
	}
	if len(src) == 0 {
		return nil, errors.New(c.Shader + ": empty shader file")
	}
	return src, nil
}

// initInfo describes the target window.
func (c Config) initInfo() octogfx.InitInfo {
	return octogfx.InitInfo{
		Platform: octogfx.PlatformData{
			DisplayHandle: uintptr(c.Display),
			WindowHandle:  uintptr(c.Window),
		},
		Resolution: octogfx.Resolution{Width: c.Width, Height: c.Height},
	}
}
