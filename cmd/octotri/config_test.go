package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := parseConfig(nil)
	if err != nil {
		t.Fatalf("parseConfig: %v", err)
	}
	if cfg != defaultConfig() {
		t.Errorf("parseConfig(nil) = %+v, want defaults", cfg)
	}
}

func TestParseConfig_FileThenFlags(t *testing.T) {
	path := writeFile(t, "octotri.yaml", `
backend: noop
frames: 10
width: 1024
height: 768
validation: full
max_shaders: 4
`)
	cfg, err := parseConfig([]string{"-config", path, "-frames", "2", "-v"})
	if err != nil {
		t.Fatalf("parseConfig: %v", err)
	}
	if cfg.Backend != "noop" || cfg.Width != 1024 || cfg.Height != 768 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Validation != "full" || cfg.MaxShaders != 4 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Frames != 2 {
		t.Errorf("Frames = %d, want flag value 2", cfg.Frames)
	}
	if !cfg.Verbose {
		t.Error("Verbose flag not applied")
	}
	if cfg.MaxPipelines != defaultConfig().MaxPipelines {
		t.Errorf("MaxPipelines = %d, want default", cfg.MaxPipelines)
	}
}

func TestParseConfig_Errors(t *testing.T) {
	bad := writeFile(t, "bad.yaml", "frames: [1, 2\n")
	tests := []struct {
		name string
		args []string
	}{
		{"zero frames", []string{"-frames", "0"}},
		{"zero width", []string{"-width", "0"}},
		{"width above 32 bits", []string{"-width", "4294967296"}},
		{"height above 32 bits", []string{"-height", "8589934592"}},
		{"missing file", []string{"-config", filepath.Join(t.TempDir(), "none.yaml")}},
		{"bad yaml", []string{"-config", bad}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseConfig(tt.args); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestConfigOptions(t *testing.T) {
	cfg := defaultConfig()
	cfg.Backend = "noop"
	cfg.Power = "high-performance"
	cfg.SPIRV = true
	opts, err := cfg.options()
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	// backend, power, validation, spirv, shaders, pipelines, label
	if len(opts) != 7 {
		t.Errorf("len(options) = %d, want 7", len(opts))
	}

	for _, mutate := range []func(*Config){
		func(c *Config) { c.Backend = "metal2" },
		func(c *Config) { c.Power = "turbo" },
		func(c *Config) { c.Validation = "strict" },
	} {
		c := defaultConfig()
		mutate(&c)
		if _, err := c.options(); err == nil {
			t.Errorf("options(%+v) succeeded, want error", c)
		}
	}
}

func TestConfigShaderSource(t *testing.T) {
	cfg := defaultConfig()
	src, err := cfg.shaderSource()
	if err != nil || !strings.Contains(string(src), "fs_main") {
		t.Fatalf("built-in shader = %q, %v", src, err)
	}

	cfg.Shader = writeFile(t, "empty.wgsl", "")
	if _, err := cfg.shaderSource(); err == nil {
		t.Error("empty shader file accepted")
	}
}

func TestRun_Noop(t *testing.T) {
	cfg := defaultConfig()
	cfg.Backend = "noop"
	cfg.Frames = 5

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	if err := run(context.Background(), cfg, log); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(buf.String(), "frames=5") {
		t.Errorf("log output missing frame count:\n%s", buf.String())
	}
}

func TestRun_BadShader(t *testing.T) {
	cfg := defaultConfig()
	cfg.Backend = "noop"
	cfg.Shader = writeFile(t, "broken.wgsl", "@vertex fn vs_main( {")

	err := run(context.Background(), cfg, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	if err == nil {
		t.Fatal("run succeeded with a broken shader")
	}
}
