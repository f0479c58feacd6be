// Command octotri initializes octogfx, draws a triangle for a number of
// frames, and shuts down. With -backend noop it runs without a GPU or window.
//
// Usage:
//
//	octotri -backend noop -frames 60 -v
//	octotri -config octotri.yaml -window 0x3a00007 -display 0x55d0c1e0
package main

import (
	"context"
	_ "embed"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/gogpu/octogfx"
	_ "github.com/gogpu/wgpu/hal/allbackends"
)

//go:embed triangle.wgsl
var defaultShader string

func main() {
	cfg, err := parseConfig(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "octotri:", err)
		os.Exit(2)
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	octogfx.SetLogger(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("octotri failed", "err", err)
		os.Exit(1)
	}
}

// run renders cfg.Frames frames. Frames whose swapchain texture could not be
// acquired are skipped and retried, up to three times the requested count.
func run(ctx context.Context, cfg Config, log *slog.Logger) (err error) {
	opts, err := cfg.options()
	if err != nil {
		return err
	}
	src, err := cfg.shaderSource()
	if err != nil {
		return err
	}

	gfx := octogfx.New(opts...)
	if err := gfx.Init(ctx, cfg.initInfo()); err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, gfx.Shutdown())
	}()

	info := gfx.AdapterInfo()
	log.Info("adapter", "name", info.Name, "type", info.Type, "backend", gfx.Backend(), "format", gfx.SurfaceFormat())

	sh, err := gfx.NewShader(octogfx.Memory(src))
	if err != nil {
		return err
	}
	pipe, err := gfx.NewRenderPipeline(octogfx.RenderPipelineDesc{Shader: sh, Label: "octotri_triangle"})
	if err != nil {
		return err
	}

	skipped := 0
	for attempts := 0; gfx.Frames() < uint64(cfg.Frames); attempts++ {
		if attempts >= 3*cfg.Frames {
			return fmt.Errorf("presented %d of %d frames, %d skipped", gfx.Frames(), cfg.Frames, skipped)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		err := drawFrame(gfx, pipe)
		if octogfx.IsAcquireError(err) {
			skipped++
			log.Warn("frame skipped", "err", err)
			continue
		}
		if err != nil {
			return err
		}
	}

	log.Info("done", "frames", gfx.Frames(), "skipped", skipped)
	return nil
}

// drawFrame records and presents one frame.
func drawFrame(gfx *octogfx.Context, pipe octogfx.RenderPipelineHandle) error {
	if err := gfx.BeginDefaultPass(); err != nil {
		return err
	}
	if err := gfx.ApplyPipeline(pipe); err != nil {
		return err
	}
	if err := gfx.Draw(); err != nil {
		return err
	}
	if err := gfx.EndPass(); err != nil {
		return err
	}
	return gfx.CommitFrame()
}
