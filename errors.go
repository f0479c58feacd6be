package octogfx

import (
	"errors"
	"fmt"

	"github.com/gogpu/octogfx/internal/handle"
)

// Lifecycle errors.
var (
	// ErrNotInitialized is returned by operations called before Init.
	ErrNotInitialized = errors.New("octogfx: context not initialized")

	// ErrAlreadyInitialized is returned by Init on a ready context.
	ErrAlreadyInitialized = errors.New("octogfx: context already initialized")

	// ErrShutdown is returned by operations called after Shutdown.
	ErrShutdown = errors.New("octogfx: context shut down")

	// ErrInitFailed wraps the cause of a failed Init.
	ErrInitFailed = errors.New("octogfx: initialization failed")

	// ErrFrameInProgress is returned by Resize while a frame is being recorded.
	ErrFrameInProgress = errors.New("octogfx: frame in progress")
)

// Resource errors.
var (
	// ErrInvalidHandle is returned for a null handle or one that was never
	// issued by this context.
	ErrInvalidHandle = errors.New("octogfx: invalid handle")

	// ErrStaleHandle is returned for a handle issued before the last Init.
	ErrStaleHandle = errors.New("octogfx: stale handle")

	// ErrCapacityExceeded is returned when a resource table is full.
	ErrCapacityExceeded = errors.New("octogfx: resource table full")

	// ErrEmptyShader is returned by NewShader for an empty source buffer.
	ErrEmptyShader = errors.New("octogfx: empty shader source")

	// ErrMissingEntryPoint is returned when a shader lacks vs_main or fs_main.
	ErrMissingEntryPoint = errors.New("octogfx: shader entry point missing")

	// ErrCreateShader is returned when the backend rejects a shader module.
	ErrCreateShader = errors.New("octogfx: create shader module failed")

	// ErrCreatePipeline is returned when the backend rejects a render pipeline.
	ErrCreatePipeline = errors.New("octogfx: create render pipeline failed")
)

// handleError maps a resource table error to the public taxonomy.
func handleError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, handle.ErrStale):
		return fmt.Errorf("%s: %w: %w", op, ErrStaleHandle, err)
	case errors.Is(err, handle.ErrCapacity), errors.Is(err, handle.ErrExhausted):
		return fmt.Errorf("%s: %w: %w", op, ErrCapacityExceeded, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrInvalidHandle, err)
	}
}
