// Package handle provides generation-counted handles and the fixed-capacity
// resource pools they address.
//
// A Handle is a 16-bit slot index paired with the 32-bit generation of the
// pool that issued it. Indices are allocated by a purely incrementing
// Allocator and are never recycled, so a handle stays unique for the lifetime
// of its pool.
// Resetting a pool with a new generation invalidates every handle it issued
// earlier; Pool.Get reports such handles as stale instead of aliasing a new
// resource.
package handle

import (
	"errors"
	"fmt"
	"math"
)

// NullIndex is the reserved index of the null handle.
const NullIndex = math.MaxUint16

// MaxCapacity is the largest pool capacity addressable by a 16-bit index.
const MaxCapacity = NullIndex

// Handle errors.
var (
	// ErrNull is returned when the null handle is looked up.
	ErrNull = errors.New("handle: null handle")

	// ErrStale is returned when a handle was issued under another generation.
	ErrStale = errors.New("handle: stale handle")

	// ErrOutOfRange is returned when the index is outside the pool capacity.
	ErrOutOfRange = errors.New("handle: index out of range")

	// ErrNotAllocated is returned when the index was never issued by the pool.
	ErrNotAllocated = errors.New("handle: index not allocated")

	// ErrCapacity is returned when a pool has no free slot left.
	ErrCapacity = errors.New("handle: pool capacity exceeded")

	// ErrExhausted is returned when the allocator has issued every index.
	ErrExhausted = errors.New("handle: allocator exhausted")
)

// Handle identifies one slot of a Pool.
//
// The zero value is invalid: generation 0 is never issued.
type Handle struct {
	Index      uint16
	Generation uint32
}

// Null returns the null handle.
func Null() Handle {
	return Handle{Index: NullIndex}
}

// IsNull reports whether h carries the null index.
func (h Handle) IsNull() bool {
	return h.Index == NullIndex
}

// IsValid reports whether h could have been issued by an allocator.
// It does not check that h belongs to any particular pool.
func (h Handle) IsValid() bool {
	return h.Index != NullIndex && h.Generation != 0
}

// String returns a debug representation such as "3@1" or "null".
func (h Handle) String() string {
	if h.IsNull() {
		return "null"
	}
	return fmt.Sprintf("%d@%d", h.Index, h.Generation)
}

// Allocator issues unique, monotonically increasing indices for one
// resource kind. It never releases an index.
//
// Allocator is not safe for concurrent use.
type Allocator struct {
	next       uint16
	generation uint32
}

// NewAllocator creates an allocator that stamps handles with generation.
func NewAllocator(generation uint32) *Allocator {
	return &Allocator{generation: generation}
}

// Allocate returns the current counter value as a handle and advances the
// counter. It returns ErrExhausted instead of wrapping into the null index.
func (a *Allocator) Allocate() (Handle, error) {
	if a.next == NullIndex {
		return Null(), ErrExhausted
	}
	h := Handle{Index: a.next, Generation: a.generation}
	a.next++
	return h, nil
}

// Count returns the number of handles issued since the last reset.
func (a *Allocator) Count() int {
	return int(a.next)
}

// Generation returns the generation stamped on new handles.
func (a *Allocator) Generation() uint32 {
	return a.generation
}

// Reset restarts the counter at zero under a new generation.
func (a *Allocator) Reset(generation uint32) {
	a.next = 0
	a.generation = generation
}
