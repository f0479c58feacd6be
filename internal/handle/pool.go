package handle

import "fmt"

// slot is one element of a Pool.
type slot[T any] struct {
	value   T
	created bool
}

// Pool is a fixed-capacity table of resources addressed by Handle.
//
// Slots are filled in allocation order and are never freed individually;
// Reset clears the whole table and moves it to a new generation.
//
// Pool is not safe for concurrent use.
type Pool[T any] struct {
	slots []slot[T]
	alloc Allocator
}

// NewPool creates a pool holding at most capacity resources, issuing handles
// stamped with generation. capacity is clamped to [1, MaxCapacity].
func NewPool[T any](capacity int, generation uint32) *Pool[T] {
	if capacity < 1 {
		capacity = 1
	}
	if capacity > MaxCapacity {
		capacity = MaxCapacity
	}
	return &Pool[T]{
		slots: make([]slot[T], capacity),
		alloc: Allocator{generation: generation},
	}
}

// Cap returns the fixed capacity of the pool.
func (p *Pool[T]) Cap() int {
	return len(p.slots)
}

// Len returns the number of slots handed out since the last reset.
func (p *Pool[T]) Len() int {
	return p.alloc.Count()
}

// Full reports whether Insert would fail with ErrCapacity.
func (p *Pool[T]) Full() bool {
	return p.Len() >= p.Cap()
}

// Generation returns the generation of handles issued by the pool.
func (p *Pool[T]) Generation() uint32 {
	return p.alloc.Generation()
}

// Insert stores v in the next slot and returns its handle.
// Capacity is checked before an index is allocated, so a full pool does not
// consume indices.
func (p *Pool[T]) Insert(v T) (Handle, error) {
	if p.Full() {
		return Null(), fmt.Errorf("%w: %d slots", ErrCapacity, p.Cap())
	}
	h, err := p.alloc.Allocate()
	if err != nil {
		return Null(), err
	}
	p.slots[h.Index] = slot[T]{value: v, created: true}
	return h, nil
}

// Get returns the resource addressed by h.
func (p *Pool[T]) Get(h Handle) (T, error) {
	var zero T
	if err := p.check(h); err != nil {
		return zero, err
	}
	s := &p.slots[h.Index]
	if !s.created {
		return zero, fmt.Errorf("%w: %s", ErrNotAllocated, h)
	}
	return s.value, nil
}

// check validates h against the pool bounds and generation.
func (p *Pool[T]) check(h Handle) error {
	switch {
	case h.IsNull():
		return ErrNull
	case h.Generation != p.alloc.Generation():
		return fmt.Errorf("%w: %s (pool generation %d)", ErrStale, h, p.alloc.Generation())
	case int(h.Index) >= p.Cap():
		return fmt.Errorf("%w: %s (capacity %d)", ErrOutOfRange, h, p.Cap())
	case int(h.Index) >= p.Len():
		return fmt.Errorf("%w: %s", ErrNotAllocated, h)
	}
	return nil
}

// Each calls fn for every created slot in reverse allocation order.
// Reverse order lets callers release dependents before their dependencies.
func (p *Pool[T]) Each(fn func(Handle, T)) {
	gen := p.alloc.Generation()
	for i := p.Len() - 1; i >= 0; i-- {
		s := &p.slots[i]
		if !s.created {
			continue
		}
		fn(Handle{Index: uint16(i), Generation: gen}, s.value)
	}
}

// Reset drops every slot and starts issuing handles under generation.
// Handles issued before the reset become stale.
func (p *Pool[T]) Reset(generation uint32) {
	clear(p.slots)
	p.alloc.Reset(generation)
}
