// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package pool owns drawable storage: a generation-checked handle arena
// and a recycling pool that keeps released entries alive for a few
// frames before they are destroyed.
//
// Nothing in this package is safe for concurrent use. The compositor
// serializes all access on its render thread.
package pool

import (
	"fmt"
	"iter"
)

// Handle refers to a value stored in an Arena. The zero Handle is never
// issued and is always invalid.
type Handle struct {
	index uint32
	gen   uint32
}

// IsZero reports whether h is the zero handle.
func (h Handle) IsZero() bool { return h.gen == 0 }

// String returns a string representation of the handle.
func (h Handle) String() string {
	if h.IsZero() {
		return "Handle(nil)"
	}
	return fmt.Sprintf("Handle(%d#%d)", h.index, h.gen)
}

type slot[T any] struct {
	gen  uint32
	used bool
	val  T
}

// Arena stores values addressed by Handle. Removing a value bumps its
// slot's generation so every outstanding handle to it stops resolving.
type Arena[T any] struct {
	slots []slot[T]
	free  []uint32
	live  int
}

// NewArena creates an empty arena.
func NewArena[T any]() *Arena[T] {
	return &Arena[T]{}
}

// Insert stores v and returns its handle.
func (a *Arena[T]) Insert(v T) Handle {
	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		idx = uint32(len(a.slots)) //nolint:gosec // arena never approaches 2^32 slots
		a.slots = append(a.slots, slot[T]{})
	}
	s := &a.slots[idx]
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	s.used = true
	s.val = v
	a.live++
	return Handle{index: idx, gen: s.gen}
}

// Get resolves h. It returns false for the zero handle and for handles
// whose value has been removed.
func (a *Arena[T]) Get(h Handle) (*T, bool) {
	if h.IsZero() || int(h.index) >= len(a.slots) {
		return nil, false
	}
	s := &a.slots[h.index]
	if !s.used || s.gen != h.gen {
		return nil, false
	}
	return &s.val, true
}

// Valid reports whether h resolves.
func (a *Arena[T]) Valid(h Handle) bool {
	_, ok := a.Get(h)
	return ok
}

// Remove deletes the value behind h and returns it.
func (a *Arena[T]) Remove(h Handle) (T, bool) {
	var zero T
	if !a.Valid(h) {
		return zero, false
	}
	s := &a.slots[h.index]
	v := s.val
	s.val = zero
	s.used = false
	a.free = append(a.free, h.index)
	a.live--
	return v, true
}

// Len returns the number of live values.
func (a *Arena[T]) Len() int { return a.live }

// All iterates over live values in slot order.
func (a *Arena[T]) All() iter.Seq2[Handle, *T] {
	return func(yield func(Handle, *T) bool) {
		for i := range a.slots {
			s := &a.slots[i]
			if !s.used {
				continue
			}
			if !yield(Handle{index: uint32(i), gen: s.gen}, &s.val) { //nolint:gosec // slot index
				return
			}
		}
	}
}
