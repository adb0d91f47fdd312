// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pool

import "fmt"

// DefaultMaxAge is the number of sweeps a released entry survives. It is
// evicted on the sweep that takes its age past this value.
const DefaultMaxAge = 6

// Key is the reuse signature of a drawable. Only exact matches are reused.
type Key struct {
	Width  int
	Height int
	Depth  int
	Opaque bool
}

// String returns a string representation of the key.
func (k Key) String() string {
	return fmt.Sprintf("%dx%dx%d opaque=%t", k.Width, k.Height, k.Depth, k.Opaque)
}

// Stats contains recycling statistics.
type Stats struct {
	// Hits counts acquisitions satisfied from the pool.
	Hits uint64
	// Misses counts acquisitions that found no match.
	Misses uint64
	// Evictions counts entries destroyed by Sweep or Drain.
	Evictions uint64
	// Pooled is the number of entries currently waiting for reuse.
	Pooled int
}

// String returns a human-readable string of the stats.
func (s Stats) String() string {
	return fmt.Sprintf("Pool[%d pooled, %d hits, %d misses, %d evictions]",
		s.Pooled, s.Hits, s.Misses, s.Evictions)
}

type pooled struct {
	handle Handle
	key    Key
	aging  int
}

// Pool tracks released handles until they are reused or too old.
//
// The pool never touches the values behind the handles; the caller owns
// the storage and destroys whatever Sweep and Drain return.
type Pool struct {
	entries []pooled
	maxAge  int
	stats   Stats
}

// New creates a pool that evicts entries older than maxAge sweeps.
// maxAge <= 0 selects DefaultMaxAge.
func New(maxAge int) *Pool {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Pool{maxAge: maxAge}
}

// MaxAge returns the eviction threshold.
func (p *Pool) MaxAge() int { return p.maxAge }

// Acquire removes and returns the oldest released handle whose key equals
// key exactly.
func (p *Pool) Acquire(key Key) (Handle, bool) {
	for i, e := range p.entries {
		if e.key != key {
			continue
		}
		p.entries = append(p.entries[:i], p.entries[i+1:]...)
		p.stats.Hits++
		return e.handle, true
	}
	p.stats.Misses++
	return Handle{}, false
}

// Release puts h in the pool with age zero. Releasing a handle that is
// already pooled is a no-op.
func (p *Pool) Release(h Handle, key Key) {
	if h.IsZero() || p.Contains(h) {
		return
	}
	p.entries = append(p.entries, pooled{handle: h, key: key})
}

// Contains reports whether h is waiting in the pool.
func (p *Pool) Contains(h Handle) bool {
	for _, e := range p.entries {
		if e.handle == h {
			return true
		}
	}
	return false
}

// Age returns how many sweeps h has survived, or -1 if it is not pooled.
func (p *Pool) Age(h Handle) int {
	for _, e := range p.entries {
		if e.handle == h {
			return e.aging
		}
	}
	return -1
}

// Sweep ages every pooled entry by one and returns the handles that are
// now older than the threshold. They are no longer pooled.
func (p *Pool) Sweep() []Handle {
	var evicted []Handle
	for i := 0; i < len(p.entries); {
		e := &p.entries[i]
		e.aging++
		if e.aging <= p.maxAge {
			i++
			continue
		}
		evicted = append(evicted, e.handle)
		last := len(p.entries) - 1
		p.entries[i] = p.entries[last]
		p.entries = p.entries[:last]
	}
	p.stats.Evictions += uint64(len(evicted))
	return evicted
}

// Drain empties the pool and returns every handle it held.
func (p *Pool) Drain() []Handle {
	out := make([]Handle, len(p.entries))
	for i, e := range p.entries {
		out[i] = e.handle
	}
	p.entries = p.entries[:0]
	p.stats.Evictions += uint64(len(out))
	return out
}

// Len returns the number of pooled entries.
func (p *Pool) Len() int { return len(p.entries) }

// Stats returns a snapshot of the pool statistics.
func (p *Pool) Stats() Stats {
	s := p.stats
	s.Pooled = len(p.entries)
	return s
}
