// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pool

import "testing"

func TestArenaInsertGet(t *testing.T) {
	a := NewArena[string]()
	h1 := a.Insert("one")
	h2 := a.Insert("two")

	if h1.IsZero() || h2.IsZero() {
		t.Fatal("Insert returned zero handle")
	}
	if v, ok := a.Get(h1); !ok || *v != "one" {
		t.Errorf("Get(h1) = %v, %v", v, ok)
	}
	if v, ok := a.Get(h2); !ok || *v != "two" {
		t.Errorf("Get(h2) = %v, %v", v, ok)
	}
	if a.Len() != 2 {
		t.Errorf("Len() = %d, want 2", a.Len())
	}
}

func TestArenaZeroHandle(t *testing.T) {
	a := NewArena[int]()
	a.Insert(1)
	if _, ok := a.Get(Handle{}); ok {
		t.Error("zero handle resolved")
	}
	if _, ok := a.Remove(Handle{}); ok {
		t.Error("zero handle removed")
	}
}

func TestArenaStaleHandle(t *testing.T) {
	a := NewArena[int]()
	h := a.Insert(7)
	if v, ok := a.Remove(h); !ok || v != 7 {
		t.Fatalf("Remove = %d, %v", v, ok)
	}
	if a.Valid(h) {
		t.Error("removed handle still valid")
	}

	// The slot is reused with a new generation.
	h2 := a.Insert(8)
	if h2.index != h.index {
		t.Fatalf("slot not reused: %v vs %v", h2, h)
	}
	if h2 == h {
		t.Fatal("reused slot issued the same handle")
	}
	if a.Valid(h) {
		t.Error("stale handle resolves to the new value")
	}
	if v, ok := a.Get(h2); !ok || *v != 8 {
		t.Errorf("Get(h2) = %v, %v", v, ok)
	}
	if _, ok := a.Remove(h); ok {
		t.Error("stale handle removed the new value")
	}
}

func TestArenaAll(t *testing.T) {
	a := NewArena[int]()
	h1 := a.Insert(1)
	h2 := a.Insert(2)
	h3 := a.Insert(3)
	a.Remove(h2)

	var got []Handle
	sum := 0
	for h, v := range a.All() {
		got = append(got, h)
		sum += *v
	}
	if len(got) != 2 || got[0] != h1 || got[1] != h3 {
		t.Errorf("All() handles = %v", got)
	}
	if sum != 4 {
		t.Errorf("sum = %d, want 4", sum)
	}
}

func TestHandleString(t *testing.T) {
	if got := (Handle{}).String(); got != "Handle(nil)" {
		t.Errorf("zero String() = %q", got)
	}
	if got := (Handle{index: 3, gen: 2}).String(); got != "Handle(3#2)" {
		t.Errorf("String() = %q", got)
	}
}
