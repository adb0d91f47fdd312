// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package batch

import (
	"image"

	"github.com/gogpu/sprite/geom"
	"github.com/gogpu/sprite/internal/pool"
)

// Stack is the ordered collection of batches for the current frame.
type Stack struct {
	batches []Batch
	active  int

	backup    []Batch
	hasBackup bool

	nativeW, nativeH int
}

// NewStack creates a stack for a native surface of the given size with
// the default full-surface batch at index 0.
func NewStack(nativeW, nativeH int) *Stack {
	s := &Stack{nativeW: nativeW, nativeH: nativeH}
	s.Init(0, s.DefaultDesc())
	return s
}

// DefaultDesc returns a description covering the whole native surface
// with the identity placement.
func (s *Stack) DefaultDesc() Desc {
	return Desc{
		Viewport:  image.Rect(0, 0, s.nativeW, s.nativeH),
		Transform: geom.DefaultSpriteTransform(),
	}
}

// NativeSize returns the surface size the matrices are composed for.
func (s *Stack) NativeSize() (w, h int) { return s.nativeW, s.nativeH }

// SetNativeSize changes the surface size and recomposes every matrix,
// including those in the backup.
func (s *Stack) SetNativeSize(w, h int) {
	s.nativeW, s.nativeH = w, h
	s.RecomputeMatrices()
}

// RecomputeMatrices rebuilds every batch matrix from its description.
func (s *Stack) RecomputeMatrices() {
	for i := range s.batches {
		s.batches[i].Matrix = s.matrix(s.batches[i].Desc)
	}
	for i := range s.backup {
		s.backup[i].Matrix = s.matrix(s.backup[i].Desc)
	}
}

func (s *Stack) matrix(d Desc) geom.Matrix {
	return geom.BatchMatrix(d.Viewport, d.Transform, s.nativeW, s.nativeH)
}

// Init (re)initializes batch i: the stack grows as needed, the batch's
// list is emptied and its matrix composed from desc. The active index is
// unchanged.
func (s *Stack) Init(i int, desc Desc) {
	if i < 0 {
		return
	}
	if i >= len(s.batches) {
		s.batches = append(s.batches, make([]Batch, i+1-len(s.batches))...)
	}
	b := &s.batches[i]
	b.Desc = desc
	b.Matrix = s.matrix(desc)
	b.Entries = b.Entries[:0]
}

// Begin starts a new batch after the active one and makes it active.
// It returns the new batch's index.
func (s *Stack) Begin(desc Desc) int {
	s.active++
	s.Init(s.active, desc)
	return s.active
}

// Active returns the index of the batch receiving new entries.
func (s *Stack) Active() int { return s.active }

// ActiveBatch returns the batch receiving new entries.
func (s *Stack) ActiveBatch() *Batch { return &s.batches[s.active] }

// Append adds a sprite entry to the active batch.
func (s *Stack) Append(x, y int, h pool.Handle) {
	b := &s.batches[s.active]
	b.Entries = append(b.Entries, Entry{Kind: KindSprite, X: x, Y: y, Drawable: h})
}

// AppendStage adds a stage screen placeholder to the active batch.
func (s *Stack) AppendStage(x, y int) {
	b := &s.batches[s.active]
	b.Entries = append(b.Entries, Entry{Kind: KindStage, X: x, Y: y})
}

// Batches returns the batches in use this frame, 0 through the active
// one. The slice aliases the stack's storage.
func (s *Stack) Batches() []Batch {
	return s.batches[:s.active+1]
}

// Len returns the number of batches in use this frame.
func (s *Stack) Len() int { return s.active + 1 }

// Empty reports whether no batch in use holds an entry.
func (s *Stack) Empty() bool {
	for i := range s.Batches() {
		if len(s.batches[i].Entries) > 0 {
			return false
		}
	}
	return true
}

// ClearAll empties every list and makes batch 0 active. Descriptions and
// matrices are kept.
func (s *Stack) ClearAll() {
	for i := range s.batches {
		s.batches[i].Entries = s.batches[i].Entries[:0]
	}
	s.active = 0
}

// Backup snapshots batches 0 through the active one, replacing any
// previous snapshot.
func (s *Stack) Backup() {
	s.backup = s.backup[:0]
	for i := range s.Batches() {
		s.backup = append(s.backup, s.batches[i].clone())
	}
	s.hasBackup = true
}

// HasBackup reports whether a snapshot exists.
func (s *Stack) HasBackup() bool { return s.hasBackup }

// DiscardBackup drops the snapshot.
func (s *Stack) DiscardBackup() {
	s.backup = nil
	s.hasBackup = false
}

// Restore replaces the batches with a copy of the snapshot and makes the
// last restored batch active. Without a snapshot it behaves as ClearAll.
// The snapshot is kept so a transition can restore it on every sub-frame.
func (s *Stack) Restore() {
	if !s.hasBackup || len(s.backup) == 0 {
		s.ClearAll()
		return
	}
	s.batches = s.batches[:0]
	for i := range s.backup {
		s.batches = append(s.batches, s.backup[i].clone())
	}
	s.active = len(s.batches) - 1
}

// Tombstone disables every entry, live or backed up, that refers to h.
// It returns the number of entries changed.
func (s *Stack) Tombstone(h pool.Handle) int {
	n := tombstone(s.batches, h)
	n += tombstone(s.backup, h)
	return n
}

func tombstone(batches []Batch, h pool.Handle) int {
	n := 0
	for i := range batches {
		entries := batches[i].Entries
		for j := range entries {
			if entries[j].Kind == KindSprite && entries[j].Drawable == h {
				entries[j].Kind = KindTombstone
				n++
			}
		}
	}
	return n
}
