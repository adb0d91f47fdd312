// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package batch holds the per-frame draw lists.
//
// A Stack is an ordered set of sprite batches. Batch 0 always exists and
// covers the whole native surface. Each batch carries the matrix composed
// from its description, and entries are appended to the active batch.
// Backup and Restore let a transition re-render the last frame; entries
// whose drawable is destroyed become tombstones instead of being removed,
// so snapshot indices never shift.
package batch

import (
	"image"

	"github.com/gogpu/sprite/geom"
	"github.com/gogpu/sprite/internal/pool"
)

// Kind tags a draw list entry.
type Kind uint8

const (
	// KindSprite draws a drawable.
	KindSprite Kind = iota
	// KindStage is a placeholder resolved at render time by the stage
	// screen callback.
	KindStage
	// KindTombstone marks an entry whose drawable was destroyed. It is
	// never drawn.
	KindTombstone
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindSprite:
		return "sprite"
	case KindStage:
		return "stage"
	case KindTombstone:
		return "tombstone"
	default:
		return "unknown"
	}
}

// Entry is one draw request. Drawable is a non-owning handle.
type Entry struct {
	Kind     Kind
	X, Y     int
	Drawable pool.Handle
}

// Desc describes a batch: the viewport it draws into and how its
// content is placed.
type Desc struct {
	Viewport  image.Rectangle
	Transform geom.SpriteTransform
}

// Batch is an ordered draw list sharing one matrix and clip rectangle.
type Batch struct {
	Desc    Desc
	Matrix  geom.Matrix
	Entries []Entry
}

// Clip returns the batch's clip rectangle and whether clipping applies.
// An empty viewport disables clipping.
func (b *Batch) Clip() (image.Rectangle, bool) {
	if b.Desc.Viewport.Empty() {
		return image.Rectangle{}, false
	}
	return b.Desc.Viewport, true
}

// StageSize returns the size of the unscaled source area that the
// batch's viewport shows.
func (b *Batch) StageSize() image.Point {
	tr := b.Desc.Transform
	w, h := b.Desc.Viewport.Dx(), b.Desc.Viewport.Dy()
	if tr.ScaleX != 0 {
		w = int(float32(w) / tr.ScaleX)
	}
	if tr.ScaleY != 0 {
		h = int(float32(h) / tr.ScaleY)
	}
	return image.Pt(w, h)
}

func (b *Batch) clone() Batch {
	c := *b
	c.Entries = append([]Entry(nil), b.Entries...)
	return c
}
