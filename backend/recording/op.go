package recording

import (
	"fmt"
	"image"

	"github.com/gogpu/sprite/backend"
)

// OpType identifies a recorded operation.
type OpType uint8

const (
	OpSetClip   OpType = iota // Restrict drawing to a rectangle
	OpClearClip               // Remove the clip rectangle
	OpSubmit                  // Draw one quad
)

var opTypeNames = [...]string{
	OpSetClip:   "SetClip",
	OpClearClip: "ClearClip",
	OpSubmit:    "Submit",
}

// String returns the operation name.
func (t OpType) String() string {
	if int(t) < len(opTypeNames) {
		return opTypeNames[t]
	}
	return fmt.Sprintf("OpType(%d)", t)
}

// Op is one recorded operation.
type Op struct {
	Type OpType
	// Clip is set for OpSetClip.
	Clip image.Rectangle
	// Draw is set for OpSubmit.
	Draw backend.DrawCommand
}

// Frame is the operations recorded between BeginFrame and EndFrame.
type Frame struct {
	Target backend.RenderTarget
	Width  int
	Height int
	Ops    []Op
}

// Draws returns the frame's draw commands in submission order.
func (f Frame) Draws() []backend.DrawCommand {
	var out []backend.DrawCommand
	for _, op := range f.Ops {
		if op.Type == OpSubmit {
			out = append(out, op.Draw)
		}
	}
	return out
}

// DrawsOf returns the draw commands that use tex.
func (f Frame) DrawsOf(tex backend.Texture) []backend.DrawCommand {
	var out []backend.DrawCommand
	for _, op := range f.Ops {
		if op.Type == OpSubmit && op.Draw.Texture == tex {
			out = append(out, op.Draw)
		}
	}
	return out
}
