package geom

import (
	"image"
	"math"
	"testing"
)

const eps = 1e-4

func near(a, b float32) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= eps
}

func TestIdentityMultiply(t *testing.T) {
	m := Transform2D(3, -4, 2, 0.5, 0.3)
	if got := Identity().Multiply(m); !got.ApproxEqual(m, eps) {
		t.Errorf("I*M = %v, want %v", got, m)
	}
	if got := m.Multiply(Identity()); !got.ApproxEqual(m, eps) {
		t.Errorf("M*I = %v, want %v", got, m)
	}
	if !Identity().IsIdentity() {
		t.Error("Identity().IsIdentity() = false")
	}
}

func TestTransformPoint(t *testing.T) {
	tests := []struct {
		name   string
		m      Matrix
		x, y   float32
		wx, wy float32
	}{
		{"identity", Identity(), 5, 7, 5, 7},
		{"translate", Translate(10, -3, 0), 1, 1, 11, -2},
		{"scale", Scale(2, 3, 1), 4, 5, 8, 15},
		{"rotate 90", RotateZ(math.Pi / 2), 1, 0, 0, 1},
		{"rotate 180", RotateZ(math.Pi), 1, 2, -1, -2},
		{"sprite quad corner", Transform2D(100, 50, 32, 16, 0), 1, -1, 132, 34},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gx, gy := tt.m.TransformPoint(tt.x, tt.y)
			if !near(gx, tt.wx) || !near(gy, tt.wy) {
				t.Errorf("TransformPoint(%v, %v) = (%v, %v), want (%v, %v)", tt.x, tt.y, gx, gy, tt.wx, tt.wy)
			}
		})
	}
}

func TestMultiplyAppliesLeftFirst(t *testing.T) {
	// Scale then translate: (1,1) -> (2,2) -> (12,2).
	m := Scale(2, 2, 1).Multiply(Translate(10, 0, 0))
	x, y := m.TransformPoint(1, 1)
	if !near(x, 12) || !near(y, 2) {
		t.Errorf("got (%v, %v), want (12, 2)", x, y)
	}
	// Translate then scale: (1,1) -> (11,1) -> (22,2).
	m = Translate(10, 0, 0).Multiply(Scale(2, 2, 1))
	x, y = m.TransformPoint(1, 1)
	if !near(x, 22) || !near(y, 2) {
		t.Errorf("got (%v, %v), want (22, 2)", x, y)
	}
}

func TestBatchMatrixCentredOffset(t *testing.T) {
	vp := image.Rect(0, 0, 320, 200)
	tr := SpriteTransform{X: 10, Y: 20, ScaleX: 2, ScaleY: 1}
	m := BatchMatrix(vp, tr, 320, 200)

	// offX = (320 - 2*320)/2 = -160, offY = 0
	// translation = (10 + 0 + 160, -(20 + 0 - 0)) = (170, -20)
	x, y := m.TransformPoint(0, 0)
	if !near(x, 170) || !near(y, -20) {
		t.Errorf("origin maps to (%v, %v), want (170, -20)", x, y)
	}
	x, y = m.TransformPoint(1, 0)
	if !near(x, 172) || !near(y, -20) {
		t.Errorf("(1,0) maps to (%v, %v), want (172, -20)", x, y)
	}
}

func TestBatchMatrixViewportOffset(t *testing.T) {
	vp := image.Rect(40, 30, 200, 130)
	m := BatchMatrix(vp, DefaultSpriteTransform(), 320, 200)
	x, y := m.TransformPoint(0, 0)
	if !near(x, 40) || !near(y, -30) {
		t.Errorf("origin maps to (%v, %v), want (40, -30)", x, y)
	}
}

func TestCompositionOrderMatters(t *testing.T) {
	const rot = math.Pi / 2
	rotateScaleTranslate := RotateZ(rot).Multiply(Scale(2, 1, 1)).Multiply(Translate(10, 0, 0))
	translateRotateScale := Translate(10, 0, 0).Multiply(RotateZ(rot)).Multiply(Scale(2, 1, 1))

	if !rotateScaleTranslate.ApproxEqual(Transform2D(10, 0, 2, 1, rot), eps) {
		t.Fatal("Transform2D does not compose rotate, scale, translate")
	}

	ax, ay := rotateScaleTranslate.TransformPoint(1, 0)
	bx, by := translateRotateScale.TransformPoint(1, 0)
	if !near(ax, 10) || !near(ay, 1) {
		t.Errorf("rotate-scale-translate (1,0) = (%v, %v), want (10, 1)", ax, ay)
	}
	if near(ax, bx) && near(ay, by) {
		t.Errorf("composition order had no effect: both map (1,0) to (%v, %v)", ax, ay)
	}

	// Without rotation the translation part is still order dependent once
	// scale is involved, but the origin is not: check the rotated origin.
	ox, oy := translateRotateScale.TransformPoint(0, 0)
	if near(ox, 10) && near(oy, 0) {
		t.Errorf("translate-first origin should be rotated away from (10, 0), got (%v, %v)", ox, oy)
	}
}

func TestFloatsRowMajor(t *testing.T) {
	m := Translate(1, 2, 3)
	f := m.Floats()
	if f[12] != 1 || f[13] != 2 || f[14] != 3 || f[15] != 1 {
		t.Errorf("Floats() translation row = %v, want [1 2 3 1]", f[12:16])
	}
}

func BenchmarkTransform2D(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = Transform2D(float32(i), 3, 2, 2, 0.5)
	}
}
