package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/sprite"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const yamlScene = `
width: 64
height: 40
frames: 2
flip: horizontal
tint_method: recolourise
sprites:
  - name: box
    width: 8
    height: 8
    color: "#ff0000"
    dx: 4
    stretch_width: 16
    stretch_height: 16
transition:
  kind: boxout
  speed: 16
`

const tomlScene = `
width = 64
height = 40
smooth = true

[[sprites]]
width = 8
height = 4
color = "#00ff00"
transparency = 64

[transition]
kind = "fadein"
color = "#ffffff"
`

func TestLoadScene(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		s, err := LoadScene(writeFile(t, "scene.yaml", yamlScene))
		if err != nil {
			t.Fatal(err)
		}
		if s.Width != 64 || s.Height != 40 || s.Frames != 2 {
			t.Errorf("scene = %dx%d, %d frames", s.Width, s.Height, s.Frames)
		}
		if f, _ := s.flipMode(); f != sprite.FlipHorizontal {
			t.Errorf("flip = %v", f)
		}
		if m, _ := s.tintMethod(); m != sprite.TintReColourise {
			t.Errorf("tint method = %v", m)
		}
		if len(s.Sprites) != 1 || s.Sprites[0].StretchWidth != 16 || s.Sprites[0].DX != 4 {
			t.Errorf("sprites = %+v", s.Sprites)
		}
		if s.Transition == nil || s.Transition.Kind != "boxout" {
			t.Errorf("transition = %+v", s.Transition)
		}
	})

	t.Run("toml", func(t *testing.T) {
		s, err := LoadScene(writeFile(t, "scene.toml", tomlScene))
		if err != nil {
			t.Fatal(err)
		}
		if !s.Smooth || s.Frames != 1 {
			t.Errorf("smooth = %v, frames = %d", s.Smooth, s.Frames)
		}
		if len(s.Sprites) != 1 || s.Sprites[0].Name != "sprite0" || s.Sprites[0].Transparency != 64 {
			t.Errorf("sprites = %+v", s.Sprites)
		}
		if s.Transition == nil || s.Transition.Kind != "fadein" {
			t.Errorf("transition = %+v", s.Transition)
		}
	})
}

func TestLoadSceneInvalid(t *testing.T) {
	tests := []struct {
		name, file, content string
	}{
		{"format", "scene.json", "{}"},
		{"flip", "scene.yaml", "flip: sideways\n"},
		{"tint method", "scene.yaml", "tint_method: sepia\n"},
		{"sprite size", "scene.yaml", "sprites:\n  - name: empty\n"},
		{"colour", "scene.yaml", "sprites:\n  - {width: 1, height: 1, color: red}\n"},
		{"transition", "scene.toml", "[transition]\nkind = \"spin\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScene(writeFile(t, tt.file, tt.content))
			if !errors.Is(err, errInvalidScene) {
				t.Errorf("error = %v, want errInvalidScene", err)
			}
		})
	}
}

func TestParseColor(t *testing.T) {
	if c, err := parseColor("#102030"); err != nil || c != [3]uint8{0x10, 0x20, 0x30} {
		t.Errorf("parseColor = %v, %v", c, err)
	}
	if c, err := parseColor(""); err != nil || c != [3]uint8{} {
		t.Errorf("parseColor(\"\") = %v, %v", c, err)
	}
}

func TestRun(t *testing.T) {
	scene := &Scene{
		Width:      32,
		Height:     20,
		Frames:     2,
		Transition: &TransitionSpec{Kind: "fadeout", Speed: 64},

		Sprites: []SpriteSpec{
			{Name: "a", Width: 8, Height: 8, Color: "#ff0000", DX: 4},
			{Name: "b", Width: 4, Height: 4, Color: "#0000ff", X: 10, Y: 10, Tint: "#00ff00", Saturation: 256},
		},
	}
	dir := t.TempDir()
	n, err := run(scene, "software", dir)
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	// Two frames, then fade levels 1 and 129 and the final black frame.
	if n != 5 {
		t.Errorf("written = %d, want 5", n)
	}
	for _, name := range []string{"frame-000.png", "frame-001.png", "fadeout-002.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Error(err)
		}
	}
}

func TestRunUnknownBackend(t *testing.T) {
	if _, err := run(DefaultScene(), "vulkan9", t.TempDir()); err == nil {
		t.Error("run() with an unknown backend succeeded")
	}
}
