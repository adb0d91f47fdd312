package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/sprite"
)

// Scene describes what the demo renders.
type Scene struct {
	Width      int    `yaml:"width" toml:"width"`
	Height     int    `yaml:"height" toml:"height"`
	Smooth     bool   `yaml:"smooth" toml:"smooth"`
	TintMethod string `yaml:"tint_method" toml:"tint_method"`
	MaxTexture int    `yaml:"max_texture" toml:"max_texture"`
	Frames     int    `yaml:"frames" toml:"frames"`
	Flip       string `yaml:"flip" toml:"flip"`
	ScreenTint string `yaml:"screen_tint" toml:"screen_tint"`
	Workers    int    `yaml:"workers" toml:"workers"`

	Sprites    []SpriteSpec    `yaml:"sprites" toml:"sprites"`
	Transition *TransitionSpec `yaml:"transition" toml:"transition"`
}

// SpriteSpec is one drawable and where it moves.
type SpriteSpec struct {
	Name   string `yaml:"name" toml:"name"`
	Image  string `yaml:"image" toml:"image"`
	Width  int    `yaml:"width" toml:"width"`
	Height int    `yaml:"height" toml:"height"`
	Color  string `yaml:"color" toml:"color"`

	X  int `yaml:"x" toml:"x"`
	Y  int `yaml:"y" toml:"y"`
	DX int `yaml:"dx" toml:"dx"`
	DY int `yaml:"dy" toml:"dy"`

	StretchWidth  int    `yaml:"stretch_width" toml:"stretch_width"`
	StretchHeight int    `yaml:"stretch_height" toml:"stretch_height"`
	Resample      bool   `yaml:"resample" toml:"resample"`
	Transparency  int    `yaml:"transparency" toml:"transparency"`
	Flipped       bool   `yaml:"flipped" toml:"flipped"`
	Tint          string `yaml:"tint" toml:"tint"`
	Saturation    int    `yaml:"saturation" toml:"saturation"`
	Light         int    `yaml:"light" toml:"light"`
}

// TransitionSpec selects the effect played after the frames.
type TransitionSpec struct {
	Kind    string `yaml:"kind" toml:"kind"`
	Speed   int    `yaml:"speed" toml:"speed"`
	Color   string `yaml:"color" toml:"color"`
	DelayMS int    `yaml:"delay_ms" toml:"delay_ms"`
}

var errInvalidScene = errors.New("spritedemo: invalid scene")

// DefaultScene is rendered when no scene file is given.
func DefaultScene() *Scene {
	return &Scene{
		Width:      sprite.DefaultNativeWidth,
		Height:     sprite.DefaultNativeHeight,
		Frames:     4,
		Transition: &TransitionSpec{Kind: "fadeout", Speed: 16, Color: "#000000"},

		Sprites: []SpriteSpec{
			{Name: "block", Width: 48, Height: 32, Color: "#e04030", X: 20, Y: 30, DX: 12},
			{Name: "ghost", Width: 40, Height: 40, Color: "#40c0e0", X: 200, Y: 120, DY: -8, Transparency: 96, Flipped: true},
			{Name: "wide", Width: 16, Height: 16, Color: "#f0d020", X: 100, Y: 150, StretchWidth: 96, StretchHeight: 24, Tint: "#00ff80", Saturation: 200},
		},
	}
}

// LoadScene reads a scene from a YAML or TOML file, picked by extension.
func LoadScene(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s := &Scene{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, s)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, s)
	default:
		return nil, fmt.Errorf("%w: unknown scene format %q", errInvalidScene, filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("spritedemo: parse %s: %w", path, err)
	}
	if err := s.normalize(); err != nil {
		return nil, err
	}
	return s, nil
}

// normalize fills defaults and checks the values the compositor would
// reject later with a less helpful error.
func (s *Scene) normalize() error {
	if s.Width <= 0 || s.Height <= 0 {
		s.Width, s.Height = sprite.DefaultNativeWidth, sprite.DefaultNativeHeight
	}
	if s.Frames <= 0 {
		s.Frames = 1
	}
	if _, err := s.flipMode(); err != nil {
		return err
	}
	if _, err := s.tintMethod(); err != nil {
		return err
	}
	for i := range s.Sprites {
		sp := &s.Sprites[i]
		if sp.Name == "" {
			sp.Name = fmt.Sprintf("sprite%d", i)
		}
		if sp.Image == "" && (sp.Width <= 0 || sp.Height <= 0) {
			return fmt.Errorf("%w: %s needs an image or a size", errInvalidScene, sp.Name)
		}
		for _, c := range []string{sp.Color, sp.Tint} {
			if _, err := parseColor(c); err != nil {
				return fmt.Errorf("%w: %s: %w", errInvalidScene, sp.Name, err)
			}
		}
	}
	if t := s.Transition; t != nil {
		switch t.Kind {
		case "fadeout", "fadein", "boxout", "boxin":
		default:
			return fmt.Errorf("%w: unknown transition %q", errInvalidScene, t.Kind)
		}
		if _, err := parseColor(t.Color); err != nil {
			return fmt.Errorf("%w: transition: %w", errInvalidScene, err)
		}
	}
	_, err := parseColor(s.ScreenTint)
	return err
}

func (s *Scene) flipMode() (sprite.FlipMode, error) {
	for _, f := range []sprite.FlipMode{sprite.FlipNone, sprite.FlipHorizontal, sprite.FlipVertical, sprite.FlipBoth} {
		if s.Flip == f.String() {
			return f, nil
		}
	}
	if s.Flip == "" {
		return sprite.FlipNone, nil
	}
	return sprite.FlipNone, fmt.Errorf("%w: unknown flip %q", errInvalidScene, s.Flip)
}

func (s *Scene) tintMethod() (sprite.TintMethod, error) {
	switch s.TintMethod {
	case "", sprite.TintColorize.String():
		return sprite.TintColorize, nil
	case sprite.TintReColourise.String():
		return sprite.TintReColourise, nil
	}
	return sprite.TintColorize, fmt.Errorf("%w: unknown tint method %q", errInvalidScene, s.TintMethod)
}

// parseColor parses a "#rrggbb" colour. The empty string is black.
func parseColor(hex string) ([3]uint8, error) {
	if hex == "" {
		return [3]uint8{}, nil
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return [3]uint8{}, err
	}
	r, g, b := c.RGB255()
	return [3]uint8{r, g, b}, nil
}
