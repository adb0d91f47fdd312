// Command spritedemo renders a scene through the sprite compositor and
// writes every presented frame as a PNG.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/gogpu/sprite"
	"github.com/gogpu/sprite/backend"
	_ "github.com/gogpu/sprite/backend/gpu"
	_ "github.com/gogpu/sprite/backend/recording"
	"github.com/gogpu/sprite/backend/software"
)

func main() {
	var (
		config      = flag.String("config", "", "scene file (.yaml or .toml); built-in scene if empty")
		output      = flag.String("output", "frames", "output directory")
		backendName = flag.String("backend", backend.BackendSoftware, "backend to draw with")
		workers     = flag.Int("workers", 0, "software backend shading goroutines")
		verbose     = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	sprite.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	scene := DefaultScene()
	if *config != "" {
		var err error
		if scene, err = LoadScene(*config); err != nil {
			log.Fatalf("Failed to load scene: %v", err)
		}
	}

	if *workers > 0 {
		scene.Workers = *workers
	}
	n, err := run(scene, *backendName, *output)
	if err != nil {
		log.Fatalf("Failed to render: %v", err)
	}
	log.Printf("Rendered %d frames to %s (%dx%d)\n", n, *output, scene.Width, scene.Height)
}

func newBackend(name string, maxTexture, workers int) (backend.Backend, error) {
	if name == backend.BackendSoftware {
		opts := []software.Option{software.WithWorkers(workers)}
		if maxTexture > 0 {
			opts = append(opts, software.WithMaxTextureSize(maxTexture, maxTexture))
		}
		return software.New(opts...), nil
	}
	if be := backend.Get(name); be != nil {
		return be, nil
	}
	return nil, fmt.Errorf("unknown backend %q (available: %s)", name, strings.Join(backend.Available(), ", "))
}

// demo holds a running scene.
type demo struct {
	scene   *Scene
	c       *sprite.Compositor
	sprites []sprite.Drawable
	frame   int
	outDir  string
	written int
	canRead bool
}

func run(scene *Scene, backendName, outDir string) (int, error) {
	be, err := newBackend(backendName, scene.MaxTexture, scene.Workers)
	if err != nil {
		return 0, err
	}
	flip, _ := scene.flipMode()
	tint, _ := scene.tintMethod()

	d := &demo{scene: scene, outDir: outDir, canRead: true}
	c, err := sprite.New(
		sprite.WithBackend(be),
		sprite.WithNativeSize(scene.Width, scene.Height),
		sprite.WithSmoothScaling(scene.Smooth),
		sprite.WithTintMethod(tint),
		sprite.WithDrawScreen(d.list),
	)
	if err != nil {
		return 0, err
	}
	defer c.Close()
	d.c = c

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return 0, err
	}
	if err := d.load(); err != nil {
		return 0, err
	}

	for d.frame = 0; d.frame < scene.Frames; d.frame++ {
		d.list()
		if err := c.RenderFrame(flip); err != nil {
			return d.written, err
		}
		if err := d.save(fmt.Sprintf("frame-%03d.png", d.frame)); err != nil {
			return d.written, err
		}
	}
	if scene.Transition != nil {
		if err := d.transition(scene.Transition); err != nil {
			return d.written, err
		}
	}
	slog.Debug("spritedemo: pool", "stats", c.PoolStats().String())
	return d.written, nil
}

// load creates a drawable per sprite in the scene.
func (d *demo) load() error {
	tint, _ := parseColor(d.scene.ScreenTint)
	if err := d.c.SetScreenTint(tint[0], tint[1], tint[2]); err != nil {
		return err
	}
	for _, sp := range d.scene.Sprites {
		bm, hasAlpha, err := spriteBitmap(sp)
		if err != nil {
			return fmt.Errorf("%s: %w", sp.Name, err)
		}
		dr, err := d.c.CreateDrawable(bm, hasAlpha, false)
		if err != nil {
			return fmt.Errorf("%s: %w", sp.Name, err)
		}
		if err := d.style(dr, sp); err != nil {
			return fmt.Errorf("%s: %w", sp.Name, err)
		}
		d.sprites = append(d.sprites, dr)
	}
	return nil
}

func (d *demo) style(dr sprite.Drawable, sp SpriteSpec) error {
	if err := d.c.SetTransparency(dr, sp.Transparency); err != nil {
		return err
	}
	if err := d.c.SetFlipped(dr, sp.Flipped); err != nil {
		return err
	}
	if sp.StretchWidth > 0 && sp.StretchHeight > 0 {
		if err := d.c.SetStretch(dr, sp.StretchWidth, sp.StretchHeight, sp.Resample); err != nil {
			return err
		}
	}
	if sp.Tint != "" {
		t, _ := parseColor(sp.Tint)
		if err := d.c.SetTint(dr, t[0], t[1], t[2], sp.Saturation); err != nil {
			return err
		}
	}
	return d.c.SetLight(dr, sp.Light)
}

// list appends every sprite at its position for the current frame.
func (d *demo) list() {
	for i, sp := range d.scene.Sprites {
		x, y := sp.X+sp.DX*d.frame, sp.Y+sp.DY*d.frame
		if err := d.c.Append(x, y, d.sprites[i]); err != nil {
			slog.Warn("spritedemo: append", "sprite", sp.Name, "err", err)
		}
	}
}

func (d *demo) transition(ts *TransitionSpec) error {
	col, _ := parseColor(ts.Color)
	delay := time.Duration(ts.DelayMS) * time.Millisecond

	var (
		tr  *sprite.Transition
		err error
	)
	switch ts.Kind {
	case "fadeout":
		tr, err = d.c.FadeOut(ts.Speed, col[0], col[1], col[2])
	case "fadein":
		tr, err = d.c.FadeIn(ts.Speed, col[0], col[1], col[2])
	case "boxout":
		tr, err = d.c.BoxOut(ts.Speed, delay)
	case "boxin":
		tr, err = d.c.BoxIn(ts.Speed, delay)
	}
	if err != nil {
		return err
	}

	var bar *progressbar.ProgressBar
	if term.IsTerminal(int(os.Stdout.Fd())) {
		bar = progressbar.Default(100, tr.Name())
		defer bar.Close()
	}
	for i := 0; ; i++ {
		done, err := tr.Advance(tr.Period())
		if err != nil {
			return err
		}
		if err := d.save(fmt.Sprintf("%s-%03d.png", strings.ReplaceAll(tr.Name(), " ", ""), i)); err != nil {
			return err
		}
		if bar != nil {
			_ = bar.Set(int(tr.Progress() * 100))
		}
		if done {
			return nil
		}
	}
}

// save writes the last presented frame. Backends that cannot read pixels
// back render without output.
func (d *demo) save(name string) error {
	if !d.canRead {
		return nil
	}
	img, err := d.c.Screenshot()
	if errors.Is(err, sprite.ErrNotSupported) {
		slog.Warn("spritedemo: backend cannot read pixels; no frames written")
		d.canRead = false
		return nil
	}
	if err != nil {
		return err
	}
	if err := writePNG(filepath.Join(d.outDir, name), img); err != nil {
		return err
	}
	d.written++
	return nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// spriteBitmap loads sp.Image, or builds a solid block with a darker
// one-pixel border.
func spriteBitmap(sp SpriteSpec) (*sprite.Bitmap, bool, error) {
	if sp.Image != "" {
		f, err := os.Open(sp.Image)
		if err != nil {
			return nil, false, err
		}
		defer f.Close()
		img, _, err := image.Decode(f)
		if err != nil {
			return nil, false, err
		}
		return sprite.BitmapFromImage(img), true, nil
	}

	col, _ := parseColor(sp.Color)
	bm, err := sprite.NewBitmap(sp.Width, sp.Height, 32)
	if err != nil {
		return nil, false, err
	}
	for y := range sp.Height {
		for x := range sp.Width {
			r, g, b := col[0], col[1], col[2]
			if x == 0 || y == 0 || x == sp.Width-1 || y == sp.Height-1 {
				r, g, b = r/2, g/2, b/2
			}
			bm.SetRGBA(x, y, r, g, b, 255)
		}
	}
	return bm, false, nil
}
