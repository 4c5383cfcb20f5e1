package step

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ddurio/ProMage2-sub001/pkg/errors"
)

func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return name
}

func TestFromImageSinglePixel(t *testing.T) {
	env, _ := testEnv(t)
	env.BaseDir = t.TempDir()

	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	name := writePNG(t, env.BaseDir, "dot.png", img)

	m := newMap(t, env, 6, 4, "Wall", 2)
	Run(mustStep(t, KindFromImage, Source{AttrImageFilePath: name}, env), m)

	if got := m.Count("Floor"); got != 1 {
		t.Errorf("Floor count = %d, want 1", got)
	}
}

func TestFromImageIneligibleWarns(t *testing.T) {
	env, logs := testEnv(t)
	env.BaseDir = t.TempDir()

	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	name := writePNG(t, env.BaseDir, "block.png", img)

	m := newMap(t, env, 6, 6, "Wall", 2)
	Run(mustStep(t, KindFromImage, Source{AttrImageFilePath: name, AttrIfIsType: "Water"}, env), m)

	if got := m.Count("Wall"); got != 36 {
		t.Errorf("Wall count = %d, want 36 (no changes)", got)
	}
	if !strings.Contains(logs.String(), "image placement retries exhausted") {
		t.Errorf("expected placement warning, got:\n%s", logs.String())
	}
}

func TestFromImageLargerThanGrid(t *testing.T) {
	env, logs := testEnv(t)
	env.BaseDir = t.TempDir()
	name := writePNG(t, env.BaseDir, "big.png", image.NewNRGBA(image.Rect(0, 0, 8, 1)))

	m := newMap(t, env, 4, 4, "Wall", 2)
	Run(mustStep(t, KindFromImage, Source{AttrImageFilePath: name, AttrRotations: "0"}, env), m)

	if !strings.Contains(logs.String(), "image placement retries exhausted") {
		t.Errorf("out-of-grid footprint should never be accepted, logs:\n%s", logs.String())
	}
}

func TestFromImageColorsAndAlpha(t *testing.T) {
	env, logs := testEnv(t)
	env.BaseDir = t.TempDir()

	img := image.NewNRGBA(image.Rect(0, 0, 4, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 0, G: 0, B: 255, A: 255}) // Water
	img.SetNRGBA(1, 0, color.NRGBA{R: 255, G: 0, B: 0, A: 255}) // Lava
	img.SetNRGBA(2, 0, color.NRGBA{R: 1, G: 2, B: 3, A: 255})   // unmapped
	img.SetNRGBA(3, 0, color.NRGBA{R: 0, G: 0, B: 255, A: 0})   // transparent
	name := writePNG(t, env.BaseDir, "strip.png", img)

	m := newMap(t, env, 4, 1, "Wall", 2)
	Run(mustStep(t, KindFromImage, Source{AttrImageFilePath: name, AttrRotations: "0"}, env), m)

	want := []string{"Water", "Lava", "Wall", "Wall"}
	for x, w := range want {
		if got := m.At(x, 0).TypeName(); got != w {
			t.Errorf("tile %d = %s, want %s", x, got, w)
		}
	}
	if !strings.Contains(logs.String(), "1,2,3") {
		t.Errorf("expected unmapped color warning, got:\n%s", logs.String())
	}
}

func TestFromImageRotation(t *testing.T) {
	env, _ := testEnv(t)
	env.BaseDir = t.TempDir()

	img := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	for x := 0; x < 3; x++ {
		img.SetNRGBA(x, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	}
	name := writePNG(t, env.BaseDir, "bar.png", img)

	// A quarter turn makes the 3x1 bar fit a 1x3 grid.
	m := newMap(t, env, 1, 3, "Wall", 2)
	Run(mustStep(t, KindFromImage, Source{AttrImageFilePath: name, AttrRotations: "1"}, env), m)
	if got := m.Count("Floor"); got != 3 {
		t.Errorf("Floor count = %d, want 3", got)
	}
}

func TestFromImageErrors(t *testing.T) {
	env, _ := testEnv(t)
	env.BaseDir = t.TempDir()

	_, err := New(KindFromImage, Source{AttrImageFilePath: "missing.png"}, env, nil)
	if !errors.Is(err, errors.ErrCodeInvalidImage) {
		t.Errorf("missing file error = %v, want INVALID_IMAGE", err)
	}

	_, err = New(KindFromImage, Source{AttrImageFilePath: "../escape.png"}, env, nil)
	if !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("traversal error = %v, want INVALID_PATH", err)
	}
}

func TestFromImageReloadsOnPathChange(t *testing.T) {
	env, _ := testEnv(t)
	env.BaseDir = t.TempDir()

	white := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	white.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	blue := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	blue.SetNRGBA(0, 0, color.NRGBA{B: 255, A: 255})
	a := writePNG(t, env.BaseDir, "a.png", white)
	b := writePNG(t, env.BaseDir, "b.png", blue)

	s := mustStep(t, KindFromImage, Source{AttrImageFilePath: a}, env).(*FromImage)
	if err := s.SetAttribute(AttrImageFilePath, b); err != nil {
		t.Fatal(err)
	}
	m := newMap(t, env, 1, 1, "Wall", 1)
	Run(s, m)
	if got := m.Tile(0).TypeName(); got != "Water" {
		t.Errorf("tile = %s, want Water from reloaded image", got)
	}
}
