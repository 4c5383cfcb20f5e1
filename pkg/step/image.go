package step

import (
	"image"
	"path/filepath"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/ddurio/ProMage2-sub001/pkg/errors"
	"github.com/ddurio/ProMage2-sub001/pkg/ranges"
	"github.com/ddurio/ProMage2-sub001/pkg/tile"
	"github.com/ddurio/ProMage2-sub001/pkg/tilemap"
)

// KindFromImage stamps an image onto the map.
const KindFromImage = "FromImage"

// FromImage attribute names.
const (
	AttrImageFilePath = "imageFilePath"
	AttrAlignment     = "alignment"
	AttrRotations     = "rotations"
)

// MaxImagePlacementAttempts bounds the offset rejection sampling.
const MaxImagePlacementAttempts = 1000

func init() {
	Register(KindFromImage, func(b *Base) Step {
		s := &FromImage{Base: b, colors: make(map[string]*tile.Definition)}
		b.String(AttrImageFilePath, "", &s.ImageFilePath)
		b.Require(AttrImageFilePath)
		b.FloatRange(AttrAlignment, "0~1", &s.Alignment)
		b.IntRange(AttrRotations, "0~3", &s.Rotations)
		return s
	})
}

// FromImage maps image texels to tile types by color and stamps them.
//
// Each run draws a quarter-turn rotation count, then samples placement
// offsets until the whole image footprint lies on the grid over eligible
// cells. Texel alpha is the probability that the texel is stamped; its
// opaque color selects the tile type through the catalog's texel colors.
// Image row 0 lands on the topmost footprint row.
type FromImage struct {
	*Base
	ImageFilePath string
	Alignment     ranges.Float
	Rotations     ranges.Int

	img        *image.NRGBA
	loadedPath string
	colors     map[string]*tile.Definition
}

// Validate loads the configured image.
func (s *FromImage) Validate() error {
	return s.load()
}

func (s *FromImage) resolvedPath() string {
	if filepath.IsAbs(s.ImageFilePath) || s.env.BaseDir == "" {
		return s.ImageFilePath
	}
	return filepath.Join(s.env.BaseDir, s.ImageFilePath)
}

// load reads the image when the configured path differs from the loaded one.
func (s *FromImage) load() error {
	if s.img != nil && s.loadedPath == s.ImageFilePath {
		return nil
	}
	if err := errors.ValidatePath(s.ImageFilePath); err != nil {
		return err
	}
	img, err := imaging.Open(s.resolvedPath())
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidImage, err, "failed to load image %s", s.ImageFilePath)
	}
	s.img = imaging.Clone(img)
	s.loadedPath = s.ImageFilePath
	return nil
}

// SetImage replaces the loaded image, bypassing the file system.
func (s *FromImage) SetImage(img image.Image) {
	s.img = imaging.Clone(img)
	s.loadedPath = s.ImageFilePath
}

// RunOnce places and stamps the image once.
func (s *FromImage) RunOnce(m *tilemap.Map) {
	if err := s.load(); err != nil {
		s.Warn("image unavailable", "path", s.ImageFilePath, "err", err)
		return
	}
	src := m.RNG()

	img := s.img
	for r := s.Rotations.Draw(src) % 4; r > 0; r-- {
		img = imaging.Rotate90(img)
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	origin, ok := s.place(m, w, h)
	if !ok {
		s.Warn("image placement retries exhausted", "path", s.ImageFilePath, "attempts", MaxImagePlacementAttempts)
		return
	}

	for iy := 0; iy < h; iy++ {
		for ix := 0; ix < w; ix++ {
			c := img.NRGBAAt(bounds.Min.X+ix, bounds.Min.Y+iy)
			if c.A == 0 {
				continue
			}
			if !src.Chance(float64(c.A) / 255) {
				continue
			}
			typ, known := s.tileFor(c.R, c.G, c.B)
			if !known {
				continue
			}
			s.ChangeTileAs(m, m.At(origin.X+ix, origin.Y+iy), typ)
		}
	}
}

// place samples offsets until the w×h footprint is entirely on the grid and
// every cell under it is eligible.
func (s *FromImage) place(m *tilemap.Map, w, h int) (image.Point, bool) {
	src := m.RNG()
	for attempt := 0; attempt < MaxImagePlacementAttempts; attempt++ {
		ax := s.Alignment.Draw(src)
		ay := s.Alignment.Draw(src)
		p := image.Pt(int(ax*float64(m.Width()-w)), int(ay*float64(m.Height()-h)))
		if s.footprintValid(m, p, w, h) {
			return p, true
		}
	}
	return image.Point{}, false
}

func (s *FromImage) footprintValid(m *tilemap.Map, p image.Point, w, h int) bool {
	for y := p.Y; y < p.Y+h; y++ {
		for x := p.X; x < p.X+w; x++ {
			t := m.At(x, y)
			if t == nil || !s.IsTileValid(m, t) {
				return false
			}
		}
	}
	return true
}

// tileFor maps an opaque color to a tile type, memoizing lookups. Unknown
// colors are logged once.
func (s *FromImage) tileFor(r, g, b uint8) (*tile.Definition, bool) {
	key := tile.ColorKey(r, g, b)
	if typ, seen := s.colors[key]; seen {
		return typ, typ != nil
	}
	typ, ok := s.env.Tiles.ByTexel(key)
	if !ok {
		s.Warn("image color has no tile type", "color", key, "path", s.ImageFilePath)
	}
	s.colors[key] = typ
	return typ, ok
}
