package step

import (
	"math"

	"github.com/aquilax/go-perlin"

	"github.com/ddurio/ProMage2-sub001/pkg/errors"
	"github.com/ddurio/ProMage2-sub001/pkg/ranges"
	"github.com/ddurio/ProMage2-sub001/pkg/tilemap"
)

// KindPerlinNoise paints a coherent noise heat map.
const KindPerlinNoise = "PerlinNoise"

// PerlinNoise attribute names.
const (
	AttrOctaves     = "octaves"
	AttrPersistence = "persistence"
	AttrOctaveScale = "scale"
	AttrGridSize    = "gridSize"
	AttrSeed        = "seed"
)

// NoiseHeatMap is the heat map PerlinNoise writes.
const NoiseHeatMap = "Noise"

func init() {
	Register(KindPerlinNoise, func(b *Base) Step {
		s := &PerlinNoise{Base: b}
		b.IntRange(AttrOctaves, "4", &s.Octaves)
		b.FloatRange(AttrPersistence, "0.5", &s.Persistence)
		b.FloatRange(AttrOctaveScale, "2", &s.OctaveScale)
		b.FloatRange(AttrGridSize, "10", &s.GridSize)
		b.IntRange(AttrSeed, "0~2147483647", &s.Seed)
		return s
	})
}

// PerlinNoise samples multi-octave noise at every cell center, stores it in
// the "Noise" heat map (normalized to -1~1) and then applies results to the
// cells that are eligible given that fresh value.
type PerlinNoise struct {
	*Base
	Octaves     ranges.Int
	Persistence ranges.Float
	OctaveScale ranges.Float
	GridSize    ranges.Float
	Seed        ranges.Int
}

// Validate rejects parameters that would make the noise undefined.
func (s *PerlinNoise) Validate() error {
	switch {
	case s.Octaves.Min < 1:
		return errors.New(errors.ErrCodeInvalidAttribute, "%s must be at least 1", AttrOctaves)
	case s.Persistence.Min <= 0:
		return errors.New(errors.ErrCodeInvalidAttribute, "%s must be positive", AttrPersistence)
	case s.OctaveScale.Min <= 0:
		return errors.New(errors.ErrCodeInvalidAttribute, "%s must be positive", AttrOctaveScale)
	case s.GridSize.Min <= 0:
		return errors.New(errors.ErrCodeInvalidAttribute, "%s must be positive", AttrGridSize)
	}
	return nil
}

// noiseField is one invocation's fixed noise parameters.
type noiseField struct {
	gen      *perlin.Perlin
	gridSize float64
	norm     float64
}

func (f noiseField) at(x, y int) float64 {
	v := f.gen.Noise2D((float64(x)+0.5)/f.gridSize, (float64(y)+0.5)/f.gridSize) / f.norm
	return math.Max(-1, math.Min(1, v))
}

func (s *PerlinNoise) field(m *tilemap.Map) noiseField {
	src := m.RNG()
	octaves := s.Octaves.Draw(src)
	persistence := s.Persistence.Draw(src)
	scale := s.OctaveScale.Draw(src)
	gridSize := s.GridSize.Draw(src)
	seed := s.Seed.Draw(src)

	// The octave sum weighs octave i by persistence^i; dividing by the total
	// weight keeps the result in -1~1.
	norm, amp := 0.0, 1.0
	for i := 0; i < octaves; i++ {
		norm += amp
		amp *= persistence
	}
	return noiseField{
		gen:      perlin.NewPerlin(1/persistence, scale, int32(octaves), int64(seed)),
		gridSize: gridSize,
		norm:     norm,
	}
}

// RunOnce draws the noise parameters once and paints every cell.
func (s *PerlinNoise) RunOnce(m *tilemap.Map) {
	f := s.field(m)
	for i := 0; i < m.Len(); i++ {
		t := m.Tile(i)
		t.SetHeat(NoiseHeatMap, f.at(t.X, t.Y))
		if s.IsTileValid(m, t) {
			s.ChangeTile(m, t)
		}
	}
}
