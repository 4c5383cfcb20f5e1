package step

import (
	"github.com/ddurio/ProMage2-sub001/pkg/ranges"
	"github.com/ddurio/ProMage2-sub001/pkg/tilemap"
)

// KindSprinkle scatters results onto random eligible tiles.
const KindSprinkle = "Sprinkle"

// AttrCount is the number of tiles a Sprinkle changes.
const AttrCount = "count"

func init() {
	Register(KindSprinkle, func(b *Base) Step {
		s := &Sprinkle{Base: b}
		b.IntRange(AttrCount, "1", &s.Count)
		return s
	})
}

// Sprinkle changes Count randomly chosen eligible tiles.
type Sprinkle struct {
	*Base
	Count ranges.Int
}

// RunOnce draws a count, then for each unit samples flat tile indices until an
// eligible tile is found. The retry budget per unit equals the tile count;
// exhausting it abandons the remaining units.
func (s *Sprinkle) RunOnce(m *tilemap.Map) {
	src := m.RNG()
	count := s.Count.Draw(src)
	for i := 0; i < count; i++ {
		placed := false
		for attempt := 0; attempt < m.Len(); attempt++ {
			t := m.Tile(src.IntLessThan(m.Len()))
			if s.IsTileValid(m, t) {
				s.ChangeTile(m, t)
				placed = true
				break
			}
		}
		if !placed {
			s.Warn("sprinkle retries exhausted", "placed", i, "requested", count, "attempts", m.Len())
			return
		}
	}
}
