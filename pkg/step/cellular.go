package step

import (
	"github.com/ddurio/ProMage2-sub001/pkg/ranges"
	"github.com/ddurio/ProMage2-sub001/pkg/tile"
	"github.com/ddurio/ProMage2-sub001/pkg/tilemap"
)

// KindCellularAutomata mutates cells based on how many neighbors match.
const KindCellularAutomata = "CellularAutomata"

// CellularAutomata attribute names.
const (
	AttrRadius            = "radius"
	AttrChancePerTile     = "chancePerTile"
	AttrIfNeighborType    = "ifNeighborType"
	AttrIfNeighborHasTags = "ifNeighborHasTags"
	AttrIfNumNeighbors    = "ifNumNeighbors"
)

func init() {
	Register(KindCellularAutomata, func(b *Base) Step {
		s := &CellularAutomata{Base: b}
		b.RadiusRange(AttrRadius, "1", &s.Radius)
		b.Float(AttrChancePerTile, "1", &s.ChancePerTile)
		b.setCheck(AttrChancePerTile, func() error { return checkProbability(AttrChancePerTile, s.ChancePerTile) })
		b.TileType(AttrIfNeighborType, "", &s.NeighborType)
		b.Tags(AttrIfNeighborHasTags, "", &s.NeighborTags)
		b.IntRange(AttrIfNumNeighbors, "1~999", &s.NumNeighbors)
		return s
	})
}

// CellularAutomata selects every eligible cell whose count of matching
// neighbors falls within NumNeighbors, then mutates each selected cell with
// probability ChancePerTile.
//
// Neighbors are the Chebyshev ring between Radius.Min and Radius.Max: a cell
// at offset (dx, dy) counts when max(|dx|,|dy|) <= Radius.Max and it is not
// strictly closer than Radius.Min on both axes.
type CellularAutomata struct {
	*Base
	Radius        ranges.Int
	ChancePerTile float64
	NeighborType  *tile.Definition
	NeighborTags  tile.TagSet
	NumNeighbors  ranges.Int
}

type neighborState uint8

const (
	neighborUnknown neighborState = iota
	neighborMatch
	neighborMiss
)

// RunOnce performs one automaton generation. Selection completes before any
// cell is mutated.
func (s *CellularAutomata) RunOnce(m *tilemap.Map) {
	cache := make([]neighborState, m.Len())
	var selected []*tilemap.Tile
	for i := 0; i < m.Len(); i++ {
		t := m.Tile(i)
		if !s.IsTileValid(m, t) {
			continue
		}
		if s.NumNeighbors.Contains(s.countNeighbors(m, t.X, t.Y, cache)) {
			selected = append(selected, t)
		}
	}

	src := m.RNG()
	for _, t := range selected {
		if src.Chance(s.ChancePerTile) {
			s.ChangeTile(m, t)
		}
	}
}

// CountNeighbors returns the number of matching neighbors of (x, y).
func (s *CellularAutomata) CountNeighbors(m *tilemap.Map, x, y int) int {
	return s.countNeighbors(m, x, y, make([]neighborState, m.Len()))
}

func (s *CellularAutomata) countNeighbors(m *tilemap.Map, x, y int, cache []neighborState) int {
	lo, hi := s.Radius.Min, s.Radius.Max
	count := 0
	for dy := -hi; dy <= hi; dy++ {
		for dx := -hi; dx <= hi; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if abs(dx) < lo && abs(dy) < lo {
				continue
			}
			n := m.At(x+dx, y+dy)
			if n == nil {
				continue
			}
			if cache[n.Index] == neighborUnknown {
				cache[n.Index] = neighborMiss
				if s.neighborMatches(n) {
					cache[n.Index] = neighborMatch
				}
			}
			if cache[n.Index] == neighborMatch {
				count++
			}
		}
	}
	return count
}

func (s *CellularAutomata) neighborMatches(t *tilemap.Tile) bool {
	if s.NeighborType != nil && t.TypeName() != s.NeighborType.Name {
		return false
	}
	return s.NeighborTags.Matches(&t.Tags)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
