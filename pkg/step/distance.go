package step

import (
	"github.com/ddurio/ProMage2-sub001/pkg/errors"
	"github.com/ddurio/ProMage2-sub001/pkg/ranges"
	"github.com/ddurio/ProMage2-sub001/pkg/tile"
	"github.com/ddurio/ProMage2-sub001/pkg/tilemap"
)

// KindDistanceField writes a flood-fill distance heat map.
const KindDistanceField = "DistanceField"

// DistanceField attribute names.
const (
	AttrMovementType = "movementType"
	AttrHeatMapName  = "heatMapName"
	AttrIfDistance   = "ifDistance"
)

// Unreached is the distance of cells the flood fill never reaches.
const Unreached = 999999

// DefaultDistanceHeatMap is the heat map a DistanceField writes by default.
const DefaultDistanceHeatMap = "Distance"

func init() {
	Register(KindDistanceField, func(b *Base) Step {
		s := &DistanceField{Base: b}
		b.Movement(AttrMovementType, string(tile.Walk), &s.Movement)
		b.String(AttrHeatMapName, DefaultDistanceHeatMap, &s.HeatMapName)
		b.setCheck(AttrHeatMapName, func() error { return errors.ValidateName("heat map", s.HeatMapName) })
		b.bind(AttrIfDistance, "", func(text string) error {
			if text == "" {
				s.IfDistance = nil
				return nil
			}
			r, err := ranges.ParseInt(text)
			if err != nil {
				return err
			}
			s.IfDistance = &r
			return nil
		})
		return s
	})
}

// DistanceField runs a multi-source breadth-first search over the four
// cardinal directions. Seeds are eligible cells that permit Movement; the
// search only enters cells that permit Movement.
//
// Every cell receives its distance in the HeatMapName heat map (Unreached
// when the search never got there). When IfDistance is set, results are
// applied to reached cells whose distance lies in it.
type DistanceField struct {
	*Base
	Movement    tile.Movement
	HeatMapName string
	IfDistance  *ranges.Int
}

var cardinal = [4][2]int{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}

// Distances computes the distance of every cell from the nearest seed.
func (s *DistanceField) Distances(m *tilemap.Map) []int {
	dist := make([]int, m.Len())
	open := make([]bool, m.Len())
	queue := make([]int, 0, m.Len())

	for i := range dist {
		dist[i] = Unreached
		t := m.Tile(i)
		if s.passable(t) && s.IsTileValid(m, t) {
			dist[i] = 0
			open[i] = true
			queue = append(queue, i)
		}
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		open[cur] = false

		x, y := m.Coords(cur)
		for _, d := range cardinal {
			n := m.At(x+d[0], y+d[1])
			if n == nil {
				continue
			}
			cand := dist[cur] + 1
			if cand >= dist[n.Index] || !s.passable(n) {
				continue
			}
			dist[n.Index] = cand
			if !open[n.Index] {
				open[n.Index] = true
				queue = append(queue, n.Index)
			}
		}
	}
	return dist
}

func (s *DistanceField) passable(t *tilemap.Tile) bool {
	return t.Type != nil && t.Type.Allows(s.Movement)
}

// RunOnce writes the distance heat map and applies results within IfDistance.
func (s *DistanceField) RunOnce(m *tilemap.Map) {
	dist := s.Distances(m)
	for i, d := range dist {
		m.Tile(i).SetHeat(s.HeatMapName, float64(d))
	}
	if s.IfDistance == nil {
		return
	}
	for i, d := range dist {
		if d != Unreached && s.IfDistance.Contains(d) {
			s.ChangeTile(m, m.Tile(i))
		}
	}
}
