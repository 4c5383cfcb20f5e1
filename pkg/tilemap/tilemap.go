// Package tilemap provides the 2D tile grid that generation steps operate on.
//
// A Map has fixed dimensions and a flat, row-major cell sequence addressable
// by index or by (x, y), with y=0 as the top row. Every cell carries a tile
// type, a tag set and a sparse map of named heat values. The Map owns the
// seeded random source all steps draw from while generating it.
package tilemap

import (
	"sort"

	"github.com/ddurio/ProMage2-sub001/pkg/errors"
	"github.com/ddurio/ProMage2-sub001/pkg/rng"
	"github.com/ddurio/ProMage2-sub001/pkg/tile"
)

// Tile is one cell of a Map.
type Tile struct {
	Index int
	X, Y  int
	Type  *tile.Definition
	Tags  tile.Tags
	heat  map[string]float64
}

// Heat returns the named heat value and whether it has been set.
func (t *Tile) Heat(name string) (float64, bool) {
	v, ok := t.heat[name]
	return v, ok
}

// SetHeat stores a named heat value.
func (t *Tile) SetHeat(name string, v float64) {
	if t.heat == nil {
		t.heat = make(map[string]float64, 1)
	}
	t.heat[name] = v
}

// HeatNames returns the names of every heat value set on the tile, sorted.
func (t *Tile) HeatNames() []string {
	names := make([]string, 0, len(t.heat))
	for name := range t.heat {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TypeName returns the tile's type name, or "" if unset.
func (t *Tile) TypeName() string {
	if t.Type == nil {
		return ""
	}
	return t.Type.Name
}

// Map is a fixed-size tile grid.
type Map struct {
	Name    string
	width   int
	height  int
	tiles   []Tile
	rng     *rng.Source
	catalog *tile.Catalog
}

// New creates a width×height map with every cell set to fill. The map takes
// ownership of src.
func New(name string, width, height int, fill *tile.Definition, catalog *tile.Catalog, src *rng.Source) (*Map, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "map dimensions must be positive, got %dx%d", width, height)
	}
	if catalog == nil {
		catalog = tile.Default()
	}
	if src == nil {
		src = rng.New(0)
	}
	m := &Map{
		Name:    name,
		width:   width,
		height:  height,
		tiles:   make([]Tile, width*height),
		rng:     src,
		catalog: catalog,
	}
	for i := range m.tiles {
		x, y := m.Coords(i)
		m.tiles[i] = Tile{Index: i, X: x, Y: y, Type: fill}
	}
	return m, nil
}

// Width returns the number of columns.
func (m *Map) Width() int { return m.width }

// Height returns the number of rows.
func (m *Map) Height() int { return m.height }

// Len returns the number of cells.
func (m *Map) Len() int { return len(m.tiles) }

// RNG returns the map's random source.
func (m *Map) RNG() *rng.Source { return m.rng }

// Catalog returns the tile definitions the map was built with.
func (m *Map) Catalog() *tile.Catalog { return m.catalog }

// Tile returns the cell at flat index i.
func (m *Map) Tile(i int) *Tile { return &m.tiles[i] }

// InBounds reports whether (x, y) lies on the map.
func (m *Map) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.width && y < m.height
}

// At returns the cell at (x, y), or nil when out of bounds.
func (m *Map) At(x, y int) *Tile {
	if !m.InBounds(x, y) {
		return nil
	}
	return &m.tiles[m.Index(x, y)]
}

// Index converts coordinates to a flat index.
func (m *Map) Index(x, y int) int { return y*m.width + x }

// Coords converts a flat index to coordinates.
func (m *Map) Coords(i int) (x, y int) { return i % m.width, i / m.width }

// Count returns the number of cells of the named type.
func (m *Map) Count(typeName string) int {
	n := 0
	for i := range m.tiles {
		if m.tiles[i].TypeName() == typeName {
			n++
		}
	}
	return n
}

// CellState is the comparable state of one cell.
type CellState struct {
	Type string
	Tags []string
	Heat map[string]float64
}

// Snapshot is the comparable state of a whole map.
type Snapshot struct {
	Width  int
	Height int
	Cells  []CellState
}

// Snapshot captures the map's cell state for comparison or serialization.
func (m *Map) Snapshot() Snapshot {
	s := Snapshot{Width: m.width, Height: m.height, Cells: make([]CellState, len(m.tiles))}
	for i := range m.tiles {
		t := &m.tiles[i]
		cs := CellState{Type: t.TypeName(), Tags: t.Tags.Sorted()}
		if len(t.heat) > 0 {
			cs.Heat = make(map[string]float64, len(t.heat))
			for k, v := range t.heat {
				cs.Heat[k] = v
			}
		}
		s.Cells[i] = cs
	}
	return s
}
