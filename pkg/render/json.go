package render

import (
	"encoding/json"

	"github.com/ddurio/ProMage2-sub001/pkg/tilemap"
)

// Document is the JSON form of a generated map.
type Document struct {
	Name   string     `json:"name"`
	Seed   uint64     `json:"seed"`
	Width  int        `json:"width"`
	Height int        `json:"height"`
	Legend []Legend   `json:"legend"`
	Tiles  []TileJSON `json:"tiles"`
}

// Legend describes one tile type appearing in the map.
type Legend struct {
	Name  string `json:"name"`
	Glyph string `json:"glyph"`
	Count int    `json:"count"`
}

// TileJSON is the state of one cell.
type TileJSON struct {
	X    int                `json:"x"`
	Y    int                `json:"y"`
	Type string             `json:"type"`
	Tags []string           `json:"tags,omitempty"`
	Heat map[string]float64 `json:"heat,omitempty"`
}

// NewDocument captures the map as a Document. Legend entries follow the
// catalog's order and only include types present in the map.
func NewDocument(m *tilemap.Map) Document {
	snap := m.Snapshot()
	doc := Document{
		Name:   m.Name,
		Seed:   m.RNG().Seed(),
		Width:  snap.Width,
		Height: snap.Height,
		Tiles:  make([]TileJSON, len(snap.Cells)),
	}
	for i, c := range snap.Cells {
		x, y := m.Coords(i)
		doc.Tiles[i] = TileJSON{X: x, Y: y, Type: c.Type, Tags: c.Tags, Heat: c.Heat}
	}
	for _, def := range m.Catalog().All() {
		if n := m.Count(def.Name); n > 0 {
			doc.Legend = append(doc.Legend, Legend{Name: def.Name, Glyph: string(def.Rune()), Count: n})
		}
	}
	return doc
}

// JSON renders the map as indented JSON.
func JSON(m *tilemap.Map) ([]byte, error) {
	return json.MarshalIndent(NewDocument(m), "", "  ")
}
