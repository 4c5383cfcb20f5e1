// Package tile defines tile types, their movement capabilities and the tag
// sets carried by map cells.
//
// Tile types are loaded from TOML:
//
//	[[tile]]
//	name  = "Water"
//	glyph = "~"
//	color = "33"
//	texel = "0,0,255"
//	fly   = true
//	sight = true
//	swim  = true
//
// The texel is the opaque RGB color that maps an image pixel to this type
// when stamping images onto a map.
package tile

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ddurio/ProMage2-sub001/pkg/errors"
)

//go:embed defaults.toml
var defaultTiles []byte

// Movement is a per-tile traversal capability.
type Movement string

// Movement types.
const (
	Fly   Movement = "Fly"
	Sight Movement = "Sight"
	Swim  Movement = "Swim"
	Walk  Movement = "Walk"
)

// Movements lists every valid movement type.
var Movements = []Movement{Fly, Sight, Swim, Walk}

// ParseMovement parses one of Fly, Sight, Swim or Walk (case-insensitive).
func ParseMovement(text string) (Movement, error) {
	for _, m := range Movements {
		if strings.EqualFold(strings.TrimSpace(text), string(m)) {
			return m, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidAttribute, "unknown movement type %q (want Fly, Sight, Swim or Walk)", text)
}

// Definition describes one tile type.
type Definition struct {
	Name  string `toml:"name"`
	Glyph string `toml:"glyph"`
	Color string `toml:"color"`
	Texel string `toml:"texel"`
	Fly   bool   `toml:"fly"`
	Sight bool   `toml:"sight"`
	Swim  bool   `toml:"swim"`
	Walk  bool   `toml:"walk"`
}

// Allows reports whether the tile permits movement m.
func (d *Definition) Allows(m Movement) bool {
	switch m {
	case Fly:
		return d.Fly
	case Sight:
		return d.Sight
	case Swim:
		return d.Swim
	case Walk:
		return d.Walk
	}
	return false
}

// Rune returns the glyph used for text previews.
func (d *Definition) Rune() rune {
	for _, r := range d.Glyph {
		return r
	}
	if d.Name != "" {
		return []rune(d.Name)[0]
	}
	return '?'
}

// ColorKey formats an opaque RGB color as a texel lookup key.
func ColorKey(r, g, b uint8) string {
	return fmt.Sprintf("%d,%d,%d", r, g, b)
}

// Catalog is an ordered collection of tile definitions with lookups by name
// and by texel color. A Catalog is read-only once loaded.
type Catalog struct {
	defs    []*Definition
	byName  map[string]*Definition
	byTexel map[string]*Definition
}

type catalogFile struct {
	Tiles []Definition `toml:"tile"`
}

// Parse decodes a TOML tile catalog.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if _, err := toml.Decode(string(data), &f); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDefinition, err, "failed to parse tile definitions")
	}
	c := &Catalog{
		byName:  make(map[string]*Definition),
		byTexel: make(map[string]*Definition),
	}
	for i := range f.Tiles {
		if err := c.add(&f.Tiles[i]); err != nil {
			return nil, err
		}
	}
	if len(c.defs) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidDefinition, "no tile definitions found")
	}
	return c, nil
}

// LoadFile reads a TOML tile catalog from disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "tile definitions not found: %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "failed to read %s", path)
	}
	return Parse(data)
}

// Default returns the built-in catalog (Wall, Floor, Water, Lava, Door, Grass, Chasm).
func Default() *Catalog {
	c, err := Parse(defaultTiles)
	if err != nil {
		panic(fmt.Sprintf("tile: invalid built-in definitions: %v", err))
	}
	return c
}

func (c *Catalog) add(d *Definition) error {
	if err := errors.ValidateName("tile", d.Name); err != nil {
		return err
	}
	if _, dup := c.byName[d.Name]; dup {
		return errors.New(errors.ErrCodeInvalidDefinition, "duplicate tile type %q", d.Name)
	}
	if d.Texel != "" {
		key, err := normalizeTexel(d.Texel)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidDefinition, err, "tile %q", d.Name)
		}
		d.Texel = key
		c.byTexel[key] = d
	}
	c.defs = append(c.defs, d)
	c.byName[d.Name] = d
	return nil
}

func normalizeTexel(text string) (string, error) {
	parts := strings.Split(text, ",")
	if len(parts) != 3 {
		return "", fmt.Errorf("texel %q must be \"R,G,B\"", text)
	}
	var rgb [3]uint8
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return "", fmt.Errorf("texel %q: %w", text, err)
		}
		rgb[i] = uint8(v)
	}
	return ColorKey(rgb[0], rgb[1], rgb[2]), nil
}

// Lookup returns the definition named name.
func (c *Catalog) Lookup(name string) (*Definition, bool) {
	d, ok := c.byName[name]
	return d, ok
}

// MustLookup is Lookup returning an UNKNOWN_TILE_TYPE error.
func (c *Catalog) MustLookup(name string) (*Definition, error) {
	if d, ok := c.byName[name]; ok {
		return d, nil
	}
	return nil, errors.New(errors.ErrCodeUnknownTileType, "unknown tile type %q", name)
}

// ByTexel returns the definition mapped to the given color key.
func (c *Catalog) ByTexel(key string) (*Definition, bool) {
	d, ok := c.byTexel[key]
	return d, ok
}

// All returns the definitions in load order.
func (c *Catalog) All() []*Definition {
	return c.defs
}

// Names returns the type names in load order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.defs))
	for i, d := range c.defs {
		names[i] = d.Name
	}
	return names
}
