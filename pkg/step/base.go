package step

import (
	"sort"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/ddurio/ProMage2-sub001/pkg/event"
	"github.com/ddurio/ProMage2-sub001/pkg/motif"
	"github.com/ddurio/ProMage2-sub001/pkg/ranges"
	"github.com/ddurio/ProMage2-sub001/pkg/tile"
	"github.com/ddurio/ProMage2-sub001/pkg/tilemap"
)

// Common attribute names.
const (
	AttrChanceToRun   = "chanceToRun"
	AttrNumIterations = "numIterations"
	AttrIfIsType      = "ifIsType"
	AttrIfHasTags     = "ifHasTags"
	AttrSetType       = "setType"
	AttrSetTags       = "setTags"
	AttrMotif         = "motif"

	// Heat map attributes are a prefix followed by the heat map name,
	// as in "ifHeatMapNoise".
	PrefixIfHeatMap  = "ifHeatMap"
	PrefixSetHeatMap = "setHeatMap"
)

// Base is the state shared by every step kind.
type Base struct {
	ID   uuid.UUID
	kind string
	env  *Env

	ChanceToRun float64
	Iterations  ranges.Int

	// Conditions
	IfType    *tile.Definition
	IfHasTags tile.TagSet
	IfHeatMap map[string]ranges.Float

	// Results
	SetType    *tile.Definition
	SetTags    tile.TagSet
	SetHeatMap map[string]ranges.Float

	CustomConditions []*event.Instance
	CustomResults    []*event.Instance

	hierarchy    motif.Hierarchy
	motifVars    map[string]string
	attrs        []*attribute
	attrIndex    map[string]*attribute
	candidates   []*candidate
	setHeatNames []string
}

func newBase(kind string, env *Env, parents []string) *Base {
	b := &Base{
		ID:         uuid.New(),
		kind:       kind,
		env:        env,
		IfHeatMap:  make(map[string]ranges.Float),
		SetHeatMap: make(map[string]ranges.Float),
		hierarchy:  motif.NewHierarchy("", parents...),
		motifVars:  make(map[string]string),
		attrIndex:  make(map[string]*attribute),
	}
	b.Float(AttrChanceToRun, "1", &b.ChanceToRun)
	b.setCheck(AttrChanceToRun, func() error { return checkProbability(AttrChanceToRun, b.ChanceToRun) })
	b.IntRange(AttrNumIterations, "1", &b.Iterations)
	b.TileType(AttrIfIsType, "", &b.IfType)
	b.Tags(AttrIfHasTags, "", &b.IfHasTags)
	b.TileType(AttrSetType, "", &b.SetType)
	b.Tags(AttrSetTags, "", &b.SetTags)
	b.bind(AttrMotif, "", func(text string) error {
		b.hierarchy = b.hierarchy.WithLocal(text)
		return nil
	})
	return b
}

// StepBase returns b, so that embedding *Base satisfies part of [Step].
func (b *Base) StepBase() *Base { return b }

// Kind returns the step kind.
func (b *Base) Kind() string { return b.kind }

// Env returns the collaborators the step was built with.
func (b *Base) Env() *Env { return b.env }

func (b *Base) logger() *log.Logger { return b.env.Logger }

// Warn logs a recoverable degradation with the step's identity attached.
func (b *Base) Warn(msg string, keyvals ...any) {
	b.logger().Warn(msg, append([]any{"step", b.kind, "id", b.ID}, keyvals...)...)
}

// IsTileValid reports whether t passes every configured condition: tile type,
// tags, heat map ranges (an absent heat value fails) and every custom
// condition fired through the event bus.
func (b *Base) IsTileValid(m *tilemap.Map, t *tilemap.Tile) bool {
	if b.IfType != nil && t.TypeName() != b.IfType.Name {
		return false
	}
	if !b.IfHasTags.Matches(&t.Tags) {
		return false
	}
	for name, r := range b.IfHeatMap {
		v, ok := t.Heat(name)
		if !ok || !r.Contains(v) {
			return false
		}
	}
	for _, inst := range b.CustomConditions {
		if !event.CheckCondition(b.env.Events, b.env.Bus, inst, m, t) {
			return false
		}
	}
	return true
}

// ChangeTile applies the configured results to t: type, tags, heat values
// sampled from their ranges, then every custom result.
func (b *Base) ChangeTile(m *tilemap.Map, t *tilemap.Tile) {
	b.ChangeTileAs(m, t, nil)
}

// ChangeTileAs is ChangeTile with the type result replaced by typ. A nil typ
// falls back to the configured setType.
func (b *Base) ChangeTileAs(m *tilemap.Map, t *tilemap.Tile, typ *tile.Definition) {
	if typ == nil {
		typ = b.SetType
	}
	if typ != nil {
		t.Type = typ
	}
	b.SetTags.Apply(&t.Tags)
	for _, name := range b.setHeatNames {
		t.SetHeat(name, b.SetHeatMap[name].Draw(m.RNG()))
	}
	for _, inst := range b.CustomResults {
		event.ApplyResult(b.env.Events, b.env.Bus, inst, m, t)
	}
}

func (b *Base) refreshHeatNames() {
	b.setHeatNames = b.setHeatNames[:0]
	for name := range b.SetHeatMap {
		b.setHeatNames = append(b.setHeatNames, name)
	}
	sort.Strings(b.setHeatNames)
}
