package pipeline

import (
	"sort"

	"github.com/ddurio/ProMage2-sub001/pkg/errors"
	"github.com/ddurio/ProMage2-sub001/pkg/ranges"
	"github.com/ddurio/ProMage2-sub001/pkg/step"
)

// DefaultFill is the tile type a map starts filled with when its definition
// names none.
const DefaultFill = "Wall"

// StepDef is the declarative form of one step.
type StepDef struct {
	Kind  string
	Attrs step.Source
}

// Definition is the declarative form of a map pipeline.
type Definition struct {
	Name   string
	Width  ranges.Int
	Height ranges.Int
	Fill   string
	// Motifs are the map's motif scopes, nearest first. They become the
	// parent scopes of every step in the pipeline.
	Motifs []string
	Steps  []StepDef
}

// Validate checks the map-level fields. Steps are checked when built.
func (d *Definition) Validate() error {
	if err := errors.ValidateName("map", d.Name); err != nil {
		return err
	}
	if d.Width.Min < 1 || d.Height.Min < 1 {
		return errors.New(errors.ErrCodeInvalidRange, "map %s: dimensions must be at least 1, got %s x %s",
			d.Name, d.Width, d.Height)
	}
	for _, name := range d.Motifs {
		if err := errors.ValidateName("motif", name); err != nil {
			return err
		}
	}
	return nil
}

func (d *Definition) fill() string {
	if d.Fill == "" {
		return DefaultFill
	}
	return d.Fill
}

// =============================================================================
// Library
// =============================================================================

// Library is a set of map definitions loaded together with the environment
// their steps are built against.
type Library struct {
	Env *step.Env

	// SourceHash identifies the inputs the library was loaded from. Runners
	// only cache artifacts for libraries with a non-empty SourceHash.
	SourceHash string

	maps  map[string]Definition
	order []string
}

// NewLibrary returns an empty library. A nil env gets [step.NewEnv].
func NewLibrary(env *step.Env) *Library {
	if env == nil {
		env = step.NewEnv()
	}
	return &Library{Env: env, maps: make(map[string]Definition)}
}

// AddMap stores def, replacing any definition with the same name. It
// reports whether a definition was replaced.
func (l *Library) AddMap(def Definition) (bool, error) {
	if err := def.Validate(); err != nil {
		return false, err
	}
	_, replaced := l.maps[def.Name]
	if !replaced {
		l.order = append(l.order, def.Name)
	}
	l.maps[def.Name] = def
	return replaced, nil
}

// Map returns the definition named name.
func (l *Library) Map(name string) (Definition, error) {
	def, ok := l.maps[name]
	if !ok {
		return Definition{}, errors.New(errors.ErrCodeUnknownMap, "unknown map %q (have %v)", name, l.SortedNames())
	}
	return def, nil
}

// MapNames returns map names in the order they were first added.
func (l *Library) MapNames() []string {
	return append([]string(nil), l.order...)
}

// SortedNames returns map names sorted alphabetically.
func (l *Library) SortedNames() []string {
	names := l.MapNames()
	sort.Strings(names)
	return names
}

// Build constructs the pipeline for the named map.
func (l *Library) Build(name string) (*Pipeline, error) {
	def, err := l.Map(name)
	if err != nil {
		return nil, err
	}
	return Build(def, l.Env)
}
