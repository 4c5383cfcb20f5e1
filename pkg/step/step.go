// Package step implements generation steps: the units of a map pipeline that
// select cells by evaluating conditions and mutate them by applying results.
//
// Every step embeds a [Base] carrying the shared condition, result and
// iteration machinery plus the motif bindings of its attributes. Concrete
// algorithms implement [Step.RunOnce]; [Run] wraps it with the iteration
// count and chance-to-run gating.
//
// # Built-in kinds
//
//   - CellularAutomata: mutate cells by neighbor counts
//   - DistanceField: multi-source BFS distance heat map
//   - RoomsAndPaths: room placement and corridor carving
//   - PerlinNoise: coherent noise heat map painting
//   - FromImage: stamp an image onto the map
//   - Sprinkle: random scatter
//
// Additional kinds can be added with [Register].
//
// # Determinism
//
// All randomness comes from the map's [rng.Source]. Steps draw in a fixed
// order (including discarded rejection-sampling candidates), so the same
// seed and pipeline always reproduce the same map.
package step

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/ddurio/ProMage2-sub001/pkg/errors"
	"github.com/ddurio/ProMage2-sub001/pkg/event"
	"github.com/ddurio/ProMage2-sub001/pkg/motif"
	"github.com/ddurio/ProMage2-sub001/pkg/tile"
	"github.com/ddurio/ProMage2-sub001/pkg/tilemap"
)

// Step is one unit of a generation pipeline.
type Step interface {
	// StepBase returns the shared step state.
	StepBase() *Base
	// RunOnce performs one iteration of the algorithm against m.
	RunOnce(m *tilemap.Map)
}

// validator is implemented by steps that need to check their resolved
// attributes beyond per-attribute parsing.
type validator interface {
	Validate() error
}

// Source is the declarative attribute source of a step, keyed by attribute
// name. Values are literals or "%var%" motif variable tokens.
type Source map[string]string

// Env carries the shared collaborators steps are built and run with. An Env
// is read-only during generation and may be shared by concurrent generations.
type Env struct {
	Motifs *motif.Database
	Events *event.Registry
	Bus    *event.Bus
	Tiles  *tile.Catalog
	Logger *log.Logger

	// BaseDir resolves relative file paths (images) referenced by steps.
	BaseDir string
}

// NewEnv returns an Env with empty collaborators and the default tile catalog.
func NewEnv() *Env {
	e := &Env{}
	e.SetDefaults()
	return e
}

// SetDefaults fills every nil collaborator with its empty default.
func (e *Env) SetDefaults() {
	if e.Motifs == nil {
		e.Motifs = motif.NewDatabase()
	}
	if e.Events == nil {
		e.Events = event.NewRegistry()
	}
	if e.Bus == nil {
		e.Bus = event.NewBus()
	}
	if e.Tiles == nil {
		e.Tiles = tile.Default()
	}
	if e.Logger == nil {
		e.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Factory builds the variant part of a step. It registers the variant's
// attributes on b and returns the step; attribute values are loaded after
// the factory returns.
type Factory func(b *Base) Step

var (
	kindsMu sync.RWMutex
	kinds   = map[string]Factory{}
)

// Register makes a step kind available to [New]. Registering an existing
// kind replaces it.
func Register(kind string, f Factory) {
	kindsMu.Lock()
	defer kindsMu.Unlock()
	kinds[kind] = f
}

// Kinds returns the registered step kinds, sorted.
func Kinds() []string {
	kindsMu.RLock()
	defer kindsMu.RUnlock()
	out := make([]string, 0, len(kinds))
	for k := range kinds {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New constructs a step of the given kind from its attribute source. parents
// are the motif scopes above the step's own local motif, nearest first.
//
// Malformed attribute text and missing required attributes are fatal and
// returned as errors.
func New(kind string, src Source, env *Env, parents []string) (Step, error) {
	kindsMu.RLock()
	factory, ok := kinds[kind]
	kindsMu.RUnlock()
	if !ok {
		return nil, errors.New(errors.ErrCodeUnknownStepKind, "unknown step kind %q", kind)
	}
	if env == nil {
		env = NewEnv()
	}
	env.SetDefaults()

	b := newBase(kind, env, parents)
	s := factory(b)
	b.bindCustomEvents()
	if err := b.load(src); err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}
	if err := b.Recalculate(AllAttributes); err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}
	if v, ok := s.(validator); ok {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", kind, err)
		}
	}
	return s, nil
}

// Run executes s against m: it draws an iteration count, then rolls the
// chance to run once, and on success calls RunOnce that many times.
func Run(s Step, m *tilemap.Map) {
	b := s.StepBase()
	src := m.RNG()
	n := b.Iterations.Draw(src)
	if !src.Chance(b.ChanceToRun) {
		b.logger().Debug("step skipped", "step", b.kind, "id", b.ID)
		return
	}
	for i := 0; i < n; i++ {
		s.RunOnce(m)
	}
}
