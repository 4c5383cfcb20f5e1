// Package pipeline runs ordered sequences of generation steps against tile
// maps.
//
// A [Definition] is the declarative form of a map: its dimension ranges,
// fill tile, motif scopes and steps. [Build] turns it into a [Pipeline] of
// constructed steps, and [Pipeline.Generate] runs them against a fresh map
// seeded from a single value. Generation is deterministic: the same
// definition and seed always produce the same map.
//
// # Usage
//
// Load definitions into a [Library] (usually with the definition package)
// and execute them through a [Runner], which renders and caches artifacts:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, lib, pipeline.Options{
//	    Map:     "Cavern",
//	    Seed:    7,
//	    Formats: []string{"txt"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(string(result.Artifacts["txt"]))
//
// # Editing
//
// Pipelines can be edited in place: steps can be inserted, removed and
// moved, and a step's attributes recalculated after motif changes.
// [Pipeline.Definition] serializes the current state back to a Definition.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ddurio/ProMage2-sub001/pkg/errors"
	"github.com/ddurio/ProMage2-sub001/pkg/event"
	"github.com/ddurio/ProMage2-sub001/pkg/observability"
	"github.com/ddurio/ProMage2-sub001/pkg/render/diagram"
	"github.com/ddurio/ProMage2-sub001/pkg/rng"
	"github.com/ddurio/ProMage2-sub001/pkg/step"
	"github.com/ddurio/ProMage2-sub001/pkg/tilemap"
)

// Pipeline is an ordered sequence of constructed steps for one map.
//
// A Pipeline is not safe for concurrent use: steps keep per-run scratch
// state. Concurrent generations each build their own Pipeline.
type Pipeline struct {
	def   Definition
	env   *step.Env
	steps []step.Step
}

// Build constructs every step of def against env. The first step that fails
// to construct aborts the build.
func Build(def Definition, env *step.Env) (*Pipeline, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if env == nil {
		env = step.NewEnv()
	}
	env.SetDefaults()
	if _, err := env.Tiles.MustLookup(def.fill()); err != nil {
		return nil, fmt.Errorf("map %s: fill: %w", def.Name, err)
	}

	p := &Pipeline{def: def, env: env}
	p.def.Motifs = append([]string(nil), def.Motifs...)
	p.def.Steps = nil
	for i, sd := range def.Steps {
		s, err := step.New(sd.Kind, sd.Attrs, env, p.def.Motifs)
		if err != nil {
			return nil, fmt.Errorf("map %s: step %d (%s): %w", def.Name, i, sd.Kind, err)
		}
		p.steps = append(p.steps, s)
	}
	return p, nil
}

// Name returns the map name.
func (p *Pipeline) Name() string { return p.def.Name }

// Env returns the environment the steps were built with.
func (p *Pipeline) Env() *step.Env { return p.env }

// Steps returns the steps in run order.
func (p *Pipeline) Steps() []step.Step {
	return append([]step.Step(nil), p.steps...)
}

// Len returns the number of steps.
func (p *Pipeline) Len() int { return len(p.steps) }

// Find returns the step with the given ID and its index.
func (p *Pipeline) Find(id uuid.UUID) (step.Step, int, bool) {
	for i, s := range p.steps {
		if s.StepBase().ID == id {
			return s, i, true
		}
	}
	return nil, -1, false
}

// =============================================================================
// Editing
// =============================================================================

// AddStep constructs a step of kind from src and appends it.
func (p *Pipeline) AddStep(kind string, src step.Source) (step.Step, error) {
	s, err := step.New(kind, src, p.env, p.def.Motifs)
	if err != nil {
		return nil, err
	}
	p.steps = append(p.steps, s)
	return s, nil
}

// InsertStep inserts s at index i, re-parenting it under this pipeline's
// motifs. The step keeps its own local motif.
func (p *Pipeline) InsertStep(i int, s step.Step) error {
	if i < 0 || i > len(p.steps) {
		return errors.New(errors.ErrCodeInvalidInput, "insert index %d out of range [0, %d]", i, len(p.steps))
	}
	if err := s.StepBase().SetParentMotifs(p.def.Motifs); err != nil {
		return err
	}
	p.steps = append(p.steps, nil)
	copy(p.steps[i+1:], p.steps[i:])
	p.steps[i] = s
	return nil
}

// RemoveStep removes and returns the step at index i.
func (p *Pipeline) RemoveStep(i int) (step.Step, error) {
	if i < 0 || i >= len(p.steps) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "remove index %d out of range [0, %d)", i, len(p.steps))
	}
	s := p.steps[i]
	p.steps = append(p.steps[:i], p.steps[i+1:]...)
	return s, nil
}

// MoveStep moves the step at index from to index to.
func (p *Pipeline) MoveStep(from, to int) error {
	if to < 0 || to >= len(p.steps) {
		return errors.New(errors.ErrCodeInvalidInput, "move index %d out of range [0, %d)", to, len(p.steps))
	}
	s, err := p.RemoveStep(from)
	if err != nil {
		return err
	}
	return p.InsertStep(to, s)
}

// Recalculate re-resolves attribute attr (or [step.AllAttributes]) on the
// step with the given ID.
func (p *Pipeline) Recalculate(id uuid.UUID, attr string) error {
	s, _, ok := p.Find(id)
	if !ok {
		return errors.New(errors.ErrCodeInvalidInput, "no step with id %s", id)
	}
	return s.StepBase().Recalculate(attr)
}

// RecalculateAll re-resolves every attribute of every step, as needed after
// motif variables change.
func (p *Pipeline) RecalculateAll() error {
	for i, s := range p.steps {
		if err := s.StepBase().Recalculate(step.AllAttributes); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, s.StepBase().Kind(), err)
		}
	}
	return nil
}

// SetMotifs replaces the map's motif scopes and re-parents every step.
func (p *Pipeline) SetMotifs(motifs []string) error {
	p.def.Motifs = append([]string(nil), motifs...)
	for i, s := range p.steps {
		if err := s.StepBase().SetParentMotifs(p.def.Motifs); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, s.StepBase().Kind(), err)
		}
	}
	return nil
}

// Definition serializes the pipeline's current state.
func (p *Pipeline) Definition() Definition {
	def := p.def
	def.Motifs = append([]string(nil), p.def.Motifs...)
	def.Steps = make([]StepDef, len(p.steps))
	for i, s := range p.steps {
		def.Steps[i] = StepDef{Kind: s.StepBase().Kind(), Attrs: s.StepBase().Attributes()}
	}
	return def
}

// =============================================================================
// Generation
// =============================================================================

// NewMap creates an empty map for the pipeline. Width and height are drawn
// from src, in that order, and the map takes ownership of src.
func (p *Pipeline) NewMap(src *rng.Source) (*tilemap.Map, error) {
	fill, err := p.env.Tiles.MustLookup(p.def.fill())
	if err != nil {
		return nil, err
	}
	w := p.def.Width.Draw(src)
	h := p.def.Height.Draw(src)
	return tilemap.New(p.def.Name, w, h, fill, p.env.Tiles, src)
}

// Run executes every step against m in order. Cancellation is checked
// between steps; a step in progress always completes.
func (p *Pipeline) Run(ctx context.Context, m *tilemap.Map) error {
	hooks := observability.Pipeline()
	for i, s := range p.steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		kind := s.StepBase().Kind()
		hooks.OnStepStart(ctx, kind, i)
		start := time.Now()
		step.Run(s, m)
		elapsed := time.Since(start)
		hooks.OnStepComplete(ctx, kind, i, elapsed)
		p.env.Logger.Debug("step complete", "map", p.def.Name, "index", i, "step", kind, "duration", elapsed)
	}
	return nil
}

// Generate creates a map seeded with seed and runs the pipeline against it.
func (p *Pipeline) Generate(ctx context.Context, seed uint64) (*tilemap.Map, error) {
	m, err := p.NewMap(rng.New(seed))
	if err != nil {
		return nil, err
	}
	hooks := observability.Pipeline()
	hooks.OnMapStart(ctx, p.def.Name, seed, m.Width(), m.Height())
	start := time.Now()
	err = p.Run(ctx, m)
	hooks.OnMapComplete(ctx, p.def.Name, seed, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Generate builds def against env and generates one map with seed.
func Generate(ctx context.Context, def Definition, env *step.Env, seed uint64) (*tilemap.Map, error) {
	p, err := Build(def, env)
	if err != nil {
		return nil, err
	}
	return p.Generate(ctx, seed)
}

// =============================================================================
// Diagram
// =============================================================================

// Diagram describes the pipeline's structure: steps in run order, plus the
// motifs and custom events each step references. Step nodes are named by
// position (step0, step1, ...), so building the same definition twice yields
// the same diagram.
func (p *Pipeline) Diagram() diagram.Diagram {
	d := diagram.Diagram{Name: p.def.Name}
	prev := ""
	for i, s := range p.steps {
		b := s.StepBase()
		id := fmt.Sprintf("step%d", i)

		attrs := b.Attributes()
		names := make([]string, 0, len(attrs))
		for name := range attrs {
			names = append(names, name)
		}
		sort.Strings(names)
		node := diagram.Node{ID: id, Label: fmt.Sprintf("%d: %s", i, b.Kind())}
		for _, name := range names {
			node.Attrs = append(node.Attrs, diagram.Attr{Name: name, Value: attrs[name]})
		}
		d.AddNode(node)
		if prev != "" {
			d.AddEdge(prev, id)
		}
		prev = id

		for _, scope := range b.Hierarchy() {
			if scope == "" {
				continue
			}
			mid := "motif:" + scope
			d.AddNode(diagram.Node{ID: mid, Label: scope, Kind: diagram.NodeMotif})
			d.AddEdge(mid, id)
		}
		for _, inst := range append(append([]*event.Instance(nil), b.CustomConditions...), b.CustomResults...) {
			eid := "event:" + inst.Kind.String() + ":" + inst.Name
			d.AddNode(diagram.Node{ID: eid, Label: inst.Name, Kind: diagram.NodeEvent})
			d.AddEdge(eid, id)
		}
	}
	return d
}
