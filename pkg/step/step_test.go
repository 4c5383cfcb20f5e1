package step

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ddurio/ProMage2-sub001/pkg/errors"
	"github.com/ddurio/ProMage2-sub001/pkg/event"
	"github.com/ddurio/ProMage2-sub001/pkg/tilemap"
)

type countingStep struct {
	*Base
	calls int
}

func (s *countingStep) RunOnce(*tilemap.Map) { s.calls++ }

func init() {
	Register("testCounter", func(b *Base) Step { return &countingStep{Base: b} })
}

var (
	_ Step = (*CellularAutomata)(nil)
	_ Step = (*DistanceField)(nil)
	_ Step = (*RoomsAndPaths)(nil)
	_ Step = (*PerlinNoise)(nil)
	_ Step = (*FromImage)(nil)
	_ Step = (*Sprinkle)(nil)
)

func TestStepBaseKind(t *testing.T) {
	env, _ := testEnv(t)
	for _, kind := range []string{KindCellularAutomata, KindDistanceField, KindRoomsAndPaths, KindPerlinNoise, KindSprinkle} {
		s := mustStep(t, kind, Source{}, env)
		if got := s.StepBase().Kind(); got != kind {
			t.Errorf("StepBase().Kind() = %q, want %q", got, kind)
		}
	}
}

func TestKindsIncludesBuiltins(t *testing.T) {
	kinds := strings.Join(Kinds(), ",")
	for _, k := range []string{KindCellularAutomata, KindDistanceField, KindRoomsAndPaths, KindPerlinNoise, KindFromImage, KindSprinkle} {
		if !strings.Contains(kinds, k) {
			t.Errorf("Kinds() = %s, missing %s", kinds, k)
		}
	}
}

func TestRunIterationsAndChance(t *testing.T) {
	tests := []struct {
		name      string
		src       Source
		wantCalls int
	}{
		{"default", Source{}, 1},
		{"fixed iterations", Source{AttrNumIterations: "3"}, 3},
		{"never runs", Source{AttrNumIterations: "5", AttrChanceToRun: "0"}, 0},
		{"zero iterations", Source{AttrNumIterations: "0"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, _ := testEnv(t)
			m := newMap(t, env, 2, 2, "Wall", 1)
			s := mustStep(t, "testCounter", tt.src, env).(*countingStep)

			before := m.RNG().Draws()
			Run(s, m)
			if s.calls != tt.wantCalls {
				t.Errorf("RunOnce calls = %d, want %d", s.calls, tt.wantCalls)
			}
			// One draw for the iteration count, one for the chance roll.
			if got := m.RNG().Draws() - before; got != 2 {
				t.Errorf("Run draws = %d, want 2", got)
			}
		})
	}
}

func TestIterationRangeBounds(t *testing.T) {
	env, _ := testEnv(t)
	for seed := uint64(0); seed < 20; seed++ {
		m := newMap(t, env, 1, 1, "Wall", seed)
		s := mustStep(t, "testCounter", Source{AttrNumIterations: "2~4"}, env).(*countingStep)
		Run(s, m)
		if s.calls < 2 || s.calls > 4 {
			t.Fatalf("seed %d: calls = %d, want 2~4", seed, s.calls)
		}
	}
}

func TestNewErrors(t *testing.T) {
	env, _ := testEnv(t)

	tests := []struct {
		name string
		kind string
		src  Source
		want errors.Code
	}{
		{"unknown kind", "Volcano", Source{}, errors.ErrCodeUnknownStepKind},
		{"malformed range", KindSprinkle, Source{AttrCount: "3~"}, errors.ErrCodeInvalidRange},
		{"inverted range", KindSprinkle, Source{AttrNumIterations: "4~2"}, errors.ErrCodeInvalidRange},
		{"unknown attribute", KindSprinkle, Source{"colour": "red"}, errors.ErrCodeInvalidAttribute},
		{"unknown tile type", KindSprinkle, Source{AttrSetType: "Magma"}, errors.ErrCodeUnknownTileType},
		{"chance out of range", KindSprinkle, Source{AttrChanceToRun: "1.5"}, errors.ErrCodeInvalidAttribute},
		{"malformed number", KindSprinkle, Source{AttrChanceToRun: "often"}, errors.ErrCodeInvalidAttribute},
		{"missing image path", KindFromImage, Source{}, errors.ErrCodeMissingAttribute},
		{"bad movement", KindDistanceField, Source{AttrMovementType: "Dig"}, errors.ErrCodeInvalidAttribute},
		{"bad heat map name", KindSprinkle, Source{"ifHeatMap": "0~1"}, errors.ErrCodeInvalidDefinition},
		{"motif bound to var", KindSprinkle, Source{AttrMotif: "%m%"}, errors.ErrCodeInvalidAttribute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.kind, tt.src, env, nil)
			if !errors.Is(err, tt.want) {
				t.Errorf("New() error = %v, want code %v", err, tt.want)
			}
		})
	}
}

func TestIsTileValid(t *testing.T) {
	env, _ := testEnv(t)
	m := newMap(t, env, 3, 1, "Floor", 1)
	m.Tile(0).Tags.Add("wet")
	m.Tile(0).SetHeat("Noise", 0.5)
	m.Tile(1).Tags.Add("wet")
	m.Tile(1).Tags.Add("burning")
	m.Tile(1).SetHeat("Noise", 0.5)
	m.Tile(2).Tags.Add("wet")

	s := mustStep(t, KindSprinkle, Source{
		AttrIfIsType:     "Floor",
		AttrIfHasTags:    "wet,!burning",
		"ifHeatMapNoise": "0~1",
	}, env).StepBase()

	want := []bool{true, false, false}
	for i, w := range want {
		if got := s.IsTileValid(m, m.Tile(i)); got != w {
			t.Errorf("IsTileValid(tile %d) = %v, want %v", i, got, w)
		}
	}

	paint(t, m, "Wall", [2]int{0, 0})
	if s.IsTileValid(m, m.Tile(0)) {
		t.Error("IsTileValid should fail on type mismatch")
	}
}

func TestChangeTile(t *testing.T) {
	env, _ := testEnv(t)
	m := newMap(t, env, 2, 1, "Wall", 1)
	m.Tile(0).Tags.Add("dry")

	s := mustStep(t, KindSprinkle, Source{
		AttrSetType:       "Water",
		AttrSetTags:       "wet,!dry",
		"setHeatMapDepth": "2",
		"setHeatMapTemp":  "0~1",
	}, env).StepBase()

	s.ChangeTile(m, m.Tile(0))
	tl := m.Tile(0)
	if tl.TypeName() != "Water" {
		t.Errorf("type = %s, want Water", tl.TypeName())
	}
	if diff := cmp.Diff([]string{"wet"}, tl.Tags.Sorted()); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
	if v, _ := tl.Heat("Depth"); v != 2 {
		t.Errorf("Depth = %v, want 2", v)
	}
	if v, ok := tl.Heat("Temp"); !ok || v < 0 || v > 1 {
		t.Errorf("Temp = %v, %v, want within 0~1", v, ok)
	}

	lava, _ := env.Tiles.Lookup("Lava")
	s.ChangeTileAs(m, m.Tile(1), lava)
	if got := m.Tile(1).TypeName(); got != "Lava" {
		t.Errorf("ChangeTileAs type = %s, want Lava", got)
	}
	if !m.Tile(1).Tags.Has("wet") {
		t.Error("ChangeTileAs should still apply tags")
	}
}

func TestPartialResults(t *testing.T) {
	env, _ := testEnv(t)
	m := newMap(t, env, 1, 1, "Wall", 1)
	s := mustStep(t, KindSprinkle, Source{AttrSetTags: "mossy"}, env).StepBase()
	s.ChangeTile(m, m.Tile(0))
	if m.Tile(0).TypeName() != "Wall" || !m.Tile(0).Tags.Has("mossy") {
		t.Errorf("tile = %s %v, want Wall [mossy]", m.Tile(0).TypeName(), m.Tile(0).Tags.Sorted())
	}
}

func TestCustomEventBinding(t *testing.T) {
	env, _ := testEnv(t)
	near := event.Template{Name: "Near", AttrNames: []string{"nearType", "nearDist"}, Requirement: event.RequireAll}
	mark := event.Template{Name: "Mark", AttrNames: []string{"markTag", "markColor"}, Requirement: event.RequireOne,
		AllowedValues: [][]string{nil, {"red", "blue"}}}
	if _, err := env.Events.AddCondition(near); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Events.AddResult(mark); err != nil {
		t.Fatal(err)
	}

	partial := mustStep(t, KindSprinkle, Source{"nearType": "Water"}, env).StepBase()
	if len(partial.CustomConditions) != 0 {
		t.Error("RequireAll condition with one attribute should not attach")
	}
	if len(partial.CustomResults) != 0 {
		t.Error("RequireOne result with no attributes should not attach")
	}

	full := mustStep(t, KindSprinkle, Source{"nearType": "Water", "nearDist": "2", "markTag": "lit"}, env).StepBase()
	if len(full.CustomConditions) != 1 || len(full.CustomResults) != 1 {
		t.Fatalf("attached = %d conditions, %d results, want 1, 1", len(full.CustomConditions), len(full.CustomResults))
	}
	if diff := cmp.Diff([]string{"Water", "2"}, full.CustomConditions[0].Values); diff != "" {
		t.Errorf("condition values mismatch (-want +got):\n%s", diff)
	}

	_, err := New(KindSprinkle, Source{"markColor": "green"}, env, nil)
	if !errors.Is(err, errors.ErrCodeInvalidAttribute) {
		t.Errorf("disallowed value error = %v, want INVALID_ATTRIBUTE", err)
	}

	// Editing can complete a partial instance.
	if err := partial.SetAttribute("nearDist", "1"); err != nil {
		t.Fatal(err)
	}
	if len(partial.CustomConditions) != 1 {
		t.Error("condition should attach once all attributes are set")
	}
}

func TestCustomEventsFireThroughBus(t *testing.T) {
	env, _ := testEnv(t)
	env.Events.AddCondition(event.Template{Name: "OddColumn", AttrNames: []string{"odd"}})
	env.Events.AddResult(event.Template{Name: "Stamp", AttrNames: []string{"stamp"}})
	env.Bus.Subscribe("OddColumn", event.HandlerFunc(func(a *event.Args) {
		a.IsValid = a.Tile.X%2 == 1 && a.Attrs["odd"] == "yes"
	}))
	env.Bus.Subscribe("Stamp", event.HandlerFunc(func(a *event.Args) {
		a.Tile.Tags.Add(a.Attrs["stamp"])
	}))

	m := newMap(t, env, 4, 1, "Floor", 1)
	s := mustStep(t, KindSprinkle, Source{"odd": "yes", "stamp": "seen"}, env).StepBase()
	for i := 0; i < m.Len(); i++ {
		if tl := m.Tile(i); s.IsTileValid(m, tl) {
			s.ChangeTile(m, tl)
		}
	}
	for i := 0; i < m.Len(); i++ {
		want := i%2 == 1
		if got := m.Tile(i).Tags.Has("seen"); got != want {
			t.Errorf("tile %d stamped = %v, want %v", i, got, want)
		}
	}

	// Unhandled conditions make every tile ineligible.
	env.Bus.Unsubscribe("OddColumn")
	if s.IsTileValid(m, m.Tile(1)) {
		t.Error("unhandled custom condition should fail")
	}
}
