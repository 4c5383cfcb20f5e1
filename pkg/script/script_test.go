package script

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/ddurio/ProMage2-sub001/pkg/errors"
	"github.com/ddurio/ProMage2-sub001/pkg/event"
	"github.com/ddurio/ProMage2-sub001/pkg/rng"
	"github.com/ddurio/ProMage2-sub001/pkg/tile"
	"github.com/ddurio/ProMage2-sub001/pkg/tilemap"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "handler.lua")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newMap(t *testing.T) *tilemap.Map {
	t.Helper()
	cat := tile.Default()
	floor, _ := cat.Lookup("Floor")
	m, err := tilemap.New("script", 4, 3, floor, cat, rng.New(1))
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestConditionScript(t *testing.T) {
	h, err := Load(writeScript(t, `
function handle(event)
  return promage.tile_type() == "Floor" and not promage.has_tag(event.attrs.tag)
end
`), nil)
	if err != nil {
		t.Fatal(err)
	}
	m := newMap(t)

	check := func(tl *tilemap.Tile) bool {
		args := &event.Args{Event: "Unlit", Kind: event.Condition, Attrs: map[string]string{"tag": "Lit"}, Map: m, Tile: tl}
		h.Handle(args)
		return args.IsValid
	}

	if !check(m.At(0, 0)) {
		t.Error("untagged floor should pass")
	}
	m.At(1, 0).Tags.Add("Lit")
	if check(m.At(1, 0)) {
		t.Error("lit floor should fail")
	}
	wall, _ := m.Catalog().Lookup("Wall")
	m.At(2, 0).Type = wall
	if check(m.At(2, 0)) {
		t.Error("wall should fail")
	}
}

func TestResultScript(t *testing.T) {
	h, err := Load(writeScript(t, `
function handle(event)
  promage.add_tag("Lit")
  promage.remove_tag("Dark")
  promage.set_heat("Light", tonumber(event.attrs.torchLevel) + event.x)
  if promage.heat("Missing") == nil then
    promage.set_type("Grass")
  end
  local r = promage.random()
  assert(r >= 0 and r < 1)
end
`), nil)
	if err != nil {
		t.Fatal(err)
	}

	m := newMap(t)
	bus := event.NewBus()
	bus.Subscribe("Torch", h)

	tl := m.At(2, 1)
	tl.Tags.Add("Dark")
	before := m.RNG().Draws()
	bus.Fire(&event.Args{Event: "Torch", Kind: event.Result, Attrs: map[string]string{"torchLevel": "3"}, Map: m, Tile: tl})

	if !tl.Tags.Has("Lit") || tl.Tags.Has("Dark") {
		t.Errorf("Tags = %v, want [Lit]", tl.Tags.Sorted())
	}
	if v, ok := tl.Heat("Light"); !ok || v != 5 {
		t.Errorf("Heat(Light) = %v, %v, want 5", v, ok)
	}
	if tl.TypeName() != "Grass" {
		t.Errorf("TypeName() = %q, want Grass", tl.TypeName())
	}
	if m.RNG().Draws() != before+1 {
		t.Errorf("random() should draw once from the map source, draws %d -> %d", before, m.RNG().Draws())
	}
}

func TestScriptRuntimeError(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{})
	h, err := Load(writeScript(t, `
function handle(event)
  promage.set_type("Marble")
  return true
end
`), logger)
	if err != nil {
		t.Fatal(err)
	}
	m := newMap(t)
	args := &event.Args{Event: "Broken", Kind: event.Condition, Map: m, Tile: m.At(0, 0)}
	h.Handle(args)
	if args.IsValid {
		t.Error("failed condition should not be valid")
	}
	if !strings.Contains(buf.String(), "script failed") {
		t.Errorf("log = %q, want script failure warning", buf.String())
	}
	if m.At(0, 0).TypeName() != "Floor" {
		t.Error("failed set_type should leave the tile unchanged")
	}
}

func TestHandleKeepsStackBalanced(t *testing.T) {
	h, err := Load(writeScript(t, `
function handle(event)
  if event.kind == "result" then
    error("boom")
  end
  return event.tile % 2 == 0
end
`), nil)
	if err != nil {
		t.Fatal(err)
	}
	m := newMap(t)
	before := h.state.Top()
	for i := 0; i < 1000; i++ {
		h.Handle(&event.Args{Event: "Fail", Kind: event.Result, Map: m, Tile: m.Tile(0)})
		h.Handle(&event.Args{Event: "Even", Kind: event.Condition, Map: m, Tile: m.Tile(i % m.Len())})
	}
	if got := h.state.Top(); got != before {
		t.Errorf("stack depth = %d after repeated calls, want %d", got, before)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code errors.Code
	}{
		{"syntax", "function handle(event", errors.ErrCodeInvalidScript},
		{"no handle", "x = 1", errors.ErrCodeInvalidScript},
		{"handle not function", "handle = 3", errors.ErrCodeInvalidScript},
		{"host call at load", "promage.add_tag('x')\nfunction handle(e) end", errors.ErrCodeInvalidScript},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeScript(t, tt.body), nil)
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("Load() code = %q, want %q (err %v)", got, tt.code, err)
			}
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.lua"), nil)
	if got := errors.GetCode(err); got != errors.ErrCodeFileNotFound {
		t.Errorf("missing file code = %q, want %q", got, errors.ErrCodeFileNotFound)
	}
}
