package step

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/ddurio/ProMage2-sub001/pkg/rng"
	"github.com/ddurio/ProMage2-sub001/pkg/tilemap"
)

// testEnv returns an Env whose log output is captured in the returned buffer.
func testEnv(t *testing.T) (*Env, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	env := NewEnv()
	env.Logger = log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	return env, &buf
}

func newMap(t *testing.T, env *Env, w, h int, fill string, seed uint64) *tilemap.Map {
	t.Helper()
	def, err := env.Tiles.MustLookup(fill)
	if err != nil {
		t.Fatal(err)
	}
	m, err := tilemap.New("test", w, h, def, env.Tiles, rng.New(seed))
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func mustStep(t *testing.T, kind string, src Source, env *Env, parents ...string) Step {
	t.Helper()
	s, err := New(kind, src, env, parents)
	if err != nil {
		t.Fatalf("New(%s) error = %v", kind, err)
	}
	return s
}

// paint sets the type of every listed coordinate.
func paint(t *testing.T, m *tilemap.Map, typ string, coords ...[2]int) {
	t.Helper()
	def, err := m.Catalog().MustLookup(typ)
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range coords {
		m.At(c[0], c[1]).Type = def
	}
}
