package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ddurio/ProMage2-sub001/pkg/errors"
	"github.com/ddurio/ProMage2-sub001/pkg/pipeline"
)

const caveHCL = `
motif "Cave" {
  vars = { floor = "Floor" }
}

custom_result "Torch" {
  attrs   = ["torchLevel"]
  allowed = { torchLevel = ["1", "2", "3"] }
}

map "Cave" {
  width  = 10
  height = 8
  motifs = ["Cave"]

  step "Sprinkle" {
    count   = 20
    setType = "%floor%"
  }

  step "CellularAutomata" {
    ifIsType       = "Wall"
    ifNeighborType = "Floor"
    ifNumNeighbors = "5~8"
    setType        = "Floor"
  }
}
`

const extraHCL = `
map "Pond" {
  width  = 6
  height = 6

  step "Sprinkle" {
    count   = 4
    setType = "Water"
  }
}

map "Broken" {
  width  = 4
  height = 4

  step "Earthquake" {
    count = 1
  }
}
`

// newTestCLI returns a CLI with an isolated cache whose status output and
// command output both go to the returned buffer.
func newTestCLI(t *testing.T) (*CLI, *bytes.Buffer) {
	t.Helper()
	t.Setenv("PROMAGE_CACHE_DIR", t.TempDir())
	t.Setenv("NO_COLOR", "1")

	var out bytes.Buffer
	c := New(&bytes.Buffer{}, LogInfo)
	c.Out = &out
	c.pick = nil

	prev := output
	output = &out
	t.Cleanup(func() { output = prev })
	return c, &out
}

func execute(t *testing.T, c *CLI, args ...string) error {
	t.Helper()
	root := c.RootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

func writeDef(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestGenerateCommand(t *testing.T) {
	c, out := newTestCLI(t)
	dir := t.TempDir()
	def := writeDef(t, dir, "cave.hcl", caveHCL)
	base := filepath.Join(dir, "out", "cave")

	if err := execute(t, c, "generate", def, "-f", "txt,json", "-o", base); err != nil {
		t.Fatalf("generate: %v", err)
	}

	text, err := os.ReadFile(base + ".txt")
	if err != nil {
		t.Fatalf("read txt artifact: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(string(text), "\n"), "\n")
	if len(lines) != 8 {
		t.Errorf("txt artifact has %d rows, want 8", len(lines))
	}
	for i, line := range lines {
		if len([]rune(line)) != 10 {
			t.Errorf("row %d has %d columns, want 10", i, len([]rune(line)))
		}
	}
	if _, err := os.Stat(base + ".json"); err != nil {
		t.Errorf("json artifact missing: %v", err)
	}
	if !strings.Contains(out.String(), string(text)) {
		t.Errorf("preview missing from output:\n%s", out.String())
	}

	// Same definitions and seed: served from the cache, same bytes.
	out.Reset()
	if err := execute(t, c, "generate", def, "-f", "txt", "-o", base, "-q"); err != nil {
		t.Fatalf("second generate: %v", err)
	}
	if !strings.Contains(out.String(), "cached") {
		t.Errorf("second run output = %q, want cache hit", out.String())
	}
	again, err := os.ReadFile(base + ".txt")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(again, text) {
		t.Errorf("cached artifact differs:\n%s\nwant:\n%s", again, text)
	}
}

func TestGenerateBatch(t *testing.T) {
	c, _ := newTestCLI(t)
	dir := t.TempDir()
	def := writeDef(t, dir, "cave.hcl", caveHCL)
	base := filepath.Join(dir, "cave")

	if err := execute(t, c, "generate", def, "-n", "3", "--seed", "7", "-o", base, "--no-cache"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, seed := range []string{"7", "8", "9"} {
		if _, err := os.Stat(base + "-" + seed + ".txt"); err != nil {
			t.Errorf("seed %s artifact missing: %v", seed, err)
		}
	}
}

func TestGenerateMapSelection(t *testing.T) {
	c, _ := newTestCLI(t)
	dir := t.TempDir()
	writeDef(t, dir, "a.hcl", caveHCL)
	writeDef(t, dir, "b.hcl", extraHCL)

	err := execute(t, c, "generate", dir, "-q")
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("generate without --map: error = %v, want INVALID_INPUT", err)
	}

	err = execute(t, c, "generate", dir, "-m", "Nowhere", "-q")
	if !errors.Is(err, errors.ErrCodeUnknownMap) {
		t.Errorf("generate unknown map: error = %v, want UNKNOWN_MAP", err)
	}

	base := filepath.Join(t.TempDir(), "pond")
	if err := execute(t, c, "generate", dir, "-m", "Pond", "-q", "-o", base); err != nil {
		t.Fatalf("generate Pond: %v", err)
	}
	if _, err := os.Stat(base + ".txt"); err != nil {
		t.Errorf("pond artifact missing: %v", err)
	}
}

func TestGenerateSeedZero(t *testing.T) {
	def := writeDef(t, t.TempDir(), "cave.hcl", caveHCL)

	c, out := newTestCLI(t)
	if err := execute(t, c, "generate", def, "-q", "--seed", "0", "-o", filepath.Join(t.TempDir(), "flag")); err != nil {
		t.Fatalf("generate --seed 0: %v", err)
	}
	if !strings.Contains(out.String(), "(seed 0)") {
		t.Errorf("output = %q, want seed 0 from flag", out.String())
	}

	t.Setenv("PROMAGE_SEED", "0")
	c, out = newTestCLI(t)
	if err := execute(t, c, "generate", def, "-q", "-o", filepath.Join(t.TempDir(), "env")); err != nil {
		t.Fatalf("generate with PROMAGE_SEED=0: %v", err)
	}
	if !strings.Contains(out.String(), "(seed 0)") {
		t.Errorf("output = %q, want seed 0 from environment", out.String())
	}
}

func TestGenerateMapPicker(t *testing.T) {
	c, _ := newTestCLI(t)
	dir := t.TempDir()
	writeDef(t, dir, "a.hcl", caveHCL)
	writeDef(t, dir, "b.hcl", extraHCL)

	var offered []string
	c.pick = func(maps []pipeline.Definition) (string, error) {
		for _, def := range maps {
			offered = append(offered, def.Name)
		}
		return "Pond", nil
	}
	base := filepath.Join(t.TempDir(), "picked")
	if err := execute(t, c, "generate", dir, "-q", "-o", base); err != nil {
		t.Fatalf("generate with picker: %v", err)
	}
	if diff := cmp.Diff([]string{"Broken", "Cave", "Pond"}, offered); diff != "" {
		t.Errorf("offered maps mismatch (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(base + ".txt"); err != nil {
		t.Errorf("picked map artifact missing: %v", err)
	}

	c.pick = func([]pipeline.Definition) (string, error) { return "", nil }
	err := execute(t, c, "generate", dir, "-q")
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("generate with cancelled picker: error = %v, want INVALID_INPUT", err)
	}
}

func TestValidateCommand(t *testing.T) {
	c, out := newTestCLI(t)
	dir := t.TempDir()
	writeDef(t, dir, "a.hcl", caveHCL)

	if err := execute(t, c, "validate", dir); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out.String(), "2 steps") {
		t.Errorf("output = %q, want step count", out.String())
	}

	writeDef(t, dir, "b.hcl", extraHCL)
	out.Reset()
	err := execute(t, c, "validate", dir)
	if err == nil || !strings.Contains(err.Error(), "1 of 3 maps") {
		t.Errorf("validate with broken map: error = %v, want 1 of 3 failed", err)
	}
	if !strings.Contains(out.String(), "Earthquake") {
		t.Errorf("output = %q, want unknown step kind reported", out.String())
	}
}

func TestGraphCommand(t *testing.T) {
	c, out := newTestCLI(t)
	def := writeDef(t, t.TempDir(), "cave.hcl", caveHCL)

	if err := execute(t, c, "graph", def, "--detailed"); err != nil {
		t.Fatalf("graph: %v", err)
	}
	dot := out.String()
	for _, want := range []string{"digraph", "Sprinkle", "CellularAutomata", "Cave"} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT output missing %q:\n%s", want, dot)
		}
	}

	err := execute(t, c, "graph", def, "-o", "cave.png")
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("graph to .png: error = %v, want INVALID_INPUT", err)
	}
}

func TestEventsCommand(t *testing.T) {
	c, out := newTestCLI(t)
	def := writeDef(t, t.TempDir(), "cave.hcl", caveHCL)

	if err := execute(t, c, "events", def); err != nil {
		t.Fatalf("events: %v", err)
	}
	for _, want := range []string{"Torch", "result", "torchLevel", "1, 2, 3", "no handler subscribed"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestDiagramFormat(t *testing.T) {
	tests := []struct {
		output  string
		want    string
		wantErr bool
	}{
		{"", "dot", false},
		{"pipe.dot", "dot", false},
		{"pipe.gv", "dot", false},
		{"pipe.SVG", "svg", false},
		{"pipe.pdf", "", true},
	}
	for _, tt := range tests {
		got, err := diagramFormat(tt.output)
		if (err != nil) != tt.wantErr {
			t.Errorf("diagramFormat(%q) error = %v, wantErr %v", tt.output, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("diagramFormat(%q) = %q, want %q", tt.output, got, tt.want)
		}
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"txt"}},
		{"json", []string{"json"}},
		{"txt, heat,,json", []string{"txt", "heat", "json"}},
	}
	for _, tt := range tests {
		got := parseFormats(tt.in)
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
