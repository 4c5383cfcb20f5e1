package diagram

import (
	"context"
	"strings"
	"testing"
)

func sample() Diagram {
	d := Diagram{Name: "Cavern"}
	d.AddNode(Node{ID: "step0", Label: "0: CellularAutomata", Attrs: []Attr{{Name: "radius", Value: "1"}}})
	d.AddNode(Node{ID: "step1", Label: "1: Sprinkle"})
	d.AddNode(Node{ID: "motif:Cave", Label: "Cave", Kind: NodeMotif})
	d.AddNode(Node{ID: "motif:Cave", Label: "duplicate", Kind: NodeMotif})
	d.AddNode(Node{ID: "event:IsLit", Label: "IsLit", Kind: NodeEvent})
	d.AddEdge("step0", "step1")
	d.AddEdge("motif:Cave", "step0")
	d.AddEdge("event:IsLit", "step1")
	return d
}

func TestAddNodeDeduplicates(t *testing.T) {
	d := sample()
	if len(d.Nodes) != 4 {
		t.Fatalf("len(Nodes) = %d, want 4", len(d.Nodes))
	}
	n, ok := d.Node("motif:Cave")
	if !ok || n.Label != "Cave" {
		t.Errorf("Node(motif:Cave) = %+v, %v", n, ok)
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(sample(), Options{})

	for _, want := range []string{
		"digraph G {",
		`label="Cavern";`,
		`"step0" [label="0: CellularAutomata"];`,
		`"step0" -> "step1";`,
		`"motif:Cave" -> "step0" [style=dashed, color=grey];`,
		"shape=ellipse",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT missing %q in:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "radius") {
		t.Error("non-detailed DOT should omit attributes")
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(sample(), Options{Detailed: true})
	if !strings.Contains(dot, `label="0: CellularAutomata\nradius: 1"`) {
		t.Errorf("detailed DOT should list attributes:\n%s", dot)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `width="100" height="50"`) {
		t.Errorf("normalizeViewBox = %s", out)
	}

	plain := []byte(`<svg><g/></svg>`)
	if string(normalizeViewBox(plain)) != string(plain) {
		t.Error("svg without viewBox should be unchanged")
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(sample(), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("RenderSVG output should contain an svg element")
	}
}
