// Package diagram renders map pipelines as Graphviz graphs.
//
// A [Diagram] has one node per step, in run order, joined by solid edges.
// Motifs and custom event templates referenced by a step appear as side
// nodes with dashed edges into the steps that use them.
//
//	dot := diagram.ToDOT(d, diagram.Options{Detailed: true})
//	svg, err := diagram.RenderSVG(ctx, dot)
package diagram

// NodeKind distinguishes the roles of diagram nodes.
type NodeKind int

const (
	NodeStep NodeKind = iota
	NodeMotif
	NodeEvent
)

// Node is one box in the diagram.
type Node struct {
	ID    string
	Label string
	Kind  NodeKind
	// Attrs are shown under the label in detailed diagrams, in order.
	Attrs []Attr
}

// Attr is one name/value line of a detailed node label.
type Attr struct {
	Name  string
	Value string
}

// Edge connects two nodes by ID.
type Edge struct {
	From string
	To   string
}

// Diagram is the graph of a single map pipeline.
type Diagram struct {
	Name  string
	Nodes []Node
	Edges []Edge
}

// Node returns the node with the given ID.
func (d *Diagram) Node(id string) (Node, bool) {
	for _, n := range d.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// AddNode appends n unless a node with the same ID exists.
func (d *Diagram) AddNode(n Node) {
	if _, ok := d.Node(n.ID); ok {
		return
	}
	d.Nodes = append(d.Nodes, n)
}

// AddEdge appends an edge.
func (d *Diagram) AddEdge(from, to string) {
	d.Edges = append(d.Edges, Edge{From: from, To: to})
}
