package depgraph

import (
	"errors"
	"slices"
	"sort"

	"github.com/matzehuels/tilesmith/pkg/layers"
	"github.com/matzehuels/tilesmith/pkg/recipe"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] for an empty id.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when the id is taken.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when From is missing.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when To is missing.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrInvalidEdge is returned by [Graph.Validate] for an edge that does
	// not lead from a recipe to a layer.
	ErrInvalidEdge = errors.New("edges must lead from a recipe to a layer")
)

// Kind distinguishes recipe and layer nodes.
type Kind int

const (
	// KindRecipe is an output texture.
	KindRecipe Kind = iota
	// KindLayer is a layer present in the store.
	KindLayer
	// KindMissing is a layer referenced by a recipe but absent from the store.
	KindMissing
)

// Row returns the layered row of nodes of this kind.
func (k Kind) Row() int {
	if k == KindRecipe {
		return 0
	}
	return 1
}

func (k Kind) String() string {
	switch k {
	case KindRecipe:
		return "recipe"
	case KindLayer:
		return "layer"
	case KindMissing:
		return "missing"
	}
	return "unknown"
}

// Node is a recipe or a layer. Recipe and layer names may coincide, so the
// graph id is derived from both kind and name.
type Node struct {
	Name string
	Kind Kind
}

// ID returns the graph-wide identifier of the node.
func (n Node) ID() string { return NodeID(n.Kind, n.Name) }

// NodeID returns the identifier of a node of the given kind and name.
func NodeID(k Kind, name string) string {
	if k == KindRecipe {
		return "recipe:" + name
	}
	return "layer:" + name
}

// Edge connects a recipe to a layer it references.
type Edge struct {
	From string
	To   string
}

// Graph is the sharing graph. It is not safe for concurrent mutation.
type Graph struct {
	nodes    map[string]*Node
	edges    []Edge
	outgoing map[string][]string
	incoming map[string][]string
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
	}
}

// Build creates the sharing graph of every recipe in set.
func Build(set *recipe.Set, store *layers.Store) *Graph {
	g := New()
	for _, id := range store.IDs() {
		_ = g.AddNode(Node{Name: id, Kind: KindLayer})
	}
	for _, r := range set.Recipes {
		_ = g.AddNode(Node{Name: r.Name, Kind: KindRecipe})
		seen := make(map[string]bool)
		for _, id := range r.LayerIDs() {
			if seen[id] {
				continue
			}
			seen[id] = true
			to := NodeID(KindLayer, id)
			if _, ok := g.nodes[to]; !ok {
				_ = g.AddNode(Node{Name: id, Kind: KindMissing})
			}
			_ = g.AddEdge(Edge{From: NodeID(KindRecipe, r.Name), To: to})
		}
	}
	return g
}

// AddNode adds n to the graph.
func (g *Graph) AddNode(n Node) error {
	if n.Name == "" {
		return ErrInvalidNodeID
	}
	id := n.ID()
	if _, exists := g.nodes[id]; exists {
		return ErrDuplicateNodeID
	}
	g.nodes[id] = &n
	return nil
}

// AddEdge adds a directed edge between two existing nodes.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := g.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	g.edges = append(g.edges, e)
	g.outgoing[e.From] = append(g.outgoing[e.From], e.To)
	g.incoming[e.To] = append(g.incoming[e.To], e.From)
	return nil
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes sorted by row, then name.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		if a.Kind.Row() != b.Kind.Row() {
			return a.Kind.Row() < b.Kind.Row()
		}
		return a.Name < b.Name
	})
	return nodes
}

// NodesInRow returns the nodes of one row sorted by name.
func (g *Graph) NodesInRow(row int) []*Node {
	var out []*Node
	for _, n := range g.Nodes() {
		if n.Kind.Row() == row {
			out = append(out, n)
		}
	}
	return out
}

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Children returns the layer ids a recipe references.
func (g *Graph) Children(id string) []string { return g.outgoing[id] }

// Parents returns the recipe ids referencing a layer.
func (g *Graph) Parents(id string) []string { return g.incoming[id] }

// Missing returns the names of referenced layers absent from the store,
// sorted.
func (g *Graph) Missing() []string {
	var out []string
	for _, n := range g.nodes {
		if n.Kind == KindMissing {
			out = append(out, n.Name)
		}
	}
	sort.Strings(out)
	return out
}

// Unused returns the names of layers no recipe references, sorted.
func (g *Graph) Unused() []string {
	var out []string
	for id, n := range g.nodes {
		if n.Kind == KindLayer && len(g.incoming[id]) == 0 {
			out = append(out, n.Name)
		}
	}
	sort.Strings(out)
	return out
}

// Validate checks that every edge leads from a recipe to a layer node.
func (g *Graph) Validate() error {
	for _, e := range g.edges {
		src, okS := g.nodes[e.From]
		dst, okD := g.nodes[e.To]
		if !okS || !okD || src.Kind.Row() != 0 || dst.Kind.Row() != 1 {
			return ErrInvalidEdge
		}
	}
	return nil
}
