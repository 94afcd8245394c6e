package depgraph

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
)

// DOT converts the graph to Graphviz source. Recipes are drawn as boxes,
// layers as ellipses and missing layers dashed in red.
func (g *Graph) DOT() string {
	var buf bytes.Buffer
	buf.WriteString("digraph tilesmith {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [fontsize=12];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		fmt.Fprintf(&buf, "  %q [label=%q, %s];\n", n.ID(), n.Name, nodeStyle(n.Kind))
	}

	buf.WriteString("\n")
	for _, c := range g.Components() {
		for _, r := range c.Recipes {
			from := NodeID(KindRecipe, r)
			for _, to := range g.Children(from) {
				fmt.Fprintf(&buf, "  %q -> %q;\n", from, to)
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeStyle(k Kind) string {
	switch k {
	case KindRecipe:
		return `shape=box, style="rounded,filled", fillcolor=white`
	case KindMissing:
		return `shape=ellipse, style=dashed, color=red, fontcolor=red`
	}
	return `shape=ellipse, style=filled, fillcolor=lightgrey`
}

// RenderSVG lays out DOT source with Graphviz and returns SVG.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
