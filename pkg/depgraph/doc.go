// Package depgraph models which recipes share which layers.
//
// # Overview
//
// The sharing graph is a two-row layered graph: recipes in row 0, layers in
// row 1, and one edge from every recipe to each layer it references. Layers
// referenced by a recipe but absent from the layer store are kept as
// missing nodes so that broken references show up in exports.
//
// # Scheduling
//
// Recipes in different connected components share no layer and therefore
// no composed document. [Graph.Schedule] orders recipes component by
// component, smallest first, so that related recipes run close together
// and small independent textures finish early.
//
// # Export
//
// [Graph.DOT] produces Graphviz source and [RenderSVG] lays it out in
// process with [github.com/goccy/go-graphviz]:
//
//	g := depgraph.Build(set, store)
//	svg, err := depgraph.RenderSVG(g.DOT())
package depgraph
