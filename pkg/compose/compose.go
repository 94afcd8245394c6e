// Package compose merges resolved recipes into canonical SVG documents and
// memoizes them by fingerprint.
//
// [Compose] stacks the layers of a recipe in declared order, later layers
// drawn over earlier ones. Each layer becomes one <g> holding a copy of the
// layer's content with its color substituted and, when the recipe asks for
// it, a group opacity.
//
// [Cache] is the only mutable structure shared between pipeline workers.
// Concurrent requests for the same fingerprint share a single construction
// and receive the same *[Document].
package compose

import (
	"strconv"
	"strings"

	"github.com/matzehuels/tilesmith/pkg/color"
	"github.com/matzehuels/tilesmith/pkg/recipe"
	"github.com/matzehuels/tilesmith/pkg/svgdoc"
)

// SVGNamespace is the namespace of composed documents.
const SVGNamespace = "http://www.w3.org/2000/svg"

// Document is an optimized composed document. It is read-only once created.
type Document struct {
	Fingerprint Fingerprint
	Source      []byte
}

// Compose merges res into a single, not yet optimized, document. The canvas
// is the viewBox of the first layer; other layers are scaled onto it.
func Compose(res *recipe.Resolved) *svgdoc.Element {
	canvas := svgdoc.ViewBox{Width: 1, Height: 1}
	if len(res.Layers) > 0 {
		canvas = res.Layers[0].Layer.ViewBox
	}

	root := svgdoc.New("svg",
		svgdoc.Attr{Name: "xmlns", Value: SVGNamespace},
		svgdoc.Attr{Name: "viewBox", Value: canvas.String()},
	)
	for _, l := range res.Layers {
		for _, a := range l.Layer.Root.Attrs {
			if strings.HasPrefix(a.Name, "xmlns:") && !root.Has(a.Name) {
				root.Set(a.Name, a.Value)
			}
		}
	}

	if bg := res.Recipe.Background; bg != nil {
		root.Append(svgdoc.New("rect",
			svgdoc.Attr{Name: "x", Value: svgdoc.FormatNumber(canvas.MinX, 6)},
			svgdoc.Attr{Name: "y", Value: svgdoc.FormatNumber(canvas.MinY, 6)},
			svgdoc.Attr{Name: "width", Value: svgdoc.FormatNumber(canvas.Width, 6)},
			svgdoc.Attr{Name: "height", Value: svgdoc.FormatNumber(canvas.Height, 6)},
			svgdoc.Attr{Name: "fill", Value: bg.Hex()},
		))
	}

	for _, l := range res.Layers {
		root.Append(layerGroup(l, canvas))
	}
	return root
}

func layerGroup(rl recipe.ResolvedLayer, canvas svgdoc.ViewBox) *svgdoc.Element {
	src := rl.Layer.Root
	g := svgdoc.New("g")
	for name := range svgdoc.Presentation {
		if v, ok := src.Resolved(name); ok {
			g.Set(name, v)
		}
	}
	if rl.Layer.ViewBox != canvas {
		g.Set("transform", rl.Layer.ViewBox.Fit(canvas).String())
	}
	for _, ch := range src.Children {
		g.Append(ch.Clone())
	}

	if rl.Color != nil {
		repaint(g, *rl.Color)
		if v, ok := g.Get("fill"); !ok || isSolid(v) {
			g.Set("fill", rl.Color.Hex())
		}
		g.Set("color", rl.Color.Hex())
	}
	if rl.Alpha < 1 {
		alpha := rl.Alpha
		if v, ok := g.Get("opacity"); ok {
			if o, err := strconv.ParseFloat(v, 64); err == nil {
				alpha *= o
			}
		}
		g.Set("opacity", svgdoc.FormatNumber(alpha, 3))
	}
	g.SortAttrs()
	return g
}

// repaint replaces every solid fill and stroke below e with c, and every
// color property so currentColor paints follow. Paint servers and "none"
// are left alone.
func repaint(e *svgdoc.Element, c color.Color) {
	hex := c.Hex()
	e.Walk(func(el *svgdoc.Element) bool {
		for _, name := range repainted {
			if v, ok := el.Get(name); ok && isSolid(v) {
				el.Set(name, hex)
			}
		}
		if style, ok := el.Get("style"); ok {
			decls := svgdoc.ParseStyle(style)
			parts := make([]string, len(decls))
			for i, d := range decls {
				if isRepainted(d.Name) && isSolid(d.Value) {
					d.Value = hex
				}
				parts[i] = d.Name + ":" + d.Value
			}
			el.Set("style", strings.Join(parts, ";"))
		}
		return true
	})
}

var repainted = []string{"fill", "stroke", "color"}

func isRepainted(name string) bool {
	return name == "fill" || name == "stroke" || name == "color"
}

func isSolid(paint string) bool {
	_, has, err := color.Parse(paint)
	return err == nil && has
}
