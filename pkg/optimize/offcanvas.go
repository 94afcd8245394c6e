package optimize

import (
	"github.com/matzehuels/tilesmith/pkg/svgdoc"
)

// removeOffCanvasPaths drops shapes whose bounds, including half the stroke
// width, do not touch the root viewBox. Documents without a usable viewBox
// and shapes with unparseable geometry or transforms are left alone.
func removeOffCanvasPaths(root *svgdoc.Element) {
	vb, err := svgdoc.RootViewBox(root)
	if err != nil {
		return
	}
	canvas := vb.Rect()
	pruneOffCanvas(root, canvas, svgdoc.Identity, strokeState{width: 1})
}

type strokeState struct {
	painted bool
	width   float64
}

func (s strokeState) update(e *svgdoc.Element) strokeState {
	if v, ok := e.Get("stroke"); ok {
		s.painted = v != "none"
	}
	if v, ok := e.Get("stroke-width"); ok {
		if w, err := svgdoc.ParsePx(v); err == nil {
			s.width = w
		}
	}
	return s
}

func pruneOffCanvas(e *svgdoc.Element, canvas svgdoc.Rect, ctm svgdoc.Matrix, st strokeState) {
	out := e.Children[:0]
	for _, c := range e.Children {
		m := ctm
		if t, ok := c.Get("transform"); ok {
			local, err := svgdoc.ParseTransform(t)
			if err != nil {
				out = append(out, c)
				continue
			}
			m = ctm.Mul(local)
		}
		cst := st.update(c)

		if svgdoc.IsShape(c.Name) && offCanvas(c, canvas, m, cst) {
			continue
		}
		pruneOffCanvas(c, canvas, m, cst)
		out = append(out, c)
	}
	for i := len(out); i < len(e.Children); i++ {
		e.Children[i] = nil
	}
	e.Children = out
}

func offCanvas(e *svgdoc.Element, canvas svgdoc.Rect, m svgdoc.Matrix, st strokeState) bool {
	p, err := svgdoc.ShapePath(e)
	if err != nil {
		return false
	}
	b, ok := p.Transform(m).Bounds()
	if !ok {
		return false
	}
	if st.painted {
		b = b.Grow(st.width / 2 * m.MeanScale())
	}
	return !b.Intersects(canvas)
}
