package raster

import (
	"image"
	stdcolor "image/color"
	"image/draw"
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/tilesmith/pkg/errors"
	"github.com/matzehuels/tilesmith/pkg/svgdoc"
)

// ignored elements carry no geometry.
var ignored = map[string]bool{
	"defs":     true,
	"title":    true,
	"desc":     true,
	"metadata": true,
}

type renderer struct {
	bounds image.Rectangle
}

func (r *renderer) element(dst *image.RGBA, e *svgdoc.Element, parent paint, ctm svgdoc.Matrix) error {
	if svgdoc.Prefix(e.Name) != "" || ignored[e.Name] {
		return nil
	}
	if e.Name != "g" && !svgdoc.IsShape(e.Name) {
		return errors.NewRenderError(e.Name, nil, "unsupported element")
	}
	if v, _ := e.Resolved("display"); strings.TrimSpace(v) == "none" {
		return nil
	}

	st, err := parent.inherit(e)
	if err != nil {
		return errors.NewRenderError(e.Name, err, "invalid presentation attribute")
	}
	if t, ok := e.Get("transform"); ok {
		m, err := svgdoc.ParseTransform(t)
		if err != nil {
			return errors.NewRenderError(e.Name, err, "invalid transform")
		}
		ctm = ctm.Mul(m)
	}

	opacity := 1.0
	if v, ok := e.Resolved("opacity"); ok {
		if opacity, err = parseUnit(v); err != nil {
			return errors.NewRenderError(e.Name, err, "invalid opacity")
		}
	}
	switch {
	case opacity <= 0:
		return nil
	case opacity >= 1:
		return r.content(dst, e, st, ctm)
	}

	off := image.NewRGBA(r.bounds)
	if err := r.content(off, e, st, ctm); err != nil {
		return err
	}
	alpha := image.NewUniform(stdcolor.Alpha{A: uint8(opacity*255 + 0.5)})
	draw.DrawMask(dst, r.bounds, off, r.bounds.Min, alpha, image.Point{}, draw.Over)
	return nil
}

func (r *renderer) content(dst *image.RGBA, e *svgdoc.Element, st paint, ctm svgdoc.Matrix) error {
	if e.Name == "g" {
		for _, ch := range e.Children {
			if err := r.element(dst, ch, st, ctm); err != nil {
				return err
			}
		}
		return nil
	}
	return r.shape(dst, e, st, ctm)
}

func (r *renderer) shape(dst *image.RGBA, e *svgdoc.Element, st paint, ctm svgdoc.Matrix) error {
	p, err := svgdoc.ShapePath(e)
	if err != nil {
		reason := "invalid geometry"
		if e.Name == "path" {
			reason = "invalid path data"
		}
		return errors.NewRenderError(e.Name, err, "%s", reason)
	}
	if len(p) == 0 || !st.visible {
		return nil
	}

	dp := p.Transform(ctm)
	for _, s := range dp {
		for _, pt := range s.P {
			if math.IsNaN(pt.X) || math.IsInf(pt.X, 0) || math.IsNaN(pt.Y) || math.IsInf(pt.Y, 0) {
				return errors.NewRenderError(e.Name, nil, "non-finite coordinates")
			}
		}
	}
	polys := flatten(dp, tolerance)

	if st.fill != nil && e.Name != "line" {
		c := st.fill.WithAlpha(st.fillOpacity)
		if c.A > 0 {
			var m *image.Alpha
			if st.evenOdd {
				m = coverEvenOdd(polys, r.bounds)
			} else {
				m = coverNonZero(polys, r.bounds)
			}
			composite(dst, m, c.NRGBA())
		}
	}

	if st.stroke != nil && st.strokeWidth > 0 {
		c := st.stroke.WithAlpha(st.strokeOpacity)
		if c.A > 0 {
			w := st.strokeWidth * ctm.MeanScale()
			outline := strokeOutline(polys, w, st.lineCap)
			composite(dst, coverNonZero(outline, r.bounds), c.NRGBA())
		}
	}
	return nil
}

// composite paints c through coverage mask m, source-over.
func composite(dst *image.RGBA, m *image.Alpha, c stdcolor.NRGBA) {
	if m == nil {
		return
	}
	draw.DrawMask(dst, m.Rect, image.NewUniform(c), image.Point{}, m, m.Rect.Min, draw.Over)
}

// parseUnit parses a number or percentage and clamps it to [0, 1].
func parseUnit(s string) (float64, error) {
	s = strings.TrimSpace(s)
	scale := 1.0
	if strings.HasSuffix(s, "%") {
		s, scale = strings.TrimSuffix(s, "%"), 0.01
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) {
		return 0, strconv.ErrSyntax
	}
	return math.Min(1, math.Max(0, v*scale)), nil
}
