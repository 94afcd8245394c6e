package raster

import (
	"fmt"
	"strings"

	"github.com/matzehuels/tilesmith/pkg/color"
	"github.com/matzehuels/tilesmith/pkg/svgdoc"
)

type lineCap uint8

const (
	capButt lineCap = iota
	capRound
	capSquare
)

// paint is the inherited presentation state of an element.
type paint struct {
	fill          *color.Color // nil paints nothing
	fillOpacity   float64
	evenOdd       bool
	stroke        *color.Color
	strokeWidth   float64
	strokeOpacity float64
	lineCap       lineCap
	current       color.Color // value of currentColor
	visible       bool
}

var defaultPaint = paint{
	fill:          &color.Black,
	fillOpacity:   1,
	strokeWidth:   1,
	strokeOpacity: 1,
	current:       color.Black,
	visible:       true,
}

// inherit returns the state of e given its parent's state p.
func (p paint) inherit(e *svgdoc.Element) (paint, error) {
	get := func(name string) (string, bool) {
		v, ok := e.Resolved(name)
		v = strings.TrimSpace(v)
		if !ok || v == "inherit" {
			return "", false
		}
		return v, true
	}

	// color first: fill and stroke may refer to it.
	if v, ok := get("color"); ok {
		c, has, err := color.Parse(v)
		if err != nil {
			return p, err
		}
		if has {
			p.current = c
		}
	}
	for _, prop := range []struct {
		name string
		dst  **color.Color
	}{{"fill", &p.fill}, {"stroke", &p.stroke}} {
		v, ok := get(prop.name)
		if !ok {
			continue
		}
		c, err := p.paintValue(v)
		if err != nil {
			return p, fmt.Errorf("%s: %w", prop.name, err)
		}
		*prop.dst = c
	}

	var err error
	if v, ok := get("fill-opacity"); ok {
		if p.fillOpacity, err = parseUnit(v); err != nil {
			return p, fmt.Errorf("fill-opacity: %w", err)
		}
	}
	if v, ok := get("stroke-opacity"); ok {
		if p.strokeOpacity, err = parseUnit(v); err != nil {
			return p, fmt.Errorf("stroke-opacity: %w", err)
		}
	}
	if v, ok := get("stroke-width"); ok {
		w, err := svgdoc.ParsePx(v)
		if err != nil {
			return p, fmt.Errorf("stroke-width: %w", err)
		}
		if w < 0 {
			return p, fmt.Errorf("stroke-width: negative value %g", w)
		}
		p.strokeWidth = w
	}
	if v, ok := get("fill-rule"); ok {
		switch v {
		case "nonzero":
			p.evenOdd = false
		case "evenodd":
			p.evenOdd = true
		default:
			return p, fmt.Errorf("fill-rule: unknown value %q", v)
		}
	}
	if v, ok := get("stroke-linecap"); ok {
		switch v {
		case "butt":
			p.lineCap = capButt
		case "round":
			p.lineCap = capRound
		case "square":
			p.lineCap = capSquare
		default:
			return p, fmt.Errorf("stroke-linecap: unknown value %q", v)
		}
	}
	if v, ok := get("visibility"); ok {
		switch v {
		case "visible":
			p.visible = true
		case "hidden", "collapse":
			p.visible = false
		default:
			return p, fmt.Errorf("visibility: unknown value %q", v)
		}
	}
	return p, nil
}

func (p paint) paintValue(v string) (*color.Color, error) {
	switch {
	case strings.EqualFold(v, "currentColor"):
		c := p.current
		return &c, nil
	case strings.HasPrefix(v, "url("):
		return nil, fmt.Errorf("paint servers are not supported")
	}
	c, has, err := color.Parse(v)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, nil
	}
	return &c, nil
}
