package svgdoc

import (
	"fmt"
	"math"
)

// IsShape reports whether name is a basic shape or path element.
func IsShape(name string) bool {
	switch name {
	case "path", "rect", "circle", "ellipse", "line", "polyline", "polygon":
		return true
	}
	return false
}

// ShapePath returns the outline of a shape element as a path. Elements that
// are not shapes return (nil, nil); shapes with zero area or a missing
// required attribute return an empty path.
func ShapePath(e *Element) (Path, error) {
	switch e.Name {
	case "path":
		return ParsePath(e.Attr("d"))
	case "rect":
		return rectPath(e)
	case "circle":
		cx, cy, err := pair(e, "cx", "cy")
		if err != nil {
			return nil, err
		}
		r, err := length(e, "r")
		if err != nil {
			return nil, err
		}
		return ellipsePath(cx, cy, r, r), nil
	case "ellipse":
		cx, cy, err := pair(e, "cx", "cy")
		if err != nil {
			return nil, err
		}
		rx, ry, err := pair(e, "rx", "ry")
		if err != nil {
			return nil, err
		}
		return ellipsePath(cx, cy, rx, ry), nil
	case "line":
		x1, y1, err := pair(e, "x1", "y1")
		if err != nil {
			return nil, err
		}
		x2, y2, err := pair(e, "x2", "y2")
		if err != nil {
			return nil, err
		}
		return Path{
			{Op: MoveTo, P: [3]Point{{x1, y1}}},
			{Op: LineTo, P: [3]Point{{x2, y2}}},
		}, nil
	case "polyline", "polygon":
		v, err := ParseNumbers(e.Attr("points"))
		if err != nil {
			return nil, fmt.Errorf("points: %w", err)
		}
		if len(v)%2 == 1 {
			// An odd trailing coordinate is ignored.
			v = v[:len(v)-1]
		}
		var p Path
		for i := 0; i+1 < len(v); i += 2 {
			op := LineTo
			if i == 0 {
				op = MoveTo
			}
			p = append(p, Segment{Op: op, P: [3]Point{{v[i], v[i+1]}}})
		}
		if e.Name == "polygon" && len(p) > 0 {
			p = append(p, Segment{Op: Close})
		}
		return p, nil
	}
	return nil, nil
}

func length(e *Element, name string) (float64, error) {
	s, ok := e.Get(name)
	if !ok {
		return 0, nil
	}
	v, err := ParsePx(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

func pair(e *Element, a, b string) (float64, float64, error) {
	x, err := length(e, a)
	if err != nil {
		return 0, 0, err
	}
	y, err := length(e, b)
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func rectPath(e *Element) (Path, error) {
	x, y, err := pair(e, "x", "y")
	if err != nil {
		return nil, err
	}
	w, h, err := pair(e, "width", "height")
	if err != nil {
		return nil, err
	}
	if w <= 0 || h <= 0 {
		return Path{}, nil
	}

	rx, err := length(e, "rx")
	if err != nil {
		return nil, err
	}
	ry, err := length(e, "ry")
	if err != nil {
		return nil, err
	}
	// A missing radius takes the value of the other one.
	if !e.Has("rx") {
		rx = ry
	}
	if !e.Has("ry") {
		ry = rx
	}
	rx = math.Min(math.Max(rx, 0), w/2)
	ry = math.Min(math.Max(ry, 0), h/2)

	if rx == 0 || ry == 0 {
		return Path{
			{Op: MoveTo, P: [3]Point{{x, y}}},
			{Op: LineTo, P: [3]Point{{x + w, y}}},
			{Op: LineTo, P: [3]Point{{x + w, y + h}}},
			{Op: LineTo, P: [3]Point{{x, y + h}}},
			{Op: Close},
		}, nil
	}

	p := Path{{Op: MoveTo, P: [3]Point{{x + rx, y}}}}
	line := func(px, py float64) { p = append(p, Segment{Op: LineTo, P: [3]Point{{px, py}}}) }
	arc := func(from, to Point) { p = append(p, arcToCubics(from, rx, ry, 0, false, true, to)...) }

	line(x+w-rx, y)
	arc(Point{x + w - rx, y}, Point{x + w, y + ry})
	line(x+w, y+h-ry)
	arc(Point{x + w, y + h - ry}, Point{x + w - rx, y + h})
	line(x+rx, y+h)
	arc(Point{x + rx, y + h}, Point{x, y + h - ry})
	line(x, y+ry)
	arc(Point{x, y + ry}, Point{x + rx, y})
	p = append(p, Segment{Op: Close})
	return p, nil
}

// kappa is the control point distance for a quarter circle of radius 1.
const kappa = 0.5522847498307936

func ellipsePath(cx, cy, rx, ry float64) Path {
	if rx <= 0 || ry <= 0 {
		return Path{}
	}
	kx, ky := rx*kappa, ry*kappa
	return Path{
		{Op: MoveTo, P: [3]Point{{cx + rx, cy}}},
		{Op: CubeTo, P: [3]Point{{cx + rx, cy + ky}, {cx + kx, cy + ry}, {cx, cy + ry}}},
		{Op: CubeTo, P: [3]Point{{cx - kx, cy + ry}, {cx - rx, cy + ky}, {cx - rx, cy}}},
		{Op: CubeTo, P: [3]Point{{cx - rx, cy - ky}, {cx - kx, cy - ry}, {cx, cy - ry}}},
		{Op: CubeTo, P: [3]Point{{cx + kx, cy - ry}, {cx + rx, cy - ky}, {cx + rx, cy}}},
		{Op: Close},
	}
}
