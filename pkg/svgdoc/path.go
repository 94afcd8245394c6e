package svgdoc

import (
	"fmt"
	"math"
	"strings"
)

// Point is a 2D coordinate.
type Point struct{ X, Y float64 }

// Op is a canonical path operation.
type Op uint8

// Path operations. Every SVG path command is reduced to one of these.
const (
	MoveTo Op = iota
	LineTo
	QuadTo
	CubeTo
	Close
)

// Segment is one path operation with absolute coordinates. MoveTo and
// LineTo use P[0], QuadTo uses P[0..1] and CubeTo P[0..2]; the last used
// point is the new current point.
type Segment struct {
	Op Op
	P  [3]Point
}

// End returns the segment's end point. It is meaningless for Close.
func (s Segment) End() Point {
	switch s.Op {
	case QuadTo:
		return s.P[1]
	case CubeTo:
		return s.P[2]
	}
	return s.P[0]
}

func (s Segment) npoints() int {
	switch s.Op {
	case MoveTo, LineTo:
		return 1
	case QuadTo:
		return 2
	case CubeTo:
		return 3
	}
	return 0
}

// Path is a sequence of absolute segments.
type Path []Segment

// ParsePath parses SVG path data. All commands are accepted; the result
// only contains absolute MoveTo, LineTo, QuadTo, CubeTo and Close.
func ParsePath(d string) (Path, error) {
	sc := &scanner{s: d}
	var (
		path      Path
		cur       Point
		start     Point
		lastCtrl  Point
		lastOp    byte
		cmd       byte
		closed    bool
		haveStart bool
	)

	for !sc.done() {
		c := sc.s[sc.pos]
		if isCommand(c) {
			cmd = c
			sc.pos++
		} else if cmd == 0 {
			return nil, fmt.Errorf("path data must start with a command, got %q", c)
		} else if !sc.peekNumber() {
			return nil, fmt.Errorf("unexpected %q at offset %d", c, sc.pos)
		}

		rel := cmd >= 'a'
		upper := cmd &^ 0x20
		if !haveStart && upper != 'M' {
			return nil, fmt.Errorf("path data must start with a moveto, got %q", cmd)
		}
		if closed && upper != 'M' && upper != 'Z' {
			path = append(path, Segment{Op: MoveTo, P: [3]Point{start}})
		}
		closed = false

		nums := func(n int) ([]float64, error) {
			out := make([]float64, n)
			for i := range out {
				v, err := sc.number()
				if err != nil {
					return nil, fmt.Errorf("%c command: %w", cmd, err)
				}
				out[i] = v
			}
			return out, nil
		}
		pt := func(x, y float64) Point {
			if rel {
				return Point{cur.X + x, cur.Y + y}
			}
			return Point{x, y}
		}

		switch upper {
		case 'Z':
			path = append(path, Segment{Op: Close})
			cur = start
			closed = true
			lastOp = 'Z'
			// Z takes no arguments; a following number is an error.
			if !sc.done() && !isCommand(sc.s[sc.pos]) {
				return nil, fmt.Errorf("unexpected number after Z at offset %d", sc.pos)
			}
			continue

		case 'M':
			v, err := nums(2)
			if err != nil {
				return nil, err
			}
			cur = pt(v[0], v[1])
			start = cur
			haveStart = true
			path = append(path, Segment{Op: MoveTo, P: [3]Point{cur}})
			// Further coordinate pairs are implicit linetos.
			if rel {
				cmd = 'l'
			} else {
				cmd = 'L'
			}
			lastOp = 'M'
			continue

		case 'L':
			v, err := nums(2)
			if err != nil {
				return nil, err
			}
			cur = pt(v[0], v[1])
			path = append(path, Segment{Op: LineTo, P: [3]Point{cur}})

		case 'H':
			v, err := nums(1)
			if err != nil {
				return nil, err
			}
			x := v[0]
			if rel {
				x += cur.X
			}
			cur = Point{x, cur.Y}
			path = append(path, Segment{Op: LineTo, P: [3]Point{cur}})

		case 'V':
			v, err := nums(1)
			if err != nil {
				return nil, err
			}
			y := v[0]
			if rel {
				y += cur.Y
			}
			cur = Point{cur.X, y}
			path = append(path, Segment{Op: LineTo, P: [3]Point{cur}})

		case 'C':
			v, err := nums(6)
			if err != nil {
				return nil, err
			}
			c1, c2, p := pt(v[0], v[1]), pt(v[2], v[3]), pt(v[4], v[5])
			path = append(path, Segment{Op: CubeTo, P: [3]Point{c1, c2, p}})
			lastCtrl, cur = c2, p

		case 'S':
			v, err := nums(4)
			if err != nil {
				return nil, err
			}
			c1 := cur
			if lastOp == 'C' || lastOp == 'S' {
				c1 = reflect(lastCtrl, cur)
			}
			c2, p := pt(v[0], v[1]), pt(v[2], v[3])
			path = append(path, Segment{Op: CubeTo, P: [3]Point{c1, c2, p}})
			lastCtrl, cur = c2, p

		case 'Q':
			v, err := nums(4)
			if err != nil {
				return nil, err
			}
			c, p := pt(v[0], v[1]), pt(v[2], v[3])
			path = append(path, Segment{Op: QuadTo, P: [3]Point{c, p}})
			lastCtrl, cur = c, p

		case 'T':
			v, err := nums(2)
			if err != nil {
				return nil, err
			}
			c := cur
			if lastOp == 'Q' || lastOp == 'T' {
				c = reflect(lastCtrl, cur)
			}
			p := pt(v[0], v[1])
			path = append(path, Segment{Op: QuadTo, P: [3]Point{c, p}})
			lastCtrl, cur = c, p

		case 'A':
			rx, err := sc.number()
			if err != nil {
				return nil, fmt.Errorf("%c command: %w", cmd, err)
			}
			ry, err := sc.number()
			if err != nil {
				return nil, fmt.Errorf("%c command: %w", cmd, err)
			}
			rot, err := sc.number()
			if err != nil {
				return nil, fmt.Errorf("%c command: %w", cmd, err)
			}
			large, err := sc.flag()
			if err != nil {
				return nil, fmt.Errorf("%c command: %w", cmd, err)
			}
			sweep, err := sc.flag()
			if err != nil {
				return nil, fmt.Errorf("%c command: %w", cmd, err)
			}
			v, err := nums(2)
			if err != nil {
				return nil, err
			}
			p := pt(v[0], v[1])
			path = append(path, arcToCubics(cur, rx, ry, rot, large, sweep, p)...)
			cur = p

		default:
			return nil, fmt.Errorf("unknown path command %q", cmd)
		}
		lastOp = upper
	}
	return path, nil
}

func isCommand(c byte) bool {
	return strings.IndexByte("MmLlHhVvCcSsQqTtAaZz", c) >= 0
}

func reflect(ctrl, about Point) Point {
	return Point{2*about.X - ctrl.X, 2*about.Y - ctrl.Y}
}

var opLetters = [...]byte{MoveTo: 'M', LineTo: 'L', QuadTo: 'Q', CubeTo: 'C', Close: 'Z'}

// Format writes the path in canonical form: absolute commands, one letter
// per segment, numbers rounded to prec decimals and separated by spaces.
func (p Path) Format(prec int) string {
	var b strings.Builder
	for _, s := range p {
		b.WriteByte(opLetters[s.Op])
		for i := 0; i < s.npoints(); i++ {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(FormatNumber(s.P[i].X, prec))
			b.WriteByte(' ')
			b.WriteString(FormatNumber(s.P[i].Y, prec))
		}
	}
	return b.String()
}

// Transform returns the path with every point mapped through m.
func (p Path) Transform(m Matrix) Path {
	out := make(Path, len(p))
	for i, s := range p {
		out[i].Op = s.Op
		for j := 0; j < s.npoints(); j++ {
			out[i].P[j] = m.Apply(s.P[j])
		}
	}
	return out
}

// Bounds returns the bounding box of all points including control points.
// The curve lies inside this box. ok is false for a path without points.
func (p Path) Bounds() (r Rect, ok bool) {
	r = Rect{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
	for _, s := range p {
		for j := 0; j < s.npoints(); j++ {
			r = r.extend(s.P[j])
			ok = true
		}
	}
	return r, ok
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

func (r Rect) extend(p Point) Rect {
	r.MinX = math.Min(r.MinX, p.X)
	r.MinY = math.Min(r.MinY, p.Y)
	r.MaxX = math.Max(r.MaxX, p.X)
	r.MaxY = math.Max(r.MaxY, p.Y)
	return r
}

// Intersects reports whether r and o overlap or touch.
func (r Rect) Intersects(o Rect) bool {
	return r.MinX <= o.MaxX && o.MinX <= r.MaxX && r.MinY <= o.MaxY && o.MinY <= r.MaxY
}

// Grow returns r expanded by d on every side.
func (r Rect) Grow(d float64) Rect {
	return Rect{r.MinX - d, r.MinY - d, r.MaxX + d, r.MaxY + d}
}
