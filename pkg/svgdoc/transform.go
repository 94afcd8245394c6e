package svgdoc

import (
	"fmt"
	"math"
	"strings"
)

// Matrix is an affine transform [A C E; B D F; 0 0 1], mapping (x, y) to
// (A*x + C*y + E, B*x + D*y + F).
type Matrix struct {
	A, B, C, D, E, F float64
}

// Identity is the identity transform.
var Identity = Matrix{A: 1, D: 1}

// Translate returns a translation.
func Translate(tx, ty float64) Matrix { return Matrix{A: 1, D: 1, E: tx, F: ty} }

// Scale returns a scaling.
func Scale(sx, sy float64) Matrix { return Matrix{A: sx, D: sy} }

// Rotate returns a rotation by deg degrees.
func Rotate(deg float64) Matrix {
	s, c := math.Sincos(deg * math.Pi / 180)
	return Matrix{A: c, B: s, C: -s, D: c}
}

// Mul returns m × n: the transform that applies n first, then m.
func (m Matrix) Mul(n Matrix) Matrix {
	return Matrix{
		A: m.A*n.A + m.C*n.B,
		B: m.B*n.A + m.D*n.B,
		C: m.A*n.C + m.C*n.D,
		D: m.B*n.C + m.D*n.D,
		E: m.A*n.E + m.C*n.F + m.E,
		F: m.B*n.E + m.D*n.F + m.F,
	}
}

// Apply maps a point.
func (m Matrix) Apply(p Point) Point {
	return Point{m.A*p.X + m.C*p.Y + m.E, m.B*p.X + m.D*p.Y + m.F}
}

// Det returns the determinant of the linear part.
func (m Matrix) Det() float64 { return m.A*m.D - m.B*m.C }

// MeanScale returns the geometric mean scale factor, used for stroke widths.
func (m Matrix) MeanScale() float64 { return math.Sqrt(math.Abs(m.Det())) }

// IsIdentity reports whether m is the identity.
func (m Matrix) IsIdentity() bool { return m == Identity }

// String formats m as an SVG matrix() transform.
func (m Matrix) String() string {
	return fmt.Sprintf("matrix(%s %s %s %s %s %s)",
		FormatNumber(m.A, 6), FormatNumber(m.B, 6), FormatNumber(m.C, 6),
		FormatNumber(m.D, 6), FormatNumber(m.E, 6), FormatNumber(m.F, 6))
}

// ParseTransform parses an SVG transform list.
func ParseTransform(s string) (Matrix, error) {
	m := Identity
	rest := strings.TrimSpace(s)
	for rest != "" {
		open := strings.IndexByte(rest, '(')
		if open < 0 {
			return Identity, fmt.Errorf("transform %q: missing '('", s)
		}
		closing := strings.IndexByte(rest, ')')
		if closing < open {
			return Identity, fmt.Errorf("transform %q: missing ')'", s)
		}
		name := strings.TrimSpace(rest[:open])
		args, err := ParseNumbers(rest[open+1 : closing])
		if err != nil {
			return Identity, fmt.Errorf("transform %q: %w", s, err)
		}
		t, err := transformFunc(name, args)
		if err != nil {
			return Identity, fmt.Errorf("transform %q: %w", s, err)
		}
		m = m.Mul(t)
		rest = strings.TrimLeft(rest[closing+1:], " \t\n\r,")
	}
	return m, nil
}

func transformFunc(name string, a []float64) (Matrix, error) {
	argc := func(allowed ...int) error {
		for _, n := range allowed {
			if len(a) == n {
				return nil
			}
		}
		return fmt.Errorf("%s() takes %v arguments, got %d", name, allowed, len(a))
	}

	switch name {
	case "matrix":
		if err := argc(6); err != nil {
			return Identity, err
		}
		return Matrix{a[0], a[1], a[2], a[3], a[4], a[5]}, nil
	case "translate":
		if err := argc(1, 2); err != nil {
			return Identity, err
		}
		if len(a) == 1 {
			return Translate(a[0], 0), nil
		}
		return Translate(a[0], a[1]), nil
	case "scale":
		if err := argc(1, 2); err != nil {
			return Identity, err
		}
		if len(a) == 1 {
			return Scale(a[0], a[0]), nil
		}
		return Scale(a[0], a[1]), nil
	case "rotate":
		if err := argc(1, 3); err != nil {
			return Identity, err
		}
		r := Rotate(a[0])
		if len(a) == 3 {
			return Translate(a[1], a[2]).Mul(r).Mul(Translate(-a[1], -a[2])), nil
		}
		return r, nil
	case "skewX":
		if err := argc(1); err != nil {
			return Identity, err
		}
		return Matrix{A: 1, C: math.Tan(a[0] * math.Pi / 180), D: 1}, nil
	case "skewY":
		if err := argc(1); err != nil {
			return Identity, err
		}
		return Matrix{A: 1, B: math.Tan(a[0] * math.Pi / 180), D: 1}, nil
	}
	return Identity, fmt.Errorf("unknown transform %q", name)
}
