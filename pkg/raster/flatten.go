package raster

import (
	"math"

	"github.com/matzehuels/tilesmith/pkg/svgdoc"
)

// maxCurveSegments bounds the subdivision of a single curve.
const maxCurveSegments = 1024

// polyline is one flattened subpath in device space.
type polyline struct {
	pts    []svgdoc.Point
	closed bool
}

// flatten converts a device-space path to polylines. Curves are subdivided
// uniformly with a segment count from Wang's formula, so that no point of
// the polyline is further than tol from the curve.
func flatten(p svgdoc.Path, tol float64) []polyline {
	var out []polyline
	var cur *polyline
	var pos svgdoc.Point

	start := func(pt svgdoc.Point) {
		out = append(out, polyline{pts: []svgdoc.Point{pt}})
		cur = &out[len(out)-1]
	}
	lineTo := func(pt svgdoc.Point) {
		if cur == nil {
			start(pos)
		}
		cur.pts = append(cur.pts, pt)
	}

	for _, s := range p {
		switch s.Op {
		case svgdoc.MoveTo:
			start(s.P[0])
			pos = s.P[0]
		case svgdoc.LineTo:
			lineTo(s.P[0])
			pos = s.P[0]
		case svgdoc.QuadTo:
			p0, p1, p2 := pos, s.P[0], s.P[1]
			d := length(p0.X-2*p1.X+p2.X, p0.Y-2*p1.Y+p2.Y)
			n := segments(math.Sqrt(d / (4 * tol)))
			for i := 1; i <= n; i++ {
				t := float64(i) / float64(n)
				u := 1 - t
				lineTo(svgdoc.Point{
					X: u*u*p0.X + 2*u*t*p1.X + t*t*p2.X,
					Y: u*u*p0.Y + 2*u*t*p1.Y + t*t*p2.Y,
				})
			}
			pos = p2
		case svgdoc.CubeTo:
			p0, p1, p2, p3 := pos, s.P[0], s.P[1], s.P[2]
			d := math.Max(
				length(p0.X-2*p1.X+p2.X, p0.Y-2*p1.Y+p2.Y),
				length(p1.X-2*p2.X+p3.X, p1.Y-2*p2.Y+p3.Y),
			)
			n := segments(math.Sqrt(3 * d / (4 * tol)))
			for i := 1; i <= n; i++ {
				t := float64(i) / float64(n)
				u := 1 - t
				a, b, c, e := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
				lineTo(svgdoc.Point{
					X: a*p0.X + b*p1.X + c*p2.X + e*p3.X,
					Y: a*p0.Y + b*p1.Y + c*p2.Y + e*p3.Y,
				})
			}
			pos = p3
		case svgdoc.Close:
			if cur != nil {
				cur.closed = true
				pos = cur.pts[0]
				cur = nil
			}
		}
	}
	return out
}

func segments(f float64) int {
	if !(f > 1) {
		return 1
	}
	return int(math.Min(math.Ceil(f), maxCurveSegments))
}

func length(x, y float64) float64 { return math.Sqrt(x*x + y*y) }
