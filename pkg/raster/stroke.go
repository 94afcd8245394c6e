package raster

import (
	"math"

	"github.com/matzehuels/tilesmith/pkg/svgdoc"
)

// strokeOutline expands polylines into polygons whose nonzero union is the
// stroke: one quad per segment, a disc at every join and the requested
// caps at the ends of open subpaths. All polygons are wound the same way
// so overlaps never cancel.
func strokeOutline(polys []polyline, width float64, lc lineCap) []polyline {
	hw := width / 2
	var out []polyline
	emit := func(pts ...svgdoc.Point) {
		out = append(out, oriented(pts))
	}

	for _, pl := range polys {
		pts := dedupe(pl.pts, pl.closed)
		if len(pts) == 1 {
			// Zero-length subpaths only show their caps.
			switch lc {
			case capRound:
				out = append(out, disc(pts[0], hw))
			case capSquare:
				c := pts[0]
				emit(svgdoc.Point{X: c.X - hw, Y: c.Y - hw}, svgdoc.Point{X: c.X + hw, Y: c.Y - hw},
					svgdoc.Point{X: c.X + hw, Y: c.Y + hw}, svgdoc.Point{X: c.X - hw, Y: c.Y + hw})
			}
			continue
		}

		n := len(pts) - 1
		if pl.closed {
			n = len(pts)
		}
		for i := 0; i < n; i++ {
			a, b := pts[i], pts[(i+1)%len(pts)]
			dx, dy := b.X-a.X, b.Y-a.Y
			l := length(dx, dy)
			ux, uy := dx/l, dy/l
			if !pl.closed && lc == capSquare {
				if i == 0 {
					a = svgdoc.Point{X: a.X - ux*hw, Y: a.Y - uy*hw}
				}
				if i == n-1 {
					b = svgdoc.Point{X: b.X + ux*hw, Y: b.Y + uy*hw}
				}
			}
			nx, ny := -uy*hw, ux*hw
			emit(
				svgdoc.Point{X: a.X + nx, Y: a.Y + ny},
				svgdoc.Point{X: b.X + nx, Y: b.Y + ny},
				svgdoc.Point{X: b.X - nx, Y: b.Y - ny},
				svgdoc.Point{X: a.X - nx, Y: a.Y - ny},
			)
		}

		for i, p := range pts {
			end := !pl.closed && (i == 0 || i == len(pts)-1)
			if !end || lc == capRound {
				out = append(out, disc(p, hw))
			}
		}
	}
	return out
}

// dedupe drops consecutive duplicate points, including a closing point
// equal to the first.
func dedupe(pts []svgdoc.Point, closed bool) []svgdoc.Point {
	out := make([]svgdoc.Point, 0, len(pts))
	for _, p := range pts {
		if len(out) == 0 || p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	if closed && len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}

// disc approximates a circle within tolerance.
func disc(c svgdoc.Point, r float64) polyline {
	n := 8
	if r > tolerance {
		n = int(math.Ceil(math.Pi / math.Acos(1-tolerance/r)))
	}
	n = min(max(n, 8), 256)
	pts := make([]svgdoc.Point, n)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = svgdoc.Point{X: c.X + r*math.Cos(a), Y: c.Y + r*math.Sin(a)}
	}
	return polyline{pts: pts, closed: true}
}

// oriented returns pts as a closed polyline with non-negative signed area.
func oriented(pts []svgdoc.Point) polyline {
	var a float64
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		a += p.X*q.Y - q.X*p.Y
	}
	if a < 0 {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}
	return polyline{pts: pts, closed: true}
}
