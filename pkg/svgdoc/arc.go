package svgdoc

import "math"

// arcToCubics converts an elliptical arc from p0 to p1 into cubic Bézier
// segments of at most 90 degrees each.
func arcToCubics(p0 Point, rx, ry, rotDeg float64, large, sweep bool, p1 Point) []Segment {
	if p0 == p1 {
		return nil
	}
	rx, ry = math.Abs(rx), math.Abs(ry)
	if rx == 0 || ry == 0 {
		return []Segment{{Op: LineTo, P: [3]Point{p1}}}
	}

	phi := rotDeg * math.Pi / 180
	sinPhi, cosPhi := math.Sincos(phi)

	// Step 1: compute (x1', y1').
	dx, dy := (p0.X-p1.X)/2, (p0.Y-p1.Y)/2
	x1p := cosPhi*dx + sinPhi*dy
	y1p := -sinPhi*dx + cosPhi*dy

	// Correct out-of-range radii.
	lambda := (x1p*x1p)/(rx*rx) + (y1p*y1p)/(ry*ry)
	if lambda > 1 {
		s := math.Sqrt(lambda)
		rx *= s
		ry *= s
	}

	// Step 2: compute (cx', cy').
	num := rx*rx*ry*ry - rx*rx*y1p*y1p - ry*ry*x1p*x1p
	den := rx*rx*y1p*y1p + ry*ry*x1p*x1p
	coef := 0.0
	if den != 0 && num > 0 {
		coef = math.Sqrt(num / den)
	}
	if large == sweep {
		coef = -coef
	}
	cxp := coef * rx * y1p / ry
	cyp := -coef * ry * x1p / rx

	// Step 3: compute (cx, cy).
	cx := cosPhi*cxp - sinPhi*cyp + (p0.X+p1.X)/2
	cy := sinPhi*cxp + cosPhi*cyp + (p0.Y+p1.Y)/2

	// Step 4: start angle and sweep.
	theta1 := vecAngle(1, 0, (x1p-cxp)/rx, (y1p-cyp)/ry)
	dtheta := vecAngle((x1p-cxp)/rx, (y1p-cyp)/ry, (-x1p-cxp)/rx, (-y1p-cyp)/ry)
	if !sweep && dtheta > 0 {
		dtheta -= 2 * math.Pi
	} else if sweep && dtheta < 0 {
		dtheta += 2 * math.Pi
	}

	n := int(math.Ceil(math.Abs(dtheta) / (math.Pi / 2)))
	if n < 1 {
		n = 1
	}
	step := dtheta / float64(n)
	k := 4.0 / 3.0 * math.Tan(step/4)

	point := func(t float64) (Point, Point) {
		sinT, cosT := math.Sincos(t)
		x := rx * cosT
		y := ry * sinT
		p := Point{cosPhi*x - sinPhi*y + cx, sinPhi*x + cosPhi*y + cy}
		// derivative
		ddx := -rx * sinT
		ddy := ry * cosT
		d := Point{cosPhi*ddx - sinPhi*ddy, sinPhi*ddx + cosPhi*ddy}
		return p, d
	}

	segs := make([]Segment, 0, n)
	t := theta1
	from, dFrom := point(t)
	from = p0
	for i := 0; i < n; i++ {
		t2 := t + step
		to, dTo := point(t2)
		if i == n-1 {
			to = p1
		}
		segs = append(segs, Segment{Op: CubeTo, P: [3]Point{
			{from.X + k*dFrom.X, from.Y + k*dFrom.Y},
			{to.X - k*dTo.X, to.Y - k*dTo.Y},
			to,
		}})
		from, dFrom, t = to, dTo, t2
	}
	return segs
}

// vecAngle returns the signed angle from (ux,uy) to (vx,vy).
func vecAngle(ux, uy, vx, vy float64) float64 {
	return math.Atan2(ux*vy-uy*vx, ux*vx+uy*vy)
}
