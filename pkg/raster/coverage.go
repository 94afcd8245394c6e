package raster

import (
	"image"
	"image/draw"
	"math"
	"sort"

	"golang.org/x/image/vector"
)

// deviceBounds returns the pixel rectangle touched by polys, clipped to clip.
func deviceBounds(polys []polyline, clip image.Rectangle) (image.Rectangle, bool) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, pl := range polys {
		for _, p := range pl.pts {
			minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
			minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
		}
	}
	if minX > maxX {
		return image.Rectangle{}, false
	}
	r := image.Rect(
		int(math.Floor(math.Max(minX, float64(clip.Min.X)-1))),
		int(math.Floor(math.Max(minY, float64(clip.Min.Y)-1))),
		int(math.Ceil(math.Min(maxX, float64(clip.Max.X)+1))),
		int(math.Ceil(math.Min(maxY, float64(clip.Max.Y)+1))),
	).Intersect(clip)
	return r, !r.Empty()
}

// coverNonZero returns the nonzero-winding coverage of polys, or nil when
// nothing inside clip is covered. Every subpath is implicitly closed.
func coverNonZero(polys []polyline, clip image.Rectangle) *image.Alpha {
	r, ok := deviceBounds(polys, clip)
	if !ok {
		return nil
	}
	z := vector.NewRasterizer(r.Dx(), r.Dy())
	z.DrawOp = draw.Src
	ox, oy := float64(r.Min.X), float64(r.Min.Y)
	for _, pl := range polys {
		if len(pl.pts) < 2 {
			continue
		}
		z.MoveTo(float32(pl.pts[0].X-ox), float32(pl.pts[0].Y-oy))
		for _, p := range pl.pts[1:] {
			z.LineTo(float32(p.X-ox), float32(p.Y-oy))
		}
		z.ClosePath()
	}
	m := image.NewAlpha(r)
	z.Draw(m, r, image.Opaque, image.Point{})
	return m
}

// edge is a non-horizontal line segment with y0 < y1. dir is +1 when the
// original segment pointed down and -1 when it pointed up.
type edge struct {
	x0, y0, x1, y1 float64
	dxdy           float64
	dir            float64
}

// coverEvenOdd returns the even-odd coverage of polys.
//
// Each edge adds, per pixel it crosses, its signed height (cover) and that
// height weighted by the uncovered fraction of the pixel to its left
// (area). Summing cover from the left edge of a row gives the winding
// number, which is folded to [0, 1] with the even-odd rule.
func coverEvenOdd(polys []polyline, clip image.Rectangle) *image.Alpha {
	r, ok := deviceBounds(polys, clip)
	if !ok {
		return nil
	}

	var edges []edge
	for _, pl := range polys {
		n := len(pl.pts)
		if n < 2 {
			continue
		}
		for i := 0; i < n; i++ {
			a, b := pl.pts[i], pl.pts[(i+1)%n]
			if a.Y == b.Y {
				continue
			}
			e := edge{x0: a.X, y0: a.Y, x1: b.X, y1: b.Y, dir: 1}
			if a.Y > b.Y {
				e = edge{x0: b.X, y0: b.Y, x1: a.X, y1: a.Y, dir: -1}
			}
			e.dxdy = (e.x1 - e.x0) / (e.y1 - e.y0)
			edges = append(edges, e)
		}
	}
	sort.SliceStable(edges, func(i, j int) bool { return edges[i].y0 < edges[j].y0 })

	m := image.NewAlpha(r)
	w := r.Dx()
	cover := make([]float64, w+1)
	area := make([]float64, w+1)
	var active []edge
	next := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		top, bot := float64(y), float64(y+1)
		for next < len(edges) && edges[next].y0 < bot {
			active = append(active, edges[next])
			next++
		}
		kept := active[:0]
		for _, e := range active {
			if e.y1 > top {
				kept = append(kept, e)
			}
		}
		active = kept
		if len(active) == 0 {
			continue
		}

		clear(cover)
		clear(area)
		for i := range active {
			accumulate(&active[i], top, bot, r.Min.X, w, cover, area)
		}

		row := m.Pix[(y-r.Min.Y)*m.Stride:]
		var acc float64
		for x := 0; x < w; x++ {
			v := math.Abs(acc + area[x])
			acc += cover[x]
			v = math.Mod(v, 2)
			if v > 1 {
				v = 2 - v
			}
			row[x] = uint8(v*255 + 0.5)
		}
	}
	return m
}

// accumulate adds the part of e inside the row [top, bot) to cover and
// area. Columns are relative to x0; crossings left of the row's first
// pixel count as full coverage of that pixel and crossings right of the
// last pixel are dropped.
func accumulate(e *edge, top, bot float64, x0, w int, cover, area []float64) {
	ya, yb := math.Max(top, e.y0), math.Min(bot, e.y1)
	if yb <= ya {
		return
	}
	xa := e.x0 + e.dxdy*(ya-e.y0)
	xb := e.x0 + e.dxdy*(yb-e.y0)

	add := func(px int, dy, xmid float64) {
		c := e.dir * dy
		col := px - x0
		switch {
		case col < 0:
			cover[0] += c
			area[0] += c
		case col < w:
			cover[col] += c
			area[col] += c * (1 - (xmid - float64(px)))
		}
	}

	lo, hi := math.Min(xa, xb), math.Max(xa, xb)
	pl, pr := int(math.Floor(lo)), int(math.Floor(hi))
	if pl == pr {
		add(pl, yb-ya, (xa+xb)/2)
		return
	}
	// Split at column boundaries.
	for px := pl; px <= pr; px++ {
		cl, cr := math.Max(lo, float64(px)), math.Min(hi, float64(px+1))
		if cr <= cl {
			continue
		}
		// y range of the edge inside this column
		y1 := e.y0 + (cl-e.x0)/e.dxdy
		y2 := e.y0 + (cr-e.x0)/e.dxdy
		s0, s1 := math.Max(math.Min(y1, y2), ya), math.Min(math.Max(y1, y2), yb)
		if s1 <= s0 {
			continue
		}
		add(px, s1-s0, (cl+cr)/2)
	}
}
