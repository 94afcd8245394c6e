package svgdoc

import (
	"fmt"
	"math"
)

// ViewBox is the user-space rectangle mapped onto the canvas.
type ViewBox struct {
	MinX, MinY, Width, Height float64
}

// ParseViewBox parses a viewBox attribute value.
func ParseViewBox(s string) (ViewBox, error) {
	v, err := ParseNumbers(s)
	if err != nil {
		return ViewBox{}, fmt.Errorf("viewBox %q: %w", s, err)
	}
	if len(v) != 4 {
		return ViewBox{}, fmt.Errorf("viewBox %q: want 4 numbers, got %d", s, len(v))
	}
	vb := ViewBox{v[0], v[1], v[2], v[3]}
	if !vb.Valid() {
		return ViewBox{}, fmt.Errorf("viewBox %q: width and height must be positive", s)
	}
	return vb, nil
}

// Valid reports whether the box has a positive finite area.
func (v ViewBox) Valid() bool {
	return v.Width > 0 && v.Height > 0 && !math.IsInf(v.Width, 0) && !math.IsInf(v.Height, 0)
}

// Rect returns the box as a rectangle.
func (v ViewBox) Rect() Rect {
	return Rect{v.MinX, v.MinY, v.MinX + v.Width, v.MinY + v.Height}
}

// Format writes the box with prec decimals.
func (v ViewBox) Format(prec int) string {
	return FormatNumber(v.MinX, prec) + " " + FormatNumber(v.MinY, prec) + " " +
		FormatNumber(v.Width, prec) + " " + FormatNumber(v.Height, prec)
}

// String formats the box with up to 6 decimals.
func (v ViewBox) String() string { return v.Format(6) }

// Fit returns the transform mapping v onto o, scaling each axis
// independently.
func (v ViewBox) Fit(o ViewBox) Matrix {
	sx, sy := o.Width/v.Width, o.Height/v.Height
	return Translate(o.MinX, o.MinY).Mul(Scale(sx, sy)).Mul(Translate(-v.MinX, -v.MinY))
}

// RootViewBox returns the user-space box of an <svg> element: its viewBox
// attribute, or else 0 0 width height.
func RootViewBox(root *Element) (ViewBox, error) {
	if s, ok := root.Get("viewBox"); ok {
		return ParseViewBox(s)
	}
	ws, wok := root.Get("width")
	hs, hok := root.Get("height")
	if !wok || !hok {
		return ViewBox{}, fmt.Errorf("<%s> has neither viewBox nor width and height", root.Name)
	}
	w, err := ParsePx(ws)
	if err != nil {
		return ViewBox{}, err
	}
	h, err := ParsePx(hs)
	if err != nil {
		return ViewBox{}, err
	}
	vb := ViewBox{0, 0, w, h}
	if !vb.Valid() {
		return ViewBox{}, fmt.Errorf("<%s> has non-positive size %gx%g", root.Name, w, h)
	}
	return vb, nil
}
