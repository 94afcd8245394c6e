// Package raster renders composed SVG documents to square bitmaps.
//
// The supported subset is what layer sources use: groups, paths and basic
// shapes with solid paint, transforms and opacity. Anything else is reported
// as a *errors.RenderError so that the owning recipe fails alone.
//
// Rendering is a pure function of (document, size). Every call allocates its
// own canvas and coverage buffers, so concurrent calls share nothing.
//
// # Pipeline
//
//  1. Geometry is mapped to device space and flattened to polylines.
//  2. Coverage is computed per shape: nonzero fills and all strokes through
//     golang.org/x/image/vector, even-odd fills through an exact-area
//     scanline accumulator.
//  3. Coverage masks are composited source-over onto a premultiplied canvas
//     in document order. Groups with opacity render offscreen first.
package raster

import (
	"image"
	"image/draw"

	"github.com/matzehuels/tilesmith/pkg/errors"
	"github.com/matzehuels/tilesmith/pkg/svgdoc"
)

// MaxSize bounds the bitmap edge length.
const MaxSize = 1 << 14

// tolerance is the maximum distance in pixels between a curve and its
// flattened polyline.
const tolerance = 0.1

// Bitmap is a Size×Size non-premultiplied RGBA image.
type Bitmap struct {
	Size int
	Pix  []uint8
}

// NRGBA returns an image sharing the bitmap's pixels.
func (b *Bitmap) NRGBA() *image.NRGBA {
	return &image.NRGBA{Pix: b.Pix, Stride: 4 * b.Size, Rect: image.Rect(0, 0, b.Size, b.Size)}
}

// At returns the pixel at (x, y) as (r, g, b, a).
func (b *Bitmap) At(x, y int) [4]uint8 {
	i := 4 * (y*b.Size + x)
	return [4]uint8{b.Pix[i], b.Pix[i+1], b.Pix[i+2], b.Pix[i+3]}
}

// Render rasterizes an SVG document so that its viewBox fills exactly
// size×size pixels.
func Render(doc []byte, size int) (*Bitmap, error) {
	if size <= 0 || size > MaxSize {
		return nil, errors.NewRenderError("", nil, "invalid size %d", size)
	}
	root, err := svgdoc.Parse(doc)
	if err != nil {
		return nil, errors.NewRenderError("", err, "malformed document")
	}
	return RenderElement(root, size)
}

// RenderElement is like Render for an already parsed document. root is not
// modified.
func RenderElement(root *svgdoc.Element, size int) (*Bitmap, error) {
	if size <= 0 || size > MaxSize {
		return nil, errors.NewRenderError("", nil, "invalid size %d", size)
	}
	if root.Name != "svg" {
		return nil, errors.NewRenderError(root.Name, nil, "root element is not <svg>")
	}
	vb, err := svgdoc.RootViewBox(root)
	if err != nil {
		return nil, errors.NewRenderError("svg", err, "invalid viewBox")
	}
	if !vb.Valid() {
		return nil, errors.NewRenderError("svg", nil, "non-positive viewBox")
	}

	st, err := defaultPaint.inherit(root)
	if err != nil {
		return nil, errors.NewRenderError("svg", err, "invalid presentation attribute")
	}
	ctm := vb.Fit(svgdoc.ViewBox{Width: float64(size), Height: float64(size)})

	canvas := image.NewRGBA(image.Rect(0, 0, size, size))
	r := &renderer{bounds: canvas.Rect}
	for _, ch := range root.Children {
		if err := r.element(canvas, ch, st, ctm); err != nil {
			return nil, err
		}
	}

	out := image.NewNRGBA(canvas.Rect)
	draw.Draw(out, out.Rect, canvas, image.Point{}, draw.Src)
	return &Bitmap{Size: size, Pix: out.Pix}, nil
}
