package raster

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"image"
	"math"
	"sync"
	"testing"

	"github.com/matzehuels/tilesmith/pkg/errors"
	"github.com/matzehuels/tilesmith/pkg/svgdoc"
)

func doc(viewBox, body string) []byte {
	return []byte(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="%s">%s</svg>`, viewBox, body))
}

func render(t *testing.T, src []byte, size int) *Bitmap {
	t.Helper()
	bmp, err := Render(src, size)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	return bmp
}

func near(a, b uint8, tol int) bool {
	d := int(a) - int(b)
	return d >= -tol && d <= tol
}

func TestRenderSize(t *testing.T) {
	src := doc("0 0 16 16", `<rect width="16" height="16" fill="#fff"/>`)
	for _, size := range []int{32, 64, 128, 256} {
		bmp := render(t, src, size)
		if bmp.Size != size || len(bmp.Pix) != 4*size*size {
			t.Errorf("size %d: got Size=%d len(Pix)=%d", size, bmp.Size, len(bmp.Pix))
		}
		if got := bmp.At(size-1, size-1); got != [4]uint8{255, 255, 255, 255} {
			t.Errorf("size %d: corner = %v", size, got)
		}
		if img := bmp.NRGBA(); img.Bounds() != image.Rect(0, 0, size, size) {
			t.Errorf("NRGBA bounds = %v", img.Bounds())
		}
	}
}

func TestRenderFill(t *testing.T) {
	bmp := render(t, doc("0 0 16 16", `<path d="M0 0H8V16H0Z" fill="#f00"/>`), 32)

	tests := []struct {
		x, y int
		want [4]uint8
	}{
		{0, 0, [4]uint8{255, 0, 0, 255}},
		{15, 31, [4]uint8{255, 0, 0, 255}},
		{16, 0, [4]uint8{0, 0, 0, 0}},
		{31, 31, [4]uint8{0, 0, 0, 0}},
	}
	for _, tt := range tests {
		if got := bmp.At(tt.x, tt.y); got != tt.want {
			t.Errorf("At(%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestRenderAntialiasedEdge(t *testing.T) {
	bmp := render(t, doc("0 0 4 4", `<rect width="1.5" height="4" fill="#fff"/>`), 4)

	if got := bmp.At(0, 2); got[3] != 255 {
		t.Errorf("inside alpha = %d", got[3])
	}
	if got := bmp.At(1, 2); !near(got[3], 128, 2) || got[0] != 255 {
		t.Errorf("edge pixel = %v, want half coverage of white", got)
	}
	if got := bmp.At(2, 2); got[3] != 0 {
		t.Errorf("outside alpha = %d", got[3])
	}
}

func TestRenderFillRule(t *testing.T) {
	const d = `M0 0H4V4H0Z M1 1H3V3H1Z`
	nonzero := render(t, doc("0 0 4 4", `<path d="`+d+`"/>`), 4)
	evenodd := render(t, doc("0 0 4 4", `<path d="`+d+`" fill-rule="evenodd"/>`), 4)

	if got := nonzero.At(1, 1); got[3] != 255 {
		t.Errorf("nonzero hole alpha = %d, want 255", got[3])
	}
	if got := evenodd.At(1, 1); got[3] != 0 {
		t.Errorf("evenodd hole alpha = %d, want 0", got[3])
	}
	if got := evenodd.At(0, 0); got != [4]uint8{0, 0, 0, 255} {
		t.Errorf("evenodd ring = %v, want opaque black", got)
	}
}

func TestRenderStackingOrder(t *testing.T) {
	bmp := render(t, doc("0 0 2 2",
		`<rect width="2" height="2" fill="#f00"/><rect width="1" height="2" fill="#00f"/>`), 2)

	if got := bmp.At(0, 0); got != [4]uint8{0, 0, 255, 255} {
		t.Errorf("overlap = %v, want later layer on top", got)
	}
	if got := bmp.At(1, 0); got != [4]uint8{255, 0, 0, 255} {
		t.Errorf("bottom = %v", got)
	}
}

func TestRenderGroupOpacity(t *testing.T) {
	// Two overlapping opaque rects in a half transparent group must not
	// show the overlap.
	bmp := render(t, doc("0 0 4 4",
		`<g opacity="0.5"><rect width="3" height="4" fill="#f00"/><rect x="1" width="3" height="4" fill="#f00"/></g>`), 4)

	for x := 0; x < 4; x++ {
		got := bmp.At(x, 0)
		if got[0] != 255 || !near(got[3], 128, 1) {
			t.Errorf("At(%d,0) = %v, want red at half alpha", x, got)
		}
	}
}

func TestRenderPaintOpacity(t *testing.T) {
	bmp := render(t, doc("0 0 1 1", `<rect width="1" height="1" fill="#00f" fill-opacity="0.25"/>`), 1)
	if got := bmp.At(0, 0); got[2] != 255 || !near(got[3], 64, 1) {
		t.Errorf("pixel = %v", got)
	}
}

func TestRenderStroke(t *testing.T) {
	bmp := render(t, doc("0 0 16 16", `<line x1="0" y1="8" x2="16" y2="8" stroke="#0f0" stroke-width="2"/>`), 16)

	for _, y := range []int{7, 8} {
		if got := bmp.At(8, y); got != [4]uint8{0, 255, 0, 255} {
			t.Errorf("At(8,%d) = %v, want stroke", y, got)
		}
	}
	for _, y := range []int{5, 10} {
		if got := bmp.At(8, y); got[3] != 0 {
			t.Errorf("At(8,%d) alpha = %d, want empty", y, got[3])
		}
	}
}

func TestRenderStrokeScalesWithTransform(t *testing.T) {
	bmp := render(t, doc("0 0 16 16",
		`<g transform="scale(2)"><line x1="0" y1="4" x2="8" y2="4" stroke="#000" stroke-width="2"/></g>`), 16)

	// Device width 4 around y=8.
	for _, y := range []int{6, 7, 8, 9} {
		if got := bmp.At(4, y); got[3] != 255 {
			t.Errorf("At(4,%d) alpha = %d", y, got[3])
		}
	}
	if got := bmp.At(4, 11); got[3] != 0 {
		t.Errorf("At(4,11) alpha = %d", got[3])
	}
}

func TestRenderTransformAndInheritance(t *testing.T) {
	bmp := render(t, doc("0 0 4 4",
		`<g fill="#fff" transform="translate(2 0)"><rect width="2" height="4"/></g>`), 4)

	if got := bmp.At(1, 0); got[3] != 0 {
		t.Errorf("untranslated area painted: %v", got)
	}
	if got := bmp.At(3, 3); got != [4]uint8{255, 255, 255, 255} {
		t.Errorf("translated area = %v, want inherited white", got)
	}
}

func TestRenderSkipsHidden(t *testing.T) {
	bmp := render(t, doc("0 0 1 1", `
		<title>ignored</title>
		<sodipodi:namedview xmlns:sodipodi="http://sodipodi.sourceforge.net/DTD/sodipodi-0.dtd"/>
		<rect width="1" height="1" display="none"/>
		<rect width="1" height="1" visibility="hidden"/>
		<g opacity="0"><rect width="1" height="1"/></g>
		<rect width="1" height="1" fill="none"/>`), 1)

	if got := bmp.At(0, 0); got[3] != 0 {
		t.Errorf("pixel = %v, want transparent", got)
	}
}

func TestRenderCurrentColorAndStyle(t *testing.T) {
	bmp := render(t, doc("0 0 2 1",
		`<g color="#f00"><rect width="1" height="1" fill="currentColor"/></g><rect x="1" width="1" height="1" style="fill:#00f"/>`), 2)

	if got := bmp.At(0, 0); got != [4]uint8{255, 0, 0, 255} {
		t.Errorf("currentColor pixel = %v", got)
	}
	if got := bmp.At(1, 0); got != [4]uint8{0, 0, 255, 255} {
		t.Errorf("style pixel = %v", got)
	}
}

const curvy = `
<path d="M2 2C10 0 14 6 14 14Q8 10 2 14Z" fill="#3a7"/>
<circle cx="8" cy="8" r="5.3" fill="#f80" fill-opacity="0.6" stroke="#124" stroke-width="0.7"/>
<g opacity="0.7" transform="rotate(17 8 8)"><ellipse cx="6" cy="9" rx="4" ry="1.5" fill="#fff"/></g>
<path d="M1 15A6 6 0 0 1 15 1" fill="none" stroke="#000" stroke-linecap="round"/>
<polygon points="3,3 13,4 8,12 5,5 11,8" fill-rule="evenodd" fill="#90c"/>`

func TestRenderDeterministic(t *testing.T) {
	src := doc("0 0 16 16", curvy)
	want := render(t, src, 128).Pix

	if got := render(t, src, 128).Pix; !bytes.Equal(got, want) {
		t.Fatal("second render differs")
	}

	var wg sync.WaitGroup
	results := make([][]byte, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			bmp, err := Render(src, 128)
			if err == nil {
				results[i] = bmp.Pix
			}
		}(i)
	}
	wg.Wait()
	for i, got := range results {
		if !bytes.Equal(got, want) {
			t.Errorf("concurrent render %d differs", i)
		}
	}
}

func TestRenderElementDoesNotModifyTree(t *testing.T) {
	root, err := svgdoc.Parse(doc("0 0 16 16", curvy))
	if err != nil {
		t.Fatal(err)
	}
	before := root.String()
	if _, err := RenderElement(root, 32); err != nil {
		t.Fatal(err)
	}
	if root.String() != before {
		t.Error("RenderElement modified the document")
	}
}

func TestRenderErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     []byte
		size    int
		element string
	}{
		{"malformed xml", []byte(`<svg viewBox="0 0 1 1"><path></svg>`), 16, ""},
		{"not svg", []byte(`<g/>`), 16, "g"},
		{"no viewBox", []byte(`<svg/>`), 16, "svg"},
		{"zero viewBox", doc("0 0 0 16", ""), 16, "svg"},
		{"bad size", doc("0 0 1 1", ""), 0, ""},
		{"text", doc("0 0 1 1", `<text>hi</text>`), 16, "text"},
		{"image", doc("0 0 1 1", `<image href="x.png"/>`), 16, "image"},
		{"use", doc("0 0 1 1", `<use href="#a"/>`), 16, "use"},
		{"gradient paint", doc("0 0 1 1", `<rect width="1" height="1" fill="url(#g)"/>`), 16, "rect"},
		{"bad path", doc("0 0 1 1", `<path d="M0 0 L x"/>`), 16, "path"},
		{"bad transform", doc("0 0 1 1", `<g transform="wobble(3)"/>`), 16, "g"},
		{"bad number", doc("0 0 1 1", `<circle cx="a" r="1"/>`), 16, "circle"},
		{"bad fill rule", doc("0 0 1 1", `<path d="M0 0H1V1Z" fill-rule="odd"/>`), 16, "path"},
		{"bad color", doc("0 0 1 1", `<path d="M0 0H1V1Z" fill="#12"/>`), 16, "path"},
		{"nested error", doc("0 0 1 1", `<g><g><text/></g></g>`), 16, "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Render(tt.src, tt.size)
			if err == nil {
				t.Fatal("expected error")
			}
			var re *errors.RenderError
			if !stderrors.As(err, &re) {
				t.Fatalf("error %T is not a RenderError: %v", err, err)
			}
			if re.Element != tt.element {
				t.Errorf("Element = %q, want %q", re.Element, tt.element)
			}
			if !errors.Is(err, errors.ErrCodeRender) {
				t.Error("missing render error code")
			}
		})
	}
}

func TestFlattenTolerance(t *testing.T) {
	p, err := svgdoc.ShapePath(svgdoc.New("circle",
		svgdoc.Attr{Name: "cx", Value: "50"},
		svgdoc.Attr{Name: "cy", Value: "50"},
		svgdoc.Attr{Name: "r", Value: "40"},
	))
	if err != nil {
		t.Fatal(err)
	}
	polys := flatten(p, tolerance)
	if len(polys) != 1 || !polys[0].closed {
		t.Fatalf("flatten = %d polylines", len(polys))
	}
	for i, pt := range polys[0].pts {
		// The cubic circle approximation itself deviates by ~0.01.
		if d := math.Abs(math.Hypot(pt.X-50, pt.Y-50) - 40); d > 0.05 {
			t.Fatalf("point %d is %.3f off the circle", i, d)
		}
	}
	if len(polys[0].pts) < 16 {
		t.Errorf("only %d points for a radius-40 circle", len(polys[0].pts))
	}
}

func TestCoverageMatchesExactArea(t *testing.T) {
	tri := []svgdoc.Point{{X: 1.3, Y: 0.7}, {X: 28.9, Y: 5.2}, {X: 12.4, Y: 30.1}}
	polys := []polyline{{pts: tri, closed: true}}
	clip := image.Rect(0, 0, 32, 32)

	tests := []struct {
		name  string
		cover func([]polyline, image.Rectangle) *image.Alpha
		tol   float64
	}{
		// x/image/vector approximates coverage along steep edges.
		{"nonzero", coverNonZero, 8},
		{"evenodd", coverEvenOdd, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mask := tt.cover(polys, clip)
			for y := clip.Min.Y; y < clip.Max.Y; y++ {
				for x := clip.Min.X; x < clip.Max.X; x++ {
					want := 255 * pixelArea(tri, x, y)
					got := float64(mask.AlphaAt(x, y).A)
					if math.Abs(got-want) > tt.tol {
						t.Fatalf("pixel (%d,%d): coverage %v, exact %.1f", x, y, got, want)
					}
				}
			}
		})
	}
}

// pixelArea returns the exact area of the convex polygon pts inside the
// unit pixel at (x, y).
func pixelArea(pts []svgdoc.Point, x, y int) float64 {
	poly := append([]svgdoc.Point(nil), pts...)
	fx, fy := float64(x), float64(y)
	planes := []func(svgdoc.Point) float64{
		func(p svgdoc.Point) float64 { return p.X - fx },
		func(p svgdoc.Point) float64 { return fx + 1 - p.X },
		func(p svgdoc.Point) float64 { return p.Y - fy },
		func(p svgdoc.Point) float64 { return fy + 1 - p.Y },
	}
	for _, inside := range planes {
		var out []svgdoc.Point
		for i, p := range poly {
			q := poly[(i+1)%len(poly)]
			dp, dq := inside(p), inside(q)
			if dp >= 0 {
				out = append(out, p)
			}
			if (dp >= 0) != (dq >= 0) {
				t := dp / (dp - dq)
				out = append(out, svgdoc.Point{X: p.X + t*(q.X-p.X), Y: p.Y + t*(q.Y-p.Y)})
			}
		}
		poly = out
		if len(poly) == 0 {
			return 0
		}
	}
	var a float64
	for i, p := range poly {
		q := poly[(i+1)%len(poly)]
		a += p.X*q.Y - q.X*p.Y
	}
	return math.Abs(a) / 2
}

func TestStrokeOutlineOrientation(t *testing.T) {
	polys := []polyline{{pts: []svgdoc.Point{{X: 10, Y: 0}, {X: 0, Y: 0}, {X: 0, Y: 10}}}}
	for _, pl := range strokeOutline(polys, 2, capSquare) {
		var a float64
		for i, p := range pl.pts {
			q := pl.pts[(i+1)%len(pl.pts)]
			a += p.X*q.Y - q.X*p.Y
		}
		if a < 0 {
			t.Fatalf("polygon %v has negative orientation", pl.pts)
		}
	}
}
