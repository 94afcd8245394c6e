package svgdoc

import (
	"math"
	"strings"
	"testing"
)

func TestParseAndEncode(t *testing.T) {
	src := `<?xml version="1.0"?>
<!-- editor comment -->
<svg xmlns="http://www.w3.org/2000/svg" xmlns:sodipodi="http://sodipodi" viewBox="0 0 16 16">
  <g fill="#fff">
    <path d="M0 0H16V16Z" sodipodi:nodetypes="ccc"/>
  </g>
  <title>stone &amp; ore</title>
</svg>`

	root, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if root.Name != "svg" {
		t.Errorf("root = %q", root.Name)
	}
	if got := root.Attr("xmlns:sodipodi"); got != "http://sodipodi" {
		t.Errorf("xmlns:sodipodi = %q", got)
	}
	if len(root.Children) != 2 {
		t.Fatalf("children = %d, want 2", len(root.Children))
	}
	path := root.Children[0].Children[0]
	if path.Attr("sodipodi:nodetypes") != "ccc" {
		t.Errorf("prefixed attribute lost: %+v", path.Attrs)
	}
	if root.Children[1].Text != "stone & ore" {
		t.Errorf("title text = %q", root.Children[1].Text)
	}

	want := `<svg xmlns="http://www.w3.org/2000/svg" xmlns:sodipodi="http://sodipodi" viewBox="0 0 16 16">` +
		`<g fill="#fff"><path d="M0 0H16V16Z" sodipodi:nodetypes="ccc"/></g><title>stone &amp; ore</title></svg>`
	if got := root.String(); got != want {
		t.Errorf("Encode(0) =\n%s\nwant\n%s", got, want)
	}

	again, err := Parse(root.Encode(0))
	if err != nil {
		t.Fatal(err)
	}
	if again.String() != want {
		t.Error("encode/parse is not stable")
	}
}

func TestEncodeIndent(t *testing.T) {
	root := New("svg").Append(New("g").Append(New("path", Attr{"d", "M0 0"})))
	want := "<svg>\n  <g>\n    <path d=\"M0 0\"/>\n  </g>\n</svg>\n"
	if got := string(root.Encode(2)); got != want {
		t.Errorf("Encode(2) = %q, want %q", got, want)
	}
}

func TestParseErrors(t *testing.T) {
	for _, src := range []string{
		``,
		`<svg>`,
		`<svg></g>`,
		`<svg/><svg/>`,
		`text<svg/>`,
	} {
		if _, err := Parse([]byte(src)); err == nil {
			t.Errorf("Parse(%q) should fail", src)
		}
	}
}

func TestAttrs(t *testing.T) {
	e := New("path", Attr{"z", "1"}, Attr{"a", "2"})
	e.Set("z", "3")
	e.Set("m", "4")
	if e.Attr("z") != "3" || len(e.Attrs) != 3 {
		t.Errorf("Set: %+v", e.Attrs)
	}
	e.SortAttrs()
	if e.Attrs[0].Name != "a" || e.Attrs[2].Name != "z" {
		t.Errorf("SortAttrs: %+v", e.Attrs)
	}
	if !e.Remove("m") || e.Remove("m") {
		t.Error("Remove should report presence")
	}

	c := e.Clone()
	c.Set("a", "changed")
	if e.Attr("a") != "2" {
		t.Error("Clone should not share attributes")
	}
}

func TestFilter(t *testing.T) {
	root := New("svg").Append(
		New("g").Append(New("title")),
		New("path"),
	)
	root.Filter(func(e *Element) bool {
		return e.Name != "title" && !(e.Name == "g" && len(e.Children) == 0)
	})
	if len(root.Children) != 1 || root.Children[0].Name != "path" {
		t.Errorf("Filter left %s", root)
	}
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"M0 0L10 0L10 10Z", "M0 0L10 0L10 10Z"},
		{"m1 1 2 0 0 2z", "M1 1L3 1L3 3Z"},
		{"M0,0 H5 V5 h-5 v-5", "M0 0L5 0L5 5L0 5L0 0"},
		{"M0 0C1 1 2 2 3 3S5 5 6 6", "M0 0C1 1 2 2 3 3C4 4 5 5 6 6"},
		{"M0 0Q1 1 2 0T4 0", "M0 0Q1 1 2 0Q3 -1 4 0"},
		{"M0 0q1 1 2 0t2 0", "M0 0Q1 1 2 0Q3 -1 4 0"},
		{"M0 0S1 1 2 2", "M0 0C0 0 1 1 2 2"},
		{"M.5.5l.5-.5", "M0.5 0.5L1 0"},
		{"M1e1 2E-1", "M10 0.2"},
		{"M0 0L1 1ZL2 2", "M0 0L1 1ZM0 0L2 2"},
		{"M0 0L1 1Zm1 1l1 0", "M0 0L1 1ZM1 1L2 1"},
		{"M0 0A0 5 0 0 1 10 0", "M0 0L10 0"},
		{"M0 0A5 5 0 0 1 0 0", "M0 0"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p, err := ParsePath(tt.in)
			if err != nil {
				t.Fatalf("ParsePath: %v", err)
			}
			if got := p.Format(3); got != tt.want {
				t.Errorf("Format = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParsePathArc(t *testing.T) {
	p, err := ParsePath("M0 0A5 5 0 0 1 10 0")
	if err != nil {
		t.Fatal(err)
	}
	if len(p) != 3 {
		t.Fatalf("half circle should be two cubics, got %d segments", len(p))
	}
	end := p[len(p)-1].End()
	if end != (Point{10, 0}) {
		t.Errorf("arc end = %+v", end)
	}
	// sweep=1 from (0,0) to (10,0) bulges towards negative y.
	mid := p[1].P[2]
	if math.Abs(mid.X-5) > 1e-9 || math.Abs(mid.Y+5) > 1e-9 {
		t.Errorf("arc midpoint = %+v, want (5,-5)", mid)
	}

	// Packed flags.
	q, err := ParsePath("M0 0a5 5 0 1110 0")
	if err != nil {
		t.Fatalf("packed flags: %v", err)
	}
	if q[len(q)-1].End() != (Point{10, 0}) {
		t.Errorf("packed arc end = %+v", q[len(q)-1].End())
	}
}

func TestParsePathErrors(t *testing.T) {
	for _, d := range []string{
		"L1 1",
		"1 1",
		"M0",
		"M0 0L1",
		"M0 0X1 1",
		"M0 0Z 5",
		"M0 0 A1 1 0 2 0 1 1",
		"M0 0L1e999 0",
	} {
		if _, err := ParsePath(d); err == nil {
			t.Errorf("ParsePath(%q) should fail", d)
		}
	}
}

func TestFormatIdempotent(t *testing.T) {
	p, err := ParsePath("M0.12345 1.00049C2.3333 4.5555 6.6666 7.7777 8.99999 9.0001")
	if err != nil {
		t.Fatal(err)
	}
	once := p.Format(3)
	q, err := ParsePath(once)
	if err != nil {
		t.Fatal(err)
	}
	if twice := q.Format(3); twice != once {
		t.Errorf("Format not idempotent: %q vs %q", once, twice)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		v    float64
		prec int
		want string
	}{
		{1, 3, "1"},
		{1.5, 1, "1.5"},
		{1.25, 1, "1.2"},
		{0.001, 1, "0"},
		{-0.01, 1, "0"},
		{-2.56, 1, "-2.6"},
		{100, 0, "100"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.v, tt.prec); got != tt.want {
			t.Errorf("FormatNumber(%v, %d) = %q, want %q", tt.v, tt.prec, got, tt.want)
		}
	}
}

func TestParseTransform(t *testing.T) {
	tests := []struct {
		in   string
		p    Point
		want Point
	}{
		{"translate(10 5)", Point{1, 1}, Point{11, 6}},
		{"translate(10)", Point{1, 1}, Point{11, 1}},
		{"scale(2)", Point{1, 3}, Point{2, 6}},
		{"translate(10,0) scale(2)", Point{1, 1}, Point{12, 2}},
		{"rotate(90)", Point{1, 0}, Point{0, 1}},
		{"rotate(180 5 5)", Point{0, 0}, Point{10, 10}},
		{"matrix(1 0 0 1 3 4)", Point{0, 0}, Point{3, 4}},
		{"skewX(45)", Point{0, 1}, Point{1, 1}},
		{"", Point{7, 7}, Point{7, 7}},
	}
	for _, tt := range tests {
		m, err := ParseTransform(tt.in)
		if err != nil {
			t.Fatalf("ParseTransform(%q): %v", tt.in, err)
		}
		got := m.Apply(tt.p)
		if math.Abs(got.X-tt.want.X) > 1e-9 || math.Abs(got.Y-tt.want.Y) > 1e-9 {
			t.Errorf("%q applied to %+v = %+v, want %+v", tt.in, tt.p, got, tt.want)
		}
	}

	for _, bad := range []string{"translate(1", "spin(4)", "scale(1 2 3)", "matrix(1 2)"} {
		if _, err := ParseTransform(bad); err == nil {
			t.Errorf("ParseTransform(%q) should fail", bad)
		}
	}
}

func TestParseLength(t *testing.T) {
	tests := []struct {
		in     string
		px     float64
		absolu bool
	}{
		{"12", 12, true},
		{"12px", 12, true},
		{"1in", 96, true},
		{"72pt", 96, true},
		{"25.4mm", 96, true},
		{"50%", 0, false},
		{"2em", 0, false},
	}
	for _, tt := range tests {
		l, err := ParseLength(tt.in)
		if err != nil {
			t.Fatalf("ParseLength(%q): %v", tt.in, err)
		}
		px, ok := l.Px()
		if ok != tt.absolu || (ok && math.Abs(px-tt.px) > 1e-9) {
			t.Errorf("ParseLength(%q).Px() = %v, %v", tt.in, px, ok)
		}
	}
	if _, err := ParseLength("px"); err == nil {
		t.Error("ParseLength(px) should fail")
	}
}

func TestRootViewBox(t *testing.T) {
	vb, err := RootViewBox(New("svg", Attr{"viewBox", "0 0 32 16"}))
	if err != nil || vb != (ViewBox{0, 0, 32, 16}) {
		t.Errorf("viewBox: %+v, %v", vb, err)
	}
	vb, err = RootViewBox(New("svg", Attr{"width", "16px"}, Attr{"height", "16"}))
	if err != nil || vb != (ViewBox{0, 0, 16, 16}) {
		t.Errorf("width/height: %+v, %v", vb, err)
	}
	for _, bad := range []*Element{
		New("svg"),
		New("svg", Attr{"viewBox", "0 0 0 16"}),
		New("svg", Attr{"viewBox", "0 0 16"}),
	} {
		if _, err := RootViewBox(bad); err == nil {
			t.Errorf("RootViewBox(%s) should fail", bad)
		}
	}
}

func TestViewBoxFit(t *testing.T) {
	m := ViewBox{0, 0, 16, 16}.Fit(ViewBox{0, 0, 32, 32})
	if got := m.Apply(Point{16, 8}); got != (Point{32, 16}) {
		t.Errorf("Fit = %+v", got)
	}
}

func TestShapePath(t *testing.T) {
	tests := []struct {
		el   *Element
		want string
	}{
		{New("rect", Attr{"x", "1"}, Attr{"y", "2"}, Attr{"width", "3"}, Attr{"height", "4"}), "M1 2L4 2L4 6L1 6Z"},
		{New("rect", Attr{"width", "0"}, Attr{"height", "4"}), ""},
		{New("line", Attr{"x1", "0"}, Attr{"y1", "0"}, Attr{"x2", "5"}, Attr{"y2", "5"}), "M0 0L5 5"},
		{New("polygon", Attr{"points", "0,0 4,0 4,4"}), "M0 0L4 0L4 4Z"},
		{New("polyline", Attr{"points", "0 0 4 0 4"}), "M0 0L4 0"},
		{New("circle", Attr{"cx", "5"}, Attr{"cy", "5"}, Attr{"r", "0"}), ""},
	}
	for _, tt := range tests {
		p, err := ShapePath(tt.el)
		if err != nil {
			t.Fatalf("ShapePath(%s): %v", tt.el, err)
		}
		if got := p.Format(3); got != tt.want {
			t.Errorf("ShapePath(%s) = %q, want %q", tt.el, got, tt.want)
		}
	}

	circle, err := ShapePath(New("circle", Attr{"cx", "5"}, Attr{"cy", "5"}, Attr{"r", "5"}))
	if err != nil {
		t.Fatal(err)
	}
	b, _ := circle.Bounds()
	if b != (Rect{0, 0, 10, 10}) {
		t.Errorf("circle bounds = %+v", b)
	}

	rounded, err := ShapePath(New("rect", Attr{"width", "10"}, Attr{"height", "10"}, Attr{"rx", "2"}))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(rounded.Format(3), "C") {
		t.Errorf("rounded rect should contain curves: %s", rounded.Format(3))
	}

	if p, err := ShapePath(New("g")); p != nil || err != nil {
		t.Errorf("ShapePath(g) = %v, %v", p, err)
	}
	if _, err := ShapePath(New("circle", Attr{"r", "50%"})); err == nil {
		t.Error("percentage radius should fail")
	}
}

func TestResolved(t *testing.T) {
	e := New("path", Attr{"fill", "red"}, Attr{"style", "fill: blue; stroke:none"})
	if v, _ := e.Resolved("fill"); v != "blue" {
		t.Errorf("style should override attribute, got %q", v)
	}
	if v, _ := e.Resolved("stroke"); v != "none" {
		t.Errorf("stroke = %q", v)
	}
	if _, ok := e.Resolved("opacity"); ok {
		t.Error("opacity should be absent")
	}
}
