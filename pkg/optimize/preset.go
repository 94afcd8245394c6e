package optimize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/matzehuels/tilesmith/pkg/color"
	"github.com/matzehuels/tilesmith/pkg/svgdoc"
)

// editorPrefixes are namespaces written by vector editors.
var editorPrefixes = map[string]bool{
	"sodipodi": true,
	"inkscape": true,
	"sketch":   true,
	"serif":    true,
}

// droppedElements carry no rendering information.
var droppedElements = map[string]bool{
	"metadata": true,
	"title":    true,
	"desc":     true,
}

// paintAttrs hold colors that are normalized to shortest hex.
var paintAttrs = []string{"fill", "stroke", "color", "stop-color", "flood-color"}

// shapeAttrs are the geometry attributes replaced by "d" when a shape is
// converted to a path.
var shapeAttrs = map[string][]string{
	"rect":     {"x", "y", "width", "height", "rx", "ry"},
	"line":     {"x1", "y1", "x2", "y2"},
	"polyline": {"points"},
	"polygon":  {"points"},
}

func presetDefault(root *svgdoc.Element) {
	removeEditorData(root)
	root.Walk(func(e *svgdoc.Element) bool {
		inlineStyle(e)
		normalizeColors(e)
		convertShape(e)
		canonicalizePath(e)
		return true
	})
	root.Filter(visible)
	collapseGroups(root)
	removeUnreferencedIDs(root)
	root.Walk(func(e *svgdoc.Element) bool {
		e.SortAttrs()
		return true
	})
}

func removeEditorData(root *svgdoc.Element) {
	root.Filter(func(e *svgdoc.Element) bool {
		return !droppedElements[e.Name] && !editorPrefixes[svgdoc.Prefix(e.Name)]
	})
	root.Walk(func(e *svgdoc.Element) bool {
		out := e.Attrs[:0]
		for _, a := range e.Attrs {
			if editorPrefixes[svgdoc.Prefix(a.Name)] {
				continue
			}
			out = append(out, a)
		}
		e.Attrs = out
		return true
	})
}

// inlineStyle moves presentation declarations from style into attributes.
// Other declarations stay in style.
func inlineStyle(e *svgdoc.Element) {
	st, ok := e.Get("style")
	if !ok {
		return
	}
	var rest []string
	for _, d := range svgdoc.ParseStyle(st) {
		if svgdoc.Presentation[d.Name] {
			e.Set(d.Name, d.Value)
			continue
		}
		rest = append(rest, d.Name+":"+d.Value)
	}
	if len(rest) == 0 {
		e.Remove("style")
		return
	}
	e.Set("style", strings.Join(rest, ";"))
}

func normalizeColors(e *svgdoc.Element) {
	for _, name := range paintAttrs {
		v, ok := e.Get(name)
		if !ok {
			continue
		}
		c, has, err := color.Parse(v)
		switch {
		case err != nil:
			// url(#...), currentColor, inherit: kept as written
		case !has:
			e.Set(name, "none")
		default:
			e.Set(name, c.Hex())
		}
	}
}

func convertShape(e *svgdoc.Element) {
	attrs, ok := shapeAttrs[e.Name]
	if !ok {
		return
	}
	p, err := svgdoc.ShapePath(e)
	if err != nil {
		return
	}
	for _, a := range attrs {
		e.Remove(a)
	}
	e.Name = "path"
	e.Set("d", p.Format(pathPrecision))
}

func canonicalizePath(e *svgdoc.Element) {
	if e.Name != "path" {
		return
	}
	d, ok := e.Get("d")
	if !ok {
		return
	}
	p, err := svgdoc.ParsePath(d)
	if err != nil {
		return
	}
	e.Set("d", trimMoves(p).Format(pathPrecision))
}

// trimMoves drops moveto segments that are immediately followed by another
// moveto or end the path. They draw nothing.
func trimMoves(p svgdoc.Path) svgdoc.Path {
	out := p[:0:0]
	for i, s := range p {
		if s.Op == svgdoc.MoveTo && (i == len(p)-1 || p[i+1].Op == svgdoc.MoveTo) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func visible(e *svgdoc.Element) bool {
	if e.Attr("display") == "none" {
		return false
	}
	if v, ok := e.Get("opacity"); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && f <= 0 {
			return false
		}
	}
	switch e.Name {
	case "path":
		return strings.TrimSpace(e.Attr("d")) != ""
	case "g", "defs":
		return len(e.Children) > 0
	}
	return true
}

// collapseGroups replaces attribute-less groups by their children.
func collapseGroups(e *svgdoc.Element) {
	var out []*svgdoc.Element
	for _, c := range e.Children {
		collapseGroups(c)
		if c.Name == "g" && len(c.Attrs) == 0 {
			out = append(out, c.Children...)
			continue
		}
		out = append(out, c)
	}
	e.Children = out
}

var urlRef = regexp.MustCompile(`url\(\s*['"]?#([^'")\s]+)`)

func removeUnreferencedIDs(root *svgdoc.Element) {
	refs := make(map[string]bool)
	root.Walk(func(e *svgdoc.Element) bool {
		for _, a := range e.Attrs {
			if (a.Name == "href" || a.Name == "xlink:href") && strings.HasPrefix(a.Value, "#") {
				refs[a.Value[1:]] = true
			}
			for _, m := range urlRef.FindAllStringSubmatch(a.Value, -1) {
				refs[m[1]] = true
			}
		}
		return true
	})
	root.Walk(func(e *svgdoc.Element) bool {
		if id, ok := e.Get("id"); ok && !refs[id] {
			e.Remove("id")
		}
		return true
	})
}
