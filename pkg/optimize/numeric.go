package optimize

import (
	"strings"

	"github.com/matzehuels/tilesmith/pkg/svgdoc"
)

// numericAttrs hold a single length or number.
var numericAttrs = map[string]bool{
	"x": true, "y": true, "width": true, "height": true,
	"cx": true, "cy": true, "r": true, "rx": true, "ry": true,
	"x1": true, "y1": true, "x2": true, "y2": true,
	"stroke-width": true, "stroke-miterlimit": true,
	"opacity": true, "fill-opacity": true, "stroke-opacity": true,
	"stop-opacity": true, "offset": true,
}

func cleanupNumericValues(root *svgdoc.Element, p Params) {
	root.Walk(func(e *svgdoc.Element) bool {
		for i, a := range e.Attrs {
			switch {
			case a.Name == "viewBox":
				e.Attrs[i].Value = roundList(a.Value, p.FloatPrecision)
			case numericAttrs[a.Name]:
				e.Attrs[i].Value = roundLength(a.Value, p)
			}
		}
		return true
	})
}

func roundLength(v string, p Params) string {
	l, err := svgdoc.ParseLength(v)
	if err != nil {
		return v
	}
	value, unit := l.Value, l.Unit
	if px, ok := l.Px(); ok && (p.ConvertToPx || unit == "px") {
		value, unit = px, ""
	}
	return svgdoc.FormatNumber(value, p.FloatPrecision) + unit
}

func roundList(v string, prec int) string {
	nums, err := svgdoc.ParseNumbers(v)
	if err != nil {
		return v
	}
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = svgdoc.FormatNumber(n, prec)
	}
	return strings.Join(parts, " ")
}
