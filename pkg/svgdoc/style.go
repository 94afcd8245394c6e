package svgdoc

import "strings"

// ParseStyle splits an inline style attribute into declarations in order.
// Malformed declarations are skipped.
func ParseStyle(s string) []Attr {
	var out []Attr
	for _, decl := range strings.Split(s, ";") {
		name, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		name = strings.ToLower(strings.TrimSpace(name))
		value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "!important"))
		if name == "" || value == "" {
			continue
		}
		out = append(out, Attr{Name: name, Value: strings.TrimSpace(value)})
	}
	return out
}

// Presentation lists the attributes that may be given either as XML
// attributes or in a style declaration.
var Presentation = map[string]bool{
	"fill":              true,
	"fill-opacity":      true,
	"fill-rule":         true,
	"stroke":            true,
	"stroke-width":      true,
	"stroke-opacity":    true,
	"stroke-linecap":    true,
	"stroke-linejoin":   true,
	"stroke-miterlimit": true,
	"opacity":           true,
	"display":           true,
	"visibility":        true,
	"color":             true,
	"clip-rule":         true,
}

// Inherited lists presentation attributes that inherit to descendants.
var Inherited = map[string]bool{
	"fill":              true,
	"fill-opacity":      true,
	"fill-rule":         true,
	"stroke":            true,
	"stroke-width":      true,
	"stroke-opacity":    true,
	"stroke-linecap":    true,
	"stroke-linejoin":   true,
	"stroke-miterlimit": true,
	"visibility":        true,
	"color":             true,
	"clip-rule":         true,
}

// Resolved returns the effective value of a presentation attribute on e,
// letting a style declaration override the XML attribute.
func (e *Element) Resolved(name string) (string, bool) {
	if st, ok := e.Get("style"); ok {
		decls := ParseStyle(st)
		for i := len(decls) - 1; i >= 0; i-- {
			if decls[i].Name == name {
				return decls[i].Value, true
			}
		}
	}
	return e.Get(name)
}
