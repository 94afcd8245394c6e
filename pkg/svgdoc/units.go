package svgdoc

import (
	"fmt"
	"strings"
)

// Pixels per unit for absolute CSS length units.
var pxPerUnit = map[string]float64{
	"":   1,
	"px": 1,
	"pt": 96.0 / 72.0,
	"pc": 16,
	"mm": 96 / 25.4,
	"cm": 96 / 2.54,
	"in": 96,
}

// Length is a number with an optional unit suffix.
type Length struct {
	Value float64
	Unit  string // "", "px", "pt", "%", "em", ...
}

// ParseLength parses a length such as "12", "1.5mm" or "50%".
func ParseLength(s string) (Length, error) {
	s = strings.TrimSpace(s)
	sc := &scanner{s: s}
	v, err := sc.number()
	if err != nil {
		return Length{}, fmt.Errorf("length %q: %w", s, err)
	}
	unit := strings.ToLower(strings.TrimSpace(s[sc.pos:]))
	for _, r := range unit {
		if (r < 'a' || r > 'z') && r != '%' {
			return Length{}, fmt.Errorf("length %q: invalid unit", s)
		}
	}
	return Length{Value: v, Unit: unit}, nil
}

// Px converts an absolute length to pixels. ok is false for relative units.
func (l Length) Px() (px float64, ok bool) {
	f, ok := pxPerUnit[l.Unit]
	if !ok {
		return 0, false
	}
	return l.Value * f, true
}

// ParsePx parses a length and converts it to pixels.
func ParsePx(s string) (float64, error) {
	l, err := ParseLength(s)
	if err != nil {
		return 0, err
	}
	px, ok := l.Px()
	if !ok {
		return 0, fmt.Errorf("length %q: unsupported unit %q", s, l.Unit)
	}
	return px, nil
}
