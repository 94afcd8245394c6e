// Package color parses and formats the paint colors used by layers and
// recipes.
//
// Parsing accepts every CSS color form understood by csscolorparser (hex,
// rgb(), rgba(), hsl() and the named colors) plus "none". Formatting always produces the shortest lowercase hex form, which
// keeps composed documents canonical.
package color

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/mazznoer/csscolorparser"
)

// Color is a non-premultiplied 8-bit RGBA color.
type Color struct {
	R, G, B, A uint8
}

// Common colors.
var (
	Black       = Color{0, 0, 0, 255}
	White       = Color{255, 255, 255, 255}
	Transparent = Color{}
)

// Opaque reports whether the color has full alpha.
func (c Color) Opaque() bool { return c.A == 255 }

// NRGBA converts to the standard library representation.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// WithAlpha returns c with its alpha multiplied by a in [0,1].
func (c Color) WithAlpha(a float64) Color {
	if a >= 1 {
		return c
	}
	if a <= 0 {
		c.A = 0
		return c
	}
	c.A = uint8(float64(c.A)*a + 0.5)
	return c
}

// Hex formats the color in its shortest hex form: "#rgb" when every channel
// has repeated nibbles, "#rrggbb" otherwise, with an alpha component only
// when the color is not opaque.
func (c Color) Hex() string {
	short := nibble(c.R) && nibble(c.G) && nibble(c.B) && nibble(c.A)
	switch {
	case c.A == 255 && short:
		return fmt.Sprintf("#%x%x%x", c.R>>4, c.G>>4, c.B>>4)
	case c.A == 255:
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	case short:
		return fmt.Sprintf("#%x%x%x%x", c.R>>4, c.G>>4, c.B>>4, c.A>>4)
	default:
		return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
	}
}

// String returns Hex.
func (c Color) String() string { return c.Hex() }

func nibble(v uint8) bool { return v>>4 == v&0xf }

// MarshalText implements encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) { return []byte(c.Hex()), nil }

// UnmarshalText implements encoding.TextUnmarshaler so colors can be used
// directly in TOML and YAML documents. "none" is rejected here.
func (c *Color) UnmarshalText(b []byte) error {
	v, ok, err := Parse(string(b))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("color %q: a paint color is required", string(b))
	}
	*c = v
	return nil
}

// Parse parses a paint value. The boolean result is false for "none",
// which is valid paint but has no color.
func Parse(s string) (Color, bool, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case v == "":
		return Color{}, false, fmt.Errorf("empty color")
	case v == "none":
		return Color{}, false, nil
	case strings.HasPrefix(v, "url("):
		return Color{}, false, fmt.Errorf("color %q: paint servers have no color", s)
	case strings.Trim(v, "0123456789abcdef") == "":
		return Color{}, false, fmt.Errorf("color %q: hex colors need a leading #", s)
	}
	c, err := csscolorparser.Parse(v)
	if err != nil {
		return Color{}, false, fmt.Errorf("color %q: %w", s, err)
	}
	return Color{R: to8(c.R), G: to8(c.G), B: to8(c.B), A: to8(c.A)}, true, nil
}

// MustParse is like Parse but panics on error or "none".
func MustParse(s string) Color {
	c, ok, err := Parse(s)
	if err != nil {
		panic(err)
	}
	if !ok {
		panic("color: " + s + " has no color")
	}
	return c
}

// to8 maps a channel in [0,1] to 8 bits.
func to8(f float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, f)) * 255))
}
