package svgdoc

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatNumber formats v with at most prec decimals and no trailing zeros.
// Negative zero is written as "0".
func FormatNumber(v float64, prec int) string {
	s := strconv.FormatFloat(v, 'f', prec, 64)
	if strings.IndexByte(s, '.') >= 0 {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" {
		s = "0"
	}
	return s
}

// scanner reads numbers out of SVG number lists, where separators may be
// whitespace, commas or nothing at all ("1.5.5" is 1.5 followed by .5).
type scanner struct {
	s   string
	pos int
}

func (sc *scanner) skipSep() {
	comma := false
	for sc.pos < len(sc.s) {
		switch c := sc.s[sc.pos]; {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f':
			sc.pos++
		case c == ',' && !comma:
			comma = true
			sc.pos++
		default:
			return
		}
	}
}

func (sc *scanner) done() bool {
	sc.skipSep()
	return sc.pos >= len(sc.s)
}

// peekNumber reports whether a number starts at the current position.
func (sc *scanner) peekNumber() bool {
	sc.skipSep()
	if sc.pos >= len(sc.s) {
		return false
	}
	c := sc.s[sc.pos]
	return c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9')
}

func (sc *scanner) number() (float64, error) {
	sc.skipSep()
	start := sc.pos
	i := sc.pos
	if i < len(sc.s) && (sc.s[i] == '+' || sc.s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(sc.s) && isDigit(sc.s[i]) {
		i++
		digits++
	}
	if i < len(sc.s) && sc.s[i] == '.' {
		i++
		for i < len(sc.s) && isDigit(sc.s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0, fmt.Errorf("expected number at offset %d", start)
	}
	if i < len(sc.s) && (sc.s[i] == 'e' || sc.s[i] == 'E') {
		j := i + 1
		if j < len(sc.s) && (sc.s[j] == '+' || sc.s[j] == '-') {
			j++
		}
		if j < len(sc.s) && isDigit(sc.s[j]) {
			for j < len(sc.s) && isDigit(sc.s[j]) {
				j++
			}
			i = j
		}
	}
	v, err := strconv.ParseFloat(sc.s[start:i], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", sc.s[start:i])
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("non-finite number %q", sc.s[start:i])
	}
	sc.pos = i
	return v, nil
}

// flag reads a single arc flag, which may be packed without separators.
func (sc *scanner) flag() (bool, error) {
	sc.skipSep()
	if sc.pos < len(sc.s) {
		switch sc.s[sc.pos] {
		case '0':
			sc.pos++
			return false, nil
		case '1':
			sc.pos++
			return true, nil
		}
	}
	return false, fmt.Errorf("expected arc flag at offset %d", sc.pos)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// ParseNumbers parses a whitespace or comma separated list of numbers.
func ParseNumbers(s string) ([]float64, error) {
	sc := &scanner{s: s}
	var out []float64
	for !sc.done() {
		v, err := sc.number()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
