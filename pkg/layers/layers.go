// Package layers loads and indexes the vector layer fragments that recipes
// are composed from.
//
// A layer is one SVG file below the layer directory. Its identifier is the
// file path relative to that directory, without the ".svg" extension and
// with forward slashes: "svg/block/stone_base.svg" becomes
// "block/stone_base".
//
// A [Store] is built once at startup and is read-only afterwards, so it can
// be shared between workers without locking.
package layers

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/zeebo/blake3"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/tilesmith/pkg/color"
	"github.com/matzehuels/tilesmith/pkg/errors"
	"github.com/matzehuels/tilesmith/pkg/svgdoc"
)

// Ext is the file extension of layer sources.
const Ext = ".svg"

// Layer is one immutable vector fragment.
type Layer struct {
	ID      string
	Source  string // file the layer was read from, empty for in-memory layers
	ViewBox svgdoc.ViewBox
	Root    *svgdoc.Element

	// Digest is the hex BLAKE3 sum of the source bytes.
	Digest string

	// DefaultColor is the first solid color a shape is painted with, or
	// black.
	DefaultColor color.Color

	// Multicolor is set when the layer paints more than one distinct color,
	// counting the implicit black of shapes without a fill. Untinted
	// multicolor layers keep their own colors.
	Multicolor bool
}

// Parse builds a layer from SVG source.
func Parse(id string, src []byte) (*Layer, error) {
	if err := errors.ValidateName(id); err != nil {
		return nil, fmt.Errorf("layer id %q: %w", id, err)
	}
	root, err := svgdoc.Parse(src)
	if err != nil {
		return nil, err
	}
	if root.Name != "svg" {
		return nil, fmt.Errorf("root element is <%s>, want <svg>", root.Name)
	}
	vb, err := svgdoc.RootViewBox(root)
	if err != nil {
		return nil, err
	}

	sum := blake3.Sum256(src)
	l := &Layer{
		ID:           id,
		ViewBox:      vb,
		Root:         root,
		Digest:       hex.EncodeToString(sum[:]),
		DefaultColor: color.Black,
	}
	paints := paintColors(root)
	if len(paints) > 0 {
		l.DefaultColor = paints[0]
	}
	l.Multicolor = len(paints) > 1
	return l, nil
}

// paintColors returns the distinct solid colors the layer's shapes are
// painted with, in document order. Paint is inherited the way a renderer
// sees it: a shape with no fill of its own uses its ancestors' fill or the
// initial black, and currentColor takes the inherited color property.
func paintColors(root *svgdoc.Element) []color.Color {
	var out []color.Color
	seen := make(map[color.Color]bool)
	add := func(paint, current string) {
		if strings.EqualFold(paint, "currentColor") {
			paint = current
		}
		c, has, err := color.Parse(paint)
		if err != nil || !has || seen[c] {
			return
		}
		seen[c] = true
		out = append(out, c)
	}

	var walk func(e *svgdoc.Element, fill, stroke, current string)
	walk = func(e *svgdoc.Element, fill, stroke, current string) {
		if v, ok := e.Resolved("color"); ok && v != "inherit" {
			current = v
		}
		if v, ok := e.Resolved("fill"); ok && v != "inherit" {
			fill = v
		}
		if v, ok := e.Resolved("stroke"); ok && v != "inherit" {
			stroke = v
		}
		if nonRendered[e.Name] {
			return
		}
		if svgdoc.IsShape(e.Name) {
			if e.Name != "line" {
				add(fill, current)
			}
			add(stroke, current)
		}
		for _, c := range e.Children {
			walk(c, fill, stroke, current)
		}
	}
	walk(root, "black", "none", "black")
	return out
}

// nonRendered lists containers whose content is never painted directly.
var nonRendered = map[string]bool{
	"defs":           true,
	"clipPath":       true,
	"mask":           true,
	"pattern":        true,
	"symbol":         true,
	"linearGradient": true,
	"radialGradient": true,
}

// Store indexes layers by identifier.
type Store struct {
	dir    string
	layers map[string]*Layer
	ids    []string
}

// New builds a store from already parsed layers.
func New(layers ...*Layer) (*Store, error) {
	s := &Store{layers: make(map[string]*Layer, len(layers))}
	for _, l := range layers {
		if _, dup := s.layers[l.ID]; dup {
			return nil, fmt.Errorf("duplicate layer %q", l.ID)
		}
		s.layers[l.ID] = l
		s.ids = append(s.ids, l.ID)
	}
	sort.Strings(s.ids)
	return s, nil
}

// Load reads every *.svg file below dir. Files are parsed concurrently.
// Any unreadable or malformed file fails the whole load with a
// *errors.ManifestLoadError.
func Load(dir string) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &errors.ManifestLoadError{Path: dir, Cause: err}
	}
	if !info.IsDir() {
		return nil, errors.ManifestLoad(dir, "not a directory")
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), Ext) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, &errors.ManifestLoadError{Path: dir, Cause: err}
	}

	parsed := make([]*Layer, len(files))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range files {
		g.Go(func() error {
			l, err := loadFile(dir, path)
			if err != nil {
				return err
			}
			parsed[i] = l
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s, err := New(parsed...)
	if err != nil {
		return nil, &errors.ManifestLoadError{Path: dir, Cause: err}
	}
	s.dir = dir
	return s, nil
}

func loadFile(dir, path string) (*Layer, error) {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return nil, &errors.ManifestLoadError{Path: path, Cause: err}
	}
	id := filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel)))

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &errors.ManifestLoadError{Path: path, Cause: err}
	}
	l, err := Parse(id, src)
	if err != nil {
		return nil, &errors.ManifestLoadError{Path: path, Cause: err}
	}
	l.Source = path
	return l, nil
}

// Dir returns the directory the store was loaded from.
func (s *Store) Dir() string { return s.dir }

// Get returns the layer with the given id.
func (s *Store) Get(id string) (*Layer, bool) {
	l, ok := s.layers[id]
	return l, ok
}

// Lookup is like Get but reports a missing layer as *errors.MissingLayerError.
func (s *Store) Lookup(id string) (*Layer, error) {
	if l, ok := s.layers[id]; ok {
		return l, nil
	}
	return nil, &errors.MissingLayerError{Layers: []string{id}}
}

// IDs returns all layer ids in sorted order.
func (s *Store) IDs() []string {
	return append([]string(nil), s.ids...)
}

// Len returns the number of layers.
func (s *Store) Len() int { return len(s.ids) }
