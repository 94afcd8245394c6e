package recipe

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/tilesmith/pkg/color"
	"github.com/matzehuels/tilesmith/pkg/errors"
)

// manifestDoc is the on-disk TOML layout.
type manifestDoc struct {
	Palette map[string]string `toml:"palette"`
	Recipes []recipeDoc       `toml:"recipe"`
}

type recipeDoc struct {
	Name       string     `toml:"name"`
	Background string     `toml:"background"`
	Layers     []layerDoc `toml:"layers"`
}

type layerDoc struct {
	Layer string   `toml:"layer"`
	Tint  string   `toml:"tint"`
	Alpha *float64 `toml:"alpha"`
}

// LoadManifest reads a recipe manifest. Every problem with the manifest
// itself is reported as *errors.ManifestLoadError; references to layers are
// not checked here.
func LoadManifest(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &errors.ManifestLoadError{Path: path, Cause: err}
	}
	set, err := ParseManifest(data)
	if err != nil {
		return nil, &errors.ManifestLoadError{Path: path, Cause: err}
	}
	set.Source = path
	return set, nil
}

// ParseManifest parses manifest TOML.
func ParseManifest(data []byte) (*Set, error) {
	var doc manifestDoc
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}

	palette, err := parsePalette(doc.Palette)
	if err != nil {
		return nil, err
	}

	recipes := make([]*Recipe, 0, len(doc.Recipes))
	for i, rd := range doc.Recipes {
		r, err := rd.build(palette)
		if err != nil {
			if rd.Name == "" {
				return nil, fmt.Errorf("recipe #%d: %w", i+1, err)
			}
			return nil, fmt.Errorf("recipe %q: %w", rd.Name, err)
		}
		recipes = append(recipes, r)
	}
	return NewSet(recipes...)
}

func parsePalette(raw map[string]string) (map[string]color.Color, error) {
	out := make(map[string]color.Color, len(raw))
	for name, v := range raw {
		c, has, err := color.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("palette %q: %w", name, err)
		}
		if !has {
			return nil, fmt.Errorf("palette %q: a paint color is required", name)
		}
		out[name] = c
	}
	return out, nil
}

// paint resolves a color value or a "$name" palette reference.
func paint(v string, palette map[string]color.Color) (*color.Color, error) {
	if v == "" {
		return nil, nil
	}
	if name, ok := strings.CutPrefix(v, "$"); ok {
		c, found := palette[name]
		if !found {
			return nil, fmt.Errorf("unknown palette color %q", name)
		}
		return &c, nil
	}
	c, has, err := color.Parse(v)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, fmt.Errorf("%q is not a paint color", v)
	}
	return &c, nil
}

func (rd recipeDoc) build(palette map[string]color.Color) (*Recipe, error) {
	if err := errors.ValidateName(rd.Name); err != nil {
		return nil, fmt.Errorf("name: %w", err)
	}
	if len(rd.Layers) == 0 {
		return nil, fmt.Errorf("no layers")
	}

	bg, err := paint(rd.Background, palette)
	if err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}

	r := &Recipe{Name: rd.Name, Background: bg}
	for i, ld := range rd.Layers {
		if ld.Layer == "" {
			return nil, fmt.Errorf("layer #%d: missing layer id", i+1)
		}
		tint, err := paint(ld.Tint, palette)
		if err != nil {
			return nil, fmt.Errorf("layer %q: tint: %w", ld.Layer, err)
		}
		alpha := 1.0
		if ld.Alpha != nil {
			alpha = *ld.Alpha
		}
		if !(alpha > 0 && alpha <= 1) {
			return nil, fmt.Errorf("layer %q: alpha must be in (0, 1], got %g", ld.Layer, alpha)
		}
		r.Layers = append(r.Layers, LayerRef{Layer: ld.Layer, Tint: tint, Alpha: alpha})
	}
	return r, nil
}

// Set is the immutable collection of recipes for a run, sorted by name.
type Set struct {
	Source  string
	Recipes []*Recipe
	byName  map[string]*Recipe
}

// NewSet builds a set, rejecting duplicate or invalid names.
func NewSet(recipes ...*Recipe) (*Set, error) {
	s := &Set{byName: make(map[string]*Recipe, len(recipes))}
	for _, r := range recipes {
		if err := errors.ValidateName(r.Name); err != nil {
			return nil, fmt.Errorf("recipe %q: %w", r.Name, err)
		}
		if _, dup := s.byName[r.Name]; dup {
			return nil, fmt.Errorf("duplicate recipe %q", r.Name)
		}
		s.byName[r.Name] = r
		s.Recipes = append(s.Recipes, r)
	}
	sort.Slice(s.Recipes, func(i, j int) bool { return s.Recipes[i].Name < s.Recipes[j].Name })
	return s, nil
}

// Get returns the named recipe.
func (s *Set) Get(name string) (*Recipe, bool) {
	r, ok := s.byName[name]
	return r, ok
}

// Names returns the recipe names in sorted order.
func (s *Set) Names() []string {
	out := make([]string, len(s.Recipes))
	for i, r := range s.Recipes {
		out[i] = r.Name
	}
	return out
}

// Len returns the number of recipes.
func (s *Set) Len() int { return len(s.Recipes) }
