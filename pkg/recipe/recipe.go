// Package recipe defines output textures as ordered compositions of layers
// and resolves them against a layer store.
//
// Recipes come from a TOML manifest:
//
//	[palette]
//	stone = "#888"
//
//	[[recipe]]
//	name = "stone"
//	layers = [
//	  { layer = "stone_base" },
//	  { layer = "stone_overlay", tint = "gray" },
//	]
//
//	[[recipe]]
//	name = "glass"
//	background = "$stone"
//	layers = [{ layer = "glass_frame", tint = "#fff", alpha = 0.5 }]
//
// Tints and backgrounds accept any color understood by package color, or
// "$name" to reference the palette.
package recipe

import (
	"github.com/matzehuels/tilesmith/pkg/color"
	"github.com/matzehuels/tilesmith/pkg/errors"
	"github.com/matzehuels/tilesmith/pkg/layers"
)

// LayerRef is one entry of a recipe's layer list.
type LayerRef struct {
	Layer string
	Tint  *color.Color // nil keeps the layer's own color
	Alpha float64      // in (0, 1]; zero means opaque
}

// Opacity returns the effective alpha of the reference.
func (l LayerRef) Opacity() float64 {
	if l.Alpha <= 0 || l.Alpha > 1 {
		return 1
	}
	return l.Alpha
}

// Recipe names one output texture. Recipes are immutable once loaded.
type Recipe struct {
	Name       string
	Layers     []LayerRef
	Background *color.Color
}

// LayerIDs returns the referenced layer ids in order.
func (r *Recipe) LayerIDs() []string {
	ids := make([]string, len(r.Layers))
	for i, l := range r.Layers {
		ids[i] = l.Layer
	}
	return ids
}

// ResolvedLayer pairs a layer's geometry with the color it is painted in.
type ResolvedLayer struct {
	Layer *layers.Layer
	Tint  *color.Color // as written in the recipe
	Color *color.Color // effective paint; nil keeps the layer's colors
	Alpha float64
}

// Resolved is a recipe with every reference replaced by layer content.
type Resolved struct {
	Recipe *Recipe
	Layers []ResolvedLayer
}

// Resolver expands recipes against a layer store.
type Resolver struct {
	Store *layers.Store
}

// NewResolver returns a resolver for store.
func NewResolver(store *layers.Store) *Resolver {
	return &Resolver{Store: store}
}

// Resolve validates every reference of r before building anything. If any
// layer is missing it returns a *errors.MissingLayerError naming all of
// them and no partial result.
func (rv *Resolver) Resolve(r *Recipe) (*Resolved, error) {
	out := &Resolved{Recipe: r, Layers: make([]ResolvedLayer, len(r.Layers))}
	var missing []string
	seen := make(map[string]bool)
	for i, ref := range r.Layers {
		l, err := rv.Store.Lookup(ref.Layer)
		if err != nil {
			if !seen[ref.Layer] {
				seen[ref.Layer] = true
				missing = append(missing, ref.Layer)
			}
			continue
		}
		rl := ResolvedLayer{Layer: l, Tint: ref.Tint, Color: ref.Tint, Alpha: ref.Opacity()}
		if rl.Color == nil && !l.Multicolor {
			c := l.DefaultColor
			rl.Color = &c
		}
		out.Layers[i] = rl
	}
	if len(missing) > 0 {
		return nil, &errors.MissingLayerError{Recipe: r.Name, Layers: missing}
	}
	return out, nil
}
