// Package optimize canonicalizes SVG documents before they are cached or
// rasterized.
//
// An [Optimizer] is built from a static, validated [Config]: an ordered list
// of plugins chosen from a closed set ([PluginName]). With multipass enabled
// the plugin sequence is repeated until the serialized document stops
// changing, which makes optimization idempotent: optimizing an optimized
// document returns it byte for byte.
//
// # Plugins
//
//   - preset-default: structural cleanup (editor data, metadata, inline
//     styles, colors, shapes to paths, path data, hidden elements, groups,
//     unreferenced ids, attribute order)
//   - removeOffCanvasPaths: drops geometry entirely outside the viewBox
//   - removeUnusedNS: drops namespace declarations nobody uses
//   - cleanupNumericValues: unit conversion and numeric rounding
//
// Path data that cannot be parsed is left untouched so that the rasterizer
// can report it against the owning recipe.
package optimize

import (
	"bytes"

	"github.com/matzehuels/tilesmith/pkg/svgdoc"
)

// pathPrecision is the number of decimals kept in canonical path data.
const pathPrecision = 3

// Optimizer applies a configured plugin sequence. It holds no mutable state
// and is safe for concurrent use.
type Optimizer struct {
	cfg    Config
	passes []func(*svgdoc.Element)
}

// New validates cfg and builds an Optimizer.
func New(cfg Config) (*Optimizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := &Optimizer{cfg: cfg}
	for _, p := range cfg.Plugins {
		params := p.Params
		switch p.Name {
		case PresetDefault:
			o.passes = append(o.passes, presetDefault)
		case RemoveOffCanvasPaths:
			o.passes = append(o.passes, removeOffCanvasPaths)
		case RemoveUnusedNS:
			o.passes = append(o.passes, removeUnusedNS)
		case CleanupNumericValues:
			o.passes = append(o.passes, func(root *svgdoc.Element) { cleanupNumericValues(root, params) })
		}
	}
	return o, nil
}

// Default returns an Optimizer for DefaultConfig.
func Default() *Optimizer {
	o, err := New(DefaultConfig())
	if err != nil {
		panic("optimize: default config is invalid: " + err.Error())
	}
	return o
}

// Config returns the optimizer's configuration.
func (o *Optimizer) Config() Config { return o.cfg }

// Optimize parses src and returns its canonical serialization.
func (o *Optimizer) Optimize(src []byte) ([]byte, error) {
	root, err := svgdoc.Parse(src)
	if err != nil {
		return nil, err
	}
	return o.Run(root), nil
}

// Run optimizes root in place and returns its canonical serialization.
func (o *Optimizer) Run(root *svgdoc.Element) []byte {
	passes := 1
	if o.cfg.Multipass {
		passes = MaxPasses
	}

	var prev []byte
	for i := 0; i < passes; i++ {
		for _, p := range o.passes {
			p(root)
		}
		out := root.Encode(o.cfg.Output.Indent)
		if bytes.Equal(out, prev) {
			break
		}
		prev = out
	}
	return prev
}
