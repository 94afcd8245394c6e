package optimize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/tilesmith/pkg/errors"
)

// PluginName identifies one canonicalization pass.
type PluginName int

// Known plugins, in the order of the default pipeline.
const (
	PresetDefault PluginName = iota + 1
	RemoveOffCanvasPaths
	RemoveUnusedNS
	CleanupNumericValues
)

var pluginNames = map[PluginName]string{
	PresetDefault:        "preset-default",
	RemoveOffCanvasPaths: "removeOffCanvasPaths",
	RemoveUnusedNS:       "removeUnusedNS",
	CleanupNumericValues: "cleanupNumericValues",
}

// String returns the configuration name of the plugin.
func (n PluginName) String() string {
	if s, ok := pluginNames[n]; ok {
		return s
	}
	return fmt.Sprintf("plugin(%d)", int(n))
}

// MarshalText implements encoding.TextMarshaler.
func (n PluginName) MarshalText() ([]byte, error) {
	if _, ok := pluginNames[n]; !ok {
		return nil, fmt.Errorf("unknown plugin %d", int(n))
	}
	return []byte(n.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *PluginName) UnmarshalText(b []byte) error {
	p, err := ParsePluginName(string(b))
	if err != nil {
		return err
	}
	*n = p
	return nil
}

// ParsePluginName maps a configuration name to a PluginName.
func ParsePluginName(s string) (PluginName, error) {
	for n, name := range pluginNames {
		if name == s {
			return n, nil
		}
	}
	return 0, errors.New(errors.ErrCodeInvalidConfig, "unknown optimizer plugin %q", s)
}

// Params holds the plugin parameters. Only cleanupNumericValues reads them.
type Params struct {
	FloatPrecision int  `json:"floatPrecision" yaml:"floatPrecision"`
	ConvertToPx    bool `json:"convertToPx" yaml:"convertToPx"`
}

// PluginConfig is one entry of the plugin list.
type PluginConfig struct {
	Name   PluginName `json:"name" yaml:"name"`
	Params Params     `json:"params" yaml:"params"`
}

// pluginDoc is the object form of a plugin entry; a bare string is also
// accepted.
type pluginDoc struct {
	Name   PluginName `json:"name" yaml:"name"`
	Params *Params    `json:"params" yaml:"params"`
}

func (p *PluginConfig) fromDoc(d pluginDoc) {
	p.Name = d.Name
	p.Params = defaultParams(d.Name)
	if d.Params != nil {
		p.Params = *d.Params
	}
}

// UnmarshalYAML accepts "name" or {name, params}.
func (p *PluginConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return p.UnmarshalText([]byte(node.Value))
	}
	var d pluginDoc
	if err := node.Decode(&d); err != nil {
		return err
	}
	p.fromDoc(d)
	return nil
}

// UnmarshalJSON accepts "name" or {name, params}.
func (p *PluginConfig) UnmarshalJSON(b []byte) error {
	if b = bytes.TrimSpace(b); len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		return p.UnmarshalText([]byte(s))
	}
	var d pluginDoc
	if err := json.Unmarshal(b, &d); err != nil {
		return err
	}
	p.fromDoc(d)
	return nil
}

// UnmarshalText sets a plugin from its bare name with default params.
func (p *PluginConfig) UnmarshalText(b []byte) error {
	var n PluginName
	if err := n.UnmarshalText(b); err != nil {
		return err
	}
	*p = PluginConfig{Name: n, Params: defaultParams(n)}
	return nil
}

func defaultParams(n PluginName) Params {
	if n == CleanupNumericValues {
		return Params{FloatPrecision: 1, ConvertToPx: true}
	}
	return Params{}
}

// Output controls serialization.
type Output struct {
	Indent int `json:"indent" yaml:"indent"`
}

// Config is the complete optimizer configuration.
type Config struct {
	Multipass bool           `json:"multipass" yaml:"multipass"`
	Output    Output         `json:"js2svg" yaml:"js2svg"`
	Plugins   []PluginConfig `json:"plugins" yaml:"plugins"`
}

// Limits for configuration values.
const (
	MaxFloatPrecision = 8
	MaxPasses         = 10
)

// DefaultConfig returns the configuration used for texture packs:
// multipass, no indentation, and the four canonicalization plugins with
// one-digit numeric precision and pixel unit conversion.
func DefaultConfig() Config {
	return Config{
		Multipass: true,
		Output:    Output{Indent: 0},
		Plugins: []PluginConfig{
			{Name: PresetDefault},
			{Name: RemoveOffCanvasPaths},
			{Name: RemoveUnusedNS},
			{Name: CleanupNumericValues, Params: Params{FloatPrecision: 1, ConvertToPx: true}},
		},
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Output.Indent < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "indent must be non-negative, got %d", c.Output.Indent)
	}
	if len(c.Plugins) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "at least one plugin is required")
	}
	seen := make(map[PluginName]bool)
	for _, p := range c.Plugins {
		if _, ok := pluginNames[p.Name]; !ok {
			return errors.New(errors.ErrCodeInvalidConfig, "unknown optimizer plugin %s", p.Name)
		}
		if seen[p.Name] {
			return errors.New(errors.ErrCodeInvalidConfig, "plugin %s listed twice", p.Name)
		}
		seen[p.Name] = true
		if fp := p.Params.FloatPrecision; fp < 0 || fp > MaxFloatPrecision {
			return errors.New(errors.ErrCodeInvalidConfig,
				"%s: floatPrecision must be between 0 and %d, got %d", p.Name, MaxFloatPrecision, fp)
		}
	}
	return nil
}

// Fingerprint returns a stable textual form of the configuration. It is
// used to scope persisted documents.
func (c Config) Fingerprint() string {
	var b strings.Builder
	fmt.Fprintf(&b, "multipass=%t;indent=%d", c.Multipass, c.Output.Indent)
	for _, p := range c.Plugins {
		fmt.Fprintf(&b, ";%s(%d,%t)", p.Name, p.Params.FloatPrecision, p.Params.ConvertToPx)
	}
	return b.String()
}

// LoadConfig reads a YAML (.yaml, .yml) or JSON (.json, .jsonc) file. JSON
// files may contain comments and trailing commas.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read optimizer config")
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".json", ".jsonc":
		dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		dec.DisallowUnknownFields()
		err = dec.Decode(&cfg)
	default:
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "unsupported optimizer config format %q", ext)
	}
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
