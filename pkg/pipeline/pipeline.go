// Package pipeline drives one batch run: load the layer store and the
// recipe set, resolve every recipe, compose and rasterize documents on a
// bounded worker pool, and persist bitmaps plus the run log.
//
// # Architecture
//
// A run is a small state machine:
//
//	Initializing → Resolving → Rendering → Finalizing → Done
//
// Any state before Done may move to Aborted. Failures attributed to one
// recipe (a missing layer, bad geometry, a failed write) become tagged
// outcomes in the [Report] and never stop the run. Failures of the run
// inputs themselves abort it.
//
// # Usage
//
//	runner := pipeline.NewRunner(backing, optimizer, logger)
//	report, err := runner.Run(ctx, pipeline.Options{
//	    Resolution: 64,
//	    Layers:     "svg",
//	    Recipes:    "recipes.toml",
//	    Out:        "out",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(report.Succeeded(), "textures in", report.Dir)
package pipeline

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/tilesmith/pkg/errors"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and config
// =============================================================================

const (
	// MinResolution and MaxResolution bound the accepted edge lengths.
	MinResolution = 32
	MaxResolution = 4096

	// DefaultLayers is the layer store directory.
	DefaultLayers = "svg"

	// DefaultRecipes is the recipe manifest path.
	DefaultRecipes = "recipes.toml"

	// DefaultOut is the parent of the per-resolution run directories.
	DefaultOut = "out"

	// DefaultCacheTTL is the expiry of documents in the persistent cache.
	DefaultCacheTTL = 7 * 24 * time.Hour
)

// Resolutions returns every accepted resolution in ascending order.
func Resolutions() []int {
	var out []int
	for n := MinResolution; n <= MaxResolution; n <<= 1 {
		out = append(out, n)
	}
	return out
}

// ValidateResolution reports an *errors.InvalidResolutionError unless n is
// a power of two within [MinResolution, MaxResolution].
func ValidateResolution(n int) error {
	if n < MinResolution || n > MaxResolution || n&(n-1) != 0 {
		return &errors.InvalidResolutionError{Value: strconv.Itoa(n), Min: MinResolution, Max: MaxResolution}
	}
	return nil
}

// ParseResolution parses and validates a command-line resolution argument.
func ParseResolution(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, &errors.InvalidResolutionError{Value: s, Min: MinResolution, Max: MaxResolution}
	}
	if err := ValidateResolution(n); err != nil {
		return 0, err
	}
	return n, nil
}

// RunDir returns the output directory of a run at resolution n below out.
func RunDir(out string, n int) string {
	return filepath.Join(out, fmt.Sprintf("%dx%d", n, n))
}

// Options configures one run.
type Options struct {
	Resolution int
	Layers     string // layer store directory
	Recipes    string // recipe manifest
	Out        string // parent of the run directory
	Workers    int    // worker pool size; zero uses GOMAXPROCS

	// Metadata is an optional directory whose files are copied verbatim
	// into every run directory.
	Metadata string

	// CacheTTL is the expiry of documents written to the persistent cache.
	CacheTTL time.Duration
}

// ValidateAndSetDefaults validates the resolution and fills empty fields.
// It never touches the filesystem.
func (o *Options) ValidateAndSetDefaults() error {
	if err := ValidateResolution(o.Resolution); err != nil {
		return err
	}
	if o.Layers == "" {
		o.Layers = DefaultLayers
	}
	if o.Recipes == "" {
		o.Recipes = DefaultRecipes
	}
	if o.Out == "" {
		o.Out = DefaultOut
	}
	if o.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "workers must not be negative, got %d", o.Workers)
	}
	if o.Workers == 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = DefaultCacheTTL
	}
	return nil
}
