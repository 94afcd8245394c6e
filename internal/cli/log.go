// Package cli implements the tilesmith command-line interface.
//
// The root command renders every recipe of a manifest at one resolution:
//
//	tilesmith 64
//
// Other commands:
//   - graph: Export the recipe/layer sharing graph as DOT or SVG
//   - optimize: Run the SVG optimizer on a single document
//   - cache: Manage the persistent document cache
//
// # Configuration
//
// Defaults come from tilesmith.toml in the working directory when present
// (or the file named by --config). Flags override the file.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// reports cache and file events through the observability hooks.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Built sharing graph: 40 recipes, 112 layers (12ms)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
