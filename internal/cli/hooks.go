package cli

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"

	"github.com/matzehuels/tilesmith/pkg/observability"
)

// logHooks forwards cache and output events to the debug log. Pipeline
// events are logged by the runner itself.
type logHooks struct {
	logger *log.Logger
}

func (h logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "key", keyType)
}

func (h logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "key", keyType)
}

func (h logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "key", keyType, "bytes", size)
}

func (h logHooks) OnWrite(_ context.Context, path string, size int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("write failed", "path", path, "err", err)
		return
	}
	h.logger.Debug("wrote", "path", path, "bytes", size, "duration", d)
}

// RegisterHooks routes observability events to the CLI logger. Called once
// by main after the log level is known; at info level it does nothing.
func (c *CLI) RegisterHooks() {
	if c.Logger.GetLevel() > log.DebugLevel {
		return
	}
	h := logHooks{logger: c.Logger}
	observability.SetCacheHooks(h)
	observability.SetOutputHooks(h)
}

// progressHooks drives a spinner from pipeline events.
type progressHooks struct {
	observability.NoopPipelineHooks
	spinner *Spinner

	mu          sync.Mutex
	total, done int
}

func (h *progressHooks) OnRunStart(_ context.Context, resolution, recipes int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.total = recipes
	h.spinner.Update(fmt.Sprintf("Rendering %d textures at %dx%d...", recipes, resolution, resolution))
}

func (h *progressHooks) OnJobComplete(context.Context, string, string, time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.done++
	h.spinner.Update(fmt.Sprintf("Rendering %d/%d...", h.done, h.total))
}

// startProgress shows a spinner for the duration of a run when stderr is a
// terminal and debug logging is off. The returned function stops it.
func (c *CLI) startProgress(ctx context.Context) func() {
	if c.Logger.GetLevel() <= log.DebugLevel || !isatty.IsTerminal(os.Stderr.Fd()) {
		return func() {}
	}
	s := newSpinnerWithContext(ctx, "Loading layers...")
	observability.SetPipelineHooks(&progressHooks{spinner: s})
	s.Start()
	return func() {
		s.Stop()
		observability.SetPipelineHooks(observability.NoopPipelineHooks{})
	}
}
