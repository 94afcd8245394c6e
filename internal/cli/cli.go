package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/tilesmith/pkg/buildinfo"
	"github.com/matzehuels/tilesmith/pkg/cache"
	"github.com/matzehuels/tilesmith/pkg/config"
	"github.com/matzehuels/tilesmith/pkg/optimize"
	"github.com/matzehuels/tilesmith/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	flags projectFlags
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
// The root command itself runs a batch at the resolution given as its only
// argument.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "tilesmith <resolution>",
		Short: "Tilesmith renders layered SVG recipes into PNG textures",
		Long: `Tilesmith composes the vector layers named by each recipe, optimizes the
combined document and rasterizes it into a square PNG texture.

The resolution must be a power of two between 32 and 4096. Textures are
written to <out>/<N>x<N>/ together with a log.txt listing every recipe's
outcome.`,
		Example:      "  tilesmith 64\n  tilesmith 256 --layers art/svg --recipes art/recipes.toml --workers 4",
		Version:      buildinfo.Version,
		Args:         cobra.ExactArgs(1),
		ValidArgs:    resolutionArgs(),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBatch(cmd, args[0])
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	c.flags.registerProject(root.PersistentFlags())
	c.flags.registerRun(root.Flags())

	// Register all subcommands
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.optimizeCommand())
	root.AddCommand(c.cacheCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. The returned close
// function releases the persistent cache.
func (c *CLI) newRunner(ctx context.Context, cfg config.Config) (*pipeline.Runner, func(), error) {
	opt, err := cfg.Optimizer()
	if err != nil {
		return nil, nil, err
	}
	backing, err := cfg.OpenCache(ctx, opt)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		c.Logger.Warn("document cache unavailable, continuing without it", "backend", cfg.Cache.Backend, "err", err)
		backing = cache.NewNullCache()
	}
	c.Logger.Debug("document cache", "backend", cfg.Cache.Backend, "plugins", len(opt.Config().Plugins), "multipass", opt.Config().Multipass)
	closeFn := func() {
		if err := backing.Close(); err != nil {
			c.Logger.Warn("close cache", "err", err)
		}
	}
	return pipeline.NewRunner(backing, opt, c.Logger), closeFn, nil
}

// optimizer builds the optimizer for commands that run without a cache.
func (c *CLI) optimizer(cmd *cobra.Command) (*optimize.Optimizer, error) {
	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	opt, err := cfg.Optimizer()
	if err != nil {
		return nil, fmt.Errorf("optimizer: %w", err)
	}
	return opt, nil
}

// resolutionArgs lists the accepted resolutions for shell completion.
func resolutionArgs() []string {
	var out []string
	for _, n := range pipeline.Resolutions() {
		out = append(out, strconv.Itoa(n))
	}
	return out
}
