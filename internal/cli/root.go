package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/tilesmith/pkg/config"
	"github.com/matzehuels/tilesmith/pkg/output"
	"github.com/matzehuels/tilesmith/pkg/pipeline"
)

// projectFlags holds the flags that override tilesmith.toml.
type projectFlags struct {
	config          string // project file; defaults to tilesmith.toml when present
	layers          string // layer store directory
	recipes         string // recipe manifest
	optimizerConfig string // YAML or JSON optimizer configuration

	out      string // parent of the run directories
	metadata string // files copied into every run directory
	workers  int    // worker pool size
	cache    string // document cache backend
	redisURL string // redis backend address
}

// registerProject adds the flags shared by every command.
func (f *projectFlags) registerProject(fs *pflag.FlagSet) {
	fs.StringVar(&f.config, "config", "", "project file (default "+config.FileName+" if present)")
	fs.StringVar(&f.layers, "layers", pipeline.DefaultLayers, "layer store directory")
	fs.StringVar(&f.recipes, "recipes", pipeline.DefaultRecipes, "recipe manifest")
	fs.StringVar(&f.optimizerConfig, "optimizer-config", "", "optimizer configuration (.yaml or .json)")
}

// registerRun adds the flags of the batch command.
func (f *projectFlags) registerRun(fs *pflag.FlagSet) {
	fs.StringVar(&f.out, "out", pipeline.DefaultOut, "output directory")
	fs.StringVar(&f.metadata, "metadata", "", "directory copied verbatim into the run directory")
	fs.IntVarP(&f.workers, "workers", "j", 0, "parallel render workers (default GOMAXPROCS)")
	fs.StringVar(&f.cache, "cache", config.BackendFile, "document cache: none, file or redis")
	fs.StringVar(&f.redisURL, "redis-url", "", "redis address for --cache redis (redis://host:port/db)")
}

// loadConfig reads the project file and applies every flag the user set.
func (c *CLI) loadConfig(cmd *cobra.Command) (config.Config, error) {
	f := &c.flags
	fs := cmd.Flags()

	path := f.config
	if path == "" {
		path = config.FileName
	}
	cfg, err := config.Find(path, fs.Changed("config"))
	if err != nil {
		return config.Config{}, err
	}
	if path != config.FileName || fs.Changed("config") {
		c.Logger.Debug("loaded project file", "path", path)
	}

	if fs.Changed("layers") {
		cfg.Layers = f.layers
	}
	if fs.Changed("recipes") {
		cfg.Recipes = f.recipes
	}
	if fs.Changed("optimizer-config") {
		cfg.OptimizerConfig = f.optimizerConfig
	}
	if fs.Changed("out") {
		cfg.Out = f.out
	}
	if fs.Changed("metadata") {
		cfg.Metadata = f.metadata
	}
	if fs.Changed("workers") {
		cfg.Workers = f.workers
	}
	if fs.Changed("cache") {
		cfg.Cache.Backend = f.cache
	}
	if fs.Changed("redis-url") {
		cfg.Cache.RedisURL = f.redisURL
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// runBatch renders every recipe at the resolution in arg.
func (c *CLI) runBatch(cmd *cobra.Command, arg string) error {
	// The resolution is checked before anything is read from disk.
	n, err := pipeline.ParseResolution(arg)
	if err != nil {
		return err
	}
	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	runner, closeCache, err := c.newRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	stop := c.startProgress(ctx)
	report, err := runner.Run(ctx, cfg.Options(n))
	stop()
	if err != nil {
		return err
	}
	printReport(report)
	return nil
}

// printReport prints the outcome of a finished run.
func printReport(r *pipeline.Report) {
	total := r.Succeeded() + r.Failed()
	if r.Failed() == 0 {
		printSuccess("Rendered %d textures at %dx%d", r.Succeeded(), r.Resolution, r.Resolution)
	} else {
		printWarning("Rendered %d of %d textures at %dx%d", r.Succeeded(), total, r.Resolution, r.Resolution)
		for _, o := range r.Outcomes() {
			if o.Err != nil {
				printDetail("%s", output.Line(o.Recipe, o.Err))
			}
		}
	}
	if r.Metadata > 0 {
		printInfo("Copied %d metadata files", r.Metadata)
	}
	printStats(r)
	printFile(filepath.Join(r.Dir, output.LogFile))
}
