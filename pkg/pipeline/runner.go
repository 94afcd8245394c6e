package pipeline

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/tilesmith/pkg/cache"
	"github.com/matzehuels/tilesmith/pkg/compose"
	"github.com/matzehuels/tilesmith/pkg/depgraph"
	"github.com/matzehuels/tilesmith/pkg/errors"
	"github.com/matzehuels/tilesmith/pkg/layers"
	"github.com/matzehuels/tilesmith/pkg/observability"
	"github.com/matzehuels/tilesmith/pkg/optimize"
	"github.com/matzehuels/tilesmith/pkg/output"
	"github.com/matzehuels/tilesmith/pkg/raster"
	"github.com/matzehuels/tilesmith/pkg/recipe"
)

// Runner executes batch runs.
//
// The Runner is stateless except for its persistent cache, optimizer and
// logger. Every run builds its own layer store, document cache and output
// writer, so one Runner can serve several runs at different resolutions.
type Runner struct {
	Cache     cache.Cache
	Optimizer *optimize.Optimizer
	Logger    *log.Logger
}

// NewRunner creates a runner.
// If c is nil, a NullCache is used (no persistence between runs).
// If opt is nil, the default optimizer configuration is used.
func NewRunner(c cache.Cache, opt *optimize.Optimizer, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if opt == nil {
		opt = optimize.Default()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:     c,
		Optimizer: opt,
		Logger:    logger,
	}
}

// Run executes one batch run. The resolution is validated before any input
// is read. A nil error means the run reached Done; per-recipe failures are
// only visible in the report. Fatal errors return the report in state
// Aborted, except for option errors, which return no report.
func (r *Runner) Run(ctx context.Context, opts Options) (*Report, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	start := time.Now()
	m := &machine{state: Initializing, logger: r.Logger}
	report := &Report{Resolution: opts.Resolution, State: Initializing}
	abort := func(err error) (*Report, error) {
		m.to(ctx, Aborted)
		report.State = Aborted
		report.Duration = time.Since(start)
		r.Logger.Debug("run aborted", "err", err)
		observability.Pipeline().OnRunComplete(ctx, opts.Resolution, report.Succeeded(), report.Failed(), report.Duration, err)
		return report, err
	}

	// Initializing: inputs first, so a broken manifest leaves no output
	// directory behind.
	loadStart := time.Now()
	store, err := layers.Load(opts.Layers)
	if err != nil {
		return abort(err)
	}
	set, err := recipe.LoadManifest(opts.Recipes)
	if err != nil {
		return abort(err)
	}
	if opts.Metadata != "" {
		if info, err := os.Stat(opts.Metadata); err != nil {
			return abort(&errors.ManifestLoadError{Path: opts.Metadata, Cause: err})
		} else if !info.IsDir() {
			return abort(errors.ManifestLoad(opts.Metadata, "metadata is not a directory"))
		}
	}
	r.Logger.Info("loaded inputs",
		"layers", store.Len(),
		"recipes", set.Len(),
		"duration", time.Since(loadStart))
	observability.Pipeline().OnRunStart(ctx, opts.Resolution, set.Len())

	w, err := output.New(RunDir(opts.Out, opts.Resolution))
	if err != nil {
		return abort(err)
	}
	report.RunID = w.RunID()
	report.Dir = w.Dir()
	if opts.Metadata != "" {
		n, err := w.CopyMetadata(ctx, opts.Metadata)
		report.Metadata = n
		if err != nil {
			return abort(err)
		}
		r.Logger.Debug("copied metadata", "files", n, "from", opts.Metadata)
	}

	// Resolving
	m.to(ctx, Resolving)
	graph := depgraph.Build(set, store)
	if unused := graph.Unused(); len(unused) > 0 {
		r.Logger.Debug("unused layers", "count", len(unused), "layers", unused)
	}
	resolver := recipe.NewResolver(store)
	var jobs []*recipe.Resolved
	for _, name := range schedule(graph, set) {
		rc, _ := set.Get(name)
		res, err := resolver.Resolve(rc)
		if err != nil {
			r.finish(ctx, report, w, Outcome{Recipe: name, Kind: classify(err), Err: err})
			continue
		}
		jobs = append(jobs, res)
	}

	// Rendering
	m.to(ctx, Rendering)
	renderStart := time.Now()
	docs := compose.NewCache(r.Optimizer, r.Cache, r.Logger)
	docs.TTL = opts.CacheTTL

	var g errgroup.Group
	g.SetLimit(opts.Workers)
	for i, res := range jobs {
		if err := ctx.Err(); err != nil {
			for _, rest := range jobs[i:] {
				r.finish(ctx, report, w, Outcome{Recipe: rest.Recipe.Name, Kind: Cancelled, Err: err})
			}
			break
		}
		g.Go(func() error {
			r.finish(ctx, report, w, r.render(ctx, docs, w, res, opts.Resolution))
			return nil
		})
	}
	_ = g.Wait()
	report.Cache = docs.Stats()
	r.Logger.Info("rendered textures",
		"jobs", len(jobs),
		"workers", opts.Workers,
		"duration", time.Since(renderStart))
	r.Logger.Debug("document cache",
		"hits", report.Cache.Hits,
		"misses", report.Cache.Misses,
		"builds", report.Cache.Builds,
		"loads", report.Cache.Loads)

	if err := ctx.Err(); err != nil {
		// The log still records which recipes were cut off.
		if cerr := w.Close(); cerr != nil {
			r.Logger.Warn("write run log", "err", cerr)
		}
		return abort(err)
	}

	// Finalizing
	m.to(ctx, Finalizing)
	if err := w.Close(); err != nil {
		return abort(err)
	}
	m.to(ctx, Done)
	report.State = Done
	report.Duration = time.Since(start)

	r.Logger.Info("run complete",
		"dir", report.Dir,
		"succeeded", report.Succeeded(),
		"failed", report.Failed(),
		"duration", report.Duration)
	observability.Pipeline().OnRunComplete(ctx, opts.Resolution, report.Succeeded(), report.Failed(), report.Duration, nil)
	return report, nil
}

// schedule returns every recipe name, ordered by the sharing graph so that
// recipes of small components render first.
func schedule(g *depgraph.Graph, set *recipe.Set) []string {
	order := g.Schedule()
	seen := make(map[string]bool, len(order))
	for _, name := range order {
		seen[name] = true
	}
	for _, name := range set.Names() {
		if !seen[name] {
			order = append(order, name)
		}
	}
	return order
}

// render runs one job: document, bitmap, file.
func (r *Runner) render(ctx context.Context, docs *compose.Cache, w *output.Writer, res *recipe.Resolved, size int) Outcome {
	start := time.Now()
	o := Outcome{Recipe: res.Recipe.Name, Fingerprint: compose.FingerprintOf(res).String()}
	fail := func(err error) Outcome {
		o.Kind = classify(err)
		o.Err = err
		o.Duration = time.Since(start)
		return o
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	doc, hit, err := docs.Get(ctx, res)
	if err != nil {
		return fail(err)
	}
	o.CacheHit = hit

	bmp, err := raster.Render(doc.Source, size)
	if err != nil {
		return fail(err)
	}
	path, err := w.WriteBitmap(ctx, o.Recipe, bmp)
	if err != nil {
		return fail(err)
	}
	o.Path = path
	o.Kind = Success
	o.Duration = time.Since(start)
	return o
}

// finish records an outcome in the report, the run log and the hooks.
func (r *Runner) finish(ctx context.Context, report *Report, w *output.Writer, o Outcome) {
	report.add(o)
	w.Record(o.Recipe, o.Err)
	observability.Pipeline().OnJobComplete(ctx, o.Recipe, o.Kind.String(), o.Duration)
	switch {
	case o.Err == nil:
	case o.Kind == Cancelled:
		r.Logger.Debug("recipe cancelled", "recipe", o.Recipe)
		return
	case errors.Recoverable(o.Err):
		r.Logger.Warn("recipe failed", "recipe", o.Recipe, "kind", o.Kind, "err", o.Err)
		return
	default:
		// Not attributable to the recipe's content, e.g. a cache backend fault.
		r.Logger.Error("recipe failed", "recipe", o.Recipe, "kind", o.Kind, "err", o.Err)
		return
	}
	r.Logger.Debug("rendered", "recipe", o.Recipe, "path", o.Path, "cached", o.CacheHit, "duration", o.Duration)
}
