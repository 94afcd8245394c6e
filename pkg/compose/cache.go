package compose

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/tilesmith/pkg/cache"
	"github.com/matzehuels/tilesmith/pkg/observability"
	"github.com/matzehuels/tilesmith/pkg/optimize"
	"github.com/matzehuels/tilesmith/pkg/recipe"
)

// Cache key types reported to observability hooks.
const (
	keyTypeDocument = "document"
	keyTypeBacking  = "backing"
)

// Stats counts cache activity since creation.
type Stats struct {
	Hits   int64 // requests served by an existing or in-flight document
	Misses int64 // requests that constructed a document
	Builds int64 // documents composed and optimized
	Loads  int64 // documents read from the backing store
}

// Cache memoizes composed documents by fingerprint with at most one
// construction per fingerprint, even under concurrent demand.
//
// An optional backing [cache.Cache] persists documents between runs. Its
// failures are logged and otherwise ignored.
type Cache struct {
	// TTL is the expiry of entries written to the backing store.
	TTL time.Duration

	opt     *optimize.Optimizer
	backing cache.Cache
	logger  *log.Logger

	mu    sync.Mutex
	docs  map[Fingerprint]*Document
	group singleflight.Group

	hits, misses, builds, loads atomic.Int64
}

// NewCache creates a document cache. A nil optimizer uses
// optimize.Default(); a nil backing store uses cache.NullCache.
func NewCache(opt *optimize.Optimizer, backing cache.Cache, logger *log.Logger) *Cache {
	if opt == nil {
		opt = optimize.Default()
	}
	if backing == nil {
		backing = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Cache{
		opt:     opt,
		backing: backing,
		logger:  logger,
		docs:    make(map[Fingerprint]*Document),
	}
}

// Get returns the document for res, constructing it on first use. hit is
// false only for the caller that performed the construction.
func (c *Cache) Get(ctx context.Context, res *recipe.Resolved) (doc *Document, hit bool, err error) {
	fp := FingerprintOf(res)
	if d := c.lookup(fp); d != nil {
		c.recordHit(ctx)
		return d, true, nil
	}

	built := false
	v, err, _ := c.group.Do(fp.String(), func() (any, error) {
		if d := c.lookup(fp); d != nil {
			return d, nil
		}
		built = true
		d, err := c.build(ctx, fp, res)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.docs[fp] = d
		c.mu.Unlock()
		return d, nil
	})
	if err != nil {
		return nil, false, err
	}
	if built {
		c.misses.Add(1)
		observability.Cache().OnCacheMiss(ctx, keyTypeDocument)
	} else {
		c.recordHit(ctx)
	}
	return v.(*Document), !built, nil
}

// Len returns the number of documents held in memory.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.docs)
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Builds: c.builds.Load(),
		Loads:  c.loads.Load(),
	}
}

func (c *Cache) lookup(fp Fingerprint) *Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.docs[fp]
}

func (c *Cache) recordHit(ctx context.Context) {
	c.hits.Add(1)
	observability.Cache().OnCacheHit(ctx, keyTypeDocument)
}

func (c *Cache) build(ctx context.Context, fp Fingerprint, res *recipe.Resolved) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := cache.DocumentKey(contentKey(fp, res))
	data, ok, err := c.backing.Get(ctx, key)
	switch {
	case err != nil:
		c.logger.Warn("document cache read failed", "fingerprint", fp.Short(), "err", err)
	case ok && len(data) > 0:
		c.loads.Add(1)
		observability.Cache().OnCacheHit(ctx, keyTypeBacking)
		return &Document{Fingerprint: fp, Source: data}, nil
	default:
		observability.Cache().OnCacheMiss(ctx, keyTypeBacking)
	}

	src := c.opt.Run(Compose(res))
	c.builds.Add(1)
	c.logger.Debug("composed document", "fingerprint", fp.Short(), "recipe", res.Recipe.Name, "bytes", len(src))

	if err := c.backing.Set(ctx, key, src, c.TTL); err != nil {
		c.logger.Warn("document cache write failed", "fingerprint", fp.Short(), "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, keyTypeBacking, len(src))
	}
	return &Document{Fingerprint: fp, Source: src}, nil
}
