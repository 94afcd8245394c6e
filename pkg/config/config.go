// Package config loads tilesmith.toml, the optional project file that holds
// defaults for the command-line flags.
//
//	layers = "svg"
//	recipes = "recipes.toml"
//	out = "out"
//	workers = 8
//	optimizer_config = "svgo.yaml"
//
//	[cache]
//	backend = "redis"          # none, file or redis
//	redis_url = "redis://localhost:6379/0"
//	ttl = "168h"
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/tilesmith/pkg/cache"
	"github.com/matzehuels/tilesmith/pkg/errors"
	"github.com/matzehuels/tilesmith/pkg/optimize"
	"github.com/matzehuels/tilesmith/pkg/pipeline"
)

const (
	// FileName is the project file looked up in the working directory.
	FileName = "tilesmith.toml"

	// AppName names the cache directory.
	AppName = "tilesmith"
)

// Cache backends.
const (
	BackendNone  = "none"
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Duration is a time.Duration written as a Go duration string.
type Duration time.Duration

// UnmarshalText parses strings like "90m" or "168h".
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats d as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Config holds project defaults. Command-line flags override every field.
type Config struct {
	Layers          string      `toml:"layers"`
	Recipes         string      `toml:"recipes"`
	Out             string      `toml:"out"`
	Workers         int         `toml:"workers"`
	OptimizerConfig string      `toml:"optimizer_config"`
	Metadata        string      `toml:"metadata"` // copied into every run directory
	Cache           CacheConfig `toml:"cache"`
}

// CacheConfig selects the persistent document cache.
type CacheConfig struct {
	Backend  string   `toml:"backend"`
	Dir      string   `toml:"dir"` // file backend; empty uses the user cache directory
	RedisURL string   `toml:"redis_url"`
	TTL      Duration `toml:"ttl"`
}

// Default returns the configuration used when no project file exists.
func Default() Config {
	return Config{
		Layers:  pipeline.DefaultLayers,
		Recipes: pipeline.DefaultRecipes,
		Out:     pipeline.DefaultOut,
		Cache: CacheConfig{
			Backend: BackendFile,
			TTL:     Duration(pipeline.DefaultCacheTTL),
		},
	}
}

// Load reads path on top of Default. Keys missing from the file keep their
// defaults; unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown key %q", path, undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", path)
	}
	return cfg, nil
}

// Find loads path if it exists. When required is false a missing file
// yields Default.
func Find(path string, required bool) (Config, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !required {
			return Default(), nil
		}
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	return Load(path)
}

// Validate checks field ranges. It does not touch the filesystem.
func (c Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	switch c.Cache.Backend {
	case BackendNone, BackendFile:
	case BackendRedis:
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("cache backend %q needs redis_url", BackendRedis)
		}
	default:
		return fmt.Errorf("unknown cache backend %q (want none, file or redis)", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache ttl must not be negative")
	}
	return nil
}

// Options returns run options for resolution n.
func (c Config) Options(n int) pipeline.Options {
	return pipeline.Options{
		Resolution: n,
		Layers:     c.Layers,
		Recipes:    c.Recipes,
		Out:        c.Out,
		Workers:    c.Workers,
		Metadata:   c.Metadata,
		CacheTTL:   time.Duration(c.Cache.TTL),
	}
}

// Optimizer builds the optimizer named by OptimizerConfig, or the default
// one when it is empty.
func (c Config) Optimizer() (*optimize.Optimizer, error) {
	if c.OptimizerConfig == "" {
		return optimize.Default(), nil
	}
	oc, err := optimize.LoadConfig(c.OptimizerConfig)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "optimizer config %s", c.OptimizerConfig)
	}
	return optimize.New(oc)
}

// CacheDir returns the file cache directory: Cache.Dir if set, otherwise
// $XDG_CACHE_HOME/tilesmith or ~/.cache/tilesmith.
func (c Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	return UserCacheDir()
}

// UserCacheDir returns the cache directory using XDG standard (~/.cache/tilesmith/).
func UserCacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}

// OpenCache opens the configured backend. The returned cache is scoped to
// the optimizer fingerprint so that documents produced under different
// optimizer settings never collide.
func (c Config) OpenCache(ctx context.Context, opt *optimize.Optimizer) (cache.Cache, error) {
	var backing cache.Cache
	switch c.Cache.Backend {
	case BackendNone:
		return cache.NewNullCache(), nil
	case BackendFile:
		dir, err := c.CacheDir()
		if err != nil {
			return nil, fmt.Errorf("cache dir: %w", err)
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, err
		}
		backing = fc
	case BackendRedis:
		rc, err := cache.NewRedisCache(ctx, c.Cache.RedisURL)
		if err != nil {
			return nil, err
		}
		backing = rc
	default:
		return nil, fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	return cache.NewScoped(backing, opt.Config().Fingerprint()), nil
}
