package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/tilesmith/pkg/cache"
	"github.com/matzehuels/tilesmith/pkg/errors"
	"github.com/matzehuels/tilesmith/pkg/optimize"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default() invalid: %v", err)
	}
	if cfg.Layers != "svg" || cfg.Recipes != "recipes.toml" || cfg.Out != "out" {
		t.Errorf("Default() = %+v", cfg)
	}
	if cfg.Cache.Backend != BackendFile {
		t.Errorf("backend = %q, want file", cfg.Cache.Backend)
	}
}

func TestLoad(t *testing.T) {
	path := writeFile(t, FileName, `
layers = "art/layers"
workers = 3
metadata = "art/meta"

[cache]
backend = "redis"
redis_url = "redis://localhost:6379/1"
ttl = "90m"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Layers != "art/layers" || cfg.Workers != 3 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Recipes != "recipes.toml" {
		t.Errorf("Recipes = %q, want default kept", cfg.Recipes)
	}
	if time.Duration(cfg.Cache.TTL) != 90*time.Minute {
		t.Errorf("TTL = %v", time.Duration(cfg.Cache.TTL))
	}

	opts := cfg.Options(128)
	if opts.Resolution != 128 || opts.Layers != "art/layers" || opts.Metadata != "art/meta" || opts.CacheTTL != 90*time.Minute {
		t.Errorf("Options(128) = %+v", opts)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", `layers = `},
		{"unknown key", `colour = "red"`},
		{"negative workers", `workers = -1`},
		{"unknown backend", "[cache]\nbackend = \"memcached\""},
		{"redis without url", "[cache]\nbackend = \"redis\""},
		{"bad ttl", "[cache]\nttl = \"soon\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, FileName, tt.content))
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Load() error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestFind(t *testing.T) {
	missing := filepath.Join(t.TempDir(), FileName)

	cfg, err := Find(missing, false)
	if err != nil {
		t.Fatalf("Find(optional) error = %v", err)
	}
	if cfg != Default() {
		t.Errorf("Find(optional) = %+v, want defaults", cfg)
	}

	if _, err := Find(missing, true); err == nil {
		t.Error("Find(required) should fail for a missing file")
	}
}

func TestUserCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	dir, err := UserCacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join("/tmp/xdg", AppName) {
		t.Errorf("UserCacheDir() = %q", dir)
	}

	cfg := Default()
	cfg.Cache.Dir = "/var/cache/tiles"
	if dir, _ := cfg.CacheDir(); dir != "/var/cache/tiles" {
		t.Errorf("CacheDir() = %q", dir)
	}
}

func TestOpenCache(t *testing.T) {
	ctx := context.Background()
	opt := optimize.Default()

	cfg := Default()
	cfg.Cache.Backend = BackendNone
	c, err := cfg.OpenCache(ctx, opt)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*cache.NullCache); !ok {
		t.Errorf("none backend = %T, want *cache.NullCache", c)
	}

	cfg.Cache.Backend = BackendFile
	cfg.Cache.Dir = t.TempDir()
	c, err = cfg.OpenCache(ctx, opt)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if err := c.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Errorf("Get() = %q, %v, %v", data, hit, err)
	}
}

func TestOptimizer(t *testing.T) {
	cfg := Default()
	opt, err := cfg.Optimizer()
	if err != nil || opt == nil {
		t.Fatalf("Optimizer() = %v, %v", opt, err)
	}

	cfg.OptimizerConfig = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := cfg.Optimizer(); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("Optimizer() error = %v, want INVALID_CONFIG", err)
	}
}
