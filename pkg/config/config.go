// Package config loads stagegraph settings from defaults, an optional TOML
// file, STAGEGRAPH_* environment variables and command-line flags, in
// increasing priority.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/matzehuels/stagegraph/pkg/cache"
	"github.com/matzehuels/stagegraph/pkg/layout"
	"github.com/matzehuels/stagegraph/pkg/measure"
)

const (
	// AppName names the config file, the env prefix and the cache directory.
	AppName = "stagegraph"

	// DefaultFile is read from the working directory when no path is given.
	DefaultFile = AppName + ".toml"

	envPrefix = "STAGEGRAPH_"
)

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config holds all configuration for the application.
type Config struct {
	Width           float64 `koanf:"width"`
	NodeRadius      float64 `koanf:"node-radius"`
	RowPadding      float64 `koanf:"row-padding"`
	VerticalPadding float64 `koanf:"vertical-padding"`
	MinLabelWidth   float64 `koanf:"min-label-width"`
	MinGraphHeight  float64 `koanf:"min-graph-height"`

	Measure MeasureConfig `koanf:"measure"`
	Cache   CacheConfig   `koanf:"cache"`
	Serve   ServeConfig   `koanf:"serve"`
}

// MeasureConfig sizes the label estimator.
type MeasureConfig struct {
	CharWidth  float64 `koanf:"char-width"`
	LineHeight float64 `koanf:"line-height"`
}

// CacheConfig selects and configures the layout cache.
type CacheConfig struct {
	Backend   string        `koanf:"backend"`
	Dir       string        `koanf:"dir"`
	RedisAddr string        `koanf:"redis-addr"`
	Prefix    string        `koanf:"prefix"`
	TTL       time.Duration `koanf:"ttl"`
}

// ServeConfig configures the HTTP API.
type ServeConfig struct {
	Addr string `koanf:"addr"`
}

// flagKeys maps flag names to nested config keys. Other flags map to the
// key of the same name.
var flagKeys = map[string]string{
	"char-width":    "measure.char-width",
	"line-height":   "measure.line-height",
	"cache-backend": "cache.backend",
	"cache-dir":     "cache.dir",
	"redis-addr":    "cache.redis-addr",
	"cache-prefix":  "cache.prefix",
	"cache-ttl":     "cache.ttl",
	"addr":          "serve.addr",
}

func defaults() map[string]any {
	est := measure.NewEstimator(measure.DefaultFontSize)
	return map[string]any{
		"width":            layout.DefaultWidth,
		"node-radius":      layout.DefaultNodeRadius,
		"row-padding":      layout.DefaultRowPadding,
		"vertical-padding": layout.DefaultVerticalPadding,
		"min-label-width":  layout.DefaultMinLabelWidth,
		"min-graph-height": layout.DefaultMinGraphHeight,
		"measure": map[string]any{
			"char-width":  est.CharWidth,
			"line-height": est.LineHeight,
		},
		"cache": map[string]any{
			"backend":    BackendFile,
			"dir":        "",
			"redis-addr": "",
			"prefix":     "",
			"ttl":        cache.TTLLayout.String(),
		},
		"serve": map[string]any{
			"addr": ":8080",
		},
	}
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
//
// An empty path reads DefaultFile if it exists; an explicit path must exist.
func Load(f *pflag.FlagSet, path string) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(makeMapProvider(defaults()), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// 3. Environment variables: STAGEGRAPH_CACHE__REDIS_ADDR -> cache.redis-addr
	if err := k.Load(env.Provider(envPrefix, ".", EnvKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.ProviderWithFlag(f, ".", k, flagKey(f)), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// EnvKey maps an environment variable name to a config key: the prefix is
// dropped, "__" separates sections and "_" becomes "-".
func EnvKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	parts := strings.Split(s, "__")
	for i, p := range parts {
		parts[i] = strings.ReplaceAll(p, "_", "-")
	}
	return strings.Join(parts, ".")
}

func flagKey(fs *pflag.FlagSet) func(*pflag.Flag) (string, any) {
	return func(f *pflag.Flag) (string, any) {
		key := f.Name
		if k, ok := flagKeys[f.Name]; ok {
			key = k
		}
		return key, posflag.FlagVal(fs, f)
	}
}

// Validate checks the cache settings. Geometry values are checked by
// [layout.Options.ValidateAndSetDefaults].
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case BackendFile, BackendNone:
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache backend redis requires cache.redis-addr")
		}
	default:
		return fmt.Errorf("invalid cache backend %q (must be one of: file, redis, none)", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	return nil
}

// LayoutOptions returns the geometry options.
func (c *Config) LayoutOptions() layout.Options {
	return layout.Options{
		Width:           c.Width,
		NodeRadius:      c.NodeRadius,
		RowPadding:      c.RowPadding,
		VerticalPadding: c.VerticalPadding,
		MinLabelWidth:   c.MinLabelWidth,
		MinGraphHeight:  c.MinGraphHeight,
	}
}

// CacheDir returns the file cache directory: the configured one, else
// $XDG_CACHE_HOME/stagegraph, else ~/.cache/stagegraph.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}

// OpenCache opens the configured cache backend. A configured prefix is
// applied by the keyer returned alongside.
func (c *Config) OpenCache() (cache.Cache, cache.Keyer, error) {
	var keyer cache.Keyer = cache.NewDefaultKeyer()
	if c.Cache.Prefix != "" {
		keyer = cache.NewScopedKeyer(nil, c.Cache.Prefix)
	}
	switch c.Cache.Backend {
	case BackendNone:
		return cache.NewNullCache(), keyer, nil
	case BackendRedis:
		rc, err := cache.NewRedisCache(cache.RedisOptions{Addr: c.Cache.RedisAddr, Prefix: AppName + ":"})
		if err != nil {
			return nil, nil, err
		}
		return rc, keyer, nil
	default:
		dir, err := c.CacheDir()
		if err != nil {
			return cache.NewNullCache(), keyer, nil
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, nil, err
		}
		return fc, keyer, nil
	}
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]any
}

func makeMapProvider(m map[string]any) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]any, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
