// Package config loads and validates engine configuration from YAML files
// with environment-variable overrides. It provides typed structs for the
// index, search, cache, logging, and metrics subsystems.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"
)

// Config is the top-level engine configuration.
type Config struct {
	Index   IndexConfig   `yaml:"index"`
	Search  SearchConfig  `yaml:"search"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// IndexConfig controls where the serialized index lives and how eagerly
// in-memory mutations are flushed to it.
type IndexConfig struct {
	Path          string        `yaml:"path"`
	FlushDebounce time.Duration `yaml:"flushDebounce"`
	FlushRetries  int           `yaml:"flushRetries"`
}

// SearchConfig holds the default query execution settings. MinResults is the
// candidate-count threshold below which the query engine widens its term
// lookup from keywords to all query tokens.
type SearchConfig struct {
	MaxResults       int  `yaml:"maxResults"`
	MinResults       int  `yaml:"minResults"`
	IncludeSnippets  bool `yaml:"includeSnippets"`
	HighlightMatches bool `yaml:"highlightMatches"`
	Phrase           bool `yaml:"phrase"`
	Fuzzy            bool `yaml:"fuzzy"`
}

// CacheConfig controls the in-process query result cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls Prometheus collector registration. Registerer is
// set programmatically, never from YAML; nil means each engine registers
// into its own private registry.
type MetricsConfig struct {
	Enabled    bool                  `yaml:"enabled"`
	Registerer prometheus.Registerer `yaml:"-"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Default returns a Config with the documented defaults.
func Default() *Config {
	return &Config{
		Index: IndexConfig{
			Path:          "data/index.sdx",
			FlushDebounce: 2 * time.Second,
			FlushRetries:  3,
		},
		Search: SearchConfig{
			MaxResults:       50,
			MinResults:       5,
			IncludeSnippets:  true,
			HighlightMatches: true,
			Phrase:           true,
			Fuzzy:            false,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     60 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// applyEnvOverrides reads SDX_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SDX_INDEX_PATH"); v != "" {
		cfg.Index.Path = v
	}
	if v := os.Getenv("SDX_INDEX_FLUSH_DEBOUNCE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Index.FlushDebounce = d
		}
	}
	if v := os.Getenv("SDX_SEARCH_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.MaxResults = n
		}
	}
	if v := os.Getenv("SDX_SEARCH_MIN_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.MinResults = n
		}
	}
	if v := os.Getenv("SDX_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TTL = d
		}
	}
	if v := os.Getenv("SDX_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SDX_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("SDX_METRICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Metrics.Enabled = b
		}
	}
}
