package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"statseries/internal/series"
)

const (
	defaultDatabase        = "statseries.db"
	defaultProvider        = "file"
	defaultSourceDir       = "data/datasets"
	defaultCollation       = "ro"
	defaultRateLimitPerSec = 5
	defaultTimeoutSeconds  = 20
	defaultCacheSize       = 16
)

type Config struct {
	Database  string            `yaml:"database"`
	Provider  string            `yaml:"provider"`
	Source    SourceConfig      `yaml:"source"`
	Totals    series.TotalRules `yaml:"totals"`
	Collation string            `yaml:"collation"`
	CacheSize int               `yaml:"cache_size"`
}

// SourceConfig covers both fetch providers; each one reads the fields it needs.
type SourceConfig struct {
	Dir             string `yaml:"dir"`
	Endpoint        string `yaml:"endpoint"`
	APIKey          string `yaml:"api_key"`
	RateLimitPerSec int    `yaml:"rate_limit_per_sec"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
}

func Default() Config {
	return Config{
		Database:  defaultDatabase,
		Provider:  defaultProvider,
		Source:    SourceConfig{Dir: defaultSourceDir, RateLimitPerSec: defaultRateLimitPerSec, TimeoutSeconds: defaultTimeoutSeconds},
		Totals:    series.DefaultTotalRules(),
		Collation: defaultCollation,
		CacheSize: defaultCacheSize,
	}
}

// Load reads a YAML file over the defaults, then applies environment overrides.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) ApplyEnv() {
	c.Database = getenv("STATSERIES_DB", c.Database)
	c.Provider = getenv("STATSERIES_PROVIDER", c.Provider)
	c.Source.Dir = getenv("STATSERIES_SOURCE_DIR", c.Source.Dir)
	c.Source.Endpoint = getenv("STATSERIES_ENDPOINT", c.Source.Endpoint)
	c.Source.APIKey = getenv("STATSERIES_API_KEY", c.Source.APIKey)
	c.Source.RateLimitPerSec = getenvInt("STATSERIES_RATE_LIMIT_PER_SEC", c.Source.RateLimitPerSec)
	c.Source.TimeoutSeconds = getenvInt("STATSERIES_TIMEOUT_SECONDS", c.Source.TimeoutSeconds)
	c.Collation = getenv("STATSERIES_COLLATION", c.Collation)
	c.CacheSize = getenvInt("STATSERIES_CACHE_SIZE", c.CacheSize)
}

func (c Config) Validate() error {
	if _, err := language.Parse(c.Collation); err != nil {
		return fmt.Errorf("config: invalid collation %q: %w", c.Collation, err)
	}
	if c.Totals.IsZero() {
		return errors.New("config: totals must name at least one rule")
	}
	if c.CacheSize < 0 {
		return errors.New("config: cache_size must not be negative")
	}
	return nil
}

// CatalogOptions turns the configured rules and collation into engine options.
func (c Config) CatalogOptions() []series.CatalogOption {
	opts := []series.CatalogOption{series.WithTotalRules(c.Totals)}
	if tag, err := language.Parse(c.Collation); err == nil {
		opts = append(opts, series.WithCollationLanguage(tag))
	}
	return opts
}

func (c Config) Timeout() time.Duration {
	return time.Duration(c.Source.TimeoutSeconds) * time.Second
}

func getenv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
