// Package config loads the engine configuration from a YAML file with
// environment-variable overrides. The loaded Config is passed explicitly
// into constructors; nothing reads configuration ambiently.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/deckgen/deckgen/pkg/psi"
	"github.com/deckgen/deckgen/pkg/report"
)

// Config is the full engine configuration.
type Config struct {
	Server    ServerConfig        `yaml:"server"`
	PSI       PSIConfig           `yaml:"psi"`
	GreenHost GreenHostConfig     `yaml:"greenhost"`
	Layout    report.LayoutConfig `yaml:"layout"`
	Redis     RedisConfig         `yaml:"redis"`
	Log       LogConfig           `yaml:"log"`

	// Fields overrides the extracted field set. Zero value means the
	// stock field map.
	Fields psi.FieldMap `yaml:"fields"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// PSIConfig configures the measurement client and batch fetcher.
type PSIConfig struct {
	Enabled        bool          `yaml:"enabled"`
	APIKey         string        `yaml:"api_key"`
	Endpoint       string        `yaml:"endpoint"`
	Timeout        time.Duration `yaml:"timeout"`
	CacheTTL       time.Duration `yaml:"cache_ttl"`
	MaxConcurrency int           `yaml:"max_concurrency"`
	BatchTimeout   time.Duration `yaml:"batch_timeout"`
}

// GreenHostConfig configures the green-hosting lookup.
type GreenHostConfig struct {
	Enabled             bool          `yaml:"enabled"`
	Endpoint            string        `yaml:"endpoint"`
	Timeout             time.Duration `yaml:"timeout"`
	CacheTTL            time.Duration `yaml:"cache_ttl"`
	PrefetchConcurrency int           `yaml:"prefetch_concurrency"`
}

// RedisConfig configures the shared cache backend. An empty Addr disables
// redis entirely; caching and the shared quota window then run without it.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute,
		},
		PSI: PSIConfig{
			Enabled:        true,
			Endpoint:       psi.DefaultEndpoint,
			Timeout:        60 * time.Second,
			CacheTTL:       6 * time.Hour,
			MaxConcurrency: 5,
		},
		GreenHost: GreenHostConfig{
			Enabled:             false,
			Timeout:             10 * time.Second,
			CacheTTL:            24 * time.Hour,
			PrefetchConcurrency: 4,
		},
		Layout: report.DefaultLayoutConfig(),
		Log: LogConfig{
			Level: "info",
		},
		Fields: psi.DefaultFieldMap(),
	}
}

// Load builds the configuration: defaults, then the YAML file (when path is
// non-empty), then environment overrides, then validation.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides file values from the environment. Only settings that
// differ per deployment are exposed this way.
func (c *Config) applyEnv() {
	if v := os.Getenv("DECKGEN_SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("DECKGEN_PSI_API_KEY"); v != "" {
		c.PSI.APIKey = v
	}
	if v := os.Getenv("DECKGEN_PSI_ENDPOINT"); v != "" {
		c.PSI.Endpoint = v
	}
	if v := os.Getenv("DECKGEN_GREENHOST_ENDPOINT"); v != "" {
		c.GreenHost.Endpoint = v
	}
	if v := os.Getenv("DECKGEN_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("DECKGEN_REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("DECKGEN_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = db
		}
	}
	if v := os.Getenv("DECKGEN_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	if c.PSI.Enabled && c.PSI.APIKey == "" {
		return fmt.Errorf("psi.api_key is required when measurement is enabled")
	}
	if c.PSI.MaxConcurrency < 0 {
		return fmt.Errorf("psi.max_concurrency must not be negative")
	}
	if err := c.Layout.Validate(); err != nil {
		return err
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	return nil
}

// FieldMap returns the configured field map, falling back to the stock one
// for any section left empty in the file.
func (c *Config) FieldMap() psi.FieldMap {
	fm := c.Fields
	stock := psi.DefaultFieldMap()
	if len(fm.Categories) == 0 {
		fm.Categories = stock.Categories
	}
	if len(fm.LabMetrics) == 0 {
		fm.LabMetrics = stock.LabMetrics
	}
	if len(fm.FieldMetrics) == 0 {
		fm.FieldMetrics = stock.FieldMetrics
	}
	if len(fm.AssetTypes) == 0 {
		fm.AssetTypes = stock.AssetTypes
	}
	return fm
}
