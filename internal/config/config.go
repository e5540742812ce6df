// Package config handles application configuration from the config file and environment variables
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	appName  = "curry"
	fileName = "config.toml"
	envFile  = "curry.env"
)

// Environment holds the locations curry reads from and writes to
type Environment struct {
	ConfigDir string `env:"CURRY_CONFIG_DIR"`
	CacheDir  string `env:"CURRY_CACHE_DIR"`
}

// LoadEnvironment resolves the config and cache directories. An optional
// curry.env in the config directory is loaded first; it never overrides
// variables that are already set.
func LoadEnvironment() (Environment, error) {
	var e Environment
	if err := env.Parse(&e); err != nil {
		return e, fmt.Errorf("parse environment: %w", err)
	}

	if e.ConfigDir == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return e, fmt.Errorf("locate config directory: %w", err)
		}
		e.ConfigDir = filepath.Join(dir, appName)
	}

	if err := godotenv.Load(filepath.Join(e.ConfigDir, envFile)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return e, fmt.Errorf("load %s: %w", envFile, err)
	}

	// the env file may set the cache directory
	if err := env.Parse(&e); err != nil {
		return e, fmt.Errorf("parse environment: %w", err)
	}

	if e.CacheDir == "" {
		dir, err := os.UserCacheDir()
		if err != nil {
			return e, fmt.Errorf("locate cache directory: %w", err)
		}
		e.CacheDir = filepath.Join(dir, appName)
	}

	return e, nil
}

// ProviderConfig holds per-provider settings
type ProviderConfig struct {
	APIKey string `toml:"api_key,omitempty"`
}

// Config holds all application configuration
type Config struct {
	API            string                    `toml:"api" env:"CURRY_API" env-default:"finance.yahoo.com"`
	CacheTimeout   int64                     `toml:"cache_timeout" env:"CURRY_CACHE_TIMEOUT" env-default:"43200"`
	RequestTimeout int64                     `toml:"request_timeout" env:"CURRY_REQUEST_TIMEOUT" env-default:"10"`
	Providers      map[string]ProviderConfig `toml:"providers,omitempty"`

	path string
}

// Load reads config.toml from dir when it exists, then applies defaults and
// environment overrides
func Load(dir string) (*Config, error) {
	cfg := &Config{path: filepath.Join(dir, fileName)}

	_, err := os.Stat(cfg.path)
	switch {
	case err == nil:
		if err := cleanenv.ReadConfig(cfg.path, cfg); err != nil {
			return nil, fmt.Errorf("read %s: %w", cfg.path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("read environment: %w", err)
		}
	default:
		return nil, fmt.Errorf("stat %s: %w", cfg.path, err)
	}

	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures timeouts are usable
func (c *Config) Validate() error {
	if c.API == "" {
		return fmt.Errorf("api must not be empty")
	}
	if c.CacheTimeout <= 0 {
		return fmt.Errorf("cache_timeout must be positive, got %d", c.CacheTimeout)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %d", c.RequestTimeout)
	}
	return nil
}

// Path returns the config file location
func (c *Config) Path() string {
	return c.path
}

// CacheTTL returns the cache timeout as a duration
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTimeout) * time.Second
}

// HTTPTimeout returns the request timeout as a duration
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// APIKey returns the stored key for a provider, if any
func (c *Config) APIKey(provider string) string {
	return c.Providers[provider].APIKey
}

// Remember records the chosen provider and its key. Empty values are skipped.
func (c *Config) Remember(provider, apiKey string) {
	if provider != "" {
		c.API = provider
	}
	if apiKey != "" {
		if c.Providers == nil {
			c.Providers = make(map[string]ProviderConfig)
		}
		pc := c.Providers[provider]
		pc.APIKey = apiKey
		c.Providers[provider] = pc
	}
}

// Save writes the config file, creating its directory if needed
func (c *Config) Save() error {
	if c.path == "" {
		return fmt.Errorf("config path not set")
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	f, err := os.OpenFile(c.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("open %s: %w", c.path, err)
	}

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode config: %w", err)
	}
	return f.Close()
}
