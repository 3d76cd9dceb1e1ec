// Package config loads the kite settings from a YAML file and the
// environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/etnz/kite/quote"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "KITE_"

// Config represents the application configuration.
type Config struct {
	Sync    SyncConfig    `yaml:"sync" env:", prefix=SYNC_"`
	Store   StoreConfig   `yaml:"store" env:", prefix=STORE_"`
	Advisor AdvisorConfig `yaml:"advisor" env:", prefix=ADVISOR_"`
	Server  ServerConfig  `yaml:"server" env:", prefix=SERVER_"`
	Log     LogConfig     `yaml:"log" env:", prefix=LOG_"`
}

// SyncConfig holds the price sync settings.
type SyncConfig struct {
	Attempts int           `yaml:"attempts" env:"ATTEMPTS, default=3"`
	Timeout  time.Duration `yaml:"timeout" env:"TIMEOUT, default=30s"`
	Backoff  time.Duration `yaml:"backoff" env:"BACKOFF, default=1500ms"`
	Interval time.Duration `yaml:"interval" env:"INTERVAL, default=5m"`
	Sources  []string      `yaml:"sources" env:"SOURCES, default=twse,tpex"`

	// relay base URLs, empty for the public ones.
	CorsProxy  string `yaml:"cors_proxy" env:"CORS_PROXY"`
	AllOrigins string `yaml:"allorigins" env:"ALLORIGINS"`
}

// StoreConfig holds the persistence settings.
type StoreConfig struct {
	Kind string `yaml:"kind" env:"KIND, default=file"`
	Dir  string `yaml:"dir" env:"DIR, default=.kite"`

	RedisAddr     string `yaml:"redis_addr" env:"REDIS_ADDR, default=localhost:6379"`
	RedisPassword string `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" env:"REDIS_DB, default=0"`
	Prefix        string `yaml:"prefix" env:"PREFIX, default=kite:"`
}

// AdvisorConfig holds the AI advisor settings.
type AdvisorConfig struct {
	APIKey      string  `yaml:"api_key" env:"API_KEY"`
	Model       string  `yaml:"model" env:"MODEL, default=gemini-2.5-flash"`
	Temperature float32 `yaml:"temperature" env:"TEMPERATURE, default=0.6"`
	MaxTokens   int32   `yaml:"max_tokens" env:"MAX_TOKENS, default=800"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Addr              string        `yaml:"addr" env:"ADDR, default=:8080"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" env:"READ_HEADER_TIMEOUT, default=10s"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT, default=10s"`
}

// LogConfig holds the logging settings.
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL, default=info"`
	Format string `yaml:"format" env:"FORMAT, default=text"`
}

// Load reads the optional YAML file at path, with ${VAR} references
// expanded, then applies the KITE_ environment variables found by l on top of
// it. Defaults fill whatever is still unset. A nil l reads the process
// environment.
func Load(ctx context.Context, path string, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
			return nil, fmt.Errorf("parse config yaml: %w", err)
		}
	}
	if l == nil {
		l = envconfig.OsLookuper()
	}
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:           &cfg,
		Lookuper:         envconfig.PrefixLookuper(EnvPrefix, l),
		DefaultOverwrite: true,
	}); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	return &cfg, nil
}

// LoadAndValidate loads the config and validates it.
func LoadAndValidate(ctx context.Context, path string, l envconfig.Lookuper) (*Config, error) {
	cfg, err := Load(ctx, path, l)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Sync.Attempts < 1 || c.Sync.Attempts > quote.MaxAttempts {
		errs = append(errs, fmt.Errorf("sync.attempts must be between 1 and %d, got %d", quote.MaxAttempts, c.Sync.Attempts))
	}
	if c.Sync.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("sync.timeout must be positive, got %v", c.Sync.Timeout))
	}
	if c.Sync.Backoff < 0 {
		errs = append(errs, fmt.Errorf("sync.backoff cannot be negative, got %v", c.Sync.Backoff))
	}
	if c.Sync.Interval <= 0 {
		errs = append(errs, fmt.Errorf("sync.interval must be positive, got %v", c.Sync.Interval))
	}
	if len(c.Sync.Sources) == 0 {
		errs = append(errs, errors.New("sync.sources cannot be empty"))
	}
	for _, id := range c.Sync.Sources {
		if !slices.Contains(knownSources, id) {
			errs = append(errs, fmt.Errorf("sync.sources: unknown source %q", id))
		}
	}
	switch c.Store.Kind {
	case "file":
		if c.Store.Dir == "" {
			errs = append(errs, errors.New("store.dir is required for a file store"))
		}
	case "redis":
		if c.Store.RedisAddr == "" {
			errs = append(errs, errors.New("store.redis_addr is required for a redis store"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.kind must be file or redis, got %q", c.Store.Kind))
	}
	if c.Advisor.Temperature < 0 || c.Advisor.Temperature > 2 {
		errs = append(errs, fmt.Errorf("advisor.temperature must be within [0, 2], got %v", c.Advisor.Temperature))
	}
	if c.Advisor.MaxTokens < 1 {
		errs = append(errs, fmt.Errorf("advisor.max_tokens must be positive, got %d", c.Advisor.MaxTokens))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
