package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// DefaultUserAgent is sent on every probe unless overridden.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 6.1) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/41.0.2228.0 Safari/537.36"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `envconfig:"SERVER"`
	Resolver  ResolverConfig  `envconfig:"RESOLVER"`
	Log       LogConfig       `envconfig:"LOG"`
	RateLimit RateLimitConfig `envconfig:"RATE_LIMIT"`
	CORS      CORSConfig      `envconfig:"CORS"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr              string        `envconfig:"ADDR" default:":8080" validate:"required"`
	ReadHeaderTimeout time.Duration `envconfig:"READ_HEADER_TIMEOUT" default:"10s" validate:"gt=0"`
	ShutdownTimeout   time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s" validate:"gt=0"`
}

// ResolverConfig holds chain walker and probe settings.
type ResolverConfig struct {
	TimeoutMS     int    `envconfig:"TIMEOUT_MS" default:"5000" validate:"gt=0"`
	MaxRedirects  int    `envconfig:"MAX_REDIRECTS" default:"10" validate:"gte=0"`
	UserAgent     string `envconfig:"USER_AGENT" default:"Mozilla/5.0 (Windows NT 6.1) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/41.0.2228.0 Safari/537.36" validate:"required"`
	Proxy         string `envconfig:"PROXY" validate:"omitempty,url"`
	Insecure      bool   `envconfig:"INSECURE" default:"false"`
	BlockInternal bool   `envconfig:"BLOCK_INTERNAL" default:"false"`
}

// Timeout is the per-probe header deadline.
func (r ResolverConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutMS) * time.Millisecond
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Development bool   `envconfig:"DEV" default:"false"`
	File        string `envconfig:"FILE"`
	MaxSizeMB   int    `envconfig:"MAX_SIZE_MB" default:"100" validate:"gt=0"`
	MaxBackups  int    `envconfig:"MAX_BACKUPS" default:"3" validate:"gte=0"`
	MaxAgeDays  int    `envconfig:"MAX_AGE_DAYS" default:"28" validate:"gte=0"`
}

// RateLimitConfig holds API rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64 `envconfig:"RPS" default:"20" validate:"gt=0"`
	Burst             int     `envconfig:"BURST" default:"40" validate:"gt=0"`
	Enabled           bool    `envconfig:"ENABLED" default:"true"`
}

// CORSConfig holds CORS configuration. No origins means any origin.
type CORSConfig struct {
	Enabled        bool     `envconfig:"ENABLED" default:"true"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" validate:"dive,url"`
}

// Load loads configuration from environment variables and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 10 * time.Second,
			ShutdownTimeout:   15 * time.Second,
		},
		Resolver: ResolverConfig{
			TimeoutMS:    5000,
			MaxRedirects: 10,
			UserAgent:    DefaultUserAgent,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
			Enabled:           true,
		},
		CORS: CORSConfig{
			Enabled: true,
		},
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	validate := validator.New()
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("config validation: %w", err)
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msg := fmt.Sprintf("validation failed for '%s': rule '%s'", strings.TrimPrefix(e.Namespace(), "Config."), e.Tag())
		if e.Param() != "" {
			msg += fmt.Sprintf(" (expected: %s)", e.Param())
		}
		if e.Value() != nil && e.Value() != "" {
			msg += fmt.Sprintf(", actual: '%v'", e.Value())
		}
		msgs = append(msgs, msg)
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
