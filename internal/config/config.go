// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"
)

// Storage backends accepted by STORAGE_BACKEND.
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// Static errors for configuration validation.
var (
	// ErrServiceURLRequired is returned when SERVICE_URL is not set.
	ErrServiceURLRequired = errors.New("config: SERVICE_URL is required")
	// ErrS3ConfigIncomplete is returned when the s3 backend is selected without bucket and region.
	ErrS3ConfigIncomplete = errors.New("config: S3_BUCKET and S3_REGION are required for the s3 storage backend")
	// ErrInvalidConfig is returned when a value fails validation.
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port            int      `env:"PORT, default=8080" json:"port" validate:"min=1,max=65535"`
	AllowedOrigins  []string `env:"ALLOWED_ORIGINS, default=*" json:"allowed_origins"`
	MaxPromptLength int      `env:"MAX_PROMPT_LENGTH, default=4000" json:"max_prompt_length" validate:"min=1"`

	// Generation service settings
	ServiceURL     string        `env:"SERVICE_URL, required" json:"service_url" validate:"required,url"`
	ServiceAPIKey  string        `env:"SERVICE_API_KEY" json:"-"` // Masked in JSON
	ServiceTimeout time.Duration `env:"SERVICE_TIMEOUT, default=10m" json:"service_timeout" validate:"min=0"`
	MaxVideoBytes  int64         `env:"MAX_VIDEO_BYTES, default=268435456" json:"max_video_bytes" validate:"min=1"`

	// Storage settings
	StorageBackend string `env:"STORAGE_BACKEND, default=local" json:"storage_backend" validate:"oneof=local s3"`
	TempDir        string `env:"TEMP_DIR, default=/tmp/animgen" json:"temp_dir"`

	// S3 settings, used when StorageBackend is "s3"
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	S3Endpoint         string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty" validate:"omitempty,url"`
	S3Prefix           string `env:"S3_PREFIX, default=animgen/" json:"s3_prefix,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format" validate:"oneof=json text JSON TEXT"`
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"` // "debug", "info", "warn", "error"
}

// S3Enabled returns true if the s3 storage backend is selected.
func (c *Config) S3Enabled() bool {
	return c.StorageBackend == StorageS3
}

// Load reads configuration from environment variables using go-envconfig
// and validates the result.
func Load() (*Config, error) {
	return LoadWith(context.Background(), envconfig.OsLookuper())
}

// LoadWith reads configuration through the given lookuper.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	cfg := &Config{}

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   cfg,
		Lookuper: lookuper,
	}); err != nil {
		if strings.Contains(err.Error(), "SERVICE_URL") {
			return nil, ErrServiceURLRequired
		}
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks field constraints and cross-field requirements.
func (c *Config) Validate() error {
	if c.ServiceURL == "" {
		return ErrServiceURLRequired
	}
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
	}
	if c.S3Enabled() && (c.S3Bucket == "" || c.S3Region == "") {
		return ErrS3ConfigIncomplete
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, ServiceURL: %s, ServiceTimeout: %s, StorageBackend: %s, TempDir: %s, S3Bucket: %s, S3Region: %s, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.ServiceURL,
		c.ServiceTimeout,
		c.StorageBackend,
		c.TempDir,
		c.S3Bucket,
		c.S3Region,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
