// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New() returns a Config populated with defaults.
// - Load(ctx) layers defaults, an optional YAML file and COACH_* env vars.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"
)

// Store drivers.
const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Avatar drivers.
const (
	AvatarFS     = "fs"
	AvatarMemory = "memory"
	AvatarS3     = "s3"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// StoreDriver is sqlite or postgres.
	StoreDriver string `koanf:"store_driver"`
	// StoreDSN is a file path for sqlite or a connection URL for postgres.
	StoreDSN string `koanf:"store_dsn"`

	// AvatarDriver is fs, memory or s3.
	AvatarDriver string `koanf:"avatar_driver"`
	// AvatarDir is the root directory of the fs driver.
	AvatarDir string `koanf:"avatar_dir"`
	// AvatarMaxBytes caps a single avatar upload.
	AvatarMaxBytes int64 `koanf:"avatar_max_bytes"`

	S3Bucket          string `koanf:"s3_bucket"`
	S3Region          string `koanf:"s3_region"`
	S3Endpoint        string `koanf:"s3_endpoint"`
	S3PathStyle       bool   `koanf:"s3_path_style"`
	S3AccessKeyID     string `koanf:"s3_access_key_id"`
	S3SecretAccessKey string `koanf:"s3_secret_access_key"`

	// DraftCapacity bounds the number of plan editor drafts kept in memory.
	DraftCapacity int `koanf:"draft_capacity"`

	// FeedBuffer is the per-subscriber notification buffer.
	FeedBuffer int `koanf:"feed_buffer"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		Addr:           ":9080",
		StoreDriver:    StoreSQLite,
		StoreDSN:       "coach.db",
		AvatarDriver:   AvatarFS,
		AvatarDir:      "avatars",
		AvatarMaxBytes: 2 << 20,
		S3Region:       "us-east-1",
		DraftCapacity:  256,
		FeedBuffer:     1,
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.StoreDriver {
	case StoreSQLite, StorePostgres:
	default:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	}
	if strings.TrimSpace(c.StoreDSN) == "" {
		return fmt.Errorf("%w: store_dsn must not be empty", ErrInvalidConfig)
	}
	switch c.AvatarDriver {
	case AvatarFS:
		if strings.TrimSpace(c.AvatarDir) == "" {
			return fmt.Errorf("%w: avatar_dir must not be empty for fs driver", ErrInvalidConfig)
		}
	case AvatarMemory:
	case AvatarS3:
		if strings.TrimSpace(c.S3Bucket) == "" {
			return fmt.Errorf("%w: s3_bucket required for s3 driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown avatar_driver %q", ErrInvalidConfig, c.AvatarDriver)
	}
	if c.AvatarMaxBytes <= 0 {
		return fmt.Errorf("%w: avatar_max_bytes must be positive", ErrInvalidConfig)
	}
	if c.DraftCapacity <= 0 {
		return fmt.Errorf("%w: draft_capacity must be positive", ErrInvalidConfig)
	}
	if c.FeedBuffer <= 0 {
		return fmt.Errorf("%w: feed_buffer must be positive", ErrInvalidConfig)
	}
	return nil
}
