// Package avatar stores optional player avatar payloads keyed by player id.
package avatar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// Driver names.
const (
	DriverFS     = "fs"
	DriverMemory = "memory"
	DriverS3     = "s3"
)

// Sentinel kinds for avatar errors.
var (
	ErrNotFound      = errors.New("avatar not found")
	ErrTooLarge      = errors.New("avatar too large")
	ErrInvalidKey    = errors.New("invalid avatar key")
	ErrUnknownDriver = errors.New("unknown avatar driver")
)

// Info describes a stored payload.
type Info struct {
	Key         string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
}

// Store persists avatar payloads. Put overwrites; Delete of a missing key is not an error.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Driver() string
}

// ReadLimited reads r fully, failing with ErrTooLarge past max bytes.
func ReadLimited(r io.Reader, max int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, fmt.Errorf("read avatar: %w", err)
	}
	if int64(len(data)) > max {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, max)
	}
	return data, nil
}

// Config selects and configures a driver.
type Config struct {
	Driver string
	Dir    string
	S3     S3Config
}

// Open builds the store named by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverFS, "":
		return NewFS(cfg.Dir)
	case DriverMemory:
		return NewMemory(), nil
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
