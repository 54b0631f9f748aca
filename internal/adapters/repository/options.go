package repository

import "github.com/okian/coach/pkg/logger"

// Option applies a configuration option to the SQLStore.
type Option func(*SQLStore)

// WithDriver selects the SQL dialect ("sqlite" or "postgres").
func WithDriver(driver string) Option {
	return func(s *SQLStore) {
		if driver != "" {
			s.driverName = driver
		}
	}
}

// WithLogger sets the logger used for schema and lifecycle messages.
func WithLogger(l logger.Logger) Option {
	return func(s *SQLStore) {
		if l != nil {
			s.log = l
		}
	}
}
