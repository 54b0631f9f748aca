package planeditor

import (
	"time"

	"github.com/okian/coach/pkg/logger"
)

// Option applies a configuration option to the Editor.
type Option func(*Editor)

// WithClock sets the time source used to date new plans.
func WithClock(now func() time.Time) Option {
	return func(e *Editor) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Editor) {
		if l != nil {
			e.log = l
		}
	}
}
