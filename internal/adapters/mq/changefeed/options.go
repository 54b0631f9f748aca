package changefeed

import "github.com/okian/coach/pkg/logger"

// Option applies a configuration option to the Feed.
type Option func(*Feed)

// WithBufferSize sets how many notifications a subscriber may have pending.
// Further publishes coalesce into the pending ones.
func WithBufferSize(size int) Option {
	return func(f *Feed) {
		if size > 0 {
			f.bufferSize = size
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(f *Feed) {
		if l != nil {
			f.log = l
		}
	}
}
