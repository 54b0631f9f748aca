package changefeed

import "errors"

// Sentinel kinds for feed errors.
var (
	ErrClosed = errors.New("change feed closed")
)
