package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicateName    = errors.New("name already in use")
	ErrInvalidReference = errors.New("entry references an unknown row")
	ErrUnknownDriver    = errors.New("unknown store driver")
	ErrClosed           = errors.New("store closed")
)
