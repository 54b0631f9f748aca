package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNoStore         = errors.New("service has no store")
	ErrNotStarted      = errors.New("service not started")
	ErrDraftNotFound   = errors.New("draft not found")
	ErrUnknownPlayer   = errors.New("unknown player")
	ErrUnknownExercise = errors.New("unknown exercise")
)
