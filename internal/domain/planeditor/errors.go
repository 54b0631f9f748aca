package planeditor

import "errors"

// Sentinel kinds for editor errors. A refused intent leaves the state unchanged.
var (
	ErrInvalidName      = errors.New("name must not be blank")
	ErrColumnOutOfRange = errors.New("column index out of range")
	ErrEmptyColumn      = errors.New("column needs at least one player")
)
