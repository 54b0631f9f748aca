package config

import "errors"

// ErrInvalidConfig wraps every failure reported by Validate.
var ErrInvalidConfig = errors.New("config: invalid value")

// ErrLoadConfig wraps failures reading a config file or COACH_* variables.
var ErrLoadConfig = errors.New("config: load")
