package config

import "errors"

var (
	// ErrInvalidConfig wraps every Validate failure.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrLoadConfig wraps failures reading the file or environment.
	ErrLoadConfig = errors.New("cannot load configuration")
)
