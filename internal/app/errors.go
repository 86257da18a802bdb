package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted     = errors.New("service not started")
	ErrNotBaseline    = errors.New("experiment is not baseline")
	ErrJobNotFound    = errors.New("export job not found")
	ErrInvalidRequest = errors.New("invalid request")
)
