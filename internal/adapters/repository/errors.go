package repository

import "errors"

// Sentinel kinds for catalog errors.
var (
	ErrNotFound        = errors.New("experiment not found")
	ErrInvalidDocument = errors.New("invalid experiment document")
	ErrUnknownGroup    = errors.New("contrast references an unknown assay group")
	ErrMissingFile     = errors.New("experiment file missing")
)
