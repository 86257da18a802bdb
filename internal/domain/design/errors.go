package design

import "errors"

// Sentinel kinds for design errors.
var (
	ErrHeaderCollision = errors.New("ambiguous header: distinct headers share a canonical form")
	ErrEmptyAssayID    = errors.New("empty assay id")
	ErrEmptyHeader     = errors.New("empty header")
)
