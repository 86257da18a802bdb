package searchindex

import "errors"

// Sentinel kinds for index errors.
var (
	ErrUnreachable  = errors.New("search index unreachable")
	ErrQueryFailed  = errors.New("search index query failed")
	ErrMalformedDoc = errors.New("malformed search index document")
	ErrMissingURL   = errors.New("search index url required")
)
