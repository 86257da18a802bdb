package queue

import "errors"

// ErrFull is returned by callers that turn a refused Enqueue into an error.
var ErrFull = errors.New("export queue full")
