package api

import (
	"errors"
	"net/http"

	"github.com/okian/gxa/internal/adapters/blob"
	"github.com/okian/gxa/internal/adapters/mq/queue"
	"github.com/okian/gxa/internal/adapters/repository"
	"github.com/okian/gxa/internal/adapters/searchindex"
	service "github.com/okian/gxa/internal/app"
	"github.com/okian/gxa/internal/domain/grouping"
	"github.com/okian/gxa/internal/domain/model"
	"github.com/okian/gxa/internal/domain/profiles"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrNotFound     = errors.New("not found")
	ErrBackpressure = errors.New("backpressure")
	ErrUnavailable  = errors.New("service unavailable")
)

// Error is an API error carrying the operation that failed and its kind.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Kind != nil:
		return e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
	case e.Err != nil:
		return e.Op + ": " + e.Err.Error()
	case e.Kind != nil:
		return e.Op + ": " + e.Kind.Error()
	}
	return e.Op
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewKind returns an error of kind raised by op.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// Wrap annotates err with op; its kind is derived from err.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// WrapKind annotates err with op and an explicit kind.
func WrapKind(op string, kind, err error) error {
	if err == nil {
		return NewKind(op, kind)
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// classify maps an error chain to an HTTP status and a stable error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBackpressure), errors.Is(err, queue.ErrFull):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, ErrUnavailable), errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, ErrNotFound),
		errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrJobNotFound),
		errors.Is(err, blob.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, profiles.ErrGeneNotIndexed):
		return http.StatusUnprocessableEntity, "gene_not_indexed"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, service.ErrNotBaseline),
		errors.Is(err, grouping.ErrUnsupportedExperiment),
		errors.Is(err, model.ErrUnknownExperimentType):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, searchindex.ErrUnreachable):
		return http.StatusBadGateway, "index_unreachable"
	}
	return http.StatusInternalServerError, "internal_error"
}
