package blob

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/okian/gxa/pkg/metrics"
)

// Config selects and parameterises a driver.
type Config struct {
	Driver Driver
	FSRoot string
	S3     S3Config
}

// Open returns the store named by cfg.Driver, wrapped so that every call is
// counted in the blob operation metrics.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case DriverFilesystem, "":
		s, err = NewFSStore(cfg.FSRoot)
	case DriverMemory:
		s = NewMemoryStore()
	case DriverS3:
		s, err = NewS3Store(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return Instrument(s), nil
}

// Instrument wraps s with metrics. Wrapping twice is a no-op.
func Instrument(s Store) Store {
	if _, ok := s.(*instrumented); ok {
		return s
	}
	return &instrumented{next: s}
}

type instrumented struct {
	next Store
}

func (i *instrumented) record(op string, err error) {
	outcome := "ok"
	switch {
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	case err != nil:
		outcome = "error"
	}
	metrics.RecordBlobOperation(string(i.next.Driver()), op, outcome)
}

func (i *instrumented) Driver() Driver { return i.next.Driver() }

func (i *instrumented) Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error) {
	info, err := i.next.Put(ctx, key, r, opts)
	i.record("put", err)
	return info, err
}

func (i *instrumented) Get(ctx context.Context, key string) (Info, io.ReadCloser, error) {
	info, rc, err := i.next.Get(ctx, key)
	i.record("get", err)
	return info, rc, err
}

func (i *instrumented) Head(ctx context.Context, key string) (Info, error) {
	info, err := i.next.Head(ctx, key)
	i.record("head", err)
	return info, err
}

func (i *instrumented) Delete(ctx context.Context, key string) (bool, error) {
	ok, err := i.next.Delete(ctx, key)
	i.record("delete", err)
	return ok, err
}

func (i *instrumented) List(ctx context.Context, prefix string) ([]Info, error) {
	out, err := i.next.List(ctx, prefix)
	i.record("list", err)
	return out, err
}
