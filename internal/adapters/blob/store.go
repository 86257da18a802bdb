// Package blob stores experiment files and evidence exports behind one
// interface with filesystem, memory and S3 drivers.
package blob

import (
	"context"
	"errors"
	"io"
	"time"
)

// Driver identifies a blob backend.
type Driver string

const (
	DriverFilesystem Driver = "fs"
	DriverMemory     Driver = "memory"
	DriverS3         Driver = "s3"
)

// Sentinel kinds for blob errors.
var (
	ErrNotFound      = errors.New("blob not found")
	ErrInvalidKey    = errors.New("invalid blob key")
	ErrUnknownDriver = errors.New("unknown blob driver")
	ErrMissingBucket = errors.New("s3 bucket required")
)

// Info describes a stored object.
type Info struct {
	Key          string
	Size         int64
	ContentType  string
	ETag         string
	Metadata     map[string]string
	LastModified time.Time
}

// PutOptions are optional attributes of a Put.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// Store is a flat key/value object store. Put replaces existing objects.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Head(ctx context.Context, key string) (Info, error)
	Delete(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]Info, error)
	Driver() Driver
}

func cloneMetadata(md map[string]string) map[string]string {
	if md == nil {
		return nil
	}
	out := make(map[string]string, len(md))
	for k, v := range md {
		out[k] = v
	}
	return out
}
