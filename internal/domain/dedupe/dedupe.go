// Package dedupe tracks keys already handled: pending export jobs and evidence
// records already emitted in a stream.
package dedupe

import (
	"context"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultMaxSize = 50000

// Deduper records seen keys to ensure at-most-once handling.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so it can be submitted again.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// Key joins parts into a single dedupe key.
func Key(parts ...string) string {
	return strings.Join(parts, "\x1f")
}

// inMemoryDeduper keeps keys in a bounded LRU, or in a plain map when unbounded.
type inMemoryDeduper struct {
	maxSize int

	bounded *lru.Cache[string, struct{}]

	mu   sync.Mutex
	seen map[string]struct{}
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	if d.maxSize > 0 {
		// lru.New only fails for a non-positive size.
		c, err := lru.New[string, struct{}](d.maxSize)
		if err == nil {
			d.bounded = c
			return d
		}
	}
	d.seen = make(map[string]struct{})
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	if d.bounded != nil {
		ok, _ := d.bounded.ContainsOrAdd(id, struct{}{})
		return ok
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[id]; ok {
		return true
	}
	d.seen[id] = struct{}{}
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	if d.bounded != nil {
		d.bounded.Remove(id)
		return
	}
	d.mu.Lock()
	delete(d.seen, id)
	d.mu.Unlock()
}

// Size returns the current number of keys held.
func (d *inMemoryDeduper) Size() int64 {
	if d.bounded != nil {
		return int64(d.bounded.Len())
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}
