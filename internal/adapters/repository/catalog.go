package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/okian/gxa/internal/adapters/blob"
	"github.com/okian/gxa/internal/domain/design"
	"github.com/okian/gxa/internal/domain/model"
	"github.com/okian/gxa/pkg/logger"
)

const documentSuffix = ".json"

// BlobCatalog reads experiment documents from a blob store. Each document is
// parsed once and kept until Invalidate.
type BlobCatalog struct {
	store  blob.Store
	prefix string
	log    logger.Logger

	mu      sync.RWMutex
	entries map[string]entry
}

// NewBlobCatalog returns a catalog over store.
func NewBlobCatalog(store blob.Store, opts ...Option) *BlobCatalog {
	c := &BlobCatalog{
		store:   store,
		prefix:  DefaultCatalogPrefix,
		log:     logger.Get().Named("catalog"),
		entries: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *BlobCatalog) key(accession string) string {
	return c.prefix + "/" + accession + documentSuffix
}

func (c *BlobCatalog) load(ctx context.Context, accession string) (entry, error) {
	c.mu.RLock()
	e, ok := c.entries[accession]
	c.mu.RUnlock()
	if ok {
		return e, nil
	}

	_, rc, err := c.store.Get(ctx, c.key(accession))
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return entry{}, fmt.Errorf("%s: %w", accession, ErrNotFound)
		}
		return entry{}, fmt.Errorf("read %s: %w", accession, err)
	}
	defer rc.Close()

	e, err = decode(rc)
	if err != nil {
		c.log.Error(ctx, "experiment document rejected",
			logger.String("accession", accession),
			logger.Error(err))
		return entry{}, err
	}
	if e.experiment.Accession != accession {
		return entry{}, fmt.Errorf("%w: document %s holds %s", ErrInvalidDocument, accession, e.experiment.Accession)
	}

	c.mu.Lock()
	// a concurrent load may have won; keep the first
	if prev, ok := c.entries[accession]; ok {
		e = prev
	} else {
		c.entries[accession] = e
	}
	c.mu.Unlock()
	c.log.Debug(ctx, "experiment loaded",
		logger.String("accession", accession),
		logger.String("type", e.experiment.Type.String()))
	return e, nil
}

func (c *BlobCatalog) Experiment(ctx context.Context, accession string) (*model.Experiment, error) {
	e, err := c.load(ctx, accession)
	if err != nil {
		return nil, err
	}
	return e.experiment, nil
}

func (c *BlobCatalog) Design(ctx context.Context, accession string) (*design.Design, error) {
	e, err := c.load(ctx, accession)
	if err != nil {
		return nil, err
	}
	return e.design, nil
}

// Accessions lists the accessions with a document, sorted.
func (c *BlobCatalog) Accessions(ctx context.Context) ([]string, error) {
	infos, err := c.store.List(ctx, c.prefix+"/")
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	out := make([]string, 0, len(infos))
	for _, info := range infos {
		name := strings.TrimPrefix(info.Key, c.prefix+"/")
		if strings.Contains(name, "/") || !strings.HasSuffix(name, documentSuffix) {
			continue
		}
		out = append(out, strings.TrimSuffix(name, documentSuffix))
	}
	sort.Strings(out)
	return out, nil
}

// Invalidate drops the parsed form of accession so the next read reloads it.
func (c *BlobCatalog) Invalidate(accession string) {
	c.mu.Lock()
	delete(c.entries, accession)
	c.mu.Unlock()
}

// MemoryCatalog holds experiments added in process.
type MemoryCatalog struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewMemoryCatalog returns an empty catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{entries: make(map[string]entry)}
}

// Add registers exp with its design, replacing any previous one.
func (c *MemoryCatalog) Add(exp *model.Experiment, d *design.Design) {
	c.mu.Lock()
	c.entries[exp.Accession] = entry{experiment: exp, design: d}
	c.mu.Unlock()
}

func (c *MemoryCatalog) get(accession string) (entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[accession]
	if !ok {
		return entry{}, fmt.Errorf("%s: %w", accession, ErrNotFound)
	}
	return e, nil
}

func (c *MemoryCatalog) Experiment(_ context.Context, accession string) (*model.Experiment, error) {
	e, err := c.get(accession)
	return e.experiment, err
}

func (c *MemoryCatalog) Design(_ context.Context, accession string) (*design.Design, error) {
	e, err := c.get(accession)
	return e.design, err
}

func (c *MemoryCatalog) Accessions(context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.entries))
	for k := range c.entries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}
