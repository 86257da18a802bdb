// Package service wires the catalog, search index, blob store and domain
// engines into the operations served over HTTP.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/okian/gxa/internal/adapters/blob"
	exportqueue "github.com/okian/gxa/internal/adapters/mq/queue"
	workerpool "github.com/okian/gxa/internal/adapters/mq/worker"
	"github.com/okian/gxa/internal/adapters/repository"
	"github.com/okian/gxa/internal/domain/dedupe"
	"github.com/okian/gxa/internal/domain/evidence"
	"github.com/okian/gxa/internal/domain/profiles"
	"github.com/okian/gxa/internal/domain/types"
	"github.com/okian/gxa/pkg/logger"
	"github.com/okian/gxa/pkg/metrics"
)

const (
	defaultQueueSize  = 256
	defaultDedupeSize = 4096
	defaultCacheSize  = 512
	defaultCacheTTL   = 10 * time.Minute
	heatmapCache      = "heatmap_groups"
)

// Index is the search index the service reads expression data from.
type Index interface {
	profiles.SearchIndex
	evidence.ExpressionSource
}

// Service implements the API dependencies.
type Service struct {
	mu sync.RWMutex

	catalog    repository.Catalog
	index      Index
	blobs      blob.Store
	files      evidence.FileSource
	aggregator *profiles.Aggregator
	evidence   *evidence.Service
	groups     *expirable.LRU[string, []byte]

	deduper     dedupe.Deduper
	exportQueue exportqueue.Queue
	workerPool  *workerpool.Pool
	jobsMu      sync.RWMutex
	jobs        map[string]*types.ExportJob
	pending     map[string]string

	workerCount      int
	queueSize        int
	dedupeSize       int
	cacheSize        int
	cacheTTL         time.Duration
	exportTimeout    time.Duration
	maxRows          int
	resourceVersion  string
	evidenceDefaults evidence.Options

	started   bool
	startedAt time.Time
	cancel    context.CancelFunc

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of export workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the export queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize bounds the number of pending export keys remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithCache sizes the heatmap-groups cache. A zero ttl keeps entries until evicted.
func WithCache(size int, ttl time.Duration) Option {
	return func(s *Service) {
		if size > 0 {
			s.cacheSize = size
		}
		if ttl >= 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithExportTimeout bounds one export job; zero means no bound.
func WithExportTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.exportTimeout = d
		}
	}
}

// WithMaxRows caps the rows of one profiles query.
func WithMaxRows(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxRows = n
		}
	}
}

// WithEvidenceDefaults sets the cut-offs used when a request gives none.
func WithEvidenceDefaults(o evidence.Options) Option {
	return func(s *Service) {
		s.evidenceDefaults = o
	}
}

// WithResourceVersion sets the release tag stamped on evidence records.
func WithResourceVersion(v string) Option {
	return func(s *Service) {
		if v != "" {
			s.resourceVersion = v
		}
	}
}

// WithFiles replaces the per-experiment file source.
func WithFiles(f evidence.FileSource) Option {
	return func(s *Service) {
		if f != nil {
			s.files = f
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. Read operations work immediately; exports need Start.
func New(catalog repository.Catalog, index Index, blobs blob.Store, opts ...Option) *Service {
	s := &Service{
		catalog:          catalog,
		index:            index,
		blobs:            blobs,
		files:            repository.NewFileHub(blobs),
		jobs:             make(map[string]*types.ExportJob),
		pending:          make(map[string]string),
		workerCount:      runtime.NumCPU(),
		queueSize:        defaultQueueSize,
		dedupeSize:       defaultDedupeSize,
		cacheSize:        defaultCacheSize,
		cacheTTL:         defaultCacheTTL,
		evidenceDefaults: evidence.DefaultOptions(),
		logger:           logger.Get().Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.aggregator = profiles.NewAggregator(index,
		profiles.WithMaxRows(s.maxRows),
		profiles.WithLogger(s.logger.Named("profiles")))
	evOpts := []evidence.Option{evidence.WithLogger(s.logger.Named("evidence"))}
	if s.resourceVersion != "" {
		evOpts = append(evOpts, evidence.WithResourceVersion(s.resourceVersion))
	}
	s.evidence = evidence.NewService(index, s.files, evOpts...)
	s.groups = expirable.NewLRU[string, []byte](s.cacheSize, nil, s.cacheTTL)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	return s
}

// Start creates the export queue and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	s.exportQueue = exportqueue.NewInMemoryQueue(exportqueue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.exportQueue, &exportRunner{s: s},
		workerpool.WithLogger(s.logger.Named("worker")),
		workerpool.WithJobTimeout(s.exportTimeout))
	// workers outlive the request that started them
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.workerPool.Start(runCtx)

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("cacheSize", s.cacheSize))
	return nil
}

// Stop drains queued exports and stops the workers.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping service")

	err := s.workerPool.Shutdown(ctx)
	s.cancel()
	s.started = false
	s.logger.Info(ctx, "service stopped")
	return err
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) types.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := types.Stats{CacheEntries: s.groups.Len()}
	if accs, err := s.catalog.Accessions(ctx); err == nil {
		st.Experiments = len(accs)
	} else {
		s.logger.Warn(ctx, "catalog listing failed", logger.Error(err))
	}
	s.jobsMu.RLock()
	st.ExportsPending = len(s.pending)
	s.jobsMu.RUnlock()

	if s.started {
		st.QueueDepth = s.exportQueue.Len(ctx)
		st.QueueCapacity = s.exportQueue.Capacity()
		st.Workers = s.workerPool.Size()
		st.ExportsProcessed = s.workerPool.Processed()
		st.UptimeSeconds = time.Since(s.startedAt).Seconds()
		metrics.UpdateQueueSize(st.QueueDepth)
	}
	return st
}

// Ready reports whether exports are accepted.
func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}
