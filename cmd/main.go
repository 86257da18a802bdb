package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/gxa/internal/adapters/blob"
	"github.com/okian/gxa/internal/adapters/http/api"
	"github.com/okian/gxa/internal/adapters/http/swagger"
	"github.com/okian/gxa/internal/adapters/repository"
	"github.com/okian/gxa/internal/adapters/searchindex"
	service "github.com/okian/gxa/internal/app"
	"github.com/okian/gxa/internal/config"
	"github.com/okian/gxa/internal/domain/evidence"
	"github.com/okian/gxa/pkg/logger"
	"github.com/okian/gxa/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
	// evidence streams of large experiments run long
	writeTimeout = 10 * time.Minute

	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		os.Stderr.WriteString("gxa: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.InitWithFormat(cfg.LogFormat); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	a, err := newApplication(ctx, cfg, log)
	if err != nil {
		return err
	}
	if err := a.svc.Start(ctx); err != nil {
		return err
	}

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, a.svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           a.handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("blob_driver", cfg.BlobDriver),
			logger.String("index_url", cfg.IndexURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	if err := a.svc.Stop(shutdownCtx); err != nil {
		log.Error(ctx, "export drain incomplete", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// application is the wired process minus the listener.
type application struct {
	svc     *service.Service
	blobs   blob.Store
	handler http.Handler
}

func newApplication(ctx context.Context, cfg *config.Config, log logger.Logger) (*application, error) {
	blobs, err := blob.Open(ctx, blob.Config{
		Driver: blob.Driver(cfg.BlobDriver),
		FSRoot: cfg.BlobFSRoot,
		S3: blob.S3Config{
			Bucket:          cfg.BlobS3Bucket,
			Region:          cfg.BlobS3Region,
			Endpoint:        cfg.BlobS3Endpoint,
			PathStyle:       cfg.BlobS3PathStyle,
			AccessKeyID:     cfg.BlobS3AccessKeyID,
			SecretAccessKey: cfg.BlobS3SecretAccessKey,
		},
	})
	if err != nil {
		return nil, err
	}

	index, err := searchindex.New(cfg.IndexURL,
		searchindex.WithTimeout(time.Duration(cfg.IndexTimeoutMS)*time.Millisecond),
		searchindex.WithCollections(cfg.BulkCollection, cfg.DifferentialCollection),
		searchindex.WithLogger(log.Named("searchindex")))
	if err != nil {
		return nil, err
	}

	catalog := repository.NewBlobCatalog(blobs,
		repository.WithPrefix(cfg.CatalogPrefix),
		repository.WithLogger(log.Named("catalog")))

	svc := service.New(catalog, index, blobs,
		service.WithLogger(log.Named("service")),
		service.WithWorkerCount(cfg.ExportWorkerCount),
		service.WithQueueSize(cfg.ExportQueueSize),
		service.WithDedupeSize(cfg.ExportDedupeSize),
		service.WithExportTimeout(time.Duration(cfg.ExportTimeoutSeconds)*time.Second),
		service.WithCache(cfg.CacheSize, time.Duration(cfg.CacheTTLSeconds)*time.Second),
		service.WithMaxRows(cfg.MaxRows),
		service.WithResourceVersion(cfg.EvidenceResourceVersion),
		service.WithEvidenceDefaults(evidence.Options{
			FoldChangeCutoff:    cfg.EvidenceFoldChangeCutoff,
			PValueCutoff:        cfg.EvidencePValueCutoff,
			MaxGenesPerContrast: cfg.EvidenceMaxGenesPerContrast,
		}),
	)

	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc, api.WithLogger(log.Named("api"))).Register(ctx, mux)

	return &application{
		svc:     svc,
		blobs:   blobs,
		handler: api.RequestIDMiddleware(api.LoggingMiddleware(mux, log.Named("http"))),
	}, nil
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metrics.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(ctx, svc)
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics refreshes the gauges GetStats does not already touch.
func updateServiceMetrics(ctx context.Context, svc *service.Service) {
	stats := svc.GetStats(ctx)
	metrics.UpdateQueueCapacity(stats.QueueCapacity)
	metrics.UpdateWorkerCount(stats.Workers)
}
