// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/gxa/internal/domain/evidence"
	"github.com/okian/gxa/internal/domain/types"
	"github.com/okian/gxa/pkg/logger"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers.
type Dependencies interface {
	HeatmapGroupsJSON(ctx context.Context, accession string) ([]byte, error)
	BaselineProfiles(ctx context.Context, accession string, req types.ProfileRequest) (types.ProfilesResponse, error)
	GeneCount(ctx context.Context, accession, unit string, cutoff float64) (types.GeneCountResponse, error)

	// EvidenceDefaults are the cut-offs used for parameters a request omits.
	EvidenceDefaults() evidence.Options
	Evidence(ctx context.Context, accession string, opts evidence.Options, yield func(evidence.Record) error) error

	SubmitExport(ctx context.Context, req types.ExportRequest) (types.ExportJob, error)
	Export(ctx context.Context, id string) (types.ExportJob, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	experimentsHandler *ExperimentsHandler
	evidenceHandler    *EvidenceHandler
	exportsHandler     *ExportsHandler
}

// Option configures a Server.
type Option func(*serverConfig)

type serverConfig struct {
	log        logger.Logger
	flushEvery int
}

// WithLogger sets the logger used by the handlers.
func WithLogger(l logger.Logger) Option {
	return func(c *serverConfig) {
		if l != nil {
			c.log = l
		}
	}
}

// WithFlushEvery flushes streamed evidence every n records.
func WithFlushEvery(n int) Option {
	return func(c *serverConfig) {
		if n > 0 {
			c.flushEvery = n
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	cfg := serverConfig{log: logger.Get().Named("api"), flushEvery: defaultFlushEvery}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		experimentsHandler: NewExperimentsHandler(deps),
		evidenceHandler:    NewEvidenceHandler(deps, cfg.log, cfg.flushEvery),
		exportsHandler:     NewExportsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /json/experiments/{accession}/heatmap-groups",
		MetricsMiddleware(s.experimentsHandler.HandleHeatmapGroups, "heatmap_groups"))
	mux.HandleFunc("POST /json/experiments/{accession}/profiles",
		MetricsMiddleware(s.experimentsHandler.HandleProfiles, "profiles"))
	mux.HandleFunc("GET /json/experiments/{accession}/genes",
		MetricsMiddleware(s.experimentsHandler.HandleGeneCount, "gene_count"))

	mux.HandleFunc("GET /json/experiments/{accession}/evidence",
		MetricsMiddleware(s.evidenceHandler.HandleEvidence, "evidence"))

	mux.HandleFunc("POST /json/experiments/{accession}/evidence/exports",
		MetricsMiddleware(s.exportsHandler.HandleSubmit, "export_submit"))
	mux.HandleFunc("GET /json/exports/{id}",
		MetricsMiddleware(s.exportsHandler.HandleGet, "export_get"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRawJSON(w http.ResponseWriter, status int, b []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, types.ErrorResponse{Error: msg, Code: code, RequestID: RequestID(r.Context())})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
