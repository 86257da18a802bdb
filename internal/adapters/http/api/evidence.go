package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/okian/gxa/internal/domain/evidence"
	"github.com/okian/gxa/pkg/logger"
)

const (
	defaultFlushEvery = 100
	ndjsonContentType = "application/x-ndjson"
)

// EvidenceDependencies streams the evidence records of an experiment.
type EvidenceDependencies interface {
	EvidenceDefaults() evidence.Options
	Evidence(ctx context.Context, accession string, opts evidence.Options, yield func(evidence.Record) error) error
}

// EvidenceHandler serves evidence streams.
type EvidenceHandler struct {
	deps       EvidenceDependencies
	log        logger.Logger
	flushEvery int
}

// NewEvidenceHandler creates a new evidence handler.
func NewEvidenceHandler(deps EvidenceDependencies, log logger.Logger, flushEvery int) *EvidenceHandler {
	if log == nil {
		log = logger.Nop()
	}
	if flushEvery < 1 {
		flushEvery = defaultFlushEvery
	}
	return &EvidenceHandler{deps: deps, log: log, flushEvery: flushEvery}
}

// evidenceOptions reads the cut-off parameters, falling back to defaults.
func evidenceOptions(q url.Values, defaults evidence.Options) (evidence.Options, error) {
	opts := defaults
	if s := q.Get("logFoldChangeCutoff"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return opts, fmt.Errorf("logFoldChangeCutoff: %w", err)
		}
		opts.FoldChangeCutoff = v
	}
	if s := q.Get("pValueCutoff"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return opts, fmt.Errorf("pValueCutoff: %w", err)
		}
		opts.PValueCutoff = v
	}
	if s := q.Get("maxGenesPerContrast"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return opts, fmt.Errorf("maxGenesPerContrast: %w", err)
		}
		opts.MaxGenesPerContrast = v
	}
	return opts, nil
}

// HandleEvidence handles GET /json/experiments/{accession}/evidence.
//
// Records are written one JSON document per line. The status line goes out
// with the first record, so failures before it still get a proper error
// response; a failure mid-stream truncates the body.
func (h *EvidenceHandler) HandleEvidence(w http.ResponseWriter, r *http.Request) {
	const op = "api.evidence"
	acc, err := accessionOf(r)
	if err != nil {
		writeError(w, r, NewKind(op, err))
		return
	}
	opts, err := evidenceOptions(r.URL.Query(), h.deps.EvidenceDefaults())
	if err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}

	rc := http.NewResponseController(w)
	enc := json.NewEncoder(w)
	started := false
	n := 0
	start := func() {
		w.Header().Set("Content-Type", ndjsonContentType)
		w.WriteHeader(http.StatusOK)
		started = true
	}
	err = h.deps.Evidence(r.Context(), acc, opts, func(rec evidence.Record) error {
		if !started {
			start()
		}
		if err := enc.Encode(rec); err != nil {
			return err
		}
		n++
		if n%h.flushEvery == 0 {
			_ = rc.Flush()
		}
		return nil
	})
	if err != nil {
		if !started {
			writeError(w, r, Wrap(op, err))
			return
		}
		h.log.Warn(r.Context(), "evidence stream aborted",
			logger.String("accession", acc),
			logger.Int("records", n),
			logger.String("request_id", RequestID(r.Context())),
			logger.Error(err))
		return
	}
	if !started {
		start()
	}
	_ = rc.Flush()
}
