package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/okian/gxa/internal/domain/evidence"
	"github.com/okian/gxa/internal/domain/types"
)

// ExportDependencies queue and track evidence exports.
type ExportDependencies interface {
	EvidenceDefaults() evidence.Options
	SubmitExport(ctx context.Context, req types.ExportRequest) (types.ExportJob, error)
	Export(ctx context.Context, id string) (types.ExportJob, error)
}

// ExportsHandler handles export requests.
type ExportsHandler struct {
	deps ExportDependencies
}

// NewExportsHandler creates a new exports handler.
func NewExportsHandler(deps ExportDependencies) *ExportsHandler {
	return &ExportsHandler{deps: deps}
}

// exportRequest mirrors the OpenAPI schema for POST .../evidence/exports.
// Omitted fields take the service defaults.
type exportRequest struct {
	FoldChangeCutoff    *float64 `json:"log_fold_change_cutoff"`
	PValueCutoff        *float64 `json:"p_value_cutoff"`
	MaxGenesPerContrast *int     `json:"max_genes_per_contrast"`
}

func (e exportRequest) resolve(accession string, d evidence.Options) types.ExportRequest {
	req := types.ExportRequest{
		Accession:           accession,
		FoldChangeCutoff:    d.FoldChangeCutoff,
		PValueCutoff:        d.PValueCutoff,
		MaxGenesPerContrast: d.MaxGenesPerContrast,
	}
	if e.FoldChangeCutoff != nil {
		req.FoldChangeCutoff = *e.FoldChangeCutoff
	}
	if e.PValueCutoff != nil {
		req.PValueCutoff = *e.PValueCutoff
	}
	if e.MaxGenesPerContrast != nil {
		req.MaxGenesPerContrast = *e.MaxGenesPerContrast
	}
	return req
}

// HandleSubmit handles POST /json/experiments/{accession}/evidence/exports.
func (h *ExportsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_export"
	acc, err := accessionOf(r)
	if err != nil {
		writeError(w, r, NewKind(op, err))
		return
	}
	var body exportRequest
	if err := decodeBody(w, r, &body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	job, err := h.deps.SubmitExport(r.Context(), body.resolve(acc, h.deps.EvidenceDefaults()))
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	w.Header().Set("Location", "/json/exports/"+job.ID)
	writeJSON(w, http.StatusAccepted, job)
}

// HandleGet handles GET /json/exports/{id}.
func (h *ExportsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_export"
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, r, NewKind(op, ErrBadRequest))
		return
	}
	job, err := h.deps.Export(r.Context(), id)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, job)
}
