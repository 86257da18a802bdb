package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/gxa/internal/domain/types"
)

// ExperimentDependencies are the read operations of one experiment.
type ExperimentDependencies interface {
	HeatmapGroupsJSON(ctx context.Context, accession string) ([]byte, error)
	BaselineProfiles(ctx context.Context, accession string, req types.ProfileRequest) (types.ProfilesResponse, error)
	GeneCount(ctx context.Context, accession, unit string, cutoff float64) (types.GeneCountResponse, error)
}

// ExperimentsHandler serves the per-experiment JSON endpoints.
type ExperimentsHandler struct {
	deps ExperimentDependencies
}

// NewExperimentsHandler creates a new experiments handler.
func NewExperimentsHandler(deps ExperimentDependencies) *ExperimentsHandler {
	return &ExperimentsHandler{deps: deps}
}

func accessionOf(r *http.Request) (string, error) {
	acc := strings.TrimSpace(r.PathValue("accession"))
	if acc == "" {
		return "", ErrBadRequest
	}
	return acc, nil
}

// HandleHeatmapGroups handles GET /json/experiments/{accession}/heatmap-groups.
func (h *ExperimentsHandler) HandleHeatmapGroups(w http.ResponseWriter, r *http.Request) {
	const op = "api.heatmap_groups"
	acc, err := accessionOf(r)
	if err != nil {
		writeError(w, r, NewKind(op, err))
		return
	}
	b, err := h.deps.HeatmapGroupsJSON(r.Context(), acc)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeRawJSON(w, http.StatusOK, b)
}

// HandleProfiles handles POST /json/experiments/{accession}/profiles.
func (h *ExperimentsHandler) HandleProfiles(w http.ResponseWriter, r *http.Request) {
	const op = "api.profiles"
	acc, err := accessionOf(r)
	if err != nil {
		writeError(w, r, NewKind(op, err))
		return
	}
	var req types.ProfileRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	if len(req.GeneIDs) == 0 {
		writeError(w, r, WrapKind(op, ErrBadRequest, errors.New("missing gene_ids")))
		return
	}
	res, err := h.deps.BaselineProfiles(r.Context(), acc, req)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleGeneCount handles GET /json/experiments/{accession}/genes?unit=&cutoff=.
func (h *ExperimentsHandler) HandleGeneCount(w http.ResponseWriter, r *http.Request) {
	const op = "api.gene_count"
	acc, err := accessionOf(r)
	if err != nil {
		writeError(w, r, NewKind(op, err))
		return
	}
	q := r.URL.Query()
	cutoff := 0.0
	if s := q.Get("cutoff"); s != "" {
		cutoff, err = strconv.ParseFloat(s, 64)
		if err != nil {
			writeError(w, r, WrapKind(op, ErrBadRequest, fmt.Errorf("cutoff: %w", err)))
			return
		}
	}
	res, err := h.deps.GeneCount(r.Context(), acc, q.Get("unit"), cutoff)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}
