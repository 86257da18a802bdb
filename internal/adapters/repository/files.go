package repository

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/okian/gxa/internal/adapters/blob"
	"github.com/okian/gxa/internal/domain/evidence"
)

var _ evidence.FileSource = (*FileHub)(nil)

// FileHub opens the per-experiment files under experiments/{accession}/.
type FileHub struct {
	store blob.Store
}

// NewFileHub returns a FileHub reading from store.
func NewFileHub(store blob.Store) *FileHub {
	return &FileHub{store: store}
}

// PercentileRanksKey is the key of the gene percentile ranks of accession.
func PercentileRanksKey(accession string) string {
	return fmt.Sprintf("experiments/%s/%s-percentile-ranks.tsv", accession, accession)
}

// AnalysisMethodsKey is the key of the analysis methods table of accession.
func AnalysisMethodsKey(accession string) string {
	return fmt.Sprintf("experiments/%s/%s-analysis-methods.tsv", accession, accession)
}

func (h *FileHub) PercentileRanks(ctx context.Context, accession string) (io.ReadCloser, error) {
	return h.open(ctx, PercentileRanksKey(accession))
}

func (h *FileHub) AnalysisMethods(ctx context.Context, accession string) (io.ReadCloser, error) {
	return h.open(ctx, AnalysisMethodsKey(accession))
}

func (h *FileHub) open(ctx context.Context, key string) (io.ReadCloser, error) {
	_, rc, err := h.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", key, ErrMissingFile)
		}
		return nil, err
	}
	return rc, nil
}
