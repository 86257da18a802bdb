package profiles

import (
	"context"
	"fmt"

	"github.com/okian/gxa/internal/domain/model"
	"github.com/okian/gxa/pkg/logger"
	"github.com/okian/gxa/pkg/metrics"
)

// Aggregator builds baseline profiles from one index query.
type Aggregator struct {
	index   SearchIndex
	maxRows int
	log     logger.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.log = l
		}
	}
}

// WithMaxRows caps the row count requested from the index. Zero means no cap.
func WithMaxRows(n int) Option {
	return func(a *Aggregator) {
		if n >= 0 {
			a.maxRows = n
		}
	}
}

// NewAggregator returns an Aggregator reading from index.
func NewAggregator(index SearchIndex, opts ...Option) *Aggregator {
	a := &Aggregator{index: index, log: logger.Get().Named("profiles")}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Fetch returns one profile per gene id, in the given order, with entries only
// for assay groups that had data above the cutoff.
func (a *Aggregator) Fetch(ctx context.Context, geneIDs []string, assayGroups []model.AssayGroup, prefs Preferences, accession string) (List, error) {
	if len(geneIDs) == 0 {
		return nil, ErrNoGenes
	}
	single, multi := prefs.Unit.Fields()

	columns := len(assayGroups)
	if len(prefs.SelectedColumnIDs) > 0 {
		columns = len(prefs.SelectedColumnIDs)
	}
	rows := len(geneIDs) * columns
	if a.maxRows > 0 && rows > a.maxRows {
		rows = a.maxRows
	}

	result, err := a.index.BaselineExpressions(ctx, BaselineQuery{
		Accession:     accession,
		GeneIDs:       geneIDs,
		AssayGroupIDs: prefs.SelectedColumnIDs,
		SingleField:   single,
		MultiField:    multi,
		Cutoff:        prefs.Cutoff,
		Rows:          rows,
	})
	if err != nil {
		return nil, fmt.Errorf("baseline expressions of %s: %w", accession, err)
	}

	list, err := fold(geneIDs, assayGroups, result)
	if err != nil {
		a.log.Error(ctx, "profile aggregation failed",
			logger.String("accession", accession),
			logger.Int("rows", len(result)),
			logger.Error(err))
		return nil, err
	}
	metrics.RecordProfilesAggregated(len(list))
	a.log.Debug(ctx, "profiles aggregated",
		logger.String("accession", accession),
		logger.Int("genes", len(list)),
		logger.Int("rows", len(result)))
	return list, nil
}

// Count returns the number of distinct genes of accession expressed above the cutoff.
func (a *Aggregator) Count(ctx context.Context, accession string, prefs Preferences) (int, error) {
	single, _ := prefs.Unit.Fields()
	n, err := a.index.CountGenes(ctx, accession, single, prefs.Cutoff)
	if err != nil {
		return 0, fmt.Errorf("count genes of %s: %w", accession, err)
	}
	return n, nil
}

func fold(geneIDs []string, assayGroups []model.AssayGroup, rows []Row) (List, error) {
	groups := make(map[string]model.AssayGroup, len(assayGroups))
	for _, g := range assayGroups {
		groups[g.ID()] = g
	}
	byGene := make(map[string][]Row, len(geneIDs))
	for _, r := range rows {
		byGene[r.GeneID] = append(byGene[r.GeneID], r)
	}

	list := make(List, 0, len(geneIDs))
	for _, gene := range geneIDs {
		gr, ok := byGene[gene]
		if !ok || len(gr) == 0 {
			return nil, fmt.Errorf("%s: %w", gene, ErrGeneNotIndexed)
		}
		p := &Profile{GeneID: gene, GeneName: gene}
		if gr[0].Symbol != "" {
			p.GeneName = gr[0].Symbol
		}
		for _, r := range gr {
			g, ok := groups[r.AssayGroupID]
			if !ok {
				return nil, fmt.Errorf("gene %s, assay group %s: %w", gene, r.AssayGroupID, ErrUnknownAssayGroup)
			}
			e, err := expression(r)
			if err != nil {
				return nil, fmt.Errorf("gene %s, assay group %s: %w", gene, r.AssayGroupID, err)
			}
			p.add(g, e)
		}
		list = append(list, p)
	}
	return list, nil
}

func expression(r Row) (model.BaselineExpression, error) {
	if r.Multi {
		e, err := model.NewQuartiles(r.Values)
		if err != nil {
			return model.BaselineExpression{}, fmt.Errorf("%w: %v", ErrMalformedQuartiles, err)
		}
		return e, nil
	}
	if len(r.Values) != 1 {
		return model.BaselineExpression{}, fmt.Errorf("%w: %d single values", ErrMalformedQuartiles, len(r.Values))
	}
	return model.NewBaselineExpression(r.Values[0]), nil
}
