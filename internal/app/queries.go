package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/okian/gxa/internal/domain/design"
	"github.com/okian/gxa/internal/domain/evidence"
	"github.com/okian/gxa/internal/domain/grouping"
	"github.com/okian/gxa/internal/domain/model"
	"github.com/okian/gxa/internal/domain/profiles"
	"github.com/okian/gxa/internal/domain/types"
	"github.com/okian/gxa/pkg/metrics"
)

func (s *Service) load(ctx context.Context, accession string) (*model.Experiment, *design.Design, error) {
	if strings.TrimSpace(accession) == "" {
		return nil, nil, fmt.Errorf("%w: empty accession", ErrInvalidRequest)
	}
	exp, err := s.catalog.Experiment(ctx, accession)
	if err != nil {
		return nil, nil, err
	}
	d, err := s.catalog.Design(ctx, accession)
	if err != nil {
		return nil, nil, err
	}
	return exp, d, nil
}

// HeatmapGroups returns the filter groups of an experiment's heatmap.
func (s *Service) HeatmapGroups(ctx context.Context, accession string) ([]grouping.FilterGroup, error) {
	exp, d, err := s.load(ctx, accession)
	if err != nil {
		return nil, err
	}
	groups, err := grouping.Build(exp, d)
	if err != nil {
		return nil, fmt.Errorf("heatmap groups of %s: %w", accession, err)
	}
	metrics.RecordFilterGroupsBuilt(exp.Kind().String(), len(groups))
	return groups, nil
}

// HeatmapGroupsJSON returns the encoded filter groups, cached per accession.
// Experiments are immutable once loaded, so entries only expire or get evicted.
func (s *Service) HeatmapGroupsJSON(ctx context.Context, accession string) ([]byte, error) {
	if b, ok := s.groups.Get(accession); ok {
		metrics.RecordCacheHit(heatmapCache)
		return b, nil
	}
	metrics.RecordCacheMiss(heatmapCache)

	groups, err := s.HeatmapGroups(ctx, accession)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(groups)
	if err != nil {
		return nil, fmt.Errorf("encode heatmap groups of %s: %w", accession, err)
	}
	s.groups.Add(accession, b)
	return b, nil
}

func (s *Service) baseline(ctx context.Context, accession string) (*model.Experiment, error) {
	exp, _, err := s.load(ctx, accession)
	if err != nil {
		return nil, err
	}
	if exp.Kind() != model.KindBaseline {
		return nil, fmt.Errorf("%s: %w", accession, ErrNotBaseline)
	}
	return exp, nil
}

// BaselineProfiles returns the expression profiles of the requested genes.
func (s *Service) BaselineProfiles(ctx context.Context, accession string, req types.ProfileRequest) (types.ProfilesResponse, error) {
	exp, err := s.baseline(ctx, accession)
	if err != nil {
		return types.ProfilesResponse{}, err
	}
	unit, err := profiles.ParseUnit(req.Unit)
	if err != nil {
		return types.ProfilesResponse{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if req.Cutoff < 0 {
		return types.ProfilesResponse{}, fmt.Errorf("%w: negative cutoff", ErrInvalidRequest)
	}
	for _, id := range req.SelectedColumnIDs {
		if _, ok := exp.Descriptor(id); !ok {
			return types.ProfilesResponse{}, fmt.Errorf("%w: unknown column %s", ErrInvalidRequest, id)
		}
	}

	list, err := s.aggregator.Fetch(ctx, req.GeneIDs, exp.AssayGroups(), profiles.Preferences{
		SelectedColumnIDs: req.SelectedColumnIDs,
		Unit:              unit,
		Cutoff:            req.Cutoff,
	}, accession)
	if err != nil {
		return types.ProfilesResponse{}, err
	}

	out := types.ProfilesResponse{Accession: accession, Unit: string(unit), Profiles: make([]types.Profile, 0, len(list))}
	for _, p := range list {
		wp := types.Profile{GeneID: p.GeneID, GeneName: p.GeneName, MaxLevel: p.MaxExpressionLevel()}
		for _, e := range p.Entries {
			we := types.Expression{AssayGroupID: e.AssayGroup.ID(), Level: e.Expression.Level()}
			if e.Expression.Min != e.Expression.Max {
				we.Quartiles = e.Expression.Values()
			}
			wp.Expressions = append(wp.Expressions, we)
		}
		out.Profiles = append(out.Profiles, wp)
	}
	return out, nil
}

// GeneCount returns the number of genes of a baseline experiment expressed
// above cutoff.
func (s *Service) GeneCount(ctx context.Context, accession, unit string, cutoff float64) (types.GeneCountResponse, error) {
	if _, err := s.baseline(ctx, accession); err != nil {
		return types.GeneCountResponse{}, err
	}
	u, err := profiles.ParseUnit(unit)
	if err != nil {
		return types.GeneCountResponse{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	n, err := s.aggregator.Count(ctx, accession, profiles.Preferences{Unit: u, Cutoff: cutoff})
	if err != nil {
		return types.GeneCountResponse{}, err
	}
	return types.GeneCountResponse{Accession: accession, Unit: string(u), Cutoff: cutoff, Genes: n}, nil
}

// EvidenceDefaults returns the cut-offs applied when a request omits them.
func (s *Service) EvidenceDefaults() evidence.Options {
	return s.evidenceDefaults
}

// Evidence streams the disease evidence records of an experiment to yield.
func (s *Service) Evidence(ctx context.Context, accession string, opts evidence.Options, yield func(evidence.Record) error) error {
	exp, d, err := s.load(ctx, accession)
	if err != nil {
		return err
	}
	if opts.FoldChangeCutoff < 0 || opts.PValueCutoff < 0 || opts.PValueCutoff > 1 {
		return fmt.Errorf("%w: cut-offs out of range", ErrInvalidRequest)
	}
	return s.evidence.ForExperiment(ctx, exp, d, opts, yield)
}
