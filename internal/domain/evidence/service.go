package evidence

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/okian/gxa/internal/domain/dedupe"
	"github.com/okian/gxa/internal/domain/design"
	"github.com/okian/gxa/internal/domain/model"
	"github.com/okian/gxa/pkg/logger"
	"github.com/okian/gxa/pkg/metrics"
)

const defaultResourceVersion = "prod.30"

// DifferentialQuery selects the top genes of one contrast.
type DifferentialQuery struct {
	Accession        string
	ContrastID       string
	FoldChangeCutoff float64
	PValueCutoff     float64
	// Limit <= 0 means no limit.
	Limit int
}

// ExpressionSource is the differential analytics index.
type ExpressionSource interface {
	DifferentialExpressions(ctx context.Context, q DifferentialQuery) ([]Expression, error)
}

// FileSource opens the per-experiment files evidence is built from.
type FileSource interface {
	PercentileRanks(ctx context.Context, accession string) (io.ReadCloser, error)
	AnalysisMethods(ctx context.Context, accession string) (io.ReadCloser, error)
}

// Options are the per-request cut-offs.
type Options struct {
	FoldChangeCutoff    float64
	PValueCutoff        float64
	MaxGenesPerContrast int
}

// DefaultOptions keep every gene with a result.
func DefaultOptions() Options {
	return Options{FoldChangeCutoff: 0, PValueCutoff: 1, MaxGenesPerContrast: -1}
}

// Service streams evidence records for differential experiments.
type Service struct {
	source  ExpressionSource
	files   FileSource
	version string
	log     logger.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithResourceVersion sets the provenance database version of every record.
func WithResourceVersion(v string) Option {
	return func(s *Service) {
		if v != "" {
			s.version = v
		}
	}
}

// NewService returns a Service over the given sources.
func NewService(source ExpressionSource, files FileSource, opts ...Option) *Service {
	s := &Service{
		source:  source,
		files:   files,
		version: defaultResourceVersion,
		log:     logger.Get().Named("evidence"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ForExperiment calls yield for each evidence record of exp. An ineligible
// experiment yields nothing and is not an error. Stops at the first error
// from the sources or from yield.
func (s *Service) ForExperiment(ctx context.Context, exp *model.Experiment, d design.Store, opts Options, yield func(Record) error) error {
	if ok, reason := Eligible(exp, d); !ok {
		metrics.RecordExperimentSkipped(string(reason))
		s.log.Debug(ctx, "experiment skipped",
			logger.String("accession", exp.Accession),
			logger.String("reason", string(reason)))
		return nil
	}

	var assocs []DiseaseAssociation
	for _, c := range exp.Contrasts() {
		a, reason := associate(d, c)
		if reason != SkipNone {
			metrics.RecordContrastSkipped(string(reason))
			continue
		}
		assocs = append(assocs, a)
	}
	if len(assocs) == 0 {
		return nil
	}

	method, err := s.methodDescription(ctx, exp.Accession)
	if err != nil {
		return err
	}
	ranks, err := s.percentileRanks(ctx, exp)
	if err != nil {
		return err
	}

	seen := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
	emitted := 0
	for _, a := range assocs {
		if err := ctx.Err(); err != nil {
			return err
		}
		exprs, err := s.source.DifferentialExpressions(ctx, DifferentialQuery{
			Accession:        exp.Accession,
			ContrastID:       a.Contrast.ID(),
			FoldChangeCutoff: opts.FoldChangeCutoff,
			PValueCutoff:     opts.PValueCutoff,
			Limit:            opts.MaxGenesPerContrast,
		})
		if err != nil {
			return fmt.Errorf("differential expressions of %s/%s: %w", exp.Accession, a.Contrast.ID(), err)
		}
		for _, e := range topGenes(exprs, opts) {
			for _, term := range a.Disease.OntologyTerms {
				r := buildRecord(recordInput{
					exp:     exp,
					assoc:   a,
					disease: term,
					expr:    e,
					rank:    ranks.Rank(e.GeneID, a.Contrast.ID()),
					method:  method,
					version: s.version,
				})
				if seen.SeenAndRecord(ctx, dedupe.Key(r.key()...)) {
					continue
				}
				if err := yield(r); err != nil {
					return err
				}
				emitted++
				metrics.RecordEvidenceRecord(a.Confidence.String())
			}
		}
	}
	s.log.Info(ctx, "evidence generated",
		logger.String("accession", exp.Accession),
		logger.Int("contrasts", len(assocs)),
		logger.Int("records", emitted))
	return nil
}

// topGenes applies the cut-offs and orders by absolute fold change, largest first.
func topGenes(exprs []Expression, opts Options) []Expression {
	out := make([]Expression, 0, len(exprs))
	for _, e := range exprs {
		if math.Abs(e.FoldChange) < opts.FoldChangeCutoff {
			continue
		}
		if e.PValue > opts.PValueCutoff {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(out[i].FoldChange) > math.Abs(out[j].FoldChange)
	})
	if opts.MaxGenesPerContrast > 0 && len(out) > opts.MaxGenesPerContrast {
		out = out[:opts.MaxGenesPerContrast]
	}
	return out
}

func (s *Service) methodDescription(ctx context.Context, accession string) (string, error) {
	rc, err := s.files.AnalysisMethods(ctx, accession)
	if err != nil {
		return "", fmt.Errorf("analysis methods of %s: %w", accession, err)
	}
	defer rc.Close()
	return MethodDescription(rc)
}

func (s *Service) percentileRanks(ctx context.Context, exp *model.Experiment) (Ranks, error) {
	rc, err := s.files.PercentileRanks(ctx, exp.Accession)
	if err != nil {
		return nil, fmt.Errorf("percentile ranks of %s: %w", exp.Accession, err)
	}
	defer rc.Close()
	return PercentileRanks(rc, exp)
}
