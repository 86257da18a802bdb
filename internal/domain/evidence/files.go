package evidence

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/okian/gxa/internal/domain/model"
)

const (
	notAvailable           = "NA"
	differentialExpression = "differential expression"
)

var markup = regexp.MustCompile(`<.+?>`)

// Ranks holds the fold-change percentile rank of each gene in each contrast.
type Ranks map[string]map[string]int

// Rank returns the rank of gene in contrast, nil when not ranked.
func (r Ranks) Rank(gene, contrastID string) *int {
	byContrast, ok := r[gene]
	if !ok {
		return nil
	}
	v, ok := byContrast[contrastID]
	if !ok {
		return nil
	}
	return &v
}

func tsvReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true
	return cr
}

// PercentileRanks reads a percentile-ranks table. The header maps each column
// after the first to a contrast id; columns naming no contrast of exp are ignored.
func PercentileRanks(r io.Reader, exp *model.Experiment) (Ranks, error) {
	cr := tsvReader(r)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return Ranks{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrMalformedRanks, err)
	}
	columns := make(map[int]string)
	for i := 1; i < len(header); i++ {
		id := strings.TrimSpace(header[i])
		if _, ok := exp.Contrast(id); ok {
			columns[i] = id
		}
	}

	ranks := Ranks{}
	for {
		line, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedRanks, err)
		}
		if len(line) == 0 || line[0] == "" {
			continue
		}
		byContrast := make(map[string]int, len(columns))
		for i, id := range columns {
			if i >= len(line) {
				continue
			}
			v := strings.TrimSpace(line[i])
			if v == notAvailable || v == "" {
				continue
			}
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("%w: gene %s, contrast %s: %v", ErrMalformedRanks, line[0], id, err)
			}
			byContrast[id] = n
		}
		ranks[line[0]] = byContrast
	}
	return ranks, nil
}

// MethodDescription returns the differential expression method from an
// analysis-methods table, with markup removed. Empty when there is none.
func MethodDescription(r io.Reader) (string, error) {
	cr := tsvReader(r)
	for {
		line, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return "", nil
		}
		if err != nil {
			return "", fmt.Errorf("analysis methods: %w", err)
		}
		if len(line) < 2 {
			continue
		}
		if strings.Contains(strings.ToLower(line[0]), differentialExpression) {
			return strings.TrimSpace(markup.ReplaceAllString(line[1], "")), nil
		}
	}
}
