// Package profiles folds search index rows into per-gene baseline expression profiles.
package profiles

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/gxa/internal/domain/model"
)

// Unit is the expression unit of baseline RNA-seq levels.
type Unit string

const (
	TPM  Unit = "TPM"
	FPKM Unit = "FPKM"
)

// ParseUnit accepts tpm or fpkm in any case; empty means TPM.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(TPM):
		return TPM, nil
	case string(FPKM):
		return FPKM, nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnknownUnit)
}

// Fields returns the single-valued and multi-valued index fields for the unit.
func (u Unit) Fields() (single, multi string) {
	if u == FPKM {
		return "expression_level_fpkm", "expression_levels_fpkm"
	}
	return "expression_level", "expression_levels"
}

// Preferences are the per-request options of an aggregation.
type Preferences struct {
	SelectedColumnIDs []string
	Unit              Unit
	Cutoff            float64
}

// BaselineQuery is one request to the bulk analytics index.
type BaselineQuery struct {
	Accession     string
	GeneIDs       []string
	AssayGroupIDs []string
	SingleField   string
	MultiField    string
	Cutoff        float64
	Rows          int
}

// Row is one (gene, assay group) hit. Values holds one reading when Multi is
// false and the replicate readings otherwise.
type Row struct {
	GeneID       string
	AssayGroupID string
	Symbol       string
	Values       []float64
	Multi        bool
}

// SearchIndex is the bulk analytics index consumed by the Aggregator.
type SearchIndex interface {
	BaselineExpressions(ctx context.Context, q BaselineQuery) ([]Row, error)
	CountGenes(ctx context.Context, accession, field string, cutoff float64) (int, error)
}

// Entry pairs an assay group with the gene's expression in it.
type Entry struct {
	AssayGroup model.AssayGroup
	Expression model.BaselineExpression
}

// Profile is the expression of one gene across assay groups with data.
type Profile struct {
	GeneID   string
	GeneName string
	Entries  []Entry
}

// Expression returns the expression in assay group id.
func (p *Profile) Expression(id string) (model.BaselineExpression, bool) {
	for _, e := range p.Entries {
		if e.AssayGroup.ID() == id {
			return e.Expression, true
		}
	}
	return model.BaselineExpression{}, false
}

// MaxExpressionLevel is the highest median across entries, 0 when empty.
func (p *Profile) MaxExpressionLevel() float64 {
	var max float64
	for i, e := range p.Entries {
		if l := e.Expression.Level(); i == 0 || l > max {
			max = l
		}
	}
	return max
}

func (p *Profile) add(g model.AssayGroup, e model.BaselineExpression) {
	p.Entries = append(p.Entries, Entry{AssayGroup: g, Expression: e})
}

// List is an ordered collection of profiles.
type List []*Profile

// GeneIDs returns the gene ids in list order.
func (l List) GeneIDs() []string {
	out := make([]string, len(l))
	for i, p := range l {
		out[i] = p.GeneID
	}
	return out
}
