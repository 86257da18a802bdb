// Package model contains the experiment metadata passed between layers.
package model

import (
	"fmt"
	"sort"
)

// Descriptor is anything that names a set of assays: an assay group or a contrast.
type Descriptor interface {
	ID() string
	AssayIDs() []string
}

// AssayGroup is a named set of replicate assays.
type AssayGroup struct {
	id       string
	assayIDs []string
}

// NewAssayGroup returns an AssayGroup with a private copy of assayIDs.
func NewAssayGroup(id string, assayIDs ...string) AssayGroup {
	return AssayGroup{id: id, assayIDs: append([]string(nil), assayIDs...)}
}

func (g AssayGroup) ID() string { return g.id }

// AssayIDs returns a copy of the member assays.
func (g AssayGroup) AssayIDs() []string { return append([]string(nil), g.assayIDs...) }

// Size is the replicate count.
func (g AssayGroup) Size() int { return len(g.assayIDs) }

// FirstAssayID returns the representative assay used for factor lookups.
func (g AssayGroup) FirstAssayID() string {
	if len(g.assayIDs) == 0 {
		return ""
	}
	return g.assayIDs[0]
}

// Contrast is a comparison of a test group against a reference group.
type Contrast struct {
	id                string
	DisplayName       string
	Reference         AssayGroup
	Test              AssayGroup
	PrimaryAnnotation bool
	ArrayDesign       string
}

// NewContrast builds a Contrast with the given id, e.g. "g1_g2".
func NewContrast(id, displayName string, reference, test AssayGroup) Contrast {
	return Contrast{id: id, DisplayName: displayName, Reference: reference, Test: test}
}

func (c Contrast) ID() string { return c.id }

// AssayIDs returns reference assays followed by test assays.
func (c Contrast) AssayIDs() []string {
	out := make([]string, 0, c.Reference.Size()+c.Test.Size())
	out = append(out, c.Reference.assayIDs...)
	return append(out, c.Test.assayIDs...)
}

// BaselineExpression is a five-number summary of replicate levels. A single
// measured value is represented by repeating it five times.
type BaselineExpression struct {
	Min, Q1, Median, Q3, Max float64
}

// NewBaselineExpression returns the degenerate tuple for a single value.
func NewBaselineExpression(v float64) BaselineExpression {
	return BaselineExpression{Min: v, Q1: v, Median: v, Q3: v, Max: v}
}

// NewQuartiles sorts a copy of values and maps it to min, q1, median, q3, max.
func NewQuartiles(values []float64) (BaselineExpression, error) {
	if len(values) != 5 {
		return BaselineExpression{}, fmt.Errorf("got %d values: %w", len(values), ErrQuartileArity)
	}
	v := append([]float64(nil), values...)
	sort.Float64s(v)
	return BaselineExpression{Min: v[0], Q1: v[1], Median: v[2], Q3: v[3], Max: v[4]}, nil
}

// Level is the representative level of the expression (the median).
func (e BaselineExpression) Level() float64 { return e.Median }

// Values returns the tuple in ascending order.
func (e BaselineExpression) Values() []float64 {
	return []float64{e.Min, e.Q1, e.Median, e.Q3, e.Max}
}
