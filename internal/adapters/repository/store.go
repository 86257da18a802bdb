// Package repository loads experiment metadata and designs, and opens the
// per-experiment files kept next to them.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/okian/gxa/internal/domain/design"
	"github.com/okian/gxa/internal/domain/model"
)

// Catalog resolves accessions to experiments and their designs. Returned
// values are shared and must not be modified.
type Catalog interface {
	Experiment(ctx context.Context, accession string) (*model.Experiment, error)
	Design(ctx context.Context, accession string) (*design.Design, error)
	Accessions(ctx context.Context) ([]string, error)
}

// document is the stored form of one experiment.
type document struct {
	Accession   string               `json:"accession"`
	Type        model.ExperimentType `json:"type"`
	Species     model.Species        `json:"species"`
	Description string               `json:"description"`
	LastUpdate  time.Time            `json:"last_update"`
	PubMedIDs   []string             `json:"pubmed_ids,omitempty"`
	Display     displayDocument      `json:"display"`
	AssayGroups []groupDocument      `json:"assay_groups"`
	Contrasts   []contrastDocument   `json:"contrasts,omitempty"`
	Assays      []assayDocument      `json:"assays"`
}

type displayDocument struct {
	DefaultQueryFactorType string            `json:"default_query_factor_type"`
	FactorTypes            []string          `json:"factor_types,omitempty"`
	DefaultFilterValues    map[string]string `json:"default_filter_values,omitempty"`
}

type groupDocument struct {
	ID     string   `json:"id"`
	Assays []string `json:"assays"`
}

type contrastDocument struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Reference   string `json:"reference"`
	Test        string `json:"test"`
	Primary     bool   `json:"primary,omitempty"`
	ArrayDesign string `json:"array_design,omitempty"`
}

type assayDocument struct {
	ID              string                        `json:"id"`
	Characteristics []design.SampleCharacteristic `json:"characteristics,omitempty"`
	Factors         []design.Factor               `json:"factors,omitempty"`
}

type entry struct {
	experiment *model.Experiment
	design     *design.Design
}

// decode parses one experiment document.
func decode(r io.Reader) (entry, error) {
	var doc document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return entry{}, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if strings.TrimSpace(doc.Accession) == "" {
		return entry{}, fmt.Errorf("%w: missing accession", ErrInvalidDocument)
	}

	b := design.NewBuilder()
	for _, a := range doc.Assays {
		for _, sc := range a.Characteristics {
			b.AddSampleCharacteristic(a.ID, sc)
		}
		for _, f := range a.Factors {
			b.AddFactor(a.ID, f)
		}
	}
	d, err := b.Build()
	if err != nil {
		return entry{}, fmt.Errorf("design of %s: %w", doc.Accession, err)
	}

	groups := make(map[string]model.AssayGroup, len(doc.AssayGroups))
	ordered := make([]model.AssayGroup, 0, len(doc.AssayGroups))
	for _, g := range doc.AssayGroups {
		ag := model.NewAssayGroup(g.ID, g.Assays...)
		groups[g.ID] = ag
		ordered = append(ordered, ag)
	}

	exp := &model.Experiment{
		Accession:   doc.Accession,
		Type:        doc.Type,
		Species:     doc.Species,
		Description: doc.Description,
		LastUpdate:  doc.LastUpdate,
		PubMedIDs:   doc.PubMedIDs,
		Display: model.NewDisplayDefaults(doc.Display.DefaultQueryFactorType,
			doc.Display.FactorTypes, doc.Display.DefaultFilterValues),
	}
	switch {
	case doc.Type.IsBaseline():
		exp.Variant = model.Baseline{AssayGroups: ordered}
	case doc.Type.IsDifferential():
		contrasts := make([]model.Contrast, 0, len(doc.Contrasts))
		for _, c := range doc.Contrasts {
			ref, ok := groups[c.Reference]
			if !ok {
				return entry{}, fmt.Errorf("%s contrast %s reference %s: %w", doc.Accession, c.ID, c.Reference, ErrUnknownGroup)
			}
			test, ok := groups[c.Test]
			if !ok {
				return entry{}, fmt.Errorf("%s contrast %s test %s: %w", doc.Accession, c.ID, c.Test, ErrUnknownGroup)
			}
			mc := model.NewContrast(c.ID, c.Name, ref, test)
			mc.PrimaryAnnotation = c.Primary
			mc.ArrayDesign = c.ArrayDesign
			contrasts = append(contrasts, mc)
		}
		exp.Variant = model.Differential{Contrasts: contrasts}
	default:
		return entry{}, fmt.Errorf("%w: %s has no experiment type", ErrInvalidDocument, doc.Accession)
	}
	return entry{experiment: exp, design: d}, nil
}
