// Package evidence decides which contrasts of a differential experiment link
// genes to diseases and renders those links as Open Targets evidence records.
package evidence

import (
	"strings"

	"github.com/okian/gxa/internal/domain/design"
	"github.com/okian/gxa/internal/domain/model"
)

// Confidence of a disease association.
type Confidence int

const (
	Low Confidence = iota
	Medium
	High
)

func (c Confidence) String() string {
	switch c {
	case Medium:
		return "medium"
	case High:
		return "high"
	}
	return "low"
}

func (c Confidence) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// SkipReason names why an experiment or contrast produced no evidence.
type SkipReason string

const (
	SkipNone                   SkipReason = ""
	SkipNotHuman               SkipReason = "not_human"
	SkipMicroRNA               SkipReason = "microrna"
	SkipCellLineWithoutDisease SkipReason = "cell_line_without_disease_factor"
	SkipNotDifferential        SkipReason = "not_differential"
	SkipNoBiosample            SkipReason = "no_biosample"
	SkipNoDisease              SkipReason = "no_disease"
)

const (
	headerOrganismPart = "organism part"
	headerCellLine     = "cell line"
	headerCellType     = "cell type"
	headerDisease      = "disease"
)

// biosample headers in priority order
var biosampleHeaders = []string{headerOrganismPart, headerCellLine, headerCellType}

// values marking a disease characteristic as a non-disease sample
var nonDiseaseMarkers = []string{"normal", "healthy", "control"}

// DiseaseAssociation links one contrast to the disease of its test samples.
type DiseaseAssociation struct {
	Contrast       model.Contrast
	Biosample      design.SampleCharacteristic
	Disease        design.SampleCharacteristic
	OrganismPart   design.SampleCharacteristic
	ReferenceLabel string
	TestLabel      string
	Confidence     Confidence
	Primary        bool
}

// Eligible reports whether the experiment may produce evidence at all, and
// the reason when it may not.
func Eligible(exp *model.Experiment, d design.Store) (bool, SkipReason) {
	switch {
	case exp.Kind() != model.KindDifferential:
		return false, SkipNotDifferential
	case !exp.Species.IsHuman():
		return false, SkipNotHuman
	case exp.Type.IsMicroRNA():
		return false, SkipMicroRNA
	case cellLineWithoutDiseaseFactor(d):
		return false, SkipCellLineWithoutDisease
	}
	return true, SkipNone
}

// studies on cell lines are rarely disease-curated unless disease was varied
func cellLineWithoutDiseaseFactor(d design.Store) bool {
	cellLine := d.HasSampleCharacteristicHeader(headerCellLine) || d.HasFactorHeader(headerCellLine)
	return cellLine && !d.HasFactorHeader(headerDisease)
}

// Associate resolves the disease association of contrast c.
func Associate(_ *model.Experiment, d design.Store, c model.Contrast) (DiseaseAssociation, bool) {
	a, reason := associate(d, c)
	return a, reason == SkipNone
}

func associate(d design.Store, c model.Contrast) (DiseaseAssociation, SkipReason) {
	testAssay := c.Test.FirstAssayID()
	biosample, ok := biosampleOf(d, testAssay)
	if !ok {
		return DiseaseAssociation{}, SkipNoBiosample
	}
	disease, ok := diseaseOf(d, testAssay)
	if !ok {
		return DiseaseAssociation{}, SkipNoDisease
	}
	organismPart, ok := d.SampleCharacteristic(testAssay, headerOrganismPart)
	if !ok {
		organismPart = design.SampleCharacteristic{Header: headerOrganismPart}
	}
	return DiseaseAssociation{
		Contrast:       c,
		Biosample:      biosample,
		Disease:        disease,
		OrganismPart:   organismPart,
		ReferenceLabel: sampleLabel(d, c.Reference),
		TestLabel:      sampleLabel(d, c.Test),
		Confidence:     DetermineConfidence(d, disease, c.Test, c.PrimaryAnnotation),
		Primary:        c.PrimaryAnnotation,
	}, SkipNone
}

// Associations returns the associations of every eligible contrast, in contrast order.
func Associations(exp *model.Experiment, d design.Store) []DiseaseAssociation {
	if ok, _ := Eligible(exp, d); !ok {
		return nil
	}
	var out []DiseaseAssociation
	for _, c := range exp.Contrasts() {
		if a, ok := Associate(exp, d, c); ok {
			out = append(out, a)
		}
	}
	return out
}

func biosampleOf(d design.Store, assayID string) (design.SampleCharacteristic, bool) {
	for _, h := range biosampleHeaders {
		if sc, ok := d.SampleCharacteristic(assayID, h); ok {
			return sc, true
		}
	}
	return design.SampleCharacteristic{}, false
}

func diseaseOf(d design.Store, assayID string) (design.SampleCharacteristic, bool) {
	for _, sc := range d.SampleCharacteristics(assayID) {
		if !strings.Contains(strings.ToLower(sc.Header), headerDisease) {
			continue
		}
		if containsAny(strings.ToLower(sc.Value), nonDiseaseMarkers) {
			continue
		}
		return sc, true
	}
	return design.SampleCharacteristic{}, false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// sampleLabel joins the non-empty factor values of the group's first assay,
// e.g. "induced into quiescence; serum starved".
func sampleLabel(d design.Store, g model.AssayGroup) string {
	fs, ok := d.Factors(g.FirstAssayID())
	if !ok {
		return ""
	}
	values := make([]string, 0, fs.Len())
	for _, v := range fs.Values() {
		if v != "" {
			values = append(values, v)
		}
	}
	return strings.Join(values, "; ")
}

// DetermineConfidence grades an association:
// disease only in characteristics is low, disease among several factors or a
// contrast without the primary flag is medium, disease as the sole factor of a
// primary contrast is high.
func DetermineConfidence(d design.Store, disease design.SampleCharacteristic, test model.AssayGroup, primary bool) Confidence {
	fs, ok := d.Factors(test.FirstAssayID())
	if !ok || fs == nil {
		return Low
	}
	if !fs.Has(disease.Header) {
		return Low
	}
	if fs.Len() > 1 || !primary {
		return Medium
	}
	return High
}
