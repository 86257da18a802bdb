package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/gxa/internal/domain/design"
)

// ExperimentType is the technology and analysis of an experiment.
type ExperimentType int

const (
	TypeUnknown ExperimentType = iota
	RNASeqMRNABaseline
	ProteomicsBaseline
	RNASeqMRNADifferential
	Microarray1ColourMRNADifferential
	Microarray2ColourMRNADifferential
	Microarray1ColourMicroRNADifferential
)

var typeNames = map[ExperimentType]string{
	RNASeqMRNABaseline:                    "RNASEQ_MRNA_BASELINE",
	ProteomicsBaseline:                    "PROTEOMICS_BASELINE",
	RNASeqMRNADifferential:                "RNASEQ_MRNA_DIFFERENTIAL",
	Microarray1ColourMRNADifferential:     "MICROARRAY_1COLOUR_MRNA_DIFFERENTIAL",
	Microarray2ColourMRNADifferential:     "MICROARRAY_2COLOUR_MRNA_DIFFERENTIAL",
	Microarray1ColourMicroRNADifferential: "MICROARRAY_1COLOUR_MICRORNA_DIFFERENTIAL",
}

// ParseExperimentType accepts the upper-case name, case-insensitively.
func ParseExperimentType(s string) (ExperimentType, error) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for t, name := range typeNames {
		if name == want {
			return t, nil
		}
	}
	return TypeUnknown, fmt.Errorf("%q: %w", s, ErrUnknownExperimentType)
}

func (t ExperimentType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

func (t ExperimentType) MarshalText() ([]byte, error) {
	if _, ok := typeNames[t]; !ok {
		return nil, ErrUnknownExperimentType
	}
	return []byte(t.String()), nil
}

func (t *ExperimentType) UnmarshalText(b []byte) error {
	v, err := ParseExperimentType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func (t ExperimentType) IsBaseline() bool {
	return t == RNASeqMRNABaseline || t == ProteomicsBaseline
}

func (t ExperimentType) IsDifferential() bool {
	return t == RNASeqMRNADifferential || t.IsMicroarray()
}

func (t ExperimentType) IsMicroarray() bool {
	switch t {
	case Microarray1ColourMRNADifferential, Microarray2ColourMRNADifferential, Microarray1ColourMicroRNADifferential:
		return true
	}
	return false
}

func (t ExperimentType) IsMicroRNA() bool { return t == Microarray1ColourMicroRNADifferential }

func (t ExperimentType) IsRNASeqDifferential() bool { return t == RNASeqMRNADifferential }

// Species of the sampled organism.
type Species struct {
	Name    string `json:"name"`
	Kingdom string `json:"kingdom,omitempty"`
}

// IsHuman reports whether the species is Homo sapiens.
func (s Species) IsHuman() bool {
	return strings.EqualFold(strings.TrimSpace(s.Name), "homo sapiens")
}

// DisplayDefaults is per-experiment configuration of the heatmap.
type DisplayDefaults struct {
	DefaultQueryFactorType string
	FactorTypes            []string
	// keyed by canonical header
	defaultFilterValues map[string]string
}

// NewDisplayDefaults canonicalizes the filter value keys.
func NewDisplayDefaults(defaultQueryFactorType string, factorTypes []string, filterValues map[string]string) DisplayDefaults {
	d := DisplayDefaults{
		DefaultQueryFactorType: defaultQueryFactorType,
		FactorTypes:            append([]string(nil), factorTypes...),
		defaultFilterValues:    make(map[string]string, len(filterValues)),
	}
	for k, v := range filterValues {
		d.defaultFilterValues[design.Normalize(k)] = v
	}
	return d
}

// DefaultFilterValue returns the configured default selection for header.
func (d DisplayDefaults) DefaultFilterValue(header string) (string, bool) {
	v, ok := d.defaultFilterValues[design.Normalize(header)]
	return v, ok
}

// DefaultFilterValues returns a copy of the canonical-header keyed defaults.
func (d DisplayDefaults) DefaultFilterValues() map[string]string {
	out := make(map[string]string, len(d.defaultFilterValues))
	for k, v := range d.defaultFilterValues {
		out[k] = v
	}
	return out
}

// Kind discriminates the experiment variants.
type Kind int

const (
	KindUnknown Kind = iota
	KindBaseline
	KindDifferential
)

func (k Kind) String() string {
	switch k {
	case KindBaseline:
		return "baseline"
	case KindDifferential:
		return "differential"
	}
	return "unknown"
}

// Variant carries the kind-specific part of an experiment. It is implemented
// only by Baseline and Differential.
type Variant interface {
	Kind() Kind
	descriptors() []Descriptor
}

// Baseline experiments describe expression across assay groups.
type Baseline struct {
	AssayGroups []AssayGroup
}

func (Baseline) Kind() Kind { return KindBaseline }

func (b Baseline) descriptors() []Descriptor {
	out := make([]Descriptor, len(b.AssayGroups))
	for i := range b.AssayGroups {
		out[i] = b.AssayGroups[i]
	}
	return out
}

// Differential experiments compare groups through contrasts.
type Differential struct {
	Contrasts []Contrast
}

func (Differential) Kind() Kind { return KindDifferential }

func (d Differential) descriptors() []Descriptor {
	out := make([]Descriptor, len(d.Contrasts))
	for i := range d.Contrasts {
		out[i] = d.Contrasts[i]
	}
	return out
}

// Experiment is the immutable metadata for one accession.
type Experiment struct {
	Accession   string
	Type        ExperimentType
	Species     Species
	Description string
	LastUpdate  time.Time
	PubMedIDs   []string
	Display     DisplayDefaults
	Variant     Variant
}

// Kind returns the variant kind, KindUnknown when none is set.
func (e *Experiment) Kind() Kind {
	if e.Variant == nil {
		return KindUnknown
	}
	return e.Variant.Kind()
}

// Descriptors returns assay groups (baseline) or contrasts (differential) in experiment order.
func (e *Experiment) Descriptors() []Descriptor {
	if e.Variant == nil {
		return nil
	}
	return e.Variant.descriptors()
}

// AssayGroups returns the baseline assay groups, nil for other kinds.
func (e *Experiment) AssayGroups() []AssayGroup {
	if b, ok := e.Variant.(Baseline); ok {
		return b.AssayGroups
	}
	return nil
}

// Contrasts returns the differential contrasts, nil for other kinds.
func (e *Experiment) Contrasts() []Contrast {
	if d, ok := e.Variant.(Differential); ok {
		return d.Contrasts
	}
	return nil
}

// Descriptor finds an assay group or contrast by id.
func (e *Experiment) Descriptor(id string) (Descriptor, bool) {
	for _, d := range e.Descriptors() {
		if d.ID() == id {
			return d, true
		}
	}
	return nil, false
}

// Contrast finds a contrast by id.
func (e *Experiment) Contrast(id string) (Contrast, bool) {
	for _, c := range e.Contrasts() {
		if c.ID() == id {
			return c, true
		}
	}
	return Contrast{}, false
}
