package design

// OntologyTerm annotates a characteristic or factor value.
type OntologyTerm struct {
	Accession string `json:"accession"`
	Name      string `json:"name,omitempty"`
	Source    string `json:"source,omitempty"`
}

// URI returns the resolvable identifier of the term.
func (t OntologyTerm) URI() string {
	if t.Source == "" {
		return t.Accession
	}
	return t.Source + t.Accession
}

// SampleCharacteristic is descriptive, non-controlled sample metadata such as "organism part".
type SampleCharacteristic struct {
	Header        string         `json:"header"`
	Value         string         `json:"value"`
	OntologyTerms []OntologyTerm `json:"ontology_terms,omitempty"`
}

// Factor is a deliberately varied experimental variable such as "disease".
type Factor struct {
	Header        string         `json:"header"`
	Value         string         `json:"value"`
	OntologyTerms []OntologyTerm `json:"ontology_terms,omitempty"`
}

// FactorSet is the ordered set of factors recorded for one assay.
type FactorSet struct {
	factors []Factor
	byType  map[string]int
}

// Len returns the number of factors.
func (s *FactorSet) Len() int { return len(s.factors) }

// Factor returns the factor with the given header.
func (s *FactorSet) Factor(header string) (Factor, bool) {
	i, ok := s.byType[Normalize(header)]
	if !ok {
		return Factor{}, false
	}
	return s.factors[i], true
}

// Has reports whether header is one of the factors.
func (s *FactorSet) Has(header string) bool {
	_, ok := s.byType[Normalize(header)]
	return ok
}

// Factors returns a copy of the factors in design order.
func (s *FactorSet) Factors() []Factor {
	out := make([]Factor, len(s.factors))
	copy(out, s.factors)
	return out
}

// Values returns the factor values in design order.
func (s *FactorSet) Values() []string {
	out := make([]string, len(s.factors))
	for i, f := range s.factors {
		out[i] = f.Value
	}
	return out
}

// Store is the read-only view of an experiment design consumed by the
// grouping, aggregation and evidence components.
type Store interface {
	Factor(assayID, header string) (Factor, bool)
	Factors(assayID string) (*FactorSet, bool)
	SampleCharacteristic(assayID, header string) (SampleCharacteristic, bool)
	SampleCharacteristics(assayID string) []SampleCharacteristic
	FactorHeaders() []string
	SampleCharacteristicHeaders() []string
	HasFactorHeader(header string) bool
	HasSampleCharacteristicHeader(header string) bool
}

// Design is an immutable Store built by Builder.
type Design struct {
	factorHeaders []string
	sampleHeaders []string
	factorKeys    map[string]struct{}
	sampleKeys    map[string]struct{}

	factors map[string]*FactorSet
	samples map[string][]SampleCharacteristic
	// canonical header -> index into samples[assay]
	sampleIndex map[string]map[string]int
}

var _ Store = (*Design)(nil)

func (d *Design) Factor(assayID, header string) (Factor, bool) {
	fs, ok := d.factors[assayID]
	if !ok {
		return Factor{}, false
	}
	return fs.Factor(header)
}

func (d *Design) Factors(assayID string) (*FactorSet, bool) {
	fs, ok := d.factors[assayID]
	return fs, ok
}

func (d *Design) SampleCharacteristic(assayID, header string) (SampleCharacteristic, bool) {
	idx, ok := d.sampleIndex[assayID]
	if !ok {
		return SampleCharacteristic{}, false
	}
	i, ok := idx[Normalize(header)]
	if !ok {
		return SampleCharacteristic{}, false
	}
	return d.samples[assayID][i], true
}

func (d *Design) SampleCharacteristics(assayID string) []SampleCharacteristic {
	src := d.samples[assayID]
	out := make([]SampleCharacteristic, len(src))
	copy(out, src)
	return out
}

// FactorHeaders returns the authored factor headers in first-seen order.
func (d *Design) FactorHeaders() []string {
	out := make([]string, len(d.factorHeaders))
	copy(out, d.factorHeaders)
	return out
}

// SampleCharacteristicHeaders returns the authored characteristic headers in first-seen order.
func (d *Design) SampleCharacteristicHeaders() []string {
	out := make([]string, len(d.sampleHeaders))
	copy(out, d.sampleHeaders)
	return out
}

func (d *Design) HasFactorHeader(header string) bool {
	_, ok := d.factorKeys[Normalize(header)]
	return ok
}

func (d *Design) HasSampleCharacteristicHeader(header string) bool {
	_, ok := d.sampleKeys[Normalize(header)]
	return ok
}
