package design

import (
	"fmt"
	"strings"
)

// Builder accumulates assay annotations and produces an immutable Design.
// It is not safe for concurrent use.
type Builder struct {
	factorHeaders []string
	sampleHeaders []string
	// canonical -> authored header, per namespace
	factorRaw map[string]string
	sampleRaw map[string]string

	factors map[string][]Factor
	samples map[string][]SampleCharacteristic

	err error
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		factorRaw: make(map[string]string),
		sampleRaw: make(map[string]string),
		factors:   make(map[string][]Factor),
		samples:   make(map[string][]SampleCharacteristic),
	}
}

// AddSampleCharacteristic records a characteristic for assayID.
// A later value for the same assay and header replaces the earlier one.
func (b *Builder) AddSampleCharacteristic(assayID string, sc SampleCharacteristic) *Builder {
	if !b.check(assayID, sc.Header) {
		return b
	}
	if !b.register(b.sampleRaw, &b.sampleHeaders, sc.Header) {
		return b
	}
	list := b.samples[assayID]
	for i := range list {
		if SameHeader(list[i].Header, sc.Header) {
			list[i] = sc
			return b
		}
	}
	b.samples[assayID] = append(list, sc)
	return b
}

// AddFactor records a factor for assayID.
func (b *Builder) AddFactor(assayID string, f Factor) *Builder {
	if !b.check(assayID, f.Header) {
		return b
	}
	if !b.register(b.factorRaw, &b.factorHeaders, f.Header) {
		return b
	}
	list := b.factors[assayID]
	for i := range list {
		if SameHeader(list[i].Header, f.Header) {
			list[i] = f
			return b
		}
	}
	b.factors[assayID] = append(list, f)
	return b
}

func (b *Builder) check(assayID, header string) bool {
	if b.err != nil {
		return false
	}
	if strings.TrimSpace(assayID) == "" {
		b.err = ErrEmptyAssayID
		return false
	}
	if strings.TrimSpace(header) == "" {
		b.err = fmt.Errorf("assay %s: %w", assayID, ErrEmptyHeader)
		return false
	}
	return true
}

// register records header in the namespace, failing on two distinct
// authored headers that canonicalize to the same key.
func (b *Builder) register(raw map[string]string, order *[]string, header string) bool {
	key := Normalize(header)
	authored := strings.TrimSpace(header)
	prev, ok := raw[key]
	if !ok {
		raw[key] = authored
		*order = append(*order, authored)
		return true
	}
	if prev != authored {
		b.err = fmt.Errorf("%q and %q: %w", prev, authored, ErrHeaderCollision)
		return false
	}
	return true
}

// Build returns the Design or the first error recorded while adding annotations.
func (b *Builder) Build() (*Design, error) {
	if b.err != nil {
		return nil, b.err
	}
	d := &Design{
		factorHeaders: append([]string(nil), b.factorHeaders...),
		sampleHeaders: append([]string(nil), b.sampleHeaders...),
		factorKeys:    make(map[string]struct{}, len(b.factorRaw)),
		sampleKeys:    make(map[string]struct{}, len(b.sampleRaw)),
		factors:       make(map[string]*FactorSet, len(b.factors)),
		samples:       make(map[string][]SampleCharacteristic, len(b.samples)),
		sampleIndex:   make(map[string]map[string]int, len(b.samples)),
	}
	for k := range b.factorRaw {
		d.factorKeys[k] = struct{}{}
	}
	for k := range b.sampleRaw {
		d.sampleKeys[k] = struct{}{}
	}
	for assay, list := range b.factors {
		fs := &FactorSet{
			factors: append([]Factor(nil), list...),
			byType:  make(map[string]int, len(list)),
		}
		for i, f := range fs.factors {
			fs.byType[Normalize(f.Header)] = i
		}
		d.factors[assay] = fs
	}
	for assay, list := range b.samples {
		cp := append([]SampleCharacteristic(nil), list...)
		idx := make(map[string]int, len(cp))
		for i, sc := range cp {
			idx[Normalize(sc.Header)] = i
		}
		d.samples[assay] = cp
		d.sampleIndex[assay] = idx
	}
	return d, nil
}
