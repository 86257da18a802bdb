package grouping

import (
	"strings"

	"github.com/okian/gxa/internal/domain/design"
	"github.com/okian/gxa/internal/domain/model"
)

// Build computes the filter groups of exp over its design d.
//
// The result is ordered: the comparison group (differential only), the factor
// groups, then groups for sample characteristics not covered by a factor.
// Group names are canonical headers and unique across the list.
func Build(exp *model.Experiment, d design.Store) ([]FilterGroup, error) {
	if exp == nil {
		return nil, ErrUnsupportedExperiment
	}
	kind := exp.Kind()
	if kind != model.KindBaseline && kind != model.KindDifferential {
		return nil, ErrUnsupportedExperiment
	}

	descriptors := exp.Descriptors()
	assays, assayToIDs := indexAssays(descriptors)

	groups := make([]FilterGroup, 0, 8)
	taken := make(map[string]struct{})

	if kind == model.KindDifferential {
		groups = append(groups, comparisonGroup(exp.Contrasts()))
		taken[design.Normalize(ComparisonName)] = struct{}{}
	}

	primary := make(map[string]struct{})
	if kind == model.KindBaseline {
		for _, ft := range exp.Display.FactorTypes {
			if h := design.Normalize(ft); h != "" {
				primary[h] = struct{}{}
			}
		}
	}

	for _, h := range candidateHeaders(exp.Display, d) {
		if _, dup := taken[h]; dup {
			continue
		}
		taken[h] = struct{}{}
		selected, ok := exp.Display.DefaultFilterValue(h)
		if !ok || selected == "" {
			selected = SelectAll
		}
		_, isPrimary := primary[h]
		og := newOrderedGroupings()
		for _, a := range assays {
			f, ok := d.Factor(a, h)
			if !ok {
				continue
			}
			og.add(f.Value, assayToIDs[a]...)
		}
		groups = append(groups, FilterGroup{
			Name:      h,
			Primary:   isPrimary,
			Selected:  selected,
			Groupings: og.list(),
		})
	}

	for _, raw := range d.SampleCharacteristicHeaders() {
		h := design.Normalize(raw)
		if h == "" {
			continue
		}
		if _, dup := taken[h]; dup {
			continue
		}
		taken[h] = struct{}{}
		og := newOrderedGroupings()
		for _, a := range assays {
			sc, ok := d.SampleCharacteristic(a, h)
			if !ok {
				continue
			}
			og.add(sc.Value, assayToIDs[a]...)
		}
		groups = append(groups, FilterGroup{
			Name:      h,
			Selected:  SelectAll,
			Groupings: og.list(),
		})
	}
	return groups, nil
}

// indexAssays flattens descriptor assays in first-seen order and maps each
// assay to the ids of every descriptor containing it.
func indexAssays(descriptors []model.Descriptor) ([]string, map[string][]string) {
	var order []string
	byAssay := make(map[string][]string)
	for _, desc := range descriptors {
		id := desc.ID()
		for _, a := range desc.AssayIDs() {
			ids, seen := byAssay[a]
			if !seen {
				order = append(order, a)
			}
			if !contains(ids, id) {
				byAssay[a] = append(ids, id)
			}
		}
	}
	return order, byAssay
}

func comparisonGroup(contrasts []model.Contrast) FilterGroup {
	og := newOrderedGroupings()
	for _, c := range contrasts {
		og.add(c.DisplayName, c.ID())
	}
	return FilterGroup{
		Name:      ComparisonName,
		Primary:   true,
		Selected:  SelectAll,
		Groupings: og.list(),
	}
}

func candidateHeaders(dd model.DisplayDefaults, d design.Store) []string {
	raw := make([]string, 0, 2+len(dd.FactorTypes))
	raw = append(raw, dd.DefaultQueryFactorType)
	raw = append(raw, dd.FactorTypes...)
	raw = append(raw, d.FactorHeaders()...)

	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if strings.TrimSpace(r) == "" {
			continue
		}
		h := design.Normalize(r)
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
