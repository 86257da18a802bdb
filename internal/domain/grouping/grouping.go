// Package grouping builds the heatmap filter groups of an experiment: for each
// experimental variable, which assay groups or contrasts carry each value.
package grouping

import (
	"encoding/json"
	"fmt"
)

const (
	// ComparisonName is the synthetic variable listing the contrasts of a differential experiment.
	ComparisonName = "Comparison Name"
	// SelectAll marks a group with no default selection.
	SelectAll = "all"
)

// Grouping is one value of a variable and the ids carrying it.
type Grouping struct {
	Value string
	IDs   []string
}

// MarshalJSON renders the grouping as [value, [ids...]].
func (g Grouping) MarshalJSON() ([]byte, error) {
	ids := g.IDs
	if ids == nil {
		ids = []string{}
	}
	return json.Marshal([]any{g.Value, ids})
}

// UnmarshalJSON accepts the [value, [ids...]] form.
func (g *Grouping) UnmarshalJSON(b []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("grouping: want 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &g.Value); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &g.IDs)
}

// FilterGroup is a facet of the heatmap.
type FilterGroup struct {
	Name      string     `json:"name"`
	Primary   bool       `json:"primary"`
	Selected  string     `json:"selected"`
	Groupings []Grouping `json:"groupings"`
}

// Grouping returns the ids for value.
func (f FilterGroup) Grouping(value string) ([]string, bool) {
	for _, g := range f.Groupings {
		if g.Value == value {
			return g.IDs, true
		}
	}
	return nil, false
}

// orderedGroupings accumulates value -> ids, both in first-seen order.
type orderedGroupings struct {
	order []string
	ids   map[string][]string
	seen  map[string]map[string]struct{}
}

func newOrderedGroupings() *orderedGroupings {
	return &orderedGroupings{
		ids:  make(map[string][]string),
		seen: make(map[string]map[string]struct{}),
	}
}

func (o *orderedGroupings) add(value string, ids ...string) {
	s, ok := o.seen[value]
	if !ok {
		s = make(map[string]struct{})
		o.seen[value] = s
		o.order = append(o.order, value)
		o.ids[value] = []string{}
	}
	for _, id := range ids {
		if _, dup := s[id]; dup {
			continue
		}
		s[id] = struct{}{}
		o.ids[value] = append(o.ids[value], id)
	}
}

func (o *orderedGroupings) list() []Grouping {
	out := make([]Grouping, 0, len(o.order))
	for _, v := range o.order {
		out = append(out, Grouping{Value: v, IDs: o.ids[v]})
	}
	return out
}
