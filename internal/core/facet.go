package core

import (
	"fmt"
	"slices"
)

// FacetName identifies a categorical facet.
type FacetName string

const (
	FacetQuota    FacetName = "quota"
	FacetSeatType FacetName = "seatType"
	FacetGender   FacetName = "gender"
	FacetBranch   FacetName = "branch"
)

// FacetNames returns the categorical facets in display order.
func FacetNames() []FacetName {
	return []FacetName{FacetQuota, FacetSeatType, FacetGender, FacetBranch}
}

// Facet holds the observed values of one categorical field and whether each
// value is currently included.
type Facet struct {
	name     FacetName
	values   []string
	included map[string]bool
}

func newFacet(name FacetName, observed map[string]struct{}) *Facet {
	f := &Facet{
		name:     name,
		values:   make([]string, 0, len(observed)),
		included: make(map[string]bool, len(observed)),
	}
	for v := range observed {
		f.values = append(f.values, v)
		f.included[v] = true
	}
	slices.Sort(f.values)
	return f
}

// Name returns the facet's name.
func (f *Facet) Name() FacetName { return f.name }

// Values returns the observed values in sorted order.
func (f *Facet) Values() []string {
	return slices.Clone(f.values)
}

// Included reports whether v is included. A value the data never produced
// is not a member.
func (f *Facet) Included(v string) bool {
	return f.included[v]
}

// Has reports whether v was observed in the loaded data.
func (f *Facet) Has(v string) bool {
	_, ok := f.included[v]
	return ok
}

// Set includes or excludes one observed value.
func (f *Facet) Set(v string, included bool) error {
	if !f.Has(v) {
		return fmt.Errorf("%w: %s %q", ErrUnknownFacetValue, f.name, v)
	}
	f.included[v] = included
	return nil
}

// SetAll includes or excludes every value.
func (f *Facet) SetAll(included bool) {
	for v := range f.included {
		f.included[v] = included
	}
}

// Selected returns the included values in sorted order.
func (f *Facet) Selected() []string {
	out := make([]string, 0, len(f.values))
	for _, v := range f.values {
		if f.included[v] {
			out = append(out, v)
		}
	}
	return out
}

// State returns a copy of the value → included map.
func (f *Facet) State() map[string]bool {
	out := make(map[string]bool, len(f.included))
	for k, v := range f.included {
		out[k] = v
	}
	return out
}

func (f *Facet) clone() *Facet {
	return &Facet{
		name:     f.name,
		values:   slices.Clone(f.values),
		included: f.State(),
	}
}
