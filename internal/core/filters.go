package core

import (
	"fmt"
	"maps"
)

// Filters holds the facet universe of a loaded dataset and the user's
// current selection within it.
//
// Filters are derived fresh on every load. Mutators only change state; the
// visible set is recomputed the next time Dataset.View is called.
type Filters struct {
	facets map[FacetName]*Facet

	kindOf           InstituteKinds
	kindEnabled      map[string]bool
	instituteEnabled map[string]bool

	opening       RankRange
	closing       RankRange
	openingBounds RankRange
	closingBounds RankRange
}

// DeriveFilters builds filters that include every entry they were derived
// from: each observed categorical value is included, each institute and
// kind is enabled, and both rank windows span [0, max].
//
// Institutes present in entries but missing from kinds are classified as
// UnclassifiedKind. With no entries, facets are empty and the bounds are the
// canonical empty range.
func DeriveFilters(entries []Entry, kinds InstituteKinds) *Filters {
	observed := make(map[FacetName]map[string]struct{}, len(FacetNames()))
	for _, name := range FacetNames() {
		observed[name] = make(map[string]struct{})
	}

	kindOf := make(InstituteKinds, len(kinds))
	maps.Copy(kindOf, kinds)

	var maxOpening, maxClosing uint32
	for i := range entries {
		e := &entries[i]
		for _, name := range FacetNames() {
			observed[name][e.categorical(name)] = struct{}{}
		}
		if _, ok := kindOf[e.institute]; !ok {
			kindOf[e.institute] = UnclassifiedKind
		}
		maxOpening = max(maxOpening, e.opening)
		maxClosing = max(maxClosing, e.closing)
	}

	f := &Filters{
		facets:           make(map[FacetName]*Facet, len(observed)),
		kindOf:           kindOf,
		kindEnabled:      make(map[string]bool),
		instituteEnabled: make(map[string]bool, len(kindOf)),
	}
	for name, values := range observed {
		f.facets[name] = newFacet(name, values)
	}
	for inst, kind := range kindOf {
		f.kindEnabled[kind] = true
		f.instituteEnabled[inst] = true
	}

	if len(entries) == 0 {
		f.openingBounds = EmptyRange()
		f.closingBounds = EmptyRange()
	} else {
		f.openingBounds = NewRankRange(0, maxOpening)
		f.closingBounds = NewRankRange(0, maxClosing)
	}
	f.opening = f.openingBounds
	f.closing = f.closingBounds
	return f
}

// Matches reports whether e is in the visible set.
func (f *Filters) Matches(e *Entry) bool {
	for _, name := range FacetNames() {
		if !f.facets[name].Included(e.categorical(name)) {
			return false
		}
	}
	return f.opening.Contains(e.opening) &&
		f.closing.Contains(e.closing) &&
		f.MatchesInstitute(e.institute)
}

// MatchesInstitute applies the institute rule: the institute's kind must be
// enabled and the institute itself must be enabled. Institutes without a
// kind never match.
func (f *Filters) MatchesInstitute(institute string) bool {
	kind, ok := f.kindOf[institute]
	if !ok {
		return false
	}
	return f.kindEnabled[kind] && f.instituteEnabled[institute]
}

// Facet returns the named categorical facet, or nil for an unknown name.
func (f *Filters) Facet(name FacetName) *Facet {
	return f.facets[name]
}

// SetFacet includes or excludes one value of a categorical facet.
func (f *Filters) SetFacet(name FacetName, value string, included bool) error {
	facet := f.facets[name]
	if facet == nil {
		return fmt.Errorf("%w: facet %q", ErrUnknownFacetValue, name)
	}
	return facet.Set(value, included)
}

// Kinds returns the institute kinds in sorted order.
func (f *Filters) Kinds() []string {
	return f.kindOf.Kinds()
}

// InstitutesOf returns the institutes of one kind in sorted order.
func (f *Filters) InstitutesOf(kind string) []string {
	return f.kindOf.InstitutesOf(kind)
}

// KindOf returns the kind an institute is classified under.
func (f *Filters) KindOf(institute string) (string, bool) {
	return f.kindOf.KindOf(institute)
}

// KindEnabled reports whether a kind is enabled.
func (f *Filters) KindEnabled(kind string) bool {
	return f.kindEnabled[kind]
}

// InstituteEnabled reports whether an institute is enabled on its own,
// regardless of its kind.
func (f *Filters) InstituteEnabled(institute string) bool {
	return f.instituteEnabled[institute]
}

// SetKindEnabled enables or disables every institute of a kind without
// touching the per-institute flags.
func (f *Filters) SetKindEnabled(kind string, enabled bool) error {
	if _, ok := f.kindEnabled[kind]; !ok {
		return fmt.Errorf("%w: institute kind %q", ErrUnknownFacetValue, kind)
	}
	f.kindEnabled[kind] = enabled
	return nil
}

// SetInstituteEnabled enables or disables one institute.
func (f *Filters) SetInstituteEnabled(institute string, enabled bool) error {
	if _, ok := f.instituteEnabled[institute]; !ok {
		return fmt.Errorf("%w: institute %q", ErrUnknownFacetValue, institute)
	}
	f.instituteEnabled[institute] = enabled
	return nil
}

// Opening returns the opening-rank window.
func (f *Filters) Opening() RankRange { return f.opening }

// Closing returns the closing-rank window.
func (f *Filters) Closing() RankRange { return f.closing }

// OpeningBounds returns the full observed opening-rank range.
func (f *Filters) OpeningBounds() RankRange { return f.openingBounds }

// ClosingBounds returns the full observed closing-rank range.
func (f *Filters) ClosingBounds() RankRange { return f.closingBounds }

// SetOpening replaces the opening-rank window.
func (f *Filters) SetOpening(r RankRange) { f.opening = r }

// SetClosing replaces the closing-rank window.
func (f *Filters) SetClosing(r RankRange) { f.closing = r }

// Reset includes every value and restores both windows to their bounds.
func (f *Filters) Reset() {
	for _, facet := range f.facets {
		facet.SetAll(true)
	}
	for k := range f.kindEnabled {
		f.kindEnabled[k] = true
	}
	for i := range f.instituteEnabled {
		f.instituteEnabled[i] = true
	}
	f.opening = f.openingBounds
	f.closing = f.closingBounds
}

// IsUnfiltered reports whether the filters are in their derived state.
func (f *Filters) IsUnfiltered() bool {
	for _, facet := range f.facets {
		if len(facet.Selected()) != len(facet.values) {
			return false
		}
	}
	for _, v := range f.kindEnabled {
		if !v {
			return false
		}
	}
	for _, v := range f.instituteEnabled {
		if !v {
			return false
		}
	}
	return f.opening.Equal(f.openingBounds) && f.closing.Equal(f.closingBounds)
}

// Clone returns a deep copy.
func (f *Filters) Clone() *Filters {
	out := &Filters{
		facets:           make(map[FacetName]*Facet, len(f.facets)),
		kindOf:           f.kindOf.Clone(),
		kindEnabled:      maps.Clone(f.kindEnabled),
		instituteEnabled: maps.Clone(f.instituteEnabled),
		opening:          f.opening,
		closing:          f.closing,
		openingBounds:    f.openingBounds,
		closingBounds:    f.closingBounds,
	}
	for name, facet := range f.facets {
		out.facets[name] = facet.clone()
	}
	return out
}
