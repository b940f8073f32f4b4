package core

import (
	"maps"
	"slices"
)

// UnclassifiedKind is the kind given to institutes that appear in the row
// table but not in the classification table.
const UnclassifiedKind = "Unclassified"

// InstituteKinds is the static institute → kind lookup read from a source's
// classification table.
type InstituteKinds map[string]string

// KindOf returns the kind of an institute.
func (k InstituteKinds) KindOf(institute string) (string, bool) {
	kind, ok := k[institute]
	return kind, ok
}

// Kinds returns the distinct kinds in sorted order.
func (k InstituteKinds) Kinds() []string {
	seen := make(map[string]struct{})
	for _, kind := range k {
		seen[kind] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}

// InstitutesOf returns the institutes of one kind in sorted order.
func (k InstituteKinds) InstitutesOf(kind string) []string {
	var out []string
	for inst, kk := range k {
		if kk == kind {
			out = append(out, inst)
		}
	}
	slices.Sort(out)
	return out
}

// Clone returns an independent copy of the lookup.
func (k InstituteKinds) Clone() InstituteKinds {
	return maps.Clone(k)
}
