package core

import (
	"cmp"
	"fmt"
	"strings"
)

// Sort selects the order of the visible set.
type Sort int

const (
	OpeningAscending Sort = iota
	OpeningDescending
	ClosingAscending
	ClosingDescending
)

// DefaultSort is the order a freshly loaded dataset starts with.
const DefaultSort = ClosingAscending

var sortKeys = map[Sort]string{
	OpeningAscending:  "opening-asc",
	OpeningDescending: "opening-desc",
	ClosingAscending:  "closing-asc",
	ClosingDescending: "closing-desc",
}

var sortLabels = map[Sort]string{
	OpeningAscending:  "Ascending (OR)",
	OpeningDescending: "Descending (OR)",
	ClosingAscending:  "Ascending (CR)",
	ClosingDescending: "Descending (CR)",
}

// Sorts returns every sort in display order.
func Sorts() []Sort {
	return []Sort{OpeningAscending, OpeningDescending, ClosingAscending, ClosingDescending}
}

// ParseSort resolves a wire key such as "closing-desc".
func ParseSort(key string) (Sort, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	for s, k := range sortKeys {
		if k == key {
			return s, nil
		}
	}
	return DefaultSort, fmt.Errorf("%w %q: must be one of opening-asc, opening-desc, closing-asc, closing-desc", ErrInvalidSort, key)
}

// Key returns the wire key of the sort.
func (s Sort) Key() string {
	if k, ok := sortKeys[s]; ok {
		return k
	}
	return sortKeys[DefaultSort]
}

// String returns the display label.
func (s Sort) String() string {
	if l, ok := sortLabels[s]; ok {
		return l
	}
	return fmt.Sprintf("Sort(%d)", int(s))
}

// Valid reports whether s is one of the four defined orders.
func (s Sort) Valid() bool {
	_, ok := sortKeys[s]
	return ok
}

// Compare orders a before b when it returns a negative number. Equal keys
// compare as 0; there is no secondary key, so callers must sort stably.
func (s Sort) Compare(a, b *Entry) int {
	switch s {
	case OpeningAscending:
		return cmp.Compare(a.opening, b.opening)
	case OpeningDescending:
		return cmp.Compare(b.opening, a.opening)
	case ClosingDescending:
		return cmp.Compare(b.closing, a.closing)
	default:
		return cmp.Compare(a.closing, b.closing)
	}
}

func (s Sort) MarshalText() ([]byte, error) {
	return []byte(s.Key()), nil
}

func (s *Sort) UnmarshalText(b []byte) error {
	parsed, err := ParseSort(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
