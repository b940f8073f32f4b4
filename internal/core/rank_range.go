package core

import (
	"fmt"
	"iter"
	"strconv"
	"strings"
)

// RankRange is an inclusive range of ranks with exposed bounds.
//
// A range whose Start is greater than its End is empty. Empty ranges are a
// valid state: they contain nothing and compare equal to each other no matter
// which bounds they carry.
type RankRange struct {
	Start uint32 `json:"start"`
	End   uint32 `json:"end"`
}

// EmptyRange returns the canonical empty range, [4, 3].
func EmptyRange() RankRange {
	return RankRange{Start: 4, End: 3}
}

// NewRankRange returns the range [start, end]. No validation is done;
// start > end yields an empty range.
func NewRankRange(start, end uint32) RankRange {
	return RankRange{Start: start, End: end}
}

// IsEmpty reports whether the range contains no values.
func (r RankRange) IsEmpty() bool {
	return r.Start > r.End
}

// Contains reports whether v lies within the range. Always false when empty.
func (r RankRange) Contains(v uint32) bool {
	return r.Start <= v && v <= r.End
}

// Equal reports whether two ranges have the same bounds or are both empty.
func (r RankRange) Equal(o RankRange) bool {
	if r.IsEmpty() || o.IsEmpty() {
		return r.IsEmpty() && o.IsEmpty()
	}
	return r.Start == o.Start && r.End == o.End
}

// Canonical maps every empty range to EmptyRange and leaves other ranges
// untouched. Canonical values can be compared with == and used as map keys.
func (r RankRange) Canonical() RankRange {
	if r.IsEmpty() {
		return EmptyRange()
	}
	return r
}

// Len returns the number of values in the range.
func (r RankRange) Len() uint64 {
	if r.IsEmpty() {
		return 0
	}
	return uint64(r.End) - uint64(r.Start) + 1
}

// Clamp returns the intersection of r with bounds.
func (r RankRange) Clamp(bounds RankRange) RankRange {
	if r.IsEmpty() || bounds.IsEmpty() {
		return EmptyRange()
	}
	out := r
	if out.Start < bounds.Start {
		out.Start = bounds.Start
	}
	if out.End > bounds.End {
		out.End = bounds.End
	}
	return out.Canonical()
}

// ParseRankRange parses "start:end". Either side may be omitted and then
// defaults to the matching side of bounds, so ":5000" means "up to 5000".
func ParseRankRange(v string, bounds RankRange) (RankRange, error) {
	lo, hi, ok := strings.Cut(strings.TrimSpace(v), ":")
	if !ok {
		return RankRange{}, fmt.Errorf("%w %q: want start:end", ErrInvalidRange, v)
	}
	r := bounds
	if lo = strings.TrimSpace(lo); lo != "" {
		n, err := strconv.ParseUint(lo, 10, 32)
		if err != nil {
			return RankRange{}, fmt.Errorf("%w %q: bad start", ErrInvalidRange, v)
		}
		r.Start = uint32(n)
	}
	if hi = strings.TrimSpace(hi); hi != "" {
		n, err := strconv.ParseUint(hi, 10, 32)
		if err != nil {
			return RankRange{}, fmt.Errorf("%w %q: bad end", ErrInvalidRange, v)
		}
		r.End = uint32(n)
	}
	return r, nil
}

func (r RankRange) String() string {
	if r.IsEmpty() {
		return "[empty]"
	}
	return fmt.Sprintf("[%d, %d]", r.Start, r.End)
}

// Iter returns an iterator over a copy of the range. Advancing it never
// changes r, so a range used as a filter bound can be iterated safely.
func (r RankRange) Iter() *RankIter {
	return &RankIter{next: r.Start, end: r.End, done: r.IsEmpty()}
}

// All returns the values of the range in ascending order.
func (r RankRange) All() iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		it := r.Iter()
		for v, ok := it.Next(); ok; v, ok = it.Next() {
			if !yield(v) {
				return
			}
		}
	}
}

// RankIter walks Start..End once. After the last value it stays exhausted.
type RankIter struct {
	next uint32
	end  uint32
	done bool
}

// Next returns the next value, or false once the range is exhausted.
func (it *RankIter) Next() (uint32, bool) {
	if it.done {
		return 0, false
	}
	v := it.next
	// End may be math.MaxUint32, so stop on equality instead of overflowing.
	if v == it.end {
		it.done = true
	} else {
		it.next++
	}
	return v, true
}
