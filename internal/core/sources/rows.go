package sources

import (
	"fmt"
	"math"

	"github.com/JonMunkholm/rankview/internal/core"
)

// rawRow holds one scanned data row before range checks.
type rawRow struct {
	institute, branch, quota, seatType, gender *string
	opening, closing                           *int64
}

func (r *rawRow) targets(withBranch bool) []any {
	t := []any{&r.institute}
	if withBranch {
		t = append(t, &r.branch)
	}
	return append(t, &r.quota, &r.seatType, &r.gender, &r.opening, &r.closing)
}

// entry validates the row. Missing text becomes empty; a missing or
// out-of-range rank is a schema mismatch.
func (r *rawRow) entry(n int) (core.Entry, error) {
	opening, err := rank(n, "orank", r.opening)
	if err != nil {
		return core.Entry{}, err
	}
	closing, err := rank(n, "crank", r.closing)
	if err != nil {
		return core.Entry{}, err
	}
	return core.NewEntry(core.EntryFields{
		Institute:   deref(r.institute),
		Branch:      deref(r.branch),
		Quota:       deref(r.quota),
		SeatType:    deref(r.seatType),
		Gender:      deref(r.gender),
		OpeningRank: opening,
		ClosingRank: closing,
	}), nil
}

func rank(n int, col string, v *int64) (uint32, error) {
	if v == nil {
		return 0, fmt.Errorf("%w: row %d: %s is NULL", core.ErrSchemaMismatch, n, col)
	}
	if *v < 0 || *v > math.MaxUint32 {
		return 0, fmt.Errorf("%w: row %d: %s %d out of range", core.ErrSchemaMismatch, n, col, *v)
	}
	return uint32(*v), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// quoteIdent quotes a column or table name for both SQLite and postgres.
func quoteIdent(name string) string {
	return `"` + name + `"`
}
