package core

import (
	"context"
	"fmt"
	"sync"
)

// fakeSource serves fixed tables and counts reads.
type fakeSource struct {
	mu     sync.Mutex
	tables map[Selection]*Table
	err    error
	reads  int
}

func newFakeSource(tables map[Selection]*Table) *fakeSource {
	return &fakeSource{tables: tables}
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Read(_ context.Context, sel Selection) (*Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.err != nil {
		return nil, f.err
	}
	t, ok := f.tables[sel]
	if !ok {
		return nil, fmt.Errorf("%w: no table for %s", ErrSourceUnavailable, sel)
	}
	return t, nil
}

func (f *fakeSource) Close() error { return nil }

func (f *fakeSource) readCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

func entry(institute, quota, seat, gender string, opening, closing uint32) Entry {
	return NewEntry(EntryFields{
		Institute:   institute,
		Branch:      "CSE",
		Quota:       quota,
		SeatType:    seat,
		Gender:      gender,
		OpeningRank: opening,
		ClosingRank: closing,
	})
}

func sampleTable() *Table {
	return &Table{
		Entries: []Entry{
			entry("IIT Bombay", "AI", "OPEN", "Gender-Neutral", 1, 66),
			entry("IIT Delhi", "AI", "OBC-NCL", "Gender-Neutral", 10, 120),
			entry("NIT Trichy", "HS", "OPEN", "Female-only", 150, 900),
			entry("NIT Trichy", "OS", "SC", "Gender-Neutral", 180, 2500),
			entry("IIIT Hyderabad", "AI", "OPEN", "Gender-Neutral", 300, 450),
		},
		Kinds: InstituteKinds{
			"IIT Bombay":     "IIT",
			"IIT Delhi":      "IIT",
			"NIT Trichy":     "NIT",
			"IIIT Hyderabad": "IIIT",
		},
	}
}

func rankKeys(entries []*Entry, opening bool) []uint32 {
	out := make([]uint32, len(entries))
	for i, e := range entries {
		if opening {
			out[i] = e.OpeningRank()
		} else {
			out[i] = e.ClosingRank()
		}
	}
	return out
}
