package core

import (
	"errors"
	"slices"
	"testing"
)

func TestDeriveFilters_IncludesAllObservedValues(t *testing.T) {
	table := sampleTable()
	f := DeriveFilters(table.Entries, table.Kinds)

	for i := range table.Entries {
		e := &table.Entries[i]
		for _, name := range FacetNames() {
			facet := f.Facet(name)
			v := e.categorical(name)
			if !facet.Has(v) || !facet.Included(v) {
				t.Errorf("facet %s: value %q not included after derive", name, v)
			}
		}
		if !f.Matches(e) {
			t.Errorf("derived filters exclude %+v", e.Fields())
		}
	}

	if got, want := f.Facet(FacetQuota).Values(), []string{"AI", "HS", "OS"}; !slices.Equal(got, want) {
		t.Errorf("quota values = %v, want %v", got, want)
	}
	if got, want := f.Kinds(), []string{"IIIT", "IIT", "NIT"}; !slices.Equal(got, want) {
		t.Errorf("Kinds() = %v, want %v", got, want)
	}
	if got, want := f.InstitutesOf("IIT"), []string{"IIT Bombay", "IIT Delhi"}; !slices.Equal(got, want) {
		t.Errorf("InstitutesOf(IIT) = %v, want %v", got, want)
	}
}

func TestDeriveFilters_Bounds(t *testing.T) {
	table := sampleTable()
	f := DeriveFilters(table.Entries, table.Kinds)

	if want := NewRankRange(0, 300); !f.OpeningBounds().Equal(want) {
		t.Errorf("OpeningBounds = %v, want %v", f.OpeningBounds(), want)
	}
	if want := NewRankRange(0, 2500); !f.ClosingBounds().Equal(want) {
		t.Errorf("ClosingBounds = %v, want %v", f.ClosingBounds(), want)
	}
	if !f.Opening().Equal(f.OpeningBounds()) || !f.Closing().Equal(f.ClosingBounds()) {
		t.Error("working ranges should start at the bounds")
	}
	if !f.IsUnfiltered() {
		t.Error("IsUnfiltered() = false after derive")
	}
}

func TestDeriveFilters_Empty(t *testing.T) {
	f := DeriveFilters(nil, nil)

	if !f.OpeningBounds().IsEmpty() || !f.ClosingBounds().IsEmpty() {
		t.Errorf("bounds = %v / %v, want empty", f.OpeningBounds(), f.ClosingBounds())
	}
	for _, name := range FacetNames() {
		if f.Facet(name) == nil {
			t.Fatalf("facet %s missing", name)
		}
		if n := len(f.Facet(name).Values()); n != 0 {
			t.Errorf("facet %s has %d values, want 0", name, n)
		}
	}
	if len(f.Kinds()) != 0 {
		t.Errorf("Kinds() = %v, want none", f.Kinds())
	}
}

func TestDeriveFilters_UnclassifiedInstitute(t *testing.T) {
	entries := []Entry{entry("New Institute", "AI", "OPEN", "Gender-Neutral", 1, 2)}
	f := DeriveFilters(entries, InstituteKinds{"IIT Bombay": "IIT"})

	kind, ok := f.KindOf("New Institute")
	if !ok || kind != UnclassifiedKind {
		t.Errorf("KindOf = %q, %v; want %q", kind, ok, UnclassifiedKind)
	}
	if !f.Matches(&entries[0]) {
		t.Error("derived filters must include unclassified institutes")
	}
	// Classification-only institutes still get a switch.
	if !f.InstituteEnabled("IIT Bombay") {
		t.Error("IIT Bombay should be enabled")
	}
}

func TestFilters_DisablingOneQuotaExcludesExactlyThoseEntries(t *testing.T) {
	table := sampleTable()
	f := DeriveFilters(table.Entries, table.Kinds)

	if err := f.SetFacet(FacetQuota, "AI", false); err != nil {
		t.Fatalf("SetFacet: %v", err)
	}

	for i := range table.Entries {
		e := &table.Entries[i]
		want := e.Quota() != "AI"
		if got := f.Matches(e); got != want {
			t.Errorf("Matches(%s/%s) = %v, want %v", e.Institute(), e.Quota(), got, want)
		}
	}
}

func TestFilters_RankWindows(t *testing.T) {
	table := sampleTable()
	f := DeriveFilters(table.Entries, table.Kinds)

	f.SetOpening(NewRankRange(100, 200))
	for i := range table.Entries {
		e := &table.Entries[i]
		want := e.OpeningRank() >= 100 && e.OpeningRank() <= 200
		if got := f.Matches(e); got != want {
			t.Errorf("opening %d: Matches = %v, want %v", e.OpeningRank(), got, want)
		}
	}

	f.SetOpening(f.OpeningBounds())
	f.SetClosing(EmptyRange())
	for i := range table.Entries {
		if f.Matches(&table.Entries[i]) {
			t.Error("empty closing window must exclude everything")
		}
	}
}

func TestFilters_InstituteRule(t *testing.T) {
	table := sampleTable()
	tests := []struct {
		name    string
		mutate  func(f *Filters) error
		visible map[string]bool
	}{
		{
			name:   "kind disabled hides all of its institutes",
			mutate: func(f *Filters) error { return f.SetKindEnabled("IIT", false) },
			visible: map[string]bool{
				"IIT Bombay": false, "IIT Delhi": false, "NIT Trichy": true, "IIIT Hyderabad": true,
			},
		},
		{
			name:   "institute disabled hides only itself",
			mutate: func(f *Filters) error { return f.SetInstituteEnabled("IIT Delhi", false) },
			visible: map[string]bool{
				"IIT Bombay": true, "IIT Delhi": false, "NIT Trichy": true, "IIIT Hyderabad": true,
			},
		},
		{
			name: "re-enabling kind keeps per-institute flag",
			mutate: func(f *Filters) error {
				if err := f.SetInstituteEnabled("IIT Delhi", false); err != nil {
					return err
				}
				if err := f.SetKindEnabled("IIT", false); err != nil {
					return err
				}
				return f.SetKindEnabled("IIT", true)
			},
			visible: map[string]bool{
				"IIT Bombay": true, "IIT Delhi": false, "NIT Trichy": true, "IIIT Hyderabad": true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := DeriveFilters(table.Entries, table.Kinds)
			if err := tt.mutate(f); err != nil {
				t.Fatalf("mutate: %v", err)
			}
			for inst, want := range tt.visible {
				if got := f.MatchesInstitute(inst); got != want {
					t.Errorf("MatchesInstitute(%q) = %v, want %v", inst, got, want)
				}
			}
		})
	}
}

func TestFilters_UnknownInstituteNeverMatches(t *testing.T) {
	table := sampleTable()
	f := DeriveFilters(table.Entries, table.Kinds)

	if f.MatchesInstitute("Nowhere Institute") {
		t.Error("institute without a kind must not match")
	}
	stray := entry("Nowhere Institute", "AI", "OPEN", "Gender-Neutral", 1, 2)
	if f.Matches(&stray) {
		t.Error("entry for institute without a kind must not match")
	}
}

func TestFilters_UnknownValues(t *testing.T) {
	table := sampleTable()
	f := DeriveFilters(table.Entries, table.Kinds)

	cases := map[string]error{
		"facet value": f.SetFacet(FacetGender, "Unknown", false),
		"facet name":  f.SetFacet(FacetName("caste"), "x", false),
		"kind":        f.SetKindEnabled("GFTI", false),
		"institute":   f.SetInstituteEnabled("IIT Nowhere", false),
	}
	for name, err := range cases {
		if !errors.Is(err, ErrUnknownFacetValue) {
			t.Errorf("%s: err = %v, want ErrUnknownFacetValue", name, err)
		}
	}

	// A value the data never produced is not a member.
	stray := entry("IIT Bombay", "ZZ", "OPEN", "Gender-Neutral", 1, 2)
	if f.Matches(&stray) {
		t.Error("entry with unobserved quota must not match")
	}
}

func TestFilters_ResetAndClone(t *testing.T) {
	table := sampleTable()
	f := DeriveFilters(table.Entries, table.Kinds)

	clone := f.Clone()

	_ = f.SetFacet(FacetSeatType, "OPEN", false)
	_ = f.SetKindEnabled("NIT", false)
	_ = f.SetInstituteEnabled("IIT Bombay", false)
	f.SetClosing(NewRankRange(10, 20))

	if f.IsUnfiltered() {
		t.Fatal("IsUnfiltered() = true after edits")
	}
	if !clone.IsUnfiltered() {
		t.Fatal("clone changed along with the original")
	}

	f.Reset()
	if !f.IsUnfiltered() {
		t.Error("IsUnfiltered() = false after Reset")
	}
	for i := range table.Entries {
		if !f.Matches(&table.Entries[i]) {
			t.Errorf("entry %d excluded after Reset", i)
		}
	}
}

func TestFacet_SelectedAndSetAll(t *testing.T) {
	table := sampleTable()
	f := DeriveFilters(table.Entries, table.Kinds)
	facet := f.Facet(FacetSeatType)

	facet.SetAll(false)
	if got := facet.Selected(); len(got) != 0 {
		t.Errorf("Selected() = %v after SetAll(false)", got)
	}
	if err := facet.Set("SC", true); err != nil {
		t.Fatal(err)
	}
	if got := facet.Selected(); !slices.Equal(got, []string{"SC"}) {
		t.Errorf("Selected() = %v, want [SC]", got)
	}
	if st := facet.State(); st["OPEN"] || !st["SC"] {
		t.Errorf("State() = %v", st)
	}
}
