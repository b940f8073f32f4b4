package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"testing"

	"github.com/JonMunkholm/rankview/internal/config"
	"github.com/JonMunkholm/rankview/internal/core"
	"github.com/JonMunkholm/rankview/internal/core/sources"
)

var sel2024r1 = core.Selection{Year: 2024, Round: 1}

func fixtureEntry(institute, branch, quota, seat, gender string, opening, closing uint32) core.Entry {
	return core.NewEntry(core.EntryFields{
		Institute:   institute,
		Branch:      branch,
		Quota:       quota,
		SeatType:    seat,
		Gender:      gender,
		OpeningRank: opening,
		ClosingRank: closing,
	})
}

func fixtureDeps(t *testing.T) (Deps, *bytes.Buffer) {
	t.Helper()
	tables := map[core.Selection]*core.Table{
		sel2024r1: {
			Entries: []core.Entry{
				fixtureEntry("IIT Bombay", "CSE", "AI", "OPEN", "Gender-Neutral", 1, 66),
				fixtureEntry("IIT Delhi", "EE", "AI", "OBC-NCL", "Gender-Neutral", 10, 120),
				fixtureEntry("NIT Trichy", "CSE", "HS", "OPEN", "Female-only", 150, 900),
				fixtureEntry("NIT Trichy", "ME", "OS", "SC", "Gender-Neutral", 180, 2500),
				fixtureEntry("IIIT Hyderabad", "CSE", "AI", "OPEN", "Gender-Neutral", 300, 450),
			},
			Kinds: core.InstituteKinds{
				"IIT Bombay":     "IIT",
				"IIT Delhi":      "IIT",
				"NIT Trichy":     "NIT",
				"IIIT Hyderabad": "IIIT",
			},
		},
	}

	var stdout bytes.Buffer
	return Deps{
		OpenService: func(_ context.Context, _ *config.Config, logger *slog.Logger) (*core.Service, error) {
			return core.NewService(sources.NewMemory(tables), core.Options{Logger: logger}), nil
		},
		Stdout: &stdout,
		Stderr: &bytes.Buffer{},
	}, &stdout
}

func run(t *testing.T, deps Deps, args ...string) error {
	t.Helper()
	cmd := newRootCmd(deps)
	cmd.SetArgs(args)
	return cmd.Execute()
}

type listJSON struct {
	Selection core.Selection `json:"selection"`
	Sort      core.Sort      `json:"sort"`
	Total     int            `json:"total"`
	Visible   int            `json:"visible"`
	Rows      []struct {
		Institute   string `json:"institute"`
		OpeningRank uint32 `json:"openingRank"`
		ClosingRank uint32 `json:"closingRank"`
	} `json:"rows"`
}

func listRows(t *testing.T, deps Deps, stdout *bytes.Buffer, args ...string) listJSON {
	t.Helper()
	stdout.Reset()
	if err := run(t, deps, append([]string{"list", "-y", "2024", "-r", "1", "-o", "json"}, args...)...); err != nil {
		t.Fatalf("list %v: %v", args, err)
	}
	var out listJSON
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", stdout.String(), err)
	}
	return out
}

func TestList(t *testing.T) {
	deps, stdout := fixtureDeps(t)

	tests := []struct {
		name    string
		args    []string
		closing []uint32
	}{
		{"no filters", nil, []uint32{66, 120, 450, 900, 2500}},
		{"exclude quota", []string{"--exclude-quota", "AI", "--sort", "closing-desc"}, []uint32{2500, 900}},
		{"exclude two quotas", []string{"--exclude-quota", "AI", "--exclude-quota", "HS"}, []uint32{2500}},
		{"exclude kind", []string{"--exclude-kind", "IIT", "--sort", "closing-asc"}, []uint32{450, 900, 2500}},
		{"exclude institute", []string{"--exclude-institute", "NIT Trichy"}, []uint32{66, 120, 450}},
		{"exclude branch", []string{"--exclude-branch", "CSE"}, []uint32{120, 2500}},
		{"opening window upper only", []string{"--opening", ":100"}, []uint32{66, 120}},
		{"closing window", []string{"--closing", "100:1000", "--sort", "closing-asc"}, []uint32{120, 450, 900}},
		{"limit", []string{"--sort", "opening-desc", "-n", "2"}, []uint32{450, 2500}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := listRows(t, deps, stdout, tt.args...)
			var got []uint32
			for _, r := range out.Rows {
				got = append(got, r.ClosingRank)
			}
			if !slices.Equal(got, tt.closing) {
				t.Errorf("closing ranks = %v, want %v", got, tt.closing)
			}
			if out.Selection != sel2024r1 || out.Total != 5 {
				t.Errorf("header = %+v", out)
			}
		})
	}
}

func TestList_Errors(t *testing.T) {
	deps, _ := fixtureDeps(t)

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"unknown quota", []string{"--exclude-quota", "XX"}, core.ErrUnknownFacetValue},
		{"unknown kind", []string{"--exclude-kind", "College"}, core.ErrUnknownFacetValue},
		{"bad window", []string{"--opening", "ten:20"}, core.ErrInvalidRange},
		{"bad sort", []string{"--sort", "rank"}, core.ErrInvalidSort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(t, deps, append([]string{"list", "-y", "2024", "-r", "1"}, tt.args...)...)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestList_InvalidSelectionSkipsSource(t *testing.T) {
	deps, _ := fixtureDeps(t)
	deps.OpenService = func(context.Context, *config.Config, *slog.Logger) (*core.Service, error) {
		t.Fatal("source opened for an invalid selection")
		return nil, nil
	}
	if err := run(t, deps, "list", "-y", "2024", "-r", "6"); !errors.Is(err, core.ErrInvalidSelection) {
		t.Errorf("err = %v, want ErrInvalidSelection", err)
	}
	if err := run(t, deps, "list", "-y", "99999", "-r", "1"); !errors.Is(err, core.ErrInvalidSelection) {
		t.Errorf("overflowing year: err = %v", err)
	}
}

func TestList_MissingDataset(t *testing.T) {
	deps, _ := fixtureDeps(t)
	if err := run(t, deps, "list", "-y", "2020", "-r", "2"); !errors.Is(err, core.ErrSourceUnavailable) {
		t.Errorf("err = %v, want ErrSourceUnavailable", err)
	}
}

func TestList_TableAndYAML(t *testing.T) {
	deps, stdout := fixtureDeps(t)

	if err := run(t, deps, "list", "-y", "2024", "-r", "1", "--exclude-quota", "AI"); err != nil {
		t.Fatal(err)
	}
	table := stdout.String()
	for _, want := range []string{"Institute", "NIT Trichy", "2500", "2024/1: 2 of 5 entries"} {
		if !strings.Contains(table, want) {
			t.Errorf("table output missing %q:\n%s", want, table)
		}
	}
	if strings.Contains(table, "IIT Bombay") {
		t.Error("table shows an excluded row")
	}

	stdout.Reset()
	if err := run(t, deps, "list", "-y", "2024", "-r", "1", "-n", "1", "-o", "yaml"); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"institute: IIT Bombay", "sort: closing-asc", "closingRank: 66"} {
		if !strings.Contains(stdout.String(), want) {
			t.Errorf("yaml output missing %q:\n%s", want, stdout.String())
		}
	}

	if err := run(t, deps, "list", "-y", "2024", "-r", "1", "-o", "xml"); err == nil || !strings.Contains(err.Error(), "unsupported format") {
		t.Errorf("xml format: %v", err)
	}
}

func TestFacets(t *testing.T) {
	deps, stdout := fixtureDeps(t)
	if err := run(t, deps, "facets", "-y", "2024", "-r", "1", "-o", "json"); err != nil {
		t.Fatal(err)
	}

	var out facetsOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Entries != 5 || len(out.Facets) != 4 || len(out.Kinds) != 3 {
		t.Fatalf("facets = %+v", out)
	}
	if got := out.Facets[3]; got.Name != core.FacetBranch || !slices.Equal(got.Values, []string{"CSE", "EE", "ME"}) {
		t.Errorf("branch facet = %+v", got)
	}
	if out.ClosingBounds != core.NewRankRange(0, 2500) {
		t.Errorf("closing bounds = %v", out.ClosingBounds)
	}

	stdout.Reset()
	if err := run(t, deps, "facets", "-y", "2024", "-r", "1"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout.String(), "kind: NIT") {
		t.Errorf("table output:\n%s", stdout.String())
	}
}

func TestSelections(t *testing.T) {
	deps, stdout := fixtureDeps(t)
	if err := run(t, deps, "selections", "-o", "json"); err != nil {
		t.Fatal(err)
	}
	var years []core.YearRounds
	if err := json.Unmarshal(stdout.Bytes(), &years); err != nil {
		t.Fatal(err)
	}
	if len(years) != 9 || !slices.Equal(years[1].Rounds, []int{1, 2, 3, 4, 5, 6, 7}) {
		t.Errorf("selections = %+v", years)
	}

	stdout.Reset()
	if err := run(t, deps, "selections"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout.String(), "2017") || !strings.Contains(stdout.String(), "1-7") {
		t.Errorf("table output:\n%s", stdout.String())
	}
}

func TestRoundList(t *testing.T) {
	tests := []struct {
		in   []int
		want string
	}{
		{nil, "-"},
		{[]int{1}, "1"},
		{[]int{1, 2, 3, 4, 5}, "1-5"},
	}
	for _, tt := range tests {
		if got := roundList(tt.in); got != tt.want {
			t.Errorf("roundList(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestPrinters_ReportWriteErrors(t *testing.T) {
	if err := printFacets(failingWriter{}, facetsOutput{Selection: sel2024r1}); err == nil {
		t.Error("printFacets ignored a write error")
	}
	if err := printEntries(failingWriter{}, listOutput{Selection: sel2024r1}); err == nil {
		t.Error("printEntries ignored a write error")
	}
}
