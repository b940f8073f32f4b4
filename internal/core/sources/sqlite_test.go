package sources

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/JonMunkholm/rankview/internal/core"
)

// dirResolver maps selections to <root>/<year>/data-<year>-<round>.db.
type dirResolver string

func (r dirResolver) Resolve(_ context.Context, sel core.Selection) (string, error) {
	return sel.DBPath(string(r)), nil
}

var testSel = core.Selection{Year: 2023, Round: 2}

const (
	createData = `CREATE TABLE data (
		institute TEXT, branch TEXT, quota TEXT, seatType TEXT, gender TEXT,
		orank INTEGER, crank INTEGER
	)`
	createInstitutes = `CREATE TABLE institutes (institute TEXT, instituteType TEXT)`
)

// writeDB creates the selection's file under root and runs stmts in it.
func writeDB(t *testing.T, root string, stmts ...string) {
	t.Helper()
	path := testSel.DBPath(root)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
}

func TestSQLite_Read(t *testing.T) {
	root := t.TempDir()
	writeDB(t, root,
		createData,
		createInstitutes,
		`INSERT INTO data VALUES
			('IIT Bombay', 'Computer Science', 'AI', 'OPEN', 'Gender-Neutral', 1, 66),
			('NIT Trichy', 'Civil', 'HS', 'SC', 'Female-only', 900, 1400),
			('New Institute', 'Mining', 'AI', 'OPEN', 'Gender-Neutral', 5000, 7000)`,
		`INSERT INTO institutes VALUES ('IIT Bombay', 'IIT'), ('NIT Trichy', 'NIT')`,
	)

	src := NewSQLite(dirResolver(root))
	table, err := src.Read(context.Background(), testSel)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(table.Entries) != 3 {
		t.Fatalf("read %d entries, want 3", len(table.Entries))
	}

	e := table.Entries[1]
	if e.Institute() != "NIT Trichy" || e.Branch() != "Civil" || e.SeatType() != "SC" ||
		e.Gender() != "Female-only" || e.OpeningRank() != 900 || e.ClosingRank() != 1400 {
		t.Errorf("entry = %+v", e.Fields())
	}
	if kind, _ := table.Kinds.KindOf("IIT Bombay"); kind != "IIT" {
		t.Errorf("kind of IIT Bombay = %q", kind)
	}

	// Unclassified institutes surface through DeriveFilters.
	f := core.DeriveFilters(table.Entries, table.Kinds)
	if kind, _ := f.KindOf("New Institute"); kind != core.UnclassifiedKind {
		t.Errorf("kind of New Institute = %q", kind)
	}
}

func TestSQLite_ReadWithoutBranchColumn(t *testing.T) {
	root := t.TempDir()
	writeDB(t, root,
		`CREATE TABLE data (institute TEXT, quota TEXT, seatType TEXT, gender TEXT, orank INTEGER, crank INTEGER)`,
		createInstitutes,
		`INSERT INTO data VALUES ('IIT Delhi', 'AI', 'OPEN', 'Gender-Neutral', 10, 20)`,
	)

	table, err := NewSQLite(dirResolver(root)).Read(context.Background(), testSel)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(table.Entries) != 1 || table.Entries[0].Branch() != "" {
		t.Errorf("entries = %+v", table.Entries)
	}
}

func TestSQLite_Errors(t *testing.T) {
	tests := []struct {
		name  string
		stmts []string
		want  error
	}{
		{
			name: "missing file",
			want: core.ErrSourceUnavailable,
		},
		{
			name:  "missing institutes table",
			stmts: []string{createData},
			want:  core.ErrSchemaMismatch,
		},
		{
			name: "missing rank column",
			stmts: []string{
				`CREATE TABLE data (institute TEXT, quota TEXT, seatType TEXT, gender TEXT, orank INTEGER)`,
				createInstitutes,
			},
			want: core.ErrSchemaMismatch,
		},
		{
			name: "text rank column",
			stmts: []string{
				`CREATE TABLE data (institute TEXT, quota TEXT, seatType TEXT, gender TEXT, orank TEXT, crank INTEGER)`,
				createInstitutes,
			},
			want: core.ErrSchemaMismatch,
		},
		{
			name: "null rank",
			stmts: []string{
				createData, createInstitutes,
				`INSERT INTO data VALUES ('IIT Delhi', 'CSE', 'AI', 'OPEN', 'Gender-Neutral', NULL, 20)`,
			},
			want: core.ErrSchemaMismatch,
		},
		{
			name: "negative rank",
			stmts: []string{
				createData, createInstitutes,
				`INSERT INTO data VALUES ('IIT Delhi', 'CSE', 'AI', 'OPEN', 'Gender-Neutral', 1, -20)`,
			},
			want: core.ErrSchemaMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			if len(tt.stmts) > 0 {
				writeDB(t, root, tt.stmts...)
			}
			_, err := NewSQLite(dirResolver(root)).Read(context.Background(), testSel)
			if !errors.Is(err, tt.want) {
				t.Errorf("Read() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSQLite_DoesNotWrite(t *testing.T) {
	root := t.TempDir()
	writeDB(t, root, createData, createInstitutes)
	path := testSel.DBPath(root)

	before, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewSQLite(dirResolver(root)).Read(context.Background(), testSel); err != nil {
		t.Fatalf("Read: %v", err)
	}
	after, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if !after.ModTime().Equal(before.ModTime()) || after.Size() != before.Size() {
		t.Error("reading modified the database file")
	}
}

func TestSQLite_ThroughDatasetLoad(t *testing.T) {
	root := t.TempDir()
	writeDB(t, root,
		createData, createInstitutes,
		`INSERT INTO data VALUES
			('IIT Bombay', 'CSE', 'AI', 'OPEN', 'Gender-Neutral', 100, 150),
			('IIT Bombay', 'EE', 'AI', 'OPEN', 'Gender-Neutral', 250, 300),
			('IIT Bombay', 'ME', 'AI', 'OPEN', 'Gender-Neutral', 180, 400)`,
		`INSERT INTO institutes VALUES ('IIT Bombay', 'IIT')`,
	)

	src, err := core.OpenSource(context.Background(), "sqlite", core.OpenParams{Files: dirResolver(root)})
	if err != nil {
		t.Fatalf("OpenSource: %v", err)
	}
	d := core.NewDataset(src)
	if err := d.Load(context.Background(), testSel); err != nil {
		t.Fatalf("Load: %v", err)
	}

	d.Filters().SetOpening(core.NewRankRange(100, 200))
	d.SetSort(core.OpeningDescending)
	var got []uint32
	for e := range d.View() {
		got = append(got, e.OpeningRank())
	}
	if len(got) != 2 || got[0] != 180 || got[1] != 100 {
		t.Errorf("opening ranks = %v, want [180 100]", got)
	}
}

func TestReadOnlyDSN(t *testing.T) {
	dsn, err := readOnlyDSN("/data/db/2024/data-2024-1.db")
	if err != nil {
		t.Fatal(err)
	}
	if want := "file:///data/db/2024/data-2024-1.db?mode=ro&_pragma=query_only(1)"; dsn != want {
		t.Errorf("readOnlyDSN = %q, want %q", dsn, want)
	}
}
