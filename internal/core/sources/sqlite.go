package sources

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/rankview/internal/core"
	"github.com/JonMunkholm/rankview/internal/schema"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

func init() {
	core.RegisterDriver(core.DriverDefinition{
		Info: core.DriverInfo{Name: "sqlite", Label: "SQLite files"},
		Open: openSQLite,
	})
}

// SQLite reads selections from one SQLite file each. Files are opened
// read-only for the duration of a single Read.
type SQLite struct {
	files core.FileResolver
}

// NewSQLite returns a source resolving files through files.
func NewSQLite(files core.FileResolver) *SQLite {
	return &SQLite{files: files}
}

func openSQLite(_ context.Context, p core.OpenParams) (core.Source, error) {
	if p.Files == nil {
		return nil, fmt.Errorf("%w: sqlite driver needs a file resolver", core.ErrSourceUnavailable)
	}
	return NewSQLite(p.Files), nil
}

func (s *SQLite) Name() string { return "sqlite" }

func (s *SQLite) Close() error { return nil }

// Read opens the selection's file, checks both tables and reads every row.
func (s *SQLite) Read(ctx context.Context, sel core.Selection) (*core.Table, error) {
	path, err := s.files.Resolve(ctx, sel)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSourceUnavailable, err)
	}

	dsn, err := readOnlyDSN(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSourceUnavailable, err)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite: %v", core.ErrSourceUnavailable, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", core.ErrSourceUnavailable, path, err)
	}

	dataCols, err := sqliteCheck(ctx, db, schema.DataTable)
	if err != nil {
		return nil, err
	}
	if _, err := sqliteCheck(ctx, db, schema.InstitutesTable); err != nil {
		return nil, err
	}

	entries, err := sqliteEntries(ctx, db, dataCols)
	if err != nil {
		return nil, err
	}
	kinds, err := sqliteKinds(ctx, db)
	if err != nil {
		return nil, err
	}
	return &core.Table{Entries: entries, Kinds: kinds}, nil
}

// readOnlyDSN builds a URI filename that SQLite opens without write access.
func readOnlyDSN(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	u := url.URL{
		Scheme:   "file",
		Path:     filepath.ToSlash(abs),
		RawQuery: "mode=ro&_pragma=query_only(1)",
	}
	return u.String(), nil
}

func sqliteCheck(ctx context.Context, db *sql.DB, spec schema.TableSpec) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT name, type FROM pragma_table_info(?)`, spec.Name)
	if err != nil {
		return nil, sqliteErr("inspect "+spec.Name, err)
	}
	defer func() { _ = rows.Close() }()

	var cols []schema.Column
	for rows.Next() {
		var c schema.Column
		if err := rows.Scan(&c.Name, &c.DeclType); err != nil {
			return nil, sqliteErr("inspect "+spec.Name, err)
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, sqliteErr("inspect "+spec.Name, err)
	}
	return spec.Check(cols)
}

func sqliteEntries(ctx context.Context, db *sql.DB, present map[string]bool) ([]core.Entry, error) {
	cols := schema.DataTable.ColumnNames(present)
	withBranch := present["branch"]
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(c)
	}
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(quoted, ", "), quoteIdent(schema.DataTable.Name))

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, sqliteErr("select data", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []core.Entry
	for n := 1; rows.Next(); n++ {
		var r rawRow
		if err := rows.Scan(r.targets(withBranch)...); err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", core.ErrSchemaMismatch, n, err)
		}
		e, err := r.entry(n)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, sqliteErr("select data", err)
	}
	return entries, nil
}

func sqliteKinds(ctx context.Context, db *sql.DB) (core.InstituteKinds, error) {
	rows, err := db.QueryContext(ctx, `SELECT "institute", "instituteType" FROM "institutes"`)
	if err != nil {
		return nil, sqliteErr("select institutes", err)
	}
	defer func() { _ = rows.Close() }()

	kinds := make(core.InstituteKinds)
	for rows.Next() {
		var inst, kind sql.NullString
		if err := rows.Scan(&inst, &kind); err != nil {
			return nil, fmt.Errorf("%w: institutes: %v", core.ErrSchemaMismatch, err)
		}
		if !inst.Valid || !kind.Valid {
			continue
		}
		kinds[inst.String] = kind.String
	}
	if err := rows.Err(); err != nil {
		return nil, sqliteErr("select institutes", err)
	}
	return kinds, nil
}

func sqliteErr(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %v", core.ErrSourceUnavailable, op, err)
}
