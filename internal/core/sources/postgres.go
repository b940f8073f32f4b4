package sources

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/rankview/internal/core"
	"github.com/JonMunkholm/rankview/internal/schema"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func init() {
	core.RegisterDriver(core.DriverDefinition{
		Info: core.DriverInfo{Name: "postgres", Label: "PostgreSQL"},
		Open: openPostgres,
	})
}

// Postgres reads selections from shared data and institutes tables keyed
// by year and round.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an existing pool. The pool is closed by Close.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func openPostgres(ctx context.Context, p core.OpenParams) (core.Source, error) {
	if p.DatabaseURL == "" {
		return nil, fmt.Errorf("%w: postgres driver needs a database URL", core.ErrSourceUnavailable)
	}

	poolConfig, err := pgxpool.ParseConfig(p.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: parse database URL: %v", core.ErrSourceUnavailable, err)
	}
	if p.MaxConns > 0 {
		poolConfig.MaxConns = int32(p.MaxConns)
	}
	if p.MinConns > 0 {
		poolConfig.MinConns = int32(p.MinConns)
	}
	if p.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = p.MaxConnLifetime
	}
	if p.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = p.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %v", core.ErrSourceUnavailable, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping: %v", core.ErrSourceUnavailable, err)
	}
	return NewPostgres(pool), nil
}

func (s *Postgres) Name() string { return "postgres" }

func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}

// Read checks both tables and reads the rows of one selection in a single
// read-only transaction.
func (s *Postgres) Read(ctx context.Context, sel core.Selection) (*core.Table, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, pgErr("begin", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	dataCols, err := pgCheck(ctx, tx, schema.Partitioned(schema.DataTable))
	if err != nil {
		return nil, err
	}
	if _, err := pgCheck(ctx, tx, schema.Partitioned(schema.InstitutesTable)); err != nil {
		return nil, err
	}

	entries, err := pgEntries(ctx, tx, sel, dataCols)
	if err != nil {
		return nil, err
	}
	kinds, err := pgKinds(ctx, tx, sel)
	if err != nil {
		return nil, err
	}
	return &core.Table{Entries: entries, Kinds: kinds}, nil
}

func pgCheck(ctx context.Context, tx pgx.Tx, spec schema.TableSpec) (map[string]bool, error) {
	rows, err := tx.Query(ctx, `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1`, spec.Name)
	if err != nil {
		return nil, pgErr("inspect "+spec.Name, err)
	}
	cols, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (schema.Column, error) {
		var c schema.Column
		err := row.Scan(&c.Name, &c.DeclType)
		return c, err
	})
	if err != nil {
		return nil, pgErr("inspect "+spec.Name, err)
	}
	return spec.Check(cols)
}

func pgEntries(ctx context.Context, tx pgx.Tx, sel core.Selection, present map[string]bool) ([]core.Entry, error) {
	cols := schema.DataTable.ColumnNames(present)
	withBranch := present["branch"]
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgColumn(c)
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE year = $1 AND round = $2",
		strings.Join(quoted, ", "), schema.DataTable.Name)

	rows, err := tx.Query(ctx, query, int32(sel.Year), int32(sel.Round))
	if err != nil {
		return nil, pgErr("select data", err)
	}
	defer rows.Close()

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
		return nil, pgErr("select data", err)
	}
	return entries, nil
}

func pgKinds(ctx context.Context, tx pgx.Tx, sel core.Selection) (core.InstituteKinds, error) {
	rows, err := tx.Query(ctx, fmt.Sprintf(
		"SELECT institute, %s FROM %s WHERE year = $1 AND round = $2",
		pgColumn("instituteType"), schema.InstitutesTable.Name),
		int32(sel.Year), int32(sel.Round))
	if err != nil {
		return nil, pgErr("select institutes", err)
	}
	defer rows.Close()

	kinds := make(core.InstituteKinds)
	for rows.Next() {
		var inst, kind *string
		if err := rows.Scan(&inst, &kind); err != nil {
			return nil, fmt.Errorf("%w: institutes: %v", core.ErrSchemaMismatch, err)
		}
		if inst == nil || kind == nil {
			continue
		}
		kinds[*inst] = *kind
	}
	if err := rows.Err(); err != nil {
		return nil, pgErr("select institutes", err)
	}
	return kinds, nil
}

// pgColumn refers to a column whose name postgres folded to lower case when
// it was created unquoted.
func pgColumn(name string) string {
	return quoteIdent(strings.ToLower(name))
}

func pgErr(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %v", core.ErrSourceUnavailable, op, err)
}
