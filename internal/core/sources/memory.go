package sources

import (
	"context"
	"fmt"
	"maps"

	"github.com/JonMunkholm/rankview/internal/core"
)

func init() {
	core.RegisterDriver(core.DriverDefinition{
		Info: core.DriverInfo{Name: "memory", Label: "In-memory tables"},
		Open: func(_ context.Context, p core.OpenParams) (core.Source, error) {
			return NewMemory(p.Tables), nil
		},
	})
}

// Memory serves fixed tables. It is used by tests and the demo server.
type Memory struct {
	tables map[core.Selection]*core.Table
}

// NewMemory returns a source over a copy of tables.
func NewMemory(tables map[core.Selection]*core.Table) *Memory {
	m := &Memory{tables: make(map[core.Selection]*core.Table, len(tables))}
	maps.Copy(m.tables, tables)
	return m
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Close() error { return nil }

func (m *Memory) Read(ctx context.Context, sel core.Selection) (*core.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, ok := m.tables[sel]
	if !ok {
		return nil, fmt.Errorf("%w: no table for %s", core.ErrSourceUnavailable, sel)
	}
	return &core.Table{Entries: t.Entries, Kinds: t.Kinds.Clone()}, nil
}
