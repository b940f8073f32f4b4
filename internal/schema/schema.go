// Package schema describes the tables an admissions source must provide and
// checks a live table against that description.
package schema

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/rankview/internal/core"
)

// ColumnType is the storage class a column is expected to have.
type ColumnType int

const (
	ColumnText ColumnType = iota
	ColumnInteger
	ColumnOther
)

func (t ColumnType) String() string {
	switch t {
	case ColumnText:
		return "text"
	case ColumnInteger:
		return "integer"
	default:
		return "other"
	}
}

// ColumnSpec defines one expected column.
type ColumnSpec struct {
	Name     string     // column name, matched case-insensitively
	Type     ColumnType // expected type affinity
	Required bool       // table is unusable without it
}

// TableSpec defines an expected table.
type TableSpec struct {
	Name    string
	Columns []ColumnSpec
}

// Column is a column as reported by the database.
type Column struct {
	Name     string
	DeclType string
}

// Affinity maps a declared column type to a ColumnType using SQLite's
// affinity rules, which also cover the postgres type names we accept.
// An empty declaration has no affinity and is reported as ColumnOther.
func Affinity(declType string) ColumnType {
	t := strings.ToUpper(declType)
	switch {
	case strings.Contains(t, "INT"):
		return ColumnInteger
	case strings.Contains(t, "CHAR"), strings.Contains(t, "CLOB"), strings.Contains(t, "TEXT"):
		return ColumnText
	default:
		return ColumnOther
	}
}

// Check compares the live columns of a table against its declared columns. Missing
// required columns and columns of the wrong type are reported together as
// one error wrapping core.ErrSchemaMismatch. The returned set lists the
// optional columns that are present.
func (t TableSpec) Check(cols []Column) (map[string]bool, error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: table %q not found", core.ErrSchemaMismatch, t.Name)
	}

	live := make(map[string]Column, len(cols))
	for _, c := range cols {
		live[strings.ToLower(c.Name)] = c
	}

	present := make(map[string]bool)
	var problems []string
	for _, spec := range t.Columns {
		col, ok := live[strings.ToLower(spec.Name)]
		if !ok {
			if spec.Required {
				problems = append(problems, fmt.Sprintf("missing column %q", spec.Name))
			}
			continue
		}
		if got := Affinity(col.DeclType); got != spec.Type {
			problems = append(problems, fmt.Sprintf("column %q is %s (%q), want %s", spec.Name, got, col.DeclType, spec.Type))
			continue
		}
		present[spec.Name] = true
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: table %q: %s", core.ErrSchemaMismatch, t.Name, strings.Join(problems, "; "))
	}
	return present, nil
}

// ColumnNames returns the present columns in declaration order, which is
// the order readers scan them in.
func (t TableSpec) ColumnNames(present map[string]bool) []string {
	var out []string
	for _, c := range t.Columns {
		if present[c.Name] {
			out = append(out, c.Name)
		}
	}
	return out
}
