package core

import (
	"context"
	"time"
)

// Source is a read-only backing store of admission datasets.
// Implementations never write to the store.
type Source interface {
	// Name identifies the driver, e.g. "sqlite".
	Name() string

	// Read returns every row of the selection together with the
	// institute classification. Errors wrap ErrSourceUnavailable or
	// ErrSchemaMismatch.
	Read(ctx context.Context, sel Selection) (*Table, error)

	// Close releases any connections held by the source.
	Close() error
}

// Table is the full content of one selection.
type Table struct {
	Entries []Entry
	Kinds   InstituteKinds
}

// FileResolver maps a selection to a local SQLite file, fetching it first
// if it lives elsewhere.
type FileResolver interface {
	Resolve(ctx context.Context, sel Selection) (string, error)
}

// OpenParams carries everything a driver may need to open a source.
type OpenParams struct {
	Files FileResolver // used by file-based drivers

	// Used by server-based drivers.
	DatabaseURL     string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration

	Tables map[Selection]*Table // used by the memory driver
}

// OpenFunc constructs a Source.
type OpenFunc func(ctx context.Context, params OpenParams) (Source, error)

// DriverInfo contains display information about a driver.
type DriverInfo struct {
	Name  string // "sqlite"
	Label string // "SQLite files"
}

// DriverDefinition contains everything needed to open a source.
type DriverDefinition struct {
	Info DriverInfo
	Open OpenFunc
}

// MetricsRecorder receives engine measurements. Implementations must be safe
// for concurrent use.
type MetricsRecorder interface {
	ObserveLoad(sel Selection, driver string, d time.Duration, entries int, err error)
	ObserveView(sel Selection, visible int)
}

type noopMetrics struct{}

func (noopMetrics) ObserveLoad(Selection, string, time.Duration, int, error) {}
func (noopMetrics) ObserveView(Selection, int)                               {}

// Status is a snapshot of the dataset for display.
type Status struct {
	Loaded    bool      `json:"loaded"`
	Selection Selection `json:"selection"`
	LoadID    string    `json:"loadId,omitempty"`
	Driver    string    `json:"driver"`
	Entries   int       `json:"entries"`
	Visible   int       `json:"visible"`
	Sort      Sort      `json:"sort"`
	Filtered  bool      `json:"filtered"`
	LoadedAt  time.Time `json:"loadedAt,omitzero"`
}
