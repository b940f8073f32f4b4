package core

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Dataset owns the entries of one loaded selection together with the
// active filters and sort.
//
// A Dataset is not safe for concurrent use. Callers sharing one across
// goroutines must serialize access, which Service does.
type Dataset struct {
	source Source

	loaded   bool
	sel      Selection
	loadID   uuid.UUID
	loadedAt time.Time

	entries []Entry
	filters *Filters
	sort    Sort

	// order is a stable permutation of entries under orderSort.
	order      []int
	orderSort  Sort
	orderValid bool
}

// NewDataset returns an unloaded dataset reading from src.
func NewDataset(src Source) *Dataset {
	return &Dataset{
		source:  src,
		filters: DeriveFilters(nil, nil),
		sort:    DefaultSort,
	}
}

// Load reads sel from the source and replaces the dataset's state.
//
// The selection is validated before any I/O. Loading the selection that is
// already loaded is a no-op. On failure the previous state is left intact.
func (d *Dataset) Load(ctx context.Context, sel Selection) error {
	if err := sel.Validate(); err != nil {
		return &LoadError{Selection: sel, Err: err}
	}
	if d.loaded && d.sel == sel {
		return nil
	}

	table, err := readTable(ctx, d.source, sel)
	if err != nil {
		return err
	}

	d.install(sel, table)
	return nil
}

// readTable performs the I/O half of a load.
func readTable(ctx context.Context, src Source, sel Selection) (*Table, error) {
	if src == nil {
		return nil, &LoadError{Selection: sel, Err: fmt.Errorf("%w: no source configured", ErrSourceUnavailable)}
	}
	table, err := src.Read(ctx, sel)
	if err != nil {
		return nil, &LoadError{Selection: sel, Err: err}
	}
	if table == nil {
		table = &Table{}
	}
	return table, nil
}

// install swaps in a fully read table. Old selections are discarded.
func (d *Dataset) install(sel Selection, table *Table) {
	d.entries = table.Entries
	d.filters = DeriveFilters(table.Entries, table.Kinds)
	d.sort = DefaultSort
	d.sel = sel
	d.loaded = true
	d.loadID = uuid.New()
	d.loadedAt = time.Now().UTC()
	d.order = nil
	d.orderValid = false
}

// IsLoaded reports whether a selection has been loaded.
func (d *Dataset) IsLoaded() bool { return d.loaded }

// Selection returns the loaded selection, or the zero Selection.
func (d *Dataset) Selection() Selection { return d.sel }

// LoadID identifies the current load. It changes on every successful load
// that replaces the state and is empty before the first one.
func (d *Dataset) LoadID() string {
	if !d.loaded {
		return ""
	}
	return d.loadID.String()
}

// CheckLoadID returns ErrStaleLoad unless id names the current load.
func (d *Dataset) CheckLoadID(id string) error {
	if !d.loaded {
		return ErrNotLoaded
	}
	if id != d.loadID.String() {
		return fmt.Errorf("%w: %q is not the current load", ErrStaleLoad, id)
	}
	return nil
}

// Len returns the number of loaded entries.
func (d *Dataset) Len() int { return len(d.entries) }

// Filters returns the live filters. Mutations through the returned pointer
// take effect on the next View.
func (d *Dataset) Filters() *Filters { return d.filters }

// Sort returns the active sort.
func (d *Dataset) Sort() Sort { return d.sort }

// SetSort changes the active sort.
func (d *Dataset) SetSort(s Sort) {
	d.sort = s
}

// ApplyFilters marks a point where callers expect the next View to reflect
// their edits. Filters are read lazily, so there is nothing to do.
func (d *Dataset) ApplyFilters() {}

// View returns the visible entries in sort order. Each call yields an
// independent sequence over the live storage; entries are not copied and
// the filters are evaluated per element as the sequence is consumed.
func (d *Dataset) View() iter.Seq[*Entry] {
	order := d.sortedOrder()
	entries := d.entries
	filters := d.filters
	return func(yield func(*Entry) bool) {
		for _, i := range order {
			e := &entries[i]
			if !filters.Matches(e) {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}

// Visible collects View into a slice.
func (d *Dataset) Visible() []*Entry {
	return slices.Collect(d.View())
}

// VisibleCount counts the visible entries without collecting them.
func (d *Dataset) VisibleCount() int {
	n := 0
	for i := range d.entries {
		if d.filters.Matches(&d.entries[i]) {
			n++
		}
	}
	return n
}

// Status returns a snapshot for display.
func (d *Dataset) Status() Status {
	st := Status{
		Loaded:    d.loaded,
		Selection: d.sel,
		LoadID:    d.LoadID(),
		Entries:   len(d.entries),
		Sort:      d.sort,
		Filtered:  !d.filters.IsUnfiltered(),
		LoadedAt:  d.loadedAt,
	}
	if d.source != nil {
		st.Driver = d.source.Name()
	}
	if d.loaded {
		st.Visible = d.VisibleCount()
	}
	return st
}

// sortedOrder returns the stable permutation of entries for the active
// sort, rebuilding it only when the sort or the entries changed.
func (d *Dataset) sortedOrder() []int {
	if d.orderValid && d.orderSort == d.sort {
		return d.order
	}
	order := make([]int, len(d.entries))
	for i := range order {
		order[i] = i
	}
	s := d.sort
	slices.SortStableFunc(order, func(a, b int) int {
		return s.Compare(&d.entries[a], &d.entries[b])
	})
	d.order = order
	d.orderSort = s
	d.orderValid = true
	return order
}
