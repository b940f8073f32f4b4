package core

import (
	"errors"
	"fmt"
)

// Sentinel errors. Messages contain the phrases MapError matches on.
var (
	// ErrSourceUnavailable means the backing store could not be opened or read.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrSchemaMismatch means an expected table or column is missing or has
	// the wrong type.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrInvalidSelection means the year or round is outside the published
	// domain. It is reported before any I/O.
	ErrInvalidSelection = errors.New("invalid selection")

	// ErrNotLoaded is returned by operations that need a loaded dataset.
	ErrNotLoaded = errors.New("dataset not loaded")

	// ErrUnknownFacetValue is returned when toggling a value that the loaded
	// data never produced.
	ErrUnknownFacetValue = errors.New("unknown facet value")

	// ErrStaleLoad is returned when a filter edit names a load that has since
	// been replaced.
	ErrStaleLoad = errors.New("stale load")

	// ErrInvalidRange is returned for rank ranges that cannot be parsed.
	ErrInvalidRange = errors.New("invalid rank range")

	// ErrInvalidSort is returned for unknown sort keys.
	ErrInvalidSort = errors.New("invalid sort")

	// ErrUnknownDriver is returned by OpenSource for unregistered drivers.
	ErrUnknownDriver = errors.New("unknown source driver")
)

// LoadError wraps a failed load with the selection that was requested.
type LoadError struct {
	Selection Selection
	Err       error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Selection, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
