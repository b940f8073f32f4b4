// Package core provides the filtered ranked dataset engine.
//
// The engine owns the rows of one admission dataset (a year and a round),
// derives the filter facets from them, and exposes the visible subset in
// rank order without copying the rows. It has no UI or transport
// dependencies; the web server and the CLI both drive it the same way.
//
// # Lifecycle
//
//  1. A [Source] is opened from the driver registry ([OpenSource]).
//  2. [Dataset.Load] validates the [Selection], reads the rows and the
//     institute classification, and derives fresh [Filters].
//  3. Callers toggle facets and narrow the rank windows through
//     [Dataset.Filters] and pick an order with [Dataset.SetSort].
//  4. [Dataset.View] yields the visible entries on demand.
//
// # Filters
//
// Categorical facets (quota, seat type, gender, branch) include every
// observed value after derivation. Institutes are filtered through two flat
// relations: a kind is enabled or not, and an institute is enabled or not.
// An entry passes the institute check only when both its institute and the
// institute's kind are enabled.
//
// # Sources
//
// Drivers register themselves at init with [RegisterDriver]:
//
//	core.RegisterDriver(core.DriverDefinition{
//	    Info: core.DriverInfo{Name: "sqlite", Label: "SQLite files"},
//	    Open: openSQLite,
//	})
//
// The sources package provides sqlite, postgres and memory drivers.
//
// # Concurrency
//
// A [Dataset] belongs to one goroutine. [Service] wraps one behind a mutex
// for the web server and gates loads with a [LoadLimiter].
//
// # Error Handling
//
// Load failures are returned as [*LoadError] wrapping one of the sentinel
// errors, so errors.Is works through them. [MapError] turns any error into
// a [UserMessage] with a support code.
package core
