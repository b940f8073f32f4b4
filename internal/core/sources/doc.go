// Package sources provides the read-only backing stores of admission
// datasets. Each driver registers itself with the core registry at init:
//
//	import _ "github.com/JonMunkholm/rankview/internal/core/sources"
//
// sqlite reads one file per selection, postgres reads year/round-keyed
// tables from a shared database, and memory serves fixed tables.
package sources
