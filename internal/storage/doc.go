// Package storage persists tracking results.
//
// Three sinks live here: a JSON snapshot holding the latest price per
// site, an append-only CSV history for spreadsheet use, and a SQLite
// history database that powers price-over-time queries.
package storage
