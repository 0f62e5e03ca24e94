// Package models defines the canonical records the analytics engine reads.
//
// Upstream sources (the POS database, imported JSON exports, the local
// snapshot store) disagree on field names and types. Everything is mapped
// into these types by package ingest before any analyzer runs, so analyzers
// never deal with aliases such as stock/current_stock.
//
// # Records
//
//   - Bill: one completed sale, immutable once created
//   - Product: one inventory line
//   - Customer: one buyer profile
//   - Snapshot: a consistent set of all three, as of one instant
//
// Records are passed by value in slices. The engine never mutates them.
package models
