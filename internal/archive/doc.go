// Package archive provides the durable local store of weighing tickets.
//
// # Overview
//
// SQLiteArchive keeps every ticket ever mirrored from the remote collection
// in an SQLite table indexed by event time. The schema is created by embedded
// goose migrations when the archive is opened. Queries are built with
// squirrel and executed through database/sql.
//
// # Data Model
//
//	tickets(id TEXT PRIMARY KEY, name TEXT, weight REAL, payment TEXT, event_time INTEGER)
//
// event_time is epoch milliseconds; day queries use the shared timex.Calendar
// so they agree with the remote filtering on bucket membership.
//
// # Semantics
//
//   - UpsertMany is idempotent and atomic (one transaction per call).
//   - UpdatePayment and DeleteOne on an unknown id are no-ops.
//   - Nothing in this package prunes rows; only DeleteOne removes data.
//
// # Concurrency
//
// Open limits the pool to one connection, so statements are serialized.
package archive
