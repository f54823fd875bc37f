// Package store is the embedded engine behind grnbind: a SQLite-backed
// implementation of native.Engine.
//
// A Store owns one database file. Each Session is one engine context with
// its own id, which is the owner recorded for the locks it takes. Sessions
// are single-threaded; several sessions, in one process or in several, may
// share a database file.
//
// # Layout
//
//   - grn_objects: catalog of tables, columns and index columns
//   - grn_index_sources: sources (and sections) of index columns
//   - grn_locks: engine-level object locks, keyed by object id
//   - grn_meta: schema fingerprint and format version
//   - grn_t<id>: one data table per engine table, with _id, _key, _score
//     and one c<id> column per data column
//
// Vector values are stored as canonical JSON arrays. Compressed columns
// hold zlib, LZ4 or zstd blobs of the value's text.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - busy_timeout=5000: wait for SQLite's own locks up to 5 seconds
//   - a single connection per Store, so statements never race
//
// Text matching passes both sides through grn_normalize (NFKC plus case
// folding), a Go function registered on every connection.
//
// Every failure is reported as a status.Code. SQLite errors are mapped onto
// the nearest engine status (busy to ResourceBusy, full to
// NoSpaceLeftOnDevice, and so on).
package store
