// Package native describes the embedded engine's native API as consumed by the
// binding layer.
//
// The binding never reimplements this surface. It only calls it, and every
// call reports its outcome as a status.Code that the caller funnels through
// status.Check. internal/store provides the SQLite-backed implementation used
// by the CLI, the harness and the tests.
//
// An Engine value is one engine context (a session). It is single-threaded:
// callers must not issue two operations on the same Engine concurrently.
package native
