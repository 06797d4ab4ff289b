// Package sqlite backs the document registry and the vector index with a
// single SQLite database.
//
// The driver is modernc.org/sqlite, a pure Go port that needs no CGO, so
// the binary cross-compiles cleanly. One connection pool serves both
// driven ports:
//
//   - RegistryStore: per-document indexing state persistence
//   - VectorIndex: chunk embedding storage and cosine similarity search
//
// # Schema
//
// Versioned migrations under migrations/ (paired .up.sql and .down.sql
// files) create and evolve the schema when the store opens.
//
// # Search
//
// Similarity search scans all stored vectors and ranks them in memory via
// the shared rank package. A documentation corpus holds thousands of
// chunks, not millions, so the linear scan stays well inside interactive
// latency.
//
// # Layout and concurrency
//
// The database file defaults to ~/.ansa/data/ansa.db. SQLite runs in
// WAL mode and handles locking at the database level, so the store is
// safe for concurrent use.
package sqlite
