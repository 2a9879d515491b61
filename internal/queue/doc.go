// Package queue persists workflow items in SQLite and exposes helpers for
// driving their lifecycle.
//
// The Store manages database connections, schema initialization, stats
// queries, heartbeat tracking, and stuck-item recovery. Queue items capture
// processing progress, extracted text, and classification output so stages
// can coordinate without additional state.
//
// The database is a transient ledger for in-flight documents, never the
// system of record: the organized library and its sidecar files remain
// authoritative. Schema changes bump the version in schema.go; users clear
// the database to adopt the new schema.
package queue
