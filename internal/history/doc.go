// Package history persists extraction runs in SQLite.
//
// Each batch writes one row to runs and one row per started input to
// run_results. A small preferences table keeps the track index remembered
// for tracks.mode = "remember". The database is an audit trail; nothing in
// the extraction pipeline reads it back except the remembered track.
//
// Schema changes bump schemaVersion in schema.go; users delete the database
// to adopt a new schema.
package history
