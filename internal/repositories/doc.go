// Package repositories implements SQLite persistence for ytsync's run history.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// Sequence numbers give a stable "run #N" ordering independent of clock skew between runs.
package repositories
