// Package models defines the entities ytsync persists and the persistence interfaces.
//
// The sync core keeps no state between runs. The only persisted entity is
// [SyncRun], a history row written by the CLI around each `ytsync sync`
// invocation so past runs can be listed with `ytsync history`.
//
// All persistent entities implement the [Model] interface providing ID, timestamps and validation.
// The [Repository] interface defines standard CRUD operations for database access.
package models
