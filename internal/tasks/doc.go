// Package tasks reconciles the remote YouTube Music catalog with the local music directory.
//
// # Core Operations
//
// [Engine] exposes two entry points plus a combined run:
//
//  1. [Engine.SyncLibrary] : uploaded songs
//     - Scans the directory for "name [tags].mp3" files
//     - Uploads local titles missing remotely, then deletes remote titles missing locally
//
//  2. [Engine.SyncPlaylists] : single-letter playlists
//     - Builds the desired tag -> titles mapping from file names
//     - Pass A keeps, deletes and creates playlists so owned titles equal the tags
//     - Pass B edits each playlist's members in at most one removal and one addition batch
//
//  3. [Engine.Run] : either or both steps with one scan and one [Snapshot], waiting a
//     fixed settle delay between them when songs were uploaded or deleted
//
// [Engine.Plan] computes the same diffs without mutating anything.
//
// Playlists whose title is not exactly one ASCII letter are never deleted or edited.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data.
// Updates use select with default to prevent blocking and never affect control flow.
//
// # Failures
//
// Any non-success status from a mutating call stops the current pass with a
// [shared.RemoteOperationError]. Transport errors from the catalog are returned
// unchanged. Nothing is retried or rolled back; the next run recomputes a smaller diff.
package tasks
