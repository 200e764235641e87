// Package ui implements an interactive terminal view of a sync run using bubbletea's Elm architecture.
//
// The [Model] walks through four views:
//  1. [PlanView] : Compute the dry-run plan
//  2. [ConfirmView] : Show the dry-run plan and ask before changing anything
//  3. [SyncView] : Follow progress updates while the engine runs
//  4. [ResultView] : Show the run report or the error that stopped it
//
// Progress updates flow through the engine's non-blocking progress channel. Each update
// message carries the channel so the next read is scheduled only after it is applied.
//
// Keys: y/n to confirm, q or ctrl+c to quit. Quitting during a sync leaves the
// caller to cancel the context it passed to [NewModel].
package ui
