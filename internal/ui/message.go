package ui

import "github.com/desertthunder/ytsync/internal/tasks"

// planReadyMsg carries the dry-run plan shown before confirming.
type planReadyMsg struct {
	plan *tasks.Plan
	err  error
}

// progressUpdateMsg wraps one engine progress update and the channel to keep reading.
type progressUpdateMsg struct {
	update  tasks.ProgressUpdate
	updates <-chan tasks.ProgressUpdate
}

// syncCompleteMsg is sent once the engine returns.
type syncCompleteMsg struct {
	report *tasks.RunReport
	err    error
}
