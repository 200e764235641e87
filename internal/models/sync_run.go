package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/ytsync/internal/shared"
)

// Run kinds: which sync steps an invocation selected.
const (
	RunKindLibrary   = "library"
	RunKindPlaylists = "playlists"
	RunKindAll       = "all"
)

// Run statuses.
const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// RunCounts are the mutation counters of a sync run.
type RunCounts struct {
	SongsUploaded    int `json:"songs_uploaded"`
	SongsDeleted     int `json:"songs_deleted"`
	PlaylistsCreated int `json:"playlists_created"`
	PlaylistsDeleted int `json:"playlists_deleted"`
	ItemsAdded       int `json:"items_added"`
	ItemsRemoved     int `json:"items_removed"`
}

// SyncRun records one invocation of the sync command.
type SyncRun struct {
	id           string
	sequence     int
	kind         string
	musicDir     string
	status       string
	counts       RunCounts
	errorMessage string
	startedAt    time.Time
	completedAt  *time.Time
}

// NewSyncRun creates a running SyncRun started now.
func NewSyncRun(kind, musicDir string) *SyncRun {
	return &SyncRun{
		kind:      kind,
		musicDir:  musicDir,
		status:    RunStatusRunning,
		startedAt: time.Now().UTC(),
	}
}

// RunKind maps the selected sync steps to a run kind.
func RunKind(library, playlists bool) string {
	switch {
	case library && playlists:
		return RunKindAll
	case playlists:
		return RunKindPlaylists
	default:
		return RunKindLibrary
	}
}

func (r *SyncRun) ID() string              { return r.id }
func (r *SyncRun) Sequence() int           { return r.sequence }
func (r *SyncRun) Kind() string            { return r.kind }
func (r *SyncRun) MusicDir() string        { return r.musicDir }
func (r *SyncRun) Status() string          { return r.status }
func (r *SyncRun) Counts() RunCounts       { return r.counts }
func (r *SyncRun) ErrorMessage() string    { return r.errorMessage }
func (r *SyncRun) StartedAt() time.Time    { return r.startedAt }
func (r *SyncRun) CompletedAt() *time.Time { return r.completedAt }

// CreatedAt is the start time of the run.
func (r *SyncRun) CreatedAt() time.Time { return r.startedAt }

// UpdatedAt is the completion time, or the start time while the run is in progress.
func (r *SyncRun) UpdatedAt() time.Time {
	if r.completedAt != nil {
		return *r.completedAt
	}
	return r.startedAt
}

// Duration returns how long the run took, or zero while it is in progress.
func (r *SyncRun) Duration() time.Duration {
	if r.completedAt == nil {
		return 0
	}
	return r.completedAt.Sub(r.startedAt)
}

func (r *SyncRun) SetID(id string)             { r.id = id }
func (r *SyncRun) SetSequence(sequence int)    { r.sequence = sequence }
func (r *SyncRun) SetStatus(status string)     { r.status = status }
func (r *SyncRun) SetCounts(counts RunCounts)  { r.counts = counts }
func (r *SyncRun) SetErrorMessage(msg string)  { r.errorMessage = msg }
func (r *SyncRun) SetStartedAt(t time.Time)    { r.startedAt = t }
func (r *SyncRun) SetCompletedAt(t *time.Time) { r.completedAt = t }

// Succeed marks the run as finished without error.
func (r *SyncRun) Succeed(counts RunCounts) {
	now := time.Now().UTC()
	r.status = RunStatusSucceeded
	r.counts = counts
	r.completedAt = &now
}

// Fail marks the run as finished with err. Counts hold the work applied before the failure.
func (r *SyncRun) Fail(counts RunCounts, err error) {
	now := time.Now().UTC()
	r.status = RunStatusFailed
	r.counts = counts
	if err != nil {
		r.errorMessage = err.Error()
	}
	r.completedAt = &now
}

// Validate checks kind, status and directory.
func (r *SyncRun) Validate() error {
	switch r.kind {
	case RunKindLibrary, RunKindPlaylists, RunKindAll:
	default:
		return fmt.Errorf("%w: unknown run kind %q", shared.ErrInvalidInput, r.kind)
	}
	switch r.status {
	case RunStatusRunning, RunStatusSucceeded, RunStatusFailed:
	default:
		return fmt.Errorf("%w: unknown run status %q", shared.ErrInvalidInput, r.status)
	}
	if r.musicDir == "" {
		return fmt.Errorf("%w: music directory is required", shared.ErrInvalidInput)
	}
	if r.startedAt.IsZero() {
		return fmt.Errorf("%w: start time is required", shared.ErrInvalidInput)
	}
	return nil
}
