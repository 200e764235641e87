package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ytsync/internal/models"
	"github.com/desertthunder/ytsync/internal/shared"
)

// ErrRunNotFound is returned when no sync run matches the requested id.
var ErrRunNotFound = errors.New("sync run not found")

var _ models.Repository[*models.SyncRun] = (*SyncRunRepository)(nil)

// SyncRunRepository implements models.Repository[*models.SyncRun] for run history.
type SyncRunRepository struct {
	db *sql.DB
}

// NewSyncRunRepository creates a new SyncRunRepository with the given database connection
func NewSyncRunRepository(db *sql.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

const syncRunColumns = `
	id, sequence, kind, music_dir, status, songs_uploaded, songs_deleted,
	playlists_created, playlists_deleted, items_added, items_removed,
	error_message, started_at, completed_at
`

// nullable maps the zero value to SQL NULL.
func nullable[T comparable](v T) any {
	var zero T
	if v == zero {
		return nil
	}
	return v
}

// Create inserts a new sync run with generated ID and sequence
func (r *SyncRunRepository) Create(run *models.SyncRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "sync_runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	counts := run.Counts()

	query := `INSERT INTO sync_runs (` + syncRunColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.Exec(query,
		id,
		sequence,
		run.Kind(),
		run.MusicDir(),
		run.Status(),
		counts.SongsUploaded,
		counts.SongsDeleted,
		counts.PlaylistsCreated,
		counts.PlaylistsDeleted,
		counts.ItemsAdded,
		counts.ItemsRemoved,
		nullable(run.ErrorMessage()),
		run.StartedAt(),
		run.CompletedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert sync run: %w", err)
	}

	run.SetID(id)
	run.SetSequence(sequence)
	return nil
}

// Get retrieves a sync run by ID
func (r *SyncRunRepository) Get(id string) (*models.SyncRun, error) {
	query := `SELECT ` + syncRunColumns + ` FROM sync_runs WHERE id = ?`

	run, err := scanSyncRun(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// Update writes the status, counters, error and completion time of a run
func (r *SyncRunRepository) Update(run *models.SyncRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		UPDATE sync_runs
		SET status = ?, songs_uploaded = ?, songs_deleted = ?, playlists_created = ?,
			playlists_deleted = ?, items_added = ?, items_removed = ?,
			error_message = ?, completed_at = ?
		WHERE id = ?
	`

	counts := run.Counts()
	result, err := r.db.Exec(query,
		run.Status(),
		counts.SongsUploaded,
		counts.SongsDeleted,
		counts.PlaylistsCreated,
		counts.PlaylistsDeleted,
		counts.ItemsAdded,
		counts.ItemsRemoved,
		nullable(run.ErrorMessage()),
		run.CompletedAt(),
		run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update sync run: %w", err)
	}
	return expectOneRow(result, run.ID())
}

// Delete removes a sync run by ID
func (r *SyncRunRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sync_runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete sync run: %w", err)
	}
	return expectOneRow(result, id)
}

// List retrieves sync runs newest first.
//
// Supported criteria: "status" and "kind" (string filters), "limit" (int, 0 for all).
func (r *SyncRunRepository) List(criteria map[string]any) ([]*models.SyncRun, error) {
	query := `SELECT ` + syncRunColumns + ` FROM sync_runs WHERE 1 = 1`
	args := []any{}

	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	if kind, ok := criteria["kind"].(string); ok && kind != "" {
		query += " AND kind = ?"
		args = append(args, kind)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer rows.Close()

	runs := []*models.SyncRun{}
	for rows.Next() {
		run, err := scanSyncRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

// Recent returns the latest limit runs.
func (r *SyncRunRepository) Recent(limit int) ([]*models.SyncRun, error) {
	return r.List(map[string]any{"limit": limit})
}

func expectOneRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// rowScanner is satisfied by both [sql.Row] and [sql.Rows].
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSyncRun(row rowScanner) (*models.SyncRun, error) {
	var (
		id           string
		sequence     int
		kind         string
		musicDir     string
		status       string
		counts       models.RunCounts
		errorMessage sql.NullString
		startedAt    time.Time
		completedAt  sql.NullTime
	)

	err := row.Scan(
		&id, &sequence, &kind, &musicDir, &status,
		&counts.SongsUploaded, &counts.SongsDeleted,
		&counts.PlaylistsCreated, &counts.PlaylistsDeleted,
		&counts.ItemsAdded, &counts.ItemsRemoved,
		&errorMessage, &startedAt, &completedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan sync run: %w", err)
	}

	run := models.NewSyncRun(kind, musicDir)
	run.SetID(id)
	run.SetSequence(sequence)
	run.SetStatus(status)
	run.SetCounts(counts)
	run.SetStartedAt(startedAt)
	if errorMessage.Valid {
		run.SetErrorMessage(errorMessage.String)
	}
	if completedAt.Valid {
		run.SetCompletedAt(&completedAt.Time)
	}

	return run, nil
}
