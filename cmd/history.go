package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ytsync/internal/formatter"
	"github.com/desertthunder/ytsync/internal/models"
	"github.com/desertthunder/ytsync/internal/repositories"
	"github.com/desertthunder/ytsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// historyEntry is the JSON shape of one recorded run.
type historyEntry struct {
	ID          string           `json:"id"`
	Sequence    int              `json:"sequence"`
	Kind        string           `json:"kind"`
	Dir         string           `json:"dir"`
	Status      string           `json:"status"`
	Counts      models.RunCounts `json:"counts"`
	Error       string           `json:"error,omitempty"`
	StartedAt   string           `json:"started_at"`
	CompletedAt string           `json:"completed_at,omitempty"`
}

// History prints recent sync runs from the history database.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	db, err := shared.OpenHistory(r.config.Database)
	if err != nil {
		return err
	}
	if db == nil {
		return fmt.Errorf("%w: database.path is empty, run history is disabled", shared.ErrMissingConfig)
	}
	defer db.Close()

	runs, err := repositories.NewSyncRunRepository(db).List(map[string]any{
		"limit":  cmd.Int("limit"),
		"status": cmd.String("status"),
	})
	if err != nil {
		return err
	}

	if path := cmd.String("csv"); path != "" {
		if err := formatter.WriteHistoryCSV(runs, path); err != nil {
			return err
		}
		r.logger.Info("history exported", "path", path, "runs", len(runs))
	}

	if !cmd.Bool("json") {
		return r.writePlain("%s", formatter.FormatHistory(runs))
	}

	entries := make([]historyEntry, 0, len(runs))
	for _, run := range runs {
		entry := historyEntry{
			ID:        run.ID(),
			Sequence:  run.Sequence(),
			Kind:      run.Kind(),
			Dir:       run.MusicDir(),
			Status:    run.Status(),
			Counts:    run.Counts(),
			Error:     run.ErrorMessage(),
			StartedAt: run.StartedAt().UTC().Format(timeFormat),
		}
		if at := run.CompletedAt(); at != nil {
			entry.CompletedAt = at.UTC().Format(timeFormat)
		}
		entries = append(entries, entry)
	}
	return r.writeJSON(entries, true)
}
