package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/ytsync/internal/formatter"
	"github.com/desertthunder/ytsync/internal/models"
	"github.com/desertthunder/ytsync/internal/repositories"
	"github.com/desertthunder/ytsync/internal/shared"
	"github.com/desertthunder/ytsync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// musicDir resolves --dir, falling back to the configured directory.
func (r *Runner) musicDir(cmd *cli.Command) (string, error) {
	if dir := cmd.String("dir"); dir != "" {
		return dir, nil
	}
	return r.config.MusicDir()
}

func (r *Runner) newEngine(ctx context.Context, cmd *cli.Command) (*tasks.Engine, string, error) {
	dir, err := r.musicDir(cmd)
	if err != nil {
		return nil, "", err
	}

	catalog, err := r.catalogFor(ctx)
	if err != nil {
		return nil, "", err
	}

	settle := r.config.SettleDelay()
	if cmd.IsSet("settle") {
		settle = cmd.Duration("settle")
	}
	if settle <= 0 {
		settle = -1
	}

	engine := tasks.NewEngine(tasks.EngineOpts{
		Catalog:            catalog,
		Dir:                dir,
		Extension:          r.config.Library.Extension,
		SettleDelay:        settle,
		UploadLimit:        r.config.Library.UploadLimit,
		PlaylistTrackLimit: r.config.Library.PlaylistTrackLimit,
		Logger:             shared.WithLogger(r.logger, "dir", dir),
	})
	return engine, dir, nil
}

// Sync runs the library and/or playlist reconciliation.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	opts := tasks.RunOptions{Library: cmd.Bool("library"), Playlists: cmd.Bool("playlists")}
	if !opts.Library && !opts.Playlists {
		return fmt.Errorf("%w: pass --library (--upload) and/or --playlists (--update)", shared.ErrMissingArgument)
	}

	if cmd.Bool("tui") && !cmd.Bool("dry-run") {
		fileLogger, err := shared.NewFileLogger(tuiLogPath)
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		shared.SetLogLevel(fileLogger, r.logger.GetLevel())
		r.logger = fileLogger
	}

	engine, dir, err := r.newEngine(ctx, cmd)
	if err != nil {
		return err
	}

	if cmd.Bool("dry-run") {
		plan, err := engine.Plan(ctx, opts)
		if err != nil {
			return err
		}
		if cmd.Bool("json") {
			return r.writeJSON(plan, true)
		}
		return r.writePlain("%s", formatter.FormatPlan(plan))
	}

	if cmd.Bool("tui") {
		return r.syncInteractive(ctx, engine, opts, dir)
	}

	run, finish := r.recordRun(models.RunKind(opts.Library, opts.Playlists), dir)
	defer finish(false)

	progress := make(chan tasks.ProgressUpdate, 100)
	done := r.drainProgress(progress)

	report, runErr := engine.Run(ctx, opts, progress)
	close(progress)
	<-done

	if run != nil {
		counts := runCounts(report)
		if runErr != nil {
			run.Fail(counts, runErr)
		} else {
			run.Succeed(counts)
		}
	}

	if report != nil {
		var err error
		if cmd.Bool("json") {
			err = r.writeJSON(report, true)
		} else {
			err = r.writePlain("%s", formatter.FormatRunReport(report))
		}
		if err != nil && runErr == nil {
			runErr = err
		}
	}

	return runErr
}

// recordRun opens the history database and inserts a running row.
//
// History is best effort: failures are logged and the sync proceeds without it.
// finish writes the final state and closes the database; finish(true) drops the row instead.
func (r *Runner) recordRun(kind, dir string) (*models.SyncRun, func(discard bool)) {
	noop := func(bool) {}

	db, err := shared.OpenHistory(r.config.Database)
	if err != nil {
		r.logger.Warn("run history disabled", "error", err)
		return nil, noop
	}
	if db == nil {
		return nil, noop
	}

	repo := repositories.NewSyncRunRepository(db)
	run := models.NewSyncRun(kind, dir)
	if err := repo.Create(run); err != nil {
		r.logger.Warn("failed to record sync run", "error", err)
		db.Close()
		return nil, noop
	}
	r.logger.Debug("recording sync run", "id", run.ID(), "sequence", run.Sequence())

	return run, func(discard bool) {
		defer db.Close()
		if discard {
			if err := repo.Delete(run.ID()); err != nil {
				r.logger.Warn("failed to drop sync run", "id", run.ID(), "error", err)
			}
			return
		}
		if run.Status() == models.RunStatusRunning {
			run.Fail(models.RunCounts{}, errors.New("interrupted"))
		}
		if err := repo.Update(run); err != nil {
			r.logger.Warn("failed to update sync run", "id", run.ID(), "error", err)
		}
	}
}

func runCounts(report *tasks.RunReport) models.RunCounts {
	var counts models.RunCounts
	if report == nil {
		return counts
	}
	if lib := report.Library; lib != nil {
		counts.SongsUploaded = len(lib.Uploaded)
		counts.SongsDeleted = len(lib.Deleted)
	}
	if pl := report.Playlists; pl != nil {
		counts.PlaylistsCreated = len(pl.Created)
		counts.PlaylistsDeleted = len(pl.Deleted)
		counts.ItemsAdded = pl.ItemsAdded()
		counts.ItemsRemoved = pl.ItemsRemoved()
	}
	return counts
}
