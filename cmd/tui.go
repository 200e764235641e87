package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytsync/internal/models"
	"github.com/desertthunder/ytsync/internal/tasks"
	"github.com/desertthunder/ytsync/internal/ui"
)

// tuiLogPath receives logs while the interactive view owns the terminal.
const tuiLogPath = "./tmp/ytsync-tui.log"

// syncInteractive shows the plan, asks for confirmation and follows the run in a TUI.
//
// A run the user declines is not kept in history.
func (r *Runner) syncInteractive(ctx context.Context, engine *tasks.Engine, opts tasks.RunOptions, dir string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	run, finish := r.recordRun(models.RunKind(opts.Library, opts.Playlists), dir)

	model := ui.NewModel(ctx, engine, opts)
	_, err := tea.NewProgram(model, tea.WithContext(ctx), tea.WithOutput(r.output)).Run()
	return finishInteractive(run, finish, model, err)
}

// interactiveOutcome is what the TUI model knows once the program exits.
type interactiveOutcome interface {
	Started() bool
	StartedAt() time.Time
	Report() *tasks.RunReport
	Err() error
}

// finishInteractive settles the history row of an interactive run.
//
// The row is dropped only when the sync never started. Once it started, a
// program error fails the run.
func finishInteractive(run *models.SyncRun, finish func(discard bool), outcome interactiveOutcome, programErr error) error {
	if programErr != nil {
		programErr = fmt.Errorf("error running TUI: %w", programErr)
	}

	if !outcome.Started() {
		finish(true)
		if programErr != nil {
			return programErr
		}
		return outcome.Err()
	}

	runErr := outcome.Err()
	if runErr == nil {
		runErr = programErr
	}

	if run != nil {
		run.SetStartedAt(outcome.StartedAt())
		counts := runCounts(outcome.Report())
		switch {
		case runErr != nil:
			run.Fail(counts, runErr)
		case outcome.Report() != nil:
			run.Succeed(counts)
		}
	}
	finish(false)

	if programErr != nil {
		return programErr
	}
	if outcome.Report() == nil && runErr == nil {
		return fmt.Errorf("sync interrupted: %w", context.Canceled)
	}
	return runErr
}
