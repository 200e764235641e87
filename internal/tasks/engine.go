package tasks

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytsync/internal/library"
	"github.com/desertthunder/ytsync/internal/services"
	"github.com/desertthunder/ytsync/internal/shared"
)

// DefaultSettleDelay is the wait between uploading songs and editing playlists.
const DefaultSettleDelay = 10 * time.Second

// RunOptions selects the steps of [Engine.Run].
type RunOptions struct {
	Library   bool
	Playlists bool
}

// RunReport is the combined result of one [Engine.Run].
type RunReport struct {
	Dir       string          `json:"dir"`
	Ignored   []string        `json:"ignored"`
	Library   *LibraryReport  `json:"library,omitempty"`
	Playlists *PlaylistReport `json:"playlists,omitempty"`
	Settled   time.Duration   `json:"settled"`
}

// Engine runs library and playlist reconciliation against one catalog and one directory.
//
// Every entry point builds a fresh [library.Scanner] and [Snapshot], so nothing is
// cached across runs. Remote calls are issued one at a time.
type Engine struct {
	catalog     services.Catalog
	dir         string
	ext         string
	settle      time.Duration
	uploadLimit int
	trackLimit  int
	logger      *log.Logger

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time

	// set when a library sync mutated the catalog; a later playlist sync waits it out
	changedAt time.Time
}

// EngineOpts configures an [Engine].
type EngineOpts struct {
	Catalog            services.Catalog
	Dir                string
	Extension          string
	SettleDelay        time.Duration // negative disables the wait
	UploadLimit        int
	PlaylistTrackLimit int
	Logger             *log.Logger
}

// NewEngine creates an [Engine].
func NewEngine(opts EngineOpts) *Engine {
	if opts.SettleDelay == 0 {
		opts.SettleDelay = DefaultSettleDelay
	}
	if opts.SettleDelay < 0 {
		opts.SettleDelay = 0
	}
	return &Engine{
		catalog:     opts.Catalog,
		dir:         opts.Dir,
		ext:         opts.Extension,
		settle:      opts.SettleDelay,
		uploadLimit: opts.UploadLimit,
		trackLimit:  opts.PlaylistTrackLimit,
		logger:      opts.Logger,
		sleep:       sleepContext,
		now:         time.Now,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (e *Engine) newSnapshot() *Snapshot {
	return NewSnapshot(e.catalog, SnapshotOpts{UploadLimit: e.uploadLimit, PlaylistTrackLimit: e.trackLimit})
}

func (e *Engine) scan(progress chan<- ProgressUpdate) (*library.Library, error) {
	lib, err := library.NewScanner(e.dir, e.ext, e.logger).Scan()
	if err != nil {
		return nil, err
	}
	sendProgress(progress, scannedUpdate(len(lib.Songs), len(lib.Ignored)))
	return lib, nil
}

// SyncLibrary makes the uploaded songs match the local directory.
func (e *Engine) SyncLibrary(ctx context.Context, progress chan<- ProgressUpdate) (*LibraryReport, error) {
	report, err := e.Run(ctx, RunOptions{Library: true}, progress)
	if report == nil {
		return nil, err
	}
	return report.Library, err
}

// SyncPlaylists makes the single-letter playlists match the tags in the local directory.
//
// If a library sync on this engine changed the catalog less than the settle
// delay ago, it waits for the remainder first.
func (e *Engine) SyncPlaylists(ctx context.Context, progress chan<- ProgressUpdate) (*PlaylistReport, error) {
	report, err := e.Run(ctx, RunOptions{Playlists: true}, progress)
	if report == nil {
		return nil, err
	}
	return report.Playlists, err
}

// Run executes the selected steps with one scan and one snapshot.
//
// Tags are validated before any remote mutation when playlists are requested.
// When the library step changed the catalog, the engine waits the settle delay
// and refreshes the snapshot before reconciling playlists. The report is
// returned alongside any error and holds the work done up to the failure.
func (e *Engine) Run(ctx context.Context, opts RunOptions, progress chan<- ProgressUpdate) (*RunReport, error) {
	if !opts.Library && !opts.Playlists {
		return nil, fmt.Errorf("%w: nothing to sync", shared.ErrMissingArgument)
	}

	lib, err := e.scan(progress)
	if err != nil {
		return nil, err
	}
	report := &RunReport{Dir: lib.Dir, Ignored: lib.Ignored}

	var desired map[string]map[string]struct{}
	if opts.Playlists {
		if desired, err = library.DesiredState(lib); err != nil {
			return report, err
		}
	}

	snap := e.newSnapshot()

	if opts.Library {
		libReport, err := NewLibraryReconciler(e.catalog, e.logger).Sync(ctx, lib, snap, progress)
		report.Library = libReport
		if libReport != nil && libReport.Changed() {
			e.changedAt = e.now()
		}
		if err != nil {
			return report, err
		}
		e.info("library synced", "uploaded", len(libReport.Uploaded), "deleted", len(libReport.Deleted), "unchanged", libReport.Unchanged)
	}

	if !opts.Playlists {
		return report, nil
	}

	waited, err := e.settleAfterChanges(ctx, progress)
	report.Settled = waited
	if err != nil {
		return report, err
	}
	snap.Refresh()

	plReport, err := NewPlaylistReconciler(e.catalog, e.logger).Sync(ctx, desired, snap, progress)
	report.Playlists = plReport
	if err != nil {
		return report, err
	}
	e.info("playlists synced",
		"created", len(plReport.Created),
		"deleted", len(plReport.Deleted),
		"added", plReport.ItemsAdded(),
		"removed", plReport.ItemsRemoved())

	return report, nil
}

// settleAfterChanges sleeps until the settle delay has passed since the last
// library change. It is a fixed wait, not a poll.
func (e *Engine) settleAfterChanges(ctx context.Context, progress chan<- ProgressUpdate) (time.Duration, error) {
	if e.changedAt.IsZero() || e.settle <= 0 {
		return 0, nil
	}

	remaining := e.settle - e.now().Sub(e.changedAt)
	if remaining <= 0 {
		return 0, nil
	}

	sendProgress(progress, settleUpdate(remaining))
	e.info("waiting for uploads to settle", "delay", remaining)
	if err := e.sleep(ctx, remaining); err != nil {
		return 0, err
	}
	e.changedAt = time.Time{}
	return remaining, nil
}

// Plan describes what [Engine.Run] would change without changing anything.
type Plan struct {
	Upload          []string         `json:"upload"`
	Delete          []string         `json:"delete"`
	CreatePlaylists []string         `json:"create_playlists"`
	DeletePlaylists []string         `json:"delete_playlists"`
	Items           []PlaylistChange `json:"items"`
}

// Plan computes the changes the selected steps would make, reading the catalog only.
//
// Membership changes assume the library step has already run: titles that would be
// uploaded are listed as additions without a resolved media id.
func (e *Engine) Plan(ctx context.Context, opts RunOptions) (*Plan, error) {
	if !opts.Library && !opts.Playlists {
		return nil, fmt.Errorf("%w: nothing to plan", shared.ErrMissingArgument)
	}

	lib, err := e.scan(nil)
	if err != nil {
		return nil, err
	}
	snap := e.newSnapshot()
	plan := &Plan{
		Upload:          []string{},
		Delete:          []string{},
		CreatePlaylists: []string{},
		DeletePlaylists: []string{},
		Items:           []PlaylistChange{},
	}

	if opts.Library {
		remote, err := snap.Songs(ctx)
		if err != nil {
			return nil, err
		}
		upload, remove := diffLibrary(lib.Songs, remote)
		plan.Upload = append(plan.Upload, upload...)
		for _, song := range remove {
			plan.Delete = append(plan.Delete, song.Title)
		}
	}

	if !opts.Playlists {
		return plan, nil
	}

	desired, err := library.DesiredState(lib)
	if err != nil {
		return nil, err
	}
	remote, err := snap.Playlists(ctx)
	if err != nil {
		return nil, err
	}

	matched := planPlaylists(remote, desired)
	plan.CreatePlaylists = append(plan.CreatePlaylists, matched.create...)
	for _, p := range matched.remove {
		plan.DeletePlaylists = append(plan.DeletePlaylists, p.Title)
	}

	for _, tag := range slices.Sorted(maps.Keys(desired)) {
		current := map[string][]services.PlaylistTrack{}
		if id, ok := matched.keep[tag]; ok {
			if current, err = snap.Members(ctx, id); err != nil {
				return nil, err
			}
		}

		remove, add := diffMembers(current, desired[tag])
		if len(remove) == 0 && len(add) == 0 {
			continue
		}
		change := PlaylistChange{Tag: tag, PlaylistID: matched.keep[tag], Added: []string{}, Removed: []string{}}
		change.Added = append(change.Added, add...)
		for _, item := range remove {
			change.Removed = append(change.Removed, item.Title)
		}
		plan.Items = append(plan.Items, change)
	}

	return plan, nil
}

func (e *Engine) info(msg string, kv ...any) {
	if e.logger != nil {
		e.logger.Info(msg, kv...)
	}
}
