package tasks

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/desertthunder/ytsync/internal/shared"
	tu "github.com/desertthunder/ytsync/internal/testing"
)

type testClock struct {
	now   time.Time
	slept []time.Duration
}

func newTestEngine(t *testing.T, catalog *tu.FakeCatalog, files ...string) (*Engine, *testClock) {
	t.Helper()
	dir := t.TempDir()
	tu.MustWriteFiles(t, dir, files...)

	clock := &testClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	engine := NewEngine(EngineOpts{Catalog: catalog, Dir: dir, SettleDelay: 10 * time.Second})
	engine.now = func() time.Time { return clock.now }
	engine.sleep = func(ctx context.Context, d time.Duration) error {
		clock.slept = append(clock.slept, d)
		catalog.Calls = append(catalog.Calls, "sleep")
		return nil
	}
	return engine, clock
}

func TestEngineRun(t *testing.T) {
	t.Run("uploads, deletes and builds playlists", func(t *testing.T) {
		catalog := tu.NewFakeCatalog("z.mp3")
		engine, clock := newTestEngine(t, catalog, "x [a].mp3", "y [ab].mp3")

		report, err := engine.Run(context.Background(), RunOptions{Library: true, Playlists: true}, nil)
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}

		wantUploads := []string{"upload x [a].mp3", "upload y [ab].mp3"}
		if got := catalog.CallsTo("upload"); !reflect.DeepEqual(got, wantUploads) {
			t.Errorf("uploads = %v, want %v", got, wantUploads)
		}
		if got := catalog.CallsTo("delete_song"); !reflect.DeepEqual(got, []string{"delete_song ent-z.mp3"}) {
			t.Errorf("deletes = %v", got)
		}

		if got := catalog.SongTitles(); !reflect.DeepEqual(got, []string{"x [a].mp3", "y [ab].mp3"}) {
			t.Errorf("remote songs = %v", got)
		}
		if got := catalog.PlaylistTitles(); !reflect.DeepEqual(got, []string{"a", "b"}) {
			t.Errorf("playlists = %v", got)
		}
		if got := catalog.Members("a"); !reflect.DeepEqual(got, []string{"x [a].mp3", "y [ab].mp3"}) {
			t.Errorf("playlist a = %v", got)
		}
		if got := catalog.Members("b"); !reflect.DeepEqual(got, []string{"y [ab].mp3"}) {
			t.Errorf("playlist b = %v", got)
		}

		if !reflect.DeepEqual(clock.slept, []time.Duration{10 * time.Second}) {
			t.Errorf("expected one 10s settle wait, got %v", clock.slept)
		}
		if report.Settled != 10*time.Second {
			t.Errorf("expected report to record settle wait, got %v", report.Settled)
		}
		if len(report.Library.Uploaded) != 2 || len(report.Library.Deleted) != 1 {
			t.Errorf("unexpected library report %+v", report.Library)
		}
		if !reflect.DeepEqual(report.Playlists.Created, []string{"a", "b"}) {
			t.Errorf("created = %v", report.Playlists.Created)
		}
		if report.Playlists.ItemsAdded() != 3 || report.Playlists.ItemsRemoved() != 0 {
			t.Errorf("unexpected item counts %d/%d", report.Playlists.ItemsAdded(), report.Playlists.ItemsRemoved())
		}
	})

	t.Run("settle wait separates library mutations from playlist reads", func(t *testing.T) {
		catalog := tu.NewFakeCatalog()
		engine, _ := newTestEngine(t, catalog, "x [a].mp3")

		if _, err := engine.Run(context.Background(), RunOptions{Library: true, Playlists: true}, nil); err != nil {
			t.Fatalf("run failed: %v", err)
		}

		sleepAt, uploadAt, listAt := -1, -1, -1
		for i, call := range catalog.Calls {
			switch {
			case call == "sleep":
				sleepAt = i
			case call == "upload x [a].mp3":
				uploadAt = i
			case call == "list_playlists" && listAt < 0:
				listAt = i
			}
		}
		if !(uploadAt < sleepAt && sleepAt < listAt) {
			t.Errorf("expected upload < sleep < list_playlists, got calls %v", catalog.Calls)
		}

		if got := catalog.CallsTo("list_songs"); len(got) != 2 {
			t.Errorf("expected songs to be fetched again after the wait, got %v", got)
		}
	})

	t.Run("no wait when the library is unchanged", func(t *testing.T) {
		catalog := tu.NewFakeCatalog("x [a].mp3")
		engine, clock := newTestEngine(t, catalog, "x [a].mp3")

		if _, err := engine.Run(context.Background(), RunOptions{Library: true, Playlists: true}, nil); err != nil {
			t.Fatalf("run failed: %v", err)
		}
		if len(clock.slept) != 0 {
			t.Errorf("expected no wait, got %v", clock.slept)
		}
	})

	t.Run("invalid names abort before any remote call", func(t *testing.T) {
		catalog := tu.NewFakeCatalog("z.mp3")
		engine, _ := newTestEngine(t, catalog, "x [a].mp3", "bad [a] [b].mp3")

		_, err := engine.Run(context.Background(), RunOptions{Library: true, Playlists: true}, nil)

		var namingErr *shared.NamingConventionError
		if !errors.As(err, &namingErr) {
			t.Fatalf("expected NamingConventionError, got %v", err)
		}
		if namingErr.File != "bad [a] [b].mp3" {
			t.Errorf("expected error to name the bad file, got %q", namingErr.File)
		}
		if len(catalog.Calls) != 0 {
			t.Errorf("expected no remote calls, got %v", catalog.Calls)
		}
	})

	t.Run("nothing selected", func(t *testing.T) {
		engine, _ := newTestEngine(t, tu.NewFakeCatalog())

		if _, err := engine.Run(context.Background(), RunOptions{}, nil); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		engine := NewEngine(EngineOpts{Catalog: tu.NewFakeCatalog(), Dir: t.TempDir() + "/missing"})

		if _, err := engine.Run(context.Background(), RunOptions{Library: true}, nil); err == nil {
			t.Error("expected error for missing directory")
		}
	})

	t.Run("progress never blocks", func(t *testing.T) {
		catalog := tu.NewFakeCatalog("z.mp3")
		engine, _ := newTestEngine(t, catalog, "x [a].mp3")

		unread := make(chan ProgressUpdate)
		if _, err := engine.Run(context.Background(), RunOptions{Library: true, Playlists: true}, unread); err != nil {
			t.Fatalf("run failed: %v", err)
		}
	})

	t.Run("progress reports each step", func(t *testing.T) {
		catalog := tu.NewFakeCatalog("z.mp3")
		engine, _ := newTestEngine(t, catalog, "x [a].mp3")

		progress := make(chan ProgressUpdate, 100)
		if _, err := engine.Run(context.Background(), RunOptions{Library: true, Playlists: true}, progress); err != nil {
			t.Fatalf("run failed: %v", err)
		}
		close(progress)

		seen := map[Phase]int{}
		for u := range progress {
			seen[u.Phase]++
		}
		for _, phase := range []Phase{ScanLibrary, FetchSongs, UploadSongs, DeleteSongs, Settle, FetchPlaylists, CreatePlaylists, FetchMembers, AddItems} {
			if seen[phase] == 0 {
				t.Errorf("expected a %s update", phase)
			}
		}
		if seen[UploadSongs] != 1 || seen[DeleteSongs] != 1 {
			t.Errorf("expected one update per item, got %v", seen)
		}
	})
}

func TestEngineEntryPoints(t *testing.T) {
	t.Run("library sync converges and is idempotent", func(t *testing.T) {
		catalog := tu.NewFakeCatalog("old.mp3", "x [a].mp3")
		engine, _ := newTestEngine(t, catalog, "x [a].mp3", "y [].mp3", "z [b].mp3", "notes.txt")

		report, err := engine.SyncLibrary(context.Background(), nil)
		if err != nil {
			t.Fatalf("first sync failed: %v", err)
		}
		if report.Unchanged != 1 || len(report.Uploaded) != 2 || len(report.Deleted) != 1 {
			t.Errorf("unexpected report %+v", report)
		}
		if got := catalog.SongTitles(); !reflect.DeepEqual(got, []string{"x [a].mp3", "y [].mp3", "z [b].mp3"}) {
			t.Errorf("remote songs = %v", got)
		}

		catalog.ResetCalls()
		report, err = engine.SyncLibrary(context.Background(), nil)
		if err != nil {
			t.Fatalf("second sync failed: %v", err)
		}
		if len(catalog.CallsTo("upload")) != 0 || len(catalog.CallsTo("delete_song")) != 0 {
			t.Errorf("expected no mutations on second run, got %v", catalog.Calls)
		}
		if report.Changed() {
			t.Errorf("expected unchanged report, got %+v", report)
		}
	})

	t.Run("playlist sync waits out the remaining settle delay", func(t *testing.T) {
		catalog := tu.NewFakeCatalog()
		engine, clock := newTestEngine(t, catalog, "x [a].mp3")

		if _, err := engine.SyncLibrary(context.Background(), nil); err != nil {
			t.Fatalf("library sync failed: %v", err)
		}
		clock.now = clock.now.Add(3 * time.Second)

		report, err := engine.SyncPlaylists(context.Background(), nil)
		if err != nil {
			t.Fatalf("playlist sync failed: %v", err)
		}
		if !reflect.DeepEqual(clock.slept, []time.Duration{7 * time.Second}) {
			t.Errorf("expected a 7s wait, got %v", clock.slept)
		}
		if !reflect.DeepEqual(report.Created, []string{"a"}) {
			t.Errorf("created = %v", report.Created)
		}

		if _, err := engine.SyncPlaylists(context.Background(), nil); err != nil {
			t.Fatalf("second playlist sync failed: %v", err)
		}
		if len(clock.slept) != 1 {
			t.Errorf("expected no further waits, got %v", clock.slept)
		}
	})

	t.Run("playlist sync converges", func(t *testing.T) {
		catalog := tu.NewFakeCatalog("x [ac].mp3", "y [c].mp3", "w [].mp3")
		catalog.AddPlaylist("c", "w [].mp3")
		catalog.AddPlaylist("d", "x [ac].mp3")
		engine, _ := newTestEngine(t, catalog, "x [ac].mp3", "y [c].mp3", "w [].mp3")

		if _, err := engine.SyncPlaylists(context.Background(), nil); err != nil {
			t.Fatalf("sync failed: %v", err)
		}

		if got := catalog.PlaylistTitles(); !reflect.DeepEqual(got, []string{"a", "c"}) {
			t.Errorf("playlists = %v", got)
		}
		if got := catalog.Members("a"); !reflect.DeepEqual(got, []string{"x [ac].mp3"}) {
			t.Errorf("playlist a = %v", got)
		}
		if got := catalog.Members("c"); !reflect.DeepEqual(got, []string{"x [ac].mp3", "y [c].mp3"}) {
			t.Errorf("playlist c = %v", got)
		}

		catalog.ResetCalls()
		if _, err := engine.SyncPlaylists(context.Background(), nil); err != nil {
			t.Fatalf("second sync failed: %v", err)
		}
		for _, op := range []string{"create_playlist", "delete_playlist", "add_items", "remove_items"} {
			if got := catalog.CallsTo(op); len(got) != 0 {
				t.Errorf("expected no %s calls on second run, got %v", op, got)
			}
		}
	})

	t.Run("repeated playlist entries converge in one run", func(t *testing.T) {
		catalog := tu.NewFakeCatalog("x [a].mp3", "w [b].mp3")
		catalog.AddPlaylist("a", "x [a].mp3", "w [b].mp3", "w [b].mp3")
		catalog.AddPlaylist("My Favorites", "w [b].mp3", "w [b].mp3")
		engine, _ := newTestEngine(t, catalog, "x [a].mp3", "w [b].mp3")

		if _, err := engine.Run(context.Background(), RunOptions{Library: true, Playlists: true}, nil); err != nil {
			t.Fatalf("sync failed: %v", err)
		}

		if got := catalog.Members("a"); !reflect.DeepEqual(got, []string{"x [a].mp3"}) {
			t.Errorf("playlist a = %v", got)
		}
		if got := catalog.Members("b"); !reflect.DeepEqual(got, []string{"w [b].mp3"}) {
			t.Errorf("playlist b = %v", got)
		}
		if got := catalog.Members("My Favorites"); !reflect.DeepEqual(got, []string{"w [b].mp3", "w [b].mp3"}) {
			t.Errorf("foreign playlist changed: %v", got)
		}
	})

	t.Run("playlist sync without uploads fails to resolve", func(t *testing.T) {
		catalog := tu.NewFakeCatalog()
		engine, clock := newTestEngine(t, catalog, "x [a].mp3")

		_, err := engine.SyncPlaylists(context.Background(), nil)
		if !errors.Is(err, shared.ErrUnresolvedSong) {
			t.Errorf("expected ErrUnresolvedSong, got %v", err)
		}
		if len(clock.slept) != 0 {
			t.Errorf("expected no wait without a library sync, got %v", clock.slept)
		}
	})

	t.Run("cancelled settle wait", func(t *testing.T) {
		catalog := tu.NewFakeCatalog()
		dir := t.TempDir()
		tu.MustWriteFiles(t, dir, "x [a].mp3")
		engine := NewEngine(EngineOpts{Catalog: catalog, Dir: dir, SettleDelay: time.Hour})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := engine.Run(ctx, RunOptions{Library: true, Playlists: true}, nil)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if len(catalog.CallsTo("create_playlist")) != 0 {
			t.Errorf("expected no playlist calls after cancellation, got %v", catalog.Calls)
		}
	})
}

func TestEnginePlan(t *testing.T) {
	catalog := tu.NewFakeCatalog("x [a].mp3", "w [a].mp3", "z.mp3")
	catalog.AddPlaylist("a", "x [a].mp3", "w [a].mp3")
	catalog.AddPlaylist("q")
	catalog.AddPlaylist("My Favorites", "z.mp3")
	engine, _ := newTestEngine(t, catalog, "x [a].mp3", "y [ab].mp3")

	plan, err := engine.Plan(context.Background(), RunOptions{Library: true, Playlists: true})
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}

	want := &Plan{
		Upload:          []string{"y [ab].mp3"},
		Delete:          []string{"w [a].mp3", "z.mp3"},
		CreatePlaylists: []string{"b"},
		DeletePlaylists: []string{"q"},
		Items: []PlaylistChange{
			{Tag: "a", PlaylistID: "PL1", Added: []string{"y [ab].mp3"}, Removed: []string{"w [a].mp3"}},
			{Tag: "b", Added: []string{"y [ab].mp3"}, Removed: []string{}},
		},
	}
	if !reflect.DeepEqual(plan, want) {
		t.Errorf("plan = %+v, want %+v", plan, want)
	}

	for _, call := range catalog.Calls {
		switch call {
		case "list_songs", "list_playlists", "get_tracks PL1":
		default:
			t.Errorf("unexpected call during plan: %s", call)
		}
	}
}
