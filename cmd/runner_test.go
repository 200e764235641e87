package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/desertthunder/ytsync/internal/models"
	"github.com/desertthunder/ytsync/internal/shared"
	tu "github.com/desertthunder/ytsync/internal/testing"
)

// newTestRunner builds a runner over catalog with a temp music dir holding files
// and a temp history database.
func newTestRunner(t *testing.T, catalog *tu.FakeCatalog, files ...string) (*Runner, *bytes.Buffer) {
	t.Helper()

	dir := t.TempDir()
	tu.MustWriteFiles(t, dir, files...)

	config := shared.DefaultConfig()
	config.Library.Dir = dir
	config.Database.Path = filepath.Join(t.TempDir(), "history.db")

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: filepath.Join(t.TempDir(), "config.toml"),
		Catalog:    catalog,
		Logger:     shared.NewLogger(&bytes.Buffer{}),
		Output:     output,
	})
	return runner, output
}

func run(runner *Runner, args ...string) error {
	return runner.app().Run(context.Background(), append([]string{"ytsync"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			catalog := tu.NewFakeCatalog()

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Catalog:    catalog,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
			if runner.catalog != catalog {
				t.Error("expected catalog to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
			if runner.catalog != nil {
				t.Error("expected catalog to be built lazily")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("stops after a failed write", func(t *testing.T) {
			target := &bytes.Buffer{}
			limited := tu.NewLimitedWriter(1, 0, target)
			runner := NewRunner(RunnerOpts{Output: &limited})

			if err := runner.writePlain("first"); err != nil {
				t.Fatalf("expected first write to succeed, got %v", err)
			}
			if err := runner.writePlain("second"); err == nil {
				t.Error("expected second write to fail")
			}
			if target.String() != "first" {
				t.Errorf("expected only the first write, got %q", target.String())
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		var names []string
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names = append(names, cmd.Name)
		}

		want := []string{"sync", "library", "history", "setup"}
		if !reflect.DeepEqual(names, want) {
			t.Errorf("expected commands %v, got %v", want, names)
		}
	})

	t.Run("configure", func(t *testing.T) {
		t.Run("loads an explicit config file", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "custom.toml")
			content := "[library]\nmusic_dir = \"/srv/music\"\nextension = \"mp3\"\nplaylist_track_limit = 50\n"
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatal(err)
			}

			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Logger: shared.NewLogger(&bytes.Buffer{})})
			if err := run(runner, "--config", path, "library", "ls", "--dir", t.TempDir()); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if runner.config.Library.Dir != "/srv/music" || runner.configPath != path {
				t.Errorf("expected config from %s, got %+v", path, runner.config.Library)
			}
		})

		t.Run("missing explicit config file", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Logger: shared.NewLogger(&bytes.Buffer{})})

			err := run(runner, "--config", filepath.Join(t.TempDir(), "nope.toml"), "history")
			if !errors.Is(err, shared.ErrMissingConfig) {
				t.Errorf("expected ErrMissingConfig, got %v", err)
			}
		})
	})
}

func TestSyncCommand(t *testing.T) {
	files := []string{"a [ab].mp3", "b [b].mp3", "notes.txt"}

	t.Run("library and playlists", func(t *testing.T) {
		catalog := tu.NewFakeCatalog("z.mp3")
		runner, output := newTestRunner(t, catalog, files...)

		if err := run(runner, "sync", "--library", "--playlists", "--settle", "0s"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got := catalog.SongTitles(); !reflect.DeepEqual(got, []string{"a [ab].mp3", "b [b].mp3"}) {
			t.Errorf("remote songs = %v", got)
		}
		if got := catalog.PlaylistTitles(); !reflect.DeepEqual(got, []string{"a", "b"}) {
			t.Errorf("playlists = %v", got)
		}
		if got := catalog.Members("b"); !reflect.DeepEqual(got, []string{"a [ab].mp3", "b [b].mp3"}) {
			t.Errorf("members of b = %v", got)
		}
		if !strings.Contains(output.String(), "Uploaded (2)") {
			t.Errorf("expected report output, got %s", output.String())
		}
	})

	t.Run("aliases and JSON report", func(t *testing.T) {
		catalog := tu.NewFakeCatalog()
		runner, output := newTestRunner(t, catalog, files...)

		if err := run(runner, "sync", "--upload", "--json", "--settle", "0s"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var report struct {
			Library struct {
				Uploaded []string `json:"uploaded"`
			} `json:"library"`
		}
		if err := json.Unmarshal(output.Bytes(), &report); err != nil {
			t.Fatalf("invalid JSON output: %v\n%s", err, output.String())
		}
		if len(report.Library.Uploaded) != 2 {
			t.Errorf("expected 2 uploads, got %v", report.Library.Uploaded)
		}
		if len(catalog.CallsTo("list_playlists")) != 0 {
			t.Error("library-only sync should not touch playlists")
		}
	})

	t.Run("dry run changes nothing", func(t *testing.T) {
		catalog := tu.NewFakeCatalog("z.mp3")
		runner, output := newTestRunner(t, catalog, files...)

		if err := run(runner, "sync", "--library", "--playlists", "--dry-run"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for _, op := range []string{"upload", "delete_song", "create_playlist", "add_items"} {
			if calls := catalog.CallsTo(op); len(calls) != 0 {
				t.Errorf("dry run made %s calls: %v", op, calls)
			}
		}
		if !strings.Contains(output.String(), "Would upload (2)") {
			t.Errorf("expected plan output, got %s", output.String())
		}
	})

	t.Run("requires a step", func(t *testing.T) {
		catalog := tu.NewFakeCatalog()
		runner, _ := newTestRunner(t, catalog, files...)

		err := run(runner, "sync")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if len(catalog.Calls) != 0 {
			t.Errorf("expected no remote calls, got %v", catalog.Calls)
		}
	})

	t.Run("invalid names stop before any remote call", func(t *testing.T) {
		catalog := tu.NewFakeCatalog()
		runner, _ := newTestRunner(t, catalog, "a [a].mp3", "bad [a] [b].mp3")

		err := run(runner, "sync", "--library", "--playlists", "--settle", "0s")
		if !errors.Is(err, shared.ErrNamingConvention) {
			t.Errorf("expected ErrNamingConvention, got %v", err)
		}
		if len(catalog.Calls) != 0 {
			t.Errorf("expected no remote calls, got %v", catalog.Calls)
		}
	})
}

func TestHistoryCommand(t *testing.T) {
	t.Run("records succeeded and failed runs", func(t *testing.T) {
		catalog := tu.NewFakeCatalog("z.mp3")
		runner, output := newTestRunner(t, catalog, "a [ab].mp3", "b [b].mp3")

		if err := run(runner, "sync", "--library", "--playlists", "--settle", "0s"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		tu.MustWriteFiles(t, runner.config.Library.Dir, "c [c].mp3")
		catalog.Statuses["upload"] = "STATUS_FAILED"
		if err := run(runner, "sync", "--library", "--settle", "0s"); !errors.Is(err, shared.ErrRemoteOperation) {
			t.Fatalf("expected ErrRemoteOperation, got %v", err)
		}

		output.Reset()
		if err := run(runner, "history", "--json"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var entries []historyEntry
		if err := json.Unmarshal(output.Bytes(), &entries); err != nil {
			t.Fatalf("invalid JSON output: %v\n%s", err, output.String())
		}
		if len(entries) != 2 {
			t.Fatalf("expected 2 runs, got %d", len(entries))
		}

		failed, succeeded := entries[0], entries[1]
		if failed.Status != models.RunStatusFailed || failed.Kind != models.RunKindLibrary || failed.Error == "" {
			t.Errorf("unexpected failed run %+v", failed)
		}
		want := models.RunCounts{SongsUploaded: 2, SongsDeleted: 1, PlaylistsCreated: 2, ItemsAdded: 3}
		if succeeded.Status != models.RunStatusSucceeded || succeeded.Kind != models.RunKindAll || succeeded.Counts != want {
			t.Errorf("unexpected succeeded run %+v", succeeded)
		}
		if succeeded.CompletedAt == "" {
			t.Error("expected a completion time")
		}
	})

	t.Run("status filter and CSV export", func(t *testing.T) {
		catalog := tu.NewFakeCatalog()
		runner, output := newTestRunner(t, catalog, "a [a].mp3")

		if err := run(runner, "sync", "--library", "--settle", "0s"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		csvPath := filepath.Join(t.TempDir(), "history.csv")
		output.Reset()
		if err := run(runner, "history", "--status", models.RunStatusFailed, "--csv", csvPath); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(output.String(), "No sync runs recorded") {
			t.Errorf("expected empty history, got %s", output.String())
		}
		if content := tu.MustReadFile(t, csvPath); !strings.HasPrefix(content, "Sequence,ID,Kind") {
			t.Errorf("expected CSV header only, got %q", content)
		}
	})

	t.Run("history disabled", func(t *testing.T) {
		runner, _ := newTestRunner(t, tu.NewFakeCatalog())
		runner.config.Database.Path = ""

		if err := run(runner, "history"); !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})
}

func TestLibraryCommand(t *testing.T) {
	runner, output := newTestRunner(t, tu.NewFakeCatalog(), "a [ab].mp3", "b [].mp3", "notes.txt")

	if err := run(runner, "library", "ls", "--json", "--metadata"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var entries []songEntry
	if err := json.Unmarshal(output.Bytes(), &entries); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, output.String())
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 songs, got %+v", entries)
	}
	if entries[0].Name != "a [ab].mp3" || !reflect.DeepEqual(entries[0].Tags, []string{"a", "b"}) || !entries[0].Valid {
		t.Errorf("unexpected entry %+v", entries[0])
	}
	if entries[1].Name != "b [].mp3" || len(entries[1].Tags) != 0 {
		t.Errorf("unexpected entry %+v", entries[1])
	}
}

func TestSetupCommand(t *testing.T) {
	t.Run("config", func(t *testing.T) {
		runner, _ := newTestRunner(t, tu.NewFakeCatalog())

		if err := run(runner, "setup", "config"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		tu.AssertFileExists(t, runner.configPath)

		if err := run(runner, "setup", "config"); err == nil {
			t.Error("expected error when config already exists")
		}
	})

	t.Run("database", func(t *testing.T) {
		runner, _ := newTestRunner(t, tu.NewFakeCatalog())
		if err := shared.CreateConfigFile(runner.configPath); err != nil {
			t.Fatal(err)
		}

		if err := run(runner, "setup", "database"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		tu.AssertFileExists(t, runner.config.Database.Path)
	})

	t.Run("database disabled", func(t *testing.T) {
		runner, _ := newTestRunner(t, tu.NewFakeCatalog())
		if err := shared.CreateConfigFile(runner.configPath); err != nil {
			t.Fatal(err)
		}
		runner.config.Database.Path = ""

		if err := run(runner, "setup", "database"); !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})
}
