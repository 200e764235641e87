// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/desertthunder/ytsync/internal/services"
)

var _ services.Catalog = (*FakeCatalog)(nil)

// FakePlaylist is a playlist held by [FakeCatalog].
type FakePlaylist struct {
	services.Playlist
	Tracks []services.PlaylistTrack
}

// FakeCatalog is an in-memory [services.Catalog].
//
// Mutations apply immediately. Every call is appended to Calls as "<op> <target>".
// Statuses maps an operation name to the status it returns instead of succeeding;
// Errors maps an operation name to a transport error.
//
// Operation names: list_songs, upload, delete_song, list_playlists, create_playlist,
// delete_playlist, get_tracks, add_items, remove_items.
type FakeCatalog struct {
	Songs     []services.UploadedSong
	Playlists []*FakePlaylist
	Calls     []string
	Statuses  map[string]services.Status
	Errors    map[string]error
	Limits    map[string]int // last limit passed to list_songs and get_tracks

	seq int
}

// NewFakeCatalog creates a catalog holding the given uploaded song titles.
func NewFakeCatalog(titles ...string) *FakeCatalog {
	f := &FakeCatalog{
		Statuses: map[string]services.Status{},
		Errors:   map[string]error{},
		Limits:   map[string]int{},
	}
	for _, title := range titles {
		f.Songs = append(f.Songs, f.song(title))
	}
	return f
}

func (f *FakeCatalog) song(title string) services.UploadedSong {
	return services.UploadedSong{Title: title, EntityID: "ent-" + title, VideoID: "vid-" + title}
}

// AddPlaylist adds a playlist with the given member titles and returns its id.
// Members must already be uploaded songs.
func (f *FakeCatalog) AddPlaylist(title string, members ...string) string {
	f.seq++
	p := &FakePlaylist{Playlist: services.Playlist{ID: fmt.Sprintf("PL%d", f.seq), Title: title}}
	for _, m := range members {
		p.Tracks = append(p.Tracks, f.track(f.song(m)))
	}
	p.Count = len(p.Tracks)
	f.Playlists = append(f.Playlists, p)
	return p.ID
}

func (f *FakeCatalog) track(s services.UploadedSong) services.PlaylistTrack {
	f.seq++
	return services.PlaylistTrack{Title: s.Title, VideoID: s.VideoID, SetVideoID: fmt.Sprintf("set%d", f.seq)}
}

func (f *FakeCatalog) record(op, target string) (services.Status, error) {
	f.Calls = append(f.Calls, strings.TrimSpace(op+" "+target))
	if err := f.Errors[op]; err != nil {
		return "", err
	}
	if status, ok := f.Statuses[op]; ok {
		return status, nil
	}
	return services.StatusSucceeded, nil
}

func (f *FakeCatalog) playlist(id string) *FakePlaylist {
	for _, p := range f.Playlists {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (f *FakeCatalog) ListUploadedSongs(ctx context.Context, limit int) ([]services.UploadedSong, error) {
	f.Limits["list_songs"] = limit
	if _, err := f.record("list_songs", ""); err != nil {
		return nil, err
	}
	return append([]services.UploadedSong(nil), f.Songs...), nil
}

func (f *FakeCatalog) UploadSong(ctx context.Context, path string) (services.Status, error) {
	title := filepath.Base(path)
	status, err := f.record("upload", title)
	if err != nil || !status.OK() {
		return status, err
	}
	f.Songs = append(f.Songs, f.song(title))
	return status, nil
}

func (f *FakeCatalog) DeleteUploadEntity(ctx context.Context, entityID string) (services.Status, error) {
	status, err := f.record("delete_song", entityID)
	if err != nil || !status.OK() {
		return status, err
	}
	for i, s := range f.Songs {
		if s.EntityID == entityID {
			f.Songs = append(f.Songs[:i], f.Songs[i+1:]...)
			break
		}
	}
	return status, nil
}

func (f *FakeCatalog) ListPlaylists(ctx context.Context) ([]services.Playlist, error) {
	if _, err := f.record("list_playlists", ""); err != nil {
		return nil, err
	}
	out := make([]services.Playlist, 0, len(f.Playlists))
	for _, p := range f.Playlists {
		out = append(out, p.Playlist)
	}
	return out, nil
}

func (f *FakeCatalog) CreatePlaylist(ctx context.Context, title, description string) (string, services.Status, error) {
	status, err := f.record("create_playlist", title)
	if err != nil || !status.OK() {
		return "", status, err
	}
	return f.AddPlaylist(title), status, nil
}

func (f *FakeCatalog) DeletePlaylist(ctx context.Context, playlistID string) (services.Status, error) {
	status, err := f.record("delete_playlist", playlistID)
	if err != nil || !status.OK() {
		return status, err
	}
	for i, p := range f.Playlists {
		if p.ID == playlistID {
			f.Playlists = append(f.Playlists[:i], f.Playlists[i+1:]...)
			break
		}
	}
	return status, nil
}

func (f *FakeCatalog) GetPlaylistTracks(ctx context.Context, playlistID string, limit int) ([]services.PlaylistTrack, error) {
	f.Limits["get_tracks"] = limit
	if _, err := f.record("get_tracks", playlistID); err != nil {
		return nil, err
	}
	p := f.playlist(playlistID)
	if p == nil {
		return nil, fmt.Errorf("playlist %s not found", playlistID)
	}
	return append([]services.PlaylistTrack(nil), p.Tracks...), nil
}

func (f *FakeCatalog) AddPlaylistItems(ctx context.Context, playlistID string, videoIDs []string) (services.Status, error) {
	status, err := f.record("add_items", playlistID+" "+strings.Join(videoIDs, ","))
	if err != nil || !status.OK() {
		return status, err
	}
	p := f.playlist(playlistID)
	for _, id := range videoIDs {
		for _, s := range f.Songs {
			if s.VideoID == id {
				p.Tracks = append(p.Tracks, f.track(s))
			}
		}
	}
	p.Count = len(p.Tracks)
	return status, nil
}

func (f *FakeCatalog) RemovePlaylistItems(ctx context.Context, playlistID string, items []services.PlaylistTrack) (services.Status, error) {
	titles := make([]string, len(items))
	for i, item := range items {
		titles[i] = item.Title
	}
	status, err := f.record("remove_items", playlistID+" "+strings.Join(titles, ","))
	if err != nil || !status.OK() {
		return status, err
	}
	p := f.playlist(playlistID)
	kept := p.Tracks[:0]
	for _, track := range p.Tracks {
		removed := false
		for _, item := range items {
			if item.SetVideoID == track.SetVideoID && item.VideoID == track.VideoID {
				removed = true
				break
			}
		}
		if !removed {
			kept = append(kept, track)
		}
	}
	p.Tracks = kept
	p.Count = len(p.Tracks)
	return status, nil
}

// SongTitles returns the uploaded song titles, sorted.
func (f *FakeCatalog) SongTitles() []string {
	titles := make([]string, 0, len(f.Songs))
	for _, s := range f.Songs {
		titles = append(titles, s.Title)
	}
	sort.Strings(titles)
	return titles
}

// PlaylistTitles returns the playlist titles, sorted.
func (f *FakeCatalog) PlaylistTitles() []string {
	titles := make([]string, 0, len(f.Playlists))
	for _, p := range f.Playlists {
		titles = append(titles, p.Title)
	}
	sort.Strings(titles)
	return titles
}

// Members returns the sorted member titles of the first playlist named title.
func (f *FakeCatalog) Members(title string) []string {
	for _, p := range f.Playlists {
		if p.Title != title {
			continue
		}
		members := make([]string, 0, len(p.Tracks))
		for _, track := range p.Tracks {
			members = append(members, track.Title)
		}
		sort.Strings(members)
		return members
	}
	return nil
}

// CallsTo returns the recorded calls for one operation, in order.
func (f *FakeCatalog) CallsTo(op string) []string {
	var calls []string
	for _, c := range f.Calls {
		if c == op || strings.HasPrefix(c, op+" ") {
			calls = append(calls, c)
		}
	}
	return calls
}

// ResetCalls clears the call log.
func (f *FakeCatalog) ResetCalls() {
	f.Calls = nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MustWriteFiles writes a placeholder file for each name inside dir.
func MustWriteFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("data"), 0644); err != nil {
			t.Fatalf("Failed to write file %s: %v", name, err)
		}
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
