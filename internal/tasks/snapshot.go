package tasks

import (
	"context"

	"github.com/desertthunder/ytsync/internal/services"
)

const (
	DefaultUploadLimit        = 100000
	DefaultPlaylistTrackLimit = 10000
)

// RemoteSong identifies an uploaded song.
type RemoteSong struct {
	Title    string
	EntityID string // upload entity, used for deletion
	VideoID  string // media id, used for playlist membership
}

// Snapshot is a memoized view of the remote catalog for one sync run.
//
// Each view is fetched on first use and served from memory afterwards.
// [Snapshot.Refresh] drops every view so the next read reflects mutations made
// earlier in the run. A Snapshot is not safe for concurrent use.
type Snapshot struct {
	catalog     services.Catalog
	uploadLimit int
	trackLimit  int

	songs     map[string]RemoteSong
	playlists []services.Playlist
	members   map[string]map[string][]services.PlaylistTrack
}

// SnapshotOpts configures list limits. Zero values select the defaults.
type SnapshotOpts struct {
	UploadLimit        int
	PlaylistTrackLimit int
}

// NewSnapshot creates an empty snapshot over catalog.
func NewSnapshot(catalog services.Catalog, opts SnapshotOpts) *Snapshot {
	if opts.UploadLimit <= 0 {
		opts.UploadLimit = DefaultUploadLimit
	}
	if opts.PlaylistTrackLimit <= 0 {
		opts.PlaylistTrackLimit = DefaultPlaylistTrackLimit
	}
	return &Snapshot{
		catalog:     catalog,
		uploadLimit: opts.UploadLimit,
		trackLimit:  opts.PlaylistTrackLimit,
		members:     make(map[string]map[string][]services.PlaylistTrack),
	}
}

// Songs returns uploaded songs keyed by title.
func (s *Snapshot) Songs(ctx context.Context) (map[string]RemoteSong, error) {
	if s.songs != nil {
		return s.songs, nil
	}

	uploaded, err := s.catalog.ListUploadedSongs(ctx, s.uploadLimit)
	if err != nil {
		return nil, err
	}

	songs := make(map[string]RemoteSong, len(uploaded))
	for _, u := range uploaded {
		songs[u.Title] = RemoteSong{Title: u.Title, EntityID: u.EntityID, VideoID: u.VideoID}
	}
	s.songs = songs
	return songs, nil
}

// Playlists returns every library playlist in the order the catalog lists them.
func (s *Snapshot) Playlists(ctx context.Context) ([]services.Playlist, error) {
	if s.playlists != nil {
		return s.playlists, nil
	}

	playlists, err := s.catalog.ListPlaylists(ctx)
	if err != nil {
		return nil, err
	}
	if playlists == nil {
		playlists = []services.Playlist{}
	}
	s.playlists = playlists
	return playlists, nil
}

// Members returns a playlist's entries grouped by title, fetching them on first use.
// A title added more than once maps to every one of its entries, in playlist order.
func (s *Snapshot) Members(ctx context.Context, playlistID string) (map[string][]services.PlaylistTrack, error) {
	if members, ok := s.members[playlistID]; ok {
		return members, nil
	}

	tracks, err := s.catalog.GetPlaylistTracks(ctx, playlistID, s.trackLimit)
	if err != nil {
		return nil, err
	}

	members := make(map[string][]services.PlaylistTrack, len(tracks))
	for _, track := range tracks {
		members[track.Title] = append(members[track.Title], track)
	}
	s.members[playlistID] = members
	return members, nil
}

// Refresh discards every cached view.
func (s *Snapshot) Refresh() {
	s.songs = nil
	s.playlists = nil
	s.members = make(map[string]map[string][]services.PlaylistTrack)
}

// forget drops the cached membership of one playlist after it was mutated.
func (s *Snapshot) forget(playlistID string) {
	delete(s.members, playlistID)
}
