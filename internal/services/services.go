// package services defines interface Catalog for the remote YouTube Music library
//
// The implementation talks to the ytmusicapi proxy over HTTP.
package services

import (
	"context"
)

// StatusSucceeded is the only status a mutating catalog call may return on success.
const StatusSucceeded Status = "STATUS_SUCCEEDED"

// Status is the result string returned by a mutating catalog call.
type Status string

// OK reports whether the status is [StatusSucceeded].
func (s Status) OK() bool { return s == StatusSucceeded }

func (s Status) String() string { return string(s) }

// Catalog defines the remote operations the sync engine needs.
//
// Mutating calls return a [Status]; a non-nil error means the request itself failed
// (transport, authentication, malformed response) and is never retried by callers.
type Catalog interface {
	// ListUploadedSongs returns up to limit songs uploaded to the library.
	ListUploadedSongs(ctx context.Context, limit int) ([]UploadedSong, error)

	// UploadSong uploads the file at path.
	UploadSong(ctx context.Context, path string) (Status, error)

	// DeleteUploadEntity deletes an uploaded song by entity id.
	DeleteUploadEntity(ctx context.Context, entityID string) (Status, error)

	// ListPlaylists returns every playlist in the library, including ones ytsync does not own.
	ListPlaylists(ctx context.Context) ([]Playlist, error)

	// CreatePlaylist creates an empty private playlist and returns its id.
	// A non-success status comes back with an empty id.
	CreatePlaylist(ctx context.Context, title, description string) (string, Status, error)

	// DeletePlaylist deletes a playlist by id.
	DeletePlaylist(ctx context.Context, playlistID string) (Status, error)

	// GetPlaylistTracks returns up to limit tracks of a playlist.
	GetPlaylistTracks(ctx context.Context, playlistID string, limit int) ([]PlaylistTrack, error)

	// AddPlaylistItems appends videos to a playlist in one call.
	AddPlaylistItems(ctx context.Context, playlistID string, videoIDs []string) (Status, error)

	// RemovePlaylistItems removes playlist entries in one call.
	RemovePlaylistItems(ctx context.Context, playlistID string, items []PlaylistTrack) (Status, error)
}

// UploadedSong is a song in the uploads library.
type UploadedSong struct {
	Title    string `json:"title"`
	EntityID string `json:"entityId"` // needed to delete the upload
	VideoID  string `json:"videoId"`  // needed for playlist membership
}

// Playlist is a library playlist without its tracks.
type Playlist struct {
	ID    string `json:"playlistId"`
	Title string `json:"title"`
	Count int    `json:"count"`
}

// PlaylistTrack is one entry of a playlist.
type PlaylistTrack struct {
	Title      string `json:"title"`
	VideoID    string `json:"videoId"`
	SetVideoID string `json:"setVideoId"` // identifies this entry; required to remove it
}
