package tasks

import (
	"context"
	"maps"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytsync/internal/library"
	"github.com/desertthunder/ytsync/internal/services"
	"github.com/desertthunder/ytsync/internal/shared"
)

// PlaylistChange records the membership edits applied to one playlist.
type PlaylistChange struct {
	Tag        string   `json:"tag"`
	PlaylistID string   `json:"playlist_id"`
	Added      []string `json:"added"`
	Removed    []string `json:"removed"`
}

// PlaylistReport summarizes one playlist reconciliation.
type PlaylistReport struct {
	Created []string         `json:"created"`
	Deleted []string         `json:"deleted"`
	Kept    []string         `json:"kept"`
	Foreign []string         `json:"foreign"` // playlists outside the single-letter convention
	Changes []PlaylistChange `json:"changes"`
}

func newPlaylistReport() *PlaylistReport {
	return &PlaylistReport{
		Created: []string{},
		Deleted: []string{},
		Kept:    []string{},
		Foreign: []string{},
		Changes: []PlaylistChange{},
	}
}

// ItemsAdded returns the number of entries added across all playlists.
func (r *PlaylistReport) ItemsAdded() int {
	n := 0
	for _, c := range r.Changes {
		n += len(c.Added)
	}
	return n
}

// ItemsRemoved returns the number of entries removed across all playlists.
func (r *PlaylistReport) ItemsRemoved() int {
	n := 0
	for _, c := range r.Changes {
		n += len(c.Removed)
	}
	return n
}

// PlaylistReconciler makes the single-letter playlists match the tags of the local library.
type PlaylistReconciler struct {
	catalog services.Catalog
	logger  *log.Logger
}

// NewPlaylistReconciler creates a reconciler issuing mutations through catalog.
func NewPlaylistReconciler(catalog services.Catalog, logger *log.Logger) *PlaylistReconciler {
	return &PlaylistReconciler{catalog: catalog, logger: logger}
}

// playlistPlan is the outcome of matching remote playlists against desired tags.
type playlistPlan struct {
	keep    map[string]string // tag -> existing playlist id
	remove  []services.Playlist
	create  []string // sorted
	foreign []string
}

// planPlaylists walks remote playlists in list order. Titles outside the
// single-letter convention are never considered for deletion.
func planPlaylists(remote []services.Playlist, desired map[string]map[string]struct{}) playlistPlan {
	plan := playlistPlan{keep: make(map[string]string)}

	pending := make(map[string]struct{}, len(desired))
	for tag := range desired {
		pending[tag] = struct{}{}
	}

	for _, p := range remote {
		if !library.IsOwnedPlaylistTitle(p.Title) {
			plan.foreign = append(plan.foreign, p.Title)
			continue
		}
		if _, ok := pending[p.Title]; ok {
			plan.keep[p.Title] = p.ID
			delete(pending, p.Title)
			continue
		}
		plan.remove = append(plan.remove, p)
	}

	plan.create = slices.Sorted(maps.Keys(pending))
	return plan
}

// diffMembers returns the entries to remove and the titles to add, both sorted by title.
// Every entry of an unwanted title is removed, so a song added twice leaves in one batch.
func diffMembers(current map[string][]services.PlaylistTrack, want map[string]struct{}) (remove []services.PlaylistTrack, add []string) {
	for _, title := range slices.Sorted(maps.Keys(current)) {
		if _, ok := want[title]; !ok {
			remove = append(remove, current[title]...)
		}
	}
	for _, title := range slices.Sorted(maps.Keys(want)) {
		if _, ok := current[title]; !ok {
			add = append(add, title)
		}
	}
	return remove, add
}

// MatchPlaylists makes the set of owned remote playlists equal to the desired tags.
//
// Owned playlists whose tag is still desired are kept, the rest are deleted, and
// every tag without a playlist gets a new one with an empty description. The
// result maps each desired tag to its playlist id.
func (r *PlaylistReconciler) MatchPlaylists(ctx context.Context, desired map[string]map[string]struct{}, snap *Snapshot, progress chan<- ProgressUpdate) (map[string]string, error) {
	report := newPlaylistReport()
	return r.matchPlaylists(ctx, desired, snap, report, progress)
}

func (r *PlaylistReconciler) matchPlaylists(ctx context.Context, desired map[string]map[string]struct{}, snap *Snapshot, report *PlaylistReport, progress chan<- ProgressUpdate) (map[string]string, error) {
	remote, err := snap.Playlists(ctx)
	if err != nil {
		return nil, err
	}
	sendProgress(progress, fetchedPlaylistsUpdate(len(remote)))

	plan := planPlaylists(remote, desired)
	report.Foreign = append(report.Foreign, plan.foreign...)
	report.Kept = append(report.Kept, slices.Sorted(maps.Keys(plan.keep))...)

	for i, p := range plan.remove {
		sendProgress(progress, itemUpdate(DeletePlaylists, i+1, len(plan.remove), "Deleting playlist", p.Title))

		status, err := r.catalog.DeletePlaylist(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		if !status.OK() {
			return nil, &shared.RemoteOperationError{Operation: "delete playlist", Target: p.Title, Status: status.String()}
		}
		report.Deleted = append(report.Deleted, p.Title)
		r.debug("deleted playlist", "title", p.Title, "id", p.ID)
	}

	ids := maps.Clone(plan.keep)
	for i, tag := range plan.create {
		sendProgress(progress, itemUpdate(CreatePlaylists, i+1, len(plan.create), "Creating playlist", tag))

		id, status, err := r.catalog.CreatePlaylist(ctx, tag, "")
		if err != nil {
			return nil, err
		}
		if !status.OK() {
			return nil, &shared.RemoteOperationError{Operation: "create playlist", Target: tag, Status: status.String()}
		}
		ids[tag] = id
		report.Created = append(report.Created, tag)
		r.debug("created playlist", "title", tag, "id", id)
	}

	return ids, nil
}

// MatchPlaylistItems makes the members of one playlist equal to want.
//
// Every desired title is resolved against the snapshot's songs before anything
// is mutated; a title without an uploaded song fails with a
// [shared.UnresolvedSongError]. Removals and additions are each sent as one batch.
func (r *PlaylistReconciler) MatchPlaylistItems(ctx context.Context, tag, playlistID string, want map[string]struct{}, snap *Snapshot, progress chan<- ProgressUpdate) error {
	_, err := r.matchPlaylistItems(ctx, tag, playlistID, want, snap, progress)
	return err
}

func (r *PlaylistReconciler) matchPlaylistItems(ctx context.Context, tag, playlistID string, want map[string]struct{}, snap *Snapshot, progress chan<- ProgressUpdate) (*PlaylistChange, error) {
	songs, err := snap.Songs(ctx)
	if err != nil {
		return nil, err
	}

	videoIDs := make(map[string]string, len(want))
	for _, title := range slices.Sorted(maps.Keys(want)) {
		song, ok := songs[title]
		if !ok {
			return nil, &shared.UnresolvedSongError{Title: title, Playlist: tag}
		}
		videoIDs[title] = song.VideoID
	}

	sendProgress(progress, ProgressUpdate{Phase: FetchMembers, Step: 1, Total: 1, Message: "Fetching members of playlist " + tag, Data: tag})
	current, err := snap.Members(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	remove, add := diffMembers(current, want)
	change := &PlaylistChange{Tag: tag, PlaylistID: playlistID, Added: []string{}, Removed: []string{}}

	if len(remove) > 0 {
		titles := make([]string, len(remove))
		for i, item := range remove {
			titles[i] = item.Title
		}
		sendProgress(progress, membershipUpdate(RemoveItems, tag, titles))

		status, err := r.catalog.RemovePlaylistItems(ctx, playlistID, remove)
		if err != nil {
			return nil, err
		}
		snap.forget(playlistID)
		if !status.OK() {
			return nil, &shared.RemoteOperationError{Operation: "remove playlist items", Target: tag, Status: status.String()}
		}
		change.Removed = titles
		r.debug("removed playlist items", "playlist", tag, "count", len(titles))
	}

	if len(add) > 0 {
		ids := make([]string, len(add))
		for i, title := range add {
			ids[i] = videoIDs[title]
		}
		sendProgress(progress, membershipUpdate(AddItems, tag, add))

		status, err := r.catalog.AddPlaylistItems(ctx, playlistID, ids)
		if err != nil {
			return nil, err
		}
		snap.forget(playlistID)
		if !status.OK() {
			return nil, &shared.RemoteOperationError{Operation: "add playlist items", Target: tag, Status: status.String()}
		}
		change.Added = add
		r.debug("added playlist items", "playlist", tag, "count", len(add))
	}

	return change, nil
}

// Sync runs [PlaylistReconciler.MatchPlaylists] and then
// [PlaylistReconciler.MatchPlaylistItems] for every desired tag in sorted order.
func (r *PlaylistReconciler) Sync(ctx context.Context, desired map[string]map[string]struct{}, snap *Snapshot, progress chan<- ProgressUpdate) (*PlaylistReport, error) {
	report := newPlaylistReport()

	ids, err := r.matchPlaylists(ctx, desired, snap, report, progress)
	if err != nil {
		return report, err
	}

	for _, tag := range slices.Sorted(maps.Keys(desired)) {
		change, err := r.matchPlaylistItems(ctx, tag, ids[tag], desired[tag], snap, progress)
		if err != nil {
			return report, err
		}
		if len(change.Added) > 0 || len(change.Removed) > 0 {
			report.Changes = append(report.Changes, *change)
		}
	}

	return report, nil
}

func (r *PlaylistReconciler) debug(msg string, kv ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, kv...)
	}
}
