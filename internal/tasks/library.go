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

// LibraryReport summarizes one uploaded-songs reconciliation.
type LibraryReport struct {
	Local     int      `json:"local"`
	Remote    int      `json:"remote"`
	Uploaded  []string `json:"uploaded"`
	Deleted   []string `json:"deleted"`
	Unchanged int      `json:"unchanged"`
}

// Changed reports whether the reconciliation mutated the remote library.
func (r *LibraryReport) Changed() bool {
	return len(r.Uploaded) > 0 || len(r.Deleted) > 0
}

// LibraryReconciler makes the remote uploads match the local directory by title.
type LibraryReconciler struct {
	catalog services.Catalog
	logger  *log.Logger
}

// NewLibraryReconciler creates a reconciler issuing mutations through catalog.
func NewLibraryReconciler(catalog services.Catalog, logger *log.Logger) *LibraryReconciler {
	return &LibraryReconciler{catalog: catalog, logger: logger}
}

// diffLibrary returns the titles to upload and the remote songs to delete, both sorted.
func diffLibrary(local []string, remote map[string]RemoteSong) (upload []string, remove []RemoteSong) {
	localSet := make(map[string]struct{}, len(local))
	for _, title := range local {
		localSet[title] = struct{}{}
		if _, ok := remote[title]; !ok {
			upload = append(upload, title)
		}
	}
	slices.Sort(upload)

	for _, title := range slices.Sorted(maps.Keys(remote)) {
		if _, ok := localSet[title]; !ok {
			remove = append(remove, remote[title])
		}
	}
	return upload, remove
}

// Sync uploads every local song missing remotely, then deletes every remote song
// missing locally.
//
// The first non-success status aborts with a [shared.RemoteOperationError];
// mutations already applied stay applied.
func (r *LibraryReconciler) Sync(ctx context.Context, lib *library.Library, snap *Snapshot, progress chan<- ProgressUpdate) (*LibraryReport, error) {
	remote, err := snap.Songs(ctx)
	if err != nil {
		return nil, err
	}
	sendProgress(progress, fetchedSongsUpdate(len(remote)))

	upload, remove := diffLibrary(lib.Songs, remote)
	report := &LibraryReport{
		Local:     len(lib.Songs),
		Remote:    len(remote),
		Uploaded:  []string{},
		Deleted:   []string{},
		Unchanged: len(lib.Songs) - len(upload),
	}

	for i, title := range upload {
		sendProgress(progress, itemUpdate(UploadSongs, i+1, len(upload), "Uploading", title))

		status, err := r.catalog.UploadSong(ctx, lib.Path(title))
		if err != nil {
			return report, err
		}
		if !status.OK() {
			return report, &shared.RemoteOperationError{Operation: "upload", Target: title, Status: status.String()}
		}
		report.Uploaded = append(report.Uploaded, title)
		r.debug("uploaded song", "title", title)
	}

	for i, song := range remove {
		sendProgress(progress, itemUpdate(DeleteSongs, i+1, len(remove), "Deleting", song.Title))

		status, err := r.catalog.DeleteUploadEntity(ctx, song.EntityID)
		if err != nil {
			return report, err
		}
		if !status.OK() {
			return report, &shared.RemoteOperationError{Operation: "delete song", Target: song.Title, Status: status.String()}
		}
		report.Deleted = append(report.Deleted, song.Title)
		r.debug("deleted song", "title", song.Title)
	}

	return report, nil
}

func (r *LibraryReconciler) debug(msg string, kv ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, kv...)
	}
}
