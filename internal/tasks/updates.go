package tasks

import (
	"fmt"
	"time"
)

// ProgressUpdate represents a progress event during a sync run.
//
// Used to send real-time updates to the CLI layer for display. Updates never
// influence control flow.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	ScanLibrary Phase = iota
	FetchSongs
	FetchPlaylists
	FetchMembers
	UploadSongs
	DeleteSongs
	DeletePlaylists
	CreatePlaylists
	RemoveItems
	AddItems
	Settle
)

func (p Phase) String() string {
	switch p {
	case ScanLibrary:
		return "scan_library"
	case FetchSongs:
		return "fetch_songs"
	case FetchPlaylists:
		return "fetch_playlists"
	case FetchMembers:
		return "fetch_members"
	case UploadSongs:
		return "upload_songs"
	case DeleteSongs:
		return "delete_songs"
	case DeletePlaylists:
		return "delete_playlists"
	case CreatePlaylists:
		return "create_playlists"
	case RemoveItems:
		return "remove_items"
	case AddItems:
		return "add_items"
	case Settle:
		return "settle"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
		// Channel full, skip this update
	}
}

func scannedUpdate(songs, ignored int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ScanLibrary,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d songs (%d other files ignored)", songs, ignored),
	}
}

func fetchedSongsUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSongs,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetched %d uploaded songs", count),
	}
}

func fetchedPlaylistsUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylists,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetched %d library playlists", count),
	}
}

func itemUpdate(phase Phase, step, total int, verb, target string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s", step, total, verb, target),
		Data:    target,
	}
}

func membershipUpdate(phase Phase, tag string, titles []string) ProgressUpdate {
	verb := "Adding"
	if phase == RemoveItems {
		verb = "Removing"
	}
	return ProgressUpdate{
		Phase:   phase,
		Step:    len(titles),
		Total:   len(titles),
		Message: fmt.Sprintf("%s %d songs in playlist %s", verb, len(titles), tag),
		Data:    titles,
	}
}

func settleUpdate(d time.Duration) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Settle,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Waiting %s for uploads to become visible", d),
	}
}
