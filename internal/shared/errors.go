package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// API and service errors
	ErrAPIRequest = fmt.Errorf("API request failed")

	// Sync errors
	ErrNamingConvention = fmt.Errorf("file does not follow naming convention")
	ErrRemoteOperation  = fmt.Errorf("remote operation failed")
	ErrUnresolvedSong   = fmt.Errorf("song not found in remote library")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)

// NamingConventionError reports a local file whose name cannot be parsed into playlist tags.
type NamingConventionError struct {
	File string
}

func (e *NamingConventionError) Error() string {
	return fmt.Sprintf("%v: %q (expected \"name [tags].ext\")", ErrNamingConvention, e.File)
}

func (e *NamingConventionError) Unwrap() error { return ErrNamingConvention }

// RemoteOperationError reports a mutating catalog call that returned a non-success status.
//
// Operations applied before the failure are left in place.
type RemoteOperationError struct {
	Operation string // "upload", "delete song", "delete playlist", "create playlist", "remove playlist items" or "add playlist items"
	Target    string // file name, song title or playlist title
	Status    string // status returned by the catalog
}

func (e *RemoteOperationError) Error() string {
	return fmt.Sprintf("%v: %s %q returned status %q", ErrRemoteOperation, e.Operation, e.Target, e.Status)
}

func (e *RemoteOperationError) Unwrap() error { return ErrRemoteOperation }

// UnresolvedSongError reports a desired playlist member with no matching uploaded song.
type UnresolvedSongError struct {
	Title    string
	Playlist string
}

func (e *UnresolvedSongError) Error() string {
	return fmt.Sprintf("%v: %q (playlist %q)", ErrUnresolvedSong, e.Title, e.Playlist)
}

func (e *UnresolvedSongError) Unwrap() error { return ErrUnresolvedSong }
