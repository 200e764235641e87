// package library reads the local music directory: which files follow the
// "name [tags].ext" convention and which playlists they declare.
package library

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
)

// DefaultExtension is the music file extension used when none is configured.
const DefaultExtension = "mp3"

// Library is the result of one directory scan.
type Library struct {
	Dir       string
	Extension string
	Songs     []string // convention-matching file names, sorted
	Ignored   []string // every other entry, sorted; never touched
}

// Path returns the full path of a song in the library.
func (l *Library) Path(name string) string {
	return filepath.Join(l.Dir, name)
}

// Contains reports whether name is one of the scanned songs.
func (l *Library) Contains(name string) bool {
	i := sort.SearchStrings(l.Songs, name)
	return i < len(l.Songs) && l.Songs[i] == name
}

// Scanner scans a directory once and serves the cached result afterwards.
//
// A Scanner lives for one sync run; a new run builds a new Scanner so the
// directory is re-read every time.
type Scanner struct {
	dir    string
	ext    string
	logger *log.Logger
	lib    *Library
}

// NewScanner creates a Scanner for dir. An empty ext means [DefaultExtension].
func NewScanner(dir, ext string, logger *log.Logger) *Scanner {
	if ext == "" {
		ext = DefaultExtension
	}
	return &Scanner{dir: dir, ext: strings.TrimPrefix(ext, "."), logger: logger}
}

// Scan lists the directory and splits its entries into songs and ignored files.
func (s *Scanner) Scan() (*Library, error) {
	if s.lib != nil {
		return s.lib, nil
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read music directory: %w", err)
	}

	lib := &Library{Dir: s.dir, Extension: s.ext, Songs: []string{}, Ignored: []string{}}
	for _, entry := range entries {
		name := entry.Name()
		if entry.Type().IsRegular() && looksLikeSong(name, s.ext) {
			lib.Songs = append(lib.Songs, name)
		} else {
			lib.Ignored = append(lib.Ignored, name)
		}
	}
	sort.Strings(lib.Songs)
	sort.Strings(lib.Ignored)

	if s.logger != nil {
		s.logger.Info("scanned music directory", "dir", s.dir, "songs", len(lib.Songs), "ignored", len(lib.Ignored))
		if len(lib.Ignored) > 0 {
			s.logger.Info("ignored files", "files", lib.Ignored)
		}
	}

	s.lib = lib
	return lib, nil
}

// looksLikeSong is the coarse filter: a "[" somewhere before a trailing "].ext".
// Names that pass still go through [ParseTagsExt] before they become desired state.
func looksLikeSong(name, ext string) bool {
	suffix := "]." + ext
	if !strings.HasSuffix(name, suffix) {
		return false
	}
	return strings.Contains(strings.TrimSuffix(name, suffix), "[")
}
