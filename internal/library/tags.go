package library

import (
	"regexp"
	"sync"

	"github.com/desertthunder/ytsync/internal/shared"
)

var (
	patternsMu sync.Mutex
	patterns   = map[string]*regexp.Regexp{}
)

// namePattern returns the anchored naming-convention pattern for ext, compiling it once.
func namePattern(ext string) *regexp.Regexp {
	patternsMu.Lock()
	defer patternsMu.Unlock()

	if re, ok := patterns[ext]; ok {
		return re
	}
	re := regexp.MustCompile(`^[^\[\]]+\[([A-Za-z]*)\]\.` + regexp.QuoteMeta(ext) + `$`)
	patterns[ext] = re
	return re
}

// ParseTags validates name against "<free text> [<tags>].mp3" and returns the tags in bracket order.
//
// "song [ab].mp3" yields ["a", "b"]; "song [].mp3" yields an empty slice.
func ParseTags(name string) ([]string, error) {
	return ParseTagsExt(name, DefaultExtension)
}

// ParseTagsExt is [ParseTags] for an arbitrary file extension (without the dot).
func ParseTagsExt(name, ext string) ([]string, error) {
	m := namePattern(ext).FindStringSubmatch(name)
	if m == nil {
		return nil, &shared.NamingConventionError{File: name}
	}

	tags := make([]string, 0, len(m[1]))
	for _, r := range m[1] {
		tags = append(tags, string(r))
	}
	return tags, nil
}

// IsOwnedPlaylistTitle reports whether a remote playlist title is managed by ytsync:
// exactly one ASCII letter. Anything else belongs to the user and is never touched.
func IsOwnedPlaylistTitle(title string) bool {
	if len(title) != 1 {
		return false
	}
	// Non-ASCII letters such as "é" are left to the user.
	c := title[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// DesiredState maps each tag to the set of song titles that declare it.
//
// Songs with an empty tag list are tracked remotely but belong to no playlist.
// A single malformed name fails the whole computation.
func DesiredState(lib *Library) (map[string]map[string]struct{}, error) {
	desired := make(map[string]map[string]struct{})
	for _, song := range lib.Songs {
		tags, err := ParseTagsExt(song, lib.Extension)
		if err != nil {
			return nil, err
		}
		for _, tag := range tags {
			members, ok := desired[tag]
			if !ok {
				members = make(map[string]struct{})
				desired[tag] = members
			}
			members[song] = struct{}{}
		}
	}
	return desired, nil
}
