package library

import (
	"fmt"
	"os"

	"github.com/dhowden/tag"
)

// Metadata holds the embedded tags of a music file. It is informational only:
// sync identity is always the file name.
type Metadata struct {
	Title  string
	Artist string
	Album  string
	Format string
}

// ReadMetadata reads embedded ID3/MP4/FLAC tags from path.
func ReadMetadata(path string) (*Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read tags from %s: %w", path, err)
	}

	return &Metadata{
		Title:  m.Title(),
		Artist: m.Artist(),
		Album:  m.Album(),
		Format: string(m.Format()),
	}, nil
}
