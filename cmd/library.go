package main

import (
	"context"

	"github.com/desertthunder/ytsync/internal/formatter"
	"github.com/desertthunder/ytsync/internal/library"
	"github.com/urfave/cli/v3"
)

// songEntry is the JSON shape of one listed song.
type songEntry struct {
	Name   string   `json:"name"`
	Tags   []string `json:"tags"`
	Valid  bool     `json:"valid"`
	Title  string   `json:"title,omitempty"`
	Artist string   `json:"artist,omitempty"`
	Album  string   `json:"album,omitempty"`
}

// LibraryList lists the songs of the music directory with their tags.
func (r *Runner) LibraryList(ctx context.Context, cmd *cli.Command) error {
	dir, err := r.musicDir(cmd)
	if err != nil {
		return err
	}

	lib, err := library.NewScanner(dir, r.config.Library.Extension, r.logger).Scan()
	if err != nil {
		return err
	}

	var meta map[string]*library.Metadata
	if cmd.Bool("metadata") {
		meta = make(map[string]*library.Metadata, len(lib.Songs))
		for _, song := range lib.Songs {
			m, err := library.ReadMetadata(lib.Path(song))
			if err != nil {
				r.logger.Debug("no embedded metadata", "file", song, "error", err)
				continue
			}
			meta[song] = m
		}
	}

	if !cmd.Bool("json") {
		return r.writePlain("%s", formatter.FormatLibrary(lib, meta))
	}

	entries := make([]songEntry, 0, len(lib.Songs))
	for _, song := range lib.Songs {
		tags, err := library.ParseTagsExt(song, lib.Extension)
		entry := songEntry{Name: song, Tags: tags, Valid: err == nil}
		if entry.Tags == nil {
			entry.Tags = []string{}
		}
		if m, ok := meta[song]; ok {
			entry.Title, entry.Artist, entry.Album = m.Title, m.Artist, m.Album
		}
		entries = append(entries, entry)
	}
	return r.writeJSON(entries, true)
}
