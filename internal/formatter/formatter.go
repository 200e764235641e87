// package formatter renders sync reports, plans, run history and library listings
// as plain text, and exports history to CSV
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/ytsync/internal/library"
	"github.com/desertthunder/ytsync/internal/models"
	"github.com/desertthunder/ytsync/internal/tasks"
)

const timeLayout = "2006-01-02 15:04:05"

func heading(buf *bytes.Buffer, title string) {
	buf.WriteString(styles.title.Render(title))
	buf.WriteString("\n")
}

func list(buf *bytes.Buffer, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(buf, "  %s (%d):\n", label, len(items))
	for _, item := range items {
		fmt.Fprintf(buf, "    - %s\n", item)
	}
}

// FormatRunReport renders the outcome of a sync run.
func FormatRunReport(report *tasks.RunReport) string {
	var buf bytes.Buffer

	heading(&buf, "Sync: "+report.Dir)
	if len(report.Ignored) > 0 {
		buf.WriteString(styles.muted.Render(fmt.Sprintf("Ignored %d files not matching \"name [tags].ext\"", len(report.Ignored))))
		buf.WriteString("\n")
	}

	if lib := report.Library; lib != nil {
		buf.WriteString("\n")
		heading(&buf, "Library")
		fmt.Fprintf(&buf, "  Local: %d  Remote: %d  Unchanged: %d\n", lib.Local, lib.Remote, lib.Unchanged)
		list(&buf, "Uploaded", lib.Uploaded)
		list(&buf, "Deleted", lib.Deleted)
		if !lib.Changed() {
			buf.WriteString(styles.ok.Render("  Up to date"))
			buf.WriteString("\n")
		}
	}

	if report.Settled > 0 {
		fmt.Fprintf(&buf, "\nWaited %s for uploads to settle\n", report.Settled)
	}

	if pl := report.Playlists; pl != nil {
		buf.WriteString("\n")
		heading(&buf, "Playlists")
		list(&buf, "Created", pl.Created)
		list(&buf, "Deleted", pl.Deleted)
		list(&buf, "Kept", pl.Kept)
		if len(pl.Foreign) > 0 {
			fmt.Fprintf(&buf, "  Left alone: %s\n", strings.Join(pl.Foreign, ", "))
		}
		for _, c := range pl.Changes {
			fmt.Fprintf(&buf, "  [%s] +%d -%d\n", c.Tag, len(c.Added), len(c.Removed))
			for _, title := range c.Added {
				fmt.Fprintf(&buf, "    + %s\n", title)
			}
			for _, title := range c.Removed {
				fmt.Fprintf(&buf, "    - %s\n", title)
			}
		}
		if len(pl.Created) == 0 && len(pl.Deleted) == 0 && len(pl.Changes) == 0 {
			buf.WriteString(styles.ok.Render("  Up to date"))
			buf.WriteString("\n")
		}
	}

	return buf.String()
}

// FormatPlan renders the changes a dry run found.
func FormatPlan(plan *tasks.Plan) string {
	var buf bytes.Buffer

	heading(&buf, "Dry run")
	empty := len(plan.Upload) == 0 && len(plan.Delete) == 0 &&
		len(plan.CreatePlaylists) == 0 && len(plan.DeletePlaylists) == 0 && len(plan.Items) == 0
	if empty {
		buf.WriteString(styles.ok.Render("Nothing to do"))
		buf.WriteString("\n")
		return buf.String()
	}

	list(&buf, "Would upload", plan.Upload)
	list(&buf, "Would delete", plan.Delete)
	list(&buf, "Would create playlists", plan.CreatePlaylists)
	list(&buf, "Would delete playlists", plan.DeletePlaylists)
	for _, c := range plan.Items {
		fmt.Fprintf(&buf, "  [%s] +%d -%d\n", c.Tag, len(c.Added), len(c.Removed))
		for _, title := range c.Added {
			fmt.Fprintf(&buf, "    + %s\n", title)
		}
		for _, title := range c.Removed {
			fmt.Fprintf(&buf, "    - %s\n", title)
		}
	}

	return buf.String()
}

// FormatHistory renders sync runs one per line, newest first as given.
func FormatHistory(runs []*models.SyncRun) string {
	if len(runs) == 0 {
		return styles.muted.Render("No sync runs recorded") + "\n"
	}

	var buf bytes.Buffer
	heading(&buf, "Sync history")
	for _, run := range runs {
		c := run.Counts()
		fmt.Fprintf(&buf, "#%-4d %s  %-9s %s  songs +%d -%d  playlists +%d -%d  items +%d -%d",
			run.Sequence(),
			run.StartedAt().Local().Format(timeLayout),
			run.Kind(),
			styles.status(run.Status()),
			c.SongsUploaded, c.SongsDeleted,
			c.PlaylistsCreated, c.PlaylistsDeleted,
			c.ItemsAdded, c.ItemsRemoved,
		)
		if d := run.Duration(); d > 0 {
			fmt.Fprintf(&buf, "  (%s)", d.Round(time.Second))
		}
		buf.WriteString("\n")
		if msg := run.ErrorMessage(); msg != "" {
			fmt.Fprintf(&buf, "      %s\n", styles.err.Render(msg))
		}
	}
	return buf.String()
}

// FormatLibrary renders the songs of a scanned library with their tags.
//
// meta is optional; songs with an entry get their embedded title and artist appended.
func FormatLibrary(lib *library.Library, meta map[string]*library.Metadata) string {
	var buf bytes.Buffer

	heading(&buf, fmt.Sprintf("%s (%d songs)", lib.Dir, len(lib.Songs)))
	for _, song := range lib.Songs {
		tags, err := library.ParseTagsExt(song, lib.Extension)
		label := strings.Join(tags, "")
		if err != nil {
			label = styles.err.Render("invalid name")
		} else if label == "" {
			label = "-"
		}

		fmt.Fprintf(&buf, "  %s  [%s]", song, label)
		if m, ok := meta[song]; ok && m != nil {
			fmt.Fprintf(&buf, "  %s", styles.muted.Render(m.Artist+" - "+m.Title))
		}
		buf.WriteString("\n")
	}
	if len(lib.Ignored) > 0 {
		fmt.Fprintf(&buf, "%s\n", styles.muted.Render(fmt.Sprintf("%d other files ignored", len(lib.Ignored))))
	}
	return buf.String()
}

// ExportHistoryCSV converts sync runs to CSV with one row per run.
func ExportHistoryCSV(runs []*models.SyncRun) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{
		"Sequence", "ID", "Kind", "Dir", "Status", "Started", "Completed",
		"SongsUploaded", "SongsDeleted", "PlaylistsCreated", "PlaylistsDeleted",
		"ItemsAdded", "ItemsRemoved", "Error",
	}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, run := range runs {
		completed := ""
		if at := run.CompletedAt(); at != nil {
			completed = at.UTC().Format(time.RFC3339)
		}
		c := run.Counts()
		record := []string{
			strconv.Itoa(run.Sequence()),
			run.ID(),
			run.Kind(),
			run.MusicDir(),
			run.Status(),
			run.StartedAt().UTC().Format(time.RFC3339),
			completed,
			strconv.Itoa(c.SongsUploaded),
			strconv.Itoa(c.SongsDeleted),
			strconv.Itoa(c.PlaylistsCreated),
			strconv.Itoa(c.PlaylistsDeleted),
			strconv.Itoa(c.ItemsAdded),
			strconv.Itoa(c.ItemsRemoved),
			run.ErrorMessage(),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// WriteHistoryCSV writes [ExportHistoryCSV] output to path.
func WriteHistoryCSV(runs []*models.SyncRun, path string) error {
	data, err := ExportHistoryCSV(runs)
	if err != nil {
		return fmt.Errorf("failed to generate CSV: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write CSV file: %w", err)
	}
	return nil
}
