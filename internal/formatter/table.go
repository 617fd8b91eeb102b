package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/desertthunder/mtfs/internal/models"
	"github.com/desertthunder/mtfs/internal/tasks"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func newTable(w io.Writer, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Footer = text.FormatDefault
	t.AppendHeader(header)
	return t
}

// PlaylistTable lists playlists with their track counts and links.
func PlaylistTable(w io.Writer, playlists []models.Playlist) {
	t := newTable(w, table.Row{"#", "Name", "Tracks", "ID", "URL"})
	for i, p := range playlists {
		t.AppendRow(table.Row{i + 1, p.Name, p.TrackCount, p.ID, p.URL})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d playlists", len(playlists))})
	t.Render()
}

// ArchivedTable lists archived playlists alongside the provenance read from their descriptions.
func ArchivedTable(w io.Writer, playlists []models.Playlist) {
	t := newTable(w, table.Row{"#", "Name", "Archived At", "Original", "Snapshot", "URL"})
	for i, p := range playlists {
		row := table.Row{i + 1, p.Name, "", "", "", p.URL}
		if d, err := models.ParseArchiveDescriptor(p.Description); err == nil {
			row[2] = d.ArchivedAt.Format(models.DescriptorTimeLayout)
			row[3] = d.OriginalName
			row[4] = d.OriginalSnapshotID
		}
		t.AppendRow(row)
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d archived playlists", len(playlists))})
	t.Render()
}

// BatchTable renders the per-item outcome of an archive run followed by its tally.
func BatchTable(w io.Writer, result *tasks.BatchResult) {
	t := newTable(w, table.Row{"#", "Playlist", "Name", "Outcome", "Error"})
	for i, item := range result.Items {
		errText := ""
		if item.Err != nil {
			errText = item.Err.Error()
		}
		t.AppendRow(table.Row{i + 1, item.Job.PlaylistID, item.PlaylistName, Styles.Outcome(item.Outcome), errText})
	}
	t.AppendFooter(table.Row{"", Tally(result)})
	t.Render()
}

// Tally summarizes a batch run in one line.
func Tally(result *tasks.BatchResult) string {
	return fmt.Sprintf("%d archived, %d unchanged, %d not found, %d failed",
		result.Archived, result.Unchanged, result.NotFound, result.Failed)
}

// RecordTable lists stored archive records.
func RecordTable(w io.Writer, records []*models.ArchiveRecord) {
	t := newTable(w, table.Row{"Seq", "Name", "Week", "Tracks", "Original", "Snapshot", "Archived At"})
	for _, r := range records {
		t.AppendRow(table.Row{
			r.Sequence(),
			r.Name(),
			fmt.Sprintf("%d-W%02d", r.Year(), r.Week()),
			len(r.TrackIDs()),
			r.Source().Name,
			r.SourceSnapshotID(),
			r.CreatedAt().Local().Format(models.DescriptorTimeLayout),
		})
	}
	t.Render()
}

// SearchTable lists the playlists a searched track was found in.
func SearchTable(w io.Writer, result *tasks.SearchResult) {
	liked := "no"
	if result.Liked {
		liked = "yes"
	}
	fmt.Fprintf(w, "%s - %s\n", result.Track.ArtistNames(), result.Track.Name)
	fmt.Fprintf(w, "Liked Songs: %s\n", liked)

	t := newTable(w, table.Row{"#", "Playlist", "ID", "URL"})
	for i, p := range result.Playlists {
		t.AppendRow(table.Row{i + 1, p.Name, p.ID, p.URL})
	}
	t.Render()
}

// CatalogTable lists catalog tracks in release order.
func CatalogTable(w io.Writer, tracks []models.Track) {
	t := newTable(w, table.Row{"#", "Released", "Album", "Track", "Artists", "Length"})
	for i, tr := range tracks {
		t.AppendRow(table.Row{i + 1, tr.Album.ReleaseDate, tr.Album.Name, tr.Name, tr.ArtistNames(), FormatDuration(tr.DurationMS)})
	}
	t.Render()
}

// FormatDuration renders milliseconds as m:ss.
func FormatDuration(ms int) string {
	if ms <= 0 {
		return "0:00"
	}
	s := ms / 1000
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

// BatchReport renders a plain-text summary of an archive run, used as the mail body.
func BatchReport(result *tasks.BatchResult) string {
	var b strings.Builder

	archived := result.ArchivedItems()
	fmt.Fprintf(&b, "New archived playlists: %d\n\n", len(archived))
	for _, item := range archived {
		name := item.PlaylistName
		if name == "" {
			name = item.Job.PlaylistID
		}
		fmt.Fprintf(&b, "- %s (%s)\n", name, item.Job.PlaylistID)
	}

	var failed []tasks.BatchItem
	for _, item := range result.Items {
		if item.Outcome == tasks.OutcomeFailed {
			failed = append(failed, item)
		}
	}
	if len(failed) > 0 {
		b.WriteString("\nFailed:\n")
		for _, item := range failed {
			fmt.Fprintf(&b, "- %s: %v\n", item.Job.PlaylistID, item.Err)
		}
	}

	fmt.Fprintf(&b, "\n%s\n", Tally(result))
	return b.String()
}
