package formatter

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/mtfs/internal/models"
	"github.com/desertthunder/mtfs/internal/shared"
	"github.com/desertthunder/mtfs/internal/tasks"
	th "github.com/desertthunder/mtfs/internal/testing"
	"github.com/google/go-cmp/cmp"
)

const jobFile = `Playlist_Name_Prefix;Playlist_Name_Suffix;Playlist_Sort_Order;Playlist_Id;Tags
ARCHIVE;Discover Weekly;desc;37i9dQZEVXcQ9COmYvdajy;weekly, discover
WEEKLY;;ASC;37i9dQZEVXbMDoHDwVN2tF;
;;;5ABHKGoOzxkaa28ttQV9sE;
`

func TestReadArchiveJobs(t *testing.T) {
	t.Run("parses rows", func(t *testing.T) {
		jobs, err := ReadArchiveJobs(strings.NewReader(jobFile))
		if err != nil {
			t.Fatalf("ReadArchiveJobs failed: %v", err)
		}

		want := []tasks.ArchiveJob{
			{PlaylistID: "37i9dQZEVXcQ9COmYvdajy", Prefix: "ARCHIVE", Suffix: "Discover Weekly", SortOrder: models.SortDesc, Tags: []string{"weekly", "discover"}},
			{PlaylistID: "37i9dQZEVXbMDoHDwVN2tF", Prefix: "WEEKLY", SortOrder: models.SortAsc},
			{PlaylistID: "5ABHKGoOzxkaa28ttQV9sE"},
		}
		if diff := cmp.Diff(want, jobs); diff != "" {
			t.Errorf("jobs mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("columns in any order", func(t *testing.T) {
		data := "Playlist_Id;Playlist_Sort_Order\nabc;desc\n"
		jobs, err := ReadArchiveJobs(strings.NewReader(data))
		if err != nil {
			t.Fatalf("ReadArchiveJobs failed: %v", err)
		}
		if len(jobs) != 1 || jobs[0].PlaylistID != "abc" || jobs[0].SortOrder != models.SortDesc {
			t.Errorf("unexpected jobs %+v", jobs)
		}
	})

	t.Run("byte order mark", func(t *testing.T) {
		jobs, err := ReadArchiveJobs(strings.NewReader("\ufeffPlaylist_Id\nabc\n"))
		if err != nil || len(jobs) != 1 {
			t.Errorf("expected BOM to be ignored, got %v, %v", jobs, err)
		}
	})

	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"no id column", "Playlist_Name_Prefix;Tags\nX;y\n"},
		{"missing id", "Playlist_Name_Prefix;Playlist_Id\nX;\n"},
		{"bad sort order", "Playlist_Id;Playlist_Sort_Order\nabc;sideways\n"},
		{"bad quoting", "Playlist_Id\n\"abc\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadArchiveJobs(strings.NewReader(tt.data))
			if !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestWriteArchiveJobs(t *testing.T) {
	jobs := JobsFromPlaylists([]models.Playlist{
		{ID: "p1", Name: "Road Trip"},
		{ID: "p2", Name: "Focus; Deep"},
	})

	var buf bytes.Buffer
	if err := WriteArchiveJobs(&buf, jobs); err != nil {
		t.Fatalf("WriteArchiveJobs failed: %v", err)
	}

	if !strings.HasPrefix(buf.String(), strings.Join(JobColumns, ";")+"\n") {
		t.Errorf("missing header row in %q", buf.String())
	}

	back, err := ReadArchiveJobs(&buf)
	if err != nil {
		t.Fatalf("written job file does not parse: %v", err)
	}
	if diff := cmp.Diff(jobs, back); diff != "" {
		t.Errorf("jobs mismatch (-want +got):\n%s", diff)
	}
	if back[1].Suffix != "Focus; Deep" {
		t.Errorf("delimiter inside a field must survive, got %q", back[1].Suffix)
	}
}

func TestParseArchiveInput(t *testing.T) {
	t.Run("id list", func(t *testing.T) {
		jobs, err := ParseArchiveInput("abc, def ,,ghi")
		if err != nil {
			t.Fatalf("ParseArchiveInput failed: %v", err)
		}
		var ids []string
		for _, j := range jobs {
			ids = append(ids, j.PlaylistID)
		}
		if diff := cmp.Diff([]string{"abc", "def", "ghi"}, ids); diff != "" {
			t.Errorf("ids mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("single id", func(t *testing.T) {
		jobs, err := ParseArchiveInput("abc")
		if err != nil || len(jobs) != 1 {
			t.Errorf("expected one job, got %v, %v", jobs, err)
		}
	})

	t.Run("job file", func(t *testing.T) {
		path := th.MustWriteFile(t, t.TempDir(), "jobs.csv", jobFile)
		jobs, err := ParseArchiveInput(path)
		if err != nil {
			t.Fatalf("ParseArchiveInput failed: %v", err)
		}
		if len(jobs) != 3 {
			t.Errorf("expected 3 jobs, got %d", len(jobs))
		}
	})

	t.Run("missing job file", func(t *testing.T) {
		_, err := ParseArchiveInput(t.TempDir() + "/nope.csv")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("empty", func(t *testing.T) {
		if _, err := ParseArchiveInput("  "); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if _, err := ParseArchiveInput(" , ,"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func sampleResult() *tasks.BatchResult {
	return &tasks.BatchResult{
		Items: []tasks.BatchItem{
			{Job: tasks.ArchiveJob{PlaylistID: "p1"}, Outcome: tasks.OutcomeArchived, PlaylistName: "Road Trip"},
			{Job: tasks.ArchiveJob{PlaylistID: "p2"}, Outcome: tasks.OutcomeUnchanged, PlaylistName: "Focus"},
			{Job: tasks.ArchiveJob{PlaylistID: "p3"}, Outcome: tasks.OutcomeFailed, Err: shared.ErrAPIRequest},
		},
		Archived:  1,
		Unchanged: 1,
		Failed:    1,
	}
}

func TestTables(t *testing.T) {
	t.Run("PlaylistTable", func(t *testing.T) {
		var buf bytes.Buffer
		PlaylistTable(&buf, []models.Playlist{{ID: "p1", Name: "Road Trip", TrackCount: 12, URL: "https://open.spotify.com/playlist/p1"}})

		for _, want := range []string{"Road Trip", "12", "p1", "https://open.spotify.com/playlist/p1", "1 playlists"} {
			if !strings.Contains(buf.String(), want) {
				t.Errorf("output missing %q:\n%s", want, buf.String())
			}
		}
	})

	t.Run("ArchivedTable", func(t *testing.T) {
		d := models.ArchiveDescriptor{
			ArchivedAt:         time.Date(2024, 1, 31, 18, 45, 10, 0, time.Local),
			OriginalName:       "Road Trip",
			OriginalPlaylistID: "p1",
			OriginalSnapshotID: "snap-1",
		}
		var buf bytes.Buffer
		ArchivedTable(&buf, []models.Playlist{
			{ID: "a1", Name: "ARCHIVE-2024-05-Road Trip", Description: d.Encode()},
			{ID: "a2", Name: "broken", Description: "nothing"},
		})

		for _, want := range []string{"ARCHIVE-2024-05-Road Trip", "31.01.2024 18:45:10", "snap-1", "broken"} {
			if !strings.Contains(buf.String(), want) {
				t.Errorf("output missing %q:\n%s", want, buf.String())
			}
		}
	})

	t.Run("BatchTable", func(t *testing.T) {
		var buf bytes.Buffer
		BatchTable(&buf, sampleResult())

		for _, want := range []string{"p1", "Road Trip", "archived", "unchanged", "failed", "API request failed", "1 archived, 1 unchanged, 0 not found, 1 failed"} {
			if !strings.Contains(buf.String(), want) {
				t.Errorf("output missing %q:\n%s", want, buf.String())
			}
		}
	})

	t.Run("RecordTable", func(t *testing.T) {
		record := models.NewArchiveRecord(models.ArchiveRecordParams{
			PlaylistID: "a1",
			NamePrefix: "ARCHIVE",
			NameSuffix: "Road Trip",
			TrackIDs:   []string{"t1", "t2"},
			Source:     models.Playlist{ID: "p1", Name: "Road Trip", SnapshotID: "snap-1"},
			ArchivedAt: time.Date(2024, 1, 31, 18, 45, 10, 0, time.Local),
		})
		record.SetSequence(7)

		var buf bytes.Buffer
		RecordTable(&buf, []*models.ArchiveRecord{record})

		for _, want := range []string{"7", "ARCHIVE-2024-05-Road Trip", "2024-W05", "snap-1", "31.01.2024 18:45:10"} {
			if !strings.Contains(buf.String(), want) {
				t.Errorf("output missing %q:\n%s", want, buf.String())
			}
		}
	})

	t.Run("SearchTable", func(t *testing.T) {
		var buf bytes.Buffer
		SearchTable(&buf, &tasks.SearchResult{
			Track:     models.Track{ID: "t1", Name: "Song", Artists: []models.Artist{{Name: "A"}, {Name: "B"}}},
			Liked:     true,
			Playlists: []models.Playlist{{ID: "p1", Name: "Road Trip"}},
		})

		for _, want := range []string{"A, B - Song", "Liked Songs: yes", "Road Trip"} {
			if !strings.Contains(buf.String(), want) {
				t.Errorf("output missing %q:\n%s", want, buf.String())
			}
		}
	})

	t.Run("CatalogTable", func(t *testing.T) {
		var buf bytes.Buffer
		CatalogTable(&buf, []models.Track{{
			Name:       "Song",
			DurationMS: 185000,
			Album:      models.Album{Name: "Debut", ReleaseDate: "2010-01-01"},
		}})

		for _, want := range []string{"2010-01-01", "Debut", "Song", "3:05"} {
			if !strings.Contains(buf.String(), want) {
				t.Errorf("output missing %q:\n%s", want, buf.String())
			}
		}
	})
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		ms   int
		want string
	}{
		{0, "0:00"},
		{-5, "0:00"},
		{59999, "0:59"},
		{60000, "1:00"},
		{3723000, "62:03"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.ms); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}

func TestBatchReport(t *testing.T) {
	report := BatchReport(sampleResult())

	for _, want := range []string{"New archived playlists: 1", "- Road Trip (p1)", "Failed:", "- p3: API request failed", "1 archived"} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
	if strings.Contains(report, "Focus") {
		t.Error("unchanged playlists should not be listed")
	}
}

func TestPalette(t *testing.T) {
	p := NewPalette("#000000", "#000000", "#000000", "#000000", "#000000")
	for _, o := range []tasks.Outcome{tasks.OutcomeArchived, tasks.OutcomeUnchanged, tasks.OutcomeNotFound, tasks.OutcomeFailed} {
		if !strings.Contains(p.Outcome(o), string(o)) {
			t.Errorf("styled outcome should contain %q", o)
		}
	}
}
