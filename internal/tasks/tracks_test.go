package tasks

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/desertthunder/mtfs/internal/models"
	"github.com/desertthunder/mtfs/internal/shared"
	"github.com/google/go-cmp/cmp"
)

func TestSortTracks(t *testing.T) {
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	t3 := t2.Add(time.Hour)

	tests := []struct {
		name   string
		tracks []models.Track
		order  models.SortOrder
		want   []string
	}{
		{
			name:   "ascending",
			tracks: []models.Track{track("T2", t2), track("T1", t1), track("T3", t3)},
			order:  models.SortAsc,
			want:   []string{"T1", "T2", "T3"},
		},
		{
			name:   "descending",
			tracks: []models.Track{track("T2", t2), track("T1", t1), track("T3", t3)},
			order:  models.SortDesc,
			want:   []string{"T3", "T2", "T1"},
		},
		{
			name:   "unsorted keeps order",
			tracks: []models.Track{track("T2", t2), track("T1", t1), track("T3", t3)},
			order:  models.SortNone,
			want:   []string{"T2", "T1", "T3"},
		},
		{
			name:   "ascending is stable",
			tracks: []models.Track{track("A", t2), track("B", t1), track("C", t2), track("D", t1)},
			order:  models.SortAsc,
			want:   []string{"B", "D", "A", "C"},
		},
		{
			name:   "descending is stable",
			tracks: []models.Track{track("A", t2), track("B", t1), track("C", t2), track("D", t1)},
			order:  models.SortDesc,
			want:   []string{"A", "C", "B", "D"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SortTracks(tt.tracks, tt.order)
			if diff := cmp.Diff(tt.want, ids(tt.tracks)); diff != "" {
				t.Errorf("order mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTrackResolver(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	api := newFakeAPI()
	api.addPlaylist(models.Playlist{ID: "pl1", Name: "Mix"},
		track("T2", base.Add(2*time.Hour)),
		track("T1", base.Add(time.Hour)),
		track("T3", base.Add(3*time.Hour)),
	)
	api.items["pl1"] = append(api.items["pl1"], models.PlaylistItem{AddedAt: base}) // removed track

	resolver := NewTrackResolver(api, NewPacer(0), shared.NewLogger(io.Discard))

	t.Run("keeps playlist order and drops missing tracks", func(t *testing.T) {
		got, err := resolver.Tracks(ctx, "pl1", models.SortNone)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff([]string{"T2", "T1", "T3"}, ids(got)); diff != "" {
			t.Errorf("tracks mismatch (-want +got):\n%s", diff)
		}
		if got[0].AddedAt.IsZero() {
			t.Error("expected added-at to be carried over")
		}
	})

	t.Run("sorts", func(t *testing.T) {
		got, err := resolver.Tracks(ctx, "pl1", models.SortDesc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff([]string{"T3", "T2", "T1"}, ids(got)); diff != "" {
			t.Errorf("tracks mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("missing playlist", func(t *testing.T) {
		if _, err := resolver.Tracks(ctx, "nope", models.SortNone); err == nil {
			t.Error("expected error for missing playlist")
		}
	})
}
