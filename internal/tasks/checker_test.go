package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/mtfs/internal/models"
	"github.com/desertthunder/mtfs/internal/repositories"
	"github.com/desertthunder/mtfs/internal/shared"
)

func archivedPlaylist(id, origID, snapshot string) models.Playlist {
	d := models.ArchiveDescriptor{
		ArchivedAt:         time.Date(2024, 1, 31, 12, 0, 0, 0, time.Local),
		OriginalName:       "Mix " + origID,
		OriginalOwner:      "Me",
		OriginalPlaylistID: origID,
		OriginalSnapshotID: snapshot,
	}
	return models.Playlist{ID: id, Name: "ARCHIVE-2024-05-Mix", Description: d.Encode()}
}

func knownArchives() []models.Playlist {
	return []models.Playlist{
		archivedPlaylist("a1", "orig-1", "snap-1"),
		archivedPlaylist("a2", "orig-2", "snap-2"),
		{ID: "a3", Description: "Archive Playlist: 31.01.2024 | truncated"},
		{ID: "a4", Description: "just a playlist"},
		archivedPlaylist("a5", "orig-3", "snap-3"),
	}
}

func TestDescriptionChecker(t *testing.T) {
	ctx := context.Background()
	checker := DescriptionChecker{}

	tests := []struct {
		name     string
		snapshot string
		want     bool
	}{
		{"known snapshot is unchanged", "snap-2", false},
		{"last snapshot is unchanged", "snap-3", false},
		{"unknown snapshot changed", "snap-9", true},
		{"prefix does not match", "snap", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := checker.HasChangedSinceLastArchive(ctx, tt.snapshot, knownArchives())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("HasChangedSinceLastArchive(%q) = %v, want %v", tt.snapshot, got, tt.want)
			}
		})
	}

	t.Run("order independent", func(t *testing.T) {
		known := knownArchives()
		for _, snapshot := range []string{"snap-1", "snap-2", "snap-3", "snap-9"} {
			want, _ := checker.HasChangedSinceLastArchive(ctx, snapshot, known)
			for i := range known {
				rotated := append(append([]models.Playlist{}, known[i:]...), known[:i]...)
				got, _ := checker.HasChangedSinceLastArchive(ctx, snapshot, rotated)
				if got != want {
					t.Errorf("snapshot %s rotation %d: got %v, want %v", snapshot, i, got, want)
				}
			}
			reversed := make([]models.Playlist, len(known))
			for i, p := range known {
				reversed[len(known)-1-i] = p
			}
			if got, _ := checker.HasChangedSinceLastArchive(ctx, snapshot, reversed); got != want {
				t.Errorf("snapshot %s reversed: got %v, want %v", snapshot, got, want)
			}
		}
	})

	t.Run("empty known list", func(t *testing.T) {
		got, err := checker.HasChangedSinceLastArchive(ctx, "snap-1", nil)
		if err != nil || !got {
			t.Errorf("expected changed, got %v (err %v)", got, err)
		}
	})
}

func TestStoreChecker(t *testing.T) {
	ctx := context.Background()

	t.Run("agrees with description checker", func(t *testing.T) {
		db, err := shared.NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()
		db.SetMaxOpenConns(1)
		if err := shared.RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		repo := repositories.NewArchiveRepository(db)
		known := knownArchives()
		for _, p := range known {
			d, err := models.ParseArchiveDescriptor(p.Description)
			if err != nil {
				continue
			}
			record := models.NewArchiveRecord(models.ArchiveRecordParams{
				PlaylistID: p.ID,
				NamePrefix: "ARCHIVE",
				NameSuffix: d.OriginalName,
				Source: models.Playlist{
					ID:         d.OriginalPlaylistID,
					Name:       d.OriginalName,
					OwnerName:  d.OriginalOwner,
					SnapshotID: d.OriginalSnapshotID,
				},
				ArchivedAt: d.ArchivedAt,
			})
			if err := repo.Create(record); err != nil {
				t.Fatalf("failed to store record: %v", err)
			}
		}

		byDescription := DescriptionChecker{}
		byStore := StoreChecker{Store: repo}
		for _, snapshot := range []string{"snap-1", "snap-2", "snap-3", "snap-4", "", "snap"} {
			want, err := byDescription.HasChangedSinceLastArchive(ctx, snapshot, known)
			if err != nil {
				t.Fatalf("description checker failed: %v", err)
			}
			got, err := byStore.HasChangedSinceLastArchive(ctx, snapshot, nil)
			if err != nil {
				t.Fatalf("store checker failed: %v", err)
			}
			if got != want {
				t.Errorf("snapshot %q: store says %v, descriptions say %v", snapshot, got, want)
			}
		}
	})

	t.Run("falls back to descriptions on a store miss", func(t *testing.T) {
		checker := StoreChecker{Store: &memStore{}}
		known := knownArchives()

		for _, snapshot := range []string{"snap-1", "snap-2", "snap-3", "snap-4", "", "snap"} {
			want, err := DescriptionChecker{}.HasChangedSinceLastArchive(ctx, snapshot, known)
			if err != nil {
				t.Fatalf("description checker failed: %v", err)
			}
			got, err := checker.HasChangedSinceLastArchive(ctx, snapshot, known)
			if err != nil {
				t.Fatalf("store checker failed: %v", err)
			}
			if got != want {
				t.Errorf("snapshot %q: empty store says %v, descriptions say %v", snapshot, got, want)
			}
		}
	})

	t.Run("store error propagates", func(t *testing.T) {
		boom := errors.New("disk on fire")
		checker := StoreChecker{Store: failingStore{err: boom}}

		if _, err := checker.HasChangedSinceLastArchive(ctx, "snap-1", nil); !errors.Is(err, boom) {
			t.Errorf("expected store error, got %v", err)
		}
	})
}

type failingStore struct{ err error }

func (s failingStore) Create(*models.ArchiveRecord) error { return s.err }
func (s failingStore) GetBySnapshotID(string) (*models.ArchiveRecord, error) {
	return nil, s.err
}
