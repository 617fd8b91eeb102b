package tasks

import (
	"context"
	"errors"

	"github.com/desertthunder/mtfs/internal/models"
	"github.com/desertthunder/mtfs/internal/shared"
)

// ArchiveChecker decides whether a playlist snapshot still needs archiving.
type ArchiveChecker interface {
	HasChangedSinceLastArchive(ctx context.Context, snapshotID string, known []models.Playlist) (bool, error)
}

// ArchiveStore persists archive records. Lookups of unknown snapshots fail with [shared.ErrArchiveNotFound].
type ArchiveStore interface {
	Create(record *models.ArchiveRecord) error
	GetBySnapshotID(snapshotID string) (*models.ArchiveRecord, error)
}

// DescriptionChecker scans the descriptors embedded in known archive descriptions.
type DescriptionChecker struct{}

// HasChangedSinceLastArchive reports false when any known archive was taken from snapshotID.
// Descriptions that do not parse never match.
func (DescriptionChecker) HasChangedSinceLastArchive(_ context.Context, snapshotID string, known []models.Playlist) (bool, error) {
	for _, p := range known {
		d, err := models.ParseArchiveDescriptor(p.Description)
		if err != nil {
			continue
		}
		if d.OriginalSnapshotID == snapshotID {
			return false, nil
		}
	}
	return true, nil
}

// StoreChecker looks snapshots up in an [ArchiveStore] and falls back to the known archive
// descriptions when the store has no record, so archives made before the store was enabled
// or whose record failed to save still count.
type StoreChecker struct {
	Store ArchiveStore
}

func (c StoreChecker) HasChangedSinceLastArchive(ctx context.Context, snapshotID string, known []models.Playlist) (bool, error) {
	_, err := c.Store.GetBySnapshotID(snapshotID)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, shared.ErrArchiveNotFound):
		return DescriptionChecker{}.HasChangedSinceLastArchive(ctx, snapshotID, known)
	default:
		return false, err
	}
}
