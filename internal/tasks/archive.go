package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mtfs/internal/models"
	"github.com/desertthunder/mtfs/internal/services"
	"github.com/desertthunder/mtfs/internal/shared"
)

// DefaultNamePrefix is used when neither the job nor the configuration names a prefix.
const DefaultNamePrefix = "ARCHIVE"

// Outcome is the result of archiving one playlist.
type Outcome string

const (
	OutcomeArchived  Outcome = "archived"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeNotFound  Outcome = "not_found"
	OutcomeFailed    Outcome = "failed"
)

// ArchiverOptions configure the orchestrator.
type ArchiverOptions struct {
	NamePrefix string
	BatchDelay time.Duration
}

// ArchiveOptions override naming and ordering of one archive.
type ArchiveOptions struct {
	Prefix    string
	Suffix    string // defaults to the source playlist's name
	SortOrder models.SortOrder
}

// Archiver snapshots playlists into private, tagged copies.
type Archiver struct {
	api     services.SpotifyAPI
	copier  *Copier
	checker ArchiveChecker
	store   ArchiveStore
	locator *Locator
	opts    ArchiverOptions
	logger  *log.Logger
	now     func() time.Time
}

// NewArchiver wires an archiver. store may be nil.
func NewArchiver(api services.SpotifyAPI, copier *Copier, checker ArchiveChecker, store ArchiveStore, locator *Locator, opts ArchiverOptions, logger *log.Logger) *Archiver {
	if opts.NamePrefix == "" {
		opts.NamePrefix = DefaultNamePrefix
	}
	return &Archiver{
		api:     api,
		copier:  copier,
		checker: checker,
		store:   store,
		locator: locator,
		opts:    opts,
		logger:  shared.WithLogger(logger, "component", "archiver"),
		now:     time.Now,
	}
}

// Archive copies playlistID into a new archive unless known already holds its current snapshot.
//
// It reports whether an archive was created. A missing source is not an error.
func (a *Archiver) Archive(ctx context.Context, playlistID string, known []models.Playlist, opts ArchiveOptions) (bool, error) {
	outcome, _, err := a.archive(ctx, playlistID, known, opts)
	return outcome == OutcomeArchived, err
}

func (a *Archiver) archive(ctx context.Context, playlistID string, known []models.Playlist, opts ArchiveOptions) (Outcome, string, error) {
	logger := shared.WithLogger(a.logger, "playlist_id", playlistID)

	source, err := a.api.Playlist(ctx, playlistID)
	switch {
	case errors.Is(err, shared.ErrPlaylistNotFound):
		logger.Warn("source playlist not found")
		return OutcomeNotFound, "", nil
	case err != nil:
		return OutcomeFailed, "", err
	}

	changed, err := a.checker.HasChangedSinceLastArchive(ctx, source.SnapshotID, known)
	if err != nil {
		return OutcomeFailed, source.Name, err
	}
	if !changed {
		logger.Info("playlist unchanged since last archive", "snapshot_id", source.SnapshotID)
		return OutcomeUnchanged, source.Name, nil
	}

	now := a.now().Truncate(time.Second)
	prefix := opts.Prefix
	if prefix == "" {
		prefix = a.opts.NamePrefix
	}
	suffix := opts.Suffix
	if suffix == "" {
		suffix = source.Name
	}

	descriptor := models.ArchiveDescriptor{
		ArchivedAt:         now,
		OriginalName:       source.Name,
		OriginalOwner:      source.OwnerName,
		OriginalPlaylistID: source.ID,
		OriginalSnapshotID: source.SnapshotID,
	}
	name := models.ArchiveName(prefix, suffix, now)

	res, err := a.copier.copy(ctx, playlistID, source, CopyOptions{
		Public:      false,
		Name:        name,
		Description: descriptor.Encode(),
		SortOrder:   opts.SortOrder,
	})
	if err != nil {
		if res != nil {
			logger.Error("archive left incomplete", "archive_id", res.PlaylistID, "err", err)
		}
		return OutcomeFailed, source.Name, err
	}

	if a.store != nil {
		record := models.NewArchiveRecord(models.ArchiveRecordParams{
			PlaylistID: res.PlaylistID,
			NamePrefix: prefix,
			NameSuffix: suffix,
			SortOrder:  opts.SortOrder,
			TrackIDs:   res.TrackIDs,
			Source:     *source,
			Cover:      res.Cover,
			ArchivedAt: now,
		})
		if err := a.store.Create(record); err != nil {
			logger.Warn("failed to store archive record", "archive_id", res.PlaylistID, "err", err)
		}
	}

	logger.Info("archived playlist", "name", name, "archive_id", res.PlaylistID, "tracks", len(res.TrackIDs))
	return OutcomeArchived, source.Name, nil
}
