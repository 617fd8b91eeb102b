package tasks

import (
	"context"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mtfs/internal/models"
	"github.com/desertthunder/mtfs/internal/services"
	"github.com/desertthunder/mtfs/internal/shared"
)

const pageLimit = 50

// TrackResolver lists a playlist's tracks.
type TrackResolver struct {
	api    services.SpotifyAPI
	pacer  *Pacer
	logger *log.Logger
}

func NewTrackResolver(api services.SpotifyAPI, pacer *Pacer, logger *log.Logger) *TrackResolver {
	return &TrackResolver{api: api, pacer: pacer, logger: shared.WithLogger(logger, "component", "tracks")}
}

// Tracks returns the tracks of playlistID, skipping unavailable entries.
//
// With [models.SortAsc] or [models.SortDesc] the tracks are stably sorted by the time they were added;
// otherwise playlist order is kept.
func (r *TrackResolver) Tracks(ctx context.Context, playlistID string, order models.SortOrder) ([]models.Track, error) {
	fetch := func(ctx context.Context, opts services.PageOptions) (*services.Page[models.PlaylistItem], error) {
		return r.api.PlaylistTracks(ctx, playlistID, opts)
	}

	var tracks []models.Track
	for item, err := range Paginate[models.PlaylistItem](ctx, r.pacer, services.EndpointPlaylistTracks, fetch, services.PageOptions{Limit: pageLimit}) {
		if err != nil {
			return nil, fmt.Errorf("failed to list tracks of %s: %w", playlistID, err)
		}
		if item.Track == nil || item.Track.ID == "" {
			continue
		}
		track := *item.Track
		track.AddedAt = item.AddedAt
		tracks = append(tracks, track)
	}

	r.logger.Debug("resolved tracks", "playlist_id", playlistID, "count", len(tracks), "order", order)
	SortTracks(tracks, order)
	return tracks, nil
}

// SortTracks stably sorts tracks in place by their added-at time.
func SortTracks(tracks []models.Track, order models.SortOrder) {
	switch order {
	case models.SortAsc:
		slices.SortStableFunc(tracks, func(a, b models.Track) int {
			return a.AddedAt.Compare(b.AddedAt)
		})
	case models.SortDesc:
		slices.SortStableFunc(tracks, func(a, b models.Track) int {
			return b.AddedAt.Compare(a.AddedAt)
		})
	}
}

// TrackIDs returns the ids of tracks in order.
func TrackIDs(tracks []models.Track) []string {
	ids := make([]string, 0, len(tracks))
	for _, t := range tracks {
		ids = append(ids, t.ID)
	}
	return ids
}
