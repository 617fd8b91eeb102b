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

// SearchResult locates a track in the user's library.
type SearchResult struct {
	Track     models.Track
	Liked     bool
	Playlists []models.Playlist
}

// TrackSearch scans Liked Songs and owned playlists for a track.
type TrackSearch struct {
	api     services.SpotifyAPI
	locator *Locator
	tracks  *TrackResolver
	logger  *log.Logger
}

func NewTrackSearch(api services.SpotifyAPI, locator *Locator, tracks *TrackResolver, logger *log.Logger) *TrackSearch {
	return &TrackSearch{api: api, locator: locator, tracks: tracks, logger: shared.WithLogger(logger, "component", "search")}
}

// FindTrack reports whether trackID is liked and which owned playlists contain it.
// Archived playlists are scanned only when withArchived is set.
func (s *TrackSearch) FindTrack(ctx context.Context, trackID string, withArchived bool) (*SearchResult, error) {
	track, err := s.api.Track(ctx, trackID)
	if err != nil {
		return nil, err
	}

	liked, err := s.api.SavedTracksContain(ctx, trackID)
	if err != nil {
		return nil, fmt.Errorf("failed to check liked songs: %w", err)
	}

	result := &SearchResult{Track: *track, Liked: len(liked) > 0 && liked[0]}
	for p, err := range s.locator.OwnedPlaylists(ctx, true, withArchived) {
		if err != nil {
			return nil, err
		}

		tracks, err := s.tracks.Tracks(ctx, p.ID, models.SortNone)
		if err != nil {
			return nil, err
		}
		if slices.ContainsFunc(tracks, func(t models.Track) bool { return t.ID == trackID }) {
			result.Playlists = append(result.Playlists, p)
		}
	}

	s.logger.Debug("track search finished", "track_id", trackID, "liked", result.Liked, "playlists", len(result.Playlists))
	return result, nil
}
