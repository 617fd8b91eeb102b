package tasks

import (
	"context"
	"errors"
	"fmt"
	"html"
	"slices"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/mtfs/internal/models"
	"github.com/desertthunder/mtfs/internal/services"
	"github.com/desertthunder/mtfs/internal/shared"
)

const (
	defaultPollInterval = 20 * time.Millisecond
	defaultMaxWait      = 2 * time.Minute
)

var errDescriptionPending = errors.New("description not yet visible")

// CopierOptions pace the copy.
type CopierOptions struct {
	TrackBatchDelay time.Duration
	PollInterval    time.Duration
	MaxWait         time.Duration // bound on the description check
}

// CopyOptions describe the destination playlist. Empty name and description default to the source's.
type CopyOptions struct {
	Public      bool
	Name        string
	Description string
	SortOrder   models.SortOrder
}

// CopyResult is what a copy produced.
type CopyResult struct {
	PlaylistID string
	TrackIDs   []string
	Cover      []byte
}

// Copier duplicates a playlist under the current user.
type Copier struct {
	api    services.SpotifyAPI
	tracks *TrackResolver
	covers *CoverReplicator
	opts   CopierOptions
	logger *log.Logger
}

func NewCopier(api services.SpotifyAPI, tracks *TrackResolver, covers *CoverReplicator, opts CopierOptions, logger *log.Logger) *Copier {
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.MaxWait <= 0 {
		opts.MaxWait = defaultMaxWait
	}
	return &Copier{
		api:    api,
		tracks: tracks,
		covers: covers,
		opts:   opts,
		logger: shared.WithLogger(logger, "component", "copier"),
	}
}

// Copy creates a new playlist holding the tracks of sourceID and returns its id.
//
// source may be nil, in which case it is fetched; a missing source yields [shared.ErrPlaylistNotFound].
// A failure after creation leaves the new playlist in place, incomplete.
func (c *Copier) Copy(ctx context.Context, sourceID string, source *models.Playlist, opts CopyOptions) (string, error) {
	res, err := c.copy(ctx, sourceID, source, opts)
	if err != nil {
		return "", err
	}
	return res.PlaylistID, nil
}

func (c *Copier) copy(ctx context.Context, sourceID string, source *models.Playlist, opts CopyOptions) (*CopyResult, error) {
	if source == nil {
		p, err := c.api.Playlist(ctx, sourceID)
		if err != nil {
			return nil, err
		}
		source = p
	}

	name := opts.Name
	if name == "" {
		name = source.Name
	}
	description := opts.Description
	if description == "" {
		description = html.UnescapeString(source.Description)
	}

	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve current user: %w", err)
	}

	created, err := c.api.CreatePlaylist(ctx, user.ID, name, description, opts.Public)
	if err != nil {
		return nil, fmt.Errorf("failed to create playlist %q: %w", name, err)
	}

	res := &CopyResult{PlaylistID: created.ID}
	logger := shared.WithLogger(c.logger, "playlist_id", created.ID)
	logger.Info("created playlist", "name", name, "source", source.ID)

	if description != "" {
		if err := c.confirmDescription(ctx, created.ID, description); err != nil {
			return res, err
		}
	}

	tracks, err := c.tracks.Tracks(ctx, source.ID, opts.SortOrder)
	if err != nil {
		return res, err
	}
	res.TrackIDs = TrackIDs(tracks)

	if err := c.AddTracks(ctx, created.ID, res.TrackIDs); err != nil {
		return res, err
	}

	res.Cover = c.covers.Replicate(ctx, created.ID, source.ImageURL)
	logger.Info("copied playlist", "tracks", len(res.TrackIDs), "cover", res.Cover != nil)
	return res, nil
}

// confirmDescription polls playlistID until the API returns want as its description,
// re-issuing the update after every mismatch.
func (c *Copier) confirmDescription(ctx context.Context, playlistID, want string) error {
	attempts := 0
	op := func() (struct{}, error) {
		attempts++
		p, err := c.api.Playlist(ctx, playlistID)
		if errors.Is(err, shared.ErrNotAuthenticated) {
			return struct{}{}, backoff.Permanent(err)
		}
		if err == nil && p.Description != "" && html.UnescapeString(p.Description) == want {
			return struct{}{}, nil
		}
		if err := c.api.UpdatePlaylistDescription(ctx, playlistID, want); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, errDescriptionPending
	}

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(c.opts.PollInterval)),
		backoff.WithMaxElapsedTime(c.opts.MaxWait),
	)
	switch {
	case err == nil:
		c.logger.Debug("description confirmed", "playlist_id", playlistID, "attempts", attempts)
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, shared.ErrNotAuthenticated):
		return err
	default:
		return fmt.Errorf("%w: playlist %s after %d attempts in %s: %v", shared.ErrDescriptionTimeout, playlistID, attempts, c.opts.MaxWait, err)
	}
}

// AddTracks appends trackIDs to playlistID in batches of [services.MaxTracksPerRequest].
// Failures are not retried.
func (c *Copier) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	pacer := NewPacer(c.opts.TrackBatchDelay)
	added := 0
	for batch := range slices.Chunk(trackIDs, services.MaxTracksPerRequest) {
		if err := pacer.Wait(ctx); err != nil {
			return err
		}
		if err := c.api.AddPlaylistTracks(ctx, playlistID, batch); err != nil {
			return fmt.Errorf("failed to add tracks %d-%d to %s: %w", added, added+len(batch), playlistID, err)
		}
		added += len(batch)
	}
	return nil
}
