package tasks

import (
	"context"
	"fmt"
	"iter"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mtfs/internal/models"
	"github.com/desertthunder/mtfs/internal/services"
	"github.com/desertthunder/mtfs/internal/shared"
)

// Locator enumerates the playlists owned by the authenticated user.
type Locator struct {
	api    services.SpotifyAPI
	pacer  *Pacer
	logger *log.Logger
}

func NewLocator(api services.SpotifyAPI, pacer *Pacer, logger *log.Logger) *Locator {
	return &Locator{api: api, pacer: pacer, logger: shared.WithLogger(logger, "component", "locator")}
}

// OwnedPlaylists yields the user's own playlists.
//
// A playlist whose description carries an archive descriptor is yielded when includeArchived is set,
// any other owned playlist when includeSelfCreated is set. Followed playlists owned by others are never yielded.
func (l *Locator) OwnedPlaylists(ctx context.Context, includeSelfCreated, includeArchived bool) iter.Seq2[models.Playlist, error] {
	return func(yield func(models.Playlist, error) bool) {
		user, err := l.api.CurrentUser(ctx)
		if err != nil {
			yield(models.Playlist{}, fmt.Errorf("failed to resolve current user: %w", err))
			return
		}

		for p, err := range Paginate[models.Playlist](ctx, l.pacer, services.EndpointMyPlaylists, l.api.MyPlaylists, services.PageOptions{Limit: pageLimit}) {
			if err != nil {
				yield(models.Playlist{}, fmt.Errorf("failed to list playlists: %w", err))
				return
			}
			if p.OwnerID != user.ID {
				continue
			}

			archived := models.IsArchiveDescription(p.Description)
			if (archived && includeArchived) || (!archived && includeSelfCreated) {
				if !yield(p, nil) {
					return
				}
			}
		}
	}
}

// FindAllArchived returns every archived playlist the user owns.
func (l *Locator) FindAllArchived(ctx context.Context) ([]models.Playlist, error) {
	return Collect(l.OwnedPlaylists(ctx, false, true))
}

// FindAllSelfCreated returns every owned playlist that is not an archive.
func (l *Locator) FindAllSelfCreated(ctx context.Context) ([]models.Playlist, error) {
	return Collect(l.OwnedPlaylists(ctx, true, false))
}

// DeleteArchived unfollows every archived playlist and returns the ones removed.
//
// Stored archive records are left untouched.
func (l *Locator) DeleteArchived(ctx context.Context) ([]models.Playlist, error) {
	archived, err := l.FindAllArchived(ctx)
	if err != nil {
		return nil, err
	}

	deleted := make([]models.Playlist, 0, len(archived))
	for _, p := range archived {
		if err := l.pacer.Wait(ctx); err != nil {
			return deleted, err
		}
		if err := l.api.UnfollowPlaylist(ctx, p.ID); err != nil {
			return deleted, fmt.Errorf("failed to delete %s: %w", p.ID, err)
		}
		l.logger.Info("deleted archived playlist", "playlist_id", p.ID, "name", p.Name)
		deleted = append(deleted, p)
	}
	return deleted, nil
}
