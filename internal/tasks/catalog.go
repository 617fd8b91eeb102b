package tasks

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mtfs/internal/models"
	"github.com/desertthunder/mtfs/internal/services"
	"github.com/desertthunder/mtfs/internal/shared"
)

// CatalogTimeLayout formats the creation stamp of a catalog playlist.
const CatalogTimeLayout = "2006-01-02 15:04:05"

var catalogGroups = []string{services.AlbumGroupAlbum, services.AlbumGroupSingle, services.AlbumGroupAppearsOn}

// CatalogResult describes a built catalog.
type CatalogResult struct {
	Artist     models.Artist
	PlaylistID string
	Created    bool
	Tracks     []models.Track
}

// CatalogBuilder assembles an artist's discography into one playlist.
type CatalogBuilder struct {
	api    services.SpotifyAPI
	copier *Copier
	pacer  *Pacer
	logger *log.Logger
	now    func() time.Time
}

func NewCatalogBuilder(api services.SpotifyAPI, copier *Copier, pacer *Pacer, logger *log.Logger) *CatalogBuilder {
	return &CatalogBuilder{
		api:    api,
		copier: copier,
		pacer:  pacer,
		logger: shared.WithLogger(logger, "component", "catalog"),
		now:    time.Now,
	}
}

// Tracks lists every track crediting artistID across its albums, singles and appearances,
// oldest release first, with duplicate recordings removed.
func (b *CatalogBuilder) Tracks(ctx context.Context, artistID string) (*models.Artist, []models.Track, error) {
	artist, err := b.api.Artist(ctx, artistID)
	if err != nil {
		return nil, nil, err
	}

	fetchAlbums := func(ctx context.Context, opts services.PageOptions) (*services.Page[models.Album], error) {
		return b.api.ArtistAlbums(ctx, artistID, catalogGroups, opts)
	}
	albums, err := Collect(Paginate[models.Album](ctx, b.pacer, services.EndpointArtistAlbums, fetchAlbums, services.PageOptions{Limit: pageLimit}))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list albums of %s: %w", artistID, err)
	}

	var tracks []models.Track
	for _, album := range albums {
		if !includeAlbum(album) {
			continue
		}
		album.ReleaseDate = NormalizeReleaseDate(album.ReleaseDate, album.ReleaseDatePrecision)

		fetchTracks := func(ctx context.Context, opts services.PageOptions) (*services.Page[models.Track], error) {
			return b.api.AlbumTracks(ctx, album.ID, opts)
		}
		for t, err := range Paginate[models.Track](ctx, b.pacer, services.EndpointAlbumTracks, fetchTracks, services.PageOptions{Limit: pageLimit}) {
			if err != nil {
				return nil, nil, fmt.Errorf("failed to list tracks of album %s: %w", album.ID, err)
			}
			if !t.HasArtist(artistID) {
				continue
			}
			t.Album = album
			tracks = append(tracks, t)
		}
	}

	slices.SortStableFunc(tracks, func(a, b models.Track) int {
		switch {
		case a.Album.ReleaseDate < b.Album.ReleaseDate:
			return -1
		case a.Album.ReleaseDate > b.Album.ReleaseDate:
			return 1
		}
		return 0
	})

	tracks = DedupeTracks(tracks)
	b.logger.Info("catalog resolved", "artist", artist.Name, "albums", len(albums), "tracks", len(tracks))
	return artist, tracks, nil
}

// Build resolves the catalog of artistID and adds it to playlistID,
// creating a private "Catalog - <artist>" playlist when playlistID is empty.
func (b *CatalogBuilder) Build(ctx context.Context, artistID, playlistID string) (*CatalogResult, error) {
	artist, tracks, err := b.Tracks(ctx, artistID)
	if err != nil {
		return nil, err
	}

	result := &CatalogResult{Artist: *artist, PlaylistID: playlistID, Tracks: tracks}
	if playlistID == "" {
		user, err := b.api.CurrentUser(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve current user: %w", err)
		}

		name := "Catalog - " + artist.Name
		description := "Creation: " + b.now().Format(CatalogTimeLayout)
		created, err := b.api.CreatePlaylist(ctx, user.ID, name, description, false)
		if err != nil {
			return nil, fmt.Errorf("failed to create playlist %q: %w", name, err)
		}
		result.PlaylistID = created.ID
		result.Created = true
	}

	if err := b.copier.AddTracks(ctx, result.PlaylistID, TrackIDs(tracks)); err != nil {
		return result, err
	}
	return result, nil
}

// includeAlbum keeps full albums and compilations from the album group, singles from the single group,
// and any of those types from appearances.
func includeAlbum(a models.Album) bool {
	switch a.AlbumGroup {
	case services.AlbumGroupAlbum:
		return a.AlbumType == "album" || a.AlbumType == "compilation"
	case services.AlbumGroupSingle:
		return a.AlbumType == "single"
	case services.AlbumGroupAppearsOn:
		return a.AlbumType == "album" || a.AlbumType == "single" || a.AlbumType == "compilation"
	}
	return false
}

// NormalizeReleaseDate pads year and month precision dates to YYYY-MM-DD.
func NormalizeReleaseDate(date, precision string) string {
	switch {
	case precision == "year" && len(date) == 4:
		return date + "-01-01"
	case precision == "month" && len(date) == 7:
		return date + "-01"
	}
	return date
}

// DedupeTracks drops repeated recordings, identified by name and duration.
// A recording first seen on a compilation is replaced by a later non-compilation copy.
func DedupeTracks(tracks []models.Track) []models.Track {
	type key struct {
		name     string
		duration int
	}

	seen := make(map[key]int, len(tracks))
	out := make([]models.Track, 0, len(tracks))
	for _, t := range tracks {
		k := key{t.Name, t.DurationMS}
		i, ok := seen[k]
		if !ok {
			seen[k] = len(out)
			out = append(out, t)
			continue
		}
		if out[i].Album.AlbumType == "compilation" && t.Album.AlbumType != "compilation" {
			out[i] = t
		}
	}
	return out
}
