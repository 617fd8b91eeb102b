package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/mtfs/internal/models"
	"github.com/desertthunder/mtfs/internal/shared"
)

// Endpoint tags a paginated list endpoint of [SpotifyAPI].
type Endpoint int

const (
	EndpointUnknown        Endpoint = iota
	EndpointPlaylistTracks          // GET /playlists/{id}/tracks
	EndpointMyPlaylists             // GET /me/playlists
	EndpointMySavedTracks           // GET /me/tracks
	EndpointArtistAlbums            // GET /artists/{id}/albums
	EndpointAlbumTracks             // GET /albums/{id}/tracks
)

var endpointNames = map[Endpoint]string{
	EndpointPlaylistTracks: "playlist_tracks",
	EndpointMyPlaylists:    "my_playlists",
	EndpointMySavedTracks:  "my_saved_tracks",
	EndpointArtistAlbums:   "artist_albums",
	EndpointAlbumTracks:    "album_tracks",
}

// String returns the endpoint's tag name.
func (e Endpoint) String() string {
	if name, ok := endpointNames[e]; ok {
		return name
	}
	return fmt.Sprintf("endpoint(%d)", int(e))
}

// Validate fails with [shared.ErrUnknownEndpoint] for tags that name no endpoint.
func (e Endpoint) Validate() error {
	if _, ok := endpointNames[e]; !ok {
		return fmt.Errorf("%w: %s", shared.ErrUnknownEndpoint, e)
	}
	return nil
}

// PageOptions are the request options of a list endpoint call.
type PageOptions struct {
	Limit  int
	Offset int
	Fields string // partial response selector, honoured by playlist endpoints
}

// Page is one page of a list endpoint. Next is the URL of the following page, empty on the last page.
type Page[T any] struct {
	Items []T
	Next  string
	Total int
}

// Album groups accepted by [SpotifyAPI.ArtistAlbums].
const (
	AlbumGroupAlbum       = "album"
	AlbumGroupSingle      = "single"
	AlbumGroupAppearsOn   = "appears_on"
	AlbumGroupCompilation = "compilation"
)

// SpotifyAPI is the remote API capability set used by mtfs, one method per endpoint.
//
// Lookups of a missing resource fail with [shared.ErrPlaylistNotFound], [shared.ErrTrackNotFound] or [shared.ErrArtistNotFound].
// Other remote failures wrap [shared.ErrAPIRequest].
type SpotifyAPI interface {
	// CurrentUser returns the authenticated account.
	CurrentUser(ctx context.Context) (*models.User, error)

	// Playlist fetches a playlist's metadata.
	Playlist(ctx context.Context, playlistID string) (*models.Playlist, error)

	// PlaylistTracks lists one page of a playlist's items.
	PlaylistTracks(ctx context.Context, playlistID string, opts PageOptions) (*Page[models.PlaylistItem], error)

	// MyPlaylists lists one page of the playlists in the user's library.
	MyPlaylists(ctx context.Context, opts PageOptions) (*Page[models.Playlist], error)

	// MySavedTracks lists one page of the user's Liked Songs.
	MySavedTracks(ctx context.Context, opts PageOptions) (*Page[models.Track], error)

	// ArtistAlbums lists one page of an artist's releases for the given album groups.
	ArtistAlbums(ctx context.Context, artistID string, groups []string, opts PageOptions) (*Page[models.Album], error)

	// AlbumTracks lists one page of an album's tracks.
	AlbumTracks(ctx context.Context, albumID string, opts PageOptions) (*Page[models.Track], error)

	// CreatePlaylist creates a playlist owned by userID.
	CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.Playlist, error)

	// UpdatePlaylistDescription replaces a playlist's description.
	UpdatePlaylistDescription(ctx context.Context, playlistID, description string) error

	// AddPlaylistTracks appends at most [MaxTracksPerRequest] tracks to a playlist.
	AddPlaylistTracks(ctx context.Context, playlistID string, trackIDs []string) error

	// UploadPlaylistCover sets a playlist's cover from raw JPEG bytes.
	UploadPlaylistCover(ctx context.Context, playlistID string, jpeg []byte) error

	// UnfollowPlaylist removes a playlist from the user's library.
	UnfollowPlaylist(ctx context.Context, playlistID string) error

	// Track fetches a single track.
	Track(ctx context.Context, trackID string) (*models.Track, error)

	// SavedTracksContain reports, per id, whether the track is in Liked Songs.
	SavedTracksContain(ctx context.Context, trackIDs ...string) ([]bool, error)

	// Artist fetches an artist.
	Artist(ctx context.Context, artistID string) (*models.Artist, error)
}

// MaxTracksPerRequest is the number of tracks one add call may carry.
const MaxTracksPerRequest = 99
