package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/desertthunder/mtfs/internal/models"
	"github.com/desertthunder/mtfs/internal/shared"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
)

// Scopes requested during authorization.
var Scopes = []string{
	"user-library-read",
	"user-library-modify",
	"playlist-read-private",
	"playlist-modify-private",
	"playlist-modify-public",
	"ugc-image-upload",
	"user-follow-read",
}

// playlistFields limits playlist lookups to what [models.Playlist] carries.
const playlistFields = "id,name,description,snapshot_id,public,images,owner(id,display_name),external_urls,tracks(total)"

// playlistItemFields limits playlist item listings to what the archival workflow reads.
// The track type is required to tell tracks from episodes when decoding.
const playlistItemFields = "items(added_at,track(type,id,name,duration_ms,artists(id,name),album(id,name,album_type,release_date,release_date_precision))),next,total"

// NewOAuthConfig builds the authorization-code flow configuration for the Spotify accounts service.
func NewOAuthConfig(cfg shared.SpotifyConfig) (*oauth2.Config, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret are required", shared.ErrMissingCredentials)
	}

	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}, nil
}

// SpotifyClient implements [SpotifyAPI] on top of [spotify.Client].
//
// The current user is fetched once and reused for the lifetime of the client.
type SpotifyClient struct {
	client *spotify.Client

	mu   sync.Mutex
	user *models.User
}

// NewSpotifyClient wraps an authorized HTTP client, typically one returned by [oauth2.Config.Client].
func NewSpotifyClient(httpClient *http.Client, opts ...spotify.ClientOption) *SpotifyClient {
	return &SpotifyClient{client: spotify.New(httpClient, opts...)}
}

// CurrentUser returns the authenticated account.
func (s *SpotifyClient) CurrentUser(ctx context.Context) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user != nil {
		return s.user, nil
	}

	me, err := s.client.CurrentUser(ctx)
	if err != nil {
		return nil, wrapError(err, shared.ErrNotAuthenticated)
	}

	s.user = &models.User{ID: me.ID, DisplayName: me.DisplayName}
	return s.user, nil
}

// Playlist fetches a playlist's metadata.
func (s *SpotifyClient) Playlist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	p, err := s.client.GetPlaylist(ctx, spotify.ID(playlistID), spotify.Fields(playlistFields))
	if err != nil {
		return nil, wrapError(err, shared.ErrPlaylistNotFound)
	}

	playlist := fromSimplePlaylist(p.SimplePlaylist)
	playlist.TrackCount = int(p.Tracks.Total)
	return &playlist, nil
}

// PlaylistTracks lists one page of a playlist's items.
func (s *SpotifyClient) PlaylistTracks(ctx context.Context, playlistID string, opts PageOptions) (*Page[models.PlaylistItem], error) {
	if opts.Fields == "" {
		opts.Fields = playlistItemFields
	}

	page, err := s.client.GetPlaylistItems(ctx, spotify.ID(playlistID), requestOptions(opts)...)
	if err != nil {
		return nil, wrapError(err, shared.ErrPlaylistNotFound)
	}

	items := make([]models.PlaylistItem, 0, len(page.Items))
	for _, item := range page.Items {
		entry := models.PlaylistItem{AddedAt: parseTimestamp(item.AddedAt)}
		if item.Track.Track != nil && item.Track.Track.ID != "" {
			track := fromFullTrack(*item.Track.Track)
			track.AddedAt = entry.AddedAt
			entry.Track = &track
		}
		items = append(items, entry)
	}

	return &Page[models.PlaylistItem]{Items: items, Next: page.Next, Total: int(page.Total)}, nil
}

// MyPlaylists lists one page of the playlists in the user's library.
func (s *SpotifyClient) MyPlaylists(ctx context.Context, opts PageOptions) (*Page[models.Playlist], error) {
	opts.Fields = ""
	page, err := s.client.CurrentUsersPlaylists(ctx, requestOptions(opts)...)
	if err != nil {
		return nil, wrapError(err, nil)
	}

	items := make([]models.Playlist, 0, len(page.Playlists))
	for _, p := range page.Playlists {
		items = append(items, fromSimplePlaylist(p))
	}

	return &Page[models.Playlist]{Items: items, Next: page.Next, Total: int(page.Total)}, nil
}

// MySavedTracks lists one page of the user's Liked Songs.
func (s *SpotifyClient) MySavedTracks(ctx context.Context, opts PageOptions) (*Page[models.Track], error) {
	opts.Fields = ""
	page, err := s.client.CurrentUsersTracks(ctx, requestOptions(opts)...)
	if err != nil {
		return nil, wrapError(err, nil)
	}

	items := make([]models.Track, 0, len(page.Tracks))
	for _, saved := range page.Tracks {
		track := fromFullTrack(saved.FullTrack)
		track.AddedAt = parseTimestamp(saved.AddedAt)
		items = append(items, track)
	}

	return &Page[models.Track]{Items: items, Next: page.Next, Total: int(page.Total)}, nil
}

// ArtistAlbums lists one page of an artist's releases for the given album groups.
func (s *SpotifyClient) ArtistAlbums(ctx context.Context, artistID string, groups []string, opts PageOptions) (*Page[models.Album], error) {
	types, err := albumTypes(groups)
	if err != nil {
		return nil, err
	}

	opts.Fields = ""
	page, err := s.client.GetArtistAlbums(ctx, spotify.ID(artistID), types, requestOptions(opts)...)
	if err != nil {
		return nil, wrapError(err, shared.ErrArtistNotFound)
	}

	items := make([]models.Album, 0, len(page.Albums))
	for _, a := range page.Albums {
		items = append(items, fromSimpleAlbum(a))
	}

	return &Page[models.Album]{Items: items, Next: page.Next, Total: int(page.Total)}, nil
}

// AlbumTracks lists one page of an album's tracks. Album metadata is left for the caller to fill in.
func (s *SpotifyClient) AlbumTracks(ctx context.Context, albumID string, opts PageOptions) (*Page[models.Track], error) {
	opts.Fields = ""
	page, err := s.client.GetAlbumTracks(ctx, spotify.ID(albumID), requestOptions(opts)...)
	if err != nil {
		return nil, wrapError(err, nil)
	}

	items := make([]models.Track, 0, len(page.Tracks))
	for _, t := range page.Tracks {
		items = append(items, models.Track{
			ID:         string(t.ID),
			Name:       t.Name,
			Artists:    fromSimpleArtists(t.Artists),
			DurationMS: int(t.Duration),
		})
	}

	return &Page[models.Track]{Items: items, Next: page.Next, Total: int(page.Total)}, nil
}

// CreatePlaylist creates a playlist owned by userID.
func (s *SpotifyClient) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.Playlist, error) {
	p, err := s.client.CreatePlaylistForUser(ctx, userID, name, description, public, false)
	if err != nil {
		return nil, wrapError(err, nil)
	}

	playlist := fromSimplePlaylist(p.SimplePlaylist)
	return &playlist, nil
}

// UpdatePlaylistDescription replaces a playlist's description.
func (s *SpotifyClient) UpdatePlaylistDescription(ctx context.Context, playlistID, description string) error {
	if err := s.client.ChangePlaylistDescription(ctx, spotify.ID(playlistID), description); err != nil {
		return wrapError(err, shared.ErrPlaylistNotFound)
	}
	return nil
}

// AddPlaylistTracks appends tracks to a playlist.
func (s *SpotifyClient) AddPlaylistTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if len(trackIDs) > MaxTracksPerRequest {
		return fmt.Errorf("%w: %d tracks exceed the per-request limit of %d", shared.ErrInvalidArgument, len(trackIDs), MaxTracksPerRequest)
	}

	ids := make([]spotify.ID, len(trackIDs))
	for i, id := range trackIDs {
		ids[i] = spotify.ID(id)
	}

	if _, err := s.client.AddTracksToPlaylist(ctx, spotify.ID(playlistID), ids...); err != nil {
		return wrapError(err, shared.ErrPlaylistNotFound)
	}
	return nil
}

// UploadPlaylistCover sets a playlist's cover. The client base64-encodes the bytes.
func (s *SpotifyClient) UploadPlaylistCover(ctx context.Context, playlistID string, jpeg []byte) error {
	if err := s.client.SetPlaylistImage(ctx, spotify.ID(playlistID), bytes.NewReader(jpeg)); err != nil {
		return wrapError(err, shared.ErrPlaylistNotFound)
	}
	return nil
}

// UnfollowPlaylist removes a playlist from the user's library.
func (s *SpotifyClient) UnfollowPlaylist(ctx context.Context, playlistID string) error {
	if err := s.client.UnfollowPlaylist(ctx, spotify.ID(playlistID)); err != nil {
		return wrapError(err, shared.ErrPlaylistNotFound)
	}
	return nil
}

// Track fetches a single track.
func (s *SpotifyClient) Track(ctx context.Context, trackID string) (*models.Track, error) {
	t, err := s.client.GetTrack(ctx, spotify.ID(trackID))
	if err != nil {
		return nil, wrapError(err, shared.ErrTrackNotFound)
	}

	track := fromFullTrack(*t)
	return &track, nil
}

// SavedTracksContain reports, per id, whether the track is in Liked Songs.
func (s *SpotifyClient) SavedTracksContain(ctx context.Context, trackIDs ...string) ([]bool, error) {
	ids := make([]spotify.ID, len(trackIDs))
	for i, id := range trackIDs {
		ids[i] = spotify.ID(id)
	}

	found, err := s.client.UserHasTracks(ctx, ids...)
	if err != nil {
		return nil, wrapError(err, nil)
	}
	return found, nil
}

// Artist fetches an artist.
func (s *SpotifyClient) Artist(ctx context.Context, artistID string) (*models.Artist, error) {
	a, err := s.client.GetArtist(ctx, spotify.ID(artistID))
	if err != nil {
		return nil, wrapError(err, shared.ErrArtistNotFound)
	}
	return &models.Artist{ID: string(a.ID), Name: a.Name}, nil
}

// wrapError maps a client error onto the shared sentinels. notFound is used for 404 and 400 (invalid id) responses.
func wrapError(err error, notFound error) error {
	var apiErr spotify.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", shared.ErrNotAuthenticated, apiErr.Message)
		case notFound != nil && (apiErr.Status == http.StatusNotFound || apiErr.Status == http.StatusBadRequest):
			return fmt.Errorf("%w: %s", notFound, apiErr.Message)
		}
	}
	return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
}

func requestOptions(opts PageOptions) []spotify.RequestOption {
	var out []spotify.RequestOption
	if opts.Limit > 0 {
		out = append(out, spotify.Limit(opts.Limit))
	}
	if opts.Offset > 0 {
		out = append(out, spotify.Offset(opts.Offset))
	}
	if opts.Fields != "" {
		out = append(out, spotify.Fields(opts.Fields))
	}
	return out
}

func albumTypes(groups []string) ([]spotify.AlbumType, error) {
	types := make([]spotify.AlbumType, 0, len(groups))
	for _, g := range groups {
		switch g {
		case AlbumGroupAlbum:
			types = append(types, spotify.AlbumTypeAlbum)
		case AlbumGroupSingle:
			types = append(types, spotify.AlbumTypeSingle)
		case AlbumGroupAppearsOn:
			types = append(types, spotify.AlbumTypeAppearsOn)
		case AlbumGroupCompilation:
			types = append(types, spotify.AlbumTypeCompilation)
		default:
			return nil, fmt.Errorf("%w: album group %q", shared.ErrInvalidArgument, g)
		}
	}
	return types, nil
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func fromSimplePlaylist(p spotify.SimplePlaylist) models.Playlist {
	playlist := models.Playlist{
		ID:          string(p.ID),
		Name:        p.Name,
		Description: p.Description,
		OwnerID:     p.Owner.ID,
		OwnerName:   p.Owner.DisplayName,
		SnapshotID:  p.SnapshotID,
		URL:         p.ExternalURLs["spotify"],
		Public:      p.IsPublic,
		TrackCount:  int(p.Tracks.Total),
	}
	if len(p.Images) > 0 {
		playlist.ImageURL = p.Images[0].URL
	}
	return playlist
}

func fromFullTrack(t spotify.FullTrack) models.Track {
	return models.Track{
		ID:         string(t.ID),
		Name:       t.Name,
		Artists:    fromSimpleArtists(t.Artists),
		Album:      fromSimpleAlbum(t.Album),
		DurationMS: int(t.Duration),
	}
}

func fromSimpleAlbum(a spotify.SimpleAlbum) models.Album {
	return models.Album{
		ID:                   string(a.ID),
		Name:                 a.Name,
		ReleaseDate:          a.ReleaseDate,
		ReleaseDatePrecision: a.ReleaseDatePrecision,
		AlbumType:            a.AlbumType,
		AlbumGroup:           a.AlbumGroup,
	}
}

func fromSimpleArtists(artists []spotify.SimpleArtist) []models.Artist {
	out := make([]models.Artist, 0, len(artists))
	for _, a := range artists {
		out = append(out, models.Artist{ID: string(a.ID), Name: a.Name})
	}
	return out
}
