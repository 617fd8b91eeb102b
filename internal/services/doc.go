// Package services defines [SpotifyAPI], the typed capability surface the archival workflow needs from the Spotify Web API,
// and implements it with [SpotifyClient].
//
// # Spotify Implementation
//
// [SpotifyClient] wraps github.com/zmb3/spotify/v2 over an [oauth2.Config.Client], which refreshes expired
// access tokens with the stored refresh token. Remote objects are mapped onto the models package types.
//
// # Pagination
//
// List endpoints return a [Page] with the items and the next page link. Each [Endpoint] value names one of
// them so paging code can report which listing failed.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : the remote rejected the token (401)
//   - [shared.ErrAPIRequest] : the request failed
//   - [shared.ErrPlaylistNotFound], [shared.ErrTrackNotFound], [shared.ErrArtistNotFound] : the object does not exist (404)
package services
