package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrUnknownEndpoint    = fmt.Errorf("unknown endpoint")
	ErrStoreDisabled      = fmt.Errorf("archive store is disabled")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest          = fmt.Errorf("API request failed")
	ErrPlaylistNotFound    = fmt.Errorf("playlist not found")
	ErrTrackNotFound       = fmt.Errorf("track not found")
	ErrArtistNotFound      = fmt.Errorf("artist not found")
	ErrArchiveNotFound     = fmt.Errorf("archive record not found")
	ErrDescriptionTimeout  = fmt.Errorf("playlist description not confirmed")
	ErrUnsupportedImage    = fmt.Errorf("unsupported cover image type")
	ErrMalformedDescriptor = fmt.Errorf("malformed archive descriptor")

	// Runtime errors
	ErrLocked = fmt.Errorf("another instance is already running")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrAborted         = fmt.Errorf("aborted by user")
)
