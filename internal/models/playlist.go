package models

import (
	"fmt"
	"strings"
	"time"
)

// Playlist is a snapshot of a remote playlist's metadata.
type Playlist struct {
	ID          string
	Name        string
	Description string
	OwnerID     string
	OwnerName   string
	SnapshotID  string // changes whenever tracks are added, removed or reordered
	ImageURL    string
	URL         string
	Public      bool
	TrackCount  int
}

// Artist is a credited artist.
type Artist struct {
	ID   string
	Name string
}

// Album carries the release information of a track.
type Album struct {
	ID                   string
	Name                 string
	ReleaseDate          string
	ReleaseDatePrecision string // "day", "month" or "year"
	AlbumType            string // album, single, compilation
	AlbumGroup           string // album, single, compilation, appears_on; only set on artist album listings
}

// Track is a track as seen through a playlist, album or library listing.
type Track struct {
	ID         string
	Name       string
	Artists    []Artist
	Album      Album
	DurationMS int
	AddedAt    time.Time // zero outside of a playlist or library membership
}

// HasArtist reports whether the artist with id is credited on t.
func (t Track) HasArtist(id string) bool {
	for _, a := range t.Artists {
		if a.ID == id {
			return true
		}
	}
	return false
}

// ArtistNames joins the credited artist names.
func (t Track) ArtistNames() string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// PlaylistItem is a playlist membership entry. Track is nil for removed or unavailable tracks and for episodes.
type PlaylistItem struct {
	AddedAt time.Time
	Track   *Track
}

// User is the authenticated account.
type User struct {
	ID          string
	DisplayName string
}

// SortOrder selects how a playlist's tracks are ordered by their added-at timestamp.
type SortOrder string

const (
	SortNone SortOrder = ""     // keep playlist position order
	SortAsc  SortOrder = "asc"  // oldest addition first
	SortDesc SortOrder = "desc" // newest addition first
)

// ParseSortOrder validates s, accepting any letter case.
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case SortNone, SortAsc, SortDesc:
		return o, nil
	default:
		return SortNone, fmt.Errorf("unknown sort order %q (want asc or desc)", s)
	}
}
