package tasks

import (
	"context"
	"fmt"
	"html"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/desertthunder/mtfs/internal/models"
	"github.com/desertthunder/mtfs/internal/services"
	"github.com/desertthunder/mtfs/internal/shared"
)

// fakeAPI is an in-memory Spotify account.
type fakeAPI struct {
	mu sync.Mutex

	user        models.User
	pageSize    int
	playlists   map[string]*models.Playlist
	order       []string // library order of playlists
	items       map[string][]models.PlaylistItem
	tracks      map[string]models.Track
	liked       map[string]bool
	artists     map[string]models.Artist
	albums      map[string][]models.Album // by artist
	albumTracks map[string][]models.Track

	descriptionLag int // reads of a new description that still return empty
	pendingReads   map[string]int
	neverConfirm   bool
	coverErrs      int
	addErr         error
	tracksErr      map[string]error

	covers     map[string][]byte
	addCalls   [][]string
	updates    int
	unfollowed []string
	calls      map[string]int
	nextID     int
}

var _ services.SpotifyAPI = (*fakeAPI)(nil)

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		user:         models.User{ID: "user-1", DisplayName: "Me"},
		pageSize:     2,
		playlists:    make(map[string]*models.Playlist),
		items:        make(map[string][]models.PlaylistItem),
		tracks:       make(map[string]models.Track),
		liked:        make(map[string]bool),
		artists:      make(map[string]models.Artist),
		albums:       make(map[string][]models.Album),
		albumTracks:  make(map[string][]models.Track),
		pendingReads: make(map[string]int),
		covers:       make(map[string][]byte),
		calls:        make(map[string]int),
	}
}

func (f *fakeAPI) addPlaylist(p models.Playlist, tracks ...models.Track) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if p.OwnerID == "" {
		p.OwnerID = f.user.ID
		p.OwnerName = f.user.DisplayName
	}
	if p.SnapshotID == "" {
		p.SnapshotID = "snap-" + p.ID
	}
	f.playlists[p.ID] = &p
	f.order = append(f.order, p.ID)

	for _, t := range tracks {
		f.tracks[t.ID] = t
		f.items[p.ID] = append(f.items[p.ID], models.PlaylistItem{AddedAt: t.AddedAt, Track: &t})
	}
}

func (f *fakeAPI) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeAPI) createdPlaylists() []models.Playlist {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.Playlist
	for _, id := range f.order {
		if p := f.playlists[id]; len(id) > 4 && id[:4] == "new-" {
			out = append(out, *p)
		}
	}
	return out
}

func page[T any](items []T, opts services.PageOptions, size int) *services.Page[T] {
	start := min(opts.Offset, len(items))
	end := min(start+size, len(items))

	p := &services.Page[T]{Items: slices.Clone(items[start:end]), Total: len(items)}
	if end < len(items) {
		p.Next = fmt.Sprintf("https://api.spotify.test/v1/list?offset=%d&limit=%d", end, size)
	}
	return p
}

func (f *fakeAPI) CurrentUser(context.Context) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["CurrentUser"]++
	u := f.user
	return &u, nil
}

func (f *fakeAPI) Playlist(_ context.Context, id string) (*models.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["Playlist"]++

	p, ok := f.playlists[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}

	out := *p
	if f.neverConfirm {
		out.Description = ""
	} else if f.pendingReads[id] > 0 {
		f.pendingReads[id]--
		out.Description = ""
	}
	return &out, nil
}

func (f *fakeAPI) PlaylistTracks(_ context.Context, id string, opts services.PageOptions) (*services.Page[models.PlaylistItem], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["PlaylistTracks"]++

	if _, ok := f.playlists[id]; !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}
	if err := f.tracksErr[id]; err != nil {
		return nil, err
	}
	return page(f.items[id], opts, f.pageSize), nil
}

func (f *fakeAPI) MyPlaylists(_ context.Context, opts services.PageOptions) (*services.Page[models.Playlist], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["MyPlaylists"]++

	all := make([]models.Playlist, 0, len(f.order))
	for _, id := range f.order {
		all = append(all, *f.playlists[id])
	}
	return page(all, opts, f.pageSize), nil
}

func (f *fakeAPI) MySavedTracks(_ context.Context, opts services.PageOptions) (*services.Page[models.Track], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["MySavedTracks"]++

	var saved []models.Track
	for id := range f.liked {
		saved = append(saved, f.tracks[id])
	}
	return page(saved, opts, f.pageSize), nil
}

func (f *fakeAPI) ArtistAlbums(_ context.Context, artistID string, _ []string, opts services.PageOptions) (*services.Page[models.Album], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["ArtistAlbums"]++
	return page(f.albums[artistID], opts, f.pageSize), nil
}

func (f *fakeAPI) AlbumTracks(_ context.Context, albumID string, opts services.PageOptions) (*services.Page[models.Track], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["AlbumTracks"]++
	return page(f.albumTracks[albumID], opts, f.pageSize), nil
}

func (f *fakeAPI) CreatePlaylist(_ context.Context, userID, name, description string, public bool) (*models.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["CreatePlaylist"]++

	f.nextID++
	id := fmt.Sprintf("new-%d", f.nextID)
	p := &models.Playlist{
		ID:          id,
		Name:        name,
		Description: html.EscapeString(description),
		OwnerID:     userID,
		OwnerName:   f.user.DisplayName,
		SnapshotID:  "snap-" + id,
		Public:      public,
	}
	f.playlists[id] = p
	f.order = append(f.order, id)
	f.pendingReads[id] = f.descriptionLag

	out := *p
	return &out, nil
}

func (f *fakeAPI) UpdatePlaylistDescription(_ context.Context, id, description string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["UpdatePlaylistDescription"]++

	p, ok := f.playlists[id]
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}
	p.Description = html.EscapeString(description)
	f.updates++
	return nil
}

func (f *fakeAPI) AddPlaylistTracks(_ context.Context, id string, trackIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["AddPlaylistTracks"]++

	if f.addErr != nil {
		return f.addErr
	}
	if len(trackIDs) > services.MaxTracksPerRequest {
		return fmt.Errorf("%w: too many tracks", shared.ErrInvalidArgument)
	}

	f.addCalls = append(f.addCalls, slices.Clone(trackIDs))
	for _, tid := range trackIDs {
		t, ok := f.tracks[tid]
		if !ok {
			t = models.Track{ID: tid}
		}
		f.items[id] = append(f.items[id], models.PlaylistItem{AddedAt: time.Now(), Track: &t})
	}
	return nil
}

func (f *fakeAPI) UploadPlaylistCover(_ context.Context, id string, jpeg []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["UploadPlaylistCover"]++

	if f.coverErrs > 0 {
		f.coverErrs--
		return fmt.Errorf("%w: upload rejected", shared.ErrAPIRequest)
	}
	f.covers[id] = slices.Clone(jpeg)
	return nil
}

func (f *fakeAPI) UnfollowPlaylist(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["UnfollowPlaylist"]++

	f.order = slices.DeleteFunc(f.order, func(s string) bool { return s == id })
	f.unfollowed = append(f.unfollowed, id)
	return nil
}

func (f *fakeAPI) Track(_ context.Context, id string) (*models.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["Track"]++

	t, ok := f.tracks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, id)
	}
	return &t, nil
}

func (f *fakeAPI) SavedTracksContain(_ context.Context, ids ...string) ([]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["SavedTracksContain"]++

	out := make([]bool, len(ids))
	for i, id := range ids {
		out[i] = f.liked[id]
	}
	return out, nil
}

func (f *fakeAPI) Artist(_ context.Context, id string) (*models.Artist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["Artist"]++

	a, ok := f.artists[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrArtistNotFound, id)
	}
	return &a, nil
}

// memStore is an [ArchiveStore] kept in memory.
type memStore struct {
	records []*models.ArchiveRecord
	err     error
}

func (s *memStore) Create(r *models.ArchiveRecord) error {
	if s.err != nil {
		return s.err
	}
	if err := r.Validate(); err != nil {
		return err
	}
	r.SetSequence(len(s.records) + 1)
	s.records = append(s.records, r)
	return nil
}

func (s *memStore) GetBySnapshotID(snapshotID string) (*models.ArchiveRecord, error) {
	for _, r := range s.records {
		if r.SourceSnapshotID() == snapshotID {
			return r, nil
		}
	}
	return nil, shared.ErrArchiveNotFound
}

func testOptions() Options {
	return Options{
		NamePrefix:              DefaultNamePrefix,
		CoverAttempts:           3,
		CoverRetryDelay:         time.Millisecond,
		CoverQuality:            55,
		DescriptionPollInterval: time.Millisecond,
		DescriptionMaxWait:      2 * time.Second,
	}
}

func newTestEngine(api services.SpotifyAPI, store ArchiveStore) *Engine {
	return NewEngine(api, store, testOptions(), shared.NewLogger(io.Discard))
}

func track(id string, added time.Time) models.Track {
	return models.Track{
		ID:         id,
		Name:       "Track " + id,
		Artists:    []models.Artist{{ID: "artist-1", Name: "Artist"}},
		DurationMS: 180000,
		AddedAt:    added,
	}
}

func ids(tracks []models.Track) []string {
	return TrackIDs(tracks)
}
