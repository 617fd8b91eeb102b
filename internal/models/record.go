package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ArchiveRecord is the persisted mirror of one archived playlist.
//
// Records are created once per successful archive and never updated.
type ArchiveRecord struct {
	id         string
	sequence   int
	year       int
	week       int
	playlistID string
	namePrefix string
	nameSuffix string
	sortOrder  SortOrder
	trackIDs   []string
	source     Playlist
	cover      []byte
	archivedAt time.Time
}

// ArchiveRecordParams carries the values of a new [ArchiveRecord].
type ArchiveRecordParams struct {
	PlaylistID string
	NamePrefix string
	NameSuffix string
	SortOrder  SortOrder
	TrackIDs   []string
	Source     Playlist
	Cover      []byte
	ArchivedAt time.Time
}

// NewArchiveRecord builds an unsaved record. Year and week are derived from the archive time.
func NewArchiveRecord(p ArchiveRecordParams) *ArchiveRecord {
	year, week := p.ArchivedAt.ISOWeek()
	return &ArchiveRecord{
		year:       year,
		week:       week,
		playlistID: p.PlaylistID,
		namePrefix: p.NamePrefix,
		nameSuffix: p.NameSuffix,
		sortOrder:  p.SortOrder,
		trackIDs:   p.TrackIDs,
		source:     p.Source,
		cover:      p.Cover,
		archivedAt: p.ArchivedAt,
	}
}

// RestoreArchiveRecord rebuilds a record read from storage.
func RestoreArchiveRecord(id string, sequence, year, week int, p ArchiveRecordParams) *ArchiveRecord {
	r := NewArchiveRecord(p)
	r.id = id
	r.sequence = sequence
	r.year = year
	r.week = week
	return r
}

func (r *ArchiveRecord) ID() string               { return r.id }
func (r *ArchiveRecord) SetID(id string)          { r.id = id }
func (r *ArchiveRecord) Sequence() int            { return r.sequence }
func (r *ArchiveRecord) SetSequence(seq int)      { r.sequence = seq }
func (r *ArchiveRecord) CreatedAt() time.Time     { return r.archivedAt }
func (r *ArchiveRecord) Year() int                { return r.year }
func (r *ArchiveRecord) Week() int                { return r.week }
func (r *ArchiveRecord) PlaylistID() string       { return r.playlistID }
func (r *ArchiveRecord) NamePrefix() string       { return r.namePrefix }
func (r *ArchiveRecord) NameSuffix() string       { return r.nameSuffix }
func (r *ArchiveRecord) SortOrder() SortOrder     { return r.sortOrder }
func (r *ArchiveRecord) TrackIDs() []string       { return r.trackIDs }
func (r *ArchiveRecord) Source() Playlist         { return r.source }
func (r *ArchiveRecord) Cover() []byte            { return r.cover }
func (r *ArchiveRecord) SourceSnapshotID() string { return r.source.SnapshotID }

// Name returns the archived playlist's name.
func (r *ArchiveRecord) Name() string {
	return ArchiveName(r.namePrefix, r.nameSuffix, r.archivedAt)
}

// Descriptor returns the descriptor equivalent of the record.
func (r *ArchiveRecord) Descriptor() ArchiveDescriptor {
	return ArchiveDescriptor{
		ArchivedAt:         r.archivedAt,
		OriginalName:       r.source.Name,
		OriginalOwner:      r.source.OwnerName,
		OriginalPlaylistID: r.source.ID,
		OriginalSnapshotID: r.source.SnapshotID,
	}
}

// TracksJSON serializes the track id list.
func (r *ArchiveRecord) TracksJSON() (string, error) {
	ids := r.trackIDs
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("failed to encode track list: %w", err)
	}
	return string(b), nil
}

// DecodeTrackIDs parses a serialized track id list.
func DecodeTrackIDs(raw string) ([]string, error) {
	var ids []string
	if raw == "" {
		return ids, nil
	}
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("failed to decode track list: %w", err)
	}
	return ids, nil
}

// Validate checks the fields the archive store requires.
func (r *ArchiveRecord) Validate() error {
	switch {
	case r.playlistID == "":
		return fmt.Errorf("%w: archived playlist id is required", ErrInvalidRecord)
	case r.source.ID == "":
		return fmt.Errorf("%w: original playlist id is required", ErrInvalidRecord)
	case r.source.SnapshotID == "":
		return fmt.Errorf("%w: original snapshot id is required", ErrInvalidRecord)
	case r.archivedAt.IsZero():
		return fmt.Errorf("%w: archive time is required", ErrInvalidRecord)
	}
	return nil
}
