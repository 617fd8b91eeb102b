package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/mtfs/internal/models"
	"github.com/desertthunder/mtfs/internal/shared"
)

const archiveColumns = `id, sequence, year, week, archived_playlist_id, archived_playlist_name_prefix,
	archived_playlist_name_suffix, archived_playlist_sortorder, archived_playlist_tracks, orig_playlist_id,
	orig_playlist_owner, orig_playlist_name, orig_playlist_snapshot_id, orig_playlist_cover, datetime`

// ArchiveRepository implements models.Repository[*models.ArchiveRecord].
//
// Records are insert-only.
type ArchiveRepository struct {
	db *sql.DB
}

// NewArchiveRepository creates a new ArchiveRepository with the given database connection
func NewArchiveRepository(db *sql.DB) *ArchiveRepository {
	return &ArchiveRepository{db: db}
}

// Create inserts record with a generated ID and sequence
func (r *ArchiveRepository) Create(record *models.ArchiveRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tracks, err := record.TracksJSON()
	if err != nil {
		return err
	}

	sequence, err := NextSequence(r.db, "archived_playlists")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	source := record.Source()

	query := `INSERT INTO archived_playlists (` + archiveColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.Exec(query,
		id,
		sequence,
		record.Year(),
		record.Week(),
		record.PlaylistID(),
		record.NamePrefix(),
		record.NameSuffix(),
		string(record.SortOrder()),
		tracks,
		source.ID,
		source.OwnerName,
		source.Name,
		source.SnapshotID,
		record.Cover(),
		record.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert archive record: %w", err)
	}

	record.SetID(id)
	record.SetSequence(sequence)
	return nil
}

// Get retrieves a record by ID
func (r *ArchiveRepository) Get(id string) (*models.ArchiveRecord, error) {
	query := `SELECT ` + archiveColumns + ` FROM archived_playlists WHERE id = ?`
	return r.scan(r.db.QueryRow(query, id))
}

// GetBySnapshotID retrieves the most recent record taken from the given source snapshot.
func (r *ArchiveRepository) GetBySnapshotID(snapshotID string) (*models.ArchiveRecord, error) {
	query := `SELECT ` + archiveColumns + ` FROM archived_playlists
		WHERE orig_playlist_snapshot_id = ?
		ORDER BY sequence DESC LIMIT 1`
	return r.scan(r.db.QueryRow(query, snapshotID))
}

// List retrieves records ordered by sequence.
//
// Supported criteria: "orig_playlist_id" (string), "year" (int), "week" (int).
func (r *ArchiveRepository) List(criteria map[string]any) ([]*models.ArchiveRecord, error) {
	query := `SELECT ` + archiveColumns + ` FROM archived_playlists WHERE 1 = 1`
	args := []any{}

	if origID, ok := criteria["orig_playlist_id"].(string); ok && origID != "" {
		query += " AND orig_playlist_id = ?"
		args = append(args, origID)
	}

	if year, ok := criteria["year"].(int); ok && year > 0 {
		query += " AND year = ?"
		args = append(args, year)
	}

	if week, ok := criteria["week"].(int); ok && week > 0 {
		query += " AND week = ?"
		args = append(args, week)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query archive records: %w", err)
	}
	defer rows.Close()

	var records []*models.ArchiveRecord
	for rows.Next() {
		record, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

var _ models.Repository[*models.ArchiveRecord] = (*ArchiveRepository)(nil)

type scanner interface {
	Scan(dest ...any) error
}

// scan reads one row into a [models.ArchiveRecord]
func (r *ArchiveRepository) scan(row scanner) (*models.ArchiveRecord, error) {
	var (
		id         string
		sequence   int
		year       int
		week       int
		playlistID string
		prefix     string
		suffix     string
		sortOrder  string
		tracks     string
		origID     string
		origOwner  string
		origName   string
		snapshotID string
		cover      []byte
		archivedAt time.Time
	)

	err := row.Scan(&id, &sequence, &year, &week, &playlistID, &prefix, &suffix, &sortOrder, &tracks,
		&origID, &origOwner, &origName, &snapshotID, &cover, &archivedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrArchiveNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan archive record: %w", err)
	}

	trackIDs, err := models.DecodeTrackIDs(tracks)
	if err != nil {
		return nil, err
	}

	return models.RestoreArchiveRecord(id, sequence, year, week, models.ArchiveRecordParams{
		PlaylistID: playlistID,
		NamePrefix: prefix,
		NameSuffix: suffix,
		SortOrder:  models.SortOrder(sortOrder),
		TrackIDs:   trackIDs,
		Source: models.Playlist{
			ID:         origID,
			Name:       origName,
			OwnerName:  origOwner,
			SnapshotID: snapshotID,
		},
		Cover:      cover,
		ArchivedAt: archivedAt,
	}), nil
}
