package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/resound/internal/models"
	"github.com/desertthunder/resound/internal/shared"
)

// TrackRepository persists [models.Track] metadata keyed by video identifier.
//
// Metadata has an independent lifecycle from the cached audio bytes: an
// upsert that races a cache write is harmless because the video_id UNIQUE
// constraint makes the last writer win.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Create inserts a new [models.Track] into the database with generated ID and sequence
func (r *TrackRepository) Create(track *models.Track) error {
	sequence, err := NextSequence(r.db, "tracks")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	track.SetID(id)
	track.SetSequence(sequence)

	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO tracks (id, sequence, video_id, title, artist, album, duration, thumbnail_url, channel, play_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		track.VideoID(),
		track.Title(),
		track.Artist(),
		track.Album(),
		track.Duration(),
		track.ThumbnailURL(),
		track.Channel(),
		track.PlayCount(),
		track.CreatedAt(),
		track.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}

	return nil
}

// Upsert inserts track metadata or refreshes it when the identifier is
// already known. Play count and creation time survive the update.
func (r *TrackRepository) Upsert(track *models.Track) error {
	existing, err := r.GetByVideoID(track.VideoID())
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to look up track: %w", err)
	}

	if existing == nil {
		return r.Create(track)
	}

	track.Touch()
	query := `
		UPDATE tracks
		SET title = ?, artist = ?, album = ?, duration = ?, thumbnail_url = ?, channel = ?, updated_at = ?
		WHERE video_id = ?
	`
	_, err = r.db.Exec(query,
		track.Title(),
		track.Artist(),
		track.Album(),
		track.Duration(),
		track.ThumbnailURL(),
		track.Channel(),
		track.UpdatedAt(),
		track.VideoID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}

	return nil
}

// GetByVideoID retrieves a track by its external video identifier.
//
// Returns (nil, sql.ErrNoRows) when the identifier is unknown.
func (r *TrackRepository) GetByVideoID(videoID string) (*models.Track, error) {
	query := `
		SELECT id, sequence, video_id, title, artist, album, duration, thumbnail_url, channel, play_count, created_at, updated_at
		FROM tracks
		WHERE video_id = ?
	`

	return r.scanTrack(r.db.QueryRow(query, videoID))
}

// IncrementPlayCount bumps the popularity counter for the given identifier.
//
// A no-op for unknown identifiers: plays may be recorded before the first
// metadata upsert lands.
func (r *TrackRepository) IncrementPlayCount(videoID string) error {
	_, err := r.db.Exec(
		"UPDATE tracks SET play_count = play_count + 1, updated_at = ? WHERE video_id = ?",
		time.Now().UTC(), videoID,
	)
	if err != nil {
		return fmt.Errorf("failed to increment play count: %w", err)
	}
	return nil
}

// Delete removes track metadata for the given identifier.
//
// Returns [shared.ErrNotFound] when the identifier is unknown.
func (r *TrackRepository) Delete(videoID string) error {
	result, err := r.db.Exec("DELETE FROM tracks WHERE video_id = ?", videoID)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return shared.ErrNotFound
	}

	return nil
}

// List retrieves all tracks ordered by sequence.
func (r *TrackRepository) List() ([]*models.Track, error) {
	query := `
		SELECT id, sequence, video_id, title, artist, album, duration, thumbnail_url, channel, play_count, created_at, updated_at
		FROM tracks
		ORDER BY sequence
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*models.Track
	for rows.Next() {
		track, err := r.scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tracks: %w", err)
	}

	return tracks, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanTrack.
type rowScanner interface {
	Scan(dest ...any) error
}

func (r *TrackRepository) scanTrack(row rowScanner) (*models.Track, error) {
	var (
		id, videoID, title, artist string
		album, thumbnailURL        sql.NullString
		channel                    sql.NullString
		sequence, duration, plays  int
		createdAt, updatedAt       time.Time
	)

	err := row.Scan(&id, &sequence, &videoID, &title, &artist, &album, &duration, &thumbnailURL, &channel, &plays, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}

	track := models.NewTrack(videoID, title, artist, album.String, duration)
	track.SetID(id)
	track.SetSequence(sequence)
	track.SetThumbnailURL(thumbnailURL.String)
	track.SetChannel(channel.String)
	track.SetPlayCount(plays)
	track.SetTimestamps(createdAt, updatedAt)

	return track, nil
}
