package repository

import (
	"database/sql"
	"fmt"
	"time"

	"MacanFM/db"
	"MacanFM/logger"
	"MacanFM/model"
)

// TrackRepository defines the interface for track data operations.
type TrackRepository interface {
	CreateTrack(track *model.Track) (int64, error)
	GetTrackByID(id int64) (*model.Track, error)
	GetTrackByPath(path string) (*model.Track, error)
	GetAllTracks() ([]*model.Track, error)
	UpdateTrackDuration(path string, duration float64) error
	UpdateTrackCoverArtPath(path string, coverPath string) error
	UpdateTrackLoudness(path string, loudnessDB float64) error
	UpdateTrackStreamURL(path string, streamURL string) error
}

// mysqlTrackRepository implements TrackRepository for MySQL.
type mysqlTrackRepository struct {
	DB *sql.DB
}

// NewMySQLTrackRepository creates a new instance of mysqlTrackRepository.
func NewMySQLTrackRepository() TrackRepository {
	return &mysqlTrackRepository{DB: db.DB}
}

const trackColumns = `id, path, title, artist, album, ext, is_video, duration, stream_url, cover_art_path, loudness_db, created_at, updated_at`

func scanTrack(row interface{ Scan(...interface{}) error }) (*model.Track, error) {
	track := &model.Track{}
	var streamURL, coverPath sql.NullString
	var loudness sql.NullFloat64
	err := row.Scan(&track.ID, &track.Path, &track.Title, &track.Artist, &track.Album,
		&track.Ext, &track.IsVideo, &track.Duration, &streamURL, &coverPath, &loudness,
		&track.CreatedAt, &track.UpdatedAt)
	if err != nil {
		return nil, err
	}
	track.StreamURL = streamURL.String
	track.CoverArtPath = coverPath.String
	if loudness.Valid {
		v := loudness.Float64
		track.LoudnessDB = &v
	}
	return track, nil
}

// CreateTrack adds a new track to the database.
func (r *mysqlTrackRepository) CreateTrack(track *model.Track) (int64, error) {
	query := `INSERT INTO tracks (path, title, artist, album, ext, is_video, duration, stream_url, cover_art_path, loudness_db, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := r.DB.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement for CreateTrack: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	var loudness interface{}
	if track.LoudnessDB != nil {
		loudness = *track.LoudnessDB
	}
	res, err := stmt.Exec(track.Path, track.Title, track.Artist, track.Album, track.Ext,
		track.IsVideo, track.Duration, track.StreamURL, track.CoverArtPath, loudness, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to execute CreateTrack: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for CreateTrack: %w", err)
	}
	logger.Debug("track created", logger.Int64("id", id), logger.String("path", track.Path))
	return id, nil
}

// GetTrackByID retrieves a track by its ID.
func (r *mysqlTrackRepository) GetTrackByID(id int64) (*model.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE id = ?`
	track, err := scanTrack(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Track not found
		}
		return nil, fmt.Errorf("failed to scan track by ID %d: %w", id, err)
	}
	return track, nil
}

// GetTrackByPath retrieves a track by its identity key.
func (r *mysqlTrackRepository) GetTrackByPath(path string) (*model.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE path = ?`
	track, err := scanTrack(r.DB.QueryRow(query, path))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Track not found
		}
		return nil, fmt.Errorf("failed to scan track by path %s: %w", path, err)
	}
	return track, nil
}

// GetAllTracks retrieves all tracks in library order.
func (r *mysqlTrackRepository) GetAllTracks() ([]*model.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks ORDER BY path ASC`
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	tracks := make([]*model.Track, 0)
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track in GetAllTracks: %w", err)
		}
		tracks = append(tracks, track)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in GetAllTracks: %w", err)
	}

	return tracks, nil
}

// UpdateTrackDuration back-fills the duration once media metadata is known.
func (r *mysqlTrackRepository) UpdateTrackDuration(path string, duration float64) error {
	return r.updateField("duration", path, duration)
}

// UpdateTrackCoverArtPath back-fills the cover art object key.
func (r *mysqlTrackRepository) UpdateTrackCoverArtPath(path string, coverPath string) error {
	return r.updateField("cover_art_path", path, coverPath)
}

// UpdateTrackLoudness back-fills the measured loudness offset in dB.
func (r *mysqlTrackRepository) UpdateTrackLoudness(path string, loudnessDB float64) error {
	return r.updateField("loudness_db", path, loudnessDB)
}

// UpdateTrackStreamURL caches the last successfully resolved stream URL.
func (r *mysqlTrackRepository) UpdateTrackStreamURL(path string, streamURL string) error {
	return r.updateField("stream_url", path, streamURL)
}

func (r *mysqlTrackRepository) updateField(column, path string, value interface{}) error {
	query := fmt.Sprintf(`UPDATE tracks SET %s = ?, updated_at = ? WHERE path = ?`, column)
	stmt, err := r.DB.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for update of %s: %w", column, err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(value, time.Now(), path)
	if err != nil {
		return fmt.Errorf("failed to update %s for track %s: %w", column, path, err)
	}
	return nil
}
