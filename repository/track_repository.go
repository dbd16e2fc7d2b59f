package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"trackvault/db"
	"trackvault/model"
)

// ErrTrackNotFound is returned when a delete targets a missing track.
var ErrTrackNotFound = errors.New("track not found")

// TrackRepository defines the interface for track data operations.
type TrackRepository interface {
	CreateTrack(track *model.Track) (int64, error)
	GetTrackByID(id int64) (*model.Track, error)
	ListTracks(filter model.TrackFilter) ([]*model.Track, error)
	DeleteTrack(id int64) error
}

// mysqlTrackRepository implements TrackRepository for MySQL.
type mysqlTrackRepository struct {
	DB *sql.DB
}

// NewMySQLTrackRepository creates a new instance of mysqlTrackRepository.
func NewMySQLTrackRepository() TrackRepository {
	return &mysqlTrackRepository{DB: db.DB}
}

// CreateTrack adds a new track to the database and fills in its assigned ID
// and creation time.
func (r *mysqlTrackRepository) CreateTrack(track *model.Track) (int64, error) {
	query := `INSERT INTO tracks (title, file_url, file_name, tags, file_size, mime_type, created_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	stmt, err := r.DB.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement for CreateTrack: %w", err)
	}
	defer stmt.Close()

	if track.MimeType == "" {
		track.MimeType = "audio/mpeg"
	}
	tagsJSON, err := json.Marshal(track.Tags)
	if err != nil {
		return 0, fmt.Errorf("failed to encode tags for CreateTrack: %w", err)
	}

	now := time.Now()
	res, err := stmt.Exec(track.Title, track.FileURL, track.FileName, tagsJSON, track.FileSize, track.MimeType, now)
	if err != nil {
		return 0, fmt.Errorf("failed to execute CreateTrack: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for CreateTrack: %w", err)
	}
	track.ID = id
	track.CreatedAt = now
	return id, nil
}

// GetTrackByID retrieves a track by its ID. Returns (nil, nil) when no such
// track exists.
func (r *mysqlTrackRepository) GetTrackByID(id int64) (*model.Track, error) {
	query := `SELECT id, title, file_url, file_name, tags, file_size, mime_type, created_at
	           FROM tracks WHERE id = ?`
	row := r.DB.QueryRow(query, id)

	track, err := scanTrack(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan track by ID %d: %w", id, err)
	}
	return track, nil
}

// ListTracks retrieves tracks matching the filter, newest first. Filters
// compose with AND; the limit is applied after filtering and ordering.
func (r *mysqlTrackRepository) ListTracks(filter model.TrackFilter) ([]*model.Track, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Tag != "" {
		conds = append(conds, "JSON_CONTAINS(tags, JSON_QUOTE(?))")
		args = append(args, filter.Tag)
	}
	if filter.Search != "" {
		conds = append(conds, "LOWER(title) LIKE CONCAT('%', LOWER(?), '%')")
		args = append(args, filter.Search)
	}

	query := `SELECT id, title, file_url, file_name, tags, file_size, mime_type, created_at FROM tracks`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	tracks := make([]*model.Track, 0)
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track in ListTracks: %w", err)
		}
		tracks = append(tracks, track)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in ListTracks: %w", err)
	}

	return tracks, nil
}

// DeleteTrack removes a track record by ID.
func (r *mysqlTrackRepository) DeleteTrack(id int64) error {
	res, err := r.DB.Exec(`DELETE FROM tracks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to execute DeleteTrack for ID %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for DeleteTrack: %w", err)
	}
	if affected == 0 {
		return ErrTrackNotFound
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTrack(row rowScanner) (*model.Track, error) {
	track := &model.Track{}
	var tagsJSON []byte
	err := row.Scan(&track.ID, &track.Title, &track.FileURL, &track.FileName, &tagsJSON, &track.FileSize, &track.MimeType, &track.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(tagsJSON) > 0 {
		if err := json.Unmarshal(tagsJSON, &track.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags for track %d: %w", track.ID, err)
		}
	}
	if track.Tags == nil {
		track.Tags = model.TagList{}
	}
	return track, nil
}
