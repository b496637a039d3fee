package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/tidalift/internal/models"
	"github.com/desertthunder/tidalift/internal/shared"
)

// TrackMatchRepository implements models.Repository[*models.PersistedTrackMatch].
//
// Stores resolved Spotify to Tidal track matches so repeated migrations skip
// searches that already succeeded. Matches are looked up by Spotify track ID
// or by ISRC.
type TrackMatchRepository struct {
	db *sql.DB
}

// NewTrackMatchRepository creates a new TrackMatchRepository with the given database connection
func NewTrackMatchRepository(db *sql.DB) *TrackMatchRepository {
	return &TrackMatchRepository{db: db}
}

const matchColumns = "id, sequence, spotify_id, title, artist, album, duration, isrc, tidal_id, tidal_title, tidal_artist, tidal_album, matched, strategy, created_at, updated_at, deleted_at"

// Create inserts a new [models.PersistedTrackMatch] into the database with generated ID and sequence
func (r *TrackMatchRepository) Create(match *models.PersistedTrackMatch) error {
	sequence, err := NextSequence(r.db, "track_matches")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	match.SetID(id)

	if err := match.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	dto := match.Match()
	track := dto.SpotifyTrack

	var tidalID sql.NullInt64
	if dto.TidalFound {
		tidalID = sql.NullInt64{Int64: dto.TidalID, Valid: true}
	}

	query := `
		INSERT INTO track_matches (id, sequence, spotify_id, title, artist, album, duration, isrc, tidal_id, tidal_title, tidal_artist, tidal_album, matched, strategy, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		track.ID,
		track.Name,
		track.PrimaryArtist(),
		track.Album,
		track.DurationMS,
		track.ISRC,
		tidalID,
		dto.TidalName,
		dto.TidalArtist,
		dto.TidalAlbum,
		dto.TidalFound,
		dto.Strategy,
		match.CreatedAt(),
		match.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert track match: %w", err)
	}

	return nil
}

// Get retrieves a track match by ID, excluding soft-deleted matches
func (r *TrackMatchRepository) Get(id string) (*models.PersistedTrackMatch, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM track_matches
		WHERE id = ? AND deleted_at IS NULL
	`, matchColumns)

	return scanMatch(r.db.QueryRow(query, id))
}

// GetBySpotifyID retrieves a match by the source Spotify track ID
func (r *TrackMatchRepository) GetBySpotifyID(spotifyID string) (*models.PersistedTrackMatch, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM track_matches
		WHERE spotify_id = ? AND deleted_at IS NULL
	`, matchColumns)

	return scanMatch(r.db.QueryRow(query, spotifyID))
}

// GetByISRC retrieves a match by ISRC code
func (r *TrackMatchRepository) GetByISRC(isrc string) (*models.PersistedTrackMatch, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM track_matches
		WHERE isrc = ? AND deleted_at IS NULL
		LIMIT 1
	`, matchColumns)

	return scanMatch(r.db.QueryRow(query, isrc))
}

// Update modifies an existing track match in the database
func (r *TrackMatchRepository) Update(match *models.PersistedTrackMatch) error {
	if err := match.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	match.SetUpdatedAt(now)

	dto := match.Match()

	var tidalID sql.NullInt64
	if dto.TidalFound {
		tidalID = sql.NullInt64{Int64: dto.TidalID, Valid: true}
	}

	query := `
		UPDATE track_matches
		SET tidal_id = ?, tidal_title = ?, tidal_artist = ?, tidal_album = ?, matched = ?, strategy = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		tidalID,
		dto.TidalName,
		dto.TidalArtist,
		dto.TidalAlbum,
		dto.TidalFound,
		dto.Strategy,
		now,
		match.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update track match: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("track match not found or already deleted: %s", match.ID())
	}

	return nil
}

// Delete soft-deletes a track match by ID
func (r *TrackMatchRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE track_matches
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete track match: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("track match not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all matches matching the given criteria, excluding soft-deleted matches.
//
// Supported criteria: "matched" (bool), "strategy" (string).
func (r *TrackMatchRepository) List(criteria map[string]any) ([]*models.PersistedTrackMatch, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM track_matches
		WHERE deleted_at IS NULL
	`, matchColumns)

	args := []any{}

	if matched, ok := criteria["matched"].(bool); ok {
		query += " AND matched = ?"
		args = append(args, matched)
	}

	if strategy, ok := criteria["strategy"].(string); ok && strategy != "" {
		query += " AND strategy = ?"
		args = append(args, strategy)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query track matches: %w", err)
	}
	defer rows.Close()

	var matches []*models.PersistedTrackMatch
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return matches, nil
}

func scanMatch(row scanner) (*models.PersistedTrackMatch, error) {
	var (
		id          string
		sequence    int
		spotifyID   string
		title       string
		artist      string
		album       string
		duration    int
		isrc        string
		tidalID     sql.NullInt64
		tidalTitle  sql.NullString
		tidalArtist sql.NullString
		tidalAlbum  sql.NullString
		matched     bool
		strategy    string
		createdAt   time.Time
		updatedAt   time.Time
		deletedAt   sql.NullTime
	)

	err := row.Scan(&id, &sequence, &spotifyID, &title, &artist, &album, &duration, &isrc, &tidalID, &tidalTitle, &tidalArtist, &tidalAlbum, &matched, &strategy, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("track match not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track match: %w", err)
	}

	dto := models.TrackMatch{
		SpotifyTrack: models.Track{
			ID:         spotifyID,
			Name:       title,
			Artists:    models.ParseCSV(artist),
			Album:      album,
			DurationMS: duration,
			ISRC:       isrc,
		},
		TidalFound:  matched,
		TidalID:     tidalID.Int64,
		TidalName:   tidalTitle.String,
		TidalArtist: tidalArtist.String,
		TidalAlbum:  tidalAlbum.String,
		Strategy:    strategy,
	}

	match := models.NewPersistedTrackMatch(sequence, dto)
	match.SetID(id)
	match.SetCreatedAt(createdAt)
	match.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		match.SetDeletedAt(&deletedAt.Time)
	}

	return match, nil
}
