package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/tidalift/internal/models"
	"github.com/desertthunder/tidalift/internal/shared"
)

// ArtistRepository implements models.Repository[*models.PersistedArtist].
//
// Stores collected artists alongside their Tidal availability so availability
// checks can be resumed without repeating searches.
type ArtistRepository struct {
	db *sql.DB
}

// NewArtistRepository creates a new ArtistRepository with the given database connection
func NewArtistRepository(db *sql.DB) *ArtistRepository {
	return &ArtistRepository{db: db}
}

const artistColumns = "id, sequence, spotify_id, name, genres, popularity, followers, spotify_url, sources, tidal_id, tidal_name, tidal_url, tidal_found, created_at, updated_at, deleted_at"

// Create inserts a new [models.PersistedArtist] into the database with generated ID and sequence
func (r *ArtistRepository) Create(artist *models.PersistedArtist) error {
	sequence, err := NextSequence(r.db, "artists")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	artist.SetID(id)

	if err := artist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	dto := artist.Artist()
	tidalID, tidalName, tidalURL, tidalFound := availabilityColumns(artist.Availability())

	query := `
		INSERT INTO artists (id, sequence, spotify_id, name, genres, popularity, followers, spotify_url, sources, tidal_id, tidal_name, tidal_url, tidal_found, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		dto.ID,
		dto.Name,
		artist.GenresCSV(),
		dto.Popularity,
		dto.Followers,
		dto.SpotifyURL,
		artist.SourcesCSV(),
		tidalID,
		tidalName,
		tidalURL,
		tidalFound,
		artist.CreatedAt(),
		artist.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert artist: %w", err)
	}

	return nil
}

// Get retrieves an artist by ID, excluding soft-deleted artists
func (r *ArtistRepository) Get(id string) (*models.PersistedArtist, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM artists
		WHERE id = ? AND deleted_at IS NULL
	`, artistColumns)

	return scanArtist(r.db.QueryRow(query, id))
}

// GetBySpotifyID retrieves an artist by its Spotify ID
func (r *ArtistRepository) GetBySpotifyID(spotifyID string) (*models.PersistedArtist, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM artists
		WHERE spotify_id = ? AND deleted_at IS NULL
	`, artistColumns)

	return scanArtist(r.db.QueryRow(query, spotifyID))
}

// Update modifies an existing artist, including its availability columns
func (r *ArtistRepository) Update(artist *models.PersistedArtist) error {
	if err := artist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	artist.SetUpdatedAt(now)

	dto := artist.Artist()
	tidalID, tidalName, tidalURL, tidalFound := availabilityColumns(artist.Availability())

	query := `
		UPDATE artists
		SET name = ?, genres = ?, popularity = ?, followers = ?, spotify_url = ?, sources = ?, tidal_id = ?, tidal_name = ?, tidal_url = ?, tidal_found = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		dto.Name,
		artist.GenresCSV(),
		dto.Popularity,
		dto.Followers,
		dto.SpotifyURL,
		artist.SourcesCSV(),
		tidalID,
		tidalName,
		tidalURL,
		tidalFound,
		now,
		artist.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update artist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("artist not found or already deleted: %s", artist.ID())
	}

	return nil
}

// Delete soft-deletes an artist by ID
func (r *ArtistRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE artists
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete artist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("artist not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all artists matching the given criteria, excluding soft-deleted artists.
//
// Supported criteria: "tidal_found" (bool), "source" (string, substring match).
func (r *ArtistRepository) List(criteria map[string]any) ([]*models.PersistedArtist, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM artists
		WHERE deleted_at IS NULL
	`, artistColumns)

	args := []any{}

	if found, ok := criteria["tidal_found"].(bool); ok {
		query += " AND tidal_found = ?"
		args = append(args, found)
	}

	if source, ok := criteria["source"].(string); ok && source != "" {
		query += " AND sources LIKE ?"
		args = append(args, "%"+source+"%")
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query artists: %w", err)
	}
	defer rows.Close()

	var artists []*models.PersistedArtist
	for rows.Next() {
		artist, err := scanArtist(rows)
		if err != nil {
			return nil, err
		}
		artists = append(artists, artist)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return artists, nil
}

func availabilityColumns(a *models.ArtistAvailability) (tidalID sql.NullInt64, tidalName, tidalURL sql.NullString, tidalFound bool) {
	if a == nil {
		return
	}

	tidalFound = a.TidalFound
	if a.TidalFound {
		tidalID = sql.NullInt64{Int64: a.TidalID, Valid: true}
		tidalName = sql.NullString{String: a.TidalName, Valid: true}
		tidalURL = sql.NullString{String: a.TidalURL, Valid: true}
	}

	return
}

// scanner abstracts sql.Row and sql.Rows for shared scan logic.
type scanner interface {
	Scan(dest ...any) error
}

func scanArtist(row scanner) (*models.PersistedArtist, error) {
	var (
		id         string
		sequence   int
		spotifyID  string
		name       string
		genres     string
		popularity int
		followers  int
		spotifyURL string
		sources    string
		tidalID    sql.NullInt64
		tidalName  sql.NullString
		tidalURL   sql.NullString
		tidalFound bool
		createdAt  time.Time
		updatedAt  time.Time
		deletedAt  sql.NullTime
	)

	err := row.Scan(&id, &sequence, &spotifyID, &name, &genres, &popularity, &followers, &spotifyURL, &sources, &tidalID, &tidalName, &tidalURL, &tidalFound, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("artist not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan artist: %w", err)
	}

	dto := models.Artist{
		ID:         spotifyID,
		Name:       name,
		Genres:     models.ParseCSV(genres),
		Popularity: popularity,
		Followers:  followers,
		SpotifyURL: spotifyURL,
		Sources:    models.ParseCSV(sources),
	}

	artist := models.NewPersistedArtist(sequence, dto)
	artist.SetID(id)
	artist.SetCreatedAt(createdAt)
	artist.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		artist.SetDeletedAt(&deletedAt.Time)
	}

	if tidalFound || tidalID.Valid {
		artist.SetAvailability(&models.ArtistAvailability{
			Artist:     dto,
			TidalFound: tidalFound,
			TidalID:    tidalID.Int64,
			TidalName:  tidalName.String,
			TidalURL:   tidalURL.String,
		})
	}

	return artist, nil
}
