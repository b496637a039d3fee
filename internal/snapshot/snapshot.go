// package snapshot reads and writes the JSON files handed between commands.
//
// Each command writes a point-in-time export of one vendor's data; a later
// command reads it back. Files are overwritten on every run.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/tidalift/internal/shared"
)

// Snapshot file names within the data directory.
const (
	FollowedArtistsFile  = "spotify_followed_artists.json"
	TopArtistsFile       = "spotify_top_artists.json"
	AllArtistsFile       = "spotify_all_artists.json"
	PlaylistsFile        = "spotify_playlists.json"
	AvailabilityFile     = "tidal_availability.json"
	MigrationResultsFile = "playlist_migration_results.json"
	ArtistReportFile     = "migration_report.md"
	PlaylistReportFile   = "playlist_migration_report.md"
)

// Store manages snapshot files within a single data directory.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir, creating the directory if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		dir = "data"
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &Store{dir: dir}, nil
}

// Dir returns the store's data directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the absolute location of a snapshot file within the store.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Exists reports whether a snapshot file is present.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.Path(name))
	return err == nil
}

// WriteJSON serializes v as indented JSON to the named snapshot file,
// replacing any previous contents.
func (s *Store) WriteJSON(name string, v any) error {
	data, err := shared.MarshalJSON(v, true)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot %s: %w", name, err)
	}

	if err := os.WriteFile(s.Path(name), data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", name, err)
	}

	return nil
}

// WriteRaw writes raw bytes (e.g. a Markdown report) to the named file.
func (s *Store) WriteRaw(name string, data []byte) error {
	if err := os.WriteFile(s.Path(name), data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// ReadJSON reads and decodes the named snapshot file into a value of type T.
//
// A missing file returns [shared.ErrSnapshotMissing] so callers can tell the
// operator which command produces it.
func ReadJSON[T any](s *Store, name string) (T, error) {
	var v T

	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return v, fmt.Errorf("%w: %s", shared.ErrSnapshotMissing, s.Path(name))
		}
		return v, fmt.Errorf("failed to read snapshot %s: %w", name, err)
	}

	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("%w: %s: %v", shared.ErrSnapshotInvalid, name, err)
	}

	return v, nil
}
