// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/desertthunder/tidalift/internal/models"
)

// MockExporter is a configurable test double for [services.Exporter]
type MockExporter struct {
	FollowedArtistsFunc func(ctx context.Context) ([]models.Artist, error)
	TopArtistsFunc      func(ctx context.Context, timeRange string) ([]models.Artist, error)
	OwnedPlaylistsFunc  func(ctx context.Context) ([]models.Playlist, error)
	PlaylistTracksFunc  func(ctx context.Context, playlistID string) ([]models.Track, error)
}

func (m *MockExporter) FollowedArtists(ctx context.Context) ([]models.Artist, error) {
	if m.FollowedArtistsFunc != nil {
		return m.FollowedArtistsFunc(ctx)
	}
	return []models.Artist{}, nil
}

func (m *MockExporter) TopArtists(ctx context.Context, timeRange string) ([]models.Artist, error) {
	if m.TopArtistsFunc != nil {
		return m.TopArtistsFunc(ctx, timeRange)
	}
	return []models.Artist{}, nil
}

func (m *MockExporter) OwnedPlaylists(ctx context.Context) ([]models.Playlist, error) {
	if m.OwnedPlaylistsFunc != nil {
		return m.OwnedPlaylistsFunc(ctx)
	}
	return []models.Playlist{}, nil
}

func (m *MockExporter) PlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	if m.PlaylistTracksFunc != nil {
		return m.PlaylistTracksFunc(ctx, playlistID)
	}
	return []models.Track{}, nil
}

func (m *MockExporter) Name() string { return "mock-exporter" }

// MockImporter is a configurable test double for [services.Importer]
type MockImporter struct {
	SearchArtistsFunc  func(ctx context.Context, query string, limit int) ([]models.FoundArtist, error)
	SearchTracksFunc   func(ctx context.Context, query string, limit int) ([]models.FoundTrack, error)
	CreatePlaylistFunc func(ctx context.Context, name, description string) (*models.CreatedPlaylist, error)
	AddTracksFunc      func(ctx context.Context, playlistID string, trackIDs []int64) error
}

func (m *MockImporter) SearchArtists(ctx context.Context, query string, limit int) ([]models.FoundArtist, error) {
	if m.SearchArtistsFunc != nil {
		return m.SearchArtistsFunc(ctx, query, limit)
	}
	return []models.FoundArtist{}, nil
}

func (m *MockImporter) SearchTracks(ctx context.Context, query string, limit int) ([]models.FoundTrack, error) {
	if m.SearchTracksFunc != nil {
		return m.SearchTracksFunc(ctx, query, limit)
	}
	return []models.FoundTrack{}, nil
}

func (m *MockImporter) CreatePlaylist(ctx context.Context, name, description string) (*models.CreatedPlaylist, error) {
	if m.CreatePlaylistFunc != nil {
		return m.CreatePlaylistFunc(ctx, name, description)
	}
	return &models.CreatedPlaylist{ID: "mock-playlist"}, nil
}

func (m *MockImporter) AddTracks(ctx context.Context, playlistID string, trackIDs []int64) error {
	if m.AddTracksFunc != nil {
		return m.AddTracksFunc(ctx, playlistID, trackIDs)
	}
	return nil
}

func (m *MockImporter) Name() string { return "mock-importer" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
