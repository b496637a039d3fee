package formatter

import (
	"encoding/csv"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/tidalift/internal/models"
	tu "github.com/desertthunder/tidalift/internal/testing"
)

func sampleExport() *models.PlaylistExport {
	return &models.PlaylistExport{
		Playlist: models.Playlist{
			SpotifyID:   "playlist123",
			Name:        "Test Playlist",
			Description: "A test playlist",
			Public:      true,
		},
		Tracks: []models.Track{
			{ID: "t1", Name: "Song One", Artists: []string{"Artist A"}, Album: "Album X", DurationMS: 215000, ISRC: "USRC11111111"},
			{ID: "t2", Name: "Song Two", Artists: []string{"Artist B", "Artist C"}, Album: "Album Y", DurationMS: 184000},
		},
	}
}

func TestExportToCSV(t *testing.T) {
	data, err := ExportToCSV(sampleExport())
	if err != nil {
		t.Fatalf("ExportToCSV failed: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("got %d records, want 3 (header + 2 tracks)", len(records))
	}

	header := strings.Join(records[0], ",")
	if header != "ID,Title,Artists,Album,Duration,ISRC" {
		t.Errorf("header = %q", header)
	}

	if records[1][5] != "USRC11111111" {
		t.Errorf("first track ISRC = %q, want USRC11111111", records[1][5])
	}
	if records[2][2] != "Artist B; Artist C" {
		t.Errorf("second track artists = %q, want joined with semicolons", records[2][2])
	}
}

func TestExportToMarkdown(t *testing.T) {
	data, err := ExportToMarkdown(sampleExport())
	if err != nil {
		t.Fatalf("ExportToMarkdown failed: %v", err)
	}

	output := string(data)
	for _, want := range []string{
		"# Test Playlist",
		"**Description**: A test playlist",
		"**Tracks**: 2",
		"**Visibility**: Public",
		"1. Artist A - Song One (Album X) [3:35]",
		"2. Artist B - Song Two (Album Y) [3:04]",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("markdown missing %q\ngot:\n%s", want, output)
		}
	}
}

func TestExportToText(t *testing.T) {
	data, err := ExportToText(sampleExport())
	if err != nil {
		t.Fatalf("ExportToText failed: %v", err)
	}

	output := string(data)
	for _, want := range []string{
		"Playlist: Test Playlist",
		"Tracks: 2",
		"1. Artist A - Song One",
		"2. Artist B - Song Two",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("text missing %q", want)
		}
	}
}

func TestWriteCSVExport(t *testing.T) {
	base := filepath.Join(t.TempDir(), "playlist123")

	result, err := WriteCSVExport(sampleExport(), base)
	if err != nil {
		t.Fatalf("WriteCSVExport failed: %v", err)
	}

	tu.AssertFileExists(t, result.TracksFile)
	tu.AssertFileExists(t, result.MetadataFile)

	metadata := tu.MustReadFile(t, result.MetadataFile)
	if !strings.Contains(metadata, "\"spotify_id\": \"playlist123\"") {
		t.Errorf("metadata missing spotify_id: %s", metadata)
	}
	if strings.Contains(metadata, "tracks") {
		t.Error("metadata should not include the track listing")
	}
}

func TestWriteMarkdownExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "playlist123")

	result, err := WriteMarkdownExport(sampleExport(), dir)
	if err != nil {
		t.Fatalf("WriteMarkdownExport failed: %v", err)
	}

	tu.AssertDirExists(t, result.Directory)
	if len(result.Files) != 1 {
		t.Fatalf("got %d files, want 1", len(result.Files))
	}
	tu.AssertFileExists(t, result.Files[0])
	if filepath.Base(result.Files[0]) != "README.md" {
		t.Errorf("file = %s, want README.md", result.Files[0])
	}
}

func TestWriteTextExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "playlist.txt")

	written, err := WriteTextExport(sampleExport(), path)
	if err != nil {
		t.Fatalf("WriteTextExport failed: %v", err)
	}

	if written != path {
		t.Errorf("written path = %s, want %s", written, path)
	}
	tu.AssertFileExists(t, written)
}

func TestWriteBulkManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export_manifest.json")

	manifest := BulkManifest{
		Format:            "json",
		TotalPlaylists:    2,
		SuccessfulExports: 1,
		FailedExports:     1,
		Playlists: []ManifestEntry{
			{PlaylistID: "p1", PlaylistName: "Good", Status: "success", Files: []string{"p1.json"}},
			{PlaylistID: "p2", PlaylistName: "Bad", Status: "failed", Error: "fetch failed"},
		},
	}

	if err := WriteBulkManifest(manifest, path); err != nil {
		t.Fatalf("WriteBulkManifest failed: %v", err)
	}

	content := tu.MustReadFile(t, path)
	for _, want := range []string{"\"status\": \"success\"", "\"status\": \"failed\"", "\"error\": \"fetch failed\""} {
		if !strings.Contains(content, want) {
			t.Errorf("manifest missing %q", want)
		}
	}
}
