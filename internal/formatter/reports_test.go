package formatter

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/tidalift/internal/models"
	tu "github.com/desertthunder/tidalift/internal/testing"
)

func TestArtistReport(t *testing.T) {
	results := []models.ArtistAvailability{
		{
			Artist:     models.Artist{Name: "Alpha", Sources: []string{"followed", "short_term"}, SpotifyURL: "https://open.spotify.com/artist/a1"},
			TidalFound: true,
			TidalID:    42,
			TidalName:  "Alpha",
			TidalURL:   "https://tidal.com/artist/42",
		},
		{
			Artist: models.Artist{Name: "Beta", Sources: []string{"followed"}, SpotifyURL: "https://open.spotify.com/artist/a2"},
		},
	}

	report := string(ArtistReport(results))

	for _, want := range []string{
		"# Spotify to Tidal Artist Migration Report",
		"**Total Artists:** 2",
		"**Found on Tidal:** 1 (50.0%)",
		"**Not Found:** 1 (50.0%)",
		"## Artists Found on Tidal",
		"- **Alpha** (followed, short_term)",
		"  - Spotify: https://open.spotify.com/artist/a1",
		"  - Tidal: https://tidal.com/artist/42",
		"## Artists NOT Found on Tidal",
		"- **Beta** (followed)",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q\ngot:\n%s", want, report)
		}
	}

	t.Run("not-found section omits tidal links", func(t *testing.T) {
		notFoundSection := report[strings.Index(report, "## Artists NOT Found"):]
		if strings.Contains(notFoundSection, "Tidal: https") {
			t.Error("not-found section should not contain Tidal links")
		}
	})

	t.Run("empty results", func(t *testing.T) {
		report := string(ArtistReport(nil))
		if !strings.Contains(report, "**Total Artists:** 0") {
			t.Error("expected zero total")
		}
		if !strings.Contains(report, "(0.0%)") {
			t.Error("expected 0.0% with no artists")
		}
	})
}

func TestWriteArtistReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migration_report.md")

	if err := WriteArtistReport(nil, path); err != nil {
		t.Fatalf("WriteArtistReport failed: %v", err)
	}
	tu.AssertFileExists(t, path)
}

func TestPlaylistReport(t *testing.T) {
	migration := func(name string, found, total int, url string) models.PlaylistMigration {
		m := models.PlaylistMigration{
			SpotifyPlaylist:  models.PlaylistSummary{Name: name, SpotifyURL: "https://open.spotify.com/playlist/" + name},
			TidalPlaylistURL: url,
			TracksFound:      found,
			TracksTotal:      total,
		}
		if total > 0 {
			m.MatchRate = float64(found) / float64(total)
		}
		return m
	}

	t.Run("summary and per-playlist sections", func(t *testing.T) {
		results := []models.PlaylistMigration{
			migration("Morning", 8, 10, "https://listen.tidal.com/playlist/uuid-1"),
			migration("Evening", 5, 10, ""),
		}

		report := string(PlaylistReport(results))

		for _, want := range []string{
			"# Spotify to Tidal Playlist Migration Report",
			"**Total Playlists:** 2",
			"**Total Tracks:** 20",
			"**Tracks Found on Tidal:** 13 (65.0%)",
			"**Tracks Not Found:** 7",
			"### Morning",
			"**Tracks:** 8/10 found (80.0%)",
			"- Tidal: https://listen.tidal.com/playlist/uuid-1",
			"### Evening",
			"- Tidal: Not created (dry run)",
		} {
			if !strings.Contains(report, want) {
				t.Errorf("report missing %q", want)
			}
		}
	})

	t.Run("lists unmatched tracks capped at twenty", func(t *testing.T) {
		m := migration("Big", 0, 25, "")
		for i := range 25 {
			m.TrackResults = append(m.TrackResults, models.TrackMatch{
				SpotifyTrack: models.Track{Name: fmt.Sprintf("Song %d", i), Artists: []string{"Artist"}},
			})
		}

		report := string(PlaylistReport([]models.PlaylistMigration{m}))

		if !strings.Contains(report, "**Tracks not found on Tidal (25):**") {
			t.Error("missing unmatched header")
		}
		if !strings.Contains(report, "- Artist - Song 19") {
			t.Error("expected the twentieth unmatched track listed")
		}
		if strings.Contains(report, "- Artist - Song 20") {
			t.Error("unmatched listing should stop at twenty tracks")
		}
		if !strings.Contains(report, "- *(and 5 more)*") {
			t.Error("missing overflow marker")
		}
	})

	t.Run("description rendered in italics", func(t *testing.T) {
		m := migration("Described", 1, 1, "")
		m.SpotifyPlaylist.Description = "my jams"

		report := string(PlaylistReport([]models.PlaylistMigration{m}))
		if !strings.Contains(report, "*my jams*") {
			t.Error("missing italicized description")
		}
	})

	t.Run("fully matched playlist has no unmatched section", func(t *testing.T) {
		m := migration("Clean", 1, 1, "")
		m.TrackResults = []models.TrackMatch{{SpotifyTrack: models.Track{Name: "Hit"}, TidalFound: true}}

		report := string(PlaylistReport([]models.PlaylistMigration{m}))
		if strings.Contains(report, "Tracks not found on Tidal") {
			t.Error("unexpected unmatched section")
		}
	})
}

func TestWritePlaylistReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "playlist_migration_report.md")

	if err := WritePlaylistReport(nil, path); err != nil {
		t.Fatalf("WritePlaylistReport failed: %v", err)
	}
	tu.AssertFileExists(t, path)
}
