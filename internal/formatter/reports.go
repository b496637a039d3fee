package formatter

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/tidalift/internal/models"
)

// Caps the per-playlist unmatched track listing in migration reports.
const maxUnmatchedListed = 20

// ArtistReport renders artist availability results as a Markdown report with
// a summary header, a found section, and a not-found section.
func ArtistReport(results []models.ArtistAvailability) []byte {
	var buf bytes.Buffer

	found := 0
	for _, result := range results {
		if result.TidalFound {
			found++
		}
	}
	notFound := len(results) - found

	buf.WriteString("# Spotify to Tidal Artist Migration Report\n\n")
	buf.WriteString(fmt.Sprintf("**Total Artists:** %d\n", len(results)))
	buf.WriteString(fmt.Sprintf("**Found on Tidal:** %d (%s)\n", found, percentage(found, len(results))))
	buf.WriteString(fmt.Sprintf("**Not Found:** %d (%s)\n", notFound, percentage(notFound, len(results))))
	buf.WriteString("\n---\n\n")

	buf.WriteString("## Artists Found on Tidal\n\n")
	for _, result := range results {
		if !result.TidalFound {
			continue
		}

		buf.WriteString(fmt.Sprintf("- **%s** (%s)\n", result.Name, strings.Join(result.Sources, ", ")))
		buf.WriteString(fmt.Sprintf("  - Spotify: %s\n", result.SpotifyURL))
		buf.WriteString(fmt.Sprintf("  - Tidal: %s\n\n", result.TidalURL))
	}

	buf.WriteString("---\n\n")
	buf.WriteString("## Artists NOT Found on Tidal\n\n")
	for _, result := range results {
		if result.TidalFound {
			continue
		}

		buf.WriteString(fmt.Sprintf("- **%s** (%s)\n", result.Name, strings.Join(result.Sources, ", ")))
		buf.WriteString(fmt.Sprintf("  - Spotify: %s\n\n", result.SpotifyURL))
	}

	return buf.Bytes()
}

// WriteArtistReport writes the artist availability report to filepath.
func WriteArtistReport(results []models.ArtistAvailability, filepath string) error {
	if err := os.WriteFile(filepath, ArtistReport(results), 0644); err != nil {
		return fmt.Errorf("failed to write artist report: %w", err)
	}
	return nil
}

// PlaylistReport renders playlist migration results as a Markdown report.
// Each playlist section lists its match rate, links, and up to 20 unmatched
// tracks.
func PlaylistReport(results []models.PlaylistMigration) []byte {
	var buf bytes.Buffer

	totalTracks := 0
	totalFound := 0
	for _, result := range results {
		totalTracks += result.TracksTotal
		totalFound += result.TracksFound
	}

	buf.WriteString("# Spotify to Tidal Playlist Migration Report\n\n")
	buf.WriteString(fmt.Sprintf("**Total Playlists:** %d\n", len(results)))
	buf.WriteString(fmt.Sprintf("**Total Tracks:** %d\n", totalTracks))
	buf.WriteString(fmt.Sprintf("**Tracks Found on Tidal:** %d (%s)\n", totalFound, percentage(totalFound, totalTracks)))
	buf.WriteString(fmt.Sprintf("**Tracks Not Found:** %d\n", totalTracks-totalFound))
	buf.WriteString("\n---\n\n")
	buf.WriteString("## Playlists\n\n")

	for _, result := range results {
		buf.WriteString(fmt.Sprintf("### %s\n\n", result.SpotifyPlaylist.Name))
		buf.WriteString(fmt.Sprintf("**Tracks:** %d/%d found (%.1f%%)\n\n", result.TracksFound, result.TracksTotal, result.MatchRate*100))
		buf.WriteString(fmt.Sprintf("- Spotify: %s\n", result.SpotifyPlaylist.SpotifyURL))

		if result.TidalPlaylistURL != "" {
			buf.WriteString(fmt.Sprintf("- Tidal: %s\n", result.TidalPlaylistURL))
		} else {
			buf.WriteString("- Tidal: Not created (dry run)\n")
		}

		buf.WriteString("\n")

		if result.SpotifyPlaylist.Description != "" {
			buf.WriteString(fmt.Sprintf("*%s*\n\n", result.SpotifyPlaylist.Description))
		}

		writeUnmatched(&buf, result.TrackResults)
		buf.WriteString("---\n\n")
	}

	return buf.Bytes()
}

// WritePlaylistReport writes the playlist migration report to filepath.
func WritePlaylistReport(results []models.PlaylistMigration, filepath string) error {
	if err := os.WriteFile(filepath, PlaylistReport(results), 0644); err != nil {
		return fmt.Errorf("failed to write playlist report: %w", err)
	}
	return nil
}

func writeUnmatched(buf *bytes.Buffer, matches []models.TrackMatch) {
	var unmatched []models.Track
	for _, match := range matches {
		if !match.TidalFound {
			unmatched = append(unmatched, match.SpotifyTrack)
		}
	}

	if len(unmatched) == 0 {
		return
	}

	buf.WriteString(fmt.Sprintf("**Tracks not found on Tidal (%d):**\n\n", len(unmatched)))
	for i, track := range unmatched {
		if i == maxUnmatchedListed {
			buf.WriteString(fmt.Sprintf("- *(and %d more)*\n", len(unmatched)-maxUnmatchedListed))
			break
		}
		buf.WriteString(fmt.Sprintf("- %s - %s\n", strings.Join(track.Artists, ", "), track.Name))
	}

	buf.WriteString("\n")
}

func percentage(part, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(part)/float64(total)*100)
}
