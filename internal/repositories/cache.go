package repositories

import (
	"fmt"
	"strings"

	"github.com/desertthunder/tidalift/internal/models"
)

// MatchCacheAdapter implements tasks.Cacher over the artist and track match
// repositories.
//
// A stored row means the lookup already ran, so CachedArtist and CachedMatch
// hits let the engine skip the corresponding Tidal search. Duplicate rows are
// silently ignored (UNIQUE constraint violations).
type MatchCacheAdapter struct {
	artists *ArtistRepository
	matches *TrackMatchRepository
}

// NewMatchCacheAdapter creates a new MatchCacheAdapter with the given repositories
func NewMatchCacheAdapter(artists *ArtistRepository, matches *TrackMatchRepository) *MatchCacheAdapter {
	return &MatchCacheAdapter{artists: artists, matches: matches}
}

// CacheArtist stores an artist availability result.
// Returns nil if the artist already exists (deduplication).
func (a *MatchCacheAdapter) CacheArtist(availability models.ArtistAvailability) error {
	if existing, err := a.artists.GetBySpotifyID(availability.Artist.ID); err == nil && existing != nil {
		existing.SetAvailability(&availability)
		return a.artists.Update(existing)
	}

	artist := models.NewPersistedArtist(0, availability.Artist)
	artist.SetAvailability(&availability)

	if err := a.artists.Create(artist); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return fmt.Errorf("failed to cache artist: %w", err)
	}

	return nil
}

// CachedArtist returns a previously stored availability result for the given
// Spotify artist ID. A row without Tidal columns reads back as checked but
// not found.
func (a *MatchCacheAdapter) CachedArtist(spotifyID string) (*models.ArtistAvailability, bool) {
	artist, err := a.artists.GetBySpotifyID(spotifyID)
	if err != nil || artist == nil {
		return nil, false
	}

	if availability := artist.Availability(); availability != nil {
		return availability, true
	}

	return &models.ArtistAvailability{Artist: artist.Artist()}, true
}

// CacheMatch stores a resolved track match.
// Returns nil if the match already exists (deduplication).
func (a *MatchCacheAdapter) CacheMatch(match models.TrackMatch) error {
	if existing, err := a.matches.GetBySpotifyID(match.SpotifyTrack.ID); err == nil && existing != nil {
		return nil
	}

	if err := a.matches.Create(models.NewPersistedTrackMatch(0, match)); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return fmt.Errorf("failed to cache track match: %w", err)
	}

	return nil
}

// CachedMatch returns a previously resolved match for the given Spotify track ID.
func (a *MatchCacheAdapter) CachedMatch(spotifyID string) (*models.TrackMatch, bool) {
	match, err := a.matches.GetBySpotifyID(spotifyID)
	if err != nil || match == nil {
		return nil, false
	}

	dto := match.Match()
	return &dto, true
}
