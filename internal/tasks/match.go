package tasks

import (
	"context"
	"strings"

	"github.com/desertthunder/tidalift/internal/models"
	"github.com/desertthunder/tidalift/internal/shared"
)

// Match strategy labels recorded on each TrackMatch.
const (
	StrategyISRC        = "isrc"
	StrategyNameArtist  = "name_artist"
	StrategyFirstResult = "first_result"
)

const (
	isrcSearchLimit = 5
	nameSearchLimit = 10
)

// MatchTrack finds the Tidal equivalent of a Spotify track. It tries an
// exact ISRC lookup first, then a name and artist search, and falls back to
// the first search result when neither strategy lands a confident match.
// A cached match for the same Spotify ID short-circuits the search.
//
// Search failures leave the track unmatched with MatchError set instead of
// returning an error, so one bad lookup never sinks a whole playlist.
func (e *MigrationEngine) MatchTrack(ctx context.Context, track models.Track) (models.TrackMatch, error) {
	if e.cache != nil && track.ID != "" {
		if cached, ok := e.cache.CachedMatch(track.ID); ok {
			cached.SpotifyTrack = track
			return *cached, nil
		}
	}

	match := models.TrackMatch{SpotifyTrack: track}

	if track.ISRC != "" {
		if err := e.trackLimiter.Wait(ctx); err != nil {
			return match, err
		}

		// An ISRC lookup failure falls through to the name search; only
		// the caller's context ending aborts the run.
		found, err := e.dest.SearchTracks(ctx, track.ISRC, isrcSearchLimit)
		if err != nil && ctx.Err() != nil {
			return match, err
		}

		for _, candidate := range found {
			if strings.EqualFold(candidate.ISRC, track.ISRC) {
				fillMatch(&match, candidate, StrategyISRC)
				e.cacheMatch(match)
				return match, nil
			}
		}
	}

	if err := e.trackLimiter.Wait(ctx); err != nil {
		return match, err
	}

	found, err := e.dest.SearchTracks(ctx, searchQuery(track), nameSearchLimit)
	if err != nil {
		if ctx.Err() != nil {
			return match, err
		}

		match.MatchError = err.Error()
		return match, nil
	}

	if len(found) == 0 {
		return match, nil
	}

	wantKey := shared.NormalizeTrackKey(track.Name, track.PrimaryArtist())
	for _, candidate := range found {
		if shared.NormalizeTrackKey(candidate.Title, candidate.Artist) == wantKey {
			fillMatch(&match, candidate, StrategyNameArtist)
			e.cacheMatch(match)
			return match, nil
		}
	}

	for _, candidate := range found {
		if titleMatches(candidate.Title, track.Name) && artistMatches(candidate.Artist, track.Artists) {
			fillMatch(&match, candidate, StrategyNameArtist)
			e.cacheMatch(match)
			return match, nil
		}
	}

	fillMatch(&match, found[0], StrategyFirstResult)
	e.cacheMatch(match)
	return match, nil
}

func (e *MigrationEngine) cacheMatch(match models.TrackMatch) {
	if e.cache == nil || match.SpotifyTrack.ID == "" {
		return
	}

	_ = e.cache.CacheMatch(match)
}

func fillMatch(match *models.TrackMatch, found models.FoundTrack, strategy string) {
	match.TidalFound = true
	match.TidalID = found.ID
	match.TidalName = found.Title
	match.TidalArtist = found.Artist
	match.TidalAlbum = found.Album
	match.Strategy = strategy
}

// searchQuery builds a "artist1, artist2 title" query from up to two artists.
func searchQuery(track models.Track) string {
	artists := track.Artists
	if len(artists) > 2 {
		artists = artists[:2]
	}

	return strings.TrimSpace(strings.Join(artists, ", ") + " " + track.Name)
}

// titleMatches reports whether either title contains the other,
// case-insensitively.
func titleMatches(candidate, wanted string) bool {
	candidate = strings.ToLower(strings.TrimSpace(candidate))
	wanted = strings.ToLower(strings.TrimSpace(wanted))
	if candidate == "" || wanted == "" {
		return false
	}

	return strings.Contains(candidate, wanted) || strings.Contains(wanted, candidate)
}

// artistMatches reports whether the candidate artist overlaps any of the
// wanted artists in either direction.
func artistMatches(candidate string, wanted []string) bool {
	candidate = strings.ToLower(strings.TrimSpace(candidate))
	if candidate == "" {
		return false
	}

	for _, artist := range wanted {
		artist = strings.ToLower(strings.TrimSpace(artist))
		if artist == "" {
			continue
		}

		if strings.Contains(candidate, artist) || strings.Contains(artist, candidate) {
			return true
		}
	}

	return false
}
