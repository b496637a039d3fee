package models

// Artist represents a Spotify artist as captured in collection snapshots.
//
// Sources records where the artist came from: "followed" plus any of the
// Spotify top-artist time ranges ("short_term", "medium_term", "long_term").
type Artist struct {
	Name       string   `json:"name"`
	ID         string   `json:"id"`
	Genres     []string `json:"genres"`
	Popularity int      `json:"popularity"`
	Followers  int      `json:"followers"`
	SpotifyURL string   `json:"spotify_url"`
	Sources    []string `json:"source,omitempty"`
}

// HasSource reports whether the artist already carries the given source tag.
func (a *Artist) HasSource(source string) bool {
	for _, s := range a.Sources {
		if s == source {
			return true
		}
	}
	return false
}

// ArtistAvailability is an [Artist] annotated with the result of a Tidal lookup.
type ArtistAvailability struct {
	Artist
	TidalFound bool   `json:"tidal_found"`
	TidalID    int64  `json:"tidal_id,omitempty"`
	TidalName  string `json:"tidal_name,omitempty"`
	TidalURL   string `json:"tidal_url,omitempty"`
	TidalError string `json:"tidal_error,omitempty"`
}

// Track represents a track from a playlist export.
//
// The JSON shape mirrors the snapshot files: name, all artists, album,
// Spotify URI/ID, ISRC, and duration in milliseconds.
type Track struct {
	Name       string   `json:"name"`
	Artists    []string `json:"artists"`
	Album      string   `json:"album"`
	URI        string   `json:"uri"`
	ID         string   `json:"id"`
	ISRC       string   `json:"isrc,omitempty"`
	DurationMS int      `json:"duration_ms"`
}

// PrimaryArtist returns the first credited artist, or an empty string.
func (t *Track) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0]
}

// Playlist represents playlist metadata from a music service.
type Playlist struct {
	SpotifyID     string `json:"spotify_id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Public        bool   `json:"public"`
	Collaborative bool   `json:"collaborative"`
	TrackCount    int    `json:"track_count"`
	SpotifyURL    string `json:"spotify_url"`
}

// PlaylistExport is a playlist with its complete track listing.
type PlaylistExport struct {
	Playlist
	Tracks []Track `json:"tracks"`
}

// TrackMatch records the outcome of matching one Spotify track on Tidal.
//
// MatchError carries a Tidal search failure for the track; the track is
// treated as unmatched rather than failing the whole run.
type TrackMatch struct {
	SpotifyTrack Track  `json:"spotify_track"`
	TidalFound   bool   `json:"tidal_found"`
	TidalID      int64  `json:"tidal_id,omitempty"`
	TidalName    string `json:"tidal_name,omitempty"`
	TidalArtist  string `json:"tidal_artist,omitempty"`
	TidalAlbum   string `json:"tidal_album,omitempty"`
	Strategy     string `json:"strategy,omitempty"`
	MatchError   string `json:"match_error,omitempty"`
}

// PlaylistSummary is the source playlist metadata carried in migration results.
type PlaylistSummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	TrackCount  int    `json:"track_count"`
	SpotifyURL  string `json:"spotify_url"`
}

// PlaylistMigration records the outcome of migrating one playlist to Tidal.
//
// TidalPlaylistID is empty for dry runs or failed playlist creation.
type PlaylistMigration struct {
	SpotifyPlaylist  PlaylistSummary `json:"spotify_playlist"`
	TidalPlaylistID  string          `json:"tidal_playlist_id,omitempty"`
	TidalPlaylistURL string          `json:"tidal_playlist_url,omitempty"`
	CreateError      string          `json:"create_error,omitempty"`
	TracksFound      int             `json:"tracks_found"`
	TracksTotal      int             `json:"tracks_total"`
	MatchRate        float64         `json:"match_rate"`
	TrackResults     []TrackMatch    `json:"track_results"`
}

// FoundArtist is a Tidal artist search hit.
type FoundArtist struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// FoundTrack is a Tidal track search hit.
type FoundTrack struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	ISRC        string `json:"isrc"`
	DurationSec int    `json:"duration_sec"`
	URL         string `json:"url"`
}

// CreatedPlaylist identifies a playlist created on the destination service.
type CreatedPlaylist struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// TopArtists groups top artists by Spotify time range.
type TopArtists map[string][]Artist

// TimeRanges enumerates the Spotify top-artist time ranges in fetch order.
var TimeRanges = []string{"short_term", "medium_term", "long_term"}
