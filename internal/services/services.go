// package services defines interfaces for interacting with the vendor HTTP APIs
//
// Spotify (source) and Tidal (destination)
package services

import (
	"context"

	"github.com/desertthunder/tidalift/internal/models"
	"golang.org/x/oauth2"
)

// Exporter defines the read side of a migration: listing and exporting a
// user's library from the source service.
type Exporter interface {
	// FollowedArtists retrieves every artist the user follows, walking the
	// cursor-paginated listing to exhaustion.
	FollowedArtists(ctx context.Context) ([]models.Artist, error)

	// TopArtists retrieves the user's top artists for one time range.
	TopArtists(ctx context.Context, timeRange string) ([]models.Artist, error)

	// OwnedPlaylists retrieves the playlists owned by the current user,
	// excluding followed and collaborative playlists owned by others.
	OwnedPlaylists(ctx context.Context) ([]models.Playlist, error)

	// PlaylistTracks retrieves the complete track listing for a playlist.
	PlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error)

	// Name returns the name of the service (e.g. "Spotify")
	Name() string
}

// Importer defines the write side of a migration: searching and creating
// state on the destination service.
type Importer interface {
	// SearchArtists searches for artists by name.
	SearchArtists(ctx context.Context, query string, limit int) ([]models.FoundArtist, error)

	// SearchTracks searches for tracks by free-text query (name, artist, or ISRC).
	SearchTracks(ctx context.Context, query string, limit int) ([]models.FoundTrack, error)

	// CreatePlaylist creates an empty playlist for the authenticated user.
	CreatePlaylist(ctx context.Context, name, description string) (*models.CreatedPlaylist, error)

	// AddTracks appends tracks to an existing playlist, preserving order.
	AddTracks(ctx context.Context, playlistID string, trackIDs []int64) error

	// Name returns the name of the service (e.g. "Tidal")
	Name() string
}

// OAuthService is implemented by services using the OAuth2 authorization code flow.
type OAuthService interface {
	// GetAuthURL returns the authorization URL for the given CSRF state token.
	GetAuthURL(state string) string

	// GetOAuthConfig exposes the underlying [oauth2.Config] for callback handling.
	GetOAuthConfig() *oauth2.Config

	// OAuthenticate installs a previously obtained token on the service.
	OAuthenticate(ctx context.Context, token *oauth2.Token) error
}
