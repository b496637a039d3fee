// Spotify API implementation of [Exporter]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/tidalift/internal/models"
	"github.com/desertthunder/tidalift/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

type followers struct {
	Total int `json:"total"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

type externalIDs struct {
	ISRC string `json:"isrc"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Country     string    `json:"country"`
	Product     string    `json:"product"` // premium, free, etc.
	Followers   followers `json:"followers"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Genres       []string     `json:"genres"`
	Popularity   int          `json:"popularity"`
	Followers    followers    `json:"followers"`
	ExternalURLs externalURLs `json:"external_urls"`
	URI          string       `json:"uri"`
}

// toArtist maps a Spotify artist to the snapshot DTO.
func (a SpotifyArtist) toArtist() models.Artist {
	genres := a.Genres
	if genres == nil {
		genres = []string{}
	}
	return models.Artist{
		Name:       a.Name,
		ID:         a.ID,
		Genres:     genres,
		Popularity: a.Popularity,
		Followers:  a.Followers.Total,
		SpotifyURL: a.ExternalURLs.Spotify,
	}
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	ReleaseDate string          `json:"release_date"`
	TotalTracks int             `json:"total_tracks"`
	URI         string          `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	Album       SpotifyAlbum    `json:"album"`
	DurationMS  int             `json:"duration_ms"`
	Explicit    bool            `json:"explicit"`
	ExternalIDs externalIDs     `json:"external_ids"`
	Popularity  int             `json:"popularity"`
	URI         string          `json:"uri"`
	IsLocal     bool            `json:"is_local"`
}

// toTrack maps a Spotify track to the snapshot DTO.
func (t SpotifyTrack) toTrack() models.Track {
	artists := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, a.Name)
	}
	return models.Track{
		Name:       t.Name,
		Artists:    artists,
		Album:      t.Album.Name,
		URI:        t.URI,
		ID:         t.ID,
		ISRC:       t.ExternalIDs.ISRC,
		DurationMS: t.DurationMS,
	}
}

type spotifyOwner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type simplePlaylistTracks struct {
	Total int `json:"total"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	Description   string               `json:"description"`
	Owner         spotifyOwner         `json:"owner"`
	Public        bool                 `json:"public"`
	Collaborative bool                 `json:"collaborative"`
	Tracks        simplePlaylistTracks `json:"tracks"`
	ExternalURLs  externalURLs         `json:"external_urls"`
	URI           string               `json:"uri"`
}

// SpotifyPaginatedPlaylists represents a paginated response of playlists.
type SpotifyPaginatedPlaylists struct {
	Items    []SpotifySimplePlaylist `json:"items"`
	Total    int                     `json:"total"`
	Limit    int                     `json:"limit"`
	Offset   int                     `json:"offset"`
	Next     *string                 `json:"next"`
	Previous *string                 `json:"previous"`
}

// SpotifyPlaylistTrack represents a track within a playlist context.
//
// Track is a pointer because Spotify returns null entries for removed or
// local-only tracks.
type SpotifyPlaylistTrack struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

// SpotifyPaginatedPlaylistTracks represents a paginated playlist track listing.
type SpotifyPaginatedPlaylistTracks struct {
	Items  []SpotifyPlaylistTrack `json:"items"`
	Total  int                    `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
	Next   *string                `json:"next"`
}

type artistCursors struct {
	After string `json:"after"`
}

// SpotifyCursorArtists is the cursor-paginated payload of the followed-artists endpoint.
type SpotifyCursorArtists struct {
	Items   []SpotifyArtist `json:"items"`
	Cursors artistCursors   `json:"cursors"`
	Total   int             `json:"total"`
	Next    *string         `json:"next"`
}

type followedArtistsResponse struct {
	Artists SpotifyCursorArtists `json:"artists"`
}

// SpotifyTopArtists is the offset-paginated payload of the top-artists endpoint.
type SpotifyTopArtists struct {
	Items []SpotifyArtist `json:"items"`
	Total int             `json:"total"`
	Next  *string         `json:"next"`
}

// SpotifyService implements [Exporter] for Spotify API interactions.
// Uses [oauth2] for authentication and provides methods for artist and playlist operations.
type SpotifyService struct {
	config     *oauth2.Config
	token      *oauth2.Token
	httpClient *http.Client
	baseURL    string
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("missing client_id in credentials")
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("missing client_secret in credentials")
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://localhost:8888/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-follow-read",
			"user-top-read",
			"playlist-read-private",
			"playlist-read-collaborative",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		httpClient: http.DefaultClient,
		baseURL:    spotifyBaseURL,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuthConfig exposes the OAuth2 config for the callback server.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// OAuthenticate installs a token obtained from the authorization flow.
//
// The HTTP client is swapped for an [oauth2] client so expired tokens refresh
// transparently while a refresh token is available.
func (s *SpotifyService) OAuthenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty access token", shared.ErrInvalidCredentials)
	}

	s.token = token
	s.httpClient = s.config.Client(ctx, token)
	return nil
}

// doRequest performs an authenticated GET against the Spotify API.
//
// rawURL may be either an endpoint path or an absolute pagination URL
// returned in a previous response's "next" field.
func (s *SpotifyService) doRequest(ctx context.Context, rawURL string, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call OAuthenticate first", shared.ErrNotAuthenticated)
	}

	apiURL := rawURL
	if len(rawURL) == 0 || rawURL[0] == '/' {
		apiURL = s.baseURL + rawURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: spotify returned 401", shared.ErrTokenExpired)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: spotify returned 429 (Retry-After: %s)", shared.ErrRateLimited, resp.Header.Get("Retry-After"))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("spotify API error: status %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, "/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// FollowedArtistsPage retrieves one page of followed artists.
//
// Pass an empty cursor for the first page; subsequent pages use the cursor
// from the previous response.
func (s *SpotifyService) FollowedArtistsPage(ctx context.Context, after string, limit int) (*SpotifyCursorArtists, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}

	endpoint := fmt.Sprintf("/me/following?type=artist&limit=%d", limit)
	if after != "" {
		endpoint += "&after=" + url.QueryEscape(after)
	}

	var response followedArtistsResponse
	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	return &response.Artists, nil
}

// TopArtistsPage retrieves one page of the user's top artists for a time range.
func (s *SpotifyService) TopArtistsPage(ctx context.Context, timeRange string, limit, offset int) (*SpotifyTopArtists, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}

	endpoint := fmt.Sprintf("/me/top/artists?time_range=%s&limit=%d&offset=%d", url.QueryEscape(timeRange), limit, offset)

	var response SpotifyTopArtists
	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

// UserPlaylists retrieves one page of the current user's playlists.
func (s *SpotifyService) UserPlaylists(ctx context.Context, limit, offset int) (*SpotifyPaginatedPlaylists, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}

	endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", limit, offset)

	var response SpotifyPaginatedPlaylists
	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

// PlaylistTracksPage retrieves one page of a playlist's tracks.
func (s *SpotifyService) PlaylistTracksPage(ctx context.Context, playlistID string, limit, offset int) (*SpotifyPaginatedPlaylistTracks, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", url.PathEscape(playlistID), limit, offset)

	var response SpotifyPaginatedPlaylistTracks
	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

// Exporter interface implementation

// FollowedArtists retrieves all followed artists, walking the cursor pagination.
func (s *SpotifyService) FollowedArtists(ctx context.Context) ([]models.Artist, error) {
	var artists []models.Artist
	after := ""

	for {
		page, err := s.FollowedArtistsPage(ctx, after, 50)
		if err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			artists = append(artists, item.toArtist())
		}

		if page.Next == nil || page.Cursors.After == "" {
			break
		}
		after = page.Cursors.After
	}

	return artists, nil
}

// TopArtists retrieves the user's top artists for one time range.
func (s *SpotifyService) TopArtists(ctx context.Context, timeRange string) ([]models.Artist, error) {
	page, err := s.TopArtistsPage(ctx, timeRange, 50, 0)
	if err != nil {
		return nil, err
	}

	artists := make([]models.Artist, 0, len(page.Items))
	for _, item := range page.Items {
		artists = append(artists, item.toArtist())
	}

	return artists, nil
}

// OwnedPlaylists retrieves all playlists owned by the current user.
//
// Playlists the user merely follows are filtered out by owner ID.
func (s *SpotifyService) OwnedPlaylists(ctx context.Context) ([]models.Playlist, error) {
	user, err := s.UserProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}

	var playlists []models.Playlist
	limit := 50
	offset := 0

	for {
		page, err := s.UserPlaylists(ctx, limit, offset)
		if err != nil {
			return nil, err
		}

		for _, sp := range page.Items {
			if sp.Owner.ID != user.ID {
				continue
			}
			playlists = append(playlists, models.Playlist{
				SpotifyID:     sp.ID,
				Name:          sp.Name,
				Description:   sp.Description,
				Public:        sp.Public,
				Collaborative: sp.Collaborative,
				TrackCount:    sp.Tracks.Total,
				SpotifyURL:    sp.ExternalURLs.Spotify,
			})
		}

		if page.Next == nil {
			break
		}
		offset += limit
	}

	return playlists, nil
}

// PlaylistTracks retrieves all tracks in a playlist, skipping removed and local entries.
func (s *SpotifyService) PlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	var tracks []models.Track
	limit := 100
	offset := 0

	for {
		page, err := s.PlaylistTracksPage(ctx, playlistID, limit, offset)
		if err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			if item.Track == nil || item.Track.IsLocal {
				continue
			}
			tracks = append(tracks, item.Track.toTrack())
		}

		if page.Next == nil {
			break
		}
		offset += limit
	}

	return tracks, nil
}
