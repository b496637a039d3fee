// Tidal API implementation of [Importer]
//
// Authentication uses the OAuth2 device-code flow against auth.tidal.com; the
// resulting session is persisted to a JSON file and refreshed when expired.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/tidalift/internal/models"
	"github.com/desertthunder/tidalift/internal/shared"
)

const (
	tidalAuthBaseURL = "https://auth.tidal.com/v1/oauth2"
	tidalAPIBaseURL  = "https://api.tidal.com/v1"
	tidalListenURL   = "https://listen.tidal.com"

	tidalScope           = "r_usr w_usr w_sub"
	deviceCodeGrantType  = "urn:ietf:params:oauth:grant-type:device_code"
	refreshTokenGrant    = "refresh_token"
	defaultSessionPath   = ".tidal_session.json"
	defaultCountryCode   = "US"
	defaultPollInterval  = 2 * time.Second
	authorizationPending = "authorization_pending"
)

// DeviceAuthorization holds the device-code flow parameters returned by Tidal.
type DeviceAuthorization struct {
	DeviceCode              string `json:"deviceCode"`
	UserCode                string `json:"userCode"`
	VerificationURI         string `json:"verificationUri"`
	VerificationURIComplete string `json:"verificationUriComplete"`
	ExpiresIn               int    `json:"expiresIn"`
	Interval                int    `json:"interval"`
}

// TidalSession is the persisted authentication state, matching the layout of
// the session file consumed across runs.
type TidalSession struct {
	TokenType    string     `json:"token_type"`
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiryTime   *time.Time `json:"expiry_time"`
}

// Expired reports whether the session's access token is past its expiry.
func (s *TidalSession) Expired() bool {
	return s.ExpiryTime != nil && time.Now().After(*s.ExpiryTime)
}

type tidalTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	Error        string `json:"error"`
	ErrorDesc    string `json:"error_description"`
}

// TidalArtist represents an artist in Tidal search responses.
type TidalArtist struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// TidalAlbum represents an album in Tidal search responses.
type TidalAlbum struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// TidalTrack represents a track in Tidal search responses.
type TidalTrack struct {
	ID       int64         `json:"id"`
	Title    string        `json:"title"`
	Duration int           `json:"duration"` // seconds
	ISRC     string        `json:"isrc"`
	URL      string        `json:"url"`
	Artist   TidalArtist   `json:"artist"`
	Artists  []TidalArtist `json:"artists"`
	Album    *TidalAlbum   `json:"album"`
}

type tidalSearchPage[T any] struct {
	Items []T `json:"items"`
}

type tidalSearchResponse struct {
	Artists tidalSearchPage[TidalArtist] `json:"artists"`
	Tracks  tidalSearchPage[TidalTrack]  `json:"tracks"`
}

type tidalSessionInfo struct {
	SessionID   string `json:"sessionId"`
	UserID      int64  `json:"userId"`
	CountryCode string `json:"countryCode"`
}

type tidalCreatedPlaylist struct {
	UUID  string `json:"uuid"`
	Title string `json:"title"`
}

// TidalService implements [Importer] for the Tidal API.
type TidalService struct {
	clientID     string
	clientSecret string
	countryCode  string
	sessionPath  string
	session      *TidalSession
	userID       int64
	httpClient   *http.Client
	authBaseURL  string
	apiBaseURL   string
}

// NewTidalService creates a new Tidal service from configuration.
func NewTidalService(cfg shared.TidalConfig) *TidalService {
	sessionPath := cfg.SessionPath
	if sessionPath == "" {
		sessionPath = defaultSessionPath
	}

	countryCode := cfg.CountryCode
	if countryCode == "" {
		countryCode = defaultCountryCode
	}

	return &TidalService{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		countryCode:  countryCode,
		sessionPath:  sessionPath,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		authBaseURL:  tidalAuthBaseURL,
		apiBaseURL:   tidalAPIBaseURL,
	}
}

func (t *TidalService) Name() string {
	return "Tidal"
}

// Session returns the active session, or nil when unauthenticated.
func (t *TidalService) Session() *TidalSession {
	return t.session
}

// DeviceAuthorization starts the device-code flow and returns the
// verification URI and user code for the operator to complete in a browser.
func (t *TidalService) DeviceAuthorization(ctx context.Context) (*DeviceAuthorization, error) {
	if t.clientID == "" {
		return nil, fmt.Errorf("%w: tidal client_id not configured", shared.ErrMissingCredentials)
	}

	form := url.Values{
		"client_id": {t.clientID},
		"scope":     {tidalScope},
	}

	var auth DeviceAuthorization
	if err := t.postForm(ctx, t.authBaseURL+"/device_authorization", form, &auth); err != nil {
		return nil, fmt.Errorf("device authorization request failed: %w", err)
	}

	if auth.DeviceCode == "" {
		return nil, fmt.Errorf("%w: no device code in response", shared.ErrAuthFailed)
	}

	return &auth, nil
}

// PollForToken polls the token endpoint until the user approves the device,
// the authorization expires, or the context is cancelled.
func (t *TidalService) PollForToken(ctx context.Context, auth *DeviceAuthorization) (*TidalSession, error) {
	interval := defaultPollInterval
	if auth.Interval > 0 {
		interval = time.Duration(auth.Interval) * time.Second
	}

	deadline := time.Now().Add(time.Duration(auth.ExpiresIn) * time.Second)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: device authorization expired", shared.ErrTimeout)
		}

		session, err := t.requestToken(ctx, url.Values{
			"client_id":   {t.clientID},
			"device_code": {auth.DeviceCode},
			"grant_type":  {deviceCodeGrantType},
			"scope":       {tidalScope},
		})
		if err == nil {
			t.session = session
			return session, nil
		}
		if !isPendingErr(err) {
			return nil, err
		}
	}
}

func isPendingErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), authorizationPending)
}

// requestToken posts to the token endpoint and converts the response to a session.
func (t *TidalService) requestToken(ctx context.Context, form url.Values) (*TidalSession, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.authBaseURL+"/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if t.clientSecret != "" {
		req.SetBasicAuth(t.clientID, t.clientSecret)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	var tokenResp tidalTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	if tokenResp.Error != "" {
		if tokenResp.Error == authorizationPending {
			return nil, fmt.Errorf("%w: %s", shared.ErrAuthPending, authorizationPending)
		}
		return nil, fmt.Errorf("%w: %s (%s)", shared.ErrAuthFailed, tokenResp.Error, tokenResp.ErrorDesc)
	}

	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", shared.ErrAuthFailed)
	}

	expiry := time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	return &TidalSession{
		TokenType:    tokenResp.TokenType,
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
		ExpiryTime:   &expiry,
	}, nil
}

// LoadSession reads the persisted session from the session file.
func (t *TidalService) LoadSession() error {
	data, err := os.ReadFile(t.sessionPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", shared.ErrNotAuthenticated, t.sessionPath)
		}
		return fmt.Errorf("failed to read session file: %w", err)
	}

	var session TidalSession
	if err := json.Unmarshal(data, &session); err != nil {
		return fmt.Errorf("failed to parse session file: %w", err)
	}

	if session.AccessToken == "" {
		return fmt.Errorf("%w: session file has no access token", shared.ErrInvalidCredentials)
	}

	t.session = &session
	return nil
}

// SaveSession writes the current session to the session file.
func (t *TidalService) SaveSession() error {
	if t.session == nil {
		return fmt.Errorf("%w: no session to save", shared.ErrNotAuthenticated)
	}

	data, err := shared.MarshalJSON(t.session, true)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := os.WriteFile(t.sessionPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	return nil
}

// RefreshSession exchanges the refresh token for a new access token.
func (t *TidalService) RefreshSession(ctx context.Context) error {
	if t.session == nil || t.session.RefreshToken == "" {
		return shared.ErrNoRefreshToken
	}

	session, err := t.requestToken(ctx, url.Values{
		"client_id":     {t.clientID},
		"refresh_token": {t.session.RefreshToken},
		"grant_type":    {refreshTokenGrant},
		"scope":         {tidalScope},
	})
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	// Tidal omits the refresh token on refresh grants; keep the original.
	if session.RefreshToken == "" {
		session.RefreshToken = t.session.RefreshToken
	}

	t.session = session
	return t.SaveSession()
}

// EnsureSession loads the persisted session, refreshing it when expired, and
// verifies it against the sessions endpoint.
func (t *TidalService) EnsureSession(ctx context.Context) error {
	if t.session == nil {
		if err := t.LoadSession(); err != nil {
			return err
		}
	}

	if t.session.Expired() {
		if err := t.RefreshSession(ctx); err != nil {
			return err
		}
	}

	ok, err := t.CheckLogin(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: session rejected by tidal", shared.ErrNotAuthenticated)
	}

	return nil
}

// CheckLogin validates the session and captures the user ID and country code.
func (t *TidalService) CheckLogin(ctx context.Context) (bool, error) {
	if t.session == nil {
		return false, shared.ErrNotAuthenticated
	}

	var info tidalSessionInfo
	if err := t.doRequest(ctx, http.MethodGet, "/sessions", nil, nil, &info); err != nil {
		return false, err
	}

	if info.UserID == 0 {
		return false, nil
	}

	t.userID = info.UserID
	if info.CountryCode != "" {
		t.countryCode = info.CountryCode
	}

	return true, nil
}

// doRequest performs an authenticated request against the Tidal API.
//
// Query parameters always include the session country code. POST bodies are
// form-encoded, matching the v1 API.
func (t *TidalService) doRequest(ctx context.Context, method, endpoint string, query url.Values, form url.Values, result any) error {
	if t.session == nil {
		return shared.ErrNotAuthenticated
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("countryCode", t.countryCode)

	apiURL := t.apiBaseURL + endpoint + "?" + query.Encode()

	var req *http.Request
	var err error
	if form != nil {
		req, err = http.NewRequestWithContext(ctx, method, apiURL, strings.NewReader(form.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, method, apiURL, nil)
	}
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+t.session.AccessToken)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: tidal returned 401", shared.ErrTokenExpired)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: tidal returned 429", shared.ErrRateLimited)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("tidal API error: status %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// search performs a typed search against the search endpoint.
func (t *TidalService) search(ctx context.Context, query, types string, limit int) (*tidalSearchResponse, error) {
	if limit <= 0 {
		limit = 5
	}

	params := url.Values{
		"query":  {query},
		"types":  {types},
		"limit":  {strconv.Itoa(limit)},
		"offset": {"0"},
	}

	var response tidalSearchResponse
	if err := t.doRequest(ctx, http.MethodGet, "/search", params, nil, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

// Importer interface implementation

// SearchArtists searches Tidal for artists by name.
func (t *TidalService) SearchArtists(ctx context.Context, query string, limit int) ([]models.FoundArtist, error) {
	response, err := t.search(ctx, query, "ARTISTS", limit)
	if err != nil {
		return nil, err
	}

	artists := make([]models.FoundArtist, 0, len(response.Artists.Items))
	for _, item := range response.Artists.Items {
		artists = append(artists, models.FoundArtist{
			ID:   item.ID,
			Name: item.Name,
			URL:  fmt.Sprintf("%s/artist/%d", tidalListenURL, item.ID),
		})
	}

	return artists, nil
}

// SearchTracks searches Tidal for tracks by free-text query.
func (t *TidalService) SearchTracks(ctx context.Context, query string, limit int) ([]models.FoundTrack, error) {
	response, err := t.search(ctx, query, "TRACKS", limit)
	if err != nil {
		return nil, err
	}

	tracks := make([]models.FoundTrack, 0, len(response.Tracks.Items))
	for _, item := range response.Tracks.Items {
		track := models.FoundTrack{
			ID:          item.ID,
			Title:       item.Title,
			Artist:      item.Artist.Name,
			ISRC:        item.ISRC,
			DurationSec: item.Duration,
			URL:         fmt.Sprintf("%s/track/%d", tidalListenURL, item.ID),
		}
		if item.Album != nil {
			track.Album = item.Album.Title
		}
		tracks = append(tracks, track)
	}

	return tracks, nil
}

// CreatePlaylist creates an empty playlist for the authenticated user.
func (t *TidalService) CreatePlaylist(ctx context.Context, name, description string) (*models.CreatedPlaylist, error) {
	if t.userID == 0 {
		if _, err := t.CheckLogin(ctx); err != nil {
			return nil, err
		}
	}

	form := url.Values{
		"title":       {name},
		"description": {description},
	}

	var created tidalCreatedPlaylist
	endpoint := fmt.Sprintf("/users/%d/playlists", t.userID)
	if err := t.doRequest(ctx, http.MethodPost, endpoint, nil, form, &created); err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}

	if created.UUID == "" {
		return nil, fmt.Errorf("%w: playlist create returned no id", shared.ErrAPIRequest)
	}

	return &models.CreatedPlaylist{
		ID:  created.UUID,
		URL: fmt.Sprintf("%s/playlist/%s", tidalListenURL, created.UUID),
	}, nil
}

// AddTracks appends tracks to an existing playlist.
//
// The items endpoint requires the playlist's current ETag in If-None-Match,
// so each call fetches the playlist first.
func (t *TidalService) AddTracks(ctx context.Context, playlistID string, trackIDs []int64) error {
	if len(trackIDs) == 0 {
		return nil
	}

	etag, err := t.playlistETag(ctx, playlistID)
	if err != nil {
		return err
	}

	ids := make([]string, len(trackIDs))
	for i, id := range trackIDs {
		ids[i] = strconv.FormatInt(id, 10)
	}

	form := url.Values{
		"trackIds":           {strings.Join(ids, ",")},
		"onArtifactNotFound": {"SKIP"},
		"onDupes":            {"SKIP"},
	}

	query := url.Values{"countryCode": {t.countryCode}}
	apiURL := fmt.Sprintf("%s/playlists/%s/items?%s", t.apiBaseURL, url.PathEscape(playlistID), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+t.session.AccessToken)
	req.Header.Set("If-None-Match", etag)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("failed to add tracks: status %d", resp.StatusCode)
	}

	return nil
}

// playlistETag fetches a playlist solely to capture its ETag header.
func (t *TidalService) playlistETag(ctx context.Context, playlistID string) (string, error) {
	if t.session == nil {
		return "", shared.ErrNotAuthenticated
	}

	query := url.Values{"countryCode": {t.countryCode}}
	apiURL := fmt.Sprintf("%s/playlists/%s?%s", t.apiBaseURL, url.PathEscape(playlistID), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.session.AccessToken)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d fetching playlist", shared.ErrPlaylistNotFound, resp.StatusCode)
	}

	return resp.Header.Get("ETag"), nil
}

// postForm posts a form to an absolute URL (used for the auth endpoints,
// which live on a different host than the API).
func (t *TidalService) postForm(ctx context.Context, absURL string, form url.Values, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, absURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("tidal auth error: status %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
