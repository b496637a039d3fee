package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/desertthunder/tidalift/internal/server"
	"github.com/desertthunder/tidalift/internal/services"
	"github.com/desertthunder/tidalift/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// SpotifyAuth performs the OAuth2 authentication flow for Spotify.
//
// Starts a local HTTP server, opens a browser for user authorization, and exchanges the auth code for tokens.
func (r *Runner) SpotifyAuth(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	config := r.config
	if config == nil {
		var err error
		if _, statErr := os.Stat(configPath); statErr == nil {
			config, err = shared.LoadConfig(configPath)
			if err != nil {
				r.logger.Warnf("failed to load config, using defaults %v", err)
				config = shared.DefaultConfig()
			}
		} else {
			config = shared.DefaultConfig()
		}
	}

	if config.Credentials.Spotify.ClientID == "" || config.Credentials.Spotify.ClientSecret == "" {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in config.toml", shared.ErrInvalidArgument)
	}

	spotifyService, err := services.NewSpotifyService(config.Credentials.Spotify.Map())
	if err != nil {
		return fmt.Errorf("failed to create Spotify service: %w", err)
	}

	token, err := r.doOAuth(config, spotifyService, "authorization")
	if err != nil {
		return err
	}

	if err := config.Credentials.Spotify.Update(token); err != nil {
		return fmt.Errorf("failed to update spotify configuration: %w", err)
	}

	if err := shared.SaveConfig(configPath, config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Tokens saved to %s\n\n", configPath)
	r.writePlain("You can now use: tidalift collect\n")

	return nil
}

// SpotifyReauth performs the full OAuth2 flow to get new tokens
func (r *Runner) SpotifyReauth(ctx context.Context, configPath string, config *shared.Config, srv services.OAuthService) (*shared.Config, error) {
	token, err := r.doOAuth(config, srv, "reauthorization")
	if err != nil {
		return nil, err
	}

	if err := config.Credentials.Spotify.Update(token); err != nil {
		return nil, fmt.Errorf("failed to update spotify configuration: %w", err)
	}

	if err := shared.SaveConfig(configPath, config); err != nil {
		return nil, fmt.Errorf("failed to save config: %w", err)
	}

	r.writePlainln("✓ Reauthorization successful")
	r.writePlain("✓ New tokens saved to %s\n", configPath)

	return config, nil
}

// TidalAuth performs the OAuth2 device code flow for Tidal.
//
// Prints a verification URL and user code, polls the token endpoint until the
// user approves the device, and persists the session to disk.
func (r *Runner) TidalAuth(ctx context.Context, cmd *cli.Command) error {
	config := r.config
	if config.Credentials.Tidal.ClientID == "" {
		return fmt.Errorf("%w: Tidal client_id must be set in config.toml", shared.ErrInvalidArgument)
	}

	tidalService := r.tidalSvc
	if tidalService == nil {
		tidalService = services.NewTidalService(config.Credentials.Tidal)
	}

	auth, err := tidalService.DeviceAuthorization(ctx)
	if err != nil {
		return fmt.Errorf("failed to start device authorization: %w", err)
	}

	verificationURL := shared.EnsureScheme(auth.VerificationURIComplete)

	r.writePlainHeader("Tidal Device Authorization")
	r.writePlain("\nVisit: %s\n", verificationURL)
	r.writePlain("Code:  %s\n\n", auth.UserCode)

	if err := shared.OpenBrowser(verificationURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
	}

	r.writePlain("→ Waiting for approval (expires in %ds)...\n", auth.ExpiresIn)

	session, err := tidalService.PollForToken(ctx, auth)
	if err != nil {
		return fmt.Errorf("device authorization failed: %w", err)
	}

	if err := tidalService.SaveSession(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	r.writePlainln("✓ Tidal authorization successful")
	r.writePlain("✓ Session saved to %s\n", config.Credentials.Tidal.SessionPath)
	if session.ExpiryTime != nil {
		r.writePlain("  Token expires: %s\n", session.ExpiryTime.Format(time.RFC1123))
	}

	return nil
}

// AuthStatus reports the authentication state for both services.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	r.writePlainHeader("Authentication Status")

	if r.config.Credentials.Spotify.AccessToken == "" {
		r.writePlain("Spotify: not authenticated (run 'tidalift auth spotify')\n")
	} else if spotify, ok := r.spotify.(*services.SpotifyService); ok {
		if user, err := spotify.UserProfile(ctx); err != nil {
			r.writePlain("Spotify: token saved but invalid (%v)\n", err)
		} else {
			r.writePlain("Spotify: authenticated as %s\n", user.DisplayName)
		}
	} else {
		r.writePlain("Spotify: tokens saved\n")
	}

	if r.tidalSvc == nil {
		r.writePlain("Tidal:   not configured\n")
		return nil
	}

	if err := r.tidalSvc.LoadSession(); err != nil {
		r.writePlain("Tidal:   not authenticated (run 'tidalift auth tidal')\n")
		return nil
	}

	if ok, err := r.tidalSvc.CheckLogin(ctx); err != nil || !ok {
		if refreshErr := r.tidalSvc.RefreshSession(ctx); refreshErr != nil {
			r.writePlain("Tidal:   session expired (run 'tidalift auth tidal')\n")
			return nil
		}
		if err := r.tidalSvc.SaveSession(); err != nil {
			r.logger.Warn("failed to persist refreshed session", "error", err)
		}
	}

	r.writePlain("Tidal:   authenticated\n")
	return nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(config *shared.Config, oauthSrv services.OAuthService, prefix string) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := oauthSrv.GetAuthURL(state)
	oauthHandler := server.NewOAuthHandler(oauthSrv.GetOAuthConfig(), state)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(oauthHandler)

	serverAddr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server for %s at %v", prefix, serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Spotify %s...\n", prefix)
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("no token received")
	}

	return result.Token, nil
}

// handleSpotifyAuthError checks if an error is a token expiration error and triggers reauthorization if needed.
func (r *Runner) handleSpotifyAuthError(ctx context.Context, err error, cmd *cli.Command) (bool, error) {
	if err == nil {
		return false, nil
	}

	if !errors.Is(err, shared.ErrTokenExpired) {
		return false, err
	}

	r.writePlainln("⚠ Authentication token expired. Starting reauthorization...\n")

	configPath := cmd.String("config")
	if configPath == "" {
		configPath = "config.toml"
	}

	config := r.config
	if config == nil {
		if _, statErr := os.Stat(configPath); statErr == nil {
			var loadErr error
			if config, loadErr = shared.LoadConfig(configPath); loadErr != nil {
				return true, fmt.Errorf("failed to load config: %w", loadErr)
			}
		} else {
			return true, fmt.Errorf("config file not found: %w", statErr)
		}
	}

	spotifyService, ok := r.spotify.(services.OAuthService)
	if !ok {
		return true, fmt.Errorf("spotify service does not support reauthorization")
	}

	updatedConfig, reauthErr := r.SpotifyReauth(ctx, configPath, config, spotifyService)
	if reauthErr != nil {
		return true, fmt.Errorf("reauthorization failed: %w", reauthErr)
	}

	if authErr := spotifyService.OAuthenticate(ctx, updatedConfig.Credentials.Spotify.Token()); authErr != nil {
		return true, fmt.Errorf("failed to authenticate with new tokens: %w", authErr)
	}

	r.config = updatedConfig
	r.writePlainln("✓ Successfully reauthenticated. Retrying operation...\n")

	return true, nil
}
