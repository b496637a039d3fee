package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/tidalift/internal/services"
	"github.com/desertthunder/tidalift/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	var spotifyService services.Exporter
	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		if svc, err := services.NewSpotifyService(config.Credentials.Spotify.Map()); err == nil {
			if config.Credentials.Spotify.AccessToken != "" {
				if authErr := svc.OAuthenticate(context.Background(), config.Credentials.Spotify.Token()); authErr != nil {
					logger.Warn("stored spotify tokens could not be applied", "error", authErr)
				}
			}
			spotifyService = svc
		}
	}

	var tidalService *services.TidalService
	if config.Credentials.Tidal.ClientID != "" {
		tidalService = services.NewTidalService(config.Credentials.Tidal)
		if err := tidalService.LoadSession(); err != nil {
			logger.Debug("no tidal session found", "error", err)
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:   config,
		Spotify:  spotifyService,
		TidalSvc: tidalService,
		Logger:   logger,
	})

	app := &cli.Command{
		Name:     "tidalift",
		Usage:    "Migrate your library from Spotify to Tidal",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
