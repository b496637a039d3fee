// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// authCommand handles Spotify and Tidal authentication
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:   "spotify",
				Usage:  "Authenticate with Spotify using OAuth2",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SpotifyAuth,
			},
			{
				Name:   "tidal",
				Usage:  "Authenticate with Tidal using the device code flow",
				Flags:  []cli.Flag{configFlag()},
				Action: r.TidalAuth,
			},
			{
				Name:   "status",
				Usage:  "Check current authentication state for both services",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthStatus,
			},
		},
	}
}

// collectCommand gathers followed and top artists from Spotify
func collectCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "collect",
		Usage: "Collect followed and top artists from Spotify",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON summary",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Collect,
	}
}

// exportCommand exports owned playlists with full track listings
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export owned Spotify playlists with tracks",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON summary",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Export,
		Commands: []*cli.Command{
			{
				Name:  "bulk",
				Usage: "Export playlists to per-playlist files with a worker pool",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: json, csv, markdown, txt",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: spotify_export_{epoch})",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent export workers (max 10)",
						Value: 5,
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Requests per second against the Spotify API",
						Value: 5,
					},
					&cli.StringSliceFlag{
						Name:  "playlist",
						Usage: "Restrict export to playlists with this name (repeatable)",
					},
				},
				Action: r.ExportBulk,
			},
		},
	}
}

// checkCommand checks collected artists against the Tidal catalog
func checkCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Check collected artists for availability on Tidal",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Skip the local lookup cache",
			},
			&cli.BoolFlag{
				Name:  "report",
				Usage: "Write the Markdown availability report",
				Value: true,
			},
		},
		Action: r.Check,
	}
}

// migrateCommand recreates exported playlists on Tidal
func migrateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Recreate exported playlists on Tidal",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Match tracks without creating playlists",
			},
			&cli.StringSliceFlag{
				Name:  "playlist",
				Usage: "Restrict migration to playlists with this name (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Skip the local lookup cache",
			},
			&cli.BoolFlag{
				Name:  "report",
				Usage: "Write the Markdown migration report",
				Value: true,
			},
		},
		Action: r.Migrate,
	}
}

// reportCommand regenerates Markdown reports from existing snapshots
func reportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Generate Markdown reports from snapshots",
		Commands: []*cli.Command{
			{
				Name:   "artists",
				Usage:  "Generate the artist availability report",
				Flags:  []cli.Flag{configFlag()},
				Action: r.ReportArtists,
			},
			{
				Name:   "playlists",
				Usage:  "Generate the playlist migration report",
				Flags:  []cli.Flag{configFlag()},
				Action: r.ReportPlaylists,
			},
		},
	}
}

// setupCommand handles setup operations for the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}

// cacheCommand inspects and clears the local sqlite search cache.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear cached Tidal search results",
		Commands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show counts of cached artist and track lookups",
				Flags:  []cli.Flag{configFlag()},
				Action: r.CacheStats,
			},
			{
				Name:  "clear",
				Usage: "Delete cached lookups (all by default)",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "artists",
						Usage: "Clear only cached artist lookups",
					},
					&cli.BoolFlag{
						Name:  "matches",
						Usage: "Clear only cached track matches",
					},
				},
				Action: r.CacheClear,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive playlist migration.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for playlist migration",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Match tracks without creating playlists",
			},
		},
		Action: r.TUI,
	}
}
