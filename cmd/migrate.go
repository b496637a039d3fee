package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/tidalift/internal/formatter"
	"github.com/desertthunder/tidalift/internal/shared"
	"github.com/desertthunder/tidalift/internal/snapshot"
	"github.com/desertthunder/tidalift/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Migrate recreates exported playlists on Tidal, matching each track by ISRC
// first and falling back to a name search.
func (r *Runner) Migrate(ctx context.Context, cmd *cli.Command) error {
	if !r.store.Exists(snapshot.PlaylistsFile) {
		return fmt.Errorf("%w: run 'tidalift export' first", shared.ErrSnapshotMissing)
	}

	if err := r.ensureTidal(ctx); err != nil {
		return err
	}

	opts := tasks.MigrateOpts{
		DryRun:    cmd.Bool("dry-run"),
		Playlists: cmd.StringSlice("playlist"),
	}

	engine, cleanup := r.cachedEngine(cmd)
	defer cleanup()

	if opts.DryRun {
		r.writePlainHeader("Playlist Migration (dry run)")
	} else {
		r.writePlainHeader("Playlist Migration")
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go r.drainProgress(progress, done)

	result, err := engine.MigratePlaylists(ctx, progress, opts)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	r.writePlainln("SUMMARY")
	r.writePlain("  Playlists processed: %d\n", result.Playlists)
	if !result.DryRun {
		r.writePlain("  Playlists created:   %d\n", result.Created)
	}
	r.writePlain("  Tracks matched:      %d/%d (%s)\n\n", result.TracksFound, result.TracksTotal, percentOf(result.TracksFound, result.TracksTotal))

	for _, migration := range result.Results {
		status := "✓"
		if migration.CreateError != "" {
			status = "✗"
		}
		r.writePlain("  %s %s: %d/%d tracks\n", status, migration.SpotifyPlaylist.Name, migration.TracksFound, migration.TracksTotal)
	}

	r.writePlain("\nSnapshot written to %s\n", r.store.Path(snapshot.MigrationResultsFile))

	if cmd.Bool("report") {
		reportPath := r.store.Path(snapshot.PlaylistReportFile)
		if err := formatter.WritePlaylistReport(result.Results, reportPath); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		r.writePlain("Report written to %s\n", reportPath)
	}

	return nil
}
