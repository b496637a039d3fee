package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/tidalift/internal/formatter"
	"github.com/desertthunder/tidalift/internal/models"
	"github.com/desertthunder/tidalift/internal/shared"
	"github.com/desertthunder/tidalift/internal/snapshot"
	"github.com/urfave/cli/v3"
)

// ReportArtists regenerates the artist availability report from the latest
// availability snapshot.
func (r *Runner) ReportArtists(ctx context.Context, cmd *cli.Command) error {
	if !r.store.Exists(snapshot.AvailabilityFile) {
		return fmt.Errorf("%w: run 'tidalift check' first", shared.ErrSnapshotMissing)
	}

	results, err := snapshot.ReadJSON[[]models.ArtistAvailability](r.store, snapshot.AvailabilityFile)
	if err != nil {
		return err
	}

	reportPath := r.store.Path(snapshot.ArtistReportFile)
	if err := formatter.WriteArtistReport(results, reportPath); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	r.writePlain("✓ Report written to %s\n", reportPath)
	return nil
}

// ReportPlaylists regenerates the playlist migration report from the latest
// migration snapshot.
func (r *Runner) ReportPlaylists(ctx context.Context, cmd *cli.Command) error {
	if !r.store.Exists(snapshot.MigrationResultsFile) {
		return fmt.Errorf("%w: run 'tidalift migrate' first", shared.ErrSnapshotMissing)
	}

	results, err := snapshot.ReadJSON[[]models.PlaylistMigration](r.store, snapshot.MigrationResultsFile)
	if err != nil {
		return err
	}

	reportPath := r.store.Path(snapshot.PlaylistReportFile)
	if err := formatter.WritePlaylistReport(results, reportPath); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	r.writePlain("✓ Report written to %s\n", reportPath)
	return nil
}
