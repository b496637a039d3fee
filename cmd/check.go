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

// Check looks up every collected artist on Tidal and writes the availability
// snapshot, plus a Markdown report unless disabled.
func (r *Runner) Check(ctx context.Context, cmd *cli.Command) error {
	if !r.store.Exists(snapshot.AllArtistsFile) {
		return fmt.Errorf("%w: run 'tidalift collect' first", shared.ErrSnapshotMissing)
	}

	if err := r.ensureTidal(ctx); err != nil {
		return err
	}

	engine, cleanup := r.cachedEngine(cmd)
	defer cleanup()

	r.writePlainHeader("Tidal Artist Availability Check")

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go r.drainProgress(progress, done)

	result, err := engine.CheckArtists(ctx, progress)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	r.writePlainln("SUMMARY")
	r.writePlain("  Total artists checked: %d\n", result.Total)
	r.writePlain("  Found on Tidal:        %d (%s)\n", result.Found, percentOf(result.Found, result.Total))
	r.writePlain("  Not found:             %d\n\n", result.NotFound)
	r.writePlain("Snapshot written to %s\n", r.store.Path(snapshot.AvailabilityFile))

	if cmd.Bool("report") {
		reportPath := r.store.Path(snapshot.ArtistReportFile)
		if err := formatter.WriteArtistReport(result.Results, reportPath); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		r.writePlain("Report written to %s\n", reportPath)
	}

	return nil
}

func percentOf(part, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(part)/float64(total)*100)
}
