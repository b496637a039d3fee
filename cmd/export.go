package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/tidalift/internal/shared"
	"github.com/desertthunder/tidalift/internal/tasks"
	"github.com/urfave/cli/v3"
)

// ExportBulk exports playlists to per-playlist files using a worker pool.
func (r *Runner) ExportBulk(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized, check your config.toml", shared.ErrServiceUnavailable)
	}

	opts := tasks.BulkExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output"),
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  cmd.Float("rate"),
	}
	names := cmd.StringSlice("playlist")

	r.writePlainHeader("Bulk Playlist Export")

	result, err := r.runBulkExport(ctx, names, opts)
	if retry, retryErr := r.handleSpotifyAuthError(ctx, err, cmd); retry {
		if retryErr != nil {
			return retryErr
		}
		if result, err = r.runBulkExport(ctx, names, opts); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	r.writePlainln("✓ Bulk export complete")
	r.writePlain("  Playlists:  %d\n", result.TotalPlaylists)
	r.writePlain("  Successful: %d\n", result.SuccessfulExports)
	r.writePlain("  Failed:     %d\n\n", result.FailedExports)

	for _, exportResult := range result.Results {
		if !exportResult.Success {
			r.writePlain("  ✗ %s: %v\n", exportResult.PlaylistName, exportResult.Error)
		}
	}

	r.writePlain("Output directory: %s\n", result.OutputDirectory)
	r.writePlain("Manifest: %s\n", result.ManifestPath)

	return nil
}

func (r *Runner) runBulkExport(ctx context.Context, names []string, opts tasks.BulkExportOpts) (*tasks.BulkExportResult, error) {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go r.drainProgress(progress, done)

	result, err := r.engine.BulkExport(ctx, progress, names, opts)
	close(progress)
	<-done

	return result, err
}
