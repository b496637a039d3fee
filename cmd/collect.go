package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/tidalift/internal/shared"
	"github.com/desertthunder/tidalift/internal/snapshot"
	"github.com/desertthunder/tidalift/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Collect exports followed and top artists from Spotify and writes the
// artist snapshots to the data directory.
func (r *Runner) Collect(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized, check your config.toml", shared.ErrServiceUnavailable)
	}

	r.writePlainHeader("Spotify Artist Collection")

	result, err := r.runCollect(ctx)
	if retry, retryErr := r.handleSpotifyAuthError(ctx, err, cmd); retry {
		if retryErr != nil {
			return retryErr
		}
		if result, err = r.runCollect(ctx); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	r.writePlainln("✓ Collection complete")
	r.writePlain("  Followed artists: %d\n", result.Followed)
	for _, timeRange := range []string{"short_term", "medium_term", "long_term"} {
		r.writePlain("  Top artists (%s): %d\n", timeRange, result.Top[timeRange])
	}
	r.writePlain("  Combined unique artists: %d\n\n", result.Combined)
	r.writePlain("Snapshots written to %s\n", r.store.Dir())
	r.writePlain("Next: tidalift check\n")

	return nil
}

func (r *Runner) runCollect(ctx context.Context) (*tasks.CollectResult, error) {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go r.drainProgress(progress, done)

	result, err := r.engine.CollectArtists(ctx, progress)
	close(progress)
	<-done

	return result, err
}

// Export fetches every owned playlist with full track listings and writes
// the playlist snapshot used by migrate.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized, check your config.toml", shared.ErrServiceUnavailable)
	}

	r.writePlainHeader("Spotify Playlist Export")

	result, err := r.runExport(ctx)
	if retry, retryErr := r.handleSpotifyAuthError(ctx, err, cmd); retry {
		if retryErr != nil {
			return retryErr
		}
		if result, err = r.runExport(ctx); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	r.writePlainln("✓ Export complete")
	r.writePlain("  Playlists: %d\n", result.Playlists)
	r.writePlain("  Tracks:    %d\n\n", result.Tracks)
	r.writePlain("Snapshot written to %s\n", r.store.Path(snapshot.PlaylistsFile))
	r.writePlain("Next: tidalift migrate --dry-run\n")

	return nil
}

func (r *Runner) runExport(ctx context.Context) (*tasks.ExportResult, error) {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go r.drainProgress(progress, done)

	result, err := r.engine.ExportPlaylists(ctx, progress)
	close(progress)
	<-done

	return result, err
}
