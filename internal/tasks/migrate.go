package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/tidalift/internal/models"
	"github.com/desertthunder/tidalift/internal/snapshot"
)

// Tidal caps playlist item additions per request.
const addTracksBatchSize = 100

// ExportResult summarizes a playlist export run.
type ExportResult struct {
	Playlists int                     `json:"playlists"`
	Tracks    int                     `json:"tracks"`
	Exports   []models.PlaylistExport `json:"-"`
}

// ExportPlaylists fetches every playlist owned by the current Spotify user
// along with its full track listing and writes the playlist snapshot.
func (e *MigrationEngine) ExportPlaylists(ctx context.Context, progress chan<- ProgressUpdate) (*ExportResult, error) {
	playlists, err := e.source.OwnedPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("owned playlists: %w", err)
	}

	sendProgress(progress, fetchPlaylistsUpdate(len(playlists)))

	exports := make([]models.PlaylistExport, 0, len(playlists))
	total := 0

	for i, playlist := range playlists {
		sendProgress(progress, exportingPlaylistUpdate(i+1, len(playlists), playlist.Name))

		tracks, err := e.source.PlaylistTracks(ctx, playlist.SpotifyID)
		if err != nil {
			return nil, fmt.Errorf("playlist tracks (%s): %w", playlist.Name, err)
		}

		playlist.TrackCount = len(tracks)
		exports = append(exports, models.PlaylistExport{Playlist: playlist, Tracks: tracks})
		total += len(tracks)
	}

	if err := e.store.WriteJSON(snapshot.PlaylistsFile, exports); err != nil {
		return nil, err
	}

	sendProgress(progress, snapshotUpdate(e.store.Path(snapshot.PlaylistsFile)))
	return &ExportResult{Playlists: len(playlists), Tracks: total, Exports: exports}, nil
}

// MigrateOpts controls a playlist migration run.
type MigrateOpts struct {
	// DryRun matches tracks without creating anything on Tidal.
	DryRun bool
	// Playlists restricts the run to playlists with these names. Empty
	// means migrate everything in the snapshot.
	Playlists []string
}

// MigrateResult summarizes a playlist migration run.
type MigrateResult struct {
	Playlists   int                        `json:"playlists"`
	Created     int                        `json:"created"`
	TracksFound int                        `json:"tracks_found"`
	TracksTotal int                        `json:"tracks_total"`
	DryRun      bool                       `json:"dry_run"`
	Results     []models.PlaylistMigration `json:"-"`
}

// MigratePlaylists recreates exported playlists on Tidal. Each track is
// matched individually; matched tracks are added to a freshly created
// playlist in batches. Track search failures and failed playlist creation
// are recorded on the results rather than aborting the run. Requires a
// prior ExportPlaylists snapshot.
func (e *MigrationEngine) MigratePlaylists(ctx context.Context, progress chan<- ProgressUpdate, opts MigrateOpts) (*MigrateResult, error) {
	exports, err := snapshot.ReadJSON[[]models.PlaylistExport](e.store, snapshot.PlaylistsFile)
	if err != nil {
		return nil, err
	}

	exports = filterPlaylists(exports, opts.Playlists)
	result := &MigrateResult{DryRun: opts.DryRun}
	result.Results = make([]models.PlaylistMigration, 0, len(exports))

	for i, export := range exports {
		migration, err := e.migratePlaylist(ctx, progress, i+1, len(exports), export, opts.DryRun)
		if err != nil {
			return nil, err
		}

		result.Playlists++
		result.TracksFound += migration.TracksFound
		result.TracksTotal += migration.TracksTotal
		if migration.TidalPlaylistID != "" {
			result.Created++
		}

		result.Results = append(result.Results, *migration)
	}

	if err := e.store.WriteJSON(snapshot.MigrationResultsFile, result.Results); err != nil {
		return nil, err
	}

	sendProgress(progress, snapshotUpdate(e.store.Path(snapshot.MigrationResultsFile)))
	return result, nil
}

func (e *MigrationEngine) migratePlaylist(ctx context.Context, progress chan<- ProgressUpdate, step, total int, export models.PlaylistExport, dryRun bool) (*models.PlaylistMigration, error) {
	migration := &models.PlaylistMigration{
		SpotifyPlaylist: models.PlaylistSummary{
			Name:        export.Name,
			Description: export.Description,
			TrackCount:  len(export.Tracks),
			SpotifyURL:  export.SpotifyURL,
		},
		TracksTotal:  len(export.Tracks),
		TrackResults: make([]models.TrackMatch, 0, len(export.Tracks)),
	}

	sendProgress(progress, searchTrackUpdate(step, total, nil))

	trackIDs := make([]int64, 0, len(export.Tracks))
	for i, track := range export.Tracks {
		sendProgress(progress, searchTrackUpdate(i+1, len(export.Tracks), &track))

		match, err := e.MatchTrack(ctx, track)
		if err != nil {
			return nil, fmt.Errorf("matching %q: %w", track.Name, err)
		}

		if match.TidalFound {
			migration.TracksFound++
			trackIDs = append(trackIDs, match.TidalID)
		}

		migration.TrackResults = append(migration.TrackResults, match)
	}

	if migration.TracksTotal > 0 {
		migration.MatchRate = float64(migration.TracksFound) / float64(migration.TracksTotal)
	}

	if dryRun {
		return migration, nil
	}

	sendProgress(progress, createPlaylistUpdate(step, total, export.Name, nil))

	created, err := e.dest.CreatePlaylist(ctx, export.Name, export.Description)
	if err != nil {
		migration.CreateError = err.Error()
		return migration, nil
	}

	migration.TidalPlaylistID = created.ID
	migration.TidalPlaylistURL = created.URL
	sendProgress(progress, createPlaylistUpdate(step, total, export.Name, created))

	if err := e.addInBatches(ctx, progress, created.ID, trackIDs); err != nil {
		migration.CreateError = err.Error()
	}

	return migration, nil
}

// addInBatches adds matched tracks to a playlist in batches, pacing each
// request with the batch limiter.
func (e *MigrationEngine) addInBatches(ctx context.Context, progress chan<- ProgressUpdate, playlistID string, trackIDs []int64) error {
	batches := (len(trackIDs) + addTracksBatchSize - 1) / addTracksBatchSize

	for i := 0; i < len(trackIDs); i += addTracksBatchSize {
		end := min(i+addTracksBatchSize, len(trackIDs))
		batch := trackIDs[i:end]
		sendProgress(progress, addTracksUpdate(i/addTracksBatchSize+1, batches, len(batch)))

		if err := e.batchLimiter.Wait(ctx); err != nil {
			return err
		}

		if err := e.dest.AddTracks(ctx, playlistID, batch); err != nil {
			return fmt.Errorf("adding tracks: %w", err)
		}
	}

	return nil
}

func filterPlaylists(exports []models.PlaylistExport, names []string) []models.PlaylistExport {
	if len(names) == 0 {
		return exports
	}

	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}

	filtered := make([]models.PlaylistExport, 0, len(exports))
	for _, export := range exports {
		if wanted[export.Name] {
			filtered = append(filtered, export)
		}
	}

	return filtered
}
