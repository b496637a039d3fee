// Package tasks contains the migration engine behind the CLI commands.
//
// The engine coordinates the Spotify export side and the Tidal import side
// of a library migration: collecting artists, exporting playlists, checking
// artist availability, and recreating playlists track by track. Each
// operation reads and writes JSON snapshots through a snapshot.Store so a
// run can be resumed or inspected later, and reports progress over an
// optional channel. Requests against either service are paced with rate
// limiters to stay under the public API quotas.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/tidalift/internal/models"
	"github.com/desertthunder/tidalift/internal/services"
	"github.com/desertthunder/tidalift/internal/snapshot"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Cacher persists availability and match results between runs so repeated
// migrations skip lookups that already resolved.
type Cacher interface {
	CacheArtist(availability models.ArtistAvailability) error
	CachedArtist(spotifyID string) (*models.ArtistAvailability, bool)
	CacheMatch(match models.TrackMatch) error
	CachedMatch(spotifyID string) (*models.TrackMatch, bool)
}

// MigrationEngine runs migration operations against a source Exporter
// (Spotify) and a destination Importer (Tidal).
type MigrationEngine struct {
	source        services.Exporter
	dest          services.Importer
	store         *snapshot.Store
	cache         Cacher
	artistLimiter *rate.Limiter
	trackLimiter  *rate.Limiter
	batchLimiter  *rate.Limiter
}

// EngineOpts configures optional engine dependencies. Zero values fall back
// to defaults matching the public API quotas.
type EngineOpts struct {
	Cache         Cacher
	ArtistLimiter *rate.Limiter
	TrackLimiter  *rate.Limiter
	BatchLimiter  *rate.Limiter
}

// NewMigrationEngine creates an engine over the given services and snapshot
// store. Artist checks run at ~3/s, track searches at 5/s and playlist
// batch writes at 2/s unless overridden.
func NewMigrationEngine(source services.Exporter, dest services.Importer, store *snapshot.Store, opts EngineOpts) *MigrationEngine {
	e := &MigrationEngine{
		source:        source,
		dest:          dest,
		store:         store,
		cache:         opts.Cache,
		artistLimiter: opts.ArtistLimiter,
		trackLimiter:  opts.TrackLimiter,
		batchLimiter:  opts.BatchLimiter,
	}

	if e.artistLimiter == nil {
		e.artistLimiter = rate.NewLimiter(rate.Every(300*time.Millisecond), 1)
	}

	if e.trackLimiter == nil {
		e.trackLimiter = rate.NewLimiter(rate.Every(200*time.Millisecond), 1)
	}

	if e.batchLimiter == nil {
		e.batchLimiter = rate.NewLimiter(rate.Every(500*time.Millisecond), 1)
	}

	return e
}

// sendProgress sends an update without blocking when the channel is full or nil.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}

	select {
	case progress <- update:
	default:
	}
}

// CollectResult summarizes an artist collection run.
type CollectResult struct {
	Followed     int               `json:"followed"`
	Top          map[string]int    `json:"top"`
	Combined     int               `json:"combined"`
	Artists      []models.Artist   `json:"-"`
	TopLists     models.TopArtists `json:"-"`
	FollowedList []models.Artist   `json:"-"`
}

// CollectArtists gathers followed artists and top artists across all time
// ranges concurrently, merges them into a deduplicated list tagged with
// where each artist came from, and writes the three artist snapshots.
func (e *MigrationEngine) CollectArtists(ctx context.Context, progress chan<- ProgressUpdate) (*CollectResult, error) {
	var followed []models.Artist

	top := make(models.TopArtists, len(models.TimeRanges))
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		artists, err := e.source.FollowedArtists(gctx)
		if err != nil {
			return fmt.Errorf("followed artists: %w", err)
		}

		followed = artists
		sendProgress(progress, collectFollowedUpdate(len(artists)))
		return nil
	})

	results := make([][]models.Artist, len(models.TimeRanges))
	for i, timeRange := range models.TimeRanges {
		g.Go(func() error {
			artists, err := e.source.TopArtists(gctx, timeRange)
			if err != nil {
				return fmt.Errorf("top artists (%s): %w", timeRange, err)
			}

			results[i] = artists
			sendProgress(progress, collectTopUpdate(timeRange, len(artists)))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, timeRange := range models.TimeRanges {
		top[timeRange] = results[i]
	}

	combined := combineArtists(followed, top)
	sendProgress(progress, combineUpdate(len(combined)))

	result := &CollectResult{
		Followed:     len(followed),
		Top:          map[string]int{},
		Combined:     len(combined),
		Artists:      combined,
		TopLists:     top,
		FollowedList: followed,
	}

	for timeRange, artists := range top {
		result.Top[timeRange] = len(artists)
	}

	if err := e.store.WriteJSON(snapshot.FollowedArtistsFile, followed); err != nil {
		return nil, err
	}

	if err := e.store.WriteJSON(snapshot.TopArtistsFile, top); err != nil {
		return nil, err
	}

	if err := e.store.WriteJSON(snapshot.AllArtistsFile, combined); err != nil {
		return nil, err
	}

	sendProgress(progress, snapshotUpdate(e.store.Path(snapshot.AllArtistsFile)))
	return result, nil
}

// combineArtists merges followed and top artists into one list, deduplicated
// by Spotify ID. Followed artists keep their position at the front and every
// artist carries tags for each list it appeared in.
func combineArtists(followed []models.Artist, top models.TopArtists) []models.Artist {
	index := make(map[string]int, len(followed))
	combined := make([]models.Artist, 0, len(followed))

	for _, artist := range followed {
		if _, ok := index[artist.ID]; ok {
			continue
		}

		artist.Sources = []string{"followed"}
		index[artist.ID] = len(combined)
		combined = append(combined, artist)
	}

	for _, timeRange := range models.TimeRanges {
		for _, artist := range top[timeRange] {
			if i, ok := index[artist.ID]; ok {
				if !combined[i].HasSource(timeRange) {
					combined[i].Sources = append(combined[i].Sources, timeRange)
				}
				continue
			}

			artist.Sources = []string{timeRange}
			index[artist.ID] = len(combined)
			combined = append(combined, artist)
		}
	}

	return combined
}

// CheckResult summarizes an availability check run.
type CheckResult struct {
	Total    int                         `json:"total"`
	Found    int                         `json:"found"`
	NotFound int                         `json:"not_found"`
	Results  []models.ArtistAvailability `json:"-"`
}

// CheckArtists looks up every collected artist on Tidal by name, taking the
// first search result as the match. Lookup failures are recorded on the
// result rather than aborting the run. Requires a prior CollectArtists
// snapshot.
func (e *MigrationEngine) CheckArtists(ctx context.Context, progress chan<- ProgressUpdate) (*CheckResult, error) {
	artists, err := snapshot.ReadJSON[[]models.Artist](e.store, snapshot.AllArtistsFile)
	if err != nil {
		return nil, err
	}

	result := &CheckResult{Total: len(artists)}
	result.Results = make([]models.ArtistAvailability, 0, len(artists))

	for i, artist := range artists {
		sendProgress(progress, checkArtistUpdate(i+1, len(artists), artist.Name))

		availability, err := e.checkArtist(ctx, artist)
		if err != nil {
			return nil, err
		}

		if availability.TidalFound {
			result.Found++
		} else {
			result.NotFound++
		}

		result.Results = append(result.Results, *availability)
	}

	if err := e.store.WriteJSON(snapshot.AvailabilityFile, result.Results); err != nil {
		return nil, err
	}

	sendProgress(progress, snapshotUpdate(e.store.Path(snapshot.AvailabilityFile)))
	return result, nil
}

// checkArtist resolves a single artist against Tidal, consulting the cache
// first. Errors only when the rate limiter gives up on the context.
func (e *MigrationEngine) checkArtist(ctx context.Context, artist models.Artist) (*models.ArtistAvailability, error) {
	if e.cache != nil {
		if cached, ok := e.cache.CachedArtist(artist.ID); ok {
			cached.Artist = artist
			return cached, nil
		}
	}

	if err := e.artistLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	availability := models.ArtistAvailability{Artist: artist}

	found, err := e.dest.SearchArtists(ctx, artist.Name, 5)
	if err != nil {
		availability.TidalError = err.Error()
	} else if len(found) > 0 {
		availability.TidalFound = true
		availability.TidalID = found[0].ID
		availability.TidalName = found[0].Name
		availability.TidalURL = found[0].URL
	}

	if e.cache != nil && availability.TidalError == "" {
		// cache writes are best-effort
		_ = e.cache.CacheArtist(availability)
	}

	return &availability, nil
}
