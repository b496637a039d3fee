package tasks

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/desertthunder/tidalift/internal/models"
	"github.com/desertthunder/tidalift/internal/snapshot"
	tu "github.com/desertthunder/tidalift/internal/testing"
	"golang.org/x/time/rate"
)

func testStore(t *testing.T) *snapshot.Store {
	t.Helper()
	store, err := snapshot.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

// fastOpts removes rate limiting so tests run instantly.
func fastOpts() EngineOpts {
	return EngineOpts{
		ArtistLimiter: rate.NewLimiter(rate.Inf, 1),
		TrackLimiter:  rate.NewLimiter(rate.Inf, 1),
		BatchLimiter:  rate.NewLimiter(rate.Inf, 1),
	}
}

func artist(id, name string, sources ...string) models.Artist {
	return models.Artist{ID: id, Name: name, Sources: sources}
}

func TestCollectArtists(t *testing.T) {
	t.Run("merges followed and top artists", func(t *testing.T) {
		source := &tu.MockExporter{
			FollowedArtistsFunc: func(ctx context.Context) ([]models.Artist, error) {
				return []models.Artist{artist("a1", "Alpha"), artist("a2", "Beta")}, nil
			},
			TopArtistsFunc: func(ctx context.Context, timeRange string) ([]models.Artist, error) {
				switch timeRange {
				case "short_term":
					return []models.Artist{artist("a1", "Alpha"), artist("a3", "Gamma")}, nil
				case "medium_term":
					return []models.Artist{artist("a3", "Gamma")}, nil
				default:
					return []models.Artist{}, nil
				}
			},
		}

		store := testStore(t)
		engine := NewMigrationEngine(source, &tu.MockImporter{}, store, fastOpts())

		result, err := engine.CollectArtists(context.Background(), nil)
		if err != nil {
			t.Fatalf("CollectArtists failed: %v", err)
		}

		if result.Followed != 2 {
			t.Errorf("Followed = %d, want 2", result.Followed)
		}
		if result.Top["short_term"] != 2 {
			t.Errorf("Top[short_term] = %d, want 2", result.Top["short_term"])
		}
		if result.Combined != 3 {
			t.Errorf("Combined = %d, want 3", result.Combined)
		}

		for _, name := range []string{snapshot.FollowedArtistsFile, snapshot.TopArtistsFile, snapshot.AllArtistsFile} {
			if !store.Exists(name) {
				t.Errorf("expected snapshot %s to exist", name)
			}
		}
	})

	t.Run("tags sources on combined artists", func(t *testing.T) {
		source := &tu.MockExporter{
			FollowedArtistsFunc: func(ctx context.Context) ([]models.Artist, error) {
				return []models.Artist{artist("a1", "Alpha")}, nil
			},
			TopArtistsFunc: func(ctx context.Context, timeRange string) ([]models.Artist, error) {
				if timeRange == "long_term" {
					return []models.Artist{artist("a1", "Alpha"), artist("a2", "Beta")}, nil
				}
				return []models.Artist{}, nil
			},
		}

		engine := NewMigrationEngine(source, &tu.MockImporter{}, testStore(t), fastOpts())

		result, err := engine.CollectArtists(context.Background(), nil)
		if err != nil {
			t.Fatalf("CollectArtists failed: %v", err)
		}

		first := result.Artists[0]
		if first.ID != "a1" {
			t.Fatalf("expected followed artist first, got %s", first.ID)
		}
		if !first.HasSource("followed") || !first.HasSource("long_term") {
			t.Errorf("sources = %v, want followed and long_term", first.Sources)
		}

		second := result.Artists[1]
		if second.ID != "a2" || !second.HasSource("long_term") {
			t.Errorf("second artist = %+v, want a2 tagged long_term", second)
		}

		for _, got := range result.Artists {
			for _, tag := range got.Sources {
				if tag != "followed" && tag != "short_term" && tag != "medium_term" && tag != "long_term" {
					t.Errorf("unexpected source tag %q on %s", tag, got.ID)
				}
			}
		}
	})

	t.Run("propagates source errors", func(t *testing.T) {
		source := &tu.MockExporter{
			FollowedArtistsFunc: func(ctx context.Context) ([]models.Artist, error) {
				return nil, errors.New("rate limited")
			},
		}

		engine := NewMigrationEngine(source, &tu.MockImporter{}, testStore(t), fastOpts())

		if _, err := engine.CollectArtists(context.Background(), nil); err == nil {
			t.Error("expected error from failing source")
		}
	})

	t.Run("emits progress updates", func(t *testing.T) {
		source := &tu.MockExporter{
			FollowedArtistsFunc: func(ctx context.Context) ([]models.Artist, error) {
				return []models.Artist{artist("a1", "Alpha")}, nil
			},
		}

		engine := NewMigrationEngine(source, &tu.MockImporter{}, testStore(t), fastOpts())

		progress := make(chan ProgressUpdate, 100)
		if _, err := engine.CollectArtists(context.Background(), progress); err != nil {
			t.Fatalf("CollectArtists failed: %v", err)
		}
		close(progress)

		phases := map[Phase]bool{}
		for update := range progress {
			phases[update.Phase] = true
		}

		for _, phase := range []Phase{CollectFollowed, CombineArtists, WriteSnapshot} {
			if !phases[phase] {
				t.Errorf("missing progress phase %s", phase)
			}
		}
	})
}

func TestCheckArtists(t *testing.T) {
	seed := func(t *testing.T, store *snapshot.Store, artists []models.Artist) {
		t.Helper()
		if err := store.WriteJSON(snapshot.AllArtistsFile, artists); err != nil {
			t.Fatalf("failed to seed snapshot: %v", err)
		}
	}

	t.Run("counts found and not found", func(t *testing.T) {
		store := testStore(t)
		seed(t, store, []models.Artist{artist("a1", "Alpha"), artist("a2", "Beta"), artist("a3", "Gamma")})

		dest := &tu.MockImporter{
			SearchArtistsFunc: func(ctx context.Context, query string, limit int) ([]models.FoundArtist, error) {
				if query == "Beta" {
					return []models.FoundArtist{}, nil
				}
				return []models.FoundArtist{{ID: 42, Name: query, URL: "https://tidal.com/artist/42"}}, nil
			},
		}

		engine := NewMigrationEngine(&tu.MockExporter{}, dest, store, fastOpts())

		result, err := engine.CheckArtists(context.Background(), nil)
		if err != nil {
			t.Fatalf("CheckArtists failed: %v", err)
		}

		if result.Total != 3 || result.Found != 2 || result.NotFound != 1 {
			t.Errorf("got total=%d found=%d notFound=%d, want 3/2/1", result.Total, result.Found, result.NotFound)
		}

		if !store.Exists(snapshot.AvailabilityFile) {
			t.Error("expected availability snapshot to exist")
		}
	})

	t.Run("records lookup errors without aborting", func(t *testing.T) {
		store := testStore(t)
		seed(t, store, []models.Artist{artist("a1", "Alpha"), artist("a2", "Beta")})

		dest := &tu.MockImporter{
			SearchArtistsFunc: func(ctx context.Context, query string, limit int) ([]models.FoundArtist, error) {
				if query == "Alpha" {
					return nil, fmt.Errorf("503 service unavailable")
				}
				return []models.FoundArtist{{ID: 7, Name: "Beta"}}, nil
			},
		}

		engine := NewMigrationEngine(&tu.MockExporter{}, dest, store, fastOpts())

		result, err := engine.CheckArtists(context.Background(), nil)
		if err != nil {
			t.Fatalf("CheckArtists failed: %v", err)
		}

		if result.Results[0].TidalError == "" {
			t.Error("expected first result to carry the lookup error")
		}
		if result.Results[0].TidalFound {
			t.Error("errored lookup should not be marked found")
		}
		if !result.Results[1].TidalFound {
			t.Error("second lookup should succeed")
		}
	})

	t.Run("requires prior collect snapshot", func(t *testing.T) {
		engine := NewMigrationEngine(&tu.MockExporter{}, &tu.MockImporter{}, testStore(t), fastOpts())

		if _, err := engine.CheckArtists(context.Background(), nil); err == nil {
			t.Error("expected error when snapshot is missing")
		}
	})

	t.Run("reports limiter deadline errors", func(t *testing.T) {
		store := testStore(t)
		seed(t, store, []models.Artist{artist("a1", "Alpha"), artist("a2", "Beta")})

		dest := &tu.MockImporter{
			SearchArtistsFunc: func(ctx context.Context, query string, limit int) ([]models.FoundArtist, error) {
				return []models.FoundArtist{{ID: 1, Name: query}}, nil
			},
		}

		opts := fastOpts()
		opts.ArtistLimiter = rate.NewLimiter(rate.Every(time.Hour), 1)
		engine := NewMigrationEngine(&tu.MockExporter{}, dest, store, opts)

		// The second Wait needs an hour, far past the deadline; the limiter
		// bails out before the context itself is done.
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		if _, err := engine.CheckArtists(ctx, nil); err == nil {
			t.Error("expected limiter deadline error")
		}
	})

	t.Run("consults the cache before searching", func(t *testing.T) {
		store := testStore(t)
		seed(t, store, []models.Artist{artist("a1", "Alpha")})

		searches := 0
		dest := &tu.MockImporter{
			SearchArtistsFunc: func(ctx context.Context, query string, limit int) ([]models.FoundArtist, error) {
				searches++
				return []models.FoundArtist{{ID: 1, Name: "Alpha"}}, nil
			},
		}

		cache := &memoryCache{
			artists: map[string]models.ArtistAvailability{
				"a1": {Artist: artist("a1", "Alpha"), TidalFound: true, TidalID: 99},
			},
		}

		opts := fastOpts()
		opts.Cache = cache
		engine := NewMigrationEngine(&tu.MockExporter{}, dest, store, opts)

		result, err := engine.CheckArtists(context.Background(), nil)
		if err != nil {
			t.Fatalf("CheckArtists failed: %v", err)
		}

		if searches != 0 {
			t.Errorf("expected no searches, got %d", searches)
		}
		if result.Results[0].TidalID != 99 {
			t.Errorf("TidalID = %d, want cached value 99", result.Results[0].TidalID)
		}
	})

	t.Run("caches successful lookups", func(t *testing.T) {
		store := testStore(t)
		seed(t, store, []models.Artist{artist("a1", "Alpha"), artist("a2", "Beta")})

		dest := &tu.MockImporter{
			SearchArtistsFunc: func(ctx context.Context, query string, limit int) ([]models.FoundArtist, error) {
				if query == "Beta" {
					return nil, fmt.Errorf("timeout")
				}
				return []models.FoundArtist{{ID: 1, Name: "Alpha"}}, nil
			},
		}

		cache := newMemoryCache()
		opts := fastOpts()
		opts.Cache = cache
		engine := NewMigrationEngine(&tu.MockExporter{}, dest, store, opts)

		if _, err := engine.CheckArtists(context.Background(), nil); err != nil {
			t.Fatalf("CheckArtists failed: %v", err)
		}

		if _, ok := cache.CachedArtist("a1"); !ok {
			t.Error("successful lookup should be cached")
		}
		if _, ok := cache.CachedArtist("a2"); ok {
			t.Error("errored lookup should not be cached")
		}
	})
}

// memoryCache is an in-memory Cacher for engine tests.
type memoryCache struct {
	artists map[string]models.ArtistAvailability
	matches map[string]models.TrackMatch
}

func newMemoryCache() *memoryCache {
	return &memoryCache{
		artists: map[string]models.ArtistAvailability{},
		matches: map[string]models.TrackMatch{},
	}
}

func (c *memoryCache) CacheArtist(a models.ArtistAvailability) error {
	c.artists[a.ID] = a
	return nil
}

func (c *memoryCache) CachedArtist(spotifyID string) (*models.ArtistAvailability, bool) {
	a, ok := c.artists[spotifyID]
	if !ok {
		return nil, false
	}
	return &a, true
}

func (c *memoryCache) CacheMatch(m models.TrackMatch) error {
	c.matches[m.SpotifyTrack.ID] = m
	return nil
}

func (c *memoryCache) CachedMatch(spotifyID string) (*models.TrackMatch, bool) {
	m, ok := c.matches[spotifyID]
	if !ok {
		return nil, false
	}
	return &m, true
}
