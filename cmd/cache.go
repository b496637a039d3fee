package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/tidalift/internal/repositories"
	"github.com/urfave/cli/v3"
)

// CacheStats prints counts of cached Tidal lookups.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return fmt.Errorf("failed to open cache database: %w", err)
	}
	defer db.Close()

	artists := repositories.NewArtistRepository(db)
	matches := repositories.NewTrackMatchRepository(db)

	allArtists, err := artists.List(map[string]any{})
	if err != nil {
		return err
	}
	foundArtists, err := artists.List(map[string]any{"tidal_found": true})
	if err != nil {
		return err
	}
	allMatches, err := matches.List(map[string]any{})
	if err != nil {
		return err
	}
	resolvedMatches, err := matches.List(map[string]any{"matched": true})
	if err != nil {
		return err
	}

	r.writePlainHeader("Search Cache")
	r.writePlain("Artists checked:  %d (%d found on Tidal)\n", len(allArtists), len(foundArtists))
	r.writePlain("Tracks matched:   %d (%d resolved)\n", len(allMatches), len(resolvedMatches))
	r.writePlain("Database:         %s\n", r.config.Database.Path)

	return nil
}

// CacheClear removes cached lookups so the next check or migrate run searches fresh.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return fmt.Errorf("failed to open cache database: %w", err)
	}
	defer db.Close()

	clearArtists := cmd.Bool("artists")
	clearMatches := cmd.Bool("matches")
	if !clearArtists && !clearMatches {
		clearArtists = true
		clearMatches = true
	}

	if clearArtists {
		result, err := db.Exec("DELETE FROM artists")
		if err != nil {
			return fmt.Errorf("failed to clear artist cache: %w", err)
		}
		rows, _ := result.RowsAffected()
		r.writePlain("✓ Cleared %d cached artist lookups\n", rows)
	}

	if clearMatches {
		result, err := db.Exec("DELETE FROM track_matches")
		if err != nil {
			return fmt.Errorf("failed to clear track match cache: %w", err)
		}
		rows, _ := result.RowsAffected()
		r.writePlain("✓ Cleared %d cached track matches\n", rows)
	}

	return nil
}
