package models

import (
	"fmt"
	"strings"
	"time"
)

// base carries the shared lifecycle fields for persisted entities.
type base struct {
	id        string
	sequence  int
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

func newBase(sequence int) base {
	now := time.Now()
	return base{sequence: sequence, createdAt: now, updatedAt: now}
}

func (b *base) ID() string                { return b.id }
func (b *base) Sequence() int             { return b.sequence }
func (b *base) CreatedAt() time.Time      { return b.createdAt }
func (b *base) UpdatedAt() time.Time      { return b.updatedAt }
func (b *base) DeletedAt() *time.Time     { return b.deletedAt }
func (b *base) SetID(id string)           { b.id = id }
func (b *base) SetUpdatedAt(t time.Time)  { b.updatedAt = t }
func (b *base) SetDeletedAt(t *time.Time) { b.deletedAt = t }
func (b *base) SetCreatedAt(t time.Time)  { b.createdAt = t }

// PersistedArtist is a database-backed artist record with its availability result.
type PersistedArtist struct {
	base
	artist       Artist
	availability *ArtistAvailability
}

// NewPersistedArtist creates a PersistedArtist from a collected artist DTO.
func NewPersistedArtist(sequence int, artist Artist) *PersistedArtist {
	return &PersistedArtist{base: newBase(sequence), artist: artist}
}

func (p *PersistedArtist) Artist() Artist     { return p.artist }
func (p *PersistedArtist) SpotifyID() string  { return p.artist.ID }
func (p *PersistedArtist) Name() string       { return p.artist.Name }
func (p *PersistedArtist) GenresCSV() string  { return strings.Join(p.artist.Genres, ",") }
func (p *PersistedArtist) SourcesCSV() string { return strings.Join(p.artist.Sources, ",") }

// Availability returns the stored Tidal lookup result, or nil if unchecked.
func (p *PersistedArtist) Availability() *ArtistAvailability { return p.availability }

// SetAvailability records the Tidal lookup result for this artist.
func (p *PersistedArtist) SetAvailability(a *ArtistAvailability) { p.availability = a }

// Validate checks required fields.
func (p *PersistedArtist) Validate() error {
	if p.id == "" {
		return fmt.Errorf("artist id is required")
	}
	if p.artist.ID == "" {
		return fmt.Errorf("spotify artist id is required")
	}
	if p.artist.Name == "" {
		return fmt.Errorf("artist name is required")
	}
	return nil
}

// PersistedTrackMatch is a database-backed record of a resolved track match.
type PersistedTrackMatch struct {
	base
	match TrackMatch
}

// NewPersistedTrackMatch creates a PersistedTrackMatch from a match result.
func NewPersistedTrackMatch(sequence int, match TrackMatch) *PersistedTrackMatch {
	return &PersistedTrackMatch{base: newBase(sequence), match: match}
}

func (p *PersistedTrackMatch) Match() TrackMatch { return p.match }
func (p *PersistedTrackMatch) SpotifyID() string { return p.match.SpotifyTrack.ID }
func (p *PersistedTrackMatch) ISRC() string      { return p.match.SpotifyTrack.ISRC }
func (p *PersistedTrackMatch) Matched() bool     { return p.match.TidalFound }

// Validate checks required fields.
func (p *PersistedTrackMatch) Validate() error {
	if p.id == "" {
		return fmt.Errorf("track match id is required")
	}
	if p.match.SpotifyTrack.ID == "" {
		return fmt.Errorf("spotify track id is required")
	}
	if p.match.SpotifyTrack.Name == "" {
		return fmt.Errorf("track name is required")
	}
	return nil
}

// ParseCSV splits a comma-separated column back into a slice, dropping empties.
func ParseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
