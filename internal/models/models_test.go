package models

import (
	"testing"
)

func TestParseCSV(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty string", "", nil},
		{"single value", "rock", []string{"rock"}},
		{"multiple values", "rock,pop,jazz", []string{"rock", "pop", "jazz"}},
		{"trims whitespace", "rock, pop , jazz", []string{"rock", "pop", "jazz"}},
		{"drops empty segments", "rock,,pop,", []string{"rock", "pop"}},
		{"only commas", ",,,", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCSV(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("ParseCSV(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("ParseCSV(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestHasSource(t *testing.T) {
	artist := Artist{Name: "Alpha", Sources: []string{"followed", "short_term"}}

	if !artist.HasSource("followed") {
		t.Error("expected followed source")
	}
	if artist.HasSource("long_term") {
		t.Error("unexpected long_term source")
	}

	empty := Artist{Name: "Beta"}
	if empty.HasSource("followed") {
		t.Error("artist without sources should match nothing")
	}
}

func TestPrimaryArtist(t *testing.T) {
	track := Track{Name: "Song", Artists: []string{"First", "Second"}}
	if got := track.PrimaryArtist(); got != "First" {
		t.Errorf("PrimaryArtist() = %q", got)
	}

	empty := Track{Name: "Song"}
	if got := empty.PrimaryArtist(); got != "" {
		t.Errorf("PrimaryArtist() = %q, want empty", got)
	}
}

func TestPersistedArtist(t *testing.T) {
	t.Run("CSV columns join genres and sources", func(t *testing.T) {
		p := NewPersistedArtist(1, Artist{
			ID:      "sp1",
			Name:    "Alpha",
			Genres:  []string{"rock", "pop"},
			Sources: []string{"followed", "short_term"},
		})

		if got := p.GenresCSV(); got != "rock,pop" {
			t.Errorf("GenresCSV() = %q", got)
		}
		if got := p.SourcesCSV(); got != "followed,short_term" {
			t.Errorf("SourcesCSV() = %q", got)
		}
	})

	t.Run("validation requires id, spotify id, and name", func(t *testing.T) {
		p := NewPersistedArtist(1, Artist{ID: "sp1", Name: "Alpha"})
		if err := p.Validate(); err == nil {
			t.Error("expected error before ID assignment")
		}

		p.SetID("uuid-1")
		if err := p.Validate(); err != nil {
			t.Errorf("Validate() = %v", err)
		}

		unnamed := NewPersistedArtist(2, Artist{ID: "sp2"})
		unnamed.SetID("uuid-2")
		if err := unnamed.Validate(); err == nil {
			t.Error("expected error for missing name")
		}
	})

	t.Run("availability defaults to unchecked", func(t *testing.T) {
		p := NewPersistedArtist(1, Artist{ID: "sp1", Name: "Alpha"})
		if p.Availability() != nil {
			t.Error("expected nil availability")
		}

		p.SetAvailability(&ArtistAvailability{TidalFound: true, TidalID: 42})
		if got := p.Availability(); got == nil || got.TidalID != 42 {
			t.Errorf("Availability() = %+v", got)
		}
	})
}

func TestPersistedTrackMatch(t *testing.T) {
	match := TrackMatch{
		SpotifyTrack: Track{ID: "t1", Name: "Song", ISRC: "USRC11111111"},
		TidalFound:   true,
		TidalID:      900,
		Strategy:     "isrc",
	}

	p := NewPersistedTrackMatch(1, match)
	if p.SpotifyID() != "t1" || p.ISRC() != "USRC11111111" || !p.Matched() {
		t.Errorf("persisted match = %+v", p.Match())
	}

	if err := p.Validate(); err == nil {
		t.Error("expected error before ID assignment")
	}
	p.SetID("uuid-1")
	if err := p.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}
