package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/tidalift/internal/shared"
	"golang.org/x/oauth2"
)

func newTestSpotifyService(t *testing.T, handler http.Handler) (*SpotifyService, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewSpotifyService(map[string]string{
		"client_id":     "test-id",
		"client_secret": "test-secret",
		"redirect_uri":  "http://localhost:8888/callback",
	})
	if err != nil {
		t.Fatalf("NewSpotifyService failed: %v", err)
	}

	svc.baseURL = server.URL
	svc.token = &oauth2.Token{AccessToken: "test-token"}

	return svc, server
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatalf("failed to encode response: %v", err)
	}
}

func TestNewSpotifyService(t *testing.T) {
	tests := []struct {
		name        string
		credentials map[string]string
		wantErr     bool
	}{
		{
			name: "valid credentials",
			credentials: map[string]string{
				"client_id":     "id",
				"client_secret": "secret",
				"redirect_uri":  "http://localhost:8888/callback",
			},
		},
		{
			name:        "missing client_id",
			credentials: map[string]string{"client_secret": "secret"},
			wantErr:     true,
		},
		{
			name:        "missing client_secret",
			credentials: map[string]string{"client_id": "id"},
			wantErr:     true,
		},
		{
			name: "redirect_uri defaults",
			credentials: map[string]string{
				"client_id":     "id",
				"client_secret": "secret",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewSpotifyService(tt.credentials)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewSpotifyService failed: %v", err)
			}
			if svc.config.RedirectURL == "" {
				t.Error("expected redirect URL to be set")
			}
		})
	}
}

func TestSpotifyService_Errors(t *testing.T) {
	t.Run("unauthenticated requests fail", func(t *testing.T) {
		svc, err := NewSpotifyService(map[string]string{"client_id": "id", "client_secret": "secret"})
		if err != nil {
			t.Fatalf("NewSpotifyService failed: %v", err)
		}

		if _, err := svc.UserProfile(context.Background()); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("err = %v, want ErrNotAuthenticated", err)
		}
	})

	t.Run("401 maps to ErrTokenExpired", func(t *testing.T) {
		svc, _ := newTestSpotifyService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))

		if _, err := svc.UserProfile(context.Background()); !errors.Is(err, shared.ErrTokenExpired) {
			t.Errorf("err = %v, want ErrTokenExpired", err)
		}
	})

	t.Run("429 maps to ErrRateLimited", func(t *testing.T) {
		svc, _ := newTestSpotifyService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "5")
			w.WriteHeader(http.StatusTooManyRequests)
		}))

		if _, err := svc.UserProfile(context.Background()); !errors.Is(err, shared.ErrRateLimited) {
			t.Errorf("err = %v, want ErrRateLimited", err)
		}
	})

	t.Run("sends bearer token", func(t *testing.T) {
		var gotAuth string
		svc, _ := newTestSpotifyService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			writeJSON(t, w, SpotifyUser{ID: "user1"})
		}))

		if _, err := svc.UserProfile(context.Background()); err != nil {
			t.Fatalf("UserProfile failed: %v", err)
		}
		if gotAuth != "Bearer test-token" {
			t.Errorf("Authorization = %q", gotAuth)
		}
	})
}

func TestFollowedArtists(t *testing.T) {
	t.Run("walks cursor pagination", func(t *testing.T) {
		var mux http.ServeMux
		svc, server := newTestSpotifyService(t, &mux)

		mux.HandleFunc("/me/following", func(w http.ResponseWriter, r *http.Request) {
			after := r.URL.Query().Get("after")
			if after == "" {
				next := server.URL + "/me/following?after=cursor1"
				writeJSON(t, w, followedArtistsResponse{Artists: SpotifyCursorArtists{
					Items:   []SpotifyArtist{{ID: "a1", Name: "Alpha", Genres: []string{"rock"}}},
					Cursors: artistCursors{After: "cursor1"},
					Next:    &next,
				}})
				return
			}
			writeJSON(t, w, followedArtistsResponse{Artists: SpotifyCursorArtists{
				Items: []SpotifyArtist{{ID: "a2", Name: "Beta"}},
			}})
		})

		artists, err := svc.FollowedArtists(context.Background())
		if err != nil {
			t.Fatalf("FollowedArtists failed: %v", err)
		}

		if len(artists) != 2 {
			t.Fatalf("got %d artists, want 2", len(artists))
		}
		if artists[0].Name != "Alpha" || artists[1].Name != "Beta" {
			t.Errorf("artists = %+v", artists)
		}
		if artists[0].Genres[0] != "rock" {
			t.Errorf("genres = %v", artists[0].Genres)
		}
	})
}

func TestTopArtists(t *testing.T) {
	var gotTimeRange string
	svc, _ := newTestSpotifyService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTimeRange = r.URL.Query().Get("time_range")
		writeJSON(t, w, SpotifyTopArtists{
			Items: []SpotifyArtist{{ID: "a1", Name: "Alpha", Popularity: 80}},
		})
	}))

	artists, err := svc.TopArtists(context.Background(), "short_term")
	if err != nil {
		t.Fatalf("TopArtists failed: %v", err)
	}

	if gotTimeRange != "short_term" {
		t.Errorf("time_range = %q", gotTimeRange)
	}
	if len(artists) != 1 || artists[0].Popularity != 80 {
		t.Errorf("artists = %+v", artists)
	}
}

func TestOwnedPlaylists(t *testing.T) {
	t.Run("filters playlists by owner", func(t *testing.T) {
		var mux http.ServeMux
		svc, _ := newTestSpotifyService(t, &mux)

		mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, SpotifyUser{ID: "me"})
		})
		mux.HandleFunc("/me/playlists", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, SpotifyPaginatedPlaylists{
				Items: []SpotifySimplePlaylist{
					{ID: "p1", Name: "Mine", Owner: spotifyOwner{ID: "me"}, Tracks: simplePlaylistTracks{Total: 5}},
					{ID: "p2", Name: "Followed", Owner: spotifyOwner{ID: "someone-else"}},
				},
			})
		})

		playlists, err := svc.OwnedPlaylists(context.Background())
		if err != nil {
			t.Fatalf("OwnedPlaylists failed: %v", err)
		}

		if len(playlists) != 1 {
			t.Fatalf("got %d playlists, want 1", len(playlists))
		}
		if playlists[0].SpotifyID != "p1" || playlists[0].TrackCount != 5 {
			t.Errorf("playlist = %+v", playlists[0])
		}
	})
}

func TestPlaylistTracks(t *testing.T) {
	t.Run("maps tracks with ISRC and skips local entries", func(t *testing.T) {
		svc, _ := newTestSpotifyService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, SpotifyPaginatedPlaylistTracks{
				Items: []SpotifyPlaylistTrack{
					{Track: &SpotifyTrack{
						ID:          "t1",
						Name:        "Song One",
						Artists:     []SpotifyArtist{{Name: "Artist A"}, {Name: "Artist B"}},
						Album:       SpotifyAlbum{Name: "Album X"},
						DurationMS:  215000,
						ExternalIDs: externalIDs{ISRC: "USRC11111111"},
					}},
					{Track: nil},
					{Track: &SpotifyTrack{ID: "t2", Name: "Local", IsLocal: true}},
				},
			})
		}))

		tracks, err := svc.PlaylistTracks(context.Background(), "p1")
		if err != nil {
			t.Fatalf("PlaylistTracks failed: %v", err)
		}

		if len(tracks) != 1 {
			t.Fatalf("got %d tracks, want 1 (null and local skipped)", len(tracks))
		}

		track := tracks[0]
		if track.ISRC != "USRC11111111" || track.DurationMS != 215000 {
			t.Errorf("track = %+v", track)
		}
		if len(track.Artists) != 2 || track.Artists[0] != "Artist A" {
			t.Errorf("artists = %v", track.Artists)
		}
	})

	t.Run("walks offset pagination", func(t *testing.T) {
		var mux http.ServeMux
		svc, server := newTestSpotifyService(t, &mux)

		mux.HandleFunc("/playlists/p1/tracks", func(w http.ResponseWriter, r *http.Request) {
			offset := r.URL.Query().Get("offset")
			if offset == "0" {
				next := server.URL + "/playlists/p1/tracks?offset=100"
				writeJSON(t, w, SpotifyPaginatedPlaylistTracks{
					Items: []SpotifyPlaylistTrack{{Track: &SpotifyTrack{ID: "t1", Name: "One"}}},
					Next:  &next,
				})
				return
			}
			writeJSON(t, w, SpotifyPaginatedPlaylistTracks{
				Items: []SpotifyPlaylistTrack{{Track: &SpotifyTrack{ID: "t2", Name: "Two"}}},
			})
		})

		tracks, err := svc.PlaylistTracks(context.Background(), "p1")
		if err != nil {
			t.Fatalf("PlaylistTracks failed: %v", err)
		}
		if len(tracks) != 2 {
			t.Errorf("got %d tracks, want 2", len(tracks))
		}
	})
}

func TestGetAuthURL(t *testing.T) {
	svc, err := NewSpotifyService(map[string]string{"client_id": "id", "client_secret": "secret"})
	if err != nil {
		t.Fatalf("NewSpotifyService failed: %v", err)
	}

	authURL := svc.GetAuthURL("state123")
	for _, want := range []string{"state=state123", "client_id=id", "accounts.spotify.com"} {
		if !strings.Contains(authURL, want) {
			t.Errorf("auth URL missing %q: %s", want, authURL)
		}
	}
}
