package tasks

import (
	"fmt"

	"github.com/desertthunder/tidalift/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	CollectFollowed Phase = iota
	CollectTop
	CombineArtists
	CheckArtist
	FetchPlaylists
	ExportPlaylist
	SearchTracks
	CreatePlaylist
	AddTracks
	WriteSnapshot
)

func (p Phase) String() string {
	switch p {
	case CollectFollowed:
		return "collect_followed"
	case CollectTop:
		return "collect_top"
	case CombineArtists:
		return "combine_artists"
	case CheckArtist:
		return "check_artist"
	case FetchPlaylists:
		return "fetch_playlists"
	case ExportPlaylist:
		return "export_playlist"
	case SearchTracks:
		return "search_tracks"
	case CreatePlaylist:
		return "create_playlist"
	case AddTracks:
		return "add_tracks"
	case WriteSnapshot:
		return "write_snapshot"
	default:
		return ""
	}
}

func collectFollowedUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CollectFollowed,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d followed artists", count),
	}
}

func collectTopUpdate(timeRange string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CollectTop,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d top artists (%s)", count, timeRange),
	}
}

func combineUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CombineArtists,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Total unique artists: %d", total),
	}
}

func checkArtistUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CheckArtist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Checking: %s", step, total, name),
	}
}

func fetchPlaylistsUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylists,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d playlists", count),
	}
}

func exportingPlaylistUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting: %s...", step, total, name),
	}
}

func exportCompletedUpdate(step, total int, name string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, name, filesCount),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}

func searchTrackUpdate(step, total int, tr *models.Track) ProgressUpdate {
	if tr == nil {
		return ProgressUpdate{
			Phase:   SearchTracks,
			Step:    step,
			Total:   total,
			Message: "Searching for tracks on Tidal...",
		}
	}
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s", step, total, tr.PrimaryArtist(), tr.Name),
	}
}

func createPlaylistUpdate(step, total int, name string, created *models.CreatedPlaylist) ProgressUpdate {
	if created == nil {
		return ProgressUpdate{
			Phase:   CreatePlaylist,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("Creating playlist on Tidal: %s", name),
		}
	}
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Playlist created: %s (%s)", name, created.URL),
		Data:    created,
	}
}

func addTracksUpdate(step, total int, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Adding %d tracks...", count),
	}
}

func snapshotUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteSnapshot,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Saved %s", path),
	}
}
