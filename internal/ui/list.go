package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/tidalift/internal/models"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = trackItem{}
)

// playlistItem wraps [models.PlaylistExport] to implement [list.Item].
type playlistItem struct {
	export models.PlaylistExport
}

func (i playlistItem) FilterValue() string { return i.export.Name }
func (i playlistItem) Title() string       { return i.export.Name }
func (i playlistItem) Description() string {
	desc := fmt.Sprintf("%d tracks", len(i.export.Tracks))
	if i.export.Playlist.Description != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.export.Playlist.Description)
	}
	return desc
}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track models.Track
}

func (i trackItem) FilterValue() string { return i.track.Name }
func (i trackItem) Title() string       { return i.track.Name }
func (i trackItem) Description() string {
	desc := i.track.PrimaryArtist()
	if i.track.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album)
	}
	return desc
}
