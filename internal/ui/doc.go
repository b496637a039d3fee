// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for playlist migration:
//  1. [PlaylistListView] : Browse exported Spotify playlists
//  2. [TrackListView] : Preview tracks before migration
//  3. [ConfirmView] : Confirm the migration operation
//  4. [MigrateView] : Monitor real-time progress updates
//  5. [ResultView] : Display match metrics and unmatched tracks
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the MigrationEngine, providing non-blocking status reporting during migrations.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
