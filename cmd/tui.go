package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tidalift/internal/models"
	"github.com/desertthunder/tidalift/internal/shared"
	"github.com/desertthunder/tidalift/internal/snapshot"
	"github.com/desertthunder/tidalift/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for playlist migration.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if r.engine == nil {
		return fmt.Errorf("%w: migration engine not initialized", shared.ErrServiceUnavailable)
	}
	if !r.store.Exists(snapshot.PlaylistsFile) {
		return fmt.Errorf("%w: run 'tidalift export' first", shared.ErrSnapshotMissing)
	}

	dryRun := cmd.Bool("dry-run")
	if !dryRun {
		if err := r.ensureTidal(ctx); err != nil {
			return err
		}
	}

	exports, err := snapshot.ReadJSON[[]models.PlaylistExport](r.store, snapshot.PlaylistsFile)
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/tidalift-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, exports, r.engine, dryRun)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
