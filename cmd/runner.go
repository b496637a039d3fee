package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tidalift/internal/repositories"
	"github.com/desertthunder/tidalift/internal/services"
	"github.com/desertthunder/tidalift/internal/shared"
	"github.com/desertthunder/tidalift/internal/snapshot"
	"github.com/desertthunder/tidalift/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	spotify    services.Exporter
	tidal      services.Importer
	tidalSvc   *services.TidalService
	store      *snapshot.Store
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	engine     *tasks.MigrationEngine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Spotify    services.Exporter
	Tidal      services.Importer
	TidalSvc   *services.TidalService
	Store      *snapshot.Store
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Store == nil {
		store, err := snapshot.NewStore(opts.Config.Storage.DataDir)
		if err != nil {
			panic(fmt.Sprintf("failed to create data directory: %v", err))
		}
		opts.Store = store
	}
	if opts.Tidal == nil && opts.TidalSvc != nil {
		opts.Tidal = opts.TidalSvc
	}

	engine := tasks.NewMigrationEngine(opts.Spotify, opts.Tidal, opts.Store, tasks.EngineOpts{})

	return &Runner{
		config:     opts.Config,
		spotify:    opts.Spotify,
		tidal:      opts.Tidal,
		tidalSvc:   opts.TidalSvc,
		store:      opts.Store,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		engine:     engine,
	}
}

// SetLogger swaps the runner's logger, used to redirect logs during TUI sessions.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, collectCommand, exportCommand, checkCommand, migrateCommand, reportCommand, cacheCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// cachedEngine returns an engine backed by the local database cache, or the
// default engine when the cache is disabled or unavailable.
func (r *Runner) cachedEngine(cmd *cli.Command) (*tasks.MigrationEngine, func()) {
	if cmd.Bool("no-cache") {
		return r.engine, func() {}
	}

	db, err := r.openDatabase()
	if err != nil {
		r.logger.Warn("cache unavailable, searches will not be persisted", "error", err)
		return r.engine, func() {}
	}

	cache := repositories.NewMatchCacheAdapter(
		repositories.NewArtistRepository(db),
		repositories.NewTrackMatchRepository(db),
	)

	engine := tasks.NewMigrationEngine(r.spotify, r.tidal, r.store, tasks.EngineOpts{Cache: cache})
	return engine, func() { db.Close() }
}

// openDatabase opens the configured sqlite database and ensures migrations have run.
func (r *Runner) openDatabase() (*sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, err
	}

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// ensureTidal verifies a usable Tidal session before destination calls.
func (r *Runner) ensureTidal(ctx context.Context) error {
	if r.tidal == nil {
		return fmt.Errorf("%w: Tidal service not initialized", shared.ErrServiceUnavailable)
	}

	if r.tidalSvc == nil {
		return nil
	}

	if err := r.tidalSvc.EnsureSession(ctx); err != nil {
		return fmt.Errorf("%w: run 'tidalift auth tidal' first: %v", shared.ErrNotAuthenticated, err)
	}

	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// drainProgress logs progress updates from an engine operation until the
// channel closes.
func (r *Runner) drainProgress(progress <-chan tasks.ProgressUpdate, done chan<- struct{}) {
	for update := range progress {
		r.writePlain("%s\n", update.Message)
	}
	close(done)
}
