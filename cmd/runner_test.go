package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/tidalift/internal/services"
	"github.com/desertthunder/tidalift/internal/shared"
	"github.com/desertthunder/tidalift/internal/snapshot"
	"github.com/desertthunder/tidalift/internal/tasks"
	tu "github.com/desertthunder/tidalift/internal/testing"
	"github.com/urfave/cli/v3"
)

func testRunner(t *testing.T) (*Runner, *bytes.Buffer) {
	t.Helper()

	store, err := snapshot.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	config := shared.DefaultConfig()
	config.Database.Path = filepath.Join(t.TempDir(), "test.db")

	var buf bytes.Buffer
	runner := NewRunner(RunnerOpts{
		Config:  config,
		Spotify: &tu.MockExporter{},
		Tidal:   &tu.MockImporter{},
		Store:   store,
		Output:  &buf,
	})

	return runner, &buf
}

func TestNewRunner(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		store, err := snapshot.NewStore(t.TempDir())
		if err != nil {
			t.Fatalf("failed to create store: %v", err)
		}

		runner := NewRunner(RunnerOpts{Store: store})

		if runner.config == nil {
			t.Error("expected default config")
		}
		if runner.logger == nil {
			t.Error("expected default logger")
		}
		if runner.output == nil {
			t.Error("expected default output")
		}
		if runner.engine == nil {
			t.Error("expected engine to be constructed")
		}
	})

	t.Run("tidal service doubles as importer", func(t *testing.T) {
		store, err := snapshot.NewStore(t.TempDir())
		if err != nil {
			t.Fatalf("failed to create store: %v", err)
		}

		svc := newTestTidalService(t)
		runner := NewRunner(RunnerOpts{Store: store, TidalSvc: svc})

		if runner.tidal == nil {
			t.Error("expected tidal importer to default to the service")
		}
	})

	t.Run("registers all commands", func(t *testing.T) {
		runner, _ := testRunner(t)

		commands := runner.register()
		want := []string{"setup", "auth", "collect", "export", "check", "migrate", "report", "cache", "tui"}
		if len(commands) != len(want) {
			t.Fatalf("got %d commands, want %d", len(commands), len(want))
		}
		for i, name := range want {
			if commands[i].Name != name {
				t.Errorf("commands[%d] = %q, want %q", i, commands[i].Name, name)
			}
		}
	})
}

func newTestTidalService(t *testing.T) *services.TidalService {
	t.Helper()
	return services.NewTidalService(shared.TidalConfig{
		ClientID:    "test",
		SessionPath: filepath.Join(t.TempDir(), "session.json"),
	})
}

func TestWriteJSON(t *testing.T) {
	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	t.Run("compact", func(t *testing.T) {
		runner, buf := testRunner(t)

		if err := runner.writeJSON(payload{Name: "x", Count: 2}, false); err != nil {
			t.Fatalf("writeJSON failed: %v", err)
		}
		if got := buf.String(); got != `{"name":"x","count":2}`+"\n" {
			t.Errorf("output = %q", got)
		}
	})

	t.Run("pretty", func(t *testing.T) {
		runner, buf := testRunner(t)

		if err := runner.writeJSON(payload{Name: "x", Count: 2}, true); err != nil {
			t.Fatalf("writeJSON failed: %v", err)
		}
		if !strings.Contains(buf.String(), "  \"name\": \"x\"") {
			t.Errorf("output = %q", buf.String())
		}
	})

	t.Run("unmarshalable payload errors", func(t *testing.T) {
		runner, _ := testRunner(t)

		if err := runner.writeJSON(make(chan int), false); err == nil {
			t.Error("expected marshal error")
		}
	})

	t.Run("write failure propagates", func(t *testing.T) {
		runner, _ := testRunner(t)
		runner.output = &tu.FWriter{}

		if err := runner.writeJSON(payload{}, false); err == nil {
			t.Error("expected write error")
		}
	})

	t.Run("newline write failure propagates", func(t *testing.T) {
		runner, _ := testRunner(t)
		var buf bytes.Buffer
		limited := tu.NewLimitedWriter(1, 0, &buf)
		runner.output = &limited

		if err := runner.writeJSON(payload{}, false); err == nil {
			t.Error("expected write error on newline")
		}
	})
}

func TestWritePlain(t *testing.T) {
	runner, buf := testRunner(t)

	if err := runner.writePlain("count: %d\n", 3); err != nil {
		t.Fatalf("writePlain failed: %v", err)
	}
	if buf.String() != "count: 3\n" {
		t.Errorf("output = %q", buf.String())
	}

	buf.Reset()
	if err := runner.writePlainln("done"); err != nil {
		t.Fatalf("writePlainln failed: %v", err)
	}
	if buf.String() != "\ndone\n" {
		t.Errorf("output = %q", buf.String())
	}

	buf.Reset()
	runner.writePlainHeader("Title")
	if !strings.Contains(buf.String(), "Title") {
		t.Errorf("header output = %q", buf.String())
	}

	runner.output = &tu.FWriter{}
	if err := runner.writePlain("x"); err == nil {
		t.Error("expected write error")
	}
}

func TestDrainProgress(t *testing.T) {
	runner, buf := testRunner(t)

	progress := make(chan tasks.ProgressUpdate, 3)
	done := make(chan struct{})

	go runner.drainProgress(progress, done)

	progress <- tasks.ProgressUpdate{Message: "first"}
	progress <- tasks.ProgressUpdate{Message: "second"}
	close(progress)
	<-done

	out := buf.String()
	if !strings.Contains(out, "first") || !strings.Contains(out, "second") {
		t.Errorf("output = %q", out)
	}
}

func TestCachedEngine(t *testing.T) {
	runCachedEngine := func(t *testing.T, runner *Runner, args []string) (engine *tasks.MigrationEngine, cleanup func()) {
		t.Helper()

		cmd := &cli.Command{
			Name:  "test",
			Flags: []cli.Flag{&cli.BoolFlag{Name: "no-cache"}},
			Action: func(ctx context.Context, c *cli.Command) error {
				engine, cleanup = runner.cachedEngine(c)
				return nil
			},
		}
		if err := cmd.Run(context.Background(), args); err != nil {
			t.Fatalf("command failed: %v", err)
		}
		return engine, cleanup
	}

	t.Run("no-cache returns default engine", func(t *testing.T) {
		runner, _ := testRunner(t)

		engine, cleanup := runCachedEngine(t, runner, []string{"test", "--no-cache"})
		defer cleanup()

		if engine != runner.engine {
			t.Error("expected the default engine when cache is disabled")
		}
	})

	t.Run("cache enabled builds a backed engine", func(t *testing.T) {
		runner, _ := testRunner(t)

		engine, cleanup := runCachedEngine(t, runner, []string{"test"})
		defer cleanup()

		if engine == runner.engine {
			t.Error("expected a cache-backed engine")
		}
	})

	t.Run("unavailable database falls back", func(t *testing.T) {
		runner, _ := testRunner(t)
		runner.config.Database.Path = filepath.Join(t.TempDir(), "missing-dir", "nested", "test.db")

		engine, cleanup := runCachedEngine(t, runner, []string{"test"})
		defer cleanup()

		if engine != runner.engine {
			t.Error("expected fallback to the default engine")
		}
	})
}

func TestEnsureTidal(t *testing.T) {
	t.Run("fails when importer missing", func(t *testing.T) {
		runner, _ := testRunner(t)
		runner.tidal = nil

		err := runner.ensureTidal(context.Background())
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("err = %v, want ErrServiceUnavailable", err)
		}
	})

	t.Run("mock importer without session check passes", func(t *testing.T) {
		runner, _ := testRunner(t)

		if err := runner.ensureTidal(context.Background()); err != nil {
			t.Errorf("ensureTidal failed: %v", err)
		}
	})

	t.Run("real service without session fails", func(t *testing.T) {
		runner, _ := testRunner(t)
		runner.tidalSvc = newTestTidalService(t)
		runner.tidal = runner.tidalSvc

		err := runner.ensureTidal(context.Background())
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("err = %v, want ErrNotAuthenticated", err)
		}
	})
}
