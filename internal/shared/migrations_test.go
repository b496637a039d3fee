package shared

import (
	"database/sql"
	"testing"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// a second pooled connection would see a different in-memory database
	db.SetMaxOpenConns(1)
	return db
}

func TestLoadMigrations(t *testing.T) {
	migrations, err := loadMigrations()
	if err != nil {
		t.Fatalf("loadMigrations failed: %v", err)
	}

	if len(migrations) == 0 {
		t.Fatal("expected at least one migration")
	}

	for i, migration := range migrations {
		if migration.Up == "" || migration.Down == "" {
			t.Errorf("migration %d incomplete", migration.Version)
		}
		if i > 0 && migrations[i-1].Version >= migration.Version {
			t.Error("migrations not sorted by version")
		}
	}
}

func TestRunMigrations(t *testing.T) {
	db := testDB(t)

	if err := RunMigrations(db); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}

	for _, table := range []string{"artists", "track_matches", "schema_migrations"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing after migration: %v", table, err)
		}
	}

	t.Run("idempotent", func(t *testing.T) {
		if err := RunMigrations(db); err != nil {
			t.Errorf("second RunMigrations failed: %v", err)
		}
	})
}

func TestRollbackMigration(t *testing.T) {
	db := testDB(t)

	if err := RunMigrations(db); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}

	if err := RollbackMigration(db); err != nil {
		t.Fatalf("RollbackMigration failed: %v", err)
	}

	var name string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='artists'").Scan(&name)
	if err != sql.ErrNoRows {
		t.Errorf("artists table should be dropped after rollback, got %v", err)
	}
}

func TestNewDatabase(t *testing.T) {
	t.Run("in memory", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("NewDatabase failed: %v", err)
		}
		defer db.Close()

		if err := db.Ping(); err != nil {
			t.Errorf("ping failed: %v", err)
		}
	})

	t.Run("configure pool", func(t *testing.T) {
		db := testDB(t)
		ConfigureDatabase(db, 5, 2)

		if db.Stats().MaxOpenConnections != 5 {
			t.Errorf("MaxOpenConnections = %d, want 5", db.Stats().MaxOpenConnections)
		}
	})
}
