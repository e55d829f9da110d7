package shared

import (
	"database/sql"
	"testing"
)

func TestParseMigrationName(t *testing.T) {
	tests := []struct {
		file      string
		version   int
		name      string
		direction string
		ok        bool
	}{
		{file: "0000_create_history_up.sql", version: 0, name: "create_history", direction: "up", ok: true},
		{file: "0012_add_index_down.sql", version: 12, name: "add_index", direction: "down", ok: true},
		{file: "0001_create_history_sideways.sql"},
		{file: "create_history_up.sql"},
		{file: "0001_up.sql"},
		{file: "README.md"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			version, name, direction, ok := parseMigrationName(tt.file)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && (version != tt.version || name != tt.name || direction != tt.direction) {
				t.Errorf("got %d %q %q", version, name, direction)
			}
		})
	}
}

func TestMigrations(t *testing.T) {
	open := func(t *testing.T) *sql.DB {
		t.Helper()
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("NewDatabase() error = %v", err)
		}
		t.Cleanup(func() { db.Close() })
		return db
	}

	t.Run("embedded scripts load in order", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("loadMigrations() error = %v", err)
		}
		if len(migrations) == 0 {
			t.Fatal("no migrations embedded")
		}
		for i, m := range migrations {
			if i > 0 && m.Version <= migrations[i-1].Version {
				t.Errorf("version %d follows %d", m.Version, migrations[i-1].Version)
			}
			if m.Name == "" || m.Up == "" || m.Down == "" {
				t.Errorf("migration %d incomplete: %+v", m.Version, m)
			}
		}
	})

	t.Run("apply then rollback", func(t *testing.T) {
		db := open(t)
		if _, applied, err := SchemaVersion(db); err != nil || applied {
			t.Fatalf("fresh schema applied=%v err=%v", applied, err)
		}
		if err := RunMigrations(db); err != nil {
			t.Fatalf("RunMigrations() error = %v", err)
		}

		for _, table := range []string{"sync_runs", "sync_runs_sequence", "playlist_runs"} {
			if _, err := db.Exec("SELECT 1 FROM " + table + " LIMIT 1"); err != nil {
				t.Errorf("table %s missing: %v", table, err)
			}
		}
		var seq int
		if err := db.QueryRow("SELECT value FROM sync_runs_sequence WHERE id = 1").Scan(&seq); err != nil || seq != 0 {
			t.Errorf("sequence seed = %d, err %v", seq, err)
		}

		if err := RollbackMigration(db); err != nil {
			t.Fatalf("RollbackMigration() error = %v", err)
		}
		if _, err := db.Exec("SELECT 1 FROM sync_runs LIMIT 1"); err == nil {
			t.Error("sync_runs survived rollback")
		}
		if err := RollbackMigration(db); err == nil {
			t.Error("expected error rolling back an empty schema")
		}
	})

	t.Run("second run is a no-op", func(t *testing.T) {
		db := open(t)
		for range 2 {
			if err := RunMigrations(db); err != nil {
				t.Fatalf("RunMigrations() error = %v", err)
			}
		}
		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatal(err)
		}
		migrations, _ := loadMigrations()
		if count != len(migrations) {
			t.Errorf("applied %d, want %d", count, len(migrations))
		}
	})
}
