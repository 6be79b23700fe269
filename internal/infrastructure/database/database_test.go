package database

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestOpen verifies database connection establishment.
func TestOpen(t *testing.T) {
	t.Run("creates database file", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "test.db")

		db, err := Open(context.Background(), Config{
			URL:         "sqlite:" + dbPath,
			WALMode:     true,
			BusyTimeout: 5,
		})
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer db.Close() //nolint:errcheck // Test cleanup

		// WAL mode forces the file into existence on open
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
	})

	t.Run("creates directory if not exists", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "subdir", "nested", "test.db")

		db, err := Open(context.Background(), Config{
			URL:         dbPath,
			WALMode:     true,
			BusyTimeout: 5,
		})
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer db.Close() //nolint:errcheck // Test cleanup

		if _, err := os.Stat(filepath.Dir(dbPath)); os.IsNotExist(err) {
			t.Error("database directory was not created")
		}
	})

	t.Run("returns path and dialect", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "test.db")

		db, err := Open(context.Background(), Config{URL: "sqlite://" + dbPath, BusyTimeout: 5})
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer db.Close() //nolint:errcheck // Test cleanup

		if db.Path() != dbPath {
			t.Errorf("Path() = %v, want %v", db.Path(), dbPath)
		}
		if db.Dialect() != SQLite {
			t.Errorf("Dialect() = %v, want %v", db.Dialect(), SQLite)
		}
	})

	t.Run("in-memory database", func(t *testing.T) {
		db, err := Open(context.Background(), Config{URL: "sqlite::memory:", WALMode: true})
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer db.Close() //nolint:errcheck // Test cleanup

		if db.Path() != ":memory:" {
			t.Errorf("Path() = %q, want %q", db.Path(), ":memory:")
		}
	})

	t.Run("rejects unknown scheme", func(t *testing.T) {
		_, err := Open(context.Background(), Config{URL: "redis://localhost:6379"})
		if err == nil {
			t.Fatal("Open() expected error for unsupported scheme")
		}
	})

	t.Run("rejects empty url", func(t *testing.T) {
		if _, err := Open(context.Background(), Config{}); err == nil {
			t.Fatal("Open() expected error for empty url")
		}
	})
}

// TestPrepareSQLite verifies the go-sqlite3 connection string.
func TestPrepareSQLite(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		raw      string
		cfg      Config
		wantPath string
		wantDSN  []string
		notDSN   []string
	}{
		{
			name:     "wal and busy timeout",
			raw:      filepath.Join(dir, "a.db"),
			cfg:      Config{WALMode: true, BusyTimeout: 5},
			wantPath: filepath.Join(dir, "a.db"),
			wantDSN:  []string{"file:" + filepath.Join(dir, "a.db") + "?", "_busy_timeout=5000", "_foreign_keys=on", "_journal_mode=WAL"},
		},
		{
			name:     "without wal",
			raw:      filepath.Join(dir, "b.db"),
			cfg:      Config{BusyTimeout: 1},
			wantPath: filepath.Join(dir, "b.db"),
			wantDSN:  []string{"_busy_timeout=1000"},
			notDSN:   []string{"_journal_mode"},
		},
		{
			name:     "memory ignores wal",
			raw:      ":memory:",
			cfg:      Config{WALMode: true},
			wantPath: ":memory:",
			wantDSN:  []string{"file::memory:?"},
			notDSN:   []string{"_journal_mode"},
		},
		{
			name:     "keeps caller parameters",
			raw:      filepath.Join(dir, "c.db") + "?cache=shared",
			cfg:      Config{},
			wantPath: filepath.Join(dir, "c.db"),
			wantDSN:  []string{"&cache=shared"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, dsn, err := prepareSQLite(tt.raw, tt.cfg)
			if err != nil {
				t.Fatalf("prepareSQLite() error = %v", err)
			}
			if path != tt.wantPath {
				t.Errorf("path = %q, want %q", path, tt.wantPath)
			}
			for _, want := range tt.wantDSN {
				if !strings.Contains(dsn, want) {
					t.Errorf("dsn %q missing %q", dsn, want)
				}
			}
			for _, bad := range tt.notDSN {
				if strings.Contains(dsn, bad) {
					t.Errorf("dsn %q unexpectedly contains %q", dsn, bad)
				}
			}
		})
	}
}

// TestHealthCheck verifies the health check functionality.
func TestHealthCheck(t *testing.T) {
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

// TestClose verifies graceful shutdown.
func TestClose(t *testing.T) {
	db := openTestDB(t)

	if err := db.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	db.DB = nil
	if err := db.Close(); err != nil {
		t.Errorf("Close() on nil DB error = %v", err)
	}
}

// TestExecContext verifies statement execution and placeholder handling.
func TestExecContext(t *testing.T) {
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	ctx := context.Background()

	_, err := db.ExecContext(ctx, `
		CREATE TABLE test_table (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL
		)
	`)
	if err != nil {
		t.Fatalf("ExecContext() CREATE error = %v", err)
	}

	result, err := db.ExecContext(ctx, "INSERT INTO test_table (name) VALUES (?)", "test")
	if err != nil {
		t.Fatalf("ExecContext() INSERT error = %v", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		t.Fatalf("LastInsertId() error = %v", err)
	}
	if id != 1 {
		t.Errorf("LastInsertId() = %v, want 1", id)
	}

	rows, err := db.QueryContext(ctx, "SELECT name FROM test_table WHERE id = ?", id)
	if err != nil {
		t.Fatalf("QueryContext() error = %v", err)
	}
	defer rows.Close()

	if !rows.Next() {
		t.Fatal("expected one row")
	}
	var name string
	if err := rows.Scan(&name); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if name != "test" {
		t.Errorf("name = %q, want %q", name, "test")
	}
}

// TestExecContextError verifies driver errors are wrapped.
func TestExecContextError(t *testing.T) {
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	_, err := db.ExecContext(context.Background(), "INSERT INTO missing_table (x) VALUES (?)", 1)
	if err == nil {
		t.Fatal("ExecContext() expected error for missing table")
	}
	if !strings.Contains(err.Error(), "executing query") {
		t.Errorf("error = %v, want executing query prefix", err)
	}
}

// TestBeginTxRollback verifies transaction rollback.
func TestBeginTxRollback(t *testing.T) {
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	ctx := context.Background()

	_, err := db.ExecContext(ctx, "CREATE TABLE tx_rollback_test (id INTEGER PRIMARY KEY, value TEXT)")
	if err != nil {
		t.Fatalf("CREATE TABLE error = %v", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("BeginTx() error = %v", err)
	}

	_, err = tx.ExecContext(ctx, "INSERT INTO tx_rollback_test (value) VALUES (?)", "rolled_back")
	if err != nil {
		t.Fatalf("INSERT error = %v", err)
	}

	if err = tx.Rollback(); err != nil {
		t.Fatalf("Rollback() error = %v", err)
	}

	var count int
	err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tx_rollback_test WHERE value = ?", "rolled_back").Scan(&count)
	if err != nil {
		t.Fatalf("SELECT error = %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 rows, got %d", count)
	}
}

// TestStats verifies the SQLite pool is limited to one connection.
func TestStats(t *testing.T) {
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	stats := db.Stats()
	if stats.MaxOpenConnections != 1 {
		t.Errorf("MaxOpenConnections = %v, want 1 (SQLite single writer)", stats.MaxOpenConnections)
	}
}

// openTestDB creates a temporary database for testing.
func openTestDB(t *testing.T) *DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := Open(context.Background(), Config{
		URL:         "sqlite:" + dbPath,
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	return db
}
