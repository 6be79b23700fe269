package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/lib/pq"              // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver
)

// Database configuration constants.
const (
	// dirPermissions is the permission mode for the SQLite database directory.
	dirPermissions = 0750

	// filePermissions is the permission mode for the SQLite database file.
	filePermissions = 0600

	// msPerSecond converts seconds to milliseconds.
	msPerSecond = 1000

	// connectionTimeout is the timeout for verifying database connectivity.
	connectionTimeout = 5 * time.Second

	// connMaxIdleTime is how long idle connections are kept open.
	connMaxIdleTime = 30 * time.Minute

	// defaultMaxOpenConns is the pool size for server databases when unset.
	defaultMaxOpenConns = 10

	// memoryPath is SQLite's in-memory database name.
	memoryPath = ":memory:"
)

// DB wraps a sql.DB pool with dialect awareness, migration support,
// health checks and lifecycle management.
type DB struct {
	*sql.DB
	dialect Dialect
	target  string
}

// Config contains database configuration options.
// These map to the database section of config.yaml.
type Config struct {
	// URL identifies the data source. See ParseURL for accepted forms.
	URL string

	// WALMode enables Write-Ahead Logging for better concurrent access (SQLite only).
	WALMode bool

	// BusyTimeout is the maximum time to wait for a database lock in seconds (SQLite only).
	BusyTimeout int

	// MaxOpenConns caps the pool for PostgreSQL and MySQL. Zero means 10.
	// SQLite always uses a single connection (single writer).
	MaxOpenConns int
}

// Open creates a new connection pool for the configured data source.
//
// It performs the following setup:
//  1. Parses the URL into a dialect and driver DSN
//  2. For SQLite: creates the directory and adds busy-timeout/WAL pragmas
//  3. Opens the pool and applies connection limits
//  4. Verifies the connection with a ping
//
// Parameters:
//   - ctx: Context bounding the connectivity check
//   - cfg: Database configuration
//
// Returns:
//   - *DB: Connected database wrapper
//   - error: If parsing, connection or configuration fails
func Open(ctx context.Context, cfg Config) (*DB, error) {
	dialect, dsn, err := ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}

	target := dsn
	if dialect == SQLite {
		target, dsn, err = prepareSQLite(dsn, cfg)
		if err != nil {
			return nil, err
		}
	}

	sqlDB, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	configurePool(sqlDB, dialect, target, cfg)

	db := &DB{
		DB:      sqlDB,
		dialect: dialect,
		target:  target,
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		sqlDB.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("verifying database connection: %w", err)
	}

	if dialect == SQLite && target != memoryPath {
		// Owner read/write only. The file may not exist until the first write.
		_ = os.Chmod(target, filePermissions) //nolint:errcheck // Intentional: first run creates file later
	}

	return db, nil
}

// prepareSQLite ensures the database directory exists and builds the
// go-sqlite3 connection string. It returns the bare file path and the DSN.
// See: https://github.com/mattn/go-sqlite3#connection-string
func prepareSQLite(raw string, cfg Config) (path, dsn string, err error) {
	path, extra, _ := strings.Cut(raw, "?")

	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
			return "", "", fmt.Errorf("creating database directory: %w", err)
		}
	}

	dsn = fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=on",
		path,
		cfg.BusyTimeout*msPerSecond,
	)

	// WAL is meaningless for an in-memory database
	if cfg.WALMode && path != memoryPath {
		dsn += "&_journal_mode=WAL&_synchronous=NORMAL"
	}

	if extra != "" {
		dsn += "&" + extra
	}

	return path, dsn, nil
}

// configurePool applies connection limits appropriate for the dialect.
func configurePool(sqlDB *sql.DB, dialect Dialect, target string, cfg Config) {
	if dialect == SQLite {
		// SQLite works best with a single writer
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)

		// An in-memory database lives only as long as its connection
		if target == memoryPath {
			return
		}
		sqlDB.SetConnMaxLifetime(time.Hour)
		sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
		return
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = defaultMaxOpenConns
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxOpen / 2)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
}

// Close closes the connection pool gracefully.
func (db *DB) Close() error {
	if db.DB == nil {
		return nil
	}
	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// Dialect returns the driver family of this database.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Path returns the SQLite file path, or an empty string for server databases.
func (db *DB) Path() string {
	if db.dialect != SQLite {
		return ""
	}
	return db.target
}

// HealthCheck verifies the database is accessible and functioning.
// It performs a simple query to ensure the connection is alive.
func (db *DB) HealthCheck(ctx context.Context) error {
	var result int
	err := db.DB.QueryRowContext(ctx, "SELECT 1").Scan(&result)
	if err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// ExecContext executes a statement that doesn't return rows.
// Placeholders are written as "?" and rebound for the dialect.
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	result, err := db.DB.ExecContext(ctx, db.dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	return result, nil
}

// QueryContext executes a query that returns rows.
// Placeholders are written as "?" and rebound for the dialect.
func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := db.DB.QueryContext(ctx, db.dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("querying: %w", err)
	}
	return rows, nil
}

// BeginTx starts a new transaction with the given options.
func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	tx, err := db.DB.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	return tx, nil
}
