// Package database provides SQL connectivity for itemstore.
//
// One URL selects the backend:
//   - SQLite via github.com/mattn/go-sqlite3 (default, single-writer pool, WAL)
//   - PostgreSQL via github.com/lib/pq
//   - MySQL via github.com/go-sql-driver/mysql
//
// Statements are always written with "?" placeholders. ExecContext and
// QueryContext rebind them for the dialect, so callers never build SQL
// strings from values.
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{URL: "sqlite:./data/items.db", WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migrations:
//
// Files live in MigrationsFS under MigrationsDir/<driver name>/ and are named
// YYYYMMDD_HHMMSS_description.{up,down}.sql. Applied versions are recorded in
// the schema_migrations table. Each migration runs in its own transaction.
//
// Security Considerations:
//   - All queries use parameterised statements
//   - SQLite database files are set to 0600 (owner read/write only)
package database
