package dbexec

import (
	"context"
	"database/sql"
	"strings"
	"sync"

	"github.com/nerrad567/itemstore/internal/infrastructure/database"
)

// SQLExecutor is the production Executor over a pooled database/sql connection.
//
// Lifecycle: Disconnected -> Connected -> Closed. There is no reconnect; a
// closed executor cannot be connected again.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - Each operation holds its own *sql.Conn for the duration of one statement.
type SQLExecutor struct {
	cfg database.Config

	mu     sync.RWMutex
	db     *database.DB
	closed bool
}

// NewSQLExecutor returns a disconnected executor for cfg.
// No I/O happens until Connect.
func NewSQLExecutor(cfg database.Config) *SQLExecutor {
	return &SQLExecutor{cfg: cfg}
}

// Connect opens and verifies the connection pool.
// Calling Connect on a connected executor does nothing.
func (e *SQLExecutor) Connect(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return &Error{Message: "connect", Err: ErrAlreadyClosed}
	}
	if e.db != nil {
		return nil
	}

	db, err := database.Open(ctx, e.cfg)
	if err != nil {
		return &Error{Message: "connect", Err: err}
	}
	e.db = db
	return nil
}

// Close releases the pool. Further operations fail with ErrNotConnected.
func (e *SQLExecutor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	if e.db == nil {
		return nil
	}
	db := e.db
	e.db = nil
	if err := db.Close(); err != nil {
		return &Error{Message: "close", Err: err}
	}
	return nil
}

// IsConnected reports whether Connect succeeded and Close has not been called.
func (e *SQLExecutor) IsConnected() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.db != nil
}

// DB returns the underlying pool for maintenance tasks such as migrations,
// or nil when not connected.
func (e *SQLExecutor) DB() *database.DB {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.db
}

// Insert executes a write and returns the generated id.
//
// SQLite and MySQL report the id through LastInsertId. PostgreSQL has no such
// call, so "RETURNING id" is appended when the statement lacks a RETURNING
// clause and the id is scanned from the result.
func (e *SQLExecutor) Insert(ctx context.Context, query string, args ...any) (int64, error) {
	db, conn, err := e.acquire(ctx, OpInsert)
	if err != nil {
		return 0, err
	}
	defer conn.Close() //nolint:errcheck // Returns the connection to the pool

	dialect := db.Dialect()

	if !dialect.SupportsLastInsertID() {
		var id int64
		err := conn.QueryRowContext(ctx, dialect.Rebind(withReturningID(query)), args...).Scan(&id)
		if err != nil {
			return 0, wrap(OpInsert, err)
		}
		return id, nil
	}

	result, err := conn.ExecContext(ctx, dialect.Rebind(query), args...)
	if err != nil {
		return 0, wrap(OpInsert, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, wrap(OpInsert, err)
	}
	return id, nil
}

// Update executes a write and returns the affected row count.
func (e *SQLExecutor) Update(ctx context.Context, query string, args ...any) (int64, error) {
	return e.exec(ctx, OpUpdate, query, args)
}

// Delete executes a write and returns the affected row count.
func (e *SQLExecutor) Delete(ctx context.Context, query string, args ...any) (int64, error) {
	return e.exec(ctx, OpDelete, query, args)
}

// Select executes a query and decodes all records.
// One undecodable column fails the whole call.
func (e *SQLExecutor) Select(ctx context.Context, query string, args ...any) ([]Row, error) {
	db, conn, err := e.acquire(ctx, OpSelect)
	if err != nil {
		return nil, err
	}
	defer conn.Close() //nolint:errcheck // Returns the connection to the pool

	rows, err := conn.QueryContext(ctx, db.Dialect().Rebind(query), args...)
	if err != nil {
		return nil, wrap(OpSelect, err)
	}
	defer rows.Close()

	decoded, err := decodeRows(rows, db.Dialect())
	if err != nil {
		return nil, wrap(OpSelect, err)
	}
	return decoded, nil
}

func (e *SQLExecutor) exec(ctx context.Context, op, query string, args []any) (int64, error) {
	db, conn, err := e.acquire(ctx, op)
	if err != nil {
		return 0, err
	}
	defer conn.Close() //nolint:errcheck // Returns the connection to the pool

	result, err := conn.ExecContext(ctx, db.Dialect().Rebind(query), args...)
	if err != nil {
		return 0, wrap(op, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, wrap(op, err)
	}
	return n, nil
}

// acquire takes a dedicated connection from the pool. The caller must close it.
func (e *SQLExecutor) acquire(ctx context.Context, op string) (*database.DB, *sql.Conn, error) {
	e.mu.RLock()
	db := e.db
	e.mu.RUnlock()

	if db == nil {
		return nil, nil, &Error{Message: op, Err: ErrNotConnected}
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, nil, wrap(op, err)
	}
	return db, conn, nil
}

// withReturningID appends "RETURNING id" unless the statement already has a
// RETURNING clause.
func withReturningID(query string) string {
	if hasKeyword(query, "RETURNING") {
		return query
	}
	return strings.TrimRight(query, "; \t\r\n") + " RETURNING id"
}

// hasKeyword reports whether keyword appears in query as a whole word outside
// quoted literals and identifiers. Identifiers such as returning_at do not match.
func hasKeyword(query, keyword string) bool {
	var quote byte
	start := -1

	for i := 0; i <= len(query); i++ {
		var ch byte
		if i < len(query) {
			ch = query[i]
		}

		if quote != 0 {
			if ch == quote {
				quote = 0
			}
			continue
		}

		if isWordByte(ch) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 && strings.EqualFold(query[start:i], keyword) {
			return true
		}
		start = -1

		if ch == '\'' || ch == '"' || ch == '`' {
			quote = ch
		}
	}
	return false
}

func isWordByte(ch byte) bool {
	return ch == '_' || ch == '$' ||
		('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ('0' <= ch && ch <= '9')
}
