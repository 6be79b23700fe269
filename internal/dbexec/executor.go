package dbexec

import "context"

// Operation names used in errors, logs and metrics.
const (
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
	OpSelect = "select"
)

// Executor runs single statements against a database.
//
// Statements use "?" placeholders. args are bound positionally in the order
// given; with no args nothing is bound. Every call is atomic at the statement
// level: there is no implicit transaction spanning calls and no retry.
// Failures are returned as *Error.
//
// Implementations must be safe for concurrent use.
type Executor interface {
	// Insert executes a write and returns the database-generated row id.
	Insert(ctx context.Context, query string, args ...any) (int64, error)

	// Update executes a write and returns the number of affected rows.
	// Zero affected rows is not an error.
	Update(ctx context.Context, query string, args ...any) (int64, error)

	// Delete executes a write and returns the number of affected rows.
	// Zero affected rows is not an error.
	Delete(ctx context.Context, query string, args ...any) (int64, error)

	// Select executes a query and decodes every returned record.
	Select(ctx context.Context, query string, args ...any) ([]Row, error)
}
