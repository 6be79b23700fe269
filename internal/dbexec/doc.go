// Package dbexec is the statement-execution boundary between repositories
// and the SQL driver.
//
// It defines:
//   - Value and Row: a closed set of column value kinds (Integer, Text, Real,
//     Blob, Bool) and a decoded record keyed by column name
//   - Executor: insert/update/delete/select against some database
//   - SQLExecutor: the production Executor over a database/sql pool
//   - Instrumented: an Executor decorator that records timings
//   - Error: the single error type returned across the boundary
//
// Statements are written with "?" placeholders and every value is passed as
// an argument, bound positionally in the order given. Byte slices bind as
// blobs.
//
// Usage:
//
//	exec := dbexec.NewSQLExecutor(database.Config{URL: "sqlite:./data/items.db"})
//	if err := exec.Connect(ctx); err != nil {
//	    return err
//	}
//	defer exec.Close()
//
//	rows, err := exec.Select(ctx, "SELECT id, descr FROM item WHERE active = ?", true)
//	for _, row := range rows {
//	    descr, err := row.Text("descr")
//	    ...
//	}
//
// Row accessors never panic: a missing column yields ErrColumnNotFound and a
// kind mismatch yields ErrTypeMismatch, both wrapped in *Error.
package dbexec
