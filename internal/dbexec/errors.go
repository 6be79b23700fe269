package dbexec

import "errors"

// Sentinel causes carried by *Error.
//
// Check them with errors.Is:
//
//	if errors.Is(err, dbexec.ErrNotConnected) {
//	    // Connect was never called
//	}
var (
	// ErrNotConnected is returned by every operation before Connect succeeds or after Close.
	ErrNotConnected = errors.New("database is not connected: call Connect first")

	// ErrAlreadyClosed is returned by Connect after Close.
	ErrAlreadyClosed = errors.New("executor already closed")

	// ErrColumnNotFound is returned by Row accessors for an absent column.
	ErrColumnNotFound = errors.New("column not found")

	// ErrTypeMismatch is returned by Row accessors when the stored kind differs.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrUnsupportedColumnType is returned by Select when a column's declared
	// type has no Kind.
	ErrUnsupportedColumnType = errors.New("unsupported column type")
)

// Error is the only error type that crosses the Executor boundary.
//
// Message describes what failed; Err is the underlying cause, either one of
// the sentinels above or the driver's own error.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil:
		return e.Message
	case e.Message == "":
		return e.Err.Error()
	default:
		return e.Message + ": " + e.Err.Error()
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// wrap converts err into an *Error for op. An existing *Error is returned unchanged.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Message: op, Err: err}
}
