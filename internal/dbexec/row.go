package dbexec

import (
	"fmt"
	"sort"
)

// Row is one decoded record: column name to Value.
//
// Rows are built once by the executor and only read afterwards. Accessors
// return *Error wrapping ErrColumnNotFound or ErrTypeMismatch rather than
// panicking, so callers can reject malformed rows.
type Row struct {
	values map[string]Value
}

// NewRow returns a Row holding a copy of values.
func NewRow(values map[string]Value) Row {
	m := make(map[string]Value, len(values))
	for name, v := range values {
		m[name] = v
	}
	return Row{values: m}
}

// Len returns the number of columns.
func (r Row) Len() int {
	return len(r.values)
}

// Columns returns the column names in sorted order.
func (r Row) Columns() []string {
	names := make([]string, 0, len(r.values))
	for name := range r.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Value returns the raw value of column and whether it is present.
func (r Row) Value(column string) (Value, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Integer returns the Integer stored in column.
func (r Row) Integer(column string) (int64, error) {
	v, err := r.lookup(column, Integer)
	if err != nil {
		return 0, err
	}
	return v.i, nil
}

// Text returns the Text stored in column.
func (r Row) Text(column string) (string, error) {
	v, err := r.lookup(column, Text)
	if err != nil {
		return "", err
	}
	return v.s, nil
}

// Real returns the Real stored in column.
func (r Row) Real(column string) (float64, error) {
	v, err := r.lookup(column, Real)
	if err != nil {
		return 0, err
	}
	return v.f, nil
}

// Blob returns a copy of the Blob stored in column. It is never nil.
func (r Row) Blob(column string) ([]byte, error) {
	v, err := r.lookup(column, Blob)
	if err != nil {
		return nil, err
	}
	b := make([]byte, len(v.b))
	copy(b, v.b)
	return b, nil
}

// Bool returns the Bool stored in column.
func (r Row) Bool(column string) (bool, error) {
	v, err := r.lookup(column, Bool)
	if err != nil {
		return false, err
	}
	return v.t, nil
}

func (r Row) lookup(column string, want Kind) (Value, error) {
	v, ok := r.values[column]
	if !ok {
		return Value{}, &Error{
			Message: fmt.Sprintf("column %q", column),
			Err:     ErrColumnNotFound,
		}
	}
	if v.kind != want {
		return Value{}, &Error{
			Message: fmt.Sprintf("column %q is not %s (stored %s)", column, want, v.kind),
			Err:     ErrTypeMismatch,
		}
	}
	return v, nil
}
