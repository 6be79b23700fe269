package dbexec

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/nerrad567/itemstore/internal/infrastructure/database"
)

// kindInfer marks a column without a declared type; its kind comes from the scanned value.
const kindInfer Kind = 0

// typeKinds maps upper-cased database type names, length suffix removed, to kinds.
// Names cover what go-sqlite3 (declared type), lib/pq and go-sql-driver/mysql report.
var typeKinds = map[string]Kind{
	"INTEGER":   Integer,
	"INT":       Integer,
	"INT2":      Integer,
	"INT4":      Integer,
	"INT8":      Integer,
	"SMALLINT":  Integer,
	"MEDIUMINT": Integer,
	"BIGINT":    Integer,
	"SERIAL":    Integer,
	"BIGSERIAL": Integer,

	"TEXT":       Text,
	"VARCHAR":    Text,
	"CHAR":       Text,
	"BPCHAR":     Text,
	"CHARACTER":  Text,
	"NCHAR":      Text,
	"NVARCHAR":   Text,
	"CLOB":       Text,
	"TINYTEXT":   Text,
	"MEDIUMTEXT": Text,
	"LONGTEXT":   Text,

	"REAL":             Real,
	"FLOAT":            Real,
	"FLOAT4":           Real,
	"FLOAT8":           Real,
	"DOUBLE":           Real,
	"DOUBLE PRECISION": Real,
	"NUMERIC":          Real,
	"DECIMAL":          Real,

	"BLOB":       Blob,
	"BYTEA":      Blob,
	"BINARY":     Blob,
	"VARBINARY":  Blob,
	"TINYBLOB":   Blob,
	"MEDIUMBLOB": Blob,
	"LONGBLOB":   Blob,

	"BOOLEAN": Bool,
	"BOOL":    Bool,
}

// kindForType resolves a reported column type name to a Kind.
// An empty name resolves to kindInfer. ok is false for unknown names.
func kindForType(dialect database.Dialect, typeName string) (kind Kind, ok bool) {
	name := strings.ToUpper(strings.TrimSpace(typeName))
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = strings.TrimSpace(name[:i])
	}
	name = strings.TrimPrefix(name, "UNSIGNED ")

	if name == "" {
		return kindInfer, true
	}

	// MySQL has no boolean type: BOOLEAN columns are TINYINT(1).
	if name == "TINYINT" {
		if dialect == database.MySQL {
			return Bool, true
		}
		return Integer, true
	}

	kind, ok = typeKinds[name]
	return kind, ok
}

// column is the decode plan for one result column.
type column struct {
	name string
	kind Kind
}

// decodeRows reads every record from rows into Rows.
func decodeRows(rows *sql.Rows, dialect database.Dialect) ([]Row, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("reading column types: %w", err)
	}

	plan := make([]column, len(types))
	for i, ct := range types {
		kind, ok := kindForType(dialect, ct.DatabaseTypeName())
		if !ok {
			return nil, fmt.Errorf("column %q has type %q: %w",
				ct.Name(), ct.DatabaseTypeName(), ErrUnsupportedColumnType)
		}
		plan[i] = column{name: ct.Name(), kind: kind}
	}

	var out []Row
	for rows.Next() {
		dest := make([]any, len(plan))
		for i, c := range plan {
			dest[i] = newScanTarget(c.kind)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning row %d: %w", len(out), err)
		}

		values := make(map[string]Value, len(plan))
		for i, c := range plan {
			v, err := scannedValue(c.kind, dest[i])
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", len(out), c.name, err)
			}
			values[c.name] = v
		}
		out = append(out, Row{values: values})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	return out, nil
}

// newScanTarget returns a Scan destination for kind. database/sql converts
// driver values (for example MySQL's []byte text protocol) into it.
func newScanTarget(kind Kind) any {
	switch kind {
	case Integer:
		return new(sql.NullInt64)
	case Text:
		return new(sql.NullString)
	case Real:
		return new(sql.NullFloat64)
	case Blob:
		return new([]byte)
	case Bool:
		return new(sql.NullBool)
	default:
		return new(any)
	}
}

// scannedValue converts a filled scan target into a Value. NULL becomes the
// zero value of the column's kind.
func scannedValue(kind Kind, target any) (Value, error) {
	switch t := target.(type) {
	case *sql.NullInt64:
		return IntegerValue(t.Int64), nil
	case *sql.NullString:
		return TextValue(t.String), nil
	case *sql.NullFloat64:
		return RealValue(t.Float64), nil
	case *[]byte:
		return BlobValue(*t), nil
	case *sql.NullBool:
		return BoolValue(t.Bool), nil
	case *any:
		return inferValue(*t)
	default:
		return Value{}, fmt.Errorf("no scan target for %s", kind)
	}
}

// inferValue picks a kind for a column with no declared type, such as
// an SQLite expression column. NULL becomes Integer 0.
func inferValue(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return IntegerValue(0), nil
	case int64:
		return IntegerValue(x), nil
	case float64:
		return RealValue(x), nil
	case string:
		return TextValue(x), nil
	case []byte:
		return BlobValue(x), nil
	case bool:
		return BoolValue(x), nil
	default:
		return Value{}, fmt.Errorf("value of Go type %T: %w", v, ErrUnsupportedColumnType)
	}
}
