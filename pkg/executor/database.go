package executor

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/pkg/errors"
	"github.com/pseudomuto/hush/pkg/sqlgen"
	"github.com/pseudomuto/hush/pkg/statement"
)

// Database executes statements against a live database connection.
type Database struct {
	conn Conn
	gen  *sqlgen.Generator
}

// NewDatabase creates a Database executor that generates SQL for dialect and
// runs it on conn.
func NewDatabase(conn Conn, dialect *sqlgen.Dialect) *Database {
	return &Database{
		conn: conn,
		gen:  sqlgen.New(dialect),
	}
}

func (e *Database) Kind() Kind            { return KindDatabase }
func (e *Database) UpdatesDatabase() bool { return true }

// Dialect returns the dialect statements are generated for.
func (e *Database) Dialect() *sqlgen.Dialect {
	return e.gen.Dialect()
}

func (e *Database) QueryForObject(ctx context.Context, stmt statement.Statement, dest any, visitors ...statement.Visitor) error {
	rows, err := e.query(ctx, stmt, visitors)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return errors.Wrapf(err, "failed to read %s result", stmt.StatementName())
		}
		return ErrNoRows
	}

	if err := rows.Scan(dest); err != nil {
		return errors.Wrapf(err, "failed to scan %s result", stmt.StatementName())
	}

	return nil
}

func (e *Database) QueryForLong(ctx context.Context, stmt statement.Statement, visitors ...statement.Visitor) (int64, error) {
	var v any
	if err := e.QueryForObject(ctx, stmt, &v, visitors...); err != nil {
		return 0, err
	}

	return toInt64(v)
}

func (e *Database) QueryForInt(ctx context.Context, stmt statement.Statement, visitors ...statement.Visitor) (int, error) {
	n, err := e.QueryForLong(ctx, stmt, visitors...)
	return int(n), err
}

func (e *Database) QueryForColumn(ctx context.Context, stmt statement.Statement, visitors ...statement.Visitor) ([]any, error) {
	rows, err := e.query(ctx, stmt, visitors)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var values []any
	for rows.Next() {
		var v any
		if err := rows.Scan(&v); err != nil {
			return nil, errors.Wrapf(err, "failed to scan %s result", stmt.StatementName())
		}
		values = append(values, v)
	}

	return values, errors.Wrapf(rows.Err(), "failed to read %s result", stmt.StatementName())
}

func (e *Database) QueryForList(ctx context.Context, stmt statement.Statement, visitors ...statement.Visitor) ([]map[string]any, error) {
	rows, err := e.query(ctx, stmt, visitors)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read result columns")
	}

	var list []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, errors.Wrapf(err, "failed to scan %s result", stmt.StatementName())
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		list = append(list, row)
	}

	return list, errors.Wrapf(rows.Err(), "failed to read %s result", stmt.StatementName())
}

func (e *Database) Execute(ctx context.Context, stmt statement.Statement, visitors ...statement.Visitor) error {
	_, err := e.Update(ctx, stmt, visitors...)
	return err
}

func (e *Database) Update(ctx context.Context, stmt statement.Statement, visitors ...statement.Visitor) (int64, error) {
	lines, err := e.gen.Render(ctx, stmt, e, visitors...)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to generate %s", stmt.StatementName())
	}

	var affected int64
	for _, line := range lines {
		slog.Debug("Executing statement", "dialect", e.gen.Dialect().Name, "sql", line)

		n, err := e.conn.Exec(ctx, line)
		if err != nil {
			return affected, errors.Wrapf(err, "failed to execute statement: %s", line)
		}
		affected += n
	}

	return affected, nil
}

// Comment has no database representation, so it goes to the log.
func (e *Database) Comment(_ context.Context, message string) error {
	slog.Info("-- " + message)
	return nil
}

func (e *Database) query(ctx context.Context, stmt statement.Statement, visitors []statement.Visitor) (Rows, error) {
	lines, err := e.gen.Render(ctx, stmt, e, visitors...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to generate %s", stmt.StatementName())
	}

	if len(lines) != 1 {
		return nil, errors.Errorf("%s generated %d statements, a query needs exactly one", stmt.StatementName(), len(lines))
	}

	slog.Debug("Running query", "dialect", e.gen.Dialect().Name, "sql", lines[0])

	rows, err := e.conn.Query(ctx, lines[0])
	if err != nil {
		return nil, errors.Wrapf(err, "failed to run query: %s", lines[0])
	}

	return rows, nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case []byte:
		return strconv.ParseInt(string(n), 10, 64)
	case string:
		return strconv.ParseInt(n, 10, 64)
	case nil:
		return 0, errors.New("query returned NULL")
	default:
		return 0, errors.Errorf("cannot convert %T to a number", v)
	}
}
