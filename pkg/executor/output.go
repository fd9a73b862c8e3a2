package executor

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/pseudomuto/hush/pkg/sqlgen"
	"github.com/pseudomuto/hush/pkg/statement"
)

// Output renders statements as a SQL script instead of running them.
//
// Reads are delegated to an optional reader so changes that need to look at
// the current database state still work while producing a script.
type Output struct {
	w      io.Writer
	gen    *sqlgen.Generator
	reader Executor
}

// NewOutput creates an Output executor writing dialect SQL to w. reader may be
// nil, in which case every read fails with ErrNoReadAccess.
func NewOutput(w io.Writer, dialect *sqlgen.Dialect, reader Executor) *Output {
	return &Output{
		w:      w,
		gen:    sqlgen.New(dialect),
		reader: reader,
	}
}

func (e *Output) Kind() Kind            { return KindOutput }
func (e *Output) UpdatesDatabase() bool { return false }

// Dialect returns the dialect statements are rendered in.
func (e *Output) Dialect() *sqlgen.Dialect {
	return e.gen.Dialect()
}

func (e *Output) QueryForObject(ctx context.Context, stmt statement.Statement, dest any, visitors ...statement.Visitor) error {
	if e.reader == nil {
		return e.noReadAccess(stmt)
	}
	return e.reader.QueryForObject(ctx, stmt, dest, visitors...)
}

func (e *Output) QueryForLong(ctx context.Context, stmt statement.Statement, visitors ...statement.Visitor) (int64, error) {
	if e.reader == nil {
		return 0, e.noReadAccess(stmt)
	}
	return e.reader.QueryForLong(ctx, stmt, visitors...)
}

func (e *Output) QueryForInt(ctx context.Context, stmt statement.Statement, visitors ...statement.Visitor) (int, error) {
	if e.reader == nil {
		return 0, e.noReadAccess(stmt)
	}
	return e.reader.QueryForInt(ctx, stmt, visitors...)
}

func (e *Output) QueryForColumn(ctx context.Context, stmt statement.Statement, visitors ...statement.Visitor) ([]any, error) {
	if e.reader == nil {
		return nil, e.noReadAccess(stmt)
	}
	return e.reader.QueryForColumn(ctx, stmt, visitors...)
}

func (e *Output) QueryForList(ctx context.Context, stmt statement.Statement, visitors ...statement.Visitor) ([]map[string]any, error) {
	if e.reader == nil {
		return nil, e.noReadAccess(stmt)
	}
	return e.reader.QueryForList(ctx, stmt, visitors...)
}

func (e *Output) Execute(ctx context.Context, stmt statement.Statement, visitors ...statement.Visitor) error {
	return e.write(ctx, stmt, visitors)
}

// Update renders stmt and reports zero affected rows. Lock bookkeeping isn't
// rendered at all and reports the one row the lock protocol expects.
func (e *Output) Update(ctx context.Context, stmt statement.Statement, visitors ...statement.Visitor) (int64, error) {
	if statement.IsBookkeeping(stmt) {
		return 1, nil
	}

	return 0, e.write(ctx, stmt, visitors)
}

func (e *Output) Comment(_ context.Context, message string) error {
	_, err := fmt.Fprintf(e.w, "-- %s\n", message)
	return errors.Wrap(err, "failed to write comment")
}

func (e *Output) write(ctx context.Context, stmt statement.Statement, visitors []statement.Visitor) error {
	var meta sqlgen.MetadataReader
	if e.reader != nil {
		meta = e.reader
	}

	lines, err := e.gen.Render(ctx, stmt, meta, visitors...)
	if err != nil {
		return errors.Wrapf(err, "failed to generate %s", stmt.StatementName())
	}

	dialect := e.gen.Dialect()
	for _, line := range lines {
		if dialect.UsesBatchSeparator() {
			_, err = fmt.Fprintf(e.w, "%s\n%s\n\n", line, dialect.BatchSeparator)
		} else {
			_, err = fmt.Fprintf(e.w, "%s\n\n", e.gen.Terminate(stmt, line))
		}

		if err != nil {
			return errors.Wrap(err, "failed to write statement")
		}
	}

	return nil
}

func (e *Output) noReadAccess(stmt statement.Statement) error {
	return errors.Wrapf(ErrNoReadAccess, "cannot run %s while rendering SQL", stmt.StatementName())
}
