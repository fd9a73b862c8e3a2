package suppress

import (
	"context"

	"github.com/pkg/errors"
	"github.com/pseudomuto/hush/pkg/consts"
	"github.com/pseudomuto/hush/pkg/executor"
	"github.com/pseudomuto/hush/pkg/sqlgen"
	"github.com/pseudomuto/hush/pkg/statement"
)

// Executor wraps another executor and turns its mutating operations into
// comments. Reads and comments go straight to the wrapped executor.
//
// What an Executor suppresses follows from the executor it wraps: wrapping a
// database executor suppresses execution, wrapping an output executor
// suppresses the SQL script.
type Executor struct {
	previous  executor.Executor
	gen       *sqlgen.Generator
	execution bool
	output    bool
}

var _ executor.Wrapper = (*Executor)(nil)

// NewExecutor wraps previous. Suppressed statements are rendered in dialect,
// or in the dialect of previous when dialect is nil.
func NewExecutor(previous executor.Executor, dialect *sqlgen.Dialect) *Executor {
	if d, ok := previous.(interface{ Dialect() *sqlgen.Dialect }); ok && dialect == nil {
		dialect = d.Dialect()
	}

	return &Executor{
		previous:  previous,
		gen:       sqlgen.New(dialect),
		execution: previous.Kind() == executor.KindDatabase,
		output:    previous.Kind() == executor.KindOutput,
	}
}

func (e *Executor) Kind() executor.Kind { return executor.KindSuppressing }

// Dialect returns the dialect suppressed statements are rendered in.
func (e *Executor) Dialect() *sqlgen.Dialect { return e.gen.Dialect() }

// SuppressesExecution reports whether statements are being kept from a live
// database.
func (e *Executor) SuppressesExecution() bool { return e.execution }

// SuppressesOutput reports whether statements are being kept out of a SQL
// script.
func (e *Executor) SuppressesOutput() bool { return e.output }

// Previous returns the wrapped executor.
func (e *Executor) Previous() executor.Executor { return e.previous }

// UpdatesDatabase is always false; nothing that goes through a suppressor
// changes the database.
func (e *Executor) UpdatesDatabase() bool { return false }

func (e *Executor) QueryForObject(ctx context.Context, stmt statement.Statement, dest any, visitors ...statement.Visitor) error {
	return e.previous.QueryForObject(ctx, stmt, dest, visitors...)
}

func (e *Executor) QueryForLong(ctx context.Context, stmt statement.Statement, visitors ...statement.Visitor) (int64, error) {
	return e.previous.QueryForLong(ctx, stmt, visitors...)
}

func (e *Executor) QueryForInt(ctx context.Context, stmt statement.Statement, visitors ...statement.Visitor) (int, error) {
	return e.previous.QueryForInt(ctx, stmt, visitors...)
}

func (e *Executor) QueryForColumn(ctx context.Context, stmt statement.Statement, visitors ...statement.Visitor) ([]any, error) {
	return e.previous.QueryForColumn(ctx, stmt, visitors...)
}

func (e *Executor) QueryForList(ctx context.Context, stmt statement.Statement, visitors ...statement.Visitor) ([]map[string]any, error) {
	return e.previous.QueryForList(ctx, stmt, visitors...)
}

// Execute records stmt as suppressed instead of running it.
func (e *Executor) Execute(ctx context.Context, stmt statement.Statement, visitors ...statement.Visitor) error {
	return e.suppress(ctx, stmt, visitors)
}

// Update records stmt as suppressed and reports no affected rows. Changelog
// lock bookkeeping reports one affected row without being recorded.
func (e *Executor) Update(ctx context.Context, stmt statement.Statement, visitors ...statement.Visitor) (int64, error) {
	if statement.IsBookkeeping(stmt) {
		return 1, nil
	}

	if err := e.suppress(ctx, stmt, visitors); err != nil {
		return 0, err
	}

	return 0, nil
}

func (e *Executor) Comment(ctx context.Context, message string) error {
	return e.previous.Comment(ctx, message)
}

func (e *Executor) suppress(ctx context.Context, stmt statement.Statement, visitors []statement.Visitor) error {
	if stmt == nil {
		return errors.Wrap(sqlgen.ErrUnsupportedStatement, "nil statement")
	}

	if e.gen.Dialect() == nil {
		return errors.Wrapf(ErrConfiguration, "no dialect to render suppressed %s in", stmt.StatementName())
	}

	if e.gen.RequiresMetadata(stmt) {
		return errors.Wrapf(
			ErrVolatileGeneration,
			"%s requires access to up to date database metadata which is not available when you suppress SQL execution",
			stmt.StatementName(),
		)
	}

	lines, err := e.gen.Render(ctx, stmt, nil, visitors...)
	if err != nil {
		return errors.Wrapf(err, "failed to generate %s", stmt.StatementName())
	}

	dialect := e.gen.Dialect()
	for _, line := range lines {
		if dialect.UsesBatchSeparator() {
			if err := e.comment(ctx, line); err != nil {
				return err
			}

			if err := e.comment(ctx, dialect.BatchSeparator); err != nil {
				return err
			}

			continue
		}

		if err := e.comment(ctx, e.gen.Terminate(stmt, line)); err != nil {
			return err
		}
	}

	return nil
}

func (e *Executor) comment(ctx context.Context, line string) error {
	return errors.Wrap(e.previous.Comment(ctx, consts.SuppressedPrefix+line), "failed to record suppressed statement")
}
