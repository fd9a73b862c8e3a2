package executor

import (
	"context"

	"github.com/pkg/errors"
	"github.com/pseudomuto/hush/pkg/statement"
)

type (
	// Kind identifies which variant of the executor set an Executor is.
	Kind int

	// Executor carries out or renders database statements.
	//
	// Read operations return data from the database. Execute and Update are the
	// mutating operations; implementations that don't touch the database report
	// that through UpdatesDatabase so the caller doesn't rely on side effects.
	Executor interface {
		// Kind reports the executor variant.
		Kind() Kind

		// QueryForObject scans the first column of the first row into dest.
		QueryForObject(ctx context.Context, stmt statement.Statement, dest any, visitors ...statement.Visitor) error

		// QueryForLong returns the first column of the first row as an int64.
		QueryForLong(ctx context.Context, stmt statement.Statement, visitors ...statement.Visitor) (int64, error)

		// QueryForInt returns the first column of the first row as an int.
		QueryForInt(ctx context.Context, stmt statement.Statement, visitors ...statement.Visitor) (int, error)

		// QueryForColumn returns the first column of every row.
		QueryForColumn(ctx context.Context, stmt statement.Statement, visitors ...statement.Visitor) ([]any, error)

		// QueryForList returns every row keyed by column name.
		QueryForList(ctx context.Context, stmt statement.Statement, visitors ...statement.Visitor) ([]map[string]any, error)

		// Execute runs stmt for its side effects.
		Execute(ctx context.Context, stmt statement.Statement, visitors ...statement.Visitor) error

		// Update runs stmt and returns the number of affected rows.
		Update(ctx context.Context, stmt statement.Statement, visitors ...statement.Visitor) (int64, error)

		// Comment records a free-form message alongside the statements.
		Comment(ctx context.Context, message string) error

		// UpdatesDatabase reports whether mutating operations reach a database.
		UpdatesDatabase() bool
	}

	// Wrapper is implemented by executors that decorate another executor.
	Wrapper interface {
		Executor

		// SuppressesExecution reports whether the wrapped executor runs
		// statements against a database that this wrapper keeps from happening.
		SuppressesExecution() bool

		// SuppressesOutput reports whether the wrapped executor renders a SQL
		// script that this wrapper keeps statements out of.
		SuppressesOutput() bool

		// Previous returns the wrapped executor.
		Previous() Executor
	}
)

const (
	// KindUnknown is never returned by the executors in this module.
	KindUnknown Kind = iota

	// KindDatabase executors run statements against a live database.
	KindDatabase

	// KindOutput executors render statements as SQL text.
	KindOutput

	// KindSuppressing executors wrap another executor and demote its
	// mutating operations to comments.
	KindSuppressing
)

var (
	// ErrNoRows is returned by single-value queries that produced no rows.
	ErrNoRows = errors.New("query returned no rows")

	// ErrNoReadAccess is returned by executors that cannot read from a database.
	ErrNoReadAccess = errors.New("executor has no read access to a database")
)

func (k Kind) String() string {
	switch k {
	case KindDatabase:
		return "database"
	case KindOutput:
		return "output"
	case KindSuppressing:
		return "suppressing"
	default:
		return "unknown"
	}
}
