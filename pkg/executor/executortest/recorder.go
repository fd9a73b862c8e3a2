// Package executortest provides an in-memory executor for tests.
package executortest

import (
	"context"
	"sync"

	"github.com/pseudomuto/hush/pkg/executor"
	"github.com/pseudomuto/hush/pkg/statement"
)

// Recorder is an executor.Executor that records every call instead of talking
// to a database. Queries return the canned values set on the recorder.
type Recorder struct {
	mu sync.Mutex

	kind executor.Kind

	// Object is returned (via assignment to *any or *int64) by QueryForObject.
	Object any

	// Long is returned by QueryForLong and QueryForInt.
	Long int64

	// Column is returned by QueryForColumn.
	Column []any

	// List is returned by QueryForList.
	List []map[string]any

	// Affected is returned by Update.
	Affected int64

	// Err, when set, is returned by every operation.
	Err error

	queries  []string
	executed []string
	updated  []string
	comments []string
}

// New creates a Recorder reporting kind.
func New(kind executor.Kind) *Recorder {
	return &Recorder{kind: kind}
}

// Describe returns the SQL of raw statements and the statement name otherwise.
func Describe(stmt statement.Statement) string {
	if raw, ok := stmt.(*statement.RawSQL); ok {
		return raw.SQL
	}
	return stmt.StatementName()
}

func (r *Recorder) Kind() executor.Kind { return r.kind }

func (r *Recorder) UpdatesDatabase() bool { return r.kind == executor.KindDatabase }

func (r *Recorder) QueryForObject(_ context.Context, stmt statement.Statement, dest any, _ ...statement.Visitor) error {
	r.record(&r.queries, Describe(stmt))
	if r.Err != nil {
		return r.Err
	}

	switch d := dest.(type) {
	case *any:
		*d = r.Object
	case *string:
		*d, _ = r.Object.(string)
	case *int64:
		*d, _ = r.Object.(int64)
	}

	return nil
}

func (r *Recorder) QueryForLong(_ context.Context, stmt statement.Statement, _ ...statement.Visitor) (int64, error) {
	r.record(&r.queries, Describe(stmt))
	return r.Long, r.Err
}

func (r *Recorder) QueryForInt(_ context.Context, stmt statement.Statement, _ ...statement.Visitor) (int, error) {
	r.record(&r.queries, Describe(stmt))
	return int(r.Long), r.Err
}

func (r *Recorder) QueryForColumn(_ context.Context, stmt statement.Statement, _ ...statement.Visitor) ([]any, error) {
	r.record(&r.queries, Describe(stmt))
	return r.Column, r.Err
}

func (r *Recorder) QueryForList(_ context.Context, stmt statement.Statement, _ ...statement.Visitor) ([]map[string]any, error) {
	r.record(&r.queries, Describe(stmt))
	return r.List, r.Err
}

func (r *Recorder) Execute(_ context.Context, stmt statement.Statement, visitors ...statement.Visitor) error {
	r.record(&r.executed, r.render(stmt, visitors))
	return r.Err
}

func (r *Recorder) Update(_ context.Context, stmt statement.Statement, visitors ...statement.Visitor) (int64, error) {
	r.record(&r.updated, r.render(stmt, visitors))
	return r.Affected, r.Err
}

func (r *Recorder) Comment(_ context.Context, message string) error {
	r.record(&r.comments, message)
	return r.Err
}

// Queries returns the statements passed to any read operation.
func (r *Recorder) Queries() []string { return r.snapshot(r.queries) }

// Executed returns the statements passed to Execute.
func (r *Recorder) Executed() []string { return r.snapshot(r.executed) }

// Updated returns the statements passed to Update.
func (r *Recorder) Updated() []string { return r.snapshot(r.updated) }

// Comments returns every comment received.
func (r *Recorder) Comments() []string { return r.snapshot(r.comments) }

func (r *Recorder) render(stmt statement.Statement, visitors []statement.Visitor) string {
	lines := statement.ApplyVisitors([]string{Describe(stmt)}, "", visitors...)
	return lines[0]
}

func (r *Recorder) record(into *[]string, s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	*into = append(*into, s)
}

func (r *Recorder) snapshot(s []string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), s...)
}
