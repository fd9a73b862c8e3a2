package suppress_test

import (
	"bytes"
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/pseudomuto/hush/pkg/executor"
	"github.com/pseudomuto/hush/pkg/executor/executortest"
	"github.com/pseudomuto/hush/pkg/registry"
	"github.com/pseudomuto/hush/pkg/sqlgen"
	"github.com/pseudomuto/hush/pkg/statement"
	. "github.com/pseudomuto/hush/pkg/suppress"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

var (
	testDB = registry.Database{Name: "default", Dialect: sqlgen.Postgres}

	startExecution = Request{Target: Execution, Direction: Start}
	stopExecution  = Request{Target: Execution, Direction: Stop}
	startOutput    = Request{Target: Output, Direction: Start}
	stopOutput     = Request{Target: Output, Direction: Stop}
)

func setup(t *testing.T, top executor.Executor) (*Controller, *registry.Registry) {
	t.Helper()

	reg := registry.New()
	reg.Set(testDB, top)
	return NewController(reg), reg
}

func current(t *testing.T, reg *registry.Registry) executor.Executor {
	t.Helper()

	exec, err := reg.Get(testDB.Name)
	require.NoError(t, err)
	return exec
}

func depth(exec executor.Executor) int {
	n := 1
	for {
		w, ok := exec.(executor.Wrapper)
		if !ok {
			return n
		}

		exec = w.Previous()
		n++
	}
}

func TestController_Transitions(t *testing.T) {
	database := executortest.New(executor.KindDatabase)
	output := executortest.New(executor.KindOutput)
	unknown := executortest.New(executor.KindUnknown)

	type outcome int
	const (
		unchanged outcome = iota
		wrapped
		unwrapped
	)

	tests := []struct {
		name    string
		top     executor.Executor
		req     Request
		outcome outcome
		err     error
	}{
		// START EXECUTE
		{name: "start execution over database", top: database, req: startExecution, outcome: wrapped},
		{name: "start execution when already suppressed", top: NewExecutor(database, sqlgen.Postgres), req: startExecution},
		{name: "start execution while output suppressed", top: NewExecutor(output, sqlgen.Postgres), req: startExecution, err: ErrContradiction},
		{name: "start execution over output", top: output, req: startExecution},
		{name: "start execution over unknown", top: unknown, req: startExecution, err: ErrUnsupportedBackend},

		// START SQLFILE
		{name: "start output over output", top: output, req: startOutput, outcome: wrapped},
		{name: "start output when already suppressed", top: NewExecutor(output, sqlgen.Postgres), req: startOutput},
		{name: "start output while execution suppressed", top: NewExecutor(database, sqlgen.Postgres), req: startOutput, err: ErrContradiction},
		{name: "start output over database", top: database, req: startOutput},
		{name: "start output over unknown", top: unknown, req: startOutput, err: ErrUnsupportedBackend},

		// STOP EXECUTE
		{name: "stop execution over database", top: database, req: stopExecution},
		{name: "stop execution when suppressed", top: NewExecutor(database, sqlgen.Postgres), req: stopExecution, outcome: unwrapped},
		{name: "stop execution while output suppressed", top: NewExecutor(output, sqlgen.Postgres), req: stopExecution, err: ErrContradiction},
		{name: "stop execution over output", top: output, req: stopExecution},
		{name: "stop execution over unknown", top: unknown, req: stopExecution, err: ErrUnsupportedBackend},

		// STOP SQLFILE
		{name: "stop output over output", top: output, req: stopOutput},
		{name: "stop output when suppressed", top: NewExecutor(output, sqlgen.Postgres), req: stopOutput, outcome: unwrapped},
		{name: "stop output while execution suppressed", top: NewExecutor(database, sqlgen.Postgres), req: stopOutput, err: ErrContradiction},
		{name: "stop output over database", top: database, req: stopOutput},
		{name: "stop output over unknown", top: unknown, req: stopOutput, err: ErrUnsupportedBackend},

		// Suppressing kind without the wrapper capability.
		{name: "suppressing kind without previous", top: executortest.New(executor.KindSuppressing), req: stopOutput, err: ErrUnsupportedBackend},
		{name: "suppressor of neither target", top: NewExecutor(unknown, sqlgen.Postgres), req: startExecution, err: ErrUnsupportedBackend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl, reg := setup(t, tt.top)

			err := ctrl.Apply(context.Background(), tt.req, testDB)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				require.Same(t, tt.top, current(t, reg), "failed transitions leave the chain unchanged")
				return
			}

			require.NoError(t, err)
			got := current(t, reg)

			switch tt.outcome {
			case unchanged:
				require.Same(t, tt.top, got)
			case wrapped:
				w, ok := got.(*Executor)
				require.True(t, ok)
				require.Same(t, tt.top, w.Previous())
				require.Equal(t, tt.req.Target == Execution, w.SuppressesExecution())
				require.Equal(t, tt.req.Target == Output, w.SuppressesOutput())
			case unwrapped:
				require.Same(t, tt.top.(executor.Wrapper).Previous(), got)
			}
		})
	}
}

func TestController_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		base  executor.Executor
		start Request
		stop  Request
	}{
		{name: "execution", base: executortest.New(executor.KindDatabase), start: startExecution, stop: stopExecution},
		{name: "output", base: executortest.New(executor.KindOutput), start: startOutput, stop: stopOutput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			ctrl, reg := setup(t, tt.base)

			require.NoError(t, ctrl.Apply(ctx, tt.start, testDB))
			require.Equal(t, 2, depth(current(t, reg)))

			require.NoError(t, ctrl.Apply(ctx, tt.stop, testDB))
			require.Same(t, tt.base, current(t, reg))
		})
	}
}

func TestController_Idempotence(t *testing.T) {
	ctx := context.Background()
	ctrl, reg := setup(t, executortest.New(executor.KindDatabase))

	require.NoError(t, ctrl.Apply(ctx, startExecution, testDB))
	first := current(t, reg)

	require.NoError(t, ctrl.Apply(ctx, startExecution, testDB))
	require.Same(t, first, current(t, reg))
	require.Equal(t, 2, depth(current(t, reg)))

	require.NoError(t, ctrl.Apply(ctx, stopExecution, testDB))
	require.NoError(t, ctrl.Apply(ctx, stopExecution, testDB))
	require.Equal(t, 1, depth(current(t, reg)))
}

func TestController_Contradiction(t *testing.T) {
	ctx := context.Background()
	ctrl, reg := setup(t, executortest.New(executor.KindOutput))

	require.NoError(t, ctrl.Apply(ctx, startOutput, testDB))
	before := current(t, reg)

	err := ctrl.Apply(ctx, startExecution, testDB)
	require.ErrorIs(t, err, ErrContradiction)
	require.ErrorContains(t, err, "output to SQL file already suppressed, also suppressing execution will never result in a change")
	require.Same(t, before, current(t, reg))

	err = ctrl.Apply(ctx, stopExecution, testDB)
	require.ErrorIs(t, err, ErrContradiction)
	require.Same(t, before, current(t, reg))
}

func TestController_ConfigurationErrorBeforeRegistry(t *testing.T) {
	ctx := context.Background()

	// The database isn't registered, so anything that reached the registry
	// would fail with ErrNotRegistered instead.
	ctrl := NewController(registry.New())

	for _, req := range []Request{{Target: Execution}, {Direction: Start}, {}} {
		err := ctrl.Apply(ctx, req, testDB)
		require.ErrorIs(t, err, ErrConfiguration)
		require.NotErrorIs(t, err, registry.ErrNotRegistered)

		err = ctrl.ApplyRollback(ctx, req, testDB)
		require.ErrorIs(t, err, ErrConfiguration)
		require.NotErrorIs(t, err, registry.ErrNotRegistered)
	}

	_, err := NewRequest(Params{StartOrStop: "START"})
	require.ErrorIs(t, err, ErrConfiguration)

	require.ErrorIs(t, ctrl.Apply(ctx, startExecution, testDB), registry.ErrNotRegistered)
}

func TestController_Rollback(t *testing.T) {
	ctx := context.Background()
	base := executortest.New(executor.KindOutput)

	viaRollback, rollbackReg := setup(t, base)
	require.NoError(t, viaRollback.Apply(ctx, startOutput, testDB))
	require.NoError(t, viaRollback.ApplyRollback(ctx, startOutput, testDB))

	viaStop, stopReg := setup(t, base)
	require.NoError(t, viaStop.Apply(ctx, startOutput, testDB))
	require.NoError(t, viaStop.Apply(ctx, stopOutput, testDB))

	require.Same(t, base, current(t, rollbackReg))
	require.Same(t, current(t, stopReg), current(t, rollbackReg))

	// Rolling back a STOP suppresses again.
	require.NoError(t, viaRollback.ApplyRollback(ctx, stopOutput, testDB))
	require.True(t, current(t, rollbackReg).(executor.Wrapper).SuppressesOutput())
}

func TestController_NestedTargets(t *testing.T) {
	ctx := context.Background()
	ctrl, reg := setup(t, executortest.New(executor.KindDatabase))

	// Execution and output can't be stacked on a single chain: once
	// execution is suppressed the output target contradicts it.
	require.NoError(t, ctrl.Apply(ctx, startExecution, testDB))
	require.ErrorIs(t, ctrl.Apply(ctx, startOutput, testDB), ErrContradiction)

	execution, output, err := ctrl.Active(testDB.Name)
	require.NoError(t, err)
	require.True(t, execution)
	require.False(t, output)

	require.NoError(t, ctrl.Apply(ctx, stopExecution, testDB))
	execution, output, err = ctrl.Active(testDB.Name)
	require.NoError(t, err)
	require.False(t, execution)
	require.False(t, output)
	require.Equal(t, 1, depth(current(t, reg)))
}

func TestController_DropTableScenario(t *testing.T) {
	ctx := context.Background()
	base := executortest.New(executor.KindDatabase)
	ctrl, reg := setup(t, base)

	require.NoError(t, ctrl.Apply(ctx, startExecution, testDB))

	top := current(t, reg)
	w, ok := top.(executor.Wrapper)
	require.True(t, ok)
	require.True(t, w.SuppressesExecution())
	require.Same(t, base, w.Previous())

	require.NoError(t, top.Execute(ctx, statement.Raw("DROP TABLE foo")))
	require.Empty(t, base.Executed())
	require.Equal(t, []string{"Suppressed: DROP TABLE foo;"}, base.Comments())

	require.NoError(t, ctrl.Apply(ctx, stopExecution, testDB))
	require.Same(t, base, current(t, reg))
}

func TestController_DialectFallback(t *testing.T) {
	ctx := context.Background()
	noDialect := registry.Database{Name: "bare"}

	t.Run("from the wrapped executor", func(t *testing.T) {
		base := executor.NewOutput(&bytes.Buffer{}, sqlgen.MSSQL, nil)
		reg := registry.New()
		reg.Set(noDialect, base)
		ctrl := NewController(reg)

		require.NoError(t, ctrl.Apply(ctx, startOutput, noDialect))

		top, err := reg.Get(noDialect.Name)
		require.NoError(t, err)
		require.Equal(t, sqlgen.MSSQL, top.(*Executor).Dialect())
	})

	t.Run("from the request", func(t *testing.T) {
		base := executortest.New(executor.KindDatabase)
		reg := registry.New()
		reg.Set(noDialect, base)
		ctrl := NewController(reg)

		withDialect := registry.Database{Name: noDialect.Name, Dialect: sqlgen.Postgres}
		require.NoError(t, ctrl.Apply(ctx, startExecution, withDialect))

		top, err := reg.Get(noDialect.Name)
		require.NoError(t, err)
		require.NoError(t, top.Execute(ctx, statement.Raw("DROP TABLE foo")))
		require.Equal(t, []string{"Suppressed: DROP TABLE foo;"}, base.Comments())
	})

	t.Run("nowhere to be found", func(t *testing.T) {
		base := executortest.New(executor.KindDatabase)
		reg := registry.New()
		reg.Set(noDialect, base)
		ctrl := NewController(reg)

		require.ErrorIs(t, ctrl.Apply(ctx, startExecution, noDialect), ErrConfiguration)

		top, err := reg.Get(noDialect.Name)
		require.NoError(t, err)
		require.Same(t, base, top)
	})
}

func TestController_SQLite(t *testing.T) {
	ctx := context.Background()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "suppress.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	sqliteDB := registry.Database{Name: "app", Dialect: sqlgen.SQLite}
	reg := registry.New()
	reg.Set(sqliteDB, executor.NewDatabase(executor.SQLConn(db), sqlgen.SQLite))
	ctrl := NewController(reg)

	exec := func() executor.Executor {
		e, err := reg.Get(sqliteDB.Name)
		require.NoError(t, err)
		return e
	}

	require.NoError(t, exec().Execute(ctx, statement.Raw("CREATE TABLE kept (id INTEGER)")))

	require.NoError(t, ctrl.Apply(ctx, startExecution, sqliteDB))
	require.NoError(t, exec().Execute(ctx, statement.Raw("CREATE TABLE skipped (id INTEGER)")))
	require.False(t, exec().UpdatesDatabase())

	// Reads still reach the database while execution is suppressed.
	n, err := exec().QueryForLong(ctx, statement.Raw("SELECT count(*) FROM sqlite_master WHERE type = 'table'"))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	require.NoError(t, ctrl.Apply(ctx, stopExecution, sqliteDB))
	require.True(t, exec().UpdatesDatabase())

	names, err := exec().QueryForColumn(ctx, statement.Raw("SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name"))
	require.NoError(t, err)
	require.Equal(t, []any{"kept"}, names)
}
