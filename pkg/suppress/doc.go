// Package suppress intercepts an executor chain so statements stop reaching
// the database or the SQL output until told otherwise.
//
// A suppressOutput step in a changelog becomes a Request: a Target (actual
// execution, or the rendered SQL script) and a Direction (start or stop). The
// Controller applies requests to the executor registered for a database:
//
//   - START wraps the active executor in an Executor that turns every
//     mutating statement into a "Suppressed: ..." comment
//   - STOP unwraps that layer again, restoring exactly the executor that was
//     active before the matching START
//
// Reads always pass through, so a change set can still inspect the database
// while its writes are suppressed. Lock bookkeeping updates report success
// without being rendered, keeping the changelog lock protocol intact.
//
// Repeating a request that is already in effect is a no-op. Asking for the
// opposite target while one is suppressed is a contradiction and fails with
// ErrContradiction, leaving the chain as it was.
//
// # Usage Example
//
//	reg := registry.New()
//	db := registry.Database{Name: "default", Dialect: sqlgen.Postgres}
//	reg.Set(db, executor.NewDatabase(conn, sqlgen.Postgres))
//
//	ctrl := suppress.NewController(reg)
//	req, err := suppress.NewRequest(suppress.Params{StartOrStop: "start", Suppress: "execute"})
//	if err != nil {
//		return err
//	}
//
//	if err := ctrl.Apply(ctx, req, db); err != nil {
//		return err
//	}
//
//	exec, _ := reg.Get("default")
//	_ = exec.Execute(ctx, statement.Raw("DROP TABLE foo"))
//	// logged: -- Suppressed: DROP TABLE foo;
//
// Rolling back a step applies the inverse request:
//
//	err = ctrl.ApplyRollback(ctx, req, db) // same as applying STOP EXECUTE
package suppress
