// Package executor defines the statement executor capability set and its two
// terminal backends.
//
// Every component that runs, renders or intercepts statements implements
// Executor. The set is deliberately closed: an executor reports its Kind, and
// wrappers additionally implement Wrapper, so callers can reason about an
// executor chain without inspecting concrete types.
//
// # Backends
//
//   - Database: runs statements against a live connection (KindDatabase)
//   - Output: renders statements as a SQL script to an io.Writer (KindOutput)
//
// Database sits on top of a narrow Conn interface. SQLConn adapts a
// *sql.DB, and the clickhouse package provides a native ClickHouse Conn.
//
// # Usage Example
//
//	db, err := sql.Open("sqlite", "app.db")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	exec := executor.NewDatabase(executor.SQLConn(db), sqlgen.SQLite)
//	if err := exec.Execute(ctx, statement.Raw("CREATE TABLE t (id INT)")); err != nil {
//		log.Fatal(err)
//	}
//
//	n, err := exec.QueryForLong(ctx, statement.Raw("SELECT count(*) FROM t"))
//
// # Rendering Scripts
//
//	out := executor.NewOutput(os.Stdout, sqlgen.MSSQL, nil)
//	_ = out.Execute(ctx, statement.Raw("DROP TABLE foo"))
//
//	// DROP TABLE foo
//	// GO
package executor
