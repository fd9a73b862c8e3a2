// Package sqlgen turns statements into dialect-specific SQL text.
//
// A Generator is bound to one Dialect. Most statements render without any
// knowledge of the live database; a few (DropForeignKeys) have to read
// metadata first. RequiresMetadata reports which is which so callers that
// cannot reach the database, such as a suppressing executor, can refuse them
// up front instead of emitting SQL that might be wrong.
//
// Example usage:
//
//	gen := sqlgen.New(sqlgen.Postgres)
//	stmt := statement.Raw("DROP TABLE foo")
//
//	lines, err := gen.Render(ctx, stmt, nil)
//	if err != nil {
//		return err
//	}
//
//	for _, line := range lines {
//		fmt.Println(gen.Terminate(stmt, line)) // DROP TABLE foo;
//	}
package sqlgen
