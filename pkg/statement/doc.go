// Package statement defines the database statements that flow through an
// executor chain and the visitors that rewrite their generated SQL.
//
// Statements are plain values. They carry what should happen, never how a
// particular dialect spells it; the sqlgen package turns them into SQL text.
//
//   - RawSQL: arbitrary SQL taken verbatim from a changelog
//   - CreateLockTable, InitLockTable: bootstrap of the changelog lock table
//   - LockChangelog, UnlockChangelog: acquisition and release of that lock
//   - DropForeignKeys: drops every foreign key of a table, which can only be
//     generated by reading live database metadata
//
// Visitors are applied to the generated SQL lines just before they are
// executed or rendered:
//
//	lines := statement.ApplyVisitors(
//		[]string{"CREATE TABLE t (id INT)"},
//		"postgres",
//		&statement.Append{Value: " WITH (fillfactor = 70)", Dialects: []string{"postgres"}},
//	)
package statement
