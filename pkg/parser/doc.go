// Package parser splits SQL scripts into individual statements.
//
// It doesn't try to understand SQL. It tokenizes the script with a participle
// lexer that knows about comments, string literals, quoted identifiers and
// dollar-quoted bodies, then cuts the token stream at delimiters that appear
// outside of those. That's enough to safely split the hand-written SQL found in
// changelogs, including scripts for the SQL Server family that use a GO line
// between batches.
//
// Example usage:
//
//	stmts, err := parser.Split(`
//		CREATE TABLE users (id INT, note TEXT DEFAULT 'a;b');
//		-- comments are dropped
//		INSERT INTO users (id) VALUES (1);
//	`, parser.Options{})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// stmts[0] == "CREATE TABLE users (id INT, note TEXT DEFAULT 'a;b')"
//	// stmts[1] == "INSERT INTO users (id) VALUES (1)"
package parser
