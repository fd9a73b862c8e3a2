package sqlgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/hush/pkg/statement"
)

type (
	// MetadataReader is the read path a generator needs for statements whose SQL
	// depends on the current database state. Every executor satisfies it.
	MetadataReader interface {
		QueryForColumn(context.Context, statement.Statement, ...statement.Visitor) ([]any, error)
	}

	// Generator renders statements for a single dialect.
	Generator struct {
		dialect *Dialect
	}
)

var (
	// ErrMetadataRequired is returned when a statement needs live metadata but
	// no MetadataReader was supplied.
	ErrMetadataRequired = errors.New("statement requires database metadata")

	// ErrUnsupportedStatement is returned for statements the dialect can't express.
	ErrUnsupportedStatement = errors.New("statement not supported")
)

// New creates a generator for d.
func New(d *Dialect) *Generator {
	return &Generator{dialect: d}
}

// Dialect returns the dialect the generator renders for.
func (g *Generator) Dialect() *Dialect {
	return g.dialect
}

// RequiresMetadata reports whether generating stmt needs to read the live
// database. Callers without database access must not try to render these.
func (g *Generator) RequiresMetadata(stmt statement.Statement) bool {
	if _, ok := stmt.(*statement.DropForeignKeys); ok {
		// ClickHouse has no foreign keys, so there is nothing to look up.
		return g.dialect.Name != ClickHouse.Name
	}

	return false
}

// Generate produces the SQL lines for stmt. meta may be nil unless
// RequiresMetadata(stmt) is true.
func (g *Generator) Generate(ctx context.Context, stmt statement.Statement, meta MetadataReader) ([]string, error) {
	switch s := stmt.(type) {
	case *statement.RawSQL:
		sql := strings.TrimSpace(s.SQL)
		if sql == "" {
			return nil, nil
		}
		return []string{sql}, nil
	case *statement.CreateLockTable:
		return []string{g.createLockTable(s.Table)}, nil
	case *statement.InitLockTable:
		return []string{g.initLockTable(s.Table)}, nil
	case *statement.LockChangelog:
		return []string{g.lock(s.Table, s.LockedBy)}, nil
	case *statement.UnlockChangelog:
		return []string{g.unlock(s.Table)}, nil
	case *statement.DropForeignKeys:
		return g.dropForeignKeys(ctx, s, meta)
	case nil:
		return nil, errors.Wrap(ErrUnsupportedStatement, "nil statement")
	default:
		return nil, errors.Wrapf(ErrUnsupportedStatement, "%s for %s", stmt.StatementName(), g.dialect.Name)
	}
}

// Render generates stmt and applies visitors to each line. Lines that are
// blank once the visitors ran are dropped.
func (g *Generator) Render(ctx context.Context, stmt statement.Statement, meta MetadataReader, visitors ...statement.Visitor) ([]string, error) {
	lines, err := g.Generate(ctx, stmt, meta)
	if err != nil {
		return nil, err
	}

	lines = statement.ApplyVisitors(lines, g.dialect.Name, visitors...)

	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}

	return out, nil
}

// Terminate appends the end delimiter for stmt to line unless it is already there.
func (g *Generator) Terminate(stmt statement.Statement, line string) string {
	delim := g.dialect.Terminator
	if raw, ok := stmt.(*statement.RawSQL); ok && raw.EndDelimiter != "" {
		delim = raw.EndDelimiter
	}

	line = strings.TrimRight(line, " \t\r\n")
	if strings.HasSuffix(line, delim) {
		return line
	}

	return line + delim
}

func (g *Generator) createLockTable(table string) string {
	switch g.dialect.Name {
	case ClickHouse.Name:
		return fmt.Sprintf(
			"CREATE TABLE IF NOT EXISTS %s (id UInt8, locked UInt8, locked_by Nullable(String)) ENGINE = MergeTree ORDER BY id",
			table,
		)
	case MSSQL.Name, Sybase.Name, SybaseASA.Name:
		return fmt.Sprintf(
			"IF OBJECT_ID(%s) IS NULL CREATE TABLE %s (id INT NOT NULL PRIMARY KEY, locked BIT NOT NULL, locked_by VARCHAR(255) NULL)",
			g.dialect.QuoteLiteral(table), table,
		)
	default:
		return fmt.Sprintf(
			"CREATE TABLE IF NOT EXISTS %s (id INTEGER NOT NULL PRIMARY KEY, locked BOOLEAN NOT NULL, locked_by VARCHAR(255))",
			table,
		)
	}
}

func (g *Generator) initLockTable(table string) string {
	if g.dialect.Name == ClickHouse.Name {
		return fmt.Sprintf(
			"INSERT INTO %s (id, locked) SELECT 1, 0 WHERE (SELECT count() FROM %s WHERE id = 1) = 0",
			table, table,
		)
	}

	return fmt.Sprintf(
		"INSERT INTO %s (id, locked) SELECT 1, %s WHERE NOT EXISTS (SELECT 1 FROM %s WHERE id = 1)",
		table, g.dialect.boolLiteral(false), table,
	)
}

func (g *Generator) lock(table, lockedBy string) string {
	set := fmt.Sprintf("locked = %s, locked_by = %s", g.dialect.boolLiteral(true), g.dialect.QuoteLiteral(lockedBy))
	where := fmt.Sprintf("id = 1 AND locked = %s", g.dialect.boolLiteral(false))

	if g.dialect.Name == ClickHouse.Name {
		return fmt.Sprintf("ALTER TABLE %s UPDATE %s WHERE %s", table, set, where)
	}

	return fmt.Sprintf("UPDATE %s SET %s WHERE %s", table, set, where)
}

func (g *Generator) unlock(table string) string {
	set := fmt.Sprintf("locked = %s, locked_by = NULL", g.dialect.boolLiteral(false))

	if g.dialect.Name == ClickHouse.Name {
		return fmt.Sprintf("ALTER TABLE %s UPDATE %s WHERE id = 1", table, set)
	}

	return fmt.Sprintf("UPDATE %s SET %s WHERE id = 1", table, set)
}

func (g *Generator) dropForeignKeys(ctx context.Context, stmt *statement.DropForeignKeys, meta MetadataReader) ([]string, error) {
	switch g.dialect.Name {
	case ClickHouse.Name:
		return nil, nil
	case SQLite.Name:
		return nil, errors.Wrap(ErrUnsupportedStatement, "sqlite cannot drop foreign keys of an existing table")
	}

	if meta == nil {
		return nil, errors.Wrapf(ErrMetadataRequired, "%s on %s", stmt.StatementName(), stmt.Table)
	}

	names, err := meta.QueryForColumn(ctx, statement.Raw(g.foreignKeyQuery(stmt.Table)))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read foreign keys of %s", stmt.Table)
	}

	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, fmt.Sprintf(
			"ALTER TABLE %s DROP CONSTRAINT %s",
			stmt.Table, g.dialect.QuoteIdent(asString(name)),
		))
	}

	return lines, nil
}

func (g *Generator) foreignKeyQuery(table string) string {
	query := "SELECT constraint_name FROM information_schema.table_constraints WHERE constraint_type = 'FOREIGN KEY'"

	schema, name, found := strings.Cut(table, ".")
	if !found {
		return query + " AND table_name = " + g.dialect.QuoteLiteral(table) + " ORDER BY constraint_name"
	}

	return query +
		" AND table_schema = " + g.dialect.QuoteLiteral(schema) +
		" AND table_name = " + g.dialect.QuoteLiteral(name) +
		" ORDER BY constraint_name"
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprint(v)
	}
}
