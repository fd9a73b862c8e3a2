package sqlgen

import (
	"strings"

	"github.com/pkg/errors"
)

// Dialect describes the textual conventions of a database family.
type Dialect struct {
	// Name is the lowercase identifier used in configuration and visitor filters.
	Name string

	// Terminator ends a statement in a script.
	Terminator string

	// BatchSeparator, when set, is written on its own line after each
	// statement ("GO" for the SQL Server family).
	BatchSeparator string
}

var (
	ClickHouse = &Dialect{Name: "clickhouse", Terminator: ";"}
	Postgres   = &Dialect{Name: "postgres", Terminator: ";"}
	SQLite     = &Dialect{Name: "sqlite", Terminator: ";"}
	MSSQL      = &Dialect{Name: "mssql", Terminator: ";", BatchSeparator: "GO"}
	Sybase     = &Dialect{Name: "sybase", Terminator: ";", BatchSeparator: "GO"}
	SybaseASA  = &Dialect{Name: "asany", Terminator: ";", BatchSeparator: "GO"}

	// ErrUnknownDialect is returned by LookupDialect for names it doesn't know.
	ErrUnknownDialect = errors.New("unknown dialect")

	dialects = []*Dialect{ClickHouse, Postgres, SQLite, MSSQL, Sybase, SybaseASA}
)

// LookupDialect finds a built-in dialect by name, ignoring case. "postgresql"
// is accepted as an alias for postgres.
func LookupDialect(name string) (*Dialect, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "postgresql" {
		name = Postgres.Name
	}

	for _, d := range dialects {
		if d.Name == name {
			return d, nil
		}
	}

	return nil, errors.Wrapf(ErrUnknownDialect, "%q", name)
}

// UsesBatchSeparator reports whether statements are followed by a separator line.
func (d *Dialect) UsesBatchSeparator() bool {
	return d.BatchSeparator != ""
}

// QuoteLiteral renders s as a string literal.
func (d *Dialect) QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// QuoteIdent renders s as a quoted identifier.
func (d *Dialect) QuoteIdent(s string) string {
	switch d.Name {
	case ClickHouse.Name:
		return "`" + strings.ReplaceAll(s, "`", "``") + "`"
	case MSSQL.Name, Sybase.Name, SybaseASA.Name:
		return "[" + strings.ReplaceAll(s, "]", "]]") + "]"
	default:
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
}

func (d *Dialect) String() string {
	return d.Name
}

// boolLiteral spells a boolean the way the lock table column expects it.
func (d *Dialect) boolLiteral(b bool) string {
	switch d.Name {
	case Postgres.Name, SQLite.Name:
		if b {
			return "TRUE"
		}
		return "FALSE"
	default:
		if b {
			return "1"
		}
		return "0"
	}
}
