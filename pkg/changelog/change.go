package changelog

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/hush/pkg/parser"
	"github.com/pseudomuto/hush/pkg/sqlgen"
	"github.com/pseudomuto/hush/pkg/statement"
	"github.com/pseudomuto/hush/pkg/suppress"
)

type (
	// ChangeType identifies which field of a Change is set.
	ChangeType int

	// Change is a single step of a change set. Exactly one field is set.
	Change struct {
		SQL             *SQLChange             `yaml:"sql,omitempty"`
		SuppressOutput  *suppress.Params       `yaml:"suppressOutput,omitempty"`
		DropForeignKeys *DropForeignKeysChange `yaml:"dropForeignKeys,omitempty"`
	}

	// SQLChange is user supplied SQL.
	SQLChange struct {
		SQL string `yaml:"sql"`

		// EndDelimiter separates statements and terminates them in rendered
		// scripts. Defaults to ";".
		EndDelimiter string `yaml:"endDelimiter,omitempty"`

		// SplitStatements splits SQL on EndDelimiter. Defaults to true.
		SplitStatements *bool `yaml:"splitStatements,omitempty"`

		// StripComments removes SQL comments before running the statements.
		StripComments bool `yaml:"stripComments,omitempty"`

		// DBMS limits the change to a comma separated list of dialects.
		// Entries prefixed with ! exclude a dialect. Empty or "all" matches
		// every dialect.
		DBMS string `yaml:"dbms,omitempty"`
	}

	// DropForeignKeysChange drops every foreign key declared on a table.
	DropForeignKeysChange struct {
		Table string `yaml:"table"`
	}
)

const (
	// ChangeUnknown is reported for changes with no (or more than one) field set.
	ChangeUnknown ChangeType = iota
	ChangeSQL
	ChangeSuppressOutput
	ChangeDropForeignKeys
)

// Type reports which kind of change c is.
func (c *Change) Type() ChangeType {
	if c == nil {
		return ChangeUnknown
	}

	var (
		n int
		t ChangeType
	)

	if c.SQL != nil {
		n, t = n+1, ChangeSQL
	}
	if c.SuppressOutput != nil {
		n, t = n+1, ChangeSuppressOutput
	}
	if c.DropForeignKeys != nil {
		n, t = n+1, ChangeDropForeignKeys
	}

	if n != 1 {
		return ChangeUnknown
	}

	return t
}

func (t ChangeType) String() string {
	switch t {
	case ChangeSQL:
		return "sql"
	case ChangeSuppressOutput:
		return "suppressOutput"
	case ChangeDropForeignKeys:
		return "dropForeignKeys"
	default:
		return "unknown"
	}
}

// Validate checks that exactly one kind is set and that its parameters are
// usable.
func (c *Change) Validate() error {
	switch c.Type() {
	case ChangeSQL:
		if strings.TrimSpace(c.SQL.SQL) == "" {
			return errors.New("sql change has no SQL")
		}
		return nil
	case ChangeSuppressOutput:
		_, err := c.Request()
		return err
	case ChangeDropForeignKeys:
		if strings.TrimSpace(c.DropForeignKeys.Table) == "" {
			return errors.New("dropForeignKeys change requires a table")
		}
		return nil
	default:
		return errors.New("a change needs exactly one of sql, suppressOutput or dropForeignKeys")
	}
}

// Request parses a suppressOutput change.
func (c *Change) Request() (suppress.Request, error) {
	if c.SuppressOutput == nil {
		return suppress.Request{}, errors.Errorf("%s change is not a suppressOutput change", c.Type())
	}

	return suppress.NewRequest(*c.SuppressOutput)
}

// AppliesTo reports whether the change runs on dialect.
func (c *Change) AppliesTo(dialect *sqlgen.Dialect) bool {
	if c.SQL == nil {
		return true
	}

	return matchesDBMS(c.SQL.DBMS, dialect.Name)
}

// Statements returns the statements the change runs on dialect. suppressOutput
// changes have none; they act on the executor chain instead.
func (c *Change) Statements(dialect *sqlgen.Dialect) ([]statement.Statement, error) {
	switch c.Type() {
	case ChangeSQL:
		if !c.AppliesTo(dialect) {
			return nil, nil
		}
		return c.SQL.statements(dialect)
	case ChangeDropForeignKeys:
		return []statement.Statement{&statement.DropForeignKeys{Table: c.DropForeignKeys.Table}}, nil
	case ChangeSuppressOutput:
		return nil, nil
	default:
		return nil, c.Validate()
	}
}

func (s *SQLChange) statements(dialect *sqlgen.Dialect) ([]statement.Statement, error) {
	split := s.SplitStatements == nil || *s.SplitStatements

	var (
		parts []string
		err   error
	)

	if split || s.StripComments {
		opts := parser.Options{
			Delimiter:      s.EndDelimiter,
			BatchSeparator: dialect.UsesBatchSeparator(),
			KeepComments:   !s.StripComments,
		}

		parts, err = parser.Split(s.SQL, opts)
		if err != nil {
			return nil, errors.Wrap(err, "failed to split sql change")
		}

		if !split {
			parts = []string{strings.Join(parts, joiner(s.EndDelimiter))}
		}
	} else {
		parts = []string{strings.TrimSpace(s.SQL)}
	}

	stmts := make([]statement.Statement, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		stmts = append(stmts, &statement.RawSQL{SQL: p, EndDelimiter: s.EndDelimiter})
	}

	return stmts, nil
}

func joiner(delim string) string {
	if delim == "" {
		delim = parser.DefaultDelimiter
	}
	return delim + "\n"
}

func matchesDBMS(list, dialect string) bool {
	list = strings.TrimSpace(list)
	if list == "" {
		return true
	}

	included := false
	hasInclude := false

	for _, entry := range strings.Split(list, ",") {
		entry = strings.ToLower(strings.TrimSpace(entry))
		switch {
		case entry == "":
		case entry == "all":
			hasInclude, included = true, true
		case entry == "none":
			hasInclude = true
		case strings.HasPrefix(entry, "!"):
			if strings.TrimPrefix(entry, "!") == dialect {
				return false
			}
		default:
			hasInclude = true
			if entry == dialect {
				included = true
			}
		}
	}

	return included || !hasInclude
}
