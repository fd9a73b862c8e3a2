package statement

type (
	// Statement is a single unit of work handed to an executor.
	Statement interface {
		// StatementName returns a short, stable name for the statement type,
		// used in logs and error messages.
		StatementName() string
	}

	// RawSQL is SQL text supplied by the user.
	RawSQL struct {
		// SQL is the statement text, without a trailing delimiter.
		SQL string

		// EndDelimiter overrides the dialect terminator when the statement is
		// rendered. Empty means use the dialect default.
		EndDelimiter string

		// Comment is an optional description carried alongside the statement.
		Comment string
	}

	// CreateLockTable creates the changelog lock table if it doesn't exist.
	CreateLockTable struct {
		Table string
	}

	// InitLockTable inserts the single lock row if it isn't there yet.
	InitLockTable struct {
		Table string
	}

	// LockChangelog claims the changelog lock. Executing it must affect exactly
	// one row when the lock was free.
	LockChangelog struct {
		Table    string
		LockedBy string
	}

	// UnlockChangelog releases the changelog lock.
	UnlockChangelog struct {
		Table string
	}

	// DropForeignKeys drops all foreign key constraints declared on Table.
	DropForeignKeys struct {
		Table string
	}
)

// Raw is shorthand for a RawSQL statement with the default delimiter.
func Raw(sql string) *RawSQL {
	return &RawSQL{SQL: sql}
}

func (*RawSQL) StatementName() string          { return "RawSQL" }
func (*CreateLockTable) StatementName() string { return "CreateLockTable" }
func (*InitLockTable) StatementName() string   { return "InitLockTable" }
func (*LockChangelog) StatementName() string   { return "LockChangelog" }
func (*UnlockChangelog) StatementName() string { return "UnlockChangelog" }
func (*DropForeignKeys) StatementName() string { return "DropForeignKeys" }

// IsBookkeeping reports whether stmt belongs to the changelog lock protocol.
// Executors that don't touch the database still have to report these as
// successful, otherwise the runner could never claim or release its lock.
func IsBookkeeping(stmt Statement) bool {
	switch stmt.(type) {
	case *LockChangelog, *UnlockChangelog:
		return true
	default:
		return false
	}
}
