package consts

import "os"

const (
	// ModeDir is the standard file mode for creating directories
	ModeDir = os.FileMode(0o755)

	// ModeFile is the standard file mode for creating files
	ModeFile = os.FileMode(0o644)

	// DefaultConfigFile is the project configuration file looked up in the working directory
	DefaultConfigFile = "hush.yaml"

	// DefaultChangelog is the changelog path used when the config doesn't name one
	DefaultChangelog = "db/changelog.yaml"

	// DefaultDialect is the SQL dialect used when the config doesn't name one
	DefaultDialect = "clickhouse"

	// DefaultDatabaseName is the registry key used when the config doesn't name the database
	DefaultDatabaseName = "default"

	// DefaultLockTable is the table holding the single changelog lock row
	DefaultLockTable = "hush_changelog_lock"

	// DefaultLockedBy identifies the lock holder when nothing else is configured
	DefaultLockedBy = "hush"

	// SuppressedPrefix is prepended to every comment emitted in place of a suppressed statement
	SuppressedPrefix = "Suppressed: "
)
