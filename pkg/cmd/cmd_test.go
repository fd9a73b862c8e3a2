package cmd

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/pseudomuto/hush/pkg/config"
	"github.com/pseudomuto/hush/pkg/consts"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
	_ "modernc.org/sqlite"
)

const testChangelog = `changeSets:
  - id: "001"
    author: ada
    changes:
      - sql:
          sql: CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT);
    rollback:
      - sql:
          sql: DROP TABLE users;

  - id: "002"
    author: ada
    changes:
      - suppressOutput:
          startOrStop: START
          suppress: SQLFILE
      - sql:
          sql: INSERT INTO users (id, name) VALUES (1, 'ada');
      - suppressOutput:
          startOrStop: STOP
          suppress: SQLFILE
    rollback:
      - sql:
          sql: DELETE FROM users WHERE id = 1;
`

type testProject struct {
	dir    string
	dbPath string
	loader *config.Loader
}

func newTestProject(t *testing.T, changelog string) *testProject {
	t.Helper()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "app.db")

	cfg := fmt.Sprintf(`database:
  name: app
  dialect: sqlite
  url: sqlite:%s
changelog: %s
lock:
  locked_by: test
`, dbPath, filepath.Join(dir, "changelog.yaml"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, consts.DefaultConfigFile), []byte(cfg), consts.ModeFile))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "changelog.yaml"), []byte(changelog), consts.ModeFile))

	return &testProject{
		dir:    dir,
		dbPath: dbPath,
		loader: config.NewLoader(filepath.Join(dir, consts.DefaultConfigFile)),
	}
}

func (p *testProject) params() commandParams {
	return commandParams{Loader: p.loader}
}

func (p *testProject) count(t *testing.T, query string) int {
	t.Helper()

	db, err := sql.Open("sqlite", p.dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var n int
	require.NoError(t, db.QueryRow(query).Scan(&n))
	return n
}

func runCommand(t *testing.T, command *cli.Command, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	app := &cli.Command{
		Name:     "hush",
		Writer:   &buf,
		Commands: []*cli.Command{command},
	}

	err := app.Run(context.Background(), append([]string{"hush", command.Name}, args...))
	return buf.String(), err
}

func TestUpdateCommand(t *testing.T) {
	p := newTestProject(t, testChangelog)

	out, err := runCommand(t, update(p.params()))
	require.NoError(t, err)
	require.Contains(t, out, "✓ 001::ada applied (1 statements")
	require.Contains(t, out, "✓ 002::ada applied (1 statements")
	require.Contains(t, out, "2 change set(s) applied")

	// SQLFILE suppression doesn't affect a live database.
	require.Equal(t, 1, p.count(t, "SELECT count(*) FROM users"))
	require.Equal(t, 0, p.count(t, "SELECT count(*) FROM hush_changelog_lock WHERE locked = TRUE"))
}

func TestUpdateCommand_Failure(t *testing.T) {
	p := newTestProject(t, `changeSets:
  - id: "001"
    author: ada
    changes:
      - sql:
          sql: INSERT INTO missing VALUES (1);
`)

	out, err := runCommand(t, update(p.params()))
	require.Error(t, err)
	require.Contains(t, err.Error(), "0 change set(s) applied before failure")
	require.Contains(t, out, "✗ 001::ada failed")
}

func TestUpdateSQLCommand_File(t *testing.T) {
	p := newTestProject(t, testChangelog)
	dest := filepath.Join(p.dir, "out", "update.sql")

	out, err := runCommand(t, updateSQL(p.params()), "--offline", "--output", dest)
	require.NoError(t, err)
	require.Contains(t, out, "Wrote "+dest)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)

	script := string(data)
	require.Contains(t, script, "-- Changeset 001::ada\nCREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT);\n")
	require.Contains(t, script, "-- Suppressed: INSERT INTO users (id, name) VALUES (1, 'ada');\n")
	require.NotContains(t, script, "\nINSERT INTO users")

	// Nothing was applied.
	require.NoFileExists(t, p.dbPath)
}

func TestUpdateSQLCommand_Stdout(t *testing.T) {
	p := newTestProject(t, testChangelog)

	out, err := runCommand(t, updateSQL(p.params()), "--offline")
	require.NoError(t, err)
	require.Contains(t, out, "-- Changeset 002::ada\n-- Suppressed: INSERT INTO users")
	require.NotContains(t, out, "change set(s)")
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestSession_Finish(t *testing.T) {
	errClose := errors.New("disk full")
	errRun := errors.New("change set failed")

	tests := []struct {
		name     string
		runErr   error
		closeErr error
		expected error
	}{
		{name: "clean", expected: nil},
		{name: "close fails after a successful run", closeErr: errClose, expected: errClose},
		{name: "run error wins", runErr: errRun, closeErr: errClose, expected: errRun},
		{name: "run error", runErr: errRun, expected: errRun},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			closed := 0
			s := &session{closers: []io.Closer{closerFunc(func() error {
				closed++
				return tt.closeErr
			})}}

			err := s.finish(tt.runErr)
			require.Equal(t, 1, closed)

			if tt.expected == nil {
				require.NoError(t, err)
				return
			}

			require.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestRollbackCommand(t *testing.T) {
	p := newTestProject(t, testChangelog)

	_, err := runCommand(t, update(p.params()))
	require.NoError(t, err)

	out, err := runCommand(t, rollback(p.params()))
	require.NoError(t, err)
	require.Contains(t, out, "✓ 002::ada rolled back")
	require.NotContains(t, out, "001::ada")
	require.Equal(t, 0, p.count(t, "SELECT count(*) FROM users"))

	out, err = runCommand(t, rollback(p.params()), "0")
	require.NoError(t, err)
	require.Contains(t, out, "2 change set(s) rolled back")
	require.Equal(t, 0, p.count(t, "SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'users'"))
}

func TestRollbackCommand_InvalidCount(t *testing.T) {
	p := newTestProject(t, testChangelog)

	_, err := runCommand(t, rollback(p.params()), "two")
	require.ErrorContains(t, err, `invalid rollback count "two"`)
}

func TestRollbackSQLCommand(t *testing.T) {
	p := newTestProject(t, testChangelog)

	out, err := runCommand(t, rollbackSQL(p.params()), "--offline", "0")
	require.NoError(t, err)
	require.Contains(t, out, "-- Changeset 002::ada\nDELETE FROM users WHERE id = 1;\n")
	require.Contains(t, out, "-- Changeset 001::ada\nDROP TABLE users;\n")
}

func TestValidateCommand(t *testing.T) {
	p := newTestProject(t, testChangelog)

	out, err := runCommand(t, validate(p.params()))
	require.NoError(t, err)
	require.Contains(t, out, "(sqlite, database app)")
	require.Contains(t, out, "(2 change sets, 2 suppressOutput changes)")
}

func TestValidateCommand_InvalidSuppress(t *testing.T) {
	p := newTestProject(t, `changeSets:
  - id: "001"
    author: ada
    changes:
      - suppressOutput:
          startOrStop: START
          suppress: EVERYTHING
`)

	_, err := runCommand(t, validate(p.params()))
	require.ErrorContains(t, err, `unknown suppress value "EVERYTHING"`)
}

func TestValidateCommand_MissingConfig(t *testing.T) {
	loader := config.NewLoader(filepath.Join(t.TempDir(), consts.DefaultConfigFile))

	_, err := runCommand(t, validate(commandParams{Loader: loader}))
	require.ErrorIs(t, err, config.ErrNotFound)
}
