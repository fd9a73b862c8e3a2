package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/pseudomuto/hush/pkg/changelog"
	"github.com/pseudomuto/hush/pkg/config"
	"github.com/pseudomuto/hush/pkg/connect"
	"github.com/pseudomuto/hush/pkg/consts"
	"github.com/pseudomuto/hush/pkg/executor"
	"github.com/pseudomuto/hush/pkg/migrator"
	"github.com/pseudomuto/hush/pkg/registry"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

type (
	commandParams struct {
		fx.In

		Loader *config.Loader
	}

	// session is everything a command needs to run the changelog.
	session struct {
		cfg       *config.Config
		changelog *changelog.Changelog
		runner    *migrator.Runner
		closers   []io.Closer
	}

	nopCloser struct{ io.Writer }
)

func (nopCloser) Close() error { return nil }

func changelogFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "changelog",
		Usage: "the changelog file (overrides hush.yaml)",
		Config: cli.StringConfig{
			TrimSpace: true,
		},
	}
}

// loadProject reads the config and the changelog. path overrides the
// changelog named in the config when set.
func loadProject(loader *config.Loader, path string) (*config.Config, *changelog.Changelog, error) {
	cfg, err := loader.Load()
	if err != nil {
		return nil, nil, err
	}

	if path == "" {
		path = cfg.Changelog
	}

	cl, err := changelog.LoadFile(path)
	if err != nil {
		return nil, nil, err
	}

	return cfg, cl, nil
}

// openDatabase starts a session against the configured database.
func openDatabase(ctx context.Context, loader *config.Loader, path string) (*session, error) {
	cfg, cl, err := loadProject(loader, path)
	if err != nil {
		return nil, err
	}

	exec, closer, err := connect.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, changelog: cl, closers: []io.Closer{closer}}
	s.runner = newRunner(cfg, exec)
	return s, nil
}

// openOutput starts a session that renders SQL to out, or to the configured
// output when out is empty. Unless offline is set, a database connection is
// opened for statements that have to read metadata.
func openOutput(ctx context.Context, loader *config.Loader, path, out string, offline bool, stdout io.Writer) (*session, error) {
	cfg, cl, err := loadProject(loader, path)
	if err != nil {
		return nil, err
	}

	dialect, err := cfg.Dialect()
	if err != nil {
		return nil, err
	}

	if out == "" {
		out = cfg.Output
	}

	w, err := outputWriter(out, stdout)
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, changelog: cl, closers: []io.Closer{w}}

	var reader executor.Executor
	if !offline && cfg.Database.URL != "" {
		db, closer, err := connect.Open(ctx, cfg.Database)
		if err != nil {
			_ = s.Close()
			return nil, errors.Wrap(err, "failed to open metadata connection (use --offline to render without one)")
		}

		s.closers = append(s.closers, closer)
		reader = db
	}

	s.runner = newRunner(cfg, executor.NewOutput(w, dialect, reader))
	return s, nil
}

func outputWriter(out string, stdout io.Writer) (io.WriteCloser, error) {
	if out == "" || out == "-" {
		return nopCloser{stdout}, nil
	}

	if err := os.MkdirAll(filepath.Dir(out), consts.ModeDir); err != nil {
		return nil, errors.Wrapf(err, "failed to create directory for %s", out)
	}

	f, err := os.OpenFile(out, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, consts.ModeFile)
	return f, errors.Wrapf(err, "failed to open file: %s", out)
}

func newRunner(cfg *config.Config, exec executor.Executor) *migrator.Runner {
	dialect, _ := cfg.Dialect()
	db := registry.Database{Name: cfg.Database.Name, Dialect: dialect}

	reg := registry.New()
	reg.Set(db, exec)

	return migrator.New(migrator.Config{
		Registry:  reg,
		Database:  db,
		LockTable: cfg.Lock.Table,
		LockedBy:  cfg.Lock.LockedBy,
	})
}

// Close releases the session's resources, last opened first.
func (s *session) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}

	return first
}

// finish closes the session once the run is over. err is returned as is when
// set; otherwise a failure to close, like an unflushed output file, is.
func (s *session) finish(err error) error {
	if cerr := s.Close(); cerr != nil && err == nil {
		return errors.Wrap(cerr, "failed to close")
	}

	return err
}

// report prints one line per change set and returns the error of the failed
// change set, if any.
func report(w io.Writer, verb string, results []*migrator.ChangeSetResult) error {
	var (
		done   int
		failed *migrator.ChangeSetResult
	)

	for _, r := range results {
		switch r.Status {
		case migrator.StatusSuccess:
			done++
			fmt.Fprintf(w, "✓ %s %s (%d statements in %s)\n", r.Key(), verb, r.Statements, r.Duration.Round(time.Millisecond))
		case migrator.StatusSkipped:
			fmt.Fprintf(w, "- %s skipped\n", r.Key())
		case migrator.StatusFailed:
			failed = r
			fmt.Fprintf(w, "✗ %s failed: %v\n", r.Key(), r.Error)
		}
	}

	if failed != nil {
		return errors.Wrapf(failed.Error, "%d change set(s) %s before failure", done, verb)
	}

	fmt.Fprintf(w, "\n%d change set(s) %s\n", done, verb)
	return nil
}
