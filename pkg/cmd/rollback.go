package cmd

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
)

// rollback creates the rollback command, which rolls back the last COUNT
// change sets against the configured database.
//
// Change sets with a rollback block run it. Change sets without one can only
// be rolled back when every change is a suppressOutput change, which is then
// inverted.
//
// Example usage:
//
//	# Roll back the last change set
//	hush rollback
//
//	# Roll back the last three change sets
//	hush rollback 3
//
//	# Roll back everything
//	hush rollback 0
func rollback(p commandParams) *cli.Command {
	return &cli.Command{
		Name:      "rollback",
		Usage:     "Roll back change sets against the database",
		ArgsUsage: "[COUNT]",
		Flags:     []cli.Flag{changelogFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			count, err := rollbackCount(cmd)
			if err != nil {
				return err
			}

			s, err := openDatabase(ctx, p.Loader, cmd.String("changelog"))
			if err != nil {
				return err
			}
			results, err := s.runner.Rollback(ctx, s.changelog, count)
			if err := s.finish(err); err != nil {
				return err
			}

			return report(cmd.Root().Writer, "rolled back", results)
		},
	}
}

// rollbackSQL creates the rollback-sql command, which renders a rollback as a
// SQL script.
//
// Example usage:
//
//	hush rollback-sql 2 -o out/rollback.sql
func rollbackSQL(p commandParams) *cli.Command {
	return &cli.Command{
		Name:      "rollback-sql",
		Usage:     "Render a rollback as a SQL script",
		ArgsUsage: "[COUNT]",
		Flags:     []cli.Flag{changelogFlag(), outputFlag(), offlineFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			count, err := rollbackCount(cmd)
			if err != nil {
				return err
			}

			s, err := openOutput(ctx, p.Loader, cmd.String("changelog"), cmd.String("output"), cmd.Bool("offline"), cmd.Root().Writer)
			if err != nil {
				return err
			}
			results, err := s.runner.Rollback(ctx, s.changelog, count)
			if err := s.finish(err); err != nil {
				return err
			}

			return reportScript(cmd, s, "rolled back", results)
		},
	}
}

// rollbackCount reads the optional COUNT argument. It defaults to 1; 0 means
// every change set.
func rollbackCount(cmd *cli.Command) (int, error) {
	arg := cmd.Args().First()
	if arg == "" {
		return 1, nil
	}

	count, err := strconv.Atoi(arg)
	if err != nil || count < 0 {
		return 0, errors.Errorf("invalid rollback count %q, expected a non-negative number", arg)
	}

	return count, nil
}
