package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/pseudomuto/hush/pkg/migrator"
	"github.com/urfave/cli/v3"
)

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "write the script to this file (overrides hush.yaml, - for stdout)",
		Config: cli.StringConfig{
			TrimSpace: true,
		},
	}
}

func offlineFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "offline",
		Usage: "render without a database connection",
	}
}

// update creates the update command, which applies the changelog to the
// configured database.
//
// Change sets run in order until one fails. suppressOutput changes wrap the
// database executor, so the statements between START EXECUTE and STOP
// EXECUTE are logged as "Suppressed: ..." instead of being run.
//
// Example usage:
//
//	# Apply db/changelog.yaml using hush.yaml
//	hush update
//
//	# Apply a different changelog
//	hush update --changelog db/hotfix.yaml
func update(p commandParams) *cli.Command {
	return &cli.Command{
		Name:  "update",
		Usage: "Apply the changelog to the database",
		Flags: []cli.Flag{changelogFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := openDatabase(ctx, p.Loader, cmd.String("changelog"))
			if err != nil {
				return err
			}
			results, err := s.runner.Update(ctx, s.changelog)
			if err := s.finish(err); err != nil {
				return err
			}

			return report(cmd.Root().Writer, "applied", results)
		},
	}
}

// updateSQL creates the update-sql command, which renders the changelog as a
// SQL script instead of applying it.
//
// Statements between START SQLFILE and STOP SQLFILE are written as
// "-- Suppressed: ..." comments. START EXECUTE has no effect on the script.
//
// Example usage:
//
//	# Print the script
//	hush update-sql
//
//	# Write the script to a file without connecting to the database
//	hush update-sql --offline -o out/update.sql
func updateSQL(p commandParams) *cli.Command {
	return &cli.Command{
		Name:  "update-sql",
		Usage: "Render the changelog as a SQL script",
		Flags: []cli.Flag{changelogFlag(), outputFlag(), offlineFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			out := cmd.Root().Writer

			s, err := openOutput(ctx, p.Loader, cmd.String("changelog"), cmd.String("output"), cmd.Bool("offline"), out)
			if err != nil {
				return err
			}
			results, err := s.runner.Update(ctx, s.changelog)
			if err := s.finish(err); err != nil {
				return err
			}

			return reportScript(cmd, s, "rendered", results)
		},
	}
}

// reportScript only prints the summary when the script didn't go to stdout.
func reportScript(cmd *cli.Command, s *session, verb string, results []*migrator.ChangeSetResult) error {
	dest := cmd.String("output")
	if dest == "" {
		dest = s.cfg.Output
	}

	if dest == "" || dest == "-" {
		return report(io.Discard, verb, results)
	}

	if err := report(cmd.Root().Writer, verb, results); err != nil {
		return err
	}

	fmt.Fprintf(cmd.Root().Writer, "Wrote %s\n", dest)
	return nil
}
