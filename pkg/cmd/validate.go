package cmd

import (
	"context"
	"fmt"

	"github.com/pseudomuto/hush/pkg/changelog"
	"github.com/urfave/cli/v3"
)

// validate creates the validate command, which loads hush.yaml and the
// changelog without connecting to a database.
//
// Every suppressOutput change is parsed, so a misspelled suppress or
// startOrStop value is reported here instead of halfway through an update.
func validate(p commandParams) *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Check the config and changelog",
		Flags: []cli.Flag{changelogFlag()},
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg, cl, err := loadProject(p.Loader, cmd.String("changelog"))
			if err != nil {
				return err
			}

			w := cmd.Root().Writer
			fmt.Fprintf(w, "✓ %s is valid (%s, database %s)\n", p.Loader.Path(), cfg.Database.Dialect, cfg.Database.Name)
			fmt.Fprintf(w, "✓ %s is valid (%d change sets, %d suppressOutput changes)\n", changelogPath(cfg.Changelog, cmd.String("changelog")), len(cl.ChangeSets), suppressCount(cl))
			return nil
		},
	}
}

func changelogPath(configured, override string) string {
	if override != "" {
		return override
	}
	return configured
}

func suppressCount(cl *changelog.Changelog) int {
	n := 0
	count := func(changes []*changelog.Change) {
		for _, c := range changes {
			if c.Type() == changelog.ChangeSuppressOutput {
				n++
			}
		}
	}

	for _, cs := range cl.ChangeSets {
		count(cs.Changes)
		count(cs.Rollback)
	}

	return n
}
