// Package migrator applies and rolls back changelogs through an executor
// registry.
//
// A Runner works against whatever executor is registered for its database:
// a Database executor applies the changelog for real, an Output executor
// renders it as a SQL script. suppressOutput changes are handed to a
// suppress.Controller, which swaps the registered executor, so every change
// after a START is demoted to a "Suppressed: ..." comment until the matching
// STOP.
//
// The changelog lock is claimed and released through the executor that was
// registered when the run started, never through a suppressing wrapper, so
// a changelog that leaves suppression on can't leave the lock held.
//
// Example usage:
//
//	reg := registry.New()
//	db := registry.Database{Name: "default", Dialect: sqlgen.Postgres}
//	reg.Set(db, exec)
//
//	runner := migrator.New(migrator.Config{
//		Registry:  reg,
//		Database:  db,
//		LockTable: "hush_changelog_lock",
//		LockedBy:  "ci",
//	})
//
//	results, err := runner.Update(ctx, cl)
//	if err != nil {
//		return err
//	}
//
//	for _, result := range results {
//		fmt.Printf("%s: %s (%d statements)\n", result.Key(), result.Status, result.Statements)
//	}
package migrator
