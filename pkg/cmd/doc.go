// Package cmd provides the hush command-line interface.
//
// Commands are built with urfave/cli/v3 and registered through an fx group,
// so cmd/hush only has to supply the process arguments and version.
//
// # Available Commands
//
//   - update: Apply the changelog to the configured database
//   - update-sql: Render the changelog as a SQL script
//   - rollback: Roll back change sets against the configured database
//   - rollback-sql: Render a rollback as a SQL script
//   - validate: Check hush.yaml and the changelog without touching a database
//
// # Global Options
//
//   - --dir, -d: Project directory (defaults to current directory)
//   - --config, -c: Config file, relative to --dir (defaults to hush.yaml)
//   - --verbose: Log at debug level
//
// A .env file in the project directory is loaded before any command runs, so
// ${VAR} references in database.url can be kept out of hush.yaml.
//
// # Example Usage
//
//	hush update                          # Apply the changelog
//	hush update-sql -o out/update.sql    # Write the script to a file
//	hush update-sql --offline            # Render without connecting
//	hush rollback 2                      # Roll back the last two change sets
//	hush --dir db/warehouse validate     # Validate another project
package cmd
