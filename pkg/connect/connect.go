// Package connect opens a live executor for the configured database.
package connect

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
	"github.com/pseudomuto/hush/pkg/clickhouse"
	"github.com/pseudomuto/hush/pkg/config"
	"github.com/pseudomuto/hush/pkg/executor"
	"github.com/pseudomuto/hush/pkg/sqlgen"
	_ "modernc.org/sqlite"
)

// ErrNoDriver is returned for dialects hush can render but not connect to.
var ErrNoDriver = errors.New("no driver available for dialect")

// Open connects to db and returns a Database executor on top of the
// connection. The returned io.Closer releases the connection.
//
// Example:
//
//	exec, closer, err := connect.Open(ctx, cfg.Database)
//	if err != nil {
//		return err
//	}
//	defer closer.Close()
func Open(ctx context.Context, db config.Database) (*executor.Database, io.Closer, error) {
	dialect, err := sqlgen.LookupDialect(db.Dialect)
	if err != nil {
		return nil, nil, err
	}

	if strings.TrimSpace(db.URL) == "" {
		return nil, nil, errors.Errorf("database.url is required to connect to %s", dialect.Name)
	}

	switch dialect {
	case sqlgen.ClickHouse:
		client, err := clickhouse.NewClientWithOptions(ctx, db.URL, clickhouse.ClientOptions{
			TLSSettings: clickhouse.TLSSettings{
				CAFile:   db.TLS.CAFile,
				CertFile: db.TLS.CertFile,
				KeyFile:  db.TLS.KeyFile,
			},
		})
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to create ClickHouse client")
		}

		if v, err := client.Version(ctx); err == nil {
			slog.Debug("Connected to ClickHouse", "version", v.String())
		}

		return executor.NewDatabase(client, dialect), client, nil
	case sqlgen.Postgres:
		conn, err := openSQL(ctx, "pgx", db.URL)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to connect to postgres")
		}

		return executor.NewDatabase(executor.SQLConn(conn), dialect), conn, nil
	case sqlgen.SQLite:
		conn, err := openSQL(ctx, "sqlite", sqlitePath(db.URL))
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to open sqlite database")
		}

		// A single connection keeps the lock row and the schema changes on
		// the same handle.
		conn.SetMaxOpenConns(1)
		return executor.NewDatabase(executor.SQLConn(conn), dialect), conn, nil
	default:
		return nil, nil, errors.Wrapf(ErrNoDriver, "%s", dialect.Name)
	}
}

func openSQL(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return conn, nil
}

func sqlitePath(url string) string {
	for _, prefix := range []string{"sqlite://", "sqlite:"} {
		if strings.HasPrefix(url, prefix) {
			return strings.TrimPrefix(url, prefix)
		}
	}

	return url
}
