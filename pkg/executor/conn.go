package executor

import (
	"context"
	"database/sql"
)

type (
	// Conn is the minimal connection surface the Database executor needs.
	Conn interface {
		Query(ctx context.Context, query string) (Rows, error)
		Exec(ctx context.Context, query string) (int64, error)
	}

	// Rows is a result set cursor. *sql.Rows satisfies it.
	Rows interface {
		Next() bool
		Scan(dest ...any) error
		Columns() ([]string, error)
		Close() error
		Err() error
	}

	sqlConn struct {
		db *sql.DB
	}
)

// SQLConn adapts a database/sql handle to Conn.
func SQLConn(db *sql.DB) Conn {
	return &sqlConn{db: db}
}

func (c *sqlConn) Query(ctx context.Context, query string) (Rows, error) {
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	return rows, nil
}

func (c *sqlConn) Exec(ctx context.Context, query string) (int64, error) {
	res, err := c.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}

	// Drivers that can't count affected rows (DDL mostly) report zero.
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}

	return n, nil
}
