package ygggo_mysql_pool

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"time"
)

// Row is one result row decoded by column name, the structured row mode every
// pooled session is configured with.
type Row map[string]any

// PooledConn is a single database session owned by at most one place at a
// time: idle in a queue or leased to exactly one caller. It is never shared
// concurrently.
//
// Sessions run with autocommit disabled, so every statement executes inside
// the current implicit transaction. Callers finish their work with Commit;
// the lease guard issues Rollback when the caller's function fails.
type PooledConn interface {
	// Ping performs a liveness round trip. It never reconnects: a dead
	// session stays dead and must be closed.
	Ping(ctx context.Context) error
	// Exec runs a statement and returns the number of affected rows.
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	// Query runs a statement and returns all rows decoded by column name.
	Query(ctx context.Context, query string, args ...any) ([]Row, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	Close() error
}

// mysqlConn wraps a raw driver-level MySQL session. Working below
// database/sql keeps the pool in charge of session ownership: there is no
// hidden second pool and no transparent re-dial behind a probe.
type mysqlConn struct {
	raw    driver.Conn
	target TargetKey
}

func (c *mysqlConn) Ping(ctx context.Context) error {
	p, ok := c.raw.(driver.Pinger)
	if !ok {
		return fmt.Errorf("driver connection does not support ping")
	}
	return p.Ping(ctx)
}

func (c *mysqlConn) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	ex, ok := c.raw.(driver.ExecerContext)
	if !ok {
		return 0, fmt.Errorf("driver connection does not support exec")
	}
	nv, err := namedValues(args)
	if err != nil {
		return 0, err
	}
	res, err := ex.ExecContext(ctx, query, nv)
	if err != nil {
		return 0, err
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

func (c *mysqlConn) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	qc, ok := c.raw.(driver.QueryerContext)
	if !ok {
		return nil, fmt.Errorf("driver connection does not support query")
	}
	nv, err := namedValues(args)
	if err != nil {
		return nil, err
	}
	rows, err := qc.QueryContext(ctx, query, nv)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := rows.Columns()
	out := make([]Row, 0, 8)
	vals := make([]driver.Value, len(cols))
	for {
		if err := rows.Next(vals); err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			row[col] = decodeValue(vals[i])
		}
		out = append(out, row)
	}
	return out, nil
}

func (c *mysqlConn) Commit(ctx context.Context) error {
	_, err := c.Exec(ctx, "COMMIT")
	return err
}

func (c *mysqlConn) Rollback(ctx context.Context) error {
	_, err := c.Exec(ctx, "ROLLBACK")
	return err
}

func (c *mysqlConn) Close() error {
	return c.raw.Close()
}

// decodeValue copies driver-owned buffers out of the row cursor. Text
// protocol columns arrive as []byte; they are materialized as strings since
// every session runs utf8mb4.
func decodeValue(v driver.Value) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// namedValues converts caller arguments to driver.NamedValue, normalizing Go
// types to the driver.Value set.
func namedValues(args []any) ([]driver.NamedValue, error) {
	if len(args) == 0 {
		return nil, nil
	}
	out := make([]driver.NamedValue, len(args))
	for i, a := range args {
		v, err := driverValue(a)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		out[i] = driver.NamedValue{Ordinal: i + 1, Value: v}
	}
	return out, nil
}

func driverValue(a any) (driver.Value, error) {
	switch v := a.(type) {
	case nil:
		return nil, nil
	case int64, float64, bool, []byte, string, time.Time:
		return v, nil
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		if v > 1<<63-1 {
			return nil, fmt.Errorf("uint64 value %d overflows int64", v)
		}
		return int64(v), nil
	case float32:
		return float64(v), nil
	case driver.Valuer:
		return v.Value()
	default:
		return nil, fmt.Errorf("unsupported argument type %T", a)
	}
}

// sqlConn adapts a single-session *sql.DB to PooledConn. It backs the
// non-mysql driver path, where test drivers such as sqlmock register fixed
// DSNs and only speak database/sql.
type sqlConn struct {
	db *sql.DB
}

func (c *sqlConn) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *sqlConn) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

func (c *sqlConn) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	out := make([]Row, 0, 8)
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			row[col] = decodeValue(vals[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (c *sqlConn) Commit(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, "COMMIT")
	return err
}

func (c *sqlConn) Rollback(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, "ROLLBACK")
	return err
}

func (c *sqlConn) Close() error {
	return c.db.Close()
}
