package ygggo_mysql_pool

import (
	"context"
	"fmt"
)

// Runner executes statement batches against one database through the pool.
// It is the consumption pattern of the pipeline scripts packaged up: lease a
// connection, execute statements, commit, release. Transient failures are
// retried with a fresh lease; the SQL itself is opaque to the runner.
type Runner struct {
	m        *PoolManager
	database string
	retry    RetryPolicy
}

// NewRunner creates a runner bound to one database name.
func NewRunner(m *PoolManager, database string) *Runner {
	return &Runner{m: m, database: database, retry: DefaultRetryPolicy()}
}

// SetRetryPolicy replaces the runner's retry policy.
func (r *Runner) SetRetryPolicy(pol RetryPolicy) {
	r.retry = pol
}

// Run executes all statements inside one lease and commits once at the end.
// It returns the total number of affected rows. On failure the lease rolls
// back, so a retried attempt starts from a clean transaction.
func (r *Runner) Run(ctx context.Context, stmts ...string) (int64, error) {
	var affected int64
	op := func() error {
		affected = 0
		return r.m.WithConn(ctx, r.database, func(conn PooledConn) error {
			for i, stmt := range stmts {
				n, err := conn.Exec(ctx, stmt)
				if err != nil {
					return fmt.Errorf("statement %d: %w", i+1, err)
				}
				affected += n
			}
			return conn.Commit(ctx)
		})
	}
	err := retryWithPolicy(ctx, r.retry, op, Classify)
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// RunEach executes statements inside one lease, committing after each one.
// Work committed before a failure stays committed; only the failing
// statement's transaction rolls back. Suited to batch loads where items are
// independent.
func (r *Runner) RunEach(ctx context.Context, stmts []string) (int64, error) {
	var affected int64
	op := func() error {
		affected = 0
		return r.m.WithConn(ctx, r.database, func(conn PooledConn) error {
			for i, stmt := range stmts {
				n, err := conn.Exec(ctx, stmt)
				if err != nil {
					return fmt.Errorf("statement %d: %w", i+1, err)
				}
				if err := conn.Commit(ctx); err != nil {
					return fmt.Errorf("commit statement %d: %w", i+1, err)
				}
				affected += n
			}
			return nil
		})
	}
	err := retryWithPolicy(ctx, r.retry, op, Classify)
	if err != nil {
		return affected, err
	}
	return affected, nil
}

// Query runs a read inside one lease and returns all rows. Sessions run with
// autocommit disabled, so even a SELECT opens a transaction; the runner ends
// the read snapshot with a rollback before the connection goes back to the
// pool.
func (r *Runner) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	var rows []Row
	op := func() error {
		return r.m.WithConn(ctx, r.database, func(conn PooledConn) error {
			got, err := conn.Query(ctx, query, args...)
			if err != nil {
				return err
			}
			rows = got
			return conn.Rollback(ctx)
		})
	}
	if err := retryWithPolicy(ctx, r.retry, op, Classify); err != nil {
		return nil, err
	}
	return rows, nil
}
