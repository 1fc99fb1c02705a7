// Package ygggo_mysql_pool provides a keyed MySQL connection pool for
// short-lived data-pipeline jobs.
//
// # Overview
//
// The pool amortizes connection-setup cost across many small units of work.
// Connections are partitioned by target key (host, user, database); each key
// owns a bounded queue of idle connections. A lease guard hands a connection
// to caller code and runs the release protocol unconditionally on scope exit:
// rollback if the caller failed, re-validate, then recycle or discard.
//
// # Quick Start
//
//	import ggp "github.com/yggai/ygggo_mysql_pool"
//
//	cfg := ggp.DefaultConfig()
//	cfg.Host = "localhost"
//	cfg.Username = "etl"
//	cfg.Password = "secret"
//
//	pm, err := ggp.NewPoolManager(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer pm.Close()
//
//	err = pm.WithConn(ctx, "stock_market_data_lake", func(conn ggp.PooledConn) error {
//		if _, err := conn.Exec(ctx, "INSERT INTO t (a) VALUES (?)", 1); err != nil {
//			return err
//		}
//		return conn.Commit(ctx)
//	})
//
// Sessions run with autocommit disabled. Callers own the commit; the guard
// only guarantees rollback when the caller's function returns an error.
//
// # Configuration
//
// The library supports both programmatic configuration and environment
// variables. Environment variables use the prefix YGGGO_MYSQL_*
// (e.g. YGGGO_MYSQL_HOST, YGGGO_MYSQL_POOL_SIZE).
//
// # Observability
//
//   - Structured logging of acquire/release events via log/slog
//   - OpenTelemetry spans and counters for lease traffic
//   - Per-target pool statistics
//
// For runnable examples, see the examples/ directory in the repository.
package ygggo_mysql_pool

// Version returns the current library version.
//
// This version follows semantic versioning (semver) principles.
// During development, it returns "v0.0.0-dev".
func Version() string { return "v0.0.0-dev" }
