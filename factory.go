package ygggo_mysql_pool

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	mysql "github.com/go-sql-driver/mysql"
)

// ConnectionFactory opens fresh database sessions for a target key.
// Factories never retry; the acquire path decides what to do with a failure.
type ConnectionFactory interface {
	New(ctx context.Context, key TargetKey, password string) (PooledConn, error)
}

// newFactory selects the factory implementation by configured driver.
func newFactory(cfg Config) ConnectionFactory {
	driver := strings.TrimSpace(cfg.Driver)
	if driver == "" || driver == "mysql" {
		return &mysqlFactory{cfg: cfg}
	}
	return &sqlFactory{cfg: cfg, driver: driver}
}

// sessionConfig builds the driver configuration every pooled session is
// opened with: utf8mb4, column-named row decoding, autocommit disabled so
// transaction boundaries are explicit.
func sessionConfig(cfg Config, key TargetKey, password string) *mysql.Config {
	mc := mysql.NewConfig()
	mc.Net = "tcp"
	addr := key.Host
	if cfg.Port > 0 {
		addr = fmt.Sprintf("%s:%d", key.Host, cfg.Port)
	}
	mc.Addr = addr
	mc.User = key.User
	mc.Passwd = password
	mc.DBName = key.Database
	mc.Collation = "utf8mb4_general_ci"
	mc.ParseTime = true
	// Client-side interpolation lets ExecContext run without a prepared
	// statement round trip on the raw driver connection.
	mc.InterpolateParams = true
	mc.Params = map[string]string{
		"charset":    "utf8mb4",
		"autocommit": "0",
	}
	for k, v := range cfg.Params {
		mc.Params[k] = v
	}
	return mc
}

// mysqlFactory opens raw driver-level MySQL sessions. The pool owns the
// session lifecycle outright; database/sql and its own pooling are not
// involved on this path.
type mysqlFactory struct {
	cfg Config
}

func (f *mysqlFactory) New(ctx context.Context, key TargetKey, password string) (PooledConn, error) {
	connector, err := mysql.NewConnector(sessionConfig(f.cfg, key, password))
	if err != nil {
		return nil, fmt.Errorf("configure connection for %s: %w", key, err)
	}
	raw, err := connector.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", key, err)
	}
	return &mysqlConn{raw: raw, target: key}, nil
}

// sqlFactory opens sessions through database/sql for overridden drivers.
// Each PooledConn gets a dedicated single-session handle so ownership
// semantics match the raw driver path.
type sqlFactory struct {
	cfg    Config
	driver string
}

func (f *sqlFactory) New(ctx context.Context, key TargetKey, password string) (PooledConn, error) {
	dsn := f.cfg.DSN
	if strings.TrimSpace(dsn) == "" {
		dsn = sessionConfig(f.cfg, key, password).FormatDSN()
	}
	db, err := sql.Open(f.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s session for %s: %w", f.driver, key, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	// sql.Open is lazy; force the handshake so factory failure is loud.
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to %s: %w", key, err)
	}
	return &sqlConn{db: db}, nil
}
