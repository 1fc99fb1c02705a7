package ygggo_mysql_pool

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds connection and pool configuration.
//
// Host, Port, Username and Password identify the server; the database name is
// supplied per lease and completes the target key. Pool settings apply to
// every target key managed by one PoolManager.
type Config struct {
	// Driver allows overriding the sql driver (e.g. "mysql" in prod,
	// "sqlmock" in tests). Empty means "mysql".
	Driver string `yaml:"driver"`
	// DSN is only consulted on the non-mysql driver path, where test
	// drivers register fixed DSNs.
	DSN string `yaml:"dsn"`

	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	Username string            `yaml:"username"`
	Password string            `yaml:"password"`
	Params   map[string]string `yaml:"params"`

	// PoolSize caps idle connections per target key, not concurrently
	// open ones.
	PoolSize int `yaml:"pool_size"`
	// AcquireTimeout bounds the wait for an idle connection before the
	// factory is asked for a fresh one.
	AcquireTimeout time.Duration `yaml:"acquire_timeout"`
	// PingOnBorrow enables health probes on both the acquire and the
	// release path.
	PingOnBorrow bool `yaml:"ping_on_borrow"`
	// ProbeTimeout bounds a single health probe round trip.
	ProbeTimeout time.Duration `yaml:"probe_timeout"`
}

// DefaultConfig returns a configuration with the stock pool settings:
// five idle connections per key, ten second acquire wait, probing enabled.
func DefaultConfig() Config {
	return Config{
		Port:           3306,
		PoolSize:       5,
		AcquireTimeout: 10 * time.Second,
		PingOnBorrow:   true,
		ProbeTimeout:   3 * time.Second,
	}
}

// ValidateConfig validates a pool configuration.
func ValidateConfig(c Config) error {
	if c.PoolSize <= 0 {
		return fmt.Errorf("PoolSize must be positive, got %d", c.PoolSize)
	}
	if c.AcquireTimeout <= 0 {
		return fmt.Errorf("AcquireTimeout must be positive, got %v", c.AcquireTimeout)
	}
	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("ProbeTimeout must be positive, got %v", c.ProbeTimeout)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("Port out of range, got %d", c.Port)
	}
	return nil
}

// Environment variable names recognized by applyEnv.
const (
	EnvDriver      = "YGGGO_MYSQL_DRIVER"
	EnvDSN         = "YGGGO_MYSQL_DSN"
	EnvHost        = "YGGGO_MYSQL_HOST"
	EnvPort        = "YGGGO_MYSQL_PORT"
	EnvUsername    = "YGGGO_MYSQL_USERNAME"
	EnvPassword    = "YGGGO_MYSQL_PASSWORD"
	EnvParams      = "YGGGO_MYSQL_PARAMS"
	EnvPoolSize    = "YGGGO_MYSQL_POOL_SIZE"
	EnvPoolTimeout = "YGGGO_MYSQL_POOL_TIMEOUT"
	EnvPoolPing    = "YGGGO_MYSQL_POOL_PING"
)

// applyEnv overrides cfg fields from YGGGO_MYSQL_* environment variables.
// Unset variables leave the corresponding field untouched.
func applyEnv(cfg *Config) {
	if v := getenv(EnvDriver); v != "" {
		cfg.Driver = v
	}
	if v := getenv(EnvDSN); v != "" {
		cfg.DSN = v
	}
	if v := getenv(EnvHost); v != "" {
		cfg.Host = v
	}
	if v := getenv(EnvPort); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	if v := getenv(EnvUsername); v != "" {
		cfg.Username = v
	}
	if v := getenv(EnvPassword); v != "" {
		cfg.Password = v
	}
	if v := getenv(EnvParams); v != "" {
		cfg.Params = parseParams(v)
	}
	if v := getenv(EnvPoolSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PoolSize = n
		}
	}
	if v := getenv(EnvPoolTimeout); v != "" {
		if d, ok := parseTimeout(v); ok {
			cfg.AcquireTimeout = d
		}
	}
	if v := getenv(EnvPoolPing); v != "" {
		cfg.PingOnBorrow = boolish(v)
	}
}

func getenv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// parseTimeout accepts either a Go duration ("10s", "500ms") or a bare
// number of seconds ("10").
func parseTimeout(v string) (time.Duration, bool) {
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d, true
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil && secs > 0 {
		return time.Duration(secs * float64(time.Second)), true
	}
	return 0, false
}

// parseParams parses "k=v&k2=v2" into a map.
func parseParams(v string) map[string]string {
	out := make(map[string]string)
	for _, part := range strings.Split(v, "&") {
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) == 2 {
			out[kv[0]] = kv[1]
		} else {
			out[kv[0]] = ""
		}
	}
	return out
}

func boolish(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// LoadEnvFile loads variables from a .env style file into the process
// environment without overriding variables that are already set.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// LoadConfigFile reads a YAML configuration file on top of DefaultConfig.
// Environment variables still win: callers that want env overrides apply
// them after loading, as NewPoolManagerEnv does.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}
