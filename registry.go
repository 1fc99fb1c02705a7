package ygggo_mysql_pool

import (
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/metric"
)

// keyPool is one target key's partition: a bounded queue of idle connections
// plus its counters. The channel serializes enqueue/dequeue; after creation
// the registry lock is never involved in connection traffic.
type keyPool struct {
	key   TargetKey
	idle  chan PooledConn
	stats keyStats
}

// PoolManager owns every pool partition for one credential set. It replaces
// the process-global registry of the original pipeline with an explicit
// object: construct one at process start, pass it to all callers, and tests
// get isolated pools for free.
type PoolManager struct {
	cfg     Config
	factory ConnectionFactory

	mu     sync.Mutex
	queues map[TargetKey]*keyPool
	closed bool

	logger         *slog.Logger
	loggingEnabled bool

	telemetryEnabled bool
	metricsEnabled   bool
	metrics          *poolMetrics
	meterProvider    metric.MeterProvider
}

// NewPoolManager creates a pool manager from an explicit configuration.
func NewPoolManager(cfg Config) (*PoolManager, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid pool configuration: %w", err)
	}
	return &PoolManager{
		cfg:     cfg,
		factory: newFactory(cfg),
		queues:  make(map[TargetKey]*keyPool),
	}, nil
}

// NewPoolManagerEnv creates a pool manager from DefaultConfig overridden by
// YGGGO_MYSQL_* environment variables.
func NewPoolManagerEnv() (*PoolManager, error) {
	cfg := DefaultConfig()
	applyEnv(&cfg)
	return NewPoolManager(cfg)
}

// poolFor returns the partition for key, creating it on first use.
// Concurrent first-time callers observe exactly one created partition; the
// lock covers only the create-if-absent check, never connection I/O.
// Partitions are never removed; they live as long as the manager.
func (m *PoolManager) poolFor(key TargetKey) *keyPool {
	m.mu.Lock()
	defer m.mu.Unlock()
	kp, ok := m.queues[key]
	if !ok {
		kp = &keyPool{key: key, idle: make(chan PooledConn, m.cfg.PoolSize)}
		m.queues[key] = kp
	}
	return kp
}

func (m *PoolManager) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Close marks the manager closed and closes every idle connection.
// Outstanding leases keep working; their connections are closed on release.
// Close is idempotent.
func (m *PoolManager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	pools := make([]*keyPool, 0, len(m.queues))
	for _, kp := range m.queues {
		pools = append(pools, kp)
	}
	m.mu.Unlock()

	for _, kp := range pools {
		drained := false
		for !drained {
			select {
			case conn := <-kp.idle:
				m.discard(kp, conn, "manager closed")
			default:
				drained = true
			}
		}
	}
	return nil
}

// discard closes a connection and forgets it. Close errors are swallowed: a
// discard happens while cleaning up and must never mask the caller's error.
func (m *PoolManager) discard(kp *keyPool, conn PooledConn, reason string) {
	_ = conn.Close()
	kp.stats.discarded.Inc()
	kp.stats.live.Dec()
	m.onConnDiscarded(kp.key, reason)
	m.logDiscard(kp.key, reason)
}
