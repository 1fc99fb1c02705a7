package ygggo_mysql_pool

import (
	"sort"

	"go.uber.org/atomic"
)

// keyStats tracks lifetime counters for one target key.
type keyStats struct {
	created   atomic.Int64 // connections opened by the factory
	reused    atomic.Int64 // healthy connections handed out from the idle queue
	recycled  atomic.Int64 // connections returned to the idle queue
	discarded atomic.Int64 // connections closed instead of recycled
	live      atomic.Int64 // open connections attributable to this key
	leases    atomic.Int64 // currently active leases
}

// PoolStats is a point-in-time snapshot of one target key's pool.
type PoolStats struct {
	Target          TargetKey `json:"target"`
	Capacity        int       `json:"capacity"`
	Idle            int       `json:"idle"`
	OpenConnections int64     `json:"open_connections"`
	ActiveLeases    int64     `json:"active_leases"`
	Created         int64     `json:"created"`
	Reused          int64     `json:"reused"`
	Recycled        int64     `json:"recycled"`
	Discarded       int64     `json:"discarded"`
}

func (kp *keyPool) snapshot(capacity int) PoolStats {
	return PoolStats{
		Target:          kp.key,
		Capacity:        capacity,
		Idle:            len(kp.idle),
		OpenConnections: kp.stats.live.Load(),
		ActiveLeases:    kp.stats.leases.Load(),
		Created:         kp.stats.created.Load(),
		Reused:          kp.stats.reused.Load(),
		Recycled:        kp.stats.recycled.Load(),
		Discarded:       kp.stats.discarded.Load(),
	}
}

// Stats returns snapshots for every target key, ordered by key for
// deterministic output.
func (m *PoolManager) Stats() []PoolStats {
	m.mu.Lock()
	pools := make([]*keyPool, 0, len(m.queues))
	for _, kp := range m.queues {
		pools = append(pools, kp)
	}
	m.mu.Unlock()

	out := make([]PoolStats, 0, len(pools))
	for _, kp := range pools {
		out = append(out, kp.snapshot(m.cfg.PoolSize))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Target.String() < out[j].Target.String() })
	return out
}

// StatsFor returns the snapshot for the pool serving the given database name,
// if it exists yet.
func (m *PoolManager) StatsFor(database string) (PoolStats, bool) {
	key := m.targetFor(database)
	m.mu.Lock()
	kp, ok := m.queues[key]
	m.mu.Unlock()
	if !ok {
		return PoolStats{}, false
	}
	return kp.snapshot(m.cfg.PoolSize), true
}
