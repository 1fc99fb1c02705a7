package ygggo_mysql_pool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/atomic"
)

// Lease states. A lease reaches leaseReleased exactly once; re-entering a
// released lease is not supported.
const (
	leaseUnacquired int32 = iota
	leaseAcquired
	leaseReleased
)

// ReleaseOutcome reports what the release protocol did with the connection.
// Cleanup failures never propagate; the outcome value is how they surface.
type ReleaseOutcome int

const (
	// OutcomeRecycled means the connection went back to the idle queue.
	OutcomeRecycled ReleaseOutcome = iota
	// OutcomeDiscardedDead means the release probe failed and the
	// connection was closed.
	OutcomeDiscardedDead
	// OutcomeDiscardedFull means the idle queue was at capacity and the
	// connection was closed. The capacity bound is enforced here, not at
	// acquire time.
	OutcomeDiscardedFull
	// OutcomeDiscardedClosed means the manager was closed while the lease
	// was out.
	OutcomeDiscardedClosed
	// OutcomeAlreadyReleased means Release was called on a lease that had
	// already run its release protocol; nothing was done.
	OutcomeAlreadyReleased
)

func (o ReleaseOutcome) String() string {
	switch o {
	case OutcomeRecycled:
		return "recycled"
	case OutcomeDiscardedDead:
		return "discarded_dead"
	case OutcomeDiscardedFull:
		return "discarded_full"
	case OutcomeDiscardedClosed:
		return "discarded_closed"
	case OutcomeAlreadyReleased:
		return "already_released"
	default:
		return "unknown"
	}
}

// Lease is the scoped right to use one connection exclusively. It bridges a
// connection to one caller invocation and is solely responsible for
// returning or discarding it afterward.
type Lease struct {
	m          *PoolManager
	kp         *keyPool
	conn       PooledConn
	state      atomic.Int32
	acquiredAt time.Time
}

// Acquire leases a connection for the given database name. The target key is
// the manager's host and user plus the database. It dequeues an idle
// connection when one is available within the acquire timeout, probing it
// first when PingOnBorrow is set; otherwise it opens a fresh one. The pool
// capacity bounds idle stock only; concurrent open connections can exceed
// it.
func (m *PoolManager) Acquire(ctx context.Context, database string) (*Lease, error) {
	if m.isClosed() {
		return nil, ErrPoolClosed
	}
	key := m.targetFor(database)
	kp := m.poolFor(key)

	start := time.Now()
	ctx, span := m.startSpan(ctx, "acquire", key)

	conn := m.dequeue(ctx, kp)
	if conn == nil {
		if err := ctx.Err(); err != nil {
			m.finishSpan(span, err)
			return nil, err
		}
	}
	if conn != nil {
		if m.cfg.PingOnBorrow && !m.isAlive(ctx, conn) {
			m.discard(kp, conn, "dead on borrow")
			conn = nil
		} else {
			kp.stats.reused.Inc()
			m.onConnReused(key)
		}
	}
	if conn == nil {
		created, err := m.factory.New(ctx, key, m.cfg.Password)
		if err != nil {
			err = fmt.Errorf("%w: target %s: %w", ErrAcquireTimeout, key, err)
			m.logAcquire(ctx, key, time.Since(start), err)
			m.finishSpan(span, err)
			return nil, err
		}
		conn = created
		kp.stats.created.Inc()
		kp.stats.live.Inc()
		m.onConnCreated(key)
	}

	kp.stats.leases.Inc()
	m.onLeaseStart(key)
	m.logAcquire(ctx, key, time.Since(start), nil)
	m.finishSpan(span, nil)

	l := &Lease{m: m, kp: kp, conn: conn, acquiredAt: time.Now()}
	l.state.Store(leaseAcquired)
	return l, nil
}

// dequeue tries for an idle connection. The fast path is non-blocking; when
// the queue is empty and no lease holder exists that could return one,
// waiting is pointless and the caller goes straight to the factory. Otherwise
// it waits up to the acquire timeout. A nil return is not fatal: it means
// "pool temporarily exhausted".
func (m *PoolManager) dequeue(ctx context.Context, kp *keyPool) PooledConn {
	select {
	case conn := <-kp.idle:
		return conn
	default:
	}
	if kp.stats.live.Load() == 0 {
		return nil
	}

	timer := time.NewTimer(m.cfg.AcquireTimeout)
	defer timer.Stop()
	select {
	case conn := <-kp.idle:
		return conn
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return nil
	}
}

// Conn returns the leased connection. It is nil once the lease is released.
func (l *Lease) Conn() PooledConn { return l.conn }

// Release runs the release protocol exactly once: rollback when the caller
// failed, re-probe, then recycle or discard. callerErr is the caller's own
// result, taken as an explicit input instead of inspecting unwind state.
// Release never returns an error and never panics; every
// cleanup failure is swallowed so it cannot replace the caller's failure.
func (l *Lease) Release(callerErr error) ReleaseOutcome {
	if !l.state.CompareAndSwap(leaseAcquired, leaseReleased) {
		return OutcomeAlreadyReleased
	}
	conn := l.conn
	l.conn = nil
	l.kp.stats.leases.Dec()

	outcome := l.m.release(l.kp, conn, callerErr)
	l.m.onLeaseEnd(l.kp.key, outcome, time.Since(l.acquiredAt))
	l.m.logRelease(l.kp.key, outcome, time.Since(l.acquiredAt), callerErr)
	return outcome
}

// release decides the connection's fate. Rollback before validate before
// return: a connection handed to the next lease never carries a stale open
// transaction and is never silently broken.
func (m *PoolManager) release(kp *keyPool, conn PooledConn, callerErr error) ReleaseOutcome {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.ProbeTimeout)
	defer cancel()

	if callerErr != nil {
		// Best effort: if the session is broken the probe below
		// catches it.
		_ = conn.Rollback(ctx)
	}
	if m.cfg.PingOnBorrow && !m.isAlive(ctx, conn) {
		m.discard(kp, conn, "dead on release")
		return OutcomeDiscardedDead
	}
	if m.isClosed() {
		m.discard(kp, conn, "manager closed")
		return OutcomeDiscardedClosed
	}
	select {
	case kp.idle <- conn:
		kp.stats.recycled.Inc()
		return OutcomeRecycled
	default:
		m.discard(kp, conn, "idle queue full")
		return OutcomeDiscardedFull
	}
}

// errCallerPanic stands in for the caller's result when fn never returns.
// Rollback must still happen on that path.
var errCallerPanic = errors.New("caller panicked inside lease")

// WithConn leases a connection for database, calls fn with it, and releases
// it unconditionally. fn's error propagates unchanged after cleanup; a panic
// in fn still rolls back before propagating.
func (m *PoolManager) WithConn(ctx context.Context, database string, fn func(PooledConn) error) error {
	lease, err := m.Acquire(ctx, database)
	if err != nil {
		return err
	}
	// Assume failure until fn returns, so the deferred release rolls back
	// when fn panics.
	callerErr := errCallerPanic
	defer func() { lease.Release(callerErr) }()
	callerErr = fn(lease.Conn())
	return callerErr
}
