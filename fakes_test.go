package ygggo_mysql_pool

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/atomic"
)

// fakeConn is an in-memory PooledConn for pool semantics tests. It tracks
// transaction state the way a real session does: any statement opens the
// implicit transaction, commit/rollback close it.
type fakeConn struct {
	id int

	mu        sync.Mutex
	pingErr   error
	execErr   error
	execErrAt int // 1-based exec call that fails; 0 means execErr applies to all
	commitErr error
	queryRows []Row
	execs     []string
	commits   int
	rollbacks int
	closed    bool
	txOpen    bool

	busy atomic.Bool // ownership violation detector
}

func (c *fakeConn) Ping(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("ping on closed connection")
	}
	return c.pingErr
}

func (c *fakeConn) Exec(_ context.Context, query string, _ ...any) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	call := len(c.execs) + 1
	if c.execErr != nil && (c.execErrAt == 0 || c.execErrAt == call) {
		c.execs = append(c.execs, query)
		return 0, c.execErr
	}
	c.execs = append(c.execs, query)
	c.txOpen = true
	return 1, nil
}

func (c *fakeConn) Query(_ context.Context, _ string, _ ...any) ([]Row, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.txOpen = true
	return c.queryRows, nil
}

func (c *fakeConn) Commit(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.commitErr != nil {
		return c.commitErr
	}
	c.commits++
	c.txOpen = false
	return nil
}

func (c *fakeConn) Rollback(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rollbacks++
	c.txOpen = false
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) hasOpenTx() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.txOpen
}

func (c *fakeConn) setPingErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pingErr = err
}

// fakeFactory hands out fakeConns and remembers every one it made.
type fakeFactory struct {
	mu      sync.Mutex
	err     error
	made    []*fakeConn
	prep    func(*fakeConn) // runs on each new conn before handout
	delay   time.Duration
	lastKey TargetKey
}

func (f *fakeFactory) New(_ context.Context, key TargetKey, _ string) (PooledConn, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastKey = key
	if f.err != nil {
		return nil, f.err
	}
	c := &fakeConn{id: len(f.made) + 1}
	if f.prep != nil {
		f.prep(c)
	}
	f.made = append(f.made, c)
	return c, nil
}

func (f *fakeFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.made)
}

func (f *fakeFactory) conn(i int) *fakeConn {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.made[i]
}

// setFactory swaps the factory; test-only hook.
func (m *PoolManager) setFactory(f ConnectionFactory) { m.factory = f }

// newTestManager builds a manager with short timeouts and a fake factory.
func newTestManager(t *testing.T, mutate func(*Config)) (*PoolManager, *fakeFactory) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Host = "db.test"
	cfg.Username = "etl"
	cfg.Password = "secret"
	cfg.AcquireTimeout = 50 * time.Millisecond
	cfg.ProbeTimeout = 50 * time.Millisecond
	if mutate != nil {
		mutate(&cfg)
	}
	m, err := NewPoolManager(cfg)
	if err != nil {
		t.Fatalf("NewPoolManager: %v", err)
	}
	f := &fakeFactory{}
	m.setFactory(f)
	t.Cleanup(func() { _ = m.Close() })
	return m, f
}
