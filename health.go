package ygggo_mysql_pool

import "context"

// isAlive performs the liveness probe: one ping round trip bounded by the
// configured probe timeout. PooledConn.Ping never reconnects, so the probe is
// side-effect-free on both the acquire and the release path; a connection
// that fails it must be closed, not reused.
func (m *PoolManager) isAlive(ctx context.Context, conn PooledConn) bool {
	pctx, cancel := context.WithTimeout(ctx, m.cfg.ProbeTimeout)
	defer cancel()
	return conn.Ping(pctx) == nil
}
