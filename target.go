package ygggo_mysql_pool

import "fmt"

// TargetKey identifies one pool partition: (host, user, database).
//
// The password is deliberately not part of the key, matching the behavior the
// pipeline was built on. Two different credentials for the same host/user/db
// therefore share a partition; rotating a password does not strand idle
// connections, but a key can hand out connections authenticated with a
// credential the caller did not supply. Operators who need credential
// isolation should run separate PoolManagers.
type TargetKey struct {
	Host     string
	User     string
	Database string
}

func (k TargetKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Host, k.User, k.Database)
}

// targetFor builds the key for a lease request against the given database,
// using the manager's configured host and user.
func (m *PoolManager) targetFor(database string) TargetKey {
	return TargetKey{Host: m.cfg.Host, User: m.cfg.Username, Database: database}
}
