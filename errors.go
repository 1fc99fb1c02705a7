package ygggo_mysql_pool

import (
	"database/sql/driver"
	"errors"
	"net"

	mysql "github.com/go-sql-driver/mysql"
)

var (
	// ErrAcquireTimeout reports that no idle connection became available
	// within the wait bound and opening a fresh one failed too. The factory
	// cause is wrapped alongside it.
	ErrAcquireTimeout = errors.New("acquire timeout: pool exhausted and connect failed")

	// ErrPoolClosed reports an operation on a closed PoolManager.
	ErrPoolClosed = errors.New("pool manager is closed")
)

// ErrorClass groups database errors by how callers should react to them.
type ErrorClass int

const (
	ErrClassUnknown ErrorClass = iota
	ErrClassRetryable
	ErrClassConflict
	ErrClassReadonly
	ErrClassConstraint
)

func (c ErrorClass) String() string {
	switch c {
	case ErrClassRetryable:
		return "Retryable"
	case ErrClassConflict:
		return "Conflict"
	case ErrClassReadonly:
		return "Readonly"
	case ErrClassConstraint:
		return "Constraint"
	default:
		return "Unknown"
	}
}

// Classify maps an error to its ErrorClass.
//
// Deadlocks, lock wait timeouts and broken sessions are retryable; duplicate
// keys are conflicts; foreign key violations are constraint errors; a server
// in super-read-only mode is readonly.
func Classify(err error) ErrorClass {
	if err == nil {
		return ErrClassUnknown
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case 1213, 1205: // deadlock, lock wait timeout
			return ErrClassRetryable
		case 1290: // read-only
			return ErrClassReadonly
		case 1062: // duplicate entry
			return ErrClassConflict
		case 1451, 1452, 3819: // FK and check constraint violations
			return ErrClassConstraint
		}
		return ErrClassUnknown
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return ErrClassRetryable
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return ErrClassRetryable
	}
	return ErrClassUnknown
}
