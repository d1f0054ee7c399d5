// Package repository implements persistence for resources, bookings
// and the discount settings document over a transactional SQL store.
// This file defines error types that are reused across the
// repositories.  The sentinel values and typed errors let higher
// layers distinguish the failure classes that matter to callers:
// "someone else took this resource" (conflict) versus "unknown id"
// (not found) versus "try again shortly" (transient).
package repository

import (
    "database/sql/driver"
    "errors"
    "fmt"
    "strings"

    "github.com/go-sql-driver/mysql"
)

// ErrResourceNotFound is returned when a referenced resource id does
// not exist within the requested scope.
var ErrResourceNotFound = errors.New("resource not found")

// ErrBookingNotFound is returned when no booking exists for the
// requested id.
var ErrBookingNotFound = errors.New("booking not found")

// ErrSettingsNotFound is returned when the discount settings document
// has not been provisioned yet.
var ErrSettingsNotFound = errors.New("discount settings not found")

// UnavailableError reports a failed claim: at least one requested
// resource was not AVAILABLE.  The whole claim rolls back, so no
// resource in the set changed state.  IDs lists the offending
// resources so the caller can decide to reselect or abort.
type UnavailableError struct {
    IDs []string
}

func (e *UnavailableError) Error() string {
    return fmt.Sprintf("resources unavailable: %s", strings.Join(e.IDs, ", "))
}

// TransientError wraps a backing-store failure that is expected to
// clear on its own, such as a deadlock between concurrent claims or a
// dropped connection.  Callers may retry a bounded number of times
// with backoff; all other errors must propagate immediately.
type TransientError struct {
    Err error
}

func (e *TransientError) Error() string { return "transient store error: " + e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// asStoreErr classifies a raw database error.  MySQL error 1213
// (deadlock victim) and 1205 (lock wait timeout) are the expected
// outcome of concurrent claims locking overlapping row sets and are
// marked transient, as are dropped connections.  Everything else is
// returned unchanged.
func asStoreErr(err error) error {
    if err == nil {
        return nil
    }
    if errors.Is(err, driver.ErrBadConn) {
        return &TransientError{Err: err}
    }
    var me *mysql.MySQLError
    if errors.As(err, &me) && (me.Number == 1205 || me.Number == 1213) {
        return &TransientError{Err: err}
    }
    return err
}
