package repository

import (
    "context"
    "database/sql"
    "sort"
    "strings"
    "time"

    "github.com/avereno/venue-reservation/internal/model"
)

// ResourceRepo is the inventory store.  It holds per-resource
// availability records keyed by resource id within a scope and exposes
// the atomic check-and-claim and check-and-release operations that
// carry the service's entire concurrency contract.  All multi-row
// mutations run inside a single database transaction with the affected
// rows locked (SELECT ... FOR UPDATE), never lock-then-write across
// separate calls: concurrent claims over overlapping sets serialize in
// the store, and at most one succeeds.
type ResourceRepo struct {
    db *sql.DB
}

// NewResourceRepo returns a ResourceRepo bound to the given database.
func NewResourceRepo(db *sql.DB) *ResourceRepo { return &ResourceRepo{db: db} }

// placeholders returns "?, ?, ..." for n parameters.
func placeholders(n int) string {
    return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func idArgs(scopeKey string, ids []string) []interface{} {
    args := make([]interface{}, 0, len(ids)+1)
    args = append(args, scopeKey)
    for _, id := range ids {
        args = append(args, id)
    }
    return args
}

// CreateBulk inserts the generated layout resources for a scope in one
// statement.  It is used once at layout-generation time.  Inserting an
// id that already exists in the scope fails; layouts are never
// regenerated over live inventory.
func (r *ResourceRepo) CreateBulk(ctx context.Context, resources []model.Resource) error {
    if len(resources) == 0 {
        return nil
    }
    query := `INSERT INTO resources (id, scope_key, category, base_price_cents, status, status_changed_at, created_at) VALUES `
    args := make([]interface{}, 0, len(resources)*7)
    for i, res := range resources {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?, ?, ?, ?, ?)"
        args = append(args, res.ID, res.ScopeKey, string(res.Category), res.BasePriceCents,
            string(res.Status), res.StatusChangedAt.UTC(), res.CreatedAt.UTC())
    }
    _, err := r.db.ExecContext(ctx, query, args...)
    return asStoreErr(err)
}

// CheckAvailability returns the current status of each requested
// resource.  It is a plain read with no side effects and no locking;
// the result may be stale by the time the caller acts on it, which is
// why claims re-verify under lock.  Unknown ids are absent from the
// returned map.
func (r *ResourceRepo) CheckAvailability(ctx context.Context, scopeKey string, ids []string) (map[string]model.ResourceStatus, error) {
    if len(ids) == 0 {
        return map[string]model.ResourceStatus{}, nil
    }
    query := `SELECT id, status FROM resources WHERE scope_key = ? AND id IN (` + placeholders(len(ids)) + `)`
    rows, err := r.db.QueryContext(ctx, query, idArgs(scopeKey, ids)...)
    if err != nil {
        return nil, asStoreErr(err)
    }
    defer rows.Close()
    statuses := make(map[string]model.ResourceStatus, len(ids))
    for rows.Next() {
        var id, status string
        if err := rows.Scan(&id, &status); err != nil {
            return nil, err
        }
        statuses[id] = model.ResourceStatus(status)
    }
    if err := rows.Err(); err != nil {
        return nil, asStoreErr(err)
    }
    return statuses, nil
}

// ListByScope returns every resource in a scope ordered by id.  It
// backs the public availability snapshot.
func (r *ResourceRepo) ListByScope(ctx context.Context, scopeKey string) ([]model.Resource, error) {
    const q = `SELECT id, scope_key, category, base_price_cents, status, owner_booking_id, block_reason, status_changed_at, created_at
               FROM resources WHERE scope_key = ? ORDER BY id`
    rows, err := r.db.QueryContext(ctx, q, scopeKey)
    if err != nil {
        return nil, asStoreErr(err)
    }
    defer rows.Close()
    resources := make([]model.Resource, 0)
    for rows.Next() {
        var res model.Resource
        var owner, reason sql.NullString
        if err := rows.Scan(&res.ID, &res.ScopeKey, &res.Category, &res.BasePriceCents,
            &res.Status, &owner, &reason, &res.StatusChangedAt, &res.CreatedAt); err != nil {
            return nil, err
        }
        if owner.Valid {
            v := owner.String
            res.OwnerBookingID = &v
        }
        if reason.Valid {
            v := reason.String
            res.BlockReason = &v
        }
        resources = append(resources, res)
    }
    if err := rows.Err(); err != nil {
        return nil, asStoreErr(err)
    }
    return resources, nil
}

// BasePrices returns the per-resource base price for each requested id.
// Every id must exist in the scope; a missing id yields
// ErrResourceNotFound so a reservation can be rejected before any
// claim is attempted.
func (r *ResourceRepo) BasePrices(ctx context.Context, scopeKey string, ids []string) (map[string]int64, error) {
    if len(ids) == 0 {
        return map[string]int64{}, nil
    }
    query := `SELECT id, base_price_cents FROM resources WHERE scope_key = ? AND id IN (` + placeholders(len(ids)) + `)`
    rows, err := r.db.QueryContext(ctx, query, idArgs(scopeKey, ids)...)
    if err != nil {
        return nil, asStoreErr(err)
    }
    defer rows.Close()
    prices := make(map[string]int64, len(ids))
    for rows.Next() {
        var id string
        var price int64
        if err := rows.Scan(&id, &price); err != nil {
            return nil, err
        }
        prices[id] = price
    }
    if err := rows.Err(); err != nil {
        return nil, asStoreErr(err)
    }
    if len(prices) != len(ids) {
        return nil, ErrResourceNotFound
    }
    return prices, nil
}

// lockStatuses reads and locks the requested rows inside tx and
// returns their statuses.  Rows stay locked until the transaction
// ends, which is what serializes overlapping claims.
func lockStatuses(ctx context.Context, tx *sql.Tx, scopeKey string, ids []string) (map[string]string, error) {
    query := `SELECT id, status FROM resources WHERE scope_key = ? AND id IN (` + placeholders(len(ids)) + `) FOR UPDATE`
    rows, err := tx.QueryContext(ctx, query, idArgs(scopeKey, ids)...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    statuses := make(map[string]string, len(ids))
    for rows.Next() {
        var id, status string
        if err := rows.Scan(&id, &status); err != nil {
            return nil, err
        }
        statuses[id] = status
    }
    return statuses, rows.Err()
}

// Claim atomically transitions every requested resource from AVAILABLE
// to BOOKED owned by bookingID.  The semantics are all-or-nothing: if
// any id is missing, blocked or already booked, no state changes and
// the offending ids are reported via UnavailableError (or
// ErrResourceNotFound for unknown ids).  Locks are acquired in sorted
// id order so that two claims over overlapping sets cannot deadlock on
// lock ordering alone; a genuine deadlock surfaces as a TransientError
// for the caller to retry.
func (r *ResourceRepo) Claim(ctx context.Context, scopeKey string, ids []string, bookingID string) error {
    if len(ids) == 0 {
        return nil
    }
    sorted := append([]string(nil), ids...)
    sort.Strings(sorted)

    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return asStoreErr(err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    statuses, err := lockStatuses(ctx, tx, scopeKey, sorted)
    if err != nil {
        return asStoreErr(err)
    }
    var unavailable []string
    for _, id := range sorted {
        status, ok := statuses[id]
        if !ok {
            return ErrResourceNotFound
        }
        if status != string(model.ResourceAvailable) {
            unavailable = append(unavailable, id)
        }
    }
    if len(unavailable) > 0 {
        return &UnavailableError{IDs: unavailable}
    }

    query := `UPDATE resources SET status = ?, owner_booking_id = ?, status_changed_at = ?
              WHERE scope_key = ? AND id IN (` + placeholders(len(sorted)) + `)`
    args := []interface{}{string(model.ResourceBooked), bookingID, time.Now().UTC()}
    args = append(args, idArgs(scopeKey, sorted)...)
    if _, err := tx.ExecContext(ctx, query, args...); err != nil {
        return asStoreErr(err)
    }
    if err := tx.Commit(); err != nil {
        return asStoreErr(err)
    }
    committed = true
    return nil
}

// Release returns resources claimed by bookingID to the pool.  The
// owner guard in the WHERE clause makes it safe against stale reads:
// rows that have since been released and reassigned to another booking
// are simply not touched.  Releasing an already-available resource is
// a no-op, not an error, so the operation is idempotent.
func (r *ResourceRepo) Release(ctx context.Context, scopeKey string, ids []string, bookingID string) error {
    if len(ids) == 0 {
        return nil
    }
    query := `UPDATE resources SET status = ?, owner_booking_id = NULL, status_changed_at = ?
              WHERE scope_key = ? AND id IN (` + placeholders(len(ids)) + `) AND owner_booking_id = ?`
    args := []interface{}{string(model.ResourceAvailable), time.Now().UTC()}
    args = append(args, idArgs(scopeKey, ids)...)
    args = append(args, bookingID)
    _, err := r.db.ExecContext(ctx, query, args...)
    return asStoreErr(err)
}

// releaseTx runs the owner-guarded release UPDATE inside an existing
// transaction.  The cancellation workflow uses it so that the booking
// status flip and the inventory release commit as one unit.
func releaseTx(ctx context.Context, tx *sql.Tx, scopeKey string, ids []string, bookingID string) error {
    if len(ids) == 0 {
        return nil
    }
    query := `UPDATE resources SET status = ?, owner_booking_id = NULL, status_changed_at = ?
              WHERE scope_key = ? AND id IN (` + placeholders(len(ids)) + `) AND owner_booking_id = ?`
    args := []interface{}{string(model.ResourceAvailable), time.Now().UTC()}
    args = append(args, idArgs(scopeKey, ids)...)
    args = append(args, bookingID)
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// Block marks AVAILABLE resources as BLOCKED with an administrative
// reason.  Booked resources cannot be blocked from under their
// booking; if any requested resource is not AVAILABLE the whole
// operation fails with UnavailableError and nothing changes.
func (r *ResourceRepo) Block(ctx context.Context, scopeKey string, ids []string, reason string) error {
    return r.adminTransition(ctx, scopeKey, ids,
        string(model.ResourceAvailable), string(model.ResourceBlocked), &reason)
}

// Unblock returns BLOCKED resources to AVAILABLE.  The same
// all-or-nothing verification applies: every requested resource must
// currently be BLOCKED.
func (r *ResourceRepo) Unblock(ctx context.Context, scopeKey string, ids []string) error {
    return r.adminTransition(ctx, scopeKey, ids,
        string(model.ResourceBlocked), string(model.ResourceAvailable), nil)
}

func (r *ResourceRepo) adminTransition(ctx context.Context, scopeKey string, ids []string, from, to string, reason *string) error {
    if len(ids) == 0 {
        return nil
    }
    sorted := append([]string(nil), ids...)
    sort.Strings(sorted)

    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return asStoreErr(err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    statuses, err := lockStatuses(ctx, tx, scopeKey, sorted)
    if err != nil {
        return asStoreErr(err)
    }
    var blocked []string
    for _, id := range sorted {
        status, ok := statuses[id]
        if !ok {
            return ErrResourceNotFound
        }
        if status != from {
            blocked = append(blocked, id)
        }
    }
    if len(blocked) > 0 {
        return &UnavailableError{IDs: blocked}
    }

    var reasonArg interface{}
    if reason != nil {
        reasonArg = *reason
    }
    query := `UPDATE resources SET status = ?, block_reason = ?, status_changed_at = ?
              WHERE scope_key = ? AND id IN (` + placeholders(len(sorted)) + `)`
    args := []interface{}{to, reasonArg, time.Now().UTC()}
    args = append(args, idArgs(scopeKey, sorted)...)
    if _, err := tx.ExecContext(ctx, query, args...); err != nil {
        return asStoreErr(err)
    }
    if err := tx.Commit(); err != nil {
        return asStoreErr(err)
    }
    committed = true
    return nil
}
