package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/avereno/venue-reservation/internal/model"
)

// BookingRepo provides persistence for booking records and their
// resource memberships.  A booking row carries the price snapshot
// frozen at creation time; the member resource ids live in the
// booking_resources table.  All timestamps are stored in UTC.
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// Create persists a confirmed booking together with its resource
// memberships in one transaction.  The caller has already claimed the
// resources; if this insert fails the caller compensates by releasing
// the claim.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
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

    const ins = `INSERT INTO bookings
        (id, scope_key, customer_ref, status,
         base_amount_cents, discount_kind, discount_percent, discount_amount_cents,
         tax_amount_cents, total_amount_cents, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    if _, err := tx.ExecContext(ctx, ins,
        b.ID, b.ScopeKey, b.CustomerRef, string(b.Status),
        b.Price.BaseAmountCents, string(b.Price.DiscountKind), b.Price.DiscountPercent,
        b.Price.DiscountAmountCents, b.Price.TaxAmountCents, b.Price.TotalAmountCents,
        b.CreatedAt.UTC(),
    ); err != nil {
        return asStoreErr(err)
    }

    memberQ := `INSERT INTO booking_resources (booking_id, scope_key, resource_id) VALUES `
    args := make([]interface{}, 0, len(b.ResourceIDs)*3)
    for i, id := range b.ResourceIDs {
        if i > 0 {
            memberQ += ","
        }
        memberQ += "(?, ?, ?)"
        args = append(args, b.ID, b.ScopeKey, id)
    }
    if _, err := tx.ExecContext(ctx, memberQ, args...); err != nil {
        return asStoreErr(err)
    }

    if err := tx.Commit(); err != nil {
        return asStoreErr(err)
    }
    committed = true
    return nil
}

func scanBooking(row *sql.Row) (*model.Booking, error) {
    var b model.Booking
    var status, kind string
    var cancelledAt sql.NullTime
    var cancelledBy sql.NullString
    err := row.Scan(
        &b.ID, &b.ScopeKey, &b.CustomerRef, &status,
        &b.Price.BaseAmountCents, &kind, &b.Price.DiscountPercent, &b.Price.DiscountAmountCents,
        &b.Price.TaxAmountCents, &b.Price.TotalAmountCents,
        &b.CreatedAt, &cancelledAt, &cancelledBy,
    )
    if err == sql.ErrNoRows {
        return nil, ErrBookingNotFound
    }
    if err != nil {
        return nil, asStoreErr(err)
    }
    b.Status = model.BookingStatus(status)
    b.Price.DiscountKind = model.DiscountKind(kind)
    if cancelledAt.Valid {
        t := cancelledAt.Time
        b.CancelledAt = &t
    }
    if cancelledBy.Valid {
        v := cancelledBy.String
        b.CancelledBy = &v
    }
    return &b, nil
}

const bookingColumns = `id, scope_key, customer_ref, status,
       base_amount_cents, discount_kind, discount_percent, discount_amount_cents,
       tax_amount_cents, total_amount_cents, created_at, cancelled_at, cancelled_by`

// GetByID loads a booking and its resource ids.  ErrBookingNotFound is
// returned when the id is unknown.
func (r *BookingRepo) GetByID(ctx context.Context, id string) (*model.Booking, error) {
    b, err := scanBooking(r.db.QueryRowContext(ctx,
        `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
    if err != nil {
        return nil, err
    }
    const memberQ = `SELECT resource_id FROM booking_resources WHERE booking_id = ? ORDER BY resource_id`
    rows, err := r.db.QueryContext(ctx, memberQ, id)
    if err != nil {
        return nil, asStoreErr(err)
    }
    defer rows.Close()
    for rows.Next() {
        var rid string
        if err := rows.Scan(&rid); err != nil {
            return nil, err
        }
        b.ResourceIDs = append(b.ResourceIDs, rid)
    }
    if err := rows.Err(); err != nil {
        return nil, asStoreErr(err)
    }
    return b, nil
}

// ListByCustomer returns all bookings for a customer reference, newest
// first, with resource ids populated in a single follow-up query.
func (r *BookingRepo) ListByCustomer(ctx context.Context, customerRef string) ([]model.Booking, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+bookingColumns+` FROM bookings WHERE customer_ref = ? ORDER BY created_at DESC`,
        customerRef)
    if err != nil {
        return nil, asStoreErr(err)
    }
    defer rows.Close()

    bookings := make([]model.Booking, 0)
    index := make(map[string]int)
    for rows.Next() {
        var b model.Booking
        var status, kind string
        var cancelledAt sql.NullTime
        var cancelledBy sql.NullString
        if err := rows.Scan(
            &b.ID, &b.ScopeKey, &b.CustomerRef, &status,
            &b.Price.BaseAmountCents, &kind, &b.Price.DiscountPercent, &b.Price.DiscountAmountCents,
            &b.Price.TaxAmountCents, &b.Price.TotalAmountCents,
            &b.CreatedAt, &cancelledAt, &cancelledBy,
        ); err != nil {
            return nil, err
        }
        b.Status = model.BookingStatus(status)
        b.Price.DiscountKind = model.DiscountKind(kind)
        if cancelledAt.Valid {
            t := cancelledAt.Time
            b.CancelledAt = &t
        }
        if cancelledBy.Valid {
            v := cancelledBy.String
            b.CancelledBy = &v
        }
        index[b.ID] = len(bookings)
        bookings = append(bookings, b)
    }
    if err := rows.Err(); err != nil {
        return nil, asStoreErr(err)
    }
    if len(bookings) == 0 {
        return bookings, nil
    }

    // Populate resource ids for all bookings in one query.
    ids := make([]interface{}, 0, len(bookings))
    for _, b := range bookings {
        ids = append(ids, b.ID)
    }
    memberQ := `SELECT booking_id, resource_id FROM booking_resources
                WHERE booking_id IN (` + placeholders(len(ids)) + `)
                ORDER BY booking_id, resource_id`
    mrows, err := r.db.QueryContext(ctx, memberQ, ids...)
    if err != nil {
        return nil, asStoreErr(err)
    }
    defer mrows.Close()
    for mrows.Next() {
        var bid, rid string
        if err := mrows.Scan(&bid, &rid); err != nil {
            return nil, err
        }
        if i, ok := index[bid]; ok {
            bookings[i].ResourceIDs = append(bookings[i].ResourceIDs, rid)
        }
    }
    if err := mrows.Err(); err != nil {
        return nil, asStoreErr(err)
    }
    return bookings, nil
}

// Cancel flips a booking from CONFIRMED to CANCELLED and, unless
// release is suppressed, returns its resources to the pool — both in
// one transaction, so a cancelled booking can never be observed with a
// half-released resource set.  The status guard in the WHERE clause
// makes the transition one-way; changed reports whether this call
// performed the transition (false means the booking was already
// cancelled, which callers treat as an idempotent no-op).
//
// Suppressing release is the administrative soft-hold mode: the
// resources stay BOOKED pointing at a cancelled booking until they are
// explicitly released, deliberately breaking the ownership invariant.
func (r *BookingRepo) Cancel(ctx context.Context, b *model.Booking, at time.Time, by string, release bool) (changed bool, err error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return false, asStoreErr(err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    const q = `UPDATE bookings SET status = ?, cancelled_at = ?, cancelled_by = ?
               WHERE id = ? AND status = ?`
    res, err := tx.ExecContext(ctx, q,
        string(model.BookingCancelled), at.UTC(), by, b.ID, string(model.BookingConfirmed))
    if err != nil {
        return false, asStoreErr(err)
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, asStoreErr(err)
    }
    if n == 0 {
        // Already cancelled; nothing to release either.
        return false, nil
    }
    if release {
        if err := releaseTx(ctx, tx, b.ScopeKey, b.ResourceIDs, b.ID); err != nil {
            return false, asStoreErr(err)
        }
    }
    if err := tx.Commit(); err != nil {
        return false, asStoreErr(err)
    }
    committed = true
    return true, nil
}
