package model

import "time"

// BookingStatus enumerates booking states.  The transition is
// one-way: CONFIRMED -> CANCELLED, never reversed.
type BookingStatus string

const (
    BookingConfirmed BookingStatus = "CONFIRMED"
    BookingCancelled BookingStatus = "CANCELLED"
)

// DiscountKind names which discount rule family produced the applied
// percentage.  Discounts do not stack; exactly one kind (or NONE) is
// recorded on a snapshot.
type DiscountKind string

const (
    DiscountNone      DiscountKind = "NONE"
    DiscountEarlyBird DiscountKind = "EARLY_BIRD"
    DiscountBulk      DiscountKind = "BULK"
)

// PriceSnapshot is the pricing breakdown frozen onto a booking at
// creation time.  It is never recomputed, even if the discount
// configuration changes later.  All amounts are in the smallest
// currency unit.
type PriceSnapshot struct {
    BaseAmountCents     int64        `json:"base_amount_cents"`
    DiscountKind        DiscountKind `json:"discount_kind"`
    DiscountPercent     float64      `json:"discount_percent"`
    DiscountAmountCents int64        `json:"discount_amount_cents"`
    TaxAmountCents      int64        `json:"tax_amount_cents"`
    TotalAmountCents    int64        `json:"total_amount_cents"`
}

// Booking records a confirmed reservation of one or more resources
// within a single scope.  Invariant: a resource's owner_booking_id is
// set iff exactly one CONFIRMED booking lists that resource; after a
// cancellation with release the resources are AVAILABLE again.  The
// soft-hold administrative mode deliberately leaves resources BOOKED
// under a CANCELLED booking until they are explicitly released.
//
// Fields:
//  ID          – opaque booking identifier (UUID).
//  ScopeKey    – scope the booked resources belong to.
//  ResourceIDs – non-empty, duplicate-free resource ids.
//  CustomerRef – external reference to the booking customer.
//  Price       – frozen price snapshot.
//  Status      – CONFIRMED or CANCELLED.
//  CreatedAt   – creation timestamp (UTC).
//  CancelledAt – set when the booking transitions to CANCELLED.
//  CancelledBy – actor that performed the cancellation.
type Booking struct {
    ID          string        `json:"id"`
    ScopeKey    string        `json:"scope_key"`
    ResourceIDs []string      `json:"resource_ids"`
    CustomerRef string        `json:"customer_ref"`
    Price       PriceSnapshot `json:"price_snapshot"`
    Status      BookingStatus `json:"status"`
    CreatedAt   time.Time     `json:"created_at"`
    CancelledAt *time.Time    `json:"cancelled_at,omitempty"`
    CancelledBy *string       `json:"cancelled_by,omitempty"`
}
