package model

import "time"

// ResourceStatus enumerates the lifecycle states of a bookable resource.
// A resource is created AVAILABLE, moves to BOOKED when a confirmed
// booking claims it, and back to AVAILABLE when that booking releases
// it.  BLOCKED is an administrative state that is distinct from
// booking: a blocked resource cannot be claimed until it is explicitly
// unblocked.
type ResourceStatus string

const (
    ResourceAvailable ResourceStatus = "AVAILABLE"
    ResourceBooked    ResourceStatus = "BOOKED"
    ResourceBlocked   ResourceStatus = "BLOCKED"
)

// ResourceCategory classifies a resource for pricing and display.  VIP
// and STANDARD are seating tiers; STALL is a vendor stall spanning the
// whole event.
type ResourceCategory string

const (
    CategoryVIP      ResourceCategory = "VIP"
    CategoryStandard ResourceCategory = "STANDARD"
    CategoryStall    ResourceCategory = "STALL"
)

// Resource is one indivisible unit of bookable capacity: a single seat
// or a single vendor stall.  Resources are created once at layout
// generation time and never deleted; claim/release/block only mutate
// their status.  IDs are opaque strings unique within a scope, e.g.
// "C-R12-S7" for a seat or "S42" for a stall.
//
// Fields:
//  ID              – stable identifier within the scope.
//  ScopeKey        – partition the resource belongs to (an event day
//                    such as "2026-09-12", or the stall singleton scope).
//  Category        – pricing/display category.
//  BasePriceCents  – base price in the smallest currency unit.
//  Status          – AVAILABLE, BOOKED or BLOCKED.
//  OwnerBookingID  – booking currently holding the resource; set iff
//                    Status is BOOKED.
//  BlockReason     – administrative note; set iff Status is BLOCKED.
//  StatusChangedAt – timestamp of the last state transition (UTC).
//  CreatedAt       – creation timestamp (UTC).
type Resource struct {
    ID              string           `json:"id"`
    ScopeKey        string           `json:"scope_key"`
    Category        ResourceCategory `json:"category"`
    BasePriceCents  int64            `json:"base_price_cents"`
    Status          ResourceStatus   `json:"status"`
    OwnerBookingID  *string          `json:"owner_booking_id,omitempty"`
    BlockReason     *string          `json:"block_reason,omitempty"`
    StatusChangedAt time.Time        `json:"status_changed_at"`
    CreatedAt       time.Time        `json:"created_at"`
}
