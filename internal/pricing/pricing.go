// Package pricing computes deterministic price breakdowns for
// reservations.  It is a pure computation layer: no I/O, no clock
// access and no mutation of its inputs, so it is safe to call
// repeatedly for live quote previews before a booking commits.
package pricing

import (
    "math"
    "time"

    "github.com/avereno/venue-reservation/internal/model"
)

// Breakdown is the result of a price computation.  All amounts are in
// the smallest currency unit.  Rounding is applied once per derived
// amount (never accumulated from per-resource rounding) so repeated
// quotes cannot drift.
type Breakdown struct {
    Quantity            int                `json:"quantity"`
    BaseAmountCents     int64              `json:"base_amount_cents"`
    DiscountKind        model.DiscountKind `json:"discount_kind"`
    DiscountPercent     float64            `json:"discount_percent"`
    DiscountAmountCents int64              `json:"discount_amount_cents"`
    TaxAmountCents      int64              `json:"tax_amount_cents"`
    TotalAmountCents    int64              `json:"total_amount_cents"`
}

// Snapshot converts a breakdown into the frozen form stored on a
// booking record.
func (b Breakdown) Snapshot() model.PriceSnapshot {
    return model.PriceSnapshot{
        BaseAmountCents:     b.BaseAmountCents,
        DiscountKind:        b.DiscountKind,
        DiscountPercent:     b.DiscountPercent,
        DiscountAmountCents: b.DiscountAmountCents,
        TaxAmountCents:      b.TaxAmountCents,
        TotalAmountCents:    b.TotalAmountCents,
    }
}

// ComputeBreakdown prices a set of resources as of a given date.
//
// The base amount is the sum of the per-resource prices (resources may
// be priced heterogeneously; this is not quantity times a unit price).
// Early-bird eligibility picks the largest percent among rules whose
// day threshold is met by (eventDate - asOf); bulk eligibility picks
// the largest percent among rules whose minimum quantity is met.  The
// two never stack: the larger of the two percentages is applied alone.
// Non-stacking is a deliberate product decision carried over from the
// venue's published pricing terms; ties go to EARLY_BIRD so the
// reported discount kind is deterministic.
//
// Tax is applied to the discounted amount.  Both the discount and the
// tax are rounded half-up to the smallest currency unit.
func ComputeBreakdown(resourcePrices []int64, asOf, eventDate time.Time, cfg model.DiscountConfig) Breakdown {
    var base int64
    for _, p := range resourcePrices {
        base += p
    }
    quantity := len(resourcePrices)

    days := DaysBetween(asOf, eventDate)
    var earlyBird float64
    for _, r := range cfg.EarlyBirdRules {
        if days >= r.DaysBeforeEvent && r.Percent > earlyBird {
            earlyBird = r.Percent
        }
    }
    var bulk float64
    for _, r := range cfg.BulkRules {
        if quantity >= r.MinQuantity && r.Percent > bulk {
            bulk = r.Percent
        }
    }

    kind := model.DiscountNone
    percent := 0.0
    switch {
    case earlyBird > 0 && earlyBird >= bulk:
        kind, percent = model.DiscountEarlyBird, earlyBird
    case bulk > 0:
        kind, percent = model.DiscountBulk, bulk
    }

    discount := roundHalfUp(float64(base) * percent / 100)
    tax := roundHalfUp(float64(base-discount) * cfg.TaxRatePercent / 100)

    return Breakdown{
        Quantity:            quantity,
        BaseAmountCents:     base,
        DiscountKind:        kind,
        DiscountPercent:     percent,
        DiscountAmountCents: discount,
        TaxAmountCents:      tax,
        TotalAmountCents:    base - discount + tax,
    }
}

// DaysBetween returns the number of whole calendar days from a to b,
// comparing UTC dates so that partial days within the boundary day do
// not affect eligibility.  The cancellation lead-time policy uses the
// same day arithmetic so pricing and cancellation agree on what "N
// days before the event" means.
func DaysBetween(a, b time.Time) int {
    ad := truncateToDay(a)
    bd := truncateToDay(b)
    return int(bd.Sub(ad).Hours() / 24)
}

func truncateToDay(t time.Time) time.Time {
    u := t.UTC()
    return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// roundHalfUp rounds to the nearest integer with ties away from zero
// toward positive infinity.  Amounts here are never negative.
func roundHalfUp(x float64) int64 {
    return int64(math.Floor(x + 0.5))
}
