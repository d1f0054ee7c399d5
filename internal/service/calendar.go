package service

import "time"

// scopeDateLayout is the wire format of day scope keys.
const scopeDateLayout = "2006-01-02"

// ScopeCalendar derives the event date for a scope key.  Day scopes
// are the date itself ("2026-09-12"); any other key (the stall
// singleton scope spans the whole event) resolves to the configured
// opening date.  All external timestamp shapes are normalized at the
// boundary — inside the services there is only UTC time.Time.
type ScopeCalendar struct {
    OpeningDate time.Time
}

// EventDateFor resolves the event date a scope is priced and
// lead-time-gated against.
func (c ScopeCalendar) EventDateFor(scopeKey string) (time.Time, error) {
    if t, err := time.Parse(scopeDateLayout, scopeKey); err == nil {
        return t.UTC(), nil
    }
    if c.OpeningDate.IsZero() {
        return time.Time{}, ErrUnknownScope
    }
    return c.OpeningDate.UTC(), nil
}
