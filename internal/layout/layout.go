// Package layout turns admin-configured section/row/capacity settings
// into concrete resource records.  Generation happens once per scope;
// the resulting resources are inserted by the inventory store and from
// then on only their status changes.
package layout

import (
    "fmt"
    "strings"
    "time"

    "github.com/avereno/venue-reservation/internal/model"
)

// SectionSpec describes one seating section: a grid of Rows x
// SeatsPerRow seats sharing a category and base price.  Seat ids take
// the form "<section>-R<row>-S<seat>", e.g. "C-R12-S7".
type SectionSpec struct {
    Name           string                 `json:"name"`
    Rows           int                    `json:"rows"`
    SeatsPerRow    int                    `json:"seats_per_row"`
    Category       model.ResourceCategory `json:"category"`
    BasePriceCents int64                  `json:"base_price_cents"`
}

// StallSpec describes a run of vendor stalls with ids
// "<prefix><number>", e.g. "S42".  Stalls always carry the STALL
// category.
type StallSpec struct {
    Prefix         string `json:"prefix"`
    Count          int    `json:"count"`
    BasePriceCents int64  `json:"base_price_cents"`
}

// Spec is the full layout configuration for one scope.
type Spec struct {
    Sections []SectionSpec `json:"sections"`
    Stalls   []StallSpec   `json:"stalls"`
}

// Generate builds the resource records for a scope.  Every resource
// starts AVAILABLE.  It validates its input and rejects anything that
// would produce duplicate or malformed ids.
func Generate(scopeKey string, spec Spec, now time.Time) ([]model.Resource, error) {
    if strings.TrimSpace(scopeKey) == "" {
        return nil, fmt.Errorf("scope key must not be empty")
    }
    total := 0
    for _, s := range spec.Sections {
        total += s.Rows * s.SeatsPerRow
    }
    for _, s := range spec.Stalls {
        total += s.Count
    }
    if total == 0 {
        return nil, fmt.Errorf("layout produces no resources")
    }

    now = now.UTC()
    resources := make([]model.Resource, 0, total)
    seen := make(map[string]struct{}, total)

    for _, s := range spec.Sections {
        name := strings.ToUpper(strings.TrimSpace(s.Name))
        if name == "" || strings.ContainsAny(name, "- ") {
            return nil, fmt.Errorf("invalid section name %q", s.Name)
        }
        if s.Rows <= 0 || s.SeatsPerRow <= 0 {
            return nil, fmt.Errorf("section %s: rows and seats_per_row must be positive", name)
        }
        if s.Category != model.CategoryVIP && s.Category != model.CategoryStandard {
            return nil, fmt.Errorf("section %s: invalid seating category %q", name, s.Category)
        }
        if s.BasePriceCents <= 0 {
            return nil, fmt.Errorf("section %s: base price must be positive", name)
        }
        for row := 1; row <= s.Rows; row++ {
            for seat := 1; seat <= s.SeatsPerRow; seat++ {
                id := fmt.Sprintf("%s-R%d-S%d", name, row, seat)
                if _, dup := seen[id]; dup {
                    return nil, fmt.Errorf("duplicate resource id %s", id)
                }
                seen[id] = struct{}{}
                resources = append(resources, model.Resource{
                    ID:              id,
                    ScopeKey:        scopeKey,
                    Category:        s.Category,
                    BasePriceCents:  s.BasePriceCents,
                    Status:          model.ResourceAvailable,
                    StatusChangedAt: now,
                    CreatedAt:       now,
                })
            }
        }
    }

    for _, s := range spec.Stalls {
        prefix := strings.ToUpper(strings.TrimSpace(s.Prefix))
        if prefix == "" || strings.ContainsAny(prefix, "- ") {
            return nil, fmt.Errorf("invalid stall prefix %q", s.Prefix)
        }
        if s.Count <= 0 {
            return nil, fmt.Errorf("stall run %s: count must be positive", prefix)
        }
        if s.BasePriceCents <= 0 {
            return nil, fmt.Errorf("stall run %s: base price must be positive", prefix)
        }
        for n := 1; n <= s.Count; n++ {
            id := fmt.Sprintf("%s%d", prefix, n)
            if _, dup := seen[id]; dup {
                return nil, fmt.Errorf("duplicate resource id %s", id)
            }
            seen[id] = struct{}{}
            resources = append(resources, model.Resource{
                ID:              id,
                ScopeKey:        scopeKey,
                Category:        model.CategoryStall,
                BasePriceCents:  s.BasePriceCents,
                Status:          model.ResourceAvailable,
                StatusChangedAt: now,
                CreatedAt:       now,
            })
        }
    }

    return resources, nil
}
