package model

// DiscountConfig is the discount rule document owned by the external
// settings collaborator.  This core only reads it: the pricing engine
// receives the current document at quote time and the resulting
// breakdown is then frozen into the booking, so the document itself is
// not versioned here.
type DiscountConfig struct {
    EarlyBirdRules []EarlyBirdRule `json:"earlyBirdRules"`
    BulkRules      []BulkRule      `json:"bulkRules"`
    TaxRatePercent float64         `json:"taxRatePercent"`
}

// EarlyBirdRule grants a percentage discount when the booking is made
// at least DaysBeforeEvent days ahead of the event date.
type EarlyBirdRule struct {
    DaysBeforeEvent int     `json:"daysBeforeEvent"`
    Percent         float64 `json:"percent"`
}

// BulkRule grants a percentage discount when the booking covers at
// least MinQuantity resources.
type BulkRule struct {
    MinQuantity int     `json:"minQuantity"`
    Percent     float64 `json:"percent"`
}
