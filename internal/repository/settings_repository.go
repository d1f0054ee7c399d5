package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "time"

    "github.com/redis/go-redis/v9"

    "github.com/avereno/venue-reservation/internal/model"
)

// settingsKey is the document name under which the external settings
// collaborator stores the discount rules.
const settingsKey = "discount_rules"

// settingsCacheTTL bounds how stale a cached discount document can be.
// Pricing always wants the current configuration, but a few seconds of
// staleness is acceptable and keeps quote previews off the database.
const settingsCacheTTL = 15 * time.Second

// SettingsRepo reads the discount rule document owned by the external
// settings collaborator.  The document lives in MySQL as JSON; reads
// go through a short-TTL Redis cache when a client is available.  This
// core treats the document as read-only apart from ReplaceDiscounts,
// which exists as the write path the settings collaborator uses.
type SettingsRepo struct {
    db  *sql.DB
    rdb *redis.Client
}

// NewSettingsRepo returns a SettingsRepo.  rdb may be nil, in which
// case every read goes to the database.
func NewSettingsRepo(db *sql.DB, rdb *redis.Client) *SettingsRepo {
    return &SettingsRepo{db: db, rdb: rdb}
}

// DiscountConfig returns the current discount rule document.  A
// missing document yields ErrSettingsNotFound; callers decide whether
// to treat that as "no discounts" or as a provisioning error.
func (r *SettingsRepo) DiscountConfig(ctx context.Context) (model.DiscountConfig, error) {
    var cfg model.DiscountConfig

    cacheKey := "settings:" + settingsKey
    if r.rdb != nil {
        if raw, err := r.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
            if err := json.Unmarshal(raw, &cfg); err == nil {
                return cfg, nil
            }
            // Corrupt cache entry: fall through to the database.
        }
    }

    var doc []byte
    err := r.db.QueryRowContext(ctx,
        `SELECT doc FROM settings WHERE name = ?`, settingsKey).Scan(&doc)
    if err == sql.ErrNoRows {
        return cfg, ErrSettingsNotFound
    }
    if err != nil {
        return cfg, asStoreErr(err)
    }
    if err := json.Unmarshal(doc, &cfg); err != nil {
        return cfg, err
    }

    if r.rdb != nil {
        _ = r.rdb.Set(ctx, cacheKey, doc, settingsCacheTTL).Err()
    }
    return cfg, nil
}

// ReplaceDiscounts overwrites the discount rule document and drops the
// cached copy so the next quote sees the new rules.
func (r *SettingsRepo) ReplaceDiscounts(ctx context.Context, cfg model.DiscountConfig) error {
    doc, err := json.Marshal(cfg)
    if err != nil {
        return err
    }
    const q = `INSERT INTO settings (name, doc) VALUES (?, ?)
               ON DUPLICATE KEY UPDATE doc = VALUES(doc)`
    if _, err := r.db.ExecContext(ctx, q, settingsKey, doc); err != nil {
        return asStoreErr(err)
    }
    if r.rdb != nil {
        _ = r.rdb.Del(ctx, "settings:"+settingsKey).Err()
    }
    return nil
}
