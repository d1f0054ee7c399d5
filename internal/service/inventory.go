package service

import (
    "context"
    "fmt"
    "time"

    "github.com/avereno/venue-reservation/internal/layout"
    "github.com/avereno/venue-reservation/internal/model"
    "github.com/avereno/venue-reservation/internal/queue"
    "github.com/avereno/venue-reservation/internal/service/ports"
)

// InventoryService exposes the read-only availability surface plus the
// administrative operations: layout generation and block/unblock.
type InventoryService interface {
    Snapshot(ctx context.Context, scopeKey string) ([]model.Resource, error)
    Status(ctx context.Context, scopeKey string, resourceIDs []string) (map[string]model.ResourceStatus, error)
    GenerateLayout(ctx context.Context, scopeKey string, spec layout.Spec) ([]model.Resource, error)
    Block(ctx context.Context, scopeKey string, resourceIDs []string, reason string) error
    Unblock(ctx context.Context, scopeKey string, resourceIDs []string) error
}

type inventoryService struct {
    inventory ports.InventoryStore
    publisher ports.EventPublisher

    now func() time.Time
}

// NewInventoryService wires the availability/administration surface.
func NewInventoryService(inventory ports.InventoryStore, publisher ports.EventPublisher) InventoryService {
    return &inventoryService{inventory: inventory, publisher: publisher, now: time.Now}
}

func (s *inventoryService) Snapshot(ctx context.Context, scopeKey string) ([]model.Resource, error) {
    if scopeKey == "" {
        return nil, fmt.Errorf("%w: scope key required", ErrValidation)
    }
    return s.inventory.ListByScope(ctx, scopeKey)
}

func (s *inventoryService) Status(ctx context.Context, scopeKey string, resourceIDs []string) (map[string]model.ResourceStatus, error) {
    ids, err := normalizeIDs(resourceIDs)
    if err != nil {
        return nil, err
    }
    return s.inventory.CheckAvailability(ctx, scopeKey, ids)
}

// GenerateLayout creates a scope's resources from the admin-configured
// section and stall settings.  It happens once per scope; the store
// rejects regeneration over existing ids.
func (s *inventoryService) GenerateLayout(ctx context.Context, scopeKey string, spec layout.Spec) ([]model.Resource, error) {
    resources, err := layout.Generate(scopeKey, spec, s.now())
    if err != nil {
        return nil, fmt.Errorf("%w: %v", ErrValidation, err)
    }
    if err := s.inventory.CreateBulk(ctx, resources); err != nil {
        return nil, err
    }

    deltas := make([]queue.ResourceDelta, 0, len(resources))
    for _, r := range resources {
        deltas = append(deltas, queue.ResourceDelta{
            ResourceID: r.ID,
            Category:   string(r.Category),
            Status:     string(r.Status),
        })
    }
    go func(ctx context.Context) {
        _ = s.publisher.PublishAvailabilityChanged(ctx, queue.AvailabilityChangedEvent{
            ScopeKey:   scopeKey,
            Deltas:     deltas,
            OccurredAt: s.now().UTC().Format(time.RFC3339),
        })
    }(context.WithoutCancel(ctx))
    return resources, nil
}

func (s *inventoryService) Block(ctx context.Context, scopeKey string, resourceIDs []string, reason string) error {
    ids, err := normalizeIDs(resourceIDs)
    if err != nil {
        return err
    }
    if reason == "" {
        return fmt.Errorf("%w: block reason required", ErrValidation)
    }
    if err := s.inventory.Block(ctx, scopeKey, ids, reason); err != nil {
        return err
    }
    go s.publishTransition(context.WithoutCancel(ctx), scopeKey, ids, model.ResourceBlocked)
    return nil
}

func (s *inventoryService) Unblock(ctx context.Context, scopeKey string, resourceIDs []string) error {
    ids, err := normalizeIDs(resourceIDs)
    if err != nil {
        return err
    }
    if err := s.inventory.Unblock(ctx, scopeKey, ids); err != nil {
        return err
    }
    go s.publishTransition(context.WithoutCancel(ctx), scopeKey, ids, model.ResourceAvailable)
    return nil
}

func (s *inventoryService) publishTransition(ctx context.Context, scopeKey string, ids []string, to model.ResourceStatus) {
    deltas := make([]queue.ResourceDelta, 0, len(ids))
    for _, id := range ids {
        deltas = append(deltas, queue.ResourceDelta{ResourceID: id, Status: string(to)})
    }
    _ = s.publisher.PublishAvailabilityChanged(ctx, queue.AvailabilityChangedEvent{
        ScopeKey:   scopeKey,
        Deltas:     deltas,
        OccurredAt: s.now().UTC().Format(time.RFC3339),
    })
}
