package handler

import (
    "encoding/json"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/avereno/venue-reservation/internal/model"
    "github.com/avereno/venue-reservation/internal/notifier"
    "github.com/avereno/venue-reservation/internal/service"
)

// streamHeartbeat keeps idle SSE connections from being reaped by
// intermediaries.
const streamHeartbeat = 25 * time.Second

// AvailabilityHandler serves the public, unauthenticated availability
// surface: scope snapshots, targeted status checks, and the live
// change stream.
type AvailabilityHandler struct {
    Inventory service.InventoryService
    Hub       *notifier.Hub
}

// NewAvailabilityHandler constructs an AvailabilityHandler.
func NewAvailabilityHandler(inventory service.InventoryService, hub *notifier.Hub) *AvailabilityHandler {
    if inventory == nil || hub == nil {
        panic("nil dependency passed to NewAvailabilityHandler")
    }
    return &AvailabilityHandler{Inventory: inventory, Hub: hub}
}

// ListResources handles GET /v1/scopes/:scope/resources.  It returns
// every resource in the scope with its current status.  The response
// is a snapshot: by the time a client acts on it the state may have
// moved on, which is what the conflict response on reserve is for.
func (h *AvailabilityHandler) ListResources(c echo.Context) error {
    scope := c.Param("scope")
    resources, err := h.Inventory.Snapshot(c.Request().Context(), scope)
    if err != nil {
        return writeServiceError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "scope_key": scope,
        "resources": resources,
        "sections":  groupBySection(resources),
    })
}

// groupBySection buckets seats by their section prefix ("A-R1-S1" ->
// "A") and all stalls under "stalls", mirroring how venue plans are
// rendered.
func groupBySection(resources []model.Resource) map[string][]model.Resource {
    grouped := make(map[string][]model.Resource)
    for _, r := range resources {
        key := "stalls"
        if r.Category != model.CategoryStall {
            key = r.ID
            if i := strings.Index(r.ID, "-R"); i > 0 {
                key = r.ID[:i]
            }
        }
        grouped[key] = append(grouped[key], r)
    }
    return grouped
}

// Status handles GET /v1/scopes/:scope/resources/status?ids=a,b,c.  It
// reports the current status of the named resources only; unknown ids
// are simply absent from the response.
func (h *AvailabilityHandler) Status(c echo.Context) error {
    scope := c.Param("scope")
    raw := strings.TrimSpace(c.QueryParam("ids"))
    if raw == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "ids query parameter is required"})
    }
    ids := make([]string, 0)
    for _, id := range strings.Split(raw, ",") {
        if id = strings.TrimSpace(id); id != "" {
            ids = append(ids, id)
        }
    }
    statuses, err := h.Inventory.Status(c.Request().Context(), scope, ids)
    if err != nil {
        return writeServiceError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "scope_key": scope,
        "statuses":  statuses,
    })
}

// Stream handles GET /v1/scopes/:scope/stream.  It holds the
// connection open and pushes availability changes for the scope as
// server-sent events until the client disconnects.  Delivery is
// best-effort: a client that cannot keep up misses events and should
// refetch the snapshot after reconnecting.
func (h *AvailabilityHandler) Stream(c echo.Context) error {
    scope := c.Param("scope")
    events, cancel := h.Hub.Subscribe(scope)
    defer cancel()

    resp := c.Response()
    resp.Header().Set(echo.HeaderContentType, "text/event-stream")
    resp.Header().Set("Cache-Control", "no-cache")
    resp.Header().Set("Connection", "keep-alive")
    resp.WriteHeader(http.StatusOK)
    resp.Flush()

    heartbeat := time.NewTicker(streamHeartbeat)
    defer heartbeat.Stop()

    ctx := c.Request().Context()
    for {
        select {
        case <-ctx.Done():
            return nil
        case ev, ok := <-events:
            if !ok {
                return nil
            }
            data, err := json.Marshal(ev)
            if err != nil {
                continue
            }
            fmt.Fprintf(resp, "event: availability\ndata: %s\n\n", data)
            resp.Flush()
        case <-heartbeat.C:
            fmt.Fprint(resp, ": ping\n\n")
            resp.Flush()
        }
    }
}
