package main // Entry point package

import (
    "context"
    "log"
    "net/http"
    "os/signal"
    "syscall"
    "time"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"

    "github.com/avereno/venue-reservation/internal/config"
    "github.com/avereno/venue-reservation/internal/database"
    "github.com/avereno/venue-reservation/internal/handler"
    "github.com/avereno/venue-reservation/internal/notifier"
    "github.com/avereno/venue-reservation/internal/queue"
    "github.com/avereno/venue-reservation/internal/repository"
    "github.com/avereno/venue-reservation/internal/router"
    "github.com/avereno/venue-reservation/internal/service"
)

func main() {
    _ = godotenv.Load() // .env is optional; real deployments use the environment

    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("open database: %v", err)
    }
    defer db.Close()
    if err := database.Migrate(db); err != nil {
        log.Fatalf("migrate: %v", err)
    }

    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Println("redis unavailable: caching and rate limiting disabled")
    }

    inventoryRepo := repository.NewResourceRepo(db)
    bookingRepo := repository.NewBookingRepo(db)
    settingsRepo := repository.NewSettingsRepo(db, rdb)

    brokerURL := queue.BrokerURL()
    publisher := queue.NewPublisher(brokerURL)

    // The hub fans broker events out to SSE subscribers on this
    // instance; every instance consumes the full availability stream.
    hub := notifier.NewHub()
    go queue.StartAvailabilityConsumer(brokerURL, hub)
    go queue.StartBookingConsumer(brokerURL)

    calendar := service.ScopeCalendar{OpeningDate: cfg.EventOpeningDate}
    reservations := service.NewReservationService(inventoryRepo, bookingRepo, settingsRepo, publisher, calendar)
    cancellations := service.NewCancellationService(bookingRepo, publisher, calendar, cfg.MinLeadTimeDays)
    inventory := service.NewInventoryService(inventoryRepo, publisher)

    availabilityH := handler.NewAvailabilityHandler(inventory, hub)
    reservationH := handler.NewReservationHandler(reservations, cancellations)
    adminH := handler.NewAdminHandler(inventory, cancellations, settingsRepo)

    e := echo.New()
    e.HideBanner = true
    e.Use(echomw.Recover())
    e.Use(echomw.Logger())

    router.RegisterRoutes(e)
    router.RegisterPublic(e, availabilityH, reservationH, config.LoadCacheConfig(), rdb)
    router.RegisterCustomer(e, reservationH, cfg.JWTSecret, config.LoadRateLimitConfig(), rdb)
    router.RegisterAdmin(e, adminH, cfg.JWTSecret)

    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()

    go func() {
        addr := ":" + cfg.Port
        log.Printf("listening on %s (env=%s)", addr, cfg.Env)
        if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
            log.Fatalf("server: %v", err)
        }
    }()

    <-ctx.Done()
    log.Println("shutting down")
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    if err := e.Shutdown(shutdownCtx); err != nil {
        log.Printf("shutdown: %v", err)
    }
}
