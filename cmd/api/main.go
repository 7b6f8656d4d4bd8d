package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/aldatxeta/tourkit/internal/adapters/http"
	natsadapter "github.com/aldatxeta/tourkit/internal/adapters/nats"
	"github.com/aldatxeta/tourkit/internal/adapters/postgres"
	"github.com/aldatxeta/tourkit/internal/adapters/semantic"
	"github.com/aldatxeta/tourkit/internal/adapters/valkey"
	"github.com/aldatxeta/tourkit/internal/core/ports"
	"github.com/aldatxeta/tourkit/internal/core/usecases"
	"github.com/aldatxeta/tourkit/internal/pkg/config"
	"github.com/aldatxeta/tourkit/internal/pkg/logging"
	"github.com/aldatxeta/tourkit/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("tourkit-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.SetupFromEnv()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go db.ReportPoolMetrics(ctx, 15*time.Second)

	// Cache (optional; the API degrades to uncached reads)
	cache, err := valkey.New(cfg.Valkey.Addr, "tourkit-api")
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
		cache = nil
	} else {
		defer cache.Close()
	}

	// NATS (optional; events are skipped when the broker is down)
	nc, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
		nc = nil
	} else {
		defer nc.Close()
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// Semantic embedding sidecar
	searcher := semantic.New(cfg.Semantic.BaseURL, time.Duration(cfg.Semantic.Timeout)*time.Second)

	// Repos
	cityRepo := postgres.NewCityRepo(db)
	placeRepo := postgres.NewPlaceRepo(db)
	planRepo := postgres.NewCoveragePlanRepo(db)

	// Use cases
	citySvc := usecases.NewCityService(cityRepo)
	placeSvc := usecases.NewPlaceService(placeRepo, optionalCache(cache))
	coverageSvc := usecases.NewCoverageService(planRepo, optionalCache(cache), optionalPublisher(nc))
	itinerarySvc := usecases.NewItineraryService(optionalPublisher(nc))
	recommendSvc := usecases.NewRecommendService(placeRepo, cityRepo, searcher, itinerarySvc)

	deps := &http.Dependencies{
		Cities:      citySvc,
		Places:      placeSvc,
		Coverage:    coverageSvc,
		Itineraries: itinerarySvc,
		Recommend:   recommendSvc,
		NATS:        natsConn,
		DB:          db,
		Cache:       cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "TourKit API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173, https://*.tourkit.eus",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// optionalCache converts a possibly-nil cache pointer into the service
// interface. Assigning a nil *valkey.Cache directly would make the
// interface non-nil and slip past the services' nil guards.
func optionalCache(c *valkey.Cache) ports.CacheService {
	if c == nil {
		return nil
	}
	return c
}

// optionalPublisher is the same guard for the event publisher.
func optionalPublisher(p *natsadapter.Publisher) ports.EventPublisher {
	if p == nil {
		return nil
	}
	return p
}
