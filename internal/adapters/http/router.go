package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/aldatxeta/tourkit/internal/pkg/metrics"
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed, // Balance speed vs compression ratio
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error":   "rate limit exceeded",
				"message": "too many requests, please try again later",
			})
		},
		SkipFailedRequests: false,
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// The old alias survives one release cycle for early clients.
	app.Use(DeprecationMiddleware([]DeprecatedRoute{
		{
			Path:        "/v1/places/near",
			SunsetDate:  time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC),
			Alternative: "/v1/places/nearby",
		},
	}))

	// Health & readiness (no timeout — fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// REST API v1 — 15s per-request timeout
	v1 := app.Group("/v1")
	v1.Get("/cities", timeout.NewWithContext(ListCitiesHandler(deps), 15*time.Second))
	v1.Get("/cities/:slug", timeout.NewWithContext(GetCityHandler(deps), 15*time.Second))
	v1.Get("/cities/:slug/places", timeout.NewWithContext(CityPlacesHandler(deps), 15*time.Second))
	v1.Get("/places/nearby", timeout.NewWithContext(NearbyPlacesHandler(deps), 15*time.Second))
	v1.Get("/places/near", timeout.NewWithContext(NearbyPlacesHandler(deps), 15*time.Second))
	v1.Get("/places/search", timeout.NewWithContext(SearchPlacesHandler(deps), 15*time.Second))
	v1.Get("/places/batch", timeout.NewWithContext(BatchPlacesHandler(deps), 15*time.Second))
	v1.Get("/places/:id", timeout.NewWithContext(GetPlaceHandler(deps), 15*time.Second))
	v1.Get("/corpus/stats", timeout.NewWithContext(CorpusStatsHandler(deps), 15*time.Second))

	// Planning — coverage tiling and itinerary sequencing
	v1.Post("/coverage/plan", timeout.NewWithContext(CoveragePlanHandler(deps), 30*time.Second))
	v1.Get("/coverage/plans", timeout.NewWithContext(ListCoveragePlansHandler(deps), 15*time.Second))
	v1.Get("/coverage/plans/:id", timeout.NewWithContext(GetCoveragePlanHandler(deps), 15*time.Second))
	v1.Post("/itineraries/sequence", timeout.NewWithContext(SequenceItineraryHandler(deps), 15*time.Second))

	// Recommendations
	v1.Post("/recommend", timeout.NewWithContext(RecommendHandler(deps), 30*time.Second))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
