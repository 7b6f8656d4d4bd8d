package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "tourkit-api",
			"uptime":  time.Since(startedAt).String(),
			"version": "dev",
		})
	}
}

// ReadyHandler checks DB, NATS, and cache connectivity. The database
// is the only hard dependency; a missing cache or broker degrades
// features but does not fail readiness unless it errors.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
		defer cancel()

		checks := make(map[string]string)
		ready := true

		if deps.DB == nil {
			checks["database"] = "not configured"
			ready = false
		} else if err := deps.DB.Pool.Ping(ctx); err != nil {
			checks["database"] = "error: " + err.Error()
			ready = false
		} else {
			checks["database"] = "ok"
		}

		switch {
		case deps.NATS == nil:
			checks["nats"] = "not configured"
		case deps.NATS.IsConnected():
			checks["nats"] = "ok"
		default:
			checks["nats"] = "disconnected"
			ready = false
		}

		if deps.Cache == nil {
			checks["cache"] = "not configured"
		} else if err := deps.Cache.Ping(ctx); err != nil {
			checks["cache"] = "error: " + err.Error()
			ready = false
		} else {
			checks["cache"] = "ok"
		}

		status, code := "ready", fiber.StatusOK
		if !ready {
			status, code = "not ready", fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	}
}
