package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// DeprecatedRoute describes an endpoint kept alive for old clients
// until its sunset date.
type DeprecatedRoute struct {
	Path        string
	SunsetDate  time.Time
	Alternative string
}

// DeprecationMiddleware stamps RFC 8594 Deprecation and Sunset headers
// on the listed routes, plus a successor-version Link when an
// alternative endpoint exists.
func DeprecationMiddleware(deprecated []DeprecatedRoute) fiber.Handler {
	return func(c *fiber.Ctx) error {
		for _, d := range deprecated {
			if c.Path() != d.Path {
				continue
			}
			c.Set("Deprecation", "true")
			c.Set("Sunset", d.SunsetDate.UTC().Format(time.RFC1123))
			if d.Alternative != "" {
				c.Set("Link", fmt.Sprintf(`<%s>; rel="successor-version"`, d.Alternative))
			}
			days := time.Until(d.SunsetDate).Hours() / 24
			c.Set("Warning", fmt.Sprintf(`299 - "deprecated endpoint, sunset in %.0f days"`, days))
			break
		}
		return c.Next()
	}
}
