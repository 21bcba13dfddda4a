package hosting

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// quietPaths are polled by the status page and scrapers; they only log at debug level
// even when they fail.
var quietPaths = map[string]bool{"/health": true, "/metrics": true, "/autoreload/status": true}

// LogAllRequestsMiddleware logs all requests with htmx context
func LogAllRequestsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		requestType := "normal"
		if c.Get("HX-Request") == "true" {
			requestType = "htmx"
		}

		err := c.Next()

		duration := time.Since(start)
		status := c.Response().StatusCode()
		attrs := []any{
			"type", requestType,
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"duration", duration.String(),
		}

		switch {
		case status >= 500 && !quietPaths[c.Path()]:
			slog.Error("HTTP request", append(attrs, "error", err)...)
		case status >= 400 && !quietPaths[c.Path()]:
			slog.Warn("HTTP request", attrs...)
		default:
			slog.Debug("HTTP request", attrs...)
		}
		return err
	}
}
