package autoreload

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes registers the routes for the autoreload feature.
func RegisterRoutes(app *fiber.App, service *Service) {
	handler := NewHandler(service)

	group := app.Group("/autoreload")
	group.Get("/status", handler.GetStatus)
	group.Post("/toggle", handler.Toggle)
	group.Post("/scan", handler.Scan)
	group.Get("/snapshot", handler.GetSnapshot)
}
