package config

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes exposes the configuration under /config.
func RegisterRoutes(app *fiber.App, manager *Manager) {
	handler := NewHandler(manager)

	group := app.Group("/config")
	group.Get("/", handler.GetConfig)
	group.Get("/watcher", handler.GetWatcher)
}
