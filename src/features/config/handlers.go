package config

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"gopkg.in/yaml.v3"
)

// Handler serves the running configuration over HTTP.
type Handler struct {
	manager *Manager
}

// NewHandler creates a new handler for the config feature.
func NewHandler(manager *Manager) *Handler {
	return &Handler{manager: manager}
}

// WatcherView is the part of the configuration that drives the poll loop.
type WatcherView struct {
	PluginsPath   string  `yaml:"pluginsPath" json:"pluginsPath"`
	Watcher       Watcher `yaml:"watcher" json:"watcher"`
	ReloadCommand string  `yaml:"reloadCommand" json:"reloadCommand"`
	ReloadTimeout string  `yaml:"reloadTimeout" json:"reloadTimeout"`
}

// NewWatcherView extracts the watcher settings from cfg.
func NewWatcherView(cfg *Config) WatcherView {
	return WatcherView{
		PluginsPath:   cfg.PluginsPath,
		Watcher:       cfg.Watcher,
		ReloadCommand: cfg.Reload.Command,
		ReloadTimeout: cfg.Reload.Timeout.String(),
	}
}

// GetConfig returns the redacted configuration as yaml (default) or json.
func (h *Handler) GetConfig(c *fiber.Ctx) error {
	switch format := c.Query("fmt", "yaml"); format {
	case "yaml":
		c.Set(fiber.HeaderContentType, "text/yaml")
		return c.SendString(h.manager.GetYAML())
	case "json":
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString(h.manager.GetJSON())
	default:
		slog.Debug("Rejected config format", "format", format)
		return c.Status(fiber.StatusBadRequest).SendString("Invalid format. Use 'json' or 'yaml'")
	}
}

// GetWatcher returns only the watcher settings, which are applied live on every config change.
func (h *Handler) GetWatcher(c *fiber.Ctx) error {
	view := NewWatcherView(h.manager.Get())
	if c.Query("fmt", "json") != "yaml" {
		return c.JSON(view)
	}
	out, err := yaml.Marshal(view)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "text/yaml")
	return c.Send(out)
}
