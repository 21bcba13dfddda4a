package autoreload

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/contre95/pluginreloader/src/plugins"
	"github.com/gofiber/fiber/v2"
)

// Handler is the handler for the autoreload feature.
type Handler struct {
	service *Service
}

// NewHandler creates a new handler for the autoreload feature.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type statusResponse struct {
	Enabled   bool      `json:"enabled"`
	Interval  string    `json:"interval"`
	Tracked   int       `json:"tracked"`
	LastCycle time.Time `json:"lastCycle"`
	LastError string    `json:"lastError,omitempty"`
}

type eventResponse struct {
	Kind      plugins.ChangeKind `json:"kind"`
	Name      string             `json:"name"`
	OldMarker plugins.Marker     `json:"oldMarker,omitempty"`
	NewMarker plugins.Marker     `json:"newMarker,omitempty"`
}

func isHTMX(c *fiber.Ctx) bool {
	return c.Get("HX-Request") == "true"
}

// GetStatus returns the watcher state. htmx requests get the status badge.
func (h *Handler) GetStatus(c *fiber.Ctx) error {
	status := h.service.Status()
	if isHTMX(c) {
		if status.Enabled {
			return c.SendString(`<span class="text-xs text-green-600 dark:text-green-400 font-medium">Active</span>`)
		}
		return c.SendString(`<span class="text-xs text-gray-500 dark:text-gray-400">Inactive</span>`)
	}
	return c.JSON(statusResponse{
		Enabled:   status.Enabled,
		Interval:  status.Interval.String(),
		Tracked:   status.Tracked,
		LastCycle: status.LastCycle,
		LastError: status.LastError,
	})
}

// Toggle flips auto-reload on or off.
func (h *Handler) Toggle(c *fiber.Ctx) error {
	enabled := h.service.Toggle()
	slog.Info("Auto-reload toggled from HTTP", "enabled", enabled, "ip", c.IP())

	if !isHTMX(c) {
		return c.JSON(fiber.Map{"enabled": enabled})
	}
	c.Response().Header.Set("HX-Trigger", "autoreloadStatusChanged")
	return c.Render("toast/toastOk", fiber.Map{
		"Msg": "Auto-reload is now: " + onOff(enabled),
	})
}

// Scan runs one cycle immediately.
func (h *Handler) Scan(c *fiber.Ctx) error {
	result, err := h.service.ScanNow(c.Context())
	if err != nil {
		code := fiber.StatusConflict
		if errors.Is(err, plugins.ErrNotRunning) {
			code = fiber.StatusServiceUnavailable
		}
		slog.Warn("On-demand scan rejected", "error", err)
		if isHTMX(c) {
			return c.Render("toast/toastErr", fiber.Map{"Msg": err.Error()})
		}
		return c.Status(code).JSON(fiber.Map{"error": err.Error()})
	}

	if isHTMX(c) {
		if result.Err != nil {
			return c.Render("toast/toastErr", fiber.Map{"Msg": "Scan failed: " + result.Err.Error()})
		}
		c.Response().Header.Set("HX-Trigger", "historyUpdated")
		return c.Render("toast/toastOk", fiber.Map{
			"Msg": fmt.Sprintf("Scan complete, %d change(s)", len(result.Events)),
		})
	}

	events := make([]eventResponse, 0, len(result.Events))
	for _, e := range result.Events {
		events = append(events, eventResponse{Kind: e.Kind, Name: e.Name, OldMarker: e.OldMarker, NewMarker: e.NewMarker})
	}
	response := fiber.Map{
		"events":   events,
		"baseline": result.Baseline,
		"duration": result.Duration.String(),
	}
	if result.Err != nil {
		response["error"] = result.Err.Error()
	}
	return c.JSON(response)
}

// GetSnapshot returns the tracked archives and their markers.
func (h *Handler) GetSnapshot(c *fiber.Ctx) error {
	snapshot := h.service.Snapshot()
	if snapshot == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": plugins.ErrNotRunning.Error()})
	}
	return c.JSON(snapshot)
}

func onOff(enabled bool) string {
	if enabled {
		return "ON"
	}
	return "OFF"
}
