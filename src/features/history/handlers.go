package history

import (
	"log/slog"
	"time"

	"github.com/contre95/pluginreloader/src/plugins"
	"github.com/gofiber/fiber/v2"
)

// Handler is the handler for the history feature.
type Handler struct {
	service *Service
}

// NewHandler creates a new handler for the history feature.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type reactionResponse struct {
	ID          string             `json:"id"`
	Kind        plugins.ChangeKind `json:"kind"`
	Name        string             `json:"name"`
	Path        string             `json:"path"`
	OldMarker   plugins.Marker     `json:"oldMarker,omitempty"`
	NewMarker   plugins.Marker     `json:"newMarker"`
	ReloadError string             `json:"reloadError,omitempty"`
	NotifyError string             `json:"notifyError,omitempty"`
	At          time.Time          `json:"at"`
}

// GetHistory returns the most recent reactions.
func (h *Handler) GetHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", DefaultLimit)
	reactions, err := h.service.Recent(c.Context(), limit)
	if err != nil {
		slog.Error("Failed to load history", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load history"})
	}

	response := make([]reactionResponse, 0, len(reactions))
	for _, r := range reactions {
		response = append(response, reactionResponse{
			ID:          r.ID,
			Kind:        r.Event.Kind,
			Name:        r.Event.Name,
			Path:        r.Event.Path,
			OldMarker:   r.Event.OldMarker,
			NewMarker:   r.Event.NewMarker,
			ReloadError: r.ReloadError,
			NotifyError: r.NotifyError,
			At:          r.At,
		})
	}

	if c.Get("HX-Request") == "true" {
		return c.Render("history", fiber.Map{"Reactions": reactions})
	}
	return c.JSON(response)
}
