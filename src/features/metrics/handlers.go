package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// Handler serves the Prometheus exposition format on fiber.
type Handler struct {
	serve func(c *fiber.Ctx)
}

// NewHandler creates a handler exposing the metrics gathered by g.
func NewHandler(g prometheus.Gatherer) *Handler {
	h := fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return &Handler{serve: func(c *fiber.Ctx) { h(c.Context()) }}
}

// GetMetrics writes the current metrics.
func (h *Handler) GetMetrics(c *fiber.Ctx) error {
	h.serve(c)
	return nil
}
