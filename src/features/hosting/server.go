package hosting

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/contre95/pluginreloader/src/features/autoreload"
	"github.com/contre95/pluginreloader/src/features/config"
	"github.com/contre95/pluginreloader/src/features/history"
	"github.com/contre95/pluginreloader/src/features/metrics"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus"
)

//go:embed views
var viewsFS embed.FS

// Server is the HTTP server for the application.
type Server struct {
	app  *fiber.App
	port uint32
}

// NewServer creates a new HTTP server.
func NewServer(cfg *config.Manager, autoreloadService *autoreload.Service, historyService *history.Service, gatherer prometheus.Gatherer) *Server {
	views, err := fs.Sub(viewsFS, "views")
	if err != nil {
		panic(fmt.Sprintf("embedded views missing: %v", err))
	}
	engine := html.NewFileSystem(http.FS(views), ".html")
	engine.Debug(cfg.Get().Logger.Level == "debug")
	engine.AddFunc("onOff", func(enabled bool) string {
		if enabled {
			return "ON"
		}
		return "OFF"
	})
	engine.AddFunc("since", func(t time.Time) string {
		if t.IsZero() {
			return "never"
		}
		return time.Since(t).Round(time.Second).String() + " ago"
	})

	app := fiber.New(fiber.Config{
		Views: engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			slog.Error("Internal Server Error", "error", err)
			return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
		},
		AppName:               "PluginReloader",
		DisableStartupMessage: true,
		EnablePrintRoutes:     cfg.Get().Server.PrintRoutes,
	})

	app.Use(LogAllRequestsMiddleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	app.Get("/", func(c *fiber.Ctx) error {
		reactions, err := historyService.Recent(c.Context(), 10)
		if err != nil {
			slog.Warn("Failed to load history for status page", "error", err)
		}
		return c.Render("status", fiber.Map{
			"Status":      autoreloadService.Status(),
			"PluginsPath": cfg.Get().PluginsPath,
			"Extension":   cfg.Get().Watcher.Extension,
			"Reactions":   reactions,
		})
	})

	autoreload.RegisterRoutes(app, autoreloadService)
	history.RegisterRoutes(app, historyService)
	config.RegisterRoutes(app, cfg)
	metrics.RegisterRoutes(app, metrics.NewHandler(gatherer))

	return &Server{app: app, port: cfg.Get().Server.Port}
}

// App exposes the fiber app, mostly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.app.Listen(":" + fmt.Sprint(s.port))
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
