package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/contre95/pluginreloader/src/features/autoreload"
	"github.com/contre95/pluginreloader/src/features/config"
	"github.com/contre95/pluginreloader/src/features/history"
	"github.com/contre95/pluginreloader/src/features/hosting"
	"github.com/contre95/pluginreloader/src/features/logging"
	"github.com/contre95/pluginreloader/src/features/metrics"
	"github.com/contre95/pluginreloader/src/infra/database"
	"github.com/contre95/pluginreloader/src/infra/notify"
	"github.com/contre95/pluginreloader/src/infra/reload"
	"github.com/contre95/pluginreloader/src/infra/scanner"
	"github.com/contre95/pluginreloader/src/plugins"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const configPath = "config.yaml"

func main() {
	// Load configuration
	cfgManager, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := cfgManager.Get()

	// Setup default logger with slog
	logger := logging.SetupLogger(cfgManager)
	slog.SetDefault(logger)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	// Reaction history
	var store plugins.History = history.NewMemoryHistory(history.MaxLimit)
	if cfg.Database.Enabled {
		db, err := database.NewSqliteHistory(cfg.Database.Path)
		if err != nil {
			log.Fatalf("failed to open history database: %v", err)
		}
		defer db.Close()
		store = db
	}
	historyService := history.NewService(store)

	// Telegram client, shared by the bot and the notifier
	notifiers := notify.Multi{notify.NewLogNotifier(nil)}
	var botAPI *tgbotapi.BotAPI
	if cfg.Telegram.Enabled {
		botAPI, err = hosting.NewBotAPI(cfg.Telegram)
		if err != nil {
			slog.Error("Failed to initialize Telegram bot", "error", err)
		} else {
			notifiers = append(notifiers, notify.NewTelegramNotifier(botAPI, cfg.Telegram.BroadcastChats))
		}
	}

	// Auto-reload
	newScanner := func(c *config.Config) plugins.Scanner {
		return scanner.NewDirectoryScanner(c.PluginsPath, c.Watcher.Extension, scanner.MarkerMode(c.Watcher.Marker))
	}
	reloader := reload.NewCommandReloader(cfg.Reload.Command, cfg.Reload.Timeout, cfg.PluginsPath)
	dispatcher := autoreload.NewDispatcher(reloader, notifiers, historyService.Recorder(), collector)
	autoreloadService := autoreload.NewService(newScanner(cfg), dispatcher, autoreload.Options{
		Interval:   cfg.Watcher.Interval,
		Metrics:    collector,
		NewScanner: newScanner,
	})
	if cfg.Watcher.Enabled {
		autoreloadService.Start()
	} else {
		slog.Info("Auto-reload is disabled, enable it with /autoreload or POST /autoreload/toggle")
	}
	defer autoreloadService.Stop()

	// Config hot reload
	cfgManager.OnChange(autoreloadService.ApplyConfig)
	cfgManager.OnChange(func(oldCfg, newCfg *config.Config) {
		reloader.Update(newCfg.Reload.Command, newCfg.Reload.Timeout, newCfg.PluginsPath)
		if oldCfg.Logger != newCfg.Logger {
			slog.SetDefault(logging.SetupLogger(cfgManager))
		}
		if oldCfg.Telegram.Enabled != newCfg.Telegram.Enabled || oldCfg.Telegram.Token != newCfg.Telegram.Token {
			slog.Warn("Telegram settings changed, restart to apply them")
		}
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	configWatcher, err := config.NewFileWatcher(configPath, cfgManager)
	if err != nil {
		slog.Error("Config hot reload unavailable", "error", err)
	} else if err := configWatcher.Start(ctx); err != nil {
		slog.Error("Config hot reload unavailable", "error", err)
	} else {
		defer configWatcher.Stop()
	}

	var telegramBot *hosting.TelegramBot
	if botAPI != nil {
		telegramBot = hosting.NewTelegramBot(botAPI, cfgManager, autoreloadService, historyService)
		go telegramBot.Start()
		slog.Info("Telegram bot started")
	}

	// Create and start the HTTP server
	var server *hosting.Server
	if cfg.Server.Enabled {
		server = hosting.NewServer(cfgManager, autoreloadService, historyService, registry)
		go func() {
			if err := server.Start(); err != nil {
				slog.Error("Server stopped", "error", err)
			}
		}()
		slog.Info("Server started. Press Ctrl+C to shut down.", "port", cfg.Server.Port)
	}

	// Wait for a shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down...")

	if telegramBot != nil {
		telegramBot.Stop()
		slog.Info("Telegram bot stopped")
	}
	if server != nil {
		if err := server.Shutdown(); err != nil {
			slog.Error("Failed to shutdown server", "error", err)
		}
	}
	slog.Info("Gracefully shut down.")
}
