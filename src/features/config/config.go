package config

import "time"

// Config holds the application configuration.
type Config struct {
	PluginsPath string   `yaml:"pluginsPath" json:"pluginsPath" validate:"required"`
	Watcher     Watcher  `yaml:"watcher" json:"watcher"`
	Reload      Reload   `yaml:"reload" json:"reload"`
	Telegram    Telegram `yaml:"telegram" json:"telegram"`
	Logger      Logger   `yaml:"logger" json:"logger"`
	Server      Server   `yaml:"server" json:"server"`
	Database    Database `yaml:"database" json:"database"`
}

// Watcher holds the configuration for the archive poll loop
type Watcher struct {
	Enabled   bool          `yaml:"enabled" json:"enabled"` // Auto-reload state at startup
	Interval  time.Duration `yaml:"interval" json:"interval"`
	Extension string        `yaml:"extension" json:"extension" validate:"required"`
	Marker    string        `yaml:"marker" json:"marker" validate:"omitempty,oneof=mtime checksum"`
}

// Reload holds the command run whenever an archive is added or modified
type Reload struct {
	Command string        `yaml:"command" json:"command"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// Database holds the configuration for the reaction history database
type Database struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path" validate:"required_if=Enabled true"`
}

// Server hold the configuration for the Fiber server Config
type Server struct {
	Enabled     bool   `yaml:"enabled" json:"enabled"`
	PrintRoutes bool   `yaml:"show_routes" json:"show_routes"`
	Port        uint32 `yaml:"port" json:"port"`
}

// Logger holds the configuration for the app logging
type Logger struct {
	Level  string `yaml:"level" json:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" json:"format" validate:"omitempty,oneof=text json logfmt"`
}

type Telegram struct {
	Enabled        bool     `yaml:"enabled" json:"enabled"`
	Token          string   `yaml:"token" json:"token"`
	AllowedUsers   []string `yaml:"allowedUsers" json:"allowedUsers"`
	BroadcastChats []int64  `yaml:"broadcastChats" json:"broadcastChats"` // Chats that receive change announcements
}
