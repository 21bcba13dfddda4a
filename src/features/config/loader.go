package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DefaultInterval      = time.Second
	DefaultReloadTimeout = 30 * time.Second
)

// Load reads a YAML file from the given path and returns a new ConfigManager.
// If the file doesn't exist, creates a default configuration.
func Load(path string) (*Manager, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		slog.Info("Config file not found, creating default configuration", "path", path)
		defaultCfg := createDefaultConfig()
		applyEnv(defaultCfg)

		if err := saveDefaultConfig(path, defaultCfg); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}

		slog.Info("Default configuration created successfully", "path", path)
		return NewManager(defaultCfg), nil
	}

	cfg, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewManager(cfg), nil
}

// ReadFile decodes, defaults and validates the configuration stored at path.
func ReadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a YAML configuration, fills missing values with defaults, applies
// environment overrides and validates the result.
func Parse(r io.Reader) (*Config, error) {
	var cfg Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("config is empty")
		}
		return nil, err
	}

	setDefaults(&cfg)
	applyEnv(&cfg)

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// setDefaults fills zero values that have a sensible default
func setDefaults(cfg *Config) {
	if cfg.Watcher.Interval <= 0 {
		cfg.Watcher.Interval = DefaultInterval
	}
	if cfg.Watcher.Extension == "" {
		cfg.Watcher.Extension = ".jar"
	}
	if cfg.Watcher.Marker == "" {
		cfg.Watcher.Marker = "mtime"
	}
	if cfg.Reload.Timeout <= 0 {
		cfg.Reload.Timeout = DefaultReloadTimeout
	}
	if cfg.Logger.Level == "" {
		cfg.Logger.Level = "info"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3737
	}
}

// applyEnv overrides values with environment variables if set
func applyEnv(cfg *Config) {
	if token := os.Getenv("TELEGRAM_TOKEN"); token != "" {
		cfg.Telegram.Token = token
	}
	if path := os.Getenv("PLUGINS_PATH"); path != "" {
		cfg.PluginsPath = path
	}
}

// createDefaultConfig creates a new Config with sensible default values
func createDefaultConfig() *Config {
	return &Config{
		PluginsPath: "./plugins",
		Watcher: Watcher{
			Enabled:   true,
			Interval:  DefaultInterval,
			Extension: ".jar",
			Marker:    "mtime",
		},
		Reload: Reload{
			Command: "", // e.g. "rcon-cli reload confirm"
			Timeout: DefaultReloadTimeout,
		},
		Telegram: Telegram{
			Enabled:        false,
			Token:          "",                // Can be obtained with https://t.me/BotFather
			AllowedUsers:   []string{"user1"}, // No @
			BroadcastChats: []int64{},
		},
		Logger: Logger{
			Level:  "info",
			Format: "text",
		},
		Server: Server{
			Enabled:     true,
			PrintRoutes: false,
			Port:        3737,
		},
		Database: Database{
			Enabled: true,
			Path:    "./history.db",
		},
	}
}

// saveDefaultConfig saves the default configuration to the specified file path
func saveDefaultConfig(path string, cfg *Config) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()
	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	slog.Info("Default configuration saved", "path", path)
	return nil
}
