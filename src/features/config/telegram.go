package config

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramHandler answers /config in chat.
type TelegramHandler struct {
	manager *Manager
}

// NewTelegramHandler creates a new Telegram handler for the config feature
func NewTelegramHandler(manager *Manager) *TelegramHandler {
	return &TelegramHandler{manager: manager}
}

// HandleCommand handles /config and /config watcher
func (h *TelegramHandler) HandleCommand(bot *tgbotapi.BotAPI, chatID int64, command string, args string) error {
	if command != "config" {
		_, err := bot.Send(tgbotapi.NewMessage(chatID, "❌ Unknown config command. Use /config or /config watcher"))
		return err
	}

	var msg tgbotapi.MessageConfig
	switch strings.TrimSpace(args) {
	case "watcher":
		msg = tgbotapi.NewMessage(chatID, FormatWatcher(NewWatcherView(h.manager.Get())))
	case "":
		msg = tgbotapi.NewMessage(chatID, fmt.Sprintf("⚙️ *Configuration*\n\n```yaml\n%s\n```", h.manager.GetYAML()))
		msg.ParseMode = tgbotapi.ModeMarkdown
	default:
		msg = tgbotapi.NewMessage(chatID, "Usage: /config or /config watcher")
	}
	_, err := bot.Send(msg)
	return err
}

// GetCommands returns the available commands for this handler
func (h *TelegramHandler) GetCommands() map[string]string {
	return map[string]string{
		"config": "Show configuration (add 'watcher' for the poll settings)",
	}
}

// HandleCallback always returns false, config has no buttons
func (h *TelegramHandler) HandleCallback(bot *tgbotapi.BotAPI, callback *tgbotapi.CallbackQuery) bool {
	return false
}

// FormatWatcher renders the watcher settings as plain text.
func FormatWatcher(v WatcherView) string {
	command := v.ReloadCommand
	if strings.TrimSpace(command) == "" {
		command = "(none)"
	}
	var b strings.Builder
	b.WriteString("🔍 Watcher settings\n\n")
	fmt.Fprintf(&b, "Folder: %s\n", v.PluginsPath)
	fmt.Fprintf(&b, "Extension: %s\n", v.Watcher.Extension)
	fmt.Fprintf(&b, "Interval: %s\n", v.Watcher.Interval)
	fmt.Fprintf(&b, "Marker: %s\n", v.Watcher.Marker)
	fmt.Fprintf(&b, "Enabled at startup: %t\n", v.Watcher.Enabled)
	fmt.Fprintf(&b, "Reload command: %s (timeout %s)\n", command, v.ReloadTimeout)
	return b.String()
}
