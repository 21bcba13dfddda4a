package autoreload

import (
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const toggleCallback = "autoreload_toggle"

// TelegramHandler handles Telegram commands for the autoreload feature
type TelegramHandler struct {
	service *Service
}

// NewTelegramHandler creates a new Telegram handler for the autoreload feature
func NewTelegramHandler(service *Service) *TelegramHandler {
	return &TelegramHandler{service: service}
}

// HandleCommand processes autoreload-related Telegram commands
func (h *TelegramHandler) HandleCommand(bot *tgbotapi.BotAPI, chatID int64, command string, args string) error {
	switch command {
	case "autoreload":
		return h.handleToggle(bot, chatID)
	case "status":
		return h.handleStatus(bot, chatID)
	default:
		msg := tgbotapi.NewMessage(chatID, "❌ Unknown command. Use /autoreload or /status")
		bot.Send(msg)
		return nil
	}
}

// GetCommands returns the available commands for this handler
func (h *TelegramHandler) GetCommands() map[string]string {
	return map[string]string{
		"autoreload": "Toggle automatic plugin reloading",
		"status":     "Show watcher status",
	}
}

// HandleCallback handles the toggle button under /status
func (h *TelegramHandler) HandleCallback(bot *tgbotapi.BotAPI, callback *tgbotapi.CallbackQuery) bool {
	if callback.Data != toggleCallback || callback.Message == nil {
		return false
	}
	if err := h.handleToggle(bot, callback.Message.Chat.ID); err != nil {
		slog.Error("Failed to toggle auto-reload from callback", "error", err)
	}
	return true
}

func (h *TelegramHandler) handleToggle(bot *tgbotapi.BotAPI, chatID int64) error {
	enabled := h.service.Toggle()
	slog.Info("Auto-reload toggled from Telegram", "enabled", enabled, "chat_id", chatID)
	msg := tgbotapi.NewMessage(chatID, ToggleReply(enabled))
	_, err := bot.Send(msg)
	return err
}

func (h *TelegramHandler) handleStatus(bot *tgbotapi.BotAPI, chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, FormatStatus(h.service.Status()))
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🔁 Toggle", toggleCallback)),
	)
	_, err := bot.Send(msg)
	return err
}

// ToggleReply is the answer to /autoreload.
func ToggleReply(enabled bool) string {
	return "Auto-reload is now: " + onOff(enabled)
}

// FormatStatus renders the watcher state for a chat message.
func FormatStatus(status Status) string {
	message := fmt.Sprintf("🔌 *Auto-reload*: %s\n", onOff(status.Enabled))
	message += fmt.Sprintf("⏱️ Interval: %s\n", status.Interval)
	if status.Enabled {
		message += fmt.Sprintf("📦 Tracked archives: %d\n", status.Tracked)
	}
	if !status.LastCycle.IsZero() {
		message += fmt.Sprintf("🕒 Last cycle: %s\n", status.LastCycle.Format("15:04:05"))
	}
	if status.LastError != "" {
		// Markdown code spans cannot escape a backtick.
		message += fmt.Sprintf("⚠️ Last error: `%s`\n", strings.ReplaceAll(status.LastError, "`", "'"))
	}
	return message
}
