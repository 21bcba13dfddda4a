package history

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/contre95/pluginreloader/src/plugins"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramHandler handles Telegram commands for the history feature
type TelegramHandler struct {
	service *Service
}

// NewTelegramHandler creates a new Telegram handler for the history feature
func NewTelegramHandler(service *Service) *TelegramHandler {
	return &TelegramHandler{service: service}
}

// HandleCommand processes history-related Telegram commands
func (h *TelegramHandler) HandleCommand(bot *tgbotapi.BotAPI, chatID int64, command string, args string) error {
	switch command {
	case "history":
		limit := 10
		if n, err := strconv.Atoi(strings.TrimSpace(args)); err == nil && n > 0 {
			limit = n
		}
		return h.handleHistory(bot, chatID, limit)
	default:
		msg := tgbotapi.NewMessage(chatID, "❌ Unknown command. Use /history")
		bot.Send(msg)
		return nil
	}
}

// GetCommands returns the available commands for this handler
func (h *TelegramHandler) GetCommands() map[string]string {
	return map[string]string{
		"history": "Show recent reloads",
	}
}

// HandleCallback handles callback queries for this feature (history has no callbacks)
func (h *TelegramHandler) HandleCallback(bot *tgbotapi.BotAPI, callback *tgbotapi.CallbackQuery) bool {
	return false
}

func (h *TelegramHandler) handleHistory(bot *tgbotapi.BotAPI, chatID int64, limit int) error {
	reactions, err := h.service.Recent(context.Background(), limit)
	if err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, FormatHistory(reactions))
	_, err = bot.Send(msg)
	return err
}

// FormatHistory renders reactions as plain text, newest first.
func FormatHistory(reactions []plugins.Reaction) string {
	if len(reactions) == 0 {
		return "📭 No reloads recorded yet"
	}
	var b strings.Builder
	b.WriteString("🕘 Recent reloads\n\n")
	for _, r := range reactions {
		icon := "✅"
		if r.Failed() {
			icon = "⚠️"
		}
		fmt.Fprintf(&b, "%s %s %s %s\n", icon, r.At.Format("2006-01-02 15:04:05"), r.Event.Name, r.Event.Kind)
		if r.ReloadError != "" {
			fmt.Fprintf(&b, "   reload: %s\n", r.ReloadError)
		}
		if r.NotifyError != "" {
			fmt.Fprintf(&b, "   notify: %s\n", r.NotifyError)
		}
	}
	return b.String()
}
