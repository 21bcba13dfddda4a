package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/contre95/pluginreloader/src/plugins"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the part of tgbotapi.BotAPI used to broadcast messages.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier broadcasts changes to a fixed set of Telegram chats.
type TelegramNotifier struct {
	sender Sender
	chats  []int64
}

// NewTelegramNotifier creates a notifier sending to chats through sender.
func NewTelegramNotifier(sender Sender, chats []int64) *TelegramNotifier {
	return &TelegramNotifier{sender: sender, chats: chats}
}

// Notify sends "<name> added|modified" to every chat.
func (n *TelegramNotifier) Notify(ctx context.Context, name string, kind plugins.ChangeKind) error {
	text := FormatChange(name, kind)
	var errs []error
	for _, chatID := range n.chats {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = tgbotapi.ModeMarkdown
		if _, err := n.sender.Send(msg); err != nil {
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
		}
	}
	return errors.Join(errs...)
}

// FormatChange renders the broadcast text for a change, e.g. "📦 *worldedit.jar* modified".
func FormatChange(name string, kind plugins.ChangeKind) string {
	return fmt.Sprintf("📦 *%s* %s", escapeMarkdown(name), kind)
}

// escapeMarkdown escapes the characters that legacy Telegram Markdown interprets
func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")
	return replacer.Replace(text)
}
