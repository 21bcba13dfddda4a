package hosting

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/contre95/pluginreloader/src/features/autoreload"
	"github.com/contre95/pluginreloader/src/features/config"
	"github.com/contre95/pluginreloader/src/features/history"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramCommandHandler interface that each feature implements
type TelegramCommandHandler interface {
	HandleCommand(bot *tgbotapi.BotAPI, chatID int64, command string, args string) error
	GetCommands() map[string]string                                             // Returns command -> description mapping
	HandleCallback(bot *tgbotapi.BotAPI, callback *tgbotapi.CallbackQuery) bool // Handle feature-specific callbacks
}

// TelegramBot handles Telegram bot operations
type TelegramBot struct {
	bot      *tgbotapi.BotAPI
	config   *config.Manager
	handlers map[string]TelegramCommandHandler
	stopChan chan struct{}
}

// NewBotAPI connects to Telegram with the configured token. The same client is shared by the
// command bot and the change notifier.
func NewBotAPI(cfg config.Telegram) (*tgbotapi.BotAPI, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("telegram bot is disabled in configuration")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram bot token is not configured")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	slog.Info("Telegram bot initialized", "username", bot.Self.UserName)
	return bot, nil
}

// NewTelegramBot creates a new Telegram bot instance
func NewTelegramBot(bot *tgbotapi.BotAPI, cfg *config.Manager, autoreloadService *autoreload.Service, historyService *history.Service) *TelegramBot {
	telegramBot := &TelegramBot{
		bot:      bot,
		config:   cfg,
		handlers: make(map[string]TelegramCommandHandler),
		stopChan: make(chan struct{}),
	}

	telegramBot.RegisterHandler("autoreload", autoreload.NewTelegramHandler(autoreloadService))
	telegramBot.RegisterHandler("history", history.NewTelegramHandler(historyService))
	telegramBot.RegisterHandler("config", config.NewTelegramHandler(cfg))

	return telegramBot
}

// RegisterHandler registers a feature's command handler
func (t *TelegramBot) RegisterHandler(feature string, handler TelegramCommandHandler) {
	t.handlers[feature] = handler
	slog.Debug("Registered Telegram handler", "feature", feature)
}

// Start publishes the command menu and listens for updates until Stop is called
func (t *TelegramBot) Start() {
	t.publishCommands()

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30
	updates := t.bot.GetUpdatesChan(updateConfig)

	slog.Info("Starting Telegram bot listener")
	for {
		select {
		case update := <-updates:
			if update.Message != nil {
				go t.handleMessage(update)
			}
			if update.CallbackQuery != nil {
				go t.handleCallbackQuery(update)
			}
		case <-t.stopChan:
			slog.Info("Stopping Telegram bot listener")
			t.bot.StopReceivingUpdates()
			return
		}
	}
}

// Stop gracefully stops the bot
func (t *TelegramBot) Stop() {
	close(t.stopChan)
}

// publishCommands announces the available commands in the Telegram client menu
func (t *TelegramBot) publishCommands() {
	var commands []tgbotapi.BotCommand
	for _, c := range t.commandList() {
		commands = append(commands, tgbotapi.BotCommand{Command: c[0], Description: c[1]})
	}
	if _, err := t.bot.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		slog.Warn("Failed to publish bot commands", "error", err)
		return
	}
	slog.Debug("Published bot commands", "count", len(commands))
}

// commandList returns command/description pairs sorted by command
func (t *TelegramBot) commandList() [][2]string {
	var list [][2]string
	for _, handler := range t.handlers {
		for command, description := range handler.GetCommands() {
			list = append(list, [2]string{command, description})
		}
	}
	list = append(list, [2]string{"help", "Show available commands"})
	sort.Slice(list, func(i, j int) bool { return list[i][0] < list[j][0] })
	return list
}

// handleMessage processes incoming messages
func (t *TelegramBot) handleMessage(update tgbotapi.Update) {
	message := update.Message
	chatID := message.Chat.ID

	if !t.authorize(message.From, chatID) {
		return
	}

	if message.IsCommand() {
		t.handleCommand(update)
		return
	}
	t.sendMessage(chatID, "🤖 Send /help to see available commands")
}

// authorize checks the sender against telegram.allowedUsers and answers unknown users
func (t *TelegramBot) authorize(from *tgbotapi.User, chatID int64) bool {
	allowedUsers := t.config.Get().Telegram.AllowedUsers
	if len(allowedUsers) == 0 {
		slog.Warn("No allowed users configured", "chat_id", chatID)
		t.sendMessage(chatID, "❌ Access denied: No users configured. Please add users to the config.")
		return false
	}
	if !isAllowed(allowedUsers, from) {
		slog.Warn("Unauthorized user", "username", displayName(from), "chat_id", chatID)
		t.sendMessage(chatID, "Unknown user, please add your user to the config")
		return false
	}
	return true
}

func isAllowed(allowedUsers []string, from *tgbotapi.User) bool {
	if from == nil {
		return false
	}
	return slices.Contains(allowedUsers, displayName(from))
}

// displayName is the username, or first and last name for users without one
func displayName(from *tgbotapi.User) string {
	if from == nil {
		return ""
	}
	if from.UserName != "" {
		return from.UserName
	}
	name := from.FirstName
	if from.LastName != "" {
		name += " " + from.LastName
	}
	return name
}

// handleCommand processes bot commands
func (t *TelegramBot) handleCommand(update tgbotapi.Update) {
	message := update.Message
	chatID := message.Chat.ID
	command := message.Command()
	args := message.CommandArguments()

	slog.Debug("Processing command", "command", command, "args", args, "chat_id", chatID)

	switch command {
	case "help", "start":
		t.handleHelp(chatID)
	default:
		if err := t.routeCommand(command, args, chatID); err != nil {
			slog.Error("Failed to handle command", "command", command, "error", err)
			t.sendMessage(chatID, "❌ Failed to process command")
		}
	}
}

// commandMap maps each command to the feature handling it
var commandMap = map[string]string{
	"autoreload": "autoreload",
	"status":     "autoreload",
	"history":    "history",
	"config":     "config",
}

// routeCommand routes commands to the appropriate feature handler
func (t *TelegramBot) routeCommand(command, args string, chatID int64) error {
	feature, exists := commandMap[command]
	if !exists {
		t.sendMessage(chatID, "❌ Unknown command. Send /help to see available commands.")
		return nil
	}

	handler, exists := t.handlers[feature]
	if !exists {
		t.sendMessage(chatID, fmt.Sprintf("❌ %s feature not available", feature))
		return nil
	}

	return handler.HandleCommand(t.bot, chatID, command, args)
}

// handleHelp lists the available commands
func (t *TelegramBot) handleHelp(chatID int64) {
	var b strings.Builder
	b.WriteString("🤖 PluginReloader commands\n\n")
	for _, c := range t.commandList() {
		fmt.Fprintf(&b, "/%s - %s\n", c[0], c[1])
	}
	msg := tgbotapi.NewMessage(chatID, b.String())
	if _, err := t.bot.Send(msg); err != nil {
		slog.Error("Failed to send help", "error", err, "chat_id", chatID)
	}
}

// sendMessage sends a message to the specified chat
func (t *TelegramBot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := t.bot.Send(msg)
	if err != nil {
		slog.Error("Failed to send message", "error", err, "chat_id", chatID)
	}
}

// handleCallbackQuery handles callback queries from inline keyboards
func (t *TelegramBot) handleCallbackQuery(update tgbotapi.Update) {
	callback := update.CallbackQuery

	// Answer callback to remove loading state
	defer t.bot.Request(tgbotapi.NewCallback(callback.ID, ""))

	if !isAllowed(t.config.Get().Telegram.AllowedUsers, callback.From) {
		slog.Warn("Unauthorized callback", "username", displayName(callback.From))
		return
	}

	for _, handler := range t.handlers {
		if handler.HandleCallback(t.bot, callback) {
			break
		}
	}
}
