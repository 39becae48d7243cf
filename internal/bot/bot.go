package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/example/vocabdeck/internal/session"
	"github.com/example/vocabdeck/internal/vocab"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Telegram rejects messages longer than 4096 characters
const maxMessageLength = 4000

// Callback data
const (
	callbackShuffle  = "shuffle"
	callbackList     = "list"
	callbackDownload = "download"
	callbackDelete   = "del"
)

var errFileTooLarge = errors.New("file is too large")

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// MainMenuButtons returns the buttons shown under most replies
func MainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "🔀 Shuffle", CallbackData: callbackShuffle},
			{Text: "📋 List", CallbackData: callbackList},
			{Text: "⬇️ Download", CallbackData: callbackDownload},
		},
	}
}

// Bot is the Telegram front end for per-chat vocabulary lists
type Bot struct {
	api      API
	sessions *session.Store
	archive  Archive
	fetcher  Fetcher
	config   *BotConfig
	logger   *zap.Logger
	wg       sync.WaitGroup
}

// Option configures a Bot
type Option func(*Bot)

// WithArchive enables the deck archive commands
func WithArchive(archive Archive) Option {
	return func(b *Bot) {
		b.archive = archive
	}
}

// WithFetcher overrides how uploaded files are downloaded
func WithFetcher(fetcher Fetcher) Option {
	return func(b *Bot) {
		b.fetcher = fetcher
	}
}

// New creates a new bot instance
func New(api API, sessions *session.Store, config *BotConfig, logger *zap.Logger, opts ...Option) *Bot {
	if config == nil {
		config = DefaultConfig()
	}
	b := &Bot{
		api:      api,
		sessions: sessions,
		fetcher:  NewHTTPFetcher(nil),
		config:   config,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SetupCommands registers the command list shown by Telegram clients
func (b *Bot) SetupCommands() error {
	commands := []tgbotapi.BotCommand{
		{Command: "list", Description: "Show the cards in quiz order"},
		{Command: "add", Description: "Add a card: /add word | part | note"},
		{Command: "delete", Description: "Delete card number N"},
		{Command: "shuffle", Description: "Shuffle the cards"},
		{Command: "download", Description: "Download the list (json, xlsx or csv)"},
		{Command: "help", Description: "How to use the bot"},
	}
	if b.archive != nil {
		commands = append(commands,
			tgbotapi.BotCommand{Command: "save", Description: "Save the list as a named deck"},
			tgbotapi.BotCommand{Command: "open", Description: "Replace the list with a saved deck"},
			tgbotapi.BotCommand{Command: "decks", Description: "Show saved decks"},
			tgbotapi.BotCommand{Command: "drop", Description: "Delete a saved deck"},
		)
	}

	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		return fmt.Errorf("failed to set bot commands: %w", err)
	}
	return nil
}

// Start receives updates until ctx is cancelled or the update channel closes.
// Each update is handled in its own goroutine; Start waits for them before returning.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.config.UpdateTimeout
	updates := b.api.GetUpdatesChan(updateConfig)

	b.logger.Info("Bot started")
	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("Bot stopping")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.wg.Add(1)
			go func(update tgbotapi.Update) {
				defer b.wg.Done()
				b.handleUpdate(ctx, update)
			}(update)
		}
	}
}

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Panic while handling update", zap.Int("update_id", update.UpdateID), zap.Any("panic", r))
		}
	}()

	switch {
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallbackQuery(ctx, update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.Chat == nil {
		return
	}
	chatID := message.Chat.ID

	if message.Document != nil {
		b.handleUpload(ctx, chatID, message.Document)
		return
	}

	if !message.IsCommand() {
		b.reply(chatID, "I don't understand. Send a JSON file to start, or /help.", true)
		return
	}

	args := strings.TrimSpace(message.CommandArguments())
	switch message.Command() {
	case "start", "help":
		b.handleHelp(chatID)
	case "list":
		b.handleList(chatID)
	case "add":
		b.handleAdd(chatID, args)
	case "delete":
		b.handleDelete(chatID, args)
	case "shuffle":
		b.handleShuffle(chatID)
	case "download":
		b.handleDownload(chatID, args)
	case "save":
		b.handleSave(ctx, chatID, args)
	case "open":
		b.handleOpen(ctx, chatID, args)
	case "decks":
		b.handleDecks(ctx, chatID)
	case "drop":
		b.handleDrop(ctx, chatID, args)
	default:
		b.reply(chatID, "Unknown command. Use /help to see what I can do.", true)
	}
}

// handleCallbackQuery handles button presses
func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		b.logger.Warn("Failed to answer callback", zap.Error(err))
	}
	if query.Message == nil || query.Message.Chat == nil {
		return
	}
	chatID := query.Message.Chat.ID

	switch {
	case query.Data == callbackShuffle:
		b.handleShuffle(chatID)
	case query.Data == callbackList:
		b.handleList(chatID)
	case query.Data == callbackDownload:
		b.handleDownload(chatID, "")
	case strings.HasPrefix(query.Data, callbackDelete+":"):
		b.handleDeleteButton(chatID, query.Message.MessageID, query.Data)
	default:
		b.logger.Debug("Unknown callback", zap.String("data", query.Data))
	}
}

// deleteCallbackData encodes the id and display index a delete button was rendered with
func deleteCallbackData(card vocab.Card) string {
	return fmt.Sprintf("%s:%d:%s", callbackDelete, card.Index, card.ID)
}

func parseDeleteCallbackData(data string) (int, string, error) {
	parts := strings.SplitN(data, ":", 3)
	if len(parts) != 3 || parts[0] != callbackDelete {
		return 0, "", fmt.Errorf("malformed delete callback %q", data)
	}
	index, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, "", fmt.Errorf("malformed delete callback %q: %w", data, err)
	}
	return index, parts[2], nil
}

func (b *Bot) sessionFor(chatID int64) *session.Session {
	return b.sessions.Get(session.Key(chatID))
}

// reply sends a plain text message, optionally with the main menu
func (b *Bot) reply(chatID int64, text string, menu bool) {
	msg := tgbotapi.NewMessage(chatID, text)
	if menu {
		msg.ReplyMarkup = createKeyboard(MainMenuButtons())
	}
	b.send(msg)
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.logger.Error("Failed to send message", zap.Error(err))
	}
}
