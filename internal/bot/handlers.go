package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/example/vocabdeck/internal/database"
	"github.com/example/vocabdeck/internal/files"
	"github.com/example/vocabdeck/internal/vocab"
	"github.com/example/vocabdeck/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const helpText = `📚 Vocabulary flashcards

Send a .json file (an array of {"word", "part", "note"} objects) to load a list. Spreadsheets (.xlsx, .csv with columns word, part, note) work too. Loading a file replaces the current list and shuffles it.

/list - show the cards in quiz order
/add word | part | note - add a card at the end
/delete N - delete card number N
/shuffle - shuffle the cards again
/download [json|xlsx|csv] - download the list`

const archiveHelpText = `

/save NAME - save the list as a deck
/open NAME - replace the list with a saved deck
/decks - show saved decks
/drop NAME - delete a saved deck`

var errNoSuchCard = errors.New("no such card")

func (b *Bot) handleHelp(chatID int64) {
	text := helpText
	if b.archive != nil {
		text += archiveHelpText
	}
	b.reply(chatID, text, true)
}

// handleList renders the list in display order, one message per page
func (b *Bot) handleList(chatID int64) {
	var cards []vocab.Card
	_ = b.sessionFor(chatID).Do(func(l *vocab.List) error {
		cards = l.Cards()
		return nil
	})

	if len(cards) == 0 {
		b.reply(chatID, "The list is empty. Send a JSON file or use /add.", true)
		return
	}

	pages := renderCards(cards, b.config.ListPageSize)
	for i, p := range pages {
		msg := tgbotapi.NewMessage(chatID, p.text)
		rows := p.buttons
		if i == len(pages)-1 {
			rows = append(rows, MainMenuButtons()...)
		}
		msg.ReplyMarkup = createKeyboard(rows)
		b.send(msg)
	}
}

func (b *Bot) handleAdd(chatID int64, args string) {
	fields := strings.SplitN(args, "|", 3)
	entry := models.Entry{Word: fields[0]}
	if len(fields) > 1 {
		entry.Part = fields[1]
	}
	if len(fields) > 2 {
		entry.Note = fields[2]
	}

	var added bool
	var position int
	_ = b.sessionFor(chatID).Do(func(l *vocab.List) error {
		_, added = l.Add(entry)
		position = l.Len()
		return nil
	})

	if !added {
		b.reply(chatID, "Nothing to add. Use /add word | part | note", false)
		return
	}
	b.reply(chatID, fmt.Sprintf("Added card %d: %s", position, formatEntry(entry)), true)
}

// handleDelete resolves the card number against the current order and removes it
func (b *Bot) handleDelete(chatID int64, args string) {
	n, err := strconv.Atoi(args)
	if err != nil {
		b.reply(chatID, "Usage: /delete N, where N is the card number from /list", false)
		return
	}
	index := n - 1

	var removed models.Entry
	err = b.sessionFor(chatID).Do(func(l *vocab.List) error {
		order := l.Order()
		if index < 0 || index >= len(order) {
			return errNoSuchCard
		}
		id := order[index]
		removed, _ = l.Get(id)
		return l.Remove(id, index)
	})
	if err != nil {
		b.reply(chatID, fmt.Sprintf("There is no card %d.", n), false)
		return
	}
	b.reply(chatID, "Deleted "+formatEntry(removed), false)
	b.handleList(chatID)
}

// handleDeleteButton removes the card a button was rendered for. The button
// carries the index seen at render time; if the list changed since, nothing
// is removed. After a removal the message holding the button is redrawn so
// its remaining buttons carry current indices.
func (b *Bot) handleDeleteButton(chatID int64, messageID int, data string) {
	index, id, err := parseDeleteCallbackData(data)
	if err != nil {
		b.logger.Warn("Bad delete button", zap.Error(err))
		return
	}

	var removed models.Entry
	err = b.sessionFor(chatID).Do(func(l *vocab.List) error {
		removed, _ = l.Get(models.EntryID(id))
		return l.Remove(models.EntryID(id), index)
	})
	if errors.Is(err, vocab.ErrIndexMismatch) {
		b.reply(chatID, "The list has changed since it was shown. Send /list to refresh.", false)
		return
	}
	if err != nil {
		b.logger.Warn("Delete button failed", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}
	b.reply(chatID, "Deleted "+formatEntry(removed), false)
	b.redrawList(chatID, messageID)
}

// redrawList edits a single-page list message in place. Longer lists, and
// messages that cannot be edited, are sent again instead.
func (b *Bot) redrawList(chatID int64, messageID int) {
	var cards []vocab.Card
	_ = b.sessionFor(chatID).Do(func(l *vocab.List) error {
		cards = l.Cards()
		return nil
	})

	if messageID == 0 {
		b.handleList(chatID)
		return
	}

	text := "The list is empty. Send a JSON file or use /add."
	var rows [][]MenuButton
	if len(cards) > 0 {
		pages := renderCards(cards, b.config.ListPageSize)
		if len(pages) > 1 {
			b.handleList(chatID)
			return
		}
		text, rows = pages[0].text, pages[0].buttons
	}
	rows = append(rows, MainMenuButtons()...)

	b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, createKeyboard(rows)))
}

func (b *Bot) handleShuffle(chatID int64) {
	_ = b.sessionFor(chatID).Do(func(l *vocab.List) error {
		l.Shuffle()
		return nil
	})
	b.handleList(chatID)
}

func (b *Bot) handleDownload(chatID int64, args string) {
	format := files.JSON
	if args != "" {
		var err error
		if format, err = files.ParseFormat(args); err != nil {
			b.reply(chatID, "Choose json, xlsx or csv.", false)
			return
		}
	}

	var entries []models.Entry
	_ = b.sessionFor(chatID).Do(func(l *vocab.List) error {
		entries = l.Entries()
		return nil
	})

	data, err := files.Encode(format, entries)
	if err != nil {
		b.logger.Error("Failed to encode export", zap.Int64("chat_id", chatID), zap.Error(err))
		b.reply(chatID, "Could not build the file, please try again.", false)
		return
	}

	name := files.FileName(b.config.ExportFileName, format)
	b.send(tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data}))
}

// handleUpload fetches the document, validates it and only then replaces the list
func (b *Bot) handleUpload(ctx context.Context, chatID int64, doc *tgbotapi.Document) {
	format, err := files.FormatOf(doc.FileName)
	if err != nil {
		b.reply(chatID, "Send a .json, .xlsx or .csv file.", false)
		return
	}
	if int64(doc.FileSize) > b.config.MaxUploadBytes {
		b.reply(chatID, "That file is too large.", false)
		return
	}

	url, err := b.api.GetFileDirectURL(doc.FileID)
	if err != nil {
		b.logger.Error("Failed to resolve file URL", zap.String("file_id", doc.FileID), zap.Error(err))
		b.reply(chatID, "Could not download that file, please try again.", false)
		return
	}

	fetchCtx, cancel := context.WithTimeout(ctx, b.config.DownloadTimeout)
	defer cancel()
	data, err := b.fetcher.Fetch(fetchCtx, url, b.config.MaxUploadBytes)
	if errors.Is(err, errFileTooLarge) {
		b.reply(chatID, "That file is too large.", false)
		return
	}
	if err != nil {
		b.logger.Error("Failed to fetch upload", zap.String("file_id", doc.FileID), zap.Error(err))
		b.reply(chatID, "Could not download that file, please try again.", false)
		return
	}

	decoded, err := files.DecodeFile(format, data)
	if err != nil {
		b.logger.Info("Rejected upload",
			zap.Int64("chat_id", chatID),
			zap.String("file", doc.FileName),
			zap.Error(err))
		b.reply(chatID, describeImportError(err), false)
		return
	}

	n := b.sessionFor(chatID).ImportEntries(decoded.Entries)
	b.logger.Info("Imported list",
		zap.Int64("chat_id", chatID),
		zap.Int("entries", n),
		zap.Int("skipped", decoded.Skipped))

	text := fmt.Sprintf("Imported %d cards.", n)
	if decoded.Skipped > 0 {
		text = fmt.Sprintf("Imported %d cards (%d blank rows skipped).", n, decoded.Skipped)
	}
	b.reply(chatID, text, false)
	b.handleList(chatID)
}

func (b *Bot) handleSave(ctx context.Context, chatID int64, name string) {
	if !b.archiveEnabled(chatID) {
		return
	}

	var entries []models.Entry
	_ = b.sessionFor(chatID).Do(func(l *vocab.List) error {
		entries = l.Entries()
		return nil
	})

	if err := b.archive.Save(ctx, name, entries); err != nil {
		b.replyArchiveError(chatID, err)
		return
	}
	b.reply(chatID, fmt.Sprintf("Saved %d cards as %q.", len(entries), strings.TrimSpace(name)), false)
}

func (b *Bot) handleOpen(ctx context.Context, chatID int64, name string) {
	if !b.archiveEnabled(chatID) {
		return
	}

	entries, err := b.archive.Load(ctx, name)
	if err != nil {
		b.replyArchiveError(chatID, err)
		return
	}

	n := b.sessionFor(chatID).ImportEntries(entries)
	b.reply(chatID, fmt.Sprintf("Opened %q with %d cards.", strings.TrimSpace(name), n), false)
	b.handleList(chatID)
}

func (b *Bot) handleDecks(ctx context.Context, chatID int64) {
	if !b.archiveEnabled(chatID) {
		return
	}

	decks, err := b.archive.List(ctx)
	if err != nil {
		b.replyArchiveError(chatID, err)
		return
	}
	if len(decks) == 0 {
		b.reply(chatID, "No saved decks yet. Use /save NAME.", false)
		return
	}

	var text strings.Builder
	text.WriteString("Saved decks:\n")
	for _, d := range decks {
		fmt.Fprintf(&text, "• %s (%d cards)\n", d.Name, d.EntryCount)
	}
	b.reply(chatID, strings.TrimRight(text.String(), "\n"), false)
}

func (b *Bot) handleDrop(ctx context.Context, chatID int64, name string) {
	if !b.archiveEnabled(chatID) {
		return
	}

	if err := b.archive.Delete(ctx, name); err != nil {
		b.replyArchiveError(chatID, err)
		return
	}
	b.reply(chatID, fmt.Sprintf("Deleted deck %q.", strings.TrimSpace(name)), false)
}

func (b *Bot) archiveEnabled(chatID int64) bool {
	if b.archive == nil {
		b.reply(chatID, "The deck archive is not configured.", false)
		return false
	}
	return true
}

func (b *Bot) replyArchiveError(chatID int64, err error) {
	switch {
	case errors.Is(err, database.ErrInvalidDeckName):
		b.reply(chatID, fmt.Sprintf("Deck names must be 1 to %d characters.", database.MaxDeckNameLength), false)
	case errors.Is(err, database.ErrDeckNotFound):
		b.reply(chatID, "There is no deck with that name. See /decks.", false)
	default:
		b.logger.Error("Archive operation failed", zap.Int64("chat_id", chatID), zap.Error(err))
		b.reply(chatID, "The deck archive is unavailable right now.", false)
	}
}

func describeImportError(err error) string {
	switch {
	case errors.Is(err, vocab.ErrMalformedJSON):
		return "That file is not valid JSON. Your list was not changed."
	case errors.Is(err, vocab.ErrInvalidShape):
		return `Expected a JSON array of {"word", "part", "note"} objects with text values. Your list was not changed.`
	default:
		return "Could not read that file. Your list was not changed."
	}
}

type page struct {
	text    string
	buttons [][]MenuButton
}

// renderCards splits cards into messages of at most pageSize cards, each with
// a row of delete buttons per five cards
func renderCards(cards []vocab.Card, pageSize int) []page {
	if pageSize <= 0 {
		pageSize = DefaultConfig().ListPageSize
	}

	var pages []page
	var text strings.Builder
	var row []MenuButton
	current := page{}
	count := 0

	flush := func() {
		if len(row) > 0 {
			current.buttons = append(current.buttons, row)
			row = nil
		}
		current.text = strings.TrimRight(text.String(), "\n")
		pages = append(pages, current)
		current = page{}
		text.Reset()
		count = 0
	}

	for _, c := range cards {
		line := truncate(fmt.Sprintf("%d. %s", c.Index+1, formatEntry(c.Entry)), maxMessageLength-1) + "\n"
		if count == pageSize || (count > 0 && text.Len()+len(line) > maxMessageLength) {
			flush()
		}

		text.WriteString(line)
		row = append(row, MenuButton{Text: fmt.Sprintf("✖ %d", c.Index+1), CallbackData: deleteCallbackData(c)})
		if len(row) == 5 {
			current.buttons = append(current.buttons, row)
			row = nil
		}
		count++
	}
	flush()

	return pages
}

// truncate shortens s to at most max bytes without splitting a character
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := 0
	for i := range s {
		if i > max-len("…") {
			break
		}
		cut = i
	}
	return s[:cut] + "…"
}

// formatEntry joins the non-empty fields of an entry
func formatEntry(e models.Entry) string {
	var fields []string
	for _, f := range []string{e.Word, e.Part, e.Note} {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	if len(fields) == 0 {
		return "(blank)"
	}
	return strings.Join(fields, " · ")
}
