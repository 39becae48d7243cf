package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/example/vocabdeck/pkg/models"
	"github.com/jmoiron/sqlx"
)

// MaxDeckNameLength limits deck names, counted in characters
const MaxDeckNameLength = 64

var (
	// ErrDeckNotFound is returned when no deck has the requested name
	ErrDeckNotFound = errors.New("deck not found")
	// ErrInvalidDeckName is returned for empty or overlong names
	ErrInvalidDeckName = errors.New("invalid deck name")
)

// DeckRepository stores named snapshots of vocabulary lists
type DeckRepository struct {
	db *sqlx.DB
}

// NewDeckRepository creates a new repository instance
func NewDeckRepository(db *sqlx.DB) *DeckRepository {
	return &DeckRepository{db: db}
}

// NormalizeDeckName trims name and checks its length
func NormalizeDeckName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxDeckNameLength {
		return "", fmt.Errorf("%w: %q", ErrInvalidDeckName, name)
	}
	return name, nil
}

// Save stores entries under name, replacing any deck with the same name
func (r *DeckRepository) Save(ctx context.Context, name string, entries []models.Entry) error {
	name, err := NormalizeDeckName(name)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	deckID, err := r.findID(ctx, tx, name)
	switch {
	case errors.Is(err, ErrDeckNotFound):
		// Both drivers support RETURNING (the bundled SQLite is newer than 3.35)
		err = tx.QueryRowxContext(ctx,
			tx.Rebind("INSERT INTO decks (name, entry_count) VALUES (?, ?) RETURNING id"),
			name, len(entries),
		).Scan(&deckID)
		if err != nil {
			return fmt.Errorf("failed to create deck: %w", err)
		}
	case err != nil:
		return err
	default:
		_, err = tx.ExecContext(ctx,
			tx.Rebind("UPDATE decks SET entry_count = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"),
			len(entries), deckID,
		)
		if err != nil {
			return fmt.Errorf("failed to update deck: %w", err)
		}
		if _, err = tx.ExecContext(ctx, tx.Rebind("DELETE FROM deck_entries WHERE deck_id = ?"), deckID); err != nil {
			return fmt.Errorf("failed to clear deck entries: %w", err)
		}
	}

	stmt, err := tx.PreparexContext(ctx,
		tx.Rebind("INSERT INTO deck_entries (deck_id, position, word, part, note) VALUES (?, ?, ?, ?, ?)"))
	if err != nil {
		return fmt.Errorf("failed to prepare entry insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		if _, err := stmt.ExecContext(ctx, deckID, i, e.Word, e.Part, e.Note); err != nil {
			return fmt.Errorf("failed to save entry %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit deck: %w", err)
	}
	return nil
}

// Load returns the entries of a deck in the order they were saved
func (r *DeckRepository) Load(ctx context.Context, name string) ([]models.Entry, error) {
	name, err := NormalizeDeckName(name)
	if err != nil {
		return nil, err
	}

	deckID, err := r.findID(ctx, r.db, name)
	if err != nil {
		return nil, err
	}

	entries := []models.Entry{}
	err = r.db.SelectContext(ctx, &entries,
		r.db.Rebind("SELECT word, part, note FROM deck_entries WHERE deck_id = ? ORDER BY position"),
		deckID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load deck entries: %w", err)
	}
	return entries, nil
}

// List returns all decks ordered by name
func (r *DeckRepository) List(ctx context.Context) ([]models.Deck, error) {
	decks := []models.Deck{}
	err := r.db.SelectContext(ctx, &decks,
		"SELECT id, name, entry_count, created_at, updated_at FROM decks ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list decks: %w", err)
	}
	return decks, nil
}

// Delete removes a deck and its entries
func (r *DeckRepository) Delete(ctx context.Context, name string) error {
	name, err := NormalizeDeckName(name)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	deckID, err := r.findID(ctx, tx, name)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM deck_entries WHERE deck_id = ?"), deckID); err != nil {
		return fmt.Errorf("failed to delete deck entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM decks WHERE id = ?"), deckID); err != nil {
		return fmt.Errorf("failed to delete deck: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit deck deletion: %w", err)
	}
	return nil
}

func (r *DeckRepository) findID(ctx context.Context, q sqlx.QueryerContext, name string) (int64, error) {
	var id int64
	err := sqlx.GetContext(ctx, q, &id, r.db.Rebind("SELECT id FROM decks WHERE name = ?"), name)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %q", ErrDeckNotFound, name)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to find deck: %w", err)
	}
	return id, nil
}
