package models

import "time"

// EntryID identifies an entry inside a single vocabulary list
type EntryID string

// Entry represents one vocabulary card
type Entry struct {
	Word string `json:"word" db:"word"`
	Part string `json:"part" db:"part"` // Part of speech
	Note string `json:"note" db:"note"` // Meaning or annotation
}

// Deck is a named snapshot of a list kept in the archive
type Deck struct {
	ID         int64     `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	EntryCount int       `json:"entry_count" db:"entry_count"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}
