// Package vocab holds the in-memory vocabulary list edited by a session:
// a keyed set of entries plus an independent display order.
package vocab

import (
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/example/vocabdeck/pkg/models"
	"github.com/google/uuid"
)

// ErrIndexMismatch is returned by Remove when the index hint does not point at the id
var ErrIndexMismatch = errors.New("index does not match entry id")

// Card is an entry as it appears in the display order
type Card struct {
	Index int
	ID    models.EntryID
	Entry models.Entry
}

// List is an ordered, keyed collection of vocabulary entries.
//
// The display order and the key set always hold the same ids. The list also
// remembers the order in which ids were inserted; exports follow that order,
// not the display order. A List is not safe for concurrent use.
type List struct {
	entries  map[models.EntryID]models.Entry
	inserted []models.EntryID
	order    []models.EntryID

	rnd   *rand.Rand
	newID func() string
}

// Option configures a List
type Option func(*List)

// WithRand sets the random source used by Shuffle
func WithRand(rnd *rand.Rand) Option {
	return func(l *List) {
		l.rnd = rnd
	}
}

// WithIDFunc sets the id generator. Generated ids are still checked for collisions.
func WithIDFunc(fn func() string) Option {
	return func(l *List) {
		l.newID = fn
	}
}

// New creates an empty list
func New(opts ...Option) *List {
	l := &List{
		entries: make(map[models.EntryID]models.Entry),
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Import replaces the whole list with entries. Entries must already have
// passed ValidateImport (or come from ParseImport). The new display order is
// shuffled; the insertion order follows the input.
func (l *List) Import(entries []models.Entry) {
	l.entries = make(map[models.EntryID]models.Entry, len(entries))
	l.inserted = make([]models.EntryID, 0, len(entries))
	l.order = make([]models.EntryID, 0, len(entries))

	for _, e := range entries {
		l.insert(e)
	}
	l.Shuffle()
}

// Add appends a single entry to the end of the display order. Fields are
// trimmed; an entry whose fields are all blank is ignored and Add reports false.
func (l *List) Add(e models.Entry) (models.EntryID, bool) {
	e.Word = strings.TrimSpace(e.Word)
	e.Part = strings.TrimSpace(e.Part)
	e.Note = strings.TrimSpace(e.Note)
	if e.Word == e.Part && e.Word == e.Note && e.Word == "" {
		return "", false
	}
	return l.insert(e), true
}

// Remove deletes id from the list and the display position index from the
// order. The caller supplies the position it observed; the list does not
// search for the id. If order[index] is not id nothing changes.
func (l *List) Remove(id models.EntryID, index int) error {
	if index < 0 || index >= len(l.order) || l.order[index] != id {
		return ErrIndexMismatch
	}

	delete(l.entries, id)
	l.order = append(l.order[:index], l.order[index+1:]...)
	for i, ins := range l.inserted {
		if ins == id {
			l.inserted = append(l.inserted[:i], l.inserted[i+1:]...)
			break
		}
	}
	return nil
}

// Shuffle reorders the display order in place with a Fisher-Yates shuffle
func (l *List) Shuffle() {
	for i := len(l.order) - 1; i > 0; i-- {
		// The target can be i itself
		target := l.rnd.Intn(i + 1)
		l.order[i], l.order[target] = l.order[target], l.order[i]
	}
}

// Len returns the number of entries
func (l *List) Len() int {
	return len(l.order)
}

// Get returns the entry stored under id
func (l *List) Get(id models.EntryID) (models.Entry, bool) {
	e, ok := l.entries[id]
	return e, ok
}

// Order returns a copy of the display order
func (l *List) Order() []models.EntryID {
	order := make([]models.EntryID, len(l.order))
	copy(order, l.order)
	return order
}

// Entries returns the entries in insertion order
func (l *List) Entries() []models.Entry {
	entries := make([]models.Entry, 0, len(l.inserted))
	for _, id := range l.inserted {
		entries = append(entries, l.entries[id])
	}
	return entries
}

// Cards returns the entries in display order
func (l *List) Cards() []Card {
	cards := make([]Card, 0, len(l.order))
	for i, id := range l.order {
		cards = append(cards, Card{Index: i, ID: id, Entry: l.entries[id]})
	}
	return cards
}

func (l *List) insert(e models.Entry) models.EntryID {
	var id models.EntryID
	for {
		id = models.EntryID(l.newID())
		if _, exists := l.entries[id]; !exists {
			break
		}
	}

	l.entries[id] = e
	l.inserted = append(l.inserted, id)
	l.order = append(l.order, id)
	return id
}
