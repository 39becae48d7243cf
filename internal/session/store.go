// Package session keeps one vocabulary list per conversation. Lists live only
// in memory and are dropped once a session has been idle for too long.
package session

import (
	"sync"
	"time"

	"github.com/example/vocabdeck/internal/vocab"
	"github.com/example/vocabdeck/pkg/models"
	"go.uber.org/zap"
)

// Key identifies a session, e.g. a Telegram chat ID
type Key int64

// Session owns a single list. All access goes through Do so every operation
// runs to completion before the next one starts.
type Session struct {
	mu       sync.Mutex
	list     *vocab.List
	lastUsed time.Time
	now      func() time.Time
}

// Do runs fn with exclusive access to the session's list
func (s *Session) Do(fn func(l *vocab.List) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastUsed = s.now()
	return fn(s.list)
}

// ImportEntries replaces the list with entries that have already been
// validated. Concurrent imports each commit a full replacement, so the list
// ends up holding exactly one upload's entries.
func (s *Session) ImportEntries(entries []models.Entry) int {
	var n int
	_ = s.Do(func(l *vocab.List) error {
		l.Import(entries)
		n = l.Len()
		return nil
	})
	return n
}

// ImportJSON validates data and commits it. Invalid data leaves the list untouched.
func (s *Session) ImportJSON(data []byte) (int, error) {
	entries, err := vocab.ParseImport(data)
	if err != nil {
		return 0, err
	}
	return s.ImportEntries(entries), nil
}

func (s *Session) touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = s.now()
}

// LastUsed returns the time of the last operation
func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// Store maps keys to sessions
type Store struct {
	mu       sync.Mutex
	sessions map[Key]*Session
	newList  func() *vocab.List
	now      func() time.Time
	logger   *zap.Logger
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithClock overrides time.Now
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// WithListFactory overrides how new sessions create their list
func WithListFactory(fn func() *vocab.List) StoreOption {
	return func(s *Store) {
		s.newList = fn
	}
}

// NewStore creates an empty store
func NewStore(logger *zap.Logger, opts ...StoreOption) *Store {
	s := &Store{
		sessions: make(map[Key]*Session),
		newList:  func() *vocab.List { return vocab.New() },
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the session for key, creating an empty one on first use.
// Getting a session counts as using it, so a sweep right after Get keeps it.
func (s *Store) Get(key Key) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[key]; ok {
		sess.touch()
		return sess
	}

	sess := &Session{
		list:     s.newList(),
		lastUsed: s.now(),
		now:      s.now,
	}
	s.sessions[key] = sess
	s.logger.Debug("Session created", zap.Int64("session", int64(key)))
	return sess
}

// Len returns the number of live sessions
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// EvictIdle drops sessions unused for longer than ttl and returns how many were dropped
func (s *Store) EvictIdle(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-ttl)
	evicted := 0
	for key, sess := range s.sessions {
		if sess.LastUsed().Before(cutoff) {
			delete(s.sessions, key)
			evicted++
			s.logger.Debug("Session evicted", zap.Int64("session", int64(key)))
		}
	}
	return evicted
}
