package store

import (
	"context"
	"sync"

	"github.com/pagestake/wager-engine/internal/model"
)

// MemoryStore implements Store with in-memory slices. Used for testing
// and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu        sync.RWMutex
	sessions  []model.ReadingSession
	journal   []model.JournalEntry
	completed []model.CompletedWager
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) AppendReadingSession(_ context.Context, sess *model.ReadingSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = append(s.sessions, *sess)
	return nil
}

func (s *MemoryStore) ListReadingSessions(_ context.Context, bookID string) ([]model.ReadingSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.ReadingSession
	for _, sess := range s.sessions {
		if sess.BookID == bookID {
			result = append(result, sess)
		}
	}
	return result, nil
}

func (s *MemoryStore) AppendJournalEntry(_ context.Context, e *model.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.journal = append(s.journal, *e)
	return nil
}

func (s *MemoryStore) FetchJournalEntries(_ context.Context, bookID string) ([]model.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.JournalEntry
	for _, e := range s.journal {
		if e.BookID == bookID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (s *MemoryStore) AppendCompletedWager(_ context.Context, w *model.CompletedWager) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.completed = append(s.completed, *w)
	return nil
}

func (s *MemoryStore) ListCompletedWagers(_ context.Context) ([]model.CompletedWager, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.CompletedWager, len(s.completed))
	copy(result, s.completed)
	return result, nil
}
