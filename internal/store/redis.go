package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pagestake/wager-engine/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache for the journal and settlement-log reads that back list views.
// Writes go to the primary store and invalidate the affected keys.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Write-through (write to primary, invalidate cache) ---

func (s *CachedStore) AppendReadingSession(ctx context.Context, sess *model.ReadingSession) error {
	if err := s.primary.AppendReadingSession(ctx, sess); err != nil {
		return err
	}
	s.rdb.Del(ctx, sessionsKey(sess.BookID))
	return nil
}

func (s *CachedStore) AppendJournalEntry(ctx context.Context, e *model.JournalEntry) error {
	if err := s.primary.AppendJournalEntry(ctx, e); err != nil {
		return err
	}
	s.rdb.Del(ctx, journalKey(e.BookID))
	return nil
}

func (s *CachedStore) AppendCompletedWager(ctx context.Context, w *model.CompletedWager) error {
	if err := s.primary.AppendCompletedWager(ctx, w); err != nil {
		return err
	}
	s.rdb.Del(ctx, completedKey())
	return nil
}

// --- Read-through (check cache first) ---

func (s *CachedStore) ListReadingSessions(ctx context.Context, bookID string) ([]model.ReadingSession, error) {
	data, err := s.rdb.Get(ctx, sessionsKey(bookID)).Bytes()
	if err == nil {
		var sessions []model.ReadingSession
		if json.Unmarshal(data, &sessions) == nil {
			return sessions, nil
		}
	}

	sessions, err := s.primary.ListReadingSessions(ctx, bookID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(sessions); err == nil {
		s.rdb.Set(ctx, sessionsKey(bookID), data, s.ttl)
	}
	return sessions, nil
}

func (s *CachedStore) FetchJournalEntries(ctx context.Context, bookID string) ([]model.JournalEntry, error) {
	data, err := s.rdb.Get(ctx, journalKey(bookID)).Bytes()
	if err == nil {
		var entries []model.JournalEntry
		if json.Unmarshal(data, &entries) == nil {
			return entries, nil
		}
	}

	entries, err := s.primary.FetchJournalEntries(ctx, bookID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(entries); err == nil {
		s.rdb.Set(ctx, journalKey(bookID), data, s.ttl)
	}
	return entries, nil
}

func (s *CachedStore) ListCompletedWagers(ctx context.Context) ([]model.CompletedWager, error) {
	data, err := s.rdb.Get(ctx, completedKey()).Bytes()
	if err == nil {
		var completed []model.CompletedWager
		if json.Unmarshal(data, &completed) == nil {
			return completed, nil
		}
	}

	completed, err := s.primary.ListCompletedWagers(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(completed); err == nil {
		s.rdb.Set(ctx, completedKey(), data, s.ttl)
	}
	return completed, nil
}

// --- Cache keys ---

func sessionsKey(bookID string) string { return fmt.Sprintf("sessions:%s", bookID) }
func journalKey(bookID string) string  { return fmt.Sprintf("journal:%s", bookID) }
func completedKey() string             { return "completed_wagers" }
