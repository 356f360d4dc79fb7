// Package store defines the persistence collaborator for the wager
// engine. Implementations include PostgreSQL (source of truth), Redis
// (read-through cache), and in-memory (for testing).
//
// The engine calls these as best-effort side effects: failures are
// logged at the call site and never affect in-memory correctness.
package store

import (
	"context"

	"github.com/pagestake/wager-engine/internal/model"
)

// Store is the persistence interface. All appends are one-shot and
// append-only; nothing here is ever updated or deleted.
type Store interface {
	// --- Reading sessions ---

	// AppendReadingSession appends one committed session record.
	AppendReadingSession(ctx context.Context, s *model.ReadingSession) error

	// ListReadingSessions returns all sessions recorded for a book.
	ListReadingSessions(ctx context.Context, bookID string) ([]model.ReadingSession, error)

	// --- Journal ---

	// AppendJournalEntry appends one freeform journal note.
	AppendJournalEntry(ctx context.Context, e *model.JournalEntry) error

	// FetchJournalEntries returns all journal entries for a book.
	FetchJournalEntries(ctx context.Context, bookID string) ([]model.JournalEntry, error)

	// --- Settlement log ---

	// AppendCompletedWager appends an immutable settlement snapshot.
	AppendCompletedWager(ctx context.Context, w *model.CompletedWager) error

	// ListCompletedWagers returns the full settlement log.
	ListCompletedWagers(ctx context.Context) ([]model.CompletedWager, error)
}
