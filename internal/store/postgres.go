package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/pagestake/wager-engine/internal/model"
)

// PostgresStore implements Store using PostgreSQL as the source of truth.
// All monetary values are stored as NUMERIC for exact decimal precision.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) AppendReadingSession(ctx context.Context, sess *model.ReadingSession) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO reading_sessions (id, book_id, wager_id, start_page, end_page, minutes, note, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sess.ID, sess.BookID, sess.WagerID,
		sess.StartPage, sess.EndPage, sess.Minutes,
		sess.Note, sess.CreatedAt,
	)
	return err
}

func (s *PostgresStore) ListReadingSessions(ctx context.Context, bookID string) ([]model.ReadingSession, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, book_id, wager_id, start_page, end_page, minutes, note, created_at
		 FROM reading_sessions WHERE book_id = $1 ORDER BY created_at`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.ReadingSession
	for rows.Next() {
		var sess model.ReadingSession
		if err := rows.Scan(&sess.ID, &sess.BookID, &sess.WagerID,
			&sess.StartPage, &sess.EndPage, &sess.Minutes,
			&sess.Note, &sess.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func (s *PostgresStore) AppendJournalEntry(ctx context.Context, e *model.JournalEntry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO journal_entries (id, book_id, text, extra, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.BookID, e.Text, e.Extra, e.CreatedAt,
	)
	return err
}

func (s *PostgresStore) FetchJournalEntries(ctx context.Context, bookID string) ([]model.JournalEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, book_id, text, extra, created_at
		 FROM journal_entries WHERE book_id = $1 ORDER BY created_at`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.JournalEntry
	for rows.Next() {
		var e model.JournalEntry
		if err := rows.Scan(&e.ID, &e.BookID, &e.Text, &e.Extra, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *PostgresStore) AppendCompletedWager(ctx context.Context, w *model.CompletedWager) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO completed_wagers (id, wager_id, book_id, book_title, kind, odds, amount, total_pages_read, success, payout, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7::NUMERIC, $8, $9, $10::NUMERIC, $11)`,
		w.ID, w.WagerID, w.BookID, w.BookTitle, string(w.Kind), w.Odds,
		w.Amount.String(), w.TotalPagesRead, w.Success, w.Payout.String(),
		w.CompletedAt,
	)
	return err
}

func (s *PostgresStore) ListCompletedWagers(ctx context.Context) ([]model.CompletedWager, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, wager_id, book_id, book_title, kind, odds,
		        amount::TEXT, total_pages_read, success, payout::TEXT, completed_at
		 FROM completed_wagers ORDER BY completed_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var completed []model.CompletedWager
	for rows.Next() {
		var w model.CompletedWager
		var kind, amount, payout string
		if err := rows.Scan(&w.ID, &w.WagerID, &w.BookID, &w.BookTitle, &kind, &w.Odds,
			&amount, &w.TotalPagesRead, &w.Success, &payout, &w.CompletedAt); err != nil {
			return nil, err
		}
		w.Kind = model.WagerKind(kind)
		var convErr error
		w.Amount, convErr = decimal.NewFromString(amount)
		if convErr != nil {
			return nil, fmt.Errorf("parse amount for %s: %w", w.ID, convErr)
		}
		w.Payout, convErr = decimal.NewFromString(payout)
		if convErr != nil {
			return nil, fmt.Errorf("parse payout for %s: %w", w.ID, convErr)
		}
		completed = append(completed, w)
	}
	return completed, rows.Err()
}
