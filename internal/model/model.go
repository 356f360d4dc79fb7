// Package model defines the core domain types shared across the wager engine.
// All monetary values use shopspring/decimal — never float64 for money.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Difficulty classifies how demanding a book is to read. The multiplier
// scales odds upward for harder books.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyExpert Difficulty = "expert"
)

// Multiplier returns the odds multiplier for the difficulty.
// Unknown values fall back to the medium multiplier of 1.0.
func (d Difficulty) Multiplier() float64 {
	switch d {
	case DifficultyEasy:
		return 0.8
	case DifficultyMedium:
		return 1.0
	case DifficultyHard:
		return 1.3
	case DifficultyExpert:
		return 1.6
	default:
		return 1.0
	}
}

// Book is an immutable record supplied by the bookshelf collaborator.
// The engine reads it and never writes back. Callers guarantee
// readingStartPage <= readingEndPage <= totalPages.
type Book struct {
	ID                     string     `json:"id" db:"id"`
	Title                  string     `json:"title" db:"title"`
	Author                 string     `json:"author,omitempty" db:"author"`
	TotalPages             int        `json:"total_pages" db:"total_pages"`
	EffectiveTotalPages    int        `json:"effective_total_pages" db:"effective_total_pages"`
	EffectiveTotalChapters int        `json:"effective_total_chapters" db:"effective_total_chapters"`
	ReadingStartPage       int        `json:"reading_start_page" db:"reading_start_page"`
	ReadingEndPage         int        `json:"reading_end_page" db:"reading_end_page"`
	Difficulty             Difficulty `json:"difficulty" db:"difficulty"`
}

// PageSpan returns the number of pages covered by the reading range.
func (b Book) PageSpan() int {
	return b.ReadingEndPage - b.ReadingStartPage + 1
}

// WagerKind distinguishes page-count wagers from engagement wagers.
type WagerKind string

const (
	KindReading    WagerKind = "reading"
	KindEngagement WagerKind = "engagement"
)

// ReadingWager is a committed page-count commitment against a book.
// CurrentDay is 1-based and only ever advances forward.
type ReadingWager struct {
	ID                 string          `json:"id"`
	Book               Book            `json:"book"`
	Timeframe          string          `json:"timeframe"`
	Odds               string          `json:"odds"` // American format, "+N"
	Amount             decimal.Decimal `json:"amount"`
	PagesPerDay        int             `json:"pages_per_day"`
	TotalDays          int             `json:"total_days"`
	CurrentDay         int             `json:"current_day"`
	ParlayID           string          `json:"parlay_id,omitempty"`
	PlacedAt           time.Time       `json:"placed_at"`
	CommitmentDeadline time.Time       `json:"commitment_deadline"`
}

// Goal is one counter inside an engagement wager.
type Goal struct {
	ID           string `json:"id"`
	Description  string `json:"description"`
	TargetCount  int    `json:"target_count"`
	CurrentCount int    `json:"current_count"`
}

// Complete reports whether the goal counter has reached its target.
func (g Goal) Complete() bool {
	return g.CurrentCount >= g.TargetCount
}

// EngagementWager is a committed non-page goal (journaling, notes) against
// a book. It settles when every goal reaches its target.
type EngagementWager struct {
	ID       string          `json:"id"`
	Book     Book            `json:"book"`
	Odds     string          `json:"odds"`
	Amount   decimal.Decimal `json:"amount"`
	Goals    []Goal          `json:"goals"`
	ParlayID string          `json:"parlay_id,omitempty"`
	PlacedAt time.Time       `json:"placed_at"`
}

// Complete reports whether every goal has reached its target.
func (w EngagementWager) Complete() bool {
	for _, g := range w.Goals {
		if !g.Complete() {
			return false
		}
	}
	return len(w.Goals) > 0
}

// ParlayStatus is the lifecycle state of a parlay group.
type ParlayStatus string

const (
	ParlayInProgress ParlayStatus = "in_progress"
	ParlayWon        ParlayStatus = "won"
	ParlayLost       ParlayStatus = "lost"
)

// ParlayGroup ties multiple wager legs together under combined odds.
// Status becomes won only when every leg is individually complete; lost
// only via an explicit external decision.
type ParlayGroup struct {
	ID           string          `json:"id"`
	LegIDs       []string        `json:"leg_ids"`
	CombinedOdds string          `json:"combined_odds"`
	Amount       decimal.Decimal `json:"amount"`
	Status       ParlayStatus    `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ProgressRecord is the per-wager mutable progress state. Created when a
// reading wager is committed, deleted when the wager settles.
// TotalPagesRead and CurrentPagePosition never decrease.
type ProgressRecord struct {
	WagerID             string `json:"wager_id"`
	DailyProgress       int    `json:"daily_progress"` // resets on day-advance
	TotalPagesRead      int    `json:"total_pages_read"`
	CurrentPagePosition int    `json:"current_page_position"`
	LastReadPage        int    `json:"last_read_page"`
}

// WagerStatus is the derived pacing state of an active wager.
type WagerStatus string

const (
	StatusOnTrack   WagerStatus = "on_track"
	StatusAhead     WagerStatus = "ahead"
	StatusBehind    WagerStatus = "behind"
	StatusOverdue   WagerStatus = "overdue"
	StatusCompleted WagerStatus = "completed"
)

// CompletedWager is an immutable settlement snapshot. Once created these
// are never modified or deleted.
type CompletedWager struct {
	ID             string          `json:"id" db:"id"`
	WagerID        string          `json:"wager_id" db:"wager_id"`
	BookID         string          `json:"book_id" db:"book_id"`
	BookTitle      string          `json:"book_title" db:"book_title"`
	Kind           WagerKind       `json:"kind" db:"kind"`
	Odds           string          `json:"odds" db:"odds"`
	Amount         decimal.Decimal `json:"amount" db:"amount"`
	TotalPagesRead int             `json:"total_pages_read" db:"total_pages_read"`
	Success        bool            `json:"success" db:"success"`
	Payout         decimal.Decimal `json:"payout" db:"payout"`
	CompletedAt    time.Time       `json:"completed_at" db:"completed_at"`
}

// ReadingSession is the committed output of one timed reading session.
type ReadingSession struct {
	ID        string    `json:"id" db:"id"`
	BookID    string    `json:"book_id" db:"book_id"`
	WagerID   string    `json:"wager_id" db:"wager_id"`
	StartPage int       `json:"start_page" db:"start_page"`
	EndPage   int       `json:"end_page" db:"end_page"`
	Minutes   float64   `json:"minutes" db:"minutes"`
	Note      string    `json:"note,omitempty" db:"note"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// JournalEntry is a freeform note attached to a book.
type JournalEntry struct {
	ID        string    `json:"id" db:"id"`
	BookID    string    `json:"book_id" db:"book_id"`
	Text      string    `json:"text" db:"text"`
	Extra     string    `json:"extra,omitempty" db:"extra"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
