// Package ledger implements the authoritative per-wager progress state:
// cumulative pages read, the current day's pages, and the reader's
// absolute page position. Records are created when a wager is committed,
// mutated only through Record, and deleted when the wager settles.
package ledger

import (
	"errors"
	"sync"
	"time"

	"github.com/pagestake/wager-engine/internal/model"
)

// ErrRecordNotFound is returned when no progress record exists for a wager.
var ErrRecordNotFound = errors.New("ledger: progress record not found")

// behindThreshold is the fraction of the expected page position below
// which a wager counts as materially under pace.
const behindThreshold = 0.75

// Ledger tracks progress records keyed by wager id.
type Ledger struct {
	mu      sync.RWMutex
	records map[string]*model.ProgressRecord
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{records: make(map[string]*model.ProgressRecord)}
}

// Seed creates the initial record for a freshly committed wager. The
// page position starts one page before the book's reading range.
func (l *Ledger) Seed(wagerID string, readingStartPage int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records[wagerID] = &model.ProgressRecord{
		WagerID:             wagerID,
		CurrentPagePosition: readingStartPage - 1,
		LastReadPage:        readingStartPage - 1,
	}
}

// Record applies one committed reading session to a wager's record.
// Start and end pages are clamped into the book's reading range; the
// page count is max(0, end - start + 1). CurrentPagePosition and
// TotalPagesRead never decrease.
func (l *Ledger) Record(wagerID string, book model.Book, startPage, endPage int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[wagerID]
	if !ok {
		return 0, ErrRecordNotFound
	}

	startPage = clampPage(startPage, book.ReadingStartPage, book.ReadingEndPage)
	endPage = clampPage(endPage, book.ReadingStartPage, book.ReadingEndPage)

	pagesRead := endPage - startPage + 1
	if pagesRead < 0 {
		pagesRead = 0
	}

	rec.DailyProgress += pagesRead
	rec.TotalPagesRead += pagesRead
	if endPage > rec.CurrentPagePosition {
		rec.CurrentPagePosition = endPage
	}
	rec.LastReadPage = endPage

	return pagesRead, nil
}

// ResetDaily zeroes the daily progress counter on day-advance.
func (l *Ledger) ResetDaily(wagerID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[wagerID]
	if !ok {
		return ErrRecordNotFound
	}
	rec.DailyProgress = 0
	return nil
}

// Get returns a copy of the record for a wager.
func (l *Ledger) Get(wagerID string) (model.ProgressRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rec, ok := l.records[wagerID]
	if !ok {
		return model.ProgressRecord{}, ErrRecordNotFound
	}
	return *rec, nil
}

// Delete removes a settled wager's record.
func (l *Ledger) Delete(wagerID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.records, wagerID)
}

// ExpectedPage returns the page the reader should have reached by the end
// of the wager's current day to stay on pace.
func ExpectedPage(w model.ReadingWager) int {
	return w.Book.ReadingStartPage + w.PagesPerDay*w.CurrentDay - 1
}

// DayAdvanceEarned reports whether the wager has read far enough to
// advance past its current day.
func DayAdvanceEarned(w model.ReadingWager, rec model.ProgressRecord) bool {
	return rec.CurrentPagePosition >= ExpectedPage(w) && w.CurrentDay < w.TotalDays
}

// Status derives the pacing state of an active reading wager at the
// given instant:
//
//	completed — page position reached the end of the reading range
//	ahead     — above the expected page for the current day
//	overdue   — the commitment deadline has elapsed
//	behind    — below 75% of the expected page
//	on_track  — otherwise
func Status(w model.ReadingWager, rec model.ProgressRecord, now time.Time) model.WagerStatus {
	if rec.CurrentPagePosition >= w.Book.ReadingEndPage {
		return model.StatusCompleted
	}

	expected := ExpectedPage(w)
	if rec.CurrentPagePosition > expected {
		return model.StatusAhead
	}
	if now.After(w.CommitmentDeadline) {
		return model.StatusOverdue
	}
	if float64(rec.CurrentPagePosition) < behindThreshold*float64(expected) {
		return model.StatusBehind
	}
	return model.StatusOnTrack
}

func clampPage(page, lo, hi int) int {
	if page < lo {
		return lo
	}
	if page > hi {
		return hi
	}
	return page
}
