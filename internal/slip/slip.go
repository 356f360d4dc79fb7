// Package slip implements the wager slip: an in-memory staging area for
// not-yet-committed wager selections. Parlay odds combination happens
// here, in decimal space for exactness.
package slip

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pagestake/wager-engine/internal/model"
	"github.com/pagestake/wager-engine/internal/odds"
)

var (
	// ErrEntryNotFound is returned when an entry id is not on the slip.
	ErrEntryNotFound = errors.New("slip: entry not found")

	// ErrTooFewLegs is returned when parlay odds are requested with
	// fewer than two legs. A single selection is a single wager, not
	// a parlay.
	ErrTooFewLegs = errors.New("slip: parlay requires at least two legs")
)

// Entry is one uncommitted selection on the slip.
type Entry struct {
	ID        string          `json:"id"`
	Kind      model.WagerKind `json:"kind"`
	Book      model.Book      `json:"book"`
	Timeframe string          `json:"timeframe"`
	Days      int             `json:"days,omitempty"`
	Goals     []model.Goal    `json:"goals,omitempty"`
	Odds      string          `json:"odds"`
	Amount    decimal.Decimal `json:"amount"`
}

// Slip holds uncommitted selections in insertion order. ClearAll is the
// only place slip state is discarded.
type Slip struct {
	mu      sync.RWMutex
	entries []Entry
}

// New creates an empty slip.
func New() *Slip {
	return &Slip{}
}

// AddReading stages a page-count selection and returns its entry id.
func (s *Slip) AddReading(book model.Book, timeframe string, days int, oddsStr string, amount decimal.Decimal) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := Entry{
		ID:        uuid.New().String(),
		Kind:      model.KindReading,
		Book:      book,
		Timeframe: timeframe,
		Days:      days,
		Odds:      oddsStr,
		Amount:    amount,
	}
	s.entries = append(s.entries, entry)
	return entry.ID
}

// AddEngagement stages an engagement selection and returns its entry id.
func (s *Slip) AddEngagement(book model.Book, goals []model.Goal, oddsStr string, amount decimal.Decimal) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := Entry{
		ID:     uuid.New().String(),
		Kind:   model.KindEngagement,
		Book:   book,
		Goals:  goals,
		Odds:   oddsStr,
		Amount: amount,
	}
	s.entries = append(s.entries, entry)
	return entry.ID
}

// Remove deletes one entry by id.
func (s *Slip) Remove(entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.entries {
		if e.ID == entryID {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return nil
		}
	}
	return ErrEntryNotFound
}

// UpdateAmount sets the staked amount on one entry. Clamping against the
// current balance is the caller's responsibility.
func (s *Slip) UpdateAmount(entryID string, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		if s.entries[i].ID == entryID {
			s.entries[i].Amount = amount
			return nil
		}
	}
	return ErrEntryNotFound
}

// Entries returns a copy of the staged selections in insertion order.
func (s *Slip) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of staged selections.
func (s *Slip) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// TotalWager sums the staked amounts across all entries.
func (s *Slip) TotalWager() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, e := range s.entries {
		total = total.Add(e.Amount)
	}
	return total
}

// CombinedParlayOdds combines every staged leg's odds into parlay odds:
// each "+N" converts to decimal multiplier 1 + N/100, multipliers are
// multiplied together, and the product converts back to American format.
func (s *Slip) CombinedParlayOdds() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.entries) < 2 {
		return "", ErrTooFewLegs
	}

	product := decimal.NewFromInt(1)
	for _, e := range s.entries {
		mult, err := odds.DecimalMultiplier(e.Odds)
		if err != nil {
			return "", err
		}
		product = product.Mul(mult)
	}

	// Back to American: (product - 1) * 100, truncated.
	american := product.Sub(decimal.NewFromInt(1)).Mul(decimal.NewFromInt(100))
	return odds.Format(int(american.IntPart())), nil
}

// ClearAll empties the slip.
func (s *Slip) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}
