package slip

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/pagestake/wager-engine/internal/model"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func testBook(id string) model.Book {
	return model.Book{
		ID:                  id,
		Title:               "Book " + id,
		TotalPages:          300,
		EffectiveTotalPages: 300,
		ReadingStartPage:    1,
		ReadingEndPage:      300,
		Difficulty:          model.DifficultyMedium,
	}
}

func TestAddReading_StagesEntry(t *testing.T) {
	s := New()
	id := s.AddReading(testBook("b1"), "7 days", 7, "+185", d(10))

	if s.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", s.Len())
	}
	entries := s.Entries()
	if entries[0].ID != id {
		t.Errorf("expected entry id %s, got %s", id, entries[0].ID)
	}
	if entries[0].Kind != model.KindReading {
		t.Errorf("expected reading kind, got %s", entries[0].Kind)
	}
	if entries[0].Days != 7 || entries[0].Odds != "+185" {
		t.Errorf("entry fields not preserved: %+v", entries[0])
	}
}

func TestAddEngagement_StagesEntry(t *testing.T) {
	s := New()
	goals := []model.Goal{{ID: "g1", Description: "journal", TargetCount: 5}}
	id := s.AddEngagement(testBook("b1"), goals, "+130", d(5))

	entries := s.Entries()
	if len(entries) != 1 || entries[0].ID != id {
		t.Fatalf("expected staged engagement entry")
	}
	if entries[0].Kind != model.KindEngagement {
		t.Errorf("expected engagement kind, got %s", entries[0].Kind)
	}
	if len(entries[0].Goals) != 1 || entries[0].Goals[0].TargetCount != 5 {
		t.Errorf("goals not preserved: %+v", entries[0].Goals)
	}
}

func TestRemove(t *testing.T) {
	s := New()
	first := s.AddReading(testBook("b1"), "7 days", 7, "+185", d(10))
	second := s.AddReading(testBook("b2"), "14 days", 14, "+140", d(5))

	if err := s.Remove(first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entries := s.Entries()
	if len(entries) != 1 || entries[0].ID != second {
		t.Errorf("expected only second entry to remain")
	}

	if err := s.Remove("nope"); err != ErrEntryNotFound {
		t.Errorf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestUpdateAmount(t *testing.T) {
	s := New()
	id := s.AddReading(testBook("b1"), "7 days", 7, "+185", d(10))

	if err := s.UpdateAmount(id, d(25)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.Entries()[0].Amount; !got.Equal(d(25)) {
		t.Errorf("expected amount 25, got %s", got)
	}

	if err := s.UpdateAmount("nope", d(1)); err != ErrEntryNotFound {
		t.Errorf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestTotalWager(t *testing.T) {
	s := New()
	if !s.TotalWager().Equal(decimal.Zero) {
		t.Errorf("expected zero total on empty slip")
	}

	s.AddReading(testBook("b1"), "7 days", 7, "+185", d(10))
	s.AddReading(testBook("b2"), "14 days", 14, "+140", d(7.5))
	if got := s.TotalWager(); !got.Equal(d(17.5)) {
		t.Errorf("expected total 17.5, got %s", got)
	}
}

func TestCombinedParlayOdds_TwoLegs(t *testing.T) {
	// +150 -> 2.5, +120 -> 2.2; product 5.5 converts back to +450.
	s := New()
	s.AddReading(testBook("b1"), "7 days", 7, "+150", d(10))
	s.AddReading(testBook("b2"), "14 days", 14, "+120", d(10))

	combined, err := s.CombinedParlayOdds()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if combined != "+450" {
		t.Errorf("expected +450, got %s", combined)
	}
}

func TestCombinedParlayOdds_ExceedsEveryLeg(t *testing.T) {
	s := New()
	s.AddReading(testBook("b1"), "7 days", 7, "+185", d(10))
	s.AddReading(testBook("b2"), "3 days", 3, "+320", d(10))
	s.AddReading(testBook("b3"), "21 days", 21, "+110", d(10))

	combined, err := s.CombinedParlayOdds()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 2.85 * 4.2 * 2.1 = 25.137 -> +2413
	if combined != "+2413" {
		t.Errorf("expected +2413, got %s", combined)
	}
}

func TestCombinedParlayOdds_TooFewLegs(t *testing.T) {
	s := New()
	if _, err := s.CombinedParlayOdds(); err != ErrTooFewLegs {
		t.Errorf("expected ErrTooFewLegs on empty slip, got %v", err)
	}

	s.AddReading(testBook("b1"), "7 days", 7, "+185", d(10))
	if _, err := s.CombinedParlayOdds(); err != ErrTooFewLegs {
		t.Errorf("expected ErrTooFewLegs with one leg, got %v", err)
	}
}

func TestClearAll(t *testing.T) {
	s := New()
	s.AddReading(testBook("b1"), "7 days", 7, "+185", d(10))
	s.AddReading(testBook("b2"), "14 days", 14, "+140", d(5))

	s.ClearAll()
	if s.Len() != 0 {
		t.Errorf("expected empty slip after ClearAll, got %d entries", s.Len())
	}
	if !s.TotalWager().Equal(decimal.Zero) {
		t.Errorf("expected zero total after ClearAll")
	}
}
