// Package odds computes American-format odds strings for reading
// commitments from book difficulty, length, and timeframe.
//
// All three entry points are pure functions of their inputs. The Engine
// wraps them with an optional memoization cache that never changes the
// observable result.
//
// Payout math on placed wagers uses shopspring/decimal — never float64
// for money. The odds computation itself works on page rates and integer
// odds values only.
package odds

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/pagestake/wager-engine/internal/model"
)

var (
	// ErrInvalidDays is returned when a timeframe has no positive day count.
	ErrInvalidDays = errors.New("odds: timeframe days must be positive")

	// ErrMalformedOdds is returned when an odds string is not "+N".
	ErrMalformedOdds = errors.New("odds: malformed American odds string")
)

// Clamp bounds for each goal shape.
const (
	pageOddsMin = 110
	pageOddsMax = 999

	chapterOddsMin = 105
	chapterOddsMax = 500

	engagementOddsMin = 105
	engagementOddsMax = 400
)

// Pages computes odds for reading a book's effective pages within the
// given number of days.
//
// The daily page rate is bucketed by timeframe length: short sprints are
// divided less aggressively (and capped higher) than long hauls, so a
// 300-page book in 3 days prices far above the same book in 30.
func Pages(book model.Book, days int) (string, error) {
	if days <= 0 {
		return "", ErrInvalidDays
	}

	rate := float64(book.EffectiveTotalPages) / float64(days)

	var factor float64
	switch {
	case days <= 3:
		factor = math.Min(rate/15, 10)
	case days <= 7:
		factor = math.Min(rate/20, 8)
	case days <= 21:
		factor = math.Min(rate/12, 4)
	default:
		factor = math.Min(rate/8, 2)
	}

	value := 100 + int(math.Floor(factor*book.Difficulty.Multiplier()*40))
	return Format(clamp(value, pageOddsMin, pageOddsMax)), nil
}

// Chapters computes odds for finishing a book's effective chapters within
// the given number of days. Base odds come from chapters-per-day bands,
// then scale with the book multiplier. A book with zero effective
// chapters prices at the fixed floor.
func Chapters(book model.Book, days int) (string, error) {
	if days <= 0 {
		return "", ErrInvalidDays
	}
	if book.EffectiveTotalChapters <= 0 {
		return Format(chapterOddsMin), nil
	}

	perDay := float64(book.EffectiveTotalChapters) / float64(days)

	var base int
	switch {
	case perDay < 1:
		base = 110
	case perDay < 2:
		base = 130
	case perDay < 3:
		base = 160
	default:
		base = 200
	}

	adjusted := float64(base) + (book.Difficulty.Multiplier()-1)*float64(base-100)
	return Format(clamp(int(adjusted), chapterOddsMin, chapterOddsMax)), nil
}

// engagementFactors maps target-count buckets to difficulty factors.
var engagementFactors = map[string]float64{
	"1-3": 0.5,
	"4-7": 1.0,
	"8+":  2.0,
}

// Engagement computes odds for an engagement goal bucket ("1-3", "4-7",
// "8+"). Unknown buckets price at factor 1.0.
func Engagement(book model.Book, bucket string) string {
	factor, ok := engagementFactors[bucket]
	if !ok {
		factor = 1.0
	}
	value := 100 + int(math.Floor(factor*book.Difficulty.Multiplier()*30))
	return Format(clamp(value, engagementOddsMin, engagementOddsMax))
}

// Format renders an integer odds value in American format.
func Format(value int) string {
	return fmt.Sprintf("+%d", value)
}

// Parse extracts the integer value from a "+N" odds string.
func Parse(odds string) (int, error) {
	if !strings.HasPrefix(odds, "+") {
		return 0, fmt.Errorf("%w: %q", ErrMalformedOdds, odds)
	}
	value, err := strconv.Atoi(odds[1:])
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedOdds, odds)
	}
	return value, nil
}

// DecimalMultiplier converts "+N" odds to the decimal payout multiplier
// 1 + N/100. A winning wager pays amount × multiplier.
func DecimalMultiplier(americanOdds string) (decimal.Decimal, error) {
	value, err := Parse(americanOdds)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromInt(1).
		Add(decimal.NewFromInt(int64(value)).Div(decimal.NewFromInt(100))), nil
}

// Payout computes the full payout for a winning wager at the given odds.
func Payout(amount decimal.Decimal, americanOdds string) (decimal.Decimal, error) {
	mult, err := DecimalMultiplier(americanOdds)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return amount.Mul(mult), nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// --- Memoizing engine ---

type cacheKey struct {
	kind   string
	bookID string
	param  string
}

// Engine memoizes odds computations per (kind, book, parameter). The cache
// is a pure performance optimization: entries are only ever the result of
// the corresponding pure function.
type Engine struct {
	mu    sync.RWMutex
	cache map[cacheKey]string
}

// NewEngine creates an odds engine with an empty cache.
func NewEngine() *Engine {
	return &Engine{cache: make(map[cacheKey]string)}
}

// Pages returns page-timeframe odds, memoized per book and day count.
func (e *Engine) Pages(book model.Book, days int) (string, error) {
	return e.memo("pages", book.ID, strconv.Itoa(days), func() (string, error) {
		return Pages(book, days)
	})
}

// Chapters returns chapter-timeframe odds, memoized per book and day count.
func (e *Engine) Chapters(book model.Book, days int) (string, error) {
	return e.memo("chapters", book.ID, strconv.Itoa(days), func() (string, error) {
		return Chapters(book, days)
	})
}

// Engagement returns engagement-bucket odds, memoized per book and bucket.
func (e *Engine) Engagement(book model.Book, bucket string) string {
	result, _ := e.memo("engagement", book.ID, bucket, func() (string, error) {
		return Engagement(book, bucket), nil
	})
	return result
}

// InvalidateBook drops all cached entries for one book.
func (e *Engine) InvalidateBook(bookID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for k := range e.cache {
		if k.bookID == bookID {
			delete(e.cache, k)
		}
	}
}

// InvalidateAll drops the entire cache.
func (e *Engine) InvalidateAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = make(map[cacheKey]string)
}

func (e *Engine) memo(kind, bookID, param string, compute func() (string, error)) (string, error) {
	key := cacheKey{kind: kind, bookID: bookID, param: param}

	e.mu.RLock()
	cached, ok := e.cache[key]
	e.mu.RUnlock()
	if ok {
		return cached, nil
	}

	result, err := compute()
	if err != nil {
		return "", err
	}

	e.mu.Lock()
	e.cache[key] = result
	e.mu.Unlock()
	return result, nil
}
