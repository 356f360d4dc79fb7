// Package limits enforces stake limits on wager placement: a cap on any
// single stake and a cap on aggregate exposure across open wagers. A
// reader stacking parlays across ten books has correlated risk against
// one balance; the aggregate cap bounds it.
package limits

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrStakeLimitExceeded is returned when a single stake exceeds the
	// per-wager maximum.
	ErrStakeLimitExceeded = errors.New("limits: per-wager stake limit exceeded")

	// ErrExposureLimitExceeded is returned when a placement would push
	// total open exposure beyond the aggregate maximum.
	ErrExposureLimitExceeded = errors.New("limits: aggregate open exposure limit exceeded")
)

// StakeLimiter validates stakes before the engine debits the balance.
// A zero limit disables that check.
type StakeLimiter struct {
	// MaxPerWager is the maximum stake on any single wager or parlay.
	MaxPerWager decimal.Decimal

	// MaxOpenExposure is the maximum summed stake across all active
	// wagers and parlays.
	MaxOpenExposure decimal.Decimal
}

// NewStakeLimiter creates a limiter with the given caps.
func NewStakeLimiter(maxPerWager, maxOpenExposure decimal.Decimal) *StakeLimiter {
	return &StakeLimiter{
		MaxPerWager:     maxPerWager,
		MaxOpenExposure: maxOpenExposure,
	}
}

// CheckStake validates one placement.
//
// Parameters:
//   - stake: total amount about to be debited
//   - openExposure: summed stakes across currently active wagers/parlays
//
// Returns nil if the placement is within limits.
func (l *StakeLimiter) CheckStake(stake, openExposure decimal.Decimal) error {
	if l.MaxPerWager.IsPositive() && stake.GreaterThan(l.MaxPerWager) {
		return ErrStakeLimitExceeded
	}
	if l.MaxOpenExposure.IsPositive() && openExposure.Add(stake).GreaterThan(l.MaxOpenExposure) {
		return ErrExposureLimitExceeded
	}
	return nil
}
