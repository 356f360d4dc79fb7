// Package wager provides the orchestration engine and HTTP handlers for
// placing wagers, recording reading progress, and settling outcomes.
//
// All monetary values use shopspring/decimal — never float64 for money.
package wager

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pagestake/wager-engine/internal/events"
	"github.com/pagestake/wager-engine/internal/ledger"
	"github.com/pagestake/wager-engine/internal/limits"
	"github.com/pagestake/wager-engine/internal/metrics"
	"github.com/pagestake/wager-engine/internal/model"
	"github.com/pagestake/wager-engine/internal/odds"
	"github.com/pagestake/wager-engine/internal/session"
	"github.com/pagestake/wager-engine/internal/slip"
	"github.com/pagestake/wager-engine/internal/store"
)

var (
	// ErrInsufficientFunds is returned when a placement exceeds the
	// current balance. Reported, not retried; balance stays unchanged.
	ErrInsufficientFunds = errors.New("wager: insufficient funds")

	// ErrEmptySlip is returned when placement is attempted with nothing
	// staged.
	ErrEmptySlip = errors.New("wager: slip is empty")

	// ErrUnknownWager is returned for operations on an id not in the
	// active set.
	ErrUnknownWager = errors.New("wager: unknown wager id")

	// ErrUnknownParlay is returned for operations on an unknown parlay id.
	ErrUnknownParlay = errors.New("wager: unknown parlay id")

	// ErrParlayResolved is returned when marking a parlay that has
	// already settled.
	ErrParlayResolved = errors.New("wager: parlay already resolved")
)

// Engine owns the committed wagers, the virtual balance, and the
// settlement rules. A mutex serializes every public operation so each
// call fully updates balance, ledger, and indices before returning.
type Engine struct {
	mu sync.Mutex

	slip    *slip.Slip
	ledger  *ledger.Ledger
	limiter *limits.StakeLimiter
	store   store.Store
	bus     *events.Bus
	now     func() time.Time

	balance    decimal.Decimal
	reading    map[string]*model.ReadingWager
	engagement map[string]*model.EngagementWager
	parlays    map[string]*model.ParlayGroup
	order      []string // active wager ids in placement order
	completed  []model.CompletedWager
}

// NewEngine creates an engine with the given starting balance. The store
// and bus are optional; pass nil to skip persistence or event emission.
func NewEngine(
	startingBalance decimal.Decimal,
	sl *slip.Slip,
	limiter *limits.StakeLimiter,
	st store.Store,
	bus *events.Bus,
	now func() time.Time,
) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{
		slip:       sl,
		ledger:     ledger.New(),
		limiter:    limiter,
		store:      st,
		bus:        bus,
		now:        now,
		balance:    startingBalance,
		reading:    make(map[string]*model.ReadingWager),
		engagement: make(map[string]*model.EngagementWager),
		parlays:    make(map[string]*model.ParlayGroup),
	}
}

// Slip returns the staging slip.
func (e *Engine) Slip() *slip.Slip { return e.slip }

// Ledger returns the progress ledger.
func (e *Engine) Ledger() *ledger.Ledger { return e.ledger }

// Balance returns the current virtual balance.
func (e *Engine) Balance() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.balance
}

// PlaceSingle commits every slip entry as an independent wager. The full
// slip total is debited up front; on success the slip is cleared.
func (e *Engine) PlaceSingle(ctx context.Context) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entries := e.slip.Entries()
	if len(entries) == 0 {
		return nil, ErrEmptySlip
	}

	total := e.slip.TotalWager()
	if err := e.checkPlacement(total); err != nil {
		return nil, err
	}

	e.balance = e.balance.Sub(total)

	placedAt := e.now()
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, e.materialize(entry, entry.Amount, "", placedAt))
	}

	e.slip.ClearAll()

	slog.Info("single wagers placed",
		"count", len(ids),
		"total", total.String(),
		"balance", e.balance.String(),
	)
	e.publish(events.Event{Type: events.WagersPlaced})
	e.publish(events.Event{Type: events.NavigateToActiveWagers})
	return ids, nil
}

// PlaceParlay commits every slip entry as one parlay group with combined
// odds and a single stake split evenly across the legs. Requires at
// least two staged legs.
func (e *Engine) PlaceParlay(ctx context.Context, amount decimal.Decimal) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entries := e.slip.Entries()
	if len(entries) < 2 {
		return "", slip.ErrTooFewLegs
	}

	combined, err := e.slip.CombinedParlayOdds()
	if err != nil {
		return "", err
	}
	if err := e.checkPlacement(amount); err != nil {
		return "", err
	}

	e.balance = e.balance.Sub(amount)

	parlayID := uuid.New().String()
	placedAt := e.now()
	share := amount.Div(decimal.NewFromInt(int64(len(entries))))

	legIDs := make([]string, 0, len(entries))
	for _, entry := range entries {
		legIDs = append(legIDs, e.materialize(entry, share, parlayID, placedAt))
	}

	e.parlays[parlayID] = &model.ParlayGroup{
		ID:           parlayID,
		LegIDs:       legIDs,
		CombinedOdds: combined,
		Amount:       amount,
		Status:       model.ParlayInProgress,
		CreatedAt:    placedAt,
	}

	e.slip.ClearAll()
	metrics.ParlaysPlacedTotal.Inc()

	slog.Info("parlay placed",
		"parlay_id", parlayID,
		"legs", len(legIDs),
		"combined_odds", combined,
		"amount", amount.String(),
		"balance", e.balance.String(),
	)
	e.publish(events.Event{Type: events.WagersPlaced, ParlayID: parlayID})
	e.publish(events.Event{Type: events.NavigateToActiveWagers})
	return parlayID, nil
}

// checkPlacement runs the pre-debit guards under the engine lock.
func (e *Engine) checkPlacement(stake decimal.Decimal) error {
	if e.limiter != nil {
		if err := e.limiter.CheckStake(stake, e.openExposureLocked()); err != nil {
			metrics.PlacementRejections.WithLabelValues("stake_limit").Inc()
			return err
		}
	}
	if e.balance.LessThan(stake) {
		metrics.PlacementRejections.WithLabelValues("insufficient_funds").Inc()
		return ErrInsufficientFunds
	}
	return nil
}

// materialize converts one slip entry into a committed wager. Caller
// holds the lock.
func (e *Engine) materialize(entry slip.Entry, amount decimal.Decimal, parlayID string, placedAt time.Time) string {
	id := uuid.New().String()

	switch entry.Kind {
	case model.KindReading:
		pagesPerDay := int(math.Ceil(float64(entry.Book.PageSpan()) / float64(entry.Days)))
		e.reading[id] = &model.ReadingWager{
			ID:                 id,
			Book:               entry.Book,
			Timeframe:          entry.Timeframe,
			Odds:               entry.Odds,
			Amount:             amount,
			PagesPerDay:        pagesPerDay,
			TotalDays:          entry.Days,
			CurrentDay:         1,
			ParlayID:           parlayID,
			PlacedAt:           placedAt,
			CommitmentDeadline: placedAt.Add(time.Duration(entry.Days) * 24 * time.Hour),
		}
		e.ledger.Seed(id, entry.Book.ReadingStartPage)
		metrics.WagersPlacedTotal.WithLabelValues(string(model.KindReading)).Inc()

	case model.KindEngagement:
		goals := make([]model.Goal, len(entry.Goals))
		copy(goals, entry.Goals)
		e.engagement[id] = &model.EngagementWager{
			ID:       id,
			Book:     entry.Book,
			Odds:     entry.Odds,
			Amount:   amount,
			Goals:    goals,
			ParlayID: parlayID,
			PlacedAt: placedAt,
		}
		metrics.WagersPlacedTotal.WithLabelValues(string(model.KindEngagement)).Inc()
	}

	e.order = append(e.order, id)
	metrics.ActiveWagers.Set(float64(len(e.reading) + len(e.engagement)))
	return id
}

// RecordProgress applies a (startPage, endPage) reading interval to a
// wager, re-evaluates its parlay if it has one, and runs the completion
// sweep. The engine does not deduplicate double-submissions; the caller
// guarantees a session commits at most once.
func (e *Engine) RecordProgress(ctx context.Context, wagerID string, startPage, endPage int) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	w, ok := e.reading[wagerID]
	if !ok {
		return 0, ErrUnknownWager
	}

	pagesRead, err := e.ledger.Record(wagerID, w.Book, startPage, endPage)
	if err != nil {
		return 0, err
	}
	metrics.PagesReadTotal.Add(float64(pagesRead))

	if w.ParlayID != "" {
		e.evaluateParlayLocked(ctx, w.ParlayID)
	}
	e.sweepLocked(ctx)
	return pagesRead, nil
}

// CommitSession records a finalized session tuple: progress into the
// ledger plus best-effort session and journal appends. Persistence
// failures never roll back the in-memory update.
func (e *Engine) CommitSession(ctx context.Context, res session.Result) (int, error) {
	pagesRead, err := e.RecordProgress(ctx, res.WagerID, res.StartPage, res.EndPage)
	if err != nil {
		return 0, err
	}
	metrics.SessionsCommittedTotal.Inc()

	if e.store != nil {
		sess := &model.ReadingSession{
			ID:        uuid.New().String(),
			BookID:    res.BookID,
			WagerID:   res.WagerID,
			StartPage: res.StartPage,
			EndPage:   res.EndPage,
			Minutes:   res.Duration.Minutes(),
			Note:      res.Note,
			CreatedAt: e.now(),
		}
		if err := e.store.AppendReadingSession(ctx, sess); err != nil {
			slog.Warn("session persistence failed", "wager_id", res.WagerID, "err", err)
		}
		if res.Note != "" {
			entry := &model.JournalEntry{
				ID:        uuid.New().String(),
				BookID:    res.BookID,
				Text:      res.Note,
				Extra:     "session",
				CreatedAt: e.now(),
			}
			if err := e.store.AppendJournalEntry(ctx, entry); err != nil {
				slog.Warn("journal persistence failed", "book_id", res.BookID, "err", err)
			}
		}
	}

	e.publish(events.Event{
		Type:    events.SessionCommitted,
		WagerID: res.WagerID,
		BookID:  res.BookID,
		Pages:   pagesRead,
	})
	return pagesRead, nil
}

// AdvanceDay moves a wager to its next day once today's pace target is
// reached. When the precondition fails this is a silent no-op; the
// returned bool reports whether the day advanced.
func (e *Engine) AdvanceDay(wagerID string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	w, ok := e.reading[wagerID]
	if !ok {
		return false, ErrUnknownWager
	}
	rec, err := e.ledger.Get(wagerID)
	if err != nil {
		return false, err
	}
	if !ledger.DayAdvanceEarned(*w, rec) {
		return false, nil
	}

	w.CurrentDay++
	// Seed exists whenever the wager does, so the reset cannot miss.
	_ = e.ledger.ResetDaily(wagerID)

	slog.Info("day advanced", "wager_id", wagerID, "day", w.CurrentDay)
	e.publish(events.Event{Type: events.DayAdvanced, WagerID: wagerID, Day: w.CurrentDay})
	return true, nil
}

// DeriveStatus returns the pacing status of an active reading wager.
func (e *Engine) DeriveStatus(wagerID string) (model.WagerStatus, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	w, ok := e.reading[wagerID]
	if !ok {
		return "", ErrUnknownWager
	}
	rec, err := e.ledger.Get(wagerID)
	if err != nil {
		return "", err
	}
	return ledger.Status(*w, rec, e.now()), nil
}

// UpdateEngagementProgress increments one goal's counter. A goal that
// already reached its target is left unchanged. Completion settles the
// wager or re-evaluates its parlay.
func (e *Engine) UpdateEngagementProgress(ctx context.Context, wagerID, goalID string, increment int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	w, ok := e.engagement[wagerID]
	if !ok {
		return ErrUnknownWager
	}

	for i := range w.Goals {
		if w.Goals[i].ID != goalID {
			continue
		}
		if w.Goals[i].Complete() {
			return nil
		}
		w.Goals[i].CurrentCount += increment
		break
	}

	if w.ParlayID != "" {
		e.evaluateParlayLocked(ctx, w.ParlayID)
		return nil
	}
	if w.Complete() {
		e.settleEngagementLocked(ctx, w, true, true)
	}
	return nil
}

// MarkParlayLost resolves a parlay as lost. This is always an explicit
// external decision (deadline elapsed, administrative); the engine never
// infers it from progress.
func (e *Engine) MarkParlayLost(ctx context.Context, parlayID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.parlays[parlayID]
	if !ok {
		return ErrUnknownParlay
	}
	if p.Status != model.ParlayInProgress {
		return ErrParlayResolved
	}

	p.Status = model.ParlayLost
	for _, legID := range p.LegIDs {
		if w, ok := e.reading[legID]; ok {
			e.settleReadingLocked(ctx, w, false, false)
		} else if w, ok := e.engagement[legID]; ok {
			e.settleEngagementLocked(ctx, w, false, false)
		}
	}

	slog.Info("parlay lost", "parlay_id", parlayID)
	e.publish(events.Event{Type: events.ParlayLost, ParlayID: parlayID})
	return nil
}

// --- Settlement ---

// sweepLocked settles every non-parlay reading wager whose page position
// reached the end of its reading range. Caller holds the lock.
func (e *Engine) sweepLocked(ctx context.Context) {
	for _, id := range append([]string(nil), e.order...) {
		w, ok := e.reading[id]
		if !ok || w.ParlayID != "" {
			continue
		}
		rec, err := e.ledger.Get(id)
		if err != nil {
			continue
		}
		if rec.CurrentPagePosition >= w.Book.ReadingEndPage {
			e.settleReadingLocked(ctx, w, true, true)
		}
	}
}

// evaluateParlayLocked transitions a parlay to won exactly when every leg
// is independently complete, crediting the full parlay payout once.
// Caller holds the lock.
func (e *Engine) evaluateParlayLocked(ctx context.Context, parlayID string) {
	p, ok := e.parlays[parlayID]
	if !ok || p.Status != model.ParlayInProgress {
		return
	}

	for _, legID := range p.LegIDs {
		if !e.legCompleteLocked(legID) {
			return
		}
	}

	payout, err := odds.Payout(p.Amount, p.CombinedOdds)
	if err != nil {
		slog.Error("parlay payout computation failed", "parlay_id", parlayID, "err", err)
		return
	}

	p.Status = model.ParlayWon
	e.balance = e.balance.Add(payout)
	metrics.ParlaysWonTotal.Inc()

	for _, legID := range p.LegIDs {
		if w, ok := e.reading[legID]; ok {
			e.settleReadingLocked(ctx, w, true, false)
		} else if w, ok := e.engagement[legID]; ok {
			e.settleEngagementLocked(ctx, w, true, false)
		}
	}

	slog.Info("parlay won",
		"parlay_id", parlayID,
		"payout", payout.String(),
		"balance", e.balance.String(),
	)
	e.publish(events.Event{Type: events.ParlayWon, ParlayID: parlayID, Payout: payout.String()})
}

// legCompleteLocked evaluates one leg's completion predicate.
func (e *Engine) legCompleteLocked(legID string) bool {
	if w, ok := e.reading[legID]; ok {
		rec, err := e.ledger.Get(legID)
		return err == nil && rec.CurrentPagePosition >= w.Book.ReadingEndPage
	}
	if w, ok := e.engagement[legID]; ok {
		return w.Complete()
	}
	// Already settled legs (parlay lost midway) count as incomplete.
	return false
}

// settleReadingLocked finalizes one reading wager. Parlay legs never pay
// out individually — payout only flows when payIndividually is set.
func (e *Engine) settleReadingLocked(ctx context.Context, w *model.ReadingWager, success, payIndividually bool) {
	payout := decimal.Zero
	if success && payIndividually {
		p, err := odds.Payout(w.Amount, w.Odds)
		if err != nil {
			slog.Error("payout computation failed", "wager_id", w.ID, "err", err)
		} else {
			payout = p
			e.balance = e.balance.Add(payout)
		}
	}

	rec, _ := e.ledger.Get(w.ID)
	snapshot := model.CompletedWager{
		ID:             uuid.New().String(),
		WagerID:        w.ID,
		BookID:         w.Book.ID,
		BookTitle:      w.Book.Title,
		Kind:           model.KindReading,
		Odds:           w.Odds,
		Amount:         w.Amount,
		TotalPagesRead: rec.TotalPagesRead,
		Success:        success,
		Payout:         payout,
		CompletedAt:    e.now(),
	}

	e.removeActiveLocked(w.ID)
	e.ledger.Delete(w.ID)
	e.appendCompletedLocked(ctx, snapshot)

	slog.Info("reading wager settled",
		"wager_id", w.ID,
		"book", w.Book.Title,
		"success", success,
		"payout", payout.String(),
		"balance", e.balance.String(),
	)
	e.publish(events.Event{Type: events.WagerSettled, WagerID: w.ID, Payout: payout.String()})
}

// settleEngagementLocked finalizes one engagement wager.
func (e *Engine) settleEngagementLocked(ctx context.Context, w *model.EngagementWager, success, payIndividually bool) {
	payout := decimal.Zero
	if success && payIndividually {
		p, err := odds.Payout(w.Amount, w.Odds)
		if err != nil {
			slog.Error("payout computation failed", "wager_id", w.ID, "err", err)
		} else {
			payout = p
			e.balance = e.balance.Add(payout)
		}
	}

	snapshot := model.CompletedWager{
		ID:          uuid.New().String(),
		WagerID:     w.ID,
		BookID:      w.Book.ID,
		BookTitle:   w.Book.Title,
		Kind:        model.KindEngagement,
		Odds:        w.Odds,
		Amount:      w.Amount,
		Success:     success,
		Payout:      payout,
		CompletedAt: e.now(),
	}

	e.removeActiveLocked(w.ID)
	e.appendCompletedLocked(ctx, snapshot)

	slog.Info("engagement wager settled",
		"wager_id", w.ID,
		"book", w.Book.Title,
		"success", success,
		"payout", payout.String(),
	)
	e.publish(events.Event{Type: events.WagerSettled, WagerID: w.ID, Payout: payout.String()})
}

func (e *Engine) removeActiveLocked(id string) {
	delete(e.reading, id)
	delete(e.engagement, id)
	for i, oid := range e.order {
		if oid == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	metrics.ActiveWagers.Set(float64(len(e.reading) + len(e.engagement)))
}

// appendCompletedLocked records the settlement snapshot in memory and
// best-effort in the store. Persistence failures are logged and swallowed.
func (e *Engine) appendCompletedLocked(ctx context.Context, snapshot model.CompletedWager) {
	e.completed = append(e.completed, snapshot)
	if snapshot.Success {
		metrics.WagersSettledTotal.WithLabelValues("won").Inc()
	} else {
		metrics.WagersSettledTotal.WithLabelValues("lost").Inc()
	}

	if e.store != nil {
		if err := e.store.AppendCompletedWager(ctx, &snapshot); err != nil {
			slog.Warn("completed wager persistence failed", "wager_id", snapshot.WagerID, "err", err)
		}
	}
}

// --- Queries ---

// ActiveReadingWagers returns copies of the active reading wagers in
// placement order.
func (e *Engine) ActiveReadingWagers() []model.ReadingWager {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]model.ReadingWager, 0, len(e.reading))
	for _, id := range e.order {
		if w, ok := e.reading[id]; ok {
			out = append(out, *w)
		}
	}
	return out
}

// ActiveEngagementWagers returns copies of the active engagement wagers
// in placement order.
func (e *Engine) ActiveEngagementWagers() []model.EngagementWager {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]model.EngagementWager, 0, len(e.engagement))
	for _, id := range e.order {
		if w, ok := e.engagement[id]; ok {
			out = append(out, *w)
		}
	}
	return out
}

// GetReadingWager returns a copy of one active reading wager.
func (e *Engine) GetReadingWager(id string) (model.ReadingWager, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	w, ok := e.reading[id]
	if !ok {
		return model.ReadingWager{}, false
	}
	return *w, true
}

// Parlays returns copies of all parlay groups.
func (e *Engine) Parlays() []model.ParlayGroup {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]model.ParlayGroup, 0, len(e.parlays))
	for _, p := range e.parlays {
		cp := *p
		cp.LegIDs = append([]string(nil), p.LegIDs...)
		out = append(out, cp)
	}
	return out
}

// GetParlay returns a copy of one parlay group.
func (e *Engine) GetParlay(id string) (model.ParlayGroup, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.parlays[id]
	if !ok {
		return model.ParlayGroup{}, false
	}
	cp := *p
	cp.LegIDs = append([]string(nil), p.LegIDs...)
	return cp, true
}

// Completed returns the settlement log, newest last.
func (e *Engine) Completed() []model.CompletedWager {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]model.CompletedWager, len(e.completed))
	copy(out, e.completed)
	return out
}

// openExposureLocked sums stakes across active non-parlay wagers and
// in-progress parlays. Caller holds the lock.
func (e *Engine) openExposureLocked() decimal.Decimal {
	total := decimal.Zero
	for _, w := range e.reading {
		if w.ParlayID == "" {
			total = total.Add(w.Amount)
		}
	}
	for _, w := range e.engagement {
		if w.ParlayID == "" {
			total = total.Add(w.Amount)
		}
	}
	for _, p := range e.parlays {
		if p.Status == model.ParlayInProgress {
			total = total.Add(p.Amount)
		}
	}
	return total
}

func (e *Engine) publish(ev events.Event) {
	if e.bus != nil {
		e.bus.Publish(ev)
	}
}
