// Package events provides the typed publish/subscribe bus the engine
// emits domain events on. Event types are an explicit enum rather than
// stringly-typed notification names; delivery is synchronous fan-out in
// subscription order, fire-and-forget from the engine's point of view.
package events

import "sync"

// Type identifies a domain event.
type Type string

const (
	WagersPlaced           Type = "wagers_placed"
	DayAdvanced            Type = "day_advanced"
	WagerSettled           Type = "wager_settled"
	ParlayWon              Type = "parlay_won"
	ParlayLost             Type = "parlay_lost"
	SessionCommitted       Type = "session_committed"
	NavigateToActiveWagers Type = "navigate_to_active_wagers"
)

// Event is one published domain event. Fields beyond Type are optional
// and depend on the event.
type Event struct {
	Type     Type   `json:"type"`
	WagerID  string `json:"wager_id,omitempty"`
	ParlayID string `json:"parlay_id,omitempty"`
	BookID   string `json:"book_id,omitempty"`
	Payout   string `json:"payout,omitempty"`
	Pages    int    `json:"pages,omitempty"`
	Day      int    `json:"day,omitempty"`
}

// Bus fans events out to subscribers. Subscriptions live for the bus's
// lifetime; there is no unsubscribe.
type Bus struct {
	mu   sync.RWMutex
	subs []func(Event)
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for all events.
func (b *Bus) Subscribe(fn func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, fn)
}

// Publish delivers an event to every subscriber synchronously.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()

	for _, fn := range subs {
		fn(e)
	}
}
