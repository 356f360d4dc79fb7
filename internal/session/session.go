// Package session implements the reading-session state machine. One
// session runs at a time: start → confirm starting page → active (timed)
// → stop → confirm ending page → annotate → commit.
//
// The wall-clock start timestamp is fixed on entry to Active; the elapsed
// display is a derived value recomputed from that fixed timestamp, never
// a source of truth.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/pagestake/wager-engine/internal/model"
)

// State is one stage of the session lifecycle.
type State string

const (
	Idle                      State = "idle"
	AwaitingStartConfirmation State = "awaiting_start_confirmation"
	AwaitingStartPage         State = "awaiting_start_page"
	Active                    State = "active"
	AwaitingEndPage           State = "awaiting_end_page"
	AwaitingComment           State = "awaiting_comment"
)

var (
	// ErrWrongState is returned when an operation does not apply to the
	// machine's current state.
	ErrWrongState = errors.New("session: operation not valid in current state")

	// ErrSessionInProgress is returned when Begin is called while a
	// session is already in flight.
	ErrSessionInProgress = errors.New("session: a session is already in progress")
)

// ValidationError reports out-of-range or inconsistent page input. The
// machine stays in its current state; the caller surfaces the message.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("session: %s: %s", e.Field, e.Message)
}

// Result is the finalized session tuple handed to the wager engine on
// commit.
type Result struct {
	WagerID   string        `json:"wager_id"`
	BookID    string        `json:"book_id"`
	StartPage int           `json:"start_page"`
	EndPage   int           `json:"end_page"`
	Duration  time.Duration `json:"duration"`
	Note      string        `json:"note"`
}

// Machine governs one reading session at a time. Not safe for concurrent
// use; the engine serializes access.
type Machine struct {
	now func() time.Time

	state     State
	wagerID   string
	book      model.Book
	proposed  int
	startPage int
	endPage   int
	startedAt time.Time
}

// NewMachine creates an idle machine. The clock defaults to time.Now.
func NewMachine(now func() time.Time) *Machine {
	if now == nil {
		now = time.Now
	}
	return &Machine{now: now, state: Idle}
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// WagerID returns the wager this session is recording against, or "" when idle.
func (m *Machine) WagerID() string { return m.wagerID }

// ProposedStartPage returns the default next page offered to the reader.
func (m *Machine) ProposedStartPage() int { return m.proposed }

// StartPage returns the confirmed starting page of the active session.
func (m *Machine) StartPage() int { return m.startPage }

// Begin starts a session for a wager. A first-ever session (last-read
// page below the reading range) asks for the start page outright; every
// later session proposes lastReadPage + 1 for confirmation.
func (m *Machine) Begin(wagerID string, book model.Book, lastReadPage int) (State, error) {
	if m.state != Idle {
		return m.state, ErrSessionInProgress
	}

	m.wagerID = wagerID
	m.book = book

	if lastReadPage < book.ReadingStartPage {
		m.proposed = book.ReadingStartPage
		m.state = AwaitingStartPage
	} else {
		proposed := lastReadPage + 1
		if proposed > book.ReadingEndPage {
			proposed = book.ReadingEndPage
		}
		m.proposed = proposed
		m.state = AwaitingStartConfirmation
	}
	return m.state, nil
}

// ConfirmStartPage fixes the starting page and enters Active, pinning the
// session's start timestamp.
func (m *Machine) ConfirmStartPage(page int) error {
	if m.state != AwaitingStartConfirmation && m.state != AwaitingStartPage {
		return ErrWrongState
	}
	if page < m.book.ReadingStartPage || page > m.book.ReadingEndPage {
		return &ValidationError{
			Field: "start_page",
			Message: fmt.Sprintf("page %d outside reading range [%d, %d]",
				page, m.book.ReadingStartPage, m.book.ReadingEndPage),
		}
	}

	m.startPage = page
	m.startedAt = m.now()
	m.state = Active
	return nil
}

// UseProposedStart is the "use default" quick-action for the proposed page.
func (m *Machine) UseProposedStart() error {
	return m.ConfirmStartPage(m.proposed)
}

// Elapsed returns the wall-clock time since the session went Active.
func (m *Machine) Elapsed() time.Duration {
	if m.state != Active && m.state != AwaitingEndPage && m.state != AwaitingComment {
		return 0
	}
	return m.now().Sub(m.startedAt)
}

// ElapsedDisplay renders the elapsed time as mm:ss, or hh:mm:ss past one
// hour. This derived string is the only externally observable mutation
// while Active.
func (m *Machine) ElapsedDisplay() string {
	return FormatElapsed(m.Elapsed())
}

// FormatElapsed renders a duration as mm:ss, or hh:mm:ss past one hour.
func FormatElapsed(d time.Duration) string {
	total := int(d.Seconds())
	if total < 0 {
		total = 0
	}
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// Stop halts the timer and asks for the ending page, proposing the
// starting page as the default so a no-progress session stays valid.
func (m *Machine) Stop() error {
	if m.state != Active {
		return ErrWrongState
	}
	m.endPage = m.startPage
	m.state = AwaitingEndPage
	return nil
}

// ProposedEndPage returns the default ending page after Stop.
func (m *Machine) ProposedEndPage() int { return m.endPage }

// ConfirmEndPage fixes the ending page and moves to annotation. The end
// page is constrained to [startPage, readingEndPage]; an end before the
// start is reported, never coerced.
func (m *Machine) ConfirmEndPage(page int) error {
	if m.state != AwaitingEndPage {
		return ErrWrongState
	}
	if page < m.startPage {
		return &ValidationError{
			Field:   "end_page",
			Message: fmt.Sprintf("end page %d before start page %d", page, m.startPage),
		}
	}
	if page > m.book.ReadingEndPage {
		return &ValidationError{
			Field:   "end_page",
			Message: fmt.Sprintf("page %d beyond reading range end %d", page, m.book.ReadingEndPage),
		}
	}

	m.endPage = page
	m.state = AwaitingComment
	return nil
}

// Commit finalizes the session tuple and resets the machine to Idle.
func (m *Machine) Commit(note string) (Result, error) {
	if m.state != AwaitingComment {
		return Result{}, ErrWrongState
	}

	result := Result{
		WagerID:   m.wagerID,
		BookID:    m.book.ID,
		StartPage: m.startPage,
		EndPage:   m.endPage,
		Duration:  m.now().Sub(m.startedAt),
		Note:      note,
	}
	m.reset()
	return result, nil
}

// Cancel discards the in-flight session from any state.
func (m *Machine) Cancel() {
	m.reset()
}

func (m *Machine) reset() {
	m.state = Idle
	m.wagerID = ""
	m.book = model.Book{}
	m.proposed = 0
	m.startPage = 0
	m.endPage = 0
	m.startedAt = time.Time{}
}
