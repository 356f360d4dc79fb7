package wager_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/pagestake/wager-engine/internal/bookshelf"
	"github.com/pagestake/wager-engine/internal/events"
	"github.com/pagestake/wager-engine/internal/model"
	"github.com/pagestake/wager-engine/internal/odds"
	"github.com/pagestake/wager-engine/internal/session"
	"github.com/pagestake/wager-engine/internal/slip"
	"github.com/pagestake/wager-engine/internal/store"
	"github.com/pagestake/wager-engine/internal/wager"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

type testEnv struct {
	router *chi.Mux
	store  *store.MemoryStore
	engine *wager.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st := store.NewMemoryStore()
	now := func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	engine := wager.NewEngine(d(100), slip.New(), nil, st, events.NewBus(), now)
	svc := wager.NewService(engine, odds.NewEngine(), bookshelf.NewMemoryShelf(), st, session.NewMachine(nil))

	router := chi.NewRouter()
	svc.Routes(router)
	return &testEnv{router: router, store: st, engine: engine}
}

// do runs one request against the router, JSON-encoding a non-nil body.
func (env *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

// addBook creates a 300-page medium book and returns it.
func (env *testEnv) addBook(t *testing.T, title string) model.Book {
	t.Helper()

	rec := env.do(t, http.MethodPost, "/books", map[string]any{
		"title":       title,
		"total_pages": 300,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add book: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	return decode[model.Book](t, rec)
}

// stageSelection stages one selection and returns the response.
func (env *testEnv) stageSelection(t *testing.T, bookID, spec string, amount float64) wager.AddSelectionResponse {
	t.Helper()

	rec := env.do(t, http.MethodPost, "/slip/selections", map[string]any{
		"book_id": bookID,
		"spec":    spec,
		"amount":  amount,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("stage selection: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	return decode[wager.AddSelectionResponse](t, rec)
}

func TestAddBook_AppliesDefaults(t *testing.T) {
	env := newTestEnv(t)
	book := env.addBook(t, "The Test Book")

	if book.ID == "" {
		t.Errorf("expected generated book id")
	}
	if book.EffectiveTotalPages != 300 {
		t.Errorf("expected effective pages defaulted to 300, got %d", book.EffectiveTotalPages)
	}
	if book.ReadingStartPage != 1 || book.ReadingEndPage != 300 {
		t.Errorf("expected reading range [1, 300], got [%d, %d]",
			book.ReadingStartPage, book.ReadingEndPage)
	}
	if book.Difficulty != model.DifficultyMedium {
		t.Errorf("expected medium difficulty default, got %s", book.Difficulty)
	}
}

func TestAddBook_Validation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/books", map[string]any{"total_pages": 300})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing title, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/books", map[string]any{"title": "x"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing pages, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/books", map[string]any{
		"title": "x", "total_pages": 300, "reading_start_page": 200, "reading_end_page": 100,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for inverted reading range, got %d", rec.Code)
	}
}

func TestAddSelection_PagesOdds(t *testing.T) {
	env := newTestEnv(t)
	book := env.addBook(t, "The Test Book")

	resp := env.stageSelection(t, book.ID, "PAGES:7", 10)
	if resp.Odds != "+185" {
		t.Errorf("expected odds +185 for 300 pages over 7 days, got %s", resp.Odds)
	}
	if !resp.Amount.Equal(d(10)) {
		t.Errorf("expected amount 10, got %s", resp.Amount)
	}
}

func TestAddSelection_ClampsAmountToBalance(t *testing.T) {
	env := newTestEnv(t)
	book := env.addBook(t, "The Test Book")

	resp := env.stageSelection(t, book.ID, "PAGES:7", 500)
	if !resp.Amount.Equal(d(100)) {
		t.Errorf("expected amount clamped to balance 100, got %s", resp.Amount)
	}

	rec := env.do(t, http.MethodPost, "/slip/selections", map[string]any{
		"book_id": book.ID, "spec": "PAGES:7", "amount": -5,
	})
	clamped := decode[wager.AddSelectionResponse](t, rec)
	if !clamped.Amount.Equal(decimal.Zero) {
		t.Errorf("expected negative amount clamped to zero, got %s", clamped.Amount)
	}
}

func TestAddSelection_Failures(t *testing.T) {
	env := newTestEnv(t)
	book := env.addBook(t, "The Test Book")

	rec := env.do(t, http.MethodPost, "/slip/selections", map[string]any{
		"book_id": book.ID, "spec": "BOGUS", "amount": 10,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed spec, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/slip/selections", map[string]any{
		"book_id": "nope", "spec": "PAGES:7", "amount": 10,
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown book, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/slip/selections", map[string]any{
		"book_id": book.ID, "spec": "ENGAGE:4-7", "amount": 10,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for engagement selection without goals, got %d", rec.Code)
	}
}

func TestSlipLifecycle(t *testing.T) {
	env := newTestEnv(t)
	book := env.addBook(t, "The Test Book")

	first := env.stageSelection(t, book.ID, "PAGES:7", 10)
	env.stageSelection(t, book.ID, "PAGES:14", 10)

	rec := env.do(t, http.MethodGet, "/slip", nil)
	slipResp := decode[wager.SlipResponse](t, rec)
	if len(slipResp.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(slipResp.Entries))
	}
	if !slipResp.TotalWager.Equal(d(20)) {
		t.Errorf("expected total 20, got %s", slipResp.TotalWager)
	}
	if slipResp.CombinedOdds == "" {
		t.Errorf("expected combined odds with two legs")
	}

	rec = env.do(t, http.MethodPut, "/slip/"+first.EntryID+"/amount", map[string]any{"amount": 25})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 updating amount, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodDelete, "/slip/"+first.EntryID, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204 removing entry, got %d", rec.Code)
	}
	rec = env.do(t, http.MethodDelete, "/slip/"+first.EntryID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 removing missing entry, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodDelete, "/slip", nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204 clearing slip, got %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/slip", nil)
	if got := decode[wager.SlipResponse](t, rec); len(got.Entries) != 0 {
		t.Errorf("expected empty slip, got %d entries", len(got.Entries))
	}
}

func TestPlaceSingle_FullFlow(t *testing.T) {
	env := newTestEnv(t)
	book := env.addBook(t, "The Test Book")
	env.stageSelection(t, book.ID, "PAGES:7", 10)

	rec := env.do(t, http.MethodPost, "/wagers/single", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	placed := decode[struct {
		WagerIDs []string        `json:"wager_ids"`
		Balance  decimal.Decimal `json:"balance"`
	}](t, rec)
	if len(placed.WagerIDs) != 1 {
		t.Fatalf("expected 1 wager id, got %d", len(placed.WagerIDs))
	}
	if !placed.Balance.Equal(d(90)) {
		t.Errorf("expected balance 90, got %s", placed.Balance)
	}
	wagerID := placed.WagerIDs[0]

	rec = env.do(t, http.MethodGet, "/wagers", nil)
	listed := decode[wager.ListWagersResponse](t, rec)
	if len(listed.Reading) != 1 || listed.Reading[0].ID != wagerID {
		t.Fatalf("expected the placed wager in the active list")
	}

	// Status after partial progress.
	rec = env.do(t, http.MethodPost, "/wagers/"+wagerID+"/progress",
		map[string]any{"start_page": 1, "end_page": 100})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 recording progress, got %d", rec.Code)
	}
	progress := decode[map[string]int](t, rec)
	if progress["pages_read"] != 100 {
		t.Errorf("expected 100 pages read, got %d", progress["pages_read"])
	}

	rec = env.do(t, http.MethodGet, "/wagers/"+wagerID+"/status", nil)
	status := decode[wager.StatusResponse](t, rec)
	if status.Status != model.StatusAhead {
		t.Errorf("expected ahead, got %s", status.Status)
	}

	// Finish the book; the wager settles and leaves the active set.
	env.do(t, http.MethodPost, "/wagers/"+wagerID+"/progress",
		map[string]any{"start_page": 101, "end_page": 300})

	rec = env.do(t, http.MethodGet, "/wagers/"+wagerID+"/status", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after settlement, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/completed", nil)
	completed := decode[[]model.CompletedWager](t, rec)
	if len(completed) != 1 || !completed[0].Success {
		t.Fatalf("expected 1 successful completed wager, got %+v", completed)
	}

	// 90 + 10 x 2.85 payout.
	rec = env.do(t, http.MethodGet, "/balance", nil)
	balance := decode[map[string]decimal.Decimal](t, rec)
	if !balance["balance"].Equal(d(118.5)) {
		t.Errorf("expected balance 118.5, got %s", balance["balance"])
	}
}

func TestPlaceSingle_EmptySlip(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/wagers/single", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty slip, got %d", rec.Code)
	}
}

func TestPlaceParlay_Flow(t *testing.T) {
	env := newTestEnv(t)
	book := env.addBook(t, "The Test Book")
	env.stageSelection(t, book.ID, "PAGES:7", 10)
	env.stageSelection(t, book.ID, "PAGES:14", 10)

	rec := env.do(t, http.MethodPost, "/wagers/parlay", map[string]any{"amount": 10})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	parlay := decode[model.ParlayGroup](t, rec)
	if parlay.Status != model.ParlayInProgress {
		t.Errorf("expected in_progress, got %s", parlay.Status)
	}
	if len(parlay.LegIDs) != 2 {
		t.Errorf("expected 2 legs, got %d", len(parlay.LegIDs))
	}
	if parlay.CombinedOdds == "" {
		t.Errorf("expected combined odds on the group")
	}

	rec = env.do(t, http.MethodPost, "/parlays/"+parlay.ID+"/lost", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 marking parlay lost, got %d", rec.Code)
	}
	rec = env.do(t, http.MethodPost, "/parlays/"+parlay.ID+"/lost", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 on an already-resolved parlay, got %d", rec.Code)
	}
	rec = env.do(t, http.MethodPost, "/parlays/nope/lost", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown parlay, got %d", rec.Code)
	}
}

func TestPlaceParlay_BadRequests(t *testing.T) {
	env := newTestEnv(t)
	book := env.addBook(t, "The Test Book")

	rec := env.do(t, http.MethodPost, "/wagers/parlay", map[string]any{"amount": 0})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for non-positive amount, got %d", rec.Code)
	}

	env.stageSelection(t, book.ID, "PAGES:7", 10)
	rec = env.do(t, http.MethodPost, "/wagers/parlay", map[string]any{"amount": 10})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a one-leg parlay, got %d", rec.Code)
	}
}

func TestAdvanceDay_ReportsNoOp(t *testing.T) {
	env := newTestEnv(t)
	book := env.addBook(t, "The Test Book")
	env.stageSelection(t, book.ID, "PAGES:7", 10)
	rec := env.do(t, http.MethodPost, "/wagers/single", nil)
	placed := decode[struct {
		WagerIDs []string `json:"wager_ids"`
	}](t, rec)
	wagerID := placed.WagerIDs[0]

	rec = env.do(t, http.MethodPost, "/wagers/"+wagerID+"/advance-day", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := decode[map[string]bool](t, rec); got["advanced"] {
		t.Errorf("expected advanced=false with no progress")
	}

	// 300 pages over 7 days is 43/day; reaching page 43 earns the advance.
	env.do(t, http.MethodPost, "/wagers/"+wagerID+"/progress",
		map[string]any{"start_page": 1, "end_page": 43})
	rec = env.do(t, http.MethodPost, "/wagers/"+wagerID+"/advance-day", nil)
	if got := decode[map[string]bool](t, rec); !got["advanced"] {
		t.Errorf("expected advanced=true at the pace target")
	}
}

func TestEngagementGoal_Flow(t *testing.T) {
	env := newTestEnv(t)
	book := env.addBook(t, "The Test Book")

	rec := env.do(t, http.MethodPost, "/slip/selections", map[string]any{
		"book_id": book.ID,
		"spec":    "ENGAGE:1-3",
		"amount":  10,
		"goals": []map[string]any{
			{"description": "write a journal entry", "target_count": 1},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	env.do(t, http.MethodPost, "/wagers/single", nil)

	rec = env.do(t, http.MethodGet, "/wagers", nil)
	listed := decode[wager.ListWagersResponse](t, rec)
	if len(listed.Engagement) != 1 {
		t.Fatalf("expected 1 engagement wager, got %d", len(listed.Engagement))
	}
	w := listed.Engagement[0]

	rec = env.do(t, http.MethodPost, "/wagers/"+w.ID+"/goals/"+w.Goals[0].ID,
		map[string]any{"increment": 1})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	// Goal complete: the wager settled with a payout.
	rec = env.do(t, http.MethodGet, "/completed", nil)
	completed := decode[[]model.CompletedWager](t, rec)
	if len(completed) != 1 || !completed[0].Success {
		t.Errorf("expected a successful settlement, got %+v", completed)
	}
}

func TestSession_FullFlow(t *testing.T) {
	env := newTestEnv(t)
	book := env.addBook(t, "The Test Book")
	env.stageSelection(t, book.ID, "PAGES:7", 10)
	rec := env.do(t, http.MethodPost, "/wagers/single", nil)
	placed := decode[struct {
		WagerIDs []string `json:"wager_ids"`
	}](t, rec)
	wagerID := placed.WagerIDs[0]

	// First session: nothing read yet, so the machine asks for the page.
	rec = env.do(t, http.MethodPost, "/session/start", map[string]any{"wager_id": wagerID})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 starting session, got %d: %s", rec.Code, rec.Body.String())
	}
	state := decode[wager.SessionResponse](t, rec)
	if state.State != session.AwaitingStartPage {
		t.Errorf("expected awaiting_start_page, got %s", state.State)
	}
	if state.ProposedPage != 1 {
		t.Errorf("expected proposed page 1, got %d", state.ProposedPage)
	}

	rec = env.do(t, http.MethodPost, "/session/start-page", map[string]any{"use_default": true})
	state = decode[wager.SessionResponse](t, rec)
	if state.State != session.Active {
		t.Fatalf("expected active, got %s", state.State)
	}
	if state.Elapsed == "" {
		t.Errorf("expected elapsed display while active")
	}

	rec = env.do(t, http.MethodPost, "/session/stop", nil)
	state = decode[wager.SessionResponse](t, rec)
	if state.State != session.AwaitingEndPage {
		t.Fatalf("expected awaiting_end_page, got %s", state.State)
	}

	rec = env.do(t, http.MethodPost, "/session/end-page", map[string]any{"page": 25})
	state = decode[wager.SessionResponse](t, rec)
	if state.State != session.AwaitingComment {
		t.Fatalf("expected awaiting_comment, got %s", state.State)
	}

	rec = env.do(t, http.MethodPost, "/session/commit", map[string]any{"note": "good pace"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 committing, got %d: %s", rec.Code, rec.Body.String())
	}
	committed := decode[map[string]any](t, rec)
	if committed["pages_read"] != float64(25) {
		t.Errorf("expected 25 pages read, got %v", committed["pages_read"])
	}

	// The machine is idle again.
	rec = env.do(t, http.MethodGet, "/session", nil)
	state = decode[wager.SessionResponse](t, rec)
	if state.State != session.Idle {
		t.Errorf("expected idle after commit, got %s", state.State)
	}

	// Progress landed on the wager and the note in the journal.
	rec = env.do(t, http.MethodGet, "/wagers/"+wagerID+"/status", nil)
	status := decode[wager.StatusResponse](t, rec)
	if status.Progress.TotalPagesRead != 25 {
		t.Errorf("expected 25 pages on the ledger, got %d", status.Progress.TotalPagesRead)
	}

	rec = env.do(t, http.MethodGet, "/books/"+book.ID+"/journal", nil)
	entries := decode[[]model.JournalEntry](t, rec)
	if len(entries) != 1 || entries[0].Text != "good pace" {
		t.Errorf("expected the session note in the journal, got %+v", entries)
	}

	rec = env.do(t, http.MethodGet, "/books/"+book.ID+"/sessions", nil)
	sessions := decode[[]model.ReadingSession](t, rec)
	if len(sessions) != 1 || sessions[0].EndPage != 25 {
		t.Errorf("expected 1 persisted session ending on page 25, got %+v", sessions)
	}
}

func TestSession_WrongStateAndValidation(t *testing.T) {
	env := newTestEnv(t)
	book := env.addBook(t, "The Test Book")
	env.stageSelection(t, book.ID, "PAGES:7", 10)
	rec := env.do(t, http.MethodPost, "/wagers/single", nil)
	placed := decode[struct {
		WagerIDs []string `json:"wager_ids"`
	}](t, rec)
	wagerID := placed.WagerIDs[0]

	// Stop without an active session.
	rec = env.do(t, http.MethodPost, "/session/stop", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 stopping while idle, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/session/start", map[string]any{"wager_id": "nope"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown wager, got %d", rec.Code)
	}

	env.do(t, http.MethodPost, "/session/start", map[string]any{"wager_id": wagerID})

	// A second start conflicts.
	rec = env.do(t, http.MethodPost, "/session/start", map[string]any{"wager_id": wagerID})
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 starting a second session, got %d", rec.Code)
	}

	// Out-of-range page input is a 400 and keeps the state.
	rec = env.do(t, http.MethodPost, "/session/start-page", map[string]any{"page": 9999})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for out-of-range page, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/session/cancel", nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204 cancelling, got %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/session", nil)
	if state := decode[wager.SessionResponse](t, rec); state.State != session.Idle {
		t.Errorf("expected idle after cancel, got %s", state.State)
	}
}
