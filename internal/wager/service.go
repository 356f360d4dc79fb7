package wager

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pagestake/wager-engine/internal/bookshelf"
	"github.com/pagestake/wager-engine/internal/goal"
	"github.com/pagestake/wager-engine/internal/limits"
	"github.com/pagestake/wager-engine/internal/model"
	"github.com/pagestake/wager-engine/internal/odds"
	"github.com/pagestake/wager-engine/internal/session"
	"github.com/pagestake/wager-engine/internal/slip"
	"github.com/pagestake/wager-engine/internal/store"
)

// Service exposes the wager engine over HTTP. It also owns the single
// reading-session state machine; sessionMu serializes access to it.
type Service struct {
	engine *Engine
	odds   *odds.Engine
	shelf  bookshelf.Shelf
	store  store.Store

	sessionMu sync.Mutex
	session   *session.Machine
}

// NewService creates the HTTP service around an engine.
func NewService(engine *Engine, oddsEngine *odds.Engine, shelf bookshelf.Shelf, st store.Store, machine *session.Machine) *Service {
	return &Service{
		engine:  engine,
		odds:    oddsEngine,
		shelf:   shelf,
		store:   st,
		session: machine,
	}
}

// Routes mounts every handler on a chi router.
func (s *Service) Routes(r chi.Router) {
	r.Post("/books", s.AddBook)
	r.Get("/books", s.ListBooks)
	r.Get("/books/{bookID}/journal", s.GetJournal)
	r.Get("/books/{bookID}/sessions", s.GetSessions)

	r.Post("/slip/selections", s.AddSelection)
	r.Get("/slip", s.GetSlip)
	r.Delete("/slip/{entryID}", s.RemoveSelection)
	r.Put("/slip/{entryID}/amount", s.UpdateSelectionAmount)
	r.Delete("/slip", s.ClearSlip)

	r.Post("/wagers/single", s.PlaceSingle)
	r.Post("/wagers/parlay", s.PlaceParlay)
	r.Get("/wagers", s.ListWagers)
	r.Get("/wagers/{wagerID}/status", s.GetStatus)
	r.Post("/wagers/{wagerID}/progress", s.RecordProgress)
	r.Post("/wagers/{wagerID}/advance-day", s.AdvanceDay)
	r.Post("/wagers/{wagerID}/goals/{goalID}", s.UpdateGoal)

	r.Post("/parlays/{parlayID}/lost", s.MarkParlayLost)

	r.Get("/completed", s.GetCompleted)
	r.Get("/balance", s.GetBalance)

	r.Post("/session/start", s.StartSession)
	r.Get("/session", s.GetSession)
	r.Post("/session/start-page", s.ConfirmStartPage)
	r.Post("/session/stop", s.StopSession)
	r.Post("/session/end-page", s.ConfirmEndPage)
	r.Post("/session/commit", s.CommitSession)
	r.Post("/session/cancel", s.CancelSession)
}

// --- Books ---

// AddBookRequest is the JSON body for book creation.
type AddBookRequest struct {
	ID                     string           `json:"id"`
	Title                  string           `json:"title"`
	Author                 string           `json:"author"`
	TotalPages             int              `json:"total_pages"`
	EffectiveTotalPages    int              `json:"effective_total_pages"`
	EffectiveTotalChapters int              `json:"effective_total_chapters"`
	ReadingStartPage       int              `json:"reading_start_page"`
	ReadingEndPage         int              `json:"reading_end_page"`
	Difficulty             model.Difficulty `json:"difficulty"`
}

// AddBook handles POST /api/v1/books
func (s *Service) AddBook(w http.ResponseWriter, r *http.Request) {
	var req AddBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		writeError(w, "title is required", http.StatusBadRequest)
		return
	}
	if req.TotalPages <= 0 {
		writeError(w, "total_pages must be positive", http.StatusBadRequest)
		return
	}

	book := model.Book{
		ID:                     req.ID,
		Title:                  req.Title,
		Author:                 req.Author,
		TotalPages:             req.TotalPages,
		EffectiveTotalPages:    req.EffectiveTotalPages,
		EffectiveTotalChapters: req.EffectiveTotalChapters,
		ReadingStartPage:       req.ReadingStartPage,
		ReadingEndPage:         req.ReadingEndPage,
		Difficulty:             req.Difficulty,
	}
	if book.ID == "" {
		book.ID = uuid.New().String()
	}
	if book.EffectiveTotalPages <= 0 {
		book.EffectiveTotalPages = book.TotalPages
	}
	if book.ReadingStartPage <= 0 {
		book.ReadingStartPage = 1
	}
	if book.ReadingEndPage <= 0 {
		book.ReadingEndPage = book.TotalPages
	}
	if book.ReadingEndPage < book.ReadingStartPage || book.ReadingEndPage > book.TotalPages {
		writeError(w, "invalid reading page range", http.StatusBadRequest)
		return
	}
	if book.Difficulty == "" {
		book.Difficulty = model.DifficultyMedium
	}

	if err := s.shelf.AddBook(r.Context(), book); err != nil {
		writeError(w, err.Error(), http.StatusConflict)
		return
	}

	slog.Info("book added", "id", book.ID, "title", book.Title, "pages", book.TotalPages)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(book)
}

// ListBooks handles GET /api/v1/books
func (s *Service) ListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := s.shelf.ListBooks(r.Context())
	if err != nil {
		writeError(w, "failed to list books", http.StatusInternalServerError)
		return
	}
	if books == nil {
		books = []model.Book{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(books)
}

// GetJournal handles GET /api/v1/books/{bookID}/journal
func (s *Service) GetJournal(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookID")

	entries, err := s.store.FetchJournalEntries(r.Context(), bookID)
	if err != nil {
		writeError(w, "failed to fetch journal entries", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []model.JournalEntry{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

// GetSessions handles GET /api/v1/books/{bookID}/sessions
func (s *Service) GetSessions(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookID")

	sessions, err := s.store.ListReadingSessions(r.Context(), bookID)
	if err != nil {
		writeError(w, "failed to list reading sessions", http.StatusInternalServerError)
		return
	}
	if sessions == nil {
		sessions = []model.ReadingSession{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sessions)
}

// --- Slip ---

// AddSelectionRequest is the JSON body for staging a selection.
// Spec is a goal spec string: PAGES:{days}, CHAPTERS:{days}, or
// ENGAGE:{bucket}. Goals are required for engagement selections.
type AddSelectionRequest struct {
	BookID string          `json:"book_id"`
	Spec   string          `json:"spec"`
	Amount decimal.Decimal `json:"amount"`
	Goals  []GoalRequest   `json:"goals,omitempty"`
}

// GoalRequest is one engagement goal in a selection request.
type GoalRequest struct {
	Description string `json:"description"`
	TargetCount int    `json:"target_count"`
}

// AddSelectionResponse echoes the staged entry.
type AddSelectionResponse struct {
	EntryID string          `json:"entry_id"`
	Odds    string          `json:"odds"`
	Amount  decimal.Decimal `json:"amount"`
}

// AddSelection handles POST /api/v1/slip/selections
// Computes odds for the requested goal shape and stages the selection.
func (s *Service) AddSelection(w http.ResponseWriter, r *http.Request) {
	var req AddSelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	spec, err := goal.Parse(req.Spec)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	book, err := s.shelf.GetBook(r.Context(), req.BookID)
	if err != nil {
		writeError(w, "book not found: "+req.BookID, http.StatusNotFound)
		return
	}

	// Amount is clamped to [0, balance] here, at the call site.
	amount := clampAmount(req.Amount, s.engine.Balance())

	var entryID, oddsStr string
	switch spec.Kind {
	case goal.KindPages:
		oddsStr, err = s.odds.Pages(book, spec.Days)
		if err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		entryID = s.engine.Slip().AddReading(book, spec.Timeframe(), spec.Days, oddsStr, amount)

	case goal.KindChapters:
		oddsStr, err = s.odds.Chapters(book, spec.Days)
		if err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		entryID = s.engine.Slip().AddReading(book, spec.Timeframe(), spec.Days, oddsStr, amount)

	case goal.KindEngagement:
		if len(req.Goals) == 0 {
			writeError(w, "engagement selection requires goals", http.StatusBadRequest)
			return
		}
		goals := make([]model.Goal, 0, len(req.Goals))
		for _, g := range req.Goals {
			if g.TargetCount <= 0 {
				writeError(w, "goal target_count must be positive", http.StatusBadRequest)
				return
			}
			goals = append(goals, model.Goal{
				ID:          uuid.New().String(),
				Description: g.Description,
				TargetCount: g.TargetCount,
			})
		}
		oddsStr = s.odds.Engagement(book, spec.Bucket)
		entryID = s.engine.Slip().AddEngagement(book, goals, oddsStr, amount)
	}

	slog.Info("selection staged",
		"entry_id", entryID,
		"book", book.Title,
		"spec", req.Spec,
		"odds", oddsStr,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(AddSelectionResponse{
		EntryID: entryID,
		Odds:    oddsStr,
		Amount:  amount,
	})
}

// SlipResponse is the current slip contents plus aggregates.
type SlipResponse struct {
	Entries      []slip.Entry    `json:"entries"`
	TotalWager   decimal.Decimal `json:"total_wager"`
	CombinedOdds string          `json:"combined_odds,omitempty"`
}

// GetSlip handles GET /api/v1/slip
func (s *Service) GetSlip(w http.ResponseWriter, r *http.Request) {
	resp := SlipResponse{
		Entries:    s.engine.Slip().Entries(),
		TotalWager: s.engine.Slip().TotalWager(),
	}
	if resp.Entries == nil {
		resp.Entries = []slip.Entry{}
	}
	if combined, err := s.engine.Slip().CombinedParlayOdds(); err == nil {
		resp.CombinedOdds = combined
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// RemoveSelection handles DELETE /api/v1/slip/{entryID}
func (s *Service) RemoveSelection(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "entryID")
	if err := s.engine.Slip().Remove(entryID); err != nil {
		writeError(w, "slip entry not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateAmountRequest is the JSON body for amount updates.
type UpdateAmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// UpdateSelectionAmount handles PUT /api/v1/slip/{entryID}/amount
func (s *Service) UpdateSelectionAmount(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "entryID")

	var req UpdateAmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	amount := clampAmount(req.Amount, s.engine.Balance())
	if err := s.engine.Slip().UpdateAmount(entryID, amount); err != nil {
		writeError(w, "slip entry not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]decimal.Decimal{"amount": amount})
}

// ClearSlip handles DELETE /api/v1/slip
func (s *Service) ClearSlip(w http.ResponseWriter, r *http.Request) {
	s.engine.Slip().ClearAll()
	w.WriteHeader(http.StatusNoContent)
}

// --- Placement ---

// PlaceSingle handles POST /api/v1/wagers/single
func (s *Service) PlaceSingle(w http.ResponseWriter, r *http.Request) {
	ids, err := s.engine.PlaceSingle(r.Context())
	if err != nil {
		writeError(w, err.Error(), placementStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"wager_ids": ids,
		"balance":   s.engine.Balance(),
	})
}

// PlaceParlayRequest is the JSON body for parlay placement.
type PlaceParlayRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// PlaceParlay handles POST /api/v1/wagers/parlay
func (s *Service) PlaceParlay(w http.ResponseWriter, r *http.Request) {
	var req PlaceParlayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if !req.Amount.IsPositive() {
		writeError(w, "amount must be positive", http.StatusBadRequest)
		return
	}

	parlayID, err := s.engine.PlaceParlay(r.Context(), req.Amount)
	if err != nil {
		writeError(w, err.Error(), placementStatus(err))
		return
	}

	parlay, _ := s.engine.GetParlay(parlayID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(parlay)
}

// ListWagersResponse groups the active sets.
type ListWagersResponse struct {
	Reading    []model.ReadingWager    `json:"reading"`
	Engagement []model.EngagementWager `json:"engagement"`
	Parlays    []model.ParlayGroup     `json:"parlays"`
}

// ListWagers handles GET /api/v1/wagers
func (s *Service) ListWagers(w http.ResponseWriter, r *http.Request) {
	resp := ListWagersResponse{
		Reading:    s.engine.ActiveReadingWagers(),
		Engagement: s.engine.ActiveEngagementWagers(),
		Parlays:    s.engine.Parlays(),
	}
	if resp.Reading == nil {
		resp.Reading = []model.ReadingWager{}
	}
	if resp.Engagement == nil {
		resp.Engagement = []model.EngagementWager{}
	}
	if resp.Parlays == nil {
		resp.Parlays = []model.ParlayGroup{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// StatusResponse is the derived status plus the live progress record.
type StatusResponse struct {
	Status   model.WagerStatus    `json:"status"`
	Progress model.ProgressRecord `json:"progress"`
}

// GetStatus handles GET /api/v1/wagers/{wagerID}/status
func (s *Service) GetStatus(w http.ResponseWriter, r *http.Request) {
	wagerID := chi.URLParam(r, "wagerID")

	status, err := s.engine.DeriveStatus(wagerID)
	if err != nil {
		writeError(w, "wager not found", http.StatusNotFound)
		return
	}
	rec, err := s.engine.Ledger().Get(wagerID)
	if err != nil {
		writeError(w, "wager not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(StatusResponse{Status: status, Progress: rec})
}

// RecordProgressRequest is the JSON body for direct progress recording.
type RecordProgressRequest struct {
	StartPage int `json:"start_page"`
	EndPage   int `json:"end_page"`
}

// RecordProgress handles POST /api/v1/wagers/{wagerID}/progress
func (s *Service) RecordProgress(w http.ResponseWriter, r *http.Request) {
	wagerID := chi.URLParam(r, "wagerID")

	var req RecordProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	pagesRead, err := s.engine.RecordProgress(r.Context(), wagerID, req.StartPage, req.EndPage)
	if err != nil {
		writeError(w, err.Error(), notFoundOrConflict(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"pages_read": pagesRead})
}

// AdvanceDay handles POST /api/v1/wagers/{wagerID}/advance-day
// A failed precondition is a no-op, reported with advanced=false.
func (s *Service) AdvanceDay(w http.ResponseWriter, r *http.Request) {
	wagerID := chi.URLParam(r, "wagerID")

	advanced, err := s.engine.AdvanceDay(wagerID)
	if err != nil {
		writeError(w, "wager not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"advanced": advanced})
}

// UpdateGoalRequest is the JSON body for engagement goal updates.
type UpdateGoalRequest struct {
	Increment int `json:"increment"`
}

// UpdateGoal handles POST /api/v1/wagers/{wagerID}/goals/{goalID}
func (s *Service) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	wagerID := chi.URLParam(r, "wagerID")
	goalID := chi.URLParam(r, "goalID")

	var req UpdateGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Increment <= 0 {
		writeError(w, "increment must be positive", http.StatusBadRequest)
		return
	}

	if err := s.engine.UpdateEngagementProgress(r.Context(), wagerID, goalID, req.Increment); err != nil {
		writeError(w, "wager not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MarkParlayLost handles POST /api/v1/parlays/{parlayID}/lost
func (s *Service) MarkParlayLost(w http.ResponseWriter, r *http.Request) {
	parlayID := chi.URLParam(r, "parlayID")

	if err := s.engine.MarkParlayLost(r.Context(), parlayID); err != nil {
		writeError(w, err.Error(), notFoundOrConflict(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetCompleted handles GET /api/v1/completed
func (s *Service) GetCompleted(w http.ResponseWriter, r *http.Request) {
	completed := s.engine.Completed()
	if completed == nil {
		completed = []model.CompletedWager{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(completed)
}

// GetBalance handles GET /api/v1/balance
func (s *Service) GetBalance(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]decimal.Decimal{"balance": s.engine.Balance()})
}

// --- Session ---

// StartSessionRequest is the JSON body for session start.
type StartSessionRequest struct {
	WagerID string `json:"wager_id"`
}

// SessionResponse is the observable state of the session machine.
type SessionResponse struct {
	State        session.State `json:"state"`
	WagerID      string        `json:"wager_id,omitempty"`
	ProposedPage int           `json:"proposed_page,omitempty"`
	StartPage    int           `json:"start_page,omitempty"`
	Elapsed      string        `json:"elapsed,omitempty"`
}

// StartSession handles POST /api/v1/session/start
func (s *Service) StartSession(w http.ResponseWriter, r *http.Request) {
	var req StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	wager, ok := s.engine.GetReadingWager(req.WagerID)
	if !ok {
		writeError(w, "wager not found", http.StatusNotFound)
		return
	}
	rec, err := s.engine.Ledger().Get(req.WagerID)
	if err != nil {
		writeError(w, "wager not found", http.StatusNotFound)
		return
	}

	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	if _, err := s.session.Begin(req.WagerID, wager.Book, rec.LastReadPage); err != nil {
		writeError(w, err.Error(), http.StatusConflict)
		return
	}

	s.writeSession(w)
}

// GetSession handles GET /api/v1/session
func (s *Service) GetSession(w http.ResponseWriter, r *http.Request) {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()
	s.writeSession(w)
}

// PageRequest carries a page number, or use_default for the proposed
// quick-action.
type PageRequest struct {
	Page       int  `json:"page"`
	UseDefault bool `json:"use_default"`
}

// ConfirmStartPage handles POST /api/v1/session/start-page
func (s *Service) ConfirmStartPage(w http.ResponseWriter, r *http.Request) {
	var req PageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	var err error
	if req.UseDefault {
		err = s.session.UseProposedStart()
	} else {
		err = s.session.ConfirmStartPage(req.Page)
	}
	if err != nil {
		writeError(w, err.Error(), sessionStatus(err))
		return
	}

	s.writeSession(w)
}

// StopSession handles POST /api/v1/session/stop
func (s *Service) StopSession(w http.ResponseWriter, r *http.Request) {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	if err := s.session.Stop(); err != nil {
		writeError(w, err.Error(), http.StatusConflict)
		return
	}

	s.writeSession(w)
}

// ConfirmEndPage handles POST /api/v1/session/end-page
func (s *Service) ConfirmEndPage(w http.ResponseWriter, r *http.Request) {
	var req PageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	page := req.Page
	if req.UseDefault {
		page = s.session.ProposedEndPage()
	}
	if err := s.session.ConfirmEndPage(page); err != nil {
		writeError(w, err.Error(), sessionStatus(err))
		return
	}

	s.writeSession(w)
}

// CommitSessionRequest is the JSON body for session commit.
type CommitSessionRequest struct {
	Note string `json:"note"`
}

// CommitSession handles POST /api/v1/session/commit
// Finalizes the session tuple and hands it to the engine.
func (s *Service) CommitSession(w http.ResponseWriter, r *http.Request) {
	var req CommitSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.sessionMu.Lock()
	result, err := s.session.Commit(req.Note)
	s.sessionMu.Unlock()
	if err != nil {
		writeError(w, err.Error(), http.StatusConflict)
		return
	}

	pagesRead, err := s.engine.CommitSession(r.Context(), result)
	if err != nil {
		writeError(w, err.Error(), notFoundOrConflict(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"pages_read": pagesRead,
		"duration":   session.FormatElapsed(result.Duration),
	})
}

// CancelSession handles POST /api/v1/session/cancel
// Discards the in-flight session from any state.
func (s *Service) CancelSession(w http.ResponseWriter, r *http.Request) {
	s.sessionMu.Lock()
	s.session.Cancel()
	s.sessionMu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// writeSession renders the machine state. Caller holds sessionMu.
func (s *Service) writeSession(w http.ResponseWriter) {
	resp := SessionResponse{
		State:   s.session.State(),
		WagerID: s.session.WagerID(),
	}
	switch s.session.State() {
	case session.AwaitingStartConfirmation, session.AwaitingStartPage:
		resp.ProposedPage = s.session.ProposedStartPage()
	case session.Active:
		resp.StartPage = s.session.StartPage()
		resp.Elapsed = s.session.ElapsedDisplay()
	case session.AwaitingEndPage:
		resp.StartPage = s.session.StartPage()
		resp.ProposedPage = s.session.ProposedEndPage()
		resp.Elapsed = s.session.ElapsedDisplay()
	case session.AwaitingComment:
		resp.StartPage = s.session.StartPage()
		resp.Elapsed = s.session.ElapsedDisplay()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// --- Helpers ---

// clampAmount bounds a requested stake to [0, balance].
func clampAmount(amount, balance decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() {
		return decimal.Zero
	}
	if amount.GreaterThan(balance) {
		return balance
	}
	return amount
}

// placementStatus maps placement failures to HTTP statuses.
func placementStatus(err error) int {
	switch {
	case errors.Is(err, ErrEmptySlip), errors.Is(err, slip.ErrTooFewLegs):
		return http.StatusBadRequest
	case errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, limits.ErrStakeLimitExceeded),
		errors.Is(err, limits.ErrExposureLimitExceeded):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// notFoundOrConflict maps engine lookup/precondition failures.
func notFoundOrConflict(err error) int {
	switch {
	case errors.Is(err, ErrUnknownWager), errors.Is(err, ErrUnknownParlay):
		return http.StatusNotFound
	default:
		return http.StatusConflict
	}
}

// sessionStatus distinguishes validation input errors from wrong-state calls.
func sessionStatus(err error) int {
	var ve *session.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest
	}
	return http.StatusConflict
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
