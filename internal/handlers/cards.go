package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/snapfolio/snapfolio-portal/internal/auth"
	"github.com/snapfolio/snapfolio-portal/internal/cardnav"
	"github.com/snapfolio/snapfolio-portal/internal/client"
	"github.com/snapfolio/snapfolio-portal/internal/common"
	"github.com/snapfolio/snapfolio-portal/internal/models"
)

// navIdleTTL bounds how long an untouched member navigator is kept.
const navIdleTTL = 30 * time.Minute

// CardView is the navigator state returned after every cards operation.
type CardView struct {
	Date    string                `json:"date"`
	Index   int                   `json:"index"`
	Cards   []models.SnapshotCard `json:"cards"`
	Card    *models.SnapshotCard  `json:"card,omitempty"`
	Empty   bool                  `json:"empty"`   // date loaded, zero cards
	Moved   bool                  `json:"moved"`   // for advance: false at the ribbon's ends
	HasPrev bool                  `json:"hasPrev"` // a previous card or date exists
	HasNext bool                  `json:"hasNext"`
}

// navEntry is one member's navigator plus the session token its loader uses.
type navEntry struct {
	mu       sync.Mutex
	nav      *cardnav.Navigator
	session  string
	lastUsed time.Time
	seeded   bool // allowed-dates list fetched successfully
}

// CardsHandler serves the card-browsing screen. Each member gets one
// navigator whose per-date batches are fetched lazily from the backend and
// coalesced; the handler is the seam that turns per-date pagination into the
// flat prev/next ribbon the UI swipes through.
type CardsHandler struct {
	logger    *common.Logger
	backend   *client.Backend
	jwtSecret []byte

	mu   sync.Mutex
	navs map[string]*navEntry // keyed by member sub
}

// NewCardsHandler creates a new cards handler.
func NewCardsHandler(logger *common.Logger, backend *client.Backend, jwtSecret []byte) *CardsHandler {
	return &CardsHandler{
		logger:    logger,
		backend:   backend,
		jwtSecret: jwtSecret,
		navs:      make(map[string]*navEntry),
	}
}

// entryFor returns (creating if needed) the navigator for a member, seeding
// its allowed dates from the backend on first use.
func (h *CardsHandler) entryFor(ctx context.Context, sub, session string) (*navEntry, error) {
	h.mu.Lock()
	now := time.Now()
	for key, e := range h.navs {
		if now.Sub(e.lastUsed) > navIdleTTL {
			delete(h.navs, key)
		}
	}
	e, ok := h.navs[sub]
	if !ok {
		e = &navEntry{session: session}
		e.nav = cardnav.New(func(ctx context.Context, date string) ([]models.SnapshotCard, error) {
			e.mu.Lock()
			token := e.session
			e.mu.Unlock()
			return h.backend.GetSnapshotsByDate(ctx, token, date)
		}, nil)
		h.navs[sub] = e
	}
	e.mu.Lock()
	e.session = session
	e.lastUsed = now
	seeded := e.seeded
	e.mu.Unlock()
	h.mu.Unlock()

	if seeded {
		return e, nil
	}

	// Seed (or re-seed after a transient failure) the allowed-dates list.
	dates, err := h.backend.GetSnapshotDates(ctx, session)
	if err != nil {
		// The navigator still works date-by-date; edge crossing just has
		// fewer known dates until a later request seeds them.
		h.logger.Warn().Str("error", err.Error()).Msg("cards: failed to seed snapshot dates")
		if errors.Is(err, client.ErrSessionExpired) {
			return nil, err
		}
		return e, nil
	}
	for _, d := range dates {
		e.nav.AddDate(d)
	}
	e.mu.Lock()
	e.seeded = true
	e.mu.Unlock()
	return e, nil
}

// require resolves the member and navigator for a request.
func (h *CardsHandler) require(w http.ResponseWriter, r *http.Request) (*navEntry, bool) {
	loggedIn, claims := auth.IsLoggedIn(r, h.jwtSecret)
	if !loggedIn {
		WriteFailure(w, http.StatusUnauthorized, "UNAUTHORIZED", "login required")
		return nil, false
	}
	e, err := h.entryFor(r.Context(), claims.Sub, auth.SessionToken(r))
	if err != nil {
		WriteBackendError(w, err)
		return nil, false
	}
	return e, true
}

// view snapshots the navigator state into a CardView.
func (h *CardsHandler) view(nav *cardnav.Navigator, moved bool) CardView {
	date, index := nav.Current()
	cards, loaded := nav.Cards(date)

	v := CardView{
		Date:  date,
		Index: index,
		Cards: cards,
		Empty: loaded && len(cards) == 0,
		Moved: moved,
	}
	if c, ok := nav.CurrentCard(); ok {
		v.Card = &c
	}

	dates := nav.Dates()
	for i, d := range dates {
		if d != date {
			continue
		}
		v.HasPrev = i > 0 || index > 0
		v.HasNext = i < len(dates)-1 || (index != cardnav.NoCard && index < len(cards)-1)
		break
	}
	return v
}

// Dates handles GET /api/cards/dates.
func (h *CardsHandler) Dates(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	e, ok := h.require(w, r)
	if !ok {
		return
	}
	WriteData(w, e.nav.Dates())
}

// Select handles POST /api/cards/select {date}. Selecting an unloaded date
// fetches its batch (coalesced with any concurrent select of the same date)
// and resets the index to the first card.
func (h *CardsHandler) Select(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	e, ok := h.require(w, r)
	if !ok {
		return
	}

	var req struct {
		Date string `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Date == "" {
		WriteFailure(w, http.StatusBadRequest, "BAD-REQUEST", "date is required")
		return
	}

	if err := e.nav.SelectDate(r.Context(), req.Date); err != nil {
		// A superseded select means the user already moved on; answer with
		// whatever is current rather than an error.
		if !errors.Is(err, cardnav.ErrSuperseded) {
			h.logger.Warn().Str("date", req.Date).Str("error", err.Error()).Msg("cards: select date failed")
			if errors.Is(err, client.ErrSessionExpired) {
				WriteBackendError(w, err)
				return
			}
			WriteFailure(w, http.StatusBadGateway, "UPSTREAM-ERROR", "failed to load cards")
			return
		}
	}
	WriteData(w, h.view(e.nav, false))
}

// Advance handles POST /api/cards/advance {direction}. Past the edge of a
// date it crosses into the adjacent date; at the ribbon's ends it reports
// moved=false and leaves the selection unchanged.
func (h *CardsHandler) Advance(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	e, ok := h.require(w, r)
	if !ok {
		return
	}

	var req struct {
		Direction string `json:"direction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteFailure(w, http.StatusBadRequest, "BAD-REQUEST", "direction is required")
		return
	}

	var dir cardnav.Direction
	switch req.Direction {
	case "prev":
		dir = cardnav.Prev
	case "next":
		dir = cardnav.Next
	default:
		WriteFailure(w, http.StatusBadRequest, "BAD-REQUEST", "direction must be prev or next")
		return
	}

	moved, err := e.nav.Advance(r.Context(), dir)
	if err != nil && !errors.Is(err, cardnav.ErrSuperseded) {
		if errors.Is(err, cardnav.ErrNoSelection) {
			WriteFailure(w, http.StatusConflict, "NO-SELECTION", "select a date first")
			return
		}
		if errors.Is(err, client.ErrSessionExpired) {
			WriteBackendError(w, err)
			return
		}
		h.logger.Warn().Str("error", err.Error()).Msg("cards: advance failed")
		WriteFailure(w, http.StatusBadGateway, "UPSTREAM-ERROR", "failed to load cards")
		return
	}
	WriteData(w, h.view(e.nav, moved))
}

// Jump handles POST /api/cards/jump {index} or {snapshotId}, moving within
// the current date's list only.
func (h *CardsHandler) Jump(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	e, ok := h.require(w, r)
	if !ok {
		return
	}

	var req struct {
		Index      *int  `json:"index"`
		SnapshotID int64 `json:"snapshotId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteFailure(w, http.StatusBadRequest, "BAD-REQUEST", "index or snapshotId is required")
		return
	}

	var err error
	switch {
	case req.Index != nil:
		err = e.nav.SelectIndex(*req.Index)
	case req.SnapshotID != 0:
		err = e.nav.SelectCard(req.SnapshotID)
	default:
		WriteFailure(w, http.StatusBadRequest, "BAD-REQUEST", "index or snapshotId is required")
		return
	}

	switch {
	case errors.Is(err, cardnav.ErrOutOfRange):
		WriteFailure(w, http.StatusBadRequest, "OUT-OF-RANGE", "index outside current date")
	case errors.Is(err, cardnav.ErrUnknownCard):
		WriteFailure(w, http.StatusNotFound, "NOT-FOUND", "card not in current date")
	case errors.Is(err, cardnav.ErrNoSelection):
		WriteFailure(w, http.StatusConflict, "NO-SELECTION", "select a date first")
	case err != nil:
		WriteFailure(w, http.StatusBadGateway, "UPSTREAM-ERROR", "navigation failed")
	default:
		WriteData(w, h.view(e.nav, true))
	}
}

// Current handles GET /api/cards/current.
func (h *CardsHandler) Current(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	e, ok := h.require(w, r)
	if !ok {
		return
	}
	WriteData(w, h.view(e.nav, false))
}
