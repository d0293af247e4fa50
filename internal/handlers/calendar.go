package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/snapfolio/snapfolio-portal/internal/auth"
	"github.com/snapfolio/snapfolio-portal/internal/client"
	"github.com/snapfolio/snapfolio-portal/internal/common"
	"github.com/snapfolio/snapfolio-portal/internal/models"
	"github.com/snapfolio/snapfolio-portal/internal/schedule"
)

var monthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// CalendarView is the merged per-day schedule for one month.
type CalendarView struct {
	Month string                      `json:"month"`
	Days  map[string][]schedule.Entry `json:"days"`
	Dates []string                    `json:"dates"`
}

// CalendarHandler serves the calendar screen: earning calls and disclosures
// fetched independently from the backend and merged into one per-day list.
type CalendarHandler struct {
	logger    *common.Logger
	backend   *client.Backend
	jwtSecret []byte
}

// NewCalendarHandler creates a new calendar handler.
func NewCalendarHandler(logger *common.Logger, backend *client.Backend, jwtSecret []byte) *CalendarHandler {
	return &CalendarHandler{logger: logger, backend: backend, jwtSecret: jwtSecret}
}

// ServeHTTP handles GET /api/pages/calendar?month=YYYY-MM.
func (h *CalendarHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	loggedIn, _ := auth.IsLoggedIn(r, h.jwtSecret)
	if !loggedIn {
		WriteFailure(w, http.StatusUnauthorized, "UNAUTHORIZED", "login required")
		return
	}
	session := auth.SessionToken(r)

	month := r.URL.Query().Get("month")
	if !monthPattern.MatchString(month) {
		WriteFailure(w, http.StatusBadRequest, "BAD-REQUEST", "month must be YYYY-MM")
		return
	}

	var earnings []models.EarningCall
	var disclosures []models.Disclosure
	var earnErr, discErr error

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		earnings, earnErr = h.backend.GetEarningCalls(ctx, session, month)
		return nil
	})
	g.Go(func() error {
		disclosures, discErr = h.backend.GetDisclosures(ctx, session, month)
		return nil
	})
	g.Wait()

	for _, err := range []error{earnErr, discErr} {
		if errors.Is(err, client.ErrSessionExpired) {
			WriteBackendError(w, err)
			return
		}
	}

	// A single failed source degrades to an empty list for that source; the
	// calendar still renders the other.
	if earnErr != nil {
		h.logger.Warn().Str("month", month).Str("error", earnErr.Error()).Msg("calendar: earning calls failed")
		earnings = nil
	}
	if discErr != nil {
		h.logger.Warn().Str("month", month).Str("error", discErr.Error()).Msg("calendar: disclosures failed")
		disclosures = nil
	}

	merged := schedule.Merge(earnings, disclosures)
	WriteData(w, CalendarView{
		Month: month,
		Days:  merged,
		Dates: schedule.Dates(merged),
	})
}

// DisclosureHandler serves the disclosure detail screen.
type DisclosureHandler struct {
	logger    *common.Logger
	backend   *client.Backend
	jwtSecret []byte
}

// NewDisclosureHandler creates a new disclosure detail handler.
func NewDisclosureHandler(logger *common.Logger, backend *client.Backend, jwtSecret []byte) *DisclosureHandler {
	return &DisclosureHandler{logger: logger, backend: backend, jwtSecret: jwtSecret}
}

// ServeHTTP handles GET /api/disclosures/{id}.
func (h *DisclosureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	loggedIn, _ := auth.IsLoggedIn(r, h.jwtSecret)
	if !loggedIn {
		WriteFailure(w, http.StatusUnauthorized, "UNAUTHORIZED", "login required")
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		WriteFailure(w, http.StatusBadRequest, "BAD-REQUEST", "invalid disclosure id")
		return
	}

	d, err := h.backend.GetDisclosureDetail(r.Context(), auth.SessionToken(r), id)
	if err != nil {
		WriteBackendError(w, err)
		return
	}
	WriteData(w, d)
}
