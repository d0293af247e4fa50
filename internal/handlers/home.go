package handlers

import (
	"errors"
	"net/http"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/snapfolio/snapfolio-portal/internal/auth"
	"github.com/snapfolio/snapfolio-portal/internal/client"
	"github.com/snapfolio/snapfolio-portal/internal/common"
	"github.com/snapfolio/snapfolio-portal/internal/models"
)

// HomeView is the composed view model for the home dashboard.
// Each section degrades independently: a failed source leaves its section
// empty with the error flag set, and the rest of the page renders.
type HomeView struct {
	Stocks         []models.UnifiedStockItem `json:"stocks"`
	StocksError    bool                      `json:"stocksError,omitempty"`
	TotalValue     decimal.Decimal           `json:"totalValue"`
	TotalProfit    decimal.Decimal           `json:"totalProfit"`
	Snapshots      []models.SnapshotCard     `json:"snapshots"`
	SnapshotsError bool                      `json:"snapshotsError,omitempty"`
}

// HomeHandler serves the home dashboard view model.
type HomeHandler struct {
	logger    *common.Logger
	backend   *client.Backend
	jwtSecret []byte
}

// NewHomeHandler creates a new home handler.
func NewHomeHandler(logger *common.Logger, backend *client.Backend, jwtSecret []byte) *HomeHandler {
	return &HomeHandler{logger: logger, backend: backend, jwtSecret: jwtSecret}
}

// ServeHTTP handles GET /api/pages/home.
func (h *HomeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	loggedIn, _ := auth.IsLoggedIn(r, h.jwtSecret)
	if !loggedIn {
		WriteFailure(w, http.StatusUnauthorized, "UNAUTHORIZED", "login required")
		return
	}
	session := auth.SessionToken(r)

	var view HomeView
	var stocksErr, snapsErr error

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		view.Stocks, stocksErr = h.backend.GetPortfolio(ctx, session)
		return nil
	})
	g.Go(func() error {
		var cards []models.SnapshotCard
		cards, snapsErr = h.backend.GetSnapshotsByDate(ctx, session, today())
		if snapsErr == nil {
			view.Snapshots = cards
		}
		return nil
	})
	g.Wait()

	// Session expiry overrides partial rendering: the whole page redirects.
	for _, err := range []error{stocksErr, snapsErr} {
		if errors.Is(err, client.ErrSessionExpired) {
			WriteBackendError(w, err)
			return
		}
	}

	if stocksErr != nil {
		h.logger.Warn().Str("error", stocksErr.Error()).Msg("home: portfolio section failed")
		view.Stocks = nil
		view.StocksError = true
	}
	if snapsErr != nil {
		h.logger.Warn().Str("error", snapsErr.Error()).Msg("home: snapshots section failed")
		view.Snapshots = nil
		view.SnapshotsError = true
	}

	for _, s := range view.Stocks {
		view.TotalValue = view.TotalValue.Add(s.MarketValue())
		view.TotalProfit = view.TotalProfit.Add(s.ProfitAmount)
	}

	WriteData(w, view)
}
