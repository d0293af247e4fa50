package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/snapfolio/snapfolio-portal/internal/auth"
	"github.com/snapfolio/snapfolio-portal/internal/cache"
	"github.com/snapfolio/snapfolio-portal/internal/client"
	"github.com/snapfolio/snapfolio-portal/internal/common"
	"github.com/snapfolio/snapfolio-portal/internal/models"
)

// StockHandler serves the stock detail view: news snapshots for one stock
// code, cached for the news TTL, with image URLs warmed in the background.
type StockHandler struct {
	logger    *common.Logger
	backend   *client.Backend
	newsCache *cache.Cache
	preloader *cache.Preloader
	jwtSecret []byte
}

// NewStockHandler creates a new stock detail handler.
func NewStockHandler(logger *common.Logger, backend *client.Backend, newsCache *cache.Cache, preloader *cache.Preloader, jwtSecret []byte) *StockHandler {
	return &StockHandler{
		logger:    logger,
		backend:   backend,
		newsCache: newsCache,
		preloader: preloader,
		jwtSecret: jwtSecret,
	}
}

// ServeHTTP handles GET /api/stock/{code}/news. A force=1 query bypasses the
// cached entry while still coalescing concurrent refreshers.
func (h *StockHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	loggedIn, _ := auth.IsLoggedIn(r, h.jwtSecret)
	if !loggedIn {
		WriteFailure(w, http.StatusUnauthorized, "UNAUTHORIZED", "login required")
		return
	}
	session := auth.SessionToken(r)

	code := r.PathValue("code")
	if code == "" || strings.ContainsAny(code, "/ ") {
		WriteFailure(w, http.StatusBadRequest, "BAD-REQUEST", "stock code is required")
		return
	}

	// Cache keys are per member so one member's session never serves another.
	_, claims := auth.IsLoggedIn(r, h.jwtSecret)
	key := cache.MakeKey("news", claims.Sub+":"+code)

	fetch := func(ctx context.Context) (interface{}, error) {
		return h.backend.GetNewsByStock(ctx, session, code)
	}

	var v interface{}
	var err error
	if r.URL.Query().Get("force") == "1" {
		v, err = h.newsCache.Refresh(r.Context(), key, fetch)
	} else {
		v, err = h.newsCache.GetOrFetch(r.Context(), key, fetch)
	}
	if err != nil {
		WriteBackendError(w, err)
		return
	}

	cards, _ := v.([]models.SnapshotCard)

	var urls []string
	for _, c := range cards {
		if c.ImageURL != "" {
			urls = append(urls, c.ImageURL)
		}
	}
	h.preloader.Preload(context.WithoutCancel(r.Context()), urls)

	WriteData(w, cards)
}
