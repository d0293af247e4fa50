package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/snapfolio/snapfolio-portal/internal/common"
)

// maxQuoteSize caps the proxied quote body.
const maxQuoteSize = 1 << 20 // 1MB

// MarketDataHandler proxies quote requests to the external market-data
// provider, normalizing rate-limit and failure responses into a uniform
// {error} shape so the browser never sees provider-specific bodies.
type MarketDataHandler struct {
	logger      *common.Logger
	providerURL string
	apiKey      string
	httpClient  *http.Client
}

// NewMarketDataHandler creates a new market-data proxy handler.
func NewMarketDataHandler(logger *common.Logger, providerURL, apiKey string) *MarketDataHandler {
	return &MarketDataHandler{
		logger:      logger,
		providerURL: providerURL,
		apiKey:      apiKey,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

// ServeHTTP handles GET /api/stock-data?symbol=.
func (h *MarketDataHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	symbol := strings.TrimSpace(r.URL.Query().Get("symbol"))
	if symbol == "" {
		writeQuoteError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	q := url.Values{}
	q.Set("function", "GLOBAL_QUOTE")
	q.Set("symbol", symbol)
	q.Set("apikey", h.apiKey)

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, h.providerURL+"?"+q.Encode(), nil)
	if err != nil {
		writeQuoteError(w, http.StatusInternalServerError, "failed to build provider request")
		return
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		h.logger.Warn().Str("symbol", symbol).Str("error", err.Error()).Msg("market data provider unreachable")
		writeQuoteError(w, http.StatusInternalServerError, "market data provider unreachable")
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxQuoteSize))
	if err != nil {
		writeQuoteError(w, http.StatusInternalServerError, "failed to read provider response")
		return
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || isRateLimited(body):
		writeQuoteError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		writeQuoteError(w, http.StatusBadRequest, "invalid market data request")
	case resp.StatusCode >= 500:
		h.logger.Warn().Str("symbol", symbol).Int("status", resp.StatusCode).Msg("market data provider error")
		writeQuoteError(w, http.StatusInternalServerError, "market data provider error")
	default:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	}
}

// isRateLimited detects the provider's in-band throttle notes, which arrive
// with a 200 status.
func isRateLimited(body []byte) bool {
	var probe struct {
		Note        string `json:"Note"`
		Information string `json:"Information"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return false
	}
	return strings.Contains(probe.Note, "call frequency") ||
		strings.Contains(probe.Information, "rate limit")
}

func writeQuoteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"error": msg})
}
