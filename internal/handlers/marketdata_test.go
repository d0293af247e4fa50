package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/snapfolio/snapfolio-portal/internal/common"
)

func newQuoteHandler(t *testing.T, provider http.HandlerFunc) *MarketDataHandler {
	t.Helper()
	srv := httptest.NewServer(provider)
	t.Cleanup(srv.Close)
	return NewMarketDataHandler(common.NewSilentLogger(), srv.URL, "test-key")
}

func quoteError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response not JSON: %v", err)
	}
	return body["error"]
}

func TestMarketDataForwardsQuote(t *testing.T) {
	h := newQuoteHandler(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("function"); got != "GLOBAL_QUOTE" {
			t.Errorf("function = %s", got)
		}
		if got := r.URL.Query().Get("symbol"); got != "AAPL" {
			t.Errorf("symbol = %s", got)
		}
		if got := r.URL.Query().Get("apikey"); got != "test-key" {
			t.Errorf("apikey = %s", got)
		}
		w.Write([]byte(`{"Global Quote":{"05. price":"180.00"}}`))
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/stock-data?symbol=AAPL", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Body.String(); got != `{"Global Quote":{"05. price":"180.00"}}` {
		t.Errorf("body not forwarded verbatim: %s", got)
	}
}

func TestMarketDataMissingSymbol(t *testing.T) {
	h := newQuoteHandler(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("provider should not be called without a symbol")
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/stock-data", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if quoteError(t, rec) == "" {
		t.Error("expected {error} body")
	}
}

func TestMarketDataUpstream429(t *testing.T) {
	h := newQuoteHandler(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`slow down`))
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/stock-data?symbol=AAPL", nil))

	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
}

func TestMarketDataInBandRateLimit(t *testing.T) {
	// The provider reports throttling inside a 200 body.
	h := newQuoteHandler(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Note":"Thank you! Our standard API call frequency is 5 calls per minute."}`))
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/stock-data?symbol=AAPL", nil))

	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
	if quoteError(t, rec) == "" {
		t.Error("expected {error} body")
	}
}

func TestMarketDataUpstream4xxBecomes400(t *testing.T) {
	h := newQuoteHandler(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"detail":"bad key"}`))
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/stock-data?symbol=AAPL", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestMarketDataUpstream5xxBecomes500(t *testing.T) {
	h := newQuoteHandler(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/stock-data?symbol=AAPL", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestMarketDataProviderUnreachable(t *testing.T) {
	h := NewMarketDataHandler(common.NewSilentLogger(), "http://127.0.0.1:1", "k")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/stock-data?symbol=AAPL", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if quoteError(t, rec) == "" {
		t.Error("expected {error} body")
	}
}
