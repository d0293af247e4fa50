package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/snapfolio/snapfolio-portal/internal/auth"
	"github.com/snapfolio/snapfolio-portal/internal/cache"
	"github.com/snapfolio/snapfolio-portal/internal/client"
	"github.com/snapfolio/snapfolio-portal/internal/common"
)

var testSecret = []byte("handler-test-secret")

// fakeBackend spins up an envelope-speaking backend and returns a client for it.
func fakeBackend(t *testing.T, mux *http.ServeMux) *client.Backend {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return client.New(srv.URL, 5*time.Second, common.NewSilentLogger())
}

func envelopeOK(data string) string {
	return `{"status":true,"code":"OK","data":` + data + `}`
}

// authedRequest builds a request carrying a valid session cookie.
func authedRequest(t *testing.T, method, target, sub string) *http.Request {
	t.Helper()
	r := httptest.NewRequest(method, target, nil)
	token := auth.SignJWT(sub, sub+"@snapfolio.test", time.Hour, testSecret)
	r.Header.Set("Cookie", auth.SessionCookie+"="+token)
	return r
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) (Response, json.RawMessage) {
	t.Helper()
	var resp struct {
		Status  bool            `json:"status"`
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response not an envelope: %v\nbody: %s", err, rec.Body.String())
	}
	return Response{Status: resp.Status, Code: resp.Code, Message: resp.Message}, resp.Data
}

func noopPreloader() *cache.Preloader {
	return cache.NewPreloader(func(context.Context, string) error { return nil }, 10)
}
