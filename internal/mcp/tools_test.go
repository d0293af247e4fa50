package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapfolio/snapfolio-portal/internal/auth"
	"github.com/snapfolio/snapfolio-portal/internal/client"
	"github.com/snapfolio/snapfolio-portal/internal/common"
)

var testSecret = []byte("mcp-test-secret")

func fakeBackend(t *testing.T, mux *http.ServeMux) *client.Backend {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return client.New(srv.URL, 5*time.Second, common.NewSilentLogger())
}

func envelopeOK(data string) string {
	return `{"status":true,"code":"OK","data":` + data + `}`
}

func toolCtx() context.Context {
	return withSession(context.Background(), "tok-abc")
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "content is not text")
	return text.Text
}

func TestPortfolioTool(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/portfolio/stocks", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-abc", r.Header.Get("Authorization"))
		w.Write([]byte(envelopeOK(`{"stocks":[{"ticker":"AAPL","name":"Apple","quantity":"2","currentPrice":"150"}]}`)))
	})

	handle := portfolioToolHandler(fakeBackend(t, mux))
	res, err := handle(toolCtx(), mcp.CallToolRequest{})
	require.NoError(t, err)
	require.False(t, res.IsError)

	var out struct {
		Stocks []struct {
			Ticker string `json:"ticker"`
		} `json:"stocks"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	require.Len(t, out.Stocks, 1)
	assert.Equal(t, "AAPL", out.Stocks[0].Ticker)
}

func TestSnapshotsToolWithoutDateListsDates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/snapshots/dates", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(envelopeOK(`["2026-03-01","2026-03-02"]`)))
	})

	handle := snapshotsToolHandler(fakeBackend(t, mux))
	res, err := handle(toolCtx(), mcp.CallToolRequest{})
	require.NoError(t, err)
	require.False(t, res.IsError)

	var out struct {
		Dates []string `json:"dates"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.Equal(t, []string{"2026-03-01", "2026-03-02"}, out.Dates)
}

func TestSnapshotsToolWithDate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/snapshots", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2026-03-02", r.URL.Query().Get("date"))
		w.Write([]byte(envelopeOK(`[{"snapshotId":101,"stockCode":"AAPL","createdAt":"2026-03-02T09:00:00Z"}]`)))
	})

	handle := snapshotsToolHandler(fakeBackend(t, mux))
	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"date": "2026-03-02"}
	res, err := handle(toolCtx(), req)
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), `"snapshotId":101`)
}

func TestCalendarToolRequiresMonth(t *testing.T) {
	handle := calendarToolHandler(fakeBackend(t, http.NewServeMux()))
	res, err := handle(toolCtx(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestCalendarToolMergesSources(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/calendar/earning-calls", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(envelopeOK(`[{"id":1,"date":"2026-03-02","stockId":"AAPL","stockName":"Apple"}]`)))
	})
	mux.HandleFunc("/api/v1/calendar/disclosures", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(envelopeOK(`[{"id":10,"date":"2026-03-02","stockId":"AAPL","title":"8-K"}]`)))
	})

	handle := calendarToolHandler(fakeBackend(t, mux))
	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"month": "2026-03"}
	res, err := handle(toolCtx(), req)
	require.NoError(t, err)
	require.False(t, res.IsError)

	text := resultText(t, res)
	assert.Contains(t, text, `"type":"both"`)
	assert.Contains(t, text, `"month":"2026-03"`)
}

func TestToolSessionExpiry(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/portfolio/stocks", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":false,"code":"AUTH-002","message":"session expired"}`))
	})

	handle := portfolioToolHandler(fakeBackend(t, mux))
	res, err := handle(toolCtx(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "session expired")
}

func TestVersionTool(t *testing.T) {
	handle := versionToolHandler()
	res, err := handle(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	require.False(t, res.IsError)

	var out map[string]string
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.NotEmpty(t, out["version"])
}

func TestHandlerRejectsUnauthenticated(t *testing.T) {
	h := NewHandler(fakeBackend(t, http.NewServeMux()), testSecret, common.NewSilentLogger())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/mcp", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unauthorized", body["error"])
}

func TestSessionTokenSources(t *testing.T) {
	h := NewHandler(fakeBackend(t, http.NewServeMux()), testSecret, common.NewSilentLogger())
	token := auth.SignJWT("m1", "m1@snapfolio.test", time.Hour, testSecret)

	r := httptest.NewRequest("POST", "/mcp", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	assert.Equal(t, token, h.sessionToken(r))

	r = httptest.NewRequest("POST", "/mcp", nil)
	r.Header.Set("Cookie", auth.SessionCookie+"="+token)
	assert.Equal(t, token, h.sessionToken(r))

	r = httptest.NewRequest("POST", "/mcp", nil)
	r.Header.Set("Authorization", "Bearer not-a-token")
	assert.Equal(t, "", h.sessionToken(r))
}
