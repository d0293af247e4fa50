// Package client communicates with the Snapfolio backend REST API.
// Every endpoint wraps its payload in {status, code, message, data}; a code
// of "AUTH-002" anywhere in a response signals session expiry.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/snapfolio/snapfolio-portal/internal/common"
	"github.com/snapfolio/snapfolio-portal/internal/models"
)

// AuthExpiredCode is the backend's sentinel response code for an expired session.
const AuthExpiredCode = "AUTH-002"

// maxResponseSize caps response bodies to prevent OOM from unexpectedly large responses.
const maxResponseSize = 10 << 20 // 10MB

// ErrSessionExpired is returned when the backend answers with AUTH-002.
var ErrSessionExpired = errors.New("session expired")

// APIError is a business-rule failure reported by the backend, either a
// non-2xx status or a {status:false} envelope. Message carries the
// server-provided text when present.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend error %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("backend error %s (HTTP %d)", e.Code, e.StatusCode)
}

// envelope is the uniform backend response wrapper.
type envelope struct {
	Status  bool            `json:"status"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Backend is the HTTP client for the Snapfolio backend.
type Backend struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger

	// onSessionExpired fires when any response carries AUTH-002. The auth
	// layer deduplicates it to at most one redirect per session lifecycle.
	onSessionExpired func()
}

// New creates a Backend targeting the given base URL.
func New(baseURL string, timeout time.Duration, logger *common.Logger) *Backend {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Backend{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// OnSessionExpired registers the session-expiry callback.
func (b *Backend) OnSessionExpired(fn func()) {
	b.onSessionExpired = fn
}

// BaseURL returns the configured backend base URL.
func (b *Backend) BaseURL() string {
	return b.baseURL
}

// do performs a request and unwraps the backend envelope.
func (b *Backend) do(ctx context.Context, method, path string, payload interface{}, session string) (json.RawMessage, error) {
	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if session != "" {
		req.Header.Set("Authorization", "Bearer "+session)
	}

	start := time.Now()
	resp, err := b.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		b.logger.Warn().Str("method", method).Str("path", path).Int64("duration_ms", duration.Milliseconds()).Str("error", err.Error()).Msg("backend request failed")
		return nil, fmt.Errorf("failed to reach backend: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	b.logger.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Int64("duration_ms", duration.Milliseconds()).Msg("backend response")

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid server response: %w", err)
	}

	// AUTH-002 can arrive inside a 200-status body; it always wins.
	if env.Code == AuthExpiredCode {
		if b.onSessionExpired != nil {
			b.onSessionExpired()
		}
		return nil, ErrSessionExpired
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Status {
		return nil, &APIError{StatusCode: resp.StatusCode, Code: env.Code, Message: env.Message}
	}

	return env.Data, nil
}

func (b *Backend) get(ctx context.Context, path, session string) (json.RawMessage, error) {
	return b.do(ctx, http.MethodGet, path, nil, session)
}

// GetPortfolio fetches the member's holdings.
// GET /api/v1/portfolio/stocks
func (b *Backend) GetPortfolio(ctx context.Context, session string) ([]models.UnifiedStockItem, error) {
	data, err := b.get(ctx, "/api/v1/portfolio/stocks", session)
	if err != nil {
		return nil, err
	}
	return UnmarshalStockList(data)
}

// GetSnapshotDates fetches the dates that have snapshot cards.
// GET /api/v1/snapshots/dates
func (b *Backend) GetSnapshotDates(ctx context.Context, session string) ([]string, error) {
	data, err := b.get(ctx, "/api/v1/snapshots/dates", session)
	if err != nil {
		return nil, err
	}
	var dates []string
	if err := json.Unmarshal(data, &dates); err != nil {
		return nil, fmt.Errorf("invalid server response: %w", err)
	}
	return dates, nil
}

// GetSnapshotsByDate fetches the card batch for one calendar date.
// GET /api/v1/snapshots?date=YYYY-MM-DD
func (b *Backend) GetSnapshotsByDate(ctx context.Context, session, date string) ([]models.SnapshotCard, error) {
	data, err := b.get(ctx, "/api/v1/snapshots?date="+url.QueryEscape(date), session)
	if err != nil {
		return nil, err
	}
	return UnmarshalSnapshotList(data)
}

// GetNewsByStock fetches snapshots for one stock code.
// GET /api/v1/news/stock/{code}
func (b *Backend) GetNewsByStock(ctx context.Context, session, code string) ([]models.SnapshotCard, error) {
	data, err := b.get(ctx, "/api/v1/news/stock/"+url.PathEscape(code), session)
	if err != nil {
		return nil, err
	}
	return UnmarshalSnapshotList(data)
}

// GetDisclosureDetail fetches one disclosure by ID.
// GET /api/v1/disclosures/{id}
func (b *Backend) GetDisclosureDetail(ctx context.Context, session string, id int64) (*models.Disclosure, error) {
	data, err := b.get(ctx, fmt.Sprintf("/api/v1/disclosures/%d", id), session)
	if err != nil {
		return nil, err
	}
	var d models.Disclosure
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("invalid server response: %w", err)
	}
	return &d, nil
}

// GetEarningCalls fetches earning-call events for a month (YYYY-MM).
// GET /api/v1/calendar/earning-calls?month=
func (b *Backend) GetEarningCalls(ctx context.Context, session, month string) ([]models.EarningCall, error) {
	data, err := b.get(ctx, "/api/v1/calendar/earning-calls?month="+url.QueryEscape(month), session)
	if err != nil {
		return nil, err
	}
	var calls []models.EarningCall
	if err := json.Unmarshal(data, &calls); err != nil {
		return nil, fmt.Errorf("invalid server response: %w", err)
	}
	return calls, nil
}

// GetDisclosures fetches disclosure events for a month (YYYY-MM).
// GET /api/v1/calendar/disclosures?month=
func (b *Backend) GetDisclosures(ctx context.Context, session, month string) ([]models.Disclosure, error) {
	data, err := b.get(ctx, "/api/v1/calendar/disclosures?month="+url.QueryEscape(month), session)
	if err != nil {
		return nil, err
	}
	var ds []models.Disclosure
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("invalid server response: %w", err)
	}
	return ds, nil
}

// GetScrapGroups fetches the member's scrap groups.
// GET /api/v1/scraps/groups
func (b *Backend) GetScrapGroups(ctx context.Context, session string) ([]models.ScrapGroup, error) {
	data, err := b.get(ctx, "/api/v1/scraps/groups", session)
	if err != nil {
		return nil, err
	}
	var groups []models.ScrapGroup
	if err := json.Unmarshal(data, &groups); err != nil {
		return nil, fmt.Errorf("invalid server response: %w", err)
	}
	return groups, nil
}

// GetScrapsByGroup fetches the snapshots saved in one group.
// GET /api/v1/scraps/groups/{id}
func (b *Backend) GetScrapsByGroup(ctx context.Context, session string, groupID int64) ([]models.SnapshotCard, error) {
	data, err := b.get(ctx, fmt.Sprintf("/api/v1/scraps/groups/%d", groupID), session)
	if err != nil {
		return nil, err
	}
	return UnmarshalSnapshotList(data)
}

// CreateScrapGroup creates a named group and returns it.
// POST /api/v1/scraps/groups
func (b *Backend) CreateScrapGroup(ctx context.Context, session, name string) (*models.ScrapGroup, error) {
	data, err := b.do(ctx, http.MethodPost, "/api/v1/scraps/groups", map[string]string{"name": name}, session)
	if err != nil {
		return nil, err
	}
	var g models.ScrapGroup
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("invalid server response: %w", err)
	}
	return &g, nil
}

// AddScrap saves a snapshot into a group.
// POST /api/v1/scraps
func (b *Backend) AddScrap(ctx context.Context, session string, snapshotID, groupID int64) error {
	_, err := b.do(ctx, http.MethodPost, "/api/v1/scraps", map[string]int64{
		"snapshotId": snapshotID,
		"groupId":    groupID,
	}, session)
	return err
}

// RemoveScrap deletes a saved snapshot.
// DELETE /api/v1/scraps/{snapshotId}
func (b *Backend) RemoveScrap(ctx context.Context, session string, snapshotID int64) error {
	_, err := b.do(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/scraps/%d", snapshotID), nil, session)
	return err
}

// Login exchanges credentials for a session token.
// POST /api/v1/auth/login
func (b *Backend) Login(ctx context.Context, email, password string) (string, error) {
	data, err := b.do(ctx, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	if err != nil {
		return "", err
	}
	var result struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("invalid server response: %w", err)
	}
	return result.Token, nil
}

// Signup submits the collected multi-step signup fields.
// POST /api/v1/auth/signup
func (b *Backend) Signup(ctx context.Context, fields map[string]string) error {
	_, err := b.do(ctx, http.MethodPost, "/api/v1/auth/signup", fields, "")
	return err
}
