// Package handlers contains the portal's per-screen HTTP endpoints.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/snapfolio/snapfolio-portal/internal/client"
	"github.com/snapfolio/snapfolio-portal/internal/models"
)

// today returns the current calendar date key.
func today() string {
	return time.Now().Format(models.DateKeyFormat)
}

// Response is the portal's uniform envelope, mirroring the backend contract
// so the browser sees one shape everywhere.
type Response struct {
	Status  bool        `json:"status"`
	Code    string      `json:"code"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// RequireMethod validates that the request uses the specified method.
// Returns true if it matches, false otherwise (and writes the error response).
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method || (method == http.MethodGet && r.Method == http.MethodHead) {
		return true
	}
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	return false
}

// WriteJSON writes a JSON response with the specified status code and body.
func WriteJSON(w http.ResponseWriter, statusCode int, body interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(body)
}

// WriteData writes a successful envelope.
func WriteData(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, Response{Status: true, Code: "OK", Data: data})
}

// WriteFailure writes a failed envelope.
func WriteFailure(w http.ResponseWriter, statusCode int, code, message string) error {
	return WriteJSON(w, statusCode, Response{Status: false, Code: code, Message: message})
}

// WriteBackendError maps a backend client error onto the portal envelope:
// session expiry passes AUTH-002 through with a login redirect hint, business
// failures carry the server-provided message, and everything else degrades to
// a generic upstream failure.
func WriteBackendError(w http.ResponseWriter, err error) error {
	if errors.Is(err, client.ErrSessionExpired) {
		return WriteJSON(w, http.StatusUnauthorized, Response{
			Status:  false,
			Code:    client.AuthExpiredCode,
			Message: "session expired",
			Data:    map[string]string{"redirect": "/login"},
		})
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = "request failed"
		}
		code := apiErr.Code
		if code == "" {
			code = "UPSTREAM-ERROR"
		}
		// Client errors (wrong password, missing scrap) keep the backend's
		// status; server-side failures surface as a bad gateway.
		status := http.StatusBadGateway
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			status = apiErr.StatusCode
		}
		return WriteFailure(w, status, code, msg)
	}

	return WriteFailure(w, http.StatusBadGateway, "UPSTREAM-ERROR", "failed to load data")
}
