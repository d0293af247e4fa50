// Package mcp exposes a small MCP tool surface over the Snapfolio backend,
// letting agent clients read the same portfolio, snapshot, and calendar data
// the web screens show.
package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/snapfolio/snapfolio-portal/internal/auth"
	"github.com/snapfolio/snapfolio-portal/internal/client"
	"github.com/snapfolio/snapfolio-portal/internal/common"
	"github.com/snapfolio/snapfolio-portal/internal/config"
)

// sessionKey carries the member session token through tool-call contexts.
type sessionKey struct{}

func withSession(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, sessionKey{}, token)
}

// sessionFrom returns the session token attached by ServeHTTP, or "".
func sessionFrom(ctx context.Context) string {
	token, _ := ctx.Value(sessionKey{}).(string)
	return token
}

// Handler is the HTTP handler for the /mcp endpoint. It wraps mcp-go's
// StreamableHTTPServer and delegates to it after authentication.
type Handler struct {
	streamable *mcpserver.StreamableHTTPServer
	logger     *common.Logger
	jwtSecret  []byte
}

// NewHandler creates the MCP handler with the portal's static tool set.
func NewHandler(backend *client.Backend, jwtSecret []byte, logger *common.Logger) *Handler {
	srv := mcpserver.NewMCPServer(
		"snapfolio-portal",
		config.GetVersion(),
		mcpserver.WithToolCapabilities(true),
	)

	count := registerTools(srv, backend)

	streamable := mcpserver.NewStreamableHTTPServer(srv,
		mcpserver.WithStateLess(true),
	)

	logger.Info().Int("tools", count).Msg("MCP handler initialized")

	return &Handler{
		streamable: streamable,
		logger:     logger,
		jwtSecret:  jwtSecret,
	}
}

// ServeHTTP authenticates the caller (Bearer token first, session cookie as
// fallback), attaches the session token to the request context for tool
// handlers, and delegates to the streamable server.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := h.sessionToken(r)
	if token == "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{
			"error":             "unauthorized",
			"error_description": "Authentication required to access MCP endpoint",
		})
		return
	}

	h.streamable.ServeHTTP(w, r.WithContext(withSession(r.Context(), token)))
}

// sessionToken returns a validated session token from the request, or "".
func (h *Handler) sessionToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if _, err := auth.ValidateJWT(token, h.jwtSecret); err == nil {
			return token
		}
	}

	cookie, err := r.Cookie(auth.SessionCookie)
	if err != nil || cookie.Value == "" {
		return ""
	}
	if _, err := auth.ValidateJWT(cookie.Value, h.jwtSecret); err != nil {
		return ""
	}
	return cookie.Value
}
