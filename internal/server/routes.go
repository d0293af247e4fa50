package server

import "net/http"

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Session lifecycle
	mux.HandleFunc("POST /api/auth/login", s.app.AuthHandler.Login)
	mux.HandleFunc("POST /api/auth/logout", s.app.AuthHandler.Logout)
	mux.HandleFunc("GET /api/auth/session", s.app.AuthHandler.Session)
	mux.HandleFunc("POST /api/auth/signup/begin", s.app.AuthHandler.SignupBegin)
	mux.HandleFunc("POST /api/auth/signup/step", s.app.AuthHandler.SignupStep)
	mux.HandleFunc("POST /api/auth/signup/complete", s.app.AuthHandler.SignupComplete)

	// Home screen (portfolio + today's snapshots)
	mux.HandleFunc("GET /api/home", s.app.HomeHandler.ServeHTTP)

	// Per-stock news
	mux.HandleFunc("GET /api/stock/{code}/news", s.app.StockHandler.ServeHTTP)

	// Snapshot card navigation
	mux.HandleFunc("GET /api/cards/dates", s.app.CardsHandler.Dates)
	mux.HandleFunc("GET /api/cards/current", s.app.CardsHandler.Current)
	mux.HandleFunc("POST /api/cards/select", s.app.CardsHandler.Select)
	mux.HandleFunc("POST /api/cards/advance", s.app.CardsHandler.Advance)
	mux.HandleFunc("POST /api/cards/jump", s.app.CardsHandler.Jump)

	// Earnings and disclosure calendar
	mux.HandleFunc("GET /api/calendar", s.app.CalendarHandler.ServeHTTP)
	mux.HandleFunc("GET /api/disclosures/{id}", s.app.DisclosureHandler.ServeHTTP)

	// Scraps
	mux.HandleFunc("/api/scraps/groups", s.app.ScrapHandler.Groups)
	mux.HandleFunc("GET /api/scraps/groups/{id}", s.app.ScrapHandler.GroupItems)
	mux.HandleFunc("POST /api/scraps", s.app.ScrapHandler.Save)
	mux.HandleFunc("DELETE /api/scraps/{id}", s.app.ScrapHandler.Remove)

	// Market data proxy (normalized third-party quote API)
	mux.HandleFunc("GET /api/stock-data", s.app.MarketDataHandler.ServeHTTP)

	// Server-sent events for in-app notifications
	mux.HandleFunc("GET /notifications/stream", s.app.NotificationsHandler.ServeHTTP)

	// MCP endpoint (JSON-RPC over HTTP)
	if s.app.MCPHandler != nil {
		mux.Handle("/mcp", s.app.MCPHandler)
	}

	mux.HandleFunc("GET /api/health", s.app.HealthHandler.ServeHTTP)
	mux.HandleFunc("GET /api/version", s.app.VersionHandler.ServeHTTP)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.handleNotFound)

	return mux
}

// handleNotFound returns a JSON 404 for unmatched API routes.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"error":"Not Found","message":"The requested endpoint does not exist"}`))
}
