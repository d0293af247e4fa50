package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/snapfolio/snapfolio-portal/internal/auth"
	"github.com/snapfolio/snapfolio-portal/internal/cache"
	"github.com/snapfolio/snapfolio-portal/internal/client"
	"github.com/snapfolio/snapfolio-portal/internal/common"
	"github.com/snapfolio/snapfolio-portal/internal/models"
)

// AuthHandler handles login, logout, session status, and the multi-step
// signup flow.
type AuthHandler struct {
	logger    *common.Logger
	backend   *client.Backend
	guard     *auth.RedirectGuard
	signup    *auth.SignupStore
	newsCache *cache.Cache
	jwtSecret []byte
	devMode   bool
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(logger *common.Logger, backend *client.Backend, guard *auth.RedirectGuard, signup *auth.SignupStore, newsCache *cache.Cache, jwtSecret []byte, devMode bool) *AuthHandler {
	return &AuthHandler{
		logger:    logger,
		backend:   backend,
		guard:     guard,
		signup:    signup,
		newsCache: newsCache,
		jwtSecret: jwtSecret,
		devMode:   devMode,
	}
}

// Login handles POST /api/auth/login. A fresh login re-arms the redirect
// guard and clears any cached data from the previous session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		WriteFailure(w, http.StatusBadRequest, "BAD-REQUEST", "email and password are required")
		return
	}

	token, err := h.backend.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteBackendError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   !h.devMode,
		SameSite: http.SameSiteLaxMode,
	})

	h.guard.Reset()
	h.newsCache.Clear()

	h.logger.Info().Str("email", req.Email).Msg("member logged in")
	WriteData(w, models.Member{LoggedIn: true})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	h.guard.Reset()
	h.newsCache.Clear()

	WriteData(w, models.Member{LoggedIn: false})
}

// Session handles GET /api/auth/session, reporting the login flag only.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	loggedIn, _ := auth.IsLoggedIn(r, h.jwtSecret)
	WriteData(w, models.Member{LoggedIn: loggedIn})
}

// SignupBegin handles POST /api/auth/signup/begin, starting a flow.
func (h *AuthHandler) SignupBegin(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	WriteData(w, map[string]string{"flowId": h.signup.Begin()})
}

// SignupStep handles POST /api/auth/signup/step, merging one step's fields.
func (h *AuthHandler) SignupStep(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		FlowID string            `json:"flowId"`
		Fields map[string]string `json:"fields"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FlowID == "" {
		WriteFailure(w, http.StatusBadRequest, "BAD-REQUEST", "flowId is required")
		return
	}

	if !h.signup.SetFields(req.FlowID, req.Fields) {
		WriteFailure(w, http.StatusGone, "FLOW-EXPIRED", "signup flow expired, start again")
		return
	}
	WriteData(w, map[string]string{"flowId": req.FlowID})
}

// SignupComplete handles POST /api/auth/signup/complete, submitting the
// collected fields to the backend and discarding the flow.
func (h *AuthHandler) SignupComplete(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		FlowID string `json:"flowId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FlowID == "" {
		WriteFailure(w, http.StatusBadRequest, "BAD-REQUEST", "flowId is required")
		return
	}

	fields, ok := h.signup.Complete(req.FlowID)
	if !ok {
		WriteFailure(w, http.StatusGone, "FLOW-EXPIRED", "signup flow expired, start again")
		return
	}

	if err := h.backend.Signup(r.Context(), fields); err != nil {
		WriteBackendError(w, err)
		return
	}

	h.logger.Info().Msg("signup completed")
	WriteData(w, map[string]bool{"created": true})
}
