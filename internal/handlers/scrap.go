package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/snapfolio/snapfolio-portal/internal/auth"
	"github.com/snapfolio/snapfolio-portal/internal/client"
	"github.com/snapfolio/snapfolio-portal/internal/common"
	"github.com/snapfolio/snapfolio-portal/internal/events"
)

// ScrapHandler serves the scrap (bookmark) screens and actions. Mutations are
// confirmed by the backend before the UI reflects them; there are no
// optimistic updates for destructive actions.
type ScrapHandler struct {
	logger    *common.Logger
	backend   *client.Backend
	bus       *events.Bus
	jwtSecret []byte
}

// NewScrapHandler creates a new scrap handler.
func NewScrapHandler(logger *common.Logger, backend *client.Backend, bus *events.Bus, jwtSecret []byte) *ScrapHandler {
	return &ScrapHandler{logger: logger, backend: backend, bus: bus, jwtSecret: jwtSecret}
}

// Groups handles GET /api/scraps/groups and POST /api/scraps/groups.
func (h *ScrapHandler) Groups(w http.ResponseWriter, r *http.Request) {
	loggedIn, _ := auth.IsLoggedIn(r, h.jwtSecret)
	if !loggedIn {
		WriteFailure(w, http.StatusUnauthorized, "UNAUTHORIZED", "login required")
		return
	}
	session := auth.SessionToken(r)

	switch r.Method {
	case http.MethodGet:
		groups, err := h.backend.GetScrapGroups(r.Context(), session)
		if err != nil {
			WriteBackendError(w, err)
			return
		}
		WriteData(w, groups)

	case http.MethodPost:
		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
			WriteFailure(w, http.StatusBadRequest, "BAD-REQUEST", "group name is required")
			return
		}
		group, err := h.backend.CreateScrapGroup(r.Context(), session, req.Name)
		if err != nil {
			WriteBackendError(w, err)
			return
		}
		h.bus.Publish(events.ScrapChanged, "scrap group created", map[string]interface{}{"groupId": group.ID})
		WriteData(w, group)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// GroupItems handles GET /api/scraps/groups/{id}.
func (h *ScrapHandler) GroupItems(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	loggedIn, _ := auth.IsLoggedIn(r, h.jwtSecret)
	if !loggedIn {
		WriteFailure(w, http.StatusUnauthorized, "UNAUTHORIZED", "login required")
		return
	}

	groupID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		WriteFailure(w, http.StatusBadRequest, "BAD-REQUEST", "invalid group id")
		return
	}

	cards, err := h.backend.GetScrapsByGroup(r.Context(), auth.SessionToken(r), groupID)
	if err != nil {
		WriteBackendError(w, err)
		return
	}
	WriteData(w, cards)
}

// Save handles POST /api/scraps.
func (h *ScrapHandler) Save(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	loggedIn, _ := auth.IsLoggedIn(r, h.jwtSecret)
	if !loggedIn {
		WriteFailure(w, http.StatusUnauthorized, "UNAUTHORIZED", "login required")
		return
	}

	var req struct {
		SnapshotID int64 `json:"snapshotId"`
		GroupID    int64 `json:"groupId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SnapshotID == 0 {
		WriteFailure(w, http.StatusBadRequest, "BAD-REQUEST", "snapshotId is required")
		return
	}

	if err := h.backend.AddScrap(r.Context(), auth.SessionToken(r), req.SnapshotID, req.GroupID); err != nil {
		WriteBackendError(w, err)
		return
	}
	h.bus.Publish(events.ScrapChanged, "snapshot scrapped", map[string]interface{}{"snapshotId": req.SnapshotID})
	WriteData(w, map[string]int64{"snapshotId": req.SnapshotID})
}

// Remove handles DELETE /api/scraps/{id}. The removal is reflected only after
// the backend confirms it.
func (h *ScrapHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}
	loggedIn, _ := auth.IsLoggedIn(r, h.jwtSecret)
	if !loggedIn {
		WriteFailure(w, http.StatusUnauthorized, "UNAUTHORIZED", "login required")
		return
	}

	snapshotID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		WriteFailure(w, http.StatusBadRequest, "BAD-REQUEST", "invalid snapshot id")
		return
	}

	if err := h.backend.RemoveScrap(r.Context(), auth.SessionToken(r), snapshotID); err != nil {
		WriteBackendError(w, err)
		return
	}
	h.bus.Publish(events.ScrapChanged, "scrap removed", map[string]interface{}{"snapshotId": snapshotID})
	WriteData(w, map[string]int64{"snapshotId": snapshotID})
}
