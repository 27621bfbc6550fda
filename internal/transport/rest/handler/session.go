package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"teambingo/internal/model"
	"teambingo/internal/service"
)

// SessionHandler handles session administration endpoints
type SessionHandler struct {
	sessionSvc *service.SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionSvc *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc}
}

// CreateSessionRequest is the request body for creating a session
type CreateSessionRequest struct {
	Name     string                `json:"name"`
	Settings model.SessionSettings `json:"settings"`
}

// Create handles POST /v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.sessionSvc.CreateSession(r.Context(), req.Name, req.Settings)
	if err != nil {
		if errors.Is(err, service.ErrBadTeamCount) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

// Get handles GET /v1/sessions/{sessionId}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	session, err := h.sessionSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// List handles GET /v1/sessions
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessionSvc.ListSessions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

// Delete handles DELETE /v1/sessions/{sessionId}
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	if err := h.sessionSvc.DeleteSession(r.Context(), sessionID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// JoinRequest is the request body for joining a team
type JoinRequest struct {
	TeamID     string `json:"teamId"`
	PlayerName string `json:"playerName"`
}

// Join handles POST /v1/join/{accessCode}
func (h *SessionHandler) Join(w http.ResponseWriter, r *http.Request) {
	accessCode := mux.Vars(r)["accessCode"]

	var req JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, token, err := h.sessionSvc.JoinTeam(r.Context(), accessCode, req.TeamID, req.PlayerName)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrTeamNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrSessionEnded):
			writeError(w, http.StatusGone, err.Error())
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessionId": session.ID,
		"teamId":    req.TeamID,
		"token":     token,
	})
}

// RenameTeamRequest is the request body for renaming a team
type RenameTeamRequest struct {
	Name string `json:"name"`
}

// RenameTeam handles PUT /v1/sessions/{sessionId}/teams/{teamId}
func (h *SessionHandler) RenameTeam(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req RenameTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.sessionSvc.RenameTeam(r.Context(), vars["sessionId"], vars["teamId"], req.Name); err != nil {
		if errors.Is(err, service.ErrSessionNotFound) || errors.Is(err, service.ErrTeamNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "renamed"})
}

// ResizeTeamsRequest is the request body for changing the team count
type ResizeTeamsRequest struct {
	TeamCount int `json:"teamCount"`
}

// ResizeTeams handles PUT /v1/sessions/{sessionId}/teams
func (h *SessionHandler) ResizeTeams(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	var req ResizeTeamsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.sessionSvc.ResizeTeams(r.Context(), sessionID, req.TeamCount)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// ImportCardsRequest is the request body for loading scenario cards
type ImportCardsRequest struct {
	PackTitle string           `json:"packTitle,omitempty"`
	Cards     []model.GameCard `json:"cards"`
}

// ImportCards handles POST /v1/sessions/{sessionId}/cards
func (h *SessionHandler) ImportCards(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	var req ImportCardsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.sessionSvc.ImportCards(r.Context(), sessionID, req.PackTitle, req.Cards)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, model.ErrInsufficientCards):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// ImportPackRequest is the request body for loading a saved card pack
type ImportPackRequest struct {
	PackID string `json:"packId"`
}

// ImportPack handles POST /v1/sessions/{sessionId}/cards/pack
func (h *SessionHandler) ImportPack(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	var req ImportPackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.sessionSvc.ImportPack(r.Context(), sessionID, req.PackID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// ReplaceCardRequest is the request body for swapping a board card
type ReplaceCardRequest struct {
	CellIndex int `json:"cellIndex"`
}

// ReplaceCard handles POST /v1/sessions/{sessionId}/cards/replace
func (h *SessionHandler) ReplaceCard(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	var req ReplaceCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	card, exhausted, err := h.sessionSvc.ReplaceCard(r.Context(), sessionID, req.CellIndex)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, model.ErrCellOutOfRange), errors.Is(err, model.ErrCellCompleted):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	if exhausted {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"replaced":       false,
			"sparePoolEmpty": true,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"replaced": true,
		"card":     card,
	})
}
