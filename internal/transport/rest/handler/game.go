package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"teambingo/internal/cache"
	"teambingo/internal/model"
	"teambingo/internal/service"
	"teambingo/internal/transport/rest/middleware"
)

// GameHandler handles live game endpoints
type GameHandler struct {
	gameSvc     *service.GameService
	leaderboard cache.LeaderboardCache
}

// NewGameHandler creates a new game handler
func NewGameHandler(gameSvc *service.GameService, leaderboard cache.LeaderboardCache) *GameHandler {
	return &GameHandler{
		gameSvc:     gameSvc,
		leaderboard: leaderboard,
	}
}

// Start handles POST /v1/sessions/{sessionId}/game/start
func (h *GameHandler) Start(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	state, err := h.gameSvc.StartGame(r.Context(), sessionID)
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// State handles GET /v1/sessions/{sessionId}/game/state
func (h *GameHandler) State(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	state, err := h.gameSvc.GetState(r.Context(), sessionID)
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// SelectCellRequest is the request body for picking a board cell
type SelectCellRequest struct {
	TeamID    string `json:"teamId"`
	CellIndex int    `json:"cellIndex"`
}

// SelectCell handles POST /v1/sessions/{sessionId}/game/select-cell
func (h *GameHandler) SelectCell(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	var req SelectCellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Team tokens act for their own team only, admins may act for any
	if teamID := middleware.GetTeamID(r.Context()); teamID != "" {
		req.TeamID = teamID
	}

	state, err := h.gameSvc.SelectCell(r.Context(), sessionID, req.TeamID, req.CellIndex)
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// SubmitAnswerRequest is the request body for a team's answer
type SubmitAnswerRequest struct {
	TeamID    string `json:"teamId"`
	ChoiceID  string `json:"choiceId"`
	Reasoning string `json:"reasoning"`
}

// SubmitAnswer handles POST /v1/sessions/{sessionId}/game/answers
func (h *GameHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	var req SubmitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if teamID := middleware.GetTeamID(r.Context()); teamID != "" {
		req.TeamID = teamID
	}

	state, err := h.gameSvc.SubmitAnswer(r.Context(), sessionID, req.TeamID, req.ChoiceID, req.Reasoning)
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// TriggerEvaluation handles POST /v1/sessions/{sessionId}/game/evaluate
func (h *GameHandler) TriggerEvaluation(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	if err := h.gameSvc.TriggerEvaluation(r.Context(), sessionID); err != nil {
		writeGameError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "evaluating"})
}

// AdvanceRound handles POST /v1/sessions/{sessionId}/game/next-round
func (h *GameHandler) AdvanceRound(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	state, err := h.gameSvc.AdvanceRound(r.Context(), sessionID)
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// Pause handles POST /v1/sessions/{sessionId}/game/pause
func (h *GameHandler) Pause(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	state, err := h.gameSvc.PauseGame(r.Context(), sessionID)
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// Resume handles POST /v1/sessions/{sessionId}/game/resume
func (h *GameHandler) Resume(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	state, err := h.gameSvc.ResumeGame(r.Context(), sessionID)
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// End handles POST /v1/sessions/{sessionId}/game/end
func (h *GameHandler) End(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	state, err := h.gameSvc.EndGame(r.Context(), sessionID)
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// Rankings handles GET /v1/sessions/{sessionId}/game/rankings
func (h *GameHandler) Rankings(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	rankings, err := h.gameSvc.Rankings(r.Context(), sessionID)
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"rankings": rankings})
}

// Leaderboard handles GET /v1/sessions/{sessionId}/game/leaderboard
func (h *GameHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	limit := 16
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	entries, err := h.leaderboard.GetTop(r.Context(), sessionID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := map[string]interface{}{"leaderboard": entries}
	if teamID := r.URL.Query().Get("teamId"); teamID != "" {
		if rank, err := h.leaderboard.GetRank(r.Context(), sessionID, teamID); err == nil {
			resp["teamRank"] = rank
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeGameError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrGameNotStarted):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotYourTurn):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrDuplicateAnswer),
		errors.Is(err, service.ErrEvaluationInProgress),
		errors.Is(err, service.ErrSessionBusy),
		errors.Is(err, model.ErrCellCompleted):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrBoardNotReady),
		errors.Is(err, service.ErrWrongPhase),
		errors.Is(err, service.ErrAnswersIncomplete),
		errors.Is(err, service.ErrUnknownChoice),
		errors.Is(err, model.ErrCellOutOfRange):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
