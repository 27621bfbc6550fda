package model

import "errors"

// GamePhase is the closed set of game states
type GamePhase string

const (
	PhaseWaiting           GamePhase = "waiting"
	PhaseSelectingCard     GamePhase = "selecting_card"
	PhaseAllTeamsAnswering GamePhase = "all_teams_answering"
	PhaseShowingResults    GamePhase = "showing_results"
	PhasePaused            GamePhase = "paused"
	PhaseGameEnded         GamePhase = "game_ended"
)

var ErrInvalidTransition = errors.New("invalid phase transition")

// phaseTransitions is the single source of truth for legal moves.
// Paused is reachable from any active phase and always resumes to
// SelectingCard, collapsing whatever phase preceded the pause.
// GameEnded is reachable from any active phase (administrative end).
var phaseTransitions = map[GamePhase][]GamePhase{
	PhaseWaiting:           {PhaseSelectingCard},
	PhaseSelectingCard:     {PhaseAllTeamsAnswering, PhasePaused, PhaseGameEnded},
	PhaseAllTeamsAnswering: {PhaseShowingResults, PhasePaused, PhaseGameEnded},
	PhaseShowingResults:    {PhaseSelectingCard, PhasePaused, PhaseGameEnded},
	PhasePaused:            {PhaseSelectingCard, PhaseGameEnded},
	PhaseGameEnded:         {},
}

// CanTransition reports whether from -> to is in the transition table
func CanTransition(from, to GamePhase) bool {
	for _, next := range phaseTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsActivePhase reports whether the game is running (not waiting or ended)
func IsActivePhase(phase GamePhase) bool {
	switch phase {
	case PhaseSelectingCard, PhaseAllTeamsAnswering, PhaseShowingResults, PhasePaused:
		return true
	}
	return false
}

// GameState is the transient per-session state shared with every client.
// History survives game end in RoundResults and CompletedBingoLines.
type GameState struct {
	SessionID            string               `json:"sessionId"`
	Phase                GamePhase            `json:"phase"`
	CurrentRound         int                  `json:"currentRound"`
	CurrentTurnTeamIndex int                  `json:"currentTurnTeamIndex"`
	SelectedCellIndex    int                  `json:"selectedCellIndex"` // -1 when no cell is selected
	CurrentCard          *GameCard            `json:"currentCard,omitempty"`
	TeamAnswers          []TeamAnswer         `json:"teamAnswers"`
	IsAIProcessing       bool                 `json:"isAiProcessing"`
	RoundResults         []RoundResult        `json:"roundResults"`
	CompletedBingoLines  []CompletedBingoLine `json:"completedBingoLines"`
}

// NewGameState returns the state for a freshly started game
func NewGameState(sessionID string) *GameState {
	return &GameState{
		SessionID:            sessionID,
		Phase:                PhaseSelectingCard,
		CurrentRound:         1,
		CurrentTurnTeamIndex: 0,
		SelectedCellIndex:    -1,
		TeamAnswers:          []TeamAnswer{},
		RoundResults:         []RoundResult{},
		CompletedBingoLines:  []CompletedBingoLine{},
	}
}

// Transition moves the state to the next phase, rejecting moves not in
// the transition table
func (g *GameState) Transition(to GamePhase) error {
	if !CanTransition(g.Phase, to) {
		return ErrInvalidTransition
	}
	g.Phase = to
	return nil
}

// AnswerByTeam finds the live answer submitted by a team this round, or nil
func (g *GameState) AnswerByTeam(teamID string) *TeamAnswer {
	for i := range g.TeamAnswers {
		if g.TeamAnswers[i].TeamID == teamID {
			return &g.TeamAnswers[i]
		}
	}
	return nil
}

// AllTeamsAnswered is the readiness predicate for evaluation: one answer
// per team, no timer
func (g *GameState) AllTeamsAnswered(teamCount int) bool {
	return teamCount > 0 && len(g.TeamAnswers) == teamCount
}

// ClampTurnIndex forces the turn index back into range after an
// administrative team-count edit
func (g *GameState) ClampTurnIndex(teamCount int) {
	if teamCount <= 0 {
		g.CurrentTurnTeamIndex = 0
		return
	}
	if g.CurrentTurnTeamIndex >= teamCount || g.CurrentTurnTeamIndex < 0 {
		g.CurrentTurnTeamIndex = g.CurrentTurnTeamIndex % teamCount
		if g.CurrentTurnTeamIndex < 0 {
			g.CurrentTurnTeamIndex += teamCount
		}
	}
}

// AdvanceTurn rotates to the next team. Turn order is fixed round-robin,
// independent of who won the cell.
func (g *GameState) AdvanceTurn(teamCount int) {
	if teamCount <= 0 {
		return
	}
	g.CurrentTurnTeamIndex = (g.CurrentTurnTeamIndex + 1) % teamCount
}
