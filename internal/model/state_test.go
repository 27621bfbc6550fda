package model

import (
	"errors"
	"testing"
)

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		from, to GamePhase
		ok       bool
	}{
		{PhaseWaiting, PhaseSelectingCard, true},
		{PhaseSelectingCard, PhaseAllTeamsAnswering, true},
		{PhaseAllTeamsAnswering, PhaseShowingResults, true},
		{PhaseShowingResults, PhaseSelectingCard, true},
		{PhaseShowingResults, PhaseGameEnded, true},
		{PhaseSelectingCard, PhasePaused, true},
		{PhaseAllTeamsAnswering, PhasePaused, true},
		{PhasePaused, PhaseSelectingCard, true},
		{PhaseSelectingCard, PhaseGameEnded, true},

		{PhaseWaiting, PhaseAllTeamsAnswering, false},
		{PhaseWaiting, PhasePaused, false},
		{PhaseWaiting, PhaseGameEnded, false},
		{PhaseSelectingCard, PhaseShowingResults, false},
		{PhaseAllTeamsAnswering, PhaseSelectingCard, false},
		{PhasePaused, PhaseAllTeamsAnswering, false},
		{PhaseGameEnded, PhaseSelectingCard, false},
		{PhaseGameEnded, PhaseWaiting, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.ok {
			t.Fatalf("%s -> %s: expected %v, got %v", tt.from, tt.to, tt.ok, got)
		}
	}
}

func TestTransitionRejectsIllegalMove(t *testing.T) {
	state := NewGameState("sess-1")
	if state.Phase != PhaseSelectingCard {
		t.Fatalf("new game starts in %s", state.Phase)
	}
	if err := state.Transition(PhaseShowingResults); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if state.Phase != PhaseSelectingCard {
		t.Fatal("phase changed on rejected transition")
	}
}

func TestNewGameStateDefaults(t *testing.T) {
	state := NewGameState("sess-1")
	if state.CurrentRound != 1 {
		t.Fatalf("expected round 1, got %d", state.CurrentRound)
	}
	if state.SelectedCellIndex != -1 {
		t.Fatalf("expected no selected cell, got %d", state.SelectedCellIndex)
	}
	if state.CurrentTurnTeamIndex != 0 {
		t.Fatalf("expected turn index 0, got %d", state.CurrentTurnTeamIndex)
	}
}

func TestAdvanceTurnRoundRobin(t *testing.T) {
	state := NewGameState("sess-1")
	order := []int{1, 2, 3, 0, 1}
	for i, want := range order {
		state.AdvanceTurn(4)
		if state.CurrentTurnTeamIndex != want {
			t.Fatalf("advance %d: expected index %d, got %d", i, want, state.CurrentTurnTeamIndex)
		}
	}
}

func TestClampTurnIndexAfterTeamEdit(t *testing.T) {
	state := NewGameState("sess-1")
	state.CurrentTurnTeamIndex = 3

	// Team count reduced from 4 to 2: index must come back into range.
	state.ClampTurnIndex(2)
	if state.CurrentTurnTeamIndex != 1 {
		t.Fatalf("expected clamped index 1, got %d", state.CurrentTurnTeamIndex)
	}

	state.CurrentTurnTeamIndex = 1
	state.ClampTurnIndex(4)
	if state.CurrentTurnTeamIndex != 1 {
		t.Fatalf("in-range index must not move, got %d", state.CurrentTurnTeamIndex)
	}
}

func TestAllTeamsAnswered(t *testing.T) {
	state := NewGameState("sess-1")
	state.TeamAnswers = []TeamAnswer{{TeamID: "team_0"}, {TeamID: "team_1"}}

	if state.AllTeamsAnswered(3) {
		t.Fatal("2 of 3 answers reported ready")
	}
	if !state.AllTeamsAnswered(2) {
		t.Fatal("2 of 2 answers not reported ready")
	}
	if state.AllTeamsAnswered(0) {
		t.Fatal("zero teams must never be ready")
	}
}

func TestIsActivePhase(t *testing.T) {
	active := []GamePhase{PhaseSelectingCard, PhaseAllTeamsAnswering, PhaseShowingResults, PhasePaused}
	for _, phase := range active {
		if !IsActivePhase(phase) {
			t.Fatalf("%s should be active", phase)
		}
	}
	for _, phase := range []GamePhase{PhaseWaiting, PhaseGameEnded} {
		if IsActivePhase(phase) {
			t.Fatalf("%s should not be active", phase)
		}
	}
}
