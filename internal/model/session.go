package model

import "time"

type SessionStatus string

const (
	SessionWaiting SessionStatus = "waiting"
	SessionActive  SessionStatus = "active"
	SessionEnded   SessionStatus = "ended"
)

// TeamColorCount is the size of the team color palette. Teams beyond it
// reuse colors (accepted cosmetic limitation).
const TeamColorCount = 8

// SessionSettings configures a game session
type SessionSettings struct {
	TeamCount  int `json:"teamCount" bson:"teamCount"`
	LinesToWin int `json:"linesToWin" bson:"linesToWin"`
}

// Player is a roster member of a team
type Player struct {
	ID       string    `json:"id" bson:"id"`
	Name     string    `json:"name" bson:"name"`
	JoinedAt time.Time `json:"joinedAt" bson:"joinedAt"`
}

// Team is a competing group within a session
type Team struct {
	ID         string   `json:"id" bson:"id"`
	Name       string   `json:"name" bson:"name"`
	ColorIndex int      `json:"colorIndex" bson:"colorIndex"`
	Players    []Player `json:"players" bson:"players"`
	TotalScore int      `json:"totalScore" bson:"totalScore"`
	BingoCount int      `json:"bingoCount" bson:"bingoCount"`
	OwnedCells []int    `json:"ownedCells" bson:"ownedCells"`
}

// TeamColorIndex maps a team's position to a palette slot
func TeamColorIndex(teamIndex int) int {
	return teamIndex % TeamColorCount
}

// Session is one game instance: teams, card pool, and the 25-cell board.
// Created once, mutated for its lifetime, never resurrected after ended.
type Session struct {
	ID         string          `json:"id" bson:"_id,omitempty"`
	Name       string          `json:"name" bson:"name"`
	Status     SessionStatus   `json:"status" bson:"status"`
	AccessCode string          `json:"accessCode" bson:"accessCode"`
	Settings   SessionSettings `json:"settings" bson:"settings"`
	Teams      []Team          `json:"teams" bson:"teams"`
	Cards      []GameCard      `json:"cards" bson:"cards"`
	Cells      []BingoCell     `json:"cells" bson:"cells"`
	SpareCards []GameCard      `json:"spareCards" bson:"spareCards"`
	CreatedAt  time.Time       `json:"createdAt" bson:"createdAt"`
	EndedAt    *time.Time      `json:"endedAt,omitempty" bson:"endedAt,omitempty"`
}

// TeamByID finds a team on the session, or nil
func (s *Session) TeamByID(teamID string) *Team {
	for i := range s.Teams {
		if s.Teams[i].ID == teamID {
			return &s.Teams[i]
		}
	}
	return nil
}

// TeamIndex returns the position of a team in the session order, or -1
func (s *Session) TeamIndex(teamID string) int {
	for i := range s.Teams {
		if s.Teams[i].ID == teamID {
			return i
		}
	}
	return -1
}

// BoardReady reports whether the 25 cells have cards bound
func (s *Session) BoardReady() bool {
	return len(s.Cells) == BoardSize
}
