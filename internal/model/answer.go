package model

import "time"

// FeedbackSection is one titled block of evaluator feedback
type FeedbackSection struct {
	Title string `json:"title" bson:"title"`
	Body  string `json:"body" bson:"body"`
}

// AnswerMetrics are the five informational axes the evaluator scores,
// each clamped to [-5, 5]. They never enter the final score.
type AnswerMetrics struct {
	Resource   int `json:"resource" bson:"resource"`
	Energy     int `json:"energy" bson:"energy"`
	Trust      int `json:"trust" bson:"trust"`
	Competency int `json:"competency" bson:"competency"`
	Insight    int `json:"insight" bson:"insight"`
}

// EvaluationResult is the evaluator's structured judgment of one answer
type EvaluationResult struct {
	Score    int               `json:"score" bson:"score"` // reasoning score, clamped to [60, 100]
	Sections []FeedbackSection `json:"sections,omitempty" bson:"sections,omitempty"`
	Metrics  AnswerMetrics     `json:"metrics" bson:"metrics"`
}

// TeamAnswer is one team's submission for the current round.
// Exactly one per team per round.
type TeamAnswer struct {
	TeamID      string            `json:"teamId" bson:"teamId"`
	TeamName    string            `json:"teamName" bson:"teamName"`
	ChoiceID    string            `json:"choiceId" bson:"choiceId"`
	Reasoning   string            `json:"reasoning" bson:"reasoning"`
	SubmittedAt time.Time         `json:"submittedAt" bson:"submittedAt"`
	AIScore     int               `json:"aiScore" bson:"aiScore"` // final score, set after evaluation
	AIFeedback  []FeedbackSection `json:"aiFeedback,omitempty" bson:"aiFeedback,omitempty"`
	Metrics     AnswerMetrics     `json:"metrics" bson:"metrics"`
}

// RoundResult is the immutable record of one completed round
type RoundResult struct {
	ID           string       `json:"id" bson:"_id,omitempty"`
	SessionID    string       `json:"sessionId" bson:"sessionId"`
	RoundNumber  int          `json:"roundNumber" bson:"roundNumber"`
	CellIndex    int          `json:"cellIndex" bson:"cellIndex"`
	CardID       string       `json:"cardId" bson:"cardId"`
	CardTitle    string       `json:"cardTitle" bson:"cardTitle"`
	WinnerTeamID string       `json:"winnerTeamId" bson:"winnerTeamId"`
	WinningScore int          `json:"winningScore" bson:"winningScore"`
	TeamAnswers  []TeamAnswer `json:"teamAnswers" bson:"teamAnswers"`
	CompletedAt  time.Time    `json:"completedAt" bson:"completedAt"`
}
