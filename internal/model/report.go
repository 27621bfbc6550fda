package model

import "time"

// TeamReportRow is one team's line in the final game report
type TeamReportRow struct {
	TeamRanking   `bson:",inline"`
	MetricsTotals AnswerMetrics `json:"metricsTotals" bson:"metricsTotals"`
}

// GameReport is the human-readable summary of a finished game
type GameReport struct {
	ID             string               `json:"id" bson:"_id,omitempty"`
	SessionID      string               `json:"sessionId" bson:"sessionId"`
	SessionName    string               `json:"sessionName" bson:"sessionName"`
	Standings      []TeamReportRow      `json:"standings" bson:"standings"`
	Rounds         []RoundResult        `json:"rounds" bson:"rounds"`
	CompletedLines []CompletedBingoLine `json:"completedLines" bson:"completedLines"`
	CellsCompleted int                  `json:"cellsCompleted" bson:"cellsCompleted"`
	GeneratedAt    time.Time            `json:"generatedAt" bson:"generatedAt"`
}
