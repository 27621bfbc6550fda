package model

import (
	"math"
	"sort"
)

const (
	// MinReasoningScore and MaxReasoningScore bound the evaluator's
	// judgment of free-text reasoning.
	MinReasoningScore = 60
	MaxReasoningScore = 100

	// MetricBound clamps each informational metric to [-5, 5]
	MetricBound = 5

	// BingoBonus is the fixed cumulative bonus per completed line
	BingoBonus = 500
)

// ClampReasoningScore bounds an evaluator score to [60, 100]
func ClampReasoningScore(score int) int {
	if score < MinReasoningScore {
		return MinReasoningScore
	}
	if score > MaxReasoningScore {
		return MaxReasoningScore
	}
	return score
}

// ClampMetric bounds a single metric to [-5, 5]
func ClampMetric(v int) int {
	if v < -MetricBound {
		return -MetricBound
	}
	if v > MetricBound {
		return MetricBound
	}
	return v
}

// Clamp bounds every metric axis
func (m AnswerMetrics) Clamp() AnswerMetrics {
	return AnswerMetrics{
		Resource:   ClampMetric(m.Resource),
		Energy:     ClampMetric(m.Energy),
		Trust:      ClampMetric(m.Trust),
		Competency: ClampMetric(m.Competency),
		Insight:    ClampMetric(m.Insight),
	}
}

// FinalScore averages the choice's base score with the evaluator's
// reasoning score, rounded. Metrics never enter this value.
func FinalScore(baseScore, reasoningScore int) int {
	return int(math.Round(float64(baseScore+ClampReasoningScore(reasoningScore)) / 2))
}

// DetermineWinner picks the answer with the strictly highest final
// score. Ties go to the first-encountered team in original list order;
// the left-to-right first-max rule is deliberate and load-bearing for
// determinism.
func DetermineWinner(answers []TeamAnswer) *TeamAnswer {
	if len(answers) == 0 {
		return nil
	}
	winner := &answers[0]
	for i := 1; i < len(answers); i++ {
		if answers[i].AIScore > winner.AIScore {
			winner = &answers[i]
		}
	}
	return winner
}

// CumulativeScore sums a team's evaluated scores across all recorded
// rounds plus the fixed per-line bingo bonus
func CumulativeScore(teamID string, bingoCount int, rounds []RoundResult) int {
	total := 0
	for _, round := range rounds {
		for _, ans := range round.TeamAnswers {
			if ans.TeamID == teamID {
				total += ans.AIScore
			}
		}
	}
	return total + bingoCount*BingoBonus
}

// TeamRanking is one row of the cumulative standings
type TeamRanking struct {
	TeamID     string `json:"teamId"`
	TeamName   string `json:"teamName"`
	ColorIndex int    `json:"colorIndex"`
	Score      int    `json:"score"`
	BingoCount int    `json:"bingoCount"`
	OwnedCells int    `json:"ownedCells"`
	Rank       int    `json:"rank"`
}

// RankTeams sorts all teams descending by cumulative score. The sort is
// stable: tied teams keep their original session order.
func RankTeams(teams []Team, rounds []RoundResult) []TeamRanking {
	rankings := make([]TeamRanking, len(teams))
	for i, team := range teams {
		rankings[i] = TeamRanking{
			TeamID:     team.ID,
			TeamName:   team.Name,
			ColorIndex: team.ColorIndex,
			Score:      CumulativeScore(team.ID, team.BingoCount, rounds),
			BingoCount: team.BingoCount,
			OwnedCells: len(team.OwnedCells),
		}
	}
	sort.SliceStable(rankings, func(i, j int) bool {
		return rankings[i].Score > rankings[j].Score
	})
	for i := range rankings {
		rankings[i].Rank = i + 1
	}
	return rankings
}
