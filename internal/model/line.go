package model

import "time"

// LineType classifies the 12 completable line patterns of the grid
type LineType string

const (
	LineRow          LineType = "row"
	LineColumn       LineType = "column"
	LineDiagonal     LineType = "diagonal"      // top-left to bottom-right
	LineAntiDiagonal LineType = "anti_diagonal" // top-right to bottom-left
)

// LineTemplate is a fixed 5-cell pattern identified by (Type, Index)
type LineTemplate struct {
	Type  LineType
	Index int
	Cells [5]int
}

// CompletedBingoLine records a line win. Append-only; a (type, index)
// pair is never recorded twice.
type CompletedBingoLine struct {
	Type              LineType  `json:"type" bson:"type"`
	Index             int       `json:"index" bson:"index"`
	CompletedByTeamID string    `json:"completedByTeamId" bson:"completedByTeamId"`
	CompletedAt       time.Time `json:"completedAt" bson:"completedAt"`
}

// LineTemplates returns the 12 patterns: 5 rows, 5 columns, 2 diagonals
func LineTemplates() []LineTemplate {
	templates := make([]LineTemplate, 0, 12)
	for r := 0; r < 5; r++ {
		t := LineTemplate{Type: LineRow, Index: r}
		for c := 0; c < 5; c++ {
			t.Cells[c] = r*5 + c
		}
		templates = append(templates, t)
	}
	for c := 0; c < 5; c++ {
		t := LineTemplate{Type: LineColumn, Index: c}
		for r := 0; r < 5; r++ {
			t.Cells[r] = r*5 + c
		}
		templates = append(templates, t)
	}
	templates = append(templates, LineTemplate{Type: LineDiagonal, Index: 0, Cells: [5]int{0, 6, 12, 18, 24}})
	templates = append(templates, LineTemplate{Type: LineAntiDiagonal, Index: 0, Cells: [5]int{4, 8, 12, 16, 20}})
	return templates
}

// DetectCompletedLines checks every template not already present in
// existing and returns the newly completed lines. The center cell is a
// wildcard: it must be completed but its owner is ignored; every other
// cell on the line must be owned by the same team.
func DetectCompletedLines(cells []BingoCell, existing []CompletedBingoLine, now time.Time) []CompletedBingoLine {
	if len(cells) != BoardSize {
		return nil
	}

	done := make(map[LineType]map[int]bool)
	for _, line := range existing {
		if done[line.Type] == nil {
			done[line.Type] = make(map[int]bool)
		}
		done[line.Type][line.Index] = true
	}

	var completed []CompletedBingoLine
	for _, tmpl := range LineTemplates() {
		if done[tmpl.Type] != nil && done[tmpl.Type][tmpl.Index] {
			continue
		}

		owner := ""
		valid := true
		touchesCenter := false
		for _, idx := range tmpl.Cells {
			if idx == CenterCellIndex {
				touchesCenter = true
				continue
			}
			cell := cells[idx]
			if cell.OwnerTeamID == "" {
				valid = false
				break
			}
			if owner == "" {
				owner = cell.OwnerTeamID
			} else if owner != cell.OwnerTeamID {
				valid = false
				break
			}
		}
		if !valid || owner == "" {
			continue
		}
		if touchesCenter && !cells[CenterCellIndex].IsCompleted {
			continue
		}

		completed = append(completed, CompletedBingoLine{
			Type:              tmpl.Type,
			Index:             tmpl.Index,
			CompletedByTeamID: owner,
			CompletedAt:       now,
		})
	}
	return completed
}
