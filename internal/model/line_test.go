package model

import (
	"testing"
	"time"
)

func boardWithOwners(owners map[int]string) []BingoCell {
	cells := make([]BingoCell, BoardSize)
	for i := range cells {
		cells[i].Index = i
		if owner, ok := owners[i]; ok {
			cells[i].OwnerTeamID = owner
			cells[i].IsCompleted = true
		}
	}
	return cells
}

func TestLineTemplatesCoverGrid(t *testing.T) {
	templates := LineTemplates()
	if len(templates) != 12 {
		t.Fatalf("expected 12 templates, got %d", len(templates))
	}

	counts := make(map[LineType]int)
	for _, tmpl := range templates {
		counts[tmpl.Type]++
	}
	if counts[LineRow] != 5 || counts[LineColumn] != 5 || counts[LineDiagonal] != 1 || counts[LineAntiDiagonal] != 1 {
		t.Fatalf("unexpected template distribution: %v", counts)
	}
}

func TestDetectCompletedRow(t *testing.T) {
	cells := boardWithOwners(map[int]string{0: "team_a", 1: "team_a", 2: "team_a", 3: "team_a", 4: "team_a"})

	lines := DetectCompletedLines(cells, nil, time.Now())
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0].Type != LineRow || lines[0].Index != 0 {
		t.Fatalf("expected row 0, got %s %d", lines[0].Type, lines[0].Index)
	}
	if lines[0].CompletedByTeamID != "team_a" {
		t.Fatalf("credited to %s", lines[0].CompletedByTeamID)
	}
}

func TestDetectRejectsMixedOwners(t *testing.T) {
	cells := boardWithOwners(map[int]string{0: "team_a", 1: "team_a", 2: "team_b", 3: "team_a", 4: "team_a"})
	if lines := DetectCompletedLines(cells, nil, time.Now()); len(lines) != 0 {
		t.Fatalf("mixed-owner row completed: %v", lines)
	}
}

func TestCenterCellIsWildcard(t *testing.T) {
	// Middle row owned by team_a except the center, which team_b completed.
	cells := boardWithOwners(map[int]string{10: "team_a", 11: "team_a", 12: "team_b", 13: "team_a", 14: "team_a"})

	lines := DetectCompletedLines(cells, nil, time.Now())
	if len(lines) != 1 {
		t.Fatalf("expected 1 line through wildcard center, got %d", len(lines))
	}
	if lines[0].CompletedByTeamID != "team_a" {
		t.Fatalf("line credited to center owner %s instead of team_a", lines[0].CompletedByTeamID)
	}
}

func TestIncompleteCenterBlocksLine(t *testing.T) {
	cells := boardWithOwners(map[int]string{10: "team_a", 11: "team_a", 13: "team_a", 14: "team_a"})
	if lines := DetectCompletedLines(cells, nil, time.Now()); len(lines) != 0 {
		t.Fatalf("line completed without the center cell: %v", lines)
	}
}

func TestDiagonalsThroughCenter(t *testing.T) {
	cells := boardWithOwners(map[int]string{
		0: "team_a", 6: "team_a", 12: "team_b", 18: "team_a", 24: "team_a",
		4: "team_c", 8: "team_c", 16: "team_c", 20: "team_c",
	})

	lines := DetectCompletedLines(cells, nil, time.Now())
	if len(lines) != 2 {
		t.Fatalf("expected both diagonals, got %d", len(lines))
	}
	byType := make(map[LineType]string)
	for _, line := range lines {
		byType[line.Type] = line.CompletedByTeamID
	}
	if byType[LineDiagonal] != "team_a" || byType[LineAntiDiagonal] != "team_c" {
		t.Fatalf("unexpected credits: %v", byType)
	}
}

func TestCompletedLineNeverRecordedTwice(t *testing.T) {
	cells := boardWithOwners(map[int]string{0: "team_a", 1: "team_a", 2: "team_a", 3: "team_a", 4: "team_a"})

	first := DetectCompletedLines(cells, nil, time.Now())
	if len(first) != 1 {
		t.Fatalf("expected 1 line, got %d", len(first))
	}

	second := DetectCompletedLines(cells, first, time.Now())
	if len(second) != 0 {
		t.Fatalf("line recorded twice: %v", second)
	}
}

func TestSimultaneousLinesOnOneClaim(t *testing.T) {
	// Claiming cell 0 finishes row 0 and column 0 at once.
	owners := map[int]string{}
	for _, idx := range []int{0, 1, 2, 3, 4, 5, 10, 15, 20} {
		owners[idx] = "team_a"
	}
	cells := boardWithOwners(owners)

	lines := DetectCompletedLines(cells, nil, time.Now())
	if len(lines) != 2 {
		t.Fatalf("expected row and column, got %d", len(lines))
	}
}
