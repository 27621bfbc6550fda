package model

import "errors"

const (
	// BoardSize is the number of cells on the 5x5 grid
	BoardSize = 25

	// CenterCellIndex is the joker cell. Once completed by any team it
	// counts toward every line through it regardless of owner.
	CenterCellIndex = 12
)

var (
	ErrInsufficientCards = errors.New("card pool must contain at least 25 cards")
	ErrCellCompleted     = errors.New("cell is already completed")
	ErrCellOutOfRange    = errors.New("cell index out of range")
)

// BingoCell is one grid position, bound to one card, ownable by one team
type BingoCell struct {
	Index       int    `json:"index" bson:"index"`
	CardID      string `json:"cardId" bson:"cardId"`
	OwnerTeamID string `json:"ownerTeamId,omitempty" bson:"ownerTeamId,omitempty"`
	IsCompleted bool   `json:"isCompleted" bson:"isCompleted"`
}

// InitBoard binds the first 25 cards to cells 0-24 in input order and
// keeps the remainder as the spare pool. All cells are reset to
// unowned and incomplete.
func (s *Session) InitBoard(cards []GameCard) error {
	if len(cards) < MinBoardCards {
		return ErrInsufficientCards
	}

	cells := make([]BingoCell, BoardSize)
	for i := 0; i < BoardSize; i++ {
		cells[i] = BingoCell{
			Index:  i,
			CardID: cards[i].ID,
		}
	}

	s.Cards = cards
	s.Cells = cells
	s.SpareCards = append([]GameCard{}, cards[BoardSize:]...)
	for i := range s.Teams {
		s.Teams[i].OwnedCells = nil
	}
	return nil
}

// CardForCell resolves the card currently bound to a cell, or nil
func (s *Session) CardForCell(cellIndex int) *GameCard {
	if cellIndex < 0 || cellIndex >= len(s.Cells) {
		return nil
	}
	cardID := s.Cells[cellIndex].CardID
	for i := range s.Cards {
		if s.Cards[i].ID == cardID {
			return &s.Cards[i]
		}
	}
	return nil
}

// ReplaceCard pops one spare card and rebinds it to an uncompleted cell.
// An empty spare pool is a normal terminal condition, reported via the
// bool return rather than an error.
func (s *Session) ReplaceCard(cellIndex int) (*GameCard, bool, error) {
	if cellIndex < 0 || cellIndex >= len(s.Cells) {
		return nil, false, ErrCellOutOfRange
	}
	if s.Cells[cellIndex].IsCompleted {
		return nil, false, ErrCellCompleted
	}
	if len(s.SpareCards) == 0 {
		return nil, false, nil
	}

	next := s.SpareCards[0]
	s.SpareCards = s.SpareCards[1:]
	s.Cells[cellIndex].CardID = next.ID
	return &next, true, nil
}

// ClaimCell marks a cell completed and owned by a team. Claims are
// one-shot; a completed cell can never change owner.
func (s *Session) ClaimCell(cellIndex int, teamID string) error {
	if cellIndex < 0 || cellIndex >= len(s.Cells) {
		return ErrCellOutOfRange
	}
	if s.Cells[cellIndex].IsCompleted {
		return ErrCellCompleted
	}

	s.Cells[cellIndex].OwnerTeamID = teamID
	s.Cells[cellIndex].IsCompleted = true

	if team := s.TeamByID(teamID); team != nil {
		team.OwnedCells = append(team.OwnedCells, cellIndex)
	}
	return nil
}

// AllCellsCompleted reports whether every cell on the board is claimed
func (s *Session) AllCellsCompleted() bool {
	if len(s.Cells) != BoardSize {
		return false
	}
	for i := range s.Cells {
		if !s.Cells[i].IsCompleted {
			return false
		}
	}
	return true
}
