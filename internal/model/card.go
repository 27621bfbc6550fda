package model

import "github.com/google/uuid"

// DefaultChoiceScore is the base score for choices without a configured score.
const DefaultChoiceScore = 80

// MinBoardCards is the number of cards needed to populate the 5x5 grid.
const MinBoardCards = 25

// Choice is one selectable option on a scenario card
type Choice struct {
	ID    string `json:"id" bson:"id"`
	Text  string `json:"text" bson:"text"`
	Score int    `json:"score,omitempty" bson:"score,omitempty"` // 0 means unset, falls back to DefaultChoiceScore
}

// BaseScore returns the choice's configured score, or the default when unset
func (c *Choice) BaseScore() int {
	if c.Score == 0 {
		return DefaultChoiceScore
	}
	return c.Score
}

// GameCard is a scenario card playable on a board cell
type GameCard struct {
	ID           string   `json:"id" bson:"id"`
	Title        string   `json:"title" bson:"title"`
	Situation    string   `json:"situation" bson:"situation"`
	Choices      []Choice `json:"choices" bson:"choices"`
	LearningNote string   `json:"learningNote,omitempty" bson:"learningNote,omitempty"`
}

// ChoiceByID finds a choice on the card, or nil
func (g *GameCard) ChoiceByID(choiceID string) *Choice {
	for i := range g.Choices {
		if g.Choices[i].ID == choiceID {
			return &g.Choices[i]
		}
	}
	return nil
}

// CardPack is a persisted, importable collection of scenario cards
type CardPack struct {
	ID    string     `json:"id" bson:"_id,omitempty"`
	Title string     `json:"title" bson:"title"`
	Cards []GameCard `json:"cards" bson:"cards"`
}

// NormalizeCards assigns ids to cards and choices that are missing one.
// The input order is preserved; it determines cell binding on board init.
func NormalizeCards(cards []GameCard) []GameCard {
	for i := range cards {
		if cards[i].ID == "" {
			cards[i].ID = "card_" + uuid.New().String()[:8]
		}
		for j := range cards[i].Choices {
			if cards[i].Choices[j].ID == "" {
				cards[i].Choices[j].ID = "choice_" + uuid.New().String()[:8]
			}
		}
	}
	return cards
}
