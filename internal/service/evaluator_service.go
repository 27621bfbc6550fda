package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"teambingo/internal/config"
	"teambingo/internal/model"
)

// EvaluatorService judges a team's free-text reasoning via the Gemini
// API. Any failure (key unset, transport error, unparseable output)
// degrades to a deterministic fallback so a round can always complete.
type EvaluatorService struct {
	config *config.AIConfig
	client *http.Client
}

// NewEvaluatorService creates a new evaluator service
func NewEvaluatorService() *EvaluatorService {
	cfg := config.DefaultAIConfig()
	return &EvaluatorService{
		config: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
		},
	}
}

// Evaluate scores one team's answer to a scenario card. The returned
// score is always within [60, 100] and every metric within [-5, 5].
func (s *EvaluatorService) Evaluate(ctx context.Context, card *model.GameCard, answer *model.TeamAnswer) (*model.EvaluationResult, error) {
	if !s.config.IsEnabled() {
		return s.fallbackEvaluate(card, answer), nil
	}

	prompt := s.buildEvaluationPrompt(card, answer)
	response, err := s.callGemini(ctx, s.config.Models.Eval, prompt)
	if err != nil {
		return s.fallbackEvaluate(card, answer), nil
	}

	var result model.EvaluationResult
	if err := json.Unmarshal([]byte(response), &result); err != nil {
		return s.fallbackEvaluate(card, answer), nil
	}

	result.Score = model.ClampReasoningScore(result.Score)
	result.Metrics = result.Metrics.Clamp()
	return &result, nil
}

// callGemini makes a request to the Gemini API
func (s *EvaluatorService) callGemini(ctx context.Context, modelName, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]string{
					{"text": prompt},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"responseMimeType": "application/json",
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s?key=%s", s.config.ModelEndpoint(modelName), s.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	// Parse Gemini response structure
	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}

	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return "", err
	}

	if len(geminiResp.Candidates) > 0 && len(geminiResp.Candidates[0].Content.Parts) > 0 {
		return geminiResp.Candidates[0].Content.Parts[0].Text, nil
	}

	return "", fmt.Errorf("empty response from Gemini")
}

func (s *EvaluatorService) buildEvaluationPrompt(card *model.GameCard, answer *model.TeamAnswer) string {
	choiceText := answer.ChoiceID
	if choice := card.ChoiceByID(answer.ChoiceID); choice != nil {
		choiceText = choice.Text
	}

	return fmt.Sprintf(`You are scoring a team's decision in a scenario game. Return ONLY valid JSON matching this schema:
{
  "score": 60 to 100,
  "sections": [
    {"title": "Strengths", "body": "..."},
    {"title": "Weaknesses", "body": "..."},
    {"title": "Suggestion", "body": "..."}
  ],
  "metrics": {
    "resource": -5 to 5,
    "energy": -5 to 5,
    "trust": -5 to 5,
    "competency": -5 to 5,
    "insight": -5 to 5
  }
}

Scenario: %s
%s

Team "%s" chose: %s
Their reasoning: %s

Score ONLY the quality of the reasoning (60 = weak, 100 = excellent).
The metrics describe side effects of the chosen action on the situation.`,
		card.Title, card.Situation, answer.TeamName, choiceText, answer.Reasoning)
}

// fallbackEvaluate produces a deterministic score from the reasoning
// text so evaluation never blocks a round
func (s *EvaluatorService) fallbackEvaluate(card *model.GameCard, answer *model.TeamAnswer) *model.EvaluationResult {
	words := len(strings.Fields(answer.Reasoning))
	score := model.ClampReasoningScore(model.MinReasoningScore + words)

	return &model.EvaluationResult{
		Score: score,
		Sections: []model.FeedbackSection{
			{Title: "Evaluation", Body: "Automatic score based on reasoning length; AI evaluation was unavailable."},
		},
		Metrics: model.AnswerMetrics{},
	}
}
