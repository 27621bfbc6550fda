package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"teambingo/internal/cache"
	"teambingo/internal/model"
	"teambingo/internal/repository"
)

var (
	ErrBoardNotReady        = errors.New("board is not populated with 25 cards")
	ErrGameNotStarted       = errors.New("game has not started")
	ErrWrongPhase           = errors.New("operation not allowed in current phase")
	ErrNotYourTurn          = errors.New("not this team's turn")
	ErrDuplicateAnswer      = errors.New("team already answered this round")
	ErrAnswersIncomplete    = errors.New("not all teams have answered")
	ErrEvaluationInProgress = errors.New("evaluation already in progress")
	ErrSessionBusy          = errors.New("another mutation is in progress, retry")
	ErrUnknownChoice        = errors.New("choice does not belong to the current card")
)

// GameService drives the game phase machine. All mutations go through a
// per-session lock so two racing writers cannot interleave a
// read-validate-write cycle; the evaluation trigger is additionally
// guarded by an atomic processing flag.
type GameService struct {
	sessionRepo  repository.SessionRepo
	roundRepo    repository.RoundRepo
	sessionCache cache.SessionCache
	stateCache   cache.GameStateCache
	leaderboard  cache.LeaderboardCache
	metrics      cache.MetricsCache
	evaluator    Evaluator
	broadcaster  Broadcaster
}

// Evaluator is the external AI evaluation adapter boundary
type Evaluator interface {
	Evaluate(ctx context.Context, card *model.GameCard, answer *model.TeamAnswer) (*model.EvaluationResult, error)
}

// NewGameService creates a new game service
func NewGameService(
	sessionRepo repository.SessionRepo,
	roundRepo repository.RoundRepo,
	sessionCache cache.SessionCache,
	stateCache cache.GameStateCache,
	leaderboard cache.LeaderboardCache,
	metrics cache.MetricsCache,
	evaluator Evaluator,
) *GameService {
	return &GameService{
		sessionRepo:  sessionRepo,
		roundRepo:    roundRepo,
		sessionCache: sessionCache,
		stateCache:   stateCache,
		leaderboard:  leaderboard,
		metrics:      metrics,
		evaluator:    evaluator,
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *GameService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// GetState returns the current shared game state
func (s *GameService) GetState(ctx context.Context, sessionID string) (*model.GameState, error) {
	state, err := s.stateCache.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, ErrGameNotStarted
	}
	return state, nil
}

// Rankings returns the cumulative standings, stable on ties
func (s *GameService) Rankings(ctx context.Context, sessionID string) ([]model.TeamRanking, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	state, err := s.stateCache.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	var rounds []model.RoundResult
	if state != nil {
		rounds = state.RoundResults
	}
	return model.RankTeams(session.Teams, rounds), nil
}

// StartGame moves a waiting session into its first round. The board
// must already be populated.
func (s *GameService) StartGame(ctx context.Context, sessionID string) (*model.GameState, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == model.SessionEnded {
		return nil, ErrSessionEnded
	}
	if !session.BoardReady() {
		return nil, ErrBoardNotReady
	}

	existing, err := s.stateCache.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Phase != model.PhaseWaiting {
		return nil, ErrWrongPhase
	}

	session.Status = model.SessionActive
	if err := s.saveSession(ctx, session); err != nil {
		return nil, err
	}

	state := model.NewGameState(sessionID)
	if err := s.saveState(ctx, state); err != nil {
		return nil, err
	}

	s.broadcast(sessionID, "game_started", state)
	return state, nil
}

// SelectCell lets the team whose turn it is pick an uncompleted cell.
// The bound card is snapshotted and the round moves to answering.
func (s *GameService) SelectCell(ctx context.Context, sessionID, teamID string, cellIndex int) (*model.GameState, error) {
	return s.withLock(ctx, sessionID, func(session *model.Session, state *model.GameState) error {
		if state.Phase != model.PhaseSelectingCard {
			return ErrWrongPhase
		}

		turnIndex := session.TeamIndex(teamID)
		if turnIndex < 0 {
			return ErrTeamNotFound
		}
		if turnIndex != state.CurrentTurnTeamIndex {
			return ErrNotYourTurn
		}

		if cellIndex < 0 || cellIndex >= len(session.Cells) {
			return model.ErrCellOutOfRange
		}
		if session.Cells[cellIndex].IsCompleted {
			return model.ErrCellCompleted
		}

		card := session.CardForCell(cellIndex)
		if card == nil {
			return fmt.Errorf("no card bound to cell %d", cellIndex)
		}

		state.SelectedCellIndex = cellIndex
		state.CurrentCard = card
		state.TeamAnswers = []model.TeamAnswer{}
		if err := state.Transition(model.PhaseAllTeamsAnswering); err != nil {
			return err
		}

		s.broadcast(sessionID, "cell_selected", map[string]interface{}{
			"teamId":    teamID,
			"cellIndex": cellIndex,
			"card":      card,
		})
		return nil
	})
}

// SubmitAnswer accepts exactly one answer per team per round. A second
// submission from the same team is rejected, never double-counted.
func (s *GameService) SubmitAnswer(ctx context.Context, sessionID, teamID, choiceID, reasoning string) (*model.GameState, error) {
	return s.withLock(ctx, sessionID, func(session *model.Session, state *model.GameState) error {
		if state.Phase != model.PhaseAllTeamsAnswering {
			return ErrWrongPhase
		}

		team := session.TeamByID(teamID)
		if team == nil {
			return ErrTeamNotFound
		}
		if state.AnswerByTeam(teamID) != nil {
			return ErrDuplicateAnswer
		}
		if state.CurrentCard == nil || state.CurrentCard.ChoiceByID(choiceID) == nil {
			return ErrUnknownChoice
		}

		state.TeamAnswers = append(state.TeamAnswers, model.TeamAnswer{
			TeamID:      teamID,
			TeamName:    team.Name,
			ChoiceID:    choiceID,
			Reasoning:   reasoning,
			SubmittedAt: time.Now(),
		})

		s.broadcast(sessionID, "answer_submitted", map[string]interface{}{
			"teamId":    teamID,
			"submitted": len(state.TeamAnswers),
			"expected":  len(session.Teams),
		})
		if state.AllTeamsAnswered(len(session.Teams)) {
			s.broadcast(sessionID, "all_answers_in", map[string]int{
				"round": state.CurrentRound,
			})
		}
		return nil
	})
}

// TriggerEvaluation scores the round. The processing flag is set
// atomically with the not-already-processing check, so a second trigger
// observed before the flag propagates still cannot double-score.
// Scoring itself runs in the background; clients follow the published
// state.
func (s *GameService) TriggerEvaluation(ctx context.Context, sessionID string) error {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return err
	}
	state, err := s.GetState(ctx, sessionID)
	if err != nil {
		return err
	}
	if state.Phase != model.PhaseAllTeamsAnswering {
		return ErrWrongPhase
	}
	if !state.AllTeamsAnswered(len(session.Teams)) {
		return ErrAnswersIncomplete
	}

	acquired, err := s.stateCache.BeginEvaluation(ctx, sessionID)
	if err != nil {
		return err
	}
	if !acquired {
		return ErrEvaluationInProgress
	}

	state.IsAIProcessing = true
	if err := s.saveState(ctx, state); err != nil {
		s.stateCache.EndEvaluation(ctx, sessionID)
		return err
	}
	s.broadcast(sessionID, "ai_processing", map[string]int{"round": state.CurrentRound})

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("recovered from panic in evaluation for session %s: %v", sessionID, r)
			}
		}()
		bg := context.Background()
		if err := s.evaluateRound(bg, session, state); err != nil {
			log.Printf("evaluation failed for session %s: %v", sessionID, err)
			// Only the processing flag is rolled back; the phase is left
			// wherever it is so the admin can re-trigger (or, if the game
			// was ended mid-evaluation, stays ended).
			if perr := s.stateCache.Patch(bg, sessionID, map[string]interface{}{"isAiProcessing": false}); perr != nil {
				log.Printf("failed to clear processing flag for session %s: %v", sessionID, perr)
			}
		}
		s.stateCache.EndEvaluation(bg, sessionID)
	}()

	return nil
}

// evaluateRound scores all answers against the captured round snapshot,
// then hands the result to commitRound. Scoring runs without the
// session lock held; only the write-back serializes.
func (s *GameService) evaluateRound(ctx context.Context, session *model.Session, state *model.GameState) error {
	card := state.CurrentCard
	now := time.Now()

	// Score answers in team order; the order matters for the first-max
	// tie-break downstream.
	scored := make([]model.TeamAnswer, 0, len(session.Teams))
	for i := range session.Teams {
		answer := state.AnswerByTeam(session.Teams[i].ID)
		if answer == nil {
			continue
		}
		baseScore := model.DefaultChoiceScore
		if choice := card.ChoiceByID(answer.ChoiceID); choice != nil {
			baseScore = choice.BaseScore()
		}

		evaluated, err := s.evaluator.Evaluate(ctx, card, answer)
		if err != nil || evaluated == nil {
			// the adapter already degrades internally; this is belt and braces
			evaluated = &model.EvaluationResult{Score: model.MinReasoningScore}
		}

		answer.AIScore = model.FinalScore(baseScore, evaluated.Score)
		answer.AIFeedback = evaluated.Sections
		answer.Metrics = evaluated.Metrics.Clamp()
		scored = append(scored, *answer)

		s.metrics.Accumulate(ctx, session.ID, answer.TeamID, answer.Metrics)
	}

	winner := model.DetermineWinner(scored)
	if winner == nil {
		return fmt.Errorf("no answers to evaluate")
	}

	return s.commitRound(ctx, session.ID, state.CurrentRound, state.SelectedCellIndex, card, scored, winner, now)
}

// commitRound applies an evaluated round under the session lock,
// re-reading both documents first. The phase is re-validated so a
// mutation that landed while the evaluator ran, in particular an
// administrative end, is never overwritten; the round is abandoned
// instead.
func (s *GameService) commitRound(ctx context.Context, sessionID string, round, cellIndex int, card *model.GameCard, scored []model.TeamAnswer, winner *model.TeamAnswer, now time.Time) error {
	apply := func(session *model.Session, state *model.GameState) error {
		if state.Phase != model.PhaseAllTeamsAnswering || state.CurrentRound != round {
			return ErrWrongPhase
		}

		if err := session.ClaimCell(cellIndex, winner.TeamID); err != nil {
			return fmt.Errorf("failed to claim cell %d: %w", cellIndex, err)
		}
		for i := range session.Teams {
			if ans := answerFor(scored, session.Teams[i].ID); ans != nil {
				session.Teams[i].TotalScore += ans.AIScore
			}
		}

		result := model.RoundResult{
			SessionID:    session.ID,
			RoundNumber:  round,
			CellIndex:    cellIndex,
			CardID:       card.ID,
			CardTitle:    card.Title,
			WinnerTeamID: winner.TeamID,
			WinningScore: winner.AIScore,
			TeamAnswers:  scored,
			CompletedAt:  now,
		}
		if err := s.roundRepo.Append(ctx, &result); err != nil {
			log.Printf("failed to persist round result: %v", err)
		}

		newLines := model.DetectCompletedLines(session.Cells, state.CompletedBingoLines, now)
		for _, line := range newLines {
			if team := session.TeamByID(line.CompletedByTeamID); team != nil {
				team.BingoCount++
			}
		}

		state.TeamAnswers = scored
		state.RoundResults = append(state.RoundResults, result)
		state.CompletedBingoLines = append(state.CompletedBingoLines, newLines...)
		state.IsAIProcessing = false
		if err := state.Transition(model.PhaseShowingResults); err != nil {
			return err
		}

		for _, team := range session.Teams {
			score := model.CumulativeScore(team.ID, team.BingoCount, state.RoundResults)
			s.leaderboard.UpdateScore(ctx, session.ID, team.ID, score)
		}

		s.broadcast(session.ID, "round_result", result)
		if s.broadcaster != nil {
			// each team additionally gets its own detailed feedback
			for _, ans := range scored {
				s.broadcaster.BroadcastToTeam(session.ID, ans.TeamID, "answer_feedback", ans)
			}
		}
		for _, line := range newLines {
			s.broadcast(session.ID, "bingo_completed", line)
		}
		return nil
	}

	var err error
	for attempt := 0; attempt < 5; attempt++ {
		_, err = s.withLock(ctx, sessionID, apply)
		if !errors.Is(err, ErrSessionBusy) {
			return err
		}
		time.Sleep(200 * time.Millisecond)
	}
	return err
}

// AdvanceRound moves from results to the next selection, or ends the
// game when every cell is completed
func (s *GameService) AdvanceRound(ctx context.Context, sessionID string) (*model.GameState, error) {
	return s.withLock(ctx, sessionID, func(session *model.Session, state *model.GameState) error {
		if state.Phase != model.PhaseShowingResults {
			return ErrWrongPhase
		}

		if session.AllCellsCompleted() {
			return s.endLocked(ctx, session, state)
		}

		state.AdvanceTurn(len(session.Teams))
		state.CurrentRound++
		state.SelectedCellIndex = -1
		state.CurrentCard = nil
		state.TeamAnswers = []model.TeamAnswer{}
		if err := state.Transition(model.PhaseSelectingCard); err != nil {
			return err
		}

		s.broadcast(sessionID, "round_advanced", map[string]int{
			"round":     state.CurrentRound,
			"turnIndex": state.CurrentTurnTeamIndex,
		})
		return nil
	})
}

// PauseGame suspends any active phase
func (s *GameService) PauseGame(ctx context.Context, sessionID string) (*model.GameState, error) {
	return s.withLock(ctx, sessionID, func(session *model.Session, state *model.GameState) error {
		if err := state.Transition(model.PhasePaused); err != nil {
			return err
		}
		s.broadcast(sessionID, "game_paused", nil)
		return nil
	})
}

// ResumeGame always returns to cell selection, collapsing whatever
// phase preceded the pause
func (s *GameService) ResumeGame(ctx context.Context, sessionID string) (*model.GameState, error) {
	return s.withLock(ctx, sessionID, func(session *model.Session, state *model.GameState) error {
		if state.Phase != model.PhasePaused {
			return ErrWrongPhase
		}
		state.SelectedCellIndex = -1
		state.CurrentCard = nil
		state.TeamAnswers = []model.TeamAnswer{}
		if err := state.Transition(model.PhaseSelectingCard); err != nil {
			return err
		}
		s.broadcast(sessionID, "game_resumed", nil)
		return nil
	})
}

// EndGame terminates the game from any active phase, bypassing the
// board-completion check
func (s *GameService) EndGame(ctx context.Context, sessionID string) (*model.GameState, error) {
	return s.withLock(ctx, sessionID, func(session *model.Session, state *model.GameState) error {
		return s.endLocked(ctx, session, state)
	})
}

func (s *GameService) endLocked(ctx context.Context, session *model.Session, state *model.GameState) error {
	if err := state.Transition(model.PhaseGameEnded); err != nil {
		return err
	}

	now := time.Now()
	session.Status = model.SessionEnded
	session.EndedAt = &now

	s.broadcast(session.ID, "game_ended", map[string]interface{}{
		"rankings": model.RankTeams(session.Teams, state.RoundResults),
	})
	return nil
}

// withLock serializes a read-validate-write mutation per session and
// persists both documents on success
func (s *GameService) withLock(ctx context.Context, sessionID string, fn func(*model.Session, *model.GameState) error) (*model.GameState, error) {
	acquired, err := s.stateCache.AcquireLock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, ErrSessionBusy
	}
	defer s.stateCache.ReleaseLock(ctx, sessionID)

	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	state, err := s.GetState(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := fn(session, state); err != nil {
		return nil, err
	}

	if err := s.saveSession(ctx, session); err != nil {
		return nil, err
	}
	if err := s.saveState(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *GameService) getSession(ctx context.Context, sessionID string) (*model.Session, error) {
	session, err := s.sessionCache.Get(ctx, sessionID)
	if err == nil && session != nil {
		return session, nil
	}
	session, err = s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *GameService) saveSession(ctx context.Context, session *model.Session) error {
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return s.sessionCache.Set(ctx, session)
}

func (s *GameService) saveState(ctx context.Context, state *model.GameState) error {
	if err := s.stateCache.Set(ctx, state); err != nil {
		return err
	}
	return s.stateCache.Publish(ctx, state)
}

func (s *GameService) broadcast(sessionID, msgType string, payload interface{}) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.BroadcastToAdmin(sessionID, msgType, payload)
	s.broadcaster.BroadcastToAllTeams(sessionID, msgType, payload)
}

func answerFor(answers []model.TeamAnswer, teamID string) *model.TeamAnswer {
	for i := range answers {
		if answers[i].TeamID == teamID {
			return &answers[i]
		}
	}
	return nil
}
