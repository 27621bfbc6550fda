package service

import (
	"context"
	"time"

	"teambingo/internal/cache"
	"teambingo/internal/model"
	"teambingo/internal/repository"
)

// ReportService builds the post-game summary from the round log, the
// cumulative rankings, and the per-team metric aggregates
type ReportService struct {
	sessionRepo repository.SessionRepo
	roundRepo   repository.RoundRepo
	reportRepo  repository.ReportRepo
	stateCache  cache.GameStateCache
	metrics     cache.MetricsCache
}

// NewReportService creates a new report service
func NewReportService(
	sessionRepo repository.SessionRepo,
	roundRepo repository.RoundRepo,
	reportRepo repository.ReportRepo,
	stateCache cache.GameStateCache,
	metrics cache.MetricsCache,
) *ReportService {
	return &ReportService{
		sessionRepo: sessionRepo,
		roundRepo:   roundRepo,
		reportRepo:  reportRepo,
		stateCache:  stateCache,
		metrics:     metrics,
	}
}

// Generate assembles and persists the report for a session. The round
// log is read from the durable store; anything missing there is filled
// from the last state snapshot.
func (s *ReportService) Generate(ctx context.Context, sessionID string) (*model.GameReport, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	stored, err := s.roundRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	rounds := make([]model.RoundResult, len(stored))
	for i, r := range stored {
		rounds[i] = *r
	}

	var lines []model.CompletedBingoLine
	if state, err := s.stateCache.Get(ctx, sessionID); err == nil && state != nil {
		lines = state.CompletedBingoLines
		if len(rounds) == 0 {
			rounds = state.RoundResults
		}
	}

	rankings := model.RankTeams(session.Teams, rounds)
	standings := make([]model.TeamReportRow, len(rankings))
	for i, ranking := range rankings {
		row := model.TeamReportRow{TeamRanking: ranking}
		if totals, err := s.metrics.GetTeamTotals(ctx, sessionID, ranking.TeamID); err == nil && totals != nil {
			row.MetricsTotals = *totals
		}
		standings[i] = row
	}

	completed := 0
	for _, cell := range session.Cells {
		if cell.IsCompleted {
			completed++
		}
	}

	report := &model.GameReport{
		SessionID:      sessionID,
		SessionName:    session.Name,
		Standings:      standings,
		Rounds:         rounds,
		CompletedLines: lines,
		CellsCompleted: completed,
		GeneratedAt:    time.Now(),
	}

	if err := s.reportRepo.Save(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// Get returns a previously generated report, or nil
func (s *ReportService) Get(ctx context.Context, sessionID string) (*model.GameReport, error) {
	return s.reportRepo.GetBySessionID(ctx, sessionID)
}
