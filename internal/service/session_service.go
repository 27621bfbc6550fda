package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"teambingo/internal/cache"
	"teambingo/internal/model"
	"teambingo/internal/repository"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionEnded    = errors.New("session has ended")
	ErrTeamNotFound    = errors.New("team not found")
	ErrBadTeamCount    = errors.New("team count must be between 2 and 16")
)

// SessionService handles session lifecycle, team roster edits, and the
// card/board administration surface
type SessionService struct {
	sessionRepo  repository.SessionRepo
	cardRepo     repository.CardRepo
	roundRepo    repository.RoundRepo
	sessionCache cache.SessionCache
	stateCache   cache.GameStateCache
	leaderboard  cache.LeaderboardCache
	metrics      cache.MetricsCache
	authSvc      *AuthService
	broadcaster  Broadcaster
}

// NewSessionService creates a new session service
func NewSessionService(
	sessionRepo repository.SessionRepo,
	cardRepo repository.CardRepo,
	roundRepo repository.RoundRepo,
	sessionCache cache.SessionCache,
	stateCache cache.GameStateCache,
	leaderboard cache.LeaderboardCache,
	metrics cache.MetricsCache,
	authSvc *AuthService,
) *SessionService {
	return &SessionService{
		sessionRepo:  sessionRepo,
		cardRepo:     cardRepo,
		roundRepo:    roundRepo,
		sessionCache: sessionCache,
		stateCache:   stateCache,
		leaderboard:  leaderboard,
		metrics:      metrics,
		authSvc:      authSvc,
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *SessionService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// CreateSession creates a waiting session with its teams
func (s *SessionService) CreateSession(ctx context.Context, name string, settings model.SessionSettings) (*model.Session, error) {
	if settings.TeamCount < 2 || settings.TeamCount > 16 {
		return nil, ErrBadTeamCount
	}
	if settings.LinesToWin <= 0 {
		settings.LinesToWin = 3
	}

	code, err := s.generateAccessCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access code: %w", err)
	}

	teams := make([]model.Team, settings.TeamCount)
	for i := range teams {
		teams[i] = model.Team{
			ID:         "team_" + uuid.New().String()[:8],
			Name:       fmt.Sprintf("Team %d", i+1),
			ColorIndex: model.TeamColorIndex(i),
		}
	}

	session := &model.Session{
		ID:         "sess_" + uuid.New().String()[:8],
		Name:       name,
		Status:     model.SessionWaiting,
		AccessCode: code,
		Settings:   settings,
		Teams:      teams,
		CreatedAt:  time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	if err := s.sessionCache.Set(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to cache session: %w", err)
	}

	return session, nil
}

// GetSession retrieves a session, cache first
func (s *SessionService) GetSession(ctx context.Context, id string) (*model.Session, error) {
	session, err := s.sessionCache.Get(ctx, id)
	if err == nil && session != nil {
		return session, nil
	}

	session, err = s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	s.sessionCache.Set(ctx, session)
	return session, nil
}

// ListSessions returns every session
func (s *SessionService) ListSessions(ctx context.Context) ([]*model.Session, error) {
	return s.sessionRepo.List(ctx)
}

// DeleteSession removes a session along with its round history and
// every cached artifact (state, leaderboard, metrics)
func (s *SessionService) DeleteSession(ctx context.Context, id string) error {
	session, err := s.GetSession(ctx, id)
	if err != nil {
		return err
	}

	if err := s.sessionRepo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.roundRepo.DeleteBySessionID(ctx, id); err != nil {
		log.Printf("failed to delete round history for session %s: %v", id, err)
	}
	s.sessionCache.Delete(ctx, session)
	s.stateCache.Delete(ctx, id)
	s.leaderboard.Delete(ctx, id)

	teamIDs := make([]string, len(session.Teams))
	for i := range session.Teams {
		teamIDs[i] = session.Teams[i].ID
	}
	s.metrics.Delete(ctx, id, teamIDs)

	if s.broadcaster != nil {
		s.broadcaster.DisconnectSession(id)
	}
	return nil
}

// JoinTeam signs a player into a team by access code and returns a
// session-scoped team token
func (s *SessionService) JoinTeam(ctx context.Context, accessCode, teamID, playerName string) (*model.Session, string, error) {
	if playerName == "" {
		return nil, "", errors.New("player name is required")
	}

	session, err := s.resolveByCode(ctx, accessCode)
	if err != nil {
		return nil, "", err
	}
	if session.Status == model.SessionEnded {
		return nil, "", ErrSessionEnded
	}

	team := session.TeamByID(teamID)
	if team == nil {
		return nil, "", ErrTeamNotFound
	}

	team.Players = append(team.Players, model.Player{
		ID:       "player_" + uuid.New().String()[:8],
		Name:     playerName,
		JoinedAt: time.Now(),
	})

	if err := s.saveSession(ctx, session); err != nil {
		return nil, "", err
	}

	token, err := s.authSvc.GenerateTeamToken(session.ID, teamID)
	if err != nil {
		return nil, "", err
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToAdmin(session.ID, "player_joined", map[string]string{
			"teamId":     teamID,
			"playerName": playerName,
		})
	}
	return session, token, nil
}

// RenameTeam updates a team's display name
func (s *SessionService) RenameTeam(ctx context.Context, sessionID, teamID, name string) error {
	if name == "" {
		return errors.New("team name is required")
	}
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	team := session.TeamByID(teamID)
	if team == nil {
		return ErrTeamNotFound
	}
	team.Name = name
	return s.saveSession(ctx, session)
}

// ResizeTeams grows or shrinks the team list. Shrinking may strand the
// turn index, so the live game state is re-clamped into range.
func (s *SessionService) ResizeTeams(ctx context.Context, sessionID string, teamCount int) (*model.Session, error) {
	if teamCount < 2 || teamCount > 16 {
		return nil, ErrBadTeamCount
	}

	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == model.SessionEnded {
		return nil, ErrSessionEnded
	}

	for len(session.Teams) < teamCount {
		i := len(session.Teams)
		session.Teams = append(session.Teams, model.Team{
			ID:         "team_" + uuid.New().String()[:8],
			Name:       fmt.Sprintf("Team %d", i+1),
			ColorIndex: model.TeamColorIndex(i),
		})
	}
	if len(session.Teams) > teamCount {
		session.Teams = session.Teams[:teamCount]
	}
	session.Settings.TeamCount = teamCount

	if err := s.saveSession(ctx, session); err != nil {
		return nil, err
	}

	// Re-clamp the live turn index if a game is running
	state, err := s.stateCache.Get(ctx, sessionID)
	if err == nil && state != nil {
		state.ClampTurnIndex(teamCount)
		if err := s.stateCache.Set(ctx, state); err == nil {
			s.stateCache.Publish(ctx, state)
		}
	}

	return session, nil
}

// ImportCards validates an uploaded card collection and binds it to the
// session board. Collections below 25 cards are a user-visible error.
func (s *SessionService) ImportCards(ctx context.Context, sessionID, packTitle string, cards []model.GameCard) (*model.Session, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == model.SessionEnded {
		return nil, ErrSessionEnded
	}

	cards = model.NormalizeCards(cards)
	if err := session.InitBoard(cards); err != nil {
		return nil, err
	}

	// Keep the pack around for reuse in later sessions
	if packTitle != "" {
		pack := &model.CardPack{
			ID:    "pack_" + uuid.New().String()[:8],
			Title: packTitle,
			Cards: cards,
		}
		if err := s.cardRepo.Create(ctx, pack); err != nil {
			return nil, fmt.Errorf("failed to save card pack: %w", err)
		}
	}

	if err := s.saveSession(ctx, session); err != nil {
		return nil, err
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToAdmin(sessionID, "board_ready", map[string]int{
			"cells":  len(session.Cells),
			"spares": len(session.SpareCards),
		})
	}
	return session, nil
}

// ImportPack binds a previously saved card pack to the session board
func (s *SessionService) ImportPack(ctx context.Context, sessionID, packID string) (*model.Session, error) {
	pack, err := s.cardRepo.GetByID(ctx, packID)
	if err != nil {
		return nil, err
	}
	if pack == nil {
		return nil, fmt.Errorf("card pack not found")
	}
	return s.ImportCards(ctx, sessionID, "", pack.Cards)
}

// ReplaceCard swaps an uncompleted cell's card for a spare. Running out
// of spares is reported as exhausted=true, not an error.
func (s *SessionService) ReplaceCard(ctx context.Context, sessionID string, cellIndex int) (*model.GameCard, bool, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}

	card, replaced, err := session.ReplaceCard(cellIndex)
	if err != nil {
		return nil, false, err
	}
	if !replaced {
		return nil, true, nil // spare pool exhausted
	}

	if err := s.saveSession(ctx, session); err != nil {
		return nil, false, err
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToAllTeams(sessionID, "card_replaced", map[string]interface{}{
			"cellIndex": cellIndex,
			"card":      card,
		})
	}
	return card, false, nil
}

func (s *SessionService) resolveByCode(ctx context.Context, code string) (*model.Session, error) {
	if id, err := s.sessionCache.ResolveCode(ctx, code); err == nil && id != "" {
		return s.GetSession(ctx, id)
	}

	session, err := s.sessionRepo.GetByAccessCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *SessionService) saveSession(ctx context.Context, session *model.Session) error {
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return s.sessionCache.Set(ctx, session)
}

// generateAccessCode creates a 6-char alphanumeric code
func (s *SessionService) generateAccessCode(ctx context.Context) (string, error) {
	const chars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	const codeLen = 6

	for attempts := 0; attempts < 10; attempts++ {
		b := make([]byte, codeLen)
		if _, err := rand.Read(b); err != nil {
			return "", err
		}

		code := make([]byte, codeLen)
		for i := range code {
			code[i] = chars[int(b[i])%len(chars)]
		}
		codeStr := string(code)

		// Check uniqueness
		exists, err := s.sessionCache.CodeExists(ctx, codeStr)
		if err != nil {
			return "", err
		}
		if !exists {
			return codeStr, nil
		}
	}

	return "", fmt.Errorf("failed to generate unique access code")
}
