package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"teambingo/internal/cache"
	"teambingo/internal/model"
)

// In-memory doubles for the Mongo repos and Redis caches so the phase
// machine can be exercised without infrastructure.

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*model.Session)}
}

func (r *fakeSessionRepo) Create(ctx context.Context, s *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = cloneSession(s)
	return nil
}

func (r *fakeSessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	return cloneSession(s), nil
}

func (r *fakeSessionRepo) GetByAccessCode(ctx context.Context, code string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.AccessCode == code {
			return cloneSession(s), nil
		}
	}
	return nil, nil
}

func (r *fakeSessionRepo) List(ctx context.Context) ([]*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Session
	for _, s := range r.sessions {
		out = append(out, cloneSession(s))
	}
	return out, nil
}

func (r *fakeSessionRepo) Update(ctx context.Context, s *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = cloneSession(s)
	return nil
}

func (r *fakeSessionRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

type fakeRoundRepo struct {
	mu     sync.Mutex
	rounds []*model.RoundResult
}

func (r *fakeRoundRepo) Append(ctx context.Context, result *model.RoundResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *result
	r.rounds = append(r.rounds, &clone)
	return nil
}

func (r *fakeRoundRepo) GetBySessionID(ctx context.Context, sessionID string) ([]*model.RoundResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.RoundResult
	for _, round := range r.rounds {
		if round.SessionID == sessionID {
			clone := *round
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeRoundRepo) DeleteBySessionID(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.rounds[:0]
	for _, round := range r.rounds {
		if round.SessionID != sessionID {
			kept = append(kept, round)
		}
	}
	r.rounds = kept
	return nil
}

type fakeSessionCache struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
}

func newFakeSessionCache() *fakeSessionCache {
	return &fakeSessionCache{sessions: make(map[string]*model.Session)}
}

func (c *fakeSessionCache) Set(ctx context.Context, s *model.Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[s.ID] = cloneSession(s)
	return nil
}

func (c *fakeSessionCache) Get(ctx context.Context, id string) (*model.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[id]
	if !ok {
		return nil, nil
	}
	return cloneSession(s), nil
}

func (c *fakeSessionCache) Delete(ctx context.Context, s *model.Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, s.ID)
	return nil
}

func (c *fakeSessionCache) CodeExists(ctx context.Context, code string) (bool, error) {
	return false, nil
}

func (c *fakeSessionCache) ResolveCode(ctx context.Context, code string) (string, error) {
	return "", nil
}

type fakeStateCache struct {
	mu     sync.Mutex
	states map[string]*model.GameState
	evals  map[string]bool
	locks  map[string]bool
}

func newFakeStateCache() *fakeStateCache {
	return &fakeStateCache{
		states: make(map[string]*model.GameState),
		evals:  make(map[string]bool),
		locks:  make(map[string]bool),
	}
}

func (c *fakeStateCache) Set(ctx context.Context, state *model.GameState) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[state.SessionID] = cloneState(state)
	return nil
}

func (c *fakeStateCache) Get(ctx context.Context, sessionID string) (*model.GameState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	state, ok := c.states[sessionID]
	if !ok {
		return nil, nil
	}
	return cloneState(state), nil
}

func (c *fakeStateCache) Patch(ctx context.Context, sessionID string, fields map[string]interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	state, ok := c.states[sessionID]
	if !ok {
		return errors.New("state not found")
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return err
	}
	for k, v := range fields {
		m[k] = v
	}
	merged, err := json.Marshal(m)
	if err != nil {
		return err
	}
	var patched model.GameState
	if err := json.Unmarshal(merged, &patched); err != nil {
		return err
	}
	c.states[sessionID] = &patched
	return nil
}

func (c *fakeStateCache) Delete(ctx context.Context, sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.states, sessionID)
	return nil
}

func (c *fakeStateCache) Subscribe(ctx context.Context, sessionID string) (<-chan *model.GameState, func(), error) {
	ch := make(chan *model.GameState)
	close(ch)
	return ch, func() {}, nil
}

func (c *fakeStateCache) Publish(ctx context.Context, state *model.GameState) error {
	return nil
}

func (c *fakeStateCache) BeginEvaluation(ctx context.Context, sessionID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.evals[sessionID] {
		return false, nil
	}
	c.evals[sessionID] = true
	return true, nil
}

func (c *fakeStateCache) EndEvaluation(ctx context.Context, sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.evals, sessionID)
	return nil
}

func (c *fakeStateCache) AcquireLock(ctx context.Context, sessionID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.locks[sessionID] {
		return false, nil
	}
	c.locks[sessionID] = true
	return true, nil
}

func (c *fakeStateCache) ReleaseLock(ctx context.Context, sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.locks, sessionID)
	return nil
}

type fakeLeaderboard struct {
	mu      sync.Mutex
	scores  map[string]int
	deleted map[string]bool
}

func newFakeLeaderboard() *fakeLeaderboard {
	return &fakeLeaderboard{scores: make(map[string]int), deleted: make(map[string]bool)}
}

func (l *fakeLeaderboard) UpdateScore(ctx context.Context, sessionID, teamID string, score int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.scores[teamID] = score
	return nil
}

func (l *fakeLeaderboard) GetTop(ctx context.Context, sessionID string, limit int) ([]cache.LeaderboardEntry, error) {
	return nil, nil
}

func (l *fakeLeaderboard) GetRank(ctx context.Context, sessionID, teamID string) (int64, error) {
	return 0, nil
}

func (l *fakeLeaderboard) Delete(ctx context.Context, sessionID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.scores = make(map[string]int)
	l.deleted[sessionID] = true
	return nil
}

type fakeMetrics struct {
	mu     sync.Mutex
	totals map[string]model.AnswerMetrics // sessionID + "/" + teamID
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{totals: make(map[string]model.AnswerMetrics)}
}

func (m *fakeMetrics) Accumulate(ctx context.Context, sessionID, teamID string, metrics model.AnswerMetrics) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totals[sessionID+"/"+teamID] = metrics
	return nil
}

func (m *fakeMetrics) GetTeamTotals(ctx context.Context, sessionID, teamID string) (*model.AnswerMetrics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	totals := m.totals[sessionID+"/"+teamID]
	return &totals, nil
}

func (m *fakeMetrics) Delete(ctx context.Context, sessionID string, teamIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, teamID := range teamIDs {
		delete(m.totals, sessionID+"/"+teamID)
	}
	return nil
}

// scriptedEvaluator returns a fixed reasoning score per team and can
// optionally block until released
type scriptedEvaluator struct {
	scores  map[string]int
	release chan struct{}
}

func (e *scriptedEvaluator) Evaluate(ctx context.Context, card *model.GameCard, answer *model.TeamAnswer) (*model.EvaluationResult, error) {
	if e.release != nil {
		<-e.release
	}
	score, ok := e.scores[answer.TeamID]
	if !ok {
		score = model.MinReasoningScore
	}
	return &model.EvaluationResult{Score: score}, nil
}

func cloneSession(s *model.Session) *model.Session {
	data, _ := json.Marshal(s)
	var out model.Session
	json.Unmarshal(data, &out)
	return &out
}

func cloneState(s *model.GameState) *model.GameState {
	data, _ := json.Marshal(s)
	var out model.GameState
	json.Unmarshal(data, &out)
	return &out
}

// testGame wires a GameService over fakes with a started 4-team session
func testGame(t *testing.T, evaluator Evaluator) (*GameService, *fakeSessionRepo, *fakeStateCache, *model.Session) {
	t.Helper()

	session := &model.Session{
		ID:         "sess-1",
		Name:       "Test Game",
		Status:     model.SessionWaiting,
		AccessCode: "ABC234",
		Settings:   model.SessionSettings{TeamCount: 4, LinesToWin: 3},
	}
	for i := 0; i < 4; i++ {
		session.Teams = append(session.Teams, model.Team{
			ID:         fmt.Sprintf("team_%d", i),
			Name:       fmt.Sprintf("Team %d", i+1),
			ColorIndex: model.TeamColorIndex(i),
		})
	}

	cards := make([]model.GameCard, 25)
	for i := range cards {
		cards[i] = model.GameCard{
			ID:    fmt.Sprintf("card_%d", i),
			Title: fmt.Sprintf("Scenario %d", i),
			Choices: []model.Choice{
				{ID: "choice_90", Text: "Decisive action", Score: 90},
				{ID: "choice_70", Text: "Wait and observe", Score: 70},
				{ID: "choice_80", Text: "Ask for help"}, // unset, defaults to 80
				{ID: "choice_85", Text: "Split the team", Score: 85},
			},
		}
	}
	if err := session.InitBoard(cards); err != nil {
		t.Fatalf("init board: %v", err)
	}

	sessionRepo := newFakeSessionRepo()
	stateCache := newFakeStateCache()
	if err := sessionRepo.Create(context.Background(), session); err != nil {
		t.Fatalf("create session: %v", err)
	}

	svc := NewGameService(sessionRepo, &fakeRoundRepo{}, newFakeSessionCache(), stateCache, newFakeLeaderboard(), newFakeMetrics(), evaluator)
	return svc, sessionRepo, stateCache, session
}

// waitForPhase polls until the published state reaches the phase; the
// evaluation path runs in the background
func waitForPhase(t *testing.T, states *fakeStateCache, sessionID string, phase model.GamePhase) *model.GameState {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		state, err := states.Get(context.Background(), sessionID)
		if err != nil {
			t.Fatalf("get state: %v", err)
		}
		if state != nil && state.Phase == phase {
			return state
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("state never reached phase %s", phase)
	return nil
}

func TestStartGameRequiresBoard(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, _ := testGame(t, &scriptedEvaluator{})

	empty := &model.Session{ID: "sess-2", Status: model.SessionWaiting, Teams: []model.Team{{ID: "t0"}, {ID: "t1"}}}
	if err := repo.Create(ctx, empty); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.StartGame(ctx, "sess-2"); !errors.Is(err, ErrBoardNotReady) {
		t.Fatalf("expected ErrBoardNotReady, got %v", err)
	}
}

func TestStartGameInitializesState(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, session := testGame(t, &scriptedEvaluator{})

	state, err := svc.StartGame(ctx, session.ID)
	if err != nil {
		t.Fatalf("start game: %v", err)
	}
	if state.Phase != model.PhaseSelectingCard {
		t.Fatalf("expected selecting_card, got %s", state.Phase)
	}
	if state.CurrentRound != 1 || state.CurrentTurnTeamIndex != 0 {
		t.Fatalf("unexpected initial state: %+v", state)
	}

	stored, _ := repo.GetByID(ctx, session.ID)
	if stored.Status != model.SessionActive {
		t.Fatalf("session status not active: %s", stored.Status)
	}
}

func TestSelectCellEnforcesTurn(t *testing.T) {
	ctx := context.Background()
	svc, _, _, session := testGame(t, &scriptedEvaluator{})
	if _, err := svc.StartGame(ctx, session.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	// team_1 is not at the turn index
	if _, err := svc.SelectCell(ctx, session.ID, "team_1", 5); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}

	state, err := svc.SelectCell(ctx, session.ID, "team_0", 5)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if state.Phase != model.PhaseAllTeamsAnswering {
		t.Fatalf("expected all_teams_answering, got %s", state.Phase)
	}
	if state.SelectedCellIndex != 5 || state.CurrentCard == nil || state.CurrentCard.ID != "card_5" {
		t.Fatalf("card not snapshotted: %+v", state)
	}

	// selecting again mid-round is a sequencing error
	if _, err := svc.SelectCell(ctx, session.ID, "team_0", 6); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("expected ErrWrongPhase, got %v", err)
	}
}

func TestSubmitAnswerRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	svc, _, _, session := testGame(t, &scriptedEvaluator{})
	if _, err := svc.StartGame(ctx, session.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.SelectCell(ctx, session.ID, "team_0", 0); err != nil {
		t.Fatalf("select: %v", err)
	}

	state, err := svc.SubmitAnswer(ctx, session.ID, "team_1", "choice_90", "because speed matters")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(state.TeamAnswers) != 1 {
		t.Fatalf("expected 1 answer, got %d", len(state.TeamAnswers))
	}

	if _, err := svc.SubmitAnswer(ctx, session.ID, "team_1", "choice_70", "changed my mind"); !errors.Is(err, ErrDuplicateAnswer) {
		t.Fatalf("expected ErrDuplicateAnswer, got %v", err)
	}

	// answers stay unchanged in size and content after the rejected retry
	after, err := svc.GetState(ctx, session.ID)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if len(after.TeamAnswers) != 1 || after.TeamAnswers[0].ChoiceID != "choice_90" {
		t.Fatalf("duplicate mutated answers: %+v", after.TeamAnswers)
	}

	if _, err := svc.SubmitAnswer(ctx, session.ID, "team_2", "bogus", "x"); !errors.Is(err, ErrUnknownChoice) {
		t.Fatalf("expected ErrUnknownChoice, got %v", err)
	}
}

func TestFullRoundScoresAndAwardsCell(t *testing.T) {
	ctx := context.Background()
	evaluator := &scriptedEvaluator{scores: map[string]int{
		"team_0": 80, "team_1": 90, "team_2": 70, "team_3": 75,
	}}
	svc, repo, states, session := testGame(t, evaluator)

	if _, err := svc.StartGame(ctx, session.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.SelectCell(ctx, session.ID, "team_0", 12); err != nil {
		t.Fatalf("select center: %v", err)
	}

	if err := svc.TriggerEvaluation(ctx, session.ID); !errors.Is(err, ErrAnswersIncomplete) {
		t.Fatalf("expected ErrAnswersIncomplete before answers, got %v", err)
	}

	choices := map[string]string{
		"team_0": "choice_90", "team_1": "choice_70", "team_2": "choice_80", "team_3": "choice_85",
	}
	for teamID, choiceID := range choices {
		if _, err := svc.SubmitAnswer(ctx, session.ID, teamID, choiceID, "our reasoning"); err != nil {
			t.Fatalf("submit %s: %v", teamID, err)
		}
	}

	if err := svc.TriggerEvaluation(ctx, session.ID); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	state := waitForPhase(t, states, session.ID, model.PhaseShowingResults)

	// finals: (90+80)/2=85, (70+90)/2=80, (80+70)/2=75, (85+75)/2=80
	want := map[string]int{"team_0": 85, "team_1": 80, "team_2": 75, "team_3": 80}
	for _, ans := range state.TeamAnswers {
		if ans.AIScore != want[ans.TeamID] {
			t.Fatalf("%s: expected %d, got %d", ans.TeamID, want[ans.TeamID], ans.AIScore)
		}
	}

	if len(state.RoundResults) != 1 {
		t.Fatalf("expected 1 round result, got %d", len(state.RoundResults))
	}
	result := state.RoundResults[0]
	if result.WinnerTeamID != "team_0" || result.WinningScore != 85 {
		t.Fatalf("expected team_0 to win with 85, got %s/%d", result.WinnerTeamID, result.WinningScore)
	}

	stored, _ := repo.GetByID(ctx, session.ID)
	cell := stored.Cells[12]
	if !cell.IsCompleted || cell.OwnerTeamID != "team_0" {
		t.Fatalf("center cell not awarded: %+v", cell)
	}
	if state.IsAIProcessing {
		t.Fatal("processing flag not cleared")
	}
}

func TestTriggerEvaluationGuardsDoubleFire(t *testing.T) {
	ctx := context.Background()
	evaluator := &scriptedEvaluator{
		scores:  map[string]int{"team_0": 80, "team_1": 80, "team_2": 80, "team_3": 80},
		release: make(chan struct{}),
	}
	svc, _, states, session := testGame(t, evaluator)

	if _, err := svc.StartGame(ctx, session.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.SelectCell(ctx, session.ID, "team_0", 3); err != nil {
		t.Fatalf("select: %v", err)
	}
	for i := 0; i < 4; i++ {
		teamID := fmt.Sprintf("team_%d", i)
		if _, err := svc.SubmitAnswer(ctx, session.ID, teamID, "choice_80", "r"); err != nil {
			t.Fatalf("submit %s: %v", teamID, err)
		}
	}

	if err := svc.TriggerEvaluation(ctx, session.ID); err != nil {
		t.Fatalf("first trigger: %v", err)
	}
	// evaluator is blocked: the flag is held, a second trigger must bounce
	if err := svc.TriggerEvaluation(ctx, session.ID); !errors.Is(err, ErrEvaluationInProgress) {
		t.Fatalf("expected ErrEvaluationInProgress, got %v", err)
	}

	close(evaluator.release)
	waitForPhase(t, states, session.ID, model.PhaseShowingResults)
}

func TestEndGameDuringEvaluationIsNotOverwritten(t *testing.T) {
	ctx := context.Background()
	evaluator := &scriptedEvaluator{
		scores:  map[string]int{"team_0": 80, "team_1": 80, "team_2": 80, "team_3": 80},
		release: make(chan struct{}),
	}
	svc, repo, states, session := testGame(t, evaluator)

	if _, err := svc.StartGame(ctx, session.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.SelectCell(ctx, session.ID, "team_0", 3); err != nil {
		t.Fatalf("select: %v", err)
	}
	for i := 0; i < 4; i++ {
		teamID := fmt.Sprintf("team_%d", i)
		if _, err := svc.SubmitAnswer(ctx, session.ID, teamID, "choice_90", "r"); err != nil {
			t.Fatalf("submit %s: %v", teamID, err)
		}
	}
	if err := svc.TriggerEvaluation(ctx, session.ID); err != nil {
		t.Fatalf("trigger: %v", err)
	}

	// The admin ends the game while the evaluator is still running; the
	// evaluation result must be abandoned, not written over the ended game
	if _, err := svc.EndGame(ctx, session.ID); err != nil {
		t.Fatalf("end game: %v", err)
	}
	close(evaluator.release)

	deadline := time.Now().Add(2 * time.Second)
	for {
		state, err := states.Get(ctx, session.ID)
		if err != nil {
			t.Fatalf("get state: %v", err)
		}
		if state != nil && !state.IsAIProcessing {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("processing flag never cleared")
		}
		time.Sleep(5 * time.Millisecond)
	}

	state, _ := states.Get(ctx, session.ID)
	if state.Phase != model.PhaseGameEnded {
		t.Fatalf("expected game_ended to stick, got %s", state.Phase)
	}
	if len(state.RoundResults) != 0 {
		t.Fatalf("abandoned round was still recorded: %d results", len(state.RoundResults))
	}

	stored, _ := repo.GetByID(ctx, session.ID)
	if stored.Status != model.SessionEnded {
		t.Fatalf("ended session resurrected, status %s", stored.Status)
	}
	if stored.Cells[3].IsCompleted {
		t.Fatal("cell awarded by an abandoned evaluation")
	}
}

func TestAdvanceRoundRotatesTurn(t *testing.T) {
	ctx := context.Background()
	evaluator := &scriptedEvaluator{scores: map[string]int{"team_0": 90, "team_1": 70, "team_2": 70, "team_3": 70}}
	svc, _, states, session := testGame(t, evaluator)

	if _, err := svc.StartGame(ctx, session.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.SelectCell(ctx, session.ID, "team_0", 0); err != nil {
		t.Fatalf("select: %v", err)
	}
	for i := 0; i < 4; i++ {
		if _, err := svc.SubmitAnswer(ctx, session.ID, fmt.Sprintf("team_%d", i), "choice_70", "r"); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	if err := svc.TriggerEvaluation(ctx, session.ID); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	waitForPhase(t, states, session.ID, model.PhaseShowingResults)

	state, err := svc.AdvanceRound(ctx, session.ID)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if state.Phase != model.PhaseSelectingCard {
		t.Fatalf("expected selecting_card, got %s", state.Phase)
	}
	if state.CurrentRound != 2 || state.CurrentTurnTeamIndex != 1 {
		t.Fatalf("round/turn not advanced: round %d turn %d", state.CurrentRound, state.CurrentTurnTeamIndex)
	}
	if state.SelectedCellIndex != -1 || state.CurrentCard != nil || len(state.TeamAnswers) != 0 {
		t.Fatalf("round scratch state not cleared: %+v", state)
	}
}

func TestAdvanceRoundEndsGameWhenBoardFull(t *testing.T) {
	ctx := context.Background()
	svc, repo, stateCache, session := testGame(t, &scriptedEvaluator{})

	if _, err := svc.StartGame(ctx, session.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Claim every cell directly and park the state in showing_results.
	stored, _ := repo.GetByID(ctx, session.ID)
	for i := 0; i < model.BoardSize; i++ {
		if err := stored.ClaimCell(i, stored.Teams[i%4].ID); err != nil {
			t.Fatalf("claim %d: %v", i, err)
		}
	}
	if err := repo.Update(ctx, stored); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := svc.sessionCache.Set(ctx, stored); err != nil {
		t.Fatalf("seed session cache: %v", err)
	}
	state, _ := stateCache.Get(ctx, session.ID)
	state.Phase = model.PhaseShowingResults
	if err := stateCache.Set(ctx, state); err != nil {
		t.Fatalf("seed state: %v", err)
	}

	ended, err := svc.AdvanceRound(ctx, session.ID)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if ended.Phase != model.PhaseGameEnded {
		t.Fatalf("expected game_ended, got %s", ended.Phase)
	}

	after, _ := repo.GetByID(ctx, session.ID)
	if after.Status != model.SessionEnded || after.EndedAt == nil {
		t.Fatalf("session not ended: %+v", after.Status)
	}
}

func TestPauseAndResumeCollapseToSelection(t *testing.T) {
	ctx := context.Background()
	svc, _, _, session := testGame(t, &scriptedEvaluator{})

	if _, err := svc.StartGame(ctx, session.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.SelectCell(ctx, session.ID, "team_0", 2); err != nil {
		t.Fatalf("select: %v", err)
	}

	state, err := svc.PauseGame(ctx, session.ID)
	if err != nil {
		t.Fatalf("pause: %v", err)
	}
	if state.Phase != model.PhasePaused {
		t.Fatalf("expected paused, got %s", state.Phase)
	}

	state, err = svc.ResumeGame(ctx, session.ID)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if state.Phase != model.PhaseSelectingCard {
		t.Fatalf("resume must land in selecting_card, got %s", state.Phase)
	}
	if state.CurrentCard != nil || state.SelectedCellIndex != -1 {
		t.Fatal("resume must drop the interrupted selection")
	}
}

func TestEndGameFromAnyActivePhase(t *testing.T) {
	ctx := context.Background()
	svc, _, _, session := testGame(t, &scriptedEvaluator{})

	if _, err := svc.StartGame(ctx, session.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.SelectCell(ctx, session.ID, "team_0", 2); err != nil {
		t.Fatalf("select: %v", err)
	}

	state, err := svc.EndGame(ctx, session.ID)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if state.Phase != model.PhaseGameEnded {
		t.Fatalf("expected game_ended, got %s", state.Phase)
	}

	// terminal: nothing moves out of game_ended
	if _, err := svc.SelectCell(ctx, session.ID, "team_0", 3); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("expected ErrWrongPhase after end, got %v", err)
	}
	if _, err := svc.EndGame(ctx, session.ID); !errors.Is(err, model.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}
