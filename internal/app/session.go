package app

import (
	"log/slog"
	"strconv"
	"sync"
	"time"

	"sparet/internal/domain"
)

// ClientConnection represents a connected client
type ClientConnection interface {
	Send(message any) error
	GetClientID() string
	GetPlayerID() string
	GetRole() domain.Role
	Close() error
}

// Pacing controls the timed parts of a session's flow.
type Pacing struct {
	RoundIntroDelay   time.Duration
	FollowupTimer     time.Duration
	ScoreboardAdvance time.Duration
	ClueTimersEnabled bool
}

// clueTimerDurations are the per-level answer windows used when clue timers
// are enabled, indexed by clue position (10 points first).
var clueTimerDurations = []time.Duration{
	14 * time.Second,
	12 * time.Second,
	10 * time.Second,
	8 * time.Second,
	6 * time.Second,
}

// outbound is one event with its delivery scope.
type outbound struct {
	event      domain.Envelope
	toClient   string
	toRole     domain.Role
	exceptRole domain.Role
}

// GameSession wraps a game with concurrency control, client management, and
// the timers that drive its flow. One mutex serializes every game mutation,
// so races like simultaneous brake pulls resolve in arrival order.
type GameSession struct {
	ID       string
	game     *domain.Game
	pacing   Pacing
	director *Director
	logger   *slog.Logger

	mu        sync.Mutex
	epoch     int
	clueTimer *time.Timer
	flowTimer *time.Timer

	clients   map[string]ClientConnection // clientID -> connection
	clientsMu sync.RWMutex

	events chan outbound
	done   chan struct{}
}

// NewGameSession creates a session around a fresh game.
func NewGameSession(game *domain.Game, pacing Pacing, logger *slog.Logger) *GameSession {
	session := &GameSession{
		ID:       game.SessionID,
		game:     game,
		pacing:   pacing,
		director: NewDirector(),
		logger:   logger,
		clients:  make(map[string]ClientConnection),
		events:   make(chan outbound, 100),
		done:     make(chan struct{}),
	}

	go session.eventLoop()

	return session
}

// JoinCode returns the session's join code
func (s *GameSession) JoinCode() string {
	return s.game.JoinCode
}

// HostID returns the host participant id
func (s *GameSession) HostID() string {
	return s.game.HostID
}

// CreatedAtMs returns when the game was created
func (s *GameSession) CreatedAtMs() int64 {
	return s.game.CreatedAtMs
}

// Phase returns the current game phase
func (s *GameSession) Phase() domain.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Phase
}

// PlayerCount returns the number of joined players
func (s *GameSession) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.game.ActivePlayers())
}

// CanJoin checks if a new player can join the game
func (s *GameSession) CanJoin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Phase == domain.PhaseLobby &&
		len(s.game.ActivePlayers()) < s.game.Settings.MaxPlayers
}

// bumpEpoch invalidates every scheduled callback and stops pending timers.
// Called on each phase change while holding the session lock.
func (s *GameSession) bumpEpoch() {
	s.epoch++
	if s.clueTimer != nil {
		s.clueTimer.Stop()
		s.clueTimer = nil
	}
	if s.flowTimer != nil {
		s.flowTimer.Stop()
		s.flowTimer = nil
	}
}

// scheduleAfter runs fn after d unless the epoch has moved on by then. fn
// runs with the session lock held. The returned timer can be stopped early.
func (s *GameSession) scheduleAfter(d time.Duration, fn func()) *time.Timer {
	epoch := s.epoch
	return time.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		select {
		case <-s.done:
			return
		default:
		}
		if s.epoch != epoch {
			return
		}
		fn()
	})
}

// RegisterClient attaches a connection, replacing any previous registration
// with the same client id. The evicted socket is not closed here; it shuts
// itself down when its next write fails.
func (s *GameSession) RegisterClient(client ClientConnection) {
	s.clientsMu.Lock()
	s.clients[client.GetClientID()] = client
	s.clientsMu.Unlock()
}

// UnregisterClient removes a connection if it is still the registered one.
func (s *GameSession) UnregisterClient(client ClientConnection) {
	s.clientsMu.Lock()
	if current, ok := s.clients[client.GetClientID()]; ok && current == client {
		delete(s.clients, client.GetClientID())
	}
	s.clientsMu.Unlock()
}

// MarkConnected flags a participant as connected and tells the lobby.
func (s *GameSession) MarkConnected(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if player, err := s.game.PlayerByID(playerID); err == nil {
		player.Reconnect()
		s.broadcastLobby()
	}
}

// MarkDisconnected flags a participant as disconnected. The participant and
// their score stay in the game for reconnection.
func (s *GameSession) MarkDisconnected(playerID string, nowMs int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if player, err := s.game.PlayerByID(playerID); err == nil {
		player.Disconnect(nowMs)
		s.broadcastLobby()
	}
}

// AddPlayer adds a player to the lobby.
func (s *GameSession) AddPlayer(playerID, name string) (*domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, err := s.game.AddPlayer(playerID, name, time.Now().UnixMilli())
	if err != nil {
		return nil, err
	}

	s.broadcastLobby()
	return player, nil
}

// SetPlan attaches a game plan while the session is in the lobby.
func (s *GameSession) SetPlan(plan *domain.GamePlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.SetPlan(plan)
}

// RoundContent returns the destination being played, nil before the first
// round starts.
func (s *GameSession) RoundContent() *domain.RoundContent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Content
}

// SetTTSManifest stores pre-generated voice clips for the director.
func (s *GameSession) SetTTSManifest(clips []domain.ClipManifest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.game.Audio.TTSManifest = clips
}

// Snapshot projects the current state for one viewer.
func (s *GameSession) Snapshot(role domain.Role, playerID string) domain.StateView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.ProjectState(s.game, role, playerID)
}

// HandleStartGame starts the first round (host only).
func (s *GameSession) HandleStartGame(playerID string, fallback func() *domain.RoundContent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.game.IsHost(playerID) {
		return domain.ErrNotHost
	}

	content := s.planContent()
	if content == nil {
		content = fallback()
	}
	if err := s.game.StartRound(content); err != nil {
		return err
	}
	s.bumpEpoch()

	s.startRoundIntro()
	return nil
}

// planContent returns the current game plan destination's content, or nil.
func (s *GameSession) planContent() *domain.RoundContent {
	if current := s.game.Plan.Current(); current != nil {
		return current.Content
	}
	return nil
}

// startRoundIntro broadcasts the intro and schedules the first clue.
// Caller holds the lock and has already started the round.
func (s *GameSession) startRoundIntro() {
	payload := domain.RoundIntroPayload{RoundIndex: s.game.RoundIndex}
	if s.game.Plan != nil {
		payload.TotalDestinations = len(s.game.Plan.Destinations)
	}
	s.broadcast(domain.NewEvent(domain.EventRoundIntro, s.ID, payload))
	s.broadcastAll(s.director.OnRoundIntro(s.game))

	s.flowTimer = s.scheduleAfter(s.pacing.RoundIntroDelay, s.beginClues)

	s.logger.Info("round started",
		"sessionId", s.ID,
		"roundIndex", s.game.RoundIndex,
		"destination", s.game.Content.Name)
}

// beginClues presents the 10-point clue. Runs with the lock held.
func (s *GameSession) beginClues() {
	clue, err := s.game.BeginClues()
	if err != nil {
		s.logger.Error("failed to begin clues", "sessionId", s.ID, "error", err)
		return
	}
	s.bumpEpoch()

	s.presentClue(clue, 0)
	s.broadcastAll(s.director.OnCluesBegin(s.game, clue.Points, clue.Text))
}

// presentClue broadcasts one clue and arms the level timer when enabled.
func (s *GameSession) presentClue(clue domain.Clue, clueIndex int) {
	payload := domain.CluePresentPayload{
		ClueLevelPoints: clue.Points,
		ClueText:        clue.Text,
		ClueIndex:       clueIndex,
		RoundIndex:      s.game.RoundIndex,
	}
	if s.pacing.ClueTimersEnabled {
		duration := clueTimerDurations[clueIndex]
		s.game.Timer = &domain.Timer{
			TimerID:         "clue-" + strconv.Itoa(clue.Points),
			StartAtServerMs: time.Now().UnixMilli(),
			DurationMs:      duration.Milliseconds(),
		}
		payload.Timer = s.game.Timer
		s.clueTimer = s.scheduleAfter(duration, func() {
			if err := s.advanceClue(); err != nil {
				s.logger.Warn("timed clue advance refused", "sessionId", s.ID, "phase", s.game.Phase, "error", err)
			}
		})
	}
	s.broadcast(domain.NewEvent(domain.EventCluePresent, s.ID, payload))
}

// HandleNextClue advances to the next clue or the reveal (host only). In
// PAUSED_FOR_BRAKE it overrides a stalled brake.
func (s *GameSession) HandleNextClue(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.game.IsHost(playerID) {
		return domain.ErrNotHost
	}
	return s.advanceClue()
}

// advanceClue moves the clue sequence forward. Runs with the lock held.
func (s *GameSession) advanceClue() error {
	outcome, err := s.game.NextClue()
	if err != nil {
		return err
	}
	s.bumpEpoch()
	s.game.Timer = nil

	if !outcome.IsReveal {
		s.presentClue(outcome.Clue, outcome.ClueIndex)
		s.broadcastAll(s.director.OnClueAdvance(s.game, outcome.Clue.Points, outcome.Clue.Text))
		return nil
	}

	s.revealDestination(outcome)
	return nil
}

// revealDestination broadcasts the reveal, the scored results, and the
// updated scoreboard.
func (s *GameSession) revealDestination(outcome domain.NextClueOutcome) {
	s.broadcastAll(s.director.OnRevealStart(s.game))
	s.broadcast(domain.NewEvent(domain.EventDestinationReveal, s.ID, domain.DestinationRevealPayload{
		Name:    s.game.Content.Name,
		Country: s.game.Content.Country,
	}))
	s.broadcastAll(s.director.OnDestinationReveal(s.game))

	s.broadcast(domain.NewEvent(domain.EventDestinationResults, s.ID, domain.DestinationResultsPayload{
		Destination: s.game.Content.Name,
		Results:     outcome.Results,
	}))
	s.broadcastScoreboard()
	s.broadcastAll(s.director.OnDestinationResults(s.game, outcome.AnyCorrect))

	s.logger.Info("destination revealed",
		"sessionId", s.ID,
		"destination", s.game.Content.Name,
		"lockedAnswers", len(outcome.Results),
		"anyCorrect", outcome.AnyCorrect)
}

// HandleBrakePull resolves one brake pull. Winners are announced to all,
// losers hear only their own rejection.
func (s *GameSession) HandleBrakePull(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.game.PullBrake(playerID, time.Now().UnixMilli())
	if err != nil {
		return err
	}

	if !result.Accepted {
		s.sendToClient(playerID, domain.NewEvent(domain.EventBrakeRejected, s.ID, domain.BrakeRejectedPayload{
			Reason:         result.Reason,
			WinnerPlayerID: result.WinnerPlayerID,
		}))
		return nil
	}

	s.bumpEpoch()
	s.broadcast(domain.NewEvent(domain.EventBrakeAccepted, s.ID, domain.BrakeAcceptedPayload{
		PlayerID:        result.WinnerPlayerID,
		PlayerName:      result.PlayerName,
		ClueLevelPoints: result.ClueLevelPoints,
	}))
	s.broadcastAll(s.director.OnBrakeAccepted(s.game))

	s.logger.Info("brake accepted",
		"sessionId", s.ID,
		"playerId", result.WinnerPlayerID,
		"levelPoints", result.ClueLevelPoints)
	return nil
}

// HandleBrakeAnswer locks the brake owner's answer. The host hears the
// answer text; players and the TV only learn that a lock happened.
func (s *GameSession) HandleBrakeAnswer(playerID, answerText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	locked, err := s.game.LockAnswer(playerID, answerText, time.Now().UnixMilli())
	if err != nil {
		return err
	}
	s.bumpEpoch()

	player, _ := s.game.PlayerByID(playerID)
	name := ""
	if player != nil {
		name = player.Name
	}

	hostPayload := domain.BrakeAnswerLockedPayload{
		PlayerID:            playerID,
		PlayerName:          name,
		LockedAtLevelPoints: locked.LockedAtLevelPoints,
		AnswerText:          locked.AnswerText,
		AnsweredCount:       s.game.AnsweredCount(),
	}
	publicPayload := hostPayload
	publicPayload.AnswerText = ""

	s.sendToRole(domain.RoleHost, domain.NewEvent(domain.EventBrakeAnswerLocked, s.ID, hostPayload))
	s.sendExceptRole(domain.RoleHost, domain.NewEvent(domain.EventBrakeAnswerLocked, s.ID, publicPayload))

	s.broadcast(domain.NewEvent(domain.EventAnswerCountUpdate, s.ID, domain.AnswerCountPayload{
		AnsweredCount: s.game.AnsweredCount(),
		PlayerCount:   len(s.game.ActivePlayers()),
	}))
	s.broadcastAll(s.director.OnAnswerLocked(s.game))
	return nil
}

// HandleContinue is the host's generic "move on": it starts the follow-up
// questions after a reveal and advances past the scoreboard.
func (s *GameSession) HandleContinue(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.game.IsHost(playerID) {
		return domain.ErrNotHost
	}

	switch s.game.Phase {
	case domain.PhaseRevealDestination:
		return s.startFollowups()
	case domain.PhaseScoreboard:
		return s.advanceFromScoreboard()
	default:
		return domain.ErrInvalidPhase
	}
}

// startFollowups begins the follow-up sequence, or goes straight to the
// scoreboard when the destination has none. Runs with the lock held.
func (s *GameSession) startFollowups() error {
	state, err := s.game.StartFollowups(time.Now().UnixMilli())
	if err != nil {
		return err
	}
	s.bumpEpoch()

	if state == nil {
		if err := s.game.FinishReveal(); err != nil {
			return err
		}
		s.enterScoreboard()
		return nil
	}

	s.presentFollowup(state)
	s.broadcastAll(s.director.OnFollowupStart(s.game, state.QuestionIndex, state.QuestionText))
	return nil
}

// presentFollowup broadcasts the current question and arms its timer.
func (s *GameSession) presentFollowup(state *domain.FollowupState) {
	s.broadcast(domain.NewEvent(domain.EventFollowupPresent, s.ID, domain.FollowupPresentPayload{
		QuestionText:   state.QuestionText,
		Options:        state.Options,
		QuestionIndex:  state.QuestionIndex,
		TotalQuestions: state.TotalQuestions,
		Timer:          state.Timer,
	}))
	s.flowTimer = s.scheduleAfter(s.pacing.FollowupTimer, s.closeFollowupQuestion)
}

// HandleFollowupAnswer records one player's answer. When everyone has
// answered, the question closes early.
func (s *GameSession) HandleFollowupAnswer(playerID, answerText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.game.SubmitFollowupAnswer(playerID, answerText, time.Now().UnixMilli()); err != nil {
		return err
	}

	s.broadcast(domain.NewEvent(domain.EventAnswerCountUpdate, s.ID, domain.AnswerCountPayload{
		AnsweredCount: len(s.game.Followup.AnswersByPlayer),
		PlayerCount:   len(s.game.ActivePlayers()),
	}))

	if s.game.AllFollowupAnswered() {
		if s.flowTimer != nil {
			s.flowTimer.Stop()
			s.flowTimer = nil
		}
		s.closeFollowupQuestion()
	}
	return nil
}

// closeFollowupQuestion locks answers, reveals results simultaneously, and
// advances to the next question or the scoreboard. Runs with the lock held.
func (s *GameSession) closeFollowupQuestion() {
	questionIndex := s.game.Followup.QuestionIndex
	answered := s.game.LockFollowupAnswers()
	s.broadcast(domain.NewEvent(domain.EventFollowupAnswersLocked, s.ID, domain.FollowupAnswersLockedPayload{
		QuestionIndex: questionIndex,
		AnsweredCount: answered,
	}))

	outcome, err := s.game.ScoreFollowup(time.Now().UnixMilli())
	if err != nil {
		s.logger.Error("failed to score follow-up", "sessionId", s.ID, "error", err)
		return
	}
	s.bumpEpoch()

	s.broadcast(domain.NewEvent(domain.EventFollowupResults, s.ID, domain.FollowupResultsPayload{
		QuestionIndex: outcome.QuestionIndex,
		CorrectAnswer: outcome.CorrectAnswer,
		Results:       outcome.Results,
	}))
	s.broadcastScoreboard()

	if outcome.NextQuestionIndex >= 0 {
		s.presentFollowup(s.game.Followup)
		s.broadcastAll(s.director.OnFollowupPresent(s.game, s.game.Followup.QuestionIndex, s.game.Followup.QuestionText))
		return
	}

	s.broadcastAll(s.director.OnFollowupSequenceEnd(s.game))
	s.enterScoreboard()
}

// enterScoreboard broadcasts standings and, when a plan is active, arms the
// auto-advance timer. Runs with the lock held, phase already SCOREBOARD.
func (s *GameSession) enterScoreboard() {
	s.broadcastScoreboard()
	if s.game.Plan != nil {
		s.flowTimer = s.scheduleAfter(s.pacing.ScoreboardAdvance, func() {
			if err := s.advanceFromScoreboard(); err != nil {
				s.logger.Error("scoreboard auto-advance failed", "sessionId", s.ID, "error", err)
			}
		})
	}
}

// advanceFromScoreboard starts the next planned destination or ends the
// game. Runs with the lock held.
func (s *GameSession) advanceFromScoreboard() error {
	next, err := s.game.AdvanceFromScoreboard()
	if err != nil {
		return err
	}
	s.bumpEpoch()

	if next != nil {
		if err := s.game.StartRound(next.Content); err != nil {
			return err
		}
		s.bumpEpoch()
		s.startRoundIntro()
		return nil
	}

	s.finishGame()
	return nil
}

// finishGame broadcasts the final standings and runs the finale ceremony.
func (s *GameSession) finishGame() {
	winners := []string{}
	for _, entry := range s.game.Scoreboard {
		if entry.Rank == 1 {
			winners = append(winners, entry.PlayerID)
		}
	}
	s.broadcast(domain.NewEvent(domain.EventFinalResults, s.ID, domain.FinalResultsPayload{
		Entries: domain.ProjectState(s.game, domain.RoleTV, "").Scoreboard,
		Winners: winners,
	}))

	result := s.director.OnFinalResults(s.game)
	s.broadcastAll(result.Immediate)
	for _, scheduled := range result.Scheduled {
		event := scheduled.Event
		s.scheduleAfter(scheduled.Delay, func() {
			s.broadcast(event)
		})
	}

	s.logger.Info("game finished", "sessionId", s.ID, "winners", winners)
}

// broadcastLobby pushes the current lobby roster to everyone.
func (s *GameSession) broadcastLobby() {
	players := make([]domain.PlayerView, 0, len(s.game.Players))
	for _, p := range s.game.Players {
		if p.Role == domain.RolePlayer {
			players = append(players, p.View(domain.RolePlayer))
		}
	}
	s.broadcast(domain.NewEvent(domain.EventLobbyUpdated, s.ID, domain.LobbyPayload{
		JoinCode: s.game.JoinCode,
		Players:  players,
	}))
}

// broadcastScoreboard pushes the ranked standings to everyone.
func (s *GameSession) broadcastScoreboard() {
	payload := domain.ScoreboardPayload{
		Entries:    domain.ProjectState(s.game, domain.RoleTV, "").Scoreboard,
		RoundIndex: s.game.RoundIndex,
	}
	if s.game.Plan != nil {
		payload.TotalDestinations = len(s.game.Plan.Destinations)
	}
	s.broadcast(domain.NewEvent(domain.EventScoreboardUpdate, s.ID, payload))
}

func (s *GameSession) broadcastAll(events []domain.Envelope) {
	for _, event := range events {
		s.broadcast(event)
	}
}

// queueEvent adds an event to the broadcast queue
func (s *GameSession) queueEvent(out outbound) {
	select {
	case s.events <- out:
	default:
		s.logger.Warn("event queue full, dropping event", "sessionId", s.ID, "type", out.event.Type)
	}
}

func (s *GameSession) broadcast(event domain.Envelope) {
	s.queueEvent(outbound{event: event})
}

func (s *GameSession) sendToClient(clientID string, event domain.Envelope) {
	s.queueEvent(outbound{event: event, toClient: clientID})
}

func (s *GameSession) sendToRole(role domain.Role, event domain.Envelope) {
	s.queueEvent(outbound{event: event, toRole: role})
}

func (s *GameSession) sendExceptRole(role domain.Role, event domain.Envelope) {
	s.queueEvent(outbound{event: event, exceptRole: role})
}

// eventLoop delivers queued events to clients outside the game lock.
func (s *GameSession) eventLoop() {
	for {
		select {
		case <-s.done:
			return
		case out := <-s.events:
			s.deliver(out)
		}
	}
}

// deliver sends one event to every connection in its scope.
func (s *GameSession) deliver(out outbound) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	if out.toClient != "" {
		if client, ok := s.clients[out.toClient]; ok {
			if err := client.Send(out.event); err != nil {
				s.logger.Debug("failed to send to client", "clientId", out.toClient, "error", err)
			}
		}
		return
	}

	for clientID, client := range s.clients {
		if out.toRole != "" && client.GetRole() != out.toRole {
			continue
		}
		if out.exceptRole != "" && client.GetRole() == out.exceptRole {
			continue
		}
		if err := client.Send(out.event); err != nil {
			s.logger.Debug("failed to send to client", "clientId", clientID, "error", err)
		}
	}
}

// Close shuts down the session and every connection.
func (s *GameSession) Close() {
	s.mu.Lock()
	select {
	case <-s.done:
		s.mu.Unlock()
		return
	default:
		close(s.done)
	}
	s.bumpEpoch()
	s.mu.Unlock()

	s.clientsMu.Lock()
	for _, client := range s.clients {
		client.Close()
	}
	s.clients = make(map[string]ClientConnection)
	s.clientsMu.Unlock()
}
