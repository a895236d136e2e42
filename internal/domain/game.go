package domain

import (
	"strconv"
	"strings"
)

// GameSettings holds configurable game parameters
type GameSettings struct {
	MaxPlayers        int
	BrakeCooldownMs   int64
	FollowupTimerMs   int64
	FollowupPoints    int
	SpeedBonusEnabled bool
}

// DefaultGameSettings returns the default game settings
func DefaultGameSettings() GameSettings {
	return GameSettings{
		MaxPlayers:      10,
		BrakeCooldownMs: 2000,
		FollowupTimerMs: 15000,
		FollowupPoints:  2,
	}
}

// Game is the mutable state of one session. It contains the full game rules
// but does no I/O and schedules no timers; the owning session serializes all
// access and reacts to the returned outcomes.
type Game struct {
	SessionID          string
	JoinCode           string
	HostID             string
	Version            int
	Phase              Phase
	Players            []*Player
	RoundIndex         int
	Content            *RoundContent // current destination, never projected as-is
	Revealed           bool
	ClueLevelPoints    int // 0 when no clue is active
	ClueText           string
	BrakeOwnerPlayerID string
	LockedAnswers      []*LockedAnswer
	Followup           *FollowupState
	Scoreboard         []*ScoreboardEntry
	Timer              *Timer
	Audio              *AudioState
	Plan               *GamePlan
	Settings           GameSettings
	CreatedAtMs        int64

	lastBrakePullMs map[string]int64
}

// NewGame creates a game in the lobby with the host as its only participant.
func NewGame(sessionID, joinCode, hostID string, settings GameSettings, nowMs int64) *Game {
	host := NewPlayer(hostID, "Host", RoleHost, nowMs)
	return &Game{
		SessionID:       sessionID,
		JoinCode:        joinCode,
		HostID:          hostID,
		Version:         1,
		Phase:           PhaseLobby,
		Players:         []*Player{host},
		Scoreboard:      []*ScoreboardEntry{},
		LockedAnswers:   []*LockedAnswer{},
		Audio:           &AudioState{},
		Settings:        settings,
		CreatedAtMs:     nowMs,
		lastBrakePullMs: make(map[string]int64),
	}
}

func (g *Game) bump() {
	g.Version++
}

// transition moves the game to the target phase, rejecting illegal pairs.
func (g *Game) transition(target Phase) error {
	if !g.Phase.CanTransitionTo(target) {
		return ErrInvalidTransition
	}
	g.Phase = target
	g.bump()
	return nil
}

// IsHost checks if the given player is the host
func (g *Game) IsHost(playerID string) bool {
	return g.HostID == playerID
}

// PlayerByID returns a player by id
func (g *Game) PlayerByID(playerID string) (*Player, error) {
	for _, p := range g.Players {
		if p.ID == playerID {
			return p, nil
		}
	}
	return nil, ErrPlayerNotFound
}

// ActivePlayers returns the participants with the player role, in join order.
func (g *Game) ActivePlayers() []*Player {
	out := make([]*Player, 0, len(g.Players))
	for _, p := range g.Players {
		if p.Role == RolePlayer {
			out = append(out, p)
		}
	}
	return out
}

// AddPlayer adds a player while the game is in the lobby.
func (g *Game) AddPlayer(playerID, name string, nowMs int64) (*Player, error) {
	if g.Phase != PhaseLobby {
		return nil, ErrGameAlreadyStarted
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if len(g.ActivePlayers()) >= g.Settings.MaxPlayers {
		return nil, ErrGameFull
	}

	player := NewPlayer(playerID, name, RolePlayer, nowMs)
	g.Players = append(g.Players, player)
	g.Scoreboard = append(g.Scoreboard, &ScoreboardEntry{
		PlayerID: playerID,
		Name:     name,
		Score:    0,
		Rank:     1,
	})
	g.bump()
	return player, nil
}

// SetPlan attaches a multi-destination game plan. Lobby only.
func (g *Game) SetPlan(plan *GamePlan) error {
	if g.Phase != PhaseLobby {
		return ErrGameAlreadyStarted
	}
	g.Plan = plan
	g.bump()
	return nil
}

// StartRound loads a destination and moves to the round intro. Valid from
// the lobby (first destination) and from the scoreboard (next destination in
// the plan).
func (g *Game) StartRound(content *RoundContent) error {
	if content == nil || len(content.Clues) != len(CluePointLevels) {
		return ErrNoRoundContent
	}
	first := g.Phase == PhaseLobby
	if err := g.transition(PhaseRoundIntro); err != nil {
		return err
	}

	if first {
		g.RoundIndex = 0
	} else {
		g.RoundIndex++
	}
	g.Content = content
	g.Revealed = false
	g.ClueLevelPoints = 0
	g.ClueText = ""
	g.BrakeOwnerPlayerID = ""
	g.LockedAnswers = g.LockedAnswers[:0]
	g.Followup = nil
	g.Timer = nil
	return nil
}

// BeginClues moves from the round intro to the first clue at 10 points.
func (g *Game) BeginClues() (Clue, error) {
	if g.Content == nil {
		return Clue{}, ErrNoRoundContent
	}
	if err := g.transition(PhaseClueLevel); err != nil {
		return Clue{}, err
	}
	clue, ok := g.Content.ClueForPoints(CluePointLevels[0])
	if !ok {
		return Clue{}, ErrNoRoundContent
	}
	g.ClueLevelPoints = clue.Points
	g.ClueText = clue.Text
	return clue, nil
}

// clueIndex returns the index of the current level in CluePointLevels, or -1.
func (g *Game) clueIndex() int {
	for i, points := range CluePointLevels {
		if points == g.ClueLevelPoints {
			return i
		}
	}
	return -1
}

// AnswerResult is one scored locked answer, produced at reveal.
type AnswerResult struct {
	PlayerID            string `json:"playerId"`
	PlayerName          string `json:"playerName"`
	AnswerText          string `json:"answerText"`
	IsCorrect           bool   `json:"isCorrect"`
	PointsAwarded       int    `json:"pointsAwarded"`
	LockedAtLevelPoints int    `json:"lockedAtLevelPoints"`
	SpeedBonus          int    `json:"speedBonus,omitempty"`
}

// NextClueOutcome is what HOST_NEXT_CLUE produced: either the next clue or
// the reveal with its scored results.
type NextClueOutcome struct {
	IsReveal   bool
	Clue       Clue
	ClueIndex  int
	Results    []AnswerResult
	AnyCorrect bool
}

// NextClue advances 10→8→6→4→2; past 2 it reveals the destination and
// scores every locked answer. In PAUSED_FOR_BRAKE it acts as the host
// override: the in-progress brake is discarded and the clue advances as
// usual.
func (g *Game) NextClue() (NextClueOutcome, error) {
	if g.Phase == PhasePausedForBrake {
		// Host override: discard the brake without an answer.
		g.BrakeOwnerPlayerID = ""
		if err := g.transition(PhaseClueLevel); err != nil {
			return NextClueOutcome{}, err
		}
	}
	if g.Phase != PhaseClueLevel {
		return NextClueOutcome{}, ErrInvalidPhase
	}
	if g.Content == nil {
		return NextClueOutcome{}, ErrNoRoundContent
	}

	idx := g.clueIndex()
	if idx < 0 {
		return NextClueOutcome{}, ErrNoRoundContent
	}

	if idx == len(CluePointLevels)-1 {
		// Past the last level: reveal and score.
		if err := g.transition(PhaseRevealDestination); err != nil {
			return NextClueOutcome{}, err
		}
		g.Revealed = true
		g.ClueLevelPoints = 0
		g.ClueText = ""
		results, anyCorrect := g.scoreLockedAnswers()
		return NextClueOutcome{IsReveal: true, Results: results, AnyCorrect: anyCorrect}, nil
	}

	clue, ok := g.Content.ClueForPoints(CluePointLevels[idx+1])
	if !ok {
		return NextClueOutcome{}, ErrNoRoundContent
	}
	g.ClueLevelPoints = clue.Points
	g.ClueText = clue.Text
	g.bump()
	return NextClueOutcome{Clue: clue, ClueIndex: idx + 1}, nil
}

// BrakeRejectReason is the typed reason a brake pull was refused. Clients
// render a specific message per reason, so this is not a generic error.
type BrakeRejectReason string

const (
	BrakeAlreadyPaused BrakeRejectReason = "already_paused"
	BrakeTooLate       BrakeRejectReason = "too_late"
	BrakeInvalidPhase  BrakeRejectReason = "invalid_phase"
	BrakeRateLimited   BrakeRejectReason = "rate_limited"
)

// BrakeResult is the outcome of one brake pull
type BrakeResult struct {
	Accepted        bool
	Reason          BrakeRejectReason
	WinnerPlayerID  string
	PlayerName      string
	ClueLevelPoints int
}

// PullBrake resolves one brake pull. The session serializes calls, so the
// first pull evaluated while the phase is CLUE_LEVEL and the puller has no
// locked answer wins; everyone evaluated after that loses with a reason.
// Only players race; the host and TV have no brake.
func (g *Game) PullBrake(playerID string, nowMs int64) (BrakeResult, error) {
	player, err := g.PlayerByID(playerID)
	if err != nil {
		return BrakeResult{}, err
	}
	if player.Role != RolePlayer {
		return BrakeResult{}, ErrPlayerNotFound
	}

	if g.Phase == PhasePausedForBrake {
		return BrakeResult{Reason: BrakeAlreadyPaused, WinnerPlayerID: g.BrakeOwnerPlayerID}, nil
	}
	if g.Phase != PhaseClueLevel {
		return BrakeResult{Reason: BrakeInvalidPhase}, nil
	}

	// The cooldown runs from the last accepted pull; rejected pulls do not
	// extend it, so a hammering player recovers on their own.
	if last, pulled := g.lastBrakePullMs[playerID]; pulled && nowMs-last < g.Settings.BrakeCooldownMs {
		return BrakeResult{Reason: BrakeRateLimited}, nil
	}

	if g.LockedAnswerFor(playerID) != nil {
		// One answer per destination: a player who already locked is out of
		// the race for the rest of this destination.
		return BrakeResult{Reason: BrakeTooLate}, nil
	}

	points := g.ClueLevelPoints
	if err := g.transition(PhasePausedForBrake); err != nil {
		return BrakeResult{}, err
	}
	g.BrakeOwnerPlayerID = playerID
	g.lastBrakePullMs[playerID] = nowMs

	return BrakeResult{
		Accepted:        true,
		WinnerPlayerID:  playerID,
		PlayerName:      player.Name,
		ClueLevelPoints: points,
	}, nil
}

// LockedAnswerFor returns the player's locked answer for the current
// destination, or nil.
func (g *Game) LockedAnswerFor(playerID string) *LockedAnswer {
	for _, a := range g.LockedAnswers {
		if a.PlayerID == playerID {
			return a
		}
	}
	return nil
}

// LockAnswer commits the brake owner's answer at the current clue level and
// returns the game to the same clue level. Advancing is always a separate
// host action.
func (g *Game) LockAnswer(playerID, answerText string, nowMs int64) (*LockedAnswer, error) {
	if g.Phase != PhasePausedForBrake {
		return nil, ErrInvalidPhase
	}
	if g.BrakeOwnerPlayerID != playerID {
		return nil, ErrNotBrakeOwner
	}
	if g.LockedAnswerFor(playerID) != nil {
		return nil, ErrAlreadyLocked
	}
	answerText = strings.TrimSpace(answerText)
	if answerText == "" {
		return nil, ErrEmptyAnswer
	}

	locked := &LockedAnswer{
		PlayerID:            playerID,
		AnswerText:          answerText,
		LockedAtLevelPoints: g.ClueLevelPoints,
		LockedAtMs:          nowMs,
	}
	g.LockedAnswers = append(g.LockedAnswers, locked)
	g.BrakeOwnerPlayerID = ""
	if err := g.transition(PhaseClueLevel); err != nil {
		return nil, err
	}
	return locked, nil
}

// scoreLockedAnswers writes scoring fields into every locked answer and
// updates the scoreboard. Called exactly once per destination, at reveal.
func (g *Game) scoreLockedAnswers() ([]AnswerResult, bool) {
	results := make([]AnswerResult, 0, len(g.LockedAnswers))
	anyCorrect := false

	for _, answer := range g.LockedAnswers {
		correct := AnswerMatches(answer.AnswerText, g.Content.Name, g.Content.Aliases)
		points := 0
		if correct {
			points = answer.LockedAtLevelPoints
			anyCorrect = true
		}
		answer.Scored = true
		answer.IsCorrect = correct
		answer.PointsAwarded = points
	}

	if g.Settings.SpeedBonusEnabled {
		g.applySpeedBonus()
	}

	for _, answer := range g.LockedAnswers {
		total := answer.PointsAwarded + answer.SpeedBonus
		name := ""
		if player, err := g.PlayerByID(answer.PlayerID); err == nil {
			player.Score += total
			name = player.Name
		}
		if entry := g.scoreboardEntry(answer.PlayerID); entry != nil {
			entry.Score += total
		}
		results = append(results, AnswerResult{
			PlayerID:            answer.PlayerID,
			PlayerName:          name,
			AnswerText:          answer.AnswerText,
			IsCorrect:           answer.IsCorrect,
			PointsAwarded:       answer.PointsAwarded,
			LockedAtLevelPoints: answer.LockedAtLevelPoints,
			SpeedBonus:          answer.SpeedBonus,
		})
	}

	g.rerank()
	return results, anyCorrect
}

// applySpeedBonus grants +2/+1 to the two earliest correct locks.
func (g *Game) applySpeedBonus() {
	bonuses := []int{2, 1}
	granted := 0
	for granted < len(bonuses) {
		var earliest *LockedAnswer
		for _, a := range g.LockedAnswers {
			if !a.IsCorrect || a.SpeedBonus != 0 {
				continue
			}
			if earliest == nil || a.LockedAtMs < earliest.LockedAtMs {
				earliest = a
			}
		}
		if earliest == nil {
			return
		}
		earliest.SpeedBonus = bonuses[granted]
		granted++
	}
}

func (g *Game) scoreboardEntry(playerID string) *ScoreboardEntry {
	for _, e := range g.Scoreboard {
		if e.PlayerID == playerID {
			return e
		}
	}
	return nil
}

// rerank sorts the scoreboard by score descending and assigns dense ranks:
// equal scores share a rank, the next strictly lower score gets index+1.
func (g *Game) rerank() {
	for i := 1; i < len(g.Scoreboard); i++ {
		for j := i; j > 0 && g.Scoreboard[j-1].Score < g.Scoreboard[j].Score; j-- {
			g.Scoreboard[j-1], g.Scoreboard[j] = g.Scoreboard[j], g.Scoreboard[j-1]
		}
	}

	rank := 1
	for i, entry := range g.Scoreboard {
		if i > 0 && entry.Score < g.Scoreboard[i-1].Score {
			rank = i + 1
		}
		entry.Rank = rank
	}
	g.bump()
}

// AnsweredCount returns how many players have locked an answer this
// destination, for count-only broadcasts during the clue phase.
func (g *Game) AnsweredCount() int {
	return len(g.LockedAnswers)
}

// StartFollowups begins the follow-up question loop after a reveal. Returns
// nil with no error when the destination carries no follow-ups; the caller
// goes straight to the scoreboard.
func (g *Game) StartFollowups(nowMs int64) (*FollowupState, error) {
	if g.Phase != PhaseRevealDestination {
		return nil, ErrInvalidPhase
	}
	if g.Content == nil || len(g.Content.Followups) == 0 {
		return nil, nil
	}
	if err := g.transition(PhaseFollowupQuestion); err != nil {
		return nil, err
	}
	g.Followup = g.followupStateAt(0, nowMs)
	return g.Followup, nil
}

func (g *Game) followupStateAt(index int, nowMs int64) *FollowupState {
	q := g.Content.Followups[index]
	return &FollowupState{
		QuestionText:    q.QuestionText,
		Options:         q.Options,
		QuestionIndex:   index,
		TotalQuestions:  len(g.Content.Followups),
		CorrectAnswer:   q.CorrectAnswer,
		AnswersByPlayer: []FollowupPlayerAnswer{},
		Timer: &Timer{
			TimerID:         followupTimerID(g.SessionID, index),
			StartAtServerMs: nowMs,
			DurationMs:      g.Settings.FollowupTimerMs,
		},
	}
}

func followupTimerID(sessionID string, index int) string {
	return "fq-" + strconv.Itoa(index) + "-" + sessionID
}

// SubmitFollowupAnswer records one player's answer to the current question.
// Each player answers once; submissions after the timer deadline are refused.
func (g *Game) SubmitFollowupAnswer(playerID, answerText string, nowMs int64) error {
	if g.Phase != PhaseFollowupQuestion || g.Followup == nil {
		return ErrInvalidPhase
	}
	player, err := g.PlayerByID(playerID)
	if err != nil {
		return err
	}
	if player.Role != RolePlayer {
		return ErrPlayerNotFound
	}
	if g.Followup.Answered(playerID) {
		return ErrAlreadyAnswered
	}
	if g.Followup.Timer != nil && g.Followup.Timer.Expired(nowMs) {
		return ErrAnswerWindowClosed
	}

	g.Followup.AnswersByPlayer = append(g.Followup.AnswersByPlayer, FollowupPlayerAnswer{
		PlayerID:   playerID,
		PlayerName: player.Name,
		AnswerText: strings.TrimSpace(answerText),
	})
	g.bump()
	return nil
}

// AllFollowupAnswered reports whether every active player has answered the
// current question, allowing the round to close before the timer.
func (g *Game) AllFollowupAnswered() bool {
	if g.Followup == nil {
		return false
	}
	for _, p := range g.ActivePlayers() {
		if !g.Followup.Answered(p.ID) {
			return false
		}
	}
	return len(g.ActivePlayers()) > 0
}

// LockFollowupAnswers clears the question timer so it cannot fire again.
// Idempotent. Returns the number of locked answers.
func (g *Game) LockFollowupAnswers() int {
	if g.Followup == nil {
		return 0
	}
	g.Followup.Timer = nil
	return len(g.Followup.AnswersByPlayer)
}

// FollowupResult is one player's verdict for a follow-up question
type FollowupResult struct {
	PlayerID      string `json:"playerId"`
	PlayerName    string `json:"playerName"`
	AnswerText    string `json:"answerText"`
	IsCorrect     bool   `json:"isCorrect"`
	PointsAwarded int    `json:"pointsAwarded"`
}

// FollowupOutcome carries the simultaneous reveal for one question
type FollowupOutcome struct {
	Results           []FollowupResult
	CorrectAnswer     string
	QuestionIndex     int
	NextQuestionIndex int // -1 when the sequence is done
}

// ScoreFollowup grades the current question for every active player (absent
// answers count as wrong), updates the scoreboard, and either advances to
// the next question or ends the sequence at the scoreboard.
func (g *Game) ScoreFollowup(nowMs int64) (FollowupOutcome, error) {
	if g.Phase != PhaseFollowupQuestion || g.Followup == nil {
		return FollowupOutcome{}, ErrInvalidPhase
	}

	question := g.Content.Followups[g.Followup.QuestionIndex]
	results := make([]FollowupResult, 0, len(g.ActivePlayers()))

	for _, player := range g.ActivePlayers() {
		answerText := ""
		for _, a := range g.Followup.AnswersByPlayer {
			if a.PlayerID == player.ID {
				answerText = a.AnswerText
				break
			}
		}
		correct := answerText != "" && FollowupAnswerCorrect(answerText, question)
		points := 0
		if correct {
			points = g.Settings.FollowupPoints
			player.Score += points
			if entry := g.scoreboardEntry(player.ID); entry != nil {
				entry.Score += points
			}
		}
		results = append(results, FollowupResult{
			PlayerID:      player.ID,
			PlayerName:    player.Name,
			AnswerText:    answerText,
			IsCorrect:     correct,
			PointsAwarded: points,
		})
	}

	g.rerank()

	outcome := FollowupOutcome{
		Results:           results,
		CorrectAnswer:     question.CorrectAnswer,
		QuestionIndex:     g.Followup.QuestionIndex,
		NextQuestionIndex: -1,
	}

	nextIndex := g.Followup.QuestionIndex + 1
	if nextIndex < len(g.Content.Followups) {
		if err := g.transition(PhaseFollowupQuestion); err != nil {
			return FollowupOutcome{}, err
		}
		g.Followup = g.followupStateAt(nextIndex, nowMs)
		outcome.NextQuestionIndex = nextIndex
	} else {
		g.Followup = nil
		if err := g.transition(PhaseScoreboard); err != nil {
			return FollowupOutcome{}, err
		}
	}
	return outcome, nil
}

// FinishReveal moves from the reveal directly to the scoreboard when the
// destination has no follow-up questions.
func (g *Game) FinishReveal() error {
	if g.Phase != PhaseRevealDestination {
		return ErrInvalidPhase
	}
	return g.transition(PhaseScoreboard)
}

// AdvanceFromScoreboard either advances the game plan to its next
// destination or, at the end of the plan (or with no plan at all), ends the
// game at FINAL_RESULTS. When a next destination exists its config is
// returned and the caller starts the round with its content.
func (g *Game) AdvanceFromScoreboard() (*DestinationConfig, error) {
	if g.Phase != PhaseScoreboard {
		return nil, ErrInvalidPhase
	}
	if g.Plan.HasNext() {
		g.Plan.Index++
		next := g.Plan.Current()
		if next == nil || next.Content == nil {
			return nil, ErrPlanExhausted
		}
		return next, nil
	}
	if err := g.transition(PhaseFinalResults); err != nil {
		return nil, err
	}
	return nil, nil
}
