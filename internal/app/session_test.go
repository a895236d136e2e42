package app

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sparet/internal/domain"
)

type fakeClient struct {
	clientID string
	playerID string
	role     domain.Role

	mu     sync.Mutex
	events []domain.Envelope
	closed bool
}

func (f *fakeClient) Send(message any) error {
	env, ok := message.(domain.Envelope)
	if !ok {
		return nil
	}
	f.mu.Lock()
	f.events = append(f.events, env)
	f.mu.Unlock()
	return nil
}

func (f *fakeClient) GetClientID() string  { return f.clientID }
func (f *fakeClient) GetPlayerID() string  { return f.playerID }
func (f *fakeClient) GetRole() domain.Role { return f.role }
func (f *fakeClient) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeClient) eventsOfType(eventType domain.EventType) []domain.Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Envelope{}
	for _, e := range f.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeClient) sawEvent(eventType domain.EventType) bool {
	return len(f.eventsOfType(eventType)) > 0
}

func sessionContent() *domain.RoundContent {
	return &domain.RoundContent{
		ID:      "paris",
		Name:    "Paris",
		Country: "Frankrike",
		Aliases: []string{"ljusets stad"},
		Clues: []domain.Clue{
			{Points: 10, Text: "ten"},
			{Points: 8, Text: "eight"},
			{Points: 6, Text: "six"},
			{Points: 4, Text: "four"},
			{Points: 2, Text: "two"},
		},
		Followups: []domain.FollowupQuestion{
			{QuestionText: "Which year?", CorrectAnswer: "1889"},
		},
	}
}

// liveSession builds a session with a host, two players and their fake
// connections. The round intro delay is short so tests can reach the first
// clue quickly.
func liveSession(t *testing.T) (*GameSession, *fakeClient, *fakeClient, *fakeClient) {
	t.Helper()
	game := domain.NewGame("s1", "ABC234", "host-1", domain.DefaultGameSettings(), time.Now().UnixMilli())
	session := NewGameSession(game, Pacing{
		RoundIntroDelay:   10 * time.Millisecond,
		FollowupTimer:     time.Minute,
		ScoreboardAdvance: time.Minute,
	}, testLogger())
	t.Cleanup(session.Close)

	host := &fakeClient{clientID: "host-1", playerID: "host-1", role: domain.RoleHost}
	p1 := &fakeClient{clientID: "p1", playerID: "p1", role: domain.RolePlayer}
	p2 := &fakeClient{clientID: "p2", playerID: "p2", role: domain.RolePlayer}
	session.RegisterClient(host)
	session.RegisterClient(p1)
	session.RegisterClient(p2)

	_, err := session.AddPlayer("p1", "Alice")
	require.NoError(t, err)
	_, err = session.AddPlayer("p2", "Bob")
	require.NoError(t, err)
	return session, host, p1, p2
}

func waitForPhase(t *testing.T, session *GameSession, phase domain.Phase) {
	t.Helper()
	require.Eventually(t, func() bool {
		return session.Phase() == phase
	}, 2*time.Second, 5*time.Millisecond, "expected phase %s, got %s", phase, session.Phase())
}

func TestSessionStartGameRequiresHost(t *testing.T) {
	session, _, _, _ := liveSession(t)

	err := session.HandleStartGame("p1", sessionContent)
	assert.ErrorIs(t, err, domain.ErrNotHost)
	assert.Equal(t, domain.PhaseLobby, session.Phase())
}

func TestSessionNextClueOutsideCluesReturnsError(t *testing.T) {
	session, _, _, _ := liveSession(t)

	err := session.HandleNextClue("host-1")
	assert.ErrorIs(t, err, domain.ErrInvalidPhase)
	assert.Equal(t, domain.PhaseLobby, session.Phase())
}

func TestSessionStartGameReachesFirstClue(t *testing.T) {
	session, _, p1, _ := liveSession(t)

	require.NoError(t, session.HandleStartGame("host-1", sessionContent))
	assert.Equal(t, domain.PhaseRoundIntro, session.Phase())

	waitForPhase(t, session, domain.PhaseClueLevel)
	require.Eventually(t, func() bool {
		return p1.sawEvent(domain.EventCluePresent)
	}, 2*time.Second, 5*time.Millisecond)

	clues := p1.eventsOfType(domain.EventCluePresent)
	payload, ok := clues[0].Payload.(domain.CluePresentPayload)
	require.True(t, ok)
	assert.Equal(t, 10, payload.ClueLevelPoints)
	assert.Equal(t, 0, payload.RoundIndex)
	assert.Equal(t, "ten", payload.ClueText)
}

func TestSessionBrakeFlow(t *testing.T) {
	session, host, p1, p2 := liveSession(t)
	require.NoError(t, session.HandleStartGame("host-1", sessionContent))
	waitForPhase(t, session, domain.PhaseClueLevel)

	require.NoError(t, session.HandleBrakePull("p1"))
	assert.Equal(t, domain.PhasePausedForBrake, session.Phase())

	// The second pull loses; only the loser hears the rejection.
	require.NoError(t, session.HandleBrakePull("p2"))
	require.Eventually(t, func() bool {
		return p2.sawEvent(domain.EventBrakeRejected)
	}, 2*time.Second, 5*time.Millisecond)
	rejected := p2.eventsOfType(domain.EventBrakeRejected)[0].Payload.(domain.BrakeRejectedPayload)
	assert.Equal(t, domain.BrakeAlreadyPaused, rejected.Reason)
	assert.Equal(t, "p1", rejected.WinnerPlayerID)
	assert.False(t, p1.sawEvent(domain.EventBrakeRejected))

	require.NoError(t, session.HandleBrakeAnswer("p1", "Paris"))
	assert.Equal(t, domain.PhaseClueLevel, session.Phase())

	// The host hears the answer text; other roles get the stripped variant.
	require.Eventually(t, func() bool {
		return host.sawEvent(domain.EventBrakeAnswerLocked) && p2.sawEvent(domain.EventBrakeAnswerLocked)
	}, 2*time.Second, 5*time.Millisecond)
	hostLocked := host.eventsOfType(domain.EventBrakeAnswerLocked)[0].Payload.(domain.BrakeAnswerLockedPayload)
	assert.Equal(t, "Paris", hostLocked.AnswerText)
	publicLocked := p2.eventsOfType(domain.EventBrakeAnswerLocked)[0].Payload.(domain.BrakeAnswerLockedPayload)
	assert.Empty(t, publicLocked.AnswerText)
	assert.Equal(t, "p1", publicLocked.PlayerID)
}

func TestSessionFollowupEarlyClose(t *testing.T) {
	session, _, p1, p2 := liveSession(t)
	require.NoError(t, session.HandleStartGame("host-1", sessionContent))
	waitForPhase(t, session, domain.PhaseClueLevel)

	for i := 0; i < len(domain.CluePointLevels); i++ {
		require.NoError(t, session.HandleNextClue("host-1"))
	}
	assert.Equal(t, domain.PhaseRevealDestination, session.Phase())
	require.Eventually(t, func() bool {
		return p1.sawEvent(domain.EventDestinationReveal) && p1.sawEvent(domain.EventDestinationResults)
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, session.HandleContinue("host-1"))
	assert.Equal(t, domain.PhaseFollowupQuestion, session.Phase())

	// When every player has answered, the question closes without waiting
	// for the timer.
	require.NoError(t, session.HandleFollowupAnswer("p1", "1889"))
	require.NoError(t, session.HandleFollowupAnswer("p2", "1789"))
	assert.Equal(t, domain.PhaseScoreboard, session.Phase())

	require.Eventually(t, func() bool {
		return p2.sawEvent(domain.EventFollowupResults) && p2.sawEvent(domain.EventScoreboardUpdate)
	}, 2*time.Second, 5*time.Millisecond)
	results := p2.eventsOfType(domain.EventFollowupResults)[0].Payload.(domain.FollowupResultsPayload)
	assert.Equal(t, "1889", results.CorrectAnswer)
	assert.Len(t, results.Results, 2)
}

func TestSessionContinueEndsGameWithoutPlan(t *testing.T) {
	session, _, p1, _ := liveSession(t)
	require.NoError(t, session.HandleStartGame("host-1", sessionContent))
	waitForPhase(t, session, domain.PhaseClueLevel)

	for i := 0; i < len(domain.CluePointLevels); i++ {
		require.NoError(t, session.HandleNextClue("host-1"))
	}
	require.NoError(t, session.HandleContinue("host-1"))
	require.NoError(t, session.HandleFollowupAnswer("p1", "1889"))
	require.NoError(t, session.HandleFollowupAnswer("p2", "1889"))
	require.Equal(t, domain.PhaseScoreboard, session.Phase())

	require.NoError(t, session.HandleContinue("host-1"))
	assert.Equal(t, domain.PhaseFinalResults, session.Phase())

	require.Eventually(t, func() bool {
		return p1.sawEvent(domain.EventFinalResults)
	}, 2*time.Second, 5*time.Millisecond)
	final := p1.eventsOfType(domain.EventFinalResults)[0].Payload.(domain.FinalResultsPayload)
	assert.NotEmpty(t, final.Winners)
}

func TestSessionRegisterReplacesConnection(t *testing.T) {
	session, _, _, _ := liveSession(t)

	first := &fakeClient{clientID: "p3", playerID: "p3", role: domain.RolePlayer}
	second := &fakeClient{clientID: "p3", playerID: "p3", role: domain.RolePlayer}
	session.RegisterClient(first)
	session.RegisterClient(second)

	// Only the replacement receives broadcasts after re-registration.
	_, err := session.AddPlayer("p4", "Carol")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return second.sawEvent(domain.EventLobbyUpdated)
	}, 2*time.Second, 5*time.Millisecond)
	assert.False(t, first.sawEvent(domain.EventLobbyUpdated))

	// The evicted socket's teardown must not unregister its replacement.
	session.UnregisterClient(first)
	_, err = session.AddPlayer("p5", "Dave")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return len(second.eventsOfType(domain.EventLobbyUpdated)) >= 2
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSessionCanJoin(t *testing.T) {
	session, _, _, _ := liveSession(t)
	assert.True(t, session.CanJoin())

	require.NoError(t, session.HandleStartGame("host-1", sessionContent))
	assert.False(t, session.CanJoin())
}
