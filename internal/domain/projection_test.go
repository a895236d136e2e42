package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// midGame builds a game mid-destination: Alice locked "ljusets stad" at 10
// points, Bob is still in the race, the current clue is the 8-point one.
func midGame(t *testing.T) *Game {
	t.Helper()
	g := newTestGame(t, "Alice", "Bob")
	startClues(t, g)
	_, err := g.PullBrake("p1", 5000)
	require.NoError(t, err)
	_, err = g.LockAnswer("p1", "ljusets stad", 5100)
	require.NoError(t, err)
	_, err = g.NextClue()
	require.NoError(t, err)
	return g
}

func revealGame(t *testing.T) *Game {
	t.Helper()
	g := midGame(t)
	for g.Phase == PhaseClueLevel {
		_, err := g.NextClue()
		require.NoError(t, err)
	}
	require.True(t, g.Revealed)
	return g
}

func TestProjectStateHost(t *testing.T) {
	g := midGame(t)
	view := ProjectState(g, RoleHost, "host-1")

	require.NotNil(t, view.Destination)
	assert.Equal(t, "Paris", view.Destination.Name)
	assert.False(t, view.Destination.Revealed)

	require.Len(t, view.LockedAnswers, 1)
	assert.Equal(t, "ljusets stad", view.LockedAnswers[0].AnswerText)

	// The host entry itself is visible to the host.
	assert.Len(t, view.Players, 3)
	require.NotNil(t, view.Audio)
}

func TestProjectStatePlayerHidesDestination(t *testing.T) {
	g := midGame(t)
	view := ProjectState(g, RolePlayer, "p2")

	require.NotNil(t, view.Destination)
	assert.Empty(t, view.Destination.Name)
	assert.Empty(t, view.Destination.Aliases)
	assert.False(t, view.Destination.Revealed)

	// Only the player roster, not the host entry.
	assert.Len(t, view.Players, 2)
	assert.Nil(t, view.Audio)
}

func TestProjectStatePlayerSeesOwnAnswerOnly(t *testing.T) {
	g := midGame(t)

	owner := ProjectState(g, RolePlayer, "p1")
	require.Len(t, owner.LockedAnswers, 1)
	assert.Equal(t, "p1", owner.LockedAnswers[0].PlayerID)

	other := ProjectState(g, RolePlayer, "p2")
	assert.Empty(t, other.LockedAnswers)
	assert.Equal(t, 1, other.AnsweredCount)
}

func TestProjectStateTVAnswers(t *testing.T) {
	g := midGame(t)

	before := ProjectState(g, RoleTV, "")
	assert.Empty(t, before.LockedAnswers)
	assert.Equal(t, 1, before.AnsweredCount)

	for g.Phase == PhaseClueLevel {
		_, err := g.NextClue()
		require.NoError(t, err)
	}

	after := ProjectState(g, RoleTV, "")
	require.Len(t, after.LockedAnswers, 1)
	assert.Empty(t, after.LockedAnswers[0].AnswerText)
	assert.True(t, after.LockedAnswers[0].IsCorrect)
	assert.Equal(t, "Paris", after.Destination.Name)
	assert.True(t, after.Destination.Revealed)
}

func TestProjectStateTVStripsManifest(t *testing.T) {
	g := midGame(t)
	g.Audio.TTSManifest = []ClipManifest{{ClipID: "c1", PhraseID: "voice_clue_10", URL: "http://x/c1.mp3"}}

	tv := ProjectState(g, RoleTV, "")
	require.NotNil(t, tv.Audio)
	assert.Empty(t, tv.Audio.TTSManifest)

	host := ProjectState(g, RoleHost, "host-1")
	require.NotNil(t, host.Audio)
	assert.Len(t, host.Audio.TTSManifest, 1)
}

func TestProjectFollowupPerRole(t *testing.T) {
	g := revealGame(t)
	_, err := g.StartFollowups(20000)
	require.NoError(t, err)
	require.NoError(t, g.SubmitFollowupAnswer("p1", "1889", 21000))

	host := ProjectState(g, RoleHost, "host-1")
	require.NotNil(t, host.Followup)
	assert.Equal(t, "1889", host.Followup.CorrectAnswer)
	assert.Len(t, host.Followup.AnswersByPlayer, 1)
	assert.Nil(t, host.Followup.AnsweredByMe)

	answered := ProjectState(g, RolePlayer, "p1")
	require.NotNil(t, answered.Followup)
	assert.Empty(t, answered.Followup.CorrectAnswer)
	assert.Empty(t, answered.Followup.AnswersByPlayer)
	require.NotNil(t, answered.Followup.AnsweredByMe)
	assert.True(t, *answered.Followup.AnsweredByMe)

	waiting := ProjectState(g, RolePlayer, "p2")
	require.NotNil(t, waiting.Followup.AnsweredByMe)
	assert.False(t, *waiting.Followup.AnsweredByMe)

	tv := ProjectState(g, RoleTV, "")
	require.NotNil(t, tv.Followup)
	assert.Empty(t, tv.Followup.CorrectAnswer)
	assert.Empty(t, tv.Followup.AnswersByPlayer)
	assert.Nil(t, tv.Followup.AnsweredByMe)
	require.NotNil(t, tv.Followup.Timer)
}

func TestProjectionDisconnectTimestampHostOnly(t *testing.T) {
	g := midGame(t)
	p2, err := g.PlayerByID("p2")
	require.NoError(t, err)
	p2.Disconnect(6000)

	host := ProjectState(g, RoleHost, "host-1")
	tv := ProjectState(g, RoleTV, "")

	var hostSaw, tvSaw int64
	for _, p := range host.Players {
		if p.ID == "p2" {
			hostSaw = p.DisconnectedAtMs
		}
	}
	for _, p := range tv.Players {
		if p.ID == "p2" {
			tvSaw = p.DisconnectedAtMs
		}
	}
	assert.Equal(t, int64(6000), hostSaw)
	assert.Zero(t, tvSaw)
}

func TestProjectionDoesNotAliasGameState(t *testing.T) {
	g := revealGame(t)
	_, err := g.StartFollowups(20000)
	require.NoError(t, err)

	view := ProjectState(g, RoleHost, "host-1")
	require.NotNil(t, view.Followup)
	require.NotNil(t, view.Followup.Timer)

	view.Followup.Timer.DurationMs = 1
	view.Scoreboard[0].Score = 999

	assert.NotEqual(t, int64(1), g.Followup.Timer.DurationMs)
	assert.NotEqual(t, 999, g.Scoreboard[0].Score)
}
