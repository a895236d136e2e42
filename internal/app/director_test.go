package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sparet/internal/domain"
)

func directorGame() *domain.Game {
	return domain.NewGame("s1", "ABC234", "host-1", domain.DefaultGameSettings(), 0)
}

func fixedDirector(pick int) *Director {
	return &Director{pick: func(n int) int { return pick % n }}
}

func payloadTypes(events []domain.Envelope) []domain.EventType {
	out := make([]domain.EventType, 0, len(events))
	for _, e := range events {
		out = append(out, e.Type)
	}
	return out
}

func TestDirectorMusicOnlyWithoutManifest(t *testing.T) {
	d := NewDirector()
	g := directorGame()

	intro := d.OnRoundIntro(g)
	assert.Equal(t, []domain.EventType{domain.EventMusicSet}, payloadTypes(intro))
	assert.True(t, g.Audio.IsPlaying)
	assert.Equal(t, trackTravel, g.Audio.CurrentTrackID)
	assert.Equal(t, -6, g.Audio.GainDb)

	assert.Nil(t, d.OnDestinationResults(g, true))
	assert.Nil(t, d.OnFollowupPresent(g, 0, "q"))
}

func TestDirectorReadsClueFromManifest(t *testing.T) {
	d := NewDirector()
	g := directorGame()
	g.Audio.TTSManifest = []domain.ClipManifest{
		{ClipID: "c1", PhraseID: "voice_clue_10", URL: "http://x/c1.mp3", DurationMs: 4000},
		{ClipID: "c2", PhraseID: "voice_clue_8", URL: "http://x/c2.mp3", DurationMs: 3500},
	}

	events := d.OnCluesBegin(g, 10, "first clue")
	require.Equal(t, []domain.EventType{
		domain.EventMusicSet,
		domain.EventTTSPrefetch,
		domain.EventAudioPlay,
	}, payloadTypes(events))

	prefetch, ok := events[1].Payload.(domain.TTSPrefetchPayload)
	require.True(t, ok)
	assert.Len(t, prefetch.Clips, 2)

	play, ok := events[2].Payload.(domain.AudioPlayPayload)
	require.True(t, ok)
	assert.Equal(t, "c1", play.ClipID)
	assert.Equal(t, "first clue", play.Text)

	require.NotNil(t, g.Audio.ActiveVoiceClip)
	assert.Equal(t, "c1", g.Audio.ActiveVoiceClip.ClipID)
}

func TestDirectorSkipsMissingVoiceClip(t *testing.T) {
	d := NewDirector()
	g := directorGame()
	g.Audio.TTSManifest = []domain.ClipManifest{
		{ClipID: "c1", PhraseID: "voice_clue_10", URL: "http://x/c1.mp3"},
	}

	// No clip for level 8; music advances but no voice plays.
	events := d.OnClueAdvance(g, 8, "second clue")
	for _, e := range events {
		assert.NotEqual(t, domain.EventAudioPlay, e.Type)
	}
}

func TestDirectorBanterPoolPick(t *testing.T) {
	g := directorGame()
	g.Audio.TTSManifest = []domain.ClipManifest{
		{ClipID: "b1", PhraseID: "banter_after_brake_001", URL: "http://x/b1.mp3"},
		{ClipID: "b2", PhraseID: "banter_after_brake_002", URL: "http://x/b2.mp3"},
	}

	events := fixedDirector(1).OnBrakeAccepted(g)
	require.Equal(t, []domain.EventType{
		domain.EventMusicStop,
		domain.EventSfxPlay,
		domain.EventAudioPlay,
	}, payloadTypes(events))

	play, ok := events[2].Payload.(domain.AudioPlayPayload)
	require.True(t, ok)
	assert.Equal(t, "b2", play.ClipID)
	assert.False(t, g.Audio.IsPlaying)

	sfx, ok := events[1].Payload.(domain.SfxPlayPayload)
	require.True(t, ok)
	assert.Equal(t, sfxBrake, sfx.SfxID)
}

func TestDirectorResultsBanterFollowsVerdict(t *testing.T) {
	g := directorGame()
	g.Audio.TTSManifest = []domain.ClipManifest{
		{ClipID: "good", PhraseID: "banter_reveal_correct_001"},
		{ClipID: "bad", PhraseID: "banter_reveal_incorrect_001"},
	}
	d := fixedDirector(0)

	correct := d.OnDestinationResults(g, true)
	require.Len(t, correct, 1)
	assert.Equal(t, "good", correct[0].Payload.(domain.AudioPlayPayload).ClipID)

	incorrect := d.OnDestinationResults(g, false)
	require.Len(t, incorrect, 1)
	assert.Equal(t, "bad", incorrect[0].Payload.(domain.AudioPlayPayload).ClipID)
}

func TestDirectorFinaleTimeline(t *testing.T) {
	d := NewDirector()
	g := directorGame()

	result := d.OnFinalResults(g)
	require.Equal(t, []domain.EventType{
		domain.EventMusicStop,
		domain.EventSfxPlay,
	}, payloadTypes(result.Immediate))
	assert.Equal(t, sfxStingBuild, result.Immediate[1].Payload.(domain.SfxPlayPayload).SfxID)

	require.Len(t, result.Scheduled, 3)
	assert.Equal(t, 800*time.Millisecond, result.Scheduled[0].Delay)
	assert.Equal(t, sfxDrumroll, result.Scheduled[0].Event.Payload.(domain.SfxPlayPayload).SfxID)
	assert.Equal(t, 3200*time.Millisecond, result.Scheduled[1].Delay)
	assert.Equal(t, sfxWinnerFanfare, result.Scheduled[1].Event.Payload.(domain.SfxPlayPayload).SfxID)
	assert.Equal(t, 3200*time.Millisecond, result.Scheduled[2].Delay)
	assert.Equal(t, domain.EventUIEffectTrigger, result.Scheduled[2].Event.Type)
	assert.Equal(t, effectConfetti, result.Scheduled[2].Event.Payload.(domain.UIEffectPayload).EffectID)
}
