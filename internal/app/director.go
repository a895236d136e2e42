package app

import (
	"math/rand"
	"strconv"
	"strings"
	"time"

	"sparet/internal/domain"
)

// Track and clip identifiers shared with the display client.
const (
	trackTravel       = "music_travel"
	trackTravelLoop   = "music_travel_loop"
	trackFollowupLoop = "music_followup_loop"

	sfxBrake         = "sfx_brake"
	sfxReveal        = "sfx_reveal"
	sfxStingBuild    = "sfx_sting_build"
	sfxDrumroll      = "sfx_drumroll"
	sfxWinnerFanfare = "sfx_winner_fanfare"

	banterRoundIntro      = "banter_round_intro"
	banterAfterBrake      = "banter_after_brake"
	banterBeforeReveal    = "banter_before_reveal"
	banterRevealCorrect   = "banter_reveal_correct"
	banterRevealIncorrect = "banter_reveal_incorrect"
	banterBeforeFinal     = "banter_before_final"

	effectConfetti = "confetti"
)

// ScheduledEvent is an event the session fires after a delay.
type ScheduledEvent struct {
	Event domain.Envelope
	Delay time.Duration
}

// DirectorResult splits a ceremony into what broadcasts now and what the
// session schedules.
type DirectorResult struct {
	Immediate []domain.Envelope
	Scheduled []ScheduledEvent
}

// Director owns all audio state mutations and translates phase transitions
// into music, SFX, voice, and UI effect events. Voice events fire only when
// the session carries a TTS manifest; without one the game plays on with
// music and SFX and the display falls back to text.
type Director struct {
	pick func(n int) int
}

// NewDirector creates a director with the default random banter pick.
func NewDirector() *Director {
	return &Director{pick: rand.Intn}
}

func (d *Director) manifest(g *domain.Game) []domain.ClipManifest {
	if g.Audio == nil {
		return nil
	}
	return g.Audio.TTSManifest
}

// findClip returns the first manifest entry whose phraseId matches exactly.
func findClip(manifest []domain.ClipManifest, phraseID string) *domain.ClipManifest {
	for i := range manifest {
		if manifest[i].PhraseID == phraseID {
			return &manifest[i]
		}
	}
	return nil
}

// pickClip returns a random manifest entry whose phraseId starts with the
// prefix. Banter pools carry _001/_002 suffixes so repeated playback varies.
func (d *Director) pickClip(manifest []domain.ClipManifest, prefix string) *domain.ClipManifest {
	var candidates []*domain.ClipManifest
	for i := range manifest {
		if strings.HasPrefix(manifest[i].PhraseID, prefix) {
			candidates = append(candidates, &manifest[i])
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	return candidates[d.pick(len(candidates))]
}

func (d *Director) playClip(g *domain.Game, clip *domain.ClipManifest, text string, events []domain.Envelope) []domain.Envelope {
	if clip == nil {
		return events
	}
	now := time.Now().UnixMilli()
	g.Audio.ActiveVoiceClip = &domain.ActiveVoiceClip{
		ClipID:          clip.ClipID,
		URL:             clip.URL,
		StartAtServerMs: now,
		DurationMs:      clip.DurationMs,
		Text:            text,
	}
	return append(events, domain.NewEvent(domain.EventAudioPlay, g.SessionID, domain.AudioPlayPayload{
		ClipID:          clip.ClipID,
		URL:             clip.URL,
		DurationMs:      clip.DurationMs,
		StartAtServerMs: now,
		Text:            text,
	}))
}

func (d *Director) musicSet(g *domain.Game, trackID string, gainDb int, fadeInMs int64) domain.Envelope {
	g.Audio.CurrentTrackID = trackID
	g.Audio.IsPlaying = true
	g.Audio.GainDb = gainDb
	return domain.NewEvent(domain.EventMusicSet, g.SessionID, domain.MusicSetPayload{
		TrackID:         trackID,
		Mode:            "loop",
		StartAtServerMs: time.Now().UnixMilli(),
		GainDb:          gainDb,
		FadeInMs:        fadeInMs,
	})
}

func (d *Director) musicStop(g *domain.Game, fadeOutMs int64) domain.Envelope {
	g.Audio.CurrentTrackID = ""
	g.Audio.IsPlaying = false
	return domain.NewEvent(domain.EventMusicStop, g.SessionID, domain.MusicStopPayload{
		FadeOutMs: fadeOutMs,
	})
}

func (d *Director) sfx(sessionID, sfxID string) domain.Envelope {
	return domain.NewEvent(domain.EventSfxPlay, sessionID, domain.SfxPlayPayload{
		SfxID:      sfxID,
		AtServerMs: time.Now().UnixMilli(),
	})
}

// OnRoundIntro starts travel music softly under the round intro banter.
func (d *Director) OnRoundIntro(g *domain.Game) []domain.Envelope {
	events := []domain.Envelope{d.musicSet(g, trackTravel, -6, 2000)}
	if manifest := d.manifest(g); manifest != nil {
		events = d.playClip(g, d.pickClip(manifest, banterRoundIntro), "", events)
	}
	return events
}

// OnCluesBegin fires when the first clue is shown. It brings the travel
// loop to full gain, hands the display the clip manifest to prefetch, and
// reads the clue aloud when a voice clip exists.
func (d *Director) OnCluesBegin(g *domain.Game, clueLevel int, clueText string) []domain.Envelope {
	events := []domain.Envelope{d.musicSet(g, trackTravelLoop, 0, 0)}

	manifest := d.manifest(g)
	if len(manifest) > 0 {
		clips := make([]domain.PrefetchClip, 0, len(manifest))
		for _, c := range manifest {
			clips = append(clips, domain.PrefetchClip{
				ClipID:     c.ClipID,
				URL:        c.URL,
				DurationMs: c.DurationMs,
			})
		}
		events = append(events, domain.NewEvent(domain.EventTTSPrefetch, g.SessionID, domain.TTSPrefetchPayload{Clips: clips}))
		events = d.playClip(g, findClip(manifest, voiceCluePhrase(clueLevel)), clueText, events)
	}
	return events
}

// OnClueAdvance resumes music if a brake stopped it and reads the new clue.
func (d *Director) OnClueAdvance(g *domain.Game, clueLevel int, clueText string) []domain.Envelope {
	var events []domain.Envelope
	if !g.Audio.IsPlaying {
		events = append(events, d.musicSet(g, trackTravelLoop, g.Audio.GainDb, 0))
	}
	if manifest := d.manifest(g); manifest != nil {
		events = d.playClip(g, findClip(manifest, voiceCluePhrase(clueLevel)), clueText, events)
	}
	return events
}

// OnBrakeAccepted cuts the music and plays the brake hit.
func (d *Director) OnBrakeAccepted(g *domain.Game) []domain.Envelope {
	events := []domain.Envelope{
		d.musicStop(g, 600),
		d.sfx(g.SessionID, sfxBrake),
	}
	if manifest := d.manifest(g); manifest != nil {
		events = d.playClip(g, d.pickClip(manifest, banterAfterBrake), "", events)
	}
	return events
}

// OnAnswerLocked resumes the travel loop after a committed answer.
func (d *Director) OnAnswerLocked(g *domain.Game) []domain.Envelope {
	g.Audio.ActiveVoiceClip = nil
	return []domain.Envelope{d.musicSet(g, trackTravelLoop, g.Audio.GainDb, 0)}
}

// OnRevealStart quiets everything ahead of the destination reveal.
func (d *Director) OnRevealStart(g *domain.Game) []domain.Envelope {
	events := []domain.Envelope{d.musicStop(g, 600)}
	if manifest := d.manifest(g); manifest != nil {
		events = d.playClip(g, d.pickClip(manifest, banterBeforeReveal), "", events)
	}
	return events
}

// OnDestinationReveal plays the reveal sting.
func (d *Director) OnDestinationReveal(g *domain.Game) []domain.Envelope {
	return []domain.Envelope{d.sfx(g.SessionID, sfxReveal)}
}

// OnDestinationResults plays correct or incorrect banter after scoring.
func (d *Director) OnDestinationResults(g *domain.Game, anyCorrect bool) []domain.Envelope {
	manifest := d.manifest(g)
	if manifest == nil {
		return nil
	}
	prefix := banterRevealIncorrect
	if anyCorrect {
		prefix = banterRevealCorrect
	}
	return d.playClip(g, d.pickClip(manifest, prefix), "", nil)
}

// OnFollowupStart switches to the follow-up loop and reads the question.
func (d *Director) OnFollowupStart(g *domain.Game, questionIndex int, questionText string) []domain.Envelope {
	g.Audio.ActiveVoiceClip = nil
	events := []domain.Envelope{d.musicSet(g, trackFollowupLoop, g.Audio.GainDb, 0)}
	if manifest := d.manifest(g); manifest != nil {
		events = d.playClip(g, findClip(manifest, voiceQuestionPhrase(questionIndex)), questionText, events)
	}
	return events
}

// OnFollowupPresent reads a subsequent question. Music keeps playing.
func (d *Director) OnFollowupPresent(g *domain.Game, questionIndex int, questionText string) []domain.Envelope {
	manifest := d.manifest(g)
	if manifest == nil {
		return nil
	}
	return d.playClip(g, findClip(manifest, voiceQuestionPhrase(questionIndex)), questionText, nil)
}

// OnFollowupSequenceEnd fades the follow-up loop out.
func (d *Director) OnFollowupSequenceEnd(g *domain.Game) []domain.Envelope {
	g.Audio.ActiveVoiceClip = nil
	return []domain.Envelope{d.musicStop(g, 400)}
}

// OnFinalResults runs the finale ceremony: an immediate sting, then a
// drumroll and the winner fanfare with confetti on a fixed timeline.
func (d *Director) OnFinalResults(g *domain.Game) DirectorResult {
	g.Audio.ActiveVoiceClip = nil
	g.Audio.GainDb = 0

	immediate := []domain.Envelope{
		d.musicStop(g, 600),
		d.sfx(g.SessionID, sfxStingBuild),
	}
	if manifest := d.manifest(g); manifest != nil {
		immediate = d.playClip(g, d.pickClip(manifest, banterBeforeFinal), "", immediate)
	}

	scheduled := []ScheduledEvent{
		{Event: d.sfx(g.SessionID, sfxDrumroll), Delay: 800 * time.Millisecond},
		{Event: d.sfx(g.SessionID, sfxWinnerFanfare), Delay: 3200 * time.Millisecond},
		{
			Event: domain.NewEvent(domain.EventUIEffectTrigger, g.SessionID, domain.UIEffectPayload{
				EffectID:  effectConfetti,
				Intensity: "high",
			}),
			Delay: 3200 * time.Millisecond,
		},
	}

	return DirectorResult{Immediate: immediate, Scheduled: scheduled}
}

func voiceCluePhrase(level int) string {
	return "voice_clue_" + strconv.Itoa(level)
}

func voiceQuestionPhrase(index int) string {
	return "voice_question_" + strconv.Itoa(index)
}
