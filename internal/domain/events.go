package domain

import "time"

// EventType identifies one message on the wire, both directions.
type EventType string

// Server to client
const (
	EventWelcome               EventType = "WELCOME"
	EventStateSnapshot         EventType = "STATE_SNAPSHOT"
	EventLobbyUpdated          EventType = "LOBBY_UPDATED"
	EventRoundIntro            EventType = "ROUND_INTRO"
	EventCluePresent           EventType = "CLUE_PRESENT"
	EventBrakeAccepted         EventType = "BRAKE_ACCEPTED"
	EventBrakeRejected         EventType = "BRAKE_REJECTED"
	EventBrakeAnswerLocked     EventType = "BRAKE_ANSWER_LOCKED"
	EventAnswerCountUpdate     EventType = "ANSWER_COUNT_UPDATE"
	EventDestinationReveal     EventType = "DESTINATION_REVEAL"
	EventDestinationResults    EventType = "DESTINATION_RESULTS"
	EventScoreboardUpdate      EventType = "SCOREBOARD_UPDATE"
	EventFollowupPresent       EventType = "FOLLOWUP_QUESTION_PRESENT"
	EventFollowupAnswersLocked EventType = "FOLLOWUP_ANSWERS_LOCKED"
	EventFollowupResults       EventType = "FOLLOWUP_RESULTS"
	EventFinalResults          EventType = "FINAL_RESULTS"
	EventMusicSet              EventType = "MUSIC_SET"
	EventMusicStop             EventType = "MUSIC_STOP"
	EventSfxPlay               EventType = "SFX_PLAY"
	EventAudioPlay             EventType = "AUDIO_PLAY"
	EventTTSPrefetch           EventType = "TTS_PREFETCH"
	EventUIEffectTrigger       EventType = "UI_EFFECT_TRIGGER"
	EventError                 EventType = "ERROR"
	EventPong                  EventType = "PONG"
)

// Client to server
const (
	EventResumeSession        EventType = "RESUME_SESSION"
	EventHostStartGame        EventType = "HOST_START_GAME"
	EventHostNextClue         EventType = "HOST_NEXT_CLUE"
	EventHostContinue         EventType = "HOST_CONTINUE"
	EventBrakePull            EventType = "BRAKE_PULL"
	EventBrakeAnswerSubmit    EventType = "BRAKE_ANSWER_SUBMIT"
	EventFollowupAnswerSubmit EventType = "FOLLOWUP_ANSWER_SUBMIT"
	EventPing                 EventType = "PING"
)

// Envelope is the shared shape of every message in both directions.
type Envelope struct {
	Type         EventType `json:"type"`
	SessionID    string    `json:"sessionId"`
	ServerTimeMs int64     `json:"serverTimeMs"`
	Payload      any       `json:"payload,omitempty"`
}

// NewEvent wraps a payload in an envelope stamped with the server clock.
func NewEvent(eventType EventType, sessionID string, payload any) Envelope {
	return Envelope{
		Type:         eventType,
		SessionID:    sessionID,
		ServerTimeMs: time.Now().UnixMilli(),
		Payload:      payload,
	}
}

// WelcomePayload confirms a successful connection
type WelcomePayload struct {
	PlayerID     string `json:"playerId,omitempty"`
	ConnectionID string `json:"connectionId"`
	Role         Role   `json:"role"`
	Resumed      bool   `json:"resumed"`
}

// LobbyPayload lists the joined players while the session is in the lobby
type LobbyPayload struct {
	JoinCode string       `json:"joinCode"`
	Players  []PlayerView `json:"players"`
}

// RoundIntroPayload opens a destination round
type RoundIntroPayload struct {
	RoundIndex        int `json:"roundIndex"`
	TotalDestinations int `json:"totalDestinations,omitempty"`
}

// CluePresentPayload carries one clue. The destination stays hidden.
type CluePresentPayload struct {
	ClueLevelPoints int    `json:"clueLevelPoints"`
	ClueText        string `json:"clueText"`
	ClueIndex       int    `json:"clueIndex"`
	RoundIndex      int    `json:"roundIndex"`
	Timer           *Timer `json:"timer,omitempty"`
}

// BrakeAcceptedPayload announces the race winner to everyone
type BrakeAcceptedPayload struct {
	PlayerID        string `json:"playerId"`
	PlayerName      string `json:"playerName"`
	ClueLevelPoints int    `json:"clueLevelPoints"`
}

// BrakeRejectedPayload goes only to the losing puller
type BrakeRejectedPayload struct {
	Reason         BrakeRejectReason `json:"reason"`
	WinnerPlayerID string            `json:"winnerPlayerId,omitempty"`
}

// BrakeAnswerLockedPayload confirms a committed answer. AnswerText is set
// for the host variant only; players and the TV learn totals, not texts.
type BrakeAnswerLockedPayload struct {
	PlayerID            string `json:"playerId"`
	PlayerName          string `json:"playerName"`
	LockedAtLevelPoints int    `json:"lockedAtLevelPoints"`
	AnswerText          string `json:"answerText,omitempty"`
	AnsweredCount       int    `json:"answeredCount"`
}

// AnswerCountPayload is the anonymous lock tally shown during clues
type AnswerCountPayload struct {
	AnsweredCount int `json:"answeredCount"`
	PlayerCount   int `json:"playerCount"`
}

// DestinationRevealPayload uncovers the destination
type DestinationRevealPayload struct {
	Name    string `json:"name"`
	Country string `json:"country,omitempty"`
}

// DestinationResultsPayload grades every locked answer at once
type DestinationResultsPayload struct {
	Destination string         `json:"destination"`
	Results     []AnswerResult `json:"results"`
}

// ScoreboardPayload is the ranked standings
type ScoreboardPayload struct {
	Entries           []ScoreboardEntry `json:"entries"`
	RoundIndex        int               `json:"roundIndex"`
	TotalDestinations int               `json:"totalDestinations,omitempty"`
}

// FollowupPresentPayload asks one trivia question. The correct answer and
// other players' submissions are never in this payload.
type FollowupPresentPayload struct {
	QuestionText   string   `json:"questionText"`
	Options        []string `json:"options,omitempty"`
	QuestionIndex  int      `json:"currentQuestionIndex"`
	TotalQuestions int      `json:"totalQuestions"`
	Timer          *Timer   `json:"timer"`
}

// FollowupAnswersLockedPayload closes the answer window
type FollowupAnswersLockedPayload struct {
	QuestionIndex int `json:"currentQuestionIndex"`
	AnsweredCount int `json:"answeredCount"`
}

// FollowupResultsPayload reveals everyone's answers simultaneously
type FollowupResultsPayload struct {
	QuestionIndex int              `json:"currentQuestionIndex"`
	CorrectAnswer string           `json:"correctAnswer"`
	Results       []FollowupResult `json:"results"`
}

// FinalResultsPayload ends the game with the final standings
type FinalResultsPayload struct {
	Entries []ScoreboardEntry `json:"entries"`
	Winners []string          `json:"winnerPlayerIds"`
}

// MusicSetPayload starts or switches the looping background track
type MusicSetPayload struct {
	TrackID         string `json:"trackId"`
	Mode            string `json:"mode"`
	StartAtServerMs int64  `json:"startAtServerMs"`
	GainDb          int    `json:"gainDb"`
	FadeInMs        int64  `json:"fadeInMs,omitempty"`
}

// MusicStopPayload fades out whatever track is playing
type MusicStopPayload struct {
	FadeOutMs int64 `json:"fadeOutMs"`
}

// SfxPlayPayload fires a one-shot sound effect
type SfxPlayPayload struct {
	SfxID      string `json:"sfxId"`
	AtServerMs int64  `json:"atServerMs"`
}

// AudioPlayPayload plays a generated voice clip
type AudioPlayPayload struct {
	ClipID          string `json:"clipId"`
	URL             string `json:"url,omitempty"`
	DurationMs      int64  `json:"durationMs"`
	StartAtServerMs int64  `json:"startAtServerMs"`
	Text            string `json:"text,omitempty"`
}

// PrefetchClip is one cacheable clip reference
type PrefetchClip struct {
	ClipID     string `json:"clipId"`
	URL        string `json:"url"`
	DurationMs int64  `json:"durationMs"`
}

// TTSPrefetchPayload hands the display the clip manifest to cache ahead
type TTSPrefetchPayload struct {
	Clips []PrefetchClip `json:"clips"`
}

// UIEffectPayload triggers a visual effect on the display
type UIEffectPayload struct {
	EffectID  string `json:"effectId"`
	Intensity string `json:"intensity,omitempty"`
}

// ErrorPayload is a structured rejection of a client message
type ErrorPayload struct {
	Code    string `json:"errorCode"`
	Message string `json:"message"`
}
