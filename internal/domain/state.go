package domain

// CluePointLevels is the fixed descending order of clue point levels. A
// correct answer locked while a level is showing earns that level's points.
var CluePointLevels = []int{10, 8, 6, 4, 2}

// Clue is a single hint about the round's destination
type Clue struct {
	Points int    `json:"points"`
	Text   string `json:"text"`
}

// FollowupQuestion is a trivia question tied to a destination, asked after
// the reveal. Options is nil for free-text questions.
type FollowupQuestion struct {
	QuestionText  string   `json:"questionText"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correctAnswer"`
	Aliases       []string `json:"aliases,omitempty"`
}

// RoundContent is everything the state machine needs to play one
// destination: the answer, its aliases, five clues and any follow-ups.
// It is never projected to clients directly.
type RoundContent struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Country   string             `json:"country"`
	Aliases   []string           `json:"aliases"`
	Clues     []Clue             `json:"clues"`
	Followups []FollowupQuestion `json:"followups"`
}

// ClueForPoints returns the clue at the given point level.
func (rc *RoundContent) ClueForPoints(points int) (Clue, bool) {
	for _, c := range rc.Clues {
		if c.Points == points {
			return c, true
		}
	}
	return Clue{}, false
}

// Destination is the projected view of the round's answer: hidden from
// players and the TV until revealed.
type Destination struct {
	Name     string   `json:"name,omitempty"`
	Country  string   `json:"country,omitempty"`
	Aliases  []string `json:"aliases,omitempty"`
	Revealed bool     `json:"revealed"`
}

// LockedAnswer is a player's committed answer for the current destination.
// Immutable once created except for the scoring fields written at reveal.
type LockedAnswer struct {
	PlayerID            string `json:"playerId"`
	AnswerText          string `json:"answerText"`
	LockedAtLevelPoints int    `json:"lockedAtLevelPoints"`
	LockedAtMs          int64  `json:"lockedAtMs"`
	// Populated at reveal time
	Scored        bool `json:"-"`
	IsCorrect     bool `json:"isCorrect,omitempty"`
	PointsAwarded int  `json:"pointsAwarded,omitempty"`
	SpeedBonus    int  `json:"speedBonus,omitempty"`
}

// ScoreboardEntry is one player's standing. Ranks are dense: equal scores
// share a rank and the next lower score gets index+1.
type ScoreboardEntry struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Rank     int    `json:"rank"`
}

// Timer describes a server-side countdown. Clients render the remaining
// time as max(0, ceil((startAtServerMs+durationMs-now)/1000)); the server
// deadline stays authoritative.
type Timer struct {
	TimerID         string `json:"timerId"`
	StartAtServerMs int64  `json:"startAtServerMs"`
	DurationMs      int64  `json:"durationMs"`
}

// Expired reports whether the timer deadline has passed.
func (t *Timer) Expired(nowMs int64) bool {
	return nowMs > t.StartAtServerMs+t.DurationMs
}

// ActiveVoiceClip is the voice line currently playing on the TV
type ActiveVoiceClip struct {
	ClipID          string `json:"clipId"`
	URL             string `json:"url"`
	StartAtServerMs int64  `json:"startAtServerMs"`
	DurationMs      int64  `json:"durationMs"`
	Text            string `json:"text"`
}

// ClipManifest is one pre-generated TTS clip. Banter pools are generated
// with _001/_002 suffixes so playback can pick a random variant by prefix.
type ClipManifest struct {
	ClipID        string `json:"clipId"`
	PhraseID      string `json:"phraseId"`
	URL           string `json:"url"`
	DurationMs    int64  `json:"durationMs"`
	GeneratedAtMs int64  `json:"generatedAtMs"`
}

// AudioState is the session's best-effort audio status. The TTS manifest is
// an explicit optional member: absent means the director degrades to
// music/SFX only and the UI falls back to text.
type AudioState struct {
	CurrentTrackID  string           `json:"currentTrackId,omitempty"`
	IsPlaying       bool             `json:"isPlaying"`
	GainDb          int              `json:"gainDb"`
	ActiveVoiceClip *ActiveVoiceClip `json:"activeVoiceClip,omitempty"`
	TTSManifest     []ClipManifest   `json:"ttsManifest,omitempty"`
}

// FollowupPlayerAnswer is one player's raw follow-up answer, host-only
// until results are broadcast.
type FollowupPlayerAnswer struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	AnswerText string `json:"answerText"`
}

// FollowupState tracks the in-progress follow-up question
type FollowupState struct {
	QuestionText    string                 `json:"questionText"`
	Options         []string               `json:"options,omitempty"`
	QuestionIndex   int                    `json:"currentQuestionIndex"`
	TotalQuestions  int                    `json:"totalQuestions"`
	CorrectAnswer   string                 `json:"correctAnswer,omitempty"`
	AnswersByPlayer []FollowupPlayerAnswer `json:"answersByPlayer,omitempty"`
	Timer           *Timer                 `json:"timer,omitempty"`
}

// Answered reports whether the given player has answered the current question.
func (f *FollowupState) Answered(playerID string) bool {
	for _, a := range f.AnswersByPlayer {
		if a.PlayerID == playerID {
			return true
		}
	}
	return false
}

// DestinationSource says where a game-plan destination's content came from
type DestinationSource string

const (
	SourceAI     DestinationSource = "ai"
	SourceManual DestinationSource = "manual"
)

// DestinationConfig is one entry of a game plan
type DestinationConfig struct {
	PackID  string            `json:"packId"`
	Source  DestinationSource `json:"source"`
	Content *RoundContent     `json:"-"`
}

// GamePlan is an ordered list of destinations played in one session. The
// index advances each time a destination's scoreboard completes; reaching
// the end sends the session to FINAL_RESULTS.
type GamePlan struct {
	Destinations []DestinationConfig `json:"destinations"`
	Index        int                 `json:"currentIndex"`
}

// Current returns the active destination config, or nil past the end.
func (gp *GamePlan) Current() *DestinationConfig {
	if gp == nil || gp.Index < 0 || gp.Index >= len(gp.Destinations) {
		return nil
	}
	return &gp.Destinations[gp.Index]
}

// HasNext reports whether another destination follows the current one.
func (gp *GamePlan) HasNext() bool {
	return gp != nil && gp.Index < len(gp.Destinations)-1
}
