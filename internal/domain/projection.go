package domain

// FollowupView is the per-role projection of the follow-up question state.
type FollowupView struct {
	QuestionText    string                 `json:"questionText"`
	Options         []string               `json:"options,omitempty"`
	QuestionIndex   int                    `json:"currentQuestionIndex"`
	TotalQuestions  int                    `json:"totalQuestions"`
	CorrectAnswer   string                 `json:"correctAnswer,omitempty"`
	AnswersByPlayer []FollowupPlayerAnswer `json:"answersByPlayer,omitempty"`
	AnsweredByMe    *bool                  `json:"answeredByMe,omitempty"`
	Timer           *Timer                 `json:"timer,omitempty"`
}

// StateView is one role's picture of the game, safe to serialize as a
// snapshot. It is built fresh on every projection; nothing in it aliases
// the live game state.
type StateView struct {
	SessionID          string            `json:"sessionId"`
	JoinCode           string            `json:"joinCode"`
	Version            int               `json:"version"`
	Phase              Phase             `json:"phase"`
	Players            []PlayerView      `json:"players"`
	RoundIndex         int               `json:"roundIndex"`
	TotalDestinations  int               `json:"totalDestinations,omitempty"`
	Destination        *Destination      `json:"destination,omitempty"`
	ClueLevelPoints    int               `json:"clueLevelPoints,omitempty"`
	ClueText           string            `json:"clueText,omitempty"`
	BrakeOwnerPlayerID string            `json:"brakeOwnerPlayerId,omitempty"`
	LockedAnswers      []LockedAnswer    `json:"lockedAnswers"`
	AnsweredCount      int               `json:"answeredCount"`
	Followup           *FollowupView     `json:"followupQuestion,omitempty"`
	Scoreboard         []ScoreboardEntry `json:"scoreboard"`
	Audio              *AudioState       `json:"audioState,omitempty"`
}

// ProjectState builds the state snapshot one connection may see. The host
// sees everything, players see their own secrets only, and the TV sees a
// spoiler-free public picture. Projection is the single place hidden
// information is filtered, so snapshots and broadcasts cannot leak.
func ProjectState(g *Game, viewer Role, viewerID string) StateView {
	view := StateView{
		SessionID:          g.SessionID,
		JoinCode:           g.JoinCode,
		Version:            g.Version,
		Phase:              g.Phase,
		Players:            projectPlayers(g, viewer),
		RoundIndex:         g.RoundIndex,
		ClueLevelPoints:    g.ClueLevelPoints,
		ClueText:           g.ClueText,
		BrakeOwnerPlayerID: g.BrakeOwnerPlayerID,
		LockedAnswers:      projectLockedAnswers(g, viewer, viewerID),
		AnsweredCount:      len(g.LockedAnswers),
		Followup:           projectFollowup(g, viewer, viewerID),
		Scoreboard:         copyScoreboard(g.Scoreboard),
		Audio:              projectAudio(g, viewer),
	}
	if g.Plan != nil {
		view.TotalDestinations = len(g.Plan.Destinations)
	}
	if g.Content != nil {
		view.Destination = projectDestination(g, viewer)
	}
	return view
}

func projectPlayers(g *Game, viewer Role) []PlayerView {
	out := make([]PlayerView, 0, len(g.Players))
	for _, p := range g.Players {
		if viewer != RoleHost && p.Role != RolePlayer {
			continue
		}
		out = append(out, p.View(viewer))
	}
	return out
}

func projectDestination(g *Game, viewer Role) *Destination {
	if viewer == RoleHost || g.Revealed {
		return &Destination{
			Name:     g.Content.Name,
			Country:  g.Content.Country,
			Aliases:  g.Content.Aliases,
			Revealed: g.Revealed,
		}
	}
	return &Destination{Revealed: false}
}

func projectLockedAnswers(g *Game, viewer Role, viewerID string) []LockedAnswer {
	out := []LockedAnswer{}
	switch viewer {
	case RoleHost:
		for _, a := range g.LockedAnswers {
			out = append(out, *a)
		}
	case RolePlayer:
		if own := g.LockedAnswerFor(viewerID); own != nil {
			out = append(out, *own)
		}
	case RoleTV:
		if !g.Revealed {
			return out
		}
		for _, a := range g.LockedAnswers {
			stripped := *a
			stripped.AnswerText = ""
			out = append(out, stripped)
		}
	}
	return out
}

func projectFollowup(g *Game, viewer Role, viewerID string) *FollowupView {
	if g.Followup == nil {
		return nil
	}
	view := &FollowupView{
		QuestionText:   g.Followup.QuestionText,
		Options:        append([]string{}, g.Followup.Options...),
		QuestionIndex:  g.Followup.QuestionIndex,
		TotalQuestions: g.Followup.TotalQuestions,
	}
	if g.Followup.Timer != nil {
		timer := *g.Followup.Timer
		view.Timer = &timer
	}
	switch viewer {
	case RoleHost:
		view.CorrectAnswer = g.Followup.CorrectAnswer
		view.AnswersByPlayer = append([]FollowupPlayerAnswer{}, g.Followup.AnswersByPlayer...)
	case RolePlayer:
		answered := g.Followup.Answered(viewerID)
		view.AnsweredByMe = &answered
	}
	return view
}

func projectAudio(g *Game, viewer Role) *AudioState {
	if g.Audio == nil || viewer == RolePlayer {
		return nil
	}
	audio := *g.Audio
	if viewer == RoleTV {
		audio.TTSManifest = nil
	}
	return &audio
}

func copyScoreboard(entries []*ScoreboardEntry) []ScoreboardEntry {
	out := make([]ScoreboardEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, *e)
	}
	return out
}
