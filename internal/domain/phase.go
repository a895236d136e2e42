package domain

// Phase represents the current phase of a game session
type Phase string

const (
	PhaseLobby             Phase = "LOBBY"              // Waiting for players to join
	PhasePreparingRound    Phase = "PREPARING_ROUND"    // Loading round content
	PhaseRoundIntro        Phase = "ROUND_INTRO"        // Intro screen before the first clue
	PhaseClueLevel         Phase = "CLUE_LEVEL"         // A clue is showing, brakes are live
	PhasePausedForBrake    Phase = "PAUSED_FOR_BRAKE"   // One player holds the brake
	PhaseRevealDestination Phase = "REVEAL_DESTINATION" // Destination revealed, answers scored
	PhaseFollowupQuestion  Phase = "FOLLOWUP_QUESTION"  // Trivia about the destination
	PhaseScoreboard        Phase = "SCOREBOARD"         // Standings between destinations
	PhaseFinalResults      Phase = "FINAL_RESULTS"      // Podium ceremony, terminal
	PhaseRoundEnd          Phase = "ROUND_END"          // Round wrap-up
)

// String returns the string representation of the phase
func (p Phase) String() string {
	return string(p)
}

// CanTransitionTo checks if a transition from current phase to target phase is
// valid. Every phase change goes through this table, so an illegal pair is
// unreachable no matter which handler asks for it.
func (p Phase) CanTransitionTo(target Phase) bool {
	validTransitions := map[Phase][]Phase{
		PhaseLobby:             {PhasePreparingRound, PhaseRoundIntro},
		PhasePreparingRound:    {PhaseRoundIntro},
		PhaseRoundIntro:        {PhaseClueLevel},
		PhaseClueLevel:         {PhasePausedForBrake, PhaseRevealDestination},
		PhasePausedForBrake:    {PhaseClueLevel, PhaseRevealDestination},
		PhaseRevealDestination: {PhaseFollowupQuestion, PhaseScoreboard},
		PhaseFollowupQuestion:  {PhaseFollowupQuestion, PhaseScoreboard},
		PhaseScoreboard:        {PhaseRoundIntro, PhasePreparingRound, PhaseFinalResults},
		PhaseFinalResults:      {PhaseRoundEnd},
		PhaseRoundEnd:          {},
	}

	allowed, ok := validTransitions[p]
	if !ok {
		return false
	}

	for _, phase := range allowed {
		if phase == target {
			return true
		}
	}
	return false
}
