package domain

import "errors"

// Domain errors
var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrGameFull           = errors.New("game is full")
	ErrGameAlreadyStarted = errors.New("game already started")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrNotHost            = errors.New("only the host can perform this action")
	ErrNotBrakeOwner      = errors.New("only the brake owner can submit an answer")
	ErrInvalidPhase       = errors.New("invalid action for current phase")
	ErrInvalidTransition  = errors.New("invalid phase transition")
	ErrAlreadyLocked      = errors.New("player already has a locked answer for this destination")
	ErrAlreadyAnswered    = errors.New("already answered this question")
	ErrAnswerWindowClosed = errors.New("answer window has closed")
	ErrEmptyAnswer        = errors.New("answer cannot be empty")
	ErrEmptyName          = errors.New("player name cannot be empty")
	ErrNoRoundContent     = errors.New("no round content loaded")
	ErrPlanExhausted      = errors.New("no more destinations in game plan")
)
