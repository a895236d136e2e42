package ws

import "encoding/json"

// ClientMessage represents a message from client to server. Payload stays
// raw until the type-specific handler decodes it.
type ClientMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// BrakeAnswerPayload is the payload for BRAKE_ANSWER_SUBMIT
type BrakeAnswerPayload struct {
	AnswerText string `json:"answerText"`
}

// FollowupAnswerPayload is the payload for FOLLOWUP_ANSWER_SUBMIT
type FollowupAnswerPayload struct {
	AnswerText string `json:"answerText"`
}

// Error codes
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidPhase       = "INVALID_PHASE"
	ErrCodeAlreadyAnswered    = "ALREADY_ANSWERED"
	ErrCodeAnswerWindowClosed = "ANSWER_WINDOW_CLOSED"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// WebSocket close codes for handshake failures
const (
	CloseInvalidToken    = 4001
	CloseTokenExpired    = 4002
	CloseSessionNotFound = 4003
)
