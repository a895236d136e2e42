package app

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"sparet/internal/domain"
)

const (
	// JoinCodeLength is the length of player-facing join codes
	JoinCodeLength = 6

	// DefaultSessionMaxAge is how long before an empty session is reaped
	// when the config does not say otherwise
	DefaultSessionMaxAge = 2 * time.Hour

	// DefaultCleanupPeriod is the default reaping interval
	DefaultCleanupPeriod = 10 * time.Minute
)

// JoinCodeChars are characters used for join codes (no ambiguous chars)
const JoinCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// SessionHub manages all active game sessions. Sessions are addressed two
// ways: by session id for tokens and URLs, by join code for players typing
// it off the TV.
type SessionHub struct {
	sessions map[string]*GameSession // sessionID -> session
	byCode   map[string]string       // joinCode -> sessionID
	mu       sync.RWMutex

	settings   domain.GameSettings
	pacing     Pacing
	maxAge     time.Duration
	sweepEvery time.Duration
	logger     *slog.Logger
	done       chan struct{}
}

// NewSessionHub creates a hub and starts its cleanup loop. Zero durations
// fall back to the defaults.
func NewSessionHub(settings domain.GameSettings, pacing Pacing, maxAge, sweepEvery time.Duration, logger *slog.Logger) *SessionHub {
	if maxAge <= 0 {
		maxAge = DefaultSessionMaxAge
	}
	if sweepEvery <= 0 {
		sweepEvery = DefaultCleanupPeriod
	}
	hub := &SessionHub{
		sessions:   make(map[string]*GameSession),
		byCode:     make(map[string]string),
		settings:   settings,
		pacing:     pacing,
		maxAge:     maxAge,
		sweepEvery: sweepEvery,
		logger:     logger,
		done:       make(chan struct{}),
	}

	go hub.cleanupLoop()

	return hub
}

// CreateSession creates a new session with a fresh host identity.
func (h *SessionHub) CreateSession() (*GameSession, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var joinCode string
	for attempts := 0; attempts < 10; attempts++ {
		joinCode = h.generateJoinCode()
		if _, exists := h.byCode[joinCode]; !exists {
			break
		}
	}
	if _, exists := h.byCode[joinCode]; exists {
		return nil, fmt.Errorf("failed to generate unique join code")
	}

	sessionID := uuid.NewString()
	hostID := uuid.NewString()
	game := domain.NewGame(sessionID, joinCode, hostID, h.settings, time.Now().UnixMilli())
	session := NewGameSession(game, h.pacing, h.logger)

	h.sessions[sessionID] = session
	h.byCode[joinCode] = sessionID

	h.logger.Info("session created", "sessionId", sessionID, "joinCode", joinCode)

	return session, nil
}

// GetSession returns a session by id.
func (h *SessionHub) GetSession(sessionID string) (*GameSession, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	session, ok := h.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// GetByJoinCode returns a session by its join code.
func (h *SessionHub) GetByJoinCode(joinCode string) (*GameSession, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sessionID, ok := h.byCode[joinCode]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	session, ok := h.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// DeleteSession removes and closes a session.
func (h *SessionHub) DeleteSession(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if session, ok := h.sessions[sessionID]; ok {
		session.Close()
		delete(h.byCode, session.JoinCode())
		delete(h.sessions, sessionID)
		h.logger.Info("session deleted", "sessionId", sessionID)
	}
}

// SessionCount returns the number of active sessions.
func (h *SessionHub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Close shuts down the hub and all sessions.
func (h *SessionHub) Close() {
	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, session := range h.sessions {
		session.Close()
	}
	h.sessions = make(map[string]*GameSession)
	h.byCode = make(map[string]string)
}

// generateJoinCode generates a random join code
func (h *SessionHub) generateJoinCode() string {
	b := make([]byte, JoinCodeLength)
	rand.Read(b)

	code := make([]byte, JoinCodeLength)
	for i := range code {
		code[i] = JoinCodeChars[int(b[i])%len(JoinCodeChars)]
	}

	return string(code)
}

// cleanupLoop periodically reaps stale sessions
func (h *SessionHub) cleanupLoop() {
	ticker := time.NewTicker(h.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			h.cleanupStaleSessions()
		}
	}
}

// cleanupStaleSessions removes sessions with no players that have been
// around longer than the stale timeout.
func (h *SessionHub) cleanupStaleSessions() {
	h.mu.Lock()
	defer h.mu.Unlock()

	nowMs := time.Now().UnixMilli()
	stale := make([]string, 0)

	for sessionID, session := range h.sessions {
		if session.PlayerCount() == 0 && nowMs-session.CreatedAtMs() > h.maxAge.Milliseconds() {
			stale = append(stale, sessionID)
		}
	}

	for _, sessionID := range stale {
		if session, ok := h.sessions[sessionID]; ok {
			session.Close()
			delete(h.byCode, session.JoinCode())
			delete(h.sessions, sessionID)
			h.logger.Info("stale session cleaned up", "sessionId", sessionID)
		}
	}
}
