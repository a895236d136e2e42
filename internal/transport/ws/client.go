package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"sparet/internal/app"
	"sparet/internal/domain"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Size of the send channel buffer
	sendBufferSize = 256
)

// Client represents one authenticated WebSocket connection
type Client struct {
	conn     *websocket.Conn
	session  *app.GameSession
	clientID string
	playerID string
	role     domain.Role
	fallback func() *domain.RoundContent
	prefetch VoicePrefetch
	send     chan []byte
	done     chan struct{}
	logger   *slog.Logger
	mu       sync.Mutex
	closed   bool
}

// NewClient creates a client for an already-authenticated connection.
func NewClient(conn *websocket.Conn, session *app.GameSession, clientID, playerID string, role domain.Role, fallback func() *domain.RoundContent, prefetch VoicePrefetch, logger *slog.Logger) *Client {
	return &Client{
		conn:     conn,
		session:  session,
		clientID: clientID,
		playerID: playerID,
		role:     role,
		fallback: fallback,
		prefetch: prefetch,
		send:     make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
		logger:   logger,
	}
}

// GetClientID returns the connection's registry key
func (c *Client) GetClientID() string {
	return c.clientID
}

// GetPlayerID returns the participant id, empty for TV connections
func (c *Client) GetPlayerID() string {
	return c.playerID
}

// GetRole returns the connection's role
func (c *Client) GetRole() domain.Role {
	return c.role
}

// Send implements app.ClientConnection
func (c *Client) Send(message any) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	select {
	case c.send <- data:
		return nil
	default:
		// Buffer full, message dropped
		c.logger.Warn("send buffer full, message dropped", "clientId", c.clientID)
		return nil
	}
}

// Close implements app.ClientConnection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	close(c.done)
	return c.conn.Close()
}

// Run starts the client's read and write pumps
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// readPump pumps messages from the WebSocket connection
func (c *Client) readPump() {
	defer func() {
		c.session.UnregisterClient(c)
		if c.playerID != "" {
			c.session.MarkDisconnected(c.playerID, time.Now().UnixMilli())
		}
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error", "error", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// writePump pumps messages from the send channel to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes an incoming message from the client
func (c *Client) handleMessage(data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError(ErrCodeValidation, "Invalid message format")
		return
	}

	switch domain.EventType(msg.Type) {
	case domain.EventResumeSession:
		c.sendSnapshot(true)
	case domain.EventHostStartGame:
		err := c.session.HandleStartGame(c.playerID, c.fallback)
		if err == nil {
			c.prefetchVoice()
		}
		c.handleError(err)
	case domain.EventHostNextClue:
		c.handleError(c.session.HandleNextClue(c.playerID))
	case domain.EventHostContinue:
		err := c.session.HandleContinue(c.playerID)
		if err == nil && c.session.Phase() == domain.PhaseRoundIntro {
			// A scoreboard continue that started the next destination needs
			// fresh clips for the new clues and questions.
			c.prefetchVoice()
		}
		c.handleError(err)
	case domain.EventBrakePull:
		c.handleError(c.session.HandleBrakePull(c.playerID))
	case domain.EventBrakeAnswerSubmit:
		var payload BrakeAnswerPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			c.sendError(ErrCodeValidation, "Invalid payload")
			return
		}
		c.handleError(c.session.HandleBrakeAnswer(c.playerID, payload.AnswerText))
	case domain.EventFollowupAnswerSubmit:
		var payload FollowupAnswerPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			c.sendError(ErrCodeValidation, "Invalid payload")
			return
		}
		c.handleError(c.session.HandleFollowupAnswer(c.playerID, payload.AnswerText))
	case domain.EventPing:
		c.Send(domain.NewEvent(domain.EventPong, c.session.ID, nil))
	default:
		c.sendError(ErrCodeValidation, "Unknown message type")
	}
}

// prefetchVoice synthesizes the current round's voice clips in the
// background and hands the manifest to the session when it arrives.
func (c *Client) prefetchVoice() {
	if c.prefetch == nil {
		return
	}
	rc := c.session.RoundContent()
	if rc == nil {
		return
	}
	go func() {
		if clips := c.prefetch(context.Background(), rc); len(clips) > 0 {
			c.session.SetTTSManifest(clips)
		}
	}()
}

// handleError maps a session error to a structured ERROR event.
func (c *Client) handleError(err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotHost):
		c.sendError(ErrCodeUnauthorized, "Only the host can do that")
	case errors.Is(err, domain.ErrNotBrakeOwner):
		c.sendError(ErrCodeUnauthorized, "You do not hold the brake")
	case errors.Is(err, domain.ErrAlreadyAnswered):
		c.sendError(ErrCodeAlreadyAnswered, "You have already answered")
	case errors.Is(err, domain.ErrAlreadyLocked):
		c.sendError(ErrCodeAlreadyAnswered, "You have already locked an answer")
	case errors.Is(err, domain.ErrAnswerWindowClosed):
		c.sendError(ErrCodeAnswerWindowClosed, "The answer window has closed")
	case errors.Is(err, domain.ErrEmptyAnswer):
		c.sendError(ErrCodeValidation, "Answer text is required")
	case errors.Is(err, domain.ErrInvalidPhase), errors.Is(err, domain.ErrInvalidTransition):
		c.sendError(ErrCodeInvalidPhase, "That action is not valid right now")
	case errors.Is(err, domain.ErrPlayerNotFound):
		c.sendError(ErrCodeValidation, "Unknown player")
	default:
		c.sendError(ErrCodeInternalError, err.Error())
	}
}

// SendWelcome delivers the connection confirmation and a state snapshot.
func (c *Client) SendWelcome(resumed bool) {
	c.Send(domain.NewEvent(domain.EventWelcome, c.session.ID, domain.WelcomePayload{
		PlayerID:     c.playerID,
		ConnectionID: c.clientID,
		Role:         c.role,
		Resumed:      resumed,
	}))
	c.sendSnapshot(resumed)
}

// sendSnapshot delivers a role-projected state snapshot.
func (c *Client) sendSnapshot(resumed bool) {
	view := c.session.Snapshot(c.role, c.playerID)
	c.Send(domain.NewEvent(domain.EventStateSnapshot, c.session.ID, map[string]any{
		"state":   view,
		"resumed": resumed,
	}))
}

// sendError sends an ERROR event to this client only.
func (c *Client) sendError(code, message string) {
	c.Send(domain.NewEvent(domain.EventError, c.session.ID, domain.ErrorPayload{
		Code:    code,
		Message: message,
	}))
}
