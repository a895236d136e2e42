package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"sparet/internal/app"
	"sparet/internal/auth"
	"sparet/internal/domain"
)

// VoicePrefetch synthesizes the voice clips for a round. Implementations
// return nil when synthesis is unavailable; the round then plays without
// voice.
type VoicePrefetch func(ctx context.Context, rc *domain.RoundContent) []domain.ClipManifest

// Handler authenticates and upgrades WebSocket connections
type Handler struct {
	hub      *app.SessionHub
	auth     *auth.Authority
	fallback func() *domain.RoundContent
	prefetch VoicePrefetch
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler creates a WebSocket handler. fallback supplies round content
// when a game starts without a configured plan; prefetch (optional) runs in
// the background whenever a new round begins.
func NewHandler(hub *app.SessionHub, authority *auth.Authority, fallback func() *domain.RoundContent, prefetch VoicePrefetch, logger *slog.Logger) *Handler {
	return &Handler{
		hub:      hub,
		auth:     authority,
		fallback: fallback,
		prefetch: prefetch,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Allow all origins for development
				// In production, you should validate the origin
				return true
			},
		},
		logger: logger,
	}
}

// extractToken pulls the session token from the Authorization header or the
// token query parameter.
func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// ServeHTTP handles WebSocket upgrade requests. Authentication failures
// close the upgraded connection with a protocol-specific code so clients
// can distinguish an expired token from a bad one.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := extractToken(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	claims, err := h.auth.Verify(token)
	if err != nil {
		code := CloseInvalidToken
		reason := "Invalid token"
		if errors.Is(err, auth.ErrTokenExpired) {
			code = CloseTokenExpired
			reason = "Token expired"
		}
		h.closeWith(conn, code, reason)
		return
	}

	session, err := h.hub.GetSession(claims.SessionID)
	if err != nil {
		h.closeWith(conn, CloseSessionNotFound, "Session not found")
		return
	}

	clientID := claims.PlayerID
	if claims.Role == domain.RoleTV {
		clientID = "tv-" + uuid.NewString()
	}

	resumed := false
	if claims.PlayerID != "" {
		if view := session.Snapshot(claims.Role, claims.PlayerID); view.Phase != domain.PhaseLobby {
			resumed = true
		}
	}

	client := NewClient(conn, session, clientID, claims.PlayerID, claims.Role, h.fallback, h.prefetch, h.logger)
	session.RegisterClient(client)
	if claims.PlayerID != "" {
		session.MarkConnected(claims.PlayerID)
	}

	h.logger.Info("websocket connected",
		"sessionId", claims.SessionID,
		"role", claims.Role,
		"playerId", claims.PlayerID,
		"resumed", resumed,
	)

	client.SendWelcome(resumed)
	client.Run()
}

// closeWith sends a close frame with the given code and drops the connection.
func (h *Handler) closeWith(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(writeWait)
	conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	conn.Close()
	h.logger.Warn("websocket rejected", "code", code, "reason", reason)
}
