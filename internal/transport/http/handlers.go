package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"sparet/internal/auth"
	"sparet/internal/content"
	"sparet/internal/domain"
)

const maxPlayerNameLength = 50

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, kind, message string) {
	s.writeJSON(w, status, errorResponse{Error: kind, Message: message})
}

// wsURL derives the WebSocket endpoint from the public base URL.
func (s *Server) wsURL() string {
	base := s.config.Server.PublicBaseURL
	base = strings.TrimPrefix(base, "https://")
	base = strings.TrimPrefix(base, "http://")
	return "ws://" + base + "/ws"
}

func (s *Server) joinURL(joinCode string) string {
	return s.config.Server.PublicBaseURL + "/join/" + joinCode
}

// handleCreateSession creates a session and mints the host and TV tokens.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.hub.CreateSession()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Internal server error", "Failed to create session")
		return
	}

	hostToken, err := s.auth.Sign(auth.Claims{
		SessionID: session.ID,
		Role:      domain.RoleHost,
		PlayerID:  session.HostID(),
	})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Internal server error", "Failed to sign host token")
		return
	}

	tvToken, err := s.auth.Sign(auth.Claims{
		SessionID: session.ID,
		Role:      domain.RoleTV,
	})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Internal server error", "Failed to sign tv token")
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"sessionId":       session.ID,
		"joinCode":        session.JoinCode(),
		"hostAuthToken":   hostToken,
		"tvJoinToken":     tvToken,
		"wsUrl":           s.wsURL(),
		"joinUrlTemplate": s.config.Server.PublicBaseURL + "/join/{joinCode}",
	})
}

// handleJoinSession adds a player to a lobby and mints their token.
func (s *Server) handleJoinSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "Validation error", "Invalid request body")
		return
	}

	name := strings.TrimSpace(body.Name)
	if name == "" {
		s.writeError(w, http.StatusBadRequest, "Validation error", "Player name is required")
		return
	}
	if len(name) > maxPlayerNameLength {
		s.writeError(w, http.StatusBadRequest, "Validation error", "Player name must be 50 characters or less")
		return
	}

	session, err := s.hub.GetSession(sessionID)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "Not found", "Session not found")
		return
	}

	playerID := uuid.NewString()
	if _, err := session.AddPlayer(playerID, name); err != nil {
		switch {
		case errors.Is(err, domain.ErrGameAlreadyStarted):
			s.writeError(w, http.StatusBadRequest, "Invalid phase", "Cannot join session - game has already started")
		case errors.Is(err, domain.ErrGameFull):
			s.writeError(w, http.StatusConflict, "Session full", "Session already has the maximum number of players")
		default:
			s.writeError(w, http.StatusInternalServerError, "Internal server error", "Failed to join session")
		}
		return
	}

	token, err := s.auth.Sign(auth.Claims{
		SessionID: session.ID,
		Role:      domain.RolePlayer,
		PlayerID:  playerID,
	})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Internal server error", "Failed to sign player token")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"playerId":        playerID,
		"playerAuthToken": token,
		"wsUrl":           s.wsURL(),
	})
}

// handleTVJoin mints a TV token for an existing session.
func (s *Server) handleTVJoin(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := s.hub.GetSession(sessionID)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "Not found", "Session not found")
		return
	}

	token, err := s.auth.Sign(auth.Claims{
		SessionID: session.ID,
		Role:      domain.RoleTV,
	})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Internal server error", "Failed to sign tv token")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"tvAuthToken": token,
		"wsUrl":       s.wsURL(),
	})
}

// handleSessionByCode resolves a join code typed off the TV.
func (s *Server) handleSessionByCode(w http.ResponseWriter, r *http.Request) {
	joinCode := strings.ToUpper(chi.URLParam(r, "joinCode"))

	session, err := s.hub.GetByJoinCode(joinCode)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "Not found", "Session not found with that join code")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"sessionId":   session.ID,
		"joinCode":    session.JoinCode(),
		"phase":       session.Phase(),
		"playerCount": session.PlayerCount(),
	})
}

// handleCreateGamePlan attaches an ordered list of content packs to a
// session still in the lobby.
func (s *Server) handleCreateGamePlan(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var body struct {
		PackIDs []string `json:"packIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "Validation error", "Invalid request body")
		return
	}
	if len(body.PackIDs) == 0 {
		s.writeError(w, http.StatusBadRequest, "Validation error", "At least one pack id is required")
		return
	}

	session, err := s.hub.GetSession(sessionID)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "Not found", "Session not found")
		return
	}

	destinations := make([]domain.DestinationConfig, 0, len(body.PackIDs))
	for _, packID := range body.PackIDs {
		roundContent, err := s.resolvePack(packID)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "Validation error", "Unknown or invalid content pack: "+packID)
			return
		}
		destinations = append(destinations, domain.DestinationConfig{
			PackID:  packID,
			Source:  domain.SourceManual,
			Content: roundContent,
		})
	}

	plan := &domain.GamePlan{Destinations: destinations}
	if err := session.SetPlan(plan); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid phase", "Game plan can only be created in the lobby")
		return
	}

	s.logger.Info("game plan created",
		"sessionId", sessionID,
		"destinations", len(destinations))

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"sessionId":    sessionID,
		"destinations": len(destinations),
		"packIds":      body.PackIDs,
	})
}

// resolvePack loads a pack from the store, falling back to the built-ins.
func (s *Server) resolvePack(packID string) (*domain.RoundContent, error) {
	if roundContent, err := s.packs.Load(packID); err == nil {
		return roundContent, nil
	}
	if builtin := content.BuiltinByID(packID); builtin != nil {
		return builtin, nil
	}
	return nil, domain.ErrNoRoundContent
}

// handleJoinQR renders the session's join URL as a PNG QR code.
func (s *Server) handleJoinQR(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := s.hub.GetSession(sessionID)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "Not found", "Session not found")
		return
	}

	size := 256
	if raw := r.URL.Query().Get("size"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 64 && parsed <= 1024 {
			size = parsed
		}
	}

	png, err := qrcode.Encode(s.joinURL(session.JoinCode()), qrcode.Medium, size)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Internal server error", "Failed to render QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// handleListPacks lists loadable content packs, built-ins included.
func (s *Server) handleListPacks(w http.ResponseWriter, r *http.Request) {
	ids := append(content.BuiltinIDs(), s.packs.List()...)

	packs := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		packs = append(packs, map[string]any{"id": id, "available": true})
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"packs": packs,
		"count": len(packs),
	})
}

// handleGetPack returns one pack's full content for host preview.
func (s *Server) handleGetPack(w http.ResponseWriter, r *http.Request) {
	packID := chi.URLParam(r, "packID")

	roundContent, err := s.resolvePack(packID)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "Not found", "Content pack not found: "+packID)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"id": roundContent.ID,
		"destination": map[string]string{
			"name":    roundContent.Name,
			"country": roundContent.Country,
		},
		"clueCount":     len(roundContent.Clues),
		"followupCount": len(roundContent.Followups),
		"clues":         roundContent.Clues,
		"followups":     roundContent.Followups,
	})
}

// handleGenerateContent proxies a generation request to the content service.
func (s *Server) handleGenerateContent(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Theme    string `json:"theme"`
		Language string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "Validation error", "Invalid request body")
		return
	}

	roundID, err := s.gen.GenerateRound(r.Context(), body.Theme, body.Language)
	if err != nil {
		s.logger.Error("content generation failed", "error", err)
		s.writeError(w, http.StatusBadGateway, "Content generation failed", "Generation service is unavailable")
		return
	}

	s.writeJSON(w, http.StatusAccepted, map[string]any{
		"generateId": roundID,
		"roundId":    roundID,
		"status":     "generating",
	})
}

// handleGenerateStatus polls a generation task.
func (s *Server) handleGenerateStatus(w http.ResponseWriter, r *http.Request) {
	roundID := chi.URLParam(r, "roundID")

	status, err := s.gen.GenerationProgress(r.Context(), roundID)
	if err != nil {
		s.logger.Error("failed to get generation status", "roundId", roundID, "error", err)
		s.writeError(w, http.StatusBadGateway, "Internal server error", "Failed to get generation status")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":        status.Status,
		"currentStep":   status.CurrentStep,
		"totalSteps":    status.TotalSteps,
		"contentPackId": status.RoundID,
	})
}

// handleHealth reports liveness and the active session count.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.hub.SessionCount(),
	})
}
