// Package http serves the REST bootstrap API: session creation, joining,
// game plans, content packs, and the WebSocket upgrade endpoint.
package http

import (
	"bufio"
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"sparet/internal/app"
	"sparet/internal/auth"
	"sparet/internal/config"
	"sparet/internal/content"
	"sparet/internal/domain"
	"sparet/internal/transport/ws"
)

// Server represents the HTTP server
type Server struct {
	server *http.Server
	hub    *app.SessionHub
	auth   *auth.Authority
	packs  *content.Store
	gen    *content.Client
	config config.Config
	logger *slog.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg config.Config, hub *app.SessionHub, authority *auth.Authority, packs *content.Store, gen *content.Client, logger *slog.Logger) *Server {
	s := &Server{
		hub:    hub,
		auth:   authority,
		packs:  packs,
		gen:    gen,
		config: cfg,
		logger: logger,
	}

	r := chi.NewRouter()
	s.setupRoutes(r)

	s.server = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      s.middleware(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Post("/sessions", s.handleCreateSession)
		r.Get("/sessions/by-code/{joinCode}", s.handleSessionByCode)
		r.Post("/sessions/{sessionID}/join", s.handleJoinSession)
		r.Post("/sessions/{sessionID}/tv", s.handleTVJoin)
		r.Post("/sessions/{sessionID}/game-plan", s.handleCreateGamePlan)
		r.Get("/sessions/{sessionID}/qr", s.handleJoinQR)

		r.Get("/content/packs", s.handleListPacks)
		r.Get("/content/packs/{packID}", s.handleGetPack)
		r.Post("/content/generate", s.handleGenerateContent)
		r.Get("/content/generate/{roundID}/status", s.handleGenerateStatus)
	})

	r.Get("/health", s.handleHealth)

	wsHandler := ws.NewHandler(s.hub, s.auth, s.fallbackContent, s.gen.PrefetchRoundVoice, s.logger)
	r.Get("/ws", wsHandler.ServeHTTP)
}

// fallbackContent supplies a round when a game starts without a plan.
func (s *Server) fallbackContent() *domain.RoundContent {
	return content.RandomBuiltin()
}

// middleware adds CORS headers and request logging.
func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration", time.Since(start),
		)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("server starting", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")
	return s.server.Shutdown(ctx)
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack implements http.Hijacker for WebSocket support
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := rw.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

// Flush implements http.Flusher
func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
