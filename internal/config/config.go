// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the complete server configuration.
type Config struct {
	Server  Server
	Auth    Auth
	Game    Game
	Content Content
	Logging Logging
}

// Server configures the HTTP listener.
type Server struct {
	Host            string        `env:"HOST" envDefault:"0.0.0.0"`
	Port            int           `env:"PORT" envDefault:"8080"`
	PublicBaseURL   string        `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// Auth configures session token signing.
type Auth struct {
	JWTSecret string        `env:"JWT_SECRET" envDefault:"dev-secret-change-in-production"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
}

// Game configures the rules and pacing of a session.
type Game struct {
	MaxPlayers           int           `env:"MAX_PLAYERS" envDefault:"10"`
	BrakeCooldown        time.Duration `env:"BRAKE_COOLDOWN" envDefault:"2s"`
	RoundIntroDelay      time.Duration `env:"ROUND_INTRO_DELAY" envDefault:"4s"`
	FollowupTimer        time.Duration `env:"FOLLOWUP_TIMER" envDefault:"15s"`
	ScoreboardAdvance    time.Duration `env:"SCOREBOARD_ADVANCE" envDefault:"8s"`
	FollowupPoints       int           `env:"FOLLOWUP_POINTS" envDefault:"2"`
	ClueTimersEnabled    bool          `env:"CLUE_TIMERS_ENABLED" envDefault:"false"`
	SpeedBonusEnabled    bool          `env:"SPEED_BONUS_ENABLED" envDefault:"false"`
	SessionMaxAge        time.Duration `env:"SESSION_MAX_AGE" envDefault:"2h"`
	SessionCleanupPeriod time.Duration `env:"SESSION_CLEANUP_PERIOD" envDefault:"10m"`
}

// Content configures pack loading and the generation service.
type Content struct {
	PacksDir       string        `env:"CONTENT_PACKS_DIR" envDefault:"/tmp/sparet-content-packs"`
	ServiceURL     string        `env:"AI_CONTENT_SERVICE_URL" envDefault:"http://localhost:3002"`
	RequestTimeout time.Duration `env:"CONTENT_REQUEST_TIMEOUT" envDefault:"10s"`
}

// Logging configures the structured logger.
type Logging struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config from env: %w", err)
	}
	return cfg, nil
}

// Addr returns the listen address.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
