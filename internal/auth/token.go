package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"sparet/internal/domain"
)

// Verification failures are split in two because the WebSocket handshake
// closes with a different code for each.
var (
	ErrTokenInvalid = errors.New("auth: token is invalid")
	ErrTokenExpired = errors.New("auth: token is expired")
)

// Claims identifies one connection: which session it belongs to, in what
// role, and (for players and hosts) as which participant.
type Claims struct {
	SessionID string      `json:"sessionId"`
	Role      domain.Role `json:"role"`
	PlayerID  string      `json:"playerId,omitempty"`
}

type tokenClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sessionId"`
	Role      string `json:"role"`
	PlayerID  string `json:"playerId,omitempty"`
}

// Authority signs and verifies session tokens with a shared HMAC secret.
type Authority struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthority creates a token authority. A nil now defaults to time.Now.
func NewAuthority(secret string, ttl time.Duration, now func() time.Time) *Authority {
	if now == nil {
		now = time.Now
	}
	return &Authority{secret: []byte(secret), ttl: ttl, now: now}
}

// Sign mints a token for one session identity.
func (a *Authority) Sign(claims Claims) (string, error) {
	issued := a.now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(a.ttl)),
		},
		SessionID: claims.SessionID,
		Role:      claims.Role.String(),
		PlayerID:  claims.PlayerID,
	})
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify parses a token and returns its claims. Expired tokens are
// reported distinctly from every other failure.
func (a *Authority) Verify(raw string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, ErrTokenInvalid
	}

	var parsed tokenClaims
	_, err := jwt.ParseWithClaims(raw, &parsed, func(token *jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}

	role := domain.Role(parsed.Role)
	if parsed.SessionID == "" || !role.Valid() {
		return Claims{}, ErrTokenInvalid
	}
	if role != domain.RoleTV && parsed.PlayerID == "" {
		return Claims{}, ErrTokenInvalid
	}

	return Claims{
		SessionID: parsed.SessionID,
		Role:      role,
		PlayerID:  parsed.PlayerID,
	}, nil
}
