package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sparet/internal/domain"
)

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestSignVerifyRoundtrip(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	authority := NewAuthority("test-secret", time.Hour, fixedNow(now))

	token, err := authority.Sign(Claims{SessionID: "s1", Role: domain.RolePlayer, PlayerID: "p1"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := authority.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "s1", claims.SessionID)
	assert.Equal(t, domain.RolePlayer, claims.Role)
	assert.Equal(t, "p1", claims.PlayerID)
}

func TestVerifyExpired(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	signer := NewAuthority("test-secret", time.Hour, fixedNow(issued))
	token, err := signer.Sign(Claims{SessionID: "s1", Role: domain.RoleHost, PlayerID: "h1"})
	require.NoError(t, err)

	verifier := NewAuthority("test-secret", time.Hour, fixedNow(issued.Add(2*time.Hour)))
	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	authority := NewAuthority("test-secret", time.Hour, nil)

	for _, raw := range []string{"", "   ", "not-a-token", "a.b.c"} {
		_, err := authority.Verify(raw)
		assert.ErrorIs(t, err, ErrTokenInvalid, "input %q", raw)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	signer := NewAuthority("secret-a", time.Hour, nil)
	token, err := signer.Sign(Claims{SessionID: "s1", Role: domain.RoleHost, PlayerID: "h1"})
	require.NoError(t, err)

	verifier := NewAuthority("secret-b", time.Hour, nil)
	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyPlayerIDRequirement(t *testing.T) {
	authority := NewAuthority("test-secret", time.Hour, nil)

	// TV tokens carry no player id; that is the one role allowed to.
	tvToken, err := authority.Sign(Claims{SessionID: "s1", Role: domain.RoleTV})
	require.NoError(t, err)
	claims, err := authority.Verify(tvToken)
	require.NoError(t, err)
	assert.Empty(t, claims.PlayerID)

	playerToken, err := authority.Sign(Claims{SessionID: "s1", Role: domain.RolePlayer})
	require.NoError(t, err)
	_, err = authority.Verify(playerToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRejectsUnknownRole(t *testing.T) {
	authority := NewAuthority("test-secret", time.Hour, nil)
	token, err := authority.Sign(Claims{SessionID: "s1", Role: domain.Role("ADMIN"), PlayerID: "p1"})
	require.NoError(t, err)

	_, err = authority.Verify(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
