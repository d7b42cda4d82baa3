package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	t.Parallel()

	m := NewManager("test-secret", 30*time.Minute, 7*24*time.Hour)
	userID := uuid.New()

	token, err := m.GenerateAccessToken(userID, "kiosk", "user")
	require.NoError(t, err)

	claims, err := m.ValidateTyped(token, AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "kiosk", claims.Username)
	assert.Equal(t, "user", claims.Role)

	got, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestRefreshTokenIsNotAnAccessToken(t *testing.T) {
	t.Parallel()

	m := NewManager("test-secret", time.Minute, time.Hour)
	token, err := m.GenerateRefreshToken(uuid.New())
	require.NoError(t, err)

	_, err = m.ValidateTyped(token, AccessToken)
	assert.ErrorIs(t, err, ErrWrongType)

	claims, err := m.ValidateTyped(token, RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, RefreshToken, claims.Type)
}

func TestValidateTokenRejects(t *testing.T) {
	t.Parallel()

	m := NewManager("test-secret", time.Minute, time.Hour)
	other := NewManager("another-secret", time.Minute, time.Hour)

	foreign, err := other.GenerateAccessToken(uuid.New(), "x", "user")
	require.NoError(t, err)
	_, err = m.ValidateToken(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.ValidateToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.ValidateToken("")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestValidateTokenExpired(t *testing.T) {
	t.Parallel()

	m := NewManager("test-secret", time.Minute, time.Hour)
	issued := time.Now().Add(-2 * time.Hour)
	m.now = func() time.Time { return issued }
	token, err := m.GenerateAccessToken(uuid.New(), "x", "user")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
