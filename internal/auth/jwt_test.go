package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whiteboard-backend/internal/auth"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := auth.NewJWTManager("test-secret", 7*24*time.Hour)

	token, err := m.Generate(42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "whiteboard-api", claims.Issuer)

	// 만료는 7일 후
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestJWTManager_ExpiredToken(t *testing.T) {
	m := auth.NewJWTManager("test-secret", -time.Hour)

	token, err := m.Generate(1)
	require.NoError(t, err)

	_, err = m.Validate(token)
	assert.ErrorIs(t, err, auth.ErrExpiredToken)
}

func TestJWTManager_WrongSecret(t *testing.T) {
	m := auth.NewJWTManager("secret-a", time.Hour)
	other := auth.NewJWTManager("secret-b", time.Hour)

	token, err := m.Generate(1)
	require.NoError(t, err)

	_, err = other.Validate(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestJWTManager_GarbageToken(t *testing.T) {
	m := auth.NewJWTManager("test-secret", time.Hour)

	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		_, err := m.Validate(tok)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	}
}
