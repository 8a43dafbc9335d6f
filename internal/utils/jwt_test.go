package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	const secret = "test-secret"
	at, err := NewAccessToken(secret, 42, "CUSTOMER", 15)
	require.NoError(t, err)
	require.NotEmpty(t, at.Token)
	require.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), at.Exp, 5*time.Second)

	tok, err := jwt.Parse(at.Token, func(tok *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	require.True(t, tok.Valid)

	claims, ok := tok.Claims.(jwt.MapClaims)
	require.True(t, ok)
	require.Equal(t, float64(42), claims["sub"])
	require.Equal(t, "CUSTOMER", claims["role"])

	// A tampered secret must not validate.
	_, err = jwt.Parse(at.Token, func(tok *jwt.Token) (interface{}, error) {
		return []byte("other"), nil
	})
	require.Error(t, err)
}

func TestRefreshAndResetTokens(t *testing.T) {
	r1, err := NewRefreshToken(7)
	require.NoError(t, err)
	r2, err := NewRefreshToken(7)
	require.NoError(t, err)
	require.NotEqual(t, r1.Raw, r2.Raw)
	require.Len(t, r1.Raw, 96)

	rs, err := NewResetToken()
	require.NoError(t, err)
	require.Len(t, rs.Raw, 40)
	require.WithinDuration(t, time.Now().UTC().Add(10*time.Minute), rs.Exp, 5*time.Second)

	// Hashing is deterministic and never echoes the raw value.
	require.Equal(t, HashTokenRaw(r1.Raw), HashTokenRaw(r1.Raw))
	require.NotEqual(t, HashTokenRaw(r1.Raw), HashTokenRaw(r2.Raw))
	require.Len(t, HashTokenRaw(r1.Raw), 64)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22", 4)
	require.NoError(t, err)
	require.True(t, VerifyPassword(hash, "hunter22"))
	require.False(t, VerifyPassword(hash, "hunter23"))
}
