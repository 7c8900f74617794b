package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse_Success(t *testing.T) {
	secret := []byte("super-secret")

	tok, err := GenerateToken("anna", secret, time.Hour)
	require.NoError(t, err)

	got, err := OperatorFromToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, "anna", got)
}

func TestParse_Rejections(t *testing.T) {
	secret := []byte("super-secret")

	expired, err := GenerateToken("anna", secret, -time.Minute)
	require.NoError(t, err)
	noSubject, err := GenerateToken("", secret, time.Hour)
	require.NoError(t, err)
	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "anna"}).SignedString(secret)
	require.NoError(t, err)
	otherKey, err := GenerateToken("anna", []byte("other"), time.Hour)
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"expired":    expired,
		"no subject": noSubject,
		"no expiry":  noExpiry,
		"other key":  otherKey,
		"garbage":    "not-a-token",
	} {
		_, err := OperatorFromToken(tok, secret)
		assert.ErrorIs(t, err, ErrInvalidToken, name)
	}
}
