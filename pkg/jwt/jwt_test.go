package jwt

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateAccessToken(t *testing.T) {
	m := NewManager("test-secret")

	token, err := m.GenerateAccessToken("user-123", "member@example.com", "admin", true)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)

	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "member@example.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
	assert.True(t, claims.Bypass)
	assert.Equal(t, "access", claims.Type)
	assert.True(t, claims.ExpiresAt.After(time.Now()))
}

func TestValidateAccessTokenRejectsWrongSecret(t *testing.T) {
	token, err := NewManager("secret-a").GenerateAccessToken("user-123", "member@example.com", "member", false)
	require.NoError(t, err)

	_, err = NewManager("secret-b").ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestValidateAccessTokenRejectsWrongType(t *testing.T) {
	m := NewManager("test-secret")

	claims := Claims{
		UserID: "user-123",
		Type:   "refresh",
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwtlib.NewNumericDate(time.Now()),
		},
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(token)
	assert.ErrorContains(t, err, "invalid token type")
}
