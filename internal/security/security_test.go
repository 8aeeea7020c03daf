package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken(secret, "user-1", time.Minute)
	require.NoError(t, err)

	claims, err := ParseAccessToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.User())
}

func TestParseAccessTokenRejects(t *testing.T) {
	expired, err := GenerateAccessToken(secret, "user-1", -time.Minute)
	require.NoError(t, err)

	wrongKey, err := GenerateAccessToken("other", "user-1", time.Minute)
	require.NoError(t, err)

	anonymous, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":   expired,
		"wrong key": wrongKey,
		"no user":   anonymous,
		"garbage":   "not.a.jwt",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseAccessToken(token, secret)
			assert.Error(t, err)
		})
	}
}

func TestSubjectFallback(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-from-sub",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	claims, err := ParseAccessToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "user-from-sub", claims.User())
}

func TestVerifyPayload(t *testing.T) {
	body := []byte(`{"id":"evt_1"}`)
	sig := SignPayload(secret, body)

	assert.True(t, VerifyPayload(secret, body, sig))
	assert.True(t, VerifyPayload(secret, body, "sha256="+sig))
	assert.False(t, VerifyPayload(secret, []byte(`{"id":"evt_2"}`), sig))
	assert.False(t, VerifyPayload("other", body, sig))
	assert.False(t, VerifyPayload("", body, SignPayload("", body)))
	assert.False(t, VerifyPayload(secret, body, ""))
}
