package auth

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("awansmith123")
	require.NoError(t, err)
	assert.NotEqual(t, "awansmith123", hash)
	assert.True(t, strings.HasPrefix(hash, "$2a$10$"))

	assert.True(t, VerifyPassword("awansmith123", hash))
	assert.False(t, VerifyPassword("awansmith124", hash))
	assert.False(t, VerifyPassword("", hash))
}

func TestHashPassword_RejectsOverlongInput(t *testing.T) {
	_, err := HashPassword(strings.Repeat("a", MaxPasswordBytes+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	_, err = HashPassword(strings.Repeat("a", MaxPasswordBytes))
	assert.NoError(t, err)
}

func TestVerifyPassword_FailsClosedOnMalformedHash(t *testing.T) {
	for _, stored := range []string{"", "awansmith123", "$2a$10$short", "$2a$99$" + strings.Repeat("x", 53)} {
		assert.False(t, VerifyPassword("awansmith123", stored), stored)
	}
}

func TestJWTService_IssueThenValidate(t *testing.T) {
	svc := NewJWTService("test-secret")

	token, expiresAt, err := svc.Issue(7, "awan")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "awan", claims.Username)
	assert.NotEmpty(t, claims.ID)
}

func TestJWTService_RejectsExpiredToken(t *testing.T) {
	svc := NewJWTService("test-secret")
	svc.now = func() time.Time { return time.Now().Add(-25 * time.Hour) }
	token, _, err := svc.Issue(7, "awan")
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Validate(token)
	assert.Equal(t, ErrUnauthenticated, err)
}

func TestJWTService_FailuresAreUniform(t *testing.T) {
	svc := NewJWTService("test-secret")
	other := NewJWTService("other-secret")
	foreign, _, err := other.Issue(7, "awan")
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		UserID:   7,
		Username: "awan",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{UserID: 7, Username: "awan"}).
		SignedString([]byte("test-secret"))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":          "",
		"garbage":        "not.a.token",
		"wrong secret":   foreign,
		"alg none":       noneToken,
		"missing expiry": noExpiry,
	} {
		t.Run(name, func(t *testing.T) {
			claims, err := svc.Validate(token)
			assert.Nil(t, claims)
			assert.Equal(t, ErrUnauthenticated, err)
		})
	}
}

func TestSessionCookie(t *testing.T) {
	expires := time.Now().Add(SessionTTL)
	c := NewSessionCookie("tok", expires, true)

	assert.Equal(t, SessionCookieName, c.Name)
	assert.Equal(t, "tok", c.Value)
	assert.Equal(t, 86400, c.MaxAge)
	assert.Equal(t, "/", c.Path)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)

	cleared := ClearSessionCookie(false)
	assert.Equal(t, SessionCookieName, cleared.Name)
	assert.Empty(t, cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)
	assert.False(t, cleared.Secure)
}
