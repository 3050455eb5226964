package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "storefront-test-secret"

func signToken(t *testing.T, secret string, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func jwtChain(c *captured) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return Identity()(VerifyJWT(testSecret, logger)(captureIdentity(c)))
}

func TestVerifyJWT_UserIDClaimWins(t *testing.T) {
	tok := signToken(t, testSecret, jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "u-1",
		"sub":     "u-ignored",
		"exp":     jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	var c captured
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("X-User-ID", "spoofed")
	rec := httptest.NewRecorder()
	jwtChain(&c).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-1", c.userID)
	assert.Equal(t, tok, c.token)
}

func TestVerifyJWT_FallsBackToSubject(t *testing.T) {
	tok := signToken(t, testSecret, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u-2"})

	var c captured
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	jwtChain(&c).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-2", c.userID)
}

func TestVerifyJWT_AnonymousPassesThrough(t *testing.T) {
	var c captured
	rec := httptest.NewRecorder()
	jwtChain(&c).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, c.called)
	assert.Empty(t, c.userID)
}

func TestVerifyJWT_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"wrong secret", signToken(t, "other-secret", jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u"})},
		{"expired", signToken(t, testSecret, jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "u",
			"exp": jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		})},
		{"no user", signToken(t, testSecret, jwt.SigningMethodHS256, jwt.MapClaims{"role": "admin"})},
		{"garbage", "not.a.jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c captured
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			rec := httptest.NewRecorder()
			jwtChain(&c).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.False(t, c.called)
			assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
		})
	}
}
