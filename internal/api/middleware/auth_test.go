package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eventradar/server/internal/auth"
	"github.com/stretchr/testify/require"
)

func protectedEcho(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFromContext(r.Context())
		require.True(t, ok)
		w.Header().Set("X-Principal", principal.UserID)
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuthMissingHeader(t *testing.T) {
	tokens := auth.NewJWTManager("test-secret", time.Hour, "eventradar")
	handler := RequireAuth(tokens, "test")(protectedEcho(t))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", nil)
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Body.String(), "Access denied")
}

func TestRequireAuthInvalidToken(t *testing.T) {
	tokens := auth.NewJWTManager("test-secret", time.Hour, "eventradar")
	handler := RequireAuth(tokens, "test")(protectedEcho(t))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Invalid token")
}

func TestRequireAuthExpiredToken(t *testing.T) {
	expired := auth.NewJWTManager("test-secret", -time.Minute, "eventradar")
	token, err := expired.Generate("user-1", "a@example.com")
	require.NoError(t, err)

	tokens := auth.NewJWTManager("test-secret", time.Hour, "eventradar")
	handler := RequireAuth(tokens, "test")(protectedEcho(t))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequireAuthValidToken(t *testing.T) {
	tokens := auth.NewJWTManager("test-secret", time.Hour, "eventradar")
	token, err := tokens.Generate("user-42", "b@example.com")
	require.NoError(t, err)

	handler := RequireAuth(tokens, "test")(protectedEcho(t))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "user-42", rec.Header().Get("X-Principal"))
}

func TestRequireAuthWrongSecret(t *testing.T) {
	other := auth.NewJWTManager("other-secret", time.Hour, "eventradar")
	token, err := other.Generate("user-1", "a@example.com")
	require.NoError(t, err)

	tokens := auth.NewJWTManager("test-secret", time.Hour, "eventradar")
	handler := RequireAuth(tokens, "test")(protectedEcho(t))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
