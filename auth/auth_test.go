package auth

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

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	return token
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseUnverified(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signToken(t, jwt.MapClaims{
		"id":    "665f1c2a9b1e8a0012345678",
		"email": "ana@example.com",
		"rol":   "administrador",
		"exp":   exp.Unix(),
	})

	claims, err := ParseUnverified(token)
	require.NoError(t, err)

	assert.Equal(t, "665f1c2a9b1e8a0012345678", claims.Subject)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.True(t, claims.ExpiresAt.Equal(exp))
	assert.False(t, claims.Expired(time.Now()))
	assert.True(t, claims.Expired(exp))
}

func TestParseUnverified_SubjectFallbacks(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"sub": "user-7", "role": "docente"})

	claims, err := ParseUnverified(token)
	require.NoError(t, err)
	assert.Equal(t, "user-7", claims.Subject)
	assert.Equal(t, RoleTeacher, claims.Role)
	assert.False(t, claims.Expired(time.Now()), "tokens without exp never count as expired")
}

func TestParseUnverified_Errors(t *testing.T) {
	_, err := ParseUnverified("  ")
	assert.ErrorIs(t, err, ErrNoToken)

	_, err = ParseUnverified("not-a-jwt")
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer   abc "))
	assert.Empty(t, BearerToken("Basic dXNlcjpwYXNz"))
	assert.Empty(t, BearerToken("Bearer"))
	assert.Empty(t, BearerToken(""))
}

func TestNormalizeRole(t *testing.T) {
	assert.Equal(t, RoleAdmin, NormalizeRole("administrador"))
	assert.Equal(t, RoleStudent, NormalizeRole("estudiante"))
	assert.Equal(t, Role("invitado"), NormalizeRole("invitado"))

	assert.Equal(t, "administrador", RoleAdmin.BackendRole())
	assert.Equal(t, "docente", RoleTeacher.BackendRole())

	assert.Equal(t, "/dashboard/admin", RoleAdmin.DashboardPath())
	assert.Equal(t, "/dashboard/estudiante", RoleStudent.DashboardPath())
	assert.Equal(t, "/", Role("").DashboardPath())
}

func TestClaimsMiddleware(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"id": "u1", "rol": "estudiante"})

	var got *Claims
	var found bool
	handler := ClaimsMiddleware(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, found = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("authorization header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		require.True(t, found)
		assert.Equal(t, "u1", got.Subject)
		assert.Equal(t, RoleStudent, got.Role)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
		req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: token})

		handler.ServeHTTP(httptest.NewRecorder(), req)

		require.True(t, found)
		assert.Equal(t, "u1", got.Subject)
	})

	t.Run("garbage token passes through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.False(t, found)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("no token", func(t *testing.T) {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/cursos/activos", nil))
		assert.False(t, found)
	})
}
