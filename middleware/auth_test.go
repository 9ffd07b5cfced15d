package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuth(t *testing.T) *AdminAuth {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("letmein"), bcrypt.MinCost)
	require.NoError(t, err)
	return NewAdminAuth("test-secret", string(hash))
}

func TestVerifyAdminKey(t *testing.T) {
	auth := newTestAuth(t)
	require.True(t, auth.VerifyAdminKey("letmein"))
	require.False(t, auth.VerifyAdminKey("wrong"))
	require.False(t, auth.VerifyAdminKey(""))
}

func TestRequireAdmin(t *testing.T) {
	auth := newTestAuth(t)
	handler := auth.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("valid session", func(t *testing.T) {
		token, err := auth.IssueSession()
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/admin/groups", nil)
		req.AddCookie(&http.Cookie{Name: AdminSessionCookie, Value: token})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("missing cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/groups", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/groups", nil)
		req.AddCookie(&http.Cookie{Name: AdminSessionCookie, Value: "not-a-jwt"})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewAdminAuth("other-secret", "")
		token, err := other.IssueSession()
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/admin/groups", nil)
		req.AddCookie(&http.Cookie{Name: AdminSessionCookie, Value: token})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong role", func(t *testing.T) {
		claims := jwt.MapClaims{
			"role": "viewer",
			"exp":  time.Now().Add(time.Hour).Unix(),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/admin/groups", nil)
		req.AddCookie(&http.Cookie{Name: AdminSessionCookie, Value: token})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestSessionCookieLifecycle(t *testing.T) {
	auth := newTestAuth(t)
	rec := httptest.NewRecorder()
	auth.SetSessionCookie(rec, "token-value")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, AdminSessionCookie, cookies[0].Name)
	require.Equal(t, "token-value", cookies[0].Value)
	require.True(t, cookies[0].HttpOnly)

	rec = httptest.NewRecorder()
	auth.ClearSessionCookie(rec)
	cookies = rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, -1, cookies[0].MaxAge)
}
