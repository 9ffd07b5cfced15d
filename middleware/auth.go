package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

const (
	// AdminSessionCookie - имя cookie с JWT административной сессии.
	AdminSessionCookie = "admin_session"

	adminSessionTTL = 12 * time.Hour
	jwtClaimRole    = "role"
	roleAdmin       = "admin"
)

// AdminAuth выдаёт и проверяет административные сессии. Вход - разовый
// ключ, сверяемый с bcrypt-хешем из конфигурации; дальше работает JWT в
// cookie.
type AdminAuth struct {
	secret       []byte
	adminKeyHash []byte
}

func NewAdminAuth(secret, adminKeyHash string) *AdminAuth {
	return &AdminAuth{
		secret:       []byte(secret),
		adminKeyHash: []byte(adminKeyHash),
	}
}

// VerifyAdminKey сверяет введённый ключ с хешем из конфигурации.
func (a *AdminAuth) VerifyAdminKey(key string) bool {
	return bcrypt.CompareHashAndPassword(a.adminKeyHash, []byte(key)) == nil
}

// IssueSession подписывает JWT административной сессии.
func (a *AdminAuth) IssueSession() (string, error) {
	claims := jwt.MapClaims{
		jwtClaimRole: roleAdmin,
		"exp":        time.Now().Add(adminSessionTTL).Unix(),
		"iat":        time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign admin session token: %w", err)
	}
	return signed, nil
}

// SetSessionCookie кладёт подписанную сессию в cookie ответа.
func (a *AdminAuth) SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     AdminSessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(adminSessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie завершает административную сессию.
func (a *AdminAuth) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     AdminSessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// RequireAdmin пропускает запрос только с валидной admin-сессией.
func (a *AdminAuth) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(AdminSessionCookie)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		token, err := jwt.Parse(cookie.Value, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return a.secret, nil
		})
		if err != nil || !token.Valid {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || claims[jwtClaimRole] != roleAdmin {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
