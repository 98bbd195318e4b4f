package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/Digital231/lastDance/internal/auth"
	"github.com/Digital231/lastDance/internal/models"
)

type contextKey string

const userContextKey contextKey = "user"

type Middleware struct {
	authService *auth.Service
}

func NewMiddleware(authService *auth.Service) *Middleware {
	return &Middleware{authService: authService}
}

// RequireAuth resolves the bearer token to a user. A missing token is 401;
// a token that fails verification (bad signature, expired, unknown user)
// is 403.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := bearerToken(r)
		if tokenStr == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		user, err := m.authService.GetUserFromToken(r.Context(), tokenStr)
		if err != nil {
			http.Error(w, "invalid token", http.StatusForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// UserFromContext returns the authenticated user set by RequireAuth.
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userContextKey).(*models.User)
	return user
}
