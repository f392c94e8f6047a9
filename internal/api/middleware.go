package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"vidstream/internal/auth"
	"vidstream/internal/db"
	"vidstream/internal/models"
)

type contextKey string

const userKey contextKey = "user"

// AuthMiddleware is the per-request auth guard: extract credential,
// verify it, resolve the user, or reject with 401. The chain is linear;
// there is no partial success.
type AuthMiddleware struct {
	tokens *auth.TokenService
	users  *db.UserRepository
}

func NewAuthMiddleware(tokens *auth.TokenService, users *db.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
}

func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractAccessToken(r)
		if token == "" {
			unauthorized(w, "You are not authorized to access this resource")
			return
		}

		claims, err := m.tokens.VerifyAccessToken(token)
		if err != nil {
			unauthorized(w, "Invalid or expired token")
			return
		}

		user, err := m.users.FindByID(claims.UserID)
		if errors.Is(err, db.ErrNotFound) {
			unauthorized(w, "You are not authorized to access this resource")
			return
		}
		if err != nil {
			internalError(w)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user.Stripped())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth attaches the user when a valid access token is present
// and lets the request through anonymously otherwise. Handlers behind
// it must tolerate a nil RequestUser.
func (m *AuthMiddleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractAccessToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.tokens.VerifyAccessToken(token)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.users.FindByID(claims.UserID)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user.Stripped())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractAccessToken prefers the accessToken cookie and falls back to
// the Authorization header.
func extractAccessToken(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

// RequestUser returns the authenticated user attached by RequireAuth,
// or nil outside a guarded route.
func RequestUser(r *http.Request) *models.User {
	if v := r.Context().Value(userKey); v != nil {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}
