package middleware

import (
	"context"
	"net/http"

	"storefront-be/internal/auth"
	"storefront-be/internal/logger"
	"storefront-be/internal/transport"
	"storefront-be/internal/user"
	"storefront-be/internal/utils"

	"go.uber.org/zap"
)

type TokenParser interface {
	Parse(token string) (*user.CustomClaims, error)
}

type UserReader interface {
	GetByID(ctx context.Context, id uint) (*user.User, error)
}

type Auth struct {
	tokens TokenParser
	users  UserReader
}

func NewAuth(tokens TokenParser, users UserReader) *Auth {
	return &Auth{tokens: tokens, users: users}
}

// Authenticate attaches the caller to the request context when a valid token
// is present. Anything else passes through anonymous and RequireAuth decides.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.ExtractAccessToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := a.tokens.Parse(token)
		if err != nil {
			logger.FromCtx(r.Context()).Debug("ignoring invalid token", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		ctx := utils.SetUserContext(r.Context(), claims.UserID, claims.Email, claims.Role)
		ctx = logger.WithUserID(ctx, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := utils.GetUserIDFromContext(r.Context()); !ok {
			transport.Error(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin checks the role stored in the database, not the token claim,
// so a demoted admin loses access before the token expires.
func (a *Auth) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := utils.GetUserIDFromContext(r.Context())
		if !ok {
			transport.Error(w, http.StatusUnauthorized, "authentication required")
			return
		}

		u, err := a.users.GetByID(r.Context(), userID)
		if err != nil || !u.IsAdmin() {
			transport.Error(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
