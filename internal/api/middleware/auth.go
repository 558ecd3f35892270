package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/quix-it/entity-api/internal/api"
	"github.com/quix-it/entity-api/internal/api/shared"
	"github.com/quix-it/entity-api/internal/service/auth"
)

// AuthMiddleware provides bearer-token authentication for routes.
type AuthMiddleware struct {
	tokenService auth.TokenService
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(tokenService auth.TokenService) *AuthMiddleware {
	return &AuthMiddleware{
		tokenService: tokenService,
	}
}

// Authenticate validates bearer tokens from the Authorization header and
// adds the resolved identity to the request context. Requests without a
// valid credential are rejected with 401 before any handler logic runs.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized,
				api.CodeUnauthorized, "Authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			shared.RespondWithError(w, r, http.StatusUnauthorized,
				api.CodeUnauthorized, "Invalid authorization format")
			return
		}

		token := parts[1]

		claims, err := m.tokenService.ValidateToken(r.Context(), token)
		if err != nil {
			switch err {
			case auth.ErrExpiredToken:
				shared.RespondWithError(w, r, http.StatusUnauthorized,
					api.CodeUnauthorized, "Token expired")
			case auth.ErrInvalidToken, auth.ErrTokenNotYetValid:
				shared.RespondWithError(w, r, http.StatusUnauthorized,
					api.CodeUnauthorized, "Invalid token")
			default:
				slog.Error("failed to validate token", "error", err.Error())
				shared.RespondWithError(w, r, http.StatusInternalServerError,
					api.CodeInternalServerError, "Authentication error")
			}
			return
		}

		ctx := shared.WithIdentity(r.Context(), claims.Identity())

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
