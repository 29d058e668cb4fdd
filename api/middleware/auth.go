package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/soundmarket/api/responses"
	"github.com/angelmondragon/soundmarket/pkg/db/models"
	pkgerrors "github.com/angelmondragon/soundmarket/pkg/errors"
	"github.com/angelmondragon/soundmarket/pkg/logger"
)

const (
	msgNotAuthenticated = "Not authenticated"
	msgInactiveUser     = "Inactive user"
)

// Authenticator resolves the account behind a bearer token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// Auth validates the bearer token and seeds the request context with the
// account. Deactivated accounts are rejected.
func Auth(authn Authenticator, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, msgNotAuthenticated))
				return
			}

			user, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if !user.IsActive {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, msgInactiveUser))
				return
			}

			ctx := WithUser(r.Context(), user, token)
			if logg != nil {
				ctx = logg.WithActor(ctx, user.ID, string(user.Role))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	scheme, token, found := strings.Cut(raw, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
