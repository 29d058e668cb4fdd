package middleware

import (
	"net/http"

	"github.com/angelmondragon/soundmarket/api/responses"
	"github.com/angelmondragon/soundmarket/pkg/enums"
	pkgerrors "github.com/angelmondragon/soundmarket/pkg/errors"
	"github.com/angelmondragon/soundmarket/pkg/logger"
)

// Details returned when the account's role does not match the surface.
const (
	MsgAdminOnly   = "Not enough permissions"
	MsgArtistOnly  = "Only artists can access this resource"
	MsgClientsOnly = "Only clients can access this resource"
)

// RequireRole admits the request only when the authenticated account holds
// one of roles. Must run after Auth.
func RequireRole(detail string, logg *logger.Logger, roles ...enums.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			for _, allowed := range roles {
				if role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, detail))
		})
	}
}
