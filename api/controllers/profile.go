package controllers

import (
	"net/http"

	"github.com/angelmondragon/soundmarket/api/middleware"
	"github.com/angelmondragon/soundmarket/api/responses"
	"github.com/angelmondragon/soundmarket/api/validators"
	"github.com/angelmondragon/soundmarket/internal/users"
	"github.com/angelmondragon/soundmarket/pkg/dto"
	"github.com/angelmondragon/soundmarket/pkg/enums"
	"github.com/angelmondragon/soundmarket/pkg/logger"
)

// Profile surfaces differ only by the detail used when the account vanished
// and whether artist fields may change.
var (
	AccountProfile = users.ProfileOptions{NotFound: "User not found"}
	ArtistProfile  = users.ProfileOptions{ArtistFields: true, NotFound: "Artiste non trouvé"}
	ClientProfile  = users.ProfileOptions{NotFound: "Client non trouvé"}
)

// ProfileGet returns the authenticated account.
func ProfileGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, users.FromModel(middleware.UserFromContext(r.Context())))
	}
}

// ProfileUpdate applies a partial JSON update to the authenticated account.
func ProfileUpdate(svc AccountService, opts users.ProfileOptions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body dto.ProfileUpdate
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user := middleware.UserFromContext(r.Context())
		if user.Role == enums.UserRoleArtiste {
			opts.ArtistFields = true
		}
		updated, err := svc.UpdateProfile(r.Context(), user.ID, body, opts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}
