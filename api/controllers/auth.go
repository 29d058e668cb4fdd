package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/soundmarket/api/middleware"
	"github.com/angelmondragon/soundmarket/api/responses"
	"github.com/angelmondragon/soundmarket/api/validators"
	"github.com/angelmondragon/soundmarket/internal/users"
	"github.com/angelmondragon/soundmarket/pkg/db/models"
	"github.com/angelmondragon/soundmarket/pkg/dto"
	pkgerrors "github.com/angelmondragon/soundmarket/pkg/errors"
	"github.com/angelmondragon/soundmarket/pkg/logger"
)

// AccountService is the account surface the auth endpoints need.
type AccountService interface {
	Register(ctx context.Context, req dto.Registration) (*dto.User, error)
	Login(ctx context.Context, email, password string) (*dto.Token, error)
	Refresh(ctx context.Context, user *models.User) (*dto.Token, error)
	Logout(ctx context.Context, token string) error
	UpdateProfile(ctx context.Context, id int64, update dto.ProfileUpdate, opts users.ProfileOptions) (*dto.User, error)
}

// AuthRegister creates an account from a JSON body.
func AuthRegister(svc AccountService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body dto.Registration
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.Register(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

// AuthLogin exchanges the form-encoded username (the e-mail) and password for
// a bearer token.
func AuthLogin(svc AccountService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := validators.ParseForm(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		username := validators.FormString(r, "username", 0)
		password := r.PostFormValue("password")
		missing := map[string]string{}
		if username == "" {
			missing["username"] = "field required"
		}
		if password == "" {
			missing["password"] = "field required"
		}
		if len(missing) > 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(missing))
			return
		}

		token, err := svc.Login(r.Context(), username, password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, token)
	}
}

// AuthLogout revokes the token the request authenticated with.
func AuthLogout(svc AccountService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Logout(r.Context(), middleware.TokenFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, "Successfully logged out")
	}
}

// AuthRefresh mints a new token for the authenticated account.
func AuthRefresh(svc AccountService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := svc.Refresh(r.Context(), middleware.UserFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, token)
	}
}
