package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/angelmondragon/soundmarket/internal/apiclient"
	"github.com/angelmondragon/soundmarket/internal/form"
	"github.com/angelmondragon/soundmarket/internal/notifications"
	"github.com/angelmondragon/soundmarket/pkg/auth/session"
	"github.com/angelmondragon/soundmarket/pkg/dto"
	"github.com/angelmondragon/soundmarket/pkg/enums"
	pkgerrors "github.com/angelmondragon/soundmarket/pkg/errors"
	"github.com/angelmondragon/soundmarket/pkg/logger"
)

const (
	pathLogin    = "/api/login"
	pathRegister = "/api/register"
	pathLogout   = "/api/logout"
	pathRefresh  = "/api/refresh"
	pathMe       = "/api/me"
)

// Service covers the account flows that precede every dashboard.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*dto.User, error)
	Register(ctx context.Context, req dto.Registration) (*dto.User, error)
	Logout(ctx context.Context) error
	Refresh(ctx context.Context) (*session.Credential, error)
	Me(ctx context.Context) (*dto.User, error)
	Status(ctx context.Context) (*Status, error)
}

// LoginRequest is the login form; the username field carries the e-mail.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Status describes the stored session.
type Status struct {
	Profile    string
	Credential session.Credential
	Expired    bool
}

type apiClient interface {
	Do(ctx context.Context, req apiclient.Request, out any) error
}

type credentialStore interface {
	Save(ctx context.Context, accessToken, tokenType string) (session.Credential, error)
	Credential(ctx context.Context) (session.Credential, error)
	Update(ctx context.Context, cred session.Credential) error
	Clear(ctx context.Context) error
	Expired(ctx context.Context) (bool, error)
	Profile() string
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Client   apiClient
	Session  credentialStore
	Notifier notifications.Notifier
	Logger   *logger.Logger
}

type service struct {
	client   apiClient
	session  credentialStore
	notifier notifications.Notifier
	logg     *logger.Logger
}

// NewService constructs the auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("api client is required")
	}
	if params.Session == nil {
		return nil, fmt.Errorf("session is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		client:   params.Client,
		session:  params.Session,
		notifier: params.Notifier,
		logg:     logg,
	}, nil
}

// Login exchanges credentials for a token, stores it, then loads the account
// so the caller can open the dashboard matching its role.
func (s *service) Login(ctx context.Context, req LoginRequest) (*dto.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := form.Check(req, "Veuillez saisir votre e-mail et votre mot de passe."); err != nil {
		notifications.Error(ctx, s.notifier, "Connexion impossible", pkgerrors.UserMessage(err, ""))
		return nil, err
	}

	var token dto.Token
	err := s.client.Do(ctx, apiclient.Request{
		Method:    http.MethodPost,
		Path:      pathLogin,
		Form:      apiclient.Params{}.Add("username", req.Username).Add("password", req.Password),
		Anonymous: true,
	}, &token)
	if err != nil {
		s.logg.WarnErr(ctx, "auth.login_failed", err)
		notifications.Error(ctx, s.notifier, "Connexion impossible", pkgerrors.UserMessage(err, "Identifiants invalides"))
		return nil, err
	}

	cred, err := s.session.Save(ctx, token.AccessToken, token.TokenType)
	if err != nil {
		return nil, err
	}

	user, err := s.Me(ctx)
	if err != nil {
		return nil, err
	}
	if cred.Role != user.Role || cred.UserID != user.ID {
		cred.Role = user.Role
		cred.UserID = user.ID
		if err := s.session.Update(ctx, cred); err != nil {
			return nil, err
		}
	}

	ctx = s.logg.WithActor(ctx, user.ID, user.Role.String())
	s.logg.Info(ctx, "auth.logged_in")
	notifications.Success(ctx, s.notifier, "Connexion réussie", fmt.Sprintf("Bienvenue %s", user.DisplayName()))
	return user, nil
}

// Register creates an account. Artist-only fields are dropped for other roles.
func (s *service) Register(ctx context.Context, req dto.Registration) (*dto.User, error) {
	if req.Role == "" {
		req.Role = enums.UserRoleClient
	}
	if req.Role != enums.UserRoleArtiste {
		req.ArtistBio = ""
		req.ArtistWebsite = ""
	}
	if !req.Role.IsValid() || req.Role == enums.UserRoleAdmin {
		err := pkgerrors.New(pkgerrors.CodeValidation, "Rôle invalide")
		notifications.Error(ctx, s.notifier, "Inscription impossible", err.Message())
		return nil, err
	}
	if err := form.Check(req, ""); err != nil {
		notifications.Error(ctx, s.notifier, "Inscription impossible", pkgerrors.UserMessage(err, ""))
		return nil, err
	}

	body := req
	body.Role = enums.UserRole(strings.ToLower(req.Role.String()))
	var user dto.User
	err := s.client.Do(ctx, apiclient.Request{
		Method:    http.MethodPost,
		Path:      pathRegister,
		JSON:      body,
		Anonymous: true,
	}, &user)
	if err != nil {
		s.logg.WarnErr(ctx, "auth.register_failed", err)
		notifications.Error(ctx, s.notifier, "Inscription impossible", pkgerrors.UserMessage(err, "Erreur lors de l'inscription"))
		return nil, err
	}
	notifications.Success(ctx, s.notifier, "Inscription réussie", "Vous pouvez maintenant vous connecter.")
	return &user, nil
}

// Logout asks the API to revoke the token, then always clears it locally.
func (s *service) Logout(ctx context.Context) error {
	if _, err := s.session.Credential(ctx); err != nil {
		return s.session.Clear(ctx)
	}
	if err := s.client.Do(ctx, apiclient.Post(pathLogout, nil), nil); err != nil {
		s.logg.WarnErr(ctx, "auth.logout_revoke_failed", err)
	}
	if err := s.session.Clear(ctx); err != nil {
		return err
	}
	notifications.Success(ctx, s.notifier, "Déconnexion", "Vous avez été déconnecté.")
	return nil
}

// Refresh rotates the stored token, keeping the known role.
func (s *service) Refresh(ctx context.Context) (*session.Credential, error) {
	previous, err := s.session.Credential(ctx)
	if err != nil {
		return nil, err
	}
	var token dto.Token
	if err := s.client.Do(ctx, apiclient.Post(pathRefresh, nil), &token); err != nil {
		s.logg.WarnErr(ctx, "auth.refresh_failed", err)
		return nil, err
	}
	cred, err := s.session.Save(ctx, token.AccessToken, token.TokenType)
	if err != nil {
		return nil, err
	}
	if cred.Role == "" && previous.Role != "" {
		cred.Role = previous.Role
		if err := s.session.Update(ctx, cred); err != nil {
			return nil, err
		}
	}
	return &cred, nil
}

// Me loads the logged-in account.
func (s *service) Me(ctx context.Context) (*dto.User, error) {
	var user dto.User
	if err := s.client.Do(ctx, apiclient.Get(pathMe, nil), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Status reports the stored credential without calling the API.
func (s *service) Status(ctx context.Context) (*Status, error) {
	cred, err := s.session.Credential(ctx)
	if err != nil {
		return nil, err
	}
	expired, err := s.session.Expired(ctx)
	if err != nil {
		return nil, err
	}
	return &Status{Profile: s.session.Profile(), Credential: cred, Expired: expired}, nil
}
