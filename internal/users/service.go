package users

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/soundmarket/pkg/auth"
	"github.com/angelmondragon/soundmarket/pkg/config"
	"github.com/angelmondragon/soundmarket/pkg/db"
	"github.com/angelmondragon/soundmarket/pkg/db/models"
	"github.com/angelmondragon/soundmarket/pkg/dto"
	"github.com/angelmondragon/soundmarket/pkg/enums"
	pkgerrors "github.com/angelmondragon/soundmarket/pkg/errors"
	"github.com/angelmondragon/soundmarket/pkg/logger"
	"github.com/angelmondragon/soundmarket/pkg/security"
)

const (
	msgBadCredentials  = "Incorrect email or password"
	msgInactive        = "Inactive user"
	msgInvalidToken    = "Invalid token"
	msgRevokedToken    = "Token has been revoked"
	msgUnknownUser     = "User not found"
	msgEmailTaken      = "Email already exists"
	msgUsernameTaken   = "Username already exists"
	msgUserNotFound    = "Utilisateur non trouvé"
	msgSelfDeactivate  = "Vous ne pouvez pas désactiver votre propre compte"
	msgSelfDelete      = "Vous ne pouvez pas supprimer votre propre compte"
	tokenTypeBearer    = "bearer"
	defaultUserBacklog = 100
)

type repository interface {
	Create(ctx context.Context, dto CreateUserDTO) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context, filter ListFilter) ([]models.User, error)
	Save(ctx context.Context, user *models.User, at time.Time) error
	SetActive(ctx context.Context, id int64, active bool, at time.Time) error
	Delete(ctx context.Context, id int64) error
	RevokeToken(ctx context.Context, token string, at time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// ServiceParams bundles the dependencies of the account service.
type ServiceParams struct {
	Repo     repository
	JWT      config.JWTConfig
	Password config.PasswordConfig
	Logger   *logger.Logger
	Now      func() time.Time
}

// Service implements registration, token issuance and account administration.
type Service struct {
	repo     repository
	jwt      config.JWTConfig
	hasher   security.Hasher
	logg     *logger.Logger
	now      func() time.Time
}

// NewService validates params and builds the service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt secret required")
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &Service{
		repo:     params.Repo,
		jwt:      params.JWT,
		hasher:   security.NewHasher(params.Password),
		logg:     params.Logger,
		now:      func() time.Time { return params.Now().UTC() },
	}, nil
}

// Register creates an account. The registration "name" becomes the username.
func (s *Service) Register(ctx context.Context, req dto.Registration) (*dto.User, error) {
	if !req.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Rôle invalide")
	}
	if err := s.ensureAvailable(ctx, 0, req.Email, req.Name); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
	}

	user, err := s.repo.Create(ctx, CreateUserDTO{
		Email:          req.Email,
		Username:       req.Name,
		HashedPassword: hash,
		FullName:       req.FullName,
		Role:           req.Role,
		ArtistBio:      req.ArtistBio,
		ArtistWebsite:  req.ArtistWebsite,
	})
	if err != nil {
		return nil, s.conflictOrInternal(err, "creating user")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"user_id": user.ID, "role": user.Role}), "user registered")
	return FromModel(user), nil
}

// Login checks the e-mail/password pair and mints an access token.
func (s *Service) Login(ctx context.Context, email, password string) (*dto.Token, error) {
	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, msgBadCredentials)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading user")
	}

	ok, err := security.VerifyPassword(password, user.HashedPassword)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, msgBadCredentials)
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgInactive)
	}
	if s.hasher.NeedsRehash(user.HashedPassword) {
		s.rehash(ctx, user, password)
	}

	return s.issue(user)
}

// rehash upgrades a hash made with older cost settings. Failures only log.
func (s *Service) rehash(ctx context.Context, user *models.User, password string) {
	ctx = s.logg.WithField(ctx, "user_id", user.ID)
	hash, err := s.hasher.Hash(password)
	if err == nil {
		user.HashedPassword = hash
		err = s.repo.Save(ctx, user, s.now())
	}
	if err != nil {
		s.logg.WarnErr(ctx, "password rehash failed", err)
		return
	}
	s.logg.Debug(ctx, "password rehashed")
}

// Refresh mints a fresh token for an authenticated user.
func (s *Service) Refresh(ctx context.Context, user *models.User) (*dto.Token, error) {
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, msgInvalidToken)
	}
	return s.issue(user)
}

// Logout revokes token server-side. Only a well-formed, correctly signed
// token can be revoked.
func (s *Service) Logout(ctx context.Context, token string) error {
	if _, err := auth.ParseAccessToken(s.jwt, token); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, msgInvalidToken)
	}
	if err := s.repo.RevokeToken(ctx, token, s.now()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoking token")
	}
	return nil
}

// Authenticate resolves the account behind a bearer token. Inactive accounts
// are returned; callers decide whether to admit them.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	revoked, err := s.repo.IsRevoked(ctx, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking revocation")
	}
	if revoked {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, msgRevokedToken)
	}

	claims, err := auth.ParseAccessToken(s.jwt, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, msgInvalidToken)
	}

	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, msgUnknownUser)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading user")
	}
	return user, nil
}

// ProfileOptions tunes UpdateProfile per surface.
type ProfileOptions struct {
	// ArtistFields allows artist_bio and artist_website to change.
	ArtistFields bool
	// NotFound is the detail returned when the account vanished.
	NotFound string
}

// UpdateProfile applies the provided fields to the account. A new password
// is hashed before it is stored.
func (s *Service) UpdateProfile(ctx context.Context, id int64, update dto.ProfileUpdate, opts ProfileOptions) (*dto.User, error) {
	user, err := s.load(ctx, id, opts.NotFound)
	if err != nil {
		return nil, err
	}

	var email, username string
	if update.Email != nil && *update.Email != user.Email {
		email = *update.Email
	}
	if update.Username != nil && *update.Username != user.Username {
		username = *update.Username
	}
	if err := s.ensureAvailable(ctx, user.ID, email, username); err != nil {
		return nil, err
	}

	if email != "" {
		user.Email = strings.TrimSpace(email)
	}
	if username != "" {
		user.Username = strings.TrimSpace(username)
	}
	if update.FullName != nil {
		user.FullName = optional(*update.FullName)
	}
	if opts.ArtistFields {
		if update.ArtistBio != nil {
			user.ArtistBio = optional(*update.ArtistBio)
		}
		if update.ArtistWebsite != nil {
			user.ArtistWebsite = optional(*update.ArtistWebsite)
		}
	}
	if update.Password != nil && *update.Password != "" {
		hash, err := s.hasher.Hash(*update.Password)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
		}
		user.HashedPassword = hash
	}

	if err := s.repo.Save(ctx, user, s.now()); err != nil {
		return nil, s.conflictOrInternal(err, "saving profile")
	}
	return FromModel(user), nil
}

// List returns the users matching filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]dto.User, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultUserBacklog
	}
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing users")
	}
	out := make([]dto.User, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

// Get returns one user.
func (s *Service) Get(ctx context.Context, id int64) (*dto.User, error) {
	user, err := s.load(ctx, id, msgUserNotFound)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

// SetActive activates or deactivates id. An admin cannot lock themselves out.
func (s *Service) SetActive(ctx context.Context, actorID, id int64, active bool) (*dto.User, error) {
	if !active && actorID == id {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgSelfDeactivate)
	}
	if _, err := s.load(ctx, id, msgUserNotFound); err != nil {
		return nil, err
	}
	if err := s.repo.SetActive(ctx, id, active, s.now()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating user state")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"target_user_id": id, "active": active}), "user state changed")
	return s.Get(ctx, id)
}

// Delete removes id and everything attached to it.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	if actorID == id {
		return pkgerrors.New(pkgerrors.CodeValidation, msgSelfDelete)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, msgUserNotFound)
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting user")
	}
	s.logg.Info(s.logg.WithField(ctx, "target_user_id", id), "user deleted")
	return nil
}

// EnsureSeed creates the account unless the e-mail is already registered.
func (s *Service) EnsureSeed(ctx context.Context, req dto.Registration) (*dto.User, error) {
	existing, err := s.repo.FindByEmail(ctx, req.Email)
	if err == nil {
		return FromModel(existing), nil
	}
	if !db.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading seed user")
	}
	return s.Register(ctx, req)
}

func (s *Service) issue(user *models.User) (*dto.Token, error) {
	token, err := auth.MintAccessToken(s.jwt, s.now(), auth.AccessTokenPayload{UserID: user.ID, Role: user.Role})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting token")
	}
	return &dto.Token{AccessToken: token, TokenType: tokenTypeBearer}, nil
}

func (s *Service) load(ctx context.Context, id int64, notFound string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			if notFound == "" {
				notFound = msgUserNotFound
			}
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, notFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading user")
	}
	return user, nil
}

// ensureAvailable rejects an e-mail or username held by another account.
// Empty values are not checked.
func (s *Service) ensureAvailable(ctx context.Context, selfID int64, email, username string) error {
	if email = strings.TrimSpace(email); email != "" {
		if err := s.checkFree(ctx, selfID, msgEmailTaken, func() (*models.User, error) { return s.repo.FindByEmail(ctx, email) }); err != nil {
			return err
		}
	}
	if username = strings.TrimSpace(username); username != "" {
		if err := s.checkFree(ctx, selfID, msgUsernameTaken, func() (*models.User, error) { return s.repo.FindByUsername(ctx, username) }); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) checkFree(_ context.Context, selfID int64, taken string, find func() (*models.User, error)) error {
	existing, err := find()
	switch {
	case err == nil && existing.ID != selfID:
		return pkgerrors.New(pkgerrors.CodeValidation, taken)
	case err == nil, db.IsNotFound(err):
		return nil
	default:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking uniqueness")
	}
}

func (s *Service) conflictOrInternal(err error, action string) error {
	switch {
	case db.IsUniqueViolation(err, "users.email"):
		return pkgerrors.New(pkgerrors.CodeValidation, msgEmailTaken)
	case db.IsUniqueViolation(err, "users.username"):
		return pkgerrors.New(pkgerrors.CodeValidation, msgUsernameTaken)
	default:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, action)
	}
}

// RoleAllowed reports whether role may use a surface restricted to allowed.
func RoleAllowed(role enums.UserRole, allowed ...enums.UserRole) bool {
	for _, candidate := range allowed {
		if candidate == role {
			return true
		}
	}
	return false
}
