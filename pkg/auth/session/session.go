package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/soundmarket/pkg/auth"
	pkgerrors "github.com/angelmondragon/soundmarket/pkg/errors"
)

const defaultProfile = "default"

// Session is the process-wide authentication context. Every outbound call
// asks it for the bearer credential; only login, refresh and logout write it.
type Session struct {
	store   Store
	profile string
	now     func() time.Time

	mu     sync.RWMutex
	cached *Credential
}

// New binds a store to a profile name.
func New(store Store, profile string) *Session {
	if strings.TrimSpace(profile) == "" {
		profile = defaultProfile
	}
	return &Session{store: store, profile: profile, now: time.Now}
}

// Profile returns the profile the session reads and writes.
func (s *Session) Profile() string {
	return s.profile
}

// Token returns the stored access token. A missing credential is an
// UNAUTHORIZED error so callers fail before sending anything.
func (s *Session) Token(ctx context.Context) (string, error) {
	cred, err := s.Credential(ctx)
	if err != nil {
		return "", err
	}
	return cred.AccessToken, nil
}

// Credential returns the full stored credential.
func (s *Session) Credential(ctx context.Context) (Credential, error) {
	s.mu.RLock()
	cached := s.cached
	s.mu.RUnlock()
	if cached != nil {
		return *cached, nil
	}

	cred, err := s.store.Load(ctx, s.profile)
	if err != nil {
		if errors.Is(err, ErrNoCredential) {
			return Credential{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "not logged in")
		}
		return Credential{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load credential")
	}
	if strings.TrimSpace(cred.AccessToken) == "" {
		return Credential{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "not logged in")
	}

	s.mu.Lock()
	s.cached = &cred
	s.mu.Unlock()
	return cred, nil
}

// Save stores a freshly issued token. Identity and expiry are read from the
// token claims when it is a JWT.
func (s *Session) Save(ctx context.Context, accessToken, tokenType string) (Credential, error) {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return Credential{}, pkgerrors.New(pkgerrors.CodeValidation, "access token is empty")
	}
	if tokenType == "" {
		tokenType = "bearer"
	}

	cred := Credential{
		AccessToken: accessToken,
		TokenType:   tokenType,
		SavedAt:     s.now().UTC(),
	}
	if claims, err := auth.InspectAccessToken(accessToken); err == nil {
		cred.UserID = claims.UserID
		cred.Role = claims.Role
		if exp := claims.Expiry(); !exp.IsZero() {
			cred.ExpiresAt = exp.UTC()
		}
	}

	if err := s.store.Save(ctx, s.profile, cred); err != nil {
		return Credential{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save credential")
	}

	s.mu.Lock()
	s.cached = &cred
	s.mu.Unlock()
	return cred, nil
}

// Update replaces the stored credential, e.g. once the role is known from /api/me.
func (s *Session) Update(ctx context.Context, cred Credential) error {
	if err := s.store.Save(ctx, s.profile, cred); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save credential")
	}
	s.mu.Lock()
	s.cached = &cred
	s.mu.Unlock()
	return nil
}

// Clear removes the stored credential.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
	if err := s.store.Delete(ctx, s.profile); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete credential")
	}
	return nil
}

// Expired reports whether the stored token is known to have lapsed.
func (s *Session) Expired(ctx context.Context) (bool, error) {
	cred, err := s.Credential(ctx)
	if err != nil {
		return false, err
	}
	return !cred.ExpiresAt.IsZero() && !s.now().Before(cred.ExpiresAt), nil
}
