package dto

import (
	"strings"

	"github.com/angelmondragon/soundmarket/pkg/enums"
	"github.com/angelmondragon/soundmarket/pkg/types"
)

// User is the account record exposed by every role surface. Depending on the
// endpoint the API fills either Username or Name.
type User struct {
	ID            int64           `json:"id"`
	Username      string          `json:"username,omitempty"`
	Name          string          `json:"name,omitempty"`
	Email         string          `json:"email"`
	FullName      string          `json:"full_name,omitempty"`
	Role          enums.UserRole  `json:"role"`
	IsActive      bool            `json:"is_active"`
	ArtistBio     string          `json:"artist_bio,omitempty"`
	ArtistWebsite string          `json:"artist_website,omitempty"`
	CreatedAt     types.Timestamp `json:"created_at"`
	UpdatedAt     types.Timestamp `json:"updated_at"`
}

// GetID implements the list-splicing identity contract.
func (u User) GetID() int64 { return u.ID }

// Handle returns the login handle regardless of which field carried it.
func (u User) Handle() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Name
}

// DisplayName prefers the full name and falls back to the handle.
func (u User) DisplayName() string {
	if name := strings.TrimSpace(u.FullName); name != "" {
		return name
	}
	return u.Handle()
}

// Initials returns up to two upper-case letters for avatar placeholders.
func (u User) Initials() string {
	parts := strings.Fields(u.DisplayName())
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(strings.ToUpper(string([]rune(p)[:1])))
		if b.Len() >= 2 {
			break
		}
	}
	return b.String()
}

// ActivityLabel is the badge text shown for the account state.
func (u User) ActivityLabel() string {
	if u.IsActive {
		return "Actif"
	}
	return "Inactif"
}

// ProfileUpdate is the partial body accepted by the profile endpoints.
type ProfileUpdate struct {
	Username      *string `json:"username,omitempty"`
	Email         *string `json:"email,omitempty"`
	FullName      *string `json:"full_name,omitempty"`
	ArtistBio     *string `json:"artist_bio,omitempty"`
	ArtistWebsite *string `json:"artist_website,omitempty"`
	Password      *string `json:"password,omitempty"`
}

// Registration is the body of POST /api/register.
type Registration struct {
	Name          string         `json:"name" validate:"required"`
	Email         string         `json:"email" validate:"required,email"`
	Password      string         `json:"password" validate:"required,min=6"`
	Role          enums.UserRole `json:"role" validate:"required"`
	FullName      string         `json:"full_name,omitempty"`
	ArtistBio     string         `json:"artist_bio,omitempty"`
	ArtistWebsite string         `json:"artist_website,omitempty" validate:"omitempty,url"`
}

// Token is the login/refresh response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
