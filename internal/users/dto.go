package users

import (
	"strings"

	"github.com/angelmondragon/soundmarket/pkg/db/models"
	"github.com/angelmondragon/soundmarket/pkg/dto"
	"github.com/angelmondragon/soundmarket/pkg/enums"
	"github.com/angelmondragon/soundmarket/pkg/types"
)

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email          string
	Username       string
	HashedPassword string
	FullName       string
	Role           enums.UserRole
	ArtistBio      string
	ArtistWebsite  string
	IsActive       *bool
}

// ListFilter narrows the admin user listing.
type ListFilter struct {
	Role     *enums.UserRole
	IsActive *bool
	Search   string
	Skip     int
	Limit    int
}

// FromModel exposes a user without credentials. Both handle fields are
// filled so every dashboard surface can read it.
func FromModel(u *models.User) *dto.User {
	if u == nil {
		return nil
	}
	out := &dto.User{
		ID:            u.ID,
		Username:      u.Username,
		Name:          u.Username,
		Email:         u.Email,
		FullName:      deref(u.FullName),
		Role:          u.Role,
		IsActive:      u.IsActive,
		ArtistBio:     deref(u.ArtistBio),
		ArtistWebsite: deref(u.ArtistWebsite),
		CreatedAt:     types.NewTimestamp(u.CreatedAt),
	}
	if u.UpdatedAt != nil {
		out.UpdatedAt = types.NewTimestamp(*u.UpdatedAt)
	}
	return out
}

// ToModel builds the row to insert. Artist fields are dropped for other roles.
func (c CreateUserDTO) ToModel() *models.User {
	isActive := true
	if c.IsActive != nil {
		isActive = *c.IsActive
	}
	user := &models.User{
		Email:          strings.TrimSpace(c.Email),
		Username:       strings.TrimSpace(c.Username),
		HashedPassword: c.HashedPassword,
		FullName:       optional(c.FullName),
		Role:           c.Role,
		IsActive:       isActive,
	}
	if c.Role == enums.UserRoleArtiste {
		user.ArtistBio = optional(c.ArtistBio)
		user.ArtistWebsite = optional(c.ArtistWebsite)
	}
	return user
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
