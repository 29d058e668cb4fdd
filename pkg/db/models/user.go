package models

import (
	"time"

	"github.com/angelmondragon/soundmarket/pkg/enums"
)

// User is a marketplace account of any role.
type User struct {
	ID             int64          `gorm:"primaryKey;autoIncrement"`
	Email          string         `gorm:"column:email;not null;uniqueIndex"`
	Username       string         `gorm:"column:username;not null;uniqueIndex"`
	HashedPassword string         `gorm:"column:hashed_password;not null"`
	FullName       *string        `gorm:"column:full_name"`
	Role           enums.UserRole `gorm:"column:role;not null"`
	IsActive       bool           `gorm:"column:is_active;not null"`
	ArtistBio      *string        `gorm:"column:artist_bio"`
	ArtistWebsite  *string        `gorm:"column:artist_website"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      *time.Time     `gorm:"column:updated_at"`
}

func (User) TableName() string { return "users" }

// RevokedToken is a logged-out bearer token.
type RevokedToken struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Token     string    `gorm:"column:token;not null;uniqueIndex"`
	RevokedAt time.Time `gorm:"column:revoked_at;not null"`
}

func (RevokedToken) TableName() string { return "revoked_tokens" }
