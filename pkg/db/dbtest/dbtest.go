// Package dbtest opens migrated in-memory sandbox databases for tests.
package dbtest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/soundmarket/pkg/config"
	"github.com/angelmondragon/soundmarket/pkg/db"
	"github.com/angelmondragon/soundmarket/pkg/db/models"
	"github.com/angelmondragon/soundmarket/pkg/enums"
	"github.com/angelmondragon/soundmarket/pkg/migrate"
)

// Open returns a private, fully migrated in-memory database.
func Open(t testing.TB) *db.Client {
	t.Helper()
	cfg := config.SandboxConfig{
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		MaxOpenConns: 1,
	}
	ctx := context.Background()
	client, err := db.New(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	sqlDB, err := client.DB().DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	if err := migrate.Up(ctx, sqlDB); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return client
}

// MustCreateUser inserts an active user of role named name.
func MustCreateUser(t testing.TB, conn *gorm.DB, role enums.UserRole, name string) *models.User {
	t.Helper()
	user := &models.User{
		Email:          name + "@example.com",
		Username:       name,
		HashedPassword: "hash",
		Role:           role,
		IsActive:       true,
	}
	if err := conn.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// MusicOption tweaks a fixture music before insert.
type MusicOption func(*models.Music)

// Paid sets the price and clears the free flag.
func Paid(price string) MusicOption {
	return func(m *models.Music) {
		m.IsFree = false
		m.Price = decimal.RequireFromString(price)
	}
}

// WithStatus overrides the publication status.
func WithStatus(status enums.MusicStatus) MusicOption {
	return func(m *models.Music) { m.Status = status }
}

// WithGenre sets the genre.
func WithGenre(genre string) MusicOption {
	return func(m *models.Music) { m.Genre = &genre }
}

// WithFile points the music at path.
func WithFile(path string) MusicOption {
	return func(m *models.Music) { m.FilePath = path }
}

// MustCreateMusic inserts a free published music owned by artistID.
func MustCreateMusic(t testing.TB, conn *gorm.DB, artistID int64, title string, opts ...MusicOption) *models.Music {
	t.Helper()
	music := &models.Music{
		Title:    title,
		FilePath: "music/" + title + ".mp3",
		IsFree:   true,
		Price:    decimal.Zero,
		Status:   enums.MusicStatusPublished,
		ArtistID: artistID,
	}
	for _, opt := range opts {
		opt(music)
	}
	if err := conn.Omit("Artist").Create(music).Error; err != nil {
		t.Fatalf("create music: %v", err)
	}
	return music
}

// MustCreateCode inserts an unused code for music valid for ttl.
func MustCreateCode(t testing.TB, conn *gorm.DB, music *models.Music, code string, ttl time.Duration) *models.PaymentCode {
	t.Helper()
	out := &models.PaymentCode{
		Code:      code,
		MusicID:   music.ID,
		Price:     music.Price,
		ExpiresAt: time.Now().UTC().Add(ttl),
	}
	if err := conn.Create(out).Error; err != nil {
		t.Fatalf("create payment code: %v", err)
	}
	return out
}
