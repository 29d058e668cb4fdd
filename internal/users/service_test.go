package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/soundmarket/pkg/auth"
	"github.com/angelmondragon/soundmarket/pkg/config"
	"github.com/angelmondragon/soundmarket/pkg/db/dbtest"
	"github.com/angelmondragon/soundmarket/pkg/db/models"
	"github.com/angelmondragon/soundmarket/pkg/dto"
	"github.com/angelmondragon/soundmarket/pkg/enums"
	pkgerrors "github.com/angelmondragon/soundmarket/pkg/errors"
)

var testJWT = config.JWTConfig{Secret: "test-secret", Issuer: "soundmarket-test", ExpirationMinutes: 30}

var testPassword = config.PasswordConfig{
	ArgonMemoryKB:    1024,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t).DB()
	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(conn),
		JWT:      testJWT,
		Password: testPassword,
	})
	require.NoError(t, err)
	return svc, conn
}

func register(t *testing.T, svc *Service, name string, role enums.UserRole) *dto.User {
	t.Helper()
	user, err := svc.Register(context.Background(), dto.Registration{
		Name:          name,
		Email:         name + "@example.com",
		Password:      "secret123",
		Role:          role,
		ArtistBio:     "bio of " + name,
		ArtistWebsite: "https://" + name + ".example.com",
	})
	require.NoError(t, err)
	return user
}

func assertDetail(t *testing.T, err error, code pkgerrors.Code, detail string) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	assert.Equal(t, code, typed.Code())
	assert.Equal(t, detail, typed.Message())
}

func TestNewServiceRequiresSecret(t *testing.T) {
	_, err := NewService(ServiceParams{Repo: &Repository{}})
	require.Error(t, err)
}

func TestRegister(t *testing.T) {
	svc, _ := newTestService(t)

	artist := register(t, svc, "bob_artist", enums.UserRoleArtiste)
	assert.Equal(t, "bob_artist", artist.Username)
	assert.Equal(t, "bob_artist", artist.Name)
	assert.Equal(t, enums.UserRoleArtiste, artist.Role)
	assert.True(t, artist.IsActive)
	assert.Equal(t, "bio of bob_artist", artist.ArtistBio)

	client := register(t, svc, "carol", enums.UserRoleClient)
	assert.Empty(t, client.ArtistBio, "artist fields are only kept for artists")
	assert.Empty(t, client.ArtistWebsite)

	_, err := svc.Register(context.Background(), dto.Registration{Name: "other", Email: "carol@example.com", Password: "secret123", Role: enums.UserRoleClient})
	assertDetail(t, err, pkgerrors.CodeValidation, "Email already exists")

	_, err = svc.Register(context.Background(), dto.Registration{Name: "carol", Email: "new@example.com", Password: "secret123", Role: enums.UserRoleClient})
	assertDetail(t, err, pkgerrors.CodeValidation, "Username already exists")

	_, err = svc.Register(context.Background(), dto.Registration{Name: "x", Email: "x@example.com", Password: "secret123", Role: "DJ"})
	assertDetail(t, err, pkgerrors.CodeValidation, "Rôle invalide")
}

func TestLoginAndAuthenticate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	user := register(t, svc, "carol", enums.UserRoleClient)

	_, err := svc.Login(ctx, "carol@example.com", "wrong")
	assertDetail(t, err, pkgerrors.CodeUnauthorized, "Incorrect email or password")

	_, err = svc.Login(ctx, "nobody@example.com", "secret123")
	assertDetail(t, err, pkgerrors.CodeUnauthorized, "Incorrect email or password")

	token, err := svc.Login(ctx, " carol@example.com ", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "bearer", token.TokenType)

	claims, err := auth.ParseAccessToken(testJWT, token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, enums.UserRoleClient, claims.Role)

	resolved, err := svc.Authenticate(ctx, token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)

	_, err = svc.Authenticate(ctx, "garbage")
	assertDetail(t, err, pkgerrors.CodeUnauthorized, "Invalid token")
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	svc, conn := newTestService(t)
	user := register(t, svc, "carol", enums.UserRoleClient)
	require.NoError(t, conn.Model(&models.User{}).Where("id = ?", user.ID).Update("is_active", false).Error)

	_, err := svc.Login(context.Background(), "carol@example.com", "secret123")
	assertDetail(t, err, pkgerrors.CodeValidation, "Inactive user")
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	register(t, svc, "carol", enums.UserRoleClient)

	token, err := svc.Login(ctx, "carol@example.com", "secret123")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, token.AccessToken))
	require.NoError(t, svc.Logout(ctx, token.AccessToken), "second logout is a no-op")

	_, err = svc.Authenticate(ctx, token.AccessToken)
	assertDetail(t, err, pkgerrors.CodeUnauthorized, "Token has been revoked")

	err = svc.Logout(ctx, "not-a-jwt")
	assertDetail(t, err, pkgerrors.CodeUnauthorized, "Invalid token")
}

func TestRefreshIssuesDistinctToken(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	register(t, svc, "carol", enums.UserRoleClient)

	first, err := svc.Login(ctx, "carol@example.com", "secret123")
	require.NoError(t, err)
	user, err := svc.Authenticate(ctx, first.AccessToken)
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, user)
	require.NoError(t, err)
	assert.NotEqual(t, first.AccessToken, second.AccessToken)

	_, err = svc.Refresh(ctx, nil)
	assertDetail(t, err, pkgerrors.CodeUnauthorized, "Invalid token")
}

func TestAuthenticateUnknownUser(t *testing.T) {
	svc, _ := newTestService(t)
	token, err := auth.MintAccessToken(testJWT, time.Now(), auth.AccessTokenPayload{UserID: 999, Role: enums.UserRoleClient})
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), token)
	assertDetail(t, err, pkgerrors.CodeUnauthorized, "User not found")
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	artist := register(t, svc, "bob", enums.UserRoleArtiste)
	client := register(t, svc, "carol", enums.UserRoleClient)

	bio := "new bio"
	name := "Carol King"
	updated, err := svc.UpdateProfile(ctx, client.ID, dto.ProfileUpdate{FullName: &name, ArtistBio: &bio}, ProfileOptions{NotFound: "Client non trouvé"})
	require.NoError(t, err)
	assert.Equal(t, "Carol King", updated.FullName)
	assert.Empty(t, updated.ArtistBio)
	assert.False(t, updated.UpdatedAt.IsZero())

	updated, err = svc.UpdateProfile(ctx, artist.ID, dto.ProfileUpdate{ArtistBio: &bio}, ProfileOptions{ArtistFields: true})
	require.NoError(t, err)
	assert.Equal(t, "new bio", updated.ArtistBio)

	taken := "carol@example.com"
	_, err = svc.UpdateProfile(ctx, artist.ID, dto.ProfileUpdate{Email: &taken}, ProfileOptions{ArtistFields: true})
	assertDetail(t, err, pkgerrors.CodeValidation, "Email already exists")

	same := "bob"
	_, err = svc.UpdateProfile(ctx, artist.ID, dto.ProfileUpdate{Username: &same}, ProfileOptions{ArtistFields: true})
	require.NoError(t, err, "keeping your own username is allowed")

	password := "changed123"
	_, err = svc.UpdateProfile(ctx, client.ID, dto.ProfileUpdate{Password: &password}, ProfileOptions{})
	require.NoError(t, err)
	_, err = svc.Login(ctx, "carol@example.com", "changed123")
	require.NoError(t, err)

	_, err = svc.UpdateProfile(ctx, 999, dto.ProfileUpdate{}, ProfileOptions{NotFound: "Client non trouvé"})
	assertDetail(t, err, pkgerrors.CodeNotFound, "Client non trouvé")
}

func TestListFilters(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	register(t, svc, "bob_artist", enums.UserRoleArtiste)
	register(t, svc, "alice_artist", enums.UserRoleArtiste)
	carol := register(t, svc, "carol", enums.UserRoleClient)
	_, err := svc.SetActive(ctx, 0, carol.ID, false)
	require.NoError(t, err)

	role := enums.UserRoleArtiste
	active := true
	rows, err := svc.List(ctx, ListFilter{Role: &role, IsActive: &active, Search: "BOB"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "bob_artist", rows[0].Username)

	inactive := false
	rows, err = svc.List(ctx, ListFilter{IsActive: &inactive})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "carol", rows[0].Username)

	rows, err = svc.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "carol", rows[0].Username, "newest first")

	rows, err = svc.List(ctx, ListFilter{Skip: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "alice_artist", rows[0].Username)
}

func TestSetActive(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	admin := register(t, svc, "root", enums.UserRoleAdmin)
	carol := register(t, svc, "carol", enums.UserRoleClient)

	_, err := svc.SetActive(ctx, admin.ID, admin.ID, false)
	assertDetail(t, err, pkgerrors.CodeValidation, "Vous ne pouvez pas désactiver votre propre compte")

	user, err := svc.SetActive(ctx, admin.ID, carol.ID, false)
	require.NoError(t, err)
	assert.False(t, user.IsActive)
	assert.Equal(t, "Inactif", user.ActivityLabel())

	user, err = svc.SetActive(ctx, admin.ID, carol.ID, true)
	require.NoError(t, err)
	assert.True(t, user.IsActive)

	_, err = svc.SetActive(ctx, admin.ID, 999, true)
	assertDetail(t, err, pkgerrors.CodeNotFound, "Utilisateur non trouvé")
}

func TestDeleteCascades(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	admin := register(t, svc, "root", enums.UserRoleAdmin)
	artist := register(t, svc, "bob", enums.UserRoleArtiste)
	client := register(t, svc, "carol", enums.UserRoleClient)

	music := dbtest.MustCreateMusic(t, conn, artist.ID, "song", dbtest.Paid("2.00"))
	code := dbtest.MustCreateCode(t, conn, music, "CODE00000001", time.Hour)
	require.NoError(t, conn.Model(code).UpdateColumns(map[string]any{"is_used": true, "used_by_client_id": client.ID}).Error)
	purchase := models.Purchase{ClientID: client.ID, MusicID: music.ID, AmountPaid: music.Price, Status: enums.PaymentStatusCompleted, MaxDownloads: 5, PurchasedAt: time.Now().UTC()}
	require.NoError(t, conn.Omit("Music").Create(&purchase).Error)
	require.NoError(t, conn.Create(&models.DownloadLog{PurchaseID: purchase.ID, DownloadedAt: time.Now().UTC()}).Error)
	require.NoError(t, conn.Omit("Music").Create(&models.Favorite{UserID: client.ID, MusicID: music.ID}).Error)

	err := svc.Delete(ctx, admin.ID, admin.ID)
	assertDetail(t, err, pkgerrors.CodeValidation, "Vous ne pouvez pas supprimer votre propre compte")

	require.NoError(t, svc.Delete(ctx, admin.ID, client.ID))

	var remaining int64
	require.NoError(t, conn.Model(&models.Purchase{}).Count(&remaining).Error)
	assert.Zero(t, remaining)
	require.NoError(t, conn.Model(&models.DownloadLog{}).Count(&remaining).Error)
	assert.Zero(t, remaining)
	require.NoError(t, conn.Model(&models.Favorite{}).Count(&remaining).Error)
	assert.Zero(t, remaining)

	var reloaded models.PaymentCode
	require.NoError(t, conn.First(&reloaded, code.ID).Error)
	assert.Nil(t, reloaded.UsedByClientID)

	require.NoError(t, svc.Delete(ctx, admin.ID, artist.ID))
	require.NoError(t, conn.Model(&models.Music{}).Count(&remaining).Error)
	assert.Zero(t, remaining)
	require.NoError(t, conn.Model(&models.PaymentCode{}).Count(&remaining).Error)
	assert.Zero(t, remaining)

	err = svc.Delete(ctx, admin.ID, artist.ID)
	assertDetail(t, err, pkgerrors.CodeNotFound, "Utilisateur non trouvé")
}

func TestEnsureSeedIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	req := dto.Registration{Name: "admin", Email: "admin@example.com", Password: "admin123", Role: enums.UserRoleAdmin}

	first, err := svc.EnsureSeed(ctx, req)
	require.NoError(t, err)
	second, err := svc.EnsureSeed(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestRoleAllowed(t *testing.T) {
	assert.True(t, RoleAllowed(enums.UserRoleAdmin, enums.UserRoleAdmin))
	assert.False(t, RoleAllowed(enums.UserRoleClient, enums.UserRoleAdmin, enums.UserRoleArtiste))
	assert.False(t, RoleAllowed(enums.UserRoleClient))
}

func TestLoginUpgradesOutdatedHash(t *testing.T) {
	svc, conn := newTestService(t)
	register(t, svc, "dora", enums.UserRoleClient)

	var before models.User
	require.NoError(t, conn.First(&before, "email = ?", "dora@example.com").Error)

	stronger := testPassword
	stronger.ArgonTime = 2
	upgraded, err := NewService(ServiceParams{Repo: NewRepository(conn), JWT: testJWT, Password: stronger})
	require.NoError(t, err)

	_, err = upgraded.Login(context.Background(), "dora@example.com", "secret123")
	require.NoError(t, err)

	var after models.User
	require.NoError(t, conn.First(&after, "email = ?", "dora@example.com").Error)
	assert.NotEqual(t, before.HashedPassword, after.HashedPassword)
	assert.Contains(t, after.HashedPassword, ",t=2,")

	_, err = upgraded.Login(context.Background(), "dora@example.com", "secret123")
	require.NoError(t, err)
	_, err = svc.Login(context.Background(), "dora@example.com", "secret123")
	require.NoError(t, err)
}
