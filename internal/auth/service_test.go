package auth

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/soundmarket/internal/apiclient"
	"github.com/angelmondragon/soundmarket/internal/notifications"
	pkgauth "github.com/angelmondragon/soundmarket/pkg/auth"
	"github.com/angelmondragon/soundmarket/pkg/auth/session"
	"github.com/angelmondragon/soundmarket/pkg/config"
	"github.com/angelmondragon/soundmarket/pkg/dto"
	"github.com/angelmondragon/soundmarket/pkg/enums"
	pkgerrors "github.com/angelmondragon/soundmarket/pkg/errors"
)

type fakeAPI struct {
	requests  []apiclient.Request
	responses map[string]any
	errors    map[string]error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{responses: map[string]any{}, errors: map[string]error{}}
}

func (f *fakeAPI) Do(ctx context.Context, req apiclient.Request, out any) error {
	f.requests = append(f.requests, req)
	if err := f.errors[req.Path]; err != nil {
		return err
	}
	if resp, ok := f.responses[req.Path]; ok && out != nil {
		raw, _ := json.Marshal(resp)
		return json.Unmarshal(raw, out)
	}
	return nil
}

func (f *fakeAPI) paths() []string {
	out := make([]string, 0, len(f.requests))
	for _, r := range f.requests {
		out = append(out, r.Method+" "+r.Path)
	}
	return out
}

func newTestService(t *testing.T, api *fakeAPI) (Service, *session.Session, *notifications.Recorder) {
	t.Helper()
	sess := session.New(session.NewMemoryStore(), "test")
	rec := &notifications.Recorder{}
	svc, err := NewService(ServiceParams{Client: api, Session: sess, Notifier: rec})
	require.NoError(t, err)
	return svc, sess, rec
}

func mint(t *testing.T, userID int64, role enums.UserRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(config.JWTConfig{Secret: "s", Issuer: "i", ExpirationMinutes: 30}, time.Now(),
		pkgauth.AccessTokenPayload{UserID: userID, Role: role})
	require.NoError(t, err)
	return token
}

func TestLoginStoresTokenAndRole(t *testing.T) {
	api := newFakeAPI()
	api.responses[pathLogin] = dto.Token{AccessToken: "opaque", TokenType: "bearer"}
	api.responses[pathMe] = map[string]any{"id": 3, "name": "bob_artist", "email": "bob@example.com", "role": "artiste", "is_active": true}
	svc, sess, rec := newTestService(t, api)

	user, err := svc.Login(context.Background(), LoginRequest{Username: " bob@example.com ", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, enums.UserRoleArtiste, user.Role)

	login := api.requests[0]
	assert.True(t, login.Anonymous)
	assert.Equal(t, "bob@example.com", login.Form.Get("username"))
	assert.Equal(t, "secret", login.Form.Get("password"))

	cred, err := sess.Credential(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "opaque", cred.AccessToken)
	assert.Equal(t, enums.UserRoleArtiste, cred.Role)
	assert.Equal(t, int64(3), cred.UserID)

	last, _ := rec.Last()
	assert.Equal(t, notifications.LevelSuccess, last.Level)
}

func TestLoginFailureShowsDetail(t *testing.T) {
	api := newFakeAPI()
	api.errors[pathLogin] = pkgerrors.FromResponse(401, "Incorrect email or password")
	svc, sess, rec := newTestService(t, api)

	_, err := svc.Login(context.Background(), LoginRequest{Username: "bob@example.com", Password: "nope"})
	require.Error(t, err)

	last, _ := rec.Last()
	assert.Equal(t, "Incorrect email or password", last.Message)
	_, err = sess.Token(context.Background())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestLoginRequiresFields(t *testing.T) {
	api := newFakeAPI()
	svc, _, _ := newTestService(t, api)
	_, err := svc.Login(context.Background(), LoginRequest{Username: " "})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Empty(t, api.requests)
}

func TestRegisterDropsArtistFieldsForClients(t *testing.T) {
	api := newFakeAPI()
	api.responses[pathRegister] = map[string]any{"id": 8, "name": "alice", "email": "alice@example.com", "role": "client", "is_active": true}
	svc, _, _ := newTestService(t, api)

	user, err := svc.Register(context.Background(), dto.Registration{
		Name:          "alice",
		Email:         "alice@example.com",
		Password:      "secret1",
		Role:          enums.UserRoleClient,
		ArtistBio:     "ignored",
		ArtistWebsite: "https://ignored.example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(8), user.ID)

	body, ok := api.requests[0].JSON.(dto.Registration)
	require.True(t, ok)
	assert.Empty(t, body.ArtistBio)
	assert.Empty(t, body.ArtistWebsite)
	assert.Equal(t, enums.UserRole("client"), body.Role)
	assert.True(t, api.requests[0].Anonymous)
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	api := newFakeAPI()
	svc, _, _ := newTestService(t, api)
	_, err := svc.Register(context.Background(), dto.Registration{
		Name: "root", Email: "root@example.com", Password: "secret1", Role: enums.UserRoleAdmin,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Empty(t, api.requests)
}

func TestLogoutClearsEvenWhenRevokeFails(t *testing.T) {
	api := newFakeAPI()
	api.errors[pathLogout] = pkgerrors.FromResponse(401, "Invalid token")
	svc, sess, _ := newTestService(t, api)
	_, err := sess.Save(context.Background(), "tok", "bearer")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background()))
	assert.Equal(t, []string{"POST /api/logout"}, api.paths())
	_, err = sess.Token(context.Background())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestLogoutWithoutSessionSendsNothing(t *testing.T) {
	api := newFakeAPI()
	svc, _, _ := newTestService(t, api)
	require.NoError(t, svc.Logout(context.Background()))
	assert.Empty(t, api.requests)
}

func TestRefreshKeepsKnownRole(t *testing.T) {
	api := newFakeAPI()
	svc, sess, _ := newTestService(t, api)
	ctx := context.Background()

	cred, err := sess.Save(ctx, "old", "bearer")
	require.NoError(t, err)
	cred.Role = enums.UserRoleClient
	require.NoError(t, sess.Update(ctx, cred))

	api.responses[pathRefresh] = dto.Token{AccessToken: "new", TokenType: "bearer"}
	refreshed, err := svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new", refreshed.AccessToken)
	assert.Equal(t, enums.UserRoleClient, refreshed.Role)
}

func TestStatusReadsClaims(t *testing.T) {
	api := newFakeAPI()
	svc, sess, _ := newTestService(t, api)
	_, err := sess.Save(context.Background(), mint(t, 4, enums.UserRoleAdmin), "bearer")
	require.NoError(t, err)

	status, err := svc.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test", status.Profile)
	assert.Equal(t, int64(4), status.Credential.UserID)
	assert.Equal(t, enums.UserRoleAdmin, status.Credential.Role)
	assert.False(t, status.Expired)
	assert.Empty(t, api.requests)
}
