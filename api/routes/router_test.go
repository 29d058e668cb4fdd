package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/soundmarket/internal/analytics"
	"github.com/angelmondragon/soundmarket/internal/library"
	"github.com/angelmondragon/soundmarket/internal/media"
	"github.com/angelmondragon/soundmarket/internal/musics"
	"github.com/angelmondragon/soundmarket/internal/users"
	"github.com/angelmondragon/soundmarket/pkg/config"
	"github.com/angelmondragon/soundmarket/pkg/db/dbtest"
	"github.com/angelmondragon/soundmarket/pkg/dto"
	"github.com/angelmondragon/soundmarket/pkg/enums"
	"github.com/angelmondragon/soundmarket/pkg/logger"
	"github.com/angelmondragon/soundmarket/pkg/types"
)

const testPassword = "secret123"

type sandbox struct {
	srv    *httptest.Server
	tokens map[enums.UserRole]string
}

func newSandbox(t *testing.T) *sandbox {
	t.Helper()
	conn := dbtest.Open(t).DB()
	cfg := &config.Config{
		JWT: config.JWTConfig{Secret: "router-secret", Issuer: "soundmarket-test", ExpirationMinutes: 30},
		Password: config.PasswordConfig{
			ArgonMemoryKB:    1024,
			ArgonTime:        1,
			ArgonParallelism: 1,
			ArgonSaltLen:     16,
			ArgonKeyLen:      32,
		},
		Sandbox: config.SandboxConfig{MediaDir: t.TempDir(), MaxUpload: 1},
	}
	logg := logger.Nop()

	store, err := media.NewStore(cfg.Sandbox.MediaDir, cfg.Sandbox.MaxUploadBytes(), logg)
	require.NoError(t, err)
	userSvc, err := users.NewService(users.ServiceParams{Repo: users.NewRepository(conn), JWT: cfg.JWT, Password: cfg.Password})
	require.NoError(t, err)
	musicSvc, err := musics.NewService(musics.ServiceParams{Repo: musics.NewRepository(conn), Media: store})
	require.NoError(t, err)
	librarySvc, err := library.NewService(library.ServiceParams{Repo: library.NewRepository(conn), Media: store})
	require.NoError(t, err)
	statsSvc, err := analytics.NewService(analytics.ServiceParams{Repo: analytics.NewRepository(conn)})
	require.NoError(t, err)

	handler := NewRouter(cfg, logg, Dependencies{
		Users:      userSvc,
		Musics:     musicSvc,
		Library:    librarySvc,
		Statistics: statsSvc,
		Files:      store,
	})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	sb := &sandbox{srv: srv, tokens: map[enums.UserRole]string{}}
	for _, role := range []enums.UserRole{enums.UserRoleAdmin, enums.UserRoleArtiste, enums.UserRoleClient} {
		name := strings.ToLower(string(role))
		_, err := userSvc.EnsureSeed(context.Background(), dto.Registration{
			Name:     name,
			Email:    name + "@example.com",
			Password: testPassword,
			Role:     role,
		})
		require.NoError(t, err)
		sb.tokens[role] = sb.login(t, name+"@example.com", testPassword)
	}
	return sb
}

func (s *sandbox) login(t *testing.T, email, password string) string {
	t.Helper()
	form := url.Values{"username": {email}, "password": {password}}
	resp, err := http.PostForm(s.srv.URL+"/api/login", form)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var token dto.Token
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&token))
	require.NotEmpty(t, token.AccessToken)
	return token.AccessToken
}

func (s *sandbox) do(t *testing.T, role enums.UserRole, method, path string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.srv.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := s.tokens[role]; token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func detail(t *testing.T, resp *http.Response) string {
	t.Helper()
	body := decode[map[string]any](t, resp)
	msg, _ := body["detail"].(string)
	return msg
}

func (s *sandbox) upload(t *testing.T, fields map[string]string, fileName string, content []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		part, err := mw.CreateFormFile("audio_file", fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, s.srv.URL+"/api/artiste/musiques", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.tokens[enums.UserRoleArtiste])
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealthRoutes(t *testing.T) {
	sb := newSandbox(t)

	live := sb.do(t, "", http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, live.StatusCode)
	assert.Equal(t, "live", decode[map[string]string](t, live)["status"])

	ready := sb.do(t, "", http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, ready.StatusCode)
}

func TestMeRequiresToken(t *testing.T) {
	sb := newSandbox(t)

	anon := sb.do(t, "", http.MethodGet, "/api/me", nil)
	assert.Equal(t, http.StatusUnauthorized, anon.StatusCode)
	assert.Equal(t, "Not authenticated", detail(t, anon))

	me := sb.do(t, enums.UserRoleClient, http.MethodGet, "/api/me", nil)
	require.Equal(t, http.StatusOK, me.StatusCode)
	user := decode[dto.User](t, me)
	assert.Equal(t, "client@example.com", user.Email)
	assert.Equal(t, enums.UserRoleClient, user.Role)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	sb := newSandbox(t)

	resp, err := http.PostForm(sb.srv.URL+"/api/login", url.Values{"username": {"client@example.com"}, "password": {"nope"}})
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.GreaterOrEqual(t, resp.StatusCode, 400)
}

func TestRoleGuards(t *testing.T) {
	sb := newSandbox(t)

	cases := []struct {
		role   enums.UserRole
		path   string
		detail string
	}{
		{enums.UserRoleClient, "/api/artiste/musiques", "Only artists can access this resource"},
		{enums.UserRoleArtiste, "/api/client/musiques", "Only clients can access this resource"},
		{enums.UserRoleArtiste, "/admin/users", "Not enough permissions"},
		{enums.UserRoleClient, "/api/admin/statistics", "Not enough permissions"},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			resp := sb.do(t, tc.role, http.MethodGet, tc.path, nil)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
			assert.Equal(t, tc.detail, detail(t, resp))
		})
	}
}

func TestArtistUploadPublishAndClientDownload(t *testing.T) {
	sb := newSandbox(t)
	audio := []byte("ID3 fake audio payload")

	created := sb.upload(t, map[string]string{"title": "Nuit Blanche", "genre": "Jazz"}, "nuit.mp3", audio)
	require.Equal(t, http.StatusOK, created.StatusCode)
	music := decode[dto.Music](t, created)
	assert.Equal(t, enums.MusicStatusDraft, music.Status)
	assert.True(t, music.IsFree)

	hidden := sb.do(t, enums.UserRoleClient, http.MethodGet, fmt.Sprintf("/api/client/musiques/%d", music.ID), nil)
	assert.Equal(t, http.StatusNotFound, hidden.StatusCode)

	published := sb.do(t, enums.UserRoleArtiste, http.MethodPost, fmt.Sprintf("/api/artiste/musiques/%d/publier", music.ID), nil)
	require.Equal(t, http.StatusOK, published.StatusCode)
	assert.Equal(t, "Musique publiée avec succès", decode[types.MessageBody](t, published).Message)

	catalog := sb.do(t, enums.UserRoleClient, http.MethodGet, "/api/client/musiques?genre=jazz", nil)
	require.Equal(t, http.StatusOK, catalog.StatusCode)
	listed := decode[[]dto.Music](t, catalog)
	require.Len(t, listed, 1)
	assert.Equal(t, "Nuit Blanche", listed[0].Title)

	download := sb.do(t, enums.UserRoleClient, http.MethodGet, fmt.Sprintf("/api/client/download/%d", music.ID), nil)
	require.Equal(t, http.StatusOK, download.StatusCode)
	assert.Contains(t, download.Header.Get("Content-Disposition"), "attachment")
	assert.Contains(t, download.Header.Get("Content-Disposition"), "Nuit Blanche.mp3")
	got, err := io.ReadAll(download.Body)
	require.NoError(t, err)
	assert.Equal(t, audio, got)
}

func TestUploadRequiresAudio(t *testing.T) {
	sb := newSandbox(t)

	resp := sb.upload(t, map[string]string{"title": "Sans fichier"}, "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Le fichier audio est requis", detail(t, resp))
}

func TestPaidPurchaseFlow(t *testing.T) {
	sb := newSandbox(t)

	created := sb.upload(t, map[string]string{"title": "Payante", "is_free": "false", "price": "4.99", "status": "PUBLISHED"}, "payante.mp3", []byte("ID3 paid"))
	require.Equal(t, http.StatusOK, created.StatusCode)
	music := decode[dto.Music](t, created)
	assert.False(t, music.IsFree)

	denied := sb.do(t, enums.UserRoleClient, http.MethodGet, fmt.Sprintf("/api/client/download/%d", music.ID), nil)
	assert.Equal(t, http.StatusForbidden, denied.StatusCode)

	codeResp := sb.do(t, enums.UserRoleArtiste, http.MethodPost, fmt.Sprintf("/api/artiste/musiques/%d/generate-code?expiry_hours=2", music.ID), nil)
	require.Equal(t, http.StatusOK, codeResp.StatusCode)
	code := decode[dto.PaymentCode](t, codeResp)
	require.NotEmpty(t, code.Code)

	purchase := sb.do(t, enums.UserRoleClient, http.MethodPost, "/api/client/purchase", dto.PurchaseRequest{MusicID: music.ID, PaymentCode: code.Code})
	require.Equal(t, http.StatusOK, purchase.StatusCode)

	again := sb.do(t, enums.UserRoleClient, http.MethodPost, "/api/client/purchase", dto.PurchaseRequest{MusicID: music.ID, PaymentCode: code.Code})
	assert.Equal(t, http.StatusBadRequest, again.StatusCode)
	assert.Equal(t, "Vous possédez déjà cette musique", detail(t, again))

	purchases := sb.do(t, enums.UserRoleClient, http.MethodGet, "/api/client/purchases", nil)
	require.Equal(t, http.StatusOK, purchases.StatusCode)
	assert.Len(t, decode[[]dto.Purchase](t, purchases), 1)

	download := sb.do(t, enums.UserRoleClient, http.MethodGet, fmt.Sprintf("/api/client/download/%d", music.ID), nil)
	assert.Equal(t, http.StatusOK, download.StatusCode)

	codes := sb.do(t, enums.UserRoleAdmin, http.MethodGet, "/admin/payment-codes", nil)
	require.Equal(t, http.StatusOK, codes.StatusCode)
	listed := decode[[]dto.PaymentCode](t, codes)
	require.Len(t, listed, 1)
	assert.True(t, listed[0].IsUsed)
}

func TestFavoritesRoundTrip(t *testing.T) {
	sb := newSandbox(t)

	created := sb.upload(t, map[string]string{"title": "Favori", "status": "PUBLISHED"}, "fav.mp3", []byte("ID3 fav"))
	require.Equal(t, http.StatusOK, created.StatusCode)
	music := decode[dto.Music](t, created)

	added := sb.do(t, enums.UserRoleClient, http.MethodPost, "/api/client/favorites", dto.FavoriteRequest{MusicID: music.ID})
	require.Equal(t, http.StatusOK, added.StatusCode)
	favorite := decode[dto.Favorite](t, added)

	dup := sb.do(t, enums.UserRoleClient, http.MethodPost, "/api/client/favorites", dto.FavoriteRequest{MusicID: music.ID})
	assert.Equal(t, http.StatusBadRequest, dup.StatusCode)

	removed := sb.do(t, enums.UserRoleClient, http.MethodDelete, fmt.Sprintf("/api/client/favorites/%d", favorite.ID), nil)
	require.Equal(t, http.StatusOK, removed.StatusCode)
	assert.Equal(t, "Musique supprimée des favoris avec succès", decode[types.MessageBody](t, removed).Message)

	list := sb.do(t, enums.UserRoleClient, http.MethodGet, "/api/client/favorites", nil)
	require.Equal(t, http.StatusOK, list.StatusCode)
	assert.Empty(t, decode[[]dto.Favorite](t, list))
}

func TestAdminDeactivatesUser(t *testing.T) {
	sb := newSandbox(t)

	users := sb.do(t, enums.UserRoleAdmin, http.MethodGet, "/admin/users?role=CLIENT", nil)
	require.Equal(t, http.StatusOK, users.StatusCode)
	listed := decode[[]dto.User](t, users)
	require.Len(t, listed, 1)

	resp := sb.do(t, enums.UserRoleAdmin, http.MethodPost, fmt.Sprintf("/admin/users/%d/deactivate", listed[0].ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[dto.User](t, resp).IsActive)

	blocked := sb.do(t, enums.UserRoleClient, http.MethodGet, "/api/me", nil)
	assert.Equal(t, http.StatusBadRequest, blocked.StatusCode)
	assert.Equal(t, "Inactive user", detail(t, blocked))
}

func TestClientStatistics(t *testing.T) {
	sb := newSandbox(t)

	resp := sb.do(t, enums.UserRoleClient, http.MethodGet, "/api/client/statistics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	admin := sb.do(t, enums.UserRoleAdmin, http.MethodGet, "/admin/statistics", nil)
	require.Equal(t, http.StatusOK, admin.StatusCode)
	stats := decode[dto.AdminStatistics](t, admin)
	assert.Equal(t, int64(3), stats.TotalUsers)
}
