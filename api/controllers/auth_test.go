package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/angelmondragon/soundmarket/api/middleware"
	"github.com/angelmondragon/soundmarket/internal/users"
	"github.com/angelmondragon/soundmarket/pkg/db/models"
	"github.com/angelmondragon/soundmarket/pkg/dto"
	"github.com/angelmondragon/soundmarket/pkg/enums"
	pkgerrors "github.com/angelmondragon/soundmarket/pkg/errors"
	"github.com/angelmondragon/soundmarket/pkg/types"
)

type stubAccountService struct {
	token    *dto.Token
	user     *dto.User
	err      error
	email    string
	password string
	revoked  string
	called   bool
}

func (s *stubAccountService) Register(ctx context.Context, req dto.Registration) (*dto.User, error) {
	s.called = true
	return s.user, s.err
}

func (s *stubAccountService) Login(ctx context.Context, email, password string) (*dto.Token, error) {
	s.called = true
	s.email, s.password = email, password
	return s.token, s.err
}

func (s *stubAccountService) Refresh(ctx context.Context, user *models.User) (*dto.Token, error) {
	s.called = true
	return s.token, s.err
}

func (s *stubAccountService) Logout(ctx context.Context, token string) error {
	s.called = true
	s.revoked = token
	return s.err
}

func (s *stubAccountService) UpdateProfile(ctx context.Context, id int64, update dto.ProfileUpdate, opts users.ProfileOptions) (*dto.User, error) {
	s.called = true
	return s.user, s.err
}

func loginRequest(form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestAuthLoginSuccess(t *testing.T) {
	svc := &stubAccountService{token: &dto.Token{AccessToken: "access-token", TokenType: "bearer"}}
	resp := httptest.NewRecorder()

	AuthLogin(svc, nil).ServeHTTP(resp, loginRequest(url.Values{"username": {" ana@example.com "}, "password": {"secret123"}}))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.email != "ana@example.com" || svc.password != "secret123" {
		t.Fatalf("unexpected credentials %q / %q", svc.email, svc.password)
	}
	var token dto.Token
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if token.AccessToken != "access-token" || token.TokenType != "bearer" {
		t.Fatalf("unexpected token %+v", token)
	}
}

func TestAuthLoginMissingFields(t *testing.T) {
	svc := &stubAccountService{}
	resp := httptest.NewRecorder()

	AuthLogin(svc, nil).ServeHTTP(resp, loginRequest(url.Values{}))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.called {
		t.Fatal("service must not be called")
	}
	var body types.ErrorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got := body.Message(); got != "password: field required; username: field required" {
		t.Fatalf("unexpected detail %q", got)
	}
}

func TestAuthLoginRejected(t *testing.T) {
	svc := &stubAccountService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "Incorrect email or password")}
	resp := httptest.NewRecorder()

	AuthLogin(svc, nil).ServeHTTP(resp, loginRequest(url.Values{"username": {"ana@example.com"}, "password": {"nope"}}))

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if got := resp.Header().Get("WWW-Authenticate"); got != "Bearer" {
		t.Fatalf("expected bearer challenge got %q", got)
	}
	if !strings.Contains(resp.Body.String(), "Incorrect email or password") {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestAuthRegisterValidatesBody(t *testing.T) {
	svc := &stubAccountService{}
	resp := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/register", bytes.NewReader([]byte(`{"name":"ana"}`)))

	AuthRegister(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.called {
		t.Fatal("service must not be called")
	}
}

func TestAuthRegisterSuccess(t *testing.T) {
	svc := &stubAccountService{user: &dto.User{ID: 7, Username: "ana", Email: "ana@example.com", Role: enums.UserRoleArtiste, IsActive: true}}
	resp := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/register", bytes.NewReader([]byte(
		`{"name":"ana","email":"ana@example.com","password":"secret123","role":"ARTISTE"}`,
	)))

	AuthRegister(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var user dto.User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if user.ID != 7 || user.Role != enums.UserRoleArtiste {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestAuthLogoutRevokesRequestToken(t *testing.T) {
	svc := &stubAccountService{}
	resp := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	req = req.WithContext(middleware.WithUser(req.Context(), &models.User{ID: 3}, "tok-123"))

	AuthLogout(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.revoked != "tok-123" {
		t.Fatalf("expected token revoked got %q", svc.revoked)
	}
	var body types.MessageBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Message != "Successfully logged out" {
		t.Fatalf("unexpected message %q", body.Message)
	}
}
