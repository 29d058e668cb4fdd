package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/soundmarket/pkg/auth"
	"github.com/angelmondragon/soundmarket/pkg/config"
	"github.com/angelmondragon/soundmarket/pkg/enums"
	pkgerrors "github.com/angelmondragon/soundmarket/pkg/errors"
	redislib "github.com/redis/go-redis/v9"
)

type mockKV struct {
	mu   sync.Mutex
	data map[string]string
	ttl  map[string]time.Duration
}

func newMockKV() *mockKV {
	return &mockKV{data: make(map[string]string), ttl: make(map[string]time.Duration)}
}

func (m *mockKV) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	m.ttl[key] = ttl
	return nil
}

func (m *mockKV) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockKV) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *mockKV) SessionKey(profile string) string {
	return "sess:" + profile
}

func mintToken(t *testing.T, now time.Time, role enums.UserRole) string {
	t.Helper()
	token, err := auth.MintAccessToken(config.JWTConfig{
		Secret:            "secret",
		Issuer:            "test",
		ExpirationMinutes: 30,
	}, now, auth.AccessTokenPayload{UserID: 9, Role: role})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestTokenWithoutCredentialIsUnauthorized(t *testing.T) {
	sess := New(NewMemoryStore(), "")
	if sess.Profile() != "default" {
		t.Fatalf("expected default profile, got %q", sess.Profile())
	}
	_, err := sess.Token(context.Background())
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestSaveReadsClaims(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	sess := New(store, "work")
	now := time.Now()
	token := mintToken(t, now, enums.UserRoleArtiste)

	cred, err := sess.Save(ctx, token, "")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if cred.UserID != 9 || cred.Role != enums.UserRoleArtiste {
		t.Fatalf("claims not captured: %+v", cred)
	}
	if cred.TokenType != "bearer" {
		t.Fatalf("expected default token type, got %q", cred.TokenType)
	}
	if cred.ExpiresAt.IsZero() {
		t.Fatalf("expected expiry from claims")
	}

	got, err := sess.Token(ctx)
	if err != nil || got != token {
		t.Fatalf("expected stored token, got %q err=%v", got, err)
	}

	// a second session over the same store sees the credential
	other := New(store, "work")
	if got, err := other.Token(ctx); err != nil || got != token {
		t.Fatalf("expected shared store to serve token, got %q err=%v", got, err)
	}

	expired, err := sess.Expired(ctx)
	if err != nil || expired {
		t.Fatalf("fresh token should not be expired (err=%v)", err)
	}
}

func TestSaveAcceptsOpaqueToken(t *testing.T) {
	sess := New(NewMemoryStore(), "")
	cred, err := sess.Save(context.Background(), "opaque-token", "bearer")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if cred.UserID != 0 || !cred.ExpiresAt.IsZero() {
		t.Fatalf("opaque token should not yield claims: %+v", cred)
	}
	if _, err := sess.Save(context.Background(), "  ", "bearer"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for blank token, got %v", err)
	}
}

func TestClearForgetsCredential(t *testing.T) {
	ctx := context.Background()
	sess := New(NewMemoryStore(), "")
	if _, err := sess.Save(ctx, "abc", "bearer"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := sess.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := sess.Token(ctx); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized after clear, got %v", err)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if _, err := store.Load(ctx, "default"); !errors.Is(err, ErrNoCredential) {
		t.Fatalf("expected ErrNoCredential on missing file, got %v", err)
	}

	cred := Credential{AccessToken: "tok", TokenType: "bearer", Role: enums.UserRoleClient}
	if err := store.Save(ctx, "default", cred); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(ctx, "other", Credential{AccessToken: "tok2"}); err != nil {
		t.Fatalf("save other: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600 permissions, got %v", info.Mode().Perm())
	}

	reopened, _ := NewFileStore(path)
	got, err := reopened.Load(ctx, "default")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.AccessToken != "tok" || got.Role != enums.UserRoleClient {
		t.Fatalf("unexpected credential %+v", got)
	}

	if err := reopened.Delete(ctx, "default"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := reopened.Load(ctx, "default"); !errors.Is(err, ErrNoCredential) {
		t.Fatalf("expected deleted profile to be gone, got %v", err)
	}
	if got, err := reopened.Load(ctx, "other"); err != nil || got.AccessToken != "tok2" {
		t.Fatalf("other profile should survive, got %+v err=%v", got, err)
	}
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	store, _ := NewFileStore(path)
	if _, err := store.Load(context.Background(), "default"); err == nil || errors.Is(err, ErrNoCredential) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestRedisStoreUsesTokenExpiryAsTTL(t *testing.T) {
	ctx := context.Background()
	kv := newMockKV()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := &RedisStore{store: kv, keyer: kv, now: func() time.Time { return now }}

	cred := Credential{AccessToken: "tok", ExpiresAt: now.Add(30 * time.Minute)}
	if err := store.Save(ctx, "default", cred); err != nil {
		t.Fatalf("save: %v", err)
	}
	if kv.ttl["sess:default"] != 30*time.Minute {
		t.Fatalf("unexpected ttl %s", kv.ttl["sess:default"])
	}

	got, err := store.Load(ctx, "default")
	if err != nil || got.AccessToken != "tok" {
		t.Fatalf("unexpected load %+v err=%v", got, err)
	}

	if err := store.Save(ctx, "stale", Credential{AccessToken: "x", ExpiresAt: now.Add(-time.Minute)}); err == nil {
		t.Fatalf("expected expired credential to be rejected")
	}

	if err := store.Delete(ctx, "default"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Load(ctx, "default"); !errors.Is(err, ErrNoCredential) {
		t.Fatalf("expected ErrNoCredential, got %v", err)
	}
}
