package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/angelmondragon/soundmarket/pkg/enums"
)

// ErrNoCredential is returned by stores when nothing was saved for a profile.
var ErrNoCredential = errors.New("no stored credential")

// Credential is what login persists between console invocations.
type Credential struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	UserID      int64          `json:"user_id,omitempty"`
	Role        enums.UserRole `json:"role,omitempty"`
	ExpiresAt   time.Time      `json:"expires_at,omitempty"`
	SavedAt     time.Time      `json:"saved_at"`
}

// Store persists credentials per profile.
type Store interface {
	Load(ctx context.Context, profile string) (Credential, error)
	Save(ctx context.Context, profile string, cred Credential) error
	Delete(ctx context.Context, profile string) error
}

// MemoryStore keeps credentials for the lifetime of the process.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Credential
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]Credential)}
}

func (m *MemoryStore) Load(_ context.Context, profile string) (Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cred, ok := m.data[profile]
	if !ok {
		return Credential{}, ErrNoCredential
	}
	return cred, nil
}

func (m *MemoryStore) Save(_ context.Context, profile string, cred Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[profile] = cred
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, profile string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, profile)
	return nil
}
