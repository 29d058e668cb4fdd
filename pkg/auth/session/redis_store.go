package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisclient "github.com/angelmondragon/soundmarket/pkg/redis"
	redislib "github.com/redis/go-redis/v9"
)

type kvStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	SessionKey(profile string) string
}

// RedisStore shares credentials between machines through Redis. Entries
// expire with the token when its expiry is known.
type RedisStore struct {
	store kvStore
	keyer sessionKeyer
	now   func() time.Time
}

// NewRedisStore constructs a store backed by the redis client.
func NewRedisStore(client *redisclient.Client) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &RedisStore{store: client, keyer: client, now: time.Now}, nil
}

func (r *RedisStore) Load(ctx context.Context, profile string) (Credential, error) {
	raw, err := r.store.Get(ctx, r.keyer.SessionKey(profile))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return Credential{}, ErrNoCredential
		}
		return Credential{}, err
	}
	var cred Credential
	if err := json.Unmarshal([]byte(raw), &cred); err != nil {
		return Credential{}, fmt.Errorf("decoding stored credential: %w", err)
	}
	return cred, nil
}

func (r *RedisStore) Save(ctx context.Context, profile string, cred Credential) error {
	raw, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("encoding credential: %w", err)
	}
	var ttl time.Duration
	if !cred.ExpiresAt.IsZero() {
		ttl = cred.ExpiresAt.Sub(r.now())
		if ttl <= 0 {
			return fmt.Errorf("credential already expired")
		}
	}
	return r.store.Set(ctx, r.keyer.SessionKey(profile), string(raw), ttl)
}

func (r *RedisStore) Delete(ctx context.Context, profile string) error {
	return r.store.Del(ctx, r.keyer.SessionKey(profile))
}
