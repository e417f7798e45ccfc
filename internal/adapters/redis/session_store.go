package redisad

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"reviews_dashboard/internal/adapters/observability"
	"reviews_dashboard/internal/domain"
)

const keyPrefix = "session:"

// SessionStore keeps dashboard selections in Redis as JSON; every save resets the TTL.
type SessionStore struct{ c *redis.Client }

func New(addr, pass string, db int) *SessionStore {
	return NewWithClient(redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}))
}

func NewWithClient(c *redis.Client) *SessionStore { return &SessionStore{c: c} }

func (s *SessionStore) Ping(ctx context.Context) error { return s.c.Ping(ctx).Err() }

func (s *SessionStore) Get(ctx context.Context, id string, dst *domain.Selection) (bool, error) {
	v, err := s.c.Get(ctx, keyPrefix+id).Bytes()
	if err == redis.Nil {
		observability.ObserveSession("redis", "miss")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	observability.ObserveSession("redis", "hit")
	if err := json.Unmarshal(v, dst); err != nil {
		return false, fmt.Errorf("decode session %s: %w", id, err)
	}
	return true, nil
}

func (s *SessionStore) Save(ctx context.Context, id string, sel domain.Selection, ttl time.Duration) error {
	b, err := json.Marshal(sel)
	if err != nil {
		return err
	}
	observability.ObserveSession("redis", "save")
	return s.c.Set(ctx, keyPrefix+id, b, ttl).Err()
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	observability.ObserveSession("redis", "del")
	return s.c.Del(ctx, keyPrefix+id).Err()
}
