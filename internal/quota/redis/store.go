// Package redis provides a Redis-backed quota store for deployments that
// need quota state to survive process restarts or to be shared between
// instances. Records expire with the window, so Redis handles eviction.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pysensei/ai-gateway/internal/quota"
)

const keyPrefix = "sensei:quota:"

// Store implements quota.Store on a Redis client.
type Store struct {
	client *redis.Client
	now    func() time.Time
}

var _ quota.Store = (*Store)(nil)

// StoreOption configures the store.
type StoreOption func(*Store)

// WithClock overrides the time source used to compute record TTLs.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a store on client.
func New(client *redis.Client, opts ...StoreOption) *Store {
	s := &Store{client: client, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Get(ctx context.Context, identity string) (quota.Record, bool, error) {
	raw, err := s.client.Get(ctx, keyPrefix+identity).Bytes()
	if errors.Is(err, redis.Nil) {
		return quota.Record{}, false, nil
	}
	if err != nil {
		return quota.Record{}, false, fmt.Errorf("quota get %s: %w", identity, err)
	}

	var rec quota.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return quota.Record{}, false, fmt.Errorf("quota decode %s: %w", identity, err)
	}
	return rec, true, nil
}

func (s *Store) Set(ctx context.Context, identity string, rec quota.Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("quota encode %s: %w", identity, err)
	}

	ttl := rec.ResetAt.Sub(s.now())
	if ttl < time.Second {
		ttl = time.Second
	}

	if err := s.client.Set(ctx, keyPrefix+identity, raw, ttl).Err(); err != nil {
		return fmt.Errorf("quota set %s: %w", identity, err)
	}
	return nil
}
