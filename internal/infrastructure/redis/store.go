package rediskv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shop-accounts-api/internal/domain"
)

// Store is a thin, keyed TTL store over Redis. Every operation is
// idempotent on absent keys: Get reports absence, Delete is a no-op.
type Store struct {
	client redis.UniversalClient
}

func NewStore(client redis.UniversalClient) *Store {
	return &Store{client: client}
}

func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	return nil
}

// Get returns the value and whether the key existed. A missing key is
// not an error — it means expired or never set.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	return v, true, nil
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	return nil
}

// Increment bumps the counter at key and returns the new count.
// Fixed-window semantics: the TTL is armed only by the first hit in the
// window; later hits never extend it.
func (s *Store) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	if count == 1 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
		}
	}
	return count, nil
}

// TTL returns the remaining lifetime of key, or zero when the key is
// absent or has no expiry.
func (s *Store) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := s.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	if d < 0 {
		return 0, nil
	}
	return d, nil
}

// ScanKeys returns all keys matching pattern using cursor-based SCAN,
// never KEYS, so large keyspaces don't block the server.
func (s *Store) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			return keys, nil
		}
	}
}

// CountKeys counts keys matching pattern without materializing them all.
func (s *Store) CountKeys(ctx context.Context, pattern string) (int, error) {
	var (
		count  int
		cursor uint64
	)
	for {
		batch, next, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
		}
		count += len(batch)
		cursor = next
		if cursor == 0 {
			return count, nil
		}
	}
}
