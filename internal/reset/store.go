// Package reset stores short-lived password reset codes. Codes live in
// Redis when a client is available so that multiple instances share them;
// otherwise a process-local map is used, which is fine for single-instance
// deployments.
package reset

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "pwreset:"
	defaultTTL = 15 * time.Minute
)

// Store issues and consumes one-time reset codes keyed by email.
type Store struct {
	rdb *redis.Client
	ttl time.Duration

	mu    sync.Mutex
	local map[string]localEntry
}

type localEntry struct {
	code    string
	expires time.Time
}

// NewStore builds a Store. rdb may be nil, which selects the in-memory
// fallback.
func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb, ttl: defaultTTL, local: make(map[string]localEntry)}
}

// Put saves a code for the email, replacing any previous one.
func (s *Store) Put(ctx context.Context, email, code string) error {
	if s.rdb != nil {
		return s.rdb.Set(ctx, keyPrefix+email, code, s.ttl).Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.local[email] = localEntry{code: code, expires: time.Now().Add(s.ttl)}
	return nil
}

// Consume checks the code for the email and deletes it when it matches.
// A code is single-use regardless of backend.
func (s *Store) Consume(ctx context.Context, email, code string) (bool, error) {
	if code == "" {
		return false, nil
	}
	if s.rdb != nil {
		key := keyPrefix + email
		stored, err := s.rdb.Get(ctx, key).Result()
		if err == redis.Nil {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if stored != code {
			return false, nil
		}
		_ = s.rdb.Del(ctx, key).Err()
		return true, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.local[email]
	if !ok || time.Now().After(entry.expires) || entry.code != code {
		return false, nil
	}
	delete(s.local, email)
	return true, nil
}
