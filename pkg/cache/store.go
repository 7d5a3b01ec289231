package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultTTL applies when the backend sends no usable Expires header.
	// Published theses rarely change, so an hour is conservative.
	DefaultTTL = time.Hour

	// StaleWindow is how long revalidatable entries are retained after
	// expiring, so a conditional request can refresh them.
	StaleWindow = 24 * time.Hour
)

var (
	// ErrCacheMiss indicates the key is absent.
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the stored value could not be decoded.
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Store is a Redis-backed document cache.
type Store struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewStore creates a store. A non-positive ttl selects DefaultTTL.
func NewStore(redisClient *redis.Client, ttl time.Duration) *Store {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{redis: redisClient, ttl: ttl}
}

// TTL returns the fallback lifetime of new entries.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Get returns the entry for key, or ErrCacheMiss. The entry may be stale;
// callers check IsExpired and revalidate.
func (s *Store) Get(ctx context.Context, key Key) (*Entry, error) {
	data, err := s.redis.Get(ctx, key.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			CacheMisses.Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	CacheHits.Inc()
	return &entry, nil
}

// Put stores entry until its Expires time, plus StaleWindow when it can be
// revalidated. Entries with nothing left to retain are ignored.
func (s *Store) Put(ctx context.Context, key Key, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	ttl := entry.TTL()
	if entry.Revalidatable() {
		ttl += StaleWindow
	}
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("put").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := s.redis.Set(ctx, key.String(), data, ttl).Err(); err != nil {
		CacheErrors.WithLabelValues("put").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	StoredBytes.Add(float64(len(data)))
	return nil
}

// Refresh extends an entry after a 304 Not Modified answer.
func (s *Store) Refresh(ctx context.Context, key Key, entry *Entry, expires time.Time) error {
	NotModified.Inc()
	refreshed := *entry
	refreshed.Expires = expires
	return s.Put(ctx, key, &refreshed)
}

// Delete removes an entry.
func (s *Store) Delete(ctx context.Context, key Key) error {
	if err := s.redis.Del(ctx, key.String()).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
