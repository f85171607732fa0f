package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bluele/gcache"
)

// DefaultMemoryStoreSize is the number of sessions a MemoryStore keeps
// before evicting the least recently used.
const DefaultMemoryStoreSize = 1024

// MemoryOption configures a MemoryStore.
type MemoryOption func(*memoryConfig)

type memoryConfig struct {
	ttl time.Duration
}

// WithTTL expires records that have not been written for ttl.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(c *memoryConfig) {
		c.ttl = ttl
	}
}

// MemoryStore keeps records in an in-process LRU cache. Records do not
// survive a restart.
type MemoryStore struct {
	cache  gcache.Cache
	ttl    time.Duration
	closed atomic.Bool
}

// NewMemoryStore creates a store holding at most size sessions. A
// non-positive size uses DefaultMemoryStoreSize.
func NewMemoryStore(size int, opts ...MemoryOption) *MemoryStore {
	cfg := &memoryConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if size <= 0 {
		size = DefaultMemoryStoreSize
	}
	return &MemoryStore{
		cache: gcache.New(size).LRU().Build(),
		ttl:   cfg.ttl,
	}
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, sessionID string) (*Record, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	value, err := s.cache.Get(sessionID)
	if err != nil {
		if errors.Is(err, gcache.KeyNotFoundError) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("checkpoint: memory get: %w", err)
	}
	return value.(*Record).clone(), nil
}

// Set implements Store.
func (s *MemoryStore) Set(ctx context.Context, sessionID string, record *Record) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := record.Validate(); err != nil {
		return err
	}

	value := record.clone()
	if s.ttl > 0 {
		return s.cache.SetWithExpire(sessionID, value, s.ttl)
	}
	return s.cache.Set(sessionID, value)
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.cache.Remove(sessionID)
	return nil
}

// Len returns the number of stored sessions.
func (s *MemoryStore) Len() int {
	return s.cache.Len(true)
}

// Close implements Store. It drops every record.
func (s *MemoryStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.cache.Purge()
	return nil
}
