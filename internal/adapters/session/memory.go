package session

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryStore is an in-process session store backed by a TTL cache. Entries
// are evicted automatically once their lifetime elapses; reads do not extend
// a session.
type MemoryStore struct {
	cache *ttlcache.Cache[string, Session]
}

// NewMemoryStore creates a MemoryStore whose sessions live for ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	cache := ttlcache.New(
		ttlcache.WithTTL[string, Session](ttl),
		ttlcache.WithDisableTouchOnHit[string, Session](),
	)
	go cache.Start()
	return &MemoryStore{cache: cache}
}

// Put stores a session under id.
func (s *MemoryStore) Put(_ context.Context, id string, sess Session) error {
	s.cache.Set(id, sess, ttlcache.DefaultTTL)
	return nil
}

// Get returns the session for id if present and unexpired.
func (s *MemoryStore) Get(_ context.Context, id string) (Session, bool, error) {
	item := s.cache.Get(id)
	if item == nil {
		return Session{}, false, nil
	}
	return item.Value(), true, nil
}

// Delete removes the session for id.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.cache.Delete(id)
	return nil
}

// Stop halts the background expiry loop.
func (s *MemoryStore) Stop() {
	s.cache.Stop()
}
