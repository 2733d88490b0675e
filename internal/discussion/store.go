package discussion

import (
	"errors"
	"sync"
	"time"

	"github.com/revboard-dev/revboard/pkg/observability"
)

// ErrSessionNotFound is returned when a session id is unknown, expired or
// evicted.
var ErrSessionNotFound = errors.New("session not found")

const (
	// DefaultCapacity is the maximum number of resident sessions.
	DefaultCapacity = 10
	// DefaultIdleTimeout is how long an untouched session stays reachable.
	DefaultIdleTimeout = 30 * time.Minute
)

// record wraps a session with the access time used for eviction.
type record struct {
	session        *Session
	lastAccessedAt time.Time
}

// Store is a bounded in-memory session registry. Cleanup runs eagerly at the
// start of every operation; there is no background sweep, so an expired
// session can stay resident until the next call touches the store.
//
// The mutex only keeps the registry map consistent. Concurrent calls racing
// on the same session id see last-write-wins semantics on the session
// record; the intended caller issues one call at a time per session.
type Store struct {
	mu          sync.Mutex
	records     map[string]*record
	capacity    int
	idleTimeout time.Duration

	// now is replaceable in tests.
	now func() time.Time
}

// NewStore creates a store with the given capacity and idle timeout.
// Non-positive values fall back to the defaults.
func NewStore(capacity int, idleTimeout time.Duration) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &Store{
		records:     make(map[string]*record),
		capacity:    capacity,
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
}

// Get returns the session for an id, refreshing its access time. It never
// creates a record.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.cleanupLocked(now)

	rec, ok := s.records[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	rec.lastAccessedAt = now
	return rec.session, nil
}

// Put inserts or replaces a session unconditionally and marks it as just
// accessed.
func (s *Store) Put(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.cleanupLocked(now)

	s.records[session.SessionID] = &record{session: session, lastAccessedAt: now}
	s.evictOverCapacityLocked()
	observability.SetActiveSessions(len(s.records))
}

// Remove deletes a session. Removing an unknown id is a no-op.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cleanupLocked(s.now())
	delete(s.records, id)
	observability.SetActiveSessions(len(s.records))
}

// Len returns the number of resident sessions after a cleanup pass.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cleanupLocked(s.now())
	return len(s.records)
}

// Cleanup runs one expiry and capacity pass. The store already does this on
// every operation; this entry point exists for an optional scheduled sweep.
func (s *Store) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cleanupLocked(s.now())
	observability.SetActiveSessions(len(s.records))
}

// cleanupLocked drops expired records, then evicts the least recently
// accessed records until the store is within capacity.
func (s *Store) cleanupLocked(now time.Time) {
	for id, rec := range s.records {
		if now.Sub(rec.lastAccessedAt) > s.idleTimeout {
			delete(s.records, id)
			observability.RecordEviction("expired")
		}
	}
	s.evictOverCapacityLocked()
}

func (s *Store) evictOverCapacityLocked() {
	for len(s.records) > s.capacity {
		var oldestID string
		var oldest time.Time
		for id, rec := range s.records {
			if oldestID == "" || rec.lastAccessedAt.Before(oldest) {
				oldestID = id
				oldest = rec.lastAccessedAt
			}
		}
		delete(s.records, oldestID)
		observability.RecordEviction("capacity")
	}
}
