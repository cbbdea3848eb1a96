package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xavierca1/leadgate/internal/entity"
)

type entry struct {
	mu       sync.Mutex
	sess     *entity.Session
	lastSeen time.Time
	inUse    int
}

// Store keeps sessions in memory, keyed by the cookie value. Sessions do not
// survive a restart.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	ttl     time.Duration

	Now func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		entries: make(map[string]*entry),
		ttl:     ttl,
		Now:     time.Now,
	}
}

// Do runs fn with exclusive access to the session identified by id. An empty or
// unknown id starts a new session; the returned id is the one the cookie must carry.
func (s *Store) Do(id string, fn func(sess *entity.Session) error) (string, error) {
	e, id := s.acquire(id)
	defer s.release(e)

	e.mu.Lock()
	defer e.mu.Unlock()

	err := fn(e.sess)
	e.sess.LastSeen = s.Now()
	return id, err
}

func (s *Store) acquire(id string) (*entry, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok || id == "" {
		id = uuid.New().String()
		e = &entry{sess: entity.NewSession(id)}
		s.entries[id] = e
	}
	e.inUse++
	e.lastSeen = s.Now()
	return e, id
}

func (s *Store) release(e *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.inUse--
	e.lastSeen = s.Now()
}

// Evict removes sessions idle for longer than the TTL and returns how many went.
func (s *Store) Evict() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.Now().Add(-s.ttl)
	n := 0
	for id, e := range s.entries {
		if e.inUse == 0 && e.lastSeen.Before(cutoff) {
			delete(s.entries, id)
			n++
		}
	}
	return n
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
