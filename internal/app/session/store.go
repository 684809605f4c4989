package session

import (
	"container/list"
	"sync"

	"presto-bot/internal/domain"
)

// Store holds one conversation state per customer for the process lifetime.
// Mutation for a customer is serialized by a per-entry mutex, so duplicate
// rapid taps or client retries cannot race. The map is bounded: when it
// exceeds maxEntries the least recently touched session is evicted, which for
// that customer is indistinguishable from a fresh start.
type Store struct {
	mu         sync.Mutex
	entries    map[int64]*entry
	lru        *list.List // front = most recently used
	maxEntries int
}

type entry struct {
	mu      sync.Mutex
	session domain.Session
	elem    *list.Element
}

func NewStore(maxEntries int) *Store {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &Store{
		entries:    make(map[int64]*entry),
		lru:        list.New(),
		maxEntries: maxEntries,
	}
}

// Update runs fn on the customer's session under its lock, creating the
// session on first access. fn must not block on external calls; handlers
// mutate first and talk to the outside world after.
func (s *Store) Update(customerID int64, fn func(*domain.Session)) {
	e := s.touch(customerID)
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.session)
}

// Snapshot returns a copy of the customer's current session.
func (s *Store) Snapshot(customerID int64) domain.Session {
	e := s.touch(customerID)
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := e.session
	if e.session.Location != nil {
		loc := *e.session.Location
		snap.Location = &loc
	}
	snap.Cart = append([]domain.CartItem(nil), e.session.Cart...)
	return snap
}

// Reset re-initializes the customer's session in place.
func (s *Store) Reset(customerID int64) {
	s.Update(customerID, func(sess *domain.Session) {
		sess.Reset()
	})
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) touch(customerID int64) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[customerID]
	if ok {
		s.lru.MoveToFront(e.elem)
		return e
	}

	e = &entry{session: domain.Session{
		CustomerID: customerID,
		Step:       domain.StepIdle,
	}}
	e.elem = s.lru.PushFront(customerID)
	s.entries[customerID] = e

	for len(s.entries) > s.maxEntries {
		oldest := s.lru.Back()
		if oldest == nil {
			break
		}
		id := oldest.Value.(int64)
		s.lru.Remove(oldest)
		delete(s.entries, id)
	}

	return e
}
