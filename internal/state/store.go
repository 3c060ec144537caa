package state

import (
	"sync"
	"time"
)

// Store is the root state container. All mutation goes through update;
// readers take copies with Snapshot.
type Store struct {
	mu    sync.RWMutex
	state State

	subMu  sync.Mutex
	subs   map[int]chan struct{}
	nextID int
}

// NewStore returns an empty store. The zero value is also ready to use.
func NewStore() *Store {
	return &Store{}
}

// Snapshot returns a copy of the current state that shares no slices with
// the store.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Token returns the session token, or "" when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Auth.Session.Token
}

func (s *Store) session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Auth.Session
}

func (s *Store) update(fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	s.mu.Unlock()
	s.notify()
}

// RecordSync notes the outcome of a reconciliation round. On error the
// previous data is kept and the failure counted.
func (s *Store) RecordSync(err error) {
	s.update(func(st *State) {
		st.Sync.LastUpdated = time.Now()
		if err != nil {
			st.Sync.LastError = err.Error()
			st.Sync.ConsecutiveFailures++
			return
		}
		st.Sync.LastError = ""
		st.Sync.ConsecutiveFailures = 0
	})
}

// Subscribe returns a channel that receives after state changes. Signals
// coalesce: a slow reader sees one pending notification, not one per
// change. Call cancel to stop receiving; the channel is closed.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.subMu.Lock()
	if s.subs == nil {
		s.subs = make(map[int]chan struct{})
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Store) notify() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
