package state

import (
	"sync"

	"github.com/kcaldas/devconsole/pkg/types"
)

// Listener observes every transition. It runs after the store lock is released,
// so it may dispatch again.
type Listener func(action Action, next types.State)

type listenerInfo struct {
	id       int
	listener Listener
}

// Store holds the single source of truth for a mounted console
type Store struct {
	mu        sync.RWMutex
	state     types.State
	listeners []listenerInfo
	nextID    int
}

// NewStore creates a store seeded with the given state
func NewStore(initial types.State) *Store {
	if initial.Logs == nil {
		initial.Logs = []types.Entry{}
	}
	return &Store{
		state:  initial,
		nextID: 1,
	}
}

// State returns the current snapshot. Callers must treat Logs as read-only.
func (s *Store) State() types.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Dispatch applies the action and notifies listeners in subscription order
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	s.state = Reduce(s.state, a)
	next := s.state
	listeners := make([]listenerInfo, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, info := range listeners {
		info.listener(a, next)
	}
}

// Subscribe registers a listener and returns a function removing it
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, listenerInfo{id: id, listener: l})

	return func() {
		s.unsubscribe(id)
	}
}

func (s *Store) unsubscribe(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, info := range s.listeners {
		if info.id == id {
			s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
			return
		}
	}
}
