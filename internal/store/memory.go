package store

import (
	"errors"
	"sync"

	"github.com/i474232898/weathercity/internal/weather"
)

var (
	// ErrNotFound is returned before the controller has published any state.
	ErrNotFound = errors.New("no weather state published")
)

// MemoryStore keeps the latest state committed by the controller so readers
// never have to go through the controller loop. The controller is the only writer.
type MemoryStore struct {
	mu sync.RWMutex

	latest    weather.State
	published bool
	version   uint64
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save replaces the published state.
func (s *MemoryStore) Save(state weather.State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest = state
	s.published = true
	s.version++
}

// Latest returns the most recently published state.
func (s *MemoryStore) Latest() (weather.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.published {
		return weather.State{}, ErrNotFound
	}
	return s.latest, nil
}

// Version counts how many states have been published.
func (s *MemoryStore) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

var _ weather.Store = (*MemoryStore)(nil)
