package tokenstore

import (
	"sync"
	"time"
)

// Memory keeps the pair in process memory. Used in tests and embeddings
// that should not touch the filesystem.
type Memory struct {
	mu      sync.Mutex
	pair    Pair
	present bool
}

func NewMemory() *Memory {
	return &Memory{}
}

func (s *Memory) Save(pair Pair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pair = pair
	s.present = true
	return nil
}

func (s *Memory) Load() (Pair, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pair, s.present, nil
}

func (s *Memory) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pair = Pair{}
	s.present = false
	return nil
}

func (s *Memory) Valid(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.present && now.Before(s.pair.ExpiresAt)
}
