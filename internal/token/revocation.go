package token

import (
	"sync"
	"time"
)

// RevocationStore records tokens invalidated before their natural expiry.
// Verification treats membership as terminal: a revoked token never becomes
// valid again, entries just get swept once expiry makes them harmless.
type RevocationStore interface {
	Add(token string, expiresAt time.Time) error
	Contains(token string) (bool, error)
	Sweep(now time.Time) error
}

// MemoryRevocationStore is the single-instance implementation: a plain set
// keyed by raw token. Volatile by design — a restart forgets revocations,
// which is acceptable because tokens are short-lived.
type MemoryRevocationStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{entries: make(map[string]time.Time)}
}

func (s *MemoryRevocationStore) Add(token string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[token] = expiresAt
	return nil
}

func (s *MemoryRevocationStore) Contains(token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[token]
	return ok, nil
}

func (s *MemoryRevocationStore) Sweep(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, expiresAt := range s.entries {
		if now.After(expiresAt) {
			delete(s.entries, token)
		}
	}
	return nil
}

func (s *MemoryRevocationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
