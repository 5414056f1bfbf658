package credential

import (
	"context"
	"sync"
)

// MemoryStore backs single-user development mode and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	creds map[string]Credential
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{creds: make(map[string]Credential)}
}

func (s *MemoryStore) Get(_ context.Context, userID string) (*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.creds[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &cred, nil
}

func (s *MemoryStore) Upsert(_ context.Context, cred Credential) error {
	s.mu.Lock()
	s.creds[cred.UserID] = cred
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	delete(s.creds, userID)
	s.mu.Unlock()
	return nil
}
