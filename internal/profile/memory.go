package profile

import (
	"context"
	"sync"
)

// MemoryStore backs tests and single-process deployments.
type MemoryStore struct {
	mu        sync.RWMutex
	profiles  map[string]Profile
	telemetry []Telemetry

	// FailTelemetry simulates an unavailable audit table.
	FailTelemetry error
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string]Profile)}
}

func (s *MemoryStore) Get(_ context.Context, userID string) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return Profile{UserID: userID}, nil
	}
	return p, nil
}

func (s *MemoryStore) Upsert(_ context.Context, p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[p.UserID] = p
	return nil
}

func (s *MemoryStore) InsertTelemetry(_ context.Context, t Telemetry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailTelemetry != nil {
		return s.FailTelemetry
	}
	s.telemetry = append(s.telemetry, t)
	return nil
}

// TelemetryCount reports how many audit rows were stored.
func (s *MemoryStore) TelemetryCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.telemetry)
}
