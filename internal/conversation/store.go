package conversation

import (
	"context"
	"sync"
)

// Store is the conversation state store: one TripRequest per conversation
// key. Get returns (nil, nil) when no record exists. Implementations must
// be safe for concurrent use across keys.
type Store interface {
	Get(ctx context.Context, key string) (*TripRequest, error)
	Put(ctx context.Context, req *TripRequest) error
	Delete(ctx context.Context, key string) error
}

// MemoryStore keeps records in a mutex-guarded map. It is the default
// backend and the test double for the redis-backed store.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]TripRequest
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]TripRequest),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*TripRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	// Copy out so callers never share the stored value.
	out := rec
	out.PendingCandidates = append([]Candidate(nil), rec.PendingCandidates...)
	return &out, nil
}

func (s *MemoryStore) Put(_ context.Context, req *TripRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := *req
	rec.PendingCandidates = append([]Candidate(nil), req.PendingCandidates...)
	s.records[req.Key] = rec
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)
	return nil
}

// Len reports the number of active conversations.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
