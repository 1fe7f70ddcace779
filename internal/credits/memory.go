package credits

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process UserStore with the same conditional-write
// contract as PostgresStore. Used in tests and single-node setups.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]UsageRecord
}

// NewMemoryStore creates an empty in-memory user store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]UsageRecord)}
}

// Seed installs a record, replacing any existing one.
func (s *MemoryStore) Seed(rec UsageRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.Version == 0 {
		rec.Version = 1
	}
	s.records[rec.UserID] = rec
}

// CreateUser inserts a zero-usage record if none exists.
func (s *MemoryStore) CreateUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[userID]; !ok {
		s.records[userID] = UsageRecord{UserID: userID, Version: 1, UpdatedAt: time.Now()}
	}
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, userID string) (*UsageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := rec
	return &cp, nil
}

func (s *MemoryStore) SaveUser(ctx context.Context, rec *UsageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.records[rec.UserID]
	if !ok {
		return ErrUserNotFound
	}
	if cur.Version != rec.Version {
		return ErrConflict
	}
	rec.Version++
	rec.UpdatedAt = time.Now()
	s.records[rec.UserID] = *rec
	return nil
}
