package conversation

import (
	"context"
	"sort"
	"sync"
)

// Store is the durable append-only message store.
type Store interface {
	AppendTurn(ctx context.Context, turn Turn) error
	// RecentTurns returns up to limit turns for the user, newest-first when
	// desc is true, oldest-first otherwise.
	RecentTurns(ctx context.Context, userID string, limit int, desc bool) ([]Turn, error)
	ClearAll(ctx context.Context, userID string) error
}

// MemoryStore keeps turns in process memory. Used in tests and as the
// Store contract reference.
type MemoryStore struct {
	mu    sync.RWMutex
	turns map[string][]Turn
}

// NewMemoryStore creates an empty in-memory message store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{turns: make(map[string][]Turn)}
}

func (s *MemoryStore) AppendTurn(ctx context.Context, turn Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns[turn.UserID] = append(s.turns[turn.UserID], turn)
	return nil
}

func (s *MemoryStore) RecentTurns(ctx context.Context, userID string, limit int, desc bool) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.turns[userID]
	out := make([]Turn, len(all))
	copy(out, all)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})

	if limit > 0 && len(out) > limit {
		// The limit always selects the most recent turns
		out = out[len(out)-limit:]
	}
	if desc {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

func (s *MemoryStore) ClearAll(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.turns, userID)
	return nil
}
