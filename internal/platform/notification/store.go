package notification

import (
	"context"
	"sort"
	"sync"
)

// Store records notifications and their delivery outcome.
type Store interface {
	Save(ctx context.Context, n *Notification) error
	Get(ctx context.Context, id string) (*Notification, error)
	// ListByRecipient returns newest first; limit <= 0 means no limit.
	ListByRecipient(ctx context.Context, recipient string, limit int) ([]*Notification, error)
	Stats(ctx context.Context) (map[string]int, error)
}

// MemoryStore keeps notifications in process memory. Used when no Redis URL
// is configured and in tests.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]*Notification
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]*Notification)}
}

func (s *MemoryStore) Save(_ context.Context, n *Notification) error {
	cp := *n
	s.mu.Lock()
	s.items[n.ID] = &cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (s *MemoryStore) ListByRecipient(_ context.Context, recipient string, limit int) ([]*Notification, error) {
	s.mu.RLock()
	var result []*Notification
	for _, n := range s.items {
		if n.Recipient == recipient {
			cp := *n
			result = append(result, &cp)
		}
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *MemoryStore) Stats(_ context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := map[string]int{
		StatusPending: 0,
		StatusSent:    0,
		StatusFailed:  0,
	}
	for _, n := range s.items {
		stats[n.Status]++
	}
	return stats, nil
}
