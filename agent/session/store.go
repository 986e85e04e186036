package session

import (
	"context"
	"sync"

	contractx "github.com/kittipos/clinic-concierge/agent/contract"
)

// Store is the conversation persistence contract. The memory store is the
// default; RedisStore keeps sessions across restarts.
type Store interface {
	Append(ctx context.Context, identity string, msg contractx.Message) error
	History(ctx context.Context, identity string) ([]contractx.Message, error)
	Reset(ctx context.Context, identity string) error
}

// MemoryStore keeps per-identity conversations for the process lifetime.
// Identities are independent; messages for one identity are totally ordered
// by append order.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]contractx.Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string][]contractx.Message),
	}
}

func (s *MemoryStore) Append(_ context.Context, identity string, msg contractx.Message) error {
	if identity == "" {
		return ErrInvalidIdentity
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[identity] = append(s.sessions[identity], msg)
	return nil
}

func (s *MemoryStore) History(_ context.Context, identity string) ([]contractx.Message, error) {
	if identity == "" {
		return nil, ErrInvalidIdentity
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.sessions[identity]
	out := make([]contractx.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *MemoryStore) Reset(_ context.Context, identity string) error {
	if identity == "" {
		return ErrInvalidIdentity
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[identity] = nil
	return nil
}
