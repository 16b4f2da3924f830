package repository

import (
	"context"
	"sync"

	"github.com/thebandproject/bandsite/internal/model"
)

// MemoryMessageStore keeps messages in process memory.  It backs the
// persistence sink when no database is configured, so accepted messages are
// at least visible until restart.
type MemoryMessageStore struct {
	mu       sync.Mutex
	messages []model.ContactMessage
	max      int
}

// NewMemoryMessageStore keeps at most max messages, dropping the oldest.
func NewMemoryMessageStore(max int) *MemoryMessageStore {
	if max <= 0 {
		max = 1000
	}
	return &MemoryMessageStore{max: max}
}

// SaveMessage implements MessageStore.
func (s *MemoryMessageStore) SaveMessage(_ context.Context, m model.ContactMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.messages {
		if existing.ID == m.ID {
			return ErrDuplicateMessage
		}
	}
	if len(s.messages) == s.max {
		s.messages = s.messages[1:]
	}
	s.messages = append(s.messages, m)
	return nil
}

// Messages returns a copy of the stored messages, oldest first.
func (s *MemoryMessageStore) Messages() []model.ContactMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ContactMessage(nil), s.messages...)
}
