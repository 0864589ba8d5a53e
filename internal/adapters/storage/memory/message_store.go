package memory

import (
	"context"

	"github.com/PabloGalante/farum-wellness/internal/domain"
)

func (s *Store) AppendMessage(_ context.Context, msg *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.chats[msg.ChatID]; !ok {
		return domain.ErrChatNotFound
	}

	m := *msg
	s.messages[msg.ChatID] = append(s.messages[msg.ChatID], &m)
	return nil
}

// RecentMessages returns up to limit messages of the chat, newest first.
func (s *Store) RecentMessages(_ context.Context, chatID domain.ChatID, limit int) ([]*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[chatID]
	if limit <= 0 || limit > len(msgs) {
		limit = len(msgs)
	}

	out := make([]*domain.Message, 0, limit)
	for i := len(msgs) - 1; i >= len(msgs)-limit; i-- {
		m := *msgs[i]
		out = append(out, &m)
	}
	return out, nil
}
