package memory

import (
	"context"
	"errors"
	"slices"

	"github.com/PabloGalante/farum-wellness/internal/domain"
)

func (s *Store) CreateChat(_ context.Context, chat *domain.Chat) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.chats[chat.ID]; exists {
		return errors.New("chat already exists")
	}

	c := *chat
	s.chats[chat.ID] = &c
	s.chatsByUser[chat.UserID] = append(s.chatsByUser[chat.UserID], chat.ID)
	return nil
}

func (s *Store) GetChat(_ context.Context, id domain.ChatID) (*domain.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.chats[id]
	if !ok {
		return nil, domain.ErrChatNotFound
	}
	out := *c
	return &out, nil
}

// LatestChat returns the user's most recently created chat.
func (s *Store) LatestChat(_ context.Context, userID domain.UserID) (*domain.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.Chat
	for _, id := range s.chatsByUser[userID] {
		c := s.chats[id]
		if latest == nil || !c.CreatedAt.Before(latest.CreatedAt) {
			latest = c
		}
	}
	if latest == nil {
		return nil, domain.ErrChatNotFound
	}
	out := *latest
	return &out, nil
}

// DeleteChat removes the chat and its messages.
func (s *Store) DeleteChat(_ context.Context, id domain.ChatID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.chats[id]
	if !ok {
		return domain.ErrChatNotFound
	}
	s.deleteChatLocked(c)
	return nil
}

func (s *Store) deleteChatLocked(c *domain.Chat) {
	delete(s.chats, c.ID)
	delete(s.messages, c.ID)
	s.chatsByUser[c.UserID] = slices.DeleteFunc(s.chatsByUser[c.UserID], func(id domain.ChatID) bool {
		return id == c.ID
	})
	if len(s.chatsByUser[c.UserID]) == 0 {
		delete(s.chatsByUser, c.UserID)
	}
}

// PurgeUser removes every chat, message, mood entry and task of userID.
func (s *Store) PurgeUser(_ context.Context, userID domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range slices.Clone(s.chatsByUser[userID]) {
		s.deleteChatLocked(s.chats[id])
	}
	delete(s.moods, userID)
	s.taskOrder = slices.DeleteFunc(s.taskOrder, func(id domain.TaskID) bool {
		if s.tasks[id].UserID == userID {
			delete(s.tasks, id)
			return true
		}
		return false
	})
	return nil
}
