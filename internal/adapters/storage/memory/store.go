package memory

import (
	"sync"

	"github.com/PabloGalante/farum-wellness/internal/domain"
)

// Store is an in-memory implementation of domain.Store.
// It is NOT persistent and is only suitable for development / local mode.
// One lock guards every record set so cascades and replacements are atomic.
type Store struct {
	mu sync.RWMutex

	chats       map[domain.ChatID]*domain.Chat
	chatsByUser map[domain.UserID][]domain.ChatID
	messages    map[domain.ChatID][]*domain.Message
	moods       map[domain.UserID][]*domain.MoodEntry
	tasks       map[domain.TaskID]*domain.Task
	taskOrder   []domain.TaskID
}

var _ domain.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		chats:       make(map[domain.ChatID]*domain.Chat),
		chatsByUser: make(map[domain.UserID][]domain.ChatID),
		messages:    make(map[domain.ChatID][]*domain.Message),
		moods:       make(map[domain.UserID][]*domain.MoodEntry),
		tasks:       make(map[domain.TaskID]*domain.Task),
	}
}
