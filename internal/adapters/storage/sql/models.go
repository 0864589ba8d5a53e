package sqlstore

import (
	"time"

	"github.com/PabloGalante/farum-wellness/internal/domain"
)

type ChatModel struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	UserID    string    `gorm:"type:varchar(64);index:idx_chats_user_created;not null"`
	CreatedAt time.Time `gorm:"index:idx_chats_user_created;not null"`
}

func (ChatModel) TableName() string { return "chats" }

func (m *ChatModel) ToDomain() *domain.Chat {
	return &domain.Chat{ID: domain.ChatID(m.ID), UserID: domain.UserID(m.UserID), CreatedAt: m.CreatedAt}
}

type MessageModel struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	ChatID    string    `gorm:"type:varchar(36);index:idx_messages_chat_created;not null"`
	Role      string    `gorm:"type:varchar(16);not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"index:idx_messages_chat_created;not null"`
}

func (MessageModel) TableName() string { return "messages" }

func (m *MessageModel) ToDomain() *domain.Message {
	return &domain.Message{
		ID:        domain.MessageID(m.ID),
		ChatID:    domain.ChatID(m.ChatID),
		Role:      domain.Role(m.Role),
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

type MoodEntryModel struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	UserID    string    `gorm:"type:varchar(64);index:idx_mood_user_created;not null"`
	Score     int       `gorm:"not null;check:score >= 1 AND score <= 10"`
	Note      string    `gorm:"type:varchar(100)"`
	CreatedAt time.Time `gorm:"index:idx_mood_user_created;not null"`
}

func (MoodEntryModel) TableName() string { return "mood_entries" }

func (m *MoodEntryModel) ToDomain() *domain.MoodEntry {
	return &domain.MoodEntry{
		ID:        domain.MoodEntryID(m.ID),
		UserID:    domain.UserID(m.UserID),
		Score:     m.Score,
		Note:      m.Note,
		CreatedAt: m.CreatedAt,
	}
}

type TaskModel struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	UserID    string    `gorm:"type:varchar(64);index:idx_tasks_user_created;not null"`
	Title     string    `gorm:"type:varchar(500);not null"`
	Completed bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"index:idx_tasks_user_created;not null"`
}

func (TaskModel) TableName() string { return "tasks" }

func (m *TaskModel) ToDomain() *domain.Task {
	return &domain.Task{
		ID:        domain.TaskID(m.ID),
		UserID:    domain.UserID(m.UserID),
		Title:     m.Title,
		Completed: m.Completed,
		CreatedAt: m.CreatedAt,
	}
}

func taskToModel(t *domain.Task) *TaskModel {
	return &TaskModel{
		ID:        string(t.ID),
		UserID:    string(t.UserID),
		Title:     t.Title,
		Completed: t.Completed,
		CreatedAt: t.CreatedAt.UTC(),
	}
}
