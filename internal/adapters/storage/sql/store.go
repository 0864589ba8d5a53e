package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/PabloGalante/farum-wellness/internal/domain"
)

// Store implements domain.Store with GORM. Timestamps are written in UTC so
// range filters compare consistently across drivers.
type Store struct {
	db *gorm.DB
}

var _ domain.Store = (*Store)(nil)

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateChat(ctx context.Context, chat *domain.Chat) error {
	m := &ChatModel{ID: string(chat.ID), UserID: string(chat.UserID), CreatedAt: chat.CreatedAt.UTC()}
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("create chat: %w", err)
	}
	return nil
}

func (s *Store) GetChat(ctx context.Context, id domain.ChatID) (*domain.Chat, error) {
	var m ChatModel
	err := s.db.WithContext(ctx).First(&m, "id = ?", string(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrChatNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get chat: %w", err)
	}
	return m.ToDomain(), nil
}

func (s *Store) LatestChat(ctx context.Context, userID domain.UserID) (*domain.Chat, error) {
	var m ChatModel
	err := s.db.WithContext(ctx).
		Where("user_id = ?", string(userID)).
		Order("created_at DESC").
		Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrChatNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest chat: %w", err)
	}
	return m.ToDomain(), nil
}

// DeleteChat removes the chat and its messages in one transaction.
func (s *Store) DeleteChat(ctx context.Context, id domain.ChatID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_id = ?", string(id)).Delete(&MessageModel{}).Error; err != nil {
			return fmt.Errorf("delete messages: %w", err)
		}
		res := tx.Where("id = ?", string(id)).Delete(&ChatModel{})
		if res.Error != nil {
			return fmt.Errorf("delete chat: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrChatNotFound
		}
		return nil
	})
}

func (s *Store) AppendMessage(ctx context.Context, msg *domain.Message) error {
	m := &MessageModel{
		ID:        string(msg.ID),
		ChatID:    string(msg.ChatID),
		Role:      string(msg.Role),
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt.UTC(),
	}
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

func (s *Store) RecentMessages(ctx context.Context, chatID domain.ChatID, limit int) ([]*domain.Message, error) {
	q := s.db.WithContext(ctx).Where("chat_id = ?", string(chatID)).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []MessageModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("recent messages: %w", err)
	}
	out := make([]*domain.Message, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}

func (s *Store) AppendMoodEntry(ctx context.Context, entry *domain.MoodEntry) error {
	m := &MoodEntryModel{
		ID:        string(entry.ID),
		UserID:    string(entry.UserID),
		Score:     entry.Score,
		Note:      entry.Note,
		CreatedAt: entry.CreatedAt.UTC(),
	}
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("append mood entry: %w", err)
	}
	return nil
}

func (s *Store) RecentMoodEntries(ctx context.Context, userID domain.UserID, limit int) ([]*domain.MoodEntry, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", string(userID)).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []MoodEntryModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("recent mood entries: %w", err)
	}
	out := make([]*domain.MoodEntry, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}

// ReplaceTasksForDay deletes and inserts inside one transaction, so a failed
// insert leaves the previous set in place.
func (s *Store) ReplaceTasksForDay(ctx context.Context, userID domain.UserID, day domain.DayWindow, tasks []*domain.Task) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND created_at >= ? AND created_at < ?",
			string(userID), day.Start.UTC(), day.End.UTC()).
			Delete(&TaskModel{}).Error
		if err != nil {
			return fmt.Errorf("delete tasks: %w", err)
		}
		if len(tasks) == 0 {
			return nil
		}

		rows := make([]*TaskModel, 0, len(tasks))
		for _, t := range tasks {
			rows = append(rows, taskToModel(t))
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("insert tasks: %w", err)
		}
		return nil
	})
}

func (s *Store) ListTasks(ctx context.Context, userID domain.UserID, day domain.DayWindow) ([]*domain.Task, error) {
	var rows []TaskModel
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND created_at >= ? AND created_at < ?", string(userID), day.Start.UTC(), day.End.UTC()).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	out := make([]*domain.Task, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}

func (s *Store) GetTask(ctx context.Context, id domain.TaskID) (*domain.Task, error) {
	var m TaskModel
	err := s.db.WithContext(ctx).First(&m, "id = ?", string(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return m.ToDomain(), nil
}

func (s *Store) SetTaskCompleted(ctx context.Context, id domain.TaskID, completed bool) error {
	res := s.db.WithContext(ctx).Model(&TaskModel{}).Where("id = ?", string(id)).Update("completed", completed)
	if res.Error != nil {
		return fmt.Errorf("set task completed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// PurgeUser deletes every row owned by userID in one transaction.
func (s *Store) PurgeUser(ctx context.Context, userID domain.UserID) error {
	uid := string(userID)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		chatIDs := tx.Model(&ChatModel{}).Select("id").Where("user_id = ?", uid)
		if err := tx.Where("chat_id IN (?)", chatIDs).Delete(&MessageModel{}).Error; err != nil {
			return fmt.Errorf("purge messages: %w", err)
		}
		for _, model := range []any{&ChatModel{}, &MoodEntryModel{}, &TaskModel{}} {
			if err := tx.Where("user_id = ?", uid).Delete(model).Error; err != nil {
				return fmt.Errorf("purge %T: %w", model, err)
			}
		}
		return nil
	})
}
