package memory

import (
	"context"
	"errors"
	"slices"

	"github.com/PabloGalante/farum-wellness/internal/domain"
)

// ReplaceTasksForDay swaps the user's tasks inside day for tasks under one lock.
func (s *Store) ReplaceTasksForDay(_ context.Context, userID domain.UserID, day domain.DayWindow, tasks []*domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range tasks {
		if _, exists := s.tasks[t.ID]; exists {
			return errors.New("task already exists")
		}
	}

	s.taskOrder = slices.DeleteFunc(s.taskOrder, func(id domain.TaskID) bool {
		t := s.tasks[id]
		if t.UserID == userID && day.Contains(t.CreatedAt) {
			delete(s.tasks, id)
			return true
		}
		return false
	})

	for _, t := range tasks {
		c := *t
		s.tasks[t.ID] = &c
		s.taskOrder = append(s.taskOrder, t.ID)
	}
	return nil
}

// ListTasks returns the user's tasks created inside day, oldest first.
func (s *Store) ListTasks(_ context.Context, userID domain.UserID, day domain.DayWindow) ([]*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*domain.Task{}
	for _, id := range s.taskOrder {
		t := s.tasks[id]
		if t.UserID == userID && day.Contains(t.CreatedAt) {
			c := *t
			out = append(out, &c)
		}
	}
	slices.SortStableFunc(out, func(a, b *domain.Task) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

func (s *Store) GetTask(_ context.Context, id domain.TaskID) (*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	c := *t
	return &c, nil
}

func (s *Store) SetTaskCompleted(_ context.Context, id domain.TaskID, completed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return domain.ErrTaskNotFound
	}
	t.Completed = completed
	return nil
}
