package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/PabloGalante/farum-wellness/internal/domain"
	"github.com/PabloGalante/farum-wellness/internal/observability"
)

// Board reads today's tasks and toggles their completion.
type Board struct {
	store domain.TaskStore
	loc   *time.Location
	now   func() time.Time
}

func NewBoard(store domain.TaskStore, loc *time.Location) *Board {
	if loc == nil {
		loc = time.UTC
	}
	return &Board{store: store, loc: loc, now: time.Now}
}

func (b *Board) Today(ctx context.Context, userID domain.UserID) ([]*domain.Task, error) {
	tasks, err := b.store.ListTasks(ctx, userID, domain.DayOf(b.now(), b.loc))
	if err != nil {
		observability.LoggerForUser(ctx, string(userID)).Error("failed to list tasks", "error", err)
		observability.PersistenceFailed("list_tasks", true)
		return nil, domain.Persistence("Failed to load tasks", err)
	}
	return tasks, nil
}

// SetCompleted marks a task of userID done or not done and returns it.
func (b *Board) SetCompleted(ctx context.Context, userID domain.UserID, id domain.TaskID, completed bool) (*domain.Task, error) {
	log := observability.LoggerForUser(ctx, string(userID)).With("task_id", id)

	task, err := b.store.GetTask(ctx, id)
	if errors.Is(err, domain.ErrTaskNotFound) {
		return nil, domain.NotFound("Task not found", err)
	}
	if err != nil {
		log.Error("failed to load task", "error", err)
		observability.PersistenceFailed("get_task", true)
		return nil, domain.Persistence("Failed to update task", err)
	}
	if task.UserID != userID {
		log.Warn("task update denied")
		return nil, domain.Forbidden("Task belongs to another user")
	}

	if err := b.store.SetTaskCompleted(ctx, id, completed); err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return nil, domain.NotFound("Task not found", err)
		}
		log.Error("failed to update task", "error", err)
		observability.PersistenceFailed("set_task_completed", true)
		return nil, domain.Persistence("Failed to update task", err)
	}

	task.Completed = completed
	log.Info("task updated", "completed", completed)
	return task, nil
}
